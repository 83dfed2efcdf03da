// Package expiry computes when a batch stops being crisp and how close that
// moment is to the current wall clock.
package expiry

import (
	"math"
	"time"

	"github.com/mamadbah2/breadlog/internal/domain/models"
)

const (
	minutesPerDay = 24 * 60
	warningWindow = 60
	noExpiryLabel = "-"
)

// Status classifies an expiry against the current minute of day.
type Status string

const (
	StatusUndefined Status = "undefined"
	StatusNormal    Status = "normal"
	StatusWarning   Status = "warning"
	StatusDanger    Status = "danger"
)

// Result describes a batch expiry. Status depends on the clock passed to
// Compute and must be recomputed rather than cached.
type Result struct {
	Label  string           `json:"label"`
	Time   models.TimeOfDay `json:"time"`
	Status Status           `json:"status"`
	// DayOffset counts the midnights crossed between production and expiry.
	// Label alone cannot tell 03:00 tomorrow from 03:00 today.
	DayOffset int `json:"day_offset"`
	// Unwrapped is production minute plus the crispness window, before the
	// modulo; Status is measured against it.
	Unwrapped int `json:"unwrapped_minutes"`
}

// Defined reports whether an expiry could be computed.
func (r Result) Defined() bool {
	return r.Status != StatusUndefined
}

// Compute returns the expiry for a production time and a crispness window.
// Either input unset yields an undefined result labelled "-". Fractional
// windows are rounded to the nearest minute.
func Compute(production models.TimeOfDay, crispnessHours models.Number, now time.Time) Result {
	if !production.Valid || !crispnessHours.Valid {
		return Result{Label: noExpiryLabel, Status: StatusUndefined}
	}

	unwrapped := production.MinuteOfDay() + int(math.Round(crispnessHours.Value*60))
	wrapped := mod(unwrapped, minutesPerDay)
	at := models.Clock((wrapped/60)%24, wrapped%60)

	return Result{
		Label:     at.String(),
		Time:      at,
		Status:    StatusAt(unwrapped, now.Hour()*60+now.Minute()),
		DayOffset: floorDiv(unwrapped, minutesPerDay),
		Unwrapped: unwrapped,
	}
}

// StatusAt classifies remaining = unwrapped - nowMinute: (0,60) is a warning,
// <= 0 is expired, anything else normal.
func StatusAt(unwrapped, nowMinute int) Status {
	remaining := unwrapped - nowMinute
	switch {
	case remaining <= 0:
		return StatusDanger
	case remaining < warningWindow:
		return StatusWarning
	default:
		return StatusNormal
	}
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
