package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is an optional 24h wall-clock time without a timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
	Valid  bool
}

// Clock builds a set TimeOfDay.
func Clock(hour, minute int) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute, Valid: true}
}

// ClockOf takes the wall-clock hour and minute of t.
func ClockOf(t time.Time) TimeOfDay {
	return Clock(t.Hour(), t.Minute())
}

// ParseTimeOfDay parses "HH:MM". Anything else yields an unset value.
func ParseTimeOfDay(raw string) TimeOfDay {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 {
		return TimeOfDay{}
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}
	}
	return Clock(hour, minute)
}

// MinuteOfDay returns hour*60+minute.
func (t TimeOfDay) MinuteOfDay() int {
	return t.Hour*60 + t.Minute
}

// String renders "HH:MM", or an empty string when unset.
func (t TimeOfDay) String() string {
	if !t.Valid {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = TimeOfDay{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode production time: %w", err)
	}
	*t = ParseTimeOfDay(raw)
	return nil
}
