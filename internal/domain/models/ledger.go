package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the calendar key used by the store and the wire format.
const DateLayout = "2006-01-02"

const (
	promotionYes = "Sim"
	promotionNo  = "Não"
)

// ErrInvalidDate is returned when a ledger key is not a YYYY-MM-DD date.
var ErrInvalidDate = errors.New("invalid ledger date")

var dayLabels = [7]string{"Domingo", "Segunda-feira", "Terça-feira", "Quarta-feira", "Quinta-feira", "Sexta-feira", "Sábado"}

var validate = validator.New()

// DayLedger is the full record for one calendar day.
type DayLedger struct {
	Date        string        `validate:"required,datetime=2006-01-02"`
	Day         string        `validate:"max=32"`
	Temperature Number
	Promotion   bool
	Batches     []BatchRecord `validate:"dive"`
}

// DayLabel returns the weekday label persisted in the ledger's day field.
func DayLabel(date time.Time) string {
	return dayLabels[date.Weekday()]
}

// ParseDate validates a ledger key.
func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return parsed, nil
}

// NewDayLedger builds the default ledger for a date: weekday label derived
// from the date and one empty batch stamped with the current wall clock.
func NewDayLedger(date string, now time.Time) (DayLedger, error) {
	parsed, err := ParseDate(date)
	if err != nil {
		return DayLedger{}, err
	}
	return DayLedger{
		Date: parsed.Format(DateLayout),
		Day:  DayLabel(parsed),
		Batches: []BatchRecord{
			{Sequence: 1, ProductionTime: ClockOf(now)},
		},
	}, nil
}

// NextSequence returns the sequence number the next appended batch receives.
func (l DayLedger) NextSequence() int {
	next := 1
	for _, b := range l.Batches {
		if b.Sequence >= next {
			next = b.Sequence + 1
		}
	}
	return next
}

// Batch returns the index of the batch with the given sequence number.
func (l DayLedger) Batch(seq int) (int, bool) {
	for i, b := range l.Batches {
		if b.Sequence == seq {
			return i, true
		}
	}
	return -1, false
}

// Clone returns a deep copy so callers never share the batches slice.
func (l DayLedger) Clone() DayLedger {
	out := l
	out.Batches = append([]BatchRecord(nil), l.Batches...)
	return out
}

// Validate checks the date key, unique positive sequence numbers and
// non-negative quantities.
func (l DayLedger) Validate() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("validate ledger %s: %w", l.Date, err)
	}

	seen := make(map[int]struct{}, len(l.Batches))
	for _, b := range l.Batches {
		if b.Sequence < 1 {
			return fmt.Errorf("ledger %s: batch number %d must be positive", l.Date, b.Sequence)
		}
		if _, dup := seen[b.Sequence]; dup {
			return fmt.Errorf("ledger %s: duplicate batch number %d", l.Date, b.Sequence)
		}
		seen[b.Sequence] = struct{}{}

		for name, n := range map[string]Number{"produced": b.Produced, "crispness": b.CrispnessHours, "sold": b.Sold} {
			if n.Valid && n.Value < 0 {
				return fmt.Errorf("ledger %s batch %d: %s must not be negative", l.Date, b.Sequence, name)
			}
		}
	}
	return nil
}

type ledgerWire struct {
	Date        string          `json:"date"`
	Day         string          `json:"day"`
	Temperature Number          `json:"temperature"`
	Promotion   json.RawMessage `json:"promotion"`
	Batches     []BatchRecord   `json:"batches"`
}

func (l DayLedger) MarshalJSON() ([]byte, error) {
	rawPromotion, err := json.Marshal(YesNo(l.Promotion))
	if err != nil {
		return nil, err
	}
	batches := l.Batches
	if batches == nil {
		batches = []BatchRecord{}
	}
	return json.Marshal(ledgerWire{
		Date:        l.Date,
		Day:         l.Day,
		Temperature: l.Temperature,
		Promotion:   rawPromotion,
		Batches:     batches,
	})
}

func (l *DayLedger) UnmarshalJSON(data []byte) error {
	var wire ledgerWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode ledger: %w", err)
	}

	*l = DayLedger{
		Date:        wire.Date,
		Day:         wire.Day,
		Temperature: wire.Temperature,
		Promotion:   parsePromotion(wire.Promotion),
		Batches:     wire.Batches,
	}
	return nil
}

func parsePromotion(raw json.RawMessage) bool {
	var asBool bool
	if err := json.Unmarshal(raw, &asBool); err == nil {
		return asBool
	}
	var asText string
	if err := json.Unmarshal(raw, &asText); err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(asText), promotionYes)
}

// YesNo renders a flag the way the form shows it.
func YesNo(v bool) string {
	if v {
		return promotionYes
	}
	return promotionNo
}
