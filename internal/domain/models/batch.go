package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// BatchRecord captures one baking run within a day.
type BatchRecord struct {
	Sequence       int
	ProductionTime TimeOfDay
	Produced       Number
	CrispnessHours Number
	Sold           Number
	Notes          string
}

// Remaining is max(0, produced - sold). Unset quantities count as zero.
func (b BatchRecord) Remaining() float64 {
	remaining := b.Produced.Or(0) - b.Sold.Or(0)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// batchWire is the persisted shape inside the breadProductionData blob.
type batchWire struct {
	BatchNumber    json.RawMessage `json:"batchNumber"`
	ProductionTime TimeOfDay       `json:"productionTime"`
	Produced       Number          `json:"produced"`
	Crispness      Number          `json:"crispness"`
	Sold           Number          `json:"sold"`
	Remaining      Number          `json:"remaining"`
	Notes          string          `json:"notes"`
}

// MarshalJSON writes the batch with its remainder snapshot.
func (b BatchRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(batchWire{
		BatchNumber:    json.RawMessage(strconv.Itoa(b.Sequence)),
		ProductionTime: b.ProductionTime,
		Produced:       b.Produced,
		Crispness:      b.CrispnessHours,
		Sold:           b.Sold,
		Remaining:      Num(b.Remaining()),
		Notes:          b.Notes,
	})
}

// UnmarshalJSON reads both the typed and the legacy all-string layouts. The
// stored remainder is ignored; it is always derived from produced and sold.
func (b *BatchRecord) UnmarshalJSON(data []byte) error {
	var wire batchWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode batch: %w", err)
	}

	seq, err := parseSequence(wire.BatchNumber)
	if err != nil {
		return err
	}

	*b = BatchRecord{
		Sequence:       seq,
		ProductionTime: wire.ProductionTime,
		Produced:       wire.Produced,
		CrispnessHours: wire.Crispness,
		Sold:           wire.Sold,
		Notes:          wire.Notes,
	}
	return nil
}

func parseSequence(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, fmt.Errorf("decode batch number: %w", err)
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	seq, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("batch number %q: %w", text, err)
	}
	return seq, nil
}
