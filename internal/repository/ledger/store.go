// Package ledger persists day ledgers and the holiday set as two independent
// JSON blobs in a key-value backend.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/breadlog/internal/domain/metrics"
	"github.com/mamadbah2/breadlog/internal/domain/models"
	"github.com/mamadbah2/breadlog/internal/repository/kv"
)

const (
	// DataKey holds the date -> ledger object.
	DataKey = "breadProductionData"
	// HolidaysKey holds the array of holiday dates.
	HolidaysKey = "breadProductionHolidays"
)

// ErrNotFound is returned when no ledger exists for a date.
var ErrNotFound = errors.New("ledger not found")

// Entry is a stored ledger with its derived aggregates attached.
type Entry struct {
	Ledger  models.DayLedger `json:"ledger"`
	Totals  metrics.Totals   `json:"totals"`
	Holiday bool             `json:"holiday"`
}

// Store is the keyed ledger collection. Every call reads the blob from the
// backend and mutations write the full blob back.
type Store struct {
	backend kv.Backend
	logger  *zap.Logger
	mu      sync.Mutex
}

// NewStore wires a store over the given backend.
func NewStore(backend kv.Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, logger: logger}
}

// Upsert replaces whatever is stored under ledger.Date. No field merge.
func (s *Store) Upsert(ctx context.Context, ledger models.DayLedger) error {
	if err := ledger.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadLedgers(ctx)
	if err != nil {
		return err
	}
	all[ledger.Date] = ledger.Clone()
	if err := s.writeJSON(ctx, DataKey, all); err != nil {
		return err
	}

	s.logger.Debug("ledger stored", zap.String("date", ledger.Date), zap.Int("batches", len(ledger.Batches)))
	return nil
}

// Get returns the ledger for date or ErrNotFound.
func (s *Store) Get(ctx context.Context, date string) (models.DayLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadLedgers(ctx)
	if err != nil {
		return models.DayLedger{}, err
	}
	ledger, ok := all[date]
	if !ok {
		return models.DayLedger{}, fmt.Errorf("%w: %s", ErrNotFound, date)
	}
	return ledger, nil
}

// Delete removes the ledger irreversibly. The holiday flag for the date is
// left untouched.
func (s *Store) Delete(ctx context.Context, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadLedgers(ctx)
	if err != nil {
		return err
	}
	if _, ok := all[date]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, date)
	}
	delete(all, date)
	if err := s.writeJSON(ctx, DataKey, all); err != nil {
		return err
	}

	s.logger.Info("ledger deleted", zap.String("date", date))
	return nil
}

// Dates returns every stored date ascending.
func (s *Store) Dates(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadLedgers(ctx)
	if err != nil {
		return nil, err
	}
	return sortedKeys(all), nil
}

// ListSortedDescending returns every ledger with totals, newest first.
func (s *Store) ListSortedDescending(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadLedgers(ctx)
	if err != nil {
		return nil, err
	}
	holidays, err := s.loadHolidays(ctx)
	if err != nil {
		return nil, err
	}

	dates := sortedKeys(all)
	entries := make([]Entry, 0, len(dates))
	for i := len(dates) - 1; i >= 0; i-- {
		ledger := all[dates[i]]
		_, holiday := holidays[ledger.Date]
		entries = append(entries, Entry{Ledger: ledger, Totals: metrics.Summarize(ledger), Holiday: holiday})
	}
	return entries, nil
}

// ListLastN returns the n most recent ledgers ascending by date.
func (s *Store) ListLastN(ctx context.Context, n int) ([]models.DayLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadLedgers(ctx)
	if err != nil {
		return nil, err
	}

	tail := metrics.LastN(sortedKeys(all), n)
	out := make([]models.DayLedger, 0, len(tail))
	for _, date := range tail {
		out = append(out, all[date])
	}
	return out, nil
}

// ToggleHoliday flips holiday membership for date and returns the new state.
func (s *Store) ToggleHoliday(ctx context.Context, date string) (bool, error) {
	if _, err := models.ParseDate(date); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	holidays, err := s.loadHolidays(ctx)
	if err != nil {
		return false, err
	}
	_, was := holidays[date]
	if was {
		delete(holidays, date)
	} else {
		holidays[date] = struct{}{}
	}

	if err := s.writeJSON(ctx, HolidaysKey, sortedKeys(holidays)); err != nil {
		return was, err
	}
	return !was, nil
}

// IsHoliday reports holiday membership for date.
func (s *Store) IsHoliday(ctx context.Context, date string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	holidays, err := s.loadHolidays(ctx)
	if err != nil {
		return false, err
	}
	_, ok := holidays[date]
	return ok, nil
}

// Holidays returns the holiday dates ascending.
func (s *Store) Holidays(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	holidays, err := s.loadHolidays(ctx)
	if err != nil {
		return nil, err
	}
	return sortedKeys(holidays), nil
}

func (s *Store) loadLedgers(ctx context.Context) (map[string]models.DayLedger, error) {
	all := make(map[string]models.DayLedger)
	found, err := s.readJSON(ctx, DataKey, &all)
	if err != nil {
		return nil, err
	}
	if !found || all == nil {
		return make(map[string]models.DayLedger), nil
	}
	return all, nil
}

func (s *Store) loadHolidays(ctx context.Context) (map[string]struct{}, error) {
	var dates []string
	if _, err := s.readJSON(ctx, HolidaysKey, &dates); err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set, nil
}

func (s *Store) readJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) writeJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.backend.Put(ctx, key, raw); err != nil {
		s.logger.Error("persist failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
