// Package production owns the working copy of each day's form. Edits land on
// an in-memory draft; Save and FlushAll write edited drafts to the ledger
// store. Viewing a day never persists it.
package production

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/breadlog/internal/domain/models"
	"github.com/mamadbah2/breadlog/internal/repository/ledger"
	"github.com/mamadbah2/breadlog/internal/service/reporting"
)

// ErrConfirmationRequired guards reset and delete.
var ErrConfirmationRequired = errors.New("destructive action requires confirmation")

// ErrBatchNotFound is returned for an unknown batch number.
var ErrBatchNotFound = errors.New("batch not found")

// Store is the ledger persistence the workspace needs.
type Store interface {
	Get(ctx context.Context, date string) (models.DayLedger, error)
	Upsert(ctx context.Context, l models.DayLedger) error
	Delete(ctx context.Context, date string) error
	IsHoliday(ctx context.Context, date string) (bool, error)
}

// BatchPatch carries raw form input; nil fields are left unchanged. Numeric
// text that does not parse becomes unset.
type BatchPatch struct {
	ProductionTime *string `json:"productionTime"`
	Produced       *string `json:"produced"`
	Crispness      *string `json:"crispness"`
	Sold           *string `json:"sold"`
	Notes          *string `json:"notes" binding:"omitempty,max=500"`
}

// MetaPatch edits the day's metadata.
type MetaPatch struct {
	Day         *string `json:"day" binding:"omitempty,max=32"`
	Temperature *string `json:"temperature"`
	Promotion   *bool   `json:"promotion"`
}

// Service is the production workspace.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	drafts map[string]*models.DayLedger
	// dirty holds dates edited since their last save.
	dirty map[string]struct{}
}

// NewService constructs a workspace. A nil clock means time.Now.
func NewService(store Store, logger *zap.Logger, clock func() time.Time) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    clock,
		drafts: make(map[string]*models.DayLedger),
		dirty:  make(map[string]struct{}),
	}
}

// Today returns the current calendar date key.
func (s *Service) Today() string {
	return s.now().Format(models.DateLayout)
}

// Draft returns the edited draft for date when one is open, else the stored
// or default ledger. It does not open a draft.
func (s *Service) Draft(ctx context.Context, date string) (reporting.DayReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := dateKey(date)
	if err != nil {
		return reporting.DayReport{}, err
	}
	if draft, ok := s.drafts[key]; ok {
		return s.view(ctx, *draft)
	}

	current, err := s.load(ctx, key)
	if err != nil {
		return reporting.DayReport{}, err
	}
	return s.view(ctx, current)
}

// AddBatch appends an empty batch numbered after the highest existing one.
func (s *Service) AddBatch(ctx context.Context, date string) (reporting.DayReport, error) {
	return s.mutate(ctx, date, func(d *models.DayLedger) error {
		d.Batches = append(d.Batches, models.BatchRecord{Sequence: d.NextSequence()})
		return nil
	})
}

// UpdateBatch applies a patch to the batch with the given sequence number.
func (s *Service) UpdateBatch(ctx context.Context, date string, seq int, patch BatchPatch) (reporting.DayReport, error) {
	return s.mutate(ctx, date, func(d *models.DayLedger) error {
		idx, ok := d.Batch(seq)
		if !ok {
			return fmt.Errorf("%w: %d", ErrBatchNotFound, seq)
		}
		b := &d.Batches[idx]
		if patch.ProductionTime != nil {
			b.ProductionTime = models.ParseTimeOfDay(*patch.ProductionTime)
		}
		if patch.Produced != nil {
			b.Produced = nonNegative(models.ParseNumber(*patch.Produced))
		}
		if patch.Crispness != nil {
			b.CrispnessHours = nonNegative(models.ParseNumber(*patch.Crispness))
		}
		if patch.Sold != nil {
			b.Sold = nonNegative(models.ParseNumber(*patch.Sold))
		}
		if patch.Notes != nil {
			b.Notes = *patch.Notes
		}
		return nil
	})
}

// UpdateMeta edits the day label, temperature and promotion flag.
func (s *Service) UpdateMeta(ctx context.Context, date string, patch MetaPatch) (reporting.DayReport, error) {
	return s.mutate(ctx, date, func(d *models.DayLedger) error {
		if patch.Day != nil {
			d.Day = *patch.Day
		}
		if patch.Temperature != nil {
			d.Temperature = models.ParseNumber(*patch.Temperature)
		}
		if patch.Promotion != nil {
			d.Promotion = *patch.Promotion
		}
		return nil
	})
}

// Reset clears every batch input while keeping the rows. The first batch is
// stamped with the current time, temperature is cleared and the promotion
// switched off.
func (s *Service) Reset(ctx context.Context, date string, confirm bool) (reporting.DayReport, error) {
	if !confirm {
		return reporting.DayReport{}, ErrConfirmationRequired
	}
	now := s.now()
	return s.mutate(ctx, date, func(d *models.DayLedger) error {
		for i := range d.Batches {
			d.Batches[i] = models.BatchRecord{Sequence: d.Batches[i].Sequence}
		}
		if len(d.Batches) > 0 {
			d.Batches[0].ProductionTime = models.ClockOf(now)
		}
		d.Temperature = models.Number{}
		d.Promotion = false
		return nil
	})
}

// Save writes the draft for date to the store.
func (s *Service) Save(ctx context.Context, date string) (reporting.DayReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := s.open(ctx, date)
	if err != nil {
		return reporting.DayReport{}, err
	}
	if err := s.store.Upsert(ctx, *draft); err != nil {
		return reporting.DayReport{}, fmt.Errorf("save ledger %s: %w", date, err)
	}
	delete(s.dirty, draft.Date)

	s.logger.Info("ledger saved", zap.String("date", date), zap.Int("batches", len(draft.Batches)))
	return s.view(ctx, *draft)
}

// Delete removes the stored ledger and discards its draft.
func (s *Service) Delete(ctx context.Context, date string, confirm bool) error {
	if !confirm {
		return ErrConfirmationRequired
	}

	key, err := dateKey(date)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.drafts, key)
	delete(s.dirty, key)
	return s.store.Delete(ctx, key)
}

// FlushAll saves every draft edited since its last save. It runs on shutdown
// and before the daily report, the way the form saved itself when the page
// closed.
func (s *Service) FlushAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dates := make([]string, 0, len(s.dirty))
	for date := range s.dirty {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var errs []error
	for _, date := range dates {
		if err := s.store.Upsert(ctx, *s.drafts[date]); err != nil {
			s.logger.Error("failed to flush draft", zap.String("date", date), zap.Error(err))
			errs = append(errs, fmt.Errorf("flush %s: %w", date, err))
			continue
		}
		delete(s.dirty, date)
	}
	if len(dates) > 0 {
		s.logger.Info("drafts flushed", zap.Int("count", len(dates)), zap.Int("failed", len(errs)))
	}
	return errors.Join(errs...)
}

func (s *Service) mutate(ctx context.Context, date string, fn func(*models.DayLedger) error) (reporting.DayReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := s.open(ctx, date)
	if err != nil {
		return reporting.DayReport{}, err
	}

	working := draft.Clone()
	if err := fn(&working); err != nil {
		return reporting.DayReport{}, err
	}
	*draft = working
	s.dirty[working.Date] = struct{}{}
	return s.view(ctx, working)
}

// open returns the cached draft for date, loading it first if needed. It must
// be called with mu held.
func (s *Service) open(ctx context.Context, date string) (*models.DayLedger, error) {
	key, err := dateKey(date)
	if err != nil {
		return nil, err
	}
	if draft, ok := s.drafts[key]; ok {
		return draft, nil
	}

	loaded, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	s.drafts[key] = &loaded
	return &loaded, nil
}

// load reads the stored ledger for key, or the default one for a new day.
func (s *Service) load(ctx context.Context, key string) (models.DayLedger, error) {
	stored, err := s.store.Get(ctx, key)
	switch {
	case err == nil:
		return stored, nil
	case errors.Is(err, ledger.ErrNotFound):
		return models.NewDayLedger(key, s.now())
	default:
		return models.DayLedger{}, fmt.Errorf("open draft %s: %w", key, err)
	}
}

func dateKey(date string) (string, error) {
	parsed, err := models.ParseDate(date)
	if err != nil {
		return "", err
	}
	return parsed.Format(models.DateLayout), nil
}

func (s *Service) view(ctx context.Context, d models.DayLedger) (reporting.DayReport, error) {
	holiday, err := s.store.IsHoliday(ctx, d.Date)
	if err != nil {
		return reporting.DayReport{}, fmt.Errorf("load holiday flag: %w", err)
	}
	return reporting.BuildDayReport(d.Clone(), holiday, s.now()), nil
}

func nonNegative(n models.Number) models.Number {
	if n.Valid && n.Value < 0 {
		return models.Number{}
	}
	return n
}
