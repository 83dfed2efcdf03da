package reporting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/breadlog/internal/domain/metrics"
	"github.com/mamadbah2/breadlog/internal/domain/models"
	"github.com/mamadbah2/breadlog/internal/repository/ledger"
	"github.com/mamadbah2/breadlog/internal/service/expiry"
	"github.com/mamadbah2/breadlog/internal/service/suggestions"
)

// LedgerReader is the read side of the ledger store.
type LedgerReader interface {
	Get(ctx context.Context, date string) (models.DayLedger, error)
	IsHoliday(ctx context.Context, date string) (bool, error)
	ListLastN(ctx context.Context, n int) ([]models.DayLedger, error)
	ListSortedDescending(ctx context.Context) ([]ledger.Entry, error)
}

// BatchView carries the derived, clock-dependent values of one batch.
type BatchView struct {
	Sequence  int           `json:"batch_number"`
	Remaining float64       `json:"remaining"`
	Expiry    expiry.Result `json:"expiry"`
}

// DayReport is everything the presentation and export layers render for a day.
type DayReport struct {
	Ledger      models.DayLedger `json:"ledger"`
	Totals      metrics.Totals   `json:"totals"`
	Batches     []BatchView      `json:"batch_views"`
	Suggestions []string         `json:"suggestions"`
	Holiday     bool             `json:"holiday"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// TrendReport is the chart series plus the multi-day advisories.
type TrendReport struct {
	Trend       metrics.Trend `json:"trend"`
	Suggestions []string      `json:"suggestions"`
}

// BuildDayReport recomputes totals, expiry status and suggestions at now.
func BuildDayReport(l models.DayLedger, holiday bool, now time.Time) DayReport {
	totals := metrics.Summarize(l)

	views := make([]BatchView, 0, len(l.Batches))
	for _, b := range l.Batches {
		views = append(views, BatchView{
			Sequence:  b.Sequence,
			Remaining: b.Remaining(),
			Expiry:    expiry.Compute(b.ProductionTime, b.CrispnessHours, now),
		})
	}

	return DayReport{
		Ledger:      l,
		Totals:      totals,
		Batches:     views,
		Suggestions: suggestions.ForTotals(totals),
		Holiday:     holiday,
		GeneratedAt: now,
	}
}

// BuildTrendReport builds the last-7-days series and its advisories.
func BuildTrendReport(ledgers []models.DayLedger) TrendReport {
	trend := metrics.BuildTrend(ledgers)
	return TrendReport{Trend: trend, Suggestions: suggestions.ForTrend(trend)}
}

// Service exposes history and trend views over the stored ledgers.
type Service struct {
	store  LedgerReader
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance. A nil clock means time.Now.
func NewService(store LedgerReader, logger *zap.Logger, clock func() time.Time) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, logger: logger, now: clock}
}

// History returns the stored ledger for date with derived values, or an
// error wrapping ledger.ErrNotFound.
func (s *Service) History(ctx context.Context, date string) (DayReport, error) {
	if _, err := models.ParseDate(date); err != nil {
		return DayReport{}, err
	}

	l, err := s.store.Get(ctx, date)
	if err != nil {
		return DayReport{}, err
	}
	holiday, err := s.store.IsHoliday(ctx, date)
	if err != nil {
		return DayReport{}, fmt.Errorf("load holiday flag: %w", err)
	}
	return BuildDayReport(l, holiday, s.now()), nil
}

// Trend returns the series of the most recent stored days.
func (s *Service) Trend(ctx context.Context) (TrendReport, error) {
	ledgers, err := s.store.ListLastN(ctx, metrics.TrendWindow)
	if err != nil {
		return TrendReport{}, fmt.Errorf("load trend ledgers: %w", err)
	}

	report := BuildTrendReport(ledgers)
	s.logger.Debug("trend computed", zap.Int("days", report.Trend.Len()), zap.Int("suggestions", len(report.Suggestions)))
	return report, nil
}

// Ledgers lists every stored day newest first with totals attached.
func (s *Service) Ledgers(ctx context.Context) ([]ledger.Entry, error) {
	entries, err := s.store.ListSortedDescending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	return entries, nil
}

// ToDailyReport flattens a day report into its archived form.
func ToDailyReport(r DayReport) models.DailyReport {
	archived := models.DailyReport{
		Date:           r.Ledger.Date,
		Day:            r.Ledger.Day,
		Batches:        r.Totals.Batches,
		TotalProduced:  r.Totals.TotalProduced,
		TotalSold:      r.Totals.TotalSold,
		TotalRemaining: r.Totals.TotalRemaining,
		SaleRatePct:    r.Totals.SaleRatePct,
		EfficiencyPct:  r.Totals.EfficiencyPct,
		AvgCrispness:   r.Totals.AvgCrispness,
		Promotion:      r.Ledger.Promotion,
		Holiday:        r.Holiday,
		Suggestions:    append([]string{}, r.Suggestions...),
		CreatedAt:      r.GeneratedAt.UTC(),
	}
	if r.Ledger.Temperature.Valid {
		temp := r.Ledger.Temperature.Value
		archived.Temperature = &temp
	}
	return archived
}
