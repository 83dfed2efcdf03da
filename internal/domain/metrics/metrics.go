// Package metrics derives per-day totals and multi-day trend series from
// ledgers. Every function is pure; division by zero yields 0.
package metrics

import (
	"sort"

	"github.com/mamadbah2/breadlog/internal/domain/models"
)

// TrendWindow is the number of most recent days charted.
const TrendWindow = 7

// Totals are the per-day aggregates shown in the summary panel.
type Totals struct {
	Batches        int     `json:"batches"`
	TotalProduced  float64 `json:"total_produced"`
	TotalSold      float64 `json:"total_sold"`
	TotalRemaining float64 `json:"total_remaining"`
	SaleRatePct    float64 `json:"sale_rate_pct"`
	AvgCrispness   float64 `json:"avg_crispness"`
	EfficiencyPct  float64 `json:"efficiency_pct"`
}

// Surplus is produced minus sold, signed.
func (t Totals) Surplus() float64 {
	return t.TotalProduced - t.TotalSold
}

// Summarize computes the day totals. Efficiency is the mean of per-batch
// sold/produced ratios, so it differs from the sale rate whenever batches
// have different sizes.
func Summarize(ledger models.DayLedger) Totals {
	var (
		totals          Totals
		crispnessSum    float64
		crispnessCount  int
		efficiencySum   float64
		efficiencyCount int
	)

	totals.Batches = len(ledger.Batches)
	for _, b := range ledger.Batches {
		produced := b.Produced.Or(0)
		sold := b.Sold.Or(0)

		totals.TotalProduced += produced
		totals.TotalSold += sold

		if crisp := b.CrispnessHours.Or(0); crisp > 0 {
			crispnessSum += crisp
			crispnessCount++
		}
		if produced > 0 {
			efficiencySum += sold / produced
			efficiencyCount++
		}
	}

	if surplus := totals.Surplus(); surplus > 0 {
		totals.TotalRemaining = surplus
	}
	if totals.TotalProduced > 0 {
		totals.SaleRatePct = totals.TotalSold / totals.TotalProduced * 100
	}
	if crispnessCount > 0 {
		totals.AvgCrispness = crispnessSum / float64(crispnessCount)
	}
	if efficiencyCount > 0 {
		totals.EfficiencyPct = efficiencySum / float64(efficiencyCount) * 100
	}
	return totals
}

// Trend holds parallel per-day series, ascending by date.
type Trend struct {
	Dates      []string  `json:"dates"`
	Produced   []float64 `json:"produced"`
	Sold       []float64 `json:"sold"`
	Waste      []float64 `json:"waste"`
	Efficiency []float64 `json:"efficiency"`
}

// Len is the number of days in the series.
func (t Trend) Len() int {
	return len(t.Dates)
}

// BuildTrend sorts the ledgers by date and keeps the last TrendWindow days.
// Waste is signed: an over-sold day charts below zero.
func BuildTrend(ledgers []models.DayLedger) Trend {
	sorted := append([]models.DayLedger(nil), ledgers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })
	if len(sorted) > TrendWindow {
		sorted = sorted[len(sorted)-TrendWindow:]
	}

	trend := Trend{
		Dates:      make([]string, 0, len(sorted)),
		Produced:   make([]float64, 0, len(sorted)),
		Sold:       make([]float64, 0, len(sorted)),
		Waste:      make([]float64, 0, len(sorted)),
		Efficiency: make([]float64, 0, len(sorted)),
	}
	for _, ledger := range sorted {
		totals := Summarize(ledger)
		trend.Dates = append(trend.Dates, ledger.Date)
		trend.Produced = append(trend.Produced, totals.TotalProduced)
		trend.Sold = append(trend.Sold, totals.TotalSold)
		trend.Waste = append(trend.Waste, totals.Surplus())
		trend.Efficiency = append(trend.Efficiency, totals.SaleRatePct)
	}
	return trend
}

// LastN returns the tail of dates (already ascending) of at most n entries.
func LastN(dates []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if len(dates) <= n {
		return append([]string(nil), dates...)
	}
	return append([]string(nil), dates[len(dates)-n:]...)
}
