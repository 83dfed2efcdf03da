package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/breadlog/internal/domain/metrics"
	"github.com/mamadbah2/breadlog/internal/repository/ledger"
	"github.com/mamadbah2/breadlog/internal/service/chart"
	"github.com/mamadbah2/breadlog/internal/service/reporting"
)

// Reports is the read side: stored days, history and trend.
type Reports interface {
	Ledgers(ctx context.Context) ([]ledger.Entry, error)
	History(ctx context.Context, date string) (reporting.DayReport, error)
	Trend(ctx context.Context) (reporting.TrendReport, error)
}

// Holidays manages the holiday set.
type Holidays interface {
	ToggleHoliday(ctx context.Context, date string) (bool, error)
	Holidays(ctx context.Context) ([]string, error)
}

// ChartSlot replaces the live trend chart and returns what it rendered.
type ChartSlot interface {
	ReplacePayload(trend metrics.Trend) (chart.Payload, error)
}

// ReportHandler serves history, trend and holiday routes.
type ReportHandler struct {
	reports  Reports
	holidays Holidays
	chart    ChartSlot
	logger   *zap.Logger
}

// NewReportHandler constructs the HTTP handler adapter.
func NewReportHandler(reports Reports, holidays Holidays, slot ChartSlot, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{reports: reports, holidays: holidays, chart: slot, logger: logger}
}

// Ledgers lists stored days newest first.
func (h *ReportHandler) Ledgers(c *gin.Context) {
	entries, err := h.reports.Ledgers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "list ledgers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ledgers": entries})
}

// History returns a stored day with recomputed derived values.
func (h *ReportHandler) History(c *gin.Context) {
	report, err := h.reports.History(c.Request.Context(), c.Param("date"))
	if err != nil {
		respondError(c, h.logger, "load history", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Trend returns the last seven days, the multi-day advisories and a freshly
// rendered chart.
func (h *ReportHandler) Trend(c *gin.Context) {
	report, err := h.reports.Trend(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "compute trend", err)
		return
	}

	payload, err := h.chart.ReplacePayload(report.Trend)
	if err != nil {
		respondError(c, h.logger, "render chart", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"trend":       report.Trend,
		"suggestions": report.Suggestions,
		"chart":       payload,
	})
}

// ToggleHoliday flips the holiday flag of a date.
func (h *ReportHandler) ToggleHoliday(c *gin.Context) {
	date := c.Param("date")
	holiday, err := h.holidays.ToggleHoliday(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.logger, "toggle holiday", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "holiday": holiday})
}

// Holidays lists holiday dates ascending.
func (h *ReportHandler) Holidays(c *gin.Context) {
	dates, err := h.holidays.Holidays(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "list holidays", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"holidays": dates})
}
