package export

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/breadlog/internal/repository/sheets"
	"github.com/mamadbah2/breadlog/internal/service/reporting"
)

// SheetsPublisher appends day reports to a shared spreadsheet.
type SheetsPublisher struct {
	repo       sheets.Repository
	sheetRange string
	logger     *zap.Logger
}

// NewSheetsPublisher wires a publisher writing into sheetRange.
func NewSheetsPublisher(repo sheets.Repository, sheetRange string, logger *zap.Logger) *SheetsPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SheetsPublisher{repo: repo, sheetRange: sheetRange, logger: logger}
}

// Publish appends the report rows followed by a blank separator row.
func (p *SheetsPublisher) Publish(ctx context.Context, report reporting.DayReport) error {
	rows := append(Rows(report), Row{})
	if err := p.repo.AppendRows(ctx, p.sheetRange, Values(rows)); err != nil {
		return fmt.Errorf("publish report %s: %w", report.Ledger.Date, err)
	}
	p.logger.Info("report published to sheet", zap.String("date", report.Ledger.Date), zap.Int("rows", len(rows)))
	return nil
}
