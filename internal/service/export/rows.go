// Package export flattens a day report into rows and text blocks for the
// spreadsheet, PDF and print collaborators.
package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mamadbah2/breadlog/internal/domain/metrics"
	"github.com/mamadbah2/breadlog/internal/domain/models"
	"github.com/mamadbah2/breadlog/internal/service/reporting"
)

const (
	// SheetName is the worksheet title of the xlsx export.
	SheetName = "Produção Pão Francês"

	sectionMeta        = "Metadados"
	sectionSummary     = "Resumo do Dia"
	sectionSuggestions = "Sugestões para Reduzir Sobras"
)

// Header is the batch table header.
var Header = []string{"Nº", "Hora", "Produzido", "Crocância (h)", "Crocante até", "Validade", "Vendido", "Sobrando", "Observações"}

var markup = regexp.MustCompile(`<[^>]*>`)

// Row is one spreadsheet row.
type Row []interface{}

// FileName builds the download name for a report, e.g. producao_pao_frances_2024-05-06.xlsx.
func FileName(date, ext string) string {
	return fmt.Sprintf("producao_pao_frances_%s.%s", date, strings.TrimPrefix(ext, "."))
}

// PlainText strips emphasis markup from a suggestion line.
func PlainText(s string) string {
	return strings.TrimSpace(markup.ReplaceAllString(s, ""))
}

// Rows lays out the report as the worksheet shows it: the batch table, the
// metadata block, the day summary and, when present, the suggestions.
func Rows(report reporting.DayReport) []Row {
	rows := make([]Row, 0, len(report.Ledger.Batches)+20)

	header := make(Row, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	rows = append(rows, header)

	for i, b := range report.Ledger.Batches {
		expiryLabel, status := "-", ""
		if i < len(report.Batches) {
			expiryLabel = report.Batches[i].Expiry.Label
			if report.Batches[i].Expiry.Defined() {
				status = string(report.Batches[i].Expiry.Status)
			}
		}
		rows = append(rows, Row{
			b.Sequence,
			b.ProductionTime.String(),
			b.Produced.String(),
			b.CrispnessHours.String(),
			expiryLabel,
			status,
			b.Sold.String(),
			models.FormatNumber(b.Remaining()),
			b.Notes,
		})
	}

	l := report.Ledger
	rows = append(rows,
		Row{},
		Row{sectionMeta},
		Row{"Dia da semana:", l.Day},
		Row{"Data:", l.Date},
		Row{"Temperatura Ambiente (°C):", l.Temperature.String()},
		Row{"Promoção Ativa?:", models.YesNo(l.Promotion)},
		Row{"Feriado:", models.YesNo(report.Holiday)},
	)

	t := report.Totals
	rows = append(rows,
		Row{},
		Row{sectionSummary},
		Row{"Total Produzido:", models.FormatNumber(t.TotalProduced)},
		Row{"Total Vendido:", models.FormatNumber(t.TotalSold)},
		Row{"Total Sobrando:", models.FormatNumber(t.TotalRemaining)},
		Row{"Taxa de Venda:", metrics.Percent(t.SaleRatePct)},
		Row{"Média Crocância:", metrics.Fixed(t.AvgCrispness, 1)},
		Row{"Eficiência de Produção:", metrics.Percent(t.EfficiencyPct)},
	)

	if len(report.Suggestions) > 0 {
		rows = append(rows, Row{}, Row{sectionSuggestions})
		for _, s := range report.Suggestions {
			rows = append(rows, Row{PlainText(s)})
		}
	}
	return rows
}

// Values converts rows to the [][]interface{} shape the Sheets API takes.
func Values(rows []Row) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		out[i] = []interface{}(r)
	}
	return out
}

func isSection(r Row) bool {
	if len(r) != 1 {
		return false
	}
	switch r[0] {
	case sectionMeta, sectionSummary, sectionSuggestions:
		return true
	}
	return false
}
