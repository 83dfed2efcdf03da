package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/breadlog/internal/domain/metrics"
	"github.com/mamadbah2/breadlog/internal/domain/models"
	"github.com/mamadbah2/breadlog/internal/service/reporting"
)

var fixedNow = time.Date(2024, 5, 6, 8, 30, 0, 0, time.UTC)

func sampleReport() reporting.DayReport {
	l := models.DayLedger{
		Date:        "2024-05-06",
		Day:         "Segunda",
		Temperature: models.Num(24.5),
		Promotion:   true,
		Batches: []models.BatchRecord{
			{Sequence: 1, ProductionTime: models.Clock(6, 0), CrispnessHours: models.Num(3), Produced: models.Num(100), Sold: models.Num(60), Notes: "forno 2"},
			{Sequence: 2, Produced: models.Num(20), Sold: models.Num(25)},
		},
	}
	return reporting.BuildDayReport(l, true, fixedNow)
}

func findRow(rows []Row, label string) Row {
	for _, r := range rows {
		if len(r) > 0 && r[0] == label {
			return r
		}
	}
	return nil
}

func TestFileName(t *testing.T) {
	if got := FileName("2024-05-06", ".xlsx"); got != "producao_pao_frances_2024-05-06.xlsx" {
		t.Fatalf("unexpected file name %q", got)
	}
}

func TestPlainText(t *testing.T) {
	if got := PlainText("<strong>ATENÇÃO:</strong> reduza a produção"); got != "ATENÇÃO: reduza a produção" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestRowsLayout(t *testing.T) {
	report := sampleReport()
	rows := Rows(report)

	if len(rows[0]) != len(Header) || rows[0][0] != "Nº" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	first := rows[1]
	if first[0] != 1 || first[1] != "06:00" || first[4] != "09:00" || first[5] != "warning" || first[7] != "40" || first[8] != "forno 2" {
		t.Fatalf("unexpected first batch row %v", first)
	}
	second := rows[2]
	if second[1] != "" || second[4] != "-" || second[5] != "" || second[7] != "0" {
		t.Fatalf("unexpected second batch row %v", second)
	}

	if r := findRow(rows, "Promoção Ativa?:"); r == nil || r[1] != "Sim" {
		t.Fatalf("missing promotion row, got %v", r)
	}
	if r := findRow(rows, "Feriado:"); r == nil || r[1] != "Sim" {
		t.Fatalf("missing holiday row, got %v", r)
	}
	if r := findRow(rows, "Temperatura Ambiente (°C):"); r == nil || r[1] != "24.5" {
		t.Fatalf("unexpected temperature row %v", r)
	}
	if r := findRow(rows, "Taxa de Venda:"); r == nil || r[1] != metrics.Percent(report.Totals.SaleRatePct) {
		t.Fatalf("unexpected sale rate row %v", r)
	}
	if findRow(rows, sectionSuggestions) == nil {
		t.Fatalf("expected a suggestions section")
	}
	for _, r := range rows {
		for _, v := range r {
			if s, ok := v.(string); ok && strings.Contains(s, "<") {
				t.Fatalf("markup leaked into row %v", r)
			}
		}
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteXLSX returned error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != SheetName {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	got, err := f.GetCellValue(SheetName, "A1")
	if err != nil || got != "Nº" {
		t.Fatalf("unexpected A1 %q (%v)", got, err)
	}
	got, err = f.GetCellValue(SheetName, "H2")
	if err != nil || got != "40" {
		t.Fatalf("unexpected H2 %q (%v)", got, err)
	}
}

func TestText(t *testing.T) {
	out := Text(sampleReport())
	for _, want := range []string{
		"Relatório de Produção de Pão Francês",
		"Data: 2024-05-06",
		"Temperatura: 24.5°C",
		"Promoção Ativa: Sim",
		"Feriado: Sim",
		"Total Produzido: 120",
		"Gerado em: 06/05/2024 08:30",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("text report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<strong>") {
		t.Fatalf("markup leaked into text report")
	}
}

func TestTrendTextEmpty(t *testing.T) {
	if got := TrendText(reporting.TrendReport{}); !strings.Contains(got, "nenhum dado") {
		t.Fatalf("unexpected empty trend text %q", got)
	}
}

type recordingSheet struct {
	sheetRange string
	rows       [][]interface{}
	err        error
}

func (r *recordingSheet) AppendRows(_ context.Context, sheetRange string, rows [][]interface{}) error {
	r.sheetRange = sheetRange
	r.rows = rows
	return r.err
}

func TestSheetsPublisher(t *testing.T) {
	repo := &recordingSheet{}
	pub := NewSheetsPublisher(repo, "Relatorio!A:I", nil)
	report := sampleReport()

	if err := pub.Publish(context.Background(), report); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if repo.sheetRange != "Relatorio!A:I" || len(repo.rows) != len(Rows(report))+1 {
		t.Fatalf("unexpected append: range=%q rows=%d", repo.sheetRange, len(repo.rows))
	}

	repo.err = errors.New("quota")
	if err := pub.Publish(context.Background(), report); err == nil || !errors.Is(err, repo.err) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
