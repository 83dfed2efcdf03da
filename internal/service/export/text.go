package export

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/mamadbah2/breadlog/internal/domain/metrics"
	"github.com/mamadbah2/breadlog/internal/domain/models"
	"github.com/mamadbah2/breadlog/internal/service/reporting"
)

const textTimeLayout = "02/01/2006 15:04"

// Text renders the printable report handed to the PDF and print collaborators.
func Text(report reporting.DayReport) string {
	var b strings.Builder
	l := report.Ledger

	b.WriteString("Relatório de Produção de Pão Francês\n\n")
	fmt.Fprintf(&b, "Data: %s\n", l.Date)
	fmt.Fprintf(&b, "Dia da semana: %s\n", l.Day)
	fmt.Fprintf(&b, "Temperatura: %s°C\n", orNA(l.Temperature.String()))
	fmt.Fprintf(&b, "Promoção Ativa: %s\n", models.YesNo(l.Promotion))
	if report.Holiday {
		b.WriteString("Feriado: Sim\n")
	}
	b.WriteString("\n")

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Nº\tHora\tProduzido\tVendido\tSobrando")
	for _, batch := range l.Batches {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			batch.Sequence,
			orDash(batch.ProductionTime.String()),
			models.FormatNumber(batch.Produced.Or(0)),
			models.FormatNumber(batch.Sold.Or(0)),
			models.FormatNumber(batch.Remaining()))
	}
	tw.Flush()

	t := report.Totals
	b.WriteString("\nResumo do Dia\n")
	fmt.Fprintf(&b, "Total Produzido: %s\n", models.FormatNumber(t.TotalProduced))
	fmt.Fprintf(&b, "Total Vendido: %s\n", models.FormatNumber(t.TotalSold))
	fmt.Fprintf(&b, "Total Sobrando: %s\n", models.FormatNumber(t.TotalRemaining))
	fmt.Fprintf(&b, "Taxa de Venda: %s\n", metrics.Percent(t.SaleRatePct))
	fmt.Fprintf(&b, "Eficiência: %s\n", metrics.Percent(t.EfficiencyPct))

	if len(report.Suggestions) > 0 {
		b.WriteString("\n" + sectionSuggestions + "\n")
		for _, s := range report.Suggestions {
			fmt.Fprintf(&b, "• %s\n", PlainText(s))
		}
	}

	fmt.Fprintf(&b, "\nGerado em: %s\n", report.GeneratedAt.Format(textTimeLayout))
	return b.String()
}

// TrendText renders the weekly advisory message.
func TrendText(report reporting.TrendReport) string {
	var b strings.Builder
	t := report.Trend
	if t.Len() == 0 {
		return "Tendência semanal: nenhum dado salvo ainda.\n"
	}

	fmt.Fprintf(&b, "Tendência semanal (%s a %s)\n", t.Dates[0], t.Dates[t.Len()-1])
	for i, date := range t.Dates {
		fmt.Fprintf(&b, "%s: produzido %s, vendido %s, sobras %s\n",
			date, models.FormatNumber(t.Produced[i]), models.FormatNumber(t.Sold[i]), models.FormatNumber(t.Waste[i]))
	}
	for _, s := range report.Suggestions {
		fmt.Fprintf(&b, "• %s\n", PlainText(s))
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
