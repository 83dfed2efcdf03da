// Package suggestions turns day totals and trend series into advisory lines
// for the production team. Order of the returned lines is stable.
package suggestions

import (
	"fmt"

	"github.com/mamadbah2/breadlog/internal/domain/metrics"
	"github.com/mamadbah2/breadlog/internal/domain/models"
)

const (
	lowRate      = 70
	fairRate     = 85
	nearIdeal    = 95
	overshootCap = 0.3

	worstDayFactor    = 1.5
	efficiencyTarget  = 80
	lowWasteThreshold = 0.5
)

// ForDay advises on a single day. remaining is produced minus sold, signed;
// nothing is suggested unless bread is left over.
func ForDay(remaining, totalProduced, totalSold float64) []string {
	if remaining <= 0 {
		return nil
	}

	var saleRate float64
	if totalProduced > 0 {
		saleRate = totalSold / totalProduced * 100
	}

	var out []string
	switch {
	case saleRate < lowRate:
		out = append(out,
			fmt.Sprintf("Ajuste sua produção: Reduza em %s unidades na próxima fornada.", whole(remaining*1.2)),
			"Considere fazer promoções relâmpago para produtos que estão sobrando.")
	case saleRate < fairRate:
		out = append(out, fmt.Sprintf("Ajuste fino: Reduza em %s unidades na próxima fornada.", whole(remaining)))
	case saleRate < nearIdeal:
		out = append(out, fmt.Sprintf("Você está quase no ponto ideal! Ajuste de apenas %s unidades pode otimizar.", whole(remaining*0.5)))
	}

	out = append(out, "Sobras atuais podem ser transformadas em torradas, farinha de rosca ou doações.")

	if totalProduced > 0 && remaining > totalProduced*overshootCap {
		out = append(out, fmt.Sprintf("<strong>ATENÇÃO:</strong> Produzindo %s%% a mais do que vende. Reavalie.", whole(remaining/totalProduced*100)))
	}
	return out
}

// ForTotals is ForDay fed from computed totals.
func ForTotals(t metrics.Totals) []string {
	return ForDay(t.Surplus(), t.TotalProduced, t.TotalSold)
}

// ForTrend advises on a multi-day series: the worst day, the latest day
// against the mean, and the mean efficiency.
func ForTrend(trend metrics.Trend) []string {
	n := len(trend.Waste)
	if n == 0 {
		return nil
	}

	var wasteSum float64
	worst := 0
	for i, w := range trend.Waste {
		wasteSum += w
		if w > trend.Waste[worst] {
			worst = i
		}
	}
	meanWaste := wasteSum / float64(n)

	var out []string
	if trend.Waste[worst] > meanWaste*worstDayFactor {
		out = append(out, fmt.Sprintf("<strong>%s:</strong> Foi o dia com maior desperdício (%s unidades). Revise a produção para este dia da semana.",
			dateAt(trend, worst), models.FormatNumber(trend.Waste[worst])))
	}

	last := trend.Waste[n-1]
	switch {
	case last > meanWaste:
		out = append(out, fmt.Sprintf("As sobras estão acima da média recente. Considere reduzir a produção em %s unidades por fornada.",
			whole((last-meanWaste)/float64(n))))
	case last < meanWaste*lowWasteThreshold:
		out = append(out, "As sobras estão abaixo da média recente. Você pode aumentar a produção com segurança.")
	}

	efficiency := meanEfficiency(trend)
	if efficiency < efficiencyTarget {
		out = append(out, fmt.Sprintf("Sua eficiência média é de %s. Melhore o ajuste entre produção e demanda para reduzir desperdícios.", metrics.Percent(efficiency)))
	} else {
		out = append(out, fmt.Sprintf("Ótima eficiência média de %s! Continue monitorando para manter esse desempenho.", metrics.Percent(efficiency)))
	}
	return out
}

// meanEfficiency averages sold/produced over days that produced anything.
func meanEfficiency(trend metrics.Trend) float64 {
	var sum float64
	var days int
	for i := range trend.Produced {
		if trend.Produced[i] <= 0 || i >= len(trend.Sold) {
			continue
		}
		sum += trend.Sold[i] / trend.Produced[i] * 100
		days++
	}
	if days == 0 {
		return 0
	}
	return sum / float64(days)
}

func dateAt(trend metrics.Trend, i int) string {
	if i < len(trend.Dates) {
		return trend.Dates[i]
	}
	return "-"
}

func whole(v float64) string {
	return models.FormatNumber(metrics.Round(v))
}
