package metrics

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// exactDigits is enough fractional digits to print any float64 exactly.
const exactDigits = 1074

// Round rounds half up, so -2.5 becomes -2 and 2.5 becomes 3.
func Round(v float64) float64 {
	return math.Floor(v + 0.5)
}

// Fixed renders v with exactly places decimals. Rounding is half away from
// zero on the exact binary value, so 0.15 (stored as 0.1499...) gives "0.1"
// and 0.25 gives "0.3".
func Fixed(v float64, places int32) string {
	exact, err := decimal.NewFromString(strconv.FormatFloat(v, 'f', exactDigits, 64))
	if err != nil {
		return strconv.FormatFloat(v, 'f', int(places), 64)
	}
	return exact.StringFixed(places)
}

// Percent renders a percentage with one decimal and a trailing %.
func Percent(v float64) string {
	return Fixed(v, 1) + "%"
}
