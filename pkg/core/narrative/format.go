package narrative

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"roi_advisor/pkg/core/roi"
)

// FormatMoney rounds to whole currency units and groups thousands: 274007.1 -> "274,007".
func FormatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return humanize.Comma(decimal.NewFromFloat(v).Round(0).IntPart())
}

// FormatRate prints a percentage input without trailing zeros: 8 -> "8".
func FormatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatPercent renders a percentage metric with one decimal, or "N/A".
func FormatPercent(m roi.Metric) string {
	if !m.Defined {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", m.Value)
}

// FormatYears renders a period metric with two decimals, or "N/A".
func FormatYears(m roi.Metric) string {
	if !m.Defined {
		return "N/A"
	}
	return fmt.Sprintf("%.2f years", m.Value)
}

// FormatDriver renders one sensitivity driver as a prompt line.
func FormatDriver(d roi.Driver) string {
	return fmt.Sprintf("%s: NPV $%s to $%s (swing $%s). %s",
		d.Assumption, FormatMoney(d.NPVLow), FormatMoney(d.NPVHigh), FormatMoney(d.NPVDelta), d.Direction)
}
