package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"IndexForecaster/internal/model"
)

var rule = strings.Repeat("=", 60)

// Money formats v with two decimals behind the currency symbol.
func Money(currency string, v float64) string {
	return currency + decimal.NewFromFloat(v).StringFixed(2)
}

// Format renders the report text: header, one block per series, then the
// fixed model notes.
func Format(r *model.Report) string {
	var b strings.Builder

	b.WriteString(r.Title + "\n")
	b.WriteString(fmt.Sprintf("Generated on: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(rule + "\n\n")

	for _, s := range r.Series {
		b.WriteString(s.Name + "\n")
		b.WriteString(fmt.Sprintf("  Current Price: %s\n", Money(r.Currency, s.CurrentPrice)))
		b.WriteString(fmt.Sprintf("  Short-Term (%s) Projection: %s\n", r.ShortTermSpan, Money(r.Currency, s.ShortTerm)))
		b.WriteString(fmt.Sprintf("  Long-Term (%s) Projection: %s\n", r.LongTermSpan, Money(r.Currency, s.LongTerm)))
		b.WriteString(fmt.Sprintf("  Expected Trend: %s\n", s.Trend))
		b.WriteString("\n")
	}

	b.WriteString(rule + "\n")
	b.WriteString(fmt.Sprintf("Model Used: %s\n", r.ModelName))
	b.WriteString("Assumptions:\n")
	b.WriteString("- Future trends follow historical patterns.\n")
	b.WriteString("- No major economic or political shocks.\n")
	b.WriteString("- Data quality and market efficiency assumed.\n\n")

	b.WriteString("Limitations:\n")
	b.WriteString("- Past performance doesn’t guarantee future results.\n")
	b.WriteString("- Model ignores external macroeconomic variables.\n")
	b.WriteString("- Forecast accuracy decreases with time horizon.\n\n")

	b.WriteString("Confidence Notes:\n")
	b.WriteString("- Short-term confidence is moderate (~70–80%).\n")
	b.WriteString("- Long-term forecasts have higher uncertainty (>90% CI).\n")
	return b.String()
}
