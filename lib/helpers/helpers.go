package helpers

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var million = decimal.NewFromInt(1_000_000)

// FormatMillions renders v/1e6 with two decimals, e.g. 5100000 -> "5.10"
func FormatMillions(v decimal.Decimal) string {
	return v.Div(million).StringFixed(2)
}

// FormatRatio renders a ratio with two decimals
func FormatRatio(v decimal.Decimal) string {
	return v.StringFixed(2)
}

// FormatUSD renders a whole-dollar amount with thousand separators, e.g. "$5,100,000"
func FormatUSD(v decimal.Decimal) string {
	p := message.NewPrinter(language.English)
	return "$" + p.Sprintf("%d", v.Round(0).IntPart())
}

// Humanize renders a short SI form for logs, e.g. "5.1 M"
func Humanize(v decimal.Decimal) string {
	f, _ := v.Float64()
	return strings.TrimSpace(humanize.SIWithDigits(f, 2, ""))
}
