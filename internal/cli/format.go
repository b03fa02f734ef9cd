package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FormatPrice formats a price with precision scaled to its magnitude, so
// sub-dollar assets keep their significant digits.
func FormatPrice(price decimal.Decimal) string {
	switch {
	case price.Abs().GreaterThanOrEqual(decimal.NewFromInt(1)):
		return price.StringFixed(2)
	case price.IsZero():
		return "0.00"
	default:
		return price.StringFixed(6)
	}
}

// FormatPercent formats a percentage with an explicit sign.
func FormatPercent(value decimal.Decimal) string {
	if value.IsPositive() {
		return "+" + value.StringFixed(2) + "%"
	}
	return value.StringFixed(2) + "%"
}

// FormatMarketCap formats a market capitalization in compact form.
func FormatMarketCap(cap decimal.Decimal) string {
	billion := decimal.NewFromInt(1_000_000_000)
	million := decimal.NewFromInt(1_000_000)
	switch {
	case cap.GreaterThanOrEqual(billion):
		return cap.DivRound(billion, 2).StringFixed(2) + "B"
	case cap.GreaterThanOrEqual(million):
		return cap.DivRound(million, 2).StringFixed(2) + "M"
	default:
		return cap.StringFixed(0)
	}
}

// FormatAmount formats a holding amount without trailing zeros.
func FormatAmount(amount decimal.Decimal) string {
	return amount.String()
}

// currencyLabel upper-cases a currency code for display.
func currencyLabel(currency string) string {
	if currency == "" {
		return "USD"
	}
	out := make([]byte, len(currency))
	for i := 0; i < len(currency); i++ {
		c := currency[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// ruleLabel renders an alert rule condition, e.g. "BTC above 65000".
func ruleLabel(ticker, direction string, threshold decimal.Decimal) string {
	return fmt.Sprintf("%s %s %s", ticker, direction, threshold.String())
}
