// Package view turns storefront data into the values rendered by the
// templates and the JSON API.
package view

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const currencySymbol = "₱"

var pricePrinter = message.NewPrinter(language.MustParse("en-PH"))

// Price formats an amount in pesos with en-PH digit grouping and up to
// three fraction digits: 12500 => "₱12,500", 1295.5 => "₱1,295.5".
func Price(v float64) string {
	return currencySymbol + pricePrinter.Sprintf("%v", number.Decimal(v))
}

func PriceDecimal(d decimal.Decimal) string {
	return Price(d.InexactFloat64())
}

// Count groups the digits of a counter: 1234 => "1,234".
func Count(n int) string {
	return humanize.Comma(int64(n))
}
