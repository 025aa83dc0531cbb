// Package textutil provides locale-aware text helpers for presentation
// surfaces.
package textutil

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencyFormatter renders monetary amounts for a fixed locale and currency
// unit, used by the confirmation boundary.
type CurrencyFormatter struct {
	unit    currency.Unit
	printer *message.Printer
}

// NewCurrencyFormatter parses the ISO currency code and BCP 47 language tag.
func NewCurrencyFormatter(code, languageTag string) (*CurrencyFormatter, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("textutil: parse currency %q: %w", code, err)
	}
	tag, err := language.Parse(strings.TrimSpace(languageTag))
	if err != nil {
		return nil, fmt.Errorf("textutil: parse language %q: %w", languageTag, err)
	}
	return &CurrencyFormatter{
		unit:    unit,
		printer: message.NewPrinter(tag),
	}, nil
}

// Format renders the amount with the locale's conventions and the currency
// symbol.
func (f *CurrencyFormatter) Format(amount decimal.Decimal) string {
	if f == nil || f.printer == nil {
		return amount.StringFixed(2)
	}
	value, _ := amount.Float64()
	return f.printer.Sprintf("%v", currency.Symbol(f.unit.Amount(value)))
}

// Code returns the ISO currency code the formatter renders.
func (f *CurrencyFormatter) Code() string {
	if f == nil {
		return ""
	}
	return f.unit.String()
}
