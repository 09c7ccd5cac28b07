// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing amounts typed into forms or on
// the command line, and for rendering them for people.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Amounts must fit a float64. A decimal with a huge exponent is cheap to
// parse but expands to a power of ten on every String or Add.
const (
	maxAmountLen       = 400
	maxAmountMagnitude = 309
	minAmountExponent  = -340
)

// ParseAmount converts a user supplied string to a decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional sign. Zero and negative amounts are accepted; values outside
// the float64 range are not.
//
// Examples:
//
//	ParseAmount("3.50")  -> 3.5, nil
//	ParseAmount("3,50")  -> 3.5, nil
//	ParseAmount("-2")    -> -2, nil
//	ParseAmount("abc")   -> 0, ErrInvalidAmount
//	ParseAmount("1e400") -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxAmountLen {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return boundAmount(d)
}

func boundAmount(d decimal.Decimal) (decimal.Decimal, error) {
	coef := d.Coefficient()
	if coef.Sign() == 0 {
		return decimal.Zero, nil
	}
	exp := int(d.Exponent())
	digits := len(coef.Abs(coef).String())
	if exp < minAmountExponent || digits+exp > maxAmountMagnitude {
		return decimal.Zero, ErrInvalidAmount
	}
	if math.IsInf(d.InexactFloat64(), 0) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// AmountFormatter renders amounts with two decimals using locale-specific
// grouping and decimal separators.
type AmountFormatter struct {
	printer *message.Printer
}

// NewAmountFormatter builds a formatter for a BCP 47 locale tag. Unknown or
// malformed tags fall back to English.
func NewAmountFormatter(locale string) AmountFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return AmountFormatter{printer: message.NewPrinter(tag)}
}

// Format renders d with exactly two fractional digits.
func (f AmountFormatter) Format(d decimal.Decimal) string {
	p := f.printer
	if p == nil {
		p = message.NewPrinter(language.English)
	}
	return p.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}
