package models

import (
	"errors"
	"strings"
)

var ErrUnknownCurrency = errors.New("unknown currency code")

type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyRON Currency = "RON"
	CurrencyMAD Currency = "MAD"
	CurrencySAR Currency = "SAR"
	CurrencyAED Currency = "AED"
)

// ParseCurrency validates a supplier currency code against the codes the
// storefront can sell in.
func ParseCurrency(code string) (Currency, error) {
	switch c := Currency(strings.ToUpper(strings.TrimSpace(code))); c {
	case CurrencyEUR, CurrencyRON, CurrencyMAD, CurrencySAR, CurrencyAED:
		return c, nil
	default:
		return "", ErrUnknownCurrency
	}
}
