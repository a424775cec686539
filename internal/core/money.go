// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from user input
// and formatting them for display. Amounts are decimals with at most two
// fractional digits; direction is carried by the transaction type.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest storable amount (NUMERIC(12,2)).
var MaxAmount = decimal.RequireFromString("9999999999.99")

// CurrencySymbol prefixes formatted amounts.
const CurrencySymbol = "₹"

// ParseAmount converts a decimal string to an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// exponents and more than two fractional digits are rejected.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,5")  -> 12.5, nil
//	ParseAmount("-1")    -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, InvalidArgument("amount is required")
	}
	s = strings.ReplaceAll(s, ",", ".")
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return decimal.Zero, InvalidArgument("invalid amount %q", s)
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, InvalidArgument("invalid amount %q", s)
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount checks that d is non-negative, has at most two decimal
// places and fits the storage column.
func ValidateAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return InvalidArgument("amount must not be negative")
	}
	if !d.Equal(d.Round(2)) {
		return InvalidArgument("amount %s has more than two decimal places", d.String())
	}
	if d.GreaterThan(MaxAmount) {
		return InvalidArgument("amount %s exceeds %s", d.String(), MaxAmount.String())
	}
	return nil
}

// FormatAmount renders d with two decimals and the currency symbol.
func FormatAmount(d decimal.Decimal) string {
	return CurrencySymbol + d.StringFixed(2)
}
