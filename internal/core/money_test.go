package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0", "0", true},
		{"0.01", "0.01", true},
		{" 2.50 ", "2.5", true},
		{"9999999999.99", "9999999999.99", true},
		{"1.005", "", false},
		{"-1", "", false},
		{"+1", "", false},
		{"1e3", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
		{"10000000000", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("%q expected invalid argument, got %v", tc.in, err)
			}
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"100":     "₹100.00",
		"0":       "₹0.00",
		"12.5":    "₹12.50",
		"1234.56": "₹1234.56",
	}
	for in, want := range cases {
		if got := FormatAmount(decimal.RequireFromString(in)); got != want {
			t.Errorf("FormatAmount(%s) = %q, want %q", in, got, want)
		}
	}
}
