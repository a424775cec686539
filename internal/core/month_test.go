package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Year != 2024 || m.Month != time.March {
		t.Fatalf("got %+v", m)
	}
	if m.String() != "2024-03" {
		t.Fatalf("String() = %q", m.String())
	}

	for _, bad := range []string{"", "2024", "2024-13", "March", "2024-3-1", "24-03"} {
		_, err := ParseMonth(bad)
		if err == nil {
			t.Fatalf("%q expected error", bad)
		}
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("%q expected invalid argument, got %v", bad, err)
		}
		if bad != "" && !strings.Contains(err.Error(), bad) {
			t.Fatalf("error %q does not name the token %q", err, bad)
		}
	}
}

func TestMonthBounds(t *testing.T) {
	cases := []struct {
		month      string
		start, end string
	}{
		{"2024-03", "2024-03-01", "2024-04-01"},
		{"2024-12", "2024-12-01", "2025-01-01"},
		{"2024-02", "2024-02-01", "2024-03-01"},
	}
	for _, tc := range cases {
		m, _ := ParseMonth(tc.month)
		if got := m.Start().String(); got != tc.start {
			t.Errorf("%s start = %s, want %s", tc.month, got, tc.start)
		}
		if got := m.End().String(); got != tc.end {
			t.Errorf("%s end = %s, want %s", tc.month, got, tc.end)
		}
	}
}

func TestMonthContains(t *testing.T) {
	m, _ := ParseMonth("2024-03")
	cases := []struct {
		date string
		in   bool
	}{
		{"2024-03-01", true},
		{"2024-03-31", true},
		{"2024-04-01", false},
		{"2024-02-29", false},
		{"2023-03-15", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.date)
		if err != nil {
			t.Fatalf("ParseDate(%s): %v", tc.date, err)
		}
		if got := m.Contains(d); got != tc.in {
			t.Errorf("Contains(%s) = %v, want %v", tc.date, got, tc.in)
		}
		if got := MonthOf(d) == m; got != tc.in {
			t.Errorf("MonthOf(%s) == %s is %v, want %v", tc.date, m, got, tc.in)
		}
	}
}

func TestMonthNavigation(t *testing.T) {
	m := Month{Year: 2024, Month: time.January}
	if got := m.Prev().String(); got != "2023-12" {
		t.Fatalf("Prev() = %s", got)
	}
	if got := m.Next().String(); got != "2024-02" {
		t.Fatalf("Next() = %s", got)
	}
	if got := m.Label(); got != "January 2024" {
		t.Fatalf("Label() = %s", got)
	}
}
