package core

import (
	"fmt"
	"strings"
	"time"
)

// MonthLayout is the wire format of Month.
const MonthLayout = "2006-01"

// Month is a calendar month, used to select which transactions to list.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses "YYYY-MM". The error names the offending token.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Month{}, InvalidArgument("invalid month %q: expected YYYY-MM", s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the month d falls in.
func MonthOf(d Date) Month {
	return Month{Year: d.Year(), Month: d.Month()}
}

// CurrentMonth returns the month of now in the local zone.
func CurrentMonth(now time.Time) Month {
	return Month{Year: now.Year(), Month: now.Month()}
}

// Start is the first day of the month (inclusive bound).
func (m Month) Start() Date {
	return NewDate(m.Year, int(m.Month), 1)
}

// End is the first day of the following month (exclusive bound).
func (m Month) End() Date {
	return m.Next().Start()
}

func (m Month) Next() Month {
	t := time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) Prev() Month {
	t := time.Date(m.Year, m.Month-1, 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: t.Year(), Month: t.Month()}
}

// Contains reports whether d lies in [Start, End).
func (m Month) Contains(d Date) bool {
	return d.Year() == m.Year && d.Month() == m.Month
}

func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Label renders the month for headings, e.g. "March 2024".
func (m Month) Label() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}
