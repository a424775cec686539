package view

import (
	"sort"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Row is a transaction formatted for the table.
type Row struct {
	ID          int64
	Date        string
	Type        core.Type
	TypeName    string
	Category    string
	Amount      string
	Payment     string
	Person      string
	Description string
	Income      bool
}

// SummaryItem is one total shown above the table.
type SummaryItem struct {
	Type   core.Type
	Name   string
	Total  decimal.Decimal
	Amount string
}

// SortByDateDesc orders txs newest first, breaking ties by descending id.
func SortByDateDesc(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date.Time) {
			return txs[i].Date.After(txs[j].Date.Time)
		}
		return txs[i].ID > txs[j].ID
	})
}

// InMonth keeps only the transactions dated within m.
func InMonth(txs []core.Transaction, m core.Month) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if core.MonthOf(t.Date) == m {
			out = append(out, t)
		}
	}
	return out
}

// Rows formats txs in their current order.
func Rows(txs []core.Transaction) []Row {
	rows := make([]Row, 0, len(txs))
	for _, t := range txs {
		person := core.Deref(t.Person)
		if person == "" {
			person = "-"
		}
		rows = append(rows, Row{
			ID:          t.ID,
			Date:        t.Date.String(),
			Type:        t.Type,
			TypeName:    t.Type.Name(),
			Category:    t.Category,
			Amount:      core.FormatAmount(t.Amount),
			Payment:     t.PaymentLabel(),
			Person:      person,
			Description: core.Deref(t.Description),
			Income:      t.Type.IsIncome(),
		})
	}
	return rows
}

// Summary lists a total for every known type, zero included, in catalog
// order. Unknown types found in the data are appended after them.
func Summary(totals core.Totals) []SummaryItem {
	items := make([]SummaryItem, 0, len(core.AllTypes))
	known := map[core.Type]bool{}
	for _, t := range core.AllTypes {
		known[t] = true
		items = append(items, summaryItem(t, totals.Get(t)))
	}
	var extra []core.Type
	for t := range totals {
		if !known[t] {
			extra = append(extra, t)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	for _, t := range extra {
		items = append(items, summaryItem(t, totals.Get(t)))
	}
	return items
}

func summaryItem(t core.Type, total decimal.Decimal) SummaryItem {
	return SummaryItem{Type: t, Name: t.Name(), Total: total, Amount: core.FormatAmount(total)}
}
