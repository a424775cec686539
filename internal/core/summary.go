package core

import "github.com/shopspring/decimal"

// Totals maps each type to the sum of its amounts.
type Totals map[Type]decimal.Decimal

// Summarize sums amounts per type. Types with no transactions are absent
// from the map; use Get to read them as zero.
func Summarize(txs []Transaction) Totals {
	out := Totals{}
	for _, t := range txs {
		out[t.Type] = out.Get(t.Type).Add(t.Amount)
	}
	return out
}

// Get returns the total for t, zero when there is none.
func (s Totals) Get(t Type) decimal.Decimal {
	if v, ok := s[t]; ok {
		return v
	}
	return decimal.Zero
}

// Income is the sum over the income types.
func (s Totals) Income() decimal.Decimal {
	return s.Get(Salary).Add(s.Get(Investment)).Add(s.Get(OtherIncome))
}

// Spent is the sum over every non-income type.
func (s Totals) Spent() decimal.Decimal {
	total := decimal.Zero
	for t, v := range s {
		if !t.IsIncome() {
			total = total.Add(v)
		}
	}
	return total
}
