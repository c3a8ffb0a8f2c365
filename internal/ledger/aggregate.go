// Package ledger derives per-month totals and category breakdowns from the
// expense and income ledgers. Every function is pure: inputs are snapshots,
// nothing is mutated and nothing can fail.
package ledger

import "chatledger/internal/core"

// CategoryAmount is the summed amount for one category label.
type CategoryAmount struct {
	Name   string
	Amount float64
}

// CategoryTotals is an ordered category -> amount mapping. Order follows the
// first appearance of each label in the scanned sequence.
type CategoryTotals struct {
	entries []CategoryAmount
	index   map[string]int
}

// Entries returns the totals in first-appearance order.
func (c CategoryTotals) Entries() []CategoryAmount {
	out := make([]CategoryAmount, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of distinct labels.
func (c CategoryTotals) Len() int {
	return len(c.entries)
}

// Empty reports whether no records were grouped.
func (c CategoryTotals) Empty() bool {
	return len(c.entries) == 0
}

// Get returns the total for a label, matched verbatim.
func (c CategoryTotals) Get(name string) (float64, bool) {
	i, ok := c.index[name]
	if !ok {
		return 0, false
	}
	return c.entries[i].Amount, true
}

// Map returns the totals as a plain map (order is lost).
func (c CategoryTotals) Map() map[string]float64 {
	m := make(map[string]float64, len(c.entries))
	for _, e := range c.entries {
		m[e.Name] = e.Amount
	}
	return m
}

// Sum adds up every category total in order.
func (c CategoryTotals) Sum() float64 {
	var sum float64
	for _, e := range c.entries {
		sum += e.Amount
	}
	return sum
}

// Filter returns the transactions of ledger that fall in month under mode,
// preserving their order.
func Filter(txs []core.Transaction, month Month, mode MatchMode) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if month.Contains(t.Date, mode) {
			out = append(out, t)
		}
	}
	return out
}

// FilterCalendarMonth keeps transactions whose (year, month) equals month.
func FilterCalendarMonth(txs []core.Transaction, month Month) []core.Transaction {
	return Filter(txs, month, MatchCalendarMonth)
}

// FilterMonthOfYear keeps transactions whose month number equals month's,
// whatever their year.
func FilterMonthOfYear(txs []core.Transaction, month Month) []core.Transaction {
	return Filter(txs, month, MatchMonthOfYear)
}

// TotalAmount sums Amount over txs. Plain float addition, no rounding.
func TotalAmount(txs []core.Transaction) float64 {
	var total float64
	for _, t := range txs {
		total += t.Amount
	}
	return total
}

// Balance is income minus expenses for the month. Positive means surplus.
func Balance(income, expenses []core.Transaction, month Month, mode MatchMode) float64 {
	return TotalAmount(Filter(income, month, mode)) - TotalAmount(Filter(expenses, month, mode))
}

// GroupByCategory sums amounts per category label. Labels are compared
// verbatim, so "Food" and "food" are separate entries.
func GroupByCategory(txs []core.Transaction) CategoryTotals {
	totals := CategoryTotals{
		entries: make([]CategoryAmount, 0),
		index:   make(map[string]int),
	}
	for _, t := range txs {
		i, ok := totals.index[t.Category]
		if !ok {
			i = len(totals.entries)
			totals.index[t.Category] = i
			totals.entries = append(totals.entries, CategoryAmount{Name: t.Category})
		}
		totals.entries[i].Amount += t.Amount
	}
	return totals
}

// Summary is everything the views display for one reference month.
type Summary struct {
	Month              Month
	Mode               MatchMode
	TotalExpense       float64
	TotalIncome        float64
	Balance            float64
	ExpensesByCategory CategoryTotals
	IncomeBySource     CategoryTotals
}

// Surplus reports a non-negative balance.
func (s Summary) Surplus() bool {
	return s.Balance >= 0
}

// Summarize filters both ledgers once and derives every figure from the result.
func Summarize(expenses, income []core.Transaction, month Month, mode MatchMode) Summary {
	monthExpenses := Filter(expenses, month, mode)
	monthIncome := Filter(income, month, mode)

	totalExpense := TotalAmount(monthExpenses)
	totalIncome := TotalAmount(monthIncome)

	return Summary{
		Month:              month,
		Mode:               mode,
		TotalExpense:       totalExpense,
		TotalIncome:        totalIncome,
		Balance:            totalIncome - totalExpense,
		ExpensesByCategory: GroupByCategory(monthExpenses),
		IncomeBySource:     GroupByCategory(monthIncome),
	}
}
