package http

import (
	"chatledger/internal/core"
	"chatledger/internal/ledger"
	"chatledger/internal/palette"
)

// Copy shown on the statistics page.
const (
	noExpensesText = "本月無支出記錄"
	noIncomeText   = "本月無收入記錄"
	budgetTipTitle = "理財小貼士"
	budgetTipText  = "建議將月收入的20%存入儲蓄帳戶，30%用於必要開支，50%用於生活和娛樂。"
)

type monthView struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Label string `json:"label"`
}

type summaryView struct {
	Month        monthView `json:"month"`
	Mode         string    `json:"mode"`
	TotalExpense float64   `json:"total_expense"`
	TotalIncome  float64   `json:"total_income"`
	Balance      float64   `json:"balance"`
	Surplus      bool      `json:"surplus"`
}

type categoryView struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Share  float64 `json:"share"`
	Color  string  `json:"color"`
}

// statisticsView is the full breakdown served as JSON and rendered by the
// statistics page. Empty breakdowns are serialized as [] and carry an
// explicit empty-state message.
type statisticsView struct {
	summaryView
	Expenses        []categoryView `json:"expenses_by_category"`
	Income          []categoryView `json:"income_by_source"`
	NoExpensesLabel string         `json:"no_expenses_label,omitempty"`
	NoIncomeLabel   string         `json:"no_income_label,omitempty"`
}

type transactionView struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
	Kind        string  `json:"kind"`
}

type messagesView struct {
	Messages []core.ChatMessage `json:"messages"`
	Recorded *transactionView   `json:"recorded,omitempty"`
}

func newMonthView(m ledger.Month) monthView {
	return monthView{Year: m.Year, Month: int(m.Month), Label: m.Label()}
}

func newSummaryView(s ledger.Summary) summaryView {
	return summaryView{
		Month:        newMonthView(s.Month),
		Mode:         s.Mode.String(),
		TotalExpense: s.TotalExpense,
		TotalIncome:  s.TotalIncome,
		Balance:      s.Balance,
		Surplus:      s.Surplus(),
	}
}

func newStatisticsView(s ledger.Summary) statisticsView {
	v := statisticsView{
		summaryView: newSummaryView(s),
		Expenses:    categoryViews(s.ExpensesByCategory, s.TotalExpense, palette.CategoryColor),
		Income:      categoryViews(s.IncomeBySource, s.TotalIncome, palette.SourceColor),
	}
	if s.ExpensesByCategory.Empty() {
		v.NoExpensesLabel = noExpensesText
	}
	if s.IncomeBySource.Empty() {
		v.NoIncomeLabel = noIncomeText
	}
	return v
}

func categoryViews(totals ledger.CategoryTotals, total float64, color func(string) string) []categoryView {
	out := make([]categoryView, 0, totals.Len())
	for _, e := range totals.Entries() {
		share := 0.0
		if total > 0 {
			share = e.Amount / total
		}
		out = append(out, categoryView{
			Name:   e.Name,
			Amount: e.Amount,
			Share:  share,
			Color:  color(e.Name),
		})
	}
	return out
}

func newTransactionView(t core.Transaction) transactionView {
	return transactionView{
		ID:          t.ID,
		Description: t.Description,
		Amount:      t.Amount,
		Category:    t.Category,
		Date:        t.Date.Format("2006-01-02T15:04:05Z07:00"),
		Kind:        t.Kind().String(),
	}
}

func newTransactionViews(txs []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		out = append(out, newTransactionView(t))
	}
	return out
}
