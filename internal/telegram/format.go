package telegram

import (
	"fmt"
	"strings"

	"chatledger/internal/core"
	"chatledger/internal/ledger"
)

// Labels shared with the statistics page.
const (
	labelOverview = "月度概覽"
	labelExpense  = "總支出"
	labelIncome   = "總收入"
	labelBalance  = "結餘"
	labelByCat    = "支出分類"
	labelBySource = "收入來源"
	noExpenses    = "本月無支出記錄"
	noIncome      = "本月無收入記錄"
)

// FormatHome renders the home figures: income, expense and balance.
func FormatHome(s ledger.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", s.Month.Label())
	writeTotals(&b, s)
	return strings.TrimRight(b.String(), "\n")
}

// FormatStatistics renders the full monthly breakdown.
func FormatStatistics(s ledger.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s · %s\n", labelOverview, s.Month.Label())
	writeTotals(&b, s)

	fmt.Fprintf(&b, "\n%s\n", labelByCat)
	writeBreakdown(&b, s.ExpensesByCategory, s.TotalExpense, noExpenses)

	fmt.Fprintf(&b, "\n%s\n", labelBySource)
	writeBreakdown(&b, s.IncomeBySource, s.TotalIncome, noIncome)

	return strings.TrimRight(b.String(), "\n")
}

// FormatRecorded confirms a stored transaction.
func FormatRecorded(t core.Transaction) string {
	return fmt.Sprintf("✅ %s %s · %s (%s)", t.Kind(), core.FormatAmount(t.Amount), t.Description, t.Category)
}

func writeTotals(b *strings.Builder, s ledger.Summary) {
	fmt.Fprintf(b, "%s: %s\n", labelIncome, core.FormatAmount(s.TotalIncome))
	fmt.Fprintf(b, "%s: %s\n", labelExpense, core.FormatAmount(s.TotalExpense))
	fmt.Fprintf(b, "%s: %s\n", labelBalance, core.FormatAmount(s.Balance))
}

func writeBreakdown(b *strings.Builder, totals ledger.CategoryTotals, total float64, empty string) {
	if totals.Empty() {
		fmt.Fprintf(b, "%s\n", empty)
		return
	}
	for _, e := range totals.Entries() {
		share := 0.0
		if total > 0 {
			share = e.Amount / total * 100
		}
		fmt.Fprintf(b, "• %s: %s (%.0f%%)\n", e.Name, core.FormatAmount(e.Amount), share)
	}
}
