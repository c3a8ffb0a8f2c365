package ledger

import (
	"testing"
	"time"

	"chatledger/internal/core"
)

func tx(id string, amount float64, category string, date time.Time, income bool) core.Transaction {
	return core.Transaction{ID: id, Description: id, Amount: amount, Category: category, Date: date, IsIncome: income}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

var march2024 = Month{Year: 2024, Month: time.March}

func TestFilterCalendarMonthBoundaries(t *testing.T) {
	list := []core.Transaction{
		tx("feb-last", 1, "A", time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), false),
		tx("mar-first", 2, "A", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), false),
		tx("mar-last", 4, "A", time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC), false),
		tx("apr-first", 8, "A", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), false),
		tx("mar-2023", 16, "A", day(2023, time.March, 15), false),
	}

	got := FilterCalendarMonth(list, march2024)
	if len(got) != 2 || got[0].ID != "mar-first" || got[1].ID != "mar-last" {
		t.Fatalf("unexpected filter result: %+v", got)
	}
	if total := TotalAmount(got); total != 6 {
		t.Fatalf("total = %v, want 6", total)
	}
}

func TestFilterMonthOfYearIgnoresYear(t *testing.T) {
	list := []core.Transaction{
		tx("mar-2024", 1, "A", day(2024, time.March, 10), false),
		tx("mar-2023", 2, "A", day(2023, time.March, 10), false),
		tx("feb-2024", 4, "A", day(2024, time.February, 10), false),
	}

	got := FilterMonthOfYear(list, march2024)
	if len(got) != 2 || got[0].ID != "mar-2024" || got[1].ID != "mar-2023" {
		t.Fatalf("unexpected filter result: %+v", got)
	}
	if n := len(FilterCalendarMonth(list, march2024)); n != 1 {
		t.Fatalf("calendar mode kept %d transactions, want 1", n)
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	list := []core.Transaction{
		tx("a", 1, "A", day(2024, time.March, 1), false),
		tx("b", 2, "A", day(2024, time.April, 1), false),
	}
	before := append([]core.Transaction(nil), list...)
	_ = FilterCalendarMonth(list, march2024)
	for i := range list {
		if list[i] != before[i] {
			t.Fatalf("input mutated at %d: %+v", i, list[i])
		}
	}
}

func TestTotalAmountEmpty(t *testing.T) {
	if got := TotalAmount(nil); got != 0 {
		t.Fatalf("TotalAmount(nil) = %v", got)
	}
}

func TestBalance(t *testing.T) {
	tests := []struct {
		name     string
		income   []core.Transaction
		expenses []core.Transaction
		want     float64
	}{
		{name: "both empty", want: 0},
		{
			name:     "surplus",
			income:   []core.Transaction{tx("i", 1000, "Salary", day(2024, time.March, 5), true)},
			expenses: []core.Transaction{tx("e", 300, "Rent", day(2024, time.March, 10), false)},
			want:     700,
		},
		{
			name:     "deficit without income",
			expenses: []core.Transaction{tx("e", 120, "Rent", day(2024, time.March, 10), false)},
			want:     -120,
		},
		{
			name:     "other months ignored",
			income:   []core.Transaction{tx("i", 1000, "Salary", day(2024, time.February, 5), true)},
			expenses: []core.Transaction{tx("e", 50, "Food", day(2024, time.March, 10), false)},
			want:     -50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Balance(tt.income, tt.expenses, march2024, MatchCalendarMonth)
			if got != tt.want {
				t.Errorf("Balance() = %v, want %v", got, tt.want)
			}
			want := TotalAmount(FilterCalendarMonth(tt.income, march2024)) - TotalAmount(FilterCalendarMonth(tt.expenses, march2024))
			if got != want {
				t.Errorf("Balance() = %v, want income-expenses %v", got, want)
			}
		})
	}
}

func TestGroupByCategory(t *testing.T) {
	t.Run("empty input yields empty mapping", func(t *testing.T) {
		got := GroupByCategory(nil)
		if !got.Empty() || got.Len() != 0 || len(got.Map()) != 0 {
			t.Fatalf("expected empty totals, got %+v", got.Entries())
		}
		if got.Map() == nil {
			t.Fatalf("Map() should not be nil")
		}
	})

	t.Run("same category sums", func(t *testing.T) {
		got := GroupByCategory([]core.Transaction{
			tx("a", 20, "Food", day(2024, time.March, 1), false),
			tx("b", 30, "Food", day(2024, time.March, 2), false),
		})
		if v, ok := got.Get("Food"); !ok || v != 50 || got.Len() != 1 {
			t.Fatalf("expected {Food:50}, got %+v", got.Entries())
		}
	})

	t.Run("labels are case sensitive and untrimmed", func(t *testing.T) {
		got := GroupByCategory([]core.Transaction{
			tx("a", 1, "Food", day(2024, time.March, 1), false),
			tx("b", 2, "food", day(2024, time.March, 1), false),
			tx("c", 4, "Food ", day(2024, time.March, 1), false),
		})
		if got.Len() != 3 {
			t.Fatalf("expected 3 distinct labels, got %+v", got.Entries())
		}
	})

	t.Run("first appearance order", func(t *testing.T) {
		got := GroupByCategory([]core.Transaction{
			tx("a", 1, "Rent", day(2024, time.March, 1), false),
			tx("b", 2, "Food", day(2024, time.March, 1), false),
			tx("c", 4, "Rent", day(2024, time.March, 1), false),
			tx("d", 8, "Travel", day(2024, time.March, 1), false),
		})
		entries := got.Entries()
		names := []string{entries[0].Name, entries[1].Name, entries[2].Name}
		if names[0] != "Rent" || names[1] != "Food" || names[2] != "Travel" {
			t.Fatalf("unexpected order: %v", names)
		}
		if entries[0].Amount != 5 {
			t.Fatalf("Rent = %v, want 5", entries[0].Amount)
		}
	})

	t.Run("sum equals total", func(t *testing.T) {
		list := []core.Transaction{
			tx("a", 1.5, "A", day(2024, time.March, 1), false),
			tx("b", 2.25, "B", day(2024, time.March, 1), false),
			tx("c", 4, "A", day(2024, time.March, 1), false),
		}
		if got := GroupByCategory(list).Sum(); got != TotalAmount(list) {
			t.Fatalf("Sum() = %v, TotalAmount = %v", got, TotalAmount(list))
		}
	})
}

func TestSummarizeScenario(t *testing.T) {
	income := []core.Transaction{
		tx("salary", 1000, "Salary", day(2024, time.March, 5), true),
	}
	expenses := []core.Transaction{
		tx("rent", 300, "Rent", day(2024, time.March, 10), false),
		tx("food", 50, "Food", day(2024, time.February, 20), false),
	}

	s := Summarize(expenses, income, march2024, MatchCalendarMonth)
	if s.TotalIncome != 1000 || s.TotalExpense != 300 || s.Balance != 700 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if !s.Surplus() {
		t.Fatalf("expected surplus")
	}
	m := s.ExpensesByCategory.Map()
	if len(m) != 1 || m["Rent"] != 300 {
		t.Fatalf("expense categories = %v, want {Rent:300}", m)
	}
	if v, _ := s.IncomeBySource.Get("Salary"); v != 1000 {
		t.Fatalf("income sources = %+v", s.IncomeBySource.Entries())
	}
}

func TestSummarizeNoIncome(t *testing.T) {
	expenses := []core.Transaction{
		tx("rent", 300, "Rent", day(2024, time.March, 10), false),
	}
	s := Summarize(expenses, nil, march2024, MatchCalendarMonth)
	if s.TotalIncome != 0 || s.Balance != -s.TotalExpense {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if !s.IncomeBySource.Empty() {
		t.Fatalf("expected empty income sources")
	}
	if s.Surplus() {
		t.Fatalf("negative balance reported as surplus")
	}
}
