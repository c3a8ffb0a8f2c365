package ledger

import (
	"testing"
	"time"
)

func TestNewMonth(t *testing.T) {
	m, err := NewMonth(2024, 3)
	if err != nil || m != march2024 {
		t.Fatalf("NewMonth(2024, 3) = %v, %v", m, err)
	}
	for _, bad := range []int{0, 13, -1} {
		if _, err := NewMonth(2024, bad); err == nil {
			t.Fatalf("NewMonth(2024, %d) expected error", bad)
		}
	}
}

func TestMonthFormatting(t *testing.T) {
	if got := march2024.Label(); got != "2024年3月" {
		t.Fatalf("Label() = %q", got)
	}
	if got := march2024.String(); got != "2024-03" {
		t.Fatalf("String() = %q", got)
	}
	if got := MonthOf(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)); got != (Month{Year: 2023, Month: time.December}) {
		t.Fatalf("MonthOf() = %v", got)
	}
}

func TestParseMatchMode(t *testing.T) {
	for _, mode := range []MatchMode{MatchCalendarMonth, MatchMonthOfYear} {
		got, err := ParseMatchMode(mode.String())
		if err != nil || got != mode {
			t.Fatalf("ParseMatchMode(%q) = %v, %v", mode.String(), got, err)
		}
	}
	if _, err := ParseMatchMode("weekly"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
