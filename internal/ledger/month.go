package ledger

import (
	"fmt"
	"time"
)

// Month is the reference (year, month) pair selected for aggregation.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month containing t, in t's location.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// NewMonth builds a Month from a 1-based month index.
func NewMonth(year, month int) (Month, error) {
	if month < 1 || month > 12 {
		return Month{}, fmt.Errorf("invalid month %d: must be between 1 and 12", month)
	}
	return Month{Year: year, Month: time.Month(month)}, nil
}

// Label formats the month the way the month selector shows it, e.g. "2024年3月".
func (m Month) Label() string {
	return fmt.Sprintf("%d年%d月", m.Year, int(m.Month))
}

// String implements fmt.Stringer as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MatchMode selects how a transaction date is compared with the reference month.
type MatchMode int

const (
	// MatchCalendarMonth requires both year and month to match.
	MatchCalendarMonth MatchMode = iota
	// MatchMonthOfYear compares the month number only and ignores the year.
	// The home summary has always filtered this way; it is kept as a distinct
	// mode until the product owner decides whether it should be unified.
	MatchMonthOfYear
)

// String implements fmt.Stringer
func (m MatchMode) String() string {
	switch m {
	case MatchCalendarMonth:
		return "calendar"
	case MatchMonthOfYear:
		return "month-of-year"
	default:
		return fmt.Sprintf("MatchMode(%d)", int(m))
	}
}

// ParseMatchMode accepts the names produced by MatchMode.String.
func ParseMatchMode(s string) (MatchMode, error) {
	switch s {
	case "calendar", "":
		return MatchCalendarMonth, nil
	case "month-of-year":
		return MatchMonthOfYear, nil
	}
	return 0, fmt.Errorf("unknown match mode %q: must be calendar or month-of-year", s)
}

// Contains reports whether t falls in the reference month under the given mode.
func (m Month) Contains(t time.Time, mode MatchMode) bool {
	if t.Month() != m.Month {
		return false
	}
	if mode == MatchMonthOfYear {
		return true
	}
	return t.Year() == m.Year
}
