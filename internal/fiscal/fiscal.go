// Package fiscal computes tenant fiscal-year windows. A fiscal year starts on
// the first day of a configured month and spans exactly one year, end date
// inclusive.
package fiscal

import (
	"fmt"
	"strings"
	"time"
)

// DefaultStartMonth is used when a tenant has no fiscal-year setting.
// April matches the most common fiscal calendar among our tenants.
const DefaultStartMonth = 4

// Window is a single fiscal year, end date inclusive.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"` // e.g. "FY 2025-26"
}

// Contains reports whether d falls within the window.
func (w Window) Contains(d time.Time) bool {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(w.Start) && !day.After(w.End)
}

// String renders the window for evidence strings.
func (w Window) String() string {
	return fmt.Sprintf("%s (%s to %s)", w.Label,
		w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}

// CurrentWindow returns the fiscal year containing today for a fiscal year
// starting in startMonth (1-12). If today's month is at or past the start
// month the window began this calendar year, otherwise last year. The end
// date is the day before the next window starts, which handles month lengths
// and leap years without special cases.
func CurrentWindow(startMonth int, today time.Time) Window {
	if startMonth < 1 || startMonth > 12 {
		startMonth = DefaultStartMonth
	}

	startYear := today.Year()
	if int(today.Month()) < startMonth {
		startYear--
	}

	start := time.Date(startYear, time.Month(startMonth), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0).AddDate(0, 0, -1)

	endYear := end.Year()
	label := fmt.Sprintf("FY %d-%02d", startYear, endYear%100)
	if startMonth == 1 {
		// Calendar-year tenants get a single-year label.
		label = fmt.Sprintf("FY %d", startYear)
	}

	return Window{Start: start, End: end, Label: label}
}

var monthNames = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

// ParseMonth maps a month name or abbreviation to its number. Tenant settings
// store the fiscal start month as text ("april", "Jan"). Unknown values fall
// back to DefaultStartMonth.
func ParseMonth(s string) int {
	if m, ok := monthNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m
	}
	return DefaultStartMonth
}
