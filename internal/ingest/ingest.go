// Package ingest normalizes raw filing facts into income ledger upserts.
package ingest

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/fundseeker/internal/company"
)

// AnnualReportForm is the only filing form eligible for ingestion.
const AnnualReportForm = "10-K"

// calendarYearFrame matches full calendar-year frames such as "CY2021".
var calendarYearFrame = regexp.MustCompile(`^CY(\d{4})$`)

// Fact is one raw income fact reported by a filing source.
type Fact struct {
	Form   string          `json:"form"`
	Frame  string          `json:"frame"`
	Amount decimal.Decimal `json:"val"`
}

// FrameYear returns the year of a calendar-year frame.
func FrameYear(frame string) (int, bool) {
	m := calendarYearFrame.FindStringSubmatch(frame)
	if m == nil {
		return 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// annualYear returns the calendar year of f when it is an annual report for
// a full calendar year.
func annualYear(f Fact) (int, bool) {
	if f.Form != AnnualReportForm {
		return 0, false
	}
	return FrameYear(f.Frame)
}

// Ingest applies qualifying facts to the company's ledger in input order and
// returns how many were applied. A later fact for the same year overwrites an
// earlier one; filing dates are not consulted. Non-qualifying facts are skipped.
func Ingest(c *company.Company, facts []Fact) (int, error) {
	applied := 0
	for i, f := range facts {
		year, ok := annualYear(f)
		if !ok {
			continue
		}
		if err := c.Ledger().Upsert(year, f.Amount, f.Form, f.Frame); err != nil {
			return applied, fmt.Errorf("ingest fact %d (%s %s): %w", i, f.Form, f.Frame, err)
		}
		applied++
	}
	return applied, nil
}
