package company

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// IncomeRecord is a company's reported net income for one fiscal year.
type IncomeRecord struct {
	year   int
	amount decimal.Decimal
	form   string
	frame  string
}

// NewIncomeRecord validates and builds a record.
func NewIncomeRecord(year int, amount decimal.Decimal, form, frame string) (IncomeRecord, error) {
	if err := validateRecord(year, form, frame); err != nil {
		return IncomeRecord{}, err
	}
	return IncomeRecord{year: year, amount: amount, form: form, frame: frame}, nil
}

// RestoreIncomeRecord builds a record from persisted state without validation.
func RestoreIncomeRecord(year int, amount decimal.Decimal, form, frame string) IncomeRecord {
	return IncomeRecord{year: year, amount: amount, form: form, frame: frame}
}

func (r IncomeRecord) Year() int               { return r.year }
func (r IncomeRecord) Amount() decimal.Decimal { return r.amount }
func (r IncomeRecord) Form() string            { return r.form }
func (r IncomeRecord) Frame() string           { return r.frame }

func validateRecord(year int, form, frame string) error {
	if year <= 0 {
		return &ValidationError{Field: "year", Reason: "must be positive"}
	}
	if strings.TrimSpace(form) == "" {
		return &ValidationError{Field: "form", Reason: "must not be blank"}
	}
	if strings.TrimSpace(frame) == "" {
		return &ValidationError{Field: "frame", Reason: "must not be blank"}
	}
	return nil
}

// IncomeLedger maps fiscal year to at most one IncomeRecord.
// It is not safe for concurrent mutation; callers serialize writes per company.
type IncomeLedger struct {
	records map[int]*IncomeRecord
}

func newIncomeLedger() *IncomeLedger {
	return &IncomeLedger{records: make(map[int]*IncomeRecord)}
}

// Upsert inserts a record for year, or overwrites the existing record's fields in place.
func (l *IncomeLedger) Upsert(year int, amount decimal.Decimal, form, frame string) error {
	if err := validateRecord(year, form, frame); err != nil {
		return err
	}
	if existing, ok := l.records[year]; ok {
		existing.amount = amount
		existing.form = form
		existing.frame = frame
		return nil
	}
	l.records[year] = &IncomeRecord{year: year, amount: amount, form: form, frame: frame}
	return nil
}

// IncomeForYear returns the recorded amount for year, or zero when absent.
func (l *IncomeLedger) IncomeForYear(year int) decimal.Decimal {
	if r, ok := l.records[year]; ok {
		return r.amount
	}
	return decimal.Zero
}

// HasCompleteRange reports whether every year in [startYear, endYear] has a record.
// An inverted range is vacuously complete.
func (l *IncomeLedger) HasCompleteRange(startYear, endYear int) bool {
	for y := startYear; y <= endYear; y++ {
		if _, ok := l.records[y]; !ok {
			return false
		}
	}
	return true
}

// RecordCount returns the number of distinct years recorded.
func (l *IncomeLedger) RecordCount() int {
	return len(l.records)
}

// Records returns a copy of all records ordered by year.
func (l *IncomeLedger) Records() []IncomeRecord {
	out := make([]IncomeRecord, 0, len(l.records))
	for _, r := range l.records {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].year < out[j].year })
	return out
}
