// Package company holds the Company aggregate and its per-year income ledger.
//
// A Company is created once through New, which validates the CIK and name,
// and owns exactly one IncomeLedger. Records enter the ledger only through
// IncomeLedger.Upsert. Restore exists for storage adapters rebuilding a
// Company that already passed validation when it was saved.
package company

import (
	"fmt"
	"strings"
)

// ValidationError reports invalid input at construction or upsert time.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Company is a reporting entity identified by its SEC CIK.
type Company struct {
	cik    int
	name   string
	ledger *IncomeLedger
}

// New creates a Company with an empty ledger.
func New(cik int, name string) (*Company, error) {
	if cik <= 0 {
		return nil, &ValidationError{Field: "cik", Reason: "must be positive"}
	}
	if strings.TrimSpace(name) == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be blank"}
	}
	return &Company{cik: cik, name: name, ledger: newIncomeLedger()}, nil
}

// Restore rebuilds a Company from persisted state without re-validating it.
// Only storage adapters should call this.
func Restore(cik int, name string, records []IncomeRecord) *Company {
	l := newIncomeLedger()
	for _, r := range records {
		rec := r
		l.records[rec.year] = &rec
	}
	return &Company{cik: cik, name: name, ledger: l}
}

// CIK returns the SEC central index key.
func (c *Company) CIK() int { return c.cik }

// Name returns the display name.
func (c *Company) Name() string { return c.name }

// Ledger returns the company's income ledger.
func (c *Company) Ledger() *IncomeLedger { return c.ledger }

func (c *Company) String() string {
	return fmt.Sprintf("%s (CIK %d)", c.name, c.cik)
}
