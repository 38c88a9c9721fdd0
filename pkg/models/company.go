package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/fundseeker/pkg/utils"
)

// Amount is a currency amount that encodes to JSON as a bare number with
// exactly two decimal places (645300.00), rounding half to even.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) Amount { return Amount{d} }

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.StringFixedBank(2)), nil
}

// UnmarshalJSON accepts both numbers and quoted strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}

// --- Companies ---

// CompanyResponse is one company with its fundable amounts.
type CompanyResponse struct {
	ID                     int    `json:"id"` // CIK
	Name                   string `json:"name"`
	StandardFundableAmount Amount `json:"standardFundableAmount"`
	SpecialFundableAmount  Amount `json:"specialFundableAmount"`
}

// --- Imports ---

// ImportStatus is the outcome of importing one CIK.
type ImportStatus string

const (
	ImportStatusImported ImportStatus = "imported"
	ImportStatusNotFound ImportStatus = "not_found"
	ImportStatusFailed   ImportStatus = "failed"
)

// CIK is a company identifier. It decodes from a JSON number (320193) or
// string ("320193", "0000320193", "CIK0000320193") and encodes as a number.
type CIK int

func (c *CIK) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	n, err := utils.ParseCIK(raw)
	if err != nil {
		return err
	}
	*c = CIK(n)
	return nil
}

// ImportRequest is the body of POST /companies/import.
type ImportRequest struct {
	CIKs []CIK `json:"ciks"`
}

// Ints returns the requested CIKs as plain ints.
func (r ImportRequest) Ints() []int {
	out := make([]int, len(r.CIKs))
	for i, c := range r.CIKs {
		out[i] = int(c)
	}
	return out
}

// ImportResult reports what happened to one CIK.
type ImportResult struct {
	CIK                    int          `json:"cik"`
	Status                 ImportStatus `json:"status"`
	Name                   string       `json:"name,omitempty"`
	Applied                int          `json:"applied"`
	Records                int          `json:"records"`
	StandardFundableAmount *Amount      `json:"standardFundableAmount,omitempty"`
	SpecialFundableAmount  *Amount      `json:"specialFundableAmount,omitempty"`
	Error                  string       `json:"error,omitempty"`
}

// ImportResponse wraps the results of a batch.
type ImportResponse struct {
	ImportID string         `json:"importId"`
	Imported int            `json:"imported"`
	Failed   int            `json:"failed"`
	Results  []ImportResult `json:"results"`
}

// --- Stream ---

// CompanyImportedEvent is the data of a "company.imported" frame.
type CompanyImportedEvent struct {
	ImportID               string    `json:"importId"`
	CIK                    int       `json:"cik"`
	Name                   string    `json:"name"`
	Records                int       `json:"records"`
	Applied                int       `json:"applied"`
	StandardFundableAmount Amount    `json:"standardFundableAmount"`
	SpecialFundableAmount  Amount    `json:"specialFundableAmount"`
	OccurredAt             time.Time `json:"occurredAt"`
}
