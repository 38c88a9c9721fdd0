package edgar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// --- EDGAR Company Facts (XBRL) ---

// companyFactsResponse is the subset of /api/xbrl/companyfacts we read.
type companyFactsResponse struct {
	CIK        flexInt                         `json:"cik"`
	EntityName string                          `json:"entityName"`
	Facts      map[string]map[string]factEntry `json:"facts"` // taxonomy -> concept -> fact
}

type factEntry struct {
	Label       string                `json:"label"`
	Description string                `json:"description"`
	Units       map[string][]factUnit `json:"units"` // "USD", "shares", ...
}

type factUnit struct {
	Start string          `json:"start"`
	End   string          `json:"end"`
	Val   decimal.Decimal `json:"val"`
	Accn  string          `json:"accn"`
	FY    int             `json:"fy"`
	FP    string          `json:"fp"` // "Q1".."Q3", "FY"
	Form  string          `json:"form"`
	Filed string          `json:"filed"`
	Frame string          `json:"frame,omitempty"`
}

// flexInt decodes either a JSON number or a numeric string such as "0000320193".
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("unable to convert %q to int: %w", s, err)
		}
		*f = flexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unexpected cik value %s: %w", data, err)
	}
	*f = flexInt(n)
	return nil
}
