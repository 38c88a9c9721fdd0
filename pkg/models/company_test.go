package models

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAmountMarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"645300", "645300.00"},
		{"742095.00", "742095.00"},
		{"0", "0.00"},
		{"32.265", "32.26"},
		{"32.275", "32.28"},
		{"-1.5", "-1.50"},
	}
	for _, tt := range tests {
		data, err := json.Marshal(NewAmount(decimal.RequireFromString(tt.in)))
		if err != nil {
			t.Fatalf("Marshal(%s): %v", tt.in, err)
		}
		if string(data) != tt.want {
			t.Errorf("Marshal(%s) = %s, want %s", tt.in, data, tt.want)
		}
	}
}

func TestCompanyResponseJSON(t *testing.T) {
	r := CompanyResponse{
		ID:                     320193,
		Name:                   "Apple Inc.",
		StandardFundableAmount: NewAmount(decimal.RequireFromString("645300")),
		SpecialFundableAmount:  NewAmount(decimal.RequireFromString("742095")),
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"id":320193,"name":"Apple Inc.","standardFundableAmount":645300.00,"specialFundableAmount":742095.00}`
	if string(data) != want {
		t.Errorf("got  %s\nwant %s", data, want)
	}

	var back CompanyResponse
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !back.SpecialFundableAmount.Equal(decimal.NewFromInt(742095)) {
		t.Errorf("round trip: got %s", back.SpecialFundableAmount)
	}
}

func TestAmountUnmarshalQuoted(t *testing.T) {
	var a Amount
	if err := json.Unmarshal([]byte(`"12.50"`), &a); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !a.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("got %s", a)
	}
}

func TestImportResultOmitsEmptyAmounts(t *testing.T) {
	data, err := json.Marshal(ImportResult{CIK: 42, Status: ImportStatusNotFound, Error: "company not found"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"cik":42,"status":"not_found","applied":0,"records":0,"error":"company not found"}`
	if string(data) != want {
		t.Errorf("got  %s\nwant %s", data, want)
	}
}

func TestImportRequestAcceptsNumbersAndStrings(t *testing.T) {
	tests := []struct {
		body string
		want []int
		ok   bool
	}{
		{`{"ciks":[320193]}`, []int{320193}, true},
		{`{"ciks":["320193","0001318605","CIK0000789019"]}`, []int{320193, 1318605, 789019}, true},
		{`{"ciks":[320193,"1318605"]}`, []int{320193, 1318605}, true},
		{`{"ciks":[]}`, []int{}, true},
		{`{"ciks":[0]}`, nil, false},
		{`{"ciks":[-5]}`, nil, false},
		{`{"ciks":[1.5]}`, nil, false},
		{`{"ciks":["apple"]}`, nil, false},
		{`{"ciks":[null]}`, nil, false},
		{`{"ciks":[true]}`, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var req ImportRequest
			err := json.Unmarshal([]byte(tt.body), &req)
			if (err == nil) != tt.ok {
				t.Fatalf("Unmarshal(%s) error = %v, want ok=%v", tt.body, err, tt.ok)
			}
			if tt.ok && !reflect.DeepEqual(req.Ints(), tt.want) {
				t.Errorf("Ints() = %v, want %v", req.Ints(), tt.want)
			}
		})
	}
}

func TestCIKMarshalsAsNumber(t *testing.T) {
	data, err := json.Marshal(ImportRequest{CIKs: []CIK{320193}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"ciks":[320193]}` {
		t.Errorf("got %s", data)
	}
}
