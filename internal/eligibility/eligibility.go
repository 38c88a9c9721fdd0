// Package eligibility derives the standard and special fundable amounts
// from a company's 2018-2022 income ledger.
//
// Both calculations are pure and read-only with respect to the ledger, so
// they may run concurrently against the same Company. Arithmetic runs at
// full decimal precision; only the returned values are rounded half-to-even
// to two places.
package eligibility

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/fundseeker/internal/company"
)

const (
	RequiredStartYear = 2018
	RequiredEndYear   = 2022

	// Years whose income must both be positive.
	priorYear  = 2021
	latestYear = 2022

	// Decimal places of returned amounts.
	amountPlaces = 2
)

var (
	HighIncomeThreshold     = decimal.NewFromInt(10_000_000_000)
	HighIncomeRate          = decimal.RequireFromString("0.1233")
	LowIncomeRate           = decimal.RequireFromString("0.2151")
	VowelBonus              = decimal.RequireFromString("0.15")
	DecreasingIncomePenalty = decimal.RequireFromString("0.25")
)

// Assessment holds both fundable amounts for one company.
type Assessment struct {
	Standard decimal.Decimal `json:"standard_fundable_amount"`
	Special  decimal.Decimal `json:"special_fundable_amount"`
}

// Assess computes both amounts.
func Assess(c *company.Company) Assessment {
	return Assessment{
		Standard: CalculateStandard(c),
		Special:  CalculateSpecial(c),
	}
}

// CalculateStandard returns the standard fundable amount, or zero when the
// ledger is incomplete for 2018-2022 or 2021/2022 income is not positive.
func CalculateStandard(c *company.Company) decimal.Decimal {
	return standardAmount(c).RoundBank(amountPlaces)
}

// CalculateSpecial returns the standard amount adjusted by the vowel bonus
// and then by the decreasing-income penalty.
func CalculateSpecial(c *company.Company) decimal.Decimal {
	amount := standardAmount(c)
	if amount.IsZero() {
		return decimal.Zero
	}

	if startsWithVowel(c.Name()) {
		amount = amount.Add(amount.Mul(VowelBonus))
	}

	l := c.Ledger()
	if l.IncomeForYear(latestYear).LessThan(l.IncomeForYear(priorYear)) {
		amount = amount.Sub(amount.Mul(DecreasingIncomePenalty))
	}

	return amount.RoundBank(amountPlaces)
}

// standardAmount is the unrounded standard amount.
func standardAmount(c *company.Company) decimal.Decimal {
	l := c.Ledger()
	if !l.HasCompleteRange(RequiredStartYear, RequiredEndYear) {
		return decimal.Zero
	}
	if !l.IncomeForYear(priorYear).IsPositive() || !l.IncomeForYear(latestYear).IsPositive() {
		return decimal.Zero
	}

	highest := l.IncomeForYear(RequiredStartYear)
	for y := RequiredStartYear + 1; y <= RequiredEndYear; y++ {
		highest = decimal.Max(highest, l.IncomeForYear(y))
	}

	if highest.GreaterThanOrEqual(HighIncomeThreshold) {
		return highest.Mul(HighIncomeRate)
	}
	return highest.Mul(LowIncomeRate)
}

func startsWithVowel(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	for _, r := range name {
		switch unicode.ToUpper(r) {
		case 'A', 'E', 'I', 'O', 'U':
			return true
		}
		return false
	}
	return false
}
