package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/seenimoa/fundseeker/internal/seeker"
	"github.com/seenimoa/fundseeker/pkg/utils"
)

// formatUSD renders d as dollars, rounding half to even at the cent.
func formatUSD(d decimal.Decimal) string {
	cents := d.RoundBank(2).Shift(2).IntPart()
	return money.New(cents, money.USD).Display()
}

func printCompanies(w io.Writer, list []seeker.CompanySummary) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No companies stored.")
		return
	}
	fmt.Fprintf(w, "%-10s  %-40s  %18s  %18s\n", "CIK", "NAME", "STANDARD", "SPECIAL")
	for _, c := range list {
		fmt.Fprintf(w, "%-10s  %-40s  %18s  %18s\n",
			utils.PadCIK(c.CIK), truncate(c.Name, 40), formatUSD(c.Standard), formatUSD(c.Special))
	}
}

func printCompany(w io.Writer, c seeker.CompanySummary) {
	fmt.Fprintf(w, "CIK:       %s\n", utils.PadCIK(c.CIK))
	fmt.Fprintf(w, "Name:      %s\n", c.Name)
	fmt.Fprintf(w, "Years:     %d\n", c.Records)
	fmt.Fprintf(w, "Standard:  %s\n", formatUSD(c.Standard))
	fmt.Fprintf(w, "Special:   %s\n", formatUSD(c.Special))
}

// printImportResults writes one line per CIK and returns how many failed.
func printImportResults(w io.Writer, results []seeker.ImportResult) int {
	failed := 0
	for _, r := range results {
		switch {
		case r.Err == nil:
			fmt.Fprintf(w, "ok        %s  %-32s  %d applied, %d years  standard %s  special %s\n",
				utils.PadCIK(r.CIK), truncate(r.Name, 32), r.Applied, r.Records,
				formatUSD(r.Standard), formatUSD(r.Special))
		case errors.Is(r.Err, seeker.ErrCompanyNotFound):
			failed++
			fmt.Fprintf(w, "missing   %s  %v\n", utils.PadCIK(r.CIK), r.Err)
		default:
			failed++
			fmt.Fprintf(w, "failed    %s  %v\n", utils.PadCIK(r.CIK), r.Err)
		}
	}
	return failed
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
