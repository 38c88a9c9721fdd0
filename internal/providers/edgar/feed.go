package edgar

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/fundseeker/internal/infra"
	"github.com/seenimoa/fundseeker/internal/ingest"
)

// Filer is a company that recently filed an annual report.
type Filer struct {
	CIK             int       `json:"cik"`
	Name            string    `json:"name"`
	Form            string    `json:"form"`
	Filed           string    `json:"filed"`
	AccessionNumber string    `json:"accessionNumber"`
	Link            string    `json:"link"`
	Updated         time.Time `json:"updated"`
}

// feedPageSize is the largest page browse-edgar serves. Duplicate and
// non-filer entries are dropped after fetching, so always ask for a full page.
const feedPageSize = 100

var (
	// "10-K - Apple Inc. (0000320193) (Filer)"
	entryTitleRe = regexp.MustCompile(`^\s*(\S+)\s+-\s+(.+?)\s+\((\d{1,10})\)\s+\(([^)]+)\)\s*$`)
	filedRe      = regexp.MustCompile(`Filed:\s*(\d{4}-\d{2}-\d{2})`)
	accNoRe      = regexp.MustCompile(`AccNo:\s*([\d-]+)`)
)

// RecentAnnualFilers lists distinct companies from the current 10-K filings feed,
// newest first. limit <= 0 means one full feed page.
func (c *Client) RecentAnnualFilers(ctx context.Context, limit int) ([]Filer, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("action", "getcurrent")
	q.Set("type", ingest.AnnualReportForm)
	q.Set("owner", "include")
	q.Set("start", "0")
	q.Set("count", strconv.Itoa(feedPageSize))
	q.Set("output", "atom")
	feedURL := c.feedURL + "?" + q.Encode()

	c.log.Info("edgar.feed.fetch", "url", feedURL)
	body, _, err := infra.DoGet(ctx, c.http, feedURL, map[string]string{
		"User-Agent": c.userAgent,
		"Accept":     "application/atom+xml",
	})
	if err != nil {
		return nil, fmt.Errorf("edgar current filings feed: %w", err)
	}
	defer body.Close()

	feed, err := c.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse EDGAR feed: %w", err)
	}

	seen := make(map[int]struct{}, len(feed.Items))
	filers := make([]Filer, 0, len(feed.Items))
	for _, item := range feed.Items {
		f, ok := parseEntryTitle(item.Title)
		if !ok || f.Form != ingest.AnnualReportForm {
			continue
		}
		if _, dup := seen[f.CIK]; dup {
			continue
		}
		seen[f.CIK] = struct{}{}

		f.Link = item.Link
		if item.UpdatedParsed != nil {
			f.Updated = item.UpdatedParsed.UTC()
		}
		f.Filed, f.AccessionNumber = parseEntrySummary(item.Description)
		filers = append(filers, f)

		if limit > 0 && len(filers) == limit {
			break
		}
	}
	c.log.Info("edgar.feed.fetched", "entries", len(feed.Items), "filers", len(filers))
	return filers, nil
}

// parseEntryTitle extracts form, name and CIK from a filer entry title.
// Entries for reporting owners or subject companies are rejected.
func parseEntryTitle(title string) (Filer, bool) {
	m := entryTitleRe.FindStringSubmatch(title)
	if m == nil || m[4] != "Filer" {
		return Filer{}, false
	}
	cik, err := strconv.Atoi(m[3])
	if err != nil || cik <= 0 {
		return Filer{}, false
	}
	return Filer{CIK: cik, Name: m[2], Form: m[1]}, true
}

// parseEntrySummary reads the filing date and accession number from the
// summary HTML ("<b>Filed:</b> 2024-11-01 <b>AccNo:</b> 0000320193-24-000123").
func parseEntrySummary(summary string) (filed, accNo string) {
	text := summaryText(summary)
	if m := filedRe.FindStringSubmatch(text); m != nil {
		filed = m[1]
	}
	if m := accNoRe.FindStringSubmatch(text); m != nil {
		accNo = m[1]
	}
	return filed, accNo
}

func summaryText(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
