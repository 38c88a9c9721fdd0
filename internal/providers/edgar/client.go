// Package edgar implements the SEC EDGAR filing source.
//
// It reads net income facts from the XBRL company facts API and discovers
// recent annual-report filers from the EDGAR current events Atom feed.
//
// No API key required. SEC requires a descriptive User-Agent with a contact
// address and limits clients to 10 requests/second.
// Docs: https://www.sec.gov/edgar/sec-api-documentation
package edgar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/fundseeker/internal/infra"
	"github.com/seenimoa/fundseeker/internal/ingest"
	"github.com/seenimoa/fundseeker/pkg/utils"
)

const (
	DefaultBaseURL   = "https://data.sec.gov"
	DefaultFeedURL   = "https://www.sec.gov/cgi-bin/browse-edgar"
	DefaultUserAgent = "fundseeker/1.0 (admin@fundseeker.local)"

	// Apple, used by Ping.
	pingCIK = 320193

	incomeTaxonomy = "us-gaap"
	incomeConcept  = "NetIncomeLoss"
	incomeUnit     = "USD"
)

// ErrNotFound is returned when EDGAR has no company facts for a CIK.
var ErrNotFound = errors.New("edgar: company not found")

// CompanyFacts is the normalized net income history of one company.
type CompanyFacts struct {
	CIK        int
	EntityName string
	Facts      []ingest.Fact
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL   string
	FeedURL   string
	UserAgent string
	Timeout   time.Duration
	RateLimit int // requests per second
	CacheTTL  time.Duration
	Logger    *slog.Logger
}

// Client talks to SEC EDGAR.
type Client struct {
	baseURL   string
	feedURL   string
	userAgent string
	http      *http.Client
	limiter   *infra.RateLimiter
	cache     *infra.Cache[int, CompanyFacts]
	parser    *gofeed.Parser
	log       *slog.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.FeedURL == "" {
		opts.FeedURL = DefaultFeedURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		feedURL:   opts.FeedURL,
		userAgent: opts.UserAgent,
		http:      &http.Client{Timeout: opts.Timeout},
		limiter:   infra.NewRateLimiter(opts.RateLimit, time.Second),
		cache:     infra.NewCache[int, CompanyFacts](opts.CacheTTL),
		parser:    gofeed.NewParser(),
		log:       opts.Logger,
	}
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"User-Agent": c.userAgent,
		"Accept":     "application/json",
	}
}

// CompanyFacts fetches the NetIncomeLoss USD facts for cik in source order.
// A company without NetIncomeLoss facts yields an empty Facts slice.
func (c *Client) CompanyFacts(ctx context.Context, cik int) (*CompanyFacts, error) {
	if cik <= 0 {
		return nil, fmt.Errorf("edgar company facts: invalid CIK %d", cik)
	}
	if cached, ok := c.cache.Get(cik); ok {
		c.log.Debug("edgar.facts.cached", "cik", cik)
		return cloneFacts(cached), nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", c.baseURL, utils.PadCIK(cik))
	c.log.Info("edgar.facts.fetch", "cik", cik, "url", url)

	var resp companyFactsResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		var herr *infra.ErrHTTP
		if errors.As(err, &herr) && herr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("CIK %d: %w", cik, ErrNotFound)
		}
		return nil, fmt.Errorf("edgar company facts for CIK %d: %w", cik, err)
	}

	facts := CompanyFacts{
		CIK:        int(resp.CIK),
		EntityName: strings.TrimSpace(resp.EntityName),
		Facts:      netIncomeFacts(resp),
	}
	if facts.CIK == 0 {
		facts.CIK = cik
	}
	c.log.Info("edgar.facts.fetched", "cik", cik, "entity", facts.EntityName, "facts", len(facts.Facts))

	c.cache.Set(cik, facts)
	return cloneFacts(facts), nil
}

// Ping checks connectivity to EDGAR.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", c.baseURL, utils.PadCIK(pingCIK))
	body, _, err := infra.DoGet(ctx, c.http, url, c.headers())
	if err != nil {
		return fmt.Errorf("edgar ping: %w", err)
	}
	body.Close()
	return nil
}

func netIncomeFacts(resp companyFactsResponse) []ingest.Fact {
	concept, ok := resp.Facts[incomeTaxonomy][incomeConcept]
	if !ok {
		return nil
	}
	units := concept.Units[incomeUnit]
	out := make([]ingest.Fact, 0, len(units))
	for _, u := range units {
		out = append(out, ingest.Fact{Form: u.Form, Frame: u.Frame, Amount: u.Val})
	}
	return out
}

func (c *Client) getJSON(ctx context.Context, url string, dest any) error {
	body, _, err := infra.DoGet(ctx, c.http, url, c.headers())
	if err != nil {
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read SEC response: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse SEC JSON: %w", err)
	}
	return nil
}

func cloneFacts(f CompanyFacts) *CompanyFacts {
	f.Facts = slices.Clone(f.Facts)
	return &f
}
