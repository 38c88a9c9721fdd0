// Package seeker coordinates filing imports and funding lookups: it pulls
// net income facts from EDGAR, folds them into stored ledgers, and
// reports what each company may receive.
package seeker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/fundseeker/internal/company"
	"github.com/seenimoa/fundseeker/internal/eligibility"
	"github.com/seenimoa/fundseeker/internal/events"
	"github.com/seenimoa/fundseeker/internal/ingest"
	"github.com/seenimoa/fundseeker/internal/providers/edgar"
	"github.com/seenimoa/fundseeker/internal/storage"
)

// DefaultConcurrency bounds parallel imports when none is configured.
const DefaultConcurrency = 4

// ErrCompanyNotFound is returned when a CIK is unknown to EDGAR or to the store.
var ErrCompanyNotFound = errors.New("company not found")

// Source supplies filing facts. *edgar.Client implements it.
type Source interface {
	CompanyFacts(ctx context.Context, cik int) (*edgar.CompanyFacts, error)
	RecentAnnualFilers(ctx context.Context, limit int) ([]edgar.Filer, error)
}

// CompanySummary is a stored company with its fundable amounts.
type CompanySummary struct {
	CIK      int
	Name     string
	Records  int
	Standard decimal.Decimal
	Special  decimal.Decimal
}

// ImportResult is the outcome of importing one CIK. Err is nil on success.
type ImportResult struct {
	ImportID string
	CIK      int
	Name     string
	Applied  int // qualifying facts applied this run
	Records  int // distinct years now in the ledger
	Standard decimal.Decimal
	Special  decimal.Decimal
	Err      error
}

// Options tunes a Service.
type Options struct {
	Concurrency int
	Logger      *slog.Logger
	Now         func() time.Time
}

// Service is safe for concurrent use.
type Service struct {
	source      Source
	store       storage.Store
	publisher   events.Publisher
	concurrency int
	log         *slog.Logger
	now         func() time.Time

	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

// New creates a Service. A nil publisher discards events.
func New(source Source, store storage.Store, publisher events.Publisher, opts Options) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		source:      source,
		store:       store,
		publisher:   publisher,
		concurrency: opts.Concurrency,
		log:         opts.Logger,
		now:         opts.Now,
		locks:       make(map[int]*sync.Mutex),
	}
}

func (s *Service) lockFor(cik int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locks[cik]; !ok {
		s.locks[cik] = &sync.Mutex{}
	}
	return s.locks[cik]
}

// Import refreshes one company from EDGAR.
func (s *Service) Import(ctx context.Context, cik int) (ImportResult, error) {
	res := s.importOne(ctx, uuid.NewString(), cik)
	return res, res.Err
}

// ImportBatch imports ciks concurrently and returns one result per distinct
// CIK, in first-seen order.
func (s *Service) ImportBatch(ctx context.Context, ciks []int) []ImportResult {
	importID := uuid.NewString()

	seen := make(map[int]struct{}, len(ciks))
	unique := make([]int, 0, len(ciks))
	for _, cik := range ciks {
		if _, dup := seen[cik]; dup {
			continue
		}
		seen[cik] = struct{}{}
		unique = append(unique, cik)
	}

	start := s.now()
	s.log.Info("import.batch.start", "import_id", importID, "ciks", len(unique), "concurrency", s.concurrency)

	results := make([]ImportResult, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, cik := range unique {
		g.Go(func() error {
			results[i] = s.importOne(gctx, importID, cik)
			return nil // per-CIK failures are reported in results
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.log.Info("import.batch.done",
		"import_id", importID,
		"imported", len(results)-failed,
		"failed", failed,
		"elapsed", s.now().Sub(start),
	)
	return results
}

// ImportRecent imports companies that filed an annual report recently.
func (s *Service) ImportRecent(ctx context.Context, limit int) ([]ImportResult, error) {
	filers, err := s.source.RecentAnnualFilers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("discover recent filers: %w", err)
	}
	ciks := make([]int, 0, len(filers))
	for _, f := range filers {
		ciks = append(ciks, f.CIK)
	}
	return s.ImportBatch(ctx, ciks), nil
}

func (s *Service) importOne(ctx context.Context, importID string, cik int) ImportResult {
	res := ImportResult{ImportID: importID, CIK: cik}
	log := s.log.With("import_id", importID, "cik", cik)

	c, applied, err := s.refresh(ctx, cik)
	if err != nil {
		res.Err = err
		log.Warn("import.failed", "error", err)
		return res
	}

	a := eligibility.Assess(c)
	res.Name = c.Name()
	res.Applied = applied
	res.Records = c.Ledger().RecordCount()
	res.Standard = a.Standard
	res.Special = a.Special
	log.Info("import.done", "name", res.Name, "applied", applied, "records", res.Records)

	ev := events.CompanyImported{
		ImportID:               importID,
		CIK:                    cik,
		Name:                   res.Name,
		Records:                res.Records,
		Applied:                applied,
		StandardFundableAmount: a.Standard,
		SpecialFundableAmount:  a.Special,
		OccurredAt:             s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		log.Error("import.publish_failed", "error", err)
	}
	return res
}

// refresh runs fetch, ingest and save while holding the CIK lock.
func (s *Service) refresh(ctx context.Context, cik int) (*company.Company, int, error) {
	mu := s.lockFor(cik)
	mu.Lock()
	defer mu.Unlock()

	facts, err := s.source.CompanyFacts(ctx, cik)
	if errors.Is(err, edgar.ErrNotFound) {
		return nil, 0, fmt.Errorf("CIK %d: %w", cik, ErrCompanyNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("fetch facts: %w", err)
	}

	c, err := s.store.Load(ctx, cik)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c, err = company.New(cik, facts.EntityName)
		if err != nil {
			return nil, 0, err
		}
	case err != nil:
		return nil, 0, fmt.Errorf("load company: %w", err)
	}

	applied, err := ingest.Ingest(c, facts.Facts)
	if err != nil {
		return nil, 0, err
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, 0, fmt.Errorf("save company: %w", err)
	}
	return c, applied, nil
}

// Companies lists stored companies whose name starts with startsWith.
func (s *Service) Companies(ctx context.Context, startsWith string) ([]CompanySummary, error) {
	cs, err := s.store.FindByNamePrefix(ctx, startsWith)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	out := make([]CompanySummary, 0, len(cs))
	for _, c := range cs {
		out = append(out, summarize(c))
	}
	return out, nil
}

// Company returns one stored company.
func (s *Service) Company(ctx context.Context, cik int) (CompanySummary, error) {
	c, err := s.store.Load(ctx, cik)
	if errors.Is(err, storage.ErrNotFound) {
		return CompanySummary{}, fmt.Errorf("CIK %d: %w", cik, ErrCompanyNotFound)
	}
	if err != nil {
		return CompanySummary{}, fmt.Errorf("load company: %w", err)
	}
	return summarize(c), nil
}

func summarize(c *company.Company) CompanySummary {
	a := eligibility.Assess(c)
	return CompanySummary{
		CIK:      c.CIK(),
		Name:     c.Name(),
		Records:  c.Ledger().RecordCount(),
		Standard: a.Standard,
		Special:  a.Special,
	}
}
