package seeker

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/fundseeker/internal/company"
	"github.com/seenimoa/fundseeker/internal/events"
	"github.com/seenimoa/fundseeker/internal/infra/logger"
	"github.com/seenimoa/fundseeker/internal/ingest"
	"github.com/seenimoa/fundseeker/internal/providers/edgar"
	"github.com/seenimoa/fundseeker/internal/storage"
)

// ── Fakes ──

type fakeSource struct {
	mu      sync.Mutex
	facts   map[int]*edgar.CompanyFacts
	filers  []edgar.Filer
	err     error
	calls   map[int]int
	active  atomic.Int32
	maxSeen atomic.Int32
	delay   time.Duration
}

func newFakeSource() *fakeSource {
	return &fakeSource{facts: map[int]*edgar.CompanyFacts{}, calls: map[int]int{}}
}

func (f *fakeSource) CompanyFacts(ctx context.Context, cik int) (*edgar.CompanyFacts, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[cik]++
	if f.err != nil {
		return nil, f.err
	}
	cf, ok := f.facts[cik]
	if !ok {
		return nil, edgar.ErrNotFound
	}
	cp := *cf
	cp.Facts = append([]ingest.Fact(nil), cf.Facts...)
	return &cp, nil
}

func (f *fakeSource) RecentAnnualFilers(ctx context.Context, limit int) ([]edgar.Filer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.filers, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	got  []events.CompanyImported
	fail error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.CompanyImported) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, e)
	return p.fail
}

func annual(year int, amount string) ingest.Fact {
	return ingest.Fact{Form: "10-K", Frame: "CY" + strconv.Itoa(year), Amount: decimal.RequireFromString(amount)}
}

func appleFacts() *edgar.CompanyFacts {
	return &edgar.CompanyFacts{
		CIK:        320193,
		EntityName: "Apple Inc.",
		Facts: []ingest.Fact{
			annual(2018, "1000000"),
			annual(2019, "1500000"),
			{Form: "10-Q", Frame: "CY2020Q1", Amount: decimal.NewFromInt(1)},
			annual(2020, "2000000"),
			annual(2021, "2500000"),
			annual(2022, "3000000"),
		},
	}
}

func newTestService(t *testing.T, src *fakeSource, pub events.Publisher) (*Service, storage.Store) {
	t.Helper()
	store := storage.NewMemory()
	svc := New(src, store, pub, Options{Concurrency: 2, Logger: logger.Discard()})
	return svc, store
}

// ── Import ──

func TestImportNewCompany(t *testing.T) {
	src := newFakeSource()
	src.facts[320193] = appleFacts()
	pub := &recordingPublisher{}
	svc, store := newTestService(t, src, pub)

	res, err := svc.Import(context.Background(), 320193)
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}
	if res.Name != "Apple Inc." || res.Applied != 5 || res.Records != 5 {
		t.Errorf("result: %+v", res)
	}
	if !res.Standard.Equal(decimal.RequireFromString("645300")) || !res.Special.Equal(decimal.RequireFromString("742095")) {
		t.Errorf("amounts: standard %s special %s", res.Standard, res.Special)
	}
	if res.ImportID == "" {
		t.Error("expected an import ID")
	}

	saved, err := store.Load(context.Background(), 320193)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.Ledger().RecordCount() != 5 {
		t.Errorf("saved records: got %d", saved.Ledger().RecordCount())
	}

	if len(pub.got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.got))
	}
	ev := pub.got[0]
	if ev.CIK != 320193 || ev.ImportID != res.ImportID || ev.Applied != 5 || ev.OccurredAt.IsZero() {
		t.Errorf("event: %+v", ev)
	}
}

func TestImportUpdatesExistingCompany(t *testing.T) {
	src := newFakeSource()
	src.facts[7] = &edgar.CompanyFacts{CIK: 7, EntityName: "Renamed Upstream", Facts: []ingest.Fact{annual(2022, "50")}}
	svc, store := newTestService(t, src, nil)

	existing, _ := company.New(7, "Original Name")
	_ = existing.Ledger().Upsert(2018, decimal.NewFromInt(10), "10-K", "CY2018")
	_ = existing.Ledger().Upsert(2022, decimal.NewFromInt(20), "10-K", "CY2022")
	if err := store.Save(context.Background(), existing); err != nil {
		t.Fatalf("Save: %v", err)
	}

	res, err := svc.Import(context.Background(), 7)
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}
	if res.Name != "Original Name" {
		t.Errorf("existing company keeps its name, got %q", res.Name)
	}
	if res.Applied != 1 || res.Records != 2 {
		t.Errorf("applied %d records %d", res.Applied, res.Records)
	}
	got, _ := store.Load(context.Background(), 7)
	if !got.Ledger().IncomeForYear(2022).Equal(decimal.NewFromInt(50)) {
		t.Errorf("2022 should be overwritten, got %s", got.Ledger().IncomeForYear(2022))
	}
}

func TestImportNotFound(t *testing.T) {
	svc, _ := newTestService(t, newFakeSource(), nil)
	_, err := svc.Import(context.Background(), 42)
	if !errors.Is(err, ErrCompanyNotFound) {
		t.Fatalf("expected ErrCompanyNotFound, got %v", err)
	}
}

func TestImportSourceError(t *testing.T) {
	src := newFakeSource()
	src.err = errors.New("upstream timeout")
	pub := &recordingPublisher{}
	svc, _ := newTestService(t, src, pub)

	_, err := svc.Import(context.Background(), 1)
	if err == nil || errors.Is(err, ErrCompanyNotFound) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
	if len(pub.got) != 0 {
		t.Error("no event should be published on failure")
	}
}

func TestImportIngestErrorLeavesStoreUntouched(t *testing.T) {
	src := newFakeSource()
	src.facts[3] = &edgar.CompanyFacts{CIK: 3, EntityName: "Bad Frames", Facts: []ingest.Fact{
		annual(2018, "1"),
		{Form: "10-K", Frame: "CY0000", Amount: decimal.NewFromInt(2)},
	}}
	svc, store := newTestService(t, src, nil)

	_, err := svc.Import(context.Background(), 3)
	var verr *company.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := store.Load(context.Background(), 3); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("failed import must not be saved, Load err = %v", err)
	}
}

func TestImportBlankEntityName(t *testing.T) {
	src := newFakeSource()
	src.facts[4] = &edgar.CompanyFacts{CIK: 4, EntityName: "", Facts: nil}
	svc, _ := newTestService(t, src, nil)

	_, err := svc.Import(context.Background(), 4)
	var verr *company.ValidationError
	if !errors.As(err, &verr) || verr.Field != "name" {
		t.Fatalf("expected name ValidationError, got %v", err)
	}
}

func TestPublishFailureIsNotReturned(t *testing.T) {
	src := newFakeSource()
	src.facts[320193] = appleFacts()
	svc, _ := newTestService(t, src, &recordingPublisher{fail: errors.New("kafka down")})

	if _, err := svc.Import(context.Background(), 320193); err != nil {
		t.Fatalf("publish failure should be logged only, got %v", err)
	}
}

// ── Batches ──

func TestImportBatch(t *testing.T) {
	src := newFakeSource()
	src.facts[320193] = appleFacts()
	src.facts[1318605] = &edgar.CompanyFacts{CIK: 1318605, EntityName: "Tesla Inc.", Facts: []ingest.Fact{
		annual(2018, "1000000"), annual(2019, "1500000"), annual(2020, "2000000"),
		annual(2021, "3000000"), annual(2022, "2500000"),
	}}
	pub := &recordingPublisher{}
	svc, _ := newTestService(t, src, pub)

	results := svc.ImportBatch(context.Background(), []int{1318605, 42, 320193, 1318605})
	if len(results) != 3 {
		t.Fatalf("duplicates should be dropped, got %d results", len(results))
	}
	wantOrder := []int{1318605, 42, 320193}
	for i, r := range results {
		if r.CIK != wantOrder[i] {
			t.Errorf("result %d: CIK %d, want %d", i, r.CIK, wantOrder[i])
		}
	}
	if results[0].Err != nil || !results[0].Special.Equal(decimal.RequireFromString("483975")) {
		t.Errorf("tesla: %+v", results[0])
	}
	if !errors.Is(results[1].Err, ErrCompanyNotFound) {
		t.Errorf("42: expected not found, got %v", results[1].Err)
	}
	if results[0].ImportID == "" || results[0].ImportID != results[2].ImportID {
		t.Error("results of one batch share an import ID")
	}
	if src.calls[1318605] != 1 {
		t.Errorf("duplicate CIK fetched %d times", src.calls[1318605])
	}
	if len(pub.got) != 2 {
		t.Errorf("expected 2 events, got %d", len(pub.got))
	}
}

func TestImportBatchRespectsConcurrency(t *testing.T) {
	src := newFakeSource()
	src.delay = 20 * time.Millisecond
	ciks := make([]int, 8)
	for i := range ciks {
		ciks[i] = i + 1
		src.facts[i+1] = &edgar.CompanyFacts{CIK: i + 1, EntityName: "Co " + strconv.Itoa(i+1)}
	}
	svc, _ := newTestService(t, src, nil)

	results := svc.ImportBatch(context.Background(), ciks)
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("CIK %d: %v", r.CIK, r.Err)
		}
	}
	if m := src.maxSeen.Load(); m > 2 {
		t.Errorf("concurrency limit 2 exceeded: %d in flight", m)
	}
}

func TestImportBatchEmpty(t *testing.T) {
	svc, _ := newTestService(t, newFakeSource(), nil)
	if got := svc.ImportBatch(context.Background(), nil); len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
}

func TestImportRecent(t *testing.T) {
	src := newFakeSource()
	src.facts[320193] = appleFacts()
	src.filers = []edgar.Filer{{CIK: 320193, Name: "Apple Inc.", Form: "10-K"}}
	svc, _ := newTestService(t, src, nil)

	results, err := svc.ImportRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ImportRecent error: %v", err)
	}
	if len(results) != 1 || results[0].Err != nil || results[0].CIK != 320193 {
		t.Errorf("results: %+v", results)
	}

	src.err = errors.New("feed down")
	if _, err := svc.ImportRecent(context.Background(), 10); err == nil {
		t.Error("expected discovery error")
	}
}

func TestConcurrentImportsOfSameCIK(t *testing.T) {
	src := newFakeSource()
	src.facts[320193] = appleFacts()
	src.delay = 5 * time.Millisecond
	svc, _ := newTestService(t, src, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Import(context.Background(), 320193); err != nil {
				t.Errorf("Import: %v", err)
			}
		}()
	}
	wg.Wait()
	if m := src.maxSeen.Load(); m != 1 {
		t.Errorf("same-CIK imports must be serialized, saw %d in flight", m)
	}
}

// ── Queries ──

func TestCompaniesAndCompany(t *testing.T) {
	src := newFakeSource()
	src.facts[320193] = appleFacts()
	svc, store := newTestService(t, src, nil)
	if _, err := svc.Import(context.Background(), 320193); err != nil {
		t.Fatalf("Import: %v", err)
	}
	tesla, _ := company.New(1318605, "Tesla Inc.")
	_ = store.Save(context.Background(), tesla)

	all, err := svc.Companies(context.Background(), "")
	if err != nil {
		t.Fatalf("Companies: %v", err)
	}
	if len(all) != 2 || all[0].Name != "Apple Inc." || !all[1].Standard.IsZero() {
		t.Errorf("all: %+v", all)
	}

	a, err := svc.Companies(context.Background(), "a")
	if err != nil || len(a) != 1 || !a[0].Special.Equal(decimal.RequireFromString("742095")) {
		t.Errorf("prefix a: %+v, %v", a, err)
	}

	one, err := svc.Company(context.Background(), 320193)
	if err != nil || one.Records != 5 {
		t.Errorf("Company: %+v, %v", one, err)
	}
	if _, err := svc.Company(context.Background(), 9); !errors.Is(err, ErrCompanyNotFound) {
		t.Errorf("expected ErrCompanyNotFound, got %v", err)
	}
}
