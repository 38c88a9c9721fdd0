package storage

import (
	"context"
	"strings"
	"sync"

	"github.com/seenimoa/fundseeker/internal/company"
)

type snapshot struct {
	name    string
	records []company.IncomeRecord
}

// Memory is a mutex-protected in-memory Store. It keeps snapshots, so
// callers never share ledger state with the store or each other.
type Memory struct {
	mu        sync.RWMutex
	companies map[int]snapshot
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{companies: make(map[int]snapshot)}
}

func (m *Memory) Load(ctx context.Context, cik int) (*company.Company, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.companies[cik]
	if !ok {
		return nil, ErrNotFound
	}
	return company.Restore(cik, s.name, s.records), nil
}

func (m *Memory) Save(ctx context.Context, c *company.Company) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := snapshot{name: c.Name(), records: c.Ledger().Records()}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies[c.CIK()] = s
	return nil
}

func (m *Memory) FindByNamePrefix(ctx context.Context, prefix string) ([]*company.Company, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix = strings.TrimSpace(prefix)

	m.mu.RLock()
	out := make([]*company.Company, 0, len(m.companies))
	for cik, s := range m.companies {
		if hasNamePrefix(s.name, prefix) {
			out = append(out, company.Restore(cik, s.name, s.records))
		}
	}
	m.mu.RUnlock()

	sortCompanies(out)
	return out, nil
}

func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
