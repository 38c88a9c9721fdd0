// Package storage persists companies and their income ledgers.
//
// Three backends share one Store contract: an in-memory map for tests and
// one-shot CLI runs, SQLite (modernc.org/sqlite, pure Go) for single-node
// deployments, and PostgreSQL (lib/pq).
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/seenimoa/fundseeker/internal/company"
)

// ErrNotFound is returned by Load when no company has the CIK.
var ErrNotFound = errors.New("storage: company not found")

// Store is the persistence contract for companies.
type Store interface {
	// Load returns the company with the given CIK or ErrNotFound.
	Load(ctx context.Context, cik int) (*company.Company, error)
	// Save replaces the company row and all of its income records atomically.
	Save(ctx context.Context, c *company.Company) error
	// FindByNamePrefix returns companies whose name starts with prefix,
	// compared case-insensitively after trimming prefix. An empty prefix
	// matches everything. Results are ordered by name, then CIK.
	FindByNamePrefix(ctx context.Context, prefix string) ([]*company.Company, error)
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and configures a backend.
type Config struct {
	Driver string
	Path   string // sqlite database file
	DSN    string // postgres connection string
}

// Open creates the store named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		s, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		s, err := OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func hasNamePrefix(name, prefix string) bool {
	return strings.HasPrefix(strings.ToUpper(name), strings.ToUpper(prefix))
}

func sortCompanies(cs []*company.Company) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Name() != cs[j].Name() {
			return cs[i].Name() < cs[j].Name()
		}
		return cs[i].CIK() < cs[j].CIK()
	})
}
