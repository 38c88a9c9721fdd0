// Package events defines the notifications emitted when companies are imported.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// TypeCompanyImported names the CompanyImported event on the wire.
const TypeCompanyImported = "company.imported"

// CompanyImported is published after a company's ledger has been refreshed
// and saved.
type CompanyImported struct {
	ImportID               string          `json:"importId"`
	CIK                    int             `json:"cik"`
	Name                   string          `json:"name"`
	Records                int             `json:"records"`
	Applied                int             `json:"applied"`
	StandardFundableAmount decimal.Decimal `json:"standardFundableAmount"`
	SpecialFundableAmount  decimal.Decimal `json:"specialFundableAmount"`
	OccurredAt             time.Time       `json:"occurredAt"`
}

// Publisher delivers events to a sink.
type Publisher interface {
	Publish(ctx context.Context, e CompanyImported) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, CompanyImported) error { return nil }

// Multi fans an event out to every publisher, attempting all of them and
// joining their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e CompanyImported) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, e CompanyImported) error

func (f PublisherFunc) Publish(ctx context.Context, e CompanyImported) error { return f(ctx, e) }

var (
	_ Publisher = Nop{}
	_ Publisher = Multi(nil)
	_ Publisher = PublisherFunc(nil)
)
