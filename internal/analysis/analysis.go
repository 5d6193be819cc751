// Package analysis persists and serves completed waterfall analyses.
package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/helioslend/helios/internal/pagination"
	"github.com/helioslend/helios/internal/waterfall"
)

var (
	ErrAnalysisNotFound = errors.New("analysis not found")
)

// Record is the persisted form of a consolidated analysis. The full
// pipeline output is stored as one JSON document; the indexed columns
// exist for listing and reporting queries.
type Record struct {
	ID             string                          `json:"id"`
	AccountID      string                          `json:"accountId,omitempty"`
	VeritasScore   int                             `json:"veritasScore"`
	FinalScore     int                             `json:"finalScore"`
	Recommendation string                          `json:"recommendation"`
	Proceeded      bool                            `json:"proceeded"`
	TotalCostUSD   string                          `json:"totalCostUsd"`
	Analysis       *waterfall.ConsolidatedAnalysis `json:"analysis"`
	CreatedAt      time.Time                       `json:"createdAt"`
}

// ListOption adjusts a list query.
type ListOption func(*listOpts)

type listOpts struct {
	cursor *pagination.Cursor
}

func applyListOpts(opts []ListOption) listOpts {
	var o listOpts
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// WithCursor filters results to records older than the given cursor position.
func WithCursor(cursor string) ListOption {
	return func(o *listOpts) {
		c, err := pagination.Decode(cursor)
		if err == nil {
			o.cursor = c
		}
	}
}

// Store persists analysis records.
type Store interface {
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	ListByAccount(ctx context.Context, accountID string, limit int, opts ...ListOption) ([]*Record, error)
}
