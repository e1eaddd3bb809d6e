package mirror

import (
	"context"

	"waiasella/backend/internal/domain"
)

// Sink receives the denormalized line items of a completed sale after
// the local commit. Pushes are one-way and best-effort: a failure is
// logged and surfaced on the receipt, never retried, and never rolls
// back local state.
type Sink interface {
	SaveSale(ctx context.Context, rows []domain.LineItemRow) error
	Enabled() bool
}

// NoopSink is the silently-degraded offline mode used when no remote
// database is configured.
type NoopSink struct{}

func (NoopSink) SaveSale(_ context.Context, _ []domain.LineItemRow) error {
	return nil
}

func (NoopSink) Enabled() bool {
	return false
}
