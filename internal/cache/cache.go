package cache

import (
	"context"
	"time"
)

// ReportCache holds pre-rendered report payloads so the read-heavy
// report endpoints don't recompute aggregations on every poll. Entries
// are invalidated whenever the ledger or catalog mutates.
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

const (
	KeySummary    = "reports:summary"
	KeyTopSelling = "reports:top-selling"
)

type NoopReportCache struct{}

func (NoopReportCache) Get(_ context.Context, _ string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}

func (NoopReportCache) Invalidate(_ context.Context, _ ...string) error {
	return nil
}
