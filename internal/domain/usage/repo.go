package usage

import (
	"context"
	"time"
)

// Filter narrows usage record listings. Name fields match partially,
// case-insensitively; the date range applies to usage_date.
type Filter struct {
	ReagentName string
	UsedBy      string
	FromDate    *time.Time
	ToDate      *time.Time
}

type Repository interface {
	// NextUsageID allocates the next USE{n} identifier atomically.
	NextUsageID(ctx context.Context) (string, error)
	Create(ctx context.Context, rec *UsageRecord) error
	GetByUsageID(ctx context.Context, usageID string) (*UsageRecord, error)
	Search(ctx context.Context, f Filter, limit, offset int) ([]*UsageRecord, int, error)
}
