package supply

import (
	"context"
	"time"
)

// Filter narrows supply record listings. Name fields match partially,
// case-insensitively; the date range applies to receipt_date.
type Filter struct {
	ReagentName string
	VendorName  string
	Status      string
	FromDate    *time.Time
	ToDate      *time.Time
}

type Repository interface {
	// NextSupplyID allocates the next SUP{n} identifier atomically.
	NextSupplyID(ctx context.Context) (string, error)
	Create(ctx context.Context, rec *SupplyRecord) error
	GetBySupplyID(ctx context.Context, supplyID string) (*SupplyRecord, error)
	Update(ctx context.Context, rec *SupplyRecord) error
	Delete(ctx context.Context, supplyID string) error
	Search(ctx context.Context, f Filter, limit, offset int) ([]*SupplyRecord, int, error)
}
