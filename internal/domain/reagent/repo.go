package reagent

import (
	"context"

	"github.com/google/uuid"
)

// SearchFilter narrows reagent listings. String fields match partially,
// case-insensitively; empty fields are ignored.
type SearchFilter struct {
	Name          string
	CatalogNumber string
	Manufacturer  string
}

type Repository interface {
	Create(ctx context.Context, r *Reagent) error
	GetByID(ctx context.Context, id uuid.UUID) (*Reagent, error)
	GetByIdentity(ctx context.Context, reagentName, catalogNumber string) (*Reagent, error)
	Update(ctx context.Context, r *Reagent) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, filter SearchFilter, limit, offset int) ([]*Reagent, int, error)
	// ListAll returns every reagent, used by the alert scanner.
	ListAll(ctx context.Context) ([]*Reagent, error)
}
