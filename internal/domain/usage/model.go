package usage

import (
	"time"

	"github.com/google/uuid"

	"github.com/medlab/lims/internal/domain/reagent"
)

// UsageRecord maps to the usage_record table. Consumed holds the per-batch
// breakdown of how the draw was satisfied, stored as JSONB.
type UsageRecord struct {
	ID            uuid.UUID               `db:"id" json:"id"`
	UsageID       string                  `db:"usage_id" json:"usage_id"`
	ReagentName   string                  `db:"reagent_name" json:"reagent_name"`
	CatalogNumber string                  `db:"catalog_number" json:"catalog_number"`
	QuantityUsed  float64                 `db:"quantity_used" json:"quantity_used"`
	Unit          string                  `db:"unit" json:"unit"`
	UsedBy        string                  `db:"used_by" json:"used_by"`
	Department    string                  `db:"department" json:"department"`
	UsageDate     time.Time               `db:"usage_date" json:"usage_date"`
	Consumed      []reagent.ConsumedBatch `db:"consumed" json:"consumed"`
	CreatedAt     time.Time               `db:"created_at" json:"created_at"`
}
