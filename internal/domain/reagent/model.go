package reagent

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Batch is one received lot of a reagent, embedded in the reagent's ledger.
// A batch with quantity 0 is retired and spliced out of the array; aggregate
// fields never count it.
type Batch struct {
	LotNumber       string    `json:"lot_number"`
	Quantity        float64   `json:"quantity"`
	ExpirationDate  time.Time `json:"expiration_date"`
	SupplyID        string    `json:"supply_id,omitempty"`
	StorageLocation string    `json:"storage_location,omitempty"`
	ReceivedDate    time.Time `json:"received_date,omitempty"`
}

// Live reports whether the batch still holds stock.
func (b Batch) Live() bool { return b.Quantity > 0 }

// Reagent maps to the reagent table. Batches are stored as a JSONB document
// array; quantity_available and nearest_expiration_date are derived caches
// maintained by Recompute.
type Reagent struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	ReagentName           string     `db:"reagent_name" json:"reagent_name"`
	CatalogNumber         string     `db:"catalog_number" json:"catalog_number"`
	Manufacturer          *string    `db:"manufacturer" json:"manufacturer,omitempty"`
	CASNumber             *string    `db:"cas_number" json:"cas_number,omitempty"`
	Description           *string    `db:"description" json:"description,omitempty"`
	Unit                  string     `db:"unit" json:"unit"`
	QuantityAvailable     float64    `db:"quantity_available" json:"quantity_available"`
	NearestExpirationDate *time.Time `db:"nearest_expiration_date" json:"nearest_expiration_date,omitempty"`
	Batches               []Batch    `db:"batches" json:"batches"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// Recompute projects the aggregate fields from the batch ledger:
// quantity_available is the sum of quantity over live batches and
// nearest_expiration_date is the minimum expiration among them (nil when no
// live batch exists). Call after every ledger mutation, before persisting.
func (r *Reagent) Recompute() {
	var total float64
	var nearest *time.Time
	for i := range r.Batches {
		b := r.Batches[i]
		if !b.Live() {
			continue
		}
		total += b.Quantity
		if nearest == nil || b.ExpirationDate.Before(*nearest) {
			exp := b.ExpirationDate
			nearest = &exp
		}
	}
	r.QuantityAvailable = total
	r.NearestExpirationDate = nearest
}

// LiveBatches returns the live batches sorted by expiration ascending,
// lot number breaking ties.
func (r *Reagent) LiveBatches() []Batch {
	var live []Batch
	for _, b := range r.Batches {
		if b.Live() {
			live = append(live, b)
		}
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].ExpirationDate.Equal(live[j].ExpirationDate) {
			return live[i].LotNumber < live[j].LotNumber
		}
		return live[i].ExpirationDate.Before(live[j].ExpirationDate)
	})
	return live
}

// AddBatch appends a batch to the ledger.
func (r *Reagent) AddBatch(b Batch) {
	r.Batches = append(r.Batches, b)
}

// BatchBySupplyID returns the index of the batch owned by the given supply
// record, or -1.
func (r *Reagent) BatchBySupplyID(supplyID string) int {
	for i := range r.Batches {
		if r.Batches[i].SupplyID == supplyID {
			return i
		}
	}
	return -1
}

// RemoveBatchBySupplyID splices out the batch owned by the given supply
// record. Returns the removed batch's quantity and whether a batch was found.
func (r *Reagent) RemoveBatchBySupplyID(supplyID string) (float64, bool) {
	i := r.BatchBySupplyID(supplyID)
	if i < 0 {
		return 0, false
	}
	qty := r.Batches[i].Quantity
	r.Batches = append(r.Batches[:i], r.Batches[i+1:]...)
	return qty, true
}

// InsufficientBatchQuantityError reports that a subtraction could not be
// satisfied by the reagent's live batches. Available carries the relevant
// live batches as a diagnostic for the API response.
type InsufficientBatchQuantityError struct {
	LotNumber string
	Requested float64
	Available []Batch
}

func (e *InsufficientBatchQuantityError) Error() string {
	if e.LotNumber != "" {
		return fmt.Sprintf("lot %s has no batch with at least %v units available", e.LotNumber, e.Requested)
	}
	return fmt.Sprintf("insufficient quantity available: requested %v", e.Requested)
}

// SubtractFromLot deducts qty from a live batch of the given lot that holds
// at least qty, preferring the batch expiring soonest. The batch is spliced
// out when its quantity reaches zero. Returns InsufficientBatchQuantityError
// when no batch qualifies.
func (r *Reagent) SubtractFromLot(lotNumber string, qty float64) error {
	best := -1
	for i := range r.Batches {
		b := r.Batches[i]
		if b.LotNumber != lotNumber || !b.Live() || b.Quantity < qty {
			continue
		}
		if best < 0 || b.ExpirationDate.Before(r.Batches[best].ExpirationDate) {
			best = i
		}
	}
	if best < 0 {
		return &InsufficientBatchQuantityError{
			LotNumber: lotNumber,
			Requested: qty,
			Available: r.lotBatches(lotNumber),
		}
	}

	r.Batches[best].Quantity -= qty
	if !r.Batches[best].Live() {
		r.Batches = append(r.Batches[:best], r.Batches[best+1:]...)
	}
	return nil
}

// AddToLot returns qty to an existing live batch of the given lot (the one
// expiring soonest), reporting whether a batch was found.
func (r *Reagent) AddToLot(lotNumber string, qty float64) bool {
	best := -1
	for i := range r.Batches {
		b := r.Batches[i]
		if b.LotNumber != lotNumber || !b.Live() {
			continue
		}
		if best < 0 || b.ExpirationDate.Before(r.Batches[best].ExpirationDate) {
			best = i
		}
	}
	if best < 0 {
		return false
	}
	r.Batches[best].Quantity += qty
	return true
}

// ConsumedBatch records how much of a usage draw came out of one batch.
type ConsumedBatch struct {
	LotNumber      string    `json:"lot_number"`
	Quantity       float64   `json:"quantity"`
	ExpirationDate time.Time `json:"expiration_date"`
	SupplyID       string    `json:"supply_id,omitempty"`
}

// Consume drains qty from the ledger oldest expiration first, splicing out
// batches that reach zero, and returns the per-batch breakdown. When the live
// total is short of qty nothing is mutated and an
// InsufficientBatchQuantityError carrying the live batches is returned.
func (r *Reagent) Consume(qty float64) ([]ConsumedBatch, error) {
	live := r.LiveBatches()
	var total float64
	for _, b := range live {
		total += b.Quantity
	}
	if total < qty {
		return nil, &InsufficientBatchQuantityError{Requested: qty, Available: live}
	}

	var breakdown []ConsumedBatch
	remaining := qty
	for _, b := range live {
		if remaining <= 0 {
			break
		}
		take := b.Quantity
		if take > remaining {
			take = remaining
		}
		breakdown = append(breakdown, ConsumedBatch{
			LotNumber:      b.LotNumber,
			Quantity:       take,
			ExpirationDate: b.ExpirationDate,
			SupplyID:       b.SupplyID,
		})
		r.deductBatch(b.LotNumber, b.SupplyID, b.ExpirationDate, take)
		remaining -= take
	}
	return breakdown, nil
}

func (r *Reagent) deductBatch(lotNumber, supplyID string, exp time.Time, qty float64) {
	for i := range r.Batches {
		b := &r.Batches[i]
		if b.LotNumber == lotNumber && b.SupplyID == supplyID && b.ExpirationDate.Equal(exp) && b.Live() {
			b.Quantity -= qty
			if !b.Live() {
				r.Batches = append(r.Batches[:i], r.Batches[i+1:]...)
			}
			return
		}
	}
}

func (r *Reagent) lotBatches(lotNumber string) []Batch {
	var out []Batch
	for _, b := range r.Batches {
		if b.LotNumber == lotNumber && b.Live() {
			out = append(out, b)
		}
	}
	return out
}

// BatchBuckets partitions a reagent's live batches by expiry status.
type BatchBuckets struct {
	ExpiringSoon []Batch `json:"expiring_soon"`
	Expired      []Batch `json:"expired"`
}

// ExpiryBuckets classifies live batches relative to now: expired batches have
// an expiration date before today, expiring-soon batches expire within
// windowDays (inclusive) and are not yet past. Comparison is at date
// precision in UTC.
func (r *Reagent) ExpiryBuckets(now time.Time, windowDays int) BatchBuckets {
	today := truncateToDay(now)
	cutoff := today.AddDate(0, 0, windowDays)

	var buckets BatchBuckets
	for _, b := range r.Batches {
		if !b.Live() {
			continue
		}
		exp := truncateToDay(b.ExpirationDate)
		switch {
		case exp.Before(today):
			buckets.Expired = append(buckets.Expired, b)
		case !exp.After(cutoff):
			buckets.ExpiringSoon = append(buckets.ExpiringSoon, b)
		}
	}
	return buckets
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
