package supply

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medlab/lims/internal/domain/reagent"
	"github.com/medlab/lims/internal/platform/db"
)

// TxRunner executes fn atomically. The production runner wraps db.WithTx so
// the supply record and the reagent ledger commit or roll back together.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

func PoolTxRunner(pool *pgxpool.Pool) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	}
}

type Service struct {
	repo     Repository
	reagents reagent.Repository
	tx       TxRunner
}

func NewService(repo Repository, reagents reagent.Repository, tx TxRunner) *Service {
	return &Service{repo: repo, reagents: reagents, tx: tx}
}

func validateCreate(rec *SupplyRecord) error {
	required := []struct {
		field string
		ok    bool
	}{
		{"reagent_name", strings.TrimSpace(rec.ReagentName) != ""},
		{"catalog_number", strings.TrimSpace(rec.CatalogNumber) != ""},
		{"vendor_name", strings.TrimSpace(rec.VendorName) != ""},
		{"vendor_id", strings.TrimSpace(rec.VendorID) != ""},
		{"po_number", strings.TrimSpace(rec.PONumber) != ""},
		{"order_date", !rec.OrderDate.IsZero()},
		{"receipt_date", !rec.ReceiptDate.IsZero()},
		{"unit_of_measure", strings.TrimSpace(rec.UnitOfMeasure) != ""},
		{"lot_number", strings.TrimSpace(rec.LotNumber) != ""},
		{"expiration_date", !rec.ExpirationDate.IsZero()},
		{"storage_location", strings.TrimSpace(rec.StorageLocation) != ""},
	}
	for _, r := range required {
		if !r.ok {
			return validationErr(r.field, "is required")
		}
	}
	if rec.QuantityReceived <= 0 {
		return validationErr("quantity_received", "must be greater than zero")
	}
	if rec.Status != "" && !ValidStatus(rec.Status) {
		return validationErr("status", "must be one of received, partial_shipment, returned")
	}
	return nil
}

// CreateSupplyRecord persists the record and applies its ledger effect in a
// single transaction. A returned-status create that cannot be covered by a
// live batch of the lot aborts entirely; nothing is persisted.
func (s *Service) CreateSupplyRecord(ctx context.Context, rec *SupplyRecord) (*Summary, error) {
	if err := validateCreate(rec); err != nil {
		return nil, err
	}
	if rec.Status == "" {
		rec.Status = StatusReceived
	}

	var sum Summary
	err := s.tx(ctx, func(ctx context.Context) error {
		rg, err := s.reagents.GetByIdentity(ctx, rec.ReagentName, rec.CatalogNumber)
		if err != nil {
			return err
		}
		sum.PreviousQuantity = rg.QuantityAvailable

		rec.SupplyID, err = s.repo.NextSupplyID(ctx)
		if err != nil {
			return err
		}

		switch rec.Status {
		case StatusReceived:
			rg.AddBatch(newBatch(rec))
			sum.InventoryUpdated = true
		case StatusReturned:
			if err := rg.SubtractFromLot(rec.LotNumber, rec.QuantityReceived); err != nil {
				return err
			}
			sum.InventoryUpdated = true
		case StatusPartialShipment:
			// No ledger effect.
		}

		if err := s.repo.Create(ctx, rec); err != nil {
			return err
		}
		if sum.InventoryUpdated {
			rg.Recompute()
			if err := s.reagents.Update(ctx, rg); err != nil {
				return err
			}
		}
		sum.NewQuantity = rg.QuantityAvailable
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

// newBatch builds the ledger entry owned by a received supply record.
func newBatch(rec *SupplyRecord) reagent.Batch {
	return reagent.Batch{
		LotNumber:       rec.LotNumber,
		Quantity:        rec.QuantityReceived,
		ExpirationDate:  rec.ExpirationDate,
		SupplyID:        rec.SupplyID,
		StorageLocation: rec.StorageLocation,
		ReceivedDate:    rec.ReceiptDate,
	}
}

func (s *Service) GetSupplyRecord(ctx context.Context, supplyID string) (*SupplyRecord, error) {
	return s.repo.GetBySupplyID(ctx, supplyID)
}

func (s *Service) ListSupplyRecords(ctx context.Context, f Filter, limit, offset int) ([]*SupplyRecord, int, error) {
	return s.repo.Search(ctx, f, limit, offset)
}

func applyPatch(rec *SupplyRecord, p *Patch) {
	if p.VendorName != nil {
		rec.VendorName = *p.VendorName
	}
	if p.VendorID != nil {
		rec.VendorID = *p.VendorID
	}
	if p.PONumber != nil {
		rec.PONumber = *p.PONumber
	}
	if p.OrderDate != nil {
		rec.OrderDate = *p.OrderDate
	}
	if p.ReceiptDate != nil {
		rec.ReceiptDate = *p.ReceiptDate
	}
	if p.QuantityReceived != nil {
		rec.QuantityReceived = *p.QuantityReceived
	}
	if p.UnitOfMeasure != nil {
		rec.UnitOfMeasure = *p.UnitOfMeasure
	}
	if p.LotNumber != nil {
		rec.LotNumber = *p.LotNumber
	}
	if p.ExpirationDate != nil {
		rec.ExpirationDate = *p.ExpirationDate
	}
	if p.StorageLocation != nil {
		rec.StorageLocation = *p.StorageLocation
	}
	if p.Status != nil {
		rec.Status = *p.Status
	}
}

// UpdateSupplyRecord applies the patch and reconciles the reagent ledger for
// the (old_status, new_status) transition, all in one transaction.
//
// Batches created by a received record are matched by supply_id; return-style
// subtraction and re-credit match by lot_number, since returned stock may
// live in batches owned by other supplies.
func (s *Service) UpdateSupplyRecord(ctx context.Context, supplyID string, p *Patch) (*SupplyRecord, *Summary, error) {
	if p.Status != nil && !ValidStatus(*p.Status) {
		return nil, nil, validationErr("status", "must be one of received, partial_shipment, returned")
	}
	if p.QuantityReceived != nil && *p.QuantityReceived <= 0 {
		return nil, nil, validationErr("quantity_received", "must be greater than zero")
	}

	var rec *SupplyRecord
	var sum Summary
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.repo.GetBySupplyID(ctx, supplyID)
		if err != nil {
			return err
		}
		oldStatus := rec.Status
		oldQty := rec.QuantityReceived
		applyPatch(rec, p)
		newStatus := rec.Status

		rg, err := s.reagents.GetByIdentity(ctx, rec.ReagentName, rec.CatalogNumber)
		if err != nil {
			return err
		}
		sum.PreviousQuantity = rg.QuantityAvailable

		touched, err := reconcile(rg, rec, oldStatus, newStatus, oldQty)
		if err != nil {
			return err
		}
		sum.InventoryUpdated = touched

		if err := s.repo.Update(ctx, rec); err != nil {
			return err
		}
		if touched {
			rg.Recompute()
			if err := s.reagents.Update(ctx, rg); err != nil {
				return err
			}
		}
		sum.NewQuantity = rg.QuantityAvailable
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return rec, &sum, nil
}

// reconcile applies the ledger action for a status transition and reports
// whether the ledger changed.
func reconcile(rg *reagent.Reagent, rec *SupplyRecord, oldStatus, newStatus string, oldQty float64) (bool, error) {
	if oldStatus == newStatus {
		if oldStatus == StatusReceived && rec.QuantityReceived != oldQty {
			if i := rg.BatchBySupplyID(rec.SupplyID); i >= 0 {
				rg.Batches[i].Quantity = rec.QuantityReceived
			} else {
				rg.AddBatch(newBatch(rec))
			}
			return true, nil
		}
		return false, nil
	}

	switch {
	case oldStatus == StatusReceived:
		// received -> partial_shipment or returned: the record no longer
		// represents stock on hand.
		_, removed := rg.RemoveBatchBySupplyID(rec.SupplyID)
		return removed, nil

	case newStatus == StatusReceived:
		// partial_shipment or returned -> received: stock (re)enters the
		// ledger from the record's current fields.
		rg.AddBatch(newBatch(rec))
		return true, nil

	case oldStatus == StatusPartialShipment && newStatus == StatusReturned:
		if err := rg.SubtractFromLot(rec.LotNumber, rec.QuantityReceived); err != nil {
			return false, err
		}
		return true, nil

	case oldStatus == StatusReturned && newStatus == StatusPartialShipment:
		if !rg.AddToLot(rec.LotNumber, rec.QuantityReceived) {
			rg.AddBatch(newBatch(rec))
		}
		return true, nil
	}
	return false, nil
}

// DeleteSummary reports the ledger revert performed by a delete.
type DeleteSummary struct {
	PreviousQuantity float64 `json:"previous_quantity"`
	NewQuantity      float64 `json:"new_quantity"`
	QuantityReverted float64 `json:"quantity_reverted"`
	Direction        string  `json:"direction"` // "removed", "added_back", "none"
}

// DeleteSupplyRecord reverts the record's ledger effect and deletes it, in
// one transaction. A delete whose reagent has itself been deleted still
// removes the record; there is no ledger left to revert.
func (s *Service) DeleteSupplyRecord(ctx context.Context, supplyID string) (*DeleteSummary, error) {
	var sum DeleteSummary
	sum.Direction = "none"
	err := s.tx(ctx, func(ctx context.Context) error {
		rec, err := s.repo.GetBySupplyID(ctx, supplyID)
		if err != nil {
			return err
		}

		rg, err := s.reagents.GetByIdentity(ctx, rec.ReagentName, rec.CatalogNumber)
		if err != nil && !errors.Is(err, reagent.ErrNotFound) {
			return err
		}
		if rg != nil {
			sum.PreviousQuantity = rg.QuantityAvailable
			touched := false
			switch rec.Status {
			case StatusReceived:
				if qty, ok := rg.RemoveBatchBySupplyID(rec.SupplyID); ok {
					sum.QuantityReverted = qty
					sum.Direction = "removed"
					touched = true
				}
			case StatusReturned:
				if !rg.AddToLot(rec.LotNumber, rec.QuantityReceived) {
					rg.AddBatch(newBatch(rec))
				}
				sum.QuantityReverted = rec.QuantityReceived
				sum.Direction = "added_back"
				touched = true
			}
			if touched {
				rg.Recompute()
				if err := s.reagents.Update(ctx, rg); err != nil {
					return err
				}
			}
			sum.NewQuantity = rg.QuantityAvailable
		}

		return s.repo.Delete(ctx, supplyID)
	})
	if err != nil {
		return nil, err
	}
	return &sum, nil
}
