package supply

import (
	"time"

	"github.com/google/uuid"
)

// Supply record statuses. Each status transition maps to a batch ledger
// action on the target reagent.
const (
	StatusReceived        = "received"
	StatusPartialShipment = "partial_shipment"
	StatusReturned        = "returned"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusReceived, StatusPartialShipment, StatusReturned:
		return true
	}
	return false
}

// SupplyRecord maps to the supply_record table. SupplyID is the business
// identifier (SUP{n}, allocated from a database sequence); ID is the
// surrogate key.
type SupplyRecord struct {
	ID               uuid.UUID `db:"id" json:"id"`
	SupplyID         string    `db:"supply_id" json:"supply_id"`
	ReagentName      string    `db:"reagent_name" json:"reagent_name"`
	CatalogNumber    string    `db:"catalog_number" json:"catalog_number"`
	VendorName       string    `db:"vendor_name" json:"vendor_name"`
	VendorID         string    `db:"vendor_id" json:"vendor_id"`
	PONumber         string    `db:"po_number" json:"po_number"`
	OrderDate        time.Time `db:"order_date" json:"order_date"`
	ReceiptDate      time.Time `db:"receipt_date" json:"receipt_date"`
	QuantityReceived float64   `db:"quantity_received" json:"quantity_received"`
	UnitOfMeasure    string    `db:"unit_of_measure" json:"unit_of_measure"`
	LotNumber        string    `db:"lot_number" json:"lot_number"`
	ExpirationDate   time.Time `db:"expiration_date" json:"expiration_date"`
	StorageLocation  string    `db:"storage_location" json:"storage_location"`
	Status           string    `db:"status" json:"status"`
	ReceivedBy       string    `db:"received_by" json:"received_by"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Patch carries the mutable fields of an update request. Identity fields
// (supply_id, reagent_name, catalog_number) are not representable here and
// are therefore stripped by construction.
type Patch struct {
	VendorName       *string    `json:"vendor_name"`
	VendorID         *string    `json:"vendor_id"`
	PONumber         *string    `json:"po_number"`
	OrderDate        *time.Time `json:"order_date"`
	ReceiptDate      *time.Time `json:"receipt_date"`
	QuantityReceived *float64   `json:"quantity_received"`
	UnitOfMeasure    *string    `json:"unit_of_measure"`
	LotNumber        *string    `json:"lot_number"`
	ExpirationDate   *time.Time `json:"expiration_date"`
	StorageLocation  *string    `json:"storage_location"`
	Status           *string    `json:"status"`
}

// Summary reports the inventory effect of a supply mutation.
type Summary struct {
	PreviousQuantity float64 `json:"previous_quantity"`
	NewQuantity      float64 `json:"new_quantity"`
	InventoryUpdated bool    `json:"inventory_updated"`
}
