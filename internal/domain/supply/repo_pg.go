package supply

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medlab/lims/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type supplyRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &supplyRepoPG{pool: pool}
}

func (r *supplyRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const supCols = `id, supply_id, reagent_name, catalog_number, vendor_name,
	vendor_id, po_number, order_date, receipt_date, quantity_received,
	unit_of_measure, lot_number, expiration_date, storage_location, status,
	received_by, created_at, updated_at`

func (r *supplyRepoPG) scanRow(row pgx.Row) (*SupplyRecord, error) {
	var s SupplyRecord
	err := row.Scan(&s.ID, &s.SupplyID, &s.ReagentName, &s.CatalogNumber,
		&s.VendorName, &s.VendorID, &s.PONumber, &s.OrderDate, &s.ReceiptDate,
		&s.QuantityReceived, &s.UnitOfMeasure, &s.LotNumber, &s.ExpirationDate,
		&s.StorageLocation, &s.Status, &s.ReceivedBy, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *supplyRepoPG) NextSupplyID(ctx context.Context) (string, error) {
	var n int64
	if err := r.conn(ctx).QueryRow(ctx, `SELECT nextval('supply_record_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("allocate supply id: %w", err)
	}
	return fmt.Sprintf("SUP%d", n), nil
}

func (r *supplyRepoPG) Create(ctx context.Context, rec *SupplyRecord) error {
	rec.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO supply_record (id, supply_id, reagent_name, catalog_number,
			vendor_name, vendor_id, po_number, order_date, receipt_date,
			quantity_received, unit_of_measure, lot_number, expiration_date,
			storage_location, status, received_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		rec.ID, rec.SupplyID, rec.ReagentName, rec.CatalogNumber,
		rec.VendorName, rec.VendorID, rec.PONumber, rec.OrderDate, rec.ReceiptDate,
		rec.QuantityReceived, rec.UnitOfMeasure, rec.LotNumber, rec.ExpirationDate,
		rec.StorageLocation, rec.Status, rec.ReceivedBy)
	return err
}

func (r *supplyRepoPG) GetBySupplyID(ctx context.Context, supplyID string) (*SupplyRecord, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+supCols+` FROM supply_record WHERE supply_id = $1`, supplyID))
}

func (r *supplyRepoPG) Update(ctx context.Context, rec *SupplyRecord) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE supply_record SET vendor_name=$2, vendor_id=$3, po_number=$4,
			order_date=$5, receipt_date=$6, quantity_received=$7,
			unit_of_measure=$8, lot_number=$9, expiration_date=$10,
			storage_location=$11, status=$12, updated_at=NOW()
		WHERE supply_id = $1`,
		rec.SupplyID, rec.VendorName, rec.VendorID, rec.PONumber,
		rec.OrderDate, rec.ReceiptDate, rec.QuantityReceived,
		rec.UnitOfMeasure, rec.LotNumber, rec.ExpirationDate,
		rec.StorageLocation, rec.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *supplyRepoPG) Delete(ctx context.Context, supplyID string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM supply_record WHERE supply_id = $1`, supplyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *supplyRepoPG) Search(ctx context.Context, f Filter, limit, offset int) ([]*SupplyRecord, int, error) {
	where := ""
	var args []interface{}
	add := func(clause string, value interface{}) {
		args = append(args, value)
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(clause, len(args))
	}
	if f.ReagentName != "" {
		add("reagent_name ILIKE $%d", "%"+f.ReagentName+"%")
	}
	if f.VendorName != "" {
		add("vendor_name ILIKE $%d", "%"+f.VendorName+"%")
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.FromDate != nil {
		add("receipt_date >= $%d", *f.FromDate)
	}
	if f.ToDate != nil {
		add("receipt_date <= $%d", *f.ToDate)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM supply_record`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataArgs := append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT `+supCols+` FROM supply_record`+where+` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
			len(args)+1, len(args)+2),
		dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*SupplyRecord
	for rows.Next() {
		s, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}
