package usage

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

type usageRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &usageRepoPG{pool: pool}
}

func (r *usageRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const useCols = `id, usage_id, reagent_name, catalog_number, quantity_used,
	unit, used_by, department, usage_date, consumed, created_at`

func (r *usageRepoPG) scanRow(row pgx.Row) (*UsageRecord, error) {
	var u UsageRecord
	err := row.Scan(&u.ID, &u.UsageID, &u.ReagentName, &u.CatalogNumber,
		&u.QuantityUsed, &u.Unit, &u.UsedBy, &u.Department, &u.UsageDate,
		&u.Consumed, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *usageRepoPG) NextUsageID(ctx context.Context) (string, error) {
	var n int64
	if err := r.conn(ctx).QueryRow(ctx, `SELECT nextval('usage_record_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("allocate usage id: %w", err)
	}
	return fmt.Sprintf("USE%d", n), nil
}

func (r *usageRepoPG) Create(ctx context.Context, rec *UsageRecord) error {
	rec.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO usage_record (id, usage_id, reagent_name, catalog_number,
			quantity_used, unit, used_by, department, usage_date, consumed)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rec.ID, rec.UsageID, rec.ReagentName, rec.CatalogNumber,
		rec.QuantityUsed, rec.Unit, rec.UsedBy, rec.Department, rec.UsageDate,
		rec.Consumed)
	return err
}

func (r *usageRepoPG) GetByUsageID(ctx context.Context, usageID string) (*UsageRecord, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+useCols+` FROM usage_record WHERE usage_id = $1`, usageID))
}

func (r *usageRepoPG) Search(ctx context.Context, f Filter, limit, offset int) ([]*UsageRecord, int, error) {
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
	if f.UsedBy != "" {
		add("used_by ILIKE $%d", "%"+f.UsedBy+"%")
	}
	if f.FromDate != nil {
		add("usage_date >= $%d", *f.FromDate)
	}
	if f.ToDate != nil {
		add("usage_date <= $%d", *f.ToDate)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM usage_record`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataArgs := append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT `+useCols+` FROM usage_record`+where+` ORDER BY usage_date DESC LIMIT $%d OFFSET $%d`,
			len(args)+1, len(args)+2),
		dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*UsageRecord
	for rows.Next() {
		u, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, u)
	}
	return items, total, rows.Err()
}
