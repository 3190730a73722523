package reagent

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

type reagentRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &reagentRepoPG{pool: pool}
}

func (r *reagentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const rgtCols = `id, reagent_name, catalog_number, manufacturer, cas_number,
	description, unit, quantity_available, nearest_expiration_date, batches,
	created_at, updated_at`

func (r *reagentRepoPG) scanRow(row pgx.Row) (*Reagent, error) {
	var rg Reagent
	err := row.Scan(&rg.ID, &rg.ReagentName, &rg.CatalogNumber, &rg.Manufacturer,
		&rg.CASNumber, &rg.Description, &rg.Unit, &rg.QuantityAvailable,
		&rg.NearestExpirationDate, &rg.Batches, &rg.CreatedAt, &rg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if rg.Batches == nil {
		rg.Batches = []Batch{}
	}
	return &rg, nil
}

func (r *reagentRepoPG) Create(ctx context.Context, rg *Reagent) error {
	rg.ID = uuid.New()
	if rg.Batches == nil {
		rg.Batches = []Batch{}
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO reagent (id, reagent_name, catalog_number, manufacturer,
			cas_number, description, unit, quantity_available,
			nearest_expiration_date, batches)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rg.ID, rg.ReagentName, rg.CatalogNumber, rg.Manufacturer,
		rg.CASNumber, rg.Description, rg.Unit, rg.QuantityAvailable,
		rg.NearestExpirationDate, rg.Batches)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateIdentity
	}
	return err
}

func (r *reagentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Reagent, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+rgtCols+` FROM reagent WHERE id = $1`, id))
}

func (r *reagentRepoPG) GetByIdentity(ctx context.Context, reagentName, catalogNumber string) (*Reagent, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+rgtCols+` FROM reagent WHERE reagent_name = $1 AND catalog_number = $2`,
		reagentName, catalogNumber))
}

func (r *reagentRepoPG) Update(ctx context.Context, rg *Reagent) error {
	if rg.Batches == nil {
		rg.Batches = []Batch{}
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE reagent SET manufacturer=$2, cas_number=$3, description=$4,
			unit=$5, quantity_available=$6, nearest_expiration_date=$7,
			batches=$8, updated_at=NOW()
		WHERE id = $1`,
		rg.ID, rg.Manufacturer, rg.CASNumber, rg.Description,
		rg.Unit, rg.QuantityAvailable, rg.NearestExpirationDate, rg.Batches)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reagentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM reagent WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reagentRepoPG) Search(ctx context.Context, filter SearchFilter, limit, offset int) ([]*Reagent, int, error) {
	where := ""
	var args []interface{}
	add := func(clause, value string) {
		args = append(args, "%"+value+"%")
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(clause, len(args))
	}
	if filter.Name != "" {
		add("reagent_name ILIKE $%d", filter.Name)
	}
	if filter.CatalogNumber != "" {
		add("catalog_number ILIKE $%d", filter.CatalogNumber)
	}
	if filter.Manufacturer != "" {
		add("manufacturer ILIKE $%d", filter.Manufacturer)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM reagent`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataArgs := append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT `+rgtCols+` FROM reagent`+where+` ORDER BY reagent_name ASC LIMIT $%d OFFSET $%d`,
			len(args)+1, len(args)+2),
		dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Reagent
	for rows.Next() {
		rg, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rg)
	}
	return items, total, rows.Err()
}

func (r *reagentRepoPG) ListAll(ctx context.Context) ([]*Reagent, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+rgtCols+` FROM reagent ORDER BY reagent_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Reagent
	for rows.Next() {
		rg, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rg)
	}
	return items, rows.Err()
}
