package usage

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medlab/lims/internal/domain/reagent"
	"github.com/medlab/lims/internal/platform/db"
)

// TxRunner executes fn atomically; the production runner wraps db.WithTx so
// the usage record and the reagent ledger commit together.
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

func validateRecord(rec *UsageRecord) error {
	if strings.TrimSpace(rec.ReagentName) == "" {
		return validationErr("reagent_name", "is required")
	}
	if strings.TrimSpace(rec.CatalogNumber) == "" {
		return validationErr("catalog_number", "is required")
	}
	if rec.QuantityUsed <= 0 {
		return validationErr("quantity_used", "must be greater than zero")
	}
	return nil
}

// RecordUsage consumes stock oldest expiration first and persists the usage
// record with its per-batch breakdown, all in one transaction. An
// insufficient total aborts the whole operation.
func (s *Service) RecordUsage(ctx context.Context, rec *UsageRecord) (*reagent.Reagent, error) {
	if err := validateRecord(rec); err != nil {
		return nil, err
	}
	if rec.UsageDate.IsZero() {
		rec.UsageDate = time.Now().UTC()
	}

	var rg *reagent.Reagent
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		rg, err = s.reagents.GetByIdentity(ctx, rec.ReagentName, rec.CatalogNumber)
		if err != nil {
			return err
		}

		rec.Consumed, err = rg.Consume(rec.QuantityUsed)
		if err != nil {
			return err
		}
		if rec.Unit == "" {
			rec.Unit = rg.Unit
		}

		rec.UsageID, err = s.repo.NextUsageID(ctx)
		if err != nil {
			return err
		}
		if err := s.repo.Create(ctx, rec); err != nil {
			return err
		}

		rg.Recompute()
		return s.reagents.Update(ctx, rg)
	})
	if err != nil {
		return nil, err
	}
	return rg, nil
}

func (s *Service) GetUsageRecord(ctx context.Context, usageID string) (*UsageRecord, error) {
	return s.repo.GetByUsageID(ctx, usageID)
}

func (s *Service) ListUsageRecords(ctx context.Context, f Filter, limit, offset int) ([]*UsageRecord, int, error) {
	return s.repo.Search(ctx, f, limit, offset)
}
