package reagent

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AlertSink receives inventory alert dispatches. Implemented by the
// notification manager.
type AlertSink interface {
	SendAlert(ctx context.Context, templateID, recipient string, data map[string]string) error
}

// Alert template IDs registered with the notification manager.
const (
	TemplateLowStock     = "low-stock-alert"
	TemplateExpiringSoon = "reagents-expiring-soon"
	TemplateExpired      = "expired-reagents"
)

// AlertRecipient is the fixed recipient of inventory alerts.
const AlertRecipient = "Warehouse"

type Service struct {
	repo Repository
	sink AlertSink

	lowStockThreshold float64
	expiryWindowDays  int

	now func() time.Time
}

func NewService(repo Repository, sink AlertSink, lowStockThreshold float64, expiryWindowDays int) *Service {
	return &Service{
		repo:              repo,
		sink:              sink,
		lowStockThreshold: lowStockThreshold,
		expiryWindowDays:  expiryWindowDays,
		now:               time.Now,
	}
}

func (s *Service) CreateReagent(ctx context.Context, rg *Reagent) error {
	if strings.TrimSpace(rg.ReagentName) == "" {
		return validationErr("reagent_name", "is required")
	}
	if strings.TrimSpace(rg.CatalogNumber) == "" {
		return validationErr("catalog_number", "is required")
	}
	if strings.TrimSpace(rg.Unit) == "" {
		return validationErr("unit", "is required")
	}
	// The ledger is owned by supply and usage operations; a reagent always
	// starts empty regardless of what the caller sent.
	rg.Batches = []Batch{}
	rg.Recompute()
	return s.repo.Create(ctx, rg)
}

func (s *Service) GetReagent(ctx context.Context, id uuid.UUID) (*Reagent, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetReagentByIdentity(ctx context.Context, name, catalog string) (*Reagent, error) {
	return s.repo.GetByIdentity(ctx, name, catalog)
}

// UpdateReagent applies descriptive fields only. Identity and the batch
// ledger cannot be edited through reagent CRUD.
func (s *Service) UpdateReagent(ctx context.Context, id uuid.UUID, patch *Reagent) (*Reagent, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Manufacturer != nil {
		existing.Manufacturer = patch.Manufacturer
	}
	if patch.CASNumber != nil {
		existing.CASNumber = patch.CASNumber
	}
	if patch.Description != nil {
		existing.Description = patch.Description
	}
	if strings.TrimSpace(patch.Unit) != "" {
		existing.Unit = patch.Unit
	}
	existing.Recompute()
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *Service) DeleteReagent(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// View is a reagent decorated with its expiry buckets and low-stock flag.
// Listing reads compute views without dispatching anything.
type View struct {
	*Reagent
	Buckets  BatchBuckets `json:"expiry_status"`
	LowStock bool         `json:"low_stock"`
}

// AlertSummary aggregates alert-worthy reagents across a listing or scan.
type AlertSummary struct {
	LowStock     []string `json:"low_stock"`
	ExpiringSoon []string `json:"expiring_soon"`
	Expired      []string `json:"expired"`
}

// Empty reports whether no category has any entries.
func (a AlertSummary) Empty() bool {
	return len(a.LowStock) == 0 && len(a.ExpiringSoon) == 0 && len(a.Expired) == 0
}

func (s *Service) buildView(rg *Reagent, now time.Time) View {
	return View{
		Reagent:  rg,
		Buckets:  rg.ExpiryBuckets(now, s.expiryWindowDays),
		LowStock: rg.QuantityAvailable <= s.lowStockThreshold,
	}
}

func (s *Service) summarize(views []View) AlertSummary {
	var sum AlertSummary
	for _, v := range views {
		if v.LowStock {
			sum.LowStock = append(sum.LowStock, v.ReagentName)
		}
		if len(v.Buckets.ExpiringSoon) > 0 {
			sum.ExpiringSoon = append(sum.ExpiringSoon, v.ReagentName)
		}
		if len(v.Buckets.Expired) > 0 {
			sum.Expired = append(sum.Expired, v.ReagentName)
		}
	}
	return sum
}

// ListReagents returns paginated reagent views plus the alert summary over
// the returned page. It never dispatches notifications.
func (s *Service) ListReagents(ctx context.Context, filter SearchFilter, limit, offset int) ([]View, AlertSummary, int, error) {
	items, total, err := s.repo.Search(ctx, filter, limit, offset)
	if err != nil {
		return nil, AlertSummary{}, 0, err
	}
	now := s.now()
	views := make([]View, len(items))
	for i, rg := range items {
		views[i] = s.buildView(rg, now)
	}
	return views, s.summarize(views), total, nil
}

// BuildAlertReport classifies every reagent without dispatching.
func (s *Service) BuildAlertReport(ctx context.Context) (AlertSummary, error) {
	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return AlertSummary{}, err
	}
	now := s.now()
	views := make([]View, len(items))
	for i, rg := range items {
		views[i] = s.buildView(rg, now)
	}
	return s.summarize(views), nil
}

// RefreshAlerts scans the full inventory and dispatches at most one
// notification per non-empty alert category to the warehouse recipient.
// Returns the summary and how many notifications went out.
func (s *Service) RefreshAlerts(ctx context.Context) (AlertSummary, int, error) {
	sum, err := s.BuildAlertReport(ctx)
	if err != nil {
		return AlertSummary{}, 0, err
	}
	if s.sink == nil {
		return sum, 0, nil
	}

	dispatched := 0
	send := func(templateID string, names []string) error {
		if len(names) == 0 {
			return nil
		}
		err := s.sink.SendAlert(ctx, templateID, AlertRecipient, map[string]string{
			"reagents": strings.Join(names, ", "),
			"count":    strconv.Itoa(len(names)),
		})
		if err != nil {
			return err
		}
		dispatched++
		return nil
	}
	if err := send(TemplateLowStock, sum.LowStock); err != nil {
		return sum, dispatched, err
	}
	if err := send(TemplateExpiringSoon, sum.ExpiringSoon); err != nil {
		return sum, dispatched, err
	}
	if err := send(TemplateExpired, sum.Expired); err != nil {
		return sum, dispatched, err
	}
	return sum, dispatched, nil
}
