package reagent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockReagentRepo struct {
	store map[uuid.UUID]*Reagent
}

func newMockReagentRepo() *mockReagentRepo {
	return &mockReagentRepo{store: make(map[uuid.UUID]*Reagent)}
}

func (m *mockReagentRepo) Create(_ context.Context, r *Reagent) error {
	for _, ex := range m.store {
		if ex.ReagentName == r.ReagentName && ex.CatalogNumber == r.CatalogNumber {
			return ErrDuplicateIdentity
		}
	}
	r.ID = uuid.New()
	m.store[r.ID] = r
	return nil
}

func (m *mockReagentRepo) GetByID(_ context.Context, id uuid.UUID) (*Reagent, error) {
	r, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

func (m *mockReagentRepo) GetByIdentity(_ context.Context, name, catalog string) (*Reagent, error) {
	for _, r := range m.store {
		if r.ReagentName == name && r.CatalogNumber == catalog {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockReagentRepo) Update(_ context.Context, r *Reagent) error {
	if _, ok := m.store[r.ID]; !ok {
		return ErrNotFound
	}
	m.store[r.ID] = r
	return nil
}

func (m *mockReagentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *mockReagentRepo) Search(_ context.Context, _ SearchFilter, limit, offset int) ([]*Reagent, int, error) {
	var r []*Reagent
	for _, rg := range m.store {
		r = append(r, rg)
	}
	return r, len(r), nil
}

func (m *mockReagentRepo) ListAll(_ context.Context) ([]*Reagent, error) {
	var r []*Reagent
	for _, rg := range m.store {
		r = append(r, rg)
	}
	return r, nil
}

// -- Mock Alert Sink --

type sentAlert struct {
	TemplateID string
	Recipient  string
	Data       map[string]string
}

type mockAlertSink struct {
	sent []sentAlert
	err  error
}

func (m *mockAlertSink) SendAlert(_ context.Context, templateID, recipient string, data map[string]string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentAlert{TemplateID: templateID, Recipient: recipient, Data: data})
	return nil
}

func newTestService(repo *mockReagentRepo, sink *mockAlertSink) *Service {
	svc := NewService(repo, sink, 10, 30)
	svc.now = func() time.Time { return date(2026, 3, 1) }
	return svc
}

// -- CRUD --

func TestCreateReagent_Success(t *testing.T) {
	svc := newTestService(newMockReagentRepo(), nil)
	rg := &Reagent{ReagentName: "Giemsa Stain", CatalogNumber: "GS-100", Unit: "mL"}
	if err := svc.CreateReagent(context.Background(), rg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rg.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if rg.QuantityAvailable != 0 || len(rg.Batches) != 0 {
		t.Errorf("expected reagent to start empty, got qty=%v batches=%d", rg.QuantityAvailable, len(rg.Batches))
	}
}

func TestCreateReagent_IgnoresClientLedger(t *testing.T) {
	svc := newTestService(newMockReagentRepo(), nil)
	rg := &Reagent{
		ReagentName:   "Giemsa Stain",
		CatalogNumber: "GS-100",
		Unit:          "mL",
		Batches:       []Batch{{LotNumber: "L1", Quantity: 99, ExpirationDate: date(2027, 1, 1)}},
	}
	if err := svc.CreateReagent(context.Background(), rg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rg.Batches) != 0 || rg.QuantityAvailable != 0 {
		t.Errorf("expected client-sent batches discarded, got %+v", rg.Batches)
	}
}

func TestCreateReagent_Validation(t *testing.T) {
	svc := newTestService(newMockReagentRepo(), nil)
	cases := []struct {
		name  string
		rg    Reagent
		field string
	}{
		{"missing name", Reagent{CatalogNumber: "GS-100", Unit: "mL"}, "reagent_name"},
		{"missing catalog", Reagent{ReagentName: "Giemsa", Unit: "mL"}, "catalog_number"},
		{"missing unit", Reagent{ReagentName: "Giemsa", CatalogNumber: "GS-100"}, "unit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.CreateReagent(context.Background(), &tc.rg)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, ve.Field)
			}
		})
	}
}

func TestCreateReagent_DuplicateIdentity(t *testing.T) {
	repo := newMockReagentRepo()
	svc := newTestService(repo, nil)
	first := &Reagent{ReagentName: "Giemsa", CatalogNumber: "GS-100", Unit: "mL"}
	if err := svc.CreateReagent(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dup := &Reagent{ReagentName: "Giemsa", CatalogNumber: "GS-100", Unit: "mL"}
	if err := svc.CreateReagent(context.Background(), dup); !errors.Is(err, ErrDuplicateIdentity) {
		t.Errorf("expected ErrDuplicateIdentity, got %v", err)
	}
}

func TestUpdateReagent_PreservesLedger(t *testing.T) {
	repo := newMockReagentRepo()
	svc := newTestService(repo, nil)
	rg := &Reagent{ReagentName: "Giemsa", CatalogNumber: "GS-100", Unit: "mL"}
	if err := svc.CreateReagent(context.Background(), rg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rg.Batches = []Batch{{LotNumber: "L1", Quantity: 25, ExpirationDate: date(2026, 10, 1)}}
	rg.Recompute()

	mfr := "Sigma-Aldrich"
	updated, err := svc.UpdateReagent(context.Background(), rg.ID, &Reagent{Manufacturer: &mfr})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Manufacturer == nil || *updated.Manufacturer != "Sigma-Aldrich" {
		t.Errorf("expected manufacturer updated, got %v", updated.Manufacturer)
	}
	if updated.QuantityAvailable != 25 || len(updated.Batches) != 1 {
		t.Errorf("expected ledger untouched, got qty=%v batches=%d", updated.QuantityAvailable, len(updated.Batches))
	}
}

func TestDeleteReagent_NotFound(t *testing.T) {
	svc := newTestService(newMockReagentRepo(), nil)
	if err := svc.DeleteReagent(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// -- Alert classification and dispatch --

func seedInventory(t *testing.T, svc *Service, repo *mockReagentRepo) {
	t.Helper()
	// Healthy: high stock, far expiry.
	healthy := &Reagent{ReagentName: "Saline", CatalogNumber: "SA-1", Unit: "L"}
	if err := svc.CreateReagent(context.Background(), healthy); err != nil {
		t.Fatal(err)
	}
	healthy.Batches = []Batch{{LotNumber: "H1", Quantity: 100, ExpirationDate: date(2027, 1, 1)}}
	healthy.Recompute()

	// Low stock only.
	low := &Reagent{ReagentName: "Eosin", CatalogNumber: "EO-1", Unit: "mL"}
	if err := svc.CreateReagent(context.Background(), low); err != nil {
		t.Fatal(err)
	}
	low.Batches = []Batch{{LotNumber: "LO1", Quantity: 10, ExpirationDate: date(2027, 1, 1)}}
	low.Recompute()

	// Expiring soon, not low.
	soon := &Reagent{ReagentName: "Giemsa", CatalogNumber: "GS-100", Unit: "mL"}
	if err := svc.CreateReagent(context.Background(), soon); err != nil {
		t.Fatal(err)
	}
	soon.Batches = []Batch{{LotNumber: "S1", Quantity: 50, ExpirationDate: date(2026, 3, 20)}}
	soon.Recompute()

	// Expired batch present.
	expired := &Reagent{ReagentName: "Methanol", CatalogNumber: "ME-1", Unit: "L"}
	if err := svc.CreateReagent(context.Background(), expired); err != nil {
		t.Fatal(err)
	}
	expired.Batches = []Batch{
		{LotNumber: "X1", Quantity: 40, ExpirationDate: date(2026, 1, 15)},
		{LotNumber: "X2", Quantity: 60, ExpirationDate: date(2027, 1, 1)},
	}
	expired.Recompute()
}

func TestBuildAlertReport(t *testing.T) {
	repo := newMockReagentRepo()
	svc := newTestService(repo, nil)
	seedInventory(t, svc, repo)

	sum, err := svc.BuildAlertReport(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sum.LowStock) != 1 || sum.LowStock[0] != "Eosin" {
		t.Errorf("expected low stock [Eosin], got %v", sum.LowStock)
	}
	if len(sum.ExpiringSoon) != 1 || sum.ExpiringSoon[0] != "Giemsa" {
		t.Errorf("expected expiring soon [Giemsa], got %v", sum.ExpiringSoon)
	}
	if len(sum.Expired) != 1 || sum.Expired[0] != "Methanol" {
		t.Errorf("expected expired [Methanol], got %v", sum.Expired)
	}
}

func TestRefreshAlerts_OneNotificationPerCategory(t *testing.T) {
	repo := newMockReagentRepo()
	sink := &mockAlertSink{}
	svc := newTestService(repo, sink)
	seedInventory(t, svc, repo)

	_, dispatched, err := svc.RefreshAlerts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dispatched != 3 || len(sink.sent) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(sink.sent))
	}
	templates := map[string]sentAlert{}
	for _, a := range sink.sent {
		templates[a.TemplateID] = a
		if a.Recipient != AlertRecipient {
			t.Errorf("expected recipient %q, got %q", AlertRecipient, a.Recipient)
		}
	}
	if templates[TemplateLowStock].Data["reagents"] != "Eosin" {
		t.Errorf("unexpected low stock payload: %+v", templates[TemplateLowStock].Data)
	}
	if templates[TemplateExpired].Data["reagents"] != "Methanol" {
		t.Errorf("unexpected expired payload: %+v", templates[TemplateExpired].Data)
	}
}

func TestRefreshAlerts_NoAlertsNoDispatch(t *testing.T) {
	repo := newMockReagentRepo()
	sink := &mockAlertSink{}
	svc := newTestService(repo, sink)

	healthy := &Reagent{ReagentName: "Saline", CatalogNumber: "SA-1", Unit: "L"}
	if err := svc.CreateReagent(context.Background(), healthy); err != nil {
		t.Fatal(err)
	}
	healthy.Batches = []Batch{{LotNumber: "H1", Quantity: 100, ExpirationDate: date(2027, 1, 1)}}
	healthy.Recompute()

	_, dispatched, err := svc.RefreshAlerts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dispatched != 0 || len(sink.sent) != 0 {
		t.Errorf("expected no notifications, got %d", len(sink.sent))
	}
}

func TestListReagents_PureRead(t *testing.T) {
	repo := newMockReagentRepo()
	sink := &mockAlertSink{}
	svc := newTestService(repo, sink)
	seedInventory(t, svc, repo)

	views, sum, total, err := svc.ListReagents(context.Background(), SearchFilter{}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 4 || len(views) != 4 {
		t.Fatalf("expected 4 reagents, got %d", len(views))
	}
	if sum.Empty() {
		t.Error("expected a non-empty alert summary")
	}
	if len(sink.sent) != 0 {
		t.Errorf("listing must not dispatch notifications, got %d", len(sink.sent))
	}
}

func TestLowStockThresholdBoundary(t *testing.T) {
	repo := newMockReagentRepo()
	svc := newTestService(repo, nil)

	at := &Reagent{ReagentName: "AtThreshold", CatalogNumber: "AT-1", Unit: "mL"}
	if err := svc.CreateReagent(context.Background(), at); err != nil {
		t.Fatal(err)
	}
	at.Batches = []Batch{{LotNumber: "A1", Quantity: 10, ExpirationDate: date(2027, 1, 1)}}
	at.Recompute()

	above := &Reagent{ReagentName: "Above", CatalogNumber: "AB-1", Unit: "mL"}
	if err := svc.CreateReagent(context.Background(), above); err != nil {
		t.Fatal(err)
	}
	above.Batches = []Batch{{LotNumber: "B1", Quantity: 10.5, ExpirationDate: date(2027, 1, 1)}}
	above.Recompute()

	sum, err := svc.BuildAlertReport(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sum.LowStock) != 1 || sum.LowStock[0] != "AtThreshold" {
		t.Errorf("expected exactly AtThreshold low (<= is inclusive), got %v", sum.LowStock)
	}
}
