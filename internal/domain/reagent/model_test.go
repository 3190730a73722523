package reagent

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testReagent(batches ...Batch) *Reagent {
	r := &Reagent{
		ReagentName:   "Giemsa Stain",
		CatalogNumber: "GS-100",
		Unit:          "mL",
		Batches:       batches,
	}
	r.Recompute()
	return r
}

// -- Projector --

func TestRecompute_SumsLiveBatches(t *testing.T) {
	r := testReagent(
		Batch{LotNumber: "L1", Quantity: 30, ExpirationDate: date(2026, 12, 1)},
		Batch{LotNumber: "L2", Quantity: 20, ExpirationDate: date(2026, 10, 15)},
		Batch{LotNumber: "L3", Quantity: 0, ExpirationDate: date(2026, 1, 1)},
	)
	if r.QuantityAvailable != 50 {
		t.Errorf("expected quantity 50, got %v", r.QuantityAvailable)
	}
	if r.NearestExpirationDate == nil || !r.NearestExpirationDate.Equal(date(2026, 10, 15)) {
		t.Errorf("expected nearest expiration 2026-10-15, got %v", r.NearestExpirationDate)
	}
}

func TestRecompute_EmptyLedger(t *testing.T) {
	r := testReagent()
	if r.QuantityAvailable != 0 {
		t.Errorf("expected quantity 0, got %v", r.QuantityAvailable)
	}
	if r.NearestExpirationDate != nil {
		t.Errorf("expected nil nearest expiration, got %v", r.NearestExpirationDate)
	}
}

func TestRecompute_IgnoresRetiredBatchExpiration(t *testing.T) {
	// The retired batch expires first but must not drive the aggregate.
	r := testReagent(
		Batch{LotNumber: "L1", Quantity: 0, ExpirationDate: date(2026, 1, 1)},
		Batch{LotNumber: "L2", Quantity: 5, ExpirationDate: date(2026, 6, 1)},
	)
	if r.NearestExpirationDate == nil || !r.NearestExpirationDate.Equal(date(2026, 6, 1)) {
		t.Errorf("expected nearest expiration 2026-06-01, got %v", r.NearestExpirationDate)
	}
}

// -- Ledger mutations --

func TestRemoveBatchBySupplyID(t *testing.T) {
	r := testReagent(
		Batch{LotNumber: "L1", Quantity: 30, SupplyID: "SUP1", ExpirationDate: date(2026, 12, 1)},
		Batch{LotNumber: "L2", Quantity: 20, SupplyID: "SUP2", ExpirationDate: date(2026, 10, 15)},
	)
	qty, ok := r.RemoveBatchBySupplyID("SUP1")
	if !ok || qty != 30 {
		t.Fatalf("expected removal of 30 units, got %v ok=%v", qty, ok)
	}
	if len(r.Batches) != 1 || r.Batches[0].SupplyID != "SUP2" {
		t.Errorf("expected only SUP2 to remain, got %+v", r.Batches)
	}
	if _, ok := r.RemoveBatchBySupplyID("SUP9"); ok {
		t.Error("expected removal of unknown supply to report not found")
	}
}

func TestSubtractFromLot_PrefersSoonestExpiring(t *testing.T) {
	r := testReagent(
		Batch{LotNumber: "L1", Quantity: 40, ExpirationDate: date(2027, 1, 1)},
		Batch{LotNumber: "L1", Quantity: 40, ExpirationDate: date(2026, 6, 1)},
	)
	if err := r.SubtractFromLot("L1", 15); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, b := range r.Batches {
		if b.ExpirationDate.Equal(date(2026, 6, 1)) && b.Quantity != 25 {
			t.Errorf("expected soonest batch drained to 25, got %v", b.Quantity)
		}
		if b.ExpirationDate.Equal(date(2027, 1, 1)) && b.Quantity != 40 {
			t.Errorf("expected later batch untouched, got %v", b.Quantity)
		}
	}
}

func TestSubtractFromLot_SplicesZeroBatch(t *testing.T) {
	r := testReagent(
		Batch{LotNumber: "L1", Quantity: 10, ExpirationDate: date(2026, 6, 1)},
	)
	if err := r.SubtractFromLot("L1", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Batches) != 0 {
		t.Errorf("expected zero batch spliced out, got %+v", r.Batches)
	}
}

func TestSubtractFromLot_Insufficient(t *testing.T) {
	r := testReagent(
		Batch{LotNumber: "L1", Quantity: 5, ExpirationDate: date(2026, 6, 1)},
		Batch{LotNumber: "L1", Quantity: 5, ExpirationDate: date(2026, 7, 1)},
	)
	err := r.SubtractFromLot("L1", 8)
	var insErr *InsufficientBatchQuantityError
	if !errors.As(err, &insErr) {
		t.Fatalf("expected InsufficientBatchQuantityError, got %v", err)
	}
	if insErr.LotNumber != "L1" || insErr.Requested != 8 {
		t.Errorf("unexpected error detail: %+v", insErr)
	}
	if len(insErr.Available) != 2 {
		t.Errorf("expected both live batches in diagnostic, got %d", len(insErr.Available))
	}
	// Nothing mutated.
	if r.Batches[0].Quantity != 5 || r.Batches[1].Quantity != 5 {
		t.Errorf("expected ledger untouched, got %+v", r.Batches)
	}
}

func TestAddToLot(t *testing.T) {
	r := testReagent(
		Batch{LotNumber: "L1", Quantity: 5, ExpirationDate: date(2026, 7, 1)},
		Batch{LotNumber: "L1", Quantity: 5, ExpirationDate: date(2026, 6, 1)},
	)
	if !r.AddToLot("L1", 3) {
		t.Fatal("expected AddToLot to find the lot")
	}
	for _, b := range r.Batches {
		if b.ExpirationDate.Equal(date(2026, 6, 1)) && b.Quantity != 8 {
			t.Errorf("expected soonest batch credited to 8, got %v", b.Quantity)
		}
	}
	if r.AddToLot("L9", 1) {
		t.Error("expected AddToLot to report missing lot")
	}
}

// -- FIFO consumption --

func TestConsume_DrainsOldestFirst(t *testing.T) {
	r := testReagent(
		Batch{LotNumber: "L2", Quantity: 30, ExpirationDate: date(2026, 12, 1), SupplyID: "SUP2"},
		Batch{LotNumber: "L1", Quantity: 20, ExpirationDate: date(2026, 10, 15), SupplyID: "SUP1"},
	)
	breakdown, err := r.Consume(35)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(breakdown) != 2 {
		t.Fatalf("expected 2 consumed batches, got %d", len(breakdown))
	}
	if breakdown[0].LotNumber != "L1" || breakdown[0].Quantity != 20 {
		t.Errorf("expected L1 fully drained first, got %+v", breakdown[0])
	}
	if breakdown[1].LotNumber != "L2" || breakdown[1].Quantity != 15 {
		t.Errorf("expected 15 from L2, got %+v", breakdown[1])
	}
	r.Recompute()
	if r.QuantityAvailable != 15 {
		t.Errorf("expected 15 remaining, got %v", r.QuantityAvailable)
	}
	if len(r.Batches) != 1 || r.Batches[0].LotNumber != "L2" {
		t.Errorf("expected drained batch spliced out, got %+v", r.Batches)
	}
}

func TestConsume_InsufficientTotal(t *testing.T) {
	r := testReagent(
		Batch{LotNumber: "L1", Quantity: 10, ExpirationDate: date(2026, 10, 15)},
	)
	_, err := r.Consume(11)
	var insErr *InsufficientBatchQuantityError
	if !errors.As(err, &insErr) {
		t.Fatalf("expected InsufficientBatchQuantityError, got %v", err)
	}
	if r.Batches[0].Quantity != 10 {
		t.Errorf("expected ledger untouched, got %+v", r.Batches)
	}
}

// -- Expiry buckets --

func TestExpiryBuckets(t *testing.T) {
	now := date(2026, 3, 1)
	r := testReagent(
		Batch{LotNumber: "EXPIRED", Quantity: 5, ExpirationDate: date(2026, 2, 28)},
		Batch{LotNumber: "TODAY", Quantity: 5, ExpirationDate: date(2026, 3, 1)},
		Batch{LotNumber: "DAY30", Quantity: 5, ExpirationDate: date(2026, 3, 31)},
		Batch{LotNumber: "DAY31", Quantity: 5, ExpirationDate: date(2026, 4, 1)},
		Batch{LotNumber: "RETIRED", Quantity: 0, ExpirationDate: date(2026, 2, 1)},
	)
	buckets := r.ExpiryBuckets(now, 30)

	if len(buckets.Expired) != 1 || buckets.Expired[0].LotNumber != "EXPIRED" {
		t.Errorf("expected only EXPIRED in expired bucket, got %+v", buckets.Expired)
	}
	soon := map[string]bool{}
	for _, b := range buckets.ExpiringSoon {
		soon[b.LotNumber] = true
	}
	// Day 30 is inclusive; expiring today counts as expiring soon, not expired.
	if !soon["TODAY"] || !soon["DAY30"] {
		t.Errorf("expected TODAY and DAY30 in expiring-soon bucket, got %+v", buckets.ExpiringSoon)
	}
	if soon["DAY31"] || soon["RETIRED"] {
		t.Errorf("expected DAY31 and RETIRED excluded, got %+v", buckets.ExpiringSoon)
	}
}
