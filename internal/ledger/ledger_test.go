package ledger

import (
	"testing"
	"time"

	"tokolaris/backend/internal/domain"
)

func testProducts() map[string]domain.Product {
	return map[string]domain.Product{
		"SKU-MIE-01":  {SKU: "SKU-MIE-01", Name: "Mie Goreng Instan"},
		"SKU-KOPI-01": {SKU: "SKU-KOPI-01", Name: "Kopi Sachet"},
	}
}

func TestValidateAvailabilityEmptyCart(t *testing.T) {
	result := ValidateAvailability(nil, testProducts(), map[string]int{"SKU-MIE-01": 3})
	if !result.Valid || len(result.Errors) != 0 {
		t.Fatalf("empty cart must be valid, got %+v", result)
	}
}

func TestValidateAvailabilityInsufficientStock(t *testing.T) {
	items := []domain.CartItem{{SKU: "SKU-MIE-01", Qty: 10}}
	result := ValidateAvailability(items, testProducts(), map[string]int{"SKU-MIE-01": 5})

	if result.Valid {
		t.Fatalf("expected validation failure")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected exactly one error, got %d", len(result.Errors))
	}
	err := result.Errors[0]
	if err.RequestedQty != 10 || err.AvailableStock != 5 {
		t.Fatalf("expected requested=10 available=5, got %+v", err)
	}
	if err.Name != "Mie Goreng Instan" {
		t.Fatalf("expected product name on error, got %q", err.Name)
	}
}

func TestValidateAvailabilityMissingSKU(t *testing.T) {
	items := []domain.CartItem{{SKU: "SKU-GAIB-01", Qty: 1}}
	result := ValidateAvailability(items, testProducts(), map[string]int{})

	if result.Valid || len(result.Errors) != 1 {
		t.Fatalf("missing sku must fail with one error, got %+v", result)
	}
	if result.Errors[0].AvailableStock != 0 {
		t.Fatalf("missing sku reports zero available, got %d", result.Errors[0].AvailableStock)
	}
}

func TestValidateAvailabilityOneErrorPerFailingLine(t *testing.T) {
	items := []domain.CartItem{
		{SKU: "SKU-MIE-01", Qty: 2},
		{SKU: "SKU-KOPI-01", Qty: 9},
		{SKU: "SKU-GAIB-01", Qty: 1},
	}
	stock := map[string]int{"SKU-MIE-01": 2, "SKU-KOPI-01": 4}

	result := ValidateAvailability(items, testProducts(), stock)
	if result.Valid {
		t.Fatalf("expected failure")
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 errors (kopi, gaib), got %d", len(result.Errors))
	}
}

func TestSimulateReductionConservation(t *testing.T) {
	stock := map[string]int{"SKU-MIE-01": 5, "SKU-KOPI-01": 2}
	items := []domain.CartItem{
		{SKU: "SKU-MIE-01", Qty: 3},
		{SKU: "SKU-KOPI-01", Qty: 7},
		{SKU: "SKU-GAIB-01", Qty: 4},
	}

	after := SimulateReduction(stock, items)

	if after["SKU-MIE-01"] != 2 {
		t.Fatalf("expected 2, got %d", after["SKU-MIE-01"])
	}
	if after["SKU-KOPI-01"] != -5 {
		t.Fatalf("balances may go negative; expected -5, got %d", after["SKU-KOPI-01"])
	}
	if after["SKU-GAIB-01"] != -4 {
		t.Fatalf("missing entries default to zero; expected -4, got %d", after["SKU-GAIB-01"])
	}

	var before, remaining, requested int
	for _, qty := range stock {
		before += qty
	}
	for _, qty := range after {
		remaining += qty
	}
	for _, item := range items {
		requested += item.Qty
	}
	if before-remaining != requested {
		t.Fatalf("conservation violated: before=%d remaining=%d requested=%d", before, remaining, requested)
	}

	if stock["SKU-MIE-01"] != 5 || len(stock) != 2 {
		t.Fatalf("input stock map must not be mutated")
	}
}

func TestDelta(t *testing.T) {
	if Delta(10, domain.MovementIn) != 10 {
		t.Fatalf("in movements add")
	}
	if Delta(10, domain.MovementOut) != -10 {
		t.Fatalf("out movements subtract")
	}
	if Delta(-3, domain.MovementAdjustment) != -3 {
		t.Fatalf("adjustments pass the caller's sign through")
	}
	if Delta(3, domain.MovementAdjustment) != 3 {
		t.Fatalf("positive adjustments add")
	}
}

func TestRunningBalanceLatestFirst(t *testing.T) {
	t1 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(2 * time.Hour)

	movements := []domain.StockMovement{
		{ID: "mv-2", SKU: "p1", Type: domain.MovementOut, Qty: 4, CreatedAt: t2},
		{ID: "mv-1", SKU: "p1", Type: domain.MovementIn, Qty: 10, CreatedAt: t1},
	}

	entries := RunningBalance(movements)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "mv-2" || entries[0].BalanceQty != 6 {
		t.Fatalf("expected latest-first with balance 6, got %+v", entries[0])
	}
	if entries[1].ID != "mv-1" || entries[1].BalanceQty != 10 {
		t.Fatalf("expected oldest entry with balance 10, got %+v", entries[1])
	}
}

func TestRunningBalancePerSKU(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	movements := []domain.StockMovement{
		{ID: "a1", SKU: "a", Type: domain.MovementIn, Qty: 5, CreatedAt: base},
		{ID: "b1", SKU: "b", Type: domain.MovementIn, Qty: 2, CreatedAt: base.Add(time.Minute)},
		{ID: "a2", SKU: "a", Type: domain.MovementAdjustment, Qty: -1, CreatedAt: base.Add(2 * time.Minute)},
	}

	entries := RunningBalance(movements)
	byID := map[string]int{}
	for _, entry := range entries {
		byID[entry.ID] = entry.BalanceQty
	}
	if byID["a1"] != 5 || byID["a2"] != 4 || byID["b1"] != 2 {
		t.Fatalf("per-sku balances wrong: %+v", byID)
	}
}

func TestRunningBalanceStableOnTies(t *testing.T) {
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	movements := []domain.StockMovement{
		{ID: "first", SKU: "a", Type: domain.MovementIn, Qty: 1, CreatedAt: at},
		{ID: "second", SKU: "a", Type: domain.MovementIn, Qty: 1, CreatedAt: at},
		{ID: "third", SKU: "a", Type: domain.MovementIn, Qty: 1, CreatedAt: at},
	}

	entries := RunningBalance(movements)
	// Reversed ascending order: ties keep caller order, so the reversal
	// yields third, second, first.
	if entries[0].ID != "third" || entries[1].ID != "second" || entries[2].ID != "first" {
		t.Fatalf("tie order not stable: %s %s %s", entries[0].ID, entries[1].ID, entries[2].ID)
	}
	if entries[0].BalanceQty != 3 || entries[2].BalanceQty != 1 {
		t.Fatalf("cumulative balances wrong on ties")
	}
}

func TestRunningBalanceDoesNotMutateInput(t *testing.T) {
	t1 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	movements := []domain.StockMovement{
		{ID: "mv-2", SKU: "p1", Type: domain.MovementOut, Qty: 4, CreatedAt: t1.Add(time.Hour)},
		{ID: "mv-1", SKU: "p1", Type: domain.MovementIn, Qty: 10, CreatedAt: t1},
	}

	_ = RunningBalance(movements)
	if movements[0].ID != "mv-2" {
		t.Fatalf("input slice order must be preserved")
	}
}

func TestFilterMovements(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	movements := []domain.StockMovement{
		{ID: "m1", SKU: "a", Type: domain.MovementIn, Qty: 1, CreatedAt: base},
		{ID: "m2", SKU: "b", Type: domain.MovementOut, Qty: 1, CreatedAt: base.AddDate(0, 0, 1)},
		{ID: "m3", SKU: "a", Type: domain.MovementOut, Qty: 1, CreatedAt: base.AddDate(0, 0, 2)},
	}

	all := FilterMovements(movements, Filter{})
	if len(all) != 3 {
		t.Fatalf("absent filters pass everything, got %d", len(all))
	}

	bySKU := FilterMovements(movements, Filter{SKU: "a"})
	if len(bySKU) != 2 {
		t.Fatalf("expected 2 movements for sku a, got %d", len(bySKU))
	}

	outOnly := FilterMovements(movements, Filter{SKU: "a", Type: domain.MovementOut})
	if len(outOnly) != 1 || outOnly[0].ID != "m3" {
		t.Fatalf("filters are conjunctive, got %+v", outOnly)
	}

	start := base.AddDate(0, 0, 1)
	end := base.AddDate(0, 0, 2)
	inRange := FilterMovements(movements, Filter{Start: &start, End: &end})
	if len(inRange) != 2 {
		t.Fatalf("date bounds are inclusive, got %d", len(inRange))
	}
}
