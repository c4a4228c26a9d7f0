package pricing

import (
	"testing"
	"time"

	"tokolaris/backend/internal/domain"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func activePromo(id string, skus ...string) domain.Promo {
	return domain.Promo{
		ID:        id,
		Name:      "Promo " + id,
		StartDate: testNow.AddDate(0, 0, -7),
		EndDate:   testNow.AddDate(0, 0, 7),
		Type:      domain.DiscountPercentage,
		Value:     10,
		SKUs:      skus,
		Active:    true,
	}
}

func TestResolveDiscountBeatsPromo(t *testing.T) {
	discounts := []domain.Discount{
		{ID: "disc-1", SKU: "SKU-MIE-01", Type: domain.DiscountNominal, Value: 500, Active: true},
	}
	promos := []domain.Promo{activePromo("promo-1", "SKU-MIE-01")}

	applied := Resolve("SKU-MIE-01", discounts, promos, testNow)
	if applied.Discount == nil || applied.Discount.ID != "disc-1" {
		t.Fatalf("expected product discount to win, got %+v", applied)
	}
	if applied.Promo != nil {
		t.Fatalf("expected promo to be nil when discount applies")
	}
}

func TestResolveSkipsInactiveDiscount(t *testing.T) {
	discounts := []domain.Discount{
		{ID: "disc-1", SKU: "SKU-MIE-01", Type: domain.DiscountNominal, Value: 500, Active: false},
	}
	promos := []domain.Promo{activePromo("promo-1", "SKU-MIE-01")}

	applied := Resolve("SKU-MIE-01", discounts, promos, testNow)
	if applied.Promo == nil || applied.Promo.ID != "promo-1" {
		t.Fatalf("expected promo fallback, got %+v", applied)
	}
}

func TestResolvePromoWindowInclusive(t *testing.T) {
	promo := activePromo("promo-1", "SKU-MIE-01")

	for _, at := range []time.Time{promo.StartDate, promo.EndDate} {
		applied := Resolve("SKU-MIE-01", nil, []domain.Promo{promo}, at)
		if applied.Promo == nil {
			t.Fatalf("expected promo eligible at boundary %s", at)
		}
	}

	applied := Resolve("SKU-MIE-01", nil, []domain.Promo{promo}, promo.EndDate.Add(time.Nanosecond))
	if !applied.None() {
		t.Fatalf("expected promo expired just after end date")
	}
}

func TestResolvePromoRequiresExplicitSKUList(t *testing.T) {
	promo := activePromo("promo-1")

	applied := Resolve("SKU-MIE-01", nil, []domain.Promo{promo}, testNow)
	if !applied.None() {
		t.Fatalf("promo without sku list must not apply to any product")
	}
}

func TestResolveFirstEligiblePromoWins(t *testing.T) {
	promos := []domain.Promo{
		activePromo("promo-a", "SKU-MIE-01"),
		activePromo("promo-b", "SKU-MIE-01"),
	}

	applied := Resolve("SKU-MIE-01", nil, promos, testNow)
	if applied.Promo == nil || applied.Promo.ID != "promo-a" {
		t.Fatalf("expected first eligible promo in caller order, got %+v", applied)
	}
}

func TestResolveNothingMatches(t *testing.T) {
	applied := Resolve("SKU-MIE-01", nil, nil, testNow)
	if !applied.None() {
		t.Fatalf("expected empty resolution")
	}
	if _, _, ok := applied.Terms(); ok {
		t.Fatalf("expected no terms on empty resolution")
	}
}

func TestPriceUnitPercentage(t *testing.T) {
	unit := PriceUnit(10000, domain.DiscountPercentage, 10)
	if unit.DiscountCents != 1000 {
		t.Fatalf("expected discount 1000, got %d", unit.DiscountCents)
	}
	if unit.FinalCents != 9000 {
		t.Fatalf("expected final 9000, got %d", unit.FinalCents)
	}
	if unit.OriginalCents-unit.FinalCents != unit.DiscountCents {
		t.Fatalf("discount amount must equal original minus final")
	}
}

func TestPriceUnitPercentageRoundsHalfUp(t *testing.T) {
	// 3333 * 15% = 499.95 -> 500; 999 * 5% = 49.95 -> 50.
	cases := []struct {
		price  int64
		pct    int64
		amount int64
	}{
		{3333, 15, 500},
		{999, 5, 50},
		{101, 50, 51},
		{1, 50, 1},
	}
	for _, tc := range cases {
		unit := PriceUnit(tc.price, domain.DiscountPercentage, tc.pct)
		if unit.DiscountCents != tc.amount {
			t.Fatalf("price=%d pct=%d: expected discount %d, got %d", tc.price, tc.pct, tc.amount, unit.DiscountCents)
		}
	}
}

func TestPriceUnitPercentageClamped(t *testing.T) {
	over := PriceUnit(10000, domain.DiscountPercentage, 250)
	if over.DiscountCents != 10000 || over.FinalCents != 0 {
		t.Fatalf("expected full discount for pct > 100, got %+v", over)
	}
	under := PriceUnit(10000, domain.DiscountPercentage, -5)
	if under.DiscountCents != 0 || under.FinalCents != 10000 {
		t.Fatalf("expected no discount for negative pct, got %+v", under)
	}
}

func TestPriceUnitNominal(t *testing.T) {
	unit := PriceUnit(10000, domain.DiscountNominal, 3000)
	if unit.FinalCents != 7000 {
		t.Fatalf("expected final 7000, got %d", unit.FinalCents)
	}
}

func TestPriceUnitNominalClampedToPrice(t *testing.T) {
	unit := PriceUnit(2000, domain.DiscountNominal, 999999)
	if unit.DiscountCents != 2000 || unit.FinalCents != 0 {
		t.Fatalf("expected clamp to price, got %+v", unit)
	}
	if unit.FinalCents < 0 {
		t.Fatalf("final price must never go negative")
	}
}

func TestPriceUnitNegativePriceClampsToZero(t *testing.T) {
	unit := PriceUnit(-500, domain.DiscountPercentage, 50)
	if unit.OriginalCents != 0 || unit.FinalCents != 0 || unit.DiscountCents != 0 {
		t.Fatalf("expected zeroed unit for negative price, got %+v", unit)
	}
}

func testProducts() map[string]domain.Product {
	return map[string]domain.Product{
		"SKU-MIE-01":   {SKU: "SKU-MIE-01", Name: "Mie Goreng Instan", PriceCents: 10000, Active: true},
		"SKU-KOPI-01":  {SKU: "SKU-KOPI-01", Name: "Kopi Sachet", PriceCents: 2600, Active: true},
		"SKU-TELUR-01": {SKU: "SKU-TELUR-01", Name: "Telur 10 Butir", PriceCents: 26500, Active: true},
	}
}

func TestPriceCartNoDiscounts(t *testing.T) {
	items := []domain.CartItem{{SKU: "SKU-MIE-01", Qty: 2}}

	cart := PriceCart(items, testProducts(), nil, nil, testNow)
	if cart.SubtotalCents != 20000 {
		t.Fatalf("expected subtotal 20000, got %d", cart.SubtotalCents)
	}
	if cart.TotalCents != 20000 {
		t.Fatalf("expected total equal subtotal without discounts, got %d", cart.TotalCents)
	}
	if cart.DiscountCents != 0 {
		t.Fatalf("expected zero discount, got %d", cart.DiscountCents)
	}
}

func TestPriceCartTotalsAgreeExactly(t *testing.T) {
	items := []domain.CartItem{
		{SKU: "SKU-MIE-01", Qty: 3},
		{SKU: "SKU-KOPI-01", Qty: 7},
		{SKU: "SKU-TELUR-01", Qty: 2},
	}
	discounts := []domain.Discount{
		{ID: "disc-1", SKU: "SKU-MIE-01", Type: domain.DiscountPercentage, Value: 15, Active: true},
	}
	promos := []domain.Promo{activePromo("promo-1", "SKU-KOPI-01")}

	cart := PriceCart(items, testProducts(), discounts, promos, testNow)

	if cart.TotalCents != cart.SubtotalCents-cart.DiscountCents {
		t.Fatalf("total %d != subtotal %d - discount %d", cart.TotalCents, cart.SubtotalCents, cart.DiscountCents)
	}

	var lineTotals, lineSubtotals, lineDiscounts int64
	for _, line := range cart.Items {
		lineTotals += line.LineTotalCents
		lineSubtotals += line.LineSubtotalCents
		lineDiscounts += line.LineDiscountCents
		if line.LineSubtotalCents != line.UnitPriceCents*int64(line.Qty) {
			t.Fatalf("line subtotal must use original unit price")
		}
	}
	if lineTotals != cart.TotalCents || lineSubtotals != cart.SubtotalCents || lineDiscounts != cart.DiscountCents {
		t.Fatalf("cart aggregates must equal line sums")
	}
}

func TestPriceCartAnnotatesDiscountOrigin(t *testing.T) {
	items := []domain.CartItem{
		{SKU: "SKU-MIE-01", Qty: 1},
		{SKU: "SKU-KOPI-01", Qty: 1},
	}
	discounts := []domain.Discount{
		{ID: "disc-1", SKU: "SKU-MIE-01", Type: domain.DiscountNominal, Value: 1000, Active: true},
	}
	promos := []domain.Promo{activePromo("promo-1", "SKU-KOPI-01")}

	cart := PriceCart(items, testProducts(), discounts, promos, testNow)
	if len(cart.Items) != 2 {
		t.Fatalf("expected 2 priced lines, got %d", len(cart.Items))
	}

	for _, line := range cart.Items {
		switch line.SKU {
		case "SKU-MIE-01":
			if line.Discount == nil || line.Promo != nil {
				t.Fatalf("expected discount-origin line for SKU-MIE-01")
			}
		case "SKU-KOPI-01":
			if line.Promo == nil || line.Discount != nil {
				t.Fatalf("expected promo-origin line for SKU-KOPI-01")
			}
		}
	}
}

func TestPriceCartManualLineDiscount(t *testing.T) {
	items := []domain.CartItem{{SKU: "SKU-MIE-01", Qty: 2, ManualDiscountCents: 1500}}

	cart := PriceCart(items, testProducts(), nil, nil, testNow)
	if cart.DiscountCents != 1500 {
		t.Fatalf("expected manual discount 1500, got %d", cart.DiscountCents)
	}
	if cart.TotalCents != cart.SubtotalCents-cart.DiscountCents {
		t.Fatalf("totals must agree with manual discount applied")
	}

	// Manual discount past the line subtotal clamps; the line never goes negative.
	huge := []domain.CartItem{{SKU: "SKU-KOPI-01", Qty: 1, ManualDiscountCents: 999999}}
	clamped := PriceCart(huge, testProducts(), nil, nil, testNow)
	if clamped.TotalCents != 0 {
		t.Fatalf("expected clamped total 0, got %d", clamped.TotalCents)
	}
}

func TestPriceCartSkipsUnknownAndZeroQty(t *testing.T) {
	items := []domain.CartItem{
		{SKU: "SKU-UNKNOWN", Qty: 5},
		{SKU: "SKU-MIE-01", Qty: 0},
	}
	cart := PriceCart(items, testProducts(), nil, nil, testNow)
	if len(cart.Items) != 0 || cart.TotalCents != 0 {
		t.Fatalf("expected empty pricing result, got %+v", cart)
	}
}

func TestCheckMinimumPurchase(t *testing.T) {
	ungated := CheckMinimumPurchase(100, domain.Promo{})
	if !ungated.Eligible || ungated.RemainingCents != 0 {
		t.Fatalf("promo without minimum must always be eligible")
	}

	gated := domain.Promo{MinPurchaseCents: 50000}

	short := CheckMinimumPurchase(30000, gated)
	if short.Eligible || short.RemainingCents != 20000 {
		t.Fatalf("expected remaining 20000, got %+v", short)
	}

	exact := CheckMinimumPurchase(50000, gated)
	if !exact.Eligible || exact.RemainingCents != 0 {
		t.Fatalf("expected eligibility at exact minimum, got %+v", exact)
	}

	over := CheckMinimumPurchase(80000, gated)
	if !over.Eligible || over.RemainingCents != 0 {
		t.Fatalf("remaining must never go negative, got %+v", over)
	}

	for _, result := range []MinPurchase{ungated, short, exact, over} {
		if result.Eligible != (result.RemainingCents == 0) {
			t.Fatalf("eligible iff remaining is zero, got %+v", result)
		}
	}
}
