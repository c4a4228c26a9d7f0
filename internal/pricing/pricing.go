package pricing

import (
	"math"
	"time"

	"tokolaris/backend/internal/domain"
)

// Applied is the result of discount resolution for one product: at most one
// of Discount and Promo is set. Downstream code branches on which field is
// non-nil instead of sniffing id prefixes, so a promo-origin reduction can
// never be persisted as a discount_id.
type Applied struct {
	Discount *domain.Discount
	Promo    *domain.Promo
}

func (a Applied) None() bool {
	return a.Discount == nil && a.Promo == nil
}

// Terms returns the uniform (type, value) pair the calculator prices with,
// regardless of whether a discount or a promo was selected.
func (a Applied) Terms() (domain.DiscountType, int64, bool) {
	switch {
	case a.Discount != nil:
		return a.Discount.Type, a.Discount.Value, true
	case a.Promo != nil:
		return a.Promo.Type, a.Promo.Value, true
	default:
		return "", 0, false
	}
}

// Resolve picks the single price reduction that applies to a product.
// An active product discount always wins over any promo. Otherwise the first
// promo in caller order that is active, whose window contains now (inclusive
// on both ends), and that lists the SKU explicitly, is selected. Absence of
// a match is a normal outcome, not an error.
//
// Callers are expected to keep at most one active discount per SKU; when
// handed violating data the resolver still returns deterministically (first
// active match in caller order).
func Resolve(sku string, discounts []domain.Discount, promos []domain.Promo, now time.Time) Applied {
	for i := range discounts {
		if discounts[i].Active && discounts[i].SKU == sku {
			return Applied{Discount: &discounts[i]}
		}
	}

	for i := range promos {
		if promoEligible(promos[i], sku, now) {
			return Applied{Promo: &promos[i]}
		}
	}

	return Applied{}
}

func promoEligible(promo domain.Promo, sku string, now time.Time) bool {
	if !promo.Active {
		return false
	}
	if now.Before(promo.StartDate) || now.After(promo.EndDate) {
		return false
	}
	for _, candidate := range promo.SKUs {
		if candidate == sku {
			return true
		}
	}
	return false
}

// UnitPrice is the priced breakdown of a single unit.
type UnitPrice struct {
	OriginalCents int64               `json:"original_cents"`
	DiscountCents int64               `json:"discount_cents"`
	FinalCents    int64               `json:"final_cents"`
	Type          domain.DiscountType `json:"type,omitempty"`
	Value         int64               `json:"value,omitempty"`
}

// PriceUnit applies one discount to one unit price. Malformed inputs are
// clamped rather than rejected: percentages to [0,100], nominal amounts to
// [0,price], negative prices to zero. FinalCents is never negative.
func PriceUnit(priceCents int64, dtype domain.DiscountType, value int64) UnitPrice {
	if priceCents < 0 {
		priceCents = 0
	}

	var amount int64
	switch dtype {
	case domain.DiscountPercentage:
		pct := value
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		amount = int64(math.Round(float64(priceCents) * float64(pct) / 100))
	case domain.DiscountNominal:
		amount = value
		if amount < 0 {
			amount = 0
		}
		if amount > priceCents {
			amount = priceCents
		}
	}

	return UnitPrice{
		OriginalCents: priceCents,
		DiscountCents: amount,
		FinalCents:    priceCents - amount,
		Type:          dtype,
		Value:         value,
	}
}

// PricedItem is one cart line after resolution and pricing.
type PricedItem struct {
	SKU               string           `json:"sku"`
	Name              string           `json:"name"`
	Qty               int              `json:"qty"`
	UnitPriceCents    int64            `json:"unit_price_cents"`
	UnitDiscountCents int64            `json:"unit_discount_cents"`
	UnitFinalCents    int64            `json:"unit_final_cents"`
	LineSubtotalCents int64            `json:"line_subtotal_cents"`
	LineDiscountCents int64            `json:"line_discount_cents"`
	LineTotalCents    int64            `json:"line_total_cents"`
	Discount          *domain.Discount `json:"discount,omitempty"`
	Promo             *domain.Promo    `json:"promo,omitempty"`
}

type CartPricing struct {
	Items         []PricedItem `json:"items"`
	SubtotalCents int64        `json:"subtotal_cents"`
	DiscountCents int64        `json:"discount_cents"`
	TotalCents    int64        `json:"total_cents"`
}

// PriceCart resolves and prices every line. Subtotal always sums original
// unit prices; TotalCents == SubtotalCents - DiscountCents holds exactly.
// Lines whose SKU is missing from products are skipped (availability is the
// ledger's concern, not the calculator's).
func PriceCart(items []domain.CartItem, products map[string]domain.Product, discounts []domain.Discount, promos []domain.Promo, now time.Time) CartPricing {
	result := CartPricing{Items: make([]PricedItem, 0, len(items))}

	for _, item := range items {
		product, ok := products[item.SKU]
		if !ok || item.Qty < 1 {
			continue
		}

		applied := Resolve(item.SKU, discounts, promos, now)
		unit := UnitPrice{OriginalCents: product.PriceCents, FinalCents: product.PriceCents}
		if dtype, value, ok := applied.Terms(); ok {
			unit = PriceUnit(product.PriceCents, dtype, value)
		}

		lineSubtotal := unit.OriginalCents * int64(item.Qty)
		lineDiscount := unit.DiscountCents * int64(item.Qty)

		// Legacy ad-hoc line discount, additive on top of the resolved one
		// but never past the line subtotal.
		manual := item.ManualDiscountCents
		if manual < 0 {
			manual = 0
		}
		if manual > lineSubtotal-lineDiscount {
			manual = lineSubtotal - lineDiscount
		}
		lineDiscount += manual

		priced := PricedItem{
			SKU:               item.SKU,
			Name:              product.Name,
			Qty:               item.Qty,
			UnitPriceCents:    unit.OriginalCents,
			UnitDiscountCents: unit.DiscountCents,
			UnitFinalCents:    unit.FinalCents,
			LineSubtotalCents: lineSubtotal,
			LineDiscountCents: lineDiscount,
			LineTotalCents:    lineSubtotal - lineDiscount,
			Discount:          applied.Discount,
			Promo:             applied.Promo,
		}

		result.Items = append(result.Items, priced)
		result.SubtotalCents += priced.LineSubtotalCents
		result.DiscountCents += priced.LineDiscountCents
		result.TotalCents += priced.LineTotalCents
	}

	return result
}

// MinPurchase reports whether a cart total clears a promo's minimum-purchase
// gate. RemainingCents is how much more the cart needs, never negative.
type MinPurchase struct {
	Eligible       bool  `json:"eligible"`
	RemainingCents int64 `json:"remaining_cents"`
}

// CheckMinimumPurchase treats a promo without a positive MinPurchaseCents as
// ungated: always eligible with zero remaining.
func CheckMinimumPurchase(cartTotalCents int64, promo domain.Promo) MinPurchase {
	if promo.MinPurchaseCents < 1 {
		return MinPurchase{Eligible: true}
	}
	if cartTotalCents >= promo.MinPurchaseCents {
		return MinPurchase{Eligible: true}
	}
	return MinPurchase{RemainingCents: promo.MinPurchaseCents - cartTotalCents}
}
