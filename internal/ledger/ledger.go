package ledger

import (
	"sort"
	"time"

	"tokolaris/backend/internal/domain"
)

// StockError describes one cart line that cannot be fulfilled from the
// supplied stock snapshot.
type StockError struct {
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	RequestedQty   int    `json:"requested_qty"`
	AvailableStock int    `json:"available_stock"`
}

type Validation struct {
	Valid  bool         `json:"valid"`
	Errors []StockError `json:"errors"`
}

// ValidateAvailability checks every cart line against a stock snapshot and
// emits at most one error per line: either the SKU is absent from the stock
// map (available 0) or the requested quantity exceeds what is available.
// An empty cart is trivially valid. The products map only supplies display
// names; a missing product does not by itself fail validation.
func ValidateAvailability(items []domain.CartItem, products map[string]domain.Product, stock map[string]int) Validation {
	result := Validation{Valid: true, Errors: []StockError{}}

	for _, item := range items {
		available, known := stock[item.SKU]
		if known && item.Qty <= available {
			continue
		}
		if !known {
			available = 0
		}
		result.Errors = append(result.Errors, StockError{
			SKU:            item.SKU,
			Name:           products[item.SKU].Name,
			RequestedQty:   item.Qty,
			AvailableStock: available,
		})
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// SimulateReduction returns a copy of the stock snapshot with every cart
// line's quantity subtracted. Missing SKUs start at zero and balances may go
// negative: gating belongs to ValidateAvailability, which callers run first
// when oversell must be rejected. The input map is never mutated.
func SimulateReduction(stock map[string]int, items []domain.CartItem) map[string]int {
	result := make(map[string]int, len(stock)+len(items))
	for sku, qty := range stock {
		result[sku] = qty
	}
	for _, item := range items {
		result[item.SKU] -= item.Qty
	}
	return result
}

// Delta maps a movement to its signed stock effect. Adjustment quantities
// already carry the caller's sign and pass through unchanged.
func Delta(qty int, movementType domain.MovementType) int {
	switch movementType {
	case domain.MovementOut:
		return -qty
	default:
		// in and adjustment
		return qty
	}
}

// Entry is a movement annotated with the post-movement running balance for
// its SKU. The balance is derived on every call, never stored.
type Entry struct {
	domain.StockMovement
	BalanceQty int `json:"balance_qty"`
}

// RunningBalance computes per-SKU running balances over the given window and
// returns the annotated movements latest-first.
//
// Movements are stably sorted ascending by timestamp (ties keep caller
// order), each SKU accumulates from a zero baseline, and the sorted list is
// then reversed. Because the baseline is zero, callers passing partial
// history get balances relative to that window, not absolute stock levels.
func RunningBalance(movements []domain.StockMovement) []Entry {
	ordered := make([]domain.StockMovement, len(movements))
	copy(ordered, movements)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	balances := make(map[string]int, 8)
	entries := make([]Entry, len(ordered))
	for i, movement := range ordered {
		balances[movement.SKU] += Delta(movement.Qty, movement.Type)
		entries[i] = Entry{StockMovement: movement, BalanceQty: balances[movement.SKU]}
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries
}

// Filter selects movements; every set field is a conjunctive predicate and
// date bounds are inclusive.
type Filter struct {
	Start *time.Time
	End   *time.Time
	SKU   string
	Type  domain.MovementType
}

func FilterMovements(movements []domain.StockMovement, filter Filter) []domain.StockMovement {
	result := make([]domain.StockMovement, 0, len(movements))
	for _, movement := range movements {
		if filter.Start != nil && movement.CreatedAt.Before(*filter.Start) {
			continue
		}
		if filter.End != nil && movement.CreatedAt.After(*filter.End) {
			continue
		}
		if filter.SKU != "" && movement.SKU != filter.SKU {
			continue
		}
		if filter.Type != "" && movement.Type != filter.Type {
			continue
		}
		result = append(result, movement)
	}
	return result
}
