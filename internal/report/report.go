package report

import (
	"sort"
	"strconv"

	"tokolaris/backend/internal/domain"
)

type Period string

const (
	PeriodHour Period = "hour"
	PeriodDay  Period = "day"
)

const topProductLimit = 10

// SalesBucket is one period bucket of completed sales. Hour buckets are
// keyed "00".."23", day-of-month buckets "1".."31", both in UTC.
type SalesBucket struct {
	Period       string `json:"period"`
	TotalCents   int64  `json:"total_cents"`
	Transactions int    `json:"transactions"`
}

// GroupSalesByPeriod buckets completed transactions by UTC hour of day or
// day of month, summing totals and counting transactions per bucket. The
// caller is expected to have already filtered to the desired date range and
// outlet; voided transactions are skipped here regardless. Output is sorted
// ascending by the numeric value of the period key.
func GroupSalesByPeriod(transactions []domain.Transaction, period Period) []SalesBucket {
	type bucket struct {
		key   int
		total int64
		count int
	}
	buckets := make(map[int]*bucket, 31)

	for _, tx := range transactions {
		if tx.Status != domain.TxStatusCompleted {
			continue
		}
		at := tx.CreatedAt.UTC()
		key := at.Day()
		if period == PeriodHour {
			key = at.Hour()
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{key: key}
			buckets[key] = b
		}
		b.total += tx.TotalCents
		b.count++
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].key < ordered[j].key })

	result := make([]SalesBucket, 0, len(ordered))
	for _, b := range ordered {
		key := strconv.Itoa(b.key)
		if period == PeriodHour && b.key < 10 {
			key = "0" + key
		}
		result = append(result, SalesBucket{Period: key, TotalCents: b.total, Transactions: b.count})
	}
	return result
}

type TopProduct struct {
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
	RevenueCents int64  `json:"revenue_cents"`
}

// TopProductsByQuantity ranks transaction item rows by total quantity sold,
// descending, truncated to the top 10. Ties break by SKU ascending so the
// ranking never depends on map iteration order.
func TopProductsByQuantity(items []domain.TransactionItem) []TopProduct {
	return topProducts(items, func(a, b TopProduct) bool {
		if a.Quantity == b.Quantity {
			return a.SKU < b.SKU
		}
		return a.Quantity > b.Quantity
	})
}

// TopProductsByRevenue ranks by summed line revenue with the same SKU
// tie-break.
func TopProductsByRevenue(items []domain.TransactionItem) []TopProduct {
	return topProducts(items, func(a, b TopProduct) bool {
		if a.RevenueCents == b.RevenueCents {
			return a.SKU < b.SKU
		}
		return a.RevenueCents > b.RevenueCents
	})
}

func topProducts(items []domain.TransactionItem, less func(a, b TopProduct) bool) []TopProduct {
	bySKU := make(map[string]*TopProduct, len(items))
	for _, item := range items {
		agg, ok := bySKU[item.SKU]
		if !ok {
			agg = &TopProduct{SKU: item.SKU, Name: item.Name}
			bySKU[item.SKU] = agg
		}
		agg.Quantity += item.Qty
		agg.RevenueCents += item.TotalCents
	}

	ranked := make([]TopProduct, 0, len(bySKU))
	for _, agg := range bySKU {
		ranked = append(ranked, *agg)
	}
	sort.Slice(ranked, func(i, j int) bool { return less(ranked[i], ranked[j]) })

	if len(ranked) > topProductLimit {
		ranked = ranked[:topProductLimit]
	}
	return ranked
}

type StockStatus string

const (
	StockLow         StockStatus = "low"
	StockNormal      StockStatus = "normal"
	StockOverstocked StockStatus = "overstocked"
)

// ClassifyStock applies the fixed low/overstocked thresholds: at or below
// the minimum is low, above three times the minimum is overstocked.
func ClassifyStock(currentStock int, minStock int) StockStatus {
	switch {
	case currentStock <= minStock:
		return StockLow
	case currentStock > 3*minStock:
		return StockOverstocked
	default:
		return StockNormal
	}
}

type StockRow struct {
	SKU             string      `json:"sku"`
	Name            string      `json:"name"`
	Category        string      `json:"category"`
	CurrentStock    int         `json:"current_stock"`
	MinStock        int         `json:"min_stock"`
	Status          StockStatus `json:"status"`
	StockValueCents int64       `json:"stock_value_cents"`
}

type StockReport struct {
	Rows                     []StockRow `json:"rows"`
	TotalInventoryValueCents int64      `json:"total_inventory_value_cents"`
	LowStockCount            int        `json:"low_stock_count"`
}

// BuildStockReport classifies every product against the stock snapshot and
// values inventory at the sell price.
func BuildStockReport(products []domain.Product, stock map[string]int) StockReport {
	report := StockReport{Rows: make([]StockRow, 0, len(products))}
	for _, product := range products {
		current := stock[product.SKU]
		row := StockRow{
			SKU:             product.SKU,
			Name:            product.Name,
			Category:        product.Category,
			CurrentStock:    current,
			MinStock:        product.MinStock,
			Status:          ClassifyStock(current, product.MinStock),
			StockValueCents: int64(current) * product.PriceCents,
		}
		report.Rows = append(report.Rows, row)
		report.TotalInventoryValueCents += row.StockValueCents
		if row.Status == StockLow {
			report.LowStockCount++
		}
	}
	return report
}

type StockFilter struct {
	Category string
	Status   StockStatus
}

// FilterStockReport narrows a report and recomputes both aggregates from the
// filtered subset; it never reuses the pre-filter totals.
func FilterStockReport(report StockReport, filter StockFilter) StockReport {
	filtered := StockReport{Rows: make([]StockRow, 0, len(report.Rows))}
	for _, row := range report.Rows {
		if filter.Category != "" && row.Category != filter.Category {
			continue
		}
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		filtered.Rows = append(filtered.Rows, row)
		filtered.TotalInventoryValueCents += row.StockValueCents
		if row.Status == StockLow {
			filtered.LowStockCount++
		}
	}
	return filtered
}
