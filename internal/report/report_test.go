package report

import (
	"testing"
	"time"

	"tokolaris/backend/internal/domain"
)

func completedTx(id string, at time.Time, total int64) domain.Transaction {
	return domain.Transaction{ID: id, Status: domain.TxStatusCompleted, TotalCents: total, CreatedAt: at}
}

func TestGroupSalesByPeriodHour(t *testing.T) {
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		completedTx("t1", day.Add(9*time.Hour), 5000),
		completedTx("t2", day.Add(9*time.Hour+30*time.Minute), 3000),
		completedTx("t3", day.Add(14*time.Hour), 7000),
		{ID: "void", Status: domain.TxStatusVoided, TotalCents: 9999, CreatedAt: day.Add(9 * time.Hour)},
	}

	buckets := GroupSalesByPeriod(txs, PeriodHour)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Period != "09" || buckets[0].TotalCents != 8000 || buckets[0].Transactions != 2 {
		t.Fatalf("unexpected first bucket: %+v", buckets[0])
	}
	if buckets[1].Period != "14" || buckets[1].TotalCents != 7000 {
		t.Fatalf("unexpected second bucket: %+v", buckets[1])
	}
}

func TestGroupSalesByPeriodDaySortsNumerically(t *testing.T) {
	month := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		completedTx("t1", month.AddDate(0, 0, 20), 1000),
		completedTx("t2", month.AddDate(0, 0, 2), 2000),
		completedTx("t3", month.AddDate(0, 0, 11), 3000),
	}

	buckets := GroupSalesByPeriod(txs, PeriodDay)
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}
	if buckets[0].Period != "3" || buckets[1].Period != "12" || buckets[2].Period != "21" {
		t.Fatalf("expected numeric ascending day keys, got %s %s %s", buckets[0].Period, buckets[1].Period, buckets[2].Period)
	}
}

func TestGroupSalesByPeriodEmpty(t *testing.T) {
	if buckets := GroupSalesByPeriod(nil, PeriodHour); len(buckets) != 0 {
		t.Fatalf("expected no buckets, got %d", len(buckets))
	}
}

func itemRow(sku string, qty int, total int64) domain.TransactionItem {
	return domain.TransactionItem{SKU: sku, Name: "Produk " + sku, Qty: qty, TotalCents: total}
}

func TestTopProductsByQuantity(t *testing.T) {
	items := []domain.TransactionItem{
		itemRow("a", 3, 300),
		itemRow("b", 5, 100),
		itemRow("a", 4, 400),
	}

	top := TopProductsByQuantity(items)
	if len(top) != 2 {
		t.Fatalf("expected 2 ranked products, got %d", len(top))
	}
	if top[0].SKU != "a" || top[0].Quantity != 7 || top[0].RevenueCents != 700 {
		t.Fatalf("unexpected leader: %+v", top[0])
	}
	if top[1].SKU != "b" {
		t.Fatalf("expected b second, got %+v", top[1])
	}
}

func TestTopProductsByRevenueTieBreaksBySKU(t *testing.T) {
	items := []domain.TransactionItem{
		itemRow("zulu", 1, 500),
		itemRow("alpha", 1, 500),
		itemRow("mike", 1, 900),
	}

	top := TopProductsByRevenue(items)
	if top[0].SKU != "mike" {
		t.Fatalf("expected mike first, got %s", top[0].SKU)
	}
	if top[1].SKU != "alpha" || top[2].SKU != "zulu" {
		t.Fatalf("ties must break by sku ascending, got %s then %s", top[1].SKU, top[2].SKU)
	}
}

func TestTopProductsTruncatesToTen(t *testing.T) {
	items := make([]domain.TransactionItem, 0, 15)
	for i := 0; i < 15; i++ {
		items = append(items, itemRow(string(rune('a'+i)), i+1, int64(i+1)))
	}

	top := TopProductsByQuantity(items)
	if len(top) != 10 {
		t.Fatalf("expected top 10, got %d", len(top))
	}
	if top[0].Quantity != 15 {
		t.Fatalf("expected highest quantity first, got %d", top[0].Quantity)
	}
}

func TestClassifyStockBoundaries(t *testing.T) {
	cases := []struct {
		current int
		min     int
		status  StockStatus
	}{
		{0, 10, StockLow},
		{10, 10, StockLow},
		{11, 10, StockNormal},
		{30, 10, StockNormal},
		{31, 10, StockOverstocked},
		{5, 0, StockOverstocked},
		{0, 0, StockLow},
	}
	for _, tc := range cases {
		if got := ClassifyStock(tc.current, tc.min); got != tc.status {
			t.Fatalf("current=%d min=%d: expected %s, got %s", tc.current, tc.min, tc.status, got)
		}
	}
}

func stockReportFixture() ([]domain.Product, map[string]int) {
	products := []domain.Product{
		{SKU: "a", Name: "A", Category: "grocery", PriceCents: 100, MinStock: 10, Active: true},
		{SKU: "b", Name: "B", Category: "snack", PriceCents: 200, MinStock: 10, Active: true},
		{SKU: "c", Name: "C", Category: "grocery", PriceCents: 50, MinStock: 10, Active: true},
	}
	stock := map[string]int{"a": 5, "b": 20, "c": 40}
	return products, stock
}

func TestBuildStockReport(t *testing.T) {
	products, stock := stockReportFixture()

	rep := BuildStockReport(products, stock)
	if len(rep.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rep.Rows))
	}
	if rep.TotalInventoryValueCents != 5*100+20*200+40*50 {
		t.Fatalf("unexpected inventory value %d", rep.TotalInventoryValueCents)
	}
	if rep.LowStockCount != 1 {
		t.Fatalf("expected 1 low-stock product, got %d", rep.LowStockCount)
	}

	statuses := map[string]StockStatus{}
	for _, row := range rep.Rows {
		statuses[row.SKU] = row.Status
	}
	if statuses["a"] != StockLow || statuses["b"] != StockNormal || statuses["c"] != StockOverstocked {
		t.Fatalf("unexpected statuses: %+v", statuses)
	}
}

func TestFilterStockReportRecomputesAggregates(t *testing.T) {
	products, stock := stockReportFixture()
	rep := BuildStockReport(products, stock)

	grocery := FilterStockReport(rep, StockFilter{Category: "grocery"})
	if len(grocery.Rows) != 2 {
		t.Fatalf("expected 2 grocery rows, got %d", len(grocery.Rows))
	}
	if grocery.TotalInventoryValueCents != 5*100+40*50 {
		t.Fatalf("aggregates must come from the filtered subset, got %d", grocery.TotalInventoryValueCents)
	}
	if grocery.LowStockCount != 1 {
		t.Fatalf("expected 1 low row after filter, got %d", grocery.LowStockCount)
	}

	low := FilterStockReport(rep, StockFilter{Status: StockLow})
	if len(low.Rows) != 1 || low.Rows[0].SKU != "a" {
		t.Fatalf("expected only the low row, got %+v", low.Rows)
	}

	both := FilterStockReport(rep, StockFilter{Category: "snack", Status: StockLow})
	if len(both.Rows) != 0 || both.TotalInventoryValueCents != 0 || both.LowStockCount != 0 {
		t.Fatalf("conjunctive filters with no match must zero the aggregates")
	}
}
