package report

import (
	"sort"
	"time"

	"tokolaris/backend/internal/domain"
)

const recentTransactionLimit = 5

// Windows holds the UTC date-window boundaries the dashboard compares.
// Every bound is inclusive; End fields are the last nanosecond of their
// window. Weeks start on Monday.
type Windows struct {
	TodayStart     time.Time `json:"today_start"`
	TodayEnd       time.Time `json:"today_end"`
	YesterdayStart time.Time `json:"yesterday_start"`
	YesterdayEnd   time.Time `json:"yesterday_end"`
	WeekStart      time.Time `json:"week_start"`
	WeekEnd        time.Time `json:"week_end"`
	LastWeekStart  time.Time `json:"last_week_start"`
	LastWeekEnd    time.Time `json:"last_week_end"`
}

// WindowsFor derives all dashboard windows from an explicit clock reading so
// results stay reproducible. Sunday counts as the seventh day of the current
// week when computing days since Monday.
func WindowsFor(now time.Time) Windows {
	now = now.UTC()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	daysToMonday := int(now.Weekday()) - 1
	if now.Weekday() == time.Sunday {
		daysToMonday = 6
	}
	weekStart := todayStart.AddDate(0, 0, -daysToMonday)

	return Windows{
		TodayStart:     todayStart,
		TodayEnd:       endOfDay(todayStart),
		YesterdayStart: todayStart.AddDate(0, 0, -1),
		YesterdayEnd:   endOfDay(todayStart.AddDate(0, 0, -1)),
		WeekStart:      weekStart,
		WeekEnd:        endOfDay(weekStart.AddDate(0, 0, 6)),
		LastWeekStart:  weekStart.AddDate(0, 0, -7),
		LastWeekEnd:    endOfDay(weekStart.AddDate(0, 0, -1)),
	}
}

func endOfDay(dayStart time.Time) time.Time {
	return dayStart.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

type WindowSummary struct {
	SalesCents   int64 `json:"sales_cents"`
	Transactions int   `json:"transactions"`
}

type Dashboard struct {
	Today              WindowSummary        `json:"today"`
	Yesterday          WindowSummary        `json:"yesterday"`
	ThisWeek           WindowSummary        `json:"this_week"`
	LastWeek           WindowSummary        `json:"last_week"`
	LowStockCount      int                  `json:"low_stock_count"`
	RecentTransactions []domain.Transaction `json:"recent_transactions"`
}

// BuildDashboard aggregates completed transactions into the four comparison
// windows, counts active products at or below their minimum stock, and picks
// up to five most-recent completed transactions, newest first.
func BuildDashboard(transactions []domain.Transaction, products []domain.Product, stock map[string]int, windows Windows) Dashboard {
	dashboard := Dashboard{}

	completed := make([]domain.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx.Status != domain.TxStatusCompleted {
			continue
		}
		completed = append(completed, tx)

		at := tx.CreatedAt.UTC()
		accumulate(&dashboard.Today, tx, at, windows.TodayStart, windows.TodayEnd)
		accumulate(&dashboard.Yesterday, tx, at, windows.YesterdayStart, windows.YesterdayEnd)
		accumulate(&dashboard.ThisWeek, tx, at, windows.WeekStart, windows.WeekEnd)
		accumulate(&dashboard.LastWeek, tx, at, windows.LastWeekStart, windows.LastWeekEnd)
	}

	for _, product := range products {
		if !product.Active {
			continue
		}
		if ClassifyStock(stock[product.SKU], product.MinStock) == StockLow {
			dashboard.LowStockCount++
		}
	}

	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].CreatedAt.After(completed[j].CreatedAt)
	})
	if len(completed) > recentTransactionLimit {
		completed = completed[:recentTransactionLimit]
	}
	dashboard.RecentTransactions = completed

	return dashboard
}

func accumulate(summary *WindowSummary, tx domain.Transaction, at time.Time, start time.Time, end time.Time) {
	if at.Before(start) || at.After(end) {
		return
	}
	summary.SalesCents += tx.TotalCents
	summary.Transactions++
}
