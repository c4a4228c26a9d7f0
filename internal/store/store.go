package store

import (
	"context"
	"errors"
	"time"

	"tokolaris/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidInput      = errors.New("invalid input")
)

// Repository is the persistence boundary. Implementations must keep
// checkout and void atomic: the transaction row, the stock delta, and the
// ledger movements commit together or not at all.
type Repository interface {
	ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProductsBySKUs(ctx context.Context, skus []string) (map[string]domain.Product, error)

	GetStockMap(ctx context.Context, outletID string, skus []string) (map[string]int, error)

	CreateDiscount(ctx context.Context, discount domain.Discount) (*domain.Discount, error)
	ListDiscounts(ctx context.Context, includeInactive bool) ([]domain.Discount, error)
	UpdateDiscountActive(ctx context.Context, discountID string, active bool) (*domain.Discount, error)

	CreatePromo(ctx context.Context, promo domain.Promo) (*domain.Promo, error)
	ListPromos(ctx context.Context, includeInactive bool) ([]domain.Promo, error)
	UpdatePromoActive(ctx context.Context, promoID string, active bool) (*domain.Promo, error)

	FindTransactionByIdempotency(ctx context.Context, outletID string, key string) (*domain.Transaction, error)
	FindTransactionByID(ctx context.Context, id string) (*domain.Transaction, error)
	CreateCheckout(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)
	VoidTransaction(ctx context.Context, id string, reason string, at time.Time) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, outletID string, from time.Time, to time.Time, limit int) ([]domain.Transaction, error)

	CreateStockMovement(ctx context.Context, movement domain.StockMovement) (*domain.StockMovement, error)
	ListStockMovements(ctx context.Context, outletID string, sku string, movementType domain.MovementType, from time.Time, to time.Time, limit int) ([]domain.StockMovement, error)

	CreateOutlet(ctx context.Context, outlet domain.Outlet) (*domain.Outlet, error)
	ListOutlets(ctx context.Context) ([]domain.Outlet, error)
	GetOutletByID(ctx context.Context, id string) (*domain.Outlet, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, outletID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
