package domain

import "time"

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountNominal    DiscountType = "nominal"
)

type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
)

const (
	TxStatusCompleted = "completed"
	TxStatusVoided    = "voided"
)

type Product struct {
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents int64  `json:"price_cents"`
	MinStock   int    `json:"min_stock"`
	Active     bool   `json:"active"`
}

type ProductCreateRequest struct {
	OutletID     string `json:"outlet_id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	PriceCents   int64  `json:"price_cents"`
	MinStock     int    `json:"min_stock"`
	InitialStock int    `json:"initial_stock"`
}

type ProductUpdateRequest struct {
	Name       *string `json:"name,omitempty"`
	Category   *string `json:"category,omitempty"`
	PriceCents *int64  `json:"price_cents,omitempty"`
	MinStock   *int    `json:"min_stock,omitempty"`
	Active     *bool   `json:"active,omitempty"`
}

type Discount struct {
	ID        string       `json:"id"`
	SKU       string       `json:"sku"`
	Type      DiscountType `json:"type"`
	Value     int64        `json:"value"`
	Active    bool         `json:"active"`
	CreatedAt time.Time    `json:"created_at"`
}

type DiscountCreateRequest struct {
	SKU   string       `json:"sku"`
	Type  DiscountType `json:"type"`
	Value int64        `json:"value"`
}

// Promo applies only to the SKUs explicitly listed in SKUs; an empty list
// means the promo matches no product. MinPurchaseCents below 1 means no
// minimum-purchase gate.
type Promo struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	StartDate        time.Time    `json:"start_date"`
	EndDate          time.Time    `json:"end_date"`
	Type             DiscountType `json:"type"`
	Value            int64        `json:"value"`
	MinPurchaseCents int64        `json:"min_purchase_cents"`
	SKUs             []string     `json:"skus"`
	Active           bool         `json:"active"`
	CreatedAt        time.Time    `json:"created_at"`
}

type PromoCreateRequest struct {
	Name             string       `json:"name"`
	StartDate        string       `json:"start_date"`
	EndDate          string       `json:"end_date"`
	Type             DiscountType `json:"type"`
	Value            int64        `json:"value"`
	MinPurchaseCents int64        `json:"min_purchase_cents"`
	SKUs             []string     `json:"skus"`
}

type ActiveToggleRequest struct {
	Active bool `json:"active"`
}

// CartItem is one requested line in a cart. ManualDiscountCents is a legacy
// per-line ad-hoc discount applied on top of whatever the resolver selects.
type CartItem struct {
	SKU                 string `json:"sku"`
	Qty                 int    `json:"qty"`
	ManualDiscountCents int64  `json:"manual_discount_cents,omitempty"`
}

type CartPriceRequest struct {
	OutletID  string     `json:"outlet_id"`
	CartItems []CartItem `json:"cart_items"`
}

type CheckoutRequest struct {
	OutletID       string     `json:"outlet_id"`
	IdempotencyKey string     `json:"idempotency_key"`
	CartItems      []CartItem `json:"cart_items"`
}

type CheckoutResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	SubtotalCents int64  `json:"subtotal_cents"`
	DiscountCents int64  `json:"discount_cents"`
	TotalCents    int64  `json:"total_cents"`
	ItemCount     int    `json:"item_count"`
	Duplicate     bool   `json:"duplicate"`
	CreatedAt     string `json:"created_at"`
}

type VoidTransactionRequest struct {
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
	ManagerPIN    string `json:"manager_pin"`
}

type VoidTransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	VoidedAt      string `json:"voided_at"`
}

type TransactionItem struct {
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	DiscountCents  int64  `json:"discount_cents"`
	TotalCents     int64  `json:"total_cents"`
	DiscountID     string `json:"discount_id,omitempty"`
	PromoID        string `json:"promo_id,omitempty"`
}

type Transaction struct {
	ID              string            `json:"id"`
	OutletID        string            `json:"outlet_id"`
	CashierUsername string            `json:"cashier_username"`
	IdempotencyKey  string            `json:"idempotency_key"`
	SubtotalCents   int64             `json:"subtotal_cents"`
	DiscountCents   int64             `json:"discount_cents"`
	TotalCents      int64             `json:"total_cents"`
	Status          string            `json:"status"`
	VoidReason      string            `json:"void_reason,omitempty"`
	VoidedAt        *time.Time        `json:"voided_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []TransactionItem `json:"items"`
}

// StockMovement is one raw ledger entry. Qty is positive for in/out
// movements; adjustment quantities carry the caller-supplied sign.
type StockMovement struct {
	ID        string       `json:"id"`
	OutletID  string       `json:"outlet_id"`
	SKU       string       `json:"sku"`
	Type      MovementType `json:"type"`
	Qty       int          `json:"qty"`
	RefType   string       `json:"ref_type,omitempty"`
	RefID     string       `json:"ref_id,omitempty"`
	Note      string       `json:"note,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type StockMovementCreateRequest struct {
	OutletID string       `json:"outlet_id"`
	SKU      string       `json:"sku"`
	Type     MovementType `json:"type"`
	Qty      int          `json:"qty"`
	Note     string       `json:"note"`
}

type Outlet struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type OutletCreateRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type PasswordResetRequest struct {
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	OutletID      string    `json:"outlet_id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}
