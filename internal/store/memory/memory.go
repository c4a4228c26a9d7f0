package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tokolaris/backend/internal/domain"
	"tokolaris/backend/internal/ledger"
	"tokolaris/backend/internal/store"
	"tokolaris/backend/internal/xid"
)

// DefaultOutletID is the outlet the seeded dataset belongs to.
const DefaultOutletID = "outlet-main"

type Store struct {
	mu                 sync.RWMutex
	products           map[string]domain.Product
	inventory          map[string]map[string]int
	discountsByID      map[string]domain.Discount
	promosByID         map[string]domain.Promo
	transactionsByID   map[string]*domain.Transaction
	transactionsByIdem map[string]*domain.Transaction
	movements          []domain.StockMovement
	outletsByID        map[string]domain.Outlet
	auditLogs          []domain.AuditLog
	usersByUsername    map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials come from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD; unset
// variables fall back to hardcoded dev defaults with a warning. Production
// deployments use PostgreSQL (DATABASE_URL) and never hit this path.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	products := []domain.Product{
		{SKU: "SKU-MIE-01", Name: "Mie Goreng Instan", Category: "grocery", PriceCents: 3500, MinStock: 24, Active: true},
		{SKU: "SKU-TELUR-01", Name: "Telur 10 Butir", Category: "grocery", PriceCents: 26500, MinStock: 10, Active: true},
		{SKU: "SKU-SUSU-01", Name: "Susu UHT 1L", Category: "dairy", PriceCents: 18900, MinStock: 12, Active: true},
		{SKU: "SKU-ROTI-01", Name: "Roti Tawar", Category: "bakery", PriceCents: 17800, MinStock: 8, Active: true},
		{SKU: "SKU-KOPI-01", Name: "Kopi Sachet", Category: "beverage", PriceCents: 2600, MinStock: 40, Active: true},
		{SKU: "SKU-GULA-01", Name: "Gula 1kg", Category: "grocery", PriceCents: 17400, MinStock: 10, Active: true},
		{SKU: "SKU-TEH-01", Name: "Teh Celup", Category: "beverage", PriceCents: 9800, MinStock: 15, Active: true},
		{SKU: "SKU-AIR-01", Name: "Air Mineral 600ml", Category: "beverage", PriceCents: 3900, MinStock: 48, Active: true},
		{SKU: "SKU-KERIPIK-01", Name: "Keripik Singkong", Category: "snack", PriceCents: 12800, MinStock: 12, Active: true},
		{SKU: "SKU-COKLAT-01", Name: "Coklat Batang", Category: "snack", PriceCents: 8600, MinStock: 12, Active: true},
		{SKU: "SKU-SABUN-01", Name: "Sabun Mandi", Category: "household", PriceCents: 7400, MinStock: 10, Active: true},
		{SKU: "SKU-SHAMPOO-01", Name: "Shampoo Sachet", Category: "household", PriceCents: 3200, MinStock: 30, Active: true},
	}

	productMap := make(map[string]domain.Product, len(products))
	inventory := map[string]map[string]int{DefaultOutletID: {}}
	for _, p := range products {
		productMap[p.SKU] = p
		inventory[DefaultOutletID][p.SKU] = 120
	}

	now := time.Now().UTC()
	outlets := map[string]domain.Outlet{
		DefaultOutletID: {ID: DefaultOutletID, Name: "Toko Laris Pusat", Address: "Jl. Melati No. 1", CreatedAt: now},
	}

	return &Store{
		products:           productMap,
		inventory:          inventory,
		discountsByID:      make(map[string]domain.Discount),
		promosByID:         make(map[string]domain.Promo),
		transactionsByID:   make(map[string]*domain.Transaction),
		transactionsByIdem: make(map[string]*domain.Transaction),
		movements:          make([]domain.StockMovement, 0, 256),
		outletsByID:        outlets,
		auditLogs:          make([]domain.AuditLog, 0, 128),
		usersByUsername:    seedUsers(),
	}
}

func (s *Store) ListProducts(_ context.Context, includeInactive bool) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if !p.Active && !includeInactive {
			continue
		}
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.Category, b.Category)
	})

	return products, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.SKU == "" || product.Name == "" || product.Category == "" || product.PriceCents < 1 {
		return nil, store.ErrInvalidInput
	}
	if product.MinStock < 0 {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.products[product.SKU]; exists {
		return nil, store.ErrInvalidInput
	}

	product.Active = true
	s.products[product.SKU] = product
	created := product
	return &created, nil
}

func (s *Store) GetProductBySKU(_ context.Context, sku string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[sku]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.SKU == "" || product.Name == "" || product.Category == "" || product.PriceCents < 1 {
		return nil, store.ErrInvalidInput
	}
	if product.MinStock < 0 {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.products[product.SKU]; !exists {
		return nil, store.ErrNotFound
	}

	s.products[product.SKU] = product
	updated := product
	return &updated, nil
}

func (s *Store) GetProductsBySKUs(_ context.Context, skus []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(skus))
	for _, sku := range skus {
		if p, ok := s.products[sku]; ok && p.Active {
			result[sku] = p
		}
	}
	return result, nil
}

// GetStockMap returns the quantity for every requested SKU; a nil skus slice
// means the outlet's full stock snapshot.
func (s *Store) GetStockMap(_ context.Context, outletID string, skus []string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	outletStock := s.inventory[outletID]
	if skus == nil {
		snapshot := make(map[string]int, len(outletStock))
		for sku, qty := range outletStock {
			snapshot[sku] = qty
		}
		return snapshot, nil
	}

	stockMap := make(map[string]int, len(skus))
	for _, sku := range skus {
		if outletStock == nil {
			stockMap[sku] = 0
			continue
		}
		stockMap[sku] = outletStock[sku]
	}
	return stockMap, nil
}

func (s *Store) CreateDiscount(_ context.Context, discount domain.Discount) (*domain.Discount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if discount.SKU == "" {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.products[discount.SKU]; !exists {
		return nil, store.ErrNotFound
	}
	for _, existing := range s.discountsByID {
		if existing.SKU == discount.SKU && existing.Active {
			return nil, store.ErrInvalidInput
		}
	}
	if discount.ID == "" {
		discount.ID = xid.New("disc")
	}
	if discount.CreatedAt.IsZero() {
		discount.CreatedAt = time.Now().UTC()
	}
	discount.Active = true
	s.discountsByID[discount.ID] = discount
	created := discount
	return &created, nil
}

func (s *Store) ListDiscounts(_ context.Context, includeInactive bool) ([]domain.Discount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	discounts := make([]domain.Discount, 0, len(s.discountsByID))
	for _, discount := range s.discountsByID {
		if !discount.Active && !includeInactive {
			continue
		}
		discounts = append(discounts, discount)
	}
	slices.SortFunc(discounts, func(a, b domain.Discount) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(a.ID, b.ID)
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return discounts, nil
}

func (s *Store) UpdateDiscountActive(_ context.Context, discountID string, active bool) (*domain.Discount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	discount, exists := s.discountsByID[discountID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if active && !discount.Active {
		for _, other := range s.discountsByID {
			if other.ID != discountID && other.SKU == discount.SKU && other.Active {
				return nil, store.ErrInvalidInput
			}
		}
	}
	discount.Active = active
	s.discountsByID[discountID] = discount
	copyDiscount := discount
	return &copyDiscount, nil
}

func (s *Store) CreatePromo(_ context.Context, promo domain.Promo) (*domain.Promo, error) {
	if strings.TrimSpace(promo.Name) == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if promo.ID == "" {
		promo.ID = xid.New("promo")
	}
	if promo.CreatedAt.IsZero() {
		promo.CreatedAt = time.Now().UTC()
	}
	promo.Active = true
	s.promosByID[promo.ID] = clonePromo(promo)
	created := clonePromo(promo)
	return &created, nil
}

func (s *Store) ListPromos(_ context.Context, includeInactive bool) ([]domain.Promo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	promos := make([]domain.Promo, 0, len(s.promosByID))
	for _, promo := range s.promosByID {
		if !promo.Active && !includeInactive {
			continue
		}
		promos = append(promos, clonePromo(promo))
	}
	slices.SortFunc(promos, func(a, b domain.Promo) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(a.ID, b.ID)
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return promos, nil
}

func (s *Store) UpdatePromoActive(_ context.Context, promoID string, active bool) (*domain.Promo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	promo, exists := s.promosByID[promoID]
	if !exists {
		return nil, store.ErrNotFound
	}
	promo.Active = active
	s.promosByID[promoID] = promo
	copyPromo := clonePromo(promo)
	return &copyPromo, nil
}

func (s *Store) FindTransactionByIdempotency(_ context.Context, outletID string, key string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactionsByIdem[idemMapKey(outletID, key)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneTransaction(tx), nil
}

func (s *Store) FindTransactionByID(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactionsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneTransaction(tx), nil
}

// CreateCheckout persists an already-priced transaction. It rechecks stock
// for every line, decrements the outlet's inventory, and appends one "out"
// ledger movement per line, all under a single lock so the write is atomic.
// A replayed idempotency key returns the stored transaction unchanged.
func (s *Store) CreateCheckout(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.IdempotencyKey == "" || tx.OutletID == "" {
		return nil, store.ErrInvalidInput
	}
	if existing, ok := s.transactionsByIdem[idemMapKey(tx.OutletID, tx.IdempotencyKey)]; ok {
		return cloneTransaction(existing), nil
	}
	if len(tx.Items) == 0 {
		return nil, store.ErrInvalidInput
	}
	if tx.TotalCents != tx.SubtotalCents-tx.DiscountCents || tx.DiscountCents < 0 || tx.TotalCents < 0 {
		return nil, store.ErrInvalidInput
	}

	outletStock, ok := s.inventory[tx.OutletID]
	if !ok {
		return nil, fmt.Errorf("outlet %s unavailable", tx.OutletID)
	}
	for _, item := range tx.Items {
		if item.Qty < 1 {
			return nil, store.ErrInvalidInput
		}
		product, exists := s.products[item.SKU]
		if !exists || !product.Active {
			return nil, fmt.Errorf("sku %s unavailable", item.SKU)
		}
		if outletStock[item.SKU]-item.Qty < 0 {
			return nil, store.ErrInsufficientStock
		}
	}

	if tx.ID == "" {
		tx.ID = xid.New("tx")
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	if tx.Status == "" {
		tx.Status = domain.TxStatusCompleted
	}

	for _, item := range tx.Items {
		outletStock[item.SKU] -= item.Qty
		s.movements = append(s.movements, domain.StockMovement{
			ID:        xid.New("mv"),
			OutletID:  tx.OutletID,
			SKU:       item.SKU,
			Type:      domain.MovementOut,
			Qty:       item.Qty,
			RefType:   "transaction",
			RefID:     tx.ID,
			CreatedAt: tx.CreatedAt,
		})
	}

	txCopy := cloneTransaction(&tx)
	s.transactionsByID[tx.ID] = txCopy
	s.transactionsByIdem[idemMapKey(tx.OutletID, tx.IdempotencyKey)] = txCopy

	return cloneTransaction(txCopy), nil
}

// VoidTransaction flips a completed transaction to voided and restocks every
// line with an "in" ledger movement referencing the void.
func (s *Store) VoidTransaction(_ context.Context, id string, reason string, at time.Time) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactionsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if tx.Status != domain.TxStatusCompleted {
		return nil, store.ErrInvalidInput
	}

	outletStock, ok := s.inventory[tx.OutletID]
	if !ok {
		outletStock = make(map[string]int)
		s.inventory[tx.OutletID] = outletStock
	}
	for _, item := range tx.Items {
		outletStock[item.SKU] += item.Qty
		s.movements = append(s.movements, domain.StockMovement{
			ID:        xid.New("mv"),
			OutletID:  tx.OutletID,
			SKU:       item.SKU,
			Type:      domain.MovementIn,
			Qty:       item.Qty,
			RefType:   "void",
			RefID:     tx.ID,
			Note:      reason,
			CreatedAt: at,
		})
	}

	tx.Status = domain.TxStatusVoided
	tx.VoidReason = reason
	tx.VoidedAt = &at

	return cloneTransaction(tx), nil
}

func (s *Store) ListTransactions(_ context.Context, outletID string, from time.Time, to time.Time, limit int) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0, len(s.transactionsByID))
	for _, tx := range s.transactionsByID {
		if outletID != "" && tx.OutletID != outletID {
			continue
		}
		if !from.IsZero() && tx.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && tx.CreatedAt.After(to) {
			continue
		}
		result = append(result, *cloneTransaction(tx))
	}
	slices.SortFunc(result, func(a, b domain.Transaction) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CreateStockMovement records a manual ledger entry and applies its signed
// delta to the outlet's stock. The resulting quantity must not go negative.
func (s *Store) CreateStockMovement(_ context.Context, movement domain.StockMovement) (*domain.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if movement.OutletID == "" || movement.SKU == "" {
		return nil, store.ErrInvalidInput
	}
	switch movement.Type {
	case domain.MovementIn, domain.MovementOut:
		if movement.Qty < 1 {
			return nil, store.ErrInvalidInput
		}
	case domain.MovementAdjustment:
		if movement.Qty == 0 {
			return nil, store.ErrInvalidInput
		}
	default:
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.products[movement.SKU]; !exists {
		return nil, store.ErrNotFound
	}

	outletStock, ok := s.inventory[movement.OutletID]
	if !ok {
		outletStock = make(map[string]int)
		s.inventory[movement.OutletID] = outletStock
	}
	next := outletStock[movement.SKU] + ledger.Delta(movement.Qty, movement.Type)
	if next < 0 {
		return nil, store.ErrInsufficientStock
	}

	if movement.ID == "" {
		movement.ID = xid.New("mv")
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now().UTC()
	}
	outletStock[movement.SKU] = next
	s.movements = append(s.movements, movement)
	created := movement
	return &created, nil
}

// ListStockMovements returns chronologically ascending entries; when limit
// is set, the oldest entries are dropped first so balances stay current.
func (s *Store) ListStockMovements(_ context.Context, outletID string, sku string, movementType domain.MovementType, from time.Time, to time.Time, limit int) ([]domain.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scoped := make([]domain.StockMovement, 0, 64)
	for _, movement := range s.movements {
		if outletID != "" && movement.OutletID != outletID {
			continue
		}
		scoped = append(scoped, movement)
	}

	filter := ledger.Filter{SKU: sku, Type: movementType}
	if !from.IsZero() {
		filter.Start = &from
	}
	if !to.IsZero() {
		filter.End = &to
	}
	result := ledger.FilterMovements(scoped, filter)
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

func (s *Store) CreateOutlet(_ context.Context, outlet domain.Outlet) (*domain.Outlet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outlet.Name = strings.TrimSpace(outlet.Name)
	if outlet.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if outlet.ID == "" {
		outlet.ID = xid.New("outlet")
	}
	if outlet.CreatedAt.IsZero() {
		outlet.CreatedAt = time.Now().UTC()
	}
	s.outletsByID[outlet.ID] = outlet
	if _, ok := s.inventory[outlet.ID]; !ok {
		s.inventory[outlet.ID] = make(map[string]int)
	}
	copyOutlet := outlet
	return &copyOutlet, nil
}

func (s *Store) ListOutlets(_ context.Context) ([]domain.Outlet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	outlets := make([]domain.Outlet, 0, len(s.outletsByID))
	for _, outlet := range s.outletsByID {
		outlets = append(outlets, outlet)
	}
	slices.SortFunc(outlets, func(a, b domain.Outlet) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(a.ID, b.ID)
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return outlets, nil
}

func (s *Store) GetOutletByID(_ context.Context, id string) (*domain.Outlet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	outlet, exists := s.outletsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyOutlet := outlet
	return &copyOutlet, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, outletID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, 64)
	for _, entry := range s.auditLogs {
		if outletID != "" && entry.OutletID != outletID {
			continue
		}
		if !from.IsZero() && entry.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && entry.CreatedAt.After(to) {
			continue
		}
		result = append(result, entry)
	}

	slices.SortFunc(result, func(a, b domain.AuditLog) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrInvalidInput
	}
	user.Username = username
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByUsername[strings.ToLower(strings.TrimSpace(username))]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyUser := user
	return &copyUser, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func idemMapKey(outletID string, key string) string {
	return outletID + "::" + key
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneTransaction(src *domain.Transaction) *domain.Transaction {
	if src == nil {
		return nil
	}
	dup := *src
	dupItems := make([]domain.TransactionItem, len(src.Items))
	copy(dupItems, src.Items)
	dup.Items = dupItems
	if src.VoidedAt != nil {
		at := *src.VoidedAt
		dup.VoidedAt = &at
	}
	return &dup
}

func clonePromo(src domain.Promo) domain.Promo {
	dup := src
	skus := make([]string, len(src.SKUs))
	copy(skus, src.SKUs)
	dup.SKUs = skus
	return dup
}
