package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tokolaris/backend/internal/cache"
	"tokolaris/backend/internal/domain"
	"tokolaris/backend/internal/ledger"
	"tokolaris/backend/internal/pricing"
	"tokolaris/backend/internal/report"
	"tokolaris/backend/internal/store"
	"tokolaris/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// StockValidationError carries the per-line availability failures so the
// HTTP layer can return them as a structured payload.
type StockValidationError struct {
	Errors []ledger.StockError
}

func (e *StockValidationError) Error() string {
	return fmt.Sprintf("insufficient stock for %d cart line(s)", len(e.Errors))
}

func (e *StockValidationError) Unwrap() error {
	return store.ErrInsufficientStock
}

type Service struct {
	repo            store.Repository
	dashboards      cache.DashboardCache
	defaultOutletID string
	managerPINHash  []byte
	dashboardTTL    time.Duration
}

func New(repo store.Repository, dashboards cache.DashboardCache, defaultOutletID string, managerPIN string, dashboardTTL time.Duration) *Service {
	if defaultOutletID == "" {
		defaultOutletID = "outlet-main"
	}
	if dashboards == nil {
		dashboards = cache.NoopDashboardCache{}
	}
	if dashboardTTL < time.Second {
		dashboardTTL = 30 * time.Second
	}

	var pinHash []byte
	if managerPIN != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(managerPIN), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[service] failed to hash manager PIN: %v", err)
		}
		pinHash = hash
	}

	return &Service{
		repo:            repo,
		dashboards:      dashboards,
		defaultOutletID: defaultOutletID,
		managerPINHash:  pinHash,
		dashboardTTL:    dashboardTTL,
	}
}

func (s *Service) ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, includeInactive)
}

func (s *Service) GetProduct(ctx context.Context, sku string) (domain.Product, error) {
	product, err := s.repo.GetProductBySKU(ctx, strings.ToUpper(strings.TrimSpace(sku)))
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	if req.OutletID == "" {
		req.OutletID = s.defaultOutletID
	}
	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)

	if req.SKU == "" || req.Name == "" || req.Category == "" {
		return domain.Product{}, store.ErrInvalidInput
	}
	if req.PriceCents < 1 || req.MinStock < 0 || req.InitialStock < 0 {
		return domain.Product{}, store.ErrInvalidInput
	}
	if err := s.ensureOutlet(ctx, req.OutletID); err != nil {
		return domain.Product{}, err
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		SKU:        req.SKU,
		Name:       req.Name,
		Category:   req.Category,
		PriceCents: req.PriceCents,
		MinStock:   req.MinStock,
		Active:     true,
	})
	if err != nil {
		return domain.Product{}, err
	}

	// Initial stock enters through the ledger so the movement history
	// starts consistent with the snapshot.
	if req.InitialStock > 0 {
		_, err := s.repo.CreateStockMovement(ctx, domain.StockMovement{
			OutletID:  req.OutletID,
			SKU:       created.SKU,
			Type:      domain.MovementIn,
			Qty:       req.InitialStock,
			RefType:   "initial",
			Note:      "initial stock",
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return domain.Product{}, err
		}
	}

	s.logAudit(ctx, req.OutletID, "create_product", "product", created.SKU, fmt.Sprintf("price=%d,min_stock=%d,initial_stock=%d", created.PriceCents, created.MinStock, req.InitialStock))
	s.invalidateDashboard(ctx, req.OutletID)

	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, sku string, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	current, err := s.repo.GetProductBySKU(ctx, strings.ToUpper(strings.TrimSpace(sku)))
	if err != nil {
		return domain.Product{}, err
	}

	next := *current
	if req.Name != nil {
		next.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		next.Category = strings.TrimSpace(*req.Category)
	}
	if req.PriceCents != nil {
		next.PriceCents = *req.PriceCents
	}
	if req.MinStock != nil {
		next.MinStock = *req.MinStock
	}
	if req.Active != nil {
		next.Active = *req.Active
	}

	updated, err := s.repo.UpdateProduct(ctx, next)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, s.defaultOutletID, "update_product", "product", updated.SKU, fmt.Sprintf("price=%d,active=%t", updated.PriceCents, updated.Active))
	s.invalidateDashboard(ctx, s.defaultOutletID)

	return *updated, nil
}

func (s *Service) CreateDiscount(ctx context.Context, req domain.DiscountCreateRequest) (domain.Discount, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Discount{}, fmt.Errorf("admin role required")
	}

	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	if req.SKU == "" {
		return domain.Discount{}, store.ErrInvalidInput
	}

	product, err := s.repo.GetProductBySKU(ctx, req.SKU)
	if err != nil {
		return domain.Discount{}, err
	}
	if err := validateDiscountTerms(req.Type, req.Value, product.PriceCents); err != nil {
		return domain.Discount{}, err
	}

	created, err := s.repo.CreateDiscount(ctx, domain.Discount{
		SKU:       req.SKU,
		Type:      req.Type,
		Value:     req.Value,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.Discount{}, err
	}

	s.logAudit(ctx, s.defaultOutletID, "create_discount", "discount", created.ID, fmt.Sprintf("sku=%s,type=%s,value=%d", created.SKU, created.Type, created.Value))

	return *created, nil
}

func (s *Service) ListDiscounts(ctx context.Context, includeInactive bool) ([]domain.Discount, error) {
	return s.repo.ListDiscounts(ctx, includeInactive)
}

func (s *Service) SetDiscountActive(ctx context.Context, discountID string, active bool) (domain.Discount, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Discount{}, fmt.Errorf("admin role required")
	}

	updated, err := s.repo.UpdateDiscountActive(ctx, discountID, active)
	if err != nil {
		return domain.Discount{}, err
	}

	s.logAudit(ctx, s.defaultOutletID, "toggle_discount", "discount", updated.ID, fmt.Sprintf("active=%t", active))

	return *updated, nil
}

func (s *Service) CreatePromo(ctx context.Context, req domain.PromoCreateRequest) (domain.Promo, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Promo{}, fmt.Errorf("admin role required")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Promo{}, store.ErrInvalidInput
	}

	startDate, err := time.ParseInLocation("2006-01-02", req.StartDate, time.UTC)
	if err != nil {
		return domain.Promo{}, store.ErrInvalidInput
	}
	endDate, err := time.ParseInLocation("2006-01-02", req.EndDate, time.UTC)
	if err != nil {
		return domain.Promo{}, store.ErrInvalidInput
	}
	// End of the last promo day so the window stays inclusive.
	endDate = endDate.AddDate(0, 0, 1).Add(-time.Nanosecond)
	if endDate.Before(startDate) {
		return domain.Promo{}, store.ErrInvalidInput
	}

	switch req.Type {
	case domain.DiscountPercentage:
		if req.Value < 1 || req.Value > 100 {
			return domain.Promo{}, store.ErrInvalidInput
		}
	case domain.DiscountNominal:
		if req.Value < 1 {
			return domain.Promo{}, store.ErrInvalidInput
		}
	default:
		return domain.Promo{}, store.ErrInvalidInput
	}
	if req.MinPurchaseCents < 0 {
		return domain.Promo{}, store.ErrInvalidInput
	}

	skus := make([]string, 0, len(req.SKUs))
	for _, sku := range req.SKUs {
		sku = strings.ToUpper(strings.TrimSpace(sku))
		if sku == "" {
			continue
		}
		skus = append(skus, sku)
	}
	if len(skus) == 0 {
		return domain.Promo{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreatePromo(ctx, domain.Promo{
		Name:             req.Name,
		StartDate:        startDate,
		EndDate:          endDate,
		Type:             req.Type,
		Value:            req.Value,
		MinPurchaseCents: req.MinPurchaseCents,
		SKUs:             skus,
		Active:           true,
		CreatedAt:        time.Now().UTC(),
	})
	if err != nil {
		return domain.Promo{}, err
	}

	s.logAudit(ctx, s.defaultOutletID, "create_promo", "promo", created.ID, fmt.Sprintf("type=%s,value=%d,skus=%d", created.Type, created.Value, len(created.SKUs)))

	return *created, nil
}

func (s *Service) ListPromos(ctx context.Context, includeInactive bool) ([]domain.Promo, error) {
	return s.repo.ListPromos(ctx, includeInactive)
}

func (s *Service) SetPromoActive(ctx context.Context, promoID string, active bool) (domain.Promo, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Promo{}, fmt.Errorf("admin role required")
	}

	updated, err := s.repo.UpdatePromoActive(ctx, promoID, active)
	if err != nil {
		return domain.Promo{}, err
	}

	s.logAudit(ctx, s.defaultOutletID, "toggle_promo", "promo", updated.ID, fmt.Sprintf("active=%t", active))

	return *updated, nil
}

// CartPriceResult is a priced cart preview plus the stock availability
// verdict for the same lines and minimum-purchase progress for promos that
// touch the cart.
type CartPriceResult struct {
	Items         []pricing.PricedItem `json:"items"`
	SubtotalCents int64                `json:"subtotal_cents"`
	DiscountCents int64                `json:"discount_cents"`
	TotalCents    int64                `json:"total_cents"`
	StockValid    bool                 `json:"stock_valid"`
	StockErrors   []ledger.StockError  `json:"stock_errors,omitempty"`
	PromoHints    []PromoHint          `json:"promo_hints,omitempty"`
}

// PromoHint tells the register how far the cart is from a promo's
// minimum-purchase threshold.
type PromoHint struct {
	PromoID        string `json:"promo_id"`
	Name           string `json:"name"`
	Eligible       bool   `json:"eligible"`
	RemainingCents int64  `json:"remaining_cents"`
}

// PriceCart prices a cart without touching stock. The preview also reports
// availability so the register can warn before checkout.
func (s *Service) PriceCart(ctx context.Context, req domain.CartPriceRequest) (CartPriceResult, error) {
	if req.OutletID == "" {
		req.OutletID = s.defaultOutletID
	}

	items := normalizeItems(req.CartItems)
	if len(items) == 0 {
		return CartPriceResult{}, store.ErrInvalidInput
	}

	products, stock, err := s.loadCartContext(ctx, req.OutletID, items)
	if err != nil {
		return CartPriceResult{}, err
	}
	for _, item := range items {
		if _, exists := products[item.SKU]; !exists {
			return CartPriceResult{}, fmt.Errorf("%w: sku %s unavailable", store.ErrInvalidInput, item.SKU)
		}
	}

	now := time.Now().UTC()
	priced, err := s.priceItems(ctx, items, products, now)
	if err != nil {
		return CartPriceResult{}, err
	}
	availability := ledger.ValidateAvailability(items, products, stock)

	return CartPriceResult{
		Items:         priced.Items,
		SubtotalCents: priced.SubtotalCents,
		DiscountCents: priced.DiscountCents,
		TotalCents:    priced.TotalCents,
		StockValid:    availability.Valid,
		StockErrors:   availability.Errors,
		PromoHints:    s.promoHints(ctx, items, products, now),
	}, nil
}

// promoHints reports minimum-purchase progress for currently running promos
// that list at least one cart SKU. The hint uses the undiscounted cart
// subtotal, matching the screening applied at checkout.
func (s *Service) promoHints(ctx context.Context, items []domain.CartItem, products map[string]domain.Product, now time.Time) []PromoHint {
	promos, err := s.repo.ListPromos(ctx, false)
	if err != nil {
		log.Printf("[service] WARN: promo hint lookup failed: %v", err)
		return nil
	}

	inCart := make(map[string]bool, len(items))
	base := int64(0)
	for _, item := range items {
		inCart[item.SKU] = true
		if product, exists := products[item.SKU]; exists {
			base += int64(item.Qty) * product.PriceCents
		}
	}

	hints := make([]PromoHint, 0, len(promos))
	for _, promo := range promos {
		if now.Before(promo.StartDate) || now.After(promo.EndDate) {
			continue
		}
		touches := false
		for _, sku := range promo.SKUs {
			if inCart[sku] {
				touches = true
				break
			}
		}
		if !touches {
			continue
		}
		check := pricing.CheckMinimumPurchase(base, promo)
		hints = append(hints, PromoHint{
			PromoID:        promo.ID,
			Name:           promo.Name,
			Eligible:       check.Eligible,
			RemainingCents: check.RemainingCents,
		})
	}
	return hints
}

func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	if req.OutletID == "" {
		req.OutletID = s.defaultOutletID
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = xid.New("idem")
	}

	items := normalizeItems(req.CartItems)
	if len(items) == 0 {
		return domain.CheckoutResponse{}, store.ErrInvalidInput
	}
	if err := s.ensureOutlet(ctx, req.OutletID); err != nil {
		return domain.CheckoutResponse{}, err
	}

	if existing, err := s.repo.FindTransactionByIdempotency(ctx, req.OutletID, req.IdempotencyKey); err == nil {
		return toCheckoutResponse(existing, true), nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.CheckoutResponse{}, err
	}

	products, stock, err := s.loadCartContext(ctx, req.OutletID, items)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}
	for _, item := range items {
		if _, exists := products[item.SKU]; !exists {
			return domain.CheckoutResponse{}, fmt.Errorf("%w: sku %s unavailable", store.ErrInvalidInput, item.SKU)
		}
	}

	availability := ledger.ValidateAvailability(items, products, stock)
	if !availability.Valid {
		return domain.CheckoutResponse{}, &StockValidationError{Errors: availability.Errors}
	}

	now := time.Now().UTC()
	priced, err := s.priceItems(ctx, items, products, now)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	txItems := make([]domain.TransactionItem, 0, len(priced.Items))
	for _, line := range priced.Items {
		item := domain.TransactionItem{
			SKU:            line.SKU,
			Name:           line.Name,
			Qty:            line.Qty,
			UnitPriceCents: line.UnitPriceCents,
			DiscountCents:  line.LineDiscountCents,
			TotalCents:     line.LineTotalCents,
		}
		if line.Discount != nil {
			item.DiscountID = line.Discount.ID
		}
		if line.Promo != nil {
			item.PromoID = line.Promo.ID
		}
		txItems = append(txItems, item)
	}

	actor, _ := ActorFromContext(ctx)
	tx := domain.Transaction{
		ID:              xid.New("tx"),
		OutletID:        req.OutletID,
		CashierUsername: actor.Username,
		IdempotencyKey:  req.IdempotencyKey,
		SubtotalCents:   priced.SubtotalCents,
		DiscountCents:   priced.DiscountCents,
		TotalCents:      priced.TotalCents,
		Status:          domain.TxStatusCompleted,
		CreatedAt:       now,
		Items:           txItems,
	}

	created, err := s.repo.CreateCheckout(ctx, tx)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	s.logAudit(ctx, req.OutletID, "checkout", "transaction", created.ID, fmt.Sprintf("total=%d,discount=%d,items=%d", created.TotalCents, created.DiscountCents, len(created.Items)))
	s.invalidateDashboard(ctx, req.OutletID)

	return toCheckoutResponse(created, false), nil
}

func (s *Service) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	if id == "" {
		return domain.Transaction{}, store.ErrInvalidInput
	}
	tx, err := s.repo.FindTransactionByID(ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	return *tx, nil
}

func (s *Service) ListTransactions(ctx context.Context, outletID string, from time.Time, to time.Time, limit int) ([]domain.Transaction, error) {
	if outletID == "" {
		outletID = s.defaultOutletID
	}
	return s.repo.ListTransactions(ctx, outletID, from, to, limit)
}

// VoidTransaction requires a valid manager PIN on top of authentication.
// The restock happens inside the repository so it stays atomic with the
// status flip.
func (s *Service) VoidTransaction(ctx context.Context, req domain.VoidTransactionRequest) (domain.VoidTransactionResponse, error) {
	if req.TransactionID == "" {
		return domain.VoidTransactionResponse{}, store.ErrInvalidInput
	}
	if err := s.verifyManagerPIN(req.ManagerPIN); err != nil {
		return domain.VoidTransactionResponse{}, err
	}
	if req.Reason == "" {
		req.Reason = "unspecified"
	}

	voidedAt := time.Now().UTC()
	tx, err := s.repo.VoidTransaction(ctx, req.TransactionID, req.Reason, voidedAt)
	if err != nil {
		return domain.VoidTransactionResponse{}, err
	}

	s.logAudit(ctx, tx.OutletID, "void_transaction", "transaction", tx.ID, req.Reason)
	s.invalidateDashboard(ctx, tx.OutletID)

	return domain.VoidTransactionResponse{
		TransactionID: tx.ID,
		Status:        tx.Status,
		VoidedAt:      voidedAt.Format(time.RFC3339),
	}, nil
}

func (s *Service) CreateStockMovement(ctx context.Context, req domain.StockMovementCreateRequest) (domain.StockMovement, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.StockMovement{}, fmt.Errorf("admin role required")
	}

	if req.OutletID == "" {
		req.OutletID = s.defaultOutletID
	}
	if err := s.ensureOutlet(ctx, req.OutletID); err != nil {
		return domain.StockMovement{}, err
	}
	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))

	created, err := s.repo.CreateStockMovement(ctx, domain.StockMovement{
		OutletID:  req.OutletID,
		SKU:       req.SKU,
		Type:      req.Type,
		Qty:       req.Qty,
		RefType:   "manual",
		Note:      strings.TrimSpace(req.Note),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.StockMovement{}, err
	}

	s.logAudit(ctx, req.OutletID, "stock_movement", "stock_movement", created.ID, fmt.Sprintf("sku=%s,type=%s,qty=%d", created.SKU, created.Type, created.Qty))
	s.invalidateDashboard(ctx, req.OutletID)

	return *created, nil
}

// ListStockMovements returns ledger entries newest first, each annotated
// with the running balance of its SKU at that point in time.
func (s *Service) ListStockMovements(ctx context.Context, outletID string, sku string, movementType domain.MovementType, from time.Time, to time.Time, limit int) ([]ledger.Entry, error) {
	if outletID == "" {
		outletID = s.defaultOutletID
	}
	sku = strings.ToUpper(strings.TrimSpace(sku))

	movements, err := s.repo.ListStockMovements(ctx, outletID, sku, movementType, from, to, limit)
	if err != nil {
		return nil, err
	}
	return ledger.RunningBalance(movements), nil
}

// SalesReport groups an outlet's completed sales into hour or day buckets.
type SalesReport struct {
	OutletID     string               `json:"outlet_id"`
	Period       report.Period        `json:"period"`
	Buckets      []report.SalesBucket `json:"buckets"`
	TotalCents   int64                `json:"total_cents"`
	Transactions int                  `json:"transactions"`
}

func (s *Service) SalesReport(ctx context.Context, outletID string, from time.Time, to time.Time, period report.Period) (SalesReport, error) {
	if outletID == "" {
		outletID = s.defaultOutletID
	}
	if period != report.PeriodHour && period != report.PeriodDay {
		return SalesReport{}, store.ErrInvalidInput
	}

	transactions, err := s.repo.ListTransactions(ctx, outletID, from, to, 0)
	if err != nil {
		return SalesReport{}, err
	}

	result := SalesReport{
		OutletID: outletID,
		Period:   period,
		Buckets:  report.GroupSalesByPeriod(transactions, period),
	}
	for _, bucket := range result.Buckets {
		result.TotalCents += bucket.TotalCents
		result.Transactions += bucket.Transactions
	}
	return result, nil
}

func (s *Service) TopProducts(ctx context.Context, outletID string, from time.Time, to time.Time, byRevenue bool) ([]report.TopProduct, error) {
	if outletID == "" {
		outletID = s.defaultOutletID
	}

	transactions, err := s.repo.ListTransactions(ctx, outletID, from, to, 0)
	if err != nil {
		return nil, err
	}

	items := make([]domain.TransactionItem, 0, 64)
	for _, tx := range transactions {
		if tx.Status != domain.TxStatusCompleted {
			continue
		}
		items = append(items, tx.Items...)
	}

	if byRevenue {
		return report.TopProductsByRevenue(items), nil
	}
	return report.TopProductsByQuantity(items), nil
}

func (s *Service) StockReport(ctx context.Context, outletID string, category string, status report.StockStatus) (report.StockReport, error) {
	if outletID == "" {
		outletID = s.defaultOutletID
	}

	products, err := s.repo.ListProducts(ctx, false)
	if err != nil {
		return report.StockReport{}, err
	}
	stock, err := s.repo.GetStockMap(ctx, outletID, nil)
	if err != nil {
		return report.StockReport{}, err
	}

	full := report.BuildStockReport(products, stock)
	if category == "" && status == "" {
		return full, nil
	}
	return report.FilterStockReport(full, report.StockFilter{Category: category, Status: status}), nil
}

// Dashboard serves the aggregate snapshot from cache when fresh, otherwise
// rebuilds it from the last two weeks of transactions plus current stock.
func (s *Service) Dashboard(ctx context.Context, outletID string) (report.Dashboard, error) {
	if outletID == "" {
		outletID = s.defaultOutletID
	}

	key := dashboardCacheKey(outletID)
	if cached, hit, err := s.dashboards.Get(ctx, key); err != nil {
		log.Printf("[service] WARN: dashboard cache get failed: %v", err)
	} else if hit {
		return *cached, nil
	}

	windows := report.WindowsFor(time.Now().UTC())
	transactions, err := s.repo.ListTransactions(ctx, outletID, windows.LastWeekStart, time.Time{}, 0)
	if err != nil {
		return report.Dashboard{}, err
	}
	products, err := s.repo.ListProducts(ctx, false)
	if err != nil {
		return report.Dashboard{}, err
	}
	stock, err := s.repo.GetStockMap(ctx, outletID, nil)
	if err != nil {
		return report.Dashboard{}, err
	}

	dashboard := report.BuildDashboard(transactions, products, stock, windows)
	if err := s.dashboards.Set(ctx, key, &dashboard, s.dashboardTTL); err != nil {
		log.Printf("[service] WARN: dashboard cache set failed: %v", err)
	}
	return dashboard, nil
}

func (s *Service) CreateOutlet(ctx context.Context, req domain.OutletCreateRequest) (domain.Outlet, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Outlet{}, fmt.Errorf("admin role required")
	}

	created, err := s.repo.CreateOutlet(ctx, domain.Outlet{
		Name:      req.Name,
		Address:   strings.TrimSpace(req.Address),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.Outlet{}, err
	}

	s.logAudit(ctx, created.ID, "create_outlet", "outlet", created.ID, created.Name)

	return *created, nil
}

func (s *Service) ListOutlets(ctx context.Context) ([]domain.Outlet, error) {
	return s.repo.ListOutlets(ctx)
}

func (s *Service) ListAuditLogs(ctx context.Context, outletID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return nil, fmt.Errorf("admin role required")
	}
	return s.repo.ListAuditLogs(ctx, outletID, from, to, limit)
}

func (s *Service) CreateCashier(ctx context.Context, req domain.CashierCreateRequest) (domain.CashierUser, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.CashierUser{}, fmt.Errorf("admin role required")
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" || len(req.Password) < 8 {
		return domain.CashierUser{}, store.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.CashierUser{}, err
	}

	now := time.Now().UTC()
	if err := s.repo.CreateUser(ctx, domain.UserAccount{
		Username:  username,
		Password:  string(hash),
		Role:      "cashier",
		Active:    true,
		CreatedAt: now,
	}); err != nil {
		return domain.CashierUser{}, err
	}

	s.logAudit(ctx, s.defaultOutletID, "create_cashier", "user", username, "")

	return domain.CashierUser{Username: username, Role: "cashier", Active: true, CreatedAt: now}, nil
}

// UpdateCashierPassword resets a cashier's password. Admin accounts cannot
// be reset through this path.
func (s *Service) UpdateCashierPassword(ctx context.Context, username string, password string) (domain.CashierUser, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.CashierUser{}, fmt.Errorf("admin role required")
	}

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || len(password) < 8 {
		return domain.CashierUser{}, store.ErrInvalidInput
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return domain.CashierUser{}, err
	}
	if user.Role != "cashier" {
		return domain.CashierUser{}, fmt.Errorf("%w: only cashier passwords can be reset", store.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.CashierUser{}, err
	}
	if err := s.repo.UpdateUserPassword(ctx, username, string(hash)); err != nil {
		return domain.CashierUser{}, err
	}

	s.logAudit(ctx, s.defaultOutletID, "reset_cashier_password", "user", username, "")

	return domain.CashierUser{
		Username:  user.Username,
		Role:      user.Role,
		Active:    user.Active,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (s *Service) ListCashiers(ctx context.Context) ([]domain.CashierUser, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return nil, fmt.Errorf("admin role required")
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	cashiers := make([]domain.CashierUser, 0, len(users))
	for _, user := range users {
		cashiers = append(cashiers, domain.CashierUser{
			Username:  user.Username,
			Role:      user.Role,
			Active:    user.Active,
			CreatedAt: user.CreatedAt,
		})
	}
	return cashiers, nil
}

// Authenticate verifies a username and password against the stored bcrypt
// hash and returns the matching actor.
func (s *Service) Authenticate(ctx context.Context, username string, password string) (domain.Actor, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Actor{}, fmt.Errorf("invalid credentials")
		}
		return domain.Actor{}, err
	}
	if !user.Active {
		return domain.Actor{}, fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.Actor{}, fmt.Errorf("invalid credentials")
	}
	return domain.Actor{Username: user.Username, Role: user.Role}, nil
}

// ensureOutlet rejects writes addressed to an outlet that does not exist,
// so stock and transactions cannot accumulate under a mistyped outlet id.
func (s *Service) ensureOutlet(ctx context.Context, outletID string) error {
	if _, err := s.repo.GetOutletByID(ctx, outletID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: unknown outlet %s", store.ErrInvalidInput, outletID)
		}
		return err
	}
	return nil
}

// loadCartContext fetches the products and stock snapshot for a normalized
// cart in one pass.
func (s *Service) loadCartContext(ctx context.Context, outletID string, items []domain.CartItem) (map[string]domain.Product, map[string]int, error) {
	skus := make([]string, 0, len(items))
	for _, item := range items {
		skus = append(skus, item.SKU)
	}
	products, err := s.repo.GetProductsBySKUs(ctx, skus)
	if err != nil {
		return nil, nil, err
	}
	stock, err := s.repo.GetStockMap(ctx, outletID, skus)
	if err != nil {
		return nil, nil, err
	}
	return products, stock, nil
}

// priceItems resolves discounts and promos and prices the cart. Promos with
// a minimum-purchase threshold are screened against the undiscounted cart
// subtotal before resolution.
func (s *Service) priceItems(ctx context.Context, items []domain.CartItem, products map[string]domain.Product, now time.Time) (pricing.CartPricing, error) {
	discounts, err := s.repo.ListDiscounts(ctx, false)
	if err != nil {
		return pricing.CartPricing{}, err
	}
	promos, err := s.repo.ListPromos(ctx, false)
	if err != nil {
		return pricing.CartPricing{}, err
	}

	baseSubtotal := int64(0)
	for _, item := range items {
		if product, exists := products[item.SKU]; exists {
			baseSubtotal += int64(item.Qty) * product.PriceCents
		}
	}

	eligible := make([]domain.Promo, 0, len(promos))
	for _, promo := range promos {
		if !pricing.CheckMinimumPurchase(baseSubtotal, promo).Eligible {
			continue
		}
		eligible = append(eligible, promo)
	}

	return pricing.PriceCart(items, products, discounts, eligible, now), nil
}

func (s *Service) verifyManagerPIN(pin string) error {
	if len(s.managerPINHash) == 0 {
		return fmt.Errorf("void disabled: manager PIN not configured")
	}
	if err := bcrypt.CompareHashAndPassword(s.managerPINHash, []byte(pin)); err != nil {
		return fmt.Errorf("invalid manager PIN")
	}
	return nil
}

func (s *Service) invalidateDashboard(ctx context.Context, outletID string) {
	if err := s.dashboards.Invalidate(ctx, dashboardCacheKey(outletID)); err != nil {
		log.Printf("[service] WARN: dashboard cache invalidate failed: %v", err)
	}
}

func (s *Service) logAudit(ctx context.Context, outletID string, action string, entityType string, entityID string, detail string) {
	if outletID == "" {
		outletID = s.defaultOutletID
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		OutletID:      outletID,
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}

func dashboardCacheKey(outletID string) string {
	return "dashboard:" + outletID
}

func validateDiscountTerms(dtype domain.DiscountType, value int64, priceCents int64) error {
	switch dtype {
	case domain.DiscountPercentage:
		if value < 1 || value > 100 {
			return store.ErrInvalidInput
		}
	case domain.DiscountNominal:
		if value < 1 || value >= priceCents {
			return store.ErrInvalidInput
		}
	default:
		return store.ErrInvalidInput
	}
	return nil
}

// normalizeItems uppercases SKUs, drops non-positive quantities, and merges
// duplicate lines, summing quantities and manual discounts.
func normalizeItems(items []domain.CartItem) []domain.CartItem {
	merged := make([]domain.CartItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		sku := strings.ToUpper(strings.TrimSpace(item.SKU))
		if sku == "" || item.Qty < 1 {
			continue
		}
		manual := item.ManualDiscountCents
		if manual < 0 {
			manual = 0
		}
		if at, exists := index[sku]; exists {
			merged[at].Qty += item.Qty
			merged[at].ManualDiscountCents += manual
			continue
		}
		index[sku] = len(merged)
		merged = append(merged, domain.CartItem{SKU: sku, Qty: item.Qty, ManualDiscountCents: manual})
	}
	return merged
}

func toCheckoutResponse(tx *domain.Transaction, duplicate bool) domain.CheckoutResponse {
	itemCount := 0
	for _, item := range tx.Items {
		itemCount += item.Qty
	}
	return domain.CheckoutResponse{
		TransactionID: tx.ID,
		Status:        tx.Status,
		SubtotalCents: tx.SubtotalCents,
		DiscountCents: tx.DiscountCents,
		TotalCents:    tx.TotalCents,
		ItemCount:     itemCount,
		Duplicate:     duplicate,
		CreatedAt:     tx.CreatedAt.UTC().Format(time.RFC3339),
	}
}
