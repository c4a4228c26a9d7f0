package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"tokolaris/backend/internal/domain"
	"tokolaris/backend/internal/ledger"
	"tokolaris/backend/internal/store"
	"tokolaris/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sku, name, category, price_cents, min_stock, active
		FROM products
		WHERE ($1 OR active = true)
		ORDER BY category, name
	`, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.SKU, &p.Name, &p.Category, &p.PriceCents, &p.MinStock, &p.Active); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.SKU == "" || product.Name == "" || product.Category == "" || product.PriceCents < 1 {
		return nil, store.ErrInvalidInput
	}
	if product.MinStock < 0 {
		return nil, store.ErrInvalidInput
	}

	product.Active = true
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (sku, name, category, price_cents, min_stock, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,now(),now())
	`, product.SKU, product.Name, product.Category, product.PriceCents, product.MinStock, product.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	var product domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT sku, name, category, price_cents, min_stock, active
		FROM products
		WHERE sku = $1
	`, sku).Scan(&product.SKU, &product.Name, &product.Category, &product.PriceCents, &product.MinStock, &product.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.SKU == "" || product.Name == "" || product.Category == "" || product.PriceCents < 1 {
		return nil, store.ErrInvalidInput
	}
	if product.MinStock < 0 {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, category = $3, price_cents = $4, min_stock = $5, active = $6, updated_at = now()
		WHERE sku = $1
	`, product.SKU, product.Name, product.Category, product.PriceCents, product.MinStock, product.Active)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := product
	return &updated, nil
}

func (s *Store) GetProductsBySKUs(ctx context.Context, skus []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(skus))
	if len(skus) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sku, name, category, price_cents, min_stock, active
		FROM products
		WHERE active = true AND sku = ANY($1)
	`, skus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.SKU, &p.Name, &p.Category, &p.PriceCents, &p.MinStock, &p.Active); err != nil {
			return nil, err
		}
		result[p.SKU] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// GetStockMap returns quantities for the requested SKUs; a nil skus slice
// returns the outlet's full snapshot. Missing rows count as zero.
func (s *Store) GetStockMap(ctx context.Context, outletID string, skus []string) (map[string]int, error) {
	if skus == nil {
		rows, err := s.db.QueryContext(ctx, `
			SELECT sku, qty
			FROM inventory_stocks
			WHERE outlet_id = $1
		`, outletID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		snapshot := make(map[string]int, 128)
		for rows.Next() {
			var sku string
			var qty int
			if err := rows.Scan(&sku, &qty); err != nil {
				return nil, err
			}
			snapshot[sku] = qty
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return snapshot, nil
	}

	stockMap := make(map[string]int, len(skus))
	if len(skus) == 0 {
		return stockMap, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sku, qty
		FROM inventory_stocks
		WHERE outlet_id = $1 AND sku = ANY($2)
	`, outletID, skus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var sku string
		var qty int
		if err := rows.Scan(&sku, &qty); err != nil {
			return nil, err
		}
		stockMap[sku] = qty
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, sku := range skus {
		if _, ok := stockMap[sku]; !ok {
			stockMap[sku] = 0
		}
	}

	return stockMap, nil
}

func (s *Store) CreateDiscount(ctx context.Context, discount domain.Discount) (*domain.Discount, error) {
	if discount.SKU == "" {
		return nil, store.ErrInvalidInput
	}
	if discount.ID == "" {
		discount.ID = xid.New("disc")
	}
	if discount.CreatedAt.IsZero() {
		discount.CreatedAt = time.Now().UTC()
	}
	discount.Active = true

	// A partial unique index on (sku) WHERE active enforces the single
	// active discount per product.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO discounts (id, sku, type, value, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, discount.ID, discount.SKU, string(discount.Type), discount.Value, discount.Active, discount.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := discount
	return &created, nil
}

func (s *Store) ListDiscounts(ctx context.Context, includeInactive bool) ([]domain.Discount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sku, type, value, active, created_at
		FROM discounts
		WHERE ($1 OR active = true)
		ORDER BY created_at DESC, id
	`, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	discounts := make([]domain.Discount, 0, 32)
	for rows.Next() {
		var d domain.Discount
		var dtype string
		if err := rows.Scan(&d.ID, &d.SKU, &dtype, &d.Value, &d.Active, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Type = domain.DiscountType(dtype)
		d.CreatedAt = d.CreatedAt.UTC()
		discounts = append(discounts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return discounts, nil
}

func (s *Store) UpdateDiscountActive(ctx context.Context, discountID string, active bool) (*domain.Discount, error) {
	var d domain.Discount
	var dtype string
	err := s.db.QueryRowContext(ctx, `
		UPDATE discounts
		SET active = $2
		WHERE id = $1
		RETURNING id, sku, type, value, active, created_at
	`, discountID, active).Scan(&d.ID, &d.SKU, &dtype, &d.Value, &d.Active, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}
	d.Type = domain.DiscountType(dtype)
	d.CreatedAt = d.CreatedAt.UTC()
	return &d, nil
}

func (s *Store) CreatePromo(ctx context.Context, promo domain.Promo) (*domain.Promo, error) {
	if strings.TrimSpace(promo.Name) == "" {
		return nil, store.ErrInvalidInput
	}
	if promo.ID == "" {
		promo.ID = xid.New("promo")
	}
	if promo.CreatedAt.IsZero() {
		promo.CreatedAt = time.Now().UTC()
	}
	promo.Active = true

	skusJSON, err := json.Marshal(promo.SKUs)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO promos (id, name, start_date, end_date, type, value, min_purchase_cents, skus, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, promo.ID, promo.Name, promo.StartDate, promo.EndDate, string(promo.Type), promo.Value, promo.MinPurchaseCents, skusJSON, promo.Active, promo.CreatedAt)
	if err != nil {
		return nil, err
	}

	created := promo
	return &created, nil
}

func (s *Store) ListPromos(ctx context.Context, includeInactive bool) ([]domain.Promo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, start_date, end_date, type, value, min_purchase_cents, skus, active, created_at
		FROM promos
		WHERE ($1 OR active = true)
		ORDER BY created_at DESC, id
	`, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	promos := make([]domain.Promo, 0, 16)
	for rows.Next() {
		promo, err := scanPromo(rows)
		if err != nil {
			return nil, err
		}
		promos = append(promos, *promo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return promos, nil
}

func (s *Store) UpdatePromoActive(ctx context.Context, promoID string, active bool) (*domain.Promo, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE promos
		SET active = $2
		WHERE id = $1
		RETURNING id, name, start_date, end_date, type, value, min_purchase_cents, skus, active, created_at
	`, promoID, active)
	promo, err := scanPromo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return promo, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPromo(row rowScanner) (*domain.Promo, error) {
	var promo domain.Promo
	var ptype string
	var skusJSON []byte
	err := row.Scan(&promo.ID, &promo.Name, &promo.StartDate, &promo.EndDate, &ptype, &promo.Value, &promo.MinPurchaseCents, &skusJSON, &promo.Active, &promo.CreatedAt)
	if err != nil {
		return nil, err
	}
	promo.Type = domain.DiscountType(ptype)
	promo.StartDate = promo.StartDate.UTC()
	promo.EndDate = promo.EndDate.UTC()
	promo.CreatedAt = promo.CreatedAt.UTC()
	if len(skusJSON) > 0 {
		if err := json.Unmarshal(skusJSON, &promo.SKUs); err != nil {
			return nil, err
		}
	}
	return &promo, nil
}

func (s *Store) FindTransactionByIdempotency(ctx context.Context, outletID string, key string) (*domain.Transaction, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id
		FROM transactions
		WHERE outlet_id = $1 AND idempotency_key = $2
	`, outletID, key).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return s.FindTransactionByID(ctx, id)
}

func (s *Store) FindTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var tx domain.Transaction
	var voidReason sql.NullString
	var voidedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, outlet_id, cashier_username, idempotency_key,
			subtotal_cents, discount_cents, total_cents, status,
			void_reason, voided_at, created_at
		FROM transactions
		WHERE id = $1
	`, id).Scan(
		&tx.ID,
		&tx.OutletID,
		&tx.CashierUsername,
		&tx.IdempotencyKey,
		&tx.SubtotalCents,
		&tx.DiscountCents,
		&tx.TotalCents,
		&tx.Status,
		&voidReason,
		&voidedAt,
		&tx.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if voidReason.Valid {
		tx.VoidReason = voidReason.String
	}
	if voidedAt.Valid {
		at := voidedAt.Time.UTC()
		tx.VoidedAt = &at
	}
	tx.CreatedAt = tx.CreatedAt.UTC()

	items, err := s.transactionItems(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	tx.Items = items

	return &tx, nil
}

func (s *Store) transactionItems(ctx context.Context, transactionID string) ([]domain.TransactionItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sku, name, qty, unit_price_cents, discount_cents, total_cents,
			COALESCE(discount_id,''), COALESCE(promo_id,'')
		FROM transaction_items
		WHERE transaction_id = $1
		ORDER BY id ASC
	`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.TransactionItem, 0, 8)
	for rows.Next() {
		var item domain.TransactionItem
		if err := rows.Scan(&item.SKU, &item.Name, &item.Qty, &item.UnitPriceCents, &item.DiscountCents, &item.TotalCents, &item.DiscountID, &item.PromoID); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateCheckout persists an already-priced transaction under a serializable
// transaction: stock rows are locked FOR UPDATE, rechecked, decremented, and
// one "out" ledger movement is written per line. A unique violation on the
// (outlet_id, idempotency_key) index resolves to the stored transaction.
func (s *Store) CreateCheckout(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if tx.IdempotencyKey == "" || tx.OutletID == "" {
		return nil, store.ErrInvalidInput
	}
	if len(tx.Items) == 0 {
		return nil, store.ErrInvalidInput
	}
	if tx.TotalCents != tx.SubtotalCents-tx.DiscountCents || tx.DiscountCents < 0 || tx.TotalCents < 0 {
		return nil, store.ErrInvalidInput
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	skus := uniqueSKUs(tx.Items)
	if len(skus) == 0 {
		return nil, store.ErrInvalidInput
	}

	stockRows, err := pgTx.QueryContext(ctx, `
		SELECT sku, qty
		FROM inventory_stocks
		WHERE outlet_id = $1 AND sku = ANY($2)
		FOR UPDATE
	`, tx.OutletID, skus)
	if err != nil {
		return nil, err
	}
	stockMap := make(map[string]int, len(skus))
	for stockRows.Next() {
		var sku string
		var qty int
		if err := stockRows.Scan(&sku, &qty); err != nil {
			_ = stockRows.Close()
			return nil, err
		}
		stockMap[sku] = qty
	}
	if err := stockRows.Err(); err != nil {
		_ = stockRows.Close()
		return nil, err
	}
	_ = stockRows.Close()

	for _, item := range tx.Items {
		if item.Qty < 1 {
			return nil, store.ErrInvalidInput
		}
		qty, exists := stockMap[item.SKU]
		if !exists || qty < item.Qty {
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

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO transactions (
			id, outlet_id, cashier_username, idempotency_key,
			subtotal_cents, discount_cents, total_cents, status,
			void_reason, voided_at, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, tx.ID, tx.OutletID, tx.CashierUsername, tx.IdempotencyKey,
		tx.SubtotalCents, tx.DiscountCents, tx.TotalCents, tx.Status,
		nullIfEmpty(tx.VoidReason), nullTime(tx.VoidedAt), tx.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := s.FindTransactionByIdempotency(ctx, tx.OutletID, tx.IdempotencyKey)
			if lookupErr == nil {
				return existing, nil
			}
		}
		return nil, err
	}

	for _, item := range tx.Items {
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO transaction_items (transaction_id, sku, name, qty, unit_price_cents, discount_cents, total_cents, discount_id, promo_id)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, tx.ID, item.SKU, item.Name, item.Qty, item.UnitPriceCents, item.DiscountCents, item.TotalCents, nullIfEmpty(item.DiscountID), nullIfEmpty(item.PromoID))
		if err != nil {
			return nil, err
		}

		_, err = pgTx.ExecContext(ctx, `
			UPDATE inventory_stocks
			SET qty = qty - $1, updated_at = now()
			WHERE outlet_id = $2 AND sku = $3
		`, item.Qty, tx.OutletID, item.SKU)
		if err != nil {
			return nil, err
		}

		_, err = pgTx.ExecContext(ctx, `
			INSERT INTO stock_movements (id, outlet_id, sku, type, qty, ref_type, ref_id, note, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, xid.New("mv"), tx.OutletID, item.SKU, string(domain.MovementOut), item.Qty, "transaction", tx.ID, "", tx.CreatedAt)
		if err != nil {
			return nil, err
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	return &tx, nil
}

// VoidTransaction flips a completed transaction to voided, restocks every
// line, and writes one "in" ledger movement per line referencing the void.
func (s *Store) VoidTransaction(ctx context.Context, id string, reason string, at time.Time) (*domain.Transaction, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var outletID string
	var status string
	err = pgTx.QueryRowContext(ctx, `
		SELECT outlet_id, status
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&outletID, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status != domain.TxStatusCompleted {
		return nil, store.ErrInvalidInput
	}

	itemRows, err := pgTx.QueryContext(ctx, `
		SELECT sku, qty
		FROM transaction_items
		WHERE transaction_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	type restockLine struct {
		sku string
		qty int
	}
	lines := make([]restockLine, 0, 8)
	for itemRows.Next() {
		var line restockLine
		if err := itemRows.Scan(&line.sku, &line.qty); err != nil {
			_ = itemRows.Close()
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := itemRows.Err(); err != nil {
		_ = itemRows.Close()
		return nil, err
	}
	_ = itemRows.Close()

	_, err = pgTx.ExecContext(ctx, `
		UPDATE transactions
		SET status = $2, void_reason = $3, voided_at = $4
		WHERE id = $1 AND status = $5
	`, id, domain.TxStatusVoided, reason, at, domain.TxStatusCompleted)
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO inventory_stocks (outlet_id, sku, qty, updated_at)
			VALUES ($1,$2,$3,now())
			ON CONFLICT (outlet_id, sku)
			DO UPDATE SET qty = inventory_stocks.qty + EXCLUDED.qty, updated_at = now()
		`, outletID, line.sku, line.qty)
		if err != nil {
			return nil, err
		}
		_, err = pgTx.ExecContext(ctx, `
			INSERT INTO stock_movements (id, outlet_id, sku, type, qty, ref_type, ref_id, note, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, xid.New("mv"), outletID, line.sku, string(domain.MovementIn), line.qty, "void", id, reason, at)
		if err != nil {
			return nil, err
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	return s.FindTransactionByID(ctx, id)
}

func (s *Store) ListTransactions(ctx context.Context, outletID string, from time.Time, to time.Time, limit int) ([]domain.Transaction, error) {
	if limit < 1 {
		limit = 500
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, outlet_id, cashier_username, idempotency_key,
			subtotal_cents, discount_cents, total_cents, status,
			void_reason, voided_at, created_at
		FROM transactions
		WHERE ($1 = '' OR outlet_id = $1)
			AND ($2::timestamptz IS NULL OR created_at >= $2)
			AND ($3::timestamptz IS NULL OR created_at <= $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`, outletID, nullZeroTime(from), nullZeroTime(to), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0, limit)
	ids := make([]string, 0, limit)
	for rows.Next() {
		var tx domain.Transaction
		var voidReason sql.NullString
		var voidedAt sql.NullTime
		if err := rows.Scan(&tx.ID, &tx.OutletID, &tx.CashierUsername, &tx.IdempotencyKey, &tx.SubtotalCents, &tx.DiscountCents, &tx.TotalCents, &tx.Status, &voidReason, &voidedAt, &tx.CreatedAt); err != nil {
			return nil, err
		}
		if voidReason.Valid {
			tx.VoidReason = voidReason.String
		}
		if voidedAt.Valid {
			at := voidedAt.Time.UTC()
			tx.VoidedAt = &at
		}
		tx.CreatedAt = tx.CreatedAt.UTC()
		transactions = append(transactions, tx)
		ids = append(ids, tx.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return transactions, nil
	}

	itemRows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, sku, name, qty, unit_price_cents, discount_cents, total_cents,
			COALESCE(discount_id,''), COALESCE(promo_id,'')
		FROM transaction_items
		WHERE transaction_id = ANY($1)
		ORDER BY id ASC
	`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	itemsByTx := make(map[string][]domain.TransactionItem, len(ids))
	for itemRows.Next() {
		var txID string
		var item domain.TransactionItem
		if err := itemRows.Scan(&txID, &item.SKU, &item.Name, &item.Qty, &item.UnitPriceCents, &item.DiscountCents, &item.TotalCents, &item.DiscountID, &item.PromoID); err != nil {
			return nil, err
		}
		itemsByTx[txID] = append(itemsByTx[txID], item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	for i := range transactions {
		transactions[i].Items = itemsByTx[transactions[i].ID]
	}

	return transactions, nil
}

// CreateStockMovement records a manual ledger entry and applies its signed
// delta, failing with ErrInsufficientStock when the result would go negative.
func (s *Store) CreateStockMovement(ctx context.Context, movement domain.StockMovement) (*domain.StockMovement, error) {
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

	if movement.ID == "" {
		movement.ID = xid.New("mv")
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now().UTC()
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var exists bool
	if err := pgTx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE sku = $1)`, movement.SKU).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrNotFound
	}

	var qty int
	err = pgTx.QueryRowContext(ctx, `
		SELECT qty
		FROM inventory_stocks
		WHERE outlet_id = $1 AND sku = $2
		FOR UPDATE
	`, movement.OutletID, movement.SKU).Scan(&qty)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	next := qty + ledger.Delta(movement.Qty, movement.Type)
	if next < 0 {
		return nil, store.ErrInsufficientStock
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO inventory_stocks (outlet_id, sku, qty, updated_at)
		VALUES ($1,$2,$3,now())
		ON CONFLICT (outlet_id, sku)
		DO UPDATE SET qty = EXCLUDED.qty, updated_at = now()
	`, movement.OutletID, movement.SKU, next)
	if err != nil {
		return nil, err
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO stock_movements (id, outlet_id, sku, type, qty, ref_type, ref_id, note, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, movement.ID, movement.OutletID, movement.SKU, string(movement.Type), movement.Qty, nullIfEmpty(movement.RefType), nullIfEmpty(movement.RefID), movement.Note, movement.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	created := movement
	return &created, nil
}

// ListStockMovements returns entries in chronological order. The limit keeps
// the most recent rows, so the inner query selects descending and the outer
// query restores ascending order.
func (s *Store) ListStockMovements(ctx context.Context, outletID string, sku string, movementType domain.MovementType, from time.Time, to time.Time, limit int) ([]domain.StockMovement, error) {
	if limit < 1 {
		limit = 500
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, outlet_id, sku, type, qty, COALESCE(ref_type,''), COALESCE(ref_id,''), note, created_at
		FROM (
			SELECT id, outlet_id, sku, type, qty, ref_type, ref_id, note, created_at
			FROM stock_movements
			WHERE ($1 = '' OR outlet_id = $1)
				AND ($2 = '' OR sku = $2)
				AND ($3 = '' OR type = $3)
				AND ($4::timestamptz IS NULL OR created_at >= $4)
				AND ($5::timestamptz IS NULL OR created_at <= $5)
			ORDER BY created_at DESC, id DESC
			LIMIT $6
		) latest
		ORDER BY created_at ASC, id ASC
	`, outletID, sku, string(movementType), nullZeroTime(from), nullZeroTime(to), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]domain.StockMovement, 0, limit)
	for rows.Next() {
		var movement domain.StockMovement
		var mtype string
		if err := rows.Scan(&movement.ID, &movement.OutletID, &movement.SKU, &mtype, &movement.Qty, &movement.RefType, &movement.RefID, &movement.Note, &movement.CreatedAt); err != nil {
			return nil, err
		}
		movement.Type = domain.MovementType(mtype)
		movement.CreatedAt = movement.CreatedAt.UTC()
		movements = append(movements, movement)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movements, nil
}

func (s *Store) CreateOutlet(ctx context.Context, outlet domain.Outlet) (*domain.Outlet, error) {
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outlets (id, name, address, created_at)
		VALUES ($1,$2,$3,$4)
	`, outlet.ID, outlet.Name, outlet.Address, outlet.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := outlet
	return &created, nil
}

func (s *Store) ListOutlets(ctx context.Context) ([]domain.Outlet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, address, created_at
		FROM outlets
		ORDER BY created_at ASC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	outlets := make([]domain.Outlet, 0, 8)
	for rows.Next() {
		var outlet domain.Outlet
		if err := rows.Scan(&outlet.ID, &outlet.Name, &outlet.Address, &outlet.CreatedAt); err != nil {
			return nil, err
		}
		outlet.CreatedAt = outlet.CreatedAt.UTC()
		outlets = append(outlets, outlet)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return outlets, nil
}

func (s *Store) GetOutletByID(ctx context.Context, id string) (*domain.Outlet, error) {
	var outlet domain.Outlet
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, address, created_at
		FROM outlets
		WHERE id = $1
	`, id).Scan(&outlet.ID, &outlet.Name, &outlet.Address, &outlet.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	outlet.CreatedAt = outlet.CreatedAt.UTC()
	return &outlet, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, outlet_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, entry.ID, entry.OutletID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, outletID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, outlet_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE ($1 = '' OR outlet_id = $1)
			AND ($2::timestamptz IS NULL OR created_at >= $2)
			AND ($3::timestamptz IS NULL OR created_at <= $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`, outletID, nullZeroTime(from), nullZeroTime(to), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.OutletID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,true,$4)
	`, username, user.Password, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error) {
	var user domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		WHERE username = $1
	`, strings.ToLower(strings.TrimSpace(username))).Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password = $2
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func uniqueSKUs(items []domain.TransactionItem) []string {
	if len(items) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.SKU == "" {
			continue
		}
		set[item.SKU] = struct{}{}
	}

	skus := make([]string, 0, len(set))
	for sku := range set {
		skus = append(skus, sku)
	}
	return skus
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}

func nullZeroTime(val time.Time) any {
	if val.IsZero() {
		return nil
	}
	return val
}
