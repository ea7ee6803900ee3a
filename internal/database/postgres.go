package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tbelov/order-desk/internal/config"
	"github.com/tbelov/order-desk/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool   *pgxpool.Pool
	tables config.Tables
}

var _ domain.OrderStore = (*Repo)(nil)

func New(pool *pgxpool.Pool, t config.Tables) *Repo { return &Repo{pool: pool, tables: t} }

func Connect(ctx context.Context, dsn string) *pgxpool.Pool {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		panic(err)
	}
	if err := pool.Ping(ctx); err != nil {
		panic(err)
	}
	return pool
}

func (r *Repo) qt(tbl string) string { return fmt.Sprintf(`"%s"."%s"`, r.tables.Schema, tbl) }

// summarySQL aggregates item count and totals per order. Totals are derived
// from items on every read, they are never stored.
func (r *Repo) summarySQL(where string) string {
	return fmt.Sprintf(`
		SELECT o.id, o.reseller_id, o.customer_id, o.status_id, s.name,
		       COUNT(i.id),
		       COALESCE(SUM(i.quantity * p.unit_cost), 0),
		       COALESCE(SUM(i.quantity * p.unit_price), 0),
		       o.created_at
		FROM %s o
		JOIN %s s ON s.id = o.status_id
		LEFT JOIN %s i ON i.order_id = o.id
		LEFT JOIN %s p ON p.id = i.product_id
		%s
		GROUP BY o.id, o.reseller_id, o.customer_id, o.status_id, s.name, o.created_at
		ORDER BY o.created_at DESC
	`, r.qt(r.tables.Order), r.qt(r.tables.Status), r.qt(r.tables.Item), r.qt(r.tables.Product), where)
}

func (r *Repo) ListOrders(ctx context.Context) ([]domain.OrderSummary, error) {
	rows, err := r.pool.Query(ctx, r.summarySQL(""))
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows)
}

func (r *Repo) ListByStatus(ctx context.Context, statusName string) ([]domain.OrderSummary, error) {
	rows, err := r.pool.Query(ctx, r.summarySQL("WHERE lower(s.name) = lower($1)"), statusName)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows)
}

func scanSummaries(rows pgx.Rows) ([]domain.OrderSummary, error) {
	defer rows.Close()

	out := []domain.OrderSummary{}
	for rows.Next() {
		var s domain.OrderSummary
		if err := rows.Scan(&s.ID, &s.ResellerID, &s.CustomerID, &s.StatusID, &s.StatusName,
			&s.ItemCount, &s.TotalCost, &s.TotalPrice, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.OrderDetail, error) {
	var d domain.OrderDetail
	err := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT o.id, o.reseller_id, o.customer_id, o.status_id, s.name, o.created_at
		FROM %s o
		JOIN %s s ON s.id = o.status_id
		WHERE o.id = $1
	`, r.qt(r.tables.Order), r.qt(r.tables.Status)), id).Scan(
		&d.ID, &d.ResellerID, &d.CustomerID, &d.StatusID, &d.StatusName, &d.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT i.id, i.order_id, i.service_id, sv.name, i.product_id, p.name,
		       p.unit_cost, p.unit_price, i.quantity
		FROM %s i
		JOIN %s p ON p.id = i.product_id
		JOIN %s sv ON sv.id = i.service_id
		WHERE i.order_id = $1
		ORDER BY i.line_no
	`, r.qt(r.tables.Item), r.qt(r.tables.Product), r.qt(r.tables.Service)), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ServiceID, &it.ServiceName,
			&it.ProductID, &it.ProductName, &it.UnitCost, &it.UnitPrice, &it.Quantity); err != nil {
			return nil, err
		}
		it.TotalCost = float64(it.Quantity) * it.UnitCost
		it.TotalPrice = float64(it.Quantity) * it.UnitPrice
		d.Items = append(d.Items, it)
		d.TotalCost += it.TotalCost
		d.TotalPrice += it.TotalPrice
	}
	return &d, rows.Err()
}

// UpdateStatus resolves statusName case-insensitively and moves the order in
// one statement. No matching order or no matching status means no mutation
// and false, never an error.
func (r *Repo) UpdateStatus(ctx context.Context, orderID uuid.UUID, statusName string) (bool, error) {
	tag, err := r.pool.Exec(ctx, fmt.Sprintf(`
		UPDATE %s o SET status_id = s.id
		FROM %s s
		WHERE lower(s.name) = lower($2) AND o.id = $1
	`, r.qt(r.tables.Order), r.qt(r.tables.Status)), orderID, statusName)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Create persists the order and all its items in one transaction. Product
// resolution happens inside the transaction so a partial order can never
// become visible. Duplicate-product validation is the workflow's job.
func (r *Repo) Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.OrderDetail, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var statusID uuid.UUID
	var statusName string
	err = tx.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, name FROM %s WHERE lower(name) = lower($1)
	`, r.qt(r.tables.Status)), domain.StatusCreated).Scan(&statusID, &statusName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCreatedStatusMissing
	}
	if err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, len(req.Items))
	for i, it := range req.Items {
		productIDs[i] = it.ProductID
	}
	products, err := resolveProducts(ctx, tx, r.qt(r.tables.Product), productIDs)
	if err != nil {
		return nil, err
	}
	var missing []uuid.UUID
	for _, id := range productIDs {
		if _, ok := products[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.UnknownProductsError{ProductIDs: missing}
	}

	d := &domain.OrderDetail{
		ID:         uuid.New(),
		ResellerID: req.ResellerID,
		CustomerID: req.CustomerID,
		StatusID:   statusID,
		StatusName: statusName,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, reseller_id, customer_id, status_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.qt(r.tables.Order)),
		d.ID, d.ResellerID, d.CustomerID, d.StatusID, d.CreatedAt,
	); err != nil {
		return nil, err
	}

	batch := &pgx.Batch{}
	for pos, line := range req.Items {
		p := products[line.ProductID]
		it := domain.OrderItem{
			ID:          uuid.New(),
			OrderID:     d.ID,
			ServiceID:   p.ServiceID,
			ProductID:   p.ID,
			ProductName: p.Name,
			UnitCost:    p.UnitCost,
			UnitPrice:   p.UnitPrice,
			Quantity:    line.Quantity,
		}
		it.TotalCost = float64(it.Quantity) * it.UnitCost
		it.TotalPrice = float64(it.Quantity) * it.UnitPrice

		batch.Queue(fmt.Sprintf(`
			INSERT INTO %s (id, order_id, product_id, service_id, quantity, line_no)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, r.qt(r.tables.Item)),
			it.ID, it.OrderID, it.ProductID, it.ServiceID, it.Quantity, pos,
		)

		d.Items = append(d.Items, it)
		d.TotalCost += it.TotalCost
		d.TotalPrice += it.TotalPrice
	}
	if br := tx.SendBatch(ctx, batch); br != nil {
		if err := br.Close(); err != nil {
			return nil, err
		}
	}

	// Service names come from a single lookup inside the same transaction;
	// the rest of the detail is assembled from the resolved products.
	if err := fillServiceNames(ctx, tx, r.qt(r.tables.Service), d); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func resolveProducts(ctx context.Context, tx pgx.Tx, productTable string, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	rows, err := tx.Query(ctx, fmt.Sprintf(`
		SELECT id, service_id, name, unit_cost, unit_price FROM %s WHERE id = ANY($1)
	`, productTable), ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]domain.Product, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.ServiceID, &p.Name, &p.UnitCost, &p.UnitPrice); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func fillServiceNames(ctx context.Context, tx pgx.Tx, serviceTable string, d *domain.OrderDetail) error {
	serviceIDs := make([]uuid.UUID, 0, len(d.Items))
	seen := make(map[uuid.UUID]bool, len(d.Items))
	for _, it := range d.Items {
		if !seen[it.ServiceID] {
			seen[it.ServiceID] = true
			serviceIDs = append(serviceIDs, it.ServiceID)
		}
	}

	rows, err := tx.Query(ctx, fmt.Sprintf(`
		SELECT id, name FROM %s WHERE id = ANY($1)
	`, serviceTable), serviceIDs)
	if err != nil {
		return err
	}
	defer rows.Close()

	names := make(map[uuid.UUID]string, len(serviceIDs))
	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return err
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range d.Items {
		d.Items[i].ServiceName = names[d.Items[i].ServiceID]
	}
	return nil
}

func (r *Repo) RecentOrderIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id FROM %s
		ORDER BY created_at DESC
		LIMIT $1
	`, r.qt(r.tables.Order)), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
