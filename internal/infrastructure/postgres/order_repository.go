package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación de OrderRepository sobre PostgreSQL (orders + order_items).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `
	id, company_id, type, status, buyer_org_id, seller_org_id, parent_order_id, notes,
	created_by, created_at, submitted_at, approved_at, approved_by, closed_at, updated_at`

// Create inserta la cabecera y las líneas.
func (r *OrderRepo) Create(ctx context.Context, order *entity.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		order.ID, order.CompanyID, order.Type, order.Status, order.BuyerOrgID, order.SellerOrgID,
		nullable(order.ParentOrderID), order.Notes, order.CreatedBy, order.CreatedAt,
		order.SubmittedAt, order.ApprovedAt, order.ApprovedBy, order.ClosedAt, order.UpdatedAt,
	)
	if err != nil {
		return mapError("create order", err)
	}
	return r.insertItems(ctx, order.ID, order.Items)
}

// GetByID obtiene la orden con sus líneas; (nil, nil) si no existe.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetForUpdate igual que GetByID pero con SELECT ... FOR UPDATE sobre la cabecera.
func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepo) get(ctx context.Context, query, id string) (*entity.Order, error) {
	order, err := scanOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get order", err)
	}
	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

// Update persiste estado y marcas de tiempo. Las líneas se cambian con ReplaceItems.
func (r *OrderRepo) Update(ctx context.Context, order *entity.Order) error {
	query := `
		UPDATE orders
		SET status = $2, notes = $3, submitted_at = $4, approved_at = $5, approved_by = $6,
		    closed_at = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		order.ID, order.Status, order.Notes, order.SubmittedAt, order.ApprovedAt, order.ApprovedBy,
		order.ClosedAt, order.UpdatedAt,
	)
	if err != nil {
		return mapError("update order", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ReplaceItems borra las líneas actuales e inserta las nuevas.
func (r *OrderRepo) ReplaceItems(ctx context.Context, orderID string, items []entity.OrderItem) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return mapError("delete order items", err)
	}
	return r.insertItems(ctx, orderID, items)
}

// Delete elimina la orden; las líneas caen por ON DELETE CASCADE.
func (r *OrderRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return mapError("delete order", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByStatus lista órdenes en el estado dado, de la más antigua a la más reciente.
func (r *OrderRepo) ListByStatus(ctx context.Context, status entity.OrderStatus, limit int) ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at LIMIT $2`
	rows, err := r.q.Query(ctx, query, status, limitArg(limit))
	if err != nil {
		return nil, mapError("list orders", err)
	}
	var list []*entity.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, mapError("scan order", err)
		}
		list = append(list, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapError("list orders", err)
	}
	// Las líneas se cargan después de cerrar el cursor: una tx no admite dos consultas abiertas.
	for _, o := range list {
		if o.Items, err = r.listItems(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (r *OrderRepo) insertItems(ctx context.Context, orderID string, items []entity.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, it := range items {
		batch.Queue(`
			INSERT INTO order_items (id, order_id, variant_id, quantity, unit_price, position)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			it.ID, orderID, it.VariantID, it.Quantity, it.UnitPrice, i,
		)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range items {
		if _, err := br.Exec(); err != nil {
			return mapError("insert order item", err)
		}
	}
	return nil
}

func (r *OrderRepo) listItems(ctx context.Context, orderID string) ([]entity.OrderItem, error) {
	query := `
		SELECT id, order_id, variant_id, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY position`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, mapError("list order items", err)
	}
	defer rows.Close()

	var items []entity.OrderItem
	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.VariantID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, mapError("scan order item", err)
		}
		items = append(items, it)
	}
	return items, mapError("list order items", rows.Err())
}

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var (
		o      entity.Order
		parent *string
	)
	err := row.Scan(&o.ID, &o.CompanyID, &o.Type, &o.Status, &o.BuyerOrgID, &o.SellerOrgID, &parent, &o.Notes,
		&o.CreatedBy, &o.CreatedAt, &o.SubmittedAt, &o.ApprovedAt, &o.ApprovedBy, &o.ClosedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.ParentOrderID = deref(parent)
	return &o, nil
}
