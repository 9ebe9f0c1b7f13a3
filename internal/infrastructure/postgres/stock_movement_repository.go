package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo libro append-only sobre stock_movements. Seq lo asigna la secuencia BIGSERIAL.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `
	seq, id, kind, variant_id, organization_id, quantity_change, allocated_change,
	quantity_before, quantity_after, unit_cost, reference_type, reference_id,
	COALESCE(idempotency_key, ''), reason, notes, created_by, created_at`

// Create inserta el movimiento y asigna m.Seq.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, kind, variant_id, organization_id, quantity_change, allocated_change,
		                             quantity_before, quantity_after, unit_cost, reference_type, reference_id,
		                             idempotency_key, reason, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.Kind, m.VariantID, m.OrganizationID, m.QuantityChange, m.AllocatedChange,
		m.QuantityBefore, m.QuantityAfter, m.UnitCost, m.ReferenceType, m.ReferenceID,
		nullable(m.IdempotencyKey), m.Reason, m.Notes, m.CreatedBy, m.CreatedAt,
	).Scan(&m.Seq)
	return mapError("create stock movement", err)
}

// GetByIdempotencyKey devuelve el movimiento con esa clave; (nil, nil) si no existe.
func (r *StockMovementRepo) GetByIdempotencyKey(ctx context.Context, key string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE idempotency_key = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get stock movement", err)
	}
	return m, nil
}

// ListByKey devuelve los movimientos de la clave por Seq ascendente.
func (r *StockMovementRepo) ListByKey(ctx context.Context, key entity.StockKey) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE variant_id = $1 AND organization_id = $2
		ORDER BY seq`
	return r.list(ctx, query, key.VariantID, key.OrganizationID)
}

// ListByReference devuelve los movimientos que referencian la entidad dada.
func (r *StockMovementRepo) ListByReference(ctx context.Context, refType, refID string) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE reference_type = $1 AND reference_id = $2
		ORDER BY seq`
	return r.list(ctx, query, refType, refID)
}

// ListKeys devuelve todas las claves con al menos un movimiento.
func (r *StockMovementRepo) ListKeys(ctx context.Context) ([]entity.StockKey, error) {
	query := `
		SELECT DISTINCT variant_id, organization_id::text
		FROM stock_movements
		ORDER BY variant_id, organization_id`
	return r.listKeys(ctx, query)
}

// ListStaleKeys devuelve claves cuya posición no existe o quedó detrás del libro.
func (r *StockMovementRepo) ListStaleKeys(ctx context.Context, limit int) ([]entity.StockKey, error) {
	query := `
		SELECT m.variant_id, m.organization_id::text
		FROM (
			SELECT variant_id, organization_id, MAX(seq) AS last_seq
			FROM stock_movements
			GROUP BY variant_id, organization_id
		) m
		LEFT JOIN inventory_positions p
		       ON p.variant_id = m.variant_id AND p.organization_id = m.organization_id
		WHERE p.last_seq IS NULL OR p.last_seq < m.last_seq
		ORDER BY m.variant_id, m.organization_id
		LIMIT $1`
	return r.listKeys(ctx, query, limitArg(limit))
}

func (r *StockMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list stock movements", err)
	}
	defer rows.Close()

	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, mapError("scan stock movement", err)
		}
		list = append(list, m)
	}
	return list, mapError("list stock movements", rows.Err())
}

func (r *StockMovementRepo) listKeys(ctx context.Context, query string, args ...any) ([]entity.StockKey, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list stock keys", err)
	}
	defer rows.Close()

	var keys []entity.StockKey
	for rows.Next() {
		var k entity.StockKey
		if err := rows.Scan(&k.VariantID, &k.OrganizationID); err != nil {
			return nil, mapError("scan stock key", err)
		}
		keys = append(keys, k)
	}
	return keys, mapError("list stock keys", rows.Err())
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	err := row.Scan(&m.Seq, &m.ID, &m.Kind, &m.VariantID, &m.OrganizationID, &m.QuantityChange, &m.AllocatedChange,
		&m.QuantityBefore, &m.QuantityAfter, &m.UnitCost, &m.ReferenceType, &m.ReferenceID,
		&m.IdempotencyKey, &m.Reason, &m.Notes, &m.CreatedBy, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
