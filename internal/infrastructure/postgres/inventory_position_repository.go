package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/domain/repository"
)

var _ repository.InventoryPositionRepository = (*InventoryPositionRepo)(nil)

// InventoryPositionRepo proyección materializada sobre inventory_positions.
type InventoryPositionRepo struct {
	q Querier
}

// NewInventoryPositionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryPositionRepository(q Querier) *InventoryPositionRepo {
	return &InventoryPositionRepo{q: q}
}

const positionColumns = `
	variant_id, organization_id, quantity_on_hand, quantity_allocated, average_cost, last_seq, updated_at`

// Get devuelve la posición; en cero si no hay fila.
func (r *InventoryPositionRepo) Get(ctx context.Context, key entity.StockKey) (*entity.InventoryPosition, error) {
	query := `SELECT ` + positionColumns + ` FROM inventory_positions WHERE variant_id = $1 AND organization_id = $2`
	return r.get(ctx, query, key)
}

// GetForUpdate bloquea la fila de la clave. Si aún no existe la inserta en cero primero, para que
// dos transacciones sobre una clave nueva también se serialicen.
func (r *InventoryPositionRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.InventoryPosition, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_positions (variant_id, organization_id, quantity_on_hand, quantity_allocated,
		                                 average_cost, last_seq, updated_at)
		VALUES ($1, $2, 0, 0, 0, 0, now())
		ON CONFLICT (variant_id, organization_id) DO NOTHING`,
		key.VariantID, key.OrganizationID,
	)
	if err != nil {
		return nil, mapError("seed inventory position", err)
	}
	query := `SELECT ` + positionColumns + ` FROM inventory_positions WHERE variant_id = $1 AND organization_id = $2 FOR UPDATE`
	return r.get(ctx, query, key)
}

func (r *InventoryPositionRepo) get(ctx context.Context, query string, key entity.StockKey) (*entity.InventoryPosition, error) {
	p, err := scanPosition(r.q.QueryRow(ctx, query, key.VariantID, key.OrganizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.InventoryPosition{
				VariantID:      key.VariantID,
				OrganizationID: key.OrganizationID,
				AverageCost:    decimal.Zero,
			}, nil
		}
		return nil, mapError("get inventory position", err)
	}
	return p, nil
}

// Upsert inserta o reemplaza la posición.
func (r *InventoryPositionRepo) Upsert(ctx context.Context, p *entity.InventoryPosition) error {
	query := `
		INSERT INTO inventory_positions (` + positionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (variant_id, organization_id) DO UPDATE
		SET quantity_on_hand   = EXCLUDED.quantity_on_hand,
		    quantity_allocated = EXCLUDED.quantity_allocated,
		    average_cost       = EXCLUDED.average_cost,
		    last_seq           = EXCLUDED.last_seq,
		    updated_at         = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		p.VariantID, p.OrganizationID, p.QuantityOnHand, p.QuantityAllocated, p.AverageCost, p.LastSeq, p.UpdatedAt,
	)
	return mapError("upsert inventory position", err)
}

// ListByOrganization lista las posiciones de la organización ordenadas por variante.
func (r *InventoryPositionRepo) ListByOrganization(ctx context.Context, orgID string, limit, offset int) ([]*entity.InventoryPosition, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM inventory_positions
		WHERE organization_id = $1
		ORDER BY variant_id
		LIMIT $2 OFFSET $3`
	if offset < 0 {
		offset = 0
	}
	rows, err := r.q.Query(ctx, query, orgID, limitArg(limit), offset)
	if err != nil {
		return nil, mapError("list inventory positions", err)
	}
	defer rows.Close()

	var list []*entity.InventoryPosition
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, mapError("scan inventory position", err)
		}
		list = append(list, p)
	}
	return list, mapError("list inventory positions", rows.Err())
}

func scanPosition(row pgx.Row) (*entity.InventoryPosition, error) {
	var p entity.InventoryPosition
	err := row.Scan(&p.VariantID, &p.OrganizationID, &p.QuantityOnHand, &p.QuantityAllocated,
		&p.AverageCost, &p.LastSeq, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
