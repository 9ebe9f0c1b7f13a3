package repository

import (
	"context"

	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

// InventoryPositionRepository define el puerto para la proyección materializada por (variante, organización).
// Get y GetForUpdate devuelven una posición en cero si no existe fila.
type InventoryPositionRepository interface {
	Get(ctx context.Context, key entity.StockKey) (*entity.InventoryPosition, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) para serializar movimientos sobre la misma clave.
	GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.InventoryPosition, error)
	Upsert(ctx context.Context, position *entity.InventoryPosition) error
	ListByOrganization(ctx context.Context, orgID string, limit, offset int) ([]*entity.InventoryPosition, error)
}
