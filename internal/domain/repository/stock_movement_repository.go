package repository

import (
	"context"

	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

// StockMovementRepository define el puerto del libro de movimientos (append-only: no hay Update ni Delete).
type StockMovementRepository interface {
	// Create inserta el movimiento y asigna Seq.
	Create(ctx context.Context, movement *entity.StockMovement) error
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.StockMovement, error)
	// ListByKey devuelve los movimientos de la clave en orden del libro (Seq ascendente).
	ListByKey(ctx context.Context, key entity.StockKey) ([]*entity.StockMovement, error)
	ListByReference(ctx context.Context, refType, refID string) ([]*entity.StockMovement, error)
	ListKeys(ctx context.Context) ([]entity.StockKey, error)
	// ListStaleKeys devuelve claves cuyo último Seq en el libro supera el LastSeq de la posición materializada.
	ListStaleKeys(ctx context.Context, limit int) ([]entity.StockKey, error)
}
