package repository

import (
	"context"

	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia para Order y sus líneas.
// GetByID y GetForUpdate devuelven (nil, nil) si no existe.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	// GetForUpdate bloquea la fila de la orden (SELECT FOR UPDATE) hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Order, error)
	// Update persiste estado y marcas de tiempo (no las líneas).
	Update(ctx context.Context, order *entity.Order) error
	ReplaceItems(ctx context.Context, orderID string, items []entity.OrderItem) error
	// Delete elimina la orden y sus líneas.
	Delete(ctx context.Context, id string) error
	ListByStatus(ctx context.Context, status entity.OrderStatus, limit int) ([]*entity.Order, error)
}
