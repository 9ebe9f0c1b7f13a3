package repository

import (
	"context"

	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

// StockTransferRepository define el puerto de persistencia para traslados.
type StockTransferRepository interface {
	Create(ctx context.Context, transfer *entity.StockTransfer) error
	GetByID(ctx context.Context, id string) (*entity.StockTransfer, error)
	GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error)
	// Update persiste estado y datos de recepción.
	Update(ctx context.Context, transfer *entity.StockTransfer) error
}
