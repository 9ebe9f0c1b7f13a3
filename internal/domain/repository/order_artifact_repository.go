package repository

import (
	"context"

	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

// OrderArtifactRepository define el puerto para artefactos QR/lote asociados a una orden.
type OrderArtifactRepository interface {
	Create(ctx context.Context, artifact *entity.OrderArtifact) error
	ListByOrder(ctx context.Context, orderID string) ([]*entity.OrderArtifact, error)
	DeleteNonFinalizedByOrder(ctx context.Context, orderID string) error
}
