package ports

import (
	"context"

	"github.com/jhoicas/supplychain-core/internal/domain/repository"
)

// Repos agrupa los repositorios atados a una misma transacción.
type Repos struct {
	Organizations repository.OrganizationRepository
	Orders        repository.OrderRepository
	Documents     repository.DocumentRepository
	Movements     repository.StockMovementRepository
	Positions     repository.InventoryPositionRepository
	Transfers     repository.StockTransferRepository
	Artifacts     repository.OrderArtifactRepository
	Outbox        repository.OutboxRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback y ningún efecto queda visible.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
	// ReadSnapshot ejecuta fn en una transacción de solo lectura con una instantánea consistente.
	ReadSnapshot(ctx context.Context, fn func(r Repos) error) error
}
