package inventory

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/supplychain-core/internal/application/ports"
	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/access"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/domain/inventory"
	"github.com/jhoicas/supplychain-core/pkg/tracing"
)

// GetPosition devuelve la posición materializada de la clave.
func (uc *LedgerUseCase) GetPosition(ctx context.Context, actor entity.Actor, key entity.StockKey) (*entity.InventoryPosition, error) {
	if key.VariantID == "" || key.OrganizationID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.authorizeLocation(ctx, actor, access.ActionReadStock, key.OrganizationID); err != nil {
		return nil, err
	}
	return uc.repos.Positions.Get(ctx, key)
}

// ListPositions lista las posiciones de una organización.
func (uc *LedgerUseCase) ListPositions(ctx context.Context, actor entity.Actor, orgID string, limit, offset int) ([]*entity.InventoryPosition, error) {
	if orgID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.authorizeLocation(ctx, actor, access.ActionReadStock, orgID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return uc.repos.Positions.ListByOrganization(ctx, orgID, limit, offset)
}

// ListMovements devuelve el historial de la clave en orden del libro.
func (uc *LedgerUseCase) ListMovements(ctx context.Context, actor entity.Actor, key entity.StockKey) ([]*entity.StockMovement, error) {
	if key.VariantID == "" || key.OrganizationID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.authorizeLocation(ctx, actor, access.ActionReadStock, key.OrganizationID); err != nil {
		return nil, err
	}
	return uc.repos.Movements.ListByKey(ctx, key)
}

// RecomputePosition reproduce el libro de la clave y repara la posición si difiere.
// Devuelve la posición resultante y si estaba desviada.
func (uc *LedgerUseCase) RecomputePosition(ctx context.Context, key entity.StockKey) (pos *entity.InventoryPosition, drifted bool, err error) {
	ctx, end := tracing.Track(ctx, "inventory.RecomputePosition",
		attribute.String("variant_id", key.VariantID),
		attribute.String("org_id", key.OrganizationID),
	)
	defer func() { end(err) }()

	release, err := uc.locker.Acquire(ctx, key.String())
	if err != nil {
		return nil, false, err
	}
	defer release()

	err = uc.txRunner.Run(ctx, func(r ports.Repos) error {
		current, err := r.Positions.GetForUpdate(ctx, key)
		if err != nil {
			return err
		}
		movs, err := r.Movements.ListByKey(ctx, key)
		if err != nil {
			return err
		}
		replayed, err := inventory.Replay(key, movs)
		if err != nil {
			return err
		}
		if replayed.SameQuantities(current) {
			pos = current
			return nil
		}
		drifted = true
		replayed.UpdatedAt = time.Now().UTC()
		pos = &replayed
		return r.Positions.Upsert(ctx, pos)
	})
	if err != nil {
		return nil, false, err
	}
	return pos, drifted, nil
}
