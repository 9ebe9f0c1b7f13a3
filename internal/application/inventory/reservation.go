package inventory

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/supplychain-core/internal/application/ports"
	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/access"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/pkg/tracing"
)

// OrderStockKeys claves stock:<variante>:<vendedor> de las líneas de la orden (sin duplicados, ordenadas).
func OrderStockKeys(order *entity.Order) []string {
	return ports.SortKeys(stockKeys(order.SellerOrgID, orderVariants(order)...))
}

// orderVariants variantes distintas de la orden, ordenadas (las líneas pueden repetir variante).
func orderVariants(order *entity.Order) []string {
	seen := make(map[string]struct{}, len(order.Items))
	out := make([]string, 0, len(order.Items))
	for _, it := range order.Items {
		if _, ok := seen[it.VariantID]; ok {
			continue
		}
		seen[it.VariantID] = struct{}{}
		out = append(out, it.VariantID)
	}
	sort.Strings(out)
	return out
}

func quantityByVariant(order *entity.Order) map[string]int64 {
	out := make(map[string]int64, len(order.Items))
	for _, it := range order.Items {
		out[it.VariantID] += it.Quantity
	}
	return out
}

// ReserveOrderStock asigna en el vendedor lo que falte para cubrir las líneas de una orden
// submitted o approved. Repetirlo no asigna de más.
func (uc *LedgerUseCase) ReserveOrderStock(ctx context.Context, actor entity.Actor, orderID string) (movs []*entity.StockMovement, err error) {
	ctx, end := tracing.Track(ctx, "inventory.ReserveOrderStock", attribute.String("order_id", orderID))
	defer func() { end(err) }()

	order, err := uc.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if err := access.Check(actor, access.ActionReserveStock, access.Subject{Order: order}, uc.policy); err != nil {
		return nil, err
	}
	if !reservable(order.Status) {
		return nil, domain.ErrIllegalTransition
	}

	keys := append([]string{ports.OrderKey(order.ID)}, OrderStockKeys(order)...)
	release, err := uc.locker.Acquire(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer release()

	now := time.Now().UTC()
	err = uc.txRunner.Run(ctx, func(r ports.Repos) error {
		locked, err := r.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domain.ErrNotFound
		}
		if !reservable(locked.Status) {
			return domain.ErrIllegalTransition
		}
		needed := quantityByVariant(locked)
		for _, variant := range orderVariants(locked) {
			key := entity.StockKey{VariantID: variant, OrganizationID: locked.SellerOrgID}
			held, err := allocatedToOrder(ctx, r, key, locked.ID)
			if err != nil {
				return err
			}
			missing := needed[variant] - held
			if missing <= 0 {
				continue
			}
			mov, err := uc.ApplyInTx(ctx, r, MovementInput{
				Kind:           entity.MovementAllocation,
				VariantID:      variant,
				OrganizationID: locked.SellerOrgID,
				Quantity:       missing,
				ReferenceType:  entity.ReferenceOrder,
				ReferenceID:    locked.ID,
				CreatedBy:      actor.UserID,
			}, now)
			if err != nil {
				return err
			}
			movs = append(movs, mov)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movs, nil
}

func reservable(status entity.OrderStatus) bool {
	return status == entity.OrderStatusSubmitted || status == entity.OrderStatusApproved
}

// FulfillOrderInTx registra un order_fulfillment por línea en el vendedor (misma transacción del caller).
// Libera lo que la orden tenga asignado. Idempotente por "fulfill:<orden>:<línea>".
// El caller debe tener tomadas las claves de OrderStockKeys.
func (uc *LedgerUseCase) FulfillOrderInTx(ctx context.Context, r ports.Repos, order *entity.Order, actorID string, now time.Time) ([]*entity.StockMovement, error) {
	movs := make([]*entity.StockMovement, 0, len(order.Items))
	for _, it := range order.Items {
		mov, err := uc.ApplyInTx(ctx, r, MovementInput{
			Kind:           entity.MovementOrderFulfillment,
			VariantID:      it.VariantID,
			OrganizationID: order.SellerOrgID,
			Quantity:       it.Quantity,
			ReferenceType:  entity.ReferenceOrder,
			ReferenceID:    order.ID,
			IdempotencyKey: idempotencyKey("fulfill", order.ID, it.ID),
			CreatedBy:      actorID,
		}, now)
		if err != nil {
			return nil, err
		}
		movs = append(movs, mov)
	}
	return movs, nil
}

// ReleaseOrderInTx libera (order_cancelled) lo que la orden mantenga asignado en el vendedor.
// Idempotente por "cancel:<orden>:<variante>:<org>".
func (uc *LedgerUseCase) ReleaseOrderInTx(ctx context.Context, r ports.Repos, order *entity.Order, actorID string, now time.Time) ([]*entity.StockMovement, error) {
	var movs []*entity.StockMovement
	for _, variant := range orderVariants(order) {
		key := entity.StockKey{VariantID: variant, OrganizationID: order.SellerOrgID}
		held, err := allocatedToOrder(ctx, r, key, order.ID)
		if err != nil {
			return nil, err
		}
		if held == 0 {
			continue
		}
		mov, err := uc.ApplyInTx(ctx, r, MovementInput{
			Kind:           entity.MovementOrderCancelled,
			VariantID:      variant,
			OrganizationID: order.SellerOrgID,
			ReferenceType:  entity.ReferenceOrder,
			ReferenceID:    order.ID,
			IdempotencyKey: idempotencyKey("cancel", order.ID, variant, order.SellerOrgID),
			CreatedBy:      actorID,
		}, now)
		if err != nil {
			return nil, err
		}
		movs = append(movs, mov)
	}
	return movs, nil
}

// HasFulfillment indica si la orden ya tiene movimientos de cumplimiento en el libro.
func HasFulfillment(ctx context.Context, r ports.Repos, orderID string) (bool, error) {
	movs, err := r.Movements.ListByReference(ctx, entity.ReferenceOrder, orderID)
	if err != nil {
		return false, err
	}
	for _, m := range movs {
		if m.Kind == entity.MovementOrderFulfillment {
			return true, nil
		}
	}
	return false, nil
}
