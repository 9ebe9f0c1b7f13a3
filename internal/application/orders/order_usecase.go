package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/supplychain-core/internal/application/dto"
	"github.com/jhoicas/supplychain-core/internal/application/inventory"
	"github.com/jhoicas/supplychain-core/internal/application/ports"
	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/access"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/domain/hierarchy"
	"github.com/jhoicas/supplychain-core/internal/domain/orderflow"
	"github.com/jhoicas/supplychain-core/pkg/tracing"
)

// OrderUseCase máquina de estados de la orden: draft -> submitted -> approved -> closed.
// El cierre solo ocurre desde la cadena de documentos.
type OrderUseCase struct {
	txRunner ports.TxRunner
	repos    ports.Repos
	locker   ports.Locker
	ledger   *inventory.LedgerUseCase
	policy   access.Policy
	settings Settings
}

// NewOrderUseCase construye el caso de uso.
func NewOrderUseCase(
	txRunner ports.TxRunner,
	repos ports.Repos,
	locker ports.Locker,
	ledger *inventory.LedgerUseCase,
	policy access.Policy,
	settings Settings,
) *OrderUseCase {
	return &OrderUseCase{
		txRunner: txRunner,
		repos:    repos,
		locker:   locker,
		ledger:   ledger,
		policy:   policy,
		settings: settings,
	}
}

// Create crea una orden en draft. El emparejamiento comprador/vendedor se valida primero.
func (uc *OrderUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateOrderRequest) (order *entity.Order, err error) {
	ctx, end := tracing.Track(ctx, "orders.Create", attribute.String("type", in.Type))
	defer func() { end(err) }()

	orderType := entity.OrderType(strings.ToUpper(in.Type))
	if !orderType.Valid() {
		return nil, domain.ErrInvalidInput
	}
	buyer, err := uc.repos.Organizations.GetByID(ctx, in.BuyerOrgID)
	if err != nil {
		return nil, err
	}
	seller, err := uc.repos.Organizations.GetByID(ctx, in.SellerOrgID)
	if err != nil {
		return nil, err
	}
	if !hierarchy.ValidOrderPairing(orderType, buyer, seller) {
		return nil, fmt.Errorf("%w: %s no admite %s -> %s", domain.ErrInvalidHierarchy, orderType, in.BuyerOrgID, in.SellerOrgID)
	}
	company, err := hierarchy.CompanyOf(ctx, uc.repos.Organizations.GetByID, buyer.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order = &entity.Order{
		ID:            uuid.New().String(),
		CompanyID:     company.ID,
		Type:          orderType,
		Status:        entity.OrderStatusDraft,
		BuyerOrgID:    buyer.ID,
		SellerOrgID:   seller.ID,
		ParentOrderID: in.ParentOrderID,
		Notes:         in.Notes,
		CreatedBy:     actor.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := access.Check(actor, access.ActionCreateOrder, access.Subject{Order: order}, uc.policy); err != nil {
		return nil, err
	}
	items, err := buildItems(order.ID, in.Items)
	if err != nil {
		return nil, err
	}
	order.Items = items

	if order.ParentOrderID != "" {
		parent, err := uc.repos.Orders.GetByID(ctx, order.ParentOrderID)
		if err != nil {
			return nil, err
		}
		if err := checkUpstream(order, parent); err != nil {
			return nil, err
		}
	}

	err = uc.txRunner.Run(ctx, func(r ports.Repos) error {
		return r.Orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Get devuelve la orden si el actor es parte (comprador, vendedor o su compañía).
func (uc *OrderUseCase) Get(ctx context.Context, actor entity.Actor, orderID string) (*entity.Order, error) {
	order, err := uc.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if err := access.Check(actor, access.ActionReadOrder, access.Subject{Order: order}, uc.policy); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateItems reemplaza las líneas de una orden en draft.
func (uc *OrderUseCase) UpdateItems(ctx context.Context, actor entity.Actor, orderID string, in dto.UpdateOrderItemsRequest) (order *entity.Order, err error) {
	ctx, end := tracing.Track(ctx, "orders.UpdateItems", attribute.String("order_id", orderID))
	defer func() { end(err) }()

	release, err := uc.locker.Acquire(ctx, ports.OrderKey(orderID))
	if err != nil {
		return nil, err
	}
	defer release()

	err = uc.txRunner.Run(ctx, func(r ports.Repos) error {
		o, err := lockOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if err := access.Check(actor, access.ActionEditOrder, access.Subject{Order: o}, uc.policy); err != nil {
			return err
		}
		if !orderflow.CanEditItems(o.Status) {
			return fmt.Errorf("%w: la orden está %s", domain.ErrIllegalTransition, o.Status)
		}
		items, err := buildItems(o.ID, in.Items)
		if err != nil {
			return err
		}
		if err := r.Orders.ReplaceItems(ctx, o.ID, items); err != nil {
			return err
		}
		o.Items = items
		o.UpdatedAt = time.Now().UTC()
		order = o
		return r.Orders.Update(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Submit congela las líneas (draft -> submitted). Exige al menos una línea.
func (uc *OrderUseCase) Submit(ctx context.Context, actor entity.Actor, orderID string) (order *entity.Order, err error) {
	ctx, end := tracing.Track(ctx, "orders.Submit", attribute.String("order_id", orderID))
	defer func() { end(err) }()

	release, err := uc.locker.Acquire(ctx, ports.OrderKey(orderID))
	if err != nil {
		return nil, err
	}
	defer release()

	err = uc.txRunner.Run(ctx, func(r ports.Repos) error {
		o, err := lockOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if err := access.Check(actor, access.ActionSubmitOrder, access.Subject{Order: o}, uc.policy); err != nil {
			return err
		}
		if err := orderflow.CheckTransition(o.Status, entity.OrderStatusSubmitted); err != nil {
			return err
		}
		if len(o.Items) == 0 {
			return fmt.Errorf("%w: la orden no tiene líneas", domain.ErrInvalidInput)
		}
		now := time.Now().UTC()
		o.Status = entity.OrderStatusSubmitted
		o.SubmittedAt = &now
		o.UpdatedAt = now
		if err := r.Orders.Update(ctx, o); err != nil {
			return err
		}
		order = o
		return emit(ctx, r, entity.TopicOrderSubmitted, o.ID, map[string]any{
			"order_id":  o.ID,
			"type":      o.Type,
			"seller_id": o.SellerOrgID,
		}, now)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Approve aprueba una orden submitted y crea su PO en la misma transacción.
// Si cualquier verificación falla no hay efectos (ni cambio de estado ni PO).
func (uc *OrderUseCase) Approve(ctx context.Context, actor entity.Actor, orderID string) (order *entity.Order, po *entity.Document, err error) {
	ctx, end := tracing.Track(ctx, "orders.Approve", attribute.String("order_id", orderID))
	defer func() { end(err) }()

	release, err := uc.locker.Acquire(ctx, ports.OrderKey(orderID))
	if err != nil {
		return nil, nil, err
	}
	defer release()

	err = uc.txRunner.Run(ctx, func(r ports.Repos) error {
		o, err := lockOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if err := orderflow.CheckTransition(o.Status, entity.OrderStatusApproved); err != nil {
			return err
		}
		if err := access.Check(actor, access.ActionApproveOrder, access.Subject{Order: o}, uc.policy); err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := uc.checkParentOrder(ctx, r, o, now); err != nil {
			return err
		}

		o.Status = entity.OrderStatusApproved
		o.ApprovedAt = &now
		o.ApprovedBy = actor.UserID
		o.UpdatedAt = now
		if err := r.Orders.Update(ctx, o); err != nil {
			return err
		}
		if err := emit(ctx, r, entity.TopicOrderApproved, o.ID, map[string]any{
			"order_id":    o.ID,
			"approved_by": actor.UserID,
		}, now); err != nil {
			return err
		}
		doc, err := createDocumentInTx(ctx, r, o, entity.DocumentTypePO, now)
		if err != nil {
			return err
		}
		order, po = o, doc
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return order, po, nil
}

// Delete elimina una orden draft o submitted con todas sus dependencias: líneas, documentos,
// artefactos no finalizados y lo asignado en el vendedor. Un artefacto finalizado aborta todo.
func (uc *OrderUseCase) Delete(ctx context.Context, actor entity.Actor, orderID string) (err error) {
	ctx, end := tracing.Track(ctx, "orders.Delete", attribute.String("order_id", orderID))
	defer func() { end(err) }()

	current, err := uc.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if current == nil {
		return domain.ErrNotFound
	}
	if err := access.Check(actor, access.ActionDeleteOrder, access.Subject{Order: current}, uc.policy); err != nil {
		return err
	}

	keys := append([]string{ports.OrderKey(orderID)}, inventory.OrderStockKeys(current)...)
	release, err := uc.locker.Acquire(ctx, keys...)
	if err != nil {
		return err
	}
	defer release()

	return uc.txRunner.Run(ctx, func(r ports.Repos) error {
		o, err := lockOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if !orderflow.CanDelete(o.Status) {
			return fmt.Errorf("%w: no se puede eliminar una orden %s", domain.ErrIllegalTransition, o.Status)
		}
		artifacts, err := r.Artifacts.ListByOrder(ctx, o.ID)
		if err != nil {
			return err
		}
		for _, a := range artifacts {
			if a.Finalized {
				return fmt.Errorf("%w: artefacto %s finalizado referencia la orden", domain.ErrIllegalTransition, a.Code)
			}
		}
		now := time.Now().UTC()
		if _, err := uc.ledger.ReleaseOrderInTx(ctx, r, o, actor.UserID, now); err != nil {
			return err
		}
		if err := r.Artifacts.DeleteNonFinalizedByOrder(ctx, o.ID); err != nil {
			return err
		}
		if err := r.Documents.DeleteByOrder(ctx, o.ID); err != nil {
			return err
		}
		if err := r.Orders.Delete(ctx, o.ID); err != nil {
			return err
		}
		return emit(ctx, r, entity.TopicOrderDeleted, o.ID, map[string]any{
			"order_id":   o.ID,
			"deleted_by": actor.UserID,
		}, now)
	})
}

// checkParentOrder exige que la orden padre (si existe o es obligatoria) esté aprobada o cerrada,
// sea del tipo aguas arriba y esté dentro de la ventana configurada.
func (uc *OrderUseCase) checkParentOrder(ctx context.Context, r ports.Repos, o *entity.Order, now time.Time) error {
	if o.ParentOrderID == "" {
		if _, hasUpstream := hierarchy.UpstreamType(o.Type); hasUpstream && uc.settings.RequireParentOrder {
			return fmt.Errorf("%w: %s requiere orden padre", domain.ErrParentOrderNotApproved, o.Type)
		}
		return nil
	}
	parent, err := r.Orders.GetByID(ctx, o.ParentOrderID)
	if err != nil {
		return err
	}
	if err := checkUpstream(o, parent); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrParentOrderNotApproved, err)
	}
	if !orderflow.SatisfiesDependency(parent.Status) {
		return fmt.Errorf("%w: la orden padre está %s", domain.ErrParentOrderNotApproved, parent.Status)
	}
	if w := uc.settings.ParentOrderWindow; w > 0 && parent.ApprovedAt != nil && now.Sub(*parent.ApprovedAt) > w {
		return fmt.Errorf("%w: la aprobación de la orden padre venció", domain.ErrParentOrderNotApproved)
	}
	return nil
}

// checkUpstream valida que parent sea la orden aguas arriba de o: tipo esperado y
// comprador del padre igual al vendedor de la hija.
func checkUpstream(o, parent *entity.Order) error {
	if parent == nil {
		return fmt.Errorf("%w: orden padre %s no existe", domain.ErrInvalidInput, o.ParentOrderID)
	}
	upstream, ok := hierarchy.UpstreamType(o.Type)
	if !ok || parent.Type != upstream || parent.BuyerOrgID != o.SellerOrgID {
		return fmt.Errorf("%w: la orden %s no puede depender de %s", domain.ErrInvalidInput, o.Type, parent.Type)
	}
	return nil
}

func lockOrder(ctx context.Context, r ports.Repos, orderID string) (*entity.Order, error) {
	o, err := r.Orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func buildItems(orderID string, in []dto.OrderItemRequest) ([]entity.OrderItem, error) {
	items := make([]entity.OrderItem, 0, len(in))
	for _, it := range in {
		if strings.TrimSpace(it.VariantID) == "" || it.Quantity <= 0 || it.UnitPrice.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		items = append(items, entity.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return items, nil
}
