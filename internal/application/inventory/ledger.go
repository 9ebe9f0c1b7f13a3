package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/supplychain-core/internal/application/ports"
	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/access"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/domain/hierarchy"
	"github.com/jhoicas/supplychain-core/internal/domain/inventory"
	"github.com/jhoicas/supplychain-core/pkg/tracing"
)

// LedgerUseCase registra movimientos en el libro de inventario de forma transaccional:
// bloqueo por clave (Locker) + bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback.
type LedgerUseCase struct {
	txRunner ports.TxRunner
	repos    ports.Repos
	locker   ports.Locker
	policy   access.Policy
}

// NewLedgerUseCase construye el caso de uso. repos son repositorios fuera de transacción (lecturas).
func NewLedgerUseCase(txRunner ports.TxRunner, repos ports.Repos, locker ports.Locker, policy access.Policy) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner: txRunner,
		repos:    repos,
		locker:   locker,
		policy:   policy,
	}
}

// MovementInput entrada de un movimiento.
// Quantity es positiva salvo en adjustment (con signo). Para order_fulfillment y order_cancelled
// lo liberado de allocated se calcula a partir de los movimientos que referencian la orden.
type MovementInput struct {
	Kind           entity.MovementKind
	VariantID      string
	OrganizationID string
	Quantity       int64
	UnitCost       *decimal.Decimal
	ReferenceType  string
	ReferenceID    string
	IdempotencyKey string
	Reason         string
	Notes          string
	CreatedBy      string
}

func (in MovementInput) key() entity.StockKey {
	return entity.StockKey{VariantID: in.VariantID, OrganizationID: in.OrganizationID}
}

// manualKinds tipos que un usuario puede registrar directamente; el resto nace de traslados u órdenes.
var manualKinds = map[entity.MovementKind]bool{
	entity.MovementAddition:     true,
	entity.MovementAdjustment:   true,
	entity.MovementAllocation:   true,
	entity.MovementDeallocation: true,
}

// ApplyMovement registra un movimiento manual (addition, adjustment, allocation, deallocation).
func (uc *LedgerUseCase) ApplyMovement(ctx context.Context, actor entity.Actor, in MovementInput) (mov *entity.StockMovement, err error) {
	ctx, end := tracing.Track(ctx, "inventory.ApplyMovement",
		attribute.String("variant_id", in.VariantID),
		attribute.String("org_id", in.OrganizationID),
		attribute.String("kind", string(in.Kind)),
	)
	defer func() { end(err) }()

	if !manualKinds[in.Kind] || in.VariantID == "" || in.OrganizationID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.authorizeLocation(ctx, actor, access.ActionMoveStock, in.OrganizationID); err != nil {
		return nil, err
	}
	in.CreatedBy = actor.UserID
	in.ReferenceType, in.ReferenceID = entity.ReferenceNone, ""

	release, err := uc.locker.Acquire(ctx, in.key().String())
	if err != nil {
		return nil, err
	}
	defer release()

	now := time.Now().UTC()
	err = uc.txRunner.Run(ctx, func(r ports.Repos) error {
		var txErr error
		mov, txErr = uc.ApplyInTx(ctx, r, in, now)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// ApplyInTx aplica un movimiento usando los repositorios proporcionados (misma transacción del caller).
// El caller debe tener tomada la clave stock:<variante>:<org>. Si IdempotencyKey ya existe en el libro
// devuelve el movimiento existente sin efectos.
func (uc *LedgerUseCase) ApplyInTx(ctx context.Context, r ports.Repos, in MovementInput, now time.Time) (*entity.StockMovement, error) {
	if in.IdempotencyKey != "" {
		existing, err := r.Movements.GetByIdempotencyKey(ctx, in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	key := in.key()
	// Bloquea la fila de la posición (SELECT FOR UPDATE) para serializar con otros movimientos
	pos, err := r.Positions.GetForUpdate(ctx, key)
	if err != nil {
		return nil, err
	}

	var released int64
	if in.Kind == entity.MovementOrderFulfillment || in.Kind == entity.MovementOrderCancelled {
		held, err := allocatedToOrder(ctx, r, key, in.ReferenceID)
		if err != nil {
			return nil, err
		}
		released = min(held, pos.QuantityAllocated)
		if in.Kind == entity.MovementOrderFulfillment {
			released = min(released, in.Quantity)
		}
	}

	onHand, allocated, err := inventory.Deltas(in.Kind, in.Quantity, released)
	if err != nil {
		return nil, err
	}
	mov := &entity.StockMovement{
		ID:              uuid.New().String(),
		Kind:            in.Kind,
		VariantID:       in.VariantID,
		OrganizationID:  in.OrganizationID,
		QuantityChange:  onHand,
		AllocatedChange: allocated,
		QuantityBefore:  pos.QuantityOnHand,
		UnitCost:        in.UnitCost,
		ReferenceType:   in.ReferenceType,
		ReferenceID:     in.ReferenceID,
		IdempotencyKey:  in.IdempotencyKey,
		Reason:          in.Reason,
		Notes:           in.Notes,
		CreatedBy:       in.CreatedBy,
		CreatedAt:       now,
	}
	next, err := inventory.Apply(*pos, mov)
	if err != nil {
		return nil, err
	}
	mov.QuantityAfter = next.QuantityOnHand

	// Guarda el registro en el libro (asigna Seq) y luego la proyección
	if err := r.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	next.LastSeq = mov.Seq
	next.UpdatedAt = now
	if err := r.Positions.Upsert(ctx, &next); err != nil {
		return nil, err
	}
	return mov, nil
}

// allocatedToOrder suma lo asignado que aún mantiene la orden sobre la clave.
func allocatedToOrder(ctx context.Context, r ports.Repos, key entity.StockKey, orderID string) (int64, error) {
	if orderID == "" {
		return 0, nil
	}
	movs, err := r.Movements.ListByReference(ctx, entity.ReferenceOrder, orderID)
	if err != nil {
		return 0, err
	}
	var held int64
	for _, m := range movs {
		if m.Key() == key {
			held += m.AllocatedChange
		}
	}
	return max(held, 0), nil
}

// authorizeLocation resuelve la compañía de la ubicación y evalúa la acción.
func (uc *LedgerUseCase) authorizeLocation(ctx context.Context, actor entity.Actor, action access.Action, orgID string) error {
	company, err := hierarchy.CompanyOf(ctx, uc.repos.Organizations.GetByID, orgID)
	if err != nil {
		return err
	}
	return access.Check(actor, action, access.Subject{LocationOrgID: orgID, CompanyID: company.ID}, uc.policy)
}

func stockKeys(orgID string, variantIDs ...string) []string {
	keys := make([]string, 0, len(variantIDs))
	for _, v := range variantIDs {
		keys = append(keys, entity.StockKey{VariantID: v, OrganizationID: orgID}.String())
	}
	return keys
}

// idempotencyKey une las partes con ":" ("fulfill:<orden>:<línea>").
func idempotencyKey(parts ...string) string {
	return strings.Join(parts, ":")
}
