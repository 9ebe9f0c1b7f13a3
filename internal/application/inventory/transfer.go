package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/supplychain-core/internal/application/notify"
	"github.com/jhoicas/supplychain-core/internal/application/ports"
	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/access"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/domain/hierarchy"
	"github.com/jhoicas/supplychain-core/pkg/tracing"
)

// TransferLineInput línea de un traslado. Sin UnitCost se usa el costo promedio del origen.
type TransferLineInput struct {
	VariantID string
	Quantity  int64
	UnitCost  *decimal.Decimal
}

// CreateTransferInput entrada para crear un traslado entre organizaciones de la misma compañía.
type CreateTransferInput struct {
	FromOrgID string
	ToOrgID   string
	Lines     []TransferLineInput
	Notes     string
}

// CreateTransfer registra un transfer_out por línea en el origen y deja el traslado en pending.
// Hasta la recepción el stock no figura en el on-hand de ninguna de las dos ubicaciones.
func (uc *LedgerUseCase) CreateTransfer(ctx context.Context, actor entity.Actor, in CreateTransferInput) (transfer *entity.StockTransfer, err error) {
	ctx, end := tracing.Track(ctx, "inventory.CreateTransfer",
		attribute.String("from_org_id", in.FromOrgID),
		attribute.String("to_org_id", in.ToOrgID),
	)
	defer func() { end(err) }()

	if in.FromOrgID == "" || in.ToOrgID == "" || in.FromOrgID == in.ToOrgID || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	variants := make([]string, 0, len(in.Lines))
	for _, l := range in.Lines {
		if l.VariantID == "" || l.Quantity <= 0 || (l.UnitCost != nil && l.UnitCost.IsNegative()) {
			return nil, domain.ErrInvalidInput
		}
		variants = append(variants, l.VariantID)
	}

	// Origen y destino deben pertenecer a la misma compañía
	fromCompany, err := hierarchy.CompanyOf(ctx, uc.repos.Organizations.GetByID, in.FromOrgID)
	if err != nil {
		return nil, err
	}
	toCompany, err := hierarchy.CompanyOf(ctx, uc.repos.Organizations.GetByID, in.ToOrgID)
	if err != nil {
		return nil, err
	}
	if fromCompany.ID != toCompany.ID {
		return nil, domain.ErrInvalidHierarchy
	}
	if err := access.Check(actor, access.ActionMoveStock,
		access.Subject{LocationOrgID: in.FromOrgID, CompanyID: fromCompany.ID}, uc.policy); err != nil {
		return nil, err
	}

	release, err := uc.locker.Acquire(ctx, stockKeys(in.FromOrgID, variants...)...)
	if err != nil {
		return nil, err
	}
	defer release()

	now := time.Now().UTC()
	transfer = &entity.StockTransfer{
		ID:        uuid.New().String(),
		FromOrgID: in.FromOrgID,
		ToOrgID:   in.ToOrgID,
		Status:    entity.TransferStatusPending,
		Notes:     in.Notes,
		CreatedBy: actor.UserID,
		CreatedAt: now,
	}
	err = uc.txRunner.Run(ctx, func(r ports.Repos) error {
		transfer.Lines = make([]entity.StockTransferLine, 0, len(in.Lines))
		for _, l := range in.Lines {
			line := entity.StockTransferLine{
				ID:         uuid.New().String(),
				TransferID: transfer.ID,
				VariantID:  l.VariantID,
				Quantity:   l.Quantity,
				UnitCost:   l.UnitCost,
			}
			if line.UnitCost == nil {
				pos, err := r.Positions.Get(ctx, entity.StockKey{VariantID: l.VariantID, OrganizationID: in.FromOrgID})
				if err != nil {
					return err
				}
				if pos.AverageCost.IsPositive() {
					cost := pos.AverageCost
					line.UnitCost = &cost
				}
			}
			if _, err := uc.ApplyInTx(ctx, r, MovementInput{
				Kind:           entity.MovementTransferOut,
				VariantID:      l.VariantID,
				OrganizationID: in.FromOrgID,
				Quantity:       l.Quantity,
				ReferenceType:  entity.ReferenceTransfer,
				ReferenceID:    transfer.ID,
				IdempotencyKey: idempotencyKey("transfer_out", transfer.ID, line.ID),
				CreatedBy:      actor.UserID,
			}, now); err != nil {
				return err
			}
			transfer.Lines = append(transfer.Lines, line)
		}
		return r.Transfers.Create(ctx, transfer)
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// ReceiveTransfer registra un transfer_in por línea en el destino. Recibir un traslado ya recibido
// devuelve su estado sin efectos.
func (uc *LedgerUseCase) ReceiveTransfer(ctx context.Context, actor entity.Actor, transferID string) (transfer *entity.StockTransfer, err error) {
	ctx, end := tracing.Track(ctx, "inventory.ReceiveTransfer", attribute.String("transfer_id", transferID))
	defer func() { end(err) }()

	current, err := uc.repos.Transfers.GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}
	if err := uc.authorizeLocation(ctx, actor, access.ActionMoveStock, current.ToOrgID); err != nil {
		return nil, err
	}
	if current.Status == entity.TransferStatusReceived {
		return current, nil
	}

	variants := make([]string, 0, len(current.Lines))
	for _, l := range current.Lines {
		variants = append(variants, l.VariantID)
	}
	release, err := uc.locker.Acquire(ctx, stockKeys(current.ToOrgID, variants...)...)
	if err != nil {
		return nil, err
	}
	defer release()

	now := time.Now().UTC()
	err = uc.txRunner.Run(ctx, func(r ports.Repos) error {
		t, err := r.Transfers.GetForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		transfer = t
		if t.Status == entity.TransferStatusReceived {
			return nil
		}
		for _, l := range t.Lines {
			if _, err := uc.ApplyInTx(ctx, r, MovementInput{
				Kind:           entity.MovementTransferIn,
				VariantID:      l.VariantID,
				OrganizationID: t.ToOrgID,
				Quantity:       l.Quantity,
				UnitCost:       l.UnitCost,
				ReferenceType:  entity.ReferenceTransfer,
				ReferenceID:    t.ID,
				IdempotencyKey: idempotencyKey("transfer_in", t.ID, l.ID),
				CreatedBy:      actor.UserID,
			}, now); err != nil {
				return err
			}
		}
		t.Status = entity.TransferStatusReceived
		t.ReceivedBy = actor.UserID
		t.ReceivedAt = &now
		if err := r.Transfers.Update(ctx, t); err != nil {
			return err
		}
		ev, err := notify.NewEvent(entity.TopicTransferReceived, t.ID, map[string]any{
			"transfer_id": t.ID,
			"from_org_id": t.FromOrgID,
			"to_org_id":   t.ToOrgID,
		}, now)
		if err != nil {
			return err
		}
		return r.Outbox.Create(ctx, ev)
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}
