package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/supplychain-core/internal/application/notify"
	"github.com/jhoicas/supplychain-core/internal/application/ports"
	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/domain/orderflow"
)

// Pasos de la cadena ejecutados dentro de una transacción. Cada uno es idempotente
// o falla sin efectos, de modo que la reconciliación puede repetirlos.

// createDocumentInTx crea el documento t de la orden. Exige que el predecesor esté reconocido.
func createDocumentInTx(ctx context.Context, r ports.Repos, order *entity.Order, t entity.DocumentType, now time.Time) (*entity.Document, error) {
	existing, err := r.Documents.GetByOrderAndType(ctx, order.ID, t)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s de la orden %s", domain.ErrDuplicateDocument, t, order.ID)
	}
	if prev, ok := orderflow.Predecessor(t); ok {
		p, err := r.Documents.GetByOrderAndType(ctx, order.ID, prev)
		if err != nil {
			return nil, err
		}
		if p == nil || !p.IsAcknowledged() {
			return nil, fmt.Errorf("%w: %s requiere %s reconocido", domain.ErrIllegalTransition, t, prev)
		}
	}

	doc := orderflow.NewDocument(uuid.New().String(), order, t, now)
	if err := r.Documents.Create(ctx, doc); err != nil {
		return nil, err
	}
	if err := emit(ctx, r, entity.TopicDocumentCreated, doc.ID, map[string]any{
		"document_id": doc.ID,
		"order_id":    order.ID,
		"type":        doc.Type,
		"number":      doc.Number,
		"receiver":    doc.ReceiverOrgID,
	}, now); err != nil {
		return nil, err
	}
	return doc, nil
}

// closeInTx cierra la orden (solo desde la cadena de documentos).
func closeInTx(ctx context.Context, r ports.Repos, order *entity.Order, now time.Time) error {
	if err := orderflow.CheckTransition(order.Status, entity.OrderStatusClosed); err != nil {
		return err
	}
	order.Status = entity.OrderStatusClosed
	order.ClosedAt = &now
	order.UpdatedAt = now
	if err := r.Orders.Update(ctx, order); err != nil {
		return err
	}
	return emit(ctx, r, entity.TopicOrderClosed, order.ID, map[string]any{
		"order_id": order.ID,
		"type":     order.Type,
	}, now)
}

func emit(ctx context.Context, r ports.Repos, topic, aggregateID string, payload any, now time.Time) error {
	ev, err := notify.NewEvent(topic, aggregateID, payload, now)
	if err != nil {
		return err
	}
	return r.Outbox.Create(ctx, ev)
}
