package repository

import (
	"context"
	"time"

	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

// OutboxRepository define el puerto del outbox de notificaciones.
type OutboxRepository interface {
	Create(ctx context.Context, event *entity.OutboxEvent) error
	// ListPending devuelve eventos no publicados con menos de maxAttempts intentos, del más antiguo al más reciente.
	ListPending(ctx context.Context, limit, maxAttempts int) ([]*entity.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
}
