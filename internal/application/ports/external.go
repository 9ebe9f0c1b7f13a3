package ports

import (
	"context"

	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

// Notifier entrega eventos del outbox a la capa de notificaciones (fire-and-forget).
type Notifier interface {
	Publish(ctx context.Context, event *entity.OutboxEvent) error
}

// ProofVerifier comprueba que una referencia de comprobante existe en el almacenamiento externo.
// Devuelve domain.ErrInvalidInput si la referencia no existe.
type ProofVerifier interface {
	Verify(ctx context.Context, ref string) error
}
