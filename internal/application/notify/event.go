package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

// NewEvent construye un evento de outbox con el payload serializado en JSON.
// Se persiste en la misma transacción que el cambio de estado que anuncia.
func NewEvent(topic, aggregateID string, payload any, now time.Time) (*entity.OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("outbox payload %s: %w", topic, err)
	}
	return &entity.OutboxEvent{
		ID:          uuid.New().String(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     raw,
		CreatedAt:   now,
	}, nil
}
