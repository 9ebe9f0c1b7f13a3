package entity

import (
	"encoding/json"
	"time"
)

// Tópicos de eventos publicados a la capa de notificaciones.
const (
	TopicOrderSubmitted       = "order.submitted"
	TopicOrderApproved        = "order.approved"
	TopicOrderClosed          = "order.closed"
	TopicOrderDeleted         = "order.deleted"
	TopicDocumentCreated      = "document.created"
	TopicDocumentAcknowledged = "document.acknowledged"
	TopicTransferReceived     = "transfer.received"
)

// OutboxEvent evento escrito en la misma transacción que el cambio de estado que anuncia.
// El relay lo publica después (fire-and-forget desde el punto de vista del núcleo).
type OutboxEvent struct {
	ID          string
	Topic       string
	AggregateID string
	Payload     json.RawMessage
	CreatedAt   time.Time
	PublishedAt *time.Time
	Attempts    int
	LastError   string
}
