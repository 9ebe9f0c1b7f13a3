package postgres

import (
	"context"
	"time"

	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/domain/repository"
)

var _ repository.OutboxRepository = (*OutboxRepo)(nil)

// OutboxRepo eventos pendientes de publicación sobre outbox_events.
type OutboxRepo struct {
	q Querier
}

// NewOutboxRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOutboxRepository(q Querier) *OutboxRepo {
	return &OutboxRepo{q: q}
}

func (r *OutboxRepo) Create(ctx context.Context, ev *entity.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (id, topic, aggregate_id, payload, created_at, attempts, last_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, ev.ID, ev.Topic, ev.AggregateID, []byte(ev.Payload), ev.CreatedAt, ev.Attempts, ev.LastError)
	return mapError("create outbox event", err)
}

// ListPending lista eventos no publicados, del más antiguo al más reciente.
func (r *OutboxRepo) ListPending(ctx context.Context, limit, maxAttempts int) ([]*entity.OutboxEvent, error) {
	query := `
		SELECT id, topic, aggregate_id, payload, created_at, published_at, attempts, last_error
		FROM outbox_events
		WHERE published_at IS NULL AND ($2::int <= 0 OR attempts < $2::int)
		ORDER BY created_at
		LIMIT $1`
	rows, err := r.q.Query(ctx, query, limitArg(limit), maxAttempts)
	if err != nil {
		return nil, mapError("list outbox events", err)
	}
	defer rows.Close()

	var list []*entity.OutboxEvent
	for rows.Next() {
		var (
			ev      entity.OutboxEvent
			payload []byte
		)
		if err := rows.Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &payload, &ev.CreatedAt, &ev.PublishedAt,
			&ev.Attempts, &ev.LastError); err != nil {
			return nil, mapError("scan outbox event", err)
		}
		ev.Payload = payload
		list = append(list, &ev)
	}
	return list, mapError("list outbox events", rows.Err())
}

func (r *OutboxRepo) MarkPublished(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE outbox_events SET published_at = $2, attempts = attempts + 1 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, at)
	if err != nil {
		return mapError("mark outbox published", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OutboxRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	query := `UPDATE outbox_events SET attempts = attempts + 1, last_error = $2 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, errMsg)
	if err != nil {
		return mapError("mark outbox failed", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
