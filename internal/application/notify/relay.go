// Package notify entrega los eventos del outbox a la capa de notificaciones.
package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/supplychain-core/internal/application/ports"
	"github.com/jhoicas/supplychain-core/internal/domain/repository"
)

// Relay publica eventos pendientes del outbox. La entrega es al menos una vez:
// un evento publicado cuyo MarkPublished falla se vuelve a enviar.
type Relay struct {
	outbox      repository.OutboxRepository
	notifier    ports.Notifier
	log         zerolog.Logger
	BatchSize   int
	MaxAttempts int
	Interval    time.Duration
}

// NewRelay construye el relay con valores por defecto (lote 50, 10 intentos, cada 2s).
func NewRelay(outbox repository.OutboxRepository, notifier ports.Notifier, log zerolog.Logger) *Relay {
	return &Relay{
		outbox:      outbox,
		notifier:    notifier,
		log:         log.With().Str("component", "outbox_relay").Logger(),
		BatchSize:   50,
		MaxAttempts: 10,
		Interval:    2 * time.Second,
	}
}

// Run procesa lotes hasta que ctx se cancele.
func (r *Relay) Run(ctx context.Context) error {
	for {
		if _, err := r.ProcessOnce(ctx); err != nil && ctx.Err() == nil {
			r.log.Error().Err(err).Msg("error leyendo outbox")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.Interval):
		}
	}
}

// ProcessOnce publica un lote y devuelve cuántos eventos quedaron publicados.
func (r *Relay) ProcessOnce(ctx context.Context) (int, error) {
	events, err := r.outbox.ListPending(ctx, r.BatchSize, r.MaxAttempts)
	if err != nil {
		return 0, err
	}
	published := 0
	for _, ev := range events {
		if err := r.notifier.Publish(ctx, ev); err != nil {
			r.log.Warn().Err(err).Str("event_id", ev.ID).Str("topic", ev.Topic).Int("attempts", ev.Attempts+1).
				Msg("no se pudo publicar el evento")
			if markErr := r.outbox.MarkFailed(ctx, ev.ID, err.Error()); markErr != nil {
				return published, markErr
			}
			continue
		}
		if err := r.outbox.MarkPublished(ctx, ev.ID, time.Now().UTC()); err != nil {
			return published, err
		}
		published++
	}
	return published, nil
}
