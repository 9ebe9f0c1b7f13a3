// Package redislock implementa ports.Locker con bloqueos distribuidos en Redis.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/supplychain-core/internal/application/ports"
	"github.com/jhoicas/supplychain-core/internal/domain"
)

var _ ports.Locker = (*Locker)(nil)

const (
	defaultWait    = 2 * time.Second
	defaultTTL     = 30 * time.Second
	defaultBackoff = 25 * time.Millisecond
	keyPrefix      = "supplychain:lock:"
)

// Locker toma claves con redislock. El TTL cubre la caída del proceso que tiene el bloqueo.
type Locker struct {
	client  *redislock.Client
	log     zerolog.Logger
	wait    time.Duration
	ttl     time.Duration
	backoff time.Duration
}

// New construye el locker sobre un cliente go-redis. wait <= 0 usa 2s.
func New(rdb redis.UniversalClient, wait time.Duration, log zerolog.Logger) *Locker {
	if wait <= 0 {
		wait = defaultWait
	}
	return &Locker{
		client:  redislock.New(rdb),
		log:     log.With().Str("component", "redislock").Logger(),
		wait:    wait,
		ttl:     defaultTTL,
		backoff: defaultBackoff,
	}
}

// Acquire toma las claves en orden ascendente. Si alguna no se obtiene dentro de la espera,
// libera las ya tomadas y devuelve domain.ErrContention (también si ctx termina antes; el
// error envuelve además ctx.Err()).
func (l *Locker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	sorted := ports.SortKeys(keys)
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	held := make([]*redislock.Lock, 0, len(sorted))
	releaseAll := func() {
		// Se libera con un contexto propio: ctx puede estar cancelado.
		rctx, rcancel := context.WithTimeout(context.Background(), time.Second)
		defer rcancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				l.log.Warn().Err(err).Str("key", held[i].Key()).Msg("no se pudo liberar el bloqueo")
			}
		}
	}

	opts := &redislock.Options{RetryStrategy: redislock.LinearBackoff(l.backoff)}
	for _, k := range sorted {
		lock, err := l.client.Obtain(waitCtx, keyPrefix+k, l.ttl, opts)
		if err != nil {
			releaseAll()
			if ctx.Err() != nil {
				return nil, fmt.Errorf("lock %s: %w: %w", k, domain.ErrContention, ctx.Err())
			}
			if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
				l.log.Debug().Str("key", k).Dur("wait", l.wait).Msg("bloqueo ocupado")
				return nil, fmt.Errorf("lock %s: %w", k, domain.ErrContention)
			}
			return nil, fmt.Errorf("lock %s: %w", k, err)
		}
		held = append(held, lock)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		releaseAll()
	}, nil
}
