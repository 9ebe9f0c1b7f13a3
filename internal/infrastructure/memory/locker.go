package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/supplychain-core/internal/application/ports"
	"github.com/jhoicas/supplychain-core/internal/domain"
)

var _ ports.Locker = (*Locker)(nil)

// DefaultLockWait espera máxima por clave antes de devolver ErrContention.
const DefaultLockWait = 2 * time.Second

// Locker bloqueo por clave dentro del proceso. Cada clave es un canal de capacidad 1 que
// existe mientras alguien lo tenga o lo espere.
type Locker struct {
	mu    sync.Mutex
	slots map[string]*slot
	wait  time.Duration
}

type slot struct {
	ch   chan struct{}
	refs int // dueño + esperando
}

// NewLocker crea un Locker; wait <= 0 usa DefaultLockWait.
func NewLocker(wait time.Duration) *Locker {
	if wait <= 0 {
		wait = DefaultLockWait
	}
	return &Locker{slots: make(map[string]*slot), wait: wait}
}

func (l *Locker) ref(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *Locker) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// Acquire toma las claves en orden ascendente. Si alguna no se obtiene dentro del plazo
// libera las ya tomadas y devuelve domain.ErrContention; si ctx termina antes, el error
// envuelve a la vez ErrContention y ctx.Err().
func (l *Locker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	sorted := ports.SortKeys(keys)
	type heldSlot struct {
		key string
		s   *slot
	}
	held := make([]heldSlot, 0, len(sorted))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i].s.ch
			l.unref(held[i].key, held[i].s)
		}
	}

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	for _, k := range sorted {
		s := l.ref(k)
		select {
		case s.ch <- struct{}{}:
			held = append(held, heldSlot{key: k, s: s})
		case <-timer.C:
			l.unref(k, s)
			release()
			return nil, domain.ErrContention
		case <-ctx.Done():
			l.unref(k, s)
			release()
			return nil, fmt.Errorf("%w: %w", domain.ErrContention, ctx.Err())
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}
