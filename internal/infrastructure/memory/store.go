// Package memory implementa los puertos de persistencia en memoria con el mismo contrato
// transaccional que PostgreSQL. Se usa en tests y en entornos sin base de datos.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/supplychain-core/internal/application/ports"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

var _ ports.TxRunner = (*Store)(nil)

// state datos de la tienda. Una transacción trabaja sobre un clon y lo publica en el Commit.
type state struct {
	orgs      map[string]*entity.Organization
	orders    map[string]*entity.Order
	documents map[string]*entity.Document
	movements []*entity.StockMovement
	seq       int64
	positions map[entity.StockKey]*entity.InventoryPosition
	transfers map[string]*entity.StockTransfer
	artifacts map[string]*entity.OrderArtifact
	outbox    []*entity.OutboxEvent
}

func newState() *state {
	return &state{
		orgs:      make(map[string]*entity.Organization),
		orders:    make(map[string]*entity.Order),
		documents: make(map[string]*entity.Document),
		positions: make(map[entity.StockKey]*entity.InventoryPosition),
		transfers: make(map[string]*entity.StockTransfer),
		artifacts: make(map[string]*entity.OrderArtifact),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.orgs {
		c.orgs[k] = cloneOrg(v)
	}
	for k, v := range s.orders {
		c.orders[k] = cloneOrder(v)
	}
	for k, v := range s.documents {
		c.documents[k] = cloneDocument(v)
	}
	// Los movimientos son inmutables: basta copiar el slice.
	c.movements = append([]*entity.StockMovement(nil), s.movements...)
	c.seq = s.seq
	for k, v := range s.positions {
		p := *v
		c.positions[k] = &p
	}
	for k, v := range s.transfers {
		c.transfers[k] = cloneTransfer(v)
	}
	for k, v := range s.artifacts {
		a := *v
		c.artifacts[k] = &a
	}
	c.outbox = make([]*entity.OutboxEvent, 0, len(s.outbox))
	for _, ev := range s.outbox {
		e := *ev
		c.outbox = append(c.outbox, &e)
	}
	return c
}

// Store base de datos en memoria. Las transacciones se serializan con mu; las operaciones
// fuera de transacción también toman mu, por lo que no deben llamarse dentro de Run.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore crea una tienda vacía.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Run ejecuta fn sobre un clon del estado y lo publica solo si fn no devuelve error.
func (s *Store) Run(ctx context.Context, fn func(r ports.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.st.clone()
	if err := fn(reposFor(&conn{tx: tx})); err != nil {
		return err
	}
	s.st = tx
	return nil
}

// ReadSnapshot ejecuta fn sobre un clon descartable del estado confirmado.
func (s *Store) ReadSnapshot(ctx context.Context, fn func(r ports.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	snap := s.st.clone()
	s.mu.Unlock()
	return fn(reposFor(&conn{tx: snap}))
}

// Repos devuelve repositorios que operan directamente sobre el estado confirmado (autocommit).
func (s *Store) Repos() ports.Repos {
	return reposFor(&conn{store: s})
}

// conn estado sobre el que opera un repositorio: el clon de una transacción o el de la tienda.
type conn struct {
	store *Store
	tx    *state
}

// enter devuelve el estado a usar y la función que libera el bloqueo (si lo hubo).
func (c *conn) enter() (*state, func()) {
	if c.tx != nil {
		return c.tx, func() {}
	}
	c.store.mu.Lock()
	return c.store.st, c.store.mu.Unlock
}

func reposFor(c *conn) ports.Repos {
	return ports.Repos{
		Organizations: &organizationRepo{c},
		Orders:        &orderRepo{c},
		Documents:     &documentRepo{c},
		Movements:     &movementRepo{c},
		Positions:     &positionRepo{c},
		Transfers:     &transferRepo{c},
		Artifacts:     &artifactRepo{c},
		Outbox:        &outboxRepo{c},
	}
}

func cloneOrg(o *entity.Organization) *entity.Organization {
	c := *o
	c.LinkedDistributorIDs = append([]string(nil), o.LinkedDistributorIDs...)
	return &c
}

func cloneOrder(o *entity.Order) *entity.Order {
	c := *o
	c.Items = append([]entity.OrderItem(nil), o.Items...)
	return &c
}

func cloneDocument(d *entity.Document) *entity.Document {
	c := *d
	return &c
}

func cloneTransfer(t *entity.StockTransfer) *entity.StockTransfer {
	c := *t
	c.Lines = append([]entity.StockTransferLine(nil), t.Lines...)
	return &c
}

func cloneMovement(m *entity.StockMovement) *entity.StockMovement {
	c := *m
	return &c
}
