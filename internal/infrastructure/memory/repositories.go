package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/domain/repository"
)

var (
	_ repository.OrganizationRepository      = (*organizationRepo)(nil)
	_ repository.OrderRepository             = (*orderRepo)(nil)
	_ repository.DocumentRepository          = (*documentRepo)(nil)
	_ repository.StockMovementRepository     = (*movementRepo)(nil)
	_ repository.InventoryPositionRepository = (*positionRepo)(nil)
	_ repository.StockTransferRepository     = (*transferRepo)(nil)
	_ repository.OrderArtifactRepository     = (*artifactRepo)(nil)
	_ repository.OutboxRepository            = (*outboxRepo)(nil)
)

// ──────────────────────────────────────────────────────────────────────────────
// Organizaciones
// ──────────────────────────────────────────────────────────────────────────────

type organizationRepo struct{ c *conn }

func (r *organizationRepo) Create(_ context.Context, org *entity.Organization) error {
	st, done := r.c.enter()
	defer done()
	if _, ok := st.orgs[org.ID]; ok {
		return fmt.Errorf("organización %s ya existe", org.ID)
	}
	st.orgs[org.ID] = cloneOrg(org)
	return nil
}

func (r *organizationRepo) GetByID(_ context.Context, id string) (*entity.Organization, error) {
	st, done := r.c.enter()
	defer done()
	o, ok := st.orgs[id]
	if !ok {
		return nil, nil
	}
	return cloneOrg(o), nil
}

func (r *organizationRepo) Update(_ context.Context, org *entity.Organization) error {
	st, done := r.c.enter()
	defer done()
	if _, ok := st.orgs[org.ID]; !ok {
		return domain.ErrNotFound
	}
	st.orgs[org.ID] = cloneOrg(org)
	return nil
}

func (r *organizationRepo) AddDistributorLink(_ context.Context, shopID, distributorID string) error {
	st, done := r.c.enter()
	defer done()
	shop, ok := st.orgs[shopID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, id := range shop.LinkedDistributorIDs {
		if id == distributorID {
			return nil
		}
	}
	shop.LinkedDistributorIDs = append(shop.LinkedDistributorIDs, distributorID)
	return nil
}

func (r *organizationRepo) ListChildren(_ context.Context, parentID string) ([]*entity.Organization, error) {
	st, done := r.c.enter()
	defer done()
	var out []*entity.Organization
	for _, o := range st.orgs {
		if o.ParentID == parentID {
			out = append(out, cloneOrg(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Órdenes
// ──────────────────────────────────────────────────────────────────────────────

type orderRepo struct{ c *conn }

func (r *orderRepo) Create(_ context.Context, order *entity.Order) error {
	st, done := r.c.enter()
	defer done()
	if _, ok := st.orders[order.ID]; ok {
		return fmt.Errorf("orden %s ya existe", order.ID)
	}
	st.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *orderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	st, done := r.c.enter()
	defer done()
	o, ok := st.orders[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(o), nil
}

// GetForUpdate en memoria equivale a GetByID: las transacciones ya están serializadas.
func (r *orderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *orderRepo) Update(_ context.Context, order *entity.Order) error {
	st, done := r.c.enter()
	defer done()
	cur, ok := st.orders[order.ID]
	if !ok {
		return domain.ErrNotFound
	}
	items := cur.Items
	next := cloneOrder(order)
	next.Items = items
	st.orders[order.ID] = next
	return nil
}

func (r *orderRepo) ReplaceItems(_ context.Context, orderID string, items []entity.OrderItem) error {
	st, done := r.c.enter()
	defer done()
	cur, ok := st.orders[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Items = append([]entity.OrderItem(nil), items...)
	return nil
}

func (r *orderRepo) Delete(_ context.Context, id string) error {
	st, done := r.c.enter()
	defer done()
	if _, ok := st.orders[id]; !ok {
		return domain.ErrNotFound
	}
	delete(st.orders, id)
	return nil
}

func (r *orderRepo) ListByStatus(_ context.Context, status entity.OrderStatus, limit int) ([]*entity.Order, error) {
	st, done := r.c.enter()
	defer done()
	var out []*entity.Order
	for _, o := range st.orders {
		if o.Status == status {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return truncate(out, limit), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Documentos
// ──────────────────────────────────────────────────────────────────────────────

type documentRepo struct{ c *conn }

func (r *documentRepo) Create(_ context.Context, doc *entity.Document) error {
	st, done := r.c.enter()
	defer done()
	for _, d := range st.documents {
		if d.OrderID == doc.OrderID && d.Type == doc.Type {
			return domain.ErrDuplicateDocument
		}
	}
	st.documents[doc.ID] = cloneDocument(doc)
	return nil
}

func (r *documentRepo) GetByID(_ context.Context, id string) (*entity.Document, error) {
	st, done := r.c.enter()
	defer done()
	d, ok := st.documents[id]
	if !ok {
		return nil, nil
	}
	return cloneDocument(d), nil
}

func (r *documentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Document, error) {
	return r.GetByID(ctx, id)
}

func (r *documentRepo) GetByOrderAndType(_ context.Context, orderID string, docType entity.DocumentType) (*entity.Document, error) {
	st, done := r.c.enter()
	defer done()
	for _, d := range st.documents {
		if d.OrderID == orderID && d.Type == docType {
			return cloneDocument(d), nil
		}
	}
	return nil, nil
}

func (r *documentRepo) ListByOrder(_ context.Context, orderID string) ([]*entity.Document, error) {
	st, done := r.c.enter()
	defer done()
	var out []*entity.Document
	for _, d := range st.documents {
		if d.OrderID == orderID {
			out = append(out, cloneDocument(d))
		}
	}
	sortDocuments(out)
	return out, nil
}

func (r *documentRepo) Update(_ context.Context, doc *entity.Document) error {
	st, done := r.c.enter()
	defer done()
	if _, ok := st.documents[doc.ID]; !ok {
		return domain.ErrNotFound
	}
	st.documents[doc.ID] = cloneDocument(doc)
	return nil
}

func (r *documentRepo) DeleteByOrder(_ context.Context, orderID string) error {
	st, done := r.c.enter()
	defer done()
	for id, d := range st.documents {
		if d.OrderID == orderID {
			delete(st.documents, id)
		}
	}
	return nil
}

func (r *documentRepo) ListIncomplete(_ context.Context, closeOnReceiptCreated bool, limit int) ([]*entity.Document, error) {
	st, done := r.c.enter()
	defer done()

	types := make(map[string]map[entity.DocumentType]bool)
	for _, d := range st.documents {
		if types[d.OrderID] == nil {
			types[d.OrderID] = make(map[entity.DocumentType]bool)
		}
		types[d.OrderID][d.Type] = true
	}
	fulfilled := make(map[string]bool)
	for _, m := range st.movements {
		if m.Kind == entity.MovementOrderFulfillment && m.ReferenceType == entity.ReferenceOrder {
			fulfilled[m.ReferenceID] = true
		}
	}

	var out []*entity.Document
	for _, d := range st.documents {
		o, ok := st.orders[d.OrderID]
		if !d.IsAcknowledged() || !ok || o.Status != entity.OrderStatusApproved {
			continue
		}
		has := types[d.OrderID]
		var incomplete bool
		switch d.Type {
		case entity.DocumentTypePO:
			incomplete = !has[entity.DocumentTypeInvoice]
		case entity.DocumentTypeInvoice:
			incomplete = !has[entity.DocumentTypePayment]
		case entity.DocumentTypePayment:
			incomplete = closeOnReceiptCreated || !has[entity.DocumentTypeReceipt] || !fulfilled[d.OrderID]
		case entity.DocumentTypeReceipt:
			incomplete = !closeOnReceiptCreated
		}
		if incomplete {
			out = append(out, cloneDocument(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return truncate(out, limit), nil
}

func sortDocuments(docs []*entity.Document) {
	rank := map[entity.DocumentType]int{
		entity.DocumentTypePO:      0,
		entity.DocumentTypeInvoice: 1,
		entity.DocumentTypePayment: 2,
		entity.DocumentTypeReceipt: 3,
	}
	sort.Slice(docs, func(i, j int) bool { return rank[docs[i].Type] < rank[docs[j].Type] })
}

// ──────────────────────────────────────────────────────────────────────────────
// Libro de movimientos (append-only)
// ──────────────────────────────────────────────────────────────────────────────

type movementRepo struct{ c *conn }

func (r *movementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	st, done := r.c.enter()
	defer done()
	if m.IdempotencyKey != "" {
		for _, existing := range st.movements {
			if existing.IdempotencyKey == m.IdempotencyKey {
				return fmt.Errorf("movimiento duplicado %s: %w", m.IdempotencyKey, domain.ErrContention)
			}
		}
	}
	st.seq++
	m.Seq = st.seq
	st.movements = append(st.movements, cloneMovement(m))
	return nil
}

func (r *movementRepo) GetByIdempotencyKey(_ context.Context, key string) (*entity.StockMovement, error) {
	st, done := r.c.enter()
	defer done()
	for _, m := range st.movements {
		if m.IdempotencyKey == key {
			return cloneMovement(m), nil
		}
	}
	return nil, nil
}

func (r *movementRepo) ListByKey(_ context.Context, key entity.StockKey) ([]*entity.StockMovement, error) {
	st, done := r.c.enter()
	defer done()
	var out []*entity.StockMovement
	for _, m := range st.movements {
		if m.Key() == key {
			out = append(out, cloneMovement(m))
		}
	}
	return out, nil
}

func (r *movementRepo) ListByReference(_ context.Context, refType, refID string) ([]*entity.StockMovement, error) {
	st, done := r.c.enter()
	defer done()
	var out []*entity.StockMovement
	for _, m := range st.movements {
		if m.ReferenceType == refType && m.ReferenceID == refID {
			out = append(out, cloneMovement(m))
		}
	}
	return out, nil
}

func (r *movementRepo) ListKeys(_ context.Context) ([]entity.StockKey, error) {
	st, done := r.c.enter()
	defer done()
	return distinctKeys(st.movements, nil), nil
}

func (r *movementRepo) ListStaleKeys(_ context.Context, limit int) ([]entity.StockKey, error) {
	st, done := r.c.enter()
	defer done()
	keys := distinctKeys(st.movements, func(key entity.StockKey, lastSeq int64) bool {
		p, ok := st.positions[key]
		return !ok || p.LastSeq < lastSeq
	})
	return truncate(keys, limit), nil
}

// distinctKeys claves del libro en orden de primera aparición; keep filtra por último Seq.
func distinctKeys(movs []*entity.StockMovement, keep func(entity.StockKey, int64) bool) []entity.StockKey {
	last := make(map[entity.StockKey]int64)
	var order []entity.StockKey
	for _, m := range movs {
		k := m.Key()
		if _, ok := last[k]; !ok {
			order = append(order, k)
		}
		last[k] = m.Seq
	}
	out := make([]entity.StockKey, 0, len(order))
	for _, k := range order {
		if keep == nil || keep(k, last[k]) {
			out = append(out, k)
		}
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Posiciones
// ──────────────────────────────────────────────────────────────────────────────

type positionRepo struct{ c *conn }

func (r *positionRepo) Get(_ context.Context, key entity.StockKey) (*entity.InventoryPosition, error) {
	st, done := r.c.enter()
	defer done()
	if p, ok := st.positions[key]; ok {
		c := *p
		return &c, nil
	}
	return &entity.InventoryPosition{VariantID: key.VariantID, OrganizationID: key.OrganizationID}, nil
}

func (r *positionRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.InventoryPosition, error) {
	return r.Get(ctx, key)
}

func (r *positionRepo) Upsert(_ context.Context, p *entity.InventoryPosition) error {
	st, done := r.c.enter()
	defer done()
	c := *p
	st.positions[p.Key()] = &c
	return nil
}

func (r *positionRepo) ListByOrganization(_ context.Context, orgID string, limit, offset int) ([]*entity.InventoryPosition, error) {
	st, done := r.c.enter()
	defer done()
	var out []*entity.InventoryPosition
	for k, p := range st.positions {
		if k.OrganizationID == orgID {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VariantID < out[j].VariantID })
	if offset >= len(out) {
		return nil, nil
	}
	return truncate(out[offset:], limit), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Traslados
// ──────────────────────────────────────────────────────────────────────────────

type transferRepo struct{ c *conn }

func (r *transferRepo) Create(_ context.Context, t *entity.StockTransfer) error {
	st, done := r.c.enter()
	defer done()
	st.transfers[t.ID] = cloneTransfer(t)
	return nil
}

func (r *transferRepo) GetByID(_ context.Context, id string) (*entity.StockTransfer, error) {
	st, done := r.c.enter()
	defer done()
	t, ok := st.transfers[id]
	if !ok {
		return nil, nil
	}
	return cloneTransfer(t), nil
}

func (r *transferRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error) {
	return r.GetByID(ctx, id)
}

func (r *transferRepo) Update(_ context.Context, t *entity.StockTransfer) error {
	st, done := r.c.enter()
	defer done()
	if _, ok := st.transfers[t.ID]; !ok {
		return domain.ErrNotFound
	}
	st.transfers[t.ID] = cloneTransfer(t)
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Artefactos
// ──────────────────────────────────────────────────────────────────────────────

type artifactRepo struct{ c *conn }

func (r *artifactRepo) Create(_ context.Context, a *entity.OrderArtifact) error {
	st, done := r.c.enter()
	defer done()
	c := *a
	st.artifacts[a.ID] = &c
	return nil
}

func (r *artifactRepo) ListByOrder(_ context.Context, orderID string) ([]*entity.OrderArtifact, error) {
	st, done := r.c.enter()
	defer done()
	var out []*entity.OrderArtifact
	for _, a := range st.artifacts {
		if a.OrderID == orderID {
			c := *a
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *artifactRepo) DeleteNonFinalizedByOrder(_ context.Context, orderID string) error {
	st, done := r.c.enter()
	defer done()
	for id, a := range st.artifacts {
		if a.OrderID == orderID && !a.Finalized {
			delete(st.artifacts, id)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Outbox
// ──────────────────────────────────────────────────────────────────────────────

type outboxRepo struct{ c *conn }

func (r *outboxRepo) Create(_ context.Context, ev *entity.OutboxEvent) error {
	st, done := r.c.enter()
	defer done()
	c := *ev
	st.outbox = append(st.outbox, &c)
	return nil
}

func (r *outboxRepo) ListPending(_ context.Context, limit, maxAttempts int) ([]*entity.OutboxEvent, error) {
	st, done := r.c.enter()
	defer done()
	var out []*entity.OutboxEvent
	for _, ev := range st.outbox {
		if ev.PublishedAt == nil && (maxAttempts <= 0 || ev.Attempts < maxAttempts) {
			c := *ev
			out = append(out, &c)
		}
	}
	return truncate(out, limit), nil
}

func (r *outboxRepo) MarkPublished(_ context.Context, id string, at time.Time) error {
	st, done := r.c.enter()
	defer done()
	for _, ev := range st.outbox {
		if ev.ID == id {
			ev.PublishedAt = &at
			ev.Attempts++
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *outboxRepo) MarkFailed(_ context.Context, id string, errMsg string) error {
	st, done := r.c.enter()
	defer done()
	for _, ev := range st.outbox {
		if ev.ID == id {
			ev.Attempts++
			ev.LastError = errMsg
			return nil
		}
	}
	return domain.ErrNotFound
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
