package orders_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/supplychain-core/internal/application/dto"
	"github.com/jhoicas/supplychain-core/internal/application/orders"
	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Create / emparejamiento
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_EmparejamientoInvalido(t *testing.T) {
	n := nuevaRed(t, orders.DefaultSettings())
	ctx := context.Background()

	tests := []struct {
		name  string
		actor entity.Actor
		req   dto.CreateOrderRequest
	}{
		{"H2M con vendedor distribuidor", actor(n.hq, entity.RoleLevelStaff),
			dto.CreateOrderRequest{Type: "H2M", BuyerOrgID: n.hq.ID, SellerOrgID: n.dist.ID, Items: []dto.OrderItemRequest{item("A", 1)}}},
		{"S2D con la HQ como vendedor", actor(n.shop, entity.RoleLevelStaff),
			dto.CreateOrderRequest{Type: "S2D", BuyerOrgID: n.shop.ID, SellerOrgID: n.hq.ID, Items: []dto.OrderItemRequest{item("A", 1)}}},
		{"comprador inexistente", actor(n.hq, entity.RoleLevelStaff),
			dto.CreateOrderRequest{Type: "H2M", BuyerOrgID: uuid.NewString(), SellerOrgID: n.mfr.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.orders.Create(ctx, tt.actor, tt.req)
			assert.ErrorIs(t, err, domain.ErrInvalidHierarchy)
		})
	}
}

func TestCreate_S2DConDistribuidorNoVinculado(t *testing.T) {
	n := nuevaRed(t, orders.DefaultSettings())
	ctx := context.Background()
	other := n.org(t, entity.OrgTypeDistributor, n.hq.ID)

	_, err := n.orders.Create(ctx, actor(n.shop, entity.RoleLevelStaff), dto.CreateOrderRequest{
		Type: "S2D", BuyerOrgID: n.shop.ID, SellerOrgID: other.ID, Items: []dto.OrderItemRequest{item("A", 1)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidHierarchy)

	require.NoError(t, n.repos.Organizations.AddDistributorLink(ctx, n.shop.ID, other.ID))
	o, err := n.orders.Create(ctx, actor(n.shop, entity.RoleLevelStaff), dto.CreateOrderRequest{
		Type: "S2D", BuyerOrgID: n.shop.ID, SellerOrgID: other.ID, Items: []dto.OrderItemRequest{item("A", 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, n.hq.ID, o.CompanyID)
	assert.Equal(t, entity.OrderStatusDraft, o.Status)
}

func TestCreate_SoloDesdeElComprador(t *testing.T) {
	n := nuevaRed(t, orders.DefaultSettings())
	_, err := n.orders.Create(context.Background(), actor(n.mfr, entity.RoleLevelSuperAdmin), dto.CreateOrderRequest{
		Type: "H2M", BuyerOrgID: n.hq.ID, SellerOrgID: n.mfr.ID, Items: []dto.OrderItemRequest{item("A", 1)},
	})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

// ──────────────────────────────────────────────────────────────────────────────
// Submit / UpdateItems
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmit_SinLineasFalla(t *testing.T) {
	n := nuevaRed(t, orders.DefaultSettings())
	ctx := context.Background()
	buyer := actor(n.hq, entity.RoleLevelStaff)
	o, err := n.orders.Create(ctx, buyer, dto.CreateOrderRequest{Type: "H2M", BuyerOrgID: n.hq.ID, SellerOrgID: n.mfr.ID})
	require.NoError(t, err)

	_, err = n.orders.Submit(ctx, buyer, o.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateItems_CongeladasTrasSubmit(t *testing.T) {
	n := nuevaRed(t, orders.DefaultSettings())
	ctx := context.Background()
	buyer := actor(n.hq, entity.RoleLevelStaff)
	o, err := n.orders.Create(ctx, buyer, dto.CreateOrderRequest{
		Type: "H2M", BuyerOrgID: n.hq.ID, SellerOrgID: n.mfr.ID, Items: []dto.OrderItemRequest{item("A", 1)},
	})
	require.NoError(t, err)

	o, err = n.orders.UpdateItems(ctx, buyer, o.ID, dto.UpdateOrderItemsRequest{Items: []dto.OrderItemRequest{item("A", 2), item("B", 3)}})
	require.NoError(t, err)
	assert.Len(t, o.Items, 2)

	_, err = n.orders.Submit(ctx, buyer, o.ID)
	require.NoError(t, err)
	_, err = n.orders.UpdateItems(ctx, buyer, o.ID, dto.UpdateOrderItemsRequest{Items: []dto.OrderItemRequest{item("A", 9)}})
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	got, err := n.repos.Orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
}

// ──────────────────────────────────────────────────────────────────────────────
// Approve
// ──────────────────────────────────────────────────────────────────────────────

func TestApprove_NoEnviadaNoCreaPO(t *testing.T) {
	n := nuevaRed(t, orders.DefaultSettings())
	ctx := context.Background()
	o, err := n.orders.Create(ctx, actor(n.hq, entity.RoleLevelStaff), dto.CreateOrderRequest{
		Type: "H2M", BuyerOrgID: n.hq.ID, SellerOrgID: n.mfr.ID, Items: []dto.OrderItemRequest{item("A", 1)},
	})
	require.NoError(t, err)

	_, _, err = n.orders.Approve(ctx, actor(n.hq, entity.RoleLevelPowerUser), o.ID)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	docs, err := n.repos.Documents.ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
	got, err := n.repos.Orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusDraft, got.Status)
	assert.Equal(t, 0, n.eventos(t, entity.TopicOrderApproved))
}

func TestApprove_YaAprobadaFalla(t *testing.T) {
	n := nuevaRed(t, orders.DefaultSettings())
	ctx := context.Background()
	o, _ := n.aprobadaH2M(t, item("A", 1))

	_, _, err := n.orders.Approve(ctx, actor(n.hq, entity.RoleLevelPowerUser), o.ID)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	docs, err := n.repos.Documents.ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestApprove_OrganizacionYNivel(t *testing.T) {
	n := nuevaRed(t, orders.DefaultSettings())
	ctx := context.Background()
	o := n.ordenH2M(t, item("A", 1))

	_, _, err := n.orders.Approve(ctx, actor(n.hq, entity.RoleLevelManager), o.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	// H2M la aprueba la HQ compradora, no el fabricante.
	_, _, err = n.orders.Approve(ctx, actor(n.mfr, entity.RoleLevelSuperAdmin), o.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	got, err := n.repos.Orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusSubmitted, got.Status)
	assert.Equal(t, 0, n.eventos(t, entity.TopicOrderApproved))
}

// ──────────────────────────────────────────────────────────────────────────────
// Orden padre
// ──────────────────────────────────────────────────────────────────────────────

func (n *red) ordenD2H(t *testing.T, parentID string) *entity.Order {
	t.Helper()
	ctx := context.Background()
	buyer := actor(n.dist, entity.RoleLevelStaff)
	o, err := n.orders.Create(ctx, buyer, dto.CreateOrderRequest{
		Type: "D2H", BuyerOrgID: n.dist.ID, SellerOrgID: n.hq.ID, ParentOrderID: parentID,
		Items: []dto.OrderItemRequest{item("A", 1)},
	})
	require.NoError(t, err)
	o, err = n.orders.Submit(ctx, buyer, o.ID)
	require.NoError(t, err)
	return o
}

func TestApprove_OrdenPadreNoAprobada(t *testing.T) {
	n := nuevaRed(t, orders.DefaultSettings())
	ctx := context.Background()
	parent := n.ordenH2M(t, item("A", 5))
	child := n.ordenD2H(t, parent.ID)
	approver := actor(n.hq, entity.RoleLevelPowerUser)

	_, _, err := n.orders.Approve(ctx, approver, child.ID)
	assert.ErrorIs(t, err, domain.ErrParentOrderNotApproved)

	_, _, err = n.orders.Approve(ctx, approver, parent.ID)
	require.NoError(t, err)
	child, po, err := n.orders.Approve(ctx, approver, child.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusApproved, child.Status)
	assert.Equal(t, n.dist.ID, po.IssuerOrgID)
}

func TestApprove_VentanaDeOrdenPadre(t *testing.T) {
	n := nuevaRed(t, orders.Settings{ParentOrderWindow: time.Hour})
	ctx := context.Background()
	parent, _ := n.aprobadaH2M(t, item("A", 5))
	child := n.ordenD2H(t, parent.ID)

	// Envejece la aprobación del padre fuera de la ventana.
	old := time.Now().UTC().Add(-2 * time.Hour)
	parent.ApprovedAt = &old
	require.NoError(t, n.repos.Orders.Update(ctx, parent))

	_, _, err := n.orders.Approve(ctx, actor(n.hq, entity.RoleLevelPowerUser), child.ID)
	assert.ErrorIs(t, err, domain.ErrParentOrderNotApproved)
}

func TestApprove_OrdenPadreObligatoria(t *testing.T) {
	n := nuevaRed(t, orders.Settings{RequireParentOrder: true})
	child := n.ordenD2H(t, "")
	_, _, err := n.orders.Approve(context.Background(), actor(n.hq, entity.RoleLevelPowerUser), child.ID)
	assert.ErrorIs(t, err, domain.ErrParentOrderNotApproved)

	// H2M no tiene orden aguas arriba.
	_, _, err = n.orders.Approve(context.Background(), actor(n.hq, entity.RoleLevelPowerUser), n.ordenH2M(t, item("A", 1)).ID)
	assert.NoError(t, err)
}

func TestCreate_OrdenPadreDeTipoIncorrecto(t *testing.T) {
	n := nuevaRed(t, orders.DefaultSettings())
	wrong := n.ordenD2H(t, "")
	_, err := n.orders.Create(context.Background(), actor(n.dist, entity.RoleLevelStaff), dto.CreateOrderRequest{
		Type: "D2H", BuyerOrgID: n.dist.ID, SellerOrgID: n.hq.ID, ParentOrderID: wrong.ID,
		Items: []dto.OrderItemRequest{item("A", 1)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Delete
// ──────────────────────────────────────────────────────────────────────────────

func TestDelete_CascadaYLiberaReserva(t *testing.T) {
	n := nuevaRed(t, orders.DefaultSettings())
	ctx := context.Background()
	n.stock(t, n.mfr, "A", 10)
	o := n.ordenH2M(t, item("A", 4))
	_, err := n.ledger.ReserveOrderStock(ctx, actor(n.mfr, entity.RoleLevelPowerUser), o.ID)
	require.NoError(t, err)
	require.NoError(t, n.repos.Artifacts.Create(ctx, &entity.OrderArtifact{ID: uuid.NewString(), OrderID: o.ID, Kind: entity.ArtifactKindQR, Code: "QR-1"}))

	err = n.orders.Delete(ctx, actor(n.hq, entity.RoleLevelHQAdmin), o.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	require.NoError(t, n.orders.Delete(ctx, actor(n.hq, entity.RoleLevelSuperAdmin), o.ID))

	got, err := n.repos.Orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	artifacts, err := n.repos.Artifacts.ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, artifacts)
	pos := n.position(t, n.mfr, "A")
	assert.Equal(t, int64(0), pos.QuantityAllocated)
	assert.Equal(t, int64(10), pos.Available())
	assert.Equal(t, 1, n.eventos(t, entity.TopicOrderDeleted))
}

func TestDelete_ArtefactoFinalizadoAbortaTodo(t *testing.T) {
	n := nuevaRed(t, orders.DefaultSettings())
	ctx := context.Background()
	n.stock(t, n.mfr, "A", 10)
	o := n.ordenH2M(t, item("A", 4))
	_, err := n.ledger.ReserveOrderStock(ctx, actor(n.mfr, entity.RoleLevelPowerUser), o.ID)
	require.NoError(t, err)
	require.NoError(t, n.repos.Artifacts.Create(ctx, &entity.OrderArtifact{ID: uuid.NewString(), OrderID: o.ID, Kind: entity.ArtifactKindQR, Code: "QR-1"}))
	require.NoError(t, n.repos.Artifacts.Create(ctx, &entity.OrderArtifact{ID: uuid.NewString(), OrderID: o.ID, Kind: entity.ArtifactKindBatch, Code: "LOTE-1", Finalized: true}))

	err = n.orders.Delete(ctx, actor(n.hq, entity.RoleLevelSuperAdmin), o.ID)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	got, err := n.repos.Orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
	artifacts, err := n.repos.Artifacts.ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, artifacts, 2)
	assert.Equal(t, int64(4), n.position(t, n.mfr, "A").QuantityAllocated)
}

func TestDelete_AprobadaNoSePuedeEliminar(t *testing.T) {
	n := nuevaRed(t, orders.DefaultSettings())
	o, _ := n.aprobadaH2M(t, item("A", 1))
	err := n.orders.Delete(context.Background(), actor(n.hq, entity.RoleLevelSuperAdmin), o.ID)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}
