package orders_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/supplychain-core/internal/application/dto"
	"github.com/jhoicas/supplychain-core/internal/application/inventory"
	"github.com/jhoicas/supplychain-core/internal/application/orders"
	"github.com/jhoicas/supplychain-core/internal/application/ports"
	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/access"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/infrastructure/memory"
)

// red jerarquía de prueba: HQ con fabricante y distribuidor; tienda bajo el distribuidor.
type red struct {
	store  *memory.Store
	repos  ports.Repos
	ledger *inventory.LedgerUseCase
	orders *orders.OrderUseCase
	chain  *orders.DocumentChainUseCase

	hq, mfr, dist, shop *entity.Organization
}

// verifierFalso acepta cualquier referencia salvo las listadas en missing.
type verifierFalso struct{ missing map[string]bool }

func (v verifierFalso) Verify(_ context.Context, ref string) error {
	if v.missing[ref] {
		return domain.ErrInvalidInput
	}
	return nil
}

func nuevaRed(t *testing.T, settings orders.Settings, opts ...func(*entity.Organization)) *red {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repos()
	locker := memory.NewLocker(200 * time.Millisecond)
	policy := access.DefaultPolicy()

	ledger := inventory.NewLedgerUseCase(store, repos, locker, policy)
	n := &red{
		store:  store,
		repos:  repos,
		ledger: ledger,
		orders: orders.NewOrderUseCase(store, repos, locker, ledger, policy, settings),
		chain: orders.NewDocumentChainUseCase(store, repos, locker, ledger,
			verifierFalso{missing: map[string]bool{"proofs/no-existe.pdf": true}}, policy, settings),
	}
	n.hq = n.org(t, entity.OrgTypeHQ, "", opts...)
	n.mfr = n.org(t, entity.OrgTypeManufacturer, n.hq.ID)
	n.dist = n.org(t, entity.OrgTypeDistributor, n.hq.ID)
	n.shop = n.org(t, entity.OrgTypeShop, n.dist.ID)
	return n
}

func (n *red) org(t *testing.T, orgType entity.OrgType, parentID string, opts ...func(*entity.Organization)) *entity.Organization {
	t.Helper()
	o := &entity.Organization{
		ID:       uuid.NewString(),
		Type:     orgType,
		ParentID: parentID,
		Name:     string(orgType),
		Active:   true,
	}
	for _, opt := range opts {
		opt(o)
	}
	require.NoError(t, n.repos.Organizations.Create(context.Background(), o))
	return o
}

func actor(org *entity.Organization, level int) entity.Actor {
	return entity.Actor{UserID: "user-" + org.ID[:8], OrganizationID: org.ID, RoleLevel: level}
}

func (n *red) stock(t *testing.T, org *entity.Organization, variant string, qty int64) {
	t.Helper()
	_, err := n.ledger.ApplyMovement(context.Background(), actor(org, entity.RoleLevelStaff), inventory.MovementInput{
		Kind:           entity.MovementAddition,
		VariantID:      variant,
		OrganizationID: org.ID,
		Quantity:       qty,
	})
	require.NoError(t, err)
}

func (n *red) position(t *testing.T, org *entity.Organization, variant string) *entity.InventoryPosition {
	t.Helper()
	p, err := n.repos.Positions.Get(context.Background(), entity.StockKey{VariantID: variant, OrganizationID: org.ID})
	require.NoError(t, err)
	return p
}

func item(variant string, qty int64) dto.OrderItemRequest {
	return dto.OrderItemRequest{VariantID: variant, Quantity: qty, UnitPrice: decimal.NewFromInt(100)}
}

// ordenH2M crea y envía una orden HQ -> fabricante.
func (n *red) ordenH2M(t *testing.T, items ...dto.OrderItemRequest) *entity.Order {
	t.Helper()
	ctx := context.Background()
	buyer := actor(n.hq, entity.RoleLevelStaff)
	o, err := n.orders.Create(ctx, buyer, dto.CreateOrderRequest{
		Type:        "H2M",
		BuyerOrgID:  n.hq.ID,
		SellerOrgID: n.mfr.ID,
		Items:       items,
	})
	require.NoError(t, err)
	o, err = n.orders.Submit(ctx, buyer, o.ID)
	require.NoError(t, err)
	return o
}

// aprobadaH2M crea, envía y aprueba una orden H2M; devuelve la orden y su PO.
func (n *red) aprobadaH2M(t *testing.T, items ...dto.OrderItemRequest) (*entity.Order, *entity.Document) {
	t.Helper()
	o := n.ordenH2M(t, items...)
	o, po, err := n.orders.Approve(context.Background(), actor(n.hq, entity.RoleLevelPowerUser), o.ID)
	require.NoError(t, err)
	return o, po
}

// hastaPayment avanza la cadena de una orden H2M aprobada hasta dejar el PAYMENT pendiente.
func (n *red) hastaPayment(t *testing.T, po *entity.Document) *entity.Document {
	t.Helper()
	ctx := context.Background()
	res, err := n.chain.Acknowledge(ctx, actor(n.mfr, entity.RoleLevelManager), po.ID, "")
	require.NoError(t, err)
	res, err = n.chain.Acknowledge(ctx, actor(n.hq, entity.RoleLevelManager), res.Next.ID, "")
	require.NoError(t, err)
	require.Equal(t, entity.DocumentTypePayment, res.Next.Type)
	return res.Next
}

func (n *red) eventos(t *testing.T, topic string) int {
	t.Helper()
	pending, err := n.repos.Outbox.ListPending(context.Background(), 0, 0)
	require.NoError(t, err)
	count := 0
	for _, ev := range pending {
		if ev.Topic == topic {
			count++
		}
	}
	return count
}
