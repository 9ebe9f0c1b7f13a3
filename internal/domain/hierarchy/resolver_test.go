package hierarchy_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/domain/hierarchy"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func org(id string, t entity.OrgType, parent string) *entity.Organization {
	return &entity.Organization{ID: id, Type: t, ParentID: parent, Active: true, Name: id}
}

func lookupFrom(orgs ...*entity.Organization) hierarchy.Lookup {
	byID := make(map[string]*entity.Organization, len(orgs))
	for _, o := range orgs {
		byID[o.ID] = o
	}
	return func(_ context.Context, id string) (*entity.Organization, error) {
		return byID[id], nil
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// ValidParents / ValidateParent
// ──────────────────────────────────────────────────────────────────────────────

func TestValidParents_TablaDeTipos(t *testing.T) {
	assert.Empty(t, hierarchy.ValidParents(entity.OrgTypeHQ))
	assert.Equal(t, []entity.OrgType{entity.OrgTypeHQ}, hierarchy.ValidParents(entity.OrgTypeManufacturer))
	assert.Equal(t, []entity.OrgType{entity.OrgTypeHQ}, hierarchy.ValidParents(entity.OrgTypeDistributor))
	assert.Equal(t, []entity.OrgType{entity.OrgTypeDistributor}, hierarchy.ValidParents(entity.OrgTypeShop))
	assert.Equal(t, []entity.OrgType{entity.OrgTypeHQ}, hierarchy.ValidParents(entity.OrgTypeWarehouse))
}

func TestValidateParent(t *testing.T) {
	hq := org("hq", entity.OrgTypeHQ, "")
	dist := org("dist", entity.OrgTypeDistributor, "hq")

	cases := []struct {
		name   string
		child  *entity.Organization
		parent *entity.Organization
		ok     bool
	}{
		{"HQ sin padre", hq, nil, true},
		{"HQ con padre", org("hq2", entity.OrgTypeHQ, "hq"), hq, false},
		{"distribuidor bajo HQ", dist, hq, true},
		{"distribuidor sin padre", org("d2", entity.OrgTypeDistributor, ""), nil, false},
		{"tienda bajo distribuidor", org("shop", entity.OrgTypeShop, "dist"), dist, true},
		{"tienda bajo HQ", org("shop", entity.OrgTypeShop, "hq"), hq, false},
		{"fabricante bajo distribuidor", org("m", entity.OrgTypeManufacturer, "dist"), dist, false},
		{"bodega bajo HQ", org("w", entity.OrgTypeWarehouse, "hq"), hq, true},
		{"tipo desconocido", org("x", entity.OrgType("PLANET"), "hq"), hq, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := hierarchy.ValidateParent(tc.child, tc.parent)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrInvalidHierarchy)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// CompanyOf
// ──────────────────────────────────────────────────────────────────────────────

func TestCompanyOf_TiendaLlegaALaCasaMatriz(t *testing.T) {
	lookup := lookupFrom(
		org("hq", entity.OrgTypeHQ, ""),
		org("dist", entity.OrgTypeDistributor, "hq"),
		org("shop", entity.OrgTypeShop, "dist"),
	)
	company, err := hierarchy.CompanyOf(context.Background(), lookup, "shop")
	require.NoError(t, err)
	assert.Equal(t, "hq", company.ID)
}

func TestCompanyOf_HQEsSuPropiaCompania(t *testing.T) {
	company, err := hierarchy.CompanyOf(context.Background(), lookupFrom(org("hq", entity.OrgTypeHQ, "")), "hq")
	require.NoError(t, err)
	assert.Equal(t, "hq", company.ID)
}

func TestCompanyOf_Ciclo(t *testing.T) {
	lookup := lookupFrom(
		org("a", entity.OrgTypeDistributor, "b"),
		org("b", entity.OrgTypeDistributor, "a"),
	)
	_, err := hierarchy.CompanyOf(context.Background(), lookup, "a")
	assert.ErrorIs(t, err, domain.ErrOrphanedOrganization)
}

func TestCompanyOf_PadreInexistente(t *testing.T) {
	lookup := lookupFrom(org("shop", entity.OrgTypeShop, "ghost"))
	_, err := hierarchy.CompanyOf(context.Background(), lookup, "shop")
	assert.ErrorIs(t, err, domain.ErrOrphanedOrganization)
}

func TestCompanyOf_OrganizacionInexistente(t *testing.T) {
	_, err := hierarchy.CompanyOf(context.Background(), lookupFrom(), "nadie")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCompanyOf_ExcedeProfundidad(t *testing.T) {
	// Cadena lineal de 12 distribuidores sin HQ alcanzable en 10 saltos.
	orgs := []*entity.Organization{org("hq", entity.OrgTypeHQ, "")}
	parent := "hq"
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("n%d", i)
		orgs = append(orgs, org(id, entity.OrgTypeDistributor, parent))
		parent = id
	}
	_, err := hierarchy.CompanyOf(context.Background(), lookupFrom(orgs...), "n11")
	assert.ErrorIs(t, err, domain.ErrOrphanedOrganization)
}

func TestCompanyOf_PropagaErrorDeLookup(t *testing.T) {
	boom := errors.New("db caída")
	lookup := func(context.Context, string) (*entity.Organization, error) { return nil, boom }
	_, err := hierarchy.CompanyOf(context.Background(), lookup, "x")
	assert.ErrorIs(t, err, boom)
}

// ──────────────────────────────────────────────────────────────────────────────
// ValidOrderPairing
// ──────────────────────────────────────────────────────────────────────────────

func TestValidOrderPairing(t *testing.T) {
	hq := org("hq", entity.OrgTypeHQ, "")
	otherHQ := org("hq2", entity.OrgTypeHQ, "")
	maker := org("maker", entity.OrgTypeManufacturer, "hq")
	dist := org("dist", entity.OrgTypeDistributor, "hq")
	linked := org("dist2", entity.OrgTypeDistributor, "hq")
	shop := org("shop", entity.OrgTypeShop, "dist")
	shop.LinkedDistributorIDs = []string{"dist2"}
	inactive := org("maker2", entity.OrgTypeManufacturer, "hq")
	inactive.Active = false

	cases := []struct {
		name   string
		typ    entity.OrderType
		buyer  *entity.Organization
		seller *entity.Organization
		want   bool
	}{
		{"H2M válido", entity.OrderTypeH2M, hq, maker, true},
		{"H2M con comprador no HQ", entity.OrderTypeH2M, dist, maker, false},
		{"H2M con vendedor inactivo", entity.OrderTypeH2M, hq, inactive, false},
		{"D2H al padre", entity.OrderTypeD2H, dist, hq, true},
		{"D2H a otra HQ", entity.OrderTypeD2H, dist, otherHQ, false},
		{"S2D al padre", entity.OrderTypeS2D, shop, dist, true},
		{"S2D a distribuidor vinculado", entity.OrderTypeS2D, shop, linked, true},
		{"S2D a distribuidor no vinculado", entity.OrderTypeS2D, org("shop2", entity.OrgTypeShop, "dist"), linked, false},
		{"S2D con vendedor HQ", entity.OrderTypeS2D, shop, hq, false},
		{"tipo desconocido", entity.OrderType("X2Y"), hq, maker, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, hierarchy.ValidOrderPairing(tc.typ, tc.buyer, tc.seller))
		})
	}
}

func TestUpstreamType(t *testing.T) {
	up, ok := hierarchy.UpstreamType(entity.OrderTypeS2D)
	assert.True(t, ok)
	assert.Equal(t, entity.OrderTypeD2H, up)

	up, ok = hierarchy.UpstreamType(entity.OrderTypeD2H)
	assert.True(t, ok)
	assert.Equal(t, entity.OrderTypeH2M, up)

	_, ok = hierarchy.UpstreamType(entity.OrderTypeH2M)
	assert.False(t, ok)
}
