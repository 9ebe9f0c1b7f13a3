package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/access"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

func actor(org string, level int) entity.Actor {
	return entity.Actor{UserID: "u-" + org, OrganizationID: org, RoleLevel: level}
}

func TestCanAct_Acknowledge(t *testing.T) {
	policy := access.DefaultPolicy()
	doc := &entity.Document{Type: entity.DocumentTypePayment, IssuerOrgID: "buyer", ReceiverOrgID: "seller"}
	subject := access.Subject{Document: doc}

	cases := []struct {
		name   string
		actor  entity.Actor
		allow  bool
		reason string
	}{
		{"receptor con nivel suficiente", actor("seller", entity.RoleLevelPowerUser), true, access.ReasonAllowed},
		{"receptor con nivel insuficiente", actor("seller", entity.RoleLevelManager), false, access.ReasonRoleInsufficient},
		{"emisor no puede reconocer", actor("buyer", entity.RoleLevelSuperAdmin), false, access.ReasonNotReceiver},
		{"nivel cero es inválido", actor("seller", 0), false, access.ReasonRoleInsufficient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := access.CanAct(tc.actor, access.ActionAcknowledge, subject, policy)
			assert.Equal(t, tc.allow, d.Allowed)
			assert.Equal(t, tc.reason, d.Reason)
		})
	}
}

func TestCanAct_AcknowledgeSinUmbralConfigurado(t *testing.T) {
	policy := access.DefaultPolicy()
	delete(policy.AckThresholds, entity.DocumentTypeReceipt)
	doc := &entity.Document{Type: entity.DocumentTypeReceipt, ReceiverOrgID: "buyer"}

	d := access.CanAct(actor("buyer", 1), access.ActionAcknowledge, access.Subject{Document: doc}, policy)
	assert.False(t, d.Allowed)
	assert.Equal(t, access.ReasonNoThreshold, d.Reason)
}

func TestCanAct_ApproveSegunTipoDeOrden(t *testing.T) {
	policy := access.DefaultPolicy()
	h2m := &entity.Order{Type: entity.OrderTypeH2M, BuyerOrgID: "hq", SellerOrgID: "maker"}
	d2h := &entity.Order{Type: entity.OrderTypeD2H, BuyerOrgID: "dist", SellerOrgID: "hq"}
	s2d := &entity.Order{Type: entity.OrderTypeS2D, BuyerOrgID: "shop", SellerOrgID: "dist"}

	assert.True(t, access.CanAct(actor("hq", entity.RoleLevelPowerUser), access.ActionApproveOrder, access.Subject{Order: h2m}, policy).Allowed)
	assert.False(t, access.CanAct(actor("maker", entity.RoleLevelPowerUser), access.ActionApproveOrder, access.Subject{Order: h2m}, policy).Allowed)
	assert.True(t, access.CanAct(actor("hq", entity.RoleLevelHQAdmin), access.ActionApproveOrder, access.Subject{Order: d2h}, policy).Allowed)
	assert.True(t, access.CanAct(actor("dist", entity.RoleLevelPowerUser), access.ActionApproveOrder, access.Subject{Order: s2d}, policy).Allowed)

	d := access.CanAct(actor("dist", entity.RoleLevelManager), access.ActionApproveOrder, access.Subject{Order: s2d}, policy)
	assert.False(t, d.Allowed)
	assert.Equal(t, access.ReasonRoleInsufficient, d.Reason)

	d = access.CanAct(actor("shop", entity.RoleLevelPowerUser), access.ActionApproveOrder, access.Subject{Order: s2d}, policy)
	assert.Equal(t, access.ReasonNotApprover, d.Reason)
}

func TestCanAct_DeleteSoloNivelMasAlto(t *testing.T) {
	policy := access.DefaultPolicy()
	order := &entity.Order{BuyerOrgID: "hq"}
	assert.True(t, access.CanAct(actor("hq", entity.RoleLevelSuperAdmin), access.ActionDeleteOrder, access.Subject{Order: order}, policy).Allowed)

	d := access.CanAct(actor("hq", entity.RoleLevelHQAdmin), access.ActionDeleteOrder, access.Subject{Order: order}, policy)
	assert.False(t, d.Allowed)
	assert.Equal(t, access.ReasonNotHighestTier, d.Reason)
}

func TestCanAct_SubmitCreadorOMismaOrganizacion(t *testing.T) {
	policy := access.DefaultPolicy()
	order := &entity.Order{BuyerOrgID: "shop", CreatedBy: "u-creator"}

	creator := entity.Actor{UserID: "u-creator", OrganizationID: "shop", RoleLevel: entity.RoleLevelViewer}
	assert.True(t, access.CanAct(creator, access.ActionSubmitOrder, access.Subject{Order: order}, policy).Allowed)
	assert.True(t, access.CanAct(actor("shop", entity.RoleLevelStaff), access.ActionSubmitOrder, access.Subject{Order: order}, policy).Allowed)
	assert.False(t, access.CanAct(actor("shop", entity.RoleLevelViewer), access.ActionSubmitOrder, access.Subject{Order: order}, policy).Allowed)
	assert.Equal(t, access.ReasonNotCreatorOrBuyer,
		access.CanAct(actor("dist", entity.RoleLevelSuperAdmin), access.ActionSubmitOrder, access.Subject{Order: order}, policy).Reason)
}

func TestCanAct_MoveStockUbicacionOCasaMatriz(t *testing.T) {
	policy := access.DefaultPolicy()
	subject := access.Subject{LocationOrgID: "shop", CompanyID: "hq"}

	assert.True(t, access.CanAct(actor("shop", entity.RoleLevelStaff), access.ActionMoveStock, subject, policy).Allowed)
	assert.True(t, access.CanAct(actor("hq", entity.RoleLevelManager), access.ActionMoveStock, subject, policy).Allowed)
	assert.Equal(t, access.ReasonOrgMismatch,
		access.CanAct(actor("dist", entity.RoleLevelSuperAdmin), access.ActionMoveStock, subject, policy).Reason)
}

func TestCanAct_ReadDocumentSoloPartes(t *testing.T) {
	policy := access.DefaultPolicy()
	subject := access.Subject{Document: &entity.Document{IssuerOrgID: "a", ReceiverOrgID: "b"}}

	assert.True(t, access.CanAct(actor("a", entity.RoleLevelViewer), access.ActionReadDocument, subject, policy).Allowed)
	assert.True(t, access.CanAct(actor("b", entity.RoleLevelViewer), access.ActionReadDocument, subject, policy).Allowed)
	assert.Equal(t, access.ReasonNotParty,
		access.CanAct(actor("c", entity.RoleLevelSuperAdmin), access.ActionReadDocument, subject, policy).Reason)
}

func TestCanAct_AccionDesconocida(t *testing.T) {
	d := access.CanAct(actor("a", 1), access.Action("order.teleport"), access.Subject{}, access.DefaultPolicy())
	assert.False(t, d.Allowed)
	assert.Equal(t, access.ReasonUnknownAction, d.Reason)
}

func TestCheck_DevuelveDeniedError(t *testing.T) {
	err := access.Check(actor("x", entity.RoleLevelViewer), access.ActionDeleteOrder, access.Subject{}, access.DefaultPolicy())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	var denied *domain.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, access.ReasonNotHighestTier, denied.Reason)
}

func TestCanAct_ReadOrderPartesOCompania(t *testing.T) {
	policy := access.DefaultPolicy()
	order := &entity.Order{BuyerOrgID: "shop", SellerOrgID: "dist", CompanyID: "hq"}

	for _, org := range []string{"shop", "dist", "hq"} {
		assert.True(t, access.CanAct(actor(org, entity.RoleLevelViewer), access.ActionReadOrder, access.Subject{Order: order}, policy).Allowed, org)
	}
	assert.Equal(t, access.ReasonNotParty,
		access.CanAct(actor("otra", entity.RoleLevelSuperAdmin), access.ActionReadOrder, access.Subject{Order: order}, policy).Reason)
}

func TestCanAct_ReadOrganizationMismaCompania(t *testing.T) {
	policy := access.DefaultPolicy()
	same := access.Subject{CompanyID: "hq", ActorCompanyID: "hq"}
	other := access.Subject{CompanyID: "hq", ActorCompanyID: "hq2"}

	assert.True(t, access.CanAct(actor("shop", entity.RoleLevelViewer), access.ActionReadOrganization, same, policy).Allowed)
	d := access.CanAct(actor("hq2", entity.RoleLevelHQAdmin), access.ActionReadOrganization, other, policy)
	assert.False(t, d.Allowed)
	assert.Equal(t, access.ReasonOrgMismatch, d.Reason)
	assert.True(t, access.CanAct(actor("plataforma", entity.RoleLevelSuperAdmin), access.ActionReadOrganization, other, policy).Allowed)
	assert.Equal(t, access.ReasonMissingSubject,
		access.CanAct(actor("x", entity.RoleLevelStaff), access.ActionReadOrganization, access.Subject{}, policy).Reason)
}
