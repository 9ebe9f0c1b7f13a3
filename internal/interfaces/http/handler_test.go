package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/supplychain-core/internal/application/dto"
	"github.com/jhoicas/supplychain-core/internal/application/inventory"
	"github.com/jhoicas/supplychain-core/internal/application/orders"
	"github.com/jhoicas/supplychain-core/internal/application/organization"
	"github.com/jhoicas/supplychain-core/internal/domain/access"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/supplychain-core/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/supplychain-core/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Servidor de prueba sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

type servidor struct {
	app     *fiber.App
	hq, mfr *entity.Organization
	otherHQ *entity.Organization
}

func nuevoServidor(t *testing.T) *servidor {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repos()
	locker := memory.NewLocker(200 * time.Millisecond)
	policy := access.DefaultPolicy()
	settings := orders.DefaultSettings()

	ledger := inventory.NewLedgerUseCase(store, repos, locker, policy)
	deps := apphttp.RouterDeps{
		Organizations: organization.NewUseCase(repos.Organizations, policy),
		Orders:        orders.NewOrderUseCase(store, repos, locker, ledger, policy, settings),
		Chain:         orders.NewDocumentChainUseCase(store, repos, locker, ledger, nil, policy, settings),
		Ledger:        ledger,
		JWTSecret:     testJWTSecret,
	}
	s := &servidor{app: apphttp.NewServer(deps, apphttp.ServerOptions{AppName: "test", Log: zerolog.Nop()})}

	mk := func(orgType entity.OrgType, parent string) *entity.Organization {
		o := &entity.Organization{ID: uuid.NewString(), Type: orgType, ParentID: parent, Name: string(orgType), Active: true}
		require.NoError(t, repos.Organizations.Create(context.Background(), o))
		return o
	}
	s.hq = mk(entity.OrgTypeHQ, "")
	s.mfr = mk(entity.OrgTypeManufacturer, s.hq.ID)
	s.otherHQ = mk(entity.OrgTypeHQ, "")
	return s
}

func (s *servidor) do(t *testing.T, method, path string, org *entity.Organization, level int, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	tok, err := pkgjwt.Generate(testJWTSecret, "user-"+org.ID[:8], org.ID, level, testIssuer, testExpMin)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp, out
}

// ──────────────────────────────────────────────────────────────────────────────
// Órdenes y documentos
// ──────────────────────────────────────────────────────────────────────────────

func TestHTTP_FlujoOrdenHastaInvoice(t *testing.T) {
	s := nuevoServidor(t)

	resp, body := s.do(t, http.MethodPost, "/api/orders", s.hq, entity.RoleLevelStaff, dto.CreateOrderRequest{
		Type:        "H2M",
		BuyerOrgID:  s.hq.ID,
		SellerOrgID: s.mfr.ID,
		Items:       []dto.OrderItemRequest{{VariantID: "sku-1", Quantity: 3}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	orderID := body["id"].(string)
	assert.Equal(t, "draft", body["status"])

	resp, body = s.do(t, http.MethodPost, "/api/orders/"+orderID+"/submit", s.hq, entity.RoleLevelStaff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "submitted", body["status"])

	resp, body = s.do(t, http.MethodPost, "/api/orders/"+orderID+"/approve", s.hq, entity.RoleLevelPowerUser, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	po := body["po"].(map[string]any)
	assert.Equal(t, "PO", po["type"])

	resp, body = s.do(t, http.MethodPost, "/api/documents/"+po["id"].(string)+"/acknowledge", s.mfr, entity.RoleLevelManager, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	next := body["next"].(map[string]any)
	assert.Equal(t, "INVOICE", next["type"])
	assert.Equal(t, false, body["already_acknowledged"])

	resp, body = s.do(t, http.MethodGet, "/api/orders/"+orderID+"/documents", s.hq, entity.RoleLevelViewer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["documents"], 2)

	resp, body = s.do(t, http.MethodGet, "/api/documents/"+next["id"].(string), s.hq, entity.RoleLevelViewer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, s.mfr.ID, body["issuer"].(map[string]any)["id"])
}

func TestHTTP_ValidacionDeCuerpo(t *testing.T) {
	s := nuevoServidor(t)

	resp, body := s.do(t, http.MethodPost, "/api/orders", s.hq, entity.RoleLevelStaff, map[string]any{
		"type":          "X2Y",
		"buyer_org_id":  s.hq.ID,
		"seller_org_id": s.mfr.ID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", body["code"])
}

func TestHTTP_AprobarSinNivel_Retorna403ConRazon(t *testing.T) {
	s := nuevoServidor(t)

	_, body := s.do(t, http.MethodPost, "/api/orders", s.hq, entity.RoleLevelStaff, dto.CreateOrderRequest{
		Type: "H2M", BuyerOrgID: s.hq.ID, SellerOrgID: s.mfr.ID,
		Items: []dto.OrderItemRequest{{VariantID: "sku-1", Quantity: 1}},
	})
	orderID := body["id"].(string)
	s.do(t, http.MethodPost, "/api/orders/"+orderID+"/submit", s.hq, entity.RoleLevelStaff, nil)

	resp, body := s.do(t, http.MethodPost, "/api/orders/"+orderID+"/approve", s.hq, entity.RoleLevelStaff, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, access.ReasonRoleInsufficient, body["message"])
}

func TestHTTP_AprobarEnDraft_Retorna409(t *testing.T) {
	s := nuevoServidor(t)

	_, body := s.do(t, http.MethodPost, "/api/orders", s.hq, entity.RoleLevelStaff, dto.CreateOrderRequest{
		Type: "H2M", BuyerOrgID: s.hq.ID, SellerOrgID: s.mfr.ID,
		Items: []dto.OrderItemRequest{{VariantID: "sku-1", Quantity: 1}},
	})
	resp, body := s.do(t, http.MethodPost, "/api/orders/"+body["id"].(string)+"/approve", s.hq, entity.RoleLevelPowerUser, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ILLEGAL_TRANSITION", body["code"])
}

func TestHTTP_BorrarRequiereNivelMaximo(t *testing.T) {
	s := nuevoServidor(t)

	resp, body := s.do(t, http.MethodDelete, "/api/orders/"+uuid.NewString(), s.hq, entity.RoleLevelHQAdmin, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", body["code"])

	resp, body = s.do(t, http.MethodDelete, "/api/orders/"+uuid.NewString(), s.hq, entity.RoleLevelSuperAdmin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Inventario
// ──────────────────────────────────────────────────────────────────────────────

func TestHTTP_MovimientoYPosicion(t *testing.T) {
	s := nuevoServidor(t)

	resp, body := s.do(t, http.MethodPost, "/api/inventory/movements", s.mfr, entity.RoleLevelStaff, dto.RegisterMovementRequest{
		Kind: "addition", VariantID: "sku-1", OrganizationID: s.mfr.ID, Quantity: 12,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.EqualValues(t, 12, body["quantity_after"])

	resp, body = s.do(t, http.MethodPost, "/api/inventory/movements", s.mfr, entity.RoleLevelStaff, dto.RegisterMovementRequest{
		Kind: "adjustment", VariantID: "sku-1", OrganizationID: s.mfr.ID, Quantity: -20, Reason: "merma",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])

	resp, body = s.do(t, http.MethodGet, "/api/inventory/position?variant_id=sku-1&organization_id="+s.mfr.ID, s.mfr, entity.RoleLevelViewer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.EqualValues(t, 12, body["quantity_on_hand"])
	assert.EqualValues(t, 12, body["quantity_available"])

	resp, _ = s.do(t, http.MethodGet, "/api/inventory/position?variant_id=sku-1", s.mfr, entity.RoleLevelViewer, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTP_MovimientoEnOtraCompania_Retorna403(t *testing.T) {
	s := nuevoServidor(t)

	resp, body := s.do(t, http.MethodPost, "/api/inventory/movements", s.otherHQ, entity.RoleLevelHQAdmin, dto.RegisterMovementRequest{
		Kind: "addition", VariantID: "sku-1", OrganizationID: s.mfr.ID, Quantity: 5,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", body["code"])
}

func TestHTTP_OrganizacionDeOtraCompania_Retorna403(t *testing.T) {
	s := nuevoServidor(t)

	resp, _ := s.do(t, http.MethodGet, "/api/organizations/"+s.mfr.ID, s.hq, entity.RoleLevelViewer, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := s.do(t, http.MethodGet, "/api/organizations/"+s.mfr.ID, s.otherHQ, entity.RoleLevelHQAdmin, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, access.ReasonOrgMismatch, body["message"])

	resp, _ = s.do(t, http.MethodGet, "/api/organizations/"+s.hq.ID+"/children", s.otherHQ, entity.RoleLevelHQAdmin, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHTTP_Health(t *testing.T) {
	s := nuevoServidor(t)
	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
