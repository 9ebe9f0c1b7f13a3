package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/supplychain-core/internal/application/dto"
	"github.com/jhoicas/supplychain-core/internal/application/inventory"
	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

// InventoryHandler libro de movimientos, posiciones y traslados (protegido).
type InventoryHandler struct {
	ledger *inventory.LedgerUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.LedgerUseCase) *InventoryHandler {
	return &InventoryHandler{ledger: ledger}
}

// RegisterMovement POST /api/inventory/movements
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	actor := GetActor(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	var in dto.RegisterMovementRequest
	if err := bindJSON(c, &in); err != nil {
		return nil
	}
	mov, err := h.ledger.ApplyMovement(c.Context(), actor, inventory.MovementInput{
		Kind:           entity.MovementKind(strings.ToLower(in.Kind)),
		VariantID:      in.VariantID,
		OrganizationID: in.OrganizationID,
		Quantity:       in.Quantity,
		UnitCost:       in.UnitCost,
		Reason:         in.Reason,
		Notes:          in.Notes,
		CreatedBy:      actor.UserID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMovementResponse(mov))
}

// ListMovements GET /api/inventory/movements?organization_id=&variant_id=
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	key, err := stockKeyFromQuery(c)
	if err != nil {
		return respondError(c, err)
	}
	movs, err := h.ledger.ListMovements(c.Context(), GetActor(c), key)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.ToMovementResponse(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "movements": out})
}

// GetPosition GET /api/inventory/position?organization_id=&variant_id=
func (h *InventoryHandler) GetPosition(c *fiber.Ctx) error {
	key, err := stockKeyFromQuery(c)
	if err != nil {
		return respondError(c, err)
	}
	pos, err := h.ledger.GetPosition(c.Context(), GetActor(c), key)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToPositionResponse(pos))
}

// ListPositions GET /api/inventory/positions?organization_id=&limit=&offset=
func (h *InventoryHandler) ListPositions(c *fiber.Ctx) error {
	orgID := c.Query("organization_id")
	if orgID == "" {
		return respondError(c, domain.ErrInvalidInput)
	}
	var page dto.PageRequest
	_ = c.QueryParser(&page)
	page.DefaultPage()
	if err := check(c, &page); err != nil {
		return nil
	}
	list, err := h.ledger.ListPositions(c.Context(), GetActor(c), orgID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.PositionResponse, 0, len(list))
	for _, p := range list {
		out = append(out, dto.ToPositionResponse(p))
	}
	return c.JSON(fiber.Map{
		"page":      dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
		"positions": out,
	})
}

// CreateTransfer POST /api/inventory/transfers
func (h *InventoryHandler) CreateTransfer(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if err := bindJSON(c, &in); err != nil {
		return nil
	}
	lines := make([]inventory.TransferLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, inventory.TransferLineInput{VariantID: l.VariantID, Quantity: l.Quantity, UnitCost: l.UnitCost})
	}
	t, err := h.ledger.CreateTransfer(c.Context(), GetActor(c), inventory.CreateTransferInput{
		FromOrgID: in.FromOrgID,
		ToOrgID:   in.ToOrgID,
		Lines:     lines,
		Notes:     in.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToTransferResponse(t))
}

// ReceiveTransfer POST /api/inventory/transfers/:id/receive
func (h *InventoryHandler) ReceiveTransfer(c *fiber.Ctx) error {
	t, err := h.ledger.ReceiveTransfer(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToTransferResponse(t))
}

func stockKeyFromQuery(c *fiber.Ctx) (entity.StockKey, error) {
	key := entity.StockKey{VariantID: c.Query("variant_id"), OrganizationID: c.Query("organization_id")}
	if key.VariantID == "" || key.OrganizationID == "" {
		return key, domain.ErrInvalidInput
	}
	return key, nil
}
