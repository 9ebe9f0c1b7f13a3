package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/supplychain-core/internal/application/dto"
	"github.com/jhoicas/supplychain-core/internal/application/inventory"
	"github.com/jhoicas/supplychain-core/internal/application/orders"
)

// OrderHandler ciclo de vida de órdenes y reservas.
type OrderHandler struct {
	orders *orders.OrderUseCase
	chain  *orders.DocumentChainUseCase
	ledger *inventory.LedgerUseCase
}

// NewOrderHandler construye el handler.
func NewOrderHandler(o *orders.OrderUseCase, chain *orders.DocumentChainUseCase, ledger *inventory.LedgerUseCase) *OrderHandler {
	return &OrderHandler{orders: o, chain: chain, ledger: ledger}
}

// Create POST /api/orders
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := bindJSON(c, &in); err != nil {
		return nil
	}
	order, err := h.orders.Create(c.Context(), GetActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToOrderResponse(order))
}

// Get GET /api/orders/:id
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	order, err := h.orders.Get(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToOrderResponse(order))
}

// UpdateItems PUT /api/orders/:id/items (solo en draft)
func (h *OrderHandler) UpdateItems(c *fiber.Ctx) error {
	var in dto.UpdateOrderItemsRequest
	if err := bindJSON(c, &in); err != nil {
		return nil
	}
	order, err := h.orders.UpdateItems(c.Context(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToOrderResponse(order))
}

// Submit POST /api/orders/:id/submit
func (h *OrderHandler) Submit(c *fiber.Ctx) error {
	order, err := h.orders.Submit(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToOrderResponse(order))
}

// Approve POST /api/orders/:id/approve. Devuelve la orden y la PO creada.
func (h *OrderHandler) Approve(c *fiber.Ctx) error {
	order, po, err := h.orders.Approve(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ApproveOrderResponse{
		Order: dto.ToOrderResponse(order),
		PO:    dto.ToDocumentResponse(po),
	})
}

// Delete DELETE /api/orders/:id
func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	if err := h.orders.Delete(c.Context(), GetActor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Reserve POST /api/orders/:id/reserve. Aparta el stock del vendedor para las líneas de la orden.
func (h *OrderHandler) Reserve(c *fiber.Ctx) error {
	movs, err := h.ledger.ReserveOrderStock(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.ToMovementResponse(m))
	}
	return c.JSON(fiber.Map{"movements": out})
}

// Documents GET /api/orders/:id/documents
func (h *OrderHandler) Documents(c *fiber.Ctx) error {
	docs, err := h.chain.ListByOrder(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, dto.ToDocumentResponse(d))
	}
	return c.JSON(fiber.Map{"documents": out})
}
