package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/supplychain-core/internal/application/dto"
	"github.com/jhoicas/supplychain-core/internal/application/orders"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

// DocumentHandler cadena PO -> INVOICE -> PAYMENT -> RECEIPT.
type DocumentHandler struct {
	chain *orders.DocumentChainUseCase
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(chain *orders.DocumentChainUseCase) *DocumentHandler {
	return &DocumentHandler{chain: chain}
}

// Acknowledge POST /api/documents/:id/acknowledge
func (h *DocumentHandler) Acknowledge(c *fiber.Ctx) error {
	var in dto.AcknowledgeRequest
	if len(c.Body()) > 0 {
		if err := bindJSON(c, &in); err != nil {
			return nil
		}
	}
	res, err := h.chain.Acknowledge(c.Context(), GetActor(c), c.Params("id"), in.ProofRef)
	if err != nil {
		return respondError(c, err)
	}
	out := dto.AcknowledgeResponse{
		Document:            dto.ToDocumentResponse(res.Document),
		AlreadyAcknowledged: res.AlreadyAcknowledged,
	}
	if res.Next != nil {
		next := dto.ToDocumentResponse(res.Next)
		out.Next = &next
	}
	if res.Order != nil {
		out.OrderStatus = string(res.Order.Status)
	}
	return c.JSON(out)
}

// AttachProof POST /api/documents/:id/proof (solo INVOICE)
func (h *DocumentHandler) AttachProof(c *fiber.Ctx) error {
	var in dto.AttachProofRequest
	if err := bindJSON(c, &in); err != nil {
		return nil
	}
	doc, err := h.chain.AttachProof(c.Context(), GetActor(c), c.Params("id"), in.ProofRef)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToDocumentResponse(doc))
}

// Snapshot GET /api/documents/:id. Vista consistente para el renderizador PDF.
func (h *DocumentHandler) Snapshot(c *fiber.Ctx) error {
	snap, err := h.chain.Snapshot(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DocumentSnapshotResponse{
		Document:    dto.ToDocumentResponse(snap.Document),
		Order:       dto.ToOrderResponse(snap.Order),
		Issuer:      orgLite(snap.Issuer),
		Receiver:    orgLite(snap.Receiver),
		GeneratedAt: snap.TakenAt,
	})
}

func orgLite(o *entity.Organization) dto.OrganizationLite {
	if o == nil {
		return dto.OrganizationLite{}
	}
	return dto.OrganizationLite{ID: o.ID, Name: o.Name, Type: string(o.Type)}
}
