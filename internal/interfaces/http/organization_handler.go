package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/supplychain-core/internal/application/dto"
	"github.com/jhoicas/supplychain-core/internal/application/organization"
	"github.com/jhoicas/supplychain-core/internal/domain"
)

// OrganizationHandler maneja la jerarquía de organizaciones (protegido).
type OrganizationHandler struct {
	uc *organization.UseCase
}

// NewOrganizationHandler construye el handler.
func NewOrganizationHandler(uc *organization.UseCase) *OrganizationHandler {
	return &OrganizationHandler{uc: uc}
}

// Create POST /api/organizations
func (h *OrganizationHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrganizationRequest
	if err := bindJSON(c, &in); err != nil {
		return nil
	}
	org, err := h.uc.Create(c.Context(), GetActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToOrganizationResponse(org))
}

// GetByID GET /api/organizations/:id
func (h *OrganizationHandler) GetByID(c *fiber.Ctx) error {
	org, err := h.uc.GetByID(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if org == nil {
		return respondError(c, domain.ErrNotFound)
	}
	return c.JSON(dto.ToOrganizationResponse(org))
}

// Update PUT /api/organizations/:id
func (h *OrganizationHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateOrganizationRequest
	if err := bindJSON(c, &in); err != nil {
		return nil
	}
	org, err := h.uc.Update(c.Context(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToOrganizationResponse(org))
}

// LinkDistributor POST /api/organizations/:id/distributors
func (h *OrganizationHandler) LinkDistributor(c *fiber.Ctx) error {
	var in dto.LinkDistributorRequest
	if err := bindJSON(c, &in); err != nil {
		return nil
	}
	org, err := h.uc.LinkDistributor(c.Context(), GetActor(c), c.Params("id"), in.DistributorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToOrganizationResponse(org))
}

// ListChildren GET /api/organizations/:id/children
func (h *OrganizationHandler) ListChildren(c *fiber.Ctx) error {
	list, err := h.uc.ListChildren(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.OrganizationResponse, 0, len(list))
	for _, o := range list {
		out = append(out, dto.ToOrganizationResponse(o))
	}
	return c.JSON(fiber.Map{"total": len(out), "organizations": out})
}
