package dto

import "time"

// CreateOrganizationRequest body para POST /api/organizations.
type CreateOrganizationRequest struct {
	Name                string `json:"name" validate:"required,max=200"`
	Type                string `json:"type" validate:"required,oneof=HQ MANUFACTURER DISTRIBUTOR SHOP WAREHOUSE"`
	ParentID            string `json:"parent_id,omitempty" validate:"omitempty,uuid"`
	RequirePaymentProof bool   `json:"require_payment_proof"`
}

// UpdateOrganizationRequest body para PUT /api/organizations/:id (campos opcionales).
type UpdateOrganizationRequest struct {
	Name                *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Active              *bool   `json:"active,omitempty"`
	RequirePaymentProof *bool   `json:"require_payment_proof,omitempty"`
}

// LinkDistributorRequest body para POST /api/organizations/:id/distributors.
type LinkDistributorRequest struct {
	DistributorID string `json:"distributor_id" validate:"required,uuid"`
}

// OrganizationResponse respuesta de organización.
type OrganizationResponse struct {
	ID                   string    `json:"id"`
	Type                 string    `json:"type"`
	ParentID             string    `json:"parent_id,omitempty"`
	Name                 string    `json:"name"`
	Active               bool      `json:"active"`
	RequirePaymentProof  bool      `json:"require_payment_proof"`
	LinkedDistributorIDs []string  `json:"linked_distributor_ids,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
