package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
type RegisterMovementRequest struct {
	Kind           string           `json:"kind" validate:"required,oneof=addition adjustment allocation deallocation"`
	VariantID      string           `json:"variant_id" validate:"required"`
	OrganizationID string           `json:"organization_id" validate:"required,uuid"`
	Quantity       int64            `json:"quantity" validate:"required"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	Reason         string           `json:"reason,omitempty" validate:"max=500"`
	Notes          string           `json:"notes,omitempty" validate:"max=1000"`
}

// TransferLineRequest línea de traslado.
type TransferLineRequest struct {
	VariantID string           `json:"variant_id" validate:"required"`
	Quantity  int64            `json:"quantity" validate:"required,gt=0"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
}

// CreateTransferRequest body para POST /api/inventory/transfers.
type CreateTransferRequest struct {
	FromOrgID string                `json:"from_org_id" validate:"required,uuid"`
	ToOrgID   string                `json:"to_org_id" validate:"required,uuid,nefield=FromOrgID"`
	Lines     []TransferLineRequest `json:"lines" validate:"required,min=1,dive"`
	Notes     string                `json:"notes,omitempty" validate:"max=1000"`
}

// MovementResponse movimiento del libro.
type MovementResponse struct {
	ID              string           `json:"id"`
	Seq             int64            `json:"seq"`
	Kind            string           `json:"kind"`
	VariantID       string           `json:"variant_id"`
	OrganizationID  string           `json:"organization_id"`
	QuantityChange  int64            `json:"quantity_change"`
	AllocatedChange int64            `json:"allocated_change"`
	QuantityBefore  int64            `json:"quantity_before"`
	QuantityAfter   int64            `json:"quantity_after"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceType   string           `json:"reference_type,omitempty"`
	ReferenceID     string           `json:"reference_id,omitempty"`
	Reason          string           `json:"reason,omitempty"`
	CreatedBy       string           `json:"created_by"`
	CreatedAt       time.Time        `json:"created_at"`
}

// PositionResponse posición de inventario.
type PositionResponse struct {
	VariantID         string          `json:"variant_id"`
	OrganizationID    string          `json:"organization_id"`
	QuantityOnHand    int64           `json:"quantity_on_hand"`
	QuantityAllocated int64           `json:"quantity_allocated"`
	QuantityAvailable int64           `json:"quantity_available"`
	AverageCost       decimal.Decimal `json:"average_cost"`
	LastSeq           int64           `json:"last_seq"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TransferResponse traslado.
type TransferResponse struct {
	ID         string                `json:"id"`
	FromOrgID  string                `json:"from_org_id"`
	ToOrgID    string                `json:"to_org_id"`
	Status     string                `json:"status"`
	Lines      []TransferLineRequest `json:"lines"`
	Notes      string                `json:"notes,omitempty"`
	CreatedBy  string                `json:"created_by"`
	CreatedAt  time.Time             `json:"created_at"`
	ReceivedBy string                `json:"received_by,omitempty"`
	ReceivedAt *time.Time            `json:"received_at,omitempty"`
}
