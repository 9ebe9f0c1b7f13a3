package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemRequest línea de la orden.
type OrderItemRequest struct {
	VariantID string          `json:"variant_id" validate:"required"`
	Quantity  int64           `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateOrderRequest body para POST /api/orders.
type CreateOrderRequest struct {
	Type          string             `json:"type" validate:"required,oneof=H2M D2H S2D"`
	BuyerOrgID    string             `json:"buyer_org_id" validate:"required,uuid"`
	SellerOrgID   string             `json:"seller_org_id" validate:"required,uuid"`
	ParentOrderID string             `json:"parent_order_id,omitempty" validate:"omitempty,uuid"`
	Notes         string             `json:"notes,omitempty" validate:"max=1000"`
	Items         []OrderItemRequest `json:"items" validate:"dive"`
}

// UpdateOrderItemsRequest body para PUT /api/orders/:id/items (reemplaza todas las líneas).
type UpdateOrderItemsRequest struct {
	Items []OrderItemRequest `json:"items" validate:"dive"`
}

// OrderItemResponse línea de la orden en respuestas.
type OrderItemResponse struct {
	ID        string          `json:"id"`
	VariantID string          `json:"variant_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderResponse respuesta de orden.
type OrderResponse struct {
	ID            string              `json:"id"`
	CompanyID     string              `json:"company_id"`
	Type          string              `json:"type"`
	Status        string              `json:"status"`
	BuyerOrgID    string              `json:"buyer_org_id"`
	SellerOrgID   string              `json:"seller_org_id"`
	ParentOrderID string              `json:"parent_order_id,omitempty"`
	Items         []OrderItemResponse `json:"items"`
	Total         decimal.Decimal     `json:"total"`
	Notes         string              `json:"notes,omitempty"`
	CreatedBy     string              `json:"created_by"`
	CreatedAt     time.Time           `json:"created_at"`
	SubmittedAt   *time.Time          `json:"submitted_at,omitempty"`
	ApprovedAt    *time.Time          `json:"approved_at,omitempty"`
	ApprovedBy    string              `json:"approved_by,omitempty"`
	ClosedAt      *time.Time          `json:"closed_at,omitempty"`
}

// ApproveOrderResponse orden aprobada y la PO creada en la misma transacción.
type ApproveOrderResponse struct {
	Order OrderResponse    `json:"order"`
	PO    DocumentResponse `json:"po"`
}
