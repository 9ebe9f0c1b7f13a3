package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType determina el par comprador/vendedor.
type OrderType string

const (
	OrderTypeH2M OrderType = "H2M" // casa matriz compra a fabricante
	OrderTypeD2H OrderType = "D2H" // distribuidor compra a casa matriz
	OrderTypeS2D OrderType = "S2D" // tienda compra a distribuidor
)

// Valid indica si el tipo de orden es conocido.
func (t OrderType) Valid() bool {
	return t == OrderTypeH2M || t == OrderTypeD2H || t == OrderTypeS2D
}

// OrderStatus estado del ciclo de vida de la orden.
type OrderStatus string

// Estados de la orden. closed es terminal.
const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusSubmitted OrderStatus = "submitted"
	OrderStatusApproved  OrderStatus = "approved"
	OrderStatusClosed    OrderStatus = "closed"
)

// Order representa una orden entre dos organizaciones de la jerarquía.
type Order struct {
	ID            string
	CompanyID     string // HQ raíz del comprador (alcance multi-tenant)
	Type          OrderType
	Status        OrderStatus
	BuyerOrgID    string
	SellerOrgID   string
	ParentOrderID string // opcional: orden aguas arriba de la que depende
	Items         []OrderItem
	Notes         string
	CreatedBy     string
	CreatedAt     time.Time
	SubmittedAt   *time.Time
	ApprovedAt    *time.Time
	ApprovedBy    string
	ClosedAt      *time.Time
	UpdatedAt     time.Time
}

// OrderItem línea de la orden (variante, cantidad, precio unitario).
type OrderItem struct {
	ID        string
	OrderID   string
	VariantID string
	Quantity  int64
	UnitPrice decimal.Decimal
}

// Total suma cantidad * precio de todas las líneas.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)))
	}
	return total
}
