package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind tipo de movimiento del libro de inventario.
type MovementKind string

const (
	MovementAddition         MovementKind = "addition"
	MovementAdjustment       MovementKind = "adjustment"
	MovementTransferOut      MovementKind = "transfer_out"
	MovementTransferIn       MovementKind = "transfer_in"
	MovementAllocation       MovementKind = "allocation"
	MovementDeallocation     MovementKind = "deallocation"
	MovementOrderFulfillment MovementKind = "order_fulfillment"
	MovementOrderCancelled   MovementKind = "order_cancelled"
)

// Tipos de entidad referenciada por un movimiento.
const (
	ReferenceNone     = ""
	ReferenceOrder    = "order"
	ReferenceTransfer = "transfer"
)

// StockMovement registro inmutable del libro (append-only). Nunca se actualiza ni se elimina.
// QuantityChange es el delta sobre on-hand; AllocatedChange el delta sobre allocated.
type StockMovement struct {
	ID              string
	Seq             int64 // orden del libro, asignado por la persistencia
	Kind            MovementKind
	VariantID       string
	OrganizationID  string
	QuantityChange  int64
	AllocatedChange int64
	QuantityBefore  int64 // auditoría, no autoritativo
	QuantityAfter   int64
	UnitCost        *decimal.Decimal
	ReferenceType   string
	ReferenceID     string
	IdempotencyKey  string // único cuando no es vacío
	Reason          string
	Notes           string
	CreatedBy       string
	CreatedAt       time.Time
}

// Key devuelve la clave (variante, organización) del movimiento.
func (m *StockMovement) Key() StockKey {
	return StockKey{VariantID: m.VariantID, OrganizationID: m.OrganizationID}
}
