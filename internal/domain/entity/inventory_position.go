package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryPosition proyección materializada por (variante, organización).
// Es una caché derivada del libro: se puede reconstruir en cualquier momento reproduciendo los movimientos.
type InventoryPosition struct {
	VariantID         string
	OrganizationID    string
	QuantityOnHand    int64
	QuantityAllocated int64
	AverageCost       decimal.Decimal // costo promedio ponderado de las entradas con costo
	LastSeq           int64           // Seq del último movimiento aplicado
	UpdatedAt         time.Time
}

// Available devuelve on-hand menos allocated.
func (p *InventoryPosition) Available() int64 {
	return p.QuantityOnHand - p.QuantityAllocated
}

// SameQuantities compara las cantidades derivadas (ignora marcas de tiempo).
func (p *InventoryPosition) SameQuantities(o *InventoryPosition) bool {
	return p.QuantityOnHand == o.QuantityOnHand &&
		p.QuantityAllocated == o.QuantityAllocated &&
		p.AverageCost.Equal(o.AverageCost) &&
		p.LastSeq == o.LastSeq
}

// StockKey identifica una posición de inventario (variante, organización).
type StockKey struct {
	VariantID      string
	OrganizationID string
}

// String devuelve la clave de bloqueo "stock:<variante>:<organización>".
func (k StockKey) String() string {
	return "stock:" + k.VariantID + ":" + k.OrganizationID
}

// Key devuelve la clave (variante, organización) de la posición.
func (p *InventoryPosition) Key() StockKey {
	return StockKey{VariantID: p.VariantID, OrganizationID: p.OrganizationID}
}
