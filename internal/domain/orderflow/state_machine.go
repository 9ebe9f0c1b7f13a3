// Package orderflow define las máquinas de estado de la orden y de la cadena de documentos.
package orderflow

import (
	"fmt"

	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

// transitions: estado actual -> siguiente permitido (draft -> submitted -> approved -> closed).
var transitions = map[entity.OrderStatus]entity.OrderStatus{
	entity.OrderStatusDraft:     entity.OrderStatusSubmitted,
	entity.OrderStatusSubmitted: entity.OrderStatusApproved,
	entity.OrderStatusApproved:  entity.OrderStatusClosed,
}

// CheckTransition devuelve ErrIllegalTransition si from -> to no está en la tabla.
func CheckTransition(from, to entity.OrderStatus) error {
	if next, ok := transitions[from]; ok && next == to {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", domain.ErrIllegalTransition, from, to)
}

// CanEditItems indica si las líneas de la orden pueden cambiar (solo en draft).
func CanEditItems(status entity.OrderStatus) bool {
	return status == entity.OrderStatusDraft
}

// CanDelete indica si la orden puede eliminarse (draft o submitted).
func CanDelete(status entity.OrderStatus) bool {
	return status == entity.OrderStatusDraft || status == entity.OrderStatusSubmitted
}

// SatisfiesDependency indica si una orden padre en este estado habilita a sus hijas.
func SatisfiesDependency(status entity.OrderStatus) bool {
	return status == entity.OrderStatusApproved || status == entity.OrderStatusClosed
}
