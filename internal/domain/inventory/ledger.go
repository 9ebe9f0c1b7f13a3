// Package inventory contiene las reglas puras del libro de inventario:
// tabla de efectos por tipo de movimiento, validación de no-negatividad y reproducción (replay).
package inventory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

// effectRule describe el signo permitido de cada delta para un tipo de movimiento.
type effectRule struct {
	deltas func(quantity, released int64) (onHand, allocated int64, err error)
}

func positive(q int64) error {
	if q <= 0 {
		return fmt.Errorf("%w: la cantidad debe ser positiva", domain.ErrInvalidInput)
	}
	return nil
}

var effects = map[entity.MovementKind]effectRule{
	entity.MovementAddition: {func(q, _ int64) (int64, int64, error) {
		return q, 0, positive(q)
	}},
	entity.MovementAdjustment: {func(q, _ int64) (int64, int64, error) {
		if q == 0 {
			return 0, 0, fmt.Errorf("%w: el ajuste no puede ser cero", domain.ErrInvalidInput)
		}
		return q, 0, nil
	}},
	entity.MovementTransferOut: {func(q, _ int64) (int64, int64, error) {
		return -q, 0, positive(q)
	}},
	entity.MovementTransferIn: {func(q, _ int64) (int64, int64, error) {
		return q, 0, positive(q)
	}},
	entity.MovementAllocation: {func(q, _ int64) (int64, int64, error) {
		return 0, q, positive(q)
	}},
	entity.MovementDeallocation: {func(q, _ int64) (int64, int64, error) {
		return 0, -q, positive(q)
	}},
	entity.MovementOrderFulfillment: {func(q, r int64) (int64, int64, error) {
		if err := positive(q); err != nil {
			return 0, 0, err
		}
		if r < 0 || r > q {
			return 0, 0, fmt.Errorf("%w: lo liberado (%d) debe estar entre 0 y %d", domain.ErrInvalidInput, r, q)
		}
		return -q, -r, nil
	}},
	entity.MovementOrderCancelled: {func(_, r int64) (int64, int64, error) {
		return 0, -r, positive(r)
	}},
}

// Deltas devuelve los deltas (on-hand, allocated) de un movimiento según la tabla de efectos.
// quantity es con signo solo para adjustment; released es lo asignado a la orden que se libera
// (order_fulfillment y order_cancelled).
func Deltas(kind entity.MovementKind, quantity, released int64) (onHand, allocated int64, err error) {
	rule, ok := effects[kind]
	if !ok {
		return 0, 0, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, kind)
	}
	return rule.deltas(quantity, released)
}

// IsExempt indica si el movimiento puede dejar available en negativo:
// solo un ajuste negativo con motivo auditado.
func IsExempt(m *entity.StockMovement) bool {
	return m.Kind == entity.MovementAdjustment &&
		m.QuantityChange < 0 &&
		strings.TrimSpace(m.Reason) != ""
}

// Apply valida el movimiento contra la posición actual y devuelve la nueva posición.
// No modifica pos. Reglas:
//   - on-hand y allocated nunca quedan negativos;
//   - un movimiento que reduce available no puede dejarlo negativo salvo que sea exento.
func Apply(pos entity.InventoryPosition, m *entity.StockMovement) (entity.InventoryPosition, error) {
	if _, ok := effects[m.Kind]; !ok {
		return pos, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, m.Kind)
	}
	next := project(pos, m)
	if next.QuantityOnHand < 0 {
		return pos, fmt.Errorf("%w: on-hand quedaría en %d", domain.ErrInsufficientStock, next.QuantityOnHand)
	}
	if next.QuantityAllocated < 0 {
		return pos, fmt.Errorf("%w: se liberan %d y solo hay %d asignadas",
			domain.ErrInvalidInput, -m.AllocatedChange, pos.QuantityAllocated)
	}
	if next.Available() < 0 && next.Available() < pos.Available() && !IsExempt(m) {
		return pos, fmt.Errorf("%w: disponible quedaría en %d", domain.ErrInsufficientStock, next.Available())
	}
	return next, nil
}

// project aplica los deltas sin validar (el libro ya aceptado es la verdad).
func project(pos entity.InventoryPosition, m *entity.StockMovement) entity.InventoryPosition {
	next := pos
	if m.QuantityChange > 0 && m.UnitCost != nil {
		next.AverageCost = WeightedAverage(pos.QuantityOnHand, pos.AverageCost, m.QuantityChange, *m.UnitCost)
	}
	next.QuantityOnHand += m.QuantityChange
	next.QuantityAllocated += m.AllocatedChange
	if m.Seq > next.LastSeq {
		next.LastSeq = m.Seq
	}
	return next
}

// Replay reconstruye la posición de key a partir de sus movimientos en orden del libro.
// Debe coincidir con la proyección incremental producida por Apply.
func Replay(key entity.StockKey, movements []*entity.StockMovement) (entity.InventoryPosition, error) {
	ordered := make([]*entity.StockMovement, len(movements))
	copy(ordered, movements)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	pos := entity.InventoryPosition{VariantID: key.VariantID, OrganizationID: key.OrganizationID}
	for _, m := range ordered {
		if m.Key() != key {
			return pos, fmt.Errorf("%w: movimiento %s no pertenece a %s", domain.ErrInvalidInput, m.ID, key)
		}
		pos = project(pos, m)
	}
	return pos, nil
}
