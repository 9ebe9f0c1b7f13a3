package inventory_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/domain/inventory"
)

var kinds = []entity.MovementKind{
	entity.MovementAddition,
	entity.MovementAdjustment,
	entity.MovementTransferOut,
	entity.MovementTransferIn,
	entity.MovementAllocation,
	entity.MovementDeallocation,
	entity.MovementOrderFulfillment,
	entity.MovementOrderCancelled,
}

// step es una solicitud de movimiento generada; se descarta si Apply la rechaza.
type step struct {
	Kind     int
	Quantity int64
	Released int64
	Reason   bool
	Cost     int64
}

func genStep() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, len(kinds)-1),
		gen.Int64Range(-20, 40),
		gen.Int64Range(0, 40),
		gen.Bool(),
		gen.Int64Range(0, 500),
	).Map(func(v []interface{}) step {
		return step{
			Kind:     v[0].(int),
			Quantity: v[1].(int64),
			Released: v[2].(int64),
			Reason:   v[3].(bool),
			Cost:     v[4].(int64),
		}
	})
}

// runSteps aplica los pasos de forma incremental y devuelve la posición y el libro aceptado.
func runSteps(steps []step) (entity.InventoryPosition, []*entity.StockMovement) {
	pos := position(0, 0)
	var ledger []*entity.StockMovement
	var seq int64
	for _, s := range steps {
		kind := kinds[s.Kind]
		onHand, alloc, err := inventory.Deltas(kind, s.Quantity, s.Released)
		if err != nil {
			continue
		}
		m := mov(seq+1, kind, onHand, alloc)
		if s.Reason {
			m.Reason = "conteo físico"
		}
		if onHand > 0 && s.Cost > 0 {
			c := decimal.NewFromInt(s.Cost)
			m.UnitCost = &c
		}
		next, err := inventory.Apply(pos, m)
		if err != nil {
			continue
		}
		seq++
		pos = next
		ledger = append(ledger, m)
	}
	return pos, ledger
}

func TestLedgerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("replay del libro == proyección incremental", prop.ForAll(
		func(steps []step) bool {
			incremental, ledger := runSteps(steps)
			replayed, err := inventory.Replay(key, ledger)
			if err != nil {
				return false
			}
			return replayed.SameQuantities(&incremental)
		},
		gen.SliceOf(genStep()),
	))

	properties.Property("on-hand y allocated nunca negativos", prop.ForAll(
		func(steps []step) bool {
			pos, ledger := runSteps(steps)
			var sum int64
			for _, m := range ledger {
				sum += m.QuantityChange
			}
			return pos.QuantityOnHand >= 0 && pos.QuantityAllocated >= 0 && sum == pos.QuantityOnHand
		},
		gen.SliceOf(genStep()),
	))

	properties.Property("available negativo solo tras un ajuste exento", prop.ForAll(
		func(steps []step) bool {
			pos := position(0, 0)
			_, ledger := runSteps(steps)
			for _, m := range ledger {
				before := pos.Available()
				next, err := inventory.Apply(pos, m)
				if err != nil {
					return false
				}
				if next.Available() < 0 && next.Available() < before && !inventory.IsExempt(m) {
					return false
				}
				pos = next
			}
			return true
		},
		gen.SliceOf(genStep()),
	))

	properties.TestingRun(t)
}
