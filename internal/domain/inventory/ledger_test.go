package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/internal/domain/inventory"
)

var key = entity.StockKey{VariantID: "var-1", OrganizationID: "org-1"}

func mov(seq int64, kind entity.MovementKind, q, a int64) *entity.StockMovement {
	return &entity.StockMovement{
		Seq: seq, Kind: kind, VariantID: key.VariantID, OrganizationID: key.OrganizationID,
		QuantityChange: q, AllocatedChange: a,
	}
}

func position(onHand, allocated int64) entity.InventoryPosition {
	return entity.InventoryPosition{
		VariantID: key.VariantID, OrganizationID: key.OrganizationID,
		QuantityOnHand: onHand, QuantityAllocated: allocated,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tabla de efectos
// ──────────────────────────────────────────────────────────────────────────────

func TestDeltas_TablaDeEfectos(t *testing.T) {
	cases := []struct {
		kind     entity.MovementKind
		q, r     int64
		onHand   int64
		alloc    int64
		wantsErr bool
	}{
		{entity.MovementAddition, 5, 0, 5, 0, false},
		{entity.MovementAddition, -5, 0, 0, 0, true},
		{entity.MovementAdjustment, -3, 0, -3, 0, false},
		{entity.MovementAdjustment, 0, 0, 0, 0, true},
		{entity.MovementTransferOut, 4, 0, -4, 0, false},
		{entity.MovementTransferIn, 4, 0, 4, 0, false},
		{entity.MovementAllocation, 7, 0, 0, 7, false},
		{entity.MovementDeallocation, 7, 0, 0, -7, false},
		{entity.MovementOrderFulfillment, 10, 6, -10, -6, false},
		{entity.MovementOrderFulfillment, 10, 11, 0, 0, true},
		{entity.MovementOrderCancelled, 0, 6, 0, -6, false},
		{entity.MovementOrderCancelled, 0, 0, 0, 0, true},
		{entity.MovementKind("teleport"), 1, 0, 0, 0, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			onHand, alloc, err := inventory.Deltas(tc.kind, tc.q, tc.r)
			if tc.wantsErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.onHand, onHand)
			assert.Equal(t, tc.alloc, alloc)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Apply: no-negatividad y exenciones
// ──────────────────────────────────────────────────────────────────────────────

func TestApply_SalidaSinStockFalla(t *testing.T) {
	_, err := inventory.Apply(position(3, 0), mov(1, entity.MovementTransferOut, -4, 0))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestApply_AsignacionMayorQueDisponibleFalla(t *testing.T) {
	_, err := inventory.Apply(position(10, 8), mov(1, entity.MovementAllocation, 0, 3))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestApply_DesasignarMasDeLoAsignadoFalla(t *testing.T) {
	_, err := inventory.Apply(position(10, 2), mov(1, entity.MovementDeallocation, 0, -3))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestApply_AjusteNegativoConMotivoPuedeDejarDisponibleNegativo(t *testing.T) {
	m := mov(1, entity.MovementAdjustment, -50, 0)
	m.Reason = "merma por inventario físico"

	next, err := inventory.Apply(position(90, 50), m)
	require.NoError(t, err)
	assert.Equal(t, int64(40), next.QuantityOnHand)
	assert.Equal(t, int64(-10), next.Available())
}

func TestApply_AjusteNegativoSinMotivoNoEsExento(t *testing.T) {
	_, err := inventory.Apply(position(90, 50), mov(1, entity.MovementAdjustment, -50, 0))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestApply_AjusteExentoNuncaDejaOnHandNegativo(t *testing.T) {
	m := mov(1, entity.MovementAdjustment, -91, 0)
	m.Reason = "robo"
	_, err := inventory.Apply(position(90, 50), m)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestApply_EntradaConDisponibleNegativoSeAcepta(t *testing.T) {
	next, err := inventory.Apply(position(40, 50), mov(2, entity.MovementAddition, 5, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(-5), next.Available())
	assert.Equal(t, int64(2), next.LastSeq)
}

func TestApply_CumplimientoLiberaLoAsignado(t *testing.T) {
	next, err := inventory.Apply(position(10, 6), mov(3, entity.MovementOrderFulfillment, -6, -6))
	require.NoError(t, err)
	assert.Equal(t, int64(4), next.QuantityOnHand)
	assert.Equal(t, int64(0), next.QuantityAllocated)
	assert.Equal(t, int64(4), next.Available())
}

func TestApply_NoModificaLaPosicionOriginal(t *testing.T) {
	pos := position(10, 0)
	_, err := inventory.Apply(pos, mov(1, entity.MovementAddition, 5, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(10), pos.QuantityOnHand)
}

func TestApply_CostoPromedioPonderado(t *testing.T) {
	m1 := mov(1, entity.MovementAddition, 10, 0)
	c1 := decimal.NewFromInt(100)
	m1.UnitCost = &c1
	m2 := mov(2, entity.MovementAddition, 10, 0)
	c2 := decimal.NewFromInt(200)
	m2.UnitCost = &c2

	pos, err := inventory.Apply(position(0, 0), m1)
	require.NoError(t, err)
	pos, err = inventory.Apply(pos, m2)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(pos.AverageCost), "costo promedio: %s", pos.AverageCost)
}

// ──────────────────────────────────────────────────────────────────────────────
// Replay
// ──────────────────────────────────────────────────────────────────────────────

func TestReplay_IgualALaProyeccionIncremental(t *testing.T) {
	ledger := []*entity.StockMovement{
		mov(1, entity.MovementAddition, 100, 0),
		mov(2, entity.MovementAllocation, 0, 30),
		mov(3, entity.MovementTransferOut, -20, 0),
		mov(4, entity.MovementOrderFulfillment, -30, -30),
		mov(5, entity.MovementTransferIn, 5, 0),
	}
	incremental := position(0, 0)
	for _, m := range ledger {
		var err error
		incremental, err = inventory.Apply(incremental, m)
		require.NoError(t, err)
	}

	// Orden de entrada alterado: Replay ordena por Seq.
	shuffled := []*entity.StockMovement{ledger[3], ledger[0], ledger[4], ledger[2], ledger[1]}
	replayed, err := inventory.Replay(key, shuffled)
	require.NoError(t, err)
	assert.True(t, replayed.SameQuantities(&incremental))
	assert.Equal(t, int64(55), replayed.QuantityOnHand)
	assert.Equal(t, int64(5), replayed.LastSeq)
}

func TestReplay_RechazaMovimientoDeOtraClave(t *testing.T) {
	other := mov(1, entity.MovementAddition, 1, 0)
	other.OrganizationID = "org-2"
	_, err := inventory.Replay(key, []*entity.StockMovement{other})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIsExempt(t *testing.T) {
	m := mov(1, entity.MovementAdjustment, -1, 0)
	assert.False(t, inventory.IsExempt(m))
	m.Reason = "   "
	assert.False(t, inventory.IsExempt(m))
	m.Reason = "daño"
	assert.True(t, inventory.IsExempt(m))
	m.QuantityChange = 1
	assert.False(t, inventory.IsExempt(m))
}

func TestWeightedAverage(t *testing.T) {
	// 10 a 100 + 10 a 200 = 20 a 150
	got := inventory.WeightedAverage(10, decimal.NewFromInt(100), 10, decimal.NewFromInt(200))
	assert.True(t, got.Equal(decimal.NewFromInt(150)), got.String())

	// saldo negativo no arrastra su costo
	got = inventory.WeightedAverage(-5, decimal.NewFromInt(999), 4, decimal.NewFromInt(30))
	assert.True(t, got.Equal(decimal.NewFromInt(30)), got.String())

	assert.True(t, inventory.WeightedAverage(0, decimal.Zero, 0, decimal.NewFromInt(1)).IsZero())
}
