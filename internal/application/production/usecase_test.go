package production_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/lotes-api/internal/application/dto"
	"github.com/jhoicas/lotes-api/internal/application/inventory"
	"github.com/jhoicas/lotes-api/internal/application/production"
	"github.com/jhoicas/lotes-api/internal/domain"
	"github.com/jhoicas/lotes-api/internal/domain/authz"
	"github.com/jhoicas/lotes-api/internal/domain/entity"
	"github.com/jhoicas/lotes-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

var (
	produccion = authz.Actor{ID: "u-prod", Role: entity.RoleProduccion}
	ventas     = authz.Actor{ID: "u-ventas", Role: entity.RoleVentas}
)

type env struct {
	store *memory.Store
	inv   *inventory.UseCase
	prod  *production.UseCase
}

// newEnv arma el servicio de batches. atomic=true usa el TxRunner del store
// (camino transaccional nativo); atomic=false lo construye sin TxRunner, lo
// que activa la saga con compensación. El contrato observable debe ser el
// mismo en ambos modos.
func newEnv(t *testing.T, atomic bool) *env {
	t.Helper()
	store := memory.NewStore()
	inv := inventory.NewUseCase(store, store.Lots(), store.Transactions(), nil)
	var txRunner production.TxRunner
	if atomic {
		txRunner = store
	}
	prod := production.NewUseCase(txRunner, inv, store.Lots(), store.Transactions(), store.Batches(), nil)
	return &env{store: store, inv: inv, prod: prod}
}

var day1 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func (e *env) seedLot(t *testing.T, lotNumber string, qty, cost int64, intakeAt time.Time) *entity.MaterialLot {
	t.Helper()
	lot, err := e.inv.RegisterIntake(context.Background(), inventory.IntakeInput{
		MaterialID:  "harina-000",
		LotNumber:   lotNumber,
		Quantity:    decimal.NewFromInt(qty),
		CostPerUnit: decimal.NewFromInt(cost),
		IntakeAt:    &intakeAt,
		Actor:       produccion,
	})
	require.NoError(t, err)
	return lot
}

func (e *env) remaining(t *testing.T, lotID string) decimal.Decimal {
	t.Helper()
	lot, err := e.store.Lots().GetByID(lotID)
	require.NoError(t, err)
	require.NotNil(t, lot)
	return lot.QuantityRemaining
}

// bothModes corre el mismo escenario con tx nativa y con saga.
func bothModes(t *testing.T, fn func(t *testing.T, e *env)) {
	t.Run("atomic", func(t *testing.T) { fn(t, newEnv(t, true)) })
	t.Run("saga", func(t *testing.T) { fn(t, newEnv(t, false)) })
}

// ──────────────────────────────────────────────────────────────────────────────
// Create
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_ConsumeLotesYCapturaCostos(t *testing.T) {
	bothModes(t, func(t *testing.T, e *env) {
		l1 := e.seedLot(t, "L-001", 25, 450, day1)
		l2 := e.seedLot(t, "L-002", 30, 460, day1.AddDate(0, 0, 1))

		batch, err := e.prod.Create(context.Background(), produccion, dto.CreateBatchRequest{
			BatchNumber: "B-2025-001",
			Inputs: []dto.BatchInputRequest{
				{LotID: l1.ID, Quantity: decimal.NewFromInt(25)},
				{LotID: l2.ID, Quantity: decimal.NewFromInt(15)},
			},
		})

		require.NoError(t, err)
		assert.True(t, e.remaining(t, l1.ID).IsZero(), "L1 agotado")
		assert.True(t, e.remaining(t, l2.ID).Equal(decimal.NewFromInt(15)))
		assert.True(t, batch.TotalInputCost.Equal(decimal.NewFromInt(18150)),
			"25×450 + 15×460 = 18150, got %s", batch.TotalInputCost)
		require.Len(t, batch.Inputs, 2)
		assert.True(t, batch.Inputs[0].UnitCost.Equal(decimal.NewFromInt(450)),
			"el costo unitario se captura del lote al consumir")
		assert.Equal(t, entity.BatchStatusDraft, batch.Status)

		// Persistido con insumos
		stored, err := e.store.Batches().GetByID(batch.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Len(t, stored.Inputs, 2)

		// Un decremento auditado por insumo
		txs, err := e.store.Transactions().ListByReference(batch.ID)
		require.NoError(t, err)
		require.Len(t, txs, 2)
		for _, tx := range txs {
			assert.Equal(t, entity.TxKindDecrement, tx.Kind)
			assert.Equal(t, entity.RefTypeProductionBatch, tx.ReferenceType)
		}
	})
}

func TestCreate_TodoONada(t *testing.T) {
	bothModes(t, func(t *testing.T, e *env) {
		l1 := e.seedLot(t, "L-001", 25, 450, day1)
		l2 := e.seedLot(t, "L-002", 30, 460, day1.AddDate(0, 0, 1))

		_, err := e.prod.Create(context.Background(), produccion, dto.CreateBatchRequest{
			BatchNumber: "B-2025-001",
			Inputs: []dto.BatchInputRequest{
				{LotID: l1.ID, Quantity: decimal.NewFromInt(25)},
				{LotID: l2.ID, Quantity: decimal.NewFromInt(31)}, // L2 solo tiene 30
			},
		})

		require.Error(t, err)
		assert.True(t, e.remaining(t, l1.ID).Equal(decimal.NewFromInt(25)),
			"el decremento previo de L1 debe quedar revertido")
		assert.True(t, e.remaining(t, l2.ID).Equal(decimal.NewFromInt(30)))
		stored, getErr := e.store.Batches().GetByNumber("B-2025-001")
		require.NoError(t, getErr)
		assert.Nil(t, stored, "ningún batch parcial debe persistirse")
	})
}

func TestCreate_SagaCompensaYReportaElFalloParcial(t *testing.T) {
	e := newEnv(t, false) // saga
	l1 := e.seedLot(t, "L-001", 25, 450, day1)
	l2 := e.seedLot(t, "L-002", 30, 460, day1.AddDate(0, 0, 1))

	_, err := e.prod.Create(context.Background(), produccion, dto.CreateBatchRequest{
		BatchNumber: "B-2025-001",
		Inputs: []dto.BatchInputRequest{
			{LotID: l1.ID, Quantity: decimal.NewFromInt(25)},
			{LotID: l2.ID, Quantity: decimal.NewFromInt(31)},
		},
	})

	var pf *domain.PartialFailureError
	require.ErrorAs(t, err, &pf)
	assert.ErrorIs(t, err, domain.ErrPartialFailure)
	assert.Equal(t, l2.ID, pf.FailedLotID)
	assert.Equal(t, []string{l1.ID}, pf.Compensated, "L1 fue decrementado y luego compensado")
	assert.True(t, errors.Is(pf.Cause, domain.ErrInsufficientStock))

	// La compensación queda auditada: decremento + incremento compensatorio en L1.
	txs, err := e.store.Transactions().ListByLot(l1.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, entity.TxKindIncrement, txs[0].Kind, "la compensación es lo último aplicado")
	assert.Equal(t, entity.RefTypeProductionBatchCompensation, txs[0].ReferenceType)
}

func TestCreate_NumeroDuplicado(t *testing.T) {
	bothModes(t, func(t *testing.T, e *env) {
		_, err := e.prod.Create(context.Background(), produccion, dto.CreateBatchRequest{BatchNumber: "B-1"})
		require.NoError(t, err)

		_, err = e.prod.Create(context.Background(), produccion, dto.CreateBatchRequest{BatchNumber: "B-1"})
		assert.ErrorIs(t, err, domain.ErrDuplicate)
	})
}

func TestCreate_SinInsumosEsValido(t *testing.T) {
	bothModes(t, func(t *testing.T, e *env) {
		batch, err := e.prod.Create(context.Background(), produccion, dto.CreateBatchRequest{BatchNumber: "B-1"})

		require.NoError(t, err)
		assert.Empty(t, batch.Inputs)
		assert.True(t, batch.TotalInputCost.IsZero())
	})
}

func TestCreate_RolSinPermisoDeBatches(t *testing.T) {
	e := newEnv(t, true)

	_, err := e.prod.Create(context.Background(), ventas, dto.CreateBatchRequest{BatchNumber: "B-1"})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// ──────────────────────────────────────────────────────────────────────────────
// Update
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdate_SoloCabeceraNoTocaInventario(t *testing.T) {
	bothModes(t, func(t *testing.T, e *env) {
		l1 := e.seedLot(t, "L-001", 25, 450, day1)
		batch, err := e.prod.Create(context.Background(), produccion, dto.CreateBatchRequest{
			BatchNumber: "B-1",
			Inputs:      []dto.BatchInputRequest{{LotID: l1.ID, Quantity: decimal.NewFromInt(10)}},
		})
		require.NoError(t, err)

		notes := "nota actualizada"
		updated, err := e.prod.Update(context.Background(), produccion, batch.ID, dto.UpdateBatchRequest{Notes: &notes})

		require.NoError(t, err)
		assert.Equal(t, "nota actualizada", updated.Notes)
		assert.True(t, e.remaining(t, l1.ID).Equal(decimal.NewFromInt(15)),
			"sin inputs en el request no hay efecto de inventario")
		txs, _ := e.store.Transactions().ListByReference(batch.ID)
		assert.Len(t, txs, 1, "solo el decremento original")
	})
}

func TestUpdate_ReemplazaInsumosRestaurandoLosViejos(t *testing.T) {
	bothModes(t, func(t *testing.T, e *env) {
		l1 := e.seedLot(t, "L-001", 25, 450, day1)
		l2 := e.seedLot(t, "L-002", 30, 460, day1.AddDate(0, 0, 1))
		batch, err := e.prod.Create(context.Background(), produccion, dto.CreateBatchRequest{
			BatchNumber: "B-1",
			Inputs:      []dto.BatchInputRequest{{LotID: l1.ID, Quantity: decimal.NewFromInt(10)}},
		})
		require.NoError(t, err)

		newInputs := []dto.BatchInputRequest{{LotID: l2.ID, Quantity: decimal.NewFromInt(5)}}
		updated, err := e.prod.Update(context.Background(), produccion, batch.ID, dto.UpdateBatchRequest{Inputs: &newInputs})

		require.NoError(t, err)
		assert.True(t, e.remaining(t, l1.ID).Equal(decimal.NewFromInt(25)), "L1 restaurado por completo")
		assert.True(t, e.remaining(t, l2.ID).Equal(decimal.NewFromInt(25)), "L2 consumido")
		require.Len(t, updated.Inputs, 1)
		assert.Equal(t, l2.ID, updated.Inputs[0].LotID)
		assert.True(t, updated.TotalInputCost.Equal(decimal.NewFromInt(2300)), "5×460")

		stored, err := e.store.Batches().GetByID(batch.ID)
		require.NoError(t, err)
		require.Len(t, stored.Inputs, 1)
		assert.Equal(t, l2.ID, stored.Inputs[0].LotID)
	})
}

func TestUpdate_ReemplazoFallidoNoCambiaNada(t *testing.T) {
	bothModes(t, func(t *testing.T, e *env) {
		l1 := e.seedLot(t, "L-001", 25, 450, day1)
		l2 := e.seedLot(t, "L-002", 30, 460, day1.AddDate(0, 0, 1))
		batch, err := e.prod.Create(context.Background(), produccion, dto.CreateBatchRequest{
			BatchNumber: "B-1",
			Inputs:      []dto.BatchInputRequest{{LotID: l1.ID, Quantity: decimal.NewFromInt(10)}},
		})
		require.NoError(t, err)

		newInputs := []dto.BatchInputRequest{{LotID: l2.ID, Quantity: decimal.NewFromInt(31)}}
		_, err = e.prod.Update(context.Background(), produccion, batch.ID, dto.UpdateBatchRequest{Inputs: &newInputs})

		require.Error(t, err)
		assert.True(t, e.remaining(t, l1.ID).Equal(decimal.NewFromInt(15)),
			"el consumo original de L1 sigue en pie")
		assert.True(t, e.remaining(t, l2.ID).Equal(decimal.NewFromInt(30)))
		stored, getErr := e.store.Batches().GetByID(batch.ID)
		require.NoError(t, getErr)
		require.Len(t, stored.Inputs, 1)
		assert.Equal(t, l1.ID, stored.Inputs[0].LotID, "los insumos persistidos no cambian")
	})
}

func TestUpdate_BatchTerminalRechazado(t *testing.T) {
	e := newEnv(t, true)
	batch, err := e.prod.Create(context.Background(), produccion, dto.CreateBatchRequest{BatchNumber: "B-1"})
	require.NoError(t, err)
	_, err = e.prod.Complete(context.Background(), produccion, batch.ID, dto.CompleteBatchRequest{
		OutputQuantity: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	notes := "tarde"
	_, err = e.prod.Update(context.Background(), produccion, batch.ID, dto.UpdateBatchRequest{Notes: &notes})

	var transition *domain.InvalidTransitionError
	require.ErrorAs(t, err, &transition)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ──────────────────────────────────────────────────────────────────────────────
// Complete
// ──────────────────────────────────────────────────────────────────────────────

func TestComplete_DerivaCostoPorUnidad(t *testing.T) {
	e := newEnv(t, true)
	l1 := e.seedLot(t, "L-001", 25, 450, day1)
	l2 := e.seedLot(t, "L-002", 30, 460, day1.AddDate(0, 0, 1))
	batch, err := e.prod.Create(context.Background(), produccion, dto.CreateBatchRequest{
		BatchNumber: "B-1",
		Inputs: []dto.BatchInputRequest{
			{LotID: l1.ID, Quantity: decimal.NewFromInt(25)},
			{LotID: l2.ID, Quantity: decimal.NewFromInt(15)},
		},
	})
	require.NoError(t, err)

	completed, err := e.prod.Complete(context.Background(), produccion, batch.ID, dto.CompleteBatchRequest{
		OutputQuantity: decimal.NewFromInt(100),
	})

	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusCompleted, completed.Status)
	assert.True(t, completed.CostPerUnit.Equal(decimal.NewFromFloat(181.5)),
		"18150 / 100 = 181.5, got %s", completed.CostPerUnit)
}

func TestComplete_ProduccionCeroSinDivisionPorCero(t *testing.T) {
	e := newEnv(t, true)
	l1 := e.seedLot(t, "L-001", 25, 450, day1)
	batch, err := e.prod.Create(context.Background(), produccion, dto.CreateBatchRequest{
		BatchNumber: "B-1",
		Inputs:      []dto.BatchInputRequest{{LotID: l1.ID, Quantity: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)

	completed, err := e.prod.Complete(context.Background(), produccion, batch.ID, dto.CompleteBatchRequest{
		OutputQuantity: decimal.Zero,
	})

	require.NoError(t, err, "una corrida fallida (0 producido) se puede cerrar igual")
	assert.True(t, completed.CostPerUnit.IsZero())
	assert.True(t, completed.TotalInputCost.Equal(decimal.NewFromInt(4500)),
		"el costo consumido no desaparece")
}

func TestComplete_DosVecesRechazado(t *testing.T) {
	e := newEnv(t, true)
	batch, err := e.prod.Create(context.Background(), produccion, dto.CreateBatchRequest{BatchNumber: "B-1"})
	require.NoError(t, err)
	_, err = e.prod.Complete(context.Background(), produccion, batch.ID, dto.CompleteBatchRequest{
		OutputQuantity: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	_, err = e.prod.Complete(context.Background(), produccion, batch.ID, dto.CompleteBatchRequest{
		OutputQuantity: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ──────────────────────────────────────────────────────────────────────────────
// Rollback
// ──────────────────────────────────────────────────────────────────────────────

func TestRollback_RestauraTodosLosInsumos(t *testing.T) {
	bothModes(t, func(t *testing.T, e *env) {
		l1 := e.seedLot(t, "L-001", 25, 450, day1)
		l2 := e.seedLot(t, "L-002", 30, 460, day1.AddDate(0, 0, 1))
		batch, err := e.prod.Create(context.Background(), produccion, dto.CreateBatchRequest{
			BatchNumber: "B-1",
			Inputs: []dto.BatchInputRequest{
				{LotID: l1.ID, Quantity: decimal.NewFromInt(25)},
				{LotID: l2.ID, Quantity: decimal.NewFromInt(15)},
			},
		})
		require.NoError(t, err)

		result, err := e.prod.Rollback(context.Background(), produccion, batch.ID, "orden cancelada")

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{l1.ID, l2.ID}, result.RestoredLots)
		assert.Empty(t, result.Failures)
		assert.True(t, e.remaining(t, l1.ID).Equal(decimal.NewFromInt(25)))
		assert.True(t, e.remaining(t, l2.ID).Equal(decimal.NewFromInt(30)))

		stored, err := e.store.Batches().GetByID(batch.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.BatchStatusCancelled, stored.Status)

		// Las restauraciones quedan en el log con su referencia de rollback.
		txs, err := e.store.Transactions().ListByReference(batch.ID)
		require.NoError(t, err)
		restores := 0
		for _, tx := range txs {
			if tx.ReferenceType == entity.RefTypeProductionBatchRollback {
				restores++
				assert.Equal(t, "orden cancelada", tx.Reason)
			}
		}
		assert.Equal(t, 2, restores)
	})
}

func TestRollback_BestEffortCancelaAunqueUnaRestauracionFalle(t *testing.T) {
	e := newEnv(t, true)
	l1 := e.seedLot(t, "L-001", 25, 450, day1)
	l2 := e.seedLot(t, "L-002", 30, 460, day1.AddDate(0, 0, 1))
	batch, err := e.prod.Create(context.Background(), produccion, dto.CreateBatchRequest{
		BatchNumber: "B-1",
		Inputs: []dto.BatchInputRequest{
			{LotID: l1.ID, Quantity: decimal.NewFromInt(10)},
			{LotID: l2.ID, Quantity: decimal.NewFromInt(15)},
		},
	})
	require.NoError(t, err)

	// Alguien ya restauró L1 por fuera: el increment del rollback violaría el
	// tope received y falla; L2 debe restaurarse igual.
	require.NoError(t, e.inv.Increment(context.Background(), inventory.MovementInput{
		LotID: l1.ID, Quantity: decimal.NewFromInt(10), Actor: produccion,
	}))

	result, err := e.prod.Rollback(context.Background(), produccion, batch.ID, "limpieza")

	require.NoError(t, err, "el rollback nunca es error fatal por una restauración fallida")
	assert.Equal(t, []string{l2.ID}, result.RestoredLots)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0], l1.ID)
	assert.True(t, e.remaining(t, l2.ID).Equal(decimal.NewFromInt(30)),
		"la falla en L1 no impidió restaurar L2")

	stored, err := e.store.Batches().GetByID(batch.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusCancelled, stored.Status,
		"el batch queda cancelled aunque haya fallas")
}

func TestRollback_BatchCompletadoRechazado(t *testing.T) {
	e := newEnv(t, true)
	batch, err := e.prod.Create(context.Background(), produccion, dto.CreateBatchRequest{BatchNumber: "B-1"})
	require.NoError(t, err)
	_, err = e.prod.Complete(context.Background(), produccion, batch.ID, dto.CompleteBatchRequest{
		OutputQuantity: decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	_, err = e.prod.Rollback(context.Background(), produccion, batch.ID, "tarde")

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ──────────────────────────────────────────────────────────────────────────────
// Trazabilidad
// ──────────────────────────────────────────────────────────────────────────────

func TestAuditTrail_ReconstruyeLaLineaDeTiempo(t *testing.T) {
	e := newEnv(t, true)
	l1 := e.seedLot(t, "L-001", 25, 450, day1)
	batch, err := e.prod.Create(context.Background(), produccion, dto.CreateBatchRequest{
		BatchNumber: "B-1",
		Inputs:      []dto.BatchInputRequest{{LotID: l1.ID, Quantity: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)
	_, err = e.prod.Rollback(context.Background(), produccion, batch.ID, "cancelado")
	require.NoError(t, err)

	events, err := e.prod.AuditTrail(context.Background(), batch.ID)

	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "batch_created", events[0].Type)
	assert.Equal(t, produccion.ID, events[0].Actor)
	assert.Equal(t, "inventory_decremented", events[1].Type)
	assert.True(t, events[1].Quantity.Equal(decimal.NewFromInt(10)), "cantidad sin signo")
	assert.Equal(t, "inventory_restored", events[2].Type)
}

func TestAuditTrail_BatchDesconocidoVacio(t *testing.T) {
	e := newEnv(t, true)

	events, err := e.prod.AuditTrail(context.Background(), "no-existe")

	require.NoError(t, err, "la traza es derivada: desconocido = secuencia vacía, no error")
	assert.Empty(t, events)
}

func TestMovementSummary_AgregaPorMaterial(t *testing.T) {
	e := newEnv(t, true)
	l1 := e.seedLot(t, "L-001", 25, 450, day1)
	l2 := e.seedLot(t, "L-002", 30, 460, day1.AddDate(0, 0, 1))
	batch, err := e.prod.Create(context.Background(), produccion, dto.CreateBatchRequest{
		BatchNumber: "B-1",
		Inputs: []dto.BatchInputRequest{
			{LotID: l1.ID, Quantity: decimal.NewFromInt(25)},
			{LotID: l2.ID, Quantity: decimal.NewFromInt(15)},
		},
	})
	require.NoError(t, err)

	summary, err := e.prod.MovementSummary(context.Background(), batch.ID)

	require.NoError(t, err)
	assert.True(t, summary.TotalMaterialsUsed.Equal(decimal.NewFromInt(40)))
	assert.True(t, summary.TotalCost.Equal(decimal.NewFromInt(18150)))
	require.Len(t, summary.PerMaterial, 1, "ambos lotes son del mismo material")
	assert.Equal(t, "harina-000", summary.PerMaterial[0].MaterialID)
	assert.True(t, summary.PerMaterial[0].QuantityUsed.Equal(decimal.NewFromInt(40)))
	assert.Len(t, summary.RawTransactions, 2)
}

func TestMovementSummary_BatchDesconocidoEsError(t *testing.T) {
	e := newEnv(t, true)

	_, err := e.prod.MovementSummary(context.Background(), "no-existe")

	assert.ErrorIs(t, err, domain.ErrNotFound,
		"a diferencia de la traza, el resumen exige que el batch exista")
}
