package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de transacción de inventario sobre un lote.
const (
	TxKindDecrement  = "decrement"  // consumo (delta negativo)
	TxKindIncrement  = "increment"  // restauración/compensación (delta positivo)
	TxKindAdjustment = "adjustment" // ajuste manual
)

// Tipos de referencia para trazar el origen de un movimiento.
const (
	RefTypeProductionBatch             = "production_batch"
	RefTypeProductionBatchRollback     = "production_batch_rollback"
	RefTypeProductionBatchCompensation = "production_batch_compensation"
	RefTypeProductionBatchUpdate       = "production_batch_update"
)

// InventoryTransaction es el registro de auditoría (append-only) de un cambio
// de cantidad sobre un lote. Invariante: QuantityAfter = QuantityBefore + Delta.
// La secuencia de transacciones de un lote, en orden cronológico, reconstruye
// su QuantityRemaining actual.
type InventoryTransaction struct {
	ID             string
	LotID          string
	Kind           string          // decrement, increment, adjustment
	Delta          decimal.Decimal // con signo
	QuantityBefore decimal.Decimal
	QuantityAfter  decimal.Decimal
	ReferenceID    string // ej: ID del batch que originó el movimiento
	ReferenceType  string
	Reason         string
	CreatedBy      string
	CreatedAt      time.Time
}
