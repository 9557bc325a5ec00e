package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un batch de producción.
// Máquina de estados: draft -> active -> completed; cancelled es alcanzable
// desde draft/active vía rollback. completed y cancelled son terminales.
const (
	BatchStatusDraft     = "draft"
	BatchStatusActive    = "active"
	BatchStatusCompleted = "completed"
	BatchStatusCancelled = "cancelled"
)

// BatchInput es un insumo del batch: referencia a un lote y la cantidad
// consumida, con el costo unitario capturado al momento del consumo.
// El costo no se re-deriva después, así los batches históricos son inmunes
// a ediciones posteriores de costos.
type BatchInput struct {
	ID           string
	BatchID      string
	LotID        string
	MaterialID   string
	QuantityUsed decimal.Decimal
	UnitCost     decimal.Decimal // snapshot al consumir
	Position     int             // orden declarado de los insumos
}

// TotalCost devuelve QuantityUsed * UnitCost.
func (i BatchInput) TotalCost() decimal.Decimal {
	return i.QuantityUsed.Mul(i.UnitCost)
}

// ProductionBatch es una corrida de producción: consume lotes de materia
// prima y produce una cantidad medible de producto terminado.
type ProductionBatch struct {
	ID             string
	BatchNumber    string // único, asignado por humanos
	ProductionDate time.Time
	Status         string
	OutputQuantity decimal.Decimal // solo se fija al completar
	TotalInputCost decimal.Decimal // Σ QuantityUsed × UnitCost (snapshot)
	CostPerUnit    decimal.Decimal // TotalInputCost / OutputQuantity (0 si output 0)
	Notes          string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Inputs         []BatchInput
}

// IsTerminal indica si el batch ya no admite transiciones.
func (b *ProductionBatch) IsTerminal() bool {
	return b.Status == BatchStatusCompleted || b.Status == BatchStatusCancelled
}

// CanTransitionTo valida la máquina de estados del batch.
func (b *ProductionBatch) CanTransitionTo(status string) bool {
	if b.IsTerminal() {
		return false
	}
	switch status {
	case BatchStatusActive:
		return b.Status == BatchStatusDraft
	case BatchStatusCompleted, BatchStatusCancelled:
		return b.Status == BatchStatusDraft || b.Status == BatchStatusActive
	default:
		return false
	}
}

// ComputeTotalInputCost suma el costo snapshot de todos los insumos.
func (b *ProductionBatch) ComputeTotalInputCost() decimal.Decimal {
	total := decimal.Zero
	for _, in := range b.Inputs {
		total = total.Add(in.TotalCost())
	}
	return total
}
