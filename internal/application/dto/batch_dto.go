package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchInputRequest un insumo declarado: lote y cantidad a consumir.
type BatchInputRequest struct {
	LotID    string          `json:"lot_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// CreateBatchRequest body para POST /api/batches.
// Inputs vacío es válido: batch sin consumos, costo total 0.
type CreateBatchRequest struct {
	BatchNumber    string              `json:"batch_number"`
	ProductionDate *time.Time          `json:"production_date,omitempty"`
	Status         string              `json:"status,omitempty"` // draft (default) o active
	Notes          string              `json:"notes,omitempty"`
	Inputs         []BatchInputRequest `json:"inputs"`
}

// UpdateBatchRequest body para PUT /api/batches/:id. Campos nil no se tocan.
// Si Inputs no es nil, REEMPLAZA el set de insumos: se restauran los actuales
// y se aplican los nuevos como en la creación (todo o nada).
type UpdateBatchRequest struct {
	ProductionDate *time.Time           `json:"production_date,omitempty"`
	Status         *string              `json:"status,omitempty"`
	Notes          *string              `json:"notes,omitempty"`
	Inputs         *[]BatchInputRequest `json:"inputs,omitempty"`
}

// CompleteBatchRequest body para POST /api/batches/:id/complete.
type CompleteBatchRequest struct {
	OutputQuantity decimal.Decimal `json:"output_quantity"`
	Notes          string          `json:"notes,omitempty"`
}

// RollbackBatchRequest body para POST /api/batches/:id/rollback.
type RollbackBatchRequest struct {
	Reason string `json:"reason"`
}

// RollbackResult resultado de un rollback best-effort: el batch queda
// cancelled aunque alguna restauración falle; las fallas se reportan como
// warnings, no como error fatal.
type RollbackResult struct {
	BatchID      string   `json:"batch_id"`
	RestoredLots []string `json:"restored_lots"`
	Failures     []string `json:"failures,omitempty"`
}

// BatchInputResponse representación HTTP de un insumo.
type BatchInputResponse struct {
	LotID        string          `json:"lot_id"`
	MaterialID   string          `json:"material_id"`
	QuantityUsed decimal.Decimal `json:"quantity_used"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	TotalCost    decimal.Decimal `json:"total_cost"`
}

// BatchResponse representación HTTP de un batch.
type BatchResponse struct {
	ID             string               `json:"id"`
	BatchNumber    string               `json:"batch_number"`
	ProductionDate time.Time            `json:"production_date"`
	Status         string               `json:"status"`
	OutputQuantity decimal.Decimal      `json:"output_quantity"`
	TotalInputCost decimal.Decimal      `json:"total_input_cost"`
	CostPerUnit    decimal.Decimal      `json:"cost_per_unit"`
	Notes          string               `json:"notes,omitempty"`
	CreatedBy      string               `json:"created_by,omitempty"`
	Inputs         []BatchInputResponse `json:"inputs"`
}

// AuditEvent un evento de la línea de tiempo reconstruida de un batch.
type AuditEvent struct {
	Type      string          `json:"type"` // batch_created, inventory_decremented, inventory_restored
	LotID     string          `json:"lot_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	Actor     string          `json:"actor,omitempty"`
	Detail    string          `json:"detail,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// MaterialUsage consumo agregado por material dentro de un batch.
type MaterialUsage struct {
	MaterialID   string          `json:"material_id"`
	QuantityUsed decimal.Decimal `json:"quantity_used"`
	TotalCost    decimal.Decimal `json:"total_cost"`
}

// MovementSummary agregación derivada (no autoritativa) de los insumos y el
// log de transacciones de un batch. Valores en cero para batches sin insumos.
type MovementSummary struct {
	BatchID           string                `json:"batch_id"`
	BatchNumber       string                `json:"batch_number"`
	TotalMaterialsUsed decimal.Decimal      `json:"total_materials_used"`
	TotalCost         decimal.Decimal       `json:"total_cost"`
	PerMaterial       []MaterialUsage       `json:"per_material"`
	RawTransactions   []TransactionResponse `json:"raw_transactions"`
}
