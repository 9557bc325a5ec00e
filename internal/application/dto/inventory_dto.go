package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// IntakeRequest body para POST /api/lots (ingreso de un lote de materia prima).
type IntakeRequest struct {
	MaterialID  string          `json:"material_id"`
	SupplierID  string          `json:"supplier_id"`
	LotNumber   string          `json:"lot_number"`
	Quantity    decimal.Decimal `json:"quantity"`
	CostPerUnit decimal.Decimal `json:"cost_per_unit"`
	IntakeAt    *time.Time      `json:"intake_at,omitempty"` // default: ahora
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	Grade       string          `json:"grade,omitempty"`
	Location    string          `json:"location,omitempty"`
}

// MovementRequest body para POST /api/inventory/decrement e increment.
type MovementRequest struct {
	LotID         string          `json:"lot_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	ReferenceType string          `json:"reference_type,omitempty"`
	Reason        string          `json:"reason"`
}

// LotOption resume un lote alternativo sugerido cuando una selección falla
// por cantidad insuficiente.
type LotOption struct {
	LotID     string          `json:"lot_id"`
	LotNumber string          `json:"lot_number"`
	Available decimal.Decimal `json:"available"`
	IntakeAt  time.Time       `json:"intake_at"`
}

// ValidationResult resultado de validar una selección (lote, cantidad).
// Cuando Valid es false, AvailableQuantity y Alternatives (máx 3) permiten al
// caller reintentar o dividir el consumo entre lotes.
type ValidationResult struct {
	Valid             bool            `json:"valid"`
	Reason            string          `json:"reason,omitempty"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	Alternatives      []LotOption     `json:"alternatives,omitempty"`
}

// FIFOSelection una asignación propuesta por el planificador FIFO.
type FIFOSelection struct {
	LotID       string          `json:"lot_id"`
	LotNumber   string          `json:"lot_number"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	IntakeAt    time.Time       `json:"intake_at"`
}

// FIFOPlanResponse plan de consumo FIFO (pura planificación, nada se muta).
type FIFOPlanResponse struct {
	Required       decimal.Decimal `json:"required"`
	TotalAvailable decimal.Decimal `json:"total_available"`
	Selections     []FIFOSelection `json:"selections"`
}

// LotResponse representación HTTP de un lote.
type LotResponse struct {
	ID                string          `json:"id"`
	MaterialID        string          `json:"material_id"`
	SupplierID        string          `json:"supplier_id"`
	LotNumber         string          `json:"lot_number"`
	QuantityReceived  decimal.Decimal `json:"quantity_received"`
	QuantityRemaining decimal.Decimal `json:"quantity_remaining"`
	CostPerUnit       decimal.Decimal `json:"cost_per_unit"`
	IntakeAt          time.Time       `json:"intake_at"`
	ExpiresAt         *time.Time      `json:"expires_at,omitempty"`
	Grade             string          `json:"grade,omitempty"`
	Location          string          `json:"location,omitempty"`
}

// TransactionResponse representación HTTP de una transacción de inventario.
type TransactionResponse struct {
	ID             string          `json:"id"`
	LotID          string          `json:"lot_id"`
	Kind           string          `json:"kind"`
	Delta          decimal.Decimal `json:"delta"`
	QuantityBefore decimal.Decimal `json:"quantity_before"`
	QuantityAfter  decimal.Decimal `json:"quantity_after"`
	ReferenceID    string          `json:"reference_id,omitempty"`
	ReferenceType  string          `json:"reference_type,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	CreatedBy      string          `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
