package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaterialLot representa una cantidad física recibida de una materia prima:
// un proveedor, una fecha de ingreso, un costo unitario fijo.
// QuantityReceived y CostPerUnit son inmutables después del ingreso;
// QuantityRemaining solo se modifica vía decrementos/incrementos del servicio
// de inventario y cumple siempre 0 <= remaining <= received.
type MaterialLot struct {
	ID                string
	MaterialID        string
	SupplierID        string
	LotNumber         string          // número de lote/etiqueta del proveedor
	QuantityReceived  decimal.Decimal // > 0, inmutable
	QuantityRemaining decimal.Decimal
	CostPerUnit       decimal.Decimal // > 0, inmutable
	IntakeAt          time.Time       // fecha de ingreso; define el orden FIFO
	ExpiresAt         *time.Time      // opcional
	Grade             string          // opcional: calidad
	Location          string          // opcional: ubicación en planta
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsExpired indica si el lote está vencido respecto a now (sin fecha = nunca vence).
func (l *MaterialLot) IsExpired(now time.Time) bool {
	if l.ExpiresAt == nil {
		return false
	}
	return l.ExpiresAt.Before(now)
}

// HasStock indica si queda cantidad disponible.
func (l *MaterialLot) HasStock() bool {
	return l.QuantityRemaining.GreaterThan(decimal.Zero)
}

// Available indica si el lote puede consumirse (con stock y sin vencer).
func (l *MaterialLot) Available(now time.Time) bool {
	return l.HasStock() && !l.IsExpired(now)
}
