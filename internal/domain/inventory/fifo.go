package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/lotes-api/internal/domain/entity"
)

// Selection es una asignación propuesta: cuánto tomar de cada lote.
type Selection struct {
	Lot      *entity.MaterialLot
	Quantity decimal.Decimal
}

// Plan es el resultado de la planificación FIFO. No muta nada: es el plan que
// el servicio de batches ejecuta después, lote por lote o en una sola tx.
type Plan struct {
	Selections     []Selection
	Required       decimal.Decimal
	TotalAvailable decimal.Decimal
}

// SortFIFO ordena lotes por fecha de ingreso ascendente (política FIFO).
// Estable y determinista: empates de timestamp se resuelven por ID de lote.
func SortFIFO(lots []*entity.MaterialLot) {
	sort.SliceStable(lots, func(i, j int) bool {
		if lots[i].IntakeAt.Equal(lots[j].IntakeAt) {
			return lots[i].ID < lots[j].ID
		}
		return lots[i].IntakeAt.Before(lots[j].IntakeAt)
	})
}

// PlanFIFO recorre los lotes en orden FIFO tomando min(remaining, faltante) de
// cada uno hasta cubrir required. Es una función de planificación pura:
// si el total disponible no alcanza, ok=false y NO se propone ninguna
// asignación (el plan queda vacío, solo con TotalAvailable informativo).
// Cuando ok=true, las cantidades por lote suman exactamente required.
func PlanFIFO(lots []*entity.MaterialLot, required decimal.Decimal) (Plan, bool) {
	SortFIFO(lots)

	plan := Plan{Required: required, TotalAvailable: decimal.Zero}
	for _, lot := range lots {
		plan.TotalAvailable = plan.TotalAvailable.Add(lot.QuantityRemaining)
	}
	if !required.GreaterThan(decimal.Zero) || plan.TotalAvailable.LessThan(required) {
		return plan, false
	}

	remaining := required
	for _, lot := range lots {
		if !remaining.GreaterThan(decimal.Zero) {
			break
		}
		take := decimal.Min(lot.QuantityRemaining, remaining)
		if !take.GreaterThan(decimal.Zero) {
			continue
		}
		plan.Selections = append(plan.Selections, Selection{Lot: lot, Quantity: take})
		remaining = remaining.Sub(take)
	}
	return plan, true
}
