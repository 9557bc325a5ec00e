package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/lotes-api/internal/domain/entity"
)

// MaterialLotRepository define el puerto de persistencia para lotes de materia
// prima. Los lotes nunca se borran: QuantityRemaining se lleva a cero.
type MaterialLotRepository interface {
	Create(lot *entity.MaterialLot) error
	GetByID(id string) (*entity.MaterialLot, error)
	// GetForUpdate bloquea la fila del lote (SELECT FOR UPDATE) dentro de la
	// transacción en curso; es la unidad de serialización por lote.
	GetForUpdate(id string) (*entity.MaterialLot, error)
	// ListAvailableByMaterial devuelve los lotes con remaining > 0 y no
	// vencidos a la fecha now, en orden FIFO (intake_at asc, id asc).
	// Lista vacía cuando no hay lotes que califiquen (no es error).
	ListAvailableByMaterial(materialID string, now time.Time) ([]*entity.MaterialLot, error)
	// UpdateRemaining fija la nueva cantidad restante del lote.
	UpdateRemaining(id string, remaining decimal.Decimal, now time.Time) error
}
