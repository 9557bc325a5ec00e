package repository

import (
	"time"

	"github.com/jhoicas/lotes-api/internal/domain/entity"
)

// ProductionBatchRepository define el puerto de persistencia para batches de
// producción y sus insumos.
type ProductionBatchRepository interface {
	// Create persiste cabecera e insumos.
	Create(batch *entity.ProductionBatch) error
	// GetByID devuelve el batch con sus insumos; nil si no existe.
	GetByID(id string) (*entity.ProductionBatch, error)
	GetByNumber(number string) (*entity.ProductionBatch, error)
	// UpdateHeader actualiza solo los campos de cabecera (no los insumos).
	UpdateHeader(batch *entity.ProductionBatch) error
	// ReplaceInputs reemplaza el set completo de insumos del batch.
	ReplaceInputs(batchID string, inputs []entity.BatchInput) error
	UpdateStatus(batchID, status string, now time.Time) error
}
