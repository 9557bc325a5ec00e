package repository

import "github.com/jhoicas/lotes-api/internal/domain/entity"

// InventoryTransactionRepository define el puerto del log de transacciones de
// inventario. Append-only: las transacciones nunca se modifican ni se borran.
type InventoryTransactionRepository interface {
	Create(tx *entity.InventoryTransaction) error
	// ListByLot devuelve el historial de un lote, más reciente primero.
	// Lista vacía para lotes desconocidos o sin movimientos (no es error).
	ListByLot(lotID string) ([]*entity.InventoryTransaction, error)
	// ListByReference devuelve los movimientos originados por una referencia
	// (ej: un batch de producción), en orden cronológico ascendente.
	ListByReference(referenceID string) ([]*entity.InventoryTransaction, error)
}
