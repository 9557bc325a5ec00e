package production

import (
	"context"

	"github.com/jhoicas/lotes-api/internal/domain/entity"
	"github.com/jhoicas/lotes-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción multi-fila del store
// (camino atómico nativo). Cuando el store no ofrece atomicidad multi-fila,
// el servicio se construye sin TxRunner y cae a la saga por lote con
// compensación; el contrato observable (todo o nada) es idéntico.
type TxRunner interface {
	RunProduction(ctx context.Context, fn func(
		lotRepo repository.MaterialLotRepository,
		movRepo repository.InventoryTransactionRepository,
		batchRepo repository.ProductionBatchRepository,
	) error) error
}

// ReportGenerator produce la hoja de costeo de un batch (cabecera, tabla de
// insumos con costo capturado y totales) lista para descargar.
type ReportGenerator interface {
	GenerateBatchReport(ctx context.Context, batch *entity.ProductionBatch,
		movements []*entity.InventoryTransaction) ([]byte, error)
}
