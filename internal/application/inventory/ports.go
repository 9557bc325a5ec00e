package inventory

import (
	"context"

	"github.com/jhoicas/lotes-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Es la unidad de atomicidad por lote: un
// decremento/incremento (GetForUpdate + update + registro de auditoría)
// corre completo dentro de un Run.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		lotRepo repository.MaterialLotRepository,
		movRepo repository.InventoryTransactionRepository,
	) error) error
}

// Notifier es el sink de notificaciones visibles al usuario. El core emite
// mensajes legibles en éxito y fallo de toda mutación; cómo se muestran no es
// asunto del core.
type Notifier interface {
	Success(actorID, message string)
	Error(actorID, message string)
	Warning(actorID, message string)
}
