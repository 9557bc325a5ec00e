package production

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/lotes-api/internal/application/dto"
	"github.com/jhoicas/lotes-api/internal/domain"
	"github.com/jhoicas/lotes-api/internal/domain/entity"
)

// AuditTrail reconstruye, desde el log de transacciones, la línea de tiempo
// de un batch: evento de creación más un evento por decremento/restauración,
// cada uno con actor, timestamp y cantidad. Secuencia vacía para batches
// desconocidos (no es error): el log es derivado, no autoritativo.
func (uc *UseCase) AuditTrail(ctx context.Context, batchID string) ([]dto.AuditEvent, error) {
	batch, err := uc.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return []dto.AuditEvent{}, nil
	}
	events := []dto.AuditEvent{{
		Type:      "batch_created",
		Actor:     batch.CreatedBy,
		Detail:    "batch " + batch.BatchNumber,
		Timestamp: batch.CreatedAt,
	}}
	txs, err := uc.movRepo.ListByReference(batch.ID)
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		events = append(events, dto.AuditEvent{
			Type:      auditEventType(tx),
			LotID:     tx.LotID,
			Quantity:  tx.Delta.Abs(),
			Actor:     tx.CreatedBy,
			Detail:    tx.Reason,
			Timestamp: tx.CreatedAt,
		})
	}
	return events, nil
}

func auditEventType(tx *entity.InventoryTransaction) string {
	switch {
	case tx.Kind == entity.TxKindDecrement:
		return "inventory_decremented"
	case tx.ReferenceType == entity.RefTypeProductionBatchCompensation:
		return "inventory_compensated"
	default:
		return "inventory_restored"
	}
}

// MovementSummary agrega insumos y transacciones de un batch: total de
// materiales usados, costo total, desglose por material y los movimientos
// crudos. Derivado y de solo lectura; en cero para un batch sin insumos.
func (uc *UseCase) MovementSummary(ctx context.Context, batchID string) (*dto.MovementSummary, error) {
	batch, err := uc.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, domain.ErrNotFound
	}
	summary := &dto.MovementSummary{
		BatchID:            batch.ID,
		BatchNumber:        batch.BatchNumber,
		TotalMaterialsUsed: decimal.Zero,
		TotalCost:          decimal.Zero,
		PerMaterial:        []dto.MaterialUsage{},
		RawTransactions:    []dto.TransactionResponse{},
	}

	// Desglose por material en el orden declarado de los insumos.
	index := map[string]int{}
	for _, input := range batch.Inputs {
		summary.TotalMaterialsUsed = summary.TotalMaterialsUsed.Add(input.QuantityUsed)
		summary.TotalCost = summary.TotalCost.Add(input.TotalCost())
		i, ok := index[input.MaterialID]
		if !ok {
			index[input.MaterialID] = len(summary.PerMaterial)
			summary.PerMaterial = append(summary.PerMaterial, dto.MaterialUsage{
				MaterialID:   input.MaterialID,
				QuantityUsed: decimal.Zero,
				TotalCost:    decimal.Zero,
			})
			i = index[input.MaterialID]
		}
		summary.PerMaterial[i].QuantityUsed = summary.PerMaterial[i].QuantityUsed.Add(input.QuantityUsed)
		summary.PerMaterial[i].TotalCost = summary.PerMaterial[i].TotalCost.Add(input.TotalCost())
	}

	txs, err := uc.movRepo.ListByReference(batch.ID)
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		summary.RawTransactions = append(summary.RawTransactions, dto.TransactionResponse{
			ID:             tx.ID,
			LotID:          tx.LotID,
			Kind:           tx.Kind,
			Delta:          tx.Delta,
			QuantityBefore: tx.QuantityBefore,
			QuantityAfter:  tx.QuantityAfter,
			ReferenceID:    tx.ReferenceID,
			ReferenceType:  tx.ReferenceType,
			Reason:         tx.Reason,
			CreatedBy:      tx.CreatedBy,
			CreatedAt:      tx.CreatedAt,
		})
	}
	return summary, nil
}

// RawMovements devuelve las transacciones de inventario originadas por el
// batch en orden cronológico (insumo de la hoja de costeo).
func (uc *UseCase) RawMovements(ctx context.Context, batchID string) ([]*entity.InventoryTransaction, error) {
	return uc.movRepo.ListByReference(batchID)
}

// GetByID devuelve el batch con sus insumos; ErrNotFound si no existe.
func (uc *UseCase) GetByID(ctx context.Context, batchID string) (*entity.ProductionBatch, error) {
	batch, err := uc.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, domain.ErrNotFound
	}
	return batch, nil
}
