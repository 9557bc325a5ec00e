package http

import (
	"github.com/jhoicas/lotes-api/internal/application/dto"
	"github.com/jhoicas/lotes-api/internal/domain/entity"
	domaininv "github.com/jhoicas/lotes-api/internal/domain/inventory"
)

func toLotResponse(lot *entity.MaterialLot) dto.LotResponse {
	return dto.LotResponse{
		ID:                lot.ID,
		MaterialID:        lot.MaterialID,
		SupplierID:        lot.SupplierID,
		LotNumber:         lot.LotNumber,
		QuantityReceived:  lot.QuantityReceived,
		QuantityRemaining: lot.QuantityRemaining,
		CostPerUnit:       lot.CostPerUnit,
		IntakeAt:          lot.IntakeAt,
		ExpiresAt:         lot.ExpiresAt,
		Grade:             lot.Grade,
		Location:          lot.Location,
	}
}

func toLotResponses(lots []*entity.MaterialLot) []dto.LotResponse {
	out := make([]dto.LotResponse, 0, len(lots))
	for _, lot := range lots {
		out = append(out, toLotResponse(lot))
	}
	return out
}

func toTransactionResponse(tx *entity.InventoryTransaction) dto.TransactionResponse {
	return dto.TransactionResponse{
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
	}
}

func toTransactionResponses(txs []*entity.InventoryTransaction) []dto.TransactionResponse {
	out := make([]dto.TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	return out
}

func toFIFOPlanResponse(plan *domaininv.Plan) dto.FIFOPlanResponse {
	resp := dto.FIFOPlanResponse{
		Required:       plan.Required,
		TotalAvailable: plan.TotalAvailable,
		Selections:     make([]dto.FIFOSelection, 0, len(plan.Selections)),
	}
	for _, sel := range plan.Selections {
		resp.Selections = append(resp.Selections, dto.FIFOSelection{
			LotID:     sel.Lot.ID,
			LotNumber: sel.Lot.LotNumber,
			Quantity:  sel.Quantity,
			UnitCost:  sel.Lot.CostPerUnit,
			IntakeAt:  sel.Lot.IntakeAt,
		})
	}
	return resp
}

func toBatchResponse(batch *entity.ProductionBatch) dto.BatchResponse {
	resp := dto.BatchResponse{
		ID:             batch.ID,
		BatchNumber:    batch.BatchNumber,
		ProductionDate: batch.ProductionDate,
		Status:         batch.Status,
		OutputQuantity: batch.OutputQuantity,
		TotalInputCost: batch.TotalInputCost,
		CostPerUnit:    batch.CostPerUnit,
		Notes:          batch.Notes,
		CreatedBy:      batch.CreatedBy,
		Inputs:         make([]dto.BatchInputResponse, 0, len(batch.Inputs)),
	}
	for _, in := range batch.Inputs {
		resp.Inputs = append(resp.Inputs, dto.BatchInputResponse{
			LotID:        in.LotID,
			MaterialID:   in.MaterialID,
			QuantityUsed: in.QuantityUsed,
			UnitCost:     in.UnitCost,
			TotalCost:    in.TotalCost(),
		})
	}
	return resp
}
