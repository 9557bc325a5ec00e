package production

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/lotes-api/internal/application/dto"
	"github.com/jhoicas/lotes-api/internal/application/inventory"
	"github.com/jhoicas/lotes-api/internal/domain"
	"github.com/jhoicas/lotes-api/internal/domain/authz"
	"github.com/jhoicas/lotes-api/internal/domain/entity"
	"github.com/jhoicas/lotes-api/internal/domain/repository"
)

// UseCase orquesta la operación "consumir N lotes, producir 1 batch" y su
// reverso. Con txRunner presente, la creación/actualización corre como UNA
// transacción multi-fila del store; sin txRunner corre como saga: decrementos
// por lote individualmente atómicos más incrementos compensatorios si algún
// paso falla. El rollback de un batch es siempre best-effort por lote y nunca
// se bloquea por una restauración fallida.
type UseCase struct {
	txRunner  TxRunner // nil => saga portable
	inv       *inventory.UseCase
	lotRepo   repository.MaterialLotRepository
	movRepo   repository.InventoryTransactionRepository
	batchRepo repository.ProductionBatchRepository
	notifier  inventory.Notifier
}

// NewUseCase construye el servicio de batches. txRunner puede ser nil cuando
// el store solo garantiza atomicidad por fila.
func NewUseCase(
	txRunner TxRunner,
	inv *inventory.UseCase,
	lotRepo repository.MaterialLotRepository,
	movRepo repository.InventoryTransactionRepository,
	batchRepo repository.ProductionBatchRepository,
	notifier inventory.Notifier,
) *UseCase {
	return &UseCase{
		txRunner:  txRunner,
		inv:       inv,
		lotRepo:   lotRepo,
		movRepo:   movRepo,
		batchRepo: batchRepo,
		notifier:  notifier,
	}
}

// Create crea el batch y aplica todos sus decrementos como una unidad: el
// caller nunca observa un batch que consumió solo parte de sus insumos
// declarados. El costo unitario de cada insumo se captura del lote al momento
// del consumo. Inputs vacío es válido (costo total 0, sin decrementos).
func (uc *UseCase) Create(ctx context.Context, actor authz.Actor, in dto.CreateBatchRequest) (*entity.ProductionBatch, error) {
	if !authz.CanManageBatches(actor) {
		uc.notifyError(actor.ID, "no autorizado para crear batches de producción")
		return nil, domain.ErrUnauthorized
	}
	if in.BatchNumber == "" {
		return nil, domain.ErrInvalidInput
	}
	status := in.Status
	if status == "" {
		status = entity.BatchStatusDraft
	}
	if status != entity.BatchStatusDraft && status != entity.BatchStatusActive {
		return nil, domain.ErrInvalidInput
	}
	if existing, err := uc.batchRepo.GetByNumber(in.BatchNumber); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := time.Now()
	prodDate := now
	if in.ProductionDate != nil {
		prodDate = *in.ProductionDate
	}
	batch := &entity.ProductionBatch{
		ID:             uuid.New().String(),
		BatchNumber:    in.BatchNumber,
		ProductionDate: prodDate,
		Status:         status,
		OutputQuantity: decimal.Zero,
		Notes:          in.Notes,
		CreatedBy:      actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	inputs, err := uc.resolveInputs(batch.ID, in.Inputs)
	if err != nil {
		uc.notifyError(actor.ID, "batch "+in.BatchNumber+": "+err.Error())
		return nil, err
	}
	batch.Inputs = inputs
	batch.TotalInputCost = batch.ComputeTotalInputCost()

	if uc.txRunner != nil {
		err = uc.createAtomic(ctx, actor, batch, now)
	} else {
		err = uc.createSaga(ctx, actor, batch, now)
	}
	if err != nil {
		uc.notifyError(actor.ID, "creación del batch "+in.BatchNumber+" fallida: "+err.Error())
		return nil, err
	}
	uc.notifySuccess(actor.ID, fmt.Sprintf("batch %s creado: %d insumos, costo total %s",
		batch.BatchNumber, len(batch.Inputs), batch.TotalInputCost.String()))
	return batch, nil
}

// createAtomic: todos los decrementos y la cabecera en una sola transacción
// del store. Si algo falla, la tx se revierte y no hay nada que compensar.
func (uc *UseCase) createAtomic(ctx context.Context, actor authz.Actor, batch *entity.ProductionBatch, now time.Time) error {
	return uc.txRunner.RunProduction(ctx, func(
		lotRepo repository.MaterialLotRepository,
		movRepo repository.InventoryTransactionRepository,
		batchRepo repository.ProductionBatchRepository,
	) error {
		for _, input := range batch.Inputs {
			if err := uc.inv.DecrementInTx(lotRepo, movRepo, inventory.MovementInput{
				LotID:         input.LotID,
				Quantity:      input.QuantityUsed,
				ReferenceID:   batch.ID,
				ReferenceType: entity.RefTypeProductionBatch,
				Reason:        "consumo batch " + batch.BatchNumber,
				Actor:         actor,
			}, now); err != nil {
				return err
			}
		}
		return batchRepo.Create(batch)
	})
}

// createSaga: un decremento atómico por lote; ante un fallo a mitad de camino
// se compensan los decrementos ya aplicados ANTES de propagar el error.
func (uc *UseCase) createSaga(ctx context.Context, actor authz.Actor, batch *entity.ProductionBatch, now time.Time) error {
	applied := make([]entity.BatchInput, 0, len(batch.Inputs))
	for _, input := range batch.Inputs {
		if err := uc.inv.Decrement(ctx, inventory.MovementInput{
			LotID:         input.LotID,
			Quantity:      input.QuantityUsed,
			ReferenceID:   batch.ID,
			ReferenceType: entity.RefTypeProductionBatch,
			Reason:        "consumo batch " + batch.BatchNumber,
			Actor:         actor,
		}); err != nil {
			return uc.compensate(ctx, actor, batch, applied, input.LotID, err)
		}
		applied = append(applied, input)
	}
	if err := uc.batchRepo.Create(batch); err != nil {
		return uc.compensate(ctx, actor, batch, applied, "", err)
	}
	return nil
}

// compensate revierte (en orden inverso) los decrementos ya aplicados de una
// saga fallida y envuelve el error original en PartialFailureError. Las
// restauraciones que a su vez fallan se reportan como warnings, no bloquean.
func (uc *UseCase) compensate(ctx context.Context, actor authz.Actor, batch *entity.ProductionBatch, applied []entity.BatchInput, failedLotID string, cause error) error {
	pf := &domain.PartialFailureError{
		BatchNumber: batch.BatchNumber,
		FailedLotID: failedLotID,
		Cause:       cause,
	}
	for i := len(applied) - 1; i >= 0; i-- {
		input := applied[i]
		err := uc.inv.Increment(ctx, inventory.MovementInput{
			LotID:         input.LotID,
			Quantity:      input.QuantityUsed,
			ReferenceID:   batch.ID,
			ReferenceType: entity.RefTypeProductionBatchCompensation,
			Reason:        "compensación batch " + batch.BatchNumber,
			Actor:         actor,
		})
		if err != nil {
			pf.CompensationErrs = append(pf.CompensationErrs, input.LotID+": "+err.Error())
			uc.notifyWarning(actor.ID, "compensación fallida en lote "+input.LotID)
			continue
		}
		pf.Compensated = append(pf.Compensated, input.LotID)
	}
	return pf
}

// Update actualiza un batch. Sin Inputs solo toca la cabecera (ningún efecto
// de inventario). Con Inputs, REEMPLAZA los insumos: restaura los actuales y
// aplica los nuevos como en Create, con la misma garantía todo-o-nada.
func (uc *UseCase) Update(ctx context.Context, actor authz.Actor, batchID string, in dto.UpdateBatchRequest) (*entity.ProductionBatch, error) {
	if !authz.CanManageBatches(actor) {
		uc.notifyError(actor.ID, "no autorizado para actualizar batches")
		return nil, domain.ErrUnauthorized
	}
	batch, err := uc.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, domain.ErrNotFound
	}
	if batch.IsTerminal() {
		return nil, &domain.InvalidTransitionError{BatchID: batch.ID, From: batch.Status, To: batch.Status}
	}
	now := time.Now()
	if in.ProductionDate != nil {
		batch.ProductionDate = *in.ProductionDate
	}
	if in.Notes != nil {
		batch.Notes = *in.Notes
	}
	if in.Status != nil && *in.Status != batch.Status {
		if !batch.CanTransitionTo(*in.Status) || *in.Status == entity.BatchStatusCompleted || *in.Status == entity.BatchStatusCancelled {
			// completar y cancelar tienen sus propias operaciones
			return nil, &domain.InvalidTransitionError{BatchID: batch.ID, From: batch.Status, To: *in.Status}
		}
		batch.Status = *in.Status
	}
	batch.UpdatedAt = now

	if in.Inputs == nil {
		if err := uc.batchRepo.UpdateHeader(batch); err != nil {
			uc.notifyError(actor.ID, "actualización del batch "+batch.BatchNumber+" fallida")
			return nil, err
		}
		uc.notifySuccess(actor.ID, "batch "+batch.BatchNumber+" actualizado")
		return batch, nil
	}

	oldInputs := batch.Inputs
	newInputs, err := uc.resolveInputs(batch.ID, *in.Inputs)
	if err != nil {
		uc.notifyError(actor.ID, "batch "+batch.BatchNumber+": "+err.Error())
		return nil, err
	}

	if uc.txRunner != nil {
		err = uc.replaceInputsAtomic(ctx, actor, batch, oldInputs, newInputs, now)
	} else {
		err = uc.replaceInputsSaga(ctx, actor, batch, oldInputs, newInputs, now)
	}
	if err != nil {
		uc.notifyError(actor.ID, "reemplazo de insumos del batch "+batch.BatchNumber+" fallido: "+err.Error())
		return nil, err
	}
	batch.Inputs = newInputs
	batch.TotalInputCost = batch.ComputeTotalInputCost()
	uc.notifySuccess(actor.ID, fmt.Sprintf("batch %s actualizado: %d insumos, costo total %s",
		batch.BatchNumber, len(batch.Inputs), batch.TotalInputCost.String()))
	return batch, nil
}

// replaceInputsAtomic restaura e re-aplica insumos dentro de una sola tx.
func (uc *UseCase) replaceInputsAtomic(ctx context.Context, actor authz.Actor, batch *entity.ProductionBatch, oldInputs, newInputs []entity.BatchInput, now time.Time) error {
	return uc.txRunner.RunProduction(ctx, func(
		lotRepo repository.MaterialLotRepository,
		movRepo repository.InventoryTransactionRepository,
		batchRepo repository.ProductionBatchRepository,
	) error {
		for _, input := range oldInputs {
			if err := uc.inv.IncrementInTx(lotRepo, movRepo, inventory.MovementInput{
				LotID:         input.LotID,
				Quantity:      input.QuantityUsed,
				ReferenceID:   batch.ID,
				ReferenceType: entity.RefTypeProductionBatchUpdate,
				Reason:        "reemplazo de insumos batch " + batch.BatchNumber,
				Actor:         actor,
			}, now); err != nil {
				return err
			}
		}
		for _, input := range newInputs {
			if err := uc.inv.DecrementInTx(lotRepo, movRepo, inventory.MovementInput{
				LotID:         input.LotID,
				Quantity:      input.QuantityUsed,
				ReferenceID:   batch.ID,
				ReferenceType: entity.RefTypeProductionBatch,
				Reason:        "consumo batch " + batch.BatchNumber,
				Actor:         actor,
			}, now); err != nil {
				return err
			}
		}
		if err := batchRepo.ReplaceInputs(batch.ID, newInputs); err != nil {
			return err
		}
		b := *batch
		b.Inputs = newInputs
		b.TotalInputCost = b.ComputeTotalInputCost()
		return batchRepo.UpdateHeader(&b)
	})
}

// replaceInputsSaga ejecuta la secuencia restaurar-viejos / aplicar-nuevos
// como pasos por lote, deshaciendo en orden inverso lo ya aplicado si un paso
// falla.
func (uc *UseCase) replaceInputsSaga(ctx context.Context, actor authz.Actor, batch *entity.ProductionBatch, oldInputs, newInputs []entity.BatchInput, now time.Time) error {
	// Cada paso aplicado apila su inverso.
	type step struct {
		lotID string
		undo  func() error
	}
	var done []step
	rollbackDone := func(failedLot string, cause error) error {
		pf := &domain.PartialFailureError{
			BatchNumber: batch.BatchNumber,
			FailedLotID: failedLot,
			Cause:       cause,
		}
		for i := len(done) - 1; i >= 0; i-- {
			if err := done[i].undo(); err != nil {
				pf.CompensationErrs = append(pf.CompensationErrs, done[i].lotID+": "+err.Error())
				uc.notifyWarning(actor.ID, "compensación fallida en lote "+done[i].lotID)
				continue
			}
			pf.Compensated = append(pf.Compensated, done[i].lotID)
		}
		return pf
	}

	for _, input := range oldInputs {
		input := input
		if err := uc.inv.Increment(ctx, inventory.MovementInput{
			LotID:         input.LotID,
			Quantity:      input.QuantityUsed,
			ReferenceID:   batch.ID,
			ReferenceType: entity.RefTypeProductionBatchUpdate,
			Reason:        "reemplazo de insumos batch " + batch.BatchNumber,
			Actor:         actor,
		}); err != nil {
			return rollbackDone(input.LotID, err)
		}
		done = append(done, step{lotID: input.LotID, undo: func() error {
			return uc.inv.Decrement(ctx, inventory.MovementInput{
				LotID:         input.LotID,
				Quantity:      input.QuantityUsed,
				ReferenceID:   batch.ID,
				ReferenceType: entity.RefTypeProductionBatchCompensation,
				Reason:        "compensación batch " + batch.BatchNumber,
				Actor:         actor,
			})
		}})
	}
	for _, input := range newInputs {
		input := input
		if err := uc.inv.Decrement(ctx, inventory.MovementInput{
			LotID:         input.LotID,
			Quantity:      input.QuantityUsed,
			ReferenceID:   batch.ID,
			ReferenceType: entity.RefTypeProductionBatch,
			Reason:        "consumo batch " + batch.BatchNumber,
			Actor:         actor,
		}); err != nil {
			return rollbackDone(input.LotID, err)
		}
		done = append(done, step{lotID: input.LotID, undo: func() error {
			return uc.inv.Increment(ctx, inventory.MovementInput{
				LotID:         input.LotID,
				Quantity:      input.QuantityUsed,
				ReferenceID:   batch.ID,
				ReferenceType: entity.RefTypeProductionBatchCompensation,
				Reason:        "compensación batch " + batch.BatchNumber,
				Actor:         actor,
			})
		}})
	}
	if err := uc.batchRepo.ReplaceInputs(batch.ID, newInputs); err != nil {
		return rollbackDone("", err)
	}
	b := *batch
	b.Inputs = newInputs
	b.TotalInputCost = b.ComputeTotalInputCost()
	if err := uc.batchRepo.UpdateHeader(&b); err != nil {
		return rollbackDone("", err)
	}
	return nil
}

// Complete pasa el batch a completed: fija la cantidad producida y deriva el
// costo por unidad (0 cuando output es 0, nunca división por cero).
func (uc *UseCase) Complete(ctx context.Context, actor authz.Actor, batchID string, in dto.CompleteBatchRequest) (*entity.ProductionBatch, error) {
	if !authz.CanManageBatches(actor) {
		uc.notifyError(actor.ID, "no autorizado para completar batches")
		return nil, domain.ErrUnauthorized
	}
	if in.OutputQuantity.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	batch, err := uc.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, domain.ErrNotFound
	}
	if !batch.CanTransitionTo(entity.BatchStatusCompleted) {
		return nil, &domain.InvalidTransitionError{BatchID: batch.ID, From: batch.Status, To: entity.BatchStatusCompleted}
	}
	now := time.Now()
	batch.Status = entity.BatchStatusCompleted
	batch.OutputQuantity = in.OutputQuantity
	if in.OutputQuantity.GreaterThan(decimal.Zero) {
		batch.CostPerUnit = batch.TotalInputCost.Div(in.OutputQuantity)
	} else {
		batch.CostPerUnit = decimal.Zero
	}
	if in.Notes != "" {
		if batch.Notes != "" {
			batch.Notes += "\n"
		}
		batch.Notes += in.Notes
	}
	batch.UpdatedAt = now
	if err := uc.batchRepo.UpdateHeader(batch); err != nil {
		uc.notifyError(actor.ID, "cierre del batch "+batch.BatchNumber+" fallido")
		return nil, err
	}
	uc.notifySuccess(actor.ID, fmt.Sprintf("batch %s completado: %s unidades, costo unitario %s",
		batch.BatchNumber, batch.OutputQuantity.String(), batch.CostPerUnit.String()))
	return batch, nil
}

// Rollback restaura la cantidad consumida de CADA insumo y marca el batch
// cancelled. Best-effort deliberado: una restauración fallida no impide
// intentar las demás ni cancela el batch; un lote trabado no puede dejar el
// inventario del batch entero mal contabilizado para siempre. Siempre emite
// una notificación warning, incluso en éxito total.
func (uc *UseCase) Rollback(ctx context.Context, actor authz.Actor, batchID, reason string) (*dto.RollbackResult, error) {
	if !authz.CanManageBatches(actor) {
		uc.notifyError(actor.ID, "no autorizado para revertir batches")
		return nil, domain.ErrUnauthorized
	}
	batch, err := uc.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, domain.ErrNotFound
	}
	if !batch.CanTransitionTo(entity.BatchStatusCancelled) {
		return nil, &domain.InvalidTransitionError{BatchID: batch.ID, From: batch.Status, To: entity.BatchStatusCancelled}
	}
	result := &dto.RollbackResult{BatchID: batch.ID}
	for _, input := range batch.Inputs {
		err := uc.inv.Increment(ctx, inventory.MovementInput{
			LotID:         input.LotID,
			Quantity:      input.QuantityUsed,
			ReferenceID:   batch.ID,
			ReferenceType: entity.RefTypeProductionBatchRollback,
			Reason:        reason,
			Actor:         actor,
		})
		if err != nil {
			result.Failures = append(result.Failures, input.LotID+": "+err.Error())
			continue
		}
		result.RestoredLots = append(result.RestoredLots, input.LotID)
	}
	now := time.Now()
	if err := uc.batchRepo.UpdateStatus(batch.ID, entity.BatchStatusCancelled, now); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("batch %s revertido: %d lotes restaurados", batch.BatchNumber, len(result.RestoredLots))
	if len(result.Failures) > 0 {
		msg += fmt.Sprintf(", %d restauraciones fallidas", len(result.Failures))
	}
	uc.notifyWarning(actor.ID, msg)
	return result, nil
}

// resolveInputs valida los insumos declarados y captura el costo unitario
// actual de cada lote (inmutable desde el ingreso, así el snapshot es seguro
// fuera de la transacción).
func (uc *UseCase) resolveInputs(batchID string, reqs []dto.BatchInputRequest) ([]entity.BatchInput, error) {
	inputs := make([]entity.BatchInput, 0, len(reqs))
	for i, req := range reqs {
		if req.LotID == "" || !req.Quantity.GreaterThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		lot, err := uc.lotRepo.GetByID(req.LotID)
		if err != nil {
			return nil, err
		}
		if lot == nil {
			return nil, domain.ErrNotFound
		}
		inputs = append(inputs, entity.BatchInput{
			ID:           uuid.New().String(),
			BatchID:      batchID,
			LotID:        lot.ID,
			MaterialID:   lot.MaterialID,
			QuantityUsed: req.Quantity,
			UnitCost:     lot.CostPerUnit,
			Position:     i,
		})
	}
	return inputs, nil
}

func (uc *UseCase) notifySuccess(actorID, msg string) {
	if uc.notifier != nil {
		uc.notifier.Success(actorID, msg)
	}
}

func (uc *UseCase) notifyError(actorID, msg string) {
	if uc.notifier != nil {
		uc.notifier.Error(actorID, msg)
	}
}

func (uc *UseCase) notifyWarning(actorID, msg string) {
	if uc.notifier != nil {
		uc.notifier.Warning(actorID, msg)
	}
}
