package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/lotes-api/internal/application/dto"
	"github.com/jhoicas/lotes-api/internal/domain"
	"github.com/jhoicas/lotes-api/internal/domain/authz"
	"github.com/jhoicas/lotes-api/internal/domain/entity"
	domaininv "github.com/jhoicas/lotes-api/internal/domain/inventory"
	"github.com/jhoicas/lotes-api/internal/domain/repository"
)

// maxAlternatives lotes alternativos sugeridos cuando una selección falla.
const maxAlternatives = 3

// UseCase es la única autoridad para leer, seleccionar y mutar cantidades de
// lotes. Todo decremento/incremento corre dentro de una transacción con
// bloqueo de fila (GetForUpdate) y deja su registro append-only en el log.
type UseCase struct {
	txRunner TxRunner
	lotRepo  repository.MaterialLotRepository
	movRepo  repository.InventoryTransactionRepository
	notifier Notifier
}

// NewUseCase construye el servicio de inventario.
func NewUseCase(
	txRunner TxRunner,
	lotRepo repository.MaterialLotRepository,
	movRepo repository.InventoryTransactionRepository,
	notifier Notifier,
) *UseCase {
	return &UseCase{txRunner: txRunner, lotRepo: lotRepo, movRepo: movRepo, notifier: notifier}
}

// MovementInput entrada para Decrement/Increment sobre un lote.
type MovementInput struct {
	LotID         string
	Quantity      decimal.Decimal
	ReferenceID   string // ej: ID del batch que origina el movimiento
	ReferenceType string
	Reason        string
	Actor         authz.Actor
}

// IntakeInput entrada para registrar el ingreso de un lote nuevo.
type IntakeInput struct {
	MaterialID  string
	SupplierID  string
	LotNumber   string
	Quantity    decimal.Decimal
	CostPerUnit decimal.Decimal
	IntakeAt    *time.Time
	ExpiresAt   *time.Time
	Grade       string
	Location    string
	Actor       authz.Actor
}

// RegisterIntake crea un lote nuevo. QuantityReceived y CostPerUnit quedan
// inmutables; QuantityRemaining arranca igual a la cantidad recibida.
func (uc *UseCase) RegisterIntake(ctx context.Context, in IntakeInput) (*entity.MaterialLot, error) {
	if !authz.CanModifyInventory(in.Actor) {
		uc.notifyError(in.Actor.ID, "no autorizado para registrar ingresos de lotes")
		return nil, domain.ErrUnauthorized
	}
	if in.MaterialID == "" || in.LotNumber == "" {
		return nil, domain.ErrInvalidInput
	}
	if !in.Quantity.GreaterThan(decimal.Zero) || !in.CostPerUnit.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	intakeAt := now
	if in.IntakeAt != nil {
		intakeAt = *in.IntakeAt
	}
	lot := &entity.MaterialLot{
		ID:                uuid.New().String(),
		MaterialID:        in.MaterialID,
		SupplierID:        in.SupplierID,
		LotNumber:         in.LotNumber,
		QuantityReceived:  in.Quantity,
		QuantityRemaining: in.Quantity,
		CostPerUnit:       in.CostPerUnit,
		IntakeAt:          intakeAt,
		ExpiresAt:         in.ExpiresAt,
		Grade:             in.Grade,
		Location:          in.Location,
		CreatedBy:         in.Actor.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := uc.lotRepo.Create(lot); err != nil {
		uc.notifyError(in.Actor.ID, "no se pudo registrar el lote "+in.LotNumber)
		return nil, err
	}
	uc.notifySuccess(in.Actor.ID, fmt.Sprintf("lote %s ingresado: %s unidades", lot.LotNumber, lot.QuantityReceived.String()))
	return lot, nil
}

// GetAvailableLots devuelve los lotes del material con cantidad disponible y
// sin vencer, en orden FIFO (ingreso ascendente, empate por ID). Secuencia
// vacía cuando no hay lotes que califiquen.
func (uc *UseCase) GetAvailableLots(ctx context.Context, materialID string) ([]*entity.MaterialLot, error) {
	if materialID == "" {
		return nil, domain.ErrInvalidInput
	}
	lots, err := uc.lotRepo.ListAvailableByMaterial(materialID, time.Now())
	if err != nil {
		return nil, err
	}
	// El repositorio ya ordena; re-ordenar acá mantiene el contrato aunque el
	// adaptador no lo haga (el orden ES la política FIFO).
	domaininv.SortFIFO(lots)
	return lots, nil
}

// ValidateSelection verifica (sin mutar) que un lote pueda cubrir la cantidad
// pedida. En faltante, el resultado trae la cantidad disponible y hasta 3
// lotes alternativos del mismo material para que el caller divida el consumo.
func (uc *UseCase) ValidateSelection(ctx context.Context, lotID string, requested decimal.Decimal) (*dto.ValidationResult, error) {
	if lotID == "" || !requested.GreaterThan(decimal.Zero) {
		return &dto.ValidationResult{Valid: false, Reason: "cantidad o lote inválido"}, nil
	}
	lot, err := uc.lotRepo.GetByID(lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return &dto.ValidationResult{Valid: false, Reason: "lote no encontrado"}, nil
	}
	now := time.Now()
	if lot.IsExpired(now) {
		return &dto.ValidationResult{Valid: false, Reason: "lote vencido", AvailableQuantity: lot.QuantityRemaining}, nil
	}
	if lot.QuantityRemaining.LessThan(requested) {
		alts, err := uc.alternativeLots(uc.lotRepo, lot, now)
		if err != nil {
			return nil, err
		}
		return &dto.ValidationResult{
			Valid:             false,
			Reason:            "cantidad insuficiente",
			AvailableQuantity: lot.QuantityRemaining,
			Alternatives:      alts,
		}, nil
	}
	return &dto.ValidationResult{Valid: true, AvailableQuantity: lot.QuantityRemaining}, nil
}

// Decrement consume cantidad de un lote: valida, resta y deja el registro de
// auditoría, todo dentro de una transacción serializada por lote.
func (uc *UseCase) Decrement(ctx context.Context, in MovementInput) error {
	if !authz.CanModifyInventory(in.Actor) {
		uc.notifyError(in.Actor.ID, "no autorizado para modificar inventario")
		return domain.ErrUnauthorized
	}
	if in.LotID == "" || !in.Quantity.GreaterThan(decimal.Zero) {
		uc.notifyError(in.Actor.ID, "decremento inválido: cantidad o lote vacío")
		return domain.ErrInvalidInput
	}
	now := time.Now()
	err := uc.txRunner.Run(ctx, func(
		lotRepo repository.MaterialLotRepository,
		movRepo repository.InventoryTransactionRepository,
	) error {
		return uc.DecrementInTx(lotRepo, movRepo, in, now)
	})
	if err != nil {
		uc.notifyError(in.Actor.ID, "decremento fallido en lote "+in.LotID+": "+err.Error())
		return err
	}
	uc.notifySuccess(in.Actor.ID, fmt.Sprintf("consumidas %s unidades del lote %s", in.Quantity.String(), in.LotID))
	return nil
}

// DecrementInTx aplica el decremento usando repositorios ya atados a una
// transacción del caller (mismo patrón que la creación de batches en su
// camino atómico). No consulta el gate: el caller ya lo hizo.
func (uc *UseCase) DecrementInTx(
	lotRepo repository.MaterialLotRepository,
	movRepo repository.InventoryTransactionRepository,
	in MovementInput,
	now time.Time,
) error {
	// Bloquea la fila del lote: dos decrementos concurrentes sobre el mismo
	// lote se serializan acá.
	lot, err := lotRepo.GetForUpdate(in.LotID)
	if err != nil {
		return err
	}
	if lot == nil {
		return domain.ErrNotFound
	}
	if lot.IsExpired(now) {
		return domain.ErrExpired
	}
	if lot.QuantityRemaining.LessThan(in.Quantity) {
		alts, altErr := uc.alternativeLots(lotRepo, lot, now)
		ids := make([]string, 0, len(alts))
		if altErr == nil {
			for _, a := range alts {
				ids = append(ids, a.LotID)
			}
		}
		return &domain.InsufficientQuantityError{
			LotID:        lot.ID,
			Requested:    in.Quantity,
			Available:    lot.QuantityRemaining,
			Alternatives: ids,
		}
	}
	before := lot.QuantityRemaining
	after := before.Sub(in.Quantity)
	if err := lotRepo.UpdateRemaining(lot.ID, after, now); err != nil {
		return err
	}
	return movRepo.Create(&entity.InventoryTransaction{
		ID:             uuid.New().String(),
		LotID:          lot.ID,
		Kind:           entity.TxKindDecrement,
		Delta:          in.Quantity.Neg(),
		QuantityBefore: before,
		QuantityAfter:  after,
		ReferenceID:    in.ReferenceID,
		ReferenceType:  in.ReferenceType,
		Reason:         in.Reason,
		CreatedBy:      in.Actor.ID,
		CreatedAt:      now,
	})
}

// Increment restaura cantidad a un lote (operación compensatoria de un
// decremento, usada en rollbacks). No re-valida suficiencia: restaurar no
// puede ser "insuficiente"; sí exige no superar la cantidad recibida.
func (uc *UseCase) Increment(ctx context.Context, in MovementInput) error {
	if !authz.CanModifyInventory(in.Actor) {
		uc.notifyError(in.Actor.ID, "no autorizado para modificar inventario")
		return domain.ErrUnauthorized
	}
	if in.LotID == "" || !in.Quantity.GreaterThan(decimal.Zero) {
		uc.notifyError(in.Actor.ID, "incremento inválido: cantidad o lote vacío")
		return domain.ErrInvalidInput
	}
	now := time.Now()
	err := uc.txRunner.Run(ctx, func(
		lotRepo repository.MaterialLotRepository,
		movRepo repository.InventoryTransactionRepository,
	) error {
		return uc.IncrementInTx(lotRepo, movRepo, in, now)
	})
	if err != nil {
		uc.notifyError(in.Actor.ID, "incremento fallido en lote "+in.LotID+": "+err.Error())
		return err
	}
	uc.notifySuccess(in.Actor.ID, fmt.Sprintf("restauradas %s unidades al lote %s", in.Quantity.String(), in.LotID))
	return nil
}

// IncrementInTx aplica la restauración usando repositorios atados a una
// transacción del caller.
func (uc *UseCase) IncrementInTx(
	lotRepo repository.MaterialLotRepository,
	movRepo repository.InventoryTransactionRepository,
	in MovementInput,
	now time.Time,
) error {
	lot, err := lotRepo.GetForUpdate(in.LotID)
	if err != nil {
		return err
	}
	if lot == nil {
		return domain.ErrNotFound
	}
	before := lot.QuantityRemaining
	after := before.Add(in.Quantity)
	// Invariante del lote: remaining nunca supera received.
	if after.GreaterThan(lot.QuantityReceived) {
		return domain.ErrInvalidInput
	}
	if err := lotRepo.UpdateRemaining(lot.ID, after, now); err != nil {
		return err
	}
	return movRepo.Create(&entity.InventoryTransaction{
		ID:             uuid.New().String(),
		LotID:          lot.ID,
		Kind:           entity.TxKindIncrement,
		Delta:          in.Quantity,
		QuantityBefore: before,
		QuantityAfter:  after,
		ReferenceID:    in.ReferenceID,
		ReferenceType:  in.ReferenceType,
		Reason:         in.Reason,
		CreatedBy:      in.Actor.ID,
		CreatedAt:      now,
	})
}

// SelectFIFO planifica qué lotes cubren la cantidad requerida según FIFO:
// agota el lote más antiguo antes de tocar el siguiente. Es planificación
// pura; con disponible total insuficiente retorna InsufficientQuantityError
// (con el total disponible) y ninguna asignación.
func (uc *UseCase) SelectFIFO(ctx context.Context, materialID string, required decimal.Decimal) (*domaininv.Plan, error) {
	if materialID == "" || !required.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	lots, err := uc.lotRepo.ListAvailableByMaterial(materialID, time.Now())
	if err != nil {
		return nil, err
	}
	plan, ok := domaininv.PlanFIFO(lots, required)
	if !ok {
		return nil, &domain.InsufficientQuantityError{
			Requested: required,
			Available: plan.TotalAvailable,
		}
	}
	return &plan, nil
}

// CheckStock indica si el material tiene disponible >= required. Chequeo
// barato para pre-validaciones: los errores se tragan como false y nunca es
// autoridad para decidir una mutación.
func (uc *UseCase) CheckStock(ctx context.Context, materialID string, required decimal.Decimal) bool {
	if materialID == "" || required.IsNegative() {
		return false
	}
	lots, err := uc.lotRepo.ListAvailableByMaterial(materialID, time.Now())
	if err != nil {
		return false
	}
	total := decimal.Zero
	for _, lot := range lots {
		total = total.Add(lot.QuantityRemaining)
	}
	return total.GreaterThanOrEqual(required)
}

// GetTransactionHistory devuelve el historial de un lote, más reciente
// primero. Secuencia vacía para lotes desconocidos o nuevos.
func (uc *UseCase) GetTransactionHistory(ctx context.Context, lotID string) ([]*entity.InventoryTransaction, error) {
	if lotID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.movRepo.ListByLot(lotID)
}

// alternativeLots arma hasta maxAlternatives opciones del mismo material,
// excluyendo el lote que falló, en orden FIFO.
func (uc *UseCase) alternativeLots(lotRepo repository.MaterialLotRepository, failed *entity.MaterialLot, now time.Time) ([]dto.LotOption, error) {
	lots, err := lotRepo.ListAvailableByMaterial(failed.MaterialID, now)
	if err != nil {
		return nil, err
	}
	domaininv.SortFIFO(lots)
	opts := make([]dto.LotOption, 0, maxAlternatives)
	for _, lot := range lots {
		if lot.ID == failed.ID {
			continue
		}
		opts = append(opts, dto.LotOption{
			LotID:     lot.ID,
			LotNumber: lot.LotNumber,
			Available: lot.QuantityRemaining,
			IntakeAt:  lot.IntakeAt,
		})
		if len(opts) == maxAlternatives {
			break
		}
	}
	return opts, nil
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
