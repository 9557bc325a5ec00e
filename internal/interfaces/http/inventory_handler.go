package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/lotes-api/internal/application/dto"
	"github.com/jhoicas/lotes-api/internal/application/inventory"
)

// InventoryHandler maneja las peticiones HTTP de lotes y movimientos (protegido).
type InventoryHandler struct {
	uc *inventory.UseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.UseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// RegisterIntake godoc
// @Summary      Registrar ingreso de un lote de materia prima
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IntakeRequest  true  "material_id, lot_number, quantity, cost_per_unit"
// @Success      201   {object}  dto.LotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/lots [post]
func (h *InventoryHandler) RegisterIntake(c *fiber.Ctx) error {
	var in dto.IntakeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	lot, err := h.uc.RegisterIntake(c.Context(), inventory.IntakeInput{
		MaterialID:  in.MaterialID,
		SupplierID:  in.SupplierID,
		LotNumber:   in.LotNumber,
		Quantity:    in.Quantity,
		CostPerUnit: in.CostPerUnit,
		IntakeAt:    in.IntakeAt,
		ExpiresAt:   in.ExpiresAt,
		Grade:       in.Grade,
		Location:    in.Location,
		Actor:       GetActor(c),
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toLotResponse(lot))
}

// GetAvailableLots godoc
// @Summary      Lotes disponibles de un material en orden FIFO
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        material_id  query  string  true  "ID del material"
// @Success      200  {array}   dto.LotResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/lots/available [get]
func (h *InventoryHandler) GetAvailableLots(c *fiber.Ctx) error {
	materialID := c.Query("material_id")
	lots, err := h.uc.GetAvailableLots(c.Context(), materialID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(toLotResponses(lots))
}

// GetHistory godoc
// @Summary      Historial de transacciones de un lote (más reciente primero)
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del lote"
// @Success      200  {array}  dto.TransactionResponse
// @Router       /api/lots/{id}/history [get]
func (h *InventoryHandler) GetHistory(c *fiber.Ctx) error {
	txs, err := h.uc.GetTransactionHistory(c.Context(), c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(toTransactionResponses(txs))
}

// ValidateSelection godoc
// @Summary      Validar (sin mutar) que un lote cubra la cantidad pedida
// @Description  En faltante incluye la cantidad disponible y hasta 3 lotes
//
//	alternativos del mismo material.
//
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovementRequest  true  "lot_id, quantity"
// @Success      200   {object}  dto.ValidationResult
// @Router       /api/inventory/validate [post]
func (h *InventoryHandler) ValidateSelection(c *fiber.Ctx) error {
	var in dto.MovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.uc.ValidateSelection(c.Context(), in.LotID, in.Quantity)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(result)
}

// FIFOPlan godoc
// @Summary      Planificar consumo FIFO para una cantidad requerida
// @Description  Pura planificación: nada se reserva ni se muta. Con total
//
//	disponible insuficiente responde 409 con el total.
//
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        material_id  query  string  true  "ID del material"
// @Param        required     query  string  true  "cantidad requerida"
// @Success      200  {object}  dto.FIFOPlanResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/fifo-plan [get]
func (h *InventoryHandler) FIFOPlan(c *fiber.Ctx) error {
	required, err := decimal.NewFromString(c.Query("required"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "required debe ser numérico"})
	}
	plan, err := h.uc.SelectFIFO(c.Context(), c.Query("material_id"), required)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(toFIFOPlanResponse(plan))
}

// CheckStock godoc
// @Summary      Chequeo rápido de stock total de un material
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        material_id  query  string  true  "ID del material"
// @Param        required     query  string  true  "cantidad requerida"
// @Success      200  {object}  map[string]bool
// @Router       /api/inventory/check-stock [get]
func (h *InventoryHandler) CheckStock(c *fiber.Ctx) error {
	required, err := decimal.NewFromString(c.Query("required"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "required debe ser numérico"})
	}
	ok := h.uc.CheckStock(c.Context(), c.Query("material_id"), required)
	return c.JSON(fiber.Map{"sufficient": ok})
}

// Decrement godoc
// @Summary      Consumir cantidad de un lote
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovementRequest  true  "lot_id, quantity, reason"
// @Success      200   {object}  map[string]string
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/decrement [post]
func (h *InventoryHandler) Decrement(c *fiber.Ctx) error {
	return h.applyMovement(c, h.uc.Decrement, "decremento aplicado")
}

// Increment godoc
// @Summary      Restaurar cantidad a un lote
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovementRequest  true  "lot_id, quantity, reason"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/inventory/increment [post]
func (h *InventoryHandler) Increment(c *fiber.Ctx) error {
	return h.applyMovement(c, h.uc.Increment, "incremento aplicado")
}

func (h *InventoryHandler) applyMovement(
	c *fiber.Ctx,
	apply func(ctx context.Context, in inventory.MovementInput) error,
	okMessage string,
) error {
	var in dto.MovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	err := apply(c.Context(), inventory.MovementInput{
		LotID:         in.LotID,
		Quantity:      in.Quantity,
		ReferenceID:   in.ReferenceID,
		ReferenceType: in.ReferenceType,
		Reason:        in.Reason,
		Actor:         GetActor(c),
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": okMessage})
}
