package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/lotes-api/internal/application/dto"
	"github.com/jhoicas/lotes-api/internal/application/production"
	"github.com/jhoicas/lotes-api/internal/domain"
	"github.com/jhoicas/lotes-api/internal/domain/authz"
)

// BatchHandler maneja las peticiones HTTP de batches de producción (protegido).
type BatchHandler struct {
	uc        *production.UseCase
	reportGen production.ReportGenerator
}

// NewBatchHandler construye el handler. reportGen puede ser nil si el
// despliegue no sirve la hoja de costeo.
func NewBatchHandler(uc *production.UseCase, reportGen production.ReportGenerator) *BatchHandler {
	return &BatchHandler{uc: uc, reportGen: reportGen}
}

// Create godoc
// @Summary      Crear batch de producción consumiendo lotes (todo o nada)
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBatchRequest  true  "batch_number, inputs"
// @Success      201   {object}  dto.BatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/batches [post]
func (h *BatchHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	batch, err := h.uc.Create(c.Context(), GetActor(c), in)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toBatchResponse(batch))
}

// GetByID godoc
// @Summary      Obtener un batch con sus insumos
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del batch"
// @Success      200  {object}  dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id} [get]
func (h *BatchHandler) GetByID(c *fiber.Ctx) error {
	batch, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(toBatchResponse(batch))
}

// Update godoc
// @Summary      Actualizar un batch no terminal
// @Description  Campos omitidos no se tocan. Si inputs viene, REEMPLAZA el
//
//	set de insumos completo (restaura los actuales, aplica los
//	nuevos, todo o nada).
//
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del batch"
// @Param        body  body  dto.UpdateBatchRequest  true  "campos a actualizar"
// @Success      200   {object}  dto.BatchResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/batches/{id} [put]
func (h *BatchHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	batch, err := h.uc.Update(c.Context(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(toBatchResponse(batch))
}

// Complete godoc
// @Summary      Completar un batch fijando su producción
// @Description  Calcula cost_per_unit = costo total insumos / unidades
//
//	producidas (cero con producción cero).
//
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del batch"
// @Param        body  body  dto.CompleteBatchRequest  true  "output_quantity"
// @Success      200   {object}  dto.BatchResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/complete [post]
func (h *BatchHandler) Complete(c *fiber.Ctx) error {
	var in dto.CompleteBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	batch, err := h.uc.Complete(c.Context(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(toBatchResponse(batch))
}

// Rollback godoc
// @Summary      Cancelar un batch restaurando sus insumos (best-effort)
// @Description  El batch queda cancelled aunque alguna restauración falle;
//
//	las fallas se reportan en la respuesta, no como error.
//
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del batch"
// @Param        body  body  dto.RollbackBatchRequest  true  "reason"
// @Success      200   {object}  dto.RollbackResult
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/rollback [post]
func (h *BatchHandler) Rollback(c *fiber.Ctx) error {
	var in dto.RollbackBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.uc.Rollback(c.Context(), GetActor(c), c.Params("id"), in.Reason)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(result)
}

// AuditTrail godoc
// @Summary      Línea de tiempo reconstruida de un batch
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del batch"
// @Success      200  {array}  dto.AuditEvent
// @Router       /api/batches/{id}/audit-trail [get]
func (h *BatchHandler) AuditTrail(c *fiber.Ctx) error {
	events, err := h.uc.AuditTrail(c.Context(), c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(events)
}

// MovementSummary godoc
// @Summary      Resumen agregado de consumos de un batch
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del batch"
// @Success      200  {object}  dto.MovementSummary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/movements [get]
func (h *BatchHandler) MovementSummary(c *fiber.Ctx) error {
	summary, err := h.uc.MovementSummary(c.Context(), c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(summary)
}

// Report godoc
// @Summary      Hoja de costeo del batch en PDF
// @Description  Datos financieros: requiere un rol con acceso a costos.
// @Tags         batches
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "ID del batch"
// @Success      200  {file}    binary
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/report [get]
func (h *BatchHandler) Report(c *fiber.Ctx) error {
	if !authz.CanAccessFinancialData(GetActor(c)) {
		return writeDomainError(c, domain.ErrUnauthorized)
	}
	if h.reportGen == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "UNAVAILABLE", Message: "generación de reportes no configurada"})
	}
	batch, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	movements, err := h.uc.RawMovements(c.Context(), batch.ID)
	if err != nil {
		return writeDomainError(c, err)
	}
	pdfBytes, err := h.reportGen.GenerateBatchReport(c.Context(), batch, movements)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", `attachment; filename="batch-`+batch.BatchNumber+`.pdf"`)
	return c.Send(pdfBytes)
}
