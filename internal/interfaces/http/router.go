package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/lotes-api/internal/application/auth"
	"github.com/jhoicas/lotes-api/internal/application/inventory"
	"github.com/jhoicas/lotes-api/internal/application/production"
	"github.com/jhoicas/lotes-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.UseCase
	InventoryUC  *inventory.UseCase
	ProductionUC *production.UseCase
	ReportGen    production.ReportGenerator
	JWTSecret    string
}

// Router registra las rutas de la API. El gate de autorización vive en los
// use cases; RequireRole solo corta temprano las rutas de mutación para que
// un visor ni siquiera llegue al handler.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	writerRoles := []string{entity.RoleAdmin, entity.RoleProduccion}

	// Lotes (protegido; mutaciones solo para roles con escritura de inventario)
	lots := protected.Group("/lots")
	inventoryHandler := NewInventoryHandler(deps.InventoryUC)
	lots.Post("/", RequireRole(writerRoles...), inventoryHandler.RegisterIntake)
	lots.Get("/available", inventoryHandler.GetAvailableLots)
	lots.Get("/:id/history", inventoryHandler.GetHistory)

	// Inventario: validación, planificación y movimientos
	invGroup := protected.Group("/inventory")
	invGroup.Post("/validate", inventoryHandler.ValidateSelection)
	invGroup.Get("/fifo-plan", inventoryHandler.FIFOPlan)
	invGroup.Get("/check-stock", inventoryHandler.CheckStock)
	invGroup.Post("/decrement", RequireRole(writerRoles...), inventoryHandler.Decrement)
	invGroup.Post("/increment", RequireRole(writerRoles...), inventoryHandler.Increment)

	// Batches de producción
	batches := protected.Group("/batches")
	batchHandler := NewBatchHandler(deps.ProductionUC, deps.ReportGen)
	batches.Post("/", RequireRole(writerRoles...), batchHandler.Create)
	batches.Get("/:id", batchHandler.GetByID)
	batches.Put("/:id", RequireRole(writerRoles...), batchHandler.Update)
	batches.Post("/:id/complete", RequireRole(writerRoles...), batchHandler.Complete)
	batches.Post("/:id/rollback", RequireRole(writerRoles...), batchHandler.Rollback)
	batches.Get("/:id/audit-trail", batchHandler.AuditTrail)
	batches.Get("/:id/movements", batchHandler.MovementSummary)
	batches.Get("/:id/report", RequireRole(entity.RoleAdmin, entity.RoleFinanzas), batchHandler.Report)
}
