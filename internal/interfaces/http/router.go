package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ventas-api/internal/application/auth"
	"github.com/jhoicas/ventas-api/internal/application/inventory"
	"github.com/jhoicas/ventas-api/internal/application/sales"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	RegisterMovement *inventory.RegisterMovementUseCase
	Resolver         *inventory.Resolver
	Report           *inventory.ReportUseCase
	CreateSale       *sales.CreateSaleUseCase
	AuthUC           *auth.AuthUseCase
	JWTSecret        string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Inventario: libro de movimientos y proyecciones (protegido)
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.RegisterMovement, deps.Resolver, deps.Report)
	invGroup.Post("/movements", inventoryHandler.RegisterMovement)
	invGroup.Get("/physical", inventoryHandler.PhysicalInventory)
	invGroup.Get("/physical/export", inventoryHandler.ExportPhysical)
	invGroup.Get("/reconciliation", RequireRole("admin"), inventoryHandler.Reconciliation)

	// Unidades disponibles por producto (protegido)
	products := protected.Group("/products")
	products.Get("/:id/units", inventoryHandler.AvailableUnits)

	// Ventas (protegido)
	salesGroup := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.CreateSale)
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Post("/:id/void", saleHandler.Void)
}
