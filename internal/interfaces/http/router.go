package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/jhoicas/supplychain-core/internal/application/inventory"
	"github.com/jhoicas/supplychain-core/internal/application/orders"
	"github.com/jhoicas/supplychain-core/internal/application/organization"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Organizations    *organization.UseCase
	Orders           *orders.OrderUseCase
	Chain            *orders.DocumentChainUseCase
	Ledger           *inventory.LedgerUseCase
	JWTSecret        string
	// HighestTierLevel nivel requerido para borrar órdenes (0 = SuperAdmin).
	HighestTierLevel int
}

// ServerOptions opciones del servidor Fiber.
type ServerOptions struct {
	AppName   string
	RateLimit int // peticiones por minuto y por IP; 0 = sin límite
	Log       zerolog.Logger
}

// NewServer crea la app con recover, log de peticiones y limitador, y registra las rutas.
func NewServer(deps RouterDeps, opts ServerOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      opts.AppName,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Output:     opts.Log,
		Format:     "${status} ${method} ${path} ${latency}\n",
		TimeFormat: time.RFC3339,
	}))
	if opts.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimit,
			Expiration: time.Minute,
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": opts.AppName})
	})

	Router(app, deps)
	return app
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	orgHandler := NewOrganizationHandler(deps.Organizations)
	orgs := api.Group("/organizations")
	orgs.Post("/", orgHandler.Create)
	orgs.Get("/:id", orgHandler.GetByID)
	orgs.Put("/:id", orgHandler.Update)
	orgs.Post("/:id/distributors", orgHandler.LinkDistributor)
	orgs.Get("/:id/children", orgHandler.ListChildren)

	orderHandler := NewOrderHandler(deps.Orders, deps.Chain, deps.Ledger)
	ords := api.Group("/orders")
	ords.Post("/", orderHandler.Create)
	ords.Get("/:id", orderHandler.Get)
	ords.Put("/:id/items", orderHandler.UpdateItems)
	ords.Post("/:id/submit", orderHandler.Submit)
	ords.Post("/:id/approve", orderHandler.Approve)
	ords.Post("/:id/reserve", orderHandler.Reserve)
	ords.Get("/:id/documents", orderHandler.Documents)
	deleteLevel := deps.HighestTierLevel
	if deleteLevel <= 0 {
		deleteLevel = entity.RoleLevelSuperAdmin
	}
	ords.Delete("/:id", RequireLevel(deleteLevel), orderHandler.Delete)

	docHandler := NewDocumentHandler(deps.Chain)
	docs := api.Group("/documents")
	docs.Get("/:id", docHandler.Snapshot)
	docs.Post("/:id/acknowledge", docHandler.Acknowledge)
	docs.Post("/:id/proof", docHandler.AttachProof)

	invHandler := NewInventoryHandler(deps.Ledger)
	inv := api.Group("/inventory")
	inv.Post("/movements", invHandler.RegisterMovement)
	inv.Get("/movements", invHandler.ListMovements)
	inv.Get("/position", invHandler.GetPosition)
	inv.Get("/positions", invHandler.ListPositions)
	inv.Post("/transfers", invHandler.CreateTransfer)
	inv.Post("/transfers/:id/receive", invHandler.ReceiveTransfer)
}
