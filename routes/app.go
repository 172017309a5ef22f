package routes

import (
	"notes-server/controllers"
	middleware "notes-server/middlewares"
	"notes-server/utils"

	fiberprometheus "github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AppDeps struct {
	Notes       *controllers.NoteController
	Events      *controllers.NoteEventsController
	Keys        *utils.PublicKeyStore
	Log         *zap.SugaredLogger
	RateLimiter *middleware.RateLimiter
	Metrics     *fiberprometheus.FiberPrometheus
	CORSOrigins string
}

// NewApp assembles the HTTP surface: health and metrics first, then the
// rate limited websocket and note routes.
func NewApp(d AppDeps) *fiber.App {
	if d.Log == nil {
		d.Log = zap.NewNop().Sugar()
	}

	app := fiber.New(fiber.Config{
		AppName:               "notes-server",
		DisableStartupMessage: true,
		ErrorHandler:          controllers.ErrorHandler,
		// handlers and stores keep request strings past the request
		Immutable: true,
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(middleware.RequestLogger(d.Log, "/health", "/metrics"))
	app.Use(recover.New())
	if d.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: d.CORSOrigins,
			AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
			AllowHeaders: "Origin,Content-Type,Accept,Authorization",
		}))
	}
	if d.Metrics != nil {
		d.Metrics.RegisterAt(app, "/metrics")
		app.Use(d.Metrics.Middleware)
	}

	app.Get("/health", controllers.Health)

	if d.RateLimiter != nil {
		app.Use(middleware.RateLimit(d.RateLimiter))
	}
	if d.Events != nil {
		WebSocketRoutes(app, d.Events, d.Keys)
	}
	NoteRoutes(app, d.Notes, d.Keys)

	return app
}
