package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"medialib/config"
)

// Registrar mounts its routes under the API group.
type Registrar interface {
	Register(router fiber.Router)
}

// NewApp builds the Fiber app with global middleware and every handler
// mounted under /api.
func NewApp(cfg config.ServerConfig, handlers ...Registrar) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if cfg.FrontendURL != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: []string{cfg.FrontendURL},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
			AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		}))
	}

	api := app.Group("/api")
	for _, h := range handlers {
		h.Register(api)
	}
	return app
}
