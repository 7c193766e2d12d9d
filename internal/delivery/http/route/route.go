package route

import (
	"github.com/ferdian3456/tiergate/internal/delivery/http"

	"github.com/gofiber/fiber/v2"
)

type RouteConfig struct {
	App               *fiber.App
	WebhookController *http.WebhookController
}

func (c *RouteConfig) SetupRoute() {
	api := c.App.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	c.App.Post("/telegram/webhook", c.WebhookController.HandleUpdate)
}
