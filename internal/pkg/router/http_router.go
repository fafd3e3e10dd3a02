package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/iommarket/marketplace/app/controllers"
	"github.com/iommarket/marketplace/app/repository"
	"github.com/iommarket/marketplace/internal/pkg/constants"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Wire the controllers' shared collaborators before any route handler
	// can run.
	controllers.Setup(repository.GetGlobalRepositories())

	app.Get(constants.HealthRoute, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// The provider calls this endpoint directly; it is outside /api and
	// carries its own signature-based authentication.
	app.Post(constants.StripeWebhookRoute, controllers.HandleStripeWebhook)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
