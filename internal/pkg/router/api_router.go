package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/iommarket/marketplace/app/controllers"
	"github.com/iommarket/marketplace/app/repository"
	"github.com/iommarket/marketplace/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// Account endpoints authenticate by credentials, not API key.
	v1.Post("/auth/register", controllers.HandleRegister)
	v1.Post("/auth/login", controllers.HandleLogin)

	// Public listing read and visitor flows.
	v1.Get("/listings/:uuid", controllers.HandleGetListing)
	v1.Post("/listings/:uuid/report", controllers.HandleReportListing)
	v1.Post("/listings/:uuid/contact", controllers.HandleContactSeller)

	// Authenticated seller flows.
	authed := v1.Group("", middleware.APIKeyAuthMiddleware())
	authed.Post("/listings", middleware.RequireAuth, controllers.HandleCreateListing)
	authed.Get("/listings", middleware.RequireAuth, controllers.HandleListMyListings)
	authed.Post("/listings/:uuid/submit", middleware.RequireAuth, controllers.HandleSubmitListing)
	authed.Post("/listings/:uuid/renew", middleware.RequireAuth, controllers.HandleRenewListing)
	authed.Post("/listings/:uuid/checkout", middleware.RequireAuth, controllers.HandleListingCheckout)
	authed.Post("/listings/:uuid/feature", middleware.RequireAuth, controllers.HandleFeaturedCheckout)
	authed.Post("/dealer/subscription", middleware.RequireAuth, controllers.HandleDealerSubscriptionCheckout)

	// Moderation and configuration.
	adminController := controllers.NewAdminController(repository.GetGlobalRepositories())
	admin := authed.Group("/admin", middleware.RequireAdmin)
	admin.Get("/listings/pending", adminController.HandlePendingListings)
	admin.Get("/listings/:uuid/payments", adminController.HandleListingPayments)
	admin.Post("/listings/:uuid/moderate", adminController.HandleModerateListing)
	admin.Get("/reports", controllers.HandleListReports)
	admin.Post("/reports/:id/resolve", controllers.HandleResolveReport)
	admin.Get("/stats", adminController.HandleStats)
	admin.Get("/settings", adminController.HandleGetSettings)
	admin.Put("/settings/:key", adminController.HandleUpdateSetting)
	admin.Delete("/settings/:key", adminController.HandleDeleteSetting)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
