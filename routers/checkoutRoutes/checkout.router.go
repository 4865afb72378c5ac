package checkoutRoutes

import (
	"github.com/gofiber/fiber/v2"

	controllers "lms/controllers/checkout"
	"lms/middleware"
	validators "lms/validators/checkout"
)

// SetupCheckoutRoutes sets up checkout and payment reconciliation routes
func SetupCheckoutRoutes(app *fiber.App) {
	app.Post("/checkout", middleware.JWTMiddleware, validators.InitiateCheckout(), controllers.InitiateCheckout)

	// Provider-signed webhook; authenticated by signature, not by JWT
	app.Post("/webhook/payment", controllers.PaymentWebhook)

	app.Get("/user/orders", middleware.JWTMiddleware, controllers.GetOrders)
}
