package userRoutes

import (
	"github.com/gofiber/fiber/v2"

	controllers "lms/controllers/notification"
	"lms/middleware"
	validators "lms/validators/notification"
)

// SetupUserRoutes sets up user notification routes
func SetupUserRoutes(app *fiber.App) {
	userGroup := app.Group("/user", middleware.JWTMiddleware)

	userGroup.Get("/notifications", controllers.GetNotifications)
	userGroup.Post("/notifications/:id/read", validators.NotificationID(), controllers.MarkNotificationRead)
}
