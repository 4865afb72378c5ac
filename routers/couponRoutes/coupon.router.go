package couponRoutes

import (
	"github.com/gofiber/fiber/v2"

	controllers "lms/controllers/coupon"
	"lms/middleware"
	"lms/models"
	validators "lms/validators/coupon"
)

// SetupCouponRoutes sets up coupon validation and management routes
func SetupCouponRoutes(app *fiber.App) {
	app.Post("/coupon/validate", middleware.JWTMiddleware, validators.ValidateCoupon(), controllers.ValidateCoupon)

	adminGroup := app.Group("/admin/coupon", middleware.JWTMiddleware, middleware.RequireRole(models.RoleAdmin, models.RoleInstructor))
	adminGroup.Post("/", validators.CreateCoupon(), controllers.CreateCoupon)
	adminGroup.Get("/list", controllers.GetCoupons)
	adminGroup.Post("/:id/deactivate", validators.CouponID(), controllers.DeactivateCoupon)
}
