package courseRoutes

import (
	"github.com/gofiber/fiber/v2"

	controllers "lms/controllers/course"
	"lms/middleware"
	"lms/models"
	validators "lms/validators/course"
)

// SetupAdminCourseRoutes sets up course management routes for instructors and admins
func SetupAdminCourseRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin/course", middleware.JWTMiddleware, middleware.RequireRole(models.RoleAdmin, models.RoleInstructor))

	adminGroup.Post("/", validators.CreateCourse(), controllers.CreateCourse)
	adminGroup.Put("/:id", validators.CourseID(), validators.UpdateCourse(), controllers.UpdateCourse)
	adminGroup.Post("/:course_id/lesson", validators.CourseIDParam(), validators.AddLesson(), controllers.AddLesson)
}
