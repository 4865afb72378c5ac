package courseRoutes

import (
	"github.com/gofiber/fiber/v2"

	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"
)

// SetupCourseRoutes sets up all user-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/course")

	// Course listing and details (published courses)
	courseGroup.Get("/list", middleware.JWTMiddleware, controllers.GetAllCourses)

	// Lesson progress reporting (registered before /:id so the literal segment wins)
	courseGroup.Post("/lesson/:lesson_id/progress", middleware.JWTMiddleware, validators.LessonIDParam(), validators.ReportProgress(), controllers.ReportProgress)

	courseGroup.Get("/:id", middleware.JWTMiddleware, validators.CourseID(), controllers.GetCourseDetails)

	// Direct enrollment (free courses only; paid courses go through checkout)
	courseGroup.Post("/:id/enroll", middleware.JWTMiddleware, validators.CourseID(), controllers.EnrollInCourse)

	// Progress tracking
	courseGroup.Get("/:course_id/progress", middleware.JWTMiddleware, validators.CourseIDParam(), controllers.GetUserProgress)

	// Certificate request (idempotent; repeats return the existing certificate)
	courseGroup.Post("/:course_id/certificate/request", middleware.JWTMiddleware, validators.CourseIDParam(), controllers.RequestCertificate)

	// Public certificate verification by shareable number
	app.Get("/certificate/verify/:code", controllers.VerifyCertificate)

	// User enrollments and certificates
	userGroup := app.Group("/user")
	userGroup.Get("/enrollments", middleware.JWTMiddleware, controllers.GetUserEnrollmentsList)
	userGroup.Get("/certificates", middleware.JWTMiddleware, controllers.GetUserCertificates)
}
