package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/utils"
)

// CreateEnrollment inserts the (user, course) enrollment, relying on the unique
// pair index to collapse concurrent creates. Returns the enrollment and whether
// this call created it; finding an existing row is a normal outcome, not an error.
func CreateEnrollment(db *gorm.DB, userID, courseID uint) (*courseModels.Enrollment, bool, error) {
	enrollment := courseModels.Enrollment{
		UserID:   userID,
		CourseID: courseID,
		Status:   courseModels.EnrollmentActive,
	}

	if err := db.Create(&enrollment).Error; err != nil {
		// Duplicate insert: another request (or a replayed webhook) won the race
		var existing courseModels.Enrollment
		if lookupErr := db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
			First(&existing).Error; lookupErr == nil {
			return &existing, false, nil
		}
		return nil, false, err
	}

	return &enrollment, true, nil
}

// EnrollInCourse enrolls the current user into a free course directly.
// Priced courses must go through checkout so payment owns enrollment creation.
func EnrollInCourse(c *fiber.Ctx) error {
	// Retrieve userId from JWT middleware
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	// Check if user exists
	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	// Retrieve validated course ID
	courseID := c.Locals("courseID").(int)

	// Check if course exists and is published
	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or not published!", nil)
	}

	if course.Price > 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "This course requires payment. Please use checkout!", nil)
	}

	enrollment, created, err := CreateEnrollment(database.Database.Db, userID, uint(courseID))
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll in course!", nil)
	}
	if !created {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "User already enrolled in this course!", nil)
	}

	// Best-effort notification side effects
	go utils.SendEnrollmentEmail(user.Name, user.Email, course.Title)
	utils.Notify(userID, "Enrollment successful", "You are now enrolled in "+course.Title+".")

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrolled in course successfully!", enrollment)
}

// GetUserEnrollmentsList gets all enrollments for the current user
func GetUserEnrollmentsList(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	type EnrollmentWithCourse struct {
		courseModels.Enrollment
		CourseTitle       string  `json:"course_title"`
		CourseDescription string  `json:"course_description"`
		CoursePrice       float64 `json:"course_price"`
	}

	var enrollments []courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND is_deleted = ?", userID, false).Order("created_at desc").Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	result := make([]EnrollmentWithCourse, len(enrollments))
	for i, e := range enrollments {
		var course courseModels.Course
		database.Database.Db.Where("id = ?", e.CourseID).First(&course)
		result[i] = EnrollmentWithCourse{
			Enrollment:        e,
			CourseTitle:       course.Title,
			CourseDescription: course.Description,
			CoursePrice:       course.Price,
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"enrollments": result,
		"total":       len(result),
	})
}
