package controllers

import (
	"log"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
)

// ReportProgress records lesson progress for the current user and returns the
// recomputed course completion percentage
func ReportProgress(c *fiber.Ctx) error {
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

	lessonID := c.Locals("lessonID").(int)

	reqData, ok := c.Locals("validatedProgress").(*struct {
		Completed      bool  `json:"completed"`
		TimeSpentDelta int64 `json:"timeSpentDelta" validate:"gte=0"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	// Check if lesson exists and is published
	var lesson courseModels.Lesson
	if err := db.Where("id = ? AND is_deleted = ? AND is_published = ?", lessonID, false, true).First(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	// Check if user is enrolled in the lesson's course
	var enrollment courseModels.Enrollment
	if err := db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, lesson.CourseID, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
	}

	if err := upsertLessonProgress(db, userID, &lesson, reqData.Completed, reqData.TimeSpentDelta); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record progress!", nil)
	}

	percent := UpdateEnrollmentProgress(db, userID, lesson.CourseID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress recorded successfully!", fiber.Map{
		"percent_complete": percent,
	})
}

// upsertLessonProgress creates or updates the per-lesson record. TimeSpent only
// accumulates (atomic increment) and Completed only flips false -> true.
func upsertLessonProgress(db *gorm.DB, userID uint, lesson *courseModels.Lesson, completed bool, timeSpentDelta int64) error {
	var existing courseModels.LessonProgress
	err := db.Where("user_id = ? AND lesson_id = ? AND is_deleted = ?", userID, lesson.ID, false).First(&existing).Error
	if err != nil {
		progress := courseModels.LessonProgress{
			UserID:    userID,
			LessonID:  lesson.ID,
			CourseID:  lesson.CourseID,
			Completed: completed,
			TimeSpent: timeSpentDelta,
		}
		if completed {
			now := time.Now()
			progress.CompletedAt = &now
		}

		if createErr := db.Create(&progress).Error; createErr == nil {
			return nil
		}

		// Concurrent first report for the same lesson: fall through to update path
		if err := db.Where("user_id = ? AND lesson_id = ? AND is_deleted = ?", userID, lesson.ID, false).First(&existing).Error; err != nil {
			return err
		}
	}

	if timeSpentDelta > 0 {
		if err := db.Model(&courseModels.LessonProgress{}).
			Where("id = ?", existing.ID).
			UpdateColumn("time_spent", gorm.Expr("time_spent + ?", timeSpentDelta)).Error; err != nil {
			return err
		}
	}

	if completed && !existing.Completed {
		// Conditional update keeps the completion transition one-way
		if err := db.Model(&courseModels.LessonProgress{}).
			Where("id = ? AND completed = ?", existing.ID, false).
			Updates(map[string]interface{}{
				"completed":    true,
				"completed_at": time.Now(),
			}).Error; err != nil {
			return err
		}
	}

	return nil
}

// UpdateEnrollmentProgress recomputes the completion percentage for the
// enrollment from lesson counts and writes it, never decreasing the stored
// value. Reaching 100 flips the enrollment to COMPLETED exactly once and
// triggers certificate issuance.
func UpdateEnrollmentProgress(db *gorm.DB, userID uint, courseID uint) int {
	var totalLessons int64
	var completedLessons int64

	db.Model(&courseModels.Lesson{}).
		Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).
		Count(&totalLessons)
	db.Model(&courseModels.LessonProgress{}).
		Where("user_id = ? AND course_id = ? AND completed = ? AND is_deleted = ?", userID, courseID, true, false).
		Count(&completedLessons)

	// A course without lessons is 0% complete, not 100%
	percent := 0
	if totalLessons > 0 {
		percent = int(math.Round(float64(completedLessons) * 100 / float64(totalLessons)))
	}

	db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND is_deleted = ? AND progress <= ?", userID, courseID, false, percent).
		Updates(map[string]interface{}{
			"progress":          percent,
			"completed_lessons": completedLessons,
			"total_lessons":     totalLessons,
		})

	if percent >= 100 {
		// Flip to COMPLETED at most once; the conditional update makes the
		// transition one-way and picks a single winner under concurrency
		flip := db.Model(&courseModels.Enrollment{}).
			Where("user_id = ? AND course_id = ? AND is_deleted = ? AND status = ?", userID, courseID, false, courseModels.EnrollmentActive).
			Updates(map[string]interface{}{
				"status":       courseModels.EnrollmentCompleted,
				"completed_at": time.Now(),
			})
		if flip.Error != nil {
			log.Printf("[PROGRESS] Failed to mark course %d completed for user %d: %v", courseID, userID, flip.Error)
		} else if flip.RowsAffected > 0 {
			log.Printf("[PROGRESS] User %d completed course %d", userID, courseID)
		}

		// Issuance is idempotent, redundant calls are fine
		if _, _, err := IssueCertificateIfEligible(db, userID, courseID); err != nil {
			log.Printf("[PROGRESS] Certificate issuance failed for user %d course %d: %v", userID, courseID, err)
		}
	}

	return percent
}

// GetUserProgress returns the enrollment snapshot and per-lesson progress
func GetUserProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	courseID := c.Locals("courseID").(int)

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
	}

	var lessonProgress []courseModels.LessonProgress
	database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
		Order("lesson_id asc").Find(&lessonProgress)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", fiber.Map{
		"enrollment": enrollment,
		"lessons":    lessonProgress,
	})
}
