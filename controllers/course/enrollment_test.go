package controllers

import (
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	courseValidator "lms/validators/course"
)

func TestCreateEnrollmentCollapsesConcurrentCreates(t *testing.T) {
	db := setupTestDB(t)

	instructor := seedUser(t, db, "instructor", models.RoleInstructor)
	student := seedUser(t, db, "student", models.RoleStudent)
	course, _ := seedCourseWithLessons(t, db, instructor.ID, 0, 1)

	var wg sync.WaitGroup
	created := make([]bool, 6)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, wasCreated, err := CreateEnrollment(db, student.ID, course.ID)
			assert.NoError(t, err)
			created[i] = wasCreated
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, c := range created {
		if c {
			winners++
		}
	}
	assert.Equal(t, 1, winners)

	var count int64
	db.Model(&courseModels.Enrollment{}).Where("user_id = ? AND course_id = ?", student.ID, course.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestEnrollInCourseEndpoint(t *testing.T) {
	db := setupTestDB(t)

	app := fiber.New()
	app.Post("/course/:id/enroll", middleware.JWTMiddleware, courseValidator.CourseID(), EnrollInCourse)

	instructor := seedUser(t, db, "instructor", models.RoleInstructor)
	student := seedUser(t, db, "student", models.RoleStudent)
	freeCourse, _ := seedCourseWithLessons(t, db, instructor.ID, 0, 2)
	paidCourse, _ := seedCourseWithLessons(t, db, instructor.ID, 49.99, 2)

	enroll := func(courseID uint) int {
		req := httptest.NewRequest("POST", fmt.Sprintf("/course/%d/enroll", courseID), nil)
		req.Header.Set("Authorization", "Bearer "+authToken(t, student))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	// Priced courses go through checkout instead
	assert.Equal(t, fiber.StatusBadRequest, enroll(paidCourse.ID))

	assert.Equal(t, fiber.StatusOK, enroll(freeCourse.ID))

	// Second attempt reports the conflict
	assert.Equal(t, fiber.StatusConflict, enroll(freeCourse.ID))

	var enrollment courseModels.Enrollment
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", student.ID, freeCourse.ID).First(&enrollment).Error)
	assert.Equal(t, courseModels.EnrollmentActive, enrollment.Status)
	assert.Zero(t, enrollment.Progress)
}
