package controllers

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	courseValidator "lms/validators/course"
)

func completeEnrollment(t *testing.T, db *gorm.DB, userID, courseID uint) {
	t.Helper()
	require.NoError(t, db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Updates(map[string]interface{}{
			"progress": 100,
			"status":   courseModels.EnrollmentCompleted,
		}).Error)
}

func TestIssueCertificateRequiresCompletion(t *testing.T) {
	db := setupTestDB(t)

	instructor := seedUser(t, db, "instructor", models.RoleInstructor)
	student := seedUser(t, db, "student", models.RoleStudent)
	course, _ := seedCourseWithLessons(t, db, instructor.ID, 0, 2)
	seedEnrollment(t, db, student.ID, course.ID)

	cert, issued, err := IssueCertificateIfEligible(db, student.ID, course.ID)
	assert.ErrorIs(t, err, ErrCourseNotCompleted)
	assert.Nil(t, cert)
	assert.False(t, issued)
}

func TestIssueCertificateIsIdempotent(t *testing.T) {
	db := setupTestDB(t)

	instructor := seedUser(t, db, "instructor", models.RoleInstructor)
	student := seedUser(t, db, "student", models.RoleStudent)
	course, _ := seedCourseWithLessons(t, db, instructor.ID, 0, 2)
	seedEnrollment(t, db, student.ID, course.ID)
	completeEnrollment(t, db, student.ID, course.ID)

	first, issued, err := IssueCertificateIfEligible(db, student.ID, course.ID)
	require.NoError(t, err)
	require.True(t, issued)
	assert.Regexp(t, `^CERT-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`, first.CertificateNumber)

	second, issued, err := IssueCertificateIfEligible(db, student.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, issued)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CertificateNumber, second.CertificateNumber)

	var count int64
	db.Model(&courseModels.Certificate{}).Where("user_id = ? AND course_id = ?", student.ID, course.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestConcurrentIssuanceCreatesSingleCertificate(t *testing.T) {
	db := setupTestDB(t)

	instructor := seedUser(t, db, "instructor", models.RoleInstructor)
	student := seedUser(t, db, "student", models.RoleStudent)
	course, _ := seedCourseWithLessons(t, db, instructor.ID, 0, 1)
	seedEnrollment(t, db, student.ID, course.ID)
	completeEnrollment(t, db, student.ID, course.ID)

	var wg sync.WaitGroup
	numbers := make([]string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cert, _, err := IssueCertificateIfEligible(db, student.ID, course.ID)
			if err == nil && cert != nil {
				numbers[i] = cert.CertificateNumber
			}
		}(i)
	}
	wg.Wait()

	var count int64
	db.Model(&courseModels.Certificate{}).Where("user_id = ? AND course_id = ?", student.ID, course.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	// Every caller that got a certificate got the same one
	var expected string
	for _, n := range numbers {
		if n != "" {
			expected = n
			break
		}
	}
	require.NotEmpty(t, expected)
	for _, n := range numbers {
		if n != "" {
			assert.Equal(t, expected, n)
		}
	}
}

func TestRequestCertificateEndpoint(t *testing.T) {
	db := setupTestDB(t)

	app := fiber.New()
	app.Post("/course/:course_id/certificate/request", middleware.JWTMiddleware, courseValidator.CourseIDParam(), RequestCertificate)

	instructor := seedUser(t, db, "instructor", models.RoleInstructor)
	student := seedUser(t, db, "student", models.RoleStudent)
	outsider := seedUser(t, db, "outsider", models.RoleStudent)
	course, _ := seedCourseWithLessons(t, db, instructor.ID, 0, 2)
	seedEnrollment(t, db, student.ID, course.ID)

	request := func(userToken string, courseID uint) int {
		req := httptest.NewRequest("POST", fmt.Sprintf("/course/%d/certificate/request", courseID), nil)
		req.Header.Set("Authorization", "Bearer "+userToken)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	studentToken := authToken(t, student)

	// Not enrolled
	assert.Equal(t, fiber.StatusForbidden, request(authToken(t, outsider), course.ID))

	// Enrolled but not finished
	assert.Equal(t, fiber.StatusBadRequest, request(studentToken, course.ID))

	completeEnrollment(t, db, student.ID, course.ID)

	// First request issues, second returns the existing certificate
	assert.Equal(t, fiber.StatusCreated, request(studentToken, course.ID))
	assert.Equal(t, fiber.StatusOK, request(studentToken, course.ID))

	var count int64
	db.Model(&courseModels.Certificate{}).Where("user_id = ?", student.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestVerifyCertificate(t *testing.T) {
	db := setupTestDB(t)

	app := fiber.New()
	app.Get("/certificate/verify/:code", VerifyCertificate)

	instructor := seedUser(t, db, "instructor", models.RoleInstructor)
	student := seedUser(t, db, "student", models.RoleStudent)
	course, _ := seedCourseWithLessons(t, db, instructor.ID, 0, 1)
	seedEnrollment(t, db, student.ID, course.ID)
	completeEnrollment(t, db, student.ID, course.ID)

	cert, _, err := IssueCertificateIfEligible(db, student.ID, course.ID)
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/certificate/verify/"+cert.CertificateNumber, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := decodeData(t, resp)
	assert.Equal(t, cert.CertificateNumber, data["certificate_number"])
	assert.Equal(t, student.Name, data["holder_name"])
	assert.Equal(t, course.Title, data["course_title"])

	// Lookup is case-insensitive on the shared code
	resp, err = app.Test(httptest.NewRequest("GET", "/certificate/verify/"+strings.ToLower(cert.CertificateNumber), nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/certificate/verify/CERT-0000-0000-0000", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
