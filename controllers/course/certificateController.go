package controllers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/utils"
)

// ErrCourseNotCompleted is returned when issuance is requested before the
// enrollment reaches 100% progress
var ErrCourseNotCompleted = errors.New("course not completed")

// IssueCertificateIfEligible issues at most one certificate per (user, course).
// An existing certificate is returned as-is, so callers may invoke this
// redundantly. The unique pair index picks a single winner under concurrency;
// the loser's insert is re-read and treated as already issued.
func IssueCertificateIfEligible(db *gorm.DB, userID, courseID uint) (*courseModels.Certificate, bool, error) {
	var existing courseModels.Certificate
	if err := db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&existing).Error; err == nil {
		return &existing, false, nil
	}

	var enrollment courseModels.Enrollment
	if err := db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error; err != nil {
		return nil, false, ErrCourseNotCompleted
	}
	if enrollment.Progress < 100 {
		return nil, false, ErrCourseNotCompleted
	}

	certificate := courseModels.Certificate{
		UserID:            userID,
		CourseID:          courseID,
		CertificateNumber: newCertificateNumber(db),
		IssuedAt:          time.Now(),
	}

	if err := db.Create(&certificate).Error; err != nil {
		// Lost the race to a concurrent issuance: the existing row wins
		if lookupErr := db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
			First(&existing).Error; lookupErr == nil {
			return &existing, false, nil
		}
		return nil, false, err
	}

	log.Printf("[CERTIFICATE] Issued %s to user %d for course %d", certificate.CertificateNumber, userID, courseID)

	// Best-effort side effects; issuance stands even if these fail
	var user models.User
	var course courseModels.Course
	if db.Where("id = ?", userID).First(&user).Error == nil &&
		db.Where("id = ?", courseID).First(&course).Error == nil {
		go utils.SendCertificateEmail(user.Name, user.Email, course.Title, certificate.CertificateNumber)
		utils.Notify(userID, "Certificate issued", "Your certificate for "+course.Title+" is ready: "+certificate.CertificateNumber)
	}

	return &certificate, true, nil
}

// newCertificateNumber generates a certificate number that does not collide
// with any existing one
func newCertificateNumber(db *gorm.DB) string {
	for {
		number := utils.GenerateCertificateNumber()
		var count int64
		db.Model(&courseModels.Certificate{}).Where("certificate_number = ?", number).Count(&count)
		if count == 0 {
			return number
		}
	}
}

// RequestCertificate lets a learner explicitly request their certificate for a
// completed course. Repeat requests transparently return the existing certificate.
func RequestCertificate(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	courseID := c.Locals("courseID").(int)

	// Check enrollment first so an outsider gets a clear error
	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
	}

	certificate, issued, err := IssueCertificateIfEligible(database.Database.Db, userID, uint(courseID))
	if err != nil {
		if errors.Is(err, ErrCourseNotCompleted) {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Please complete the course before requesting a certificate!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to issue certificate!", nil)
	}

	if issued {
		return middleware.JsonResponse(c, fiber.StatusCreated, true, "Certificate issued successfully!", certificate)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate already issued!", certificate)
}

// VerifyCertificate resolves a shareable certificate number to its public view
func VerifyCertificate(c *fiber.Ctx) error {
	code := strings.ToUpper(strings.TrimSpace(c.Params("code")))
	if code == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Certificate number is required!", nil)
	}

	var certificate courseModels.Certificate
	if err := database.Database.Db.Where("certificate_number = ? AND is_deleted = ?", code, false).First(&certificate).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	var user models.User
	var course courseModels.Course
	database.Database.Db.Where("id = ?", certificate.UserID).First(&user)
	database.Database.Db.Where("id = ?", certificate.CourseID).First(&course)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate verified successfully!", fiber.Map{
		"certificate_number": certificate.CertificateNumber,
		"issued_at":          certificate.IssuedAt,
		"holder_name":        user.Name,
		"course_title":       course.Title,
	})
}

// GetUserCertificates gets all certificates for the current user
func GetUserCertificates(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	type CertificateWithCourse struct {
		courseModels.Certificate
		CourseTitle string `json:"course_title"`
	}

	var certificates []courseModels.Certificate
	if err := database.Database.Db.Where("user_id = ? AND is_deleted = ?", userID, false).Order("issued_at desc").Find(&certificates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	result := make([]CertificateWithCourse, len(certificates))
	for i, cert := range certificates {
		var course courseModels.Course
		database.Database.Db.Where("id = ?", cert.CourseID).First(&course)
		result[i] = CertificateWithCourse{
			Certificate: cert,
			CourseTitle: course.Title,
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", fiber.Map{
		"certificates": result,
		"total":        len(result),
	})
}
