package couponController

import (
	"log"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
)

// ValidationResult is the typed outcome of a coupon check. Invalid coupons are
// normal results with a reason, never errors.
type ValidationResult struct {
	Valid           bool    `json:"valid"`
	Reason          string  `json:"reason,omitempty"`
	DiscountPercent float64 `json:"discount_percent,omitempty"`
	Coupon          *models.Coupon
}

// NormalizeCode upper-cases and trims a coupon code; codes are stored the same way
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCouponForCourse checks a code against expiry, usage cap, active flag
// and course scope. It never consumes a use.
func ValidateCouponForCourse(db *gorm.DB, code string, courseID uint) ValidationResult {
	var coupon models.Coupon
	if err := db.Where("code = ? AND is_deleted = ?", NormalizeCode(code), false).First(&coupon).Error; err != nil {
		return ValidationResult{Valid: false, Reason: models.CouponReasonNotFound}
	}

	if !coupon.IsActive {
		return ValidationResult{Valid: false, Reason: models.CouponReasonInactive}
	}

	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(time.Now()) {
		return ValidationResult{Valid: false, Reason: models.CouponReasonExpired}
	}

	if coupon.MaxUses != nil && coupon.UsedCount >= *coupon.MaxUses {
		return ValidationResult{Valid: false, Reason: models.CouponReasonExhausted}
	}

	if coupon.CourseID != nil && *coupon.CourseID != courseID {
		return ValidationResult{Valid: false, Reason: models.CouponReasonWrongCourse}
	}

	return ValidationResult{Valid: true, DiscountPercent: coupon.DiscountPercent, Coupon: &coupon}
}

// RedeemCoupon consumes exactly one use of a coupon. The guard is a single
// conditional UPDATE so concurrent redemptions can never push used_count past
// max_uses. RowsAffected 0 means the cap was already reached.
func RedeemCoupon(db *gorm.DB, couponID uint) error {
	result := db.Model(&models.Coupon{}).
		Where("id = ? AND (max_uses IS NULL OR used_count < max_uses)", couponID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ApplyDiscount returns the price after a percentage discount, clamped at zero
// and rounded to cents
func ApplyDiscount(price, discountPercent float64) float64 {
	discounted := price * (1 - discountPercent/100)
	if discounted < 0 {
		discounted = 0
	}
	return math.Round(discounted*100) / 100
}

// ValidateCoupon checks a coupon code against a course for the current user
func ValidateCoupon(c *fiber.Ctx) error {
	_, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedCouponCheck").(*struct {
		Code     string `json:"code" validate:"required"`
		CourseID uint   `json:"courseId" validate:"required,gt=0"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result := ValidateCouponForCourse(database.Database.Db, reqData.Code, reqData.CourseID)
	if !result.Valid {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Coupon is not valid!", fiber.Map{
			"valid":  false,
			"reason": result.Reason,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Coupon is valid!", fiber.Map{
		"valid":            true,
		"discount_percent": result.DiscountPercent,
	})
}

// CreateCoupon creates a discount coupon (admin, or instructor for own course)
func CreateCoupon(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedCouponCreate").(*struct {
		Code            string     `json:"code" validate:"required,min=3,max=32"`
		DiscountPercent float64    `json:"discountPercent" validate:"required,gt=0,lte=100"`
		MaxUses         *int       `json:"maxUses" validate:"omitempty,gt=0"`
		ExpiresAt       *time.Time `json:"expiresAt"`
		CourseID        *uint      `json:"courseId"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	// Course-scoped coupons need the course capability; global ones are admin-only
	if reqData.CourseID != nil {
		allowed, err := middleware.CanManageCourse(db, userID, *reqData.CourseID)
		if err != nil || !allowed {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You cannot manage coupons for this course!", nil)
		}

		var course courseModels.Course
		if err := db.Where("id = ? AND is_deleted = ?", *reqData.CourseID, false).First(&course).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
		}
	} else {
		var user models.User
		if err := db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil || user.Role != models.RoleAdmin {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Only admins can create global coupons!", nil)
		}
	}

	coupon := models.Coupon{
		Code:            NormalizeCode(reqData.Code),
		DiscountPercent: reqData.DiscountPercent,
		MaxUses:         reqData.MaxUses,
		ExpiresAt:       reqData.ExpiresAt,
		CourseID:        reqData.CourseID,
		IsActive:        true,
	}

	if err := db.Create(&coupon).Error; err != nil {
		// Unique code index makes duplicates a conflict, not a server error
		var existing models.Coupon
		if db.Where("code = ?", coupon.Code).First(&existing).Error == nil {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Coupon code already exists!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create coupon!", nil)
	}

	log.Printf("[COUPON] Created coupon %s (%v%% off) by user %d", coupon.Code, coupon.DiscountPercent, userID)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Coupon created successfully!", coupon)
}

// GetCoupons lists coupons visible to the caller (admins see all,
// instructors see coupons scoped to their courses)
func GetCoupons(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	var coupons []models.Coupon
	query := db.Where("is_deleted = ?", false).Order("created_at desc")

	if user.Role != models.RoleAdmin {
		var courseIDs []uint
		db.Model(&courseModels.Course{}).
			Where("instructor_id = ? AND is_deleted = ?", userID, false).
			Pluck("id", &courseIDs)
		query = query.Where("course_id IN ?", courseIDs)
	}

	if err := query.Find(&coupons).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch coupons!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Coupons fetched successfully!", fiber.Map{
		"coupons": coupons,
		"total":   len(coupons),
	})
}

// DeactivateCoupon turns a coupon off without deleting its redemption history
func DeactivateCoupon(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	couponID := c.Locals("couponID").(int)
	db := database.Database.Db

	var coupon models.Coupon
	if err := db.Where("id = ? AND is_deleted = ?", couponID, false).First(&coupon).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Coupon not found!", nil)
	}

	if coupon.CourseID != nil {
		allowed, err := middleware.CanManageCourse(db, userID, *coupon.CourseID)
		if err != nil || !allowed {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You cannot manage coupons for this course!", nil)
		}
	} else {
		var user models.User
		if err := db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil || user.Role != models.RoleAdmin {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Only admins can manage global coupons!", nil)
		}
	}

	if err := db.Model(&coupon).UpdateColumn("is_active", false).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to deactivate coupon!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Coupon deactivated successfully!", nil)
}
