package couponValidator

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"lms/middleware"
)

var validate = validator.New()

// ValidateCoupon validates the coupon check body
func ValidateCoupon() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Code     string `json:"code" validate:"required"`
			CourseID uint   `json:"courseId" validate:"required,gt=0"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				errors[fieldErr.Field()] = "Invalid value for " + fieldErr.Field() + "!"
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCouponCheck", reqData)
		return c.Next()
	}
}

// CreateCoupon validates the coupon creation body
func CreateCoupon() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Code            string     `json:"code" validate:"required,min=3,max=32"`
			DiscountPercent float64    `json:"discountPercent" validate:"required,gt=0,lte=100"`
			MaxUses         *int       `json:"maxUses" validate:"omitempty,gt=0"`
			ExpiresAt       *time.Time `json:"expiresAt"`
			CourseID        *uint      `json:"courseId"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				errors[fieldErr.Field()] = "Invalid value for " + fieldErr.Field() + "!"
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCouponCreate", reqData)
		return c.Next()
	}
}

// CouponID validates the coupon id route parameter
func CouponID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		idStr := strings.TrimSpace(c.Params("id"))
		if idStr == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Coupon ID is required!", nil)
		}

		id, err := strconv.Atoi(idStr)
		if err != nil || id <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Coupon ID!", nil)
		}

		c.Locals("couponID", id)
		return c.Next()
	}
}
