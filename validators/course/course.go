package courseValidator

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"lms/middleware"
)

var validate = validator.New()

// parseIDParam validates a positive integer route parameter and stores it in Locals
func parseIDParam(c *fiber.Ctx, param, local, label string) error {
	idStr := strings.TrimSpace(c.Params(param))
	if idStr == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, label+" is required!", nil)
	}

	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid "+label+"!", nil)
	}

	c.Locals(local, id)
	return c.Next()
}

func CourseID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return parseIDParam(c, "id", "courseID", "Course ID")
	}
}

func CourseIDParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return parseIDParam(c, "course_id", "courseID", "Course ID")
	}
}

func LessonIDParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return parseIDParam(c, "lesson_id", "lessonID", "Lesson ID")
	}
}

// ReportProgress validates the lesson progress body
func ReportProgress() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Completed      bool  `json:"completed"`
			TimeSpentDelta int64 `json:"timeSpentDelta" validate:"gte=0"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				errors[fieldErr.Field()] = "Time spent must not be negative!"
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedProgress", reqData)
		return c.Next()
	}
}

// CreateCourse validates the course creation body
func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title       string  `json:"title" validate:"required,min=3,max=200"`
			Description string  `json:"description"`
			Price       float64 `json:"price" validate:"gte=0"`
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

		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}

// UpdateCourse validates the partial course update body
func UpdateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title       *string  `json:"title" validate:"omitempty,min=3,max=200"`
			Description *string  `json:"description"`
			Price       *float64 `json:"price" validate:"omitempty,gte=0"`
			IsPublished *bool    `json:"isPublished"`
			Status      *string  `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE INACTIVE"`
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

		c.Locals("validatedCourseUpdate", reqData)
		return c.Next()
	}
}

// AddLesson validates the lesson creation body
func AddLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title       string `json:"title" validate:"required,min=3,max=200"`
			Description string `json:"description"`
			VideoURL    string `json:"videoUrl"`
			Duration    int64  `json:"duration" validate:"gte=0"`
			OrderIndex  int    `json:"orderIndex" validate:"gte=0"`
			IsPublished bool   `json:"isPublished"`
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

		c.Locals("validatedLesson", reqData)
		return c.Next()
	}
}
