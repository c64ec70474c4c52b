package progressValidator

import (
	"strconv"
	"strings"

	"github.com/Himanshu2415411/FusionBridge/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// LessonRef validates the {courseId, lessonId} request body shared by the
// complete, uncomplete and access endpoints
func LessonRef() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			CourseID uint `json:"courseId" validate:"required"`
			LessonID uint `json:"lessonId" validate:"required"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				switch fieldErr.Field() {
				case "CourseID":
					errors["courseId"] = "courseId is required!"
				case "LessonID":
					errors["lessonId"] = "lessonId is required!"
				}
			}
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "courseId and lessonId are required!", errors)
		}

		c.Locals("courseID", reqData.CourseID)
		c.Locals("lessonID", reqData.LessonID)
		return c.Next()
	}
}

// CourseParam validates the :courseId path parameter
func CourseParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseIDStr := strings.TrimSpace(c.Params("courseId"))
		if courseIDStr == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Course ID is required!", nil)
		}

		// Validate CourseID is a valid integer
		courseID, err := strconv.Atoi(courseIDStr)
		if err != nil || courseID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
		}

		c.Locals("courseID", uint(courseID))
		return c.Next()
	}
}
