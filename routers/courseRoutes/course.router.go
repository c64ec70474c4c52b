package courseRoutes

import (
	controllers "github.com/Himanshu2415411/FusionBridge/controllers/course"
	"github.com/Himanshu2415411/FusionBridge/middleware"
	validators "github.com/Himanshu2415411/FusionBridge/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all user-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	userGroup := app.Group("/course")

	// Course listing and details (published courses only)
	userGroup.Get("/list", middleware.JWTMiddleware, validators.CourseList(), controllers.GetAllCourses)
	userGroup.Get("/:id", middleware.JWTMiddleware, validators.CourseIDParam(), controllers.GetCourseDetails)

	// Enrollment lifecycle
	userGroup.Post("/:id/enroll", middleware.JWTMiddleware, validators.CourseIDParam(), controllers.EnrollInCourse)
	userGroup.Post("/:id/unenroll", middleware.JWTMiddleware, validators.CourseIDParam(), controllers.UnenrollFromCourse)

	// User enrollments and certificates
	userEnrollGroup := app.Group("/user")
	userEnrollGroup.Get("/enrollments", middleware.JWTMiddleware, controllers.GetUserEnrollments)
	userEnrollGroup.Get("/certificates", middleware.JWTMiddleware, controllers.GetUserCertificates)
}
