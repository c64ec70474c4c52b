package progressRoutes

import (
	controllers "github.com/Himanshu2415411/FusionBridge/controllers/progress"
	"github.com/Himanshu2415411/FusionBridge/middleware"
	validators "github.com/Himanshu2415411/FusionBridge/validators/progress"

	"github.com/gofiber/fiber/v2"
)

// SetupProgressRoutes sets up the lesson-progress tracking routes
func SetupProgressRoutes(app *fiber.App) {
	group := app.Group("/progress")

	// Lesson completion (idempotent) and its undo
	group.Post("/lesson", middleware.JWTMiddleware, validators.LessonRef(), controllers.CompleteLesson)
	group.Delete("/lesson", middleware.JWTMiddleware, validators.LessonRef(), controllers.UncompleteLesson)

	// Access tracking, independent of completion
	group.Post("/lesson/access", middleware.JWTMiddleware, validators.LessonRef(), controllers.RecordLessonAccess)

	// Per-course queries
	group.Get("/course/:courseId", middleware.JWTMiddleware, validators.CourseParam(), controllers.GetCourseProgress)
	group.Get("/course/:courseId/next-lesson", middleware.JWTMiddleware, validators.CourseParam(), controllers.GetNextLesson)
	group.Get("/course/:courseId/resume", middleware.JWTMiddleware, validators.CourseParam(), controllers.GetResumePoint)
	group.Get("/course/:courseId/stats", middleware.JWTMiddleware, validators.CourseParam(), controllers.GetAccessStats)
}
