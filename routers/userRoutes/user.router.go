package userRoutes

import (
	controllers "github.com/Himanshu2415411/FusionBridge/controllers/userControllers"
	"github.com/Himanshu2415411/FusionBridge/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupUserRoutes sets up user profile routes
func SetupUserRoutes(app *fiber.App) {
	userGroup := app.Group("/user")

	userGroup.Get("/profile", middleware.JWTMiddleware, controllers.GetMyProfile)
}
