package controllers

import (
	"github.com/Himanshu2415411/FusionBridge/database"
	"github.com/Himanshu2415411/FusionBridge/middleware"
	"github.com/Himanshu2415411/FusionBridge/models"
	courseModels "github.com/Himanshu2415411/FusionBridge/models/course"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile returns the caller's profile with learning stats
func GetMyProfile(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	var enrollmentCount int64
	database.Database.Db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).Count(&enrollmentCount)

	var certificateCount int64
	database.Database.Db.Model(&courseModels.Certificate{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).Count(&certificateCount)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched successfully!", fiber.Map{
		"user":                user,
		"fullName":            user.FullName(),
		"progressToNextLevel": user.LevelProgress(),
		"enrolledCourses":     enrollmentCount,
		"certificates":        certificateCount,
	})
}
