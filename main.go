package main

import (
	"log"

	"github.com/Himanshu2415411/FusionBridge/config"
	"github.com/Himanshu2415411/FusionBridge/database"
	courseRoutes "github.com/Himanshu2415411/FusionBridge/routers/courseRoutes"
	progressRoutes "github.com/Himanshu2415411/FusionBridge/routers/progressRoutes"
	userRoutes "github.com/Himanshu2415411/FusionBridge/routers/userRoutes"
	"github.com/Himanshu2415411/FusionBridge/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	// Serve static files from the public folder
	app.Static("/", "./public")

	courseRoutes.SetupCourseRoutes(app)
	progressRoutes.SetupProgressRoutes(app)
	userRoutes.SetupUserRoutes(app)

	utils.InitializeProgressScheduler()

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
