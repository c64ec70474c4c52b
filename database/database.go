package database

import (
	"fmt"
	"log"
	"os"

	"github.com/Himanshu2415411/FusionBridge/config"
	"github.com/Himanshu2415411/FusionBridge/models"
	courseModels "github.com/Himanshu2415411/FusionBridge/models/course"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DbInstance struct holds the database connection instance
type DbInstance struct {
	Db *gorm.DB
}

// Database is the global database instance
var Database DbInstance

// ConnectDb establishes a connection to PostgreSQL, falling back to a local
// SQLite file when DB_HOST is not configured (development mode)
func ConnectDb() {
	var db *gorm.DB
	var err error

	if host := os.Getenv("DB_HOST"); host != "" {
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			host,
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_NAME"),
			os.Getenv("DB_PORT"),
		)

		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}

		// Set up connection pooling
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("Failed to get database instance: %v", err)
		}

		sqlDB.SetMaxOpenConns(10)   // Maximum open connections
		sqlDB.SetMaxIdleConns(5)    // Maximum idle connections
		sqlDB.SetConnMaxLifetime(0) // No timeout
	} else {
		log.Println("DB_HOST not set, using local SQLite database")
		db, err = gorm.Open(sqlite.Open(config.AppConfig.DBName), &gorm.Config{})
		if err != nil {
			log.Fatalf("Failed to open SQLite database: %v", err)
		}
	}

	// Run database migrations
	runMigrations(db)

	// Save database instance globally
	Database = DbInstance{Db: db}
}

// runMigrations performs database migrations
func runMigrations(db *gorm.DB) {
	log.Println("Running Migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&courseModels.Course{},
		&courseModels.Section{},
		&courseModels.Lesson{},
		&courseModels.Enrollment{},
		&courseModels.LessonCompletion{},
		&courseModels.LessonAccess{},
		&courseModels.Certificate{},
	)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations completed successfully.")
}
