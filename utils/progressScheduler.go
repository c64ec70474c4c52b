package utils

import (
	"log"
	"time"

	"github.com/Himanshu2415411/FusionBridge/database"
	courseModels "github.com/Himanshu2415411/FusionBridge/models/course"

	"github.com/robfig/cron/v3"
)

// InitializeProgressScheduler sets up the nightly progress reconciliation job
func InitializeProgressScheduler() {
	log.Println("[PROGRESS-SCHEDULER] Initializing progress scheduler...")

	c := cron.New()

	// Run daily at 2:30 AM, after the traffic trough
	c.AddFunc("30 2 * * *", func() {
		log.Println("[PROGRESS-SCHEDULER] Running nightly progress reconciliation...")
		ReconcileEnrollmentProgress()
	})

	c.Start()
	log.Println("[PROGRESS-SCHEDULER] Progress scheduler started - runs daily at 2:30 AM")
}

// ReconcileEnrollmentProgress recomputes the persisted progress columns of
// every active enrollment from its completion rows and the current curriculum.
// Repairs drift from concurrent updates and from instructors editing courses.
func ReconcileEnrollmentProgress() {
	db := database.Database.Db
	start := time.Now()

	var enrollments []courseModels.Enrollment
	if err := db.Where("is_deleted = ?", false).Find(&enrollments).Error; err != nil {
		log.Printf("[PROGRESS-SCHEDULER] Error fetching enrollments: %v", err)
		return
	}

	repaired := 0
	for _, enrollment := range enrollments {
		var totalLessons int64
		var completedLessons int64

		db.Model(&courseModels.Lesson{}).Where("course_id = ?", enrollment.CourseID).Count(&totalLessons)
		db.Model(&courseModels.LessonCompletion{}).Where("enrollment_id = ?", enrollment.ID).Count(&completedLessons)

		progress := 0.0
		if totalLessons > 0 {
			progress = float64(completedLessons) / float64(totalLessons) * 100
		}

		if enrollment.TotalLessons == int(totalLessons) &&
			enrollment.CompletedLessons == int(completedLessons) &&
			enrollment.Progress == progress {
			continue
		}

		status := enrollment.Status
		if totalLessons > 0 && completedLessons == totalLessons {
			status = "COMPLETED"
		} else if completedLessons > 0 {
			status = "IN_PROGRESS"
		} else {
			status = "ENROLLED"
		}

		// Counters and percentage only. The completion flag and its reward
		// stay with the request path, which holds the race-safe guard.
		if err := db.Model(&courseModels.Enrollment{}).Where("id = ?", enrollment.ID).
			Updates(map[string]interface{}{
				"total_lessons":     totalLessons,
				"completed_lessons": completedLessons,
				"progress":          progress,
				"status":            status,
			}).Error; err != nil {
			log.Printf("[PROGRESS-SCHEDULER] Error updating enrollment %d: %v", enrollment.ID, err)
			continue
		}
		repaired++
	}

	log.Printf("[PROGRESS-SCHEDULER] Reconciled %d of %d enrollments in %s", repaired, len(enrollments), time.Since(start))
}
