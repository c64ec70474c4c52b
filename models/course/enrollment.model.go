package course

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment tracks a user's enrollment in a course with progress.
// One row per (user, course); the completion set lives in LessonCompletion rows.
type Enrollment struct {
	gorm.Model
	UserID               uint       `json:"user_id" gorm:"index;not null"`
	CourseID             uint       `json:"course_id" gorm:"index;not null"`
	Course               Course     `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	Status               string     `json:"status" gorm:"default:'ENROLLED'"` // ENROLLED, IN_PROGRESS, COMPLETED
	Progress             float64    `json:"progress" gorm:"default:0"`        // Completion percentage (0-100)
	CompletedLessons     int        `json:"completed_lessons" gorm:"default:0"`
	TotalLessons         int        `json:"total_lessons" gorm:"default:0"`
	LastAccessedLessonID *uint      `json:"last_accessed_lesson_id"`
	IsCourseCompleted    bool       `json:"is_course_completed" gorm:"default:false"`
	CompletedAt          *time.Time `json:"completed_at"`
	CertificateUnlocked  bool       `json:"certificate_unlocked" gorm:"default:false"`
	EnrolledAt           time.Time  `json:"enrolled_at"`
	IsDeleted            bool       `json:"-" gorm:"default:false"`
}
