package course

import "time"

// LessonCompletion is one row per completed lesson per enrollment. The unique
// index makes set insertion idempotent under retried requests. Rows are
// hard-deleted on uncompletion so the lesson can be completed again later.
type LessonCompletion struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	EnrollmentID uint      `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_completion_enrollment_lesson"`
	LessonID     uint      `json:"lesson_id" gorm:"not null;uniqueIndex:idx_completion_enrollment_lesson"`
	UserID       uint      `json:"user_id" gorm:"index;not null"`
	CourseID     uint      `json:"course_id" gorm:"index;not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// LessonAccess records views of a lesson, independent of completion.
// Every access bumps the counter and the timestamp.
type LessonAccess struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	EnrollmentID   uint      `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_access_enrollment_lesson"`
	LessonID       uint      `json:"lesson_id" gorm:"not null;uniqueIndex:idx_access_enrollment_lesson"`
	UserID         uint      `json:"user_id" gorm:"index;not null"`
	CourseID       uint      `json:"course_id" gorm:"index;not null"`
	AccessCount    int       `json:"access_count" gorm:"default:1"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
