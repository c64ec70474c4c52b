package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Himanshu2415411/FusionBridge/config"
	"github.com/Himanshu2415411/FusionBridge/database"
	"github.com/Himanshu2415411/FusionBridge/models"
	courseModels "github.com/Himanshu2415411/FusionBridge/models/course"
	progressValidator "github.com/Himanshu2415411/FusionBridge/validators/progress"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDbSeq int64

// setupProgressDb points the global database instance at a fresh in-memory
// SQLite database. Shared cache keeps every pooled connection on the same DB.
func setupProgressDb(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:progress_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDbSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&courseModels.Course{},
		&courseModels.Section{},
		&courseModels.Lesson{},
		&courseModels.Enrollment{},
		&courseModels.LessonCompletion{},
		&courseModels.LessonAccess{},
		&courseModels.Certificate{},
	))

	database.Database = database.DbInstance{Db: db}
	config.AppConfig = &config.Config{
		CompletionXP: 200,
		EnrollmentXP: 50,
	}

	return db
}

// setupProgressApp wires the mutating progress routes the way the router does,
// with the authenticated user fixed instead of parsed from a token.
func setupProgressApp(userID uint) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userId", userID)
		return c.Next()
	})

	app.Post("/progress/lesson", progressValidator.LessonRef(), CompleteLesson)
	app.Delete("/progress/lesson", progressValidator.LessonRef(), UncompleteLesson)
	app.Post("/progress/lesson/access", progressValidator.LessonRef(), RecordLessonAccess)

	return app
}

func seedStudent(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := &models.User{Email: "student@test.local", Password: "x", Level: 1}
	require.NoError(t, db.Create(user).Error)
	return user
}

// seedPublishedCourse creates a published course with one section holding two
// lessons and returns the course plus its lessons in curriculum order.
func seedPublishedCourse(t *testing.T, db *gorm.DB) (*courseModels.Course, []courseModels.Lesson) {
	t.Helper()

	course := &courseModels.Course{Title: "Go Basics", IsPublished: true, Certificate: true}
	require.NoError(t, db.Create(course).Error)

	section := &courseModels.Section{CourseID: course.ID, Title: "Getting Started", OrderIndex: 1}
	require.NoError(t, db.Create(section).Error)

	lessons := []courseModels.Lesson{
		{SectionID: section.ID, CourseID: course.ID, Title: "Hello", OrderIndex: 1},
		{SectionID: section.ID, CourseID: course.ID, Title: "Types", OrderIndex: 2},
	}
	for i := range lessons {
		require.NoError(t, db.Create(&lessons[i]).Error)
	}

	return course, lessons
}

func seedEnrollment(t *testing.T, db *gorm.DB, userID uint, course *courseModels.Course, totalLessons int) *courseModels.Enrollment {
	t.Helper()

	enrollment := &courseModels.Enrollment{
		UserID:       userID,
		CourseID:     course.ID,
		Status:       "ENROLLED",
		TotalLessons: totalLessons,
		EnrolledAt:   time.Now(),
	}
	require.NoError(t, db.Create(enrollment).Error)
	return enrollment
}

func doLessonRequest(t *testing.T, app *fiber.App, method, path string, courseID, lessonID uint) (*http.Response, map[string]interface{}) {
	t.Helper()

	body := fmt.Sprintf(`{"courseId": %d, "lessonId": %d}`, courseID, lessonID)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return resp, parsed
}

// Accessing a lesson must never change completion state, and completing a
// lesson must never fabricate access history.
func TestRecordLessonAccess_IndependentOfCompletion(t *testing.T) {
	db := setupProgressDb(t)
	user := seedStudent(t, db)
	course, lessons := seedPublishedCourse(t, db)
	enrollment := seedEnrollment(t, db, user.ID, course, len(lessons))
	app := setupProgressApp(user.ID)

	resp, _ := doLessonRequest(t, app, fiber.MethodPost, "/progress/lesson/access", course.ID, lessons[0].ID)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var firstAccess courseModels.LessonAccess
	require.NoError(t, db.Where("enrollment_id = ? AND lesson_id = ?", enrollment.ID, lessons[0].ID).First(&firstAccess).Error)
	assert.Equal(t, 1, firstAccess.AccessCount)

	resp, payload := doLessonRequest(t, app, fiber.MethodPost, "/progress/lesson/access", course.ID, lessons[0].ID)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), payload["data"].(map[string]interface{})["accessCount"])

	var accessRows []courseModels.LessonAccess
	require.NoError(t, db.Where("enrollment_id = ?", enrollment.ID).Find(&accessRows).Error)
	require.Len(t, accessRows, 1)
	assert.Equal(t, 2, accessRows[0].AccessCount)
	assert.Equal(t, lessons[0].ID, accessRows[0].LessonID)
	assert.False(t, accessRows[0].LastAccessedAt.Before(firstAccess.LastAccessedAt))

	// Two accesses changed nothing about completion.
	var completionCount int64
	require.NoError(t, db.Model(&courseModels.LessonCompletion{}).Where("enrollment_id = ?", enrollment.ID).Count(&completionCount).Error)
	assert.Zero(t, completionCount)

	var reloaded courseModels.Enrollment
	require.NoError(t, db.First(&reloaded, enrollment.ID).Error)
	assert.False(t, reloaded.IsCourseCompleted)
	assert.Equal(t, 0, reloaded.CompletedLessons)
	require.NotNil(t, reloaded.LastAccessedLessonID)
	assert.Equal(t, lessons[0].ID, *reloaded.LastAccessedLessonID)

	// Completing a lesson leaves the access history alone.
	resp, _ = doLessonRequest(t, app, fiber.MethodPost, "/progress/lesson", course.ID, lessons[1].ID)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, db.Where("enrollment_id = ?", enrollment.ID).Find(&accessRows).Error)
	require.Len(t, accessRows, 1)
	assert.Equal(t, 2, accessRows[0].AccessCount)

	// Accessing a completed lesson does not un-complete it.
	resp, _ = doLessonRequest(t, app, fiber.MethodPost, "/progress/lesson/access", course.ID, lessons[1].ID)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, db.Model(&courseModels.LessonCompletion{}).Where("enrollment_id = ?", enrollment.ID).Count(&completionCount).Error)
	assert.Equal(t, int64(1), completionCount)
}

func TestRecordLessonAccess_SingleRowPerLesson(t *testing.T) {
	db := setupProgressDb(t)
	user := seedStudent(t, db)
	course, lessons := seedPublishedCourse(t, db)
	enrollment := seedEnrollment(t, db, user.ID, course, len(lessons))
	app := setupProgressApp(user.ID)

	for i := 0; i < 3; i++ {
		resp, _ := doLessonRequest(t, app, fiber.MethodPost, "/progress/lesson/access", course.ID, lessons[0].ID)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	var accessRows []courseModels.LessonAccess
	require.NoError(t, db.Where("enrollment_id = ? AND lesson_id = ?", enrollment.ID, lessons[0].ID).Find(&accessRows).Error)
	require.Len(t, accessRows, 1)
	assert.Equal(t, 3, accessRows[0].AccessCount)
}

// A lesson that does not exist in the course is a 404 for everyone; only a
// known lesson gets as far as the enrollment check.
func TestCompleteLesson_UnknownLessonBeatsEnrollmentCheck(t *testing.T) {
	db := setupProgressDb(t)
	user := seedStudent(t, db)
	course, lessons := seedPublishedCourse(t, db)
	app := setupProgressApp(user.ID)

	// Not enrolled, unknown lesson: 404, not 403.
	resp, _ := doLessonRequest(t, app, fiber.MethodPost, "/progress/lesson", course.ID, 9999)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// Not enrolled, known lesson: 403.
	resp, _ = doLessonRequest(t, app, fiber.MethodPost, "/progress/lesson", course.ID, lessons[0].ID)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Enrolled, unknown lesson: still 404, and nothing is recorded.
	enrollment := seedEnrollment(t, db, user.ID, course, len(lessons))
	resp, _ = doLessonRequest(t, app, fiber.MethodPost, "/progress/lesson", course.ID, 9999)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var completionCount int64
	require.NoError(t, db.Model(&courseModels.LessonCompletion{}).Where("enrollment_id = ?", enrollment.ID).Count(&completionCount).Error)
	assert.Zero(t, completionCount)

	// The same order holds for the other lesson-scoped endpoints.
	resp, _ = doLessonRequest(t, app, fiber.MethodDelete, "/progress/lesson", course.ID, 9999)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, _ = doLessonRequest(t, app, fiber.MethodPost, "/progress/lesson/access", course.ID, 9999)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

// Completing the whole course grants the reward exactly once per completion:
// re-marking an already-complete course grants nothing, and only a genuine
// reversal re-arms the grant.
func TestCompleteLesson_RewardGrantedOnce(t *testing.T) {
	db := setupProgressDb(t)
	user := seedStudent(t, db)
	course, lessons := seedPublishedCourse(t, db)
	enrollment := seedEnrollment(t, db, user.ID, course, len(lessons))
	app := setupProgressApp(user.ID)

	resp, payload := doLessonRequest(t, app, fiber.MethodPost, "/progress/lesson", course.ID, lessons[0].ID)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, payload["rewarded"])

	resp, payload = doLessonRequest(t, app, fiber.MethodPost, "/progress/lesson", course.ID, lessons[1].ID)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, payload["rewarded"])
	assert.Equal(t, float64(200), payload["xpAdded"])

	var reloadedUser models.User
	require.NoError(t, db.First(&reloadedUser, user.ID).Error)
	assert.Equal(t, 200, reloadedUser.XP)
	assert.Equal(t, 1, reloadedUser.CoursesCompleted)

	var reloaded courseModels.Enrollment
	require.NoError(t, db.First(&reloaded, enrollment.ID).Error)
	assert.True(t, reloaded.IsCourseCompleted)
	assert.True(t, reloaded.CertificateUnlocked)
	assert.NotNil(t, reloaded.CompletedAt)
	assert.Equal(t, "COMPLETED", reloaded.Status)

	var certCount int64
	require.NoError(t, db.Model(&courseModels.Certificate{}).Where("enrollment_id = ?", enrollment.ID).Count(&certCount).Error)
	assert.Equal(t, int64(1), certCount)

	// Re-marking a completed lesson grants nothing.
	resp, payload = doLessonRequest(t, app, fiber.MethodPost, "/progress/lesson", course.ID, lessons[1].ID)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, payload["rewarded"])

	// Uncompleting reverses the completion flag, so completing again is a new
	// completion and re-fires the reward. XP is incremented, not overwritten.
	resp, _ = doLessonRequest(t, app, fiber.MethodDelete, "/progress/lesson", course.ID, lessons[1].ID)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, payload = doLessonRequest(t, app, fiber.MethodPost, "/progress/lesson", course.ID, lessons[1].ID)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, payload["rewarded"])

	require.NoError(t, db.First(&reloadedUser, user.ID).Error)
	assert.Equal(t, 400, reloadedUser.XP)
	assert.Equal(t, 2, reloadedUser.CoursesCompleted)
}
