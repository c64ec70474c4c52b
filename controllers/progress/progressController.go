package controllers

import (
	"log"
	"time"

	"github.com/Himanshu2415411/FusionBridge/config"
	"github.com/Himanshu2415411/FusionBridge/database"
	"github.com/Himanshu2415411/FusionBridge/middleware"
	"github.com/Himanshu2415411/FusionBridge/models"
	courseModels "github.com/Himanshu2415411/FusionBridge/models/course"
	"github.com/Himanshu2415411/FusionBridge/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// loadPublishedCourse fetches a live course with its curriculum ordered by
// section order then lesson order
func loadPublishedCourse(courseID uint) (*courseModels.Course, error) {
	var course courseModels.Course
	err := database.Database.Db.
		Preload("Curriculum", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index asc")
		}).
		Preload("Curriculum.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index asc")
		}).
		Where("id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// loadCompletionState builds the in-memory enrollment view from the
// enrollment row and its completion rows
func loadCompletionState(enrollment *courseModels.Enrollment) (*CompletionState, error) {
	var completions []courseModels.LessonCompletion
	if err := database.Database.Db.Where("enrollment_id = ?", enrollment.ID).Find(&completions).Error; err != nil {
		return nil, err
	}

	completed := make(map[uint]bool, len(completions))
	for _, completion := range completions {
		completed[completion.LessonID] = true
	}

	return &CompletionState{
		Completed:            completed,
		LastAccessedLessonID: enrollment.LastAccessedLessonID,
		CourseCompleted:      enrollment.IsCourseCompleted,
	}, nil
}

// enrollmentColumns derives the persisted enrollment columns from a summary.
// Progress is stored unrounded; the rounded percent is a response-only value.
func enrollmentColumns(summary ProgressSummary, state *CompletionState) map[string]interface{} {
	progress := 0.0
	if summary.TotalLessons > 0 {
		progress = float64(summary.CompletedLessonsCount) / float64(summary.TotalLessons) * 100
	}

	status := "ENROLLED"
	if summary.IsCompleted {
		status = "COMPLETED"
	} else if summary.CompletedLessonsCount > 0 {
		status = "IN_PROGRESS"
	}

	return map[string]interface{}{
		"last_accessed_lesson_id": state.LastAccessedLessonID,
		"progress":                progress,
		"completed_lessons":       summary.CompletedLessonsCount,
		"total_lessons":           summary.TotalLessons,
		"status":                  status,
	}
}

// requireProgressContext resolves the (user, course, enrollment) triple every
// progress operation starts from, writing the failure response itself.
// Preconditions are checked in contract order: course, then lesson (when one
// is referenced), then enrollment - an unknown lesson is a 404 even for a
// caller who is not enrolled.
func requireProgressContext(c *fiber.Ctx, courseID uint, lessonID *uint) (*models.User, *courseModels.Course, *courseModels.Enrollment, bool) {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		return nil, nil, nil, false
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
		return nil, nil, nil, false
	}

	course, err := loadPublishedCourse(courseID)
	if err != nil {
		middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
		return nil, nil, nil, false
	}

	if lessonID != nil {
		if _, _, found := FindLessonInCourse(course, *lessonID); !found {
			middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found in this course!", nil)
			return nil, nil, nil, false
		}
	}

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, course.ID, false).First(&enrollment).Error; err != nil {
		middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
		return nil, nil, nil, false
	}

	return &user, course, &enrollment, true
}

// CompleteLesson marks a lesson as completed for the calling user.
// Idempotent: re-marking reports "already completed" without side effects.
func CompleteLesson(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(uint)
	lessonID := c.Locals("lessonID").(uint)

	user, course, enrollment, ok := requireProgressContext(c, courseID, &lessonID)
	if !ok {
		return nil
	}

	state, err := loadCompletionState(enrollment)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load progress!", nil)
	}

	result := MarkLessonComplete(course, state, lessonID)

	rewarded := false
	xpAdded := 0
	var certificate *courseModels.Certificate

	err = database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if !result.AlreadyCompleted {
			completion := courseModels.LessonCompletion{
				EnrollmentID: enrollment.ID,
				LessonID:     lessonID,
				UserID:       user.ID,
				CourseID:     course.ID,
			}
			// DoNothing keeps a racing duplicate request from failing the tx;
			// the unique index guarantees the set has no duplicates either way.
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&completion).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&courseModels.Enrollment{}).Where("id = ?", enrollment.ID).
			Updates(enrollmentColumns(result.Summary, state)).Error; err != nil {
			return err
		}

		if result.RewardEligible {
			now := time.Now()

			// Conditional update closes the concurrent double-reward race:
			// only the request that flips the flag grants XP.
			res := tx.Model(&courseModels.Enrollment{}).
				Where("id = ? AND is_course_completed = ?", enrollment.ID, false).
				Updates(map[string]interface{}{
					"is_course_completed":  true,
					"completed_at":         now,
					"certificate_unlocked": true,
					"status":               "COMPLETED",
				})
			if res.Error != nil {
				return res.Error
			}

			if res.RowsAffected == 1 {
				if err := models.GrantXP(tx, user.ID, config.AppConfig.CompletionXP); err != nil {
					return err
				}
				if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
					Update("courses_completed", gorm.Expr("courses_completed + ?", 1)).Error; err != nil {
					return err
				}

				if course.Certificate {
					cert := courseModels.Certificate{
						UserID:            user.ID,
						CourseID:          course.ID,
						EnrollmentID:      enrollment.ID,
						CertificateNumber: "FB-" + uuid.New().String(),
						IssuedAt:          now,
					}
					if err := tx.Create(&cert).Error; err != nil {
						return err
					}
					certificate = &cert
				}

				rewarded = true
				xpAdded = config.AppConfig.CompletionXP
			}
		}

		return nil
	})
	if err != nil {
		log.Printf("Complete lesson error: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to mark lesson as completed!", nil)
	}

	if rewarded {
		certificateNumber := ""
		if certificate != nil {
			certificateNumber = certificate.CertificateNumber
		}
		go utils.SendCourseCompletionEmail(user.Email, user.FullName(), course.Title, certificateNumber)
		go utils.NotifyCourseCompleted(user.ID, course.ID, xpAdded, certificateNumber)
	}

	message := "Lesson marked as completed"
	if result.AlreadyCompleted {
		message = "Lesson already completed"
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":  true,
		"message":  message,
		"rewarded": rewarded,
		"xpAdded":  xpAdded,
		"data":     result.Summary,
	})
}

// UncompleteLesson removes a lesson from the completed set (undo path).
// The completion XP is not clawed back unless configured to be.
func UncompleteLesson(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(uint)
	lessonID := c.Locals("lessonID").(uint)

	user, course, enrollment, ok := requireProgressContext(c, courseID, &lessonID)
	if !ok {
		return nil
	}

	state, err := loadCompletionState(enrollment)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load progress!", nil)
	}

	result := UnmarkLessonComplete(course, state, lessonID)

	err = database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if result.WasCompleted {
			if err := tx.Where("enrollment_id = ? AND lesson_id = ?", enrollment.ID, lessonID).
				Delete(&courseModels.LessonCompletion{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&courseModels.Enrollment{}).Where("id = ?", enrollment.ID).
			Updates(enrollmentColumns(result.Summary, state)).Error; err != nil {
			return err
		}

		if result.CompletionReversed {
			res := tx.Model(&courseModels.Enrollment{}).
				Where("id = ? AND is_course_completed = ?", enrollment.ID, true).
				Updates(map[string]interface{}{
					"is_course_completed":  false,
					"completed_at":         nil,
					"certificate_unlocked": false,
				})
			if res.Error != nil {
				return res.Error
			}

			if res.RowsAffected == 1 && config.AppConfig.RevokeRewardOnUncomplete {
				if err := models.RevokeXP(tx, user.ID, config.AppConfig.CompletionXP); err != nil {
					return err
				}
				if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
					Update("courses_completed", gorm.Expr("CASE WHEN courses_completed > 0 THEN courses_completed - 1 ELSE 0 END")).Error; err != nil {
					return err
				}

				if err := tx.Model(&courseModels.Certificate{}).
					Where("enrollment_id = ? AND is_deleted = ?", enrollment.ID, false).
					Update("is_deleted", true).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		log.Printf("Uncomplete lesson error: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to remove lesson completion!", nil)
	}

	message := "Lesson completion removed"
	if !result.WasCompleted {
		message = "Lesson was not completed"
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, message, result.Summary)
}

// RecordLessonAccess records that the user opened a lesson. Access and
// completion are orthogonal; this never touches the completed set.
func RecordLessonAccess(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(uint)
	lessonID := c.Locals("lessonID").(uint)

	user, course, enrollment, ok := requireProgressContext(c, courseID, &lessonID)
	if !ok {
		return nil
	}

	now := time.Now()
	access := courseModels.LessonAccess{
		EnrollmentID:   enrollment.ID,
		LessonID:       lessonID,
		UserID:         user.ID,
		CourseID:       course.ID,
		AccessCount:    1,
		LastAccessedAt: now,
	}

	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		// Upsert so two racing first accesses both land on the unique index
		// without failing; the loser just increments the winner's row.
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "enrollment_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"access_count":     gorm.Expr("access_count + ?", 1),
				"last_accessed_at": now,
				"updated_at":       now,
			}),
		}).Create(&access).Error; err != nil {
			return err
		}

		// Read back the row the upsert actually produced
		if err := tx.Where("enrollment_id = ? AND lesson_id = ?", enrollment.ID, lessonID).
			First(&access).Error; err != nil {
			return err
		}

		return tx.Model(&courseModels.Enrollment{}).Where("id = ?", enrollment.ID).
			Update("last_accessed_lesson_id", lessonID).Error
	})
	if err != nil {
		log.Printf("Record lesson access error: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record lesson access!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson access recorded!", fiber.Map{
		"courseId":       course.ID,
		"lessonId":       lessonID,
		"accessCount":    access.AccessCount,
		"lastAccessedAt": access.LastAccessedAt,
	})
}

// GetCourseProgress returns the derived progress summary for the caller
func GetCourseProgress(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(uint)

	_, course, enrollment, ok := requireProgressContext(c, courseID, nil)
	if !ok {
		return nil
	}

	state, err := loadCompletionState(enrollment)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load progress!", nil)
	}

	var lessonID *uint
	if id := c.QueryInt("lessonId", 0); id > 0 {
		v := uint(id)
		lessonID = &v
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", BuildProgressSummary(course, lessonID, state))
}

// GetNextLesson returns the first incomplete lesson in curriculum order
func GetNextLesson(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(uint)

	_, course, enrollment, ok := requireProgressContext(c, courseID, nil)
	if !ok {
		return nil
	}

	state, err := loadCompletionState(enrollment)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load progress!", nil)
	}

	next := NextIncompleteLesson(course, state)
	if next == nil {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "All lessons completed!", fiber.Map{
			"nextLesson": nil,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Next lesson fetched successfully!", fiber.Map{
		"nextLesson": fiber.Map{
			"lessonId":  next.ID,
			"sectionId": next.SectionID,
			"title":     next.Title,
			"order":     next.OrderIndex,
			"isPreview": next.IsPreview,
		},
	})
}

// GetResumePoint returns where the user should continue: last-touched lesson
// first, next incomplete lesson second, completed otherwise
func GetResumePoint(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(uint)

	_, course, enrollment, ok := requireProgressContext(c, courseID, nil)
	if !ok {
		return nil
	}

	state, err := loadCompletionState(enrollment)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load progress!", nil)
	}

	result := Resume(course, state)

	var resumeLessonID *uint
	if result.Lesson != nil {
		id := result.Lesson.ID
		resumeLessonID = &id
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Resume point fetched successfully!", fiber.Map{
		"resumeLessonId": resumeLessonID,
		"type":           result.Type,
	})
}

// GetAccessStats summarizes the caller's viewing behavior for a course
func GetAccessStats(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(uint)

	_, _, enrollment, ok := requireProgressContext(c, courseID, nil)
	if !ok {
		return nil
	}

	var history []courseModels.LessonAccess
	if err := database.Database.Db.Where("enrollment_id = ?", enrollment.ID).Find(&history).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch access history!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Access stats fetched successfully!", SummarizeAccess(history))
}
