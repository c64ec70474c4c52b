package controllers

import (
	"math"
	"sort"
	"time"

	courseModels "github.com/Himanshu2415411/FusionBridge/models/course"
)

// CompletionState is the in-memory view of one enrollment that the progress
// logic works on. Controllers load it from the store, the functions below
// mutate it, and controllers persist the result.
type CompletionState struct {
	Completed            map[uint]bool
	LastAccessedLessonID *uint
	CourseCompleted      bool
}

// ProgressSummary is the derived progress payload returned to clients
type ProgressSummary struct {
	CourseID              uint  `json:"courseId"`
	LessonID              *uint `json:"lessonId"`
	TotalLessons          int   `json:"totalLessons"`
	CompletedLessonsCount int   `json:"completedLessonsCount"`
	ProgressPercent       int   `json:"progressPercent"`
	IsCompleted           bool  `json:"isCompleted"`
	LastAccessedLesson    *uint `json:"lastAccessedLesson"`
}

// MarkResult reports the outcome of marking a lesson complete
type MarkResult struct {
	AlreadyCompleted bool
	// RewardEligible is true only on the transition that completes the course
	// while the persisted completion flag was still false. The flag, not the
	// percentage, gates the reward so it cannot re-fire once at 100%.
	RewardEligible bool
	Summary        ProgressSummary
}

// UnmarkResult reports the outcome of removing a lesson from the completed set
type UnmarkResult struct {
	WasCompleted       bool
	CompletionReversed bool
	Summary            ProgressSummary
}

// ResumeResult tells a returning user where to continue
type ResumeResult struct {
	Type   string // "resume", "next" or "completed"
	Lesson *courseModels.Lesson
}

// AccessStats summarizes a user's viewing behavior for one course
type AccessStats struct {
	LessonsAccessed  int        `json:"lessonsAccessed"`
	TotalAccessCount int        `json:"totalAccessCount"`
	LastAccessedAt   *time.Time `json:"lastAccessedAt"`
}

// FindLessonInCourse scans the loaded curriculum for a lesson ID and returns
// its containing section. Courses hold tens of lessons, a linear scan is fine.
func FindLessonInCourse(course *courseModels.Course, lessonID uint) (*courseModels.Section, *courseModels.Lesson, bool) {
	for i := range course.Curriculum {
		section := &course.Curriculum[i]
		for j := range section.Lessons {
			if section.Lessons[j].ID == lessonID {
				return section, &section.Lessons[j], true
			}
		}
	}
	return nil, nil, false
}

// BuildProgressSummary derives the progress payload from an enrollment state.
// Pure, no side effects.
func BuildProgressSummary(course *courseModels.Course, lessonID *uint, state *CompletionState) ProgressSummary {
	totalLessons := course.TotalLessons()
	completedCount := len(state.Completed)

	progressPercent := 0
	if totalLessons > 0 {
		progressPercent = int(math.Round(float64(completedCount) / float64(totalLessons) * 100))
	}

	return ProgressSummary{
		CourseID:              course.ID,
		LessonID:              lessonID,
		TotalLessons:          totalLessons,
		CompletedLessonsCount: completedCount,
		ProgressPercent:       progressPercent,
		IsCompleted:           totalLessons > 0 && completedCount == totalLessons,
		LastAccessedLesson:    state.LastAccessedLessonID,
	}
}

// MarkLessonComplete applies the completion transition to the state. Adding an
// already-present lesson is a no-op for the set; the lesson still becomes the
// last accessed one. The caller must verify the lesson belongs to the course.
func MarkLessonComplete(course *courseModels.Course, state *CompletionState, lessonID uint) MarkResult {
	alreadyCompleted := state.Completed[lessonID]
	if !alreadyCompleted {
		state.Completed[lessonID] = true
	}

	id := lessonID
	state.LastAccessedLessonID = &id

	summary := BuildProgressSummary(course, &id, state)

	rewardEligible := false
	if summary.IsCompleted && !state.CourseCompleted {
		state.CourseCompleted = true
		rewardEligible = true
	}

	return MarkResult{
		AlreadyCompleted: alreadyCompleted,
		RewardEligible:   rewardEligible,
		Summary:          summary,
	}
}

// UnmarkLessonComplete removes a lesson from the completed set. When the
// removal breaks a completed course, the completion flag is reversed; whether
// the already-granted reward is taken back is the caller's policy decision.
func UnmarkLessonComplete(course *courseModels.Course, state *CompletionState, lessonID uint) UnmarkResult {
	wasCompleted := state.Completed[lessonID]
	if wasCompleted {
		delete(state.Completed, lessonID)
	}

	if state.LastAccessedLessonID != nil && *state.LastAccessedLessonID == lessonID {
		state.LastAccessedLessonID = nil
	}

	id := lessonID
	summary := BuildProgressSummary(course, &id, state)

	completionReversed := false
	if !summary.IsCompleted && state.CourseCompleted {
		state.CourseCompleted = false
		completionReversed = true
	}

	return UnmarkResult{
		WasCompleted:       wasCompleted,
		CompletionReversed: completionReversed,
		Summary:            summary,
	}
}

// NextIncompleteLesson returns the first lesson, in section order then lesson
// order, that is not in the completed set. Returns nil when everything is done.
func NextIncompleteLesson(course *courseModels.Course, state *CompletionState) *courseModels.Lesson {
	sections := make([]*courseModels.Section, 0, len(course.Curriculum))
	for i := range course.Curriculum {
		sections = append(sections, &course.Curriculum[i])
	}
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].OrderIndex < sections[j].OrderIndex
	})

	for _, section := range sections {
		lessons := make([]*courseModels.Lesson, 0, len(section.Lessons))
		for i := range section.Lessons {
			lessons = append(lessons, &section.Lessons[i])
		}
		sort.SliceStable(lessons, func(i, j int) bool {
			return lessons[i].OrderIndex < lessons[j].OrderIndex
		})

		for _, lesson := range lessons {
			if !state.Completed[lesson.ID] {
				return lesson
			}
		}
	}

	return nil
}

// Resume determines where a returning user should continue. Last-touched
// position wins over completion-driven "next", even when that lesson is
// already complete. A last-accessed lesson that no longer exists in the
// curriculum falls through to the next incomplete one.
func Resume(course *courseModels.Course, state *CompletionState) ResumeResult {
	if state.LastAccessedLessonID != nil {
		if _, lesson, found := FindLessonInCourse(course, *state.LastAccessedLessonID); found {
			return ResumeResult{Type: "resume", Lesson: lesson}
		}
	}

	if next := NextIncompleteLesson(course, state); next != nil {
		return ResumeResult{Type: "next", Lesson: next}
	}

	return ResumeResult{Type: "completed"}
}

// SummarizeAccess aggregates the access history rows of one enrollment
func SummarizeAccess(history []courseModels.LessonAccess) AccessStats {
	stats := AccessStats{LessonsAccessed: len(history)}

	for i := range history {
		stats.TotalAccessCount += history[i].AccessCount
		if stats.LastAccessedAt == nil || history[i].LastAccessedAt.After(*stats.LastAccessedAt) {
			t := history[i].LastAccessedAt
			stats.LastAccessedAt = &t
		}
	}

	return stats
}
