package course

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Course represents a learning course with its full curriculum
type Course struct {
	gorm.Model
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ShortDescription string    `json:"short_description"`
	InstructorID     uint      `json:"instructor_id" gorm:"index"`
	Category         string    `json:"category"`
	Level            string    `json:"level"` // beginner, intermediate, advanced
	Price            float64   `json:"price" gorm:"default:0"`
	Currency         string    `json:"currency" gorm:"default:'USD'"`
	Duration         int64     `json:"duration" gorm:"default:0"` // marketing duration in hours
	Language         string    `json:"language" gorm:"default:'English'"`
	ThumbnailURL     string    `json:"thumbnail_url"`
	Curriculum       []Section `json:"curriculum" gorm:"foreignKey:CourseID"`
	StudentsEnrolled int       `json:"students_enrolled" gorm:"default:0"`
	AverageRating    float64   `json:"average_rating" gorm:"default:0"`
	IsPublished      bool      `json:"is_published" gorm:"default:false"`
	Featured         bool      `json:"featured" gorm:"default:false"`
	Certificate      bool      `json:"certificate" gorm:"default:true"`
	IsDeleted        bool      `json:"-" gorm:"default:false"`
}

// Section is an ordered group of lessons within a course
type Section struct {
	gorm.Model
	CourseID    uint     `json:"course_id" gorm:"index;not null"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	OrderIndex  int      `json:"order_index" gorm:"default:0"` // Section order in course
	Lessons     []Lesson `json:"lessons" gorm:"foreignKey:SectionID"`
}

// Lesson is a single unit of content; lesson IDs are the members of the
// per-enrollment completion set
type Lesson struct {
	gorm.Model
	SectionID       uint           `json:"section_id" gorm:"index;not null"`
	CourseID        uint           `json:"course_id" gorm:"index;not null"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	VideoURL        string         `json:"video_url"`
	DurationMinutes int            `json:"duration_minutes" gorm:"default:0"`
	OrderIndex      int            `json:"order_index" gorm:"default:0"` // Lesson order in section
	IsPreview       bool           `json:"is_preview" gorm:"default:false"`
	Resources       datatypes.JSON `json:"resources"` // [{title, url, type}]
}

// TotalLessons counts lessons across all sections of the loaded curriculum
func (c *Course) TotalLessons() int {
	total := 0
	for _, section := range c.Curriculum {
		total += len(section.Lessons)
	}
	return total
}

// TotalDurationMinutes sums lesson durations across the loaded curriculum
func (c *Course) TotalDurationMinutes() int {
	total := 0
	for _, section := range c.Curriculum {
		for _, lesson := range section.Lessons {
			total += lesson.DurationMinutes
		}
	}
	return total
}
