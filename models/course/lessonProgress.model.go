package course

import (
	"time"

	"gorm.io/gorm"
)

// LessonProgress tracks a user's completion of a single lesson.
// One row per (user_id, lesson_id); created on first report, updated after, never deleted.
// TimeSpent only accumulates and Completed only moves false -> true.
type LessonProgress struct {
	gorm.Model
	UserID      uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_progress_user_lesson"`
	LessonID    uint       `json:"lesson_id" gorm:"not null;uniqueIndex:idx_progress_user_lesson"`
	CourseID    uint       `json:"course_id" gorm:"index;not null"`
	Completed   bool       `json:"completed" gorm:"default:false"`
	CompletedAt *time.Time `json:"completed_at"`
	TimeSpent   int64      `json:"time_spent" gorm:"default:0"` // accumulated seconds
	IsDeleted   bool       `gorm:"default:false"`
}
