package course

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment statuses
const (
	EnrollmentActive    = "ACTIVE"
	EnrollmentCompleted = "COMPLETED"
)

// Enrollment tracks a user's access to a course with progress.
// The (user_id, course_id) pair is unique; concurrent creates collapse to one row.
// Progress never decreases and status never moves back from COMPLETED.
type Enrollment struct {
	gorm.Model
	UserID           uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course"`
	CourseID         uint       `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course"`
	Status           string     `json:"status" gorm:"default:'ACTIVE'"` // ACTIVE, COMPLETED
	Progress         int        `json:"progress" gorm:"default:0"`      // completion percentage 0-100
	CompletedLessons int        `json:"completed_lessons" gorm:"default:0"`
	TotalLessons     int        `json:"total_lessons" gorm:"default:0"`
	CompletedAt      *time.Time `json:"completed_at"`
	IsDeleted        bool       `gorm:"default:false"`
}
