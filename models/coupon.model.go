package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon reasons returned by validation (never errors, always typed results)
const (
	CouponReasonNotFound    = "not-found"
	CouponReasonInactive    = "inactive"
	CouponReasonExpired     = "expired"
	CouponReasonExhausted   = "exhausted"
	CouponReasonWrongCourse = "wrong-course"
)

// Coupon is a discount code with an optional usage cap and course scope.
// Codes are stored upper-cased; lookups normalize the same way.
type Coupon struct {
	gorm.Model
	Code            string     `json:"code" gorm:"uniqueIndex;not null"`
	DiscountPercent float64    `json:"discount_percent" gorm:"not null"` // (0,100]
	MaxUses         *int       `json:"max_uses"`                         // nil = unlimited
	UsedCount       int        `json:"used_count" gorm:"default:0"`
	ExpiresAt       *time.Time `json:"expires_at"`
	CourseID        *uint      `json:"course_id" gorm:"index"` // nil = any course
	IsActive        bool       `json:"is_active"`
	IsDeleted       bool       `gorm:"default:false"`
}
