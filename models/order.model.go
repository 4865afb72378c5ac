package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrderStatus defines the status of a checkout order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusFailed    OrderStatus = "FAILED"
)

// Order records one checkout attempt. Status only moves forward
// (PENDING -> COMPLETED or PENDING -> FAILED), enforced by conditional updates.
type Order struct {
	gorm.Model
	UserID   uint        `json:"user_id" gorm:"index;not null"`
	CourseID uint        `json:"course_id" gorm:"index;not null"`
	Amount   float64     `json:"amount" gorm:"not null"`
	Status   OrderStatus `json:"status" gorm:"type:varchar(20);default:'PENDING'"`

	// Reference is our opaque order number shared with the user
	Reference string `json:"reference" gorm:"type:varchar(64);uniqueIndex"`

	// Payment provider details
	SessionID       *string        `json:"session_id" gorm:"uniqueIndex"` // provider checkout session
	PaymentRef      string         `json:"payment_ref" gorm:"type:varchar(100);index"`
	ProviderPayload datatypes.JSON `json:"provider_payload"` // raw confirmed event, kept for audit

	CouponID *uint `json:"coupon_id" gorm:"index"`

	PaidAt    *time.Time `json:"paid_at"`
	IsDeleted bool       `gorm:"default:false"`
}
