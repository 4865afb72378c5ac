package models

import "gorm.io/gorm"

// Notification is an in-app message for a user, written fire-and-forget
type Notification struct {
	gorm.Model
	UserID    uint   `json:"user_id" gorm:"index;not null"`
	Title     string `json:"title"`
	Message   string `json:"message" gorm:"type:text"`
	IsRead    bool   `json:"is_read" gorm:"default:false"`
	IsDeleted bool   `gorm:"default:false"`
}
