package models

import (
	"gorm.io/gorm"
)

// User roles
const (
	RoleStudent    = "STUDENT"
	RoleInstructor = "INSTRUCTOR"
	RoleAdmin      = "ADMIN"
)

// User is the identity record owned by the auth service; the core references it by id
type User struct {
	gorm.Model
	Name      string `json:"name"`
	Email     string `json:"email" gorm:"index"`
	Role      string `json:"role" gorm:"default:'STUDENT'"` // STUDENT, INSTRUCTOR, ADMIN
	IsDeleted bool   `gorm:"default:false"`
}
