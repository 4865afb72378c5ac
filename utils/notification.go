package utils

import (
	"log"

	"lms/database"
	"lms/models"
)

// Notify writes an in-app notification for the user. Failures are logged and
// swallowed so a notification problem never fails the operation that caused it.
func Notify(userID uint, title, message string) {
	notification := models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
	}

	if err := database.Database.Db.Create(&notification).Error; err != nil {
		log.Printf("[NOTIFY] Failed to create notification for user %d: %v", userID, err)
	}
}
