package utils

import (
	"log"

	"github.com/jinzhu/now"
	"github.com/robfig/cron/v3"

	"lms/database"
	"lms/models"
)

// InitializeOrderScheduler sets up the daily stale-order report.
// Abandoned checkouts stay PENDING; there is no expiry policy for them yet,
// so the scheduler only reports counts for operators.
func InitializeOrderScheduler() {
	log.Println("[ORDER-SCHEDULER] Initializing order scheduler...")

	c := cron.New()

	// Run daily at 9 AM
	c.AddFunc("0 9 * * *", func() {
		ReportStalePendingOrders()
	})

	c.Start()
	log.Println("[ORDER-SCHEDULER] Order scheduler started - runs daily at 9 AM")
}

// ReportStalePendingOrders logs orders left PENDING before the current day
func ReportStalePendingOrders() {
	db := database.Database.Db
	today := now.BeginningOfDay()

	var stale int64
	if err := db.Model(&models.Order{}).
		Where("status = ? AND is_deleted = ? AND created_at < ?", models.OrderStatusPending, false, today).
		Count(&stale).Error; err != nil {
		log.Printf("[ORDER-SCHEDULER] Error counting stale pending orders: %v", err)
		return
	}

	if stale > 0 {
		log.Printf("[ORDER-SCHEDULER] %d pending orders older than today (abandoned checkouts)", stale)
	}
}
