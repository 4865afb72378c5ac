package checkoutController

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	couponController "lms/controllers/coupon"
	courseControllers "lms/controllers/course"
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/utils"
)

// webhookEvent is the payload delivered by the payment provider
type webhookEvent struct {
	Type       string `json:"type"` // checkout.completed, payment.failed
	SessionRef string `json:"session_ref"`
	PaymentRef string `json:"payment_ref"`
}

// InitiateCheckout starts a course purchase. Free results (price zero or fully
// discounted) enroll synchronously; paid ones return a provider redirect and
// leave enrollment to the webhook.
func InitiateCheckout(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	reqData, ok := c.Locals("validatedCheckout").(*struct {
		CourseID   uint   `json:"courseId" validate:"required,gt=0"`
		CouponCode string `json:"couponCode"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	// Check if course exists and is published
	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ? AND is_published = ?", reqData.CourseID, false, true).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or not published!", nil)
	}

	// Check if user is already enrolled
	var existingEnrollment courseModels.Enrollment
	if err := db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, reqData.CourseID, false).First(&existingEnrollment).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "User already enrolled in this course!", nil)
	}

	// Resolve the final price; coupon is validated here but only redeemed once
	// the order actually completes
	finalPrice := course.Price
	var couponID *uint
	if reqData.CouponCode != "" {
		result := couponController.ValidateCouponForCourse(db, reqData.CouponCode, reqData.CourseID)
		if !result.Valid {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Coupon is not valid!", fiber.Map{
				"valid":  false,
				"reason": result.Reason,
			})
		}
		finalPrice = couponController.ApplyDiscount(course.Price, result.DiscountPercent)
		couponID = &result.Coupon.ID
	}

	// Fully discounted or free course: no payment step at all
	if finalPrice <= 0 {
		return completeFreeCheckout(c, &user, &course, couponID)
	}

	// Provider call happens before the order is created, so a provider failure
	// leaves nothing dangling
	reference := uuid.NewString()
	session, err := utils.CreateCheckoutSession(reference, finalPrice, course.Title, user.Email)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Payment provider unavailable. Please try again!", nil)
	}

	order := models.Order{
		UserID:    userID,
		CourseID:  course.ID,
		Amount:    finalPrice,
		Status:    models.OrderStatusPending,
		Reference: reference,
		SessionID: &session.ID,
		CouponID:  couponID,
	}

	if err := db.Create(&order).Error; err != nil {
		log.Printf("[CHECKOUT] Failed to create order for session %s: %v", session.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create order!", nil)
	}

	log.Printf("[CHECKOUT] User %d started checkout for course %d, order %s", userID, course.ID, reference)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Checkout session created!", fiber.Map{
		"free":         false,
		"order_ref":    order.Reference,
		"redirect_url": session.RedirectURL,
	})
}

// completeFreeCheckout materializes a zero-amount order and the enrollment synchronously
func completeFreeCheckout(c *fiber.Ctx, user *models.User, course *courseModels.Course, couponID *uint) error {
	db := database.Database.Db

	enrollment, _, err := courseControllers.CreateEnrollment(db, user.ID, course.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll in course!", nil)
	}

	order := models.Order{
		UserID:    user.ID,
		CourseID:  course.ID,
		Amount:    0,
		Status:    models.OrderStatusCompleted,
		Reference: uuid.NewString(),
		CouponID:  couponID,
	}
	now := time.Now()
	order.PaidAt = &now

	if err := db.Create(&order).Error; err != nil {
		// The enrollment above is already durable and tolerates a retry
		log.Printf("[CHECKOUT] Failed to record free order for user %d course %d: %v", user.ID, course.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record order!", nil)
	}

	// The free order completed, so the coupon use is consumed now
	if couponID != nil {
		if err := couponController.RedeemCoupon(db, *couponID); err != nil {
			log.Printf("[CHECKOUT] Coupon %d redemption failed on free checkout: %v", *couponID, err)
		}
	}

	go utils.SendEnrollmentEmail(user.Name, user.Email, course.Title)
	utils.Notify(user.ID, "Enrollment successful", "You are now enrolled in "+course.Title+".")

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrolled in course successfully!", fiber.Map{
		"free":          true,
		"enrollment_id": enrollment.ID,
		"order_ref":     order.Reference,
	})
}

// PaymentWebhook receives signed provider events. Processing is idempotent:
// replayed or out-of-order deliveries settle on the same end state, and the
// provider always gets a 200 once the core transition is durable.
func PaymentWebhook(c *fiber.Ctx) error {
	body := c.Body()

	signature := c.Get("X-Payment-Signature")
	if !utils.VerifyWebhookSignature(body, signature) {
		log.Printf("[WEBHOOK] Rejected payment webhook with invalid signature")
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid webhook signature!", nil)
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid webhook payload!", nil)
	}

	switch event.Type {
	case "checkout.completed":
		handlePaymentConfirmed(event, body)
	case "payment.failed":
		handlePaymentFailed(event)
	default:
		log.Printf("[WEBHOOK] Ignoring unknown event type %q", event.Type)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Webhook processed!", nil)
}

// handlePaymentConfirmed moves the order to COMPLETED and materializes the
// enrollment. The conditional PENDING guard means exactly one delivery
// performs the side effects; the rest are no-ops.
func handlePaymentConfirmed(event webhookEvent, rawBody []byte) {
	db := database.Database.Db

	var order models.Order
	if err := db.Where("session_id = ? AND is_deleted = ?", event.SessionRef, false).First(&order).Error; err != nil {
		log.Printf("[WEBHOOK] No order for session %s", event.SessionRef)
		return
	}

	// Duplicate delivery: already settled
	if order.Status == models.OrderStatusCompleted {
		return
	}

	result := db.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, models.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":           models.OrderStatusCompleted,
			"payment_ref":      event.PaymentRef,
			"paid_at":          time.Now(),
			"provider_payload": datatypes.JSON(rawBody),
		})
	if result.Error != nil {
		log.Printf("[WEBHOOK] Failed to complete order %d: %v", order.ID, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		// Lost the race to a concurrent delivery, or the order had already failed
		return
	}

	log.Printf("[WEBHOOK] Order %s completed (payment %s)", order.Reference, event.PaymentRef)

	// Payment capture is the source of truth from here on; everything below is
	// best-effort and must never undo the completed order

	// The pending->completed transition fired exactly once, so this redeems once
	if order.CouponID != nil {
		if err := couponController.RedeemCoupon(db, *order.CouponID); err != nil {
			log.Printf("[WEBHOOK] Coupon %d redemption failed for order %d: %v", *order.CouponID, order.ID, err)
		}
	}

	// AlreadyEnrolled is expected on replays and concurrent deliveries
	if _, _, err := courseControllers.CreateEnrollment(db, order.UserID, order.CourseID); err != nil {
		log.Printf("[WEBHOOK] Enrollment creation failed for order %d: %v", order.ID, err)
	}

	var user models.User
	var course courseModels.Course
	if db.Where("id = ?", order.UserID).First(&user).Error == nil &&
		db.Where("id = ?", order.CourseID).First(&course).Error == nil {
		go utils.SendPaymentReceiptEmail(user.Name, user.Email, course.Title, order.Amount, order.Reference)
		go utils.SendEnrollmentEmail(user.Name, user.Email, course.Title)
		utils.Notify(order.UserID, "Enrollment successful", "You are now enrolled in "+course.Title+".")
	}
}

// handlePaymentFailed marks the pending order as FAILED. No enrollment or
// coupon side effects.
func handlePaymentFailed(event webhookEvent) {
	// An event with neither ref cannot name an order; matching on the empty
	// payment_ref would sweep up every pending order
	if event.SessionRef == "" && event.PaymentRef == "" {
		log.Printf("[WEBHOOK] Ignoring payment.failed event without session or payment ref")
		return
	}

	db := database.Database.Db

	query := db.Model(&models.Order{}).Where("status = ?", models.OrderStatusPending)
	if event.SessionRef != "" {
		query = query.Where("session_id = ?", event.SessionRef)
	} else {
		query = query.Where("payment_ref = ?", event.PaymentRef)
	}

	result := query.Updates(map[string]interface{}{
		"status":      models.OrderStatusFailed,
		"payment_ref": event.PaymentRef,
	})
	if result.Error != nil {
		log.Printf("[WEBHOOK] Failed to mark order failed for session %s: %v", event.SessionRef, result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("[WEBHOOK] Marked %d order(s) failed for session %s", result.RowsAffected, event.SessionRef)
	}
}

// GetOrders returns the current user's order history
func GetOrders(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	query := database.Database.Db.Model(&models.Order{}).Where("user_id = ? AND is_deleted = ?", userID, false)

	var total int64
	query.Count(&total)

	var orders []models.Order
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch orders!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Orders fetched successfully!", fiber.Map{
		"orders": orders,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}
