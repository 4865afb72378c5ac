package couponController

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"lms/config"
	"lms/database"
	"lms/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	config.AppConfig = &config.Config{
		JWTKey:               "test-secret",
		EmailEnabled:         false,
		PaymentWebhookSecret: "test-webhook-secret",
	}

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection serializes writes against the in-memory database
	sqlDB.SetMaxOpenConns(1)

	database.RunMigrations(db)
	database.Database = database.DbInstance{Db: db}

	return db
}

func intPtr(v int) *int    { return &v }
func uintPtr(v uint) *uint { return &v }

func TestValidateCouponForCourse(t *testing.T) {
	db := setupTestDB(t)

	expired := time.Now().Add(-time.Hour)
	future := time.Now().Add(24 * time.Hour)

	coupons := []models.Coupon{
		{Code: "SAVE20", DiscountPercent: 20, IsActive: true},
		{Code: "INACTIVE", DiscountPercent: 10, IsActive: false},
		{Code: "EXPIRED", DiscountPercent: 10, IsActive: true, ExpiresAt: &expired},
		{Code: "FRESH", DiscountPercent: 10, IsActive: true, ExpiresAt: &future},
		{Code: "USEDUP", DiscountPercent: 10, IsActive: true, MaxUses: intPtr(2), UsedCount: 2},
		{Code: "COURSE7", DiscountPercent: 10, IsActive: true, CourseID: uintPtr(7)},
	}
	for i := range coupons {
		require.NoError(t, db.Create(&coupons[i]).Error)
	}

	tests := []struct {
		name     string
		code     string
		courseID uint
		valid    bool
		reason   string
	}{
		{"valid coupon", "SAVE20", 1, true, ""},
		{"case insensitive lookup", "save20", 1, true, ""},
		{"unknown code", "NOPE", 1, false, models.CouponReasonNotFound},
		{"inactive coupon", "INACTIVE", 1, false, models.CouponReasonInactive},
		{"expired coupon", "EXPIRED", 1, false, models.CouponReasonExpired},
		{"future expiry still valid", "FRESH", 1, true, ""},
		{"exhausted coupon", "USEDUP", 1, false, models.CouponReasonExhausted},
		{"course scoped, wrong course", "COURSE7", 3, false, models.CouponReasonWrongCourse},
		{"course scoped, right course", "COURSE7", 7, true, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := ValidateCouponForCourse(db, tc.code, tc.courseID)
			assert.Equal(t, tc.valid, result.Valid)
			assert.Equal(t, tc.reason, result.Reason)
			if tc.valid {
				assert.NotNil(t, result.Coupon)
				assert.Greater(t, result.DiscountPercent, 0.0)
			}
		})
	}
}

func TestApplyDiscount(t *testing.T) {
	assert.Equal(t, 40.00, ApplyDiscount(50.00, 20))
	assert.Equal(t, 0.0, ApplyDiscount(50.00, 100))
	assert.Equal(t, 9.99, ApplyDiscount(19.98, 50))
	assert.Equal(t, 33.33, ApplyDiscount(49.99, 33.33))

	// Never below zero
	assert.GreaterOrEqual(t, ApplyDiscount(0, 50), 0.0)
}

func TestRedeemCouponRespectsCap(t *testing.T) {
	db := setupTestDB(t)

	coupon := models.Coupon{Code: "CAPPED", DiscountPercent: 10, IsActive: true, MaxUses: intPtr(3)}
	require.NoError(t, db.Create(&coupon).Error)

	const attempts = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := RedeemCoupon(db, coupon.ID); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, successes, "exactly maxUses redemptions should succeed")

	var reloaded models.Coupon
	require.NoError(t, db.First(&reloaded, coupon.ID).Error)
	assert.Equal(t, 3, reloaded.UsedCount, "used_count must never exceed max_uses")
}

func TestRedeemCouponUnlimited(t *testing.T) {
	db := setupTestDB(t)

	coupon := models.Coupon{Code: "UNLIMITED", DiscountPercent: 5, IsActive: true}
	require.NoError(t, db.Create(&coupon).Error)

	for i := 0; i < 25; i++ {
		require.NoError(t, RedeemCoupon(db, coupon.ID))
	}

	var reloaded models.Coupon
	require.NoError(t, db.First(&reloaded, coupon.ID).Error)
	assert.Equal(t, 25, reloaded.UsedCount)
}

func TestInactiveCouponStaysInactiveAfterSave(t *testing.T) {
	db := setupTestDB(t)

	// An explicit false must survive the insert and keep the coupon rejected
	coupon := models.Coupon{Code: "PAUSED", DiscountPercent: 15, IsActive: false}
	require.NoError(t, db.Create(&coupon).Error)

	var reloaded models.Coupon
	require.NoError(t, db.First(&reloaded, coupon.ID).Error)
	assert.False(t, reloaded.IsActive)

	result := ValidateCouponForCourse(db, "PAUSED", 1)
	assert.False(t, result.Valid)
	assert.Equal(t, models.CouponReasonInactive, result.Reason)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SAVE20", NormalizeCode("  save20 "))
	assert.Equal(t, "SAVE20", NormalizeCode("Save20"))
}
