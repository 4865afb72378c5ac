package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-resty/resty/v2"

	"lms/config"
)

// CheckoutSession is the provider's handle for a hosted payment page
type CheckoutSession struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirect_url"`
}

// CreateCheckoutSession asks the payment provider for a hosted checkout session.
// The order is only created after this call succeeds, so a provider failure
// leaves no state behind.
func CreateCheckoutSession(orderRef string, amount float64, courseTitle, customerEmail string) (*CheckoutSession, error) {
	client := resty.New()
	resp, err := client.R().
		SetHeader("Authorization", "Bearer "+config.AppConfig.PaymentApiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"reference":      orderRef,
			"amount":         amount,
			"currency":       "USD",
			"description":    courseTitle,
			"customer_email": customerEmail,
			"success_url":    config.AppConfig.CheckoutSuccessURL,
			"cancel_url":     config.AppConfig.CheckoutCancelURL,
		}).
		Post(config.AppConfig.PaymentApiURL + "/checkout/sessions")
	if err != nil {
		log.Printf("[PAYMENT] Failed to create checkout session: %v", err)
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		log.Printf("[PAYMENT] Provider rejected session create: %s", resp.String())
		return nil, fmt.Errorf("payment provider error: status %d", resp.StatusCode())
	}

	var session CheckoutSession
	if err := json.Unmarshal(resp.Body(), &session); err != nil {
		return nil, fmt.Errorf("invalid provider response: %w", err)
	}
	if session.ID == "" || session.RedirectURL == "" {
		return nil, fmt.Errorf("incomplete provider response")
	}

	return &session, nil
}

// SignWebhookPayload computes the hex HMAC-SHA256 signature for a webhook body
func SignWebhookPayload(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(config.AppConfig.PaymentWebhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks the provider signature on an inbound webhook body
func VerifyWebhookSignature(payload []byte, signature string) bool {
	expected := SignWebhookPayload(payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}
