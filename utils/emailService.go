package utils

import (
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"lms/config"
)

// SendEmail sends a transactional email through SendGrid.
// Returns nil without sending when email is disabled or no API key is configured,
// so callers can stay fire-and-forget.
func SendEmail(toName, toEmail, subject, htmlBody string) error {
	if !config.AppConfig.EmailEnabled || config.AppConfig.SendGridKey == "" {
		log.Printf("[EMAIL] Skipping email to %s (email disabled)", toEmail)
		return nil
	}

	from := mail.NewEmail("Learnway", config.AppConfig.EmailSender)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)

	client := sendgrid.NewSendClient(config.AppConfig.SendGridKey)
	resp, err := client.Send(message)
	if err != nil {
		log.Printf("[EMAIL] Error sending email to %s: %v", toEmail, err)
		return err
	}
	if resp.StatusCode >= 400 {
		log.Printf("[EMAIL] SendGrid rejected email to %s: status %d", toEmail, resp.StatusCode)
		return fmt.Errorf("sendgrid error: status %d", resp.StatusCode)
	}

	return nil
}

// HTML wrapper shared by all transactional emails
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1A2B4C; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1A2B4C; line-height: 1.6; }
			.content h2 { color: #1A2B4C; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #5B8DEF; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>LEARNWAY</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 Learnway. All rights reserved.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}

// SendEnrollmentEmail sends an email notification when a user gains access to a course
func SendEnrollmentEmail(toName, toEmail, courseName string) error {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Congratulations! You have successfully enrolled in:</p>
		<div class="info-box"><strong>%s</strong></div>
		<p>You can now access all the course content and start learning. Complete all lessons to earn your certificate.</p>
		<p>Happy Learning!</p>
	`, toName, courseName)

	return SendEmail(toName, toEmail, "Course Enrollment Confirmation - Learnway", getEmailTemplate("Enrollment Successful", body))
}

// SendCertificateEmail sends a certificate notification email
func SendCertificateEmail(toName, toEmail, courseName, certificateNumber string) error {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Congratulations on completing the course:</p>
		<div class="info-box"><strong>%s</strong></div>
		<p>Your certificate number is:</p>
		<div class="info-box"><strong>%s</strong></div>
		<p>You can share this number for verification purposes.</p>
	`, toName, courseName, certificateNumber)

	return SendEmail(toName, toEmail, "Course Completion Certificate - Learnway", getEmailTemplate("Certificate of Completion", body))
}

// SendPaymentReceiptEmail confirms a completed course purchase
func SendPaymentReceiptEmail(toName, toEmail, courseName string, amount float64, orderRef string) error {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>We have received your payment of <strong>$%s</strong> for:</p>
		<div class="info-box"><strong>%s</strong></div>
		<p>Order reference: %s</p>
	`, toName, FormatAmount(amount), courseName, orderRef)

	return SendEmail(toName, toEmail, "Payment Received - Learnway", getEmailTemplate("Payment Received", body))
}
