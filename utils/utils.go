package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const certificateCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateCertificateNumber generates a shareable certificate number
// in the form CERT-XXXX-XXXX-XXXX (upper-case alphanumeric).
// Callers must still check the result against existing numbers before accepting it.
func GenerateCertificateNumber() string {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var b strings.Builder
	b.WriteString("CERT")
	for i := 0; i < 3; i++ {
		b.WriteString("-")
		for j := 0; j < 4; j++ {
			b.WriteByte(certificateCharset[rng.Intn(len(certificateCharset))])
		}
	}
	return b.String()
}

// FormatAmount renders a price with two decimals for messages and emails
func FormatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}
