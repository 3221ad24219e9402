package domain

import "time"

// TOTPEnrollment is handed to the user while a secret is pending. The secret
// is not stored anywhere until a code for it has been verified; the ticket
// carries it between the two steps.
type TOTPEnrollment struct {
	Secret     string    `json:"secret"`      // base32
	OTPAuthURL string    `json:"otpauth_url"` // otpauth://totp/...
	QRCode     string    `json:"qr_code"`     // data:image/png;base64,...
	Issuer     string    `json:"issuer"`
	Account    string    `json:"account"`
	Ticket     string    `json:"ticket"`
	ExpiresAt  time.Time `json:"expires_at"`
}
