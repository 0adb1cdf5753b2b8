package models

import (
	"time"

	"github.com/google/uuid"
)

// OTPChallenge is one issued email verification code. Either Secret (TOTP
// seed) or FixedCode is set.
type OTPChallenge struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	Secret     string     `json:"-"`
	FixedCode  string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	Attempts   int        `json:"attempts"`
	Verified   bool       `json:"verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
