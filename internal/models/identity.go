package models

import (
	"strings"
	"time"
)

// Identity represents an authenticated account
type Identity struct {
	ID           string    `json:"id"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Never serialize
	CreatedAt    time.Time `json:"created_at"`
}

// MaskedEmail returns the email with the local part hidden for logging
func (i *Identity) MaskedEmail() string {
	at := strings.IndexByte(i.Email, '@')
	if at < 1 {
		return "***"
	}
	return i.Email[:1] + "***" + i.Email[at:]
}

// PhoneCode is a pending one-time phone verification code
type PhoneCode struct {
	Phone     string
	CodeHash  string
	Attempts  int
	ExpiresAt time.Time
}

// IsExpired checks whether the code can no longer be used
func (c *PhoneCode) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// SignUpRequest represents a request to create an identity
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

// SignInRequest represents a credential sign-in
type SignInRequest struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

// PhoneCodeRequest asks for a one-time code to be sent to a phone number
type PhoneCodeRequest struct {
	Phone string `json:"phone"`
}

// VerifyPhoneCodeRequest exchanges a one-time code for a session
type VerifyPhoneCodeRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}
