package dto

import (
	"time"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
)

// UserRegisterRequest payload for new accounts. Role accepts "administrative", "support" or their labels.
type UserRegisterRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	NationalID     string `json:"national_id"`
	Extension      string `json:"extension"`
	Department     string `json:"department"`
	Role           string `json:"role"`
	Email          string `json:"email"`
	AlternateEmail string `json:"alternate_email"`
	Password       string `json:"password"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID             string          `json:"id"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	FullName       string          `json:"full_name"`
	NationalID     string          `json:"national_id"`
	Extension      string          `json:"extension"`
	Department     string          `json:"department"`
	Role           domain.UserRole `json:"role"`
	RoleLabel      string          `json:"role_label"`
	Email          string          `json:"email"`
	AlternateEmail string          `json:"alternate_email,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// UpdateProfileRequest payload. Omitted fields are unchanged.
type UpdateProfileRequest struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	NationalID     *string `json:"national_id"`
	Extension      *string `json:"extension"`
	Department     *string `json:"department"`
	Email          *string `json:"email"`
	AlternateEmail *string `json:"alternate_email"`
}

// PasswordResetRequest starts a reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest completes a reset.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordChangeRequest changes the password of the signed-in account.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// PreferencesRequest and response body.
type PreferencesRequest struct {
	DarkMode *bool `json:"dark_mode"`
}

type PreferencesResponse struct {
	DarkMode bool `json:"dark_mode"`
}
