package api

import (
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type UpdateUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type CheckTokenRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type ActivateRequest struct {
	Email      string `json:"email"`
	Token      string `json:"token"`
	Password   string `json:"password"`
	DeviceType string `json:"device_type"`
}

type ChangePasswordRequest struct {
	Password string `json:"password"`
}

type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceType string `json:"device_type"`
}

type UserResponse struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	AccountEnabled bool      `json:"account_enabled"`
	CreatedAt      time.Time `json:"created_at"`
}

type EmailAvailableResponse struct {
	Email     string `json:"email"`
	Available bool   `json:"available"`
}

type TokenValidityResponse struct {
	Valid bool `json:"valid"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
