package api

import (
	"time"

	"github.com/google/uuid"
)

type ConfirmDeviceRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type DeviceResponse struct {
	ID         uuid.UUID `json:"id"`
	PublicIP   string    `json:"public_ip"`
	Type       string    `json:"type"`
	Authorized bool      `json:"authorized"`
	State      string    `json:"state"`
	CreatedAt  time.Time `json:"created_at"`
}

type ConnectionResponse struct {
	ID        uuid.UUID `json:"id"`
	Browser   string    `json:"browser"`
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"created_at"`
}
