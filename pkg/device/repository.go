package device

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StatePending    State = "pending"
	StateAuthorized State = "authorized"
)

// UserDevice is the trust record of one (user, public IP) pair.
type UserDevice struct {
	ID                  uuid.UUID  `json:"id"`
	UserSecurityID      uuid.UUID  `json:"user_security_id"`
	PublicIP            string     `json:"public_ip"`
	Type                string     `json:"type"`
	Authorized          bool       `json:"authorized"`
	VerificationTokenID *uuid.UUID `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
}

func (d UserDevice) State() State {
	if d.Authorized {
		return StateAuthorized
	}
	return StatePending
}

// DeviceConnection logs one login attempt from a device.
type DeviceConnection struct {
	ID           uuid.UUID `json:"id"`
	UserDeviceID uuid.UUID `json:"user_device_id"`
	Browser      string    `json:"browser"`
	Success      bool      `json:"success"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repository stores devices and their connection log. (UserSecurityID,
// PublicIP) is unique; CreateDevice fails with ErrDeviceExists on a duplicate.
type Repository interface {
	CreateDevice(ctx context.Context, device UserDevice) (UserDevice, error)
	GetDevice(ctx context.Context, id uuid.UUID) (UserDevice, error)
	GetDeviceByUserAndPublicIP(ctx context.Context, userSecurityID uuid.UUID, publicIP string) (UserDevice, error)
	FindDevices(ctx context.Context) ([]UserDevice, error)
	FindDevicesByUser(ctx context.Context, userSecurityID uuid.UUID) ([]UserDevice, error)
	UpdateDevice(ctx context.Context, device UserDevice) (UserDevice, error)
	// DeleteDevice removes the device and its connections.
	DeleteDevice(ctx context.Context, id uuid.UUID) error

	CreateConnection(ctx context.Context, conn DeviceConnection) (DeviceConnection, error)
	GetConnection(ctx context.Context, id uuid.UUID) (DeviceConnection, error)
	UpdateConnection(ctx context.Context, conn DeviceConnection) (DeviceConnection, error)
	FindConnectionsByDevice(ctx context.Context, deviceID uuid.UUID) ([]DeviceConnection, error)
}
