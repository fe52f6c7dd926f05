package device

import "errors"

var (
	ErrNotFound           = errors.New("device not found")
	ErrConnectionNotFound = errors.New("device connection not found")
	ErrDeviceExists       = errors.New("device already exists for this user and public ip")
)
