package device

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type deviceKey struct {
	userSecurityID uuid.UUID
	publicIP       string
}

type InMemRepository struct {
	devices     map[uuid.UUID]UserDevice
	byUserIP    map[deviceKey]uuid.UUID
	connections map[uuid.UUID]DeviceConnection
	mu          sync.Mutex
}

func NewInMemRepository() *InMemRepository {
	return &InMemRepository{
		devices:     make(map[uuid.UUID]UserDevice),
		byUserIP:    make(map[deviceKey]uuid.UUID),
		connections: make(map[uuid.UUID]DeviceConnection),
	}
}

func (r *InMemRepository) CreateDevice(ctx context.Context, device UserDevice) (UserDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := deviceKey{device.UserSecurityID, device.PublicIP}
	if _, exists := r.byUserIP[key]; exists {
		return UserDevice{}, ErrDeviceExists
	}

	if device.ID == uuid.Nil {
		device.ID = uuid.New()
	}
	if device.CreatedAt.IsZero() {
		device.CreatedAt = time.Now().UTC()
	}
	r.devices[device.ID] = device
	r.byUserIP[key] = device.ID
	slog.Debug("Device created", "id", device.ID, "authorized", device.Authorized)
	return copyDevice(device), nil
}

func (r *InMemRepository) GetDevice(ctx context.Context, id uuid.UUID) (UserDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.devices[id]
	if !ok {
		return UserDevice{}, ErrNotFound
	}
	return copyDevice(device), nil
}

func (r *InMemRepository) GetDeviceByUserAndPublicIP(ctx context.Context, userSecurityID uuid.UUID, publicIP string) (UserDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byUserIP[deviceKey{userSecurityID, publicIP}]
	if !ok {
		return UserDevice{}, ErrNotFound
	}
	return copyDevice(r.devices[id]), nil
}

func (r *InMemRepository) FindDevices(ctx context.Context) ([]UserDevice, error) {
	return r.filterDevices(func(UserDevice) bool { return true }), nil
}

func (r *InMemRepository) FindDevicesByUser(ctx context.Context, userSecurityID uuid.UUID) ([]UserDevice, error) {
	return r.filterDevices(func(d UserDevice) bool { return d.UserSecurityID == userSecurityID }), nil
}

func (r *InMemRepository) filterDevices(keep func(UserDevice) bool) []UserDevice {
	r.mu.Lock()
	defer r.mu.Unlock()

	devices := []UserDevice{}
	for _, d := range r.devices {
		if keep(d) {
			devices = append(devices, copyDevice(d))
		}
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].CreatedAt.Before(devices[j].CreatedAt)
	})
	return devices
}

func (r *InMemRepository) UpdateDevice(ctx context.Context, device UserDevice) (UserDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.devices[device.ID]
	if !ok {
		return UserDevice{}, ErrNotFound
	}
	// the (user, ip) identity of a device never changes
	existing.Type = device.Type
	existing.Authorized = device.Authorized
	existing.VerificationTokenID = device.VerificationTokenID
	r.devices[device.ID] = existing
	return copyDevice(existing), nil
}

func (r *InMemRepository) DeleteDevice(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.devices[id]
	if !ok {
		return ErrNotFound
	}
	for connID, conn := range r.connections {
		if conn.UserDeviceID == id {
			delete(r.connections, connID)
		}
	}
	delete(r.byUserIP, deviceKey{device.UserSecurityID, device.PublicIP})
	delete(r.devices, id)
	return nil
}

func (r *InMemRepository) CreateConnection(ctx context.Context, conn DeviceConnection) (DeviceConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[conn.UserDeviceID]; !ok {
		return DeviceConnection{}, ErrNotFound
	}
	if conn.ID == uuid.Nil {
		conn.ID = uuid.New()
	}
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = time.Now().UTC()
	}
	r.connections[conn.ID] = conn
	return conn, nil
}

func (r *InMemRepository) GetConnection(ctx context.Context, id uuid.UUID) (DeviceConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[id]
	if !ok {
		return DeviceConnection{}, ErrConnectionNotFound
	}
	return conn, nil
}

func (r *InMemRepository) UpdateConnection(ctx context.Context, conn DeviceConnection) (DeviceConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.connections[conn.ID]
	if !ok {
		return DeviceConnection{}, ErrConnectionNotFound
	}
	existing.Success = conn.Success
	r.connections[conn.ID] = existing
	return existing, nil
}

func (r *InMemRepository) FindConnectionsByDevice(ctx context.Context, deviceID uuid.UUID) ([]DeviceConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns := []DeviceConnection{}
	for _, c := range r.connections {
		if c.UserDeviceID == deviceID {
			conns = append(conns, c)
		}
	}
	sort.Slice(conns, func(i, j int) bool {
		return conns[i].CreatedAt.Before(conns[j].CreatedAt)
	})
	return conns, nil
}

func copyDevice(d UserDevice) UserDevice {
	if d.VerificationTokenID != nil {
		id := *d.VerificationTokenID
		d.VerificationTokenID = &id
	}
	return d
}
