package devicetrust

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jarvisapp/jarvis-idm/pkg/device"
	idmerrors "github.com/jarvisapp/jarvis-idm/pkg/errors"
	"github.com/jarvisapp/jarvis-idm/pkg/singleusetoken"
	"github.com/jarvisapp/jarvis-idm/pkg/store"
	"github.com/jarvisapp/jarvis-idm/pkg/user"
)

// TokenService is the part of singleusetoken.Service used here.
type TokenService interface {
	Create(ctx context.Context) (singleusetoken.SingleUseToken, error)
	Get(ctx context.Context, id uuid.UUID) (singleusetoken.SingleUseToken, error)
	IsSingleUseTokenValid(t singleusetoken.SingleUseToken) bool
	Verify(t *singleusetoken.SingleUseToken, supplied string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Mailer interface {
	SendTrustDeviceVerificationMail(ctx context.Context, firstName, email, token string) error
}

type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
}

// Service drives the device state machine: a (user, public IP) pair is
// unregistered, then pending with a verification token, then authorized.
type Service struct {
	devices device.Repository
	users   UserLookup
	tokens  TokenService
	mailer  Mailer
	tx      store.Transactor
}

func NewService(devices device.Repository, users UserLookup, tokens TokenService, mailer Mailer, tx store.Transactor) *Service {
	return &Service{
		devices: devices,
		users:   users,
		tokens:  tokens,
		mailer:  mailer,
		tx:      tx,
	}
}

// CreateUserDevice registers a pending device with a fresh verification token.
func (s *Service) CreateUserDevice(ctx context.Context, security user.UserSecurity, publicIP, deviceType string) (device.UserDevice, error) {
	var created device.UserDevice
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		token, err := s.tokens.Create(ctx)
		if err != nil {
			return err
		}

		created, err = s.devices.CreateDevice(ctx, device.UserDevice{
			UserSecurityID:      security.ID,
			PublicIP:            publicIP,
			Type:                deviceType,
			Authorized:          false,
			VerificationTokenID: &token.ID,
		})
		if err != nil {
			return fmt.Errorf("failed to create pending device: %w", err)
		}
		return nil
	})
	if err != nil {
		return device.UserDevice{}, err
	}

	slog.Info("Pending device registered", "device_id", created.ID, "user_security_id", security.ID, "public_ip", publicIP)
	return created, nil
}

// CreateFirstUserDevice registers the device an account was activated from as
// authorized. A pending record for the same IP is promoted instead.
func (s *Service) CreateFirstUserDevice(ctx context.Context, security user.UserSecurity, publicIP, deviceType string) (device.UserDevice, error) {
	var result device.UserDevice
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.devices.GetDeviceByUserAndPublicIP(ctx, security.ID, publicIP)
		switch {
		case errors.Is(err, device.ErrNotFound):
			result, err = s.devices.CreateDevice(ctx, device.UserDevice{
				UserSecurityID: security.ID,
				PublicIP:       publicIP,
				Type:           deviceType,
				Authorized:     true,
			})
			if err != nil {
				return fmt.Errorf("failed to create first device: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("failed to look up device: %w", err)
		}

		if deviceType != "" {
			existing.Type = deviceType
		}
		result, err = s.authorize(ctx, existing)
		return err
	})
	if err != nil {
		return device.UserDevice{}, err
	}

	slog.Info("First device authorized", "device_id", result.ID, "user_security_id", security.ID)
	return result, nil
}

// authorize flips the device to authorized and consumes its verification token.
func (s *Service) authorize(ctx context.Context, d device.UserDevice) (device.UserDevice, error) {
	tokenID := d.VerificationTokenID
	d.Authorized = true
	d.VerificationTokenID = nil

	updated, err := s.devices.UpdateDevice(ctx, d)
	if err != nil {
		return device.UserDevice{}, fmt.Errorf("failed to authorize device: %w", err)
	}

	if tokenID != nil {
		if err := s.tokens.Delete(ctx, *tokenID); err != nil && !errors.Is(err, idmerrors.ErrSingleUseTokenNotFound) {
			return device.UserDevice{}, err
		}
	}
	return updated, nil
}

// CheckUserDevice returns the device u connects from when it is authorized.
// A pending device triggers a verification mail on every call and the check
// fails with ErrUserDeviceNotAuthorized.
func (s *Service) CheckUserDevice(ctx context.Context, u user.User, publicIP string) (device.UserDevice, error) {
	d, err := s.devices.GetDeviceByUserAndPublicIP(ctx, u.Security.ID, publicIP)
	if errors.Is(err, device.ErrNotFound) {
		return device.UserDevice{}, idmerrors.ErrUserDeviceNotFound.WithDetail("public_ip", publicIP)
	}
	if err != nil {
		return device.UserDevice{}, fmt.Errorf("failed to look up device: %w", err)
	}

	if d.Authorized {
		return d, nil
	}

	token, err := s.verificationToken(ctx, d)
	if err != nil {
		return device.UserDevice{}, err
	}

	if err := s.mailer.SendTrustDeviceVerificationMail(ctx, u.FirstName, u.Email, token.Token); err != nil {
		return device.UserDevice{}, err
	}

	slog.Info("Unauthorized device, verification mail sent", "device_id", d.ID, "public_ip", publicIP)
	return device.UserDevice{}, idmerrors.ErrUserDeviceNotAuthorized.WithDetail("device_id", d.ID.String())
}

// verificationToken returns the live token of a pending device, replacing it
// when the row is gone or no longer valid.
func (s *Service) verificationToken(ctx context.Context, d device.UserDevice) (singleusetoken.SingleUseToken, error) {
	if d.VerificationTokenID != nil {
		token, err := s.tokens.Get(ctx, *d.VerificationTokenID)
		if err == nil && s.tokens.IsSingleUseTokenValid(token) {
			return token, nil
		}
		if err != nil && !errors.Is(err, idmerrors.ErrSingleUseTokenNotFound) {
			return singleusetoken.SingleUseToken{}, err
		}
	}

	var fresh singleusetoken.SingleUseToken
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		var err error
		if fresh, err = s.tokens.Create(ctx); err != nil {
			return err
		}

		previous := d.VerificationTokenID
		d.VerificationTokenID = &fresh.ID
		if _, err := s.devices.UpdateDevice(ctx, d); err != nil {
			return fmt.Errorf("failed to store device verification token: %w", err)
		}
		if previous != nil {
			if err := s.tokens.Delete(ctx, *previous); err != nil && !errors.Is(err, idmerrors.ErrSingleUseTokenNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return singleusetoken.SingleUseToken{}, err
	}

	slog.Debug("Device verification token renewed", "device_id", d.ID)
	return fresh, nil
}

// RegisterConnexion logs a login attempt from publicIP, registering a pending
// device the first time the pair (email, publicIP) is seen.
func (s *Service) RegisterConnexion(ctx context.Context, email, publicIP, deviceType, browser string) (device.DeviceConnection, error) {
	email = user.NormalizeEmail(email)
	var conn device.DeviceConnection
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		u, err := s.users.GetUserByEmail(ctx, email)
		if errors.Is(err, user.ErrNotFound) {
			return idmerrors.ErrUserNotFound.WithDetail("email", email)
		}
		if err != nil {
			return fmt.Errorf("failed to look up user: %w", err)
		}

		d, err := s.devices.GetDeviceByUserAndPublicIP(ctx, u.Security.ID, publicIP)
		if errors.Is(err, device.ErrNotFound) {
			d, err = s.CreateUserDevice(ctx, u.Security, publicIP, deviceType)
		}
		if err != nil {
			return err
		}

		conn, err = s.devices.CreateConnection(ctx, device.DeviceConnection{
			UserDeviceID: d.ID,
			Browser:      browser,
			Success:      false,
		})
		if err != nil {
			return fmt.Errorf("failed to log device connection: %w", err)
		}
		return nil
	})
	if err != nil {
		return device.DeviceConnection{}, err
	}
	return conn, nil
}

// SetDeviceConnectionSuccessful marks a logged connection as successful.
func (s *Service) SetDeviceConnectionSuccessful(ctx context.Context, conn device.DeviceConnection) (device.DeviceConnection, error) {
	conn.Success = true
	updated, err := s.devices.UpdateConnection(ctx, conn)
	if errors.Is(err, device.ErrConnectionNotFound) {
		return device.DeviceConnection{}, idmerrors.Newf(idmerrors.ErrCodeNotFound, "device connection %s not found", conn.ID)
	}
	if err != nil {
		return device.DeviceConnection{}, fmt.Errorf("failed to update device connection: %w", err)
	}
	return updated, nil
}

// ConfirmUserDevice consumes the verification token of a pending device and
// authorizes it. An already authorized device is returned unchanged.
func (s *Service) ConfirmUserDevice(ctx context.Context, email, publicIP, token string) (device.UserDevice, error) {
	email = user.NormalizeEmail(email)
	var confirmed device.UserDevice
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		u, err := s.users.GetUserByEmail(ctx, email)
		if errors.Is(err, user.ErrNotFound) {
			return idmerrors.ErrUserNotFound.WithDetail("email", email)
		}
		if err != nil {
			return fmt.Errorf("failed to look up user: %w", err)
		}

		d, err := s.devices.GetDeviceByUserAndPublicIP(ctx, u.Security.ID, publicIP)
		if errors.Is(err, device.ErrNotFound) {
			return idmerrors.ErrUserDeviceNotFound.WithDetail("public_ip", publicIP)
		}
		if err != nil {
			return fmt.Errorf("failed to look up device: %w", err)
		}

		if d.Authorized {
			confirmed = d
			return nil
		}
		if d.VerificationTokenID == nil {
			return idmerrors.ErrSingleUseTokenNotFound
		}

		stored, err := s.tokens.Get(ctx, *d.VerificationTokenID)
		if err != nil {
			return err
		}
		if err := s.tokens.Verify(&stored, token); err != nil {
			return err
		}

		confirmed, err = s.authorize(ctx, d)
		return err
	})
	if err != nil {
		return device.UserDevice{}, err
	}

	slog.Info("Device confirmed", "device_id", confirmed.ID)
	return confirmed, nil
}

func (s *Service) GetUserDevice(ctx context.Context, id uuid.UUID) (device.UserDevice, error) {
	d, err := s.devices.GetDevice(ctx, id)
	if errors.Is(err, device.ErrNotFound) {
		return device.UserDevice{}, idmerrors.ErrUserDeviceNotFound.WithDetail("id", id.String())
	}
	if err != nil {
		return device.UserDevice{}, fmt.Errorf("failed to get device: %w", err)
	}
	return d, nil
}

func (s *Service) FindUserDevices(ctx context.Context) ([]device.UserDevice, error) {
	return s.devices.FindDevices(ctx)
}

func (s *Service) FindDevicesByUser(ctx context.Context, userSecurityID uuid.UUID) ([]device.UserDevice, error) {
	return s.devices.FindDevicesByUser(ctx, userSecurityID)
}

func (s *Service) FindConnections(ctx context.Context, deviceID uuid.UUID) ([]device.DeviceConnection, error) {
	if _, err := s.GetUserDevice(ctx, deviceID); err != nil {
		return nil, err
	}
	return s.devices.FindConnectionsByDevice(ctx, deviceID)
}

// DeleteUserDevices removes every device of a user with its connections and
// verification token. Callers run it inside their own transaction.
func (s *Service) DeleteUserDevices(ctx context.Context, userSecurityID uuid.UUID) error {
	devices, err := s.devices.FindDevicesByUser(ctx, userSecurityID)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	for _, d := range devices {
		if err := s.devices.DeleteDevice(ctx, d.ID); err != nil && !errors.Is(err, device.ErrNotFound) {
			return fmt.Errorf("failed to delete device %s: %w", d.ID, err)
		}
		if d.VerificationTokenID != nil {
			if err := s.tokens.Delete(ctx, *d.VerificationTokenID); err != nil && !errors.Is(err, idmerrors.ErrSingleUseTokenNotFound) {
				return err
			}
		}
	}
	return nil
}
