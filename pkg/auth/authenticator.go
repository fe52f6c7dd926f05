package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jarvisapp/jarvis-idm/pkg/account"
	"github.com/jarvisapp/jarvis-idm/pkg/device"
	idmerrors "github.com/jarvisapp/jarvis-idm/pkg/errors"
	"github.com/jarvisapp/jarvis-idm/pkg/user"
)

var (
	ErrInvalidCredentials = idmerrors.New(idmerrors.ErrCodeInvalidCredentials, "invalid username or password")
	ErrUserDisabled       = idmerrors.New(idmerrors.ErrCodeUserDisabled, "account not activated")
)

type Accounts interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetUserAuthentication(email, rawPassword string) account.Authentication
	LoadUserByUsername(ctx context.Context, email string) (account.UserDetails, error)
}

type Devices interface {
	RegisterConnexion(ctx context.Context, email, publicIP, deviceType, browser string) (device.DeviceConnection, error)
	CheckUserDevice(ctx context.Context, u user.User, publicIP string) (device.UserDevice, error)
	SetDeviceConnectionSuccessful(ctx context.Context, conn device.DeviceConnection) (device.DeviceConnection, error)
}

type PasswordMatcher interface {
	MatchesSalted(salted, encoded string) (bool, error)
}

type LoginRequest struct {
	Email      string
	Password   string
	PublicIP   string
	DeviceType string
	Browser    string
}

type LoginResult struct {
	User        user.User
	Device      device.UserDevice
	Connection  device.DeviceConnection
	AccessToken IdmToken
}

type Authenticator struct {
	accounts Accounts
	devices  Devices
	codec    PasswordMatcher
	jwt      *Jwt
}

func NewAuthenticator(accounts Accounts, devices Devices, codec PasswordMatcher, jwt *Jwt) *Authenticator {
	return &Authenticator{
		accounts: accounts,
		devices:  devices,
		codec:    codec,
		jwt:      jwt,
	}
}

// Login authenticates a password login coming from req.PublicIP. Every attempt
// for a known email is logged as a device connection; it is marked successful
// only once the credentials and the device have both been accepted.
func (a *Authenticator) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	req.Email = user.NormalizeEmail(req.Email)
	conn, err := a.devices.RegisterConnexion(ctx, req.Email, req.PublicIP, req.DeviceType, req.Browser)
	if errors.Is(err, idmerrors.ErrUserNotFound) {
		return LoginResult{}, idmerrors.ErrUsernameNotFound
	}
	if err != nil {
		return LoginResult{}, err
	}

	details, err := a.accounts.LoadUserByUsername(ctx, req.Email)
	if err != nil {
		return LoginResult{}, err
	}

	credentials := a.accounts.GetUserAuthentication(req.Email, req.Password)
	ok, err := a.codec.MatchesSalted(credentials.Credentials, details.Password)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to check password: %w", err)
	}
	if !ok {
		slog.Info("Login rejected: bad credentials", "email", req.Email, "public_ip", req.PublicIP)
		return LoginResult{}, ErrInvalidCredentials
	}
	if !details.Enabled {
		return LoginResult{}, ErrUserDisabled.WithDetail("email", req.Email)
	}

	u, err := a.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		return LoginResult{}, err
	}
	trusted, err := a.devices.CheckUserDevice(ctx, u, req.PublicIP)
	if err != nil {
		return LoginResult{}, err
	}

	conn, err = a.devices.SetDeviceConnectionSuccessful(ctx, conn)
	if err != nil {
		return LoginResult{}, err
	}

	token, err := a.jwt.CreateAccessToken(AuthUser{Email: u.Email, Role: string(u.Role())})
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to create access token: %w", err)
	}

	slog.Info("Login successful", "user_id", u.ID, "device_id", trusted.ID)
	return LoginResult{
		User:        u,
		Device:      trusted,
		Connection:  conn,
		AccessToken: token,
	}, nil
}
