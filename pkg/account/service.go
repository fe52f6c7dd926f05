package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jarvisapp/jarvis-idm/pkg/device"
	idmerrors "github.com/jarvisapp/jarvis-idm/pkg/errors"
	"github.com/jarvisapp/jarvis-idm/pkg/password"
	"github.com/jarvisapp/jarvis-idm/pkg/singleusetoken"
	"github.com/jarvisapp/jarvis-idm/pkg/store"
	"github.com/jarvisapp/jarvis-idm/pkg/user"
)

type TokenService interface {
	Create(ctx context.Context) (singleusetoken.SingleUseToken, error)
	Get(ctx context.Context, id uuid.UUID) (singleusetoken.SingleUseToken, error)
	IsSingleUseTokenValid(t singleusetoken.SingleUseToken) bool
	Matches(t *singleusetoken.SingleUseToken, supplied string) bool
	Verify(t *singleusetoken.SingleUseToken, supplied string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Mailer interface {
	SendAccountActivationMail(ctx context.Context, firstName, email, token string) error
}

// PasswordCodec is implemented by *password.Codec.
type PasswordCodec interface {
	Salt(raw string) string
	Encode(raw string) (string, error)
}

type DeviceTrust interface {
	CreateFirstUserDevice(ctx context.Context, security user.UserSecurity, publicIP, deviceType string) (device.UserDevice, error)
	DeleteUserDevices(ctx context.Context, userSecurityID uuid.UUID) error
}

// Authentication pairs a principal with its salted, not yet hashed, password
// for the credential check.
type Authentication struct {
	Principal   string
	Credentials string
}

// UserDetails is what the credential check needs to know about a principal.
type UserDetails struct {
	Username    string
	Password    string
	Authorities []user.Role
	Enabled     bool
}

// Service manages the account lifecycle: creation, activation, credential
// rotation and the data the login step derives claims from.
type Service struct {
	users   user.Repository
	tokens  TokenService
	mailer  Mailer
	codec   PasswordCodec
	devices DeviceTrust
	tx      store.Transactor
}

func NewService(users user.Repository, tokens TokenService, mailer Mailer, codec PasswordCodec, devices DeviceTrust, tx store.Transactor) *Service {
	return &Service{
		users:   users,
		tokens:  tokens,
		mailer:  mailer,
		codec:   codec,
		devices: devices,
		tx:      tx,
	}
}

func errEmailAlreadyUsed(email string) error {
	return idmerrors.New(idmerrors.ErrCodeEmailAlreadyUsed, "email already used").WithDetail("email", email)
}

func (s *Service) lookup(err error, key, value string) error {
	if errors.Is(err, user.ErrNotFound) {
		return idmerrors.ErrUserNotFound.WithDetail(key, value)
	}
	return fmt.Errorf("failed to load user: %w", err)
}

// encodePassword salts and hashes raw. Input the hasher refuses is reported as
// INVALID_INPUT.
func (s *Service) encodePassword(raw string) (string, error) {
	if raw == "" {
		return "", idmerrors.InvalidInput("password", "is required")
	}
	encoded, err := s.codec.Encode(raw)
	switch {
	case errors.Is(err, password.ErrPasswordTooLong):
		return "", idmerrors.InvalidInput("password", "too long")
	case err != nil:
		return "", fmt.Errorf("failed to encode password: %w", err)
	}
	return encoded, nil
}

// Create persists a disabled account with a throwaway password and the
// default task collection. It sends no mail.
func (s *Service) Create(ctx context.Context, firstName, lastName, email string) (user.User, error) {
	email = user.NormalizeEmail(email)
	encoded, err := s.encodePassword(password.RandomPassword())
	if err != nil {
		return user.User{}, err
	}

	var created user.User
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.users.CreateUser(ctx, user.User{
			FirstName: firstName,
			LastName:  lastName,
			Email:     email,
			Security: user.UserSecurity{
				Password:       encoded,
				Admin:          false,
				AccountEnabled: false,
			},
			TaskCollections: []user.TaskCollection{user.NewDefaultTaskCollection(uuid.Nil)},
		})
		return err
	})
	if errors.Is(err, user.ErrEmailTaken) {
		return user.User{}, errEmailAlreadyUsed(email)
	}
	if err != nil {
		return user.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("User created", "user_id", created.ID)
	return created, nil
}

// Register creates the account and mails its first activation token.
func (s *Service) Register(ctx context.Context, firstName, lastName, email string) (user.User, error) {
	email = user.NormalizeEmail(email)
	available, err := s.IsEmailAvailable(ctx, email)
	if err != nil {
		return user.User{}, err
	}
	if !available {
		return user.User{}, errEmailAlreadyUsed(email)
	}

	created, err := s.Create(ctx, firstName, lastName, email)
	if err != nil {
		return user.User{}, err
	}
	if err := s.SetNewActivationToken(ctx, email); err != nil {
		return user.User{}, err
	}
	return s.Get(ctx, created.ID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (user.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return user.User{}, s.lookup(err, "id", id.String())
	}
	return u, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (user.User, error) {
	email = user.NormalizeEmail(email)
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return user.User{}, s.lookup(err, "email", email)
	}
	return u, nil
}

// CurrentUser resolves the authenticated principal (its email) to its account.
func (s *Service) CurrentUser(ctx context.Context, principal string) (user.User, error) {
	return s.GetByEmail(ctx, principal)
}

func (s *Service) FindAll(ctx context.Context) ([]user.User, error) {
	users, err := s.users.FindUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *Service) IsEmailAvailable(ctx context.Context, email string) (bool, error) {
	_, err := s.users.GetUserByEmail(ctx, user.NormalizeEmail(email))
	if errors.Is(err, user.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return false, nil
}

// Update overwrites first name, last name and email.
func (s *Service) Update(ctx context.Context, id uuid.UUID, firstName, lastName, email string) (user.User, error) {
	email = user.NormalizeEmail(email)
	updated, err := s.users.UpdateUser(ctx, user.User{
		ID:        id,
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
	})
	if errors.Is(err, user.ErrEmailTaken) {
		return user.User{}, errEmailAlreadyUsed(email)
	}
	if err != nil {
		return user.User{}, s.lookup(err, "id", id.String())
	}
	return updated, nil
}

// Delete removes the account with its devices, connections and tokens.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.InTransaction(ctx, func(ctx context.Context) error {
		u, err := s.Get(ctx, id)
		if err != nil {
			return err
		}

		if err := s.devices.DeleteUserDevices(ctx, u.Security.ID); err != nil {
			return err
		}
		if tokenID := u.Security.AccountValidationTokenID; tokenID != nil {
			if err := s.tokens.Delete(ctx, *tokenID); err != nil && !errors.Is(err, idmerrors.ErrSingleUseTokenNotFound) {
				return err
			}
		}
		if err := s.users.DeleteUser(ctx, id); err != nil {
			return s.lookup(err, "id", id.String())
		}

		slog.Info("User deleted", "user_id", id)
		return nil
	})
}

// SetNewActivationToken replaces the account validation token and mails the
// new one. Failing to delete the previous token is logged and ignored.
func (s *Service) SetNewActivationToken(ctx context.Context, email string) error {
	var u user.User
	var token singleusetoken.SingleUseToken
	var previous *uuid.UUID

	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		var err error
		if u, err = s.GetByEmail(ctx, email); err != nil {
			return err
		}
		if token, err = s.tokens.Create(ctx); err != nil {
			return err
		}

		previous = u.Security.AccountValidationTokenID
		u.Security.AccountValidationTokenID = &token.ID
		if _, err := s.users.UpdateUserSecurity(ctx, u.Security); err != nil {
			return fmt.Errorf("failed to store activation token: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if previous != nil {
		if err := s.tokens.Delete(ctx, *previous); err != nil {
			slog.Warn("Failed to delete previous activation token", "user_id", u.ID, "token_id", *previous, "error", err)
		}
	}

	return s.mailer.SendAccountActivationMail(ctx, u.FirstName, u.Email, token.Token)
}

// activationToken loads the stored validation token of u and checks that the
// supplied value matches it.
func (s *Service) activationToken(ctx context.Context, u user.User, supplied string) (singleusetoken.SingleUseToken, error) {
	if u.Security.AccountValidationTokenID == nil {
		return singleusetoken.SingleUseToken{}, idmerrors.ErrSingleUseTokenNotFound.WithDetail("email", u.Email)
	}
	stored, err := s.tokens.Get(ctx, *u.Security.AccountValidationTokenID)
	if err != nil {
		return singleusetoken.SingleUseToken{}, err
	}
	if !s.tokens.Matches(&stored, supplied) {
		return singleusetoken.SingleUseToken{}, idmerrors.ErrSingleUseTokenNotFound.WithDetail("email", u.Email)
	}
	return stored, nil
}

// CheckAccountActivationTokenValidity reports whether the supplied token,
// which must match the stored one, is still usable.
func (s *Service) CheckAccountActivationTokenValidity(ctx context.Context, email, token string) (bool, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	stored, err := s.activationToken(ctx, u, token)
	if err != nil {
		return false, err
	}
	return s.tokens.IsSingleUseTokenValid(stored), nil
}

// ActivateAccount consumes the validation token, enables the account with the
// chosen password and trusts the device the activation comes from.
func (s *Service) ActivateAccount(ctx context.Context, email, token, newPassword, publicIP, deviceType string) (user.User, error) {
	encoded, err := s.encodePassword(newPassword)
	if err != nil {
		return user.User{}, err
	}

	var activated user.User
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		u, err := s.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		stored, err := s.activationToken(ctx, u, token)
		if err != nil {
			return err
		}
		if err := s.tokens.Verify(&stored, token); err != nil {
			return err
		}

		u.Security.AccountEnabled = true
		u.Security.Password = encoded
		u.Security.AccountValidationTokenID = nil
		if _, err := s.users.UpdateUserSecurity(ctx, u.Security); err != nil {
			return fmt.Errorf("failed to enable account: %w", err)
		}
		if err := s.tokens.Delete(ctx, stored.ID); err != nil {
			return err
		}
		if _, err := s.devices.CreateFirstUserDevice(ctx, u.Security, publicIP, deviceType); err != nil {
			return err
		}

		activated, err = s.Get(ctx, u.ID)
		return err
	})
	if err != nil {
		return user.User{}, err
	}

	slog.Info("Account activated", "user_id", activated.ID)
	return activated, nil
}

// ChangePassword encodes and stores a new password. A missing user fails with
// ErrUserNotFound.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	encoded, err := s.encodePassword(newPassword)
	if err != nil {
		return err
	}

	return s.tx.InTransaction(ctx, func(ctx context.Context) error {
		u, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		u.Security.Password = encoded
		if _, err := s.users.UpdateUserSecurity(ctx, u.Security); err != nil {
			return fmt.Errorf("failed to change password: %w", err)
		}
		return nil
	})
}

// GetUserAuthentication builds the claim handed to the credential check. The
// password is salted but not hashed.
func (s *Service) GetUserAuthentication(email, rawPassword string) Authentication {
	return Authentication{
		Principal:   user.NormalizeEmail(email),
		Credentials: s.codec.Salt(rawPassword),
	}
}

// LoadUserByUsername returns the stored credential and the single authority of
// the principal. A missing user fails with ErrUsernameNotFound.
func (s *Service) LoadUserByUsername(ctx context.Context, email string) (UserDetails, error) {
	u, err := s.users.GetUserByEmail(ctx, user.NormalizeEmail(email))
	if errors.Is(err, user.ErrNotFound) {
		return UserDetails{}, idmerrors.ErrUsernameNotFound
	}
	if err != nil {
		return UserDetails{}, fmt.Errorf("failed to load user: %w", err)
	}

	return UserDetails{
		Username:    u.Email,
		Password:    u.Security.Password,
		Authorities: []user.Role{u.Role()},
		Enabled:     u.Security.AccountEnabled,
	}, nil
}
