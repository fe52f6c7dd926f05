package singleusetoken

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	idmerrors "github.com/jarvisapp/jarvis-idm/pkg/errors"
)

const DefaultTokenExpiry = 24 * time.Hour

type Service struct {
	repo        Repository
	tokenExpiry time.Duration
	now         func() time.Time
}

type Option func(*Service)

// WithTokenExpiry sets how long issued tokens stay valid
func WithTokenExpiry(expiry time.Duration) Option {
	return func(s *Service) {
		if expiry > 0 {
			s.tokenExpiry = expiry
		}
	}
}

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		tokenExpiry: DefaultTokenExpiry,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create issues and persists a fresh random token.
func (s *Service) Create(ctx context.Context) (SingleUseToken, error) {
	now := s.now().UTC()
	token, err := s.repo.CreateToken(ctx, SingleUseToken{
		ID:        uuid.New(),
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(s.tokenExpiry),
		CreatedAt: now,
	})
	if err != nil {
		return SingleUseToken{}, fmt.Errorf("failed to issue single use token: %w", err)
	}
	return token, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (SingleUseToken, error) {
	token, err := s.repo.GetToken(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return SingleUseToken{}, idmerrors.ErrSingleUseTokenNotFound.WithDetail("id", id.String())
	}
	if err != nil {
		return SingleUseToken{}, err
	}
	return token, nil
}

// IsSingleUseTokenValid reports whether the token is neither used nor expired.
func (s *Service) IsSingleUseTokenValid(t SingleUseToken) bool {
	return !t.Used && s.now().Before(t.ExpiresAt)
}

// Matches compares the supplied value with the stored one, ignoring
// surrounding whitespace and case. A nil stored token never matches.
func (s *Service) Matches(t *SingleUseToken, supplied string) bool {
	if t == nil {
		return false
	}
	stored := strings.ToLower(strings.TrimSpace(t.Token))
	given := strings.ToLower(strings.TrimSpace(supplied))
	if stored == "" || given == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

// Verify fails with ErrSingleUseTokenNotFound when the value does not match and
// ErrSingleUseTokenExpired when it matches a used or expired token.
func (s *Service) Verify(t *SingleUseToken, supplied string) error {
	if !s.Matches(t, supplied) {
		return idmerrors.ErrSingleUseTokenNotFound
	}
	if !s.IsSingleUseTokenValid(*t) {
		return idmerrors.ErrSingleUseTokenExpired
	}
	return nil
}

func (s *Service) IsSingleUseTokenVerified(t *SingleUseToken, supplied string) bool {
	return s.Verify(t, supplied) == nil
}

// MarkUsed flags the token as consumed without deleting it.
func (s *Service) MarkUsed(ctx context.Context, id uuid.UUID) error {
	err := s.repo.MarkTokenUsed(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return idmerrors.ErrSingleUseTokenNotFound.WithDetail("id", id.String())
	}
	return err
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.DeleteToken(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return idmerrors.ErrSingleUseTokenNotFound.WithDetail("id", id.String())
	}
	if err != nil {
		return err
	}
	slog.Debug("Single use token deleted", "id", id)
	return nil
}
