package singleusetoken

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SingleUseToken is an opaque value with an expiry. The owning record (user
// security or user device) holds its ID.
type SingleUseToken struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	CreateToken(ctx context.Context, token SingleUseToken) (SingleUseToken, error)
	GetToken(ctx context.Context, id uuid.UUID) (SingleUseToken, error)
	MarkTokenUsed(ctx context.Context, id uuid.UUID) error
	DeleteToken(ctx context.Context, id uuid.UUID) error
}
