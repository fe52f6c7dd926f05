package singleusetoken

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

type InMemRepository struct {
	tokens map[uuid.UUID]SingleUseToken
	mu     sync.Mutex
}

func NewInMemRepository() *InMemRepository {
	return &InMemRepository{
		tokens: make(map[uuid.UUID]SingleUseToken),
	}
}

func (r *InMemRepository) CreateToken(ctx context.Context, token SingleUseToken) (SingleUseToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	r.tokens[token.ID] = token
	slog.Debug("Single use token created", "id", token.ID, "expires_at", token.ExpiresAt)
	return token, nil
}

func (r *InMemRepository) GetToken(ctx context.Context, id uuid.UUID) (SingleUseToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[id]
	if !ok {
		return SingleUseToken{}, ErrNotFound
	}
	return token, nil
}

func (r *InMemRepository) MarkTokenUsed(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[id]
	if !ok {
		return ErrNotFound
	}
	token.Used = true
	r.tokens[id] = token
	return nil
}

func (r *InMemRepository) DeleteToken(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[id]; !ok {
		return ErrNotFound
	}
	delete(r.tokens, id)
	return nil
}
