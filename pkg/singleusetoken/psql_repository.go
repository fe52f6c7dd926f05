package singleusetoken

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jarvisapp/jarvis-idm/pkg/store"
)

type PostgresRepository struct {
	db store.DBTX
}

func NewPostgresRepository(db store.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateToken(ctx context.Context, token SingleUseToken) (SingleUseToken, error) {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	query := `
		INSERT INTO single_use_token (id, token, expires_at, used)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := store.Conn(ctx, r.db).QueryRow(ctx, query, token.ID, token.Token, token.ExpiresAt, token.Used).Scan(&token.CreatedAt)
	if err != nil {
		return SingleUseToken{}, fmt.Errorf("failed to create single use token: %w", err)
	}
	return token, nil
}

func (r *PostgresRepository) GetToken(ctx context.Context, id uuid.UUID) (SingleUseToken, error) {
	query := `
		SELECT id, token, expires_at, used, created_at
		FROM single_use_token
		WHERE id = $1
	`
	var t SingleUseToken
	err := store.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(&t.ID, &t.Token, &t.ExpiresAt, &t.Used, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SingleUseToken{}, ErrNotFound
		}
		return SingleUseToken{}, fmt.Errorf("failed to get single use token: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) MarkTokenUsed(ctx context.Context, id uuid.UUID) error {
	tag, err := store.Conn(ctx, r.db).Exec(ctx, `UPDATE single_use_token SET used = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark single use token used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteToken(ctx context.Context, id uuid.UUID) error {
	tag, err := store.Conn(ctx, r.db).Exec(ctx, `DELETE FROM single_use_token WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete single use token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
