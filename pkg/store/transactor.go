package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
)

// Transactor runs fn as one unit of work. Repositories reached through the ctx
// passed to fn take part in it.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TxBeginner is satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgTransactor stores the active pgx.Tx in the context. Nested calls reuse the
// outer transaction.
type PgTransactor struct {
	db TxBeginner
}

func NewPgTransactor(db TxBeginner) *PgTransactor {
	return &PgTransactor{db: db}
}

func (t *PgTransactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type localTxKey struct{}

// LocalTransactor serialises units of work for the in-memory repositories.
// There is no rollback: a failing fn leaves whatever it already wrote.
type LocalTransactor struct {
	mu sync.Mutex
}

func NewLocalTransactor() *LocalTransactor {
	return &LocalTransactor{}
}

func (t *LocalTransactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(localTxKey{}) != nil {
		return fn(ctx)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(context.WithValue(ctx, localTxKey{}, true))
}

// NewTransactor picks the transactor matching the persistence type.
func NewTransactor(persistenceType string, db TxBeginner) (Transactor, error) {
	switch persistenceType {
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("postgres transactor requires a database pool")
		}
		return NewPgTransactor(db), nil
	case "inmem", "":
		return NewLocalTransactor(), nil
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s", persistenceType)
	}
}
