package store

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgTransactor_CommitsAndCarriesTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM users`).WithArgs("u1").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	tx := NewPgTransactor(mock)
	err = tx.InTransaction(context.Background(), func(ctx context.Context) error {
		// nested calls join the outer transaction
		return tx.InTransaction(ctx, func(ctx context.Context) error {
			_, err := Conn(ctx, mock).Exec(ctx, "DELETE FROM users WHERE id = $1", "u1")
			return err
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgTransactor_RollsBackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = NewPgTransactor(mock).InTransaction(context.Background(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_WithoutTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	assert.Same(t, mock, Conn(context.Background(), mock))
}

func TestLocalTransactor_Nested(t *testing.T) {
	tx := NewLocalTransactor()
	calls := 0
	err := tx.InTransaction(context.Background(), func(ctx context.Context) error {
		calls++
		return tx.InTransaction(ctx, func(ctx context.Context) error {
			calls++
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestNewTransactor(t *testing.T) {
	tx, err := NewTransactor("inmem", nil)
	require.NoError(t, err)
	assert.IsType(t, &LocalTransactor{}, tx)

	_, err = NewTransactor("postgres", nil)
	assert.Error(t, err)

	_, err = NewTransactor("mongo", nil)
	assert.Error(t, err)
}
