// Package store holds the PostgreSQL plumbing shared by the repositories:
// the pgx pool, embedded goose migrations and the Transactor that carries a
// pgx.Tx through the context.
//
// Repositories resolve their connection per call so they join any
// transaction started upstream:
//
//	err := tx.InTransaction(ctx, func(ctx context.Context) error {
//		_, err := store.Conn(ctx, pool).Exec(ctx, "DELETE FROM users WHERE id = $1", id)
//		return err
//	})
package store
