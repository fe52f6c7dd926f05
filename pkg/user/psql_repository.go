package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jarvisapp/jarvis-idm/pkg/store"
)

// PostgresRepository joins any transaction carried by the context. CreateUser
// writes three tables and should run inside store.Transactor.InTransaction.
type PostgresRepository struct {
	db store.DBTX
}

func NewPostgresRepository(db store.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectUser = `
	SELECT u.id, u.first_name, u.last_name, u.email, u.created_at, u.updated_at,
	       s.id, s.password, s.admin, s.account_enabled, s.account_validation_token_id
	FROM users u
	JOIN user_security s ON s.user_id = u.id
`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.CreatedAt, &u.UpdatedAt,
		&u.Security.ID, &u.Security.Password, &u.Security.Admin, &u.Security.AccountEnabled,
		&u.Security.AccountValidationTokenID,
	)
	if err != nil {
		return User{}, err
	}
	u.Security.UserID = u.ID
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (r *PostgresRepository) CreateUser(ctx context.Context, user User) (User, error) {
	db := store.Conn(ctx, r.db)

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Security.ID == uuid.Nil {
		user.Security.ID = uuid.New()
	}
	user.Security.UserID = user.ID

	err := db.QueryRow(ctx, `
		INSERT INTO users (id, first_name, last_name, email)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, user.ID, user.FirstName, user.LastName, user.Email).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	s := user.Security
	_, err = db.Exec(ctx, `
		INSERT INTO user_security (id, user_id, password, admin, account_enabled, account_validation_token_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.UserID, s.Password, s.Admin, s.AccountEnabled, s.AccountValidationTokenID)
	if err != nil {
		return User{}, fmt.Errorf("failed to insert user security: %w", err)
	}

	for i := range user.TaskCollections {
		c := &user.TaskCollections[i]
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		c.UserID = user.ID
		_, err = db.Exec(ctx, `
			INSERT INTO task_collection (id, user_id, name, shared)
			VALUES ($1, $2, $3, $4)
		`, c.ID, c.UserID, c.Name, c.Shared)
		if err != nil {
			return User{}, fmt.Errorf("failed to insert task collection: %w", err)
		}
	}

	return user, nil
}

func (r *PostgresRepository) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	return r.getOne(ctx, selectUser+` WHERE u.id = $1`, id)
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx, selectUser+` WHERE LOWER(u.email) = LOWER($1)`, email)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg interface{}) (User, error) {
	db := store.Conn(ctx, r.db)

	u, err := scanUser(db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("failed to get user: %w", err)
	}

	collections, err := r.findCollections(ctx, []uuid.UUID{u.ID})
	if err != nil {
		return User{}, err
	}
	u.TaskCollections = collections[u.ID]
	return u, nil
}

func (r *PostgresRepository) FindUsers(ctx context.Context) ([]User, error) {
	rows, err := store.Conn(ctx, r.db).Query(ctx, selectUser+` ORDER BY u.created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer rows.Close()

	var users []User
	var ids []uuid.UUID
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
		ids = append(ids, u.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	if len(users) == 0 {
		return users, nil
	}

	collections, err := r.findCollections(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].TaskCollections = collections[users[i].ID]
	}
	return users, nil
}

func (r *PostgresRepository) findCollections(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]TaskCollection, error) {
	rows, err := store.Conn(ctx, r.db).Query(ctx, `
		SELECT id, user_id, name, shared
		FROM task_collection
		WHERE user_id = ANY($1)
		ORDER BY name
	`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to find task collections: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]TaskCollection)
	for rows.Next() {
		var c TaskCollection
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Shared); err != nil {
			return nil, fmt.Errorf("failed to scan task collection: %w", err)
		}
		result[c.UserID] = append(result[c.UserID], c)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) UpdateUser(ctx context.Context, user User) (User, error) {
	var updatedAt time.Time
	err := store.Conn(ctx, r.db).QueryRow(ctx, `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, user.ID, user.FirstName, user.LastName, user.Email).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		if isUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return r.GetUser(ctx, user.ID)
}

func (r *PostgresRepository) UpdateUserSecurity(ctx context.Context, security UserSecurity) (UserSecurity, error) {
	tag, err := store.Conn(ctx, r.db).Exec(ctx, `
		UPDATE user_security
		SET password = $2, admin = $3, account_enabled = $4, account_validation_token_id = $5
		WHERE id = $1
	`, security.ID, security.Password, security.Admin, security.AccountEnabled, security.AccountValidationTokenID)
	if err != nil {
		return UserSecurity{}, fmt.Errorf("failed to update user security: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return UserSecurity{}, ErrNotFound
	}
	return security, nil
}

func (r *PostgresRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := store.Conn(ctx, r.db).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
