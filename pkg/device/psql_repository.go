package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jarvisapp/jarvis-idm/pkg/store"
)

type PostgresRepository struct {
	db store.DBTX
}

func NewPostgresRepository(db store.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const deviceColumns = `id, user_security_id, public_ip, type, authorized, verification_token_id, created_at`

func scanDevice(row pgx.Row) (UserDevice, error) {
	var d UserDevice
	err := row.Scan(&d.ID, &d.UserSecurityID, &d.PublicIP, &d.Type, &d.Authorized, &d.VerificationTokenID, &d.CreatedAt)
	return d, err
}

func (r *PostgresRepository) CreateDevice(ctx context.Context, device UserDevice) (UserDevice, error) {
	if device.ID == uuid.Nil {
		device.ID = uuid.New()
	}

	row := store.Conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO user_device (id, user_security_id, public_ip, type, authorized, verification_token_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+deviceColumns,
		device.ID, device.UserSecurityID, device.PublicIP, device.Type, device.Authorized, device.VerificationTokenID)

	created, err := scanDevice(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return UserDevice{}, ErrDeviceExists
		}
		return UserDevice{}, fmt.Errorf("failed to create device: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) GetDevice(ctx context.Context, id uuid.UUID) (UserDevice, error) {
	row := store.Conn(ctx, r.db).QueryRow(ctx, `SELECT `+deviceColumns+` FROM user_device WHERE id = $1`, id)
	return r.one(row)
}

func (r *PostgresRepository) GetDeviceByUserAndPublicIP(ctx context.Context, userSecurityID uuid.UUID, publicIP string) (UserDevice, error) {
	row := store.Conn(ctx, r.db).QueryRow(ctx, `
		SELECT `+deviceColumns+`
		FROM user_device
		WHERE user_security_id = $1 AND public_ip = $2
	`, userSecurityID, publicIP)
	return r.one(row)
}

func (r *PostgresRepository) one(row pgx.Row) (UserDevice, error) {
	d, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserDevice{}, ErrNotFound
		}
		return UserDevice{}, fmt.Errorf("failed to get device: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) FindDevices(ctx context.Context) ([]UserDevice, error) {
	return r.many(ctx, `SELECT `+deviceColumns+` FROM user_device ORDER BY created_at`)
}

func (r *PostgresRepository) FindDevicesByUser(ctx context.Context, userSecurityID uuid.UUID) ([]UserDevice, error) {
	return r.many(ctx, `SELECT `+deviceColumns+` FROM user_device WHERE user_security_id = $1 ORDER BY created_at`, userSecurityID)
}

func (r *PostgresRepository) many(ctx context.Context, query string, args ...interface{}) ([]UserDevice, error) {
	rows, err := store.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find devices: %w", err)
	}
	defer rows.Close()

	devices := []UserDevice{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func (r *PostgresRepository) UpdateDevice(ctx context.Context, device UserDevice) (UserDevice, error) {
	row := store.Conn(ctx, r.db).QueryRow(ctx, `
		UPDATE user_device
		SET type = $2, authorized = $3, verification_token_id = $4
		WHERE id = $1
		RETURNING `+deviceColumns,
		device.ID, device.Type, device.Authorized, device.VerificationTokenID)
	return r.one(row)
}

func (r *PostgresRepository) DeleteDevice(ctx context.Context, id uuid.UUID) error {
	tag, err := store.Conn(ctx, r.db).Exec(ctx, `DELETE FROM user_device WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) CreateConnection(ctx context.Context, conn DeviceConnection) (DeviceConnection, error) {
	if conn.ID == uuid.Nil {
		conn.ID = uuid.New()
	}

	err := store.Conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO device_connection (id, user_device_id, browser, success)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, conn.ID, conn.UserDeviceID, conn.Browser, conn.Success).Scan(&conn.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return DeviceConnection{}, ErrNotFound
		}
		return DeviceConnection{}, fmt.Errorf("failed to create device connection: %w", err)
	}
	return conn, nil
}

func (r *PostgresRepository) GetConnection(ctx context.Context, id uuid.UUID) (DeviceConnection, error) {
	var c DeviceConnection
	err := store.Conn(ctx, r.db).QueryRow(ctx, `
		SELECT id, user_device_id, browser, success, created_at
		FROM device_connection
		WHERE id = $1
	`, id).Scan(&c.ID, &c.UserDeviceID, &c.Browser, &c.Success, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DeviceConnection{}, ErrConnectionNotFound
		}
		return DeviceConnection{}, fmt.Errorf("failed to get device connection: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) UpdateConnection(ctx context.Context, conn DeviceConnection) (DeviceConnection, error) {
	var c DeviceConnection
	err := store.Conn(ctx, r.db).QueryRow(ctx, `
		UPDATE device_connection
		SET success = $2
		WHERE id = $1
		RETURNING id, user_device_id, browser, success, created_at
	`, conn.ID, conn.Success).Scan(&c.ID, &c.UserDeviceID, &c.Browser, &c.Success, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DeviceConnection{}, ErrConnectionNotFound
		}
		return DeviceConnection{}, fmt.Errorf("failed to update device connection: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) FindConnectionsByDevice(ctx context.Context, deviceID uuid.UUID) ([]DeviceConnection, error) {
	rows, err := store.Conn(ctx, r.db).Query(ctx, `
		SELECT id, user_device_id, browser, success, created_at
		FROM device_connection
		WHERE user_device_id = $1
		ORDER BY created_at
	`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find device connections: %w", err)
	}
	defer rows.Close()

	conns := []DeviceConnection{}
	for rows.Next() {
		var c DeviceConnection
		if err := rows.Scan(&c.ID, &c.UserDeviceID, &c.Browser, &c.Success, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device connection: %w", err)
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}
