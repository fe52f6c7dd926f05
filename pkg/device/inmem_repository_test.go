package device

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemRepository_UniquePerUserAndIP(t *testing.T) {
	repo := NewInMemRepository()
	ctx := context.Background()
	securityID := uuid.New()

	d, err := repo.CreateDevice(ctx, UserDevice{UserSecurityID: securityID, PublicIP: "1.2.3.4", Type: "mobile"})
	require.NoError(t, err)
	assert.Equal(t, StatePending, d.State())

	_, err = repo.CreateDevice(ctx, UserDevice{UserSecurityID: securityID, PublicIP: "1.2.3.4", Type: "desktop"})
	assert.ErrorIs(t, err, ErrDeviceExists)

	// same ip, other user
	_, err = repo.CreateDevice(ctx, UserDevice{UserSecurityID: uuid.New(), PublicIP: "1.2.3.4"})
	require.NoError(t, err)

	got, err := repo.GetDeviceByUserAndPublicIP(ctx, securityID, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)

	_, err = repo.GetDeviceByUserAndPublicIP(ctx, securityID, "5.6.7.8")
	assert.ErrorIs(t, err, ErrNotFound)

	mine, err := repo.FindDevicesByUser(ctx, securityID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := repo.FindDevices(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestInMemRepository_UpdateKeepsIdentity(t *testing.T) {
	repo := NewInMemRepository()
	ctx := context.Background()
	tokenID := uuid.New()

	d, err := repo.CreateDevice(ctx, UserDevice{UserSecurityID: uuid.New(), PublicIP: "1.2.3.4", VerificationTokenID: &tokenID})
	require.NoError(t, err)

	d.Authorized = true
	d.VerificationTokenID = nil
	d.PublicIP = "9.9.9.9"
	updated, err := repo.UpdateDevice(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, StateAuthorized, updated.State())
	assert.Nil(t, updated.VerificationTokenID)
	assert.Equal(t, "1.2.3.4", updated.PublicIP)

	_, err = repo.UpdateDevice(ctx, UserDevice{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemRepository_ConnectionsCascadeWithDevice(t *testing.T) {
	repo := NewInMemRepository()
	ctx := context.Background()

	d, err := repo.CreateDevice(ctx, UserDevice{UserSecurityID: uuid.New(), PublicIP: "1.2.3.4"})
	require.NoError(t, err)

	c1, err := repo.CreateConnection(ctx, DeviceConnection{UserDeviceID: d.ID, Browser: "Safari"})
	require.NoError(t, err)
	_, err = repo.CreateConnection(ctx, DeviceConnection{UserDeviceID: d.ID, Browser: "Safari"})
	require.NoError(t, err)

	c1.Success = true
	c1.Browser = "ignored"
	updated, err := repo.UpdateConnection(ctx, c1)
	require.NoError(t, err)
	assert.True(t, updated.Success)
	assert.Equal(t, "Safari", updated.Browser)

	conns, err := repo.FindConnectionsByDevice(ctx, d.ID)
	require.NoError(t, err)
	assert.Len(t, conns, 2)

	require.NoError(t, repo.DeleteDevice(ctx, d.ID))
	_, err = repo.GetConnection(ctx, c1.ID)
	assert.ErrorIs(t, err, ErrConnectionNotFound)
	assert.ErrorIs(t, repo.DeleteDevice(ctx, d.ID), ErrNotFound)

	_, err = repo.CreateConnection(ctx, DeviceConnection{UserDeviceID: d.ID})
	assert.ErrorIs(t, err, ErrNotFound)
}
