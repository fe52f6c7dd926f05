package devicetrust

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jarvisapp/jarvis-idm/pkg/device"
	idmerrors "github.com/jarvisapp/jarvis-idm/pkg/errors"
	"github.com/jarvisapp/jarvis-idm/pkg/notice"
	"github.com/jarvisapp/jarvis-idm/pkg/notification"
	"github.com/jarvisapp/jarvis-idm/pkg/singleusetoken"
	"github.com/jarvisapp/jarvis-idm/pkg/store"
	"github.com/jarvisapp/jarvis-idm/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      *Service
	users    *user.InMemRepository
	devices  *device.InMemRepository
	tokens   *singleusetoken.Service
	notifier *notification.MockNotifier
	now      time.Time
	ann      user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:    user.NewInMemRepository(),
		devices:  device.NewInMemRepository(),
		notifier: &notification.MockNotifier{},
		now:      time.Now().UTC(),
	}
	f.tokens = singleusetoken.NewService(singleusetoken.NewInMemRepository(), singleusetoken.WithClock(func() time.Time { return f.now }))

	nm := notification.NewNotificationManager()
	nm.RegisterNotifier(notification.EmailSystem, f.notifier)
	require.NoError(t, notice.RegisterNotices(nm))

	f.svc = NewService(f.devices, f.users, f.tokens, notice.NewMailer(nm, "https://jarvis.example.com"), store.NewLocalTransactor())

	var err error
	f.ann, err = f.users.CreateUser(context.Background(), user.User{
		FirstName: "Ann",
		LastName:  "Lee",
		Email:     "ann@x.com",
		Security:  user.UserSecurity{Password: "encoded"},
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) verificationMails() []notification.SentNotification {
	return f.notifier.SentOfType(notice.DeviceVerificationNotice)
}

func TestCreateUserDevice_IsPendingWithFreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d1, err := f.svc.CreateUserDevice(ctx, f.ann.Security, "1.2.3.4", "mobile")
	require.NoError(t, err)
	assert.False(t, d1.Authorized)
	require.NotNil(t, d1.VerificationTokenID)

	d2, err := f.svc.CreateUserDevice(ctx, f.ann.Security, "5.6.7.8", "desktop")
	require.NoError(t, err)
	require.NotNil(t, d2.VerificationTokenID)
	assert.NotEqual(t, *d1.VerificationTokenID, *d2.VerificationTokenID)

	token, err := f.tokens.Get(ctx, *d1.VerificationTokenID)
	require.NoError(t, err)
	assert.True(t, f.tokens.IsSingleUseTokenValid(token))
}

func TestCreateFirstUserDevice_IsAuthorized(t *testing.T) {
	f := newFixture(t)

	d, err := f.svc.CreateFirstUserDevice(context.Background(), f.ann.Security, "1.2.3.4", "mobile")
	require.NoError(t, err)
	assert.True(t, d.Authorized)
	assert.Nil(t, d.VerificationTokenID)
}

func TestCreateFirstUserDevice_PromotesPendingDevice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.svc.CreateUserDevice(ctx, f.ann.Security, "1.2.3.4", "mobile")
	require.NoError(t, err)

	d, err := f.svc.CreateFirstUserDevice(ctx, f.ann.Security, "1.2.3.4", "mobile")
	require.NoError(t, err)
	assert.Equal(t, pending.ID, d.ID)
	assert.True(t, d.Authorized)

	_, err = f.tokens.Get(ctx, *pending.VerificationTokenID)
	assert.ErrorIs(t, err, idmerrors.ErrSingleUseTokenNotFound)
}

func TestCheckUserDevice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CheckUserDevice(ctx, f.ann, "1.2.3.4")
	assert.ErrorIs(t, err, idmerrors.ErrUserDeviceNotFound)
	assert.Empty(t, f.notifier.Sent())

	pending, err := f.svc.CreateUserDevice(ctx, f.ann.Security, "1.2.3.4", "mobile")
	require.NoError(t, err)
	token, err := f.tokens.Get(ctx, *pending.VerificationTokenID)
	require.NoError(t, err)

	// every attempt from a pending device sends exactly one mail
	for i := 1; i <= 3; i++ {
		_, err = f.svc.CheckUserDevice(ctx, f.ann, "1.2.3.4")
		assert.ErrorIs(t, err, idmerrors.ErrUserDeviceNotAuthorized)
		require.Len(t, f.verificationMails(), i)
	}
	mail := f.verificationMails()[0]
	assert.Equal(t, "ann@x.com", mail.To)
	assert.Equal(t, token.Token, mail.Data["Token"])
	assert.Equal(t, "Ann", mail.Data["FirstName"])

	authorized, err := f.svc.CreateFirstUserDevice(ctx, f.ann.Security, "5.6.7.8", "desktop")
	require.NoError(t, err)
	got, err := f.svc.CheckUserDevice(ctx, f.ann, "5.6.7.8")
	require.NoError(t, err)
	assert.Equal(t, authorized.ID, got.ID)
	assert.Len(t, f.verificationMails(), 3)
}

func TestCheckUserDevice_RenewsMissingOrExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.svc.CreateUserDevice(ctx, f.ann.Security, "1.2.3.4", "mobile")
	require.NoError(t, err)
	require.NoError(t, f.tokens.Delete(ctx, *pending.VerificationTokenID))

	_, err = f.svc.CheckUserDevice(ctx, f.ann, "1.2.3.4")
	assert.ErrorIs(t, err, idmerrors.ErrUserDeviceNotAuthorized)

	renewed, err := f.devices.GetDevice(ctx, pending.ID)
	require.NoError(t, err)
	require.NotNil(t, renewed.VerificationTokenID)
	assert.NotEqual(t, *pending.VerificationTokenID, *renewed.VerificationTokenID)

	token, err := f.tokens.Get(ctx, *renewed.VerificationTokenID)
	require.NoError(t, err)
	assert.Equal(t, token.Token, f.verificationMails()[0].Data["Token"])

	f.now = f.now.Add(48 * time.Hour)
	_, err = f.svc.CheckUserDevice(ctx, f.ann, "1.2.3.4")
	assert.ErrorIs(t, err, idmerrors.ErrUserDeviceNotAuthorized)
	again, err := f.devices.GetDevice(ctx, pending.ID)
	require.NoError(t, err)
	assert.NotEqual(t, *renewed.VerificationTokenID, *again.VerificationTokenID)
	_, err = f.tokens.Get(ctx, *renewed.VerificationTokenID)
	assert.ErrorIs(t, err, idmerrors.ErrSingleUseTokenNotFound)
}

func TestCheckUserDevice_MailFailurePropagates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	smtpErr := errors.New("smtp: 451 try again later")
	f.notifier.Err = smtpErr

	_, err := f.svc.CreateUserDevice(ctx, f.ann.Security, "1.2.3.4", "mobile")
	require.NoError(t, err)

	_, err = f.svc.CheckUserDevice(ctx, f.ann, "1.2.3.4")
	assert.ErrorIs(t, err, smtpErr)
	assert.False(t, idmerrors.IsCode(err, idmerrors.ErrCodeUserDeviceNotAuthorized))
}

func TestRegisterConnexion_ReusesDevice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c1, err := f.svc.RegisterConnexion(ctx, "ann@x.com", "1.2.3.4", "mobile", "Safari")
	require.NoError(t, err)
	assert.False(t, c1.Success)

	c2, err := f.svc.RegisterConnexion(ctx, "ann@x.com", "1.2.3.4", "mobile", "Safari")
	require.NoError(t, err)
	assert.False(t, c2.Success)

	assert.Equal(t, c1.UserDeviceID, c2.UserDeviceID)
	assert.NotEqual(t, c1.ID, c2.ID)

	devices, err := f.svc.FindDevicesByUser(ctx, f.ann.Security.ID)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.False(t, devices[0].Authorized)

	conns, err := f.svc.FindConnections(ctx, c1.UserDeviceID)
	require.NoError(t, err)
	assert.Len(t, conns, 2)

	_, err = f.svc.RegisterConnexion(ctx, "nobody@x.com", "1.2.3.4", "mobile", "Safari")
	assert.ErrorIs(t, err, idmerrors.ErrUserNotFound)
}

func TestSetDeviceConnectionSuccessful(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	conn, err := f.svc.RegisterConnexion(ctx, "ann@x.com", "1.2.3.4", "mobile", "Firefox")
	require.NoError(t, err)

	updated, err := f.svc.SetDeviceConnectionSuccessful(ctx, conn)
	require.NoError(t, err)
	assert.True(t, updated.Success)
	assert.Equal(t, "Firefox", updated.Browser)

	_, err = f.svc.SetDeviceConnectionSuccessful(ctx, device.DeviceConnection{ID: uuid.New()})
	assert.True(t, idmerrors.IsCode(err, idmerrors.ErrCodeNotFound))
}

func TestConfirmUserDevice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ConfirmUserDevice(ctx, "ann@x.com", "1.2.3.4", "whatever")
	assert.ErrorIs(t, err, idmerrors.ErrUserDeviceNotFound)

	pending, err := f.svc.CreateUserDevice(ctx, f.ann.Security, "1.2.3.4", "mobile")
	require.NoError(t, err)
	token, err := f.tokens.Get(ctx, *pending.VerificationTokenID)
	require.NoError(t, err)

	_, err = f.svc.ConfirmUserDevice(ctx, "ann@x.com", "1.2.3.4", "wrong")
	assert.ErrorIs(t, err, idmerrors.ErrSingleUseTokenNotFound)

	confirmed, err := f.svc.ConfirmUserDevice(ctx, "ann@x.com", "1.2.3.4", " "+token.Token+" ")
	require.NoError(t, err)
	assert.True(t, confirmed.Authorized)
	assert.Nil(t, confirmed.VerificationTokenID)

	_, err = f.tokens.Get(ctx, token.ID)
	assert.ErrorIs(t, err, idmerrors.ErrSingleUseTokenNotFound)

	// confirming again is a no-op
	again, err := f.svc.ConfirmUserDevice(ctx, "ann@x.com", "1.2.3.4", token.Token)
	require.NoError(t, err)
	assert.Equal(t, confirmed.ID, again.ID)

	_, err = f.svc.CheckUserDevice(ctx, f.ann, "1.2.3.4")
	assert.NoError(t, err)

	_, err = f.svc.ConfirmUserDevice(ctx, "nobody@x.com", "1.2.3.4", token.Token)
	assert.ErrorIs(t, err, idmerrors.ErrUserNotFound)
}

func TestConfirmUserDevice_ExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.svc.CreateUserDevice(ctx, f.ann.Security, "1.2.3.4", "mobile")
	require.NoError(t, err)
	token, err := f.tokens.Get(ctx, *pending.VerificationTokenID)
	require.NoError(t, err)

	f.now = f.now.Add(25 * time.Hour)
	_, err = f.svc.ConfirmUserDevice(ctx, "ann@x.com", "1.2.3.4", token.Token)
	assert.ErrorIs(t, err, idmerrors.ErrSingleUseTokenExpired)

	still, err := f.devices.GetDevice(ctx, pending.ID)
	require.NoError(t, err)
	assert.False(t, still.Authorized)
}

func TestDeleteUserDevices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.svc.CreateUserDevice(ctx, f.ann.Security, "1.2.3.4", "mobile")
	require.NoError(t, err)
	_, err = f.svc.CreateFirstUserDevice(ctx, f.ann.Security, "5.6.7.8", "desktop")
	require.NoError(t, err)
	conn, err := f.svc.RegisterConnexion(ctx, "ann@x.com", "1.2.3.4", "mobile", "Safari")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteUserDevices(ctx, f.ann.Security.ID))

	devices, err := f.svc.FindUserDevices(ctx)
	require.NoError(t, err)
	assert.Empty(t, devices)
	_, err = f.tokens.Get(ctx, *pending.VerificationTokenID)
	assert.ErrorIs(t, err, idmerrors.ErrSingleUseTokenNotFound)
	_, err = f.devices.GetConnection(ctx, conn.ID)
	assert.ErrorIs(t, err, device.ErrConnectionNotFound)
	_, err = f.svc.GetUserDevice(ctx, pending.ID)
	assert.ErrorIs(t, err, idmerrors.ErrUserDeviceNotFound)
}
