// Package auth turns a password login into an access token.
//
// The Authenticator drives the whole login step: the attempt is logged against
// the device it comes from, the salted credentials are checked, the device must
// be trusted, and only then is the connection marked successful and a signed
// HS256 token issued.
//
//	jwtSvc := auth.NewJwtServiceOptions(secret, auth.WithIssuer("jarvis-idm"))
//	authenticator := auth.NewAuthenticator(accountService, deviceTrustService, codec, jwtSvc)
//
//	result, err := authenticator.Login(ctx, auth.LoginRequest{
//		Email:    "ann@x.com",
//		Password: "secret",
//		PublicIP: "1.2.3.4",
//	})
//
// A login from an unknown or pending device fails with
// errors.ErrUserDeviceNotAuthorized after the trust verification mail has been
// sent.
//
// Protected routes use Verifier and AuthUserMiddleware on top of
// jwtauth.Authenticator; handlers read the caller with AuthUserFromContext.
package auth
