// Package errors provides structured error handling with error codes for jarvis-idm.
//
// Every domain failure raised by the account and device trust services is an
// *Error carrying an ErrorCode. Handlers turn the code into an HTTP status
// with MapErrorCodeToHTTPStatus.
//
// # Basic Usage
//
//	import idmerrors "github.com/jarvisapp/jarvis-idm/pkg/errors"
//
//	// Return a domain error
//	return user.User{}, idmerrors.ErrUserNotFound
//
//	// Attach details without mutating the sentinel
//	return idmerrors.ErrUserNotFound.WithDetail("email", email)
//
//	// Wrap an infrastructure failure
//	return idmerrors.Wrap(err, idmerrors.ErrCodeInternal, "failed to load user")
//
// # Inspecting Errors
//
// (*Error).Is compares codes, so errors.Is works with the sentinels even when
// the returned value was built with WithDetail or Newf:
//
//	if errors.Is(err, idmerrors.ErrUserDeviceNotAuthorized) {
//		// verification mail was sent, ask the user to check their inbox
//	}
//
//	code := idmerrors.GetCode(err)
//	status := idmerrors.MapErrorCodeToHTTPStatus(code)
//
// Errors that are not *Error (database, SMTP) report ErrCodeInternal.
package errors
