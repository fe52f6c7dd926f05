// Package devicetrust decides whether a login may proceed from the device it
// comes from.
//
// Each (user, public IP) pair moves through three states:
//
//	unregistered -> pending (verification token issued) -> authorized
//
// RegisterConnexion logs every attempt and creates the pending record on
// first sight. CheckUserDevice lets authorized devices through and answers a
// pending one with a verification mail and ErrUserDeviceNotAuthorized.
// ConfirmUserDevice consumes the token and authorizes the device. The device
// an account is activated from is authorized directly by
// CreateFirstUserDevice.
package devicetrust
