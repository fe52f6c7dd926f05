package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	accountapi "github.com/jarvisapp/jarvis-idm/pkg/account/api"
	"github.com/jarvisapp/jarvis-idm/pkg/auth"
	devicetrustapi "github.com/jarvisapp/jarvis-idm/pkg/devicetrust/api"
)

const DefaultPrefix = "/api"

// Config holds the handlers and the token verifier the routes need
type Config struct {
	Prefix string

	AccountHandle *accountapi.Handle
	DeviceHandle  *devicetrustapi.Handle

	TokenAuth *jwtauth.JWTAuth
}

// SetupRoutes mounts the account and device routes under cfg.Prefix
func SetupRoutes(router chi.Router, cfg Config) {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	router.Route(prefix, func(r chi.Router) {
		// Public endpoints: registration, activation, login, device confirmation
		r.Group(func(r chi.Router) {
			cfg.AccountHandle.PublicRoutes(r)
			cfg.DeviceHandle.PublicRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Verifier(cfg.TokenAuth))
			r.Use(jwtauth.Authenticator(cfg.TokenAuth))
			r.Use(auth.AuthUserMiddleware)

			cfg.AccountHandle.AuthenticatedRoutes(r)
			cfg.DeviceHandle.AuthenticatedRoutes(r)
		})
	})
}
