package config

import (
	"time"

	"github.com/jarvisapp/jarvis-idm/pkg/password"
)

// MaxPasswordSaltLength keeps password+salt inside bcrypt's 72 byte input limit
// for the 36 character throwaway passwords issued at registration.
const MaxPasswordSaltLength = 32

// SecurityConfig holds credential and token settings
type SecurityConfig struct {
	PasswordSalt        string        `env:"USER_PASSWORD_SALT" env-required:"true"`
	PasswordHasher      string        `env:"PASSWORD_HASHER" env-default:"bcrypt"`
	BcryptCost          int           `env:"BCRYPT_COST" env-default:"10"`
	SingleUseTokenTTL   time.Duration `env:"SINGLE_USE_TOKEN_EXPIRY" env-default:"24h"`
	JWTSecret           string        `env:"JWT_SECRET" env-required:"true"`
	JWTIssuer           string        `env:"JWT_ISSUER" env-default:"jarvis-idm"`
	AccessTokenLifetime time.Duration `env:"ACCESS_TOKEN_EXPIRY" env-default:"15m"`

	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" env-default:"false"`
}

// Validate checks the security settings
func (s SecurityConfig) Validate() ValidationErrors {
	return CollectErrors(
		RequireNonEmpty("USER_PASSWORD_SALT", s.PasswordSalt),
		RequireMaxLength("USER_PASSWORD_SALT", s.PasswordSalt, MaxPasswordSaltLength),
		RequireOneOf("PASSWORD_HASHER", s.PasswordHasher, []string{password.HasherBcrypt, password.HasherArgon2id}),
		RequireInRange("BCRYPT_COST", s.BcryptCost, 4, 31),
		RequirePositiveDuration("SINGLE_USE_TOKEN_EXPIRY", s.SingleUseTokenTTL),
		RequireNonEmpty("JWT_SECRET", s.JWTSecret),
		RequirePositiveDuration("ACCESS_TOKEN_EXPIRY", s.AccessTokenLifetime),
	)
}
