package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultIssuer              = "jarvis-idm"
	DefaultAccessTokenLifetime = 15 * time.Minute
)

var ErrInvalidToken = errors.New("invalid token")

type Jwt struct {
	Secret              string
	Issuer              string
	AccessTokenLifetime time.Duration
}

type Option func(*Jwt)

func WithIssuer(issuer string) Option {
	return func(j *Jwt) {
		j.Issuer = issuer
	}
}

func WithAccessTokenLifetime(lifetime time.Duration) Option {
	return func(j *Jwt) {
		j.AccessTokenLifetime = lifetime
	}
}

func NewJwtServiceOptions(secret string, opts ...Option) *Jwt {
	jwtSvc := &Jwt{
		Secret:              secret,
		Issuer:              DefaultIssuer,
		AccessTokenLifetime: DefaultAccessTokenLifetime,
	}

	for _, opt := range opts {
		opt(jwtSvc)
	}

	return jwtSvc
}

// Claims carries the caller identity under custom_claims next to the
// registered claims.
type Claims struct {
	CustomClaims AuthUser `json:"custom_claims"`
	jwt.RegisteredClaims
}

type IdmToken struct {
	Token  string
	Expiry time.Time
}

func (j Jwt) CreateTokenStr(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(j.Secret))
	if err != nil {
		slog.Error("Failed sign JWT Claim string!", "err", err)
		return "", err
	}
	return ss, nil
}

func (j Jwt) CreateAccessToken(claimData AuthUser) (IdmToken, error) {
	now := time.Now().UTC()
	claims := Claims{
		claimData,
		jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.AccessTokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
			Issuer:    j.Issuer,
			Subject:   claimData.Email,
			ID:        uuid.New().String(),
		},
	}
	accessToken, err := j.CreateTokenStr(claims)
	return IdmToken{Token: accessToken, Expiry: claims.ExpiresAt.Time}, err
}

// ParseTokenStr verifies the signature and the time based claims of an access
// token and returns its claims.
func (j Jwt) ParseTokenStr(tokenStr string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.Secret), nil
	}, jwt.WithIssuer(j.Issuer))
	if err != nil {
		slog.Error("Failed parse JWT string!", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.CustomClaims.Email == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
