package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
)

// AuthUser is the caller identity carried by access tokens.
type AuthUser struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u AuthUser) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("email", u.Email),
		slog.String("role", u.Role),
	)
}

type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "auth context value " + k.name
}

var AuthUserKey = &contextKey{"AuthUser"}

// NewTokenAuth builds the jwtauth verifier matching tokens issued by Jwt.
func NewTokenAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

func Verifier(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return jwtauth.Verify(ja, jwtauth.TokenFromHeader, TokenFromCookie)(next)
	}
}

func TokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie("accessToken")
	if err != nil {
		return ""
	}
	return cookie.Value
}

func loadFromMap[T any](m map[string]interface{}, c *T) error {
	data, err := json.Marshal(m)
	if err == nil {
		err = json.Unmarshal(data, c)
	}
	return err
}

// AuthUserMiddleware loads the AuthUser from the verified token into the
// request context. It must run after jwtauth.Authenticator.
func AuthUserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			http.Error(w, fmt.Errorf("missing jwt: %w", err).Error(), http.StatusUnauthorized)
			return
		}

		customClaims, ok := claims["custom_claims"].(map[string]interface{})
		if !ok {
			http.Error(w, "missing claims", http.StatusUnauthorized)
			return
		}
		authUser := new(AuthUser)
		if err := loadFromMap(customClaims, authUser); err != nil {
			http.Error(w, fmt.Errorf("invalid claims: %w", err).Error(), http.StatusUnauthorized)
			return
		}
		if authUser.Email == "" {
			http.Error(w, "missing email", http.StatusUnauthorized)
			return
		}

		slog.Debug("Authenticated request", "user", authUser)
		ctx := context.WithValue(r.Context(), AuthUserKey, authUser)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func AuthUserFromContext(ctx context.Context) (*AuthUser, bool) {
	authUser, ok := ctx.Value(AuthUserKey).(*AuthUser)
	return authUser, ok && authUser != nil
}

// RequireRole rejects callers whose token does not carry role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authUser, ok := AuthUserFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if authUser.Role != role {
				slog.Warn("Forbidden", "user", authUser, "required_role", role)
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
