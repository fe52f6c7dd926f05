package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedRouter(secret string) http.Handler {
	tokenAuth := NewTokenAuth(secret)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))
		r.Use(AuthUserMiddleware)
		r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
			authUser, _ := AuthUserFromContext(r.Context())
			render.JSON(w, r, authUser)
		})
		r.With(RequireRole("ADMIN")).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
			render.PlainText(w, r, "ok")
		})
	})
	return r
}

func TestAuthUserMiddleware(t *testing.T) {
	router := newProtectedRouter("test-secret")
	jwtSvc := NewJwtServiceOptions("test-secret")
	token, err := jwtSvc.CreateAccessToken(AuthUser{Email: "ann@x.com", Role: "USER"})
	require.NoError(t, err)

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"email":"ann@x.com","role":"USER"}`, rec.Body.String())
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: token.Token})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("foreign signature", func(t *testing.T) {
		foreign, err := NewJwtServiceOptions("other-secret").CreateAccessToken(AuthUser{Email: "ann@x.com", Role: "ADMIN"})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+foreign.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	router := newProtectedRouter("test-secret")
	jwtSvc := NewJwtServiceOptions("test-secret")

	for _, tt := range []struct {
		role string
		want int
	}{
		{"USER", http.StatusForbidden},
		{"ADMIN", http.StatusOK},
	} {
		t.Run(tt.role, func(t *testing.T) {
			token, err := jwtSvc.CreateAccessToken(AuthUser{Email: "ann@x.com", Role: tt.role})
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+token.Token)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
