package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jarvisapp/jarvis-idm/pkg/auth"
	idmerrors "github.com/jarvisapp/jarvis-idm/pkg/errors"
	"github.com/jarvisapp/jarvis-idm/pkg/user"
	"github.com/jarvisapp/jarvis-idm/pkg/utils"
	"github.com/jinzhu/copier"
)

type AccountService interface {
	Register(ctx context.Context, firstName, lastName, email string) (user.User, error)
	Get(ctx context.Context, id uuid.UUID) (user.User, error)
	CurrentUser(ctx context.Context, principal string) (user.User, error)
	FindAll(ctx context.Context) ([]user.User, error)
	IsEmailAvailable(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, id uuid.UUID, firstName, lastName, email string) (user.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetNewActivationToken(ctx context.Context, email string) error
	CheckAccountActivationTokenValidity(ctx context.Context, email, token string) (bool, error)
	ActivateAccount(ctx context.Context, email, token, newPassword, publicIP, deviceType string) (user.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, newPassword string) error
}

type Authenticator interface {
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
}

type Handle struct {
	accounts      AccountService
	authenticator Authenticator
	cookieSecure  bool
	trustProxy    bool
}

type Option func(*Handle)

// WithCookieSecure marks the access token cookie set on login as Secure.
func WithCookieSecure(secure bool) Option {
	return func(h *Handle) {
		h.cookieSecure = secure
	}
}

// WithTrustProxyHeaders reads the client address from proxy headers.
func WithTrustProxyHeaders(trust bool) Option {
	return func(h *Handle) {
		h.trustProxy = trust
	}
}

func NewHandle(accounts AccountService, authenticator Authenticator, opts ...Option) *Handle {
	h := &Handle{
		accounts:      accounts,
		authenticator: authenticator,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// PublicRoutes mounts the endpoints reachable without an access token.
func (h *Handle) PublicRoutes(r chi.Router) {
	r.Post("/users", h.Register)
	r.Get("/users/email-available", h.IsEmailAvailable)
	r.Post("/users/activation-token", h.SendActivationToken)
	r.Post("/users/activation-token/check", h.CheckActivationToken)
	r.Post("/users/activate", h.Activate)
	r.Post("/login", h.Login)
}

// AuthenticatedRoutes mounts the endpoints that need an AuthUser in context.
func (h *Handle) AuthenticatedRoutes(r chi.Router) {
	r.Get("/me", h.GetMe)
	r.With(auth.RequireRole(string(user.RoleAdmin))).Get("/users", h.FindAll)
	r.Put("/users/{id}", h.Update)
	r.Delete("/users/{id}", h.Delete)
	r.Put("/users/{id}/password", h.ChangePassword)
}

func toUserResponse(u user.User) UserResponse {
	var resp UserResponse
	if err := copier.Copy(&resp, &u); err != nil {
		slog.Warn("Failed to copy user", "user_id", u.ID, "error", err)
	}
	resp.Role = string(u.Role())
	resp.AccountEnabled = u.Security.AccountEnabled
	return resp
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.Error("Failed to decode request body", "error", err)
		utils.RenderBadRequest(w, r, "request body", "malformed JSON")
		return false
	}
	return true
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.RenderBadRequest(w, r, "user id", "not a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// authorizeTarget lets a caller act on its own account; admins may act on any.
func (h *Handle) authorizeTarget(w http.ResponseWriter, r *http.Request, id uuid.UUID) bool {
	authUser, ok := auth.AuthUserFromContext(r.Context())
	if !ok {
		utils.RenderError(w, r, idmerrors.Unauthorized("missing caller"))
		return false
	}
	if authUser.Role == string(user.RoleAdmin) {
		return true
	}
	caller, err := h.accounts.CurrentUser(r.Context(), authUser.Email)
	if err != nil {
		utils.RenderError(w, r, err)
		return false
	}
	if caller.ID != id {
		utils.RenderError(w, r, idmerrors.Forbidden("not allowed to modify another account"))
		return false
	}
	return true
}

// Register handles POST /users
func (h *Handle) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		utils.RenderBadRequest(w, r, "user", "first name, last name and email are required")
		return
	}

	u, err := h.accounts.Register(r.Context(), req.FirstName, req.LastName, strings.TrimSpace(req.Email))
	if err != nil {
		utils.RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toUserResponse(u))
}

// IsEmailAvailable handles GET /users/email-available?email=
func (h *Handle) IsEmailAvailable(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		utils.RenderBadRequest(w, r, "email", "is required")
		return
	}

	available, err := h.accounts.IsEmailAvailable(r.Context(), email)
	if err != nil {
		utils.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, EmailAvailableResponse{Email: email, Available: available})
}

// SendActivationToken handles POST /users/activation-token
func (h *Handle) SendActivationToken(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.accounts.SetNewActivationToken(r.Context(), req.Email); err != nil {
		utils.RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, MessageResponse{Message: "Activation email sent"})
}

// CheckActivationToken handles POST /users/activation-token/check
func (h *Handle) CheckActivationToken(w http.ResponseWriter, r *http.Request) {
	var req CheckTokenRequest
	if !decode(w, r, &req) {
		return
	}
	valid, err := h.accounts.CheckAccountActivationTokenValidity(r.Context(), req.Email, req.Token)
	if err != nil {
		utils.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, TokenValidityResponse{Valid: valid})
}

// Activate handles POST /users/activate
func (h *Handle) Activate(w http.ResponseWriter, r *http.Request) {
	var req ActivateRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Token == "" || req.Password == "" {
		utils.RenderBadRequest(w, r, "activation", "email, token and password are required")
		return
	}

	u, err := h.accounts.ActivateAccount(r.Context(), req.Email, req.Token, req.Password, utils.ClientIP(r, h.trustProxy), req.DeviceType)
	if err != nil {
		utils.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, toUserResponse(u))
}

// Login handles POST /login
func (h *Handle) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		utils.RenderBadRequest(w, r, "credentials", "email and password are required")
		return
	}

	result, err := h.authenticator.Login(r.Context(), auth.LoginRequest{
		Email:      req.Email,
		Password:   req.Password,
		PublicIP:   utils.ClientIP(r, h.trustProxy),
		DeviceType: req.DeviceType,
		Browser:    r.UserAgent(),
	})
	if err != nil {
		utils.RenderError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    result.AccessToken.Token,
		Path:     "/",
		Expires:  result.AccessToken.Expiry,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	render.JSON(w, r, LoginResponse{
		AccessToken: result.AccessToken.Token,
		ExpiresAt:   result.AccessToken.Expiry,
		User:        toUserResponse(result.User),
	})
}

// GetMe handles GET /me
func (h *Handle) GetMe(w http.ResponseWriter, r *http.Request) {
	authUser, ok := auth.AuthUserFromContext(r.Context())
	if !ok {
		utils.RenderError(w, r, idmerrors.Unauthorized("missing caller"))
		return
	}
	u, err := h.accounts.CurrentUser(r.Context(), authUser.Email)
	if err != nil {
		utils.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, toUserResponse(u))
}

// FindAll handles GET /users
func (h *Handle) FindAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.FindAll(r.Context())
	if err != nil {
		utils.RenderError(w, r, err)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	render.JSON(w, r, resp)
}

// Update handles PUT /users/{id}
func (h *Handle) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok || !h.authorizeTarget(w, r, id) {
		return
	}
	var req UpdateUserRequest
	if !decode(w, r, &req) {
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		utils.RenderBadRequest(w, r, "user", "first name, last name and email are required")
		return
	}

	u, err := h.accounts.Update(r.Context(), id, req.FirstName, req.LastName, strings.TrimSpace(req.Email))
	if err != nil {
		utils.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, toUserResponse(u))
}

// Delete handles DELETE /users/{id}
func (h *Handle) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok || !h.authorizeTarget(w, r, id) {
		return
	}
	if err := h.accounts.Delete(r.Context(), id); err != nil {
		utils.RenderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword handles PUT /users/{id}/password
func (h *Handle) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok || !h.authorizeTarget(w, r, id) {
		return
	}
	var req ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Password == "" {
		utils.RenderBadRequest(w, r, "password", "is required")
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), id, req.Password); err != nil {
		utils.RenderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
