package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jarvisapp/jarvis-idm/pkg/auth"
	"github.com/jarvisapp/jarvis-idm/pkg/device"
	idmerrors "github.com/jarvisapp/jarvis-idm/pkg/errors"
	"github.com/jarvisapp/jarvis-idm/pkg/user"
	"github.com/jarvisapp/jarvis-idm/pkg/utils"
	"github.com/jinzhu/copier"
)

type DeviceTrustService interface {
	ConfirmUserDevice(ctx context.Context, email, publicIP, token string) (device.UserDevice, error)
	GetUserDevice(ctx context.Context, id uuid.UUID) (device.UserDevice, error)
	FindUserDevices(ctx context.Context) ([]device.UserDevice, error)
	FindDevicesByUser(ctx context.Context, userSecurityID uuid.UUID) ([]device.UserDevice, error)
	FindConnections(ctx context.Context, deviceID uuid.UUID) ([]device.DeviceConnection, error)
}

type UserLookup interface {
	CurrentUser(ctx context.Context, principal string) (user.User, error)
}

type Handle struct {
	devices    DeviceTrustService
	users      UserLookup
	trustProxy bool
}

type Option func(*Handle)

// WithTrustProxyHeaders reads the client address from proxy headers.
func WithTrustProxyHeaders(trust bool) Option {
	return func(h *Handle) {
		h.trustProxy = trust
	}
}

func NewHandle(devices DeviceTrustService, users UserLookup, opts ...Option) *Handle {
	h := &Handle{devices: devices, users: users}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handle) PublicRoutes(r chi.Router) {
	r.Post("/devices/confirm", h.Confirm)
}

func (h *Handle) AuthenticatedRoutes(r chi.Router) {
	r.Get("/devices", h.FindMine)
	r.With(auth.RequireRole(string(user.RoleAdmin))).Get("/devices/all", h.FindAll)
	r.Get("/devices/{id}/connections", h.FindConnections)
}

func toDeviceResponse(d device.UserDevice) DeviceResponse {
	var resp DeviceResponse
	if err := copier.Copy(&resp, &d); err != nil {
		slog.Warn("Failed to copy device", "device_id", d.ID, "error", err)
	}
	resp.State = string(d.State())
	return resp
}

func toDeviceResponses(devices []device.UserDevice) []DeviceResponse {
	resp := make([]DeviceResponse, 0, len(devices))
	for _, d := range devices {
		resp = append(resp, toDeviceResponse(d))
	}
	return resp
}

func (h *Handle) caller(w http.ResponseWriter, r *http.Request) (user.User, bool) {
	authUser, ok := auth.AuthUserFromContext(r.Context())
	if !ok {
		utils.RenderError(w, r, idmerrors.Unauthorized("missing caller"))
		return user.User{}, false
	}
	u, err := h.users.CurrentUser(r.Context(), authUser.Email)
	if err != nil {
		utils.RenderError(w, r, err)
		return user.User{}, false
	}
	return u, true
}

// Confirm handles POST /devices/confirm. The device is the one the request
// comes from.
func (h *Handle) Confirm(w http.ResponseWriter, r *http.Request) {
	var req ConfirmDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request body", "error", err)
		utils.RenderBadRequest(w, r, "request body", "malformed JSON")
		return
	}
	if req.Email == "" || req.Token == "" {
		utils.RenderBadRequest(w, r, "confirmation", "email and token are required")
		return
	}

	d, err := h.devices.ConfirmUserDevice(r.Context(), req.Email, utils.ClientIP(r, h.trustProxy), req.Token)
	if err != nil {
		utils.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, toDeviceResponse(d))
}

// FindMine handles GET /devices
func (h *Handle) FindMine(w http.ResponseWriter, r *http.Request) {
	u, ok := h.caller(w, r)
	if !ok {
		return
	}
	devices, err := h.devices.FindDevicesByUser(r.Context(), u.Security.ID)
	if err != nil {
		utils.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, toDeviceResponses(devices))
}

// FindAll handles GET /devices/all
func (h *Handle) FindAll(w http.ResponseWriter, r *http.Request) {
	devices, err := h.devices.FindUserDevices(r.Context())
	if err != nil {
		utils.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, toDeviceResponses(devices))
}

// FindConnections handles GET /devices/{id}/connections
func (h *Handle) FindConnections(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.RenderBadRequest(w, r, "device id", "not a UUID")
		return
	}
	u, ok := h.caller(w, r)
	if !ok {
		return
	}

	d, err := h.devices.GetUserDevice(r.Context(), id)
	if err != nil {
		utils.RenderError(w, r, err)
		return
	}
	// other users' devices are reported as missing
	if d.UserSecurityID != u.Security.ID && u.Role() != user.RoleAdmin {
		utils.RenderError(w, r, idmerrors.ErrUserDeviceNotFound)
		return
	}

	conns, err := h.devices.FindConnections(r.Context(), id)
	if err != nil {
		utils.RenderError(w, r, err)
		return
	}
	resp := make([]ConnectionResponse, 0, len(conns))
	if err := copier.Copy(&resp, &conns); err != nil {
		utils.RenderError(w, r, idmerrors.InternalWrap(err, "failed to map connections"))
		return
	}
	render.JSON(w, r, resp)
}
