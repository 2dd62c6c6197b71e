// Package handler exposes registration, login, and profile routes.
package handler

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gatekeeper/internal/account/models"
	"gatekeeper/internal/account/service"
	"gatekeeper/internal/platform/middleware"
	dErrors "gatekeeper/pkg/domain-errors"
	"gatekeeper/pkg/platform/httputil"
)

// Handler handles account self-service endpoints.
type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

// New creates a new account handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: svc,
		logger:  logger,
	}
}

// RegisterPublic mounts the unauthenticated routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
}

// RegisterProtected mounts the routes that require a session.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Patch("/profile", h.HandleUpdateProfile)
}

// HandleRegister creates a new pending account.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[models.RegisterRequest](w, r, h.logger)
	if !ok {
		return
	}
	req.Origin = remoteHost(r)

	result, err := h.service.Register(ctx, *req)
	if err != nil {
		h.logger.WarnContext(ctx, "registration refused",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, result)
}

// HandleLogin authenticates credentials and returns a session token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[models.LoginRequest](w, r, h.logger)
	if !ok {
		return
	}
	req.Origin = remoteHost(r)

	result, err := h.service.Login(ctx, *req)
	if err != nil {
		h.logger.InfoContext(ctx, "login refused",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleUpdateProfile applies self-service changes to the caller's account.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := middleware.GetClaims(ctx)
	if claims == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "invalid or expired session"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.UpdateProfileRequest](w, r, h.logger)
	if !ok {
		return
	}
	req.Origin = remoteHost(r)

	view, err := h.service.UpdateProfile(ctx, claims, *req)
	if err != nil {
		h.logger.WarnContext(ctx, "profile update refused",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, view)
}

// remoteHost strips the port from RemoteAddr for audit attribution.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
