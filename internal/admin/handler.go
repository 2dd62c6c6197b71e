package admin

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gatekeeper/internal/platform/middleware"
	"gatekeeper/pkg/domain"
	dErrors "gatekeeper/pkg/domain-errors"
	"gatekeeper/pkg/platform/httputil"
)

// Handler handles administrator endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates a new admin handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts admin routes. The caller wraps the router with session
// and privilege middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/accounts", h.HandleListAccounts)
	r.Post("/accounts/{accountID}/authorize", h.HandleAuthorize)
	r.Post("/accounts/{accountID}/block", h.HandleToggleBlock)
	r.Post("/accounts/{accountID}/reset-password", h.HandleResetPassword)
	r.Delete("/accounts/{accountID}", h.HandleDeleteAccount)
	r.Get("/accounts/{accountID}/audit", h.HandleAccountAudit)
	r.Get("/audit/recent", h.HandleRecentAudit)
}

// accountIDParam parses the accountID route parameter.
func accountIDParam(r *http.Request) (domain.AccountID, error) {
	accountID, err := domain.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		return domain.AccountID{}, dErrors.New(dErrors.CodeBadRequest, "invalid account id")
	}
	return accountID, nil
}

// limitParam parses the optional limit query parameter.
func limitParam(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			return limit
		}
	}
	return 0
}

// HandleListAccounts returns the full account directory.
func (h *Handler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	views, err := h.service.ListAccounts(ctx, middleware.GetClaims(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"accounts": views,
		"total":    len(views),
	})
}

// HandleAuthorize approves a pending account.
func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID, err := accountIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Authorize(ctx, middleware.GetClaims(ctx), accountID); err != nil {
		h.logger.WarnContext(ctx, "authorize refused",
			"error", err,
			"account_id", accountID,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "authorized"})
}

// HandleToggleBlock flips the block flag and reports the new value.
func (h *Handler) HandleToggleBlock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID, err := accountIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	blocked, err := h.service.ToggleBlock(ctx, middleware.GetClaims(ctx), accountID)
	if err != nil {
		h.logger.WarnContext(ctx, "block toggle refused",
			"error", err,
			"account_id", accountID,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"blocked": blocked})
}

// HandleResetPassword forces a temporary password onto the account. The
// temporary secret appears once in this response and is never stored in
// plain form.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID, err := accountIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	temporary, err := h.service.ResetPassword(ctx, middleware.GetClaims(ctx), accountID)
	if err != nil {
		h.logger.WarnContext(ctx, "password reset refused",
			"error", err,
			"account_id", accountID,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"temporary_password": temporary})
}

// HandleDeleteAccount removes the account entirely.
func (h *Handler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID, err := accountIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.DeleteAccount(ctx, middleware.GetClaims(ctx), accountID); err != nil {
		h.logger.WarnContext(ctx, "account delete refused",
			"error", err,
			"account_id", accountID,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleAccountAudit returns one account's audit trail, newest first.
func (h *Handler) HandleAccountAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID, err := accountIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.service.AccountAudit(ctx, middleware.GetClaims(ctx), accountID, limitParam(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"total":  len(events),
	})
}

// HandleRecentAudit returns the newest audit events across all accounts.
func (h *Handler) HandleRecentAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	events, err := h.service.RecentAudit(ctx, middleware.GetClaims(ctx), limitParam(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"total":  len(events),
	})
}
