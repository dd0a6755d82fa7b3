package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"collabhub/internal/auth"
	"collabhub/internal/httputil"
	"collabhub/internal/metrics"
	"collabhub/internal/project"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  Service
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewHandler(service Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
		metrics:  m,
	}
}

// RegisterRoutes mounts the team channel endpoints. Callers must wrap them in
// RequireAuth; the membership gate itself lives in the service.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/communication/{projectID}/messages", h.ListMessages)
	router.Post("/communication/{projectID}/messages", h.PostMessage)
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFrom(r.Context())

	projectID, err := strconv.Atoi(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	messages, err := h.service.ListMessages(r.Context(), projectID, principal)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, messages)
}

func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFrom(r.Context())

	projectID, err := strconv.Atoi(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		h.logger.Warn("validation failed", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, "Message text is required")
		return
	}

	message, err := h.service.PostMessage(r.Context(), projectID, principal, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.Domain.RecordMessagePosted(r.Context())

	httputil.RespondWithJSON(w, http.StatusCreated, message)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "Project not found")
	case errors.Is(err, ErrForbidden):
		h.metrics.Domain.RecordAccessDenied(r.Context(), "chat")
		httputil.RespondWithError(w, http.StatusForbidden, "Forbidden: only team members can access project communication")
	case errors.Is(err, ErrEmptyMessage):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("internal error", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
