package project

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"collabhub/internal/auth"
	"collabhub/internal/httputil"
	"collabhub/internal/metrics"

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

// RegisterPublicRoutes expects the caller to have applied the Identify
// middleware so the listing can self-filter for logged-in students.
func (h *Handler) RegisterPublicRoutes(router chi.Router) {
	router.Get("/projects", h.ListProjects)
	router.Get("/projects/{id}", h.GetProject)
}

func (h *Handler) RegisterProtectedRoutes(router chi.Router) {
	router.Post("/projects", h.CreateProject)
	router.Put("/projects/{id}", h.UpdateProject)
	router.Delete("/projects/{id}", h.DeleteProject)
	router.Post("/projects/{id}/apply", h.Apply)
	router.Get("/projects/{id}/applications", h.ListApplications)
	router.Post("/projects/applications/accept", h.AcceptApplication)
	router.Get("/profile/projects/created", h.ListMyCreatedProjects)
	router.Get("/profile/projects/participating", h.ListMyParticipatingProjects)
}

func (h *Handler) RegisterAdminRoutes(router chi.Router) {
	router.Delete("/projects/admin/{id}", h.AdminDeleteProject)
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFrom(r.Context())

	projects, err := h.service.ListProjects(r.Context(), principal)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, projects)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	detail, err := h.service.GetProject(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, detail)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFrom(r.Context())

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		h.logger.Warn("validation failed", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, "Please provide all project details")
		return
	}

	h.logger.InfoContext(r.Context(), "creating project", "title", req.Title)
	project, err := h.service.CreateProject(r.Context(), principal, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.Domain.RecordProjectCreated(r.Context())

	httputil.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Project created successfully",
		"projectId": project.ID,
	})
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFrom(r.Context())

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		h.logger.Warn("validation failed", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, "Title, description, and status are required")
		return
	}

	h.logger.InfoContext(r.Context(), "updating project", "project_id", id)
	if err := h.service.UpdateProject(r.Context(), id, principal, req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Project updated successfully"})
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFrom(r.Context())

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	h.logger.InfoContext(r.Context(), "deleting project", "project_id", id)
	if err := h.service.DeleteProject(r.Context(), id, principal); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.Domain.RecordProjectDeleted(r.Context(), false)

	httputil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Project deleted successfully"})
}

func (h *Handler) AdminDeleteProject(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFrom(r.Context())

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	h.logger.InfoContext(r.Context(), "admin deleting project", "project_id", id)
	if err := h.service.DeleteProjectAsAdmin(r.Context(), id, principal); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.Domain.RecordProjectDeleted(r.Context(), true)

	httputil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Project deleted successfully by admin"})
}

func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFrom(r.Context())

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	h.logger.InfoContext(r.Context(), "applying to project", "project_id", id)
	if _, err := h.service.Apply(r.Context(), id, principal); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.Domain.RecordApplicationSubmitted(r.Context())

	httputil.RespondWithJSON(w, http.StatusCreated, map[string]string{"message": "Application submitted successfully"})
}

func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFrom(r.Context())

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	applications, err := h.service.ListApplications(r.Context(), id, principal)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, applications)
}

func (h *Handler) AcceptApplication(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFrom(r.Context())

	var req AcceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		h.logger.Warn("validation failed", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, "Application ID and role are required")
		return
	}

	h.logger.InfoContext(r.Context(), "accepting application", "application_id", req.ApplicationID)
	if err := h.service.AcceptApplication(r.Context(), principal, req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.Domain.RecordApplicationAccepted(r.Context())

	httputil.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Application accepted and student added to the team",
	})
}

func (h *Handler) ListMyCreatedProjects(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFrom(r.Context())

	projects, err := h.service.ListCreatedBy(r.Context(), principal)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, projects)
}

func (h *Handler) ListMyParticipatingProjects(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFrom(r.Context())

	projects, err := h.service.ListParticipating(r.Context(), principal)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, projects)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrProjectNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "Project not found")
	case errors.Is(err, ErrApplicationNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "Application not found")
	case errors.Is(err, ErrOwnProject):
		h.metrics.Domain.RecordAccessDenied(r.Context(), "apply")
		httputil.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrForbidden):
		h.metrics.Domain.RecordAccessDenied(r.Context(), r.Method+" "+r.URL.Path)
		httputil.RespondWithError(w, http.StatusForbidden, "Forbidden: you do not have permission for this resource")
	case errors.Is(err, ErrDuplicateApplication), errors.Is(err, ErrAlreadyMember):
		httputil.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidStatus):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("internal error", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
