package skill

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"collabhub/internal/auth"
	"collabhub/internal/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	repo     Repository
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(repo Repository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterRoutes registers the public master-list route.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/skills", h.GetAllSkills)
}

// RegisterProtectedRoutes registers the profile-skill routes; they need an
// authenticated caller.
func (h *Handler) RegisterProtectedRoutes(router chi.Router) {
	router.Get("/profile/skills", h.GetMySkills)
	router.Post("/profile/skills", h.AddMySkill)
	router.Delete("/profile/skills/{skillID}", h.RemoveMySkill)
}

func (h *Handler) GetAllSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := h.repo.GetAll(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch skills", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, skills)
}

func (h *Handler) GetMySkills(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFrom(r.Context())
	if principal == nil {
		httputil.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	skills, err := h.repo.GetStudentSkills(r.Context(), principal.StudentID)
	if err != nil {
		h.logger.Error("failed to fetch student skills", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, skills)
}

func (h *Handler) AddMySkill(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFrom(r.Context())
	if principal == nil {
		httputil.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req AddSkillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		h.logger.Warn("validation failed", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, "skill id, proficiency, and rating (0-5) are required")
		return
	}

	studentSkill := &StudentSkill{
		StudentID:   principal.StudentID,
		SkillID:     req.SkillID,
		Proficiency: req.Proficiency,
		Rating:      *req.Rating,
	}

	if err := h.repo.UpsertStudentSkill(r.Context(), studentSkill); err != nil {
		h.logger.Error("failed to upsert student skill", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, map[string]string{"status": "skill saved"})
}

func (h *Handler) RemoveMySkill(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFrom(r.Context())
	if principal == nil {
		httputil.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	skillID, err := strconv.Atoi(chi.URLParam(r, "skillID"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid skill ID")
		return
	}

	if err := h.repo.DeleteStudentSkill(r.Context(), principal.StudentID, skillID); err != nil {
		h.logger.Error("failed to remove student skill", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "skill removed"})
}
