package project_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"collabhub/internal/auth"
	"collabhub/internal/chat"
	"collabhub/internal/logger"
	"collabhub/internal/metrics"
	"collabhub/internal/project"
	"collabhub/internal/skill"
	"collabhub/internal/student"
	"collabhub/internal/testdb"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

var allTables = []string{
	"project_messages",
	"project_team_members",
	"project_applications",
	"project_required_skills",
	"projects",
	"student_skills",
	"skills",
	"students",
}

func setupRouter(t *testing.T, db *bun.DB) chi.Router {
	t.Helper()

	log := logger.New()
	m := metrics.NewMock()

	repo := project.NewRepository(db, m)
	service := project.NewService(repo, nil, log)
	handler := project.NewHandler(service, log, m)

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(auth.Identify(log))
		handler.RegisterPublicRoutes(r)
	})
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(log))
		handler.RegisterProtectedRoutes(r)
	})
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(log))
		r.Use(auth.RequireAdmin(log))
		handler.RegisterAdminRoutes(r)
	})
	return router
}

func createStudent(t *testing.T, db *bun.DB, firstName, email, role string) *student.Student {
	t.Helper()

	s := &student.Student{
		FirstName: firstName,
		LastName:  "Tester",
		Email:     email,
		Password:  "irrelevant",
		Role:      role,
	}
	_, err := db.NewInsert().Model(s).Exec(context.Background())
	require.NoError(t, err)
	return s
}

func createSkill(t *testing.T, db *bun.DB, name string) *skill.Skill {
	t.Helper()

	sk := &skill.Skill{Name: name}
	_, err := db.NewInsert().Model(sk).Exec(context.Background())
	require.NoError(t, err)
	return sk
}

func tokenFor(t *testing.T, s *student.Student) string {
	t.Helper()

	token, err := auth.GenerateAccessToken(s.ID, s.Email, s.Role)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, router chi.Router, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createProject(t *testing.T, router chi.Router, token string, title string, skillIDs ...int) int {
	t.Helper()

	requiredSkills := []map[string]interface{}{}
	for _, id := range skillIDs {
		requiredSkills = append(requiredSkills, map[string]interface{}{
			"skill_id":             id,
			"required_proficiency": "intermediate",
		})
	}

	w := doRequest(t, router, http.MethodPost, "/projects", token, map[string]interface{}{
		"title":          title,
		"description":    "A test project",
		"status":         "open",
		"requiredSkills": requiredSkills,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ProjectID int `json:"projectId"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotZero(t, resp.ProjectID)
	return resp.ProjectID
}

func TestProjectLifecycle(t *testing.T) {
	t.Setenv("JWT_SECRET", "integration-test-secret")

	pg := testdb.SetupSharedPostgres(t)
	defer pg.Cleanup(t)

	pg.RunMigrations(t,
		(*student.Student)(nil),
		(*skill.Skill)(nil),
		(*skill.StudentSkill)(nil),
		(*project.Project)(nil),
		(*project.RequiredSkill)(nil),
		(*project.TeamMember)(nil),
		(*project.Application)(nil),
		(*chat.Message)(nil),
	)

	router := setupRouter(t, pg.DB)

	t.Run("CreateAndGetDetail", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, allTables...)

		owner := createStudent(t, pg.DB, "Alice", "alice@example.com", student.RoleStudent)
		goSkill := createSkill(t, pg.DB, "Go")
		sqlSkill := createSkill(t, pg.DB, "SQL")

		projectID := createProject(t, router, tokenFor(t, owner), "Campus Marketplace", goSkill.ID, sqlSkill.ID)

		w := doRequest(t, router, http.MethodGet, fmt.Sprintf("/projects/%d", projectID), "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var detail project.Detail
		require.NoError(t, json.NewDecoder(w.Body).Decode(&detail))
		assert.Equal(t, "Campus Marketplace", detail.Title)
		assert.Equal(t, project.StatusOpen, detail.Status)
		assert.Equal(t, owner.ID, detail.OwnerID)
		assert.Equal(t, "Alice", detail.CreatorFirstName)
		assert.Len(t, detail.RequiredSkills, 2)
		assert.Empty(t, detail.TeamMembers)
	})

	t.Run("CreateValidation", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, allTables...)

		owner := createStudent(t, pg.DB, "Alice", "alice@example.com", student.RoleStudent)
		token := tokenFor(t, owner)

		w := doRequest(t, router, http.MethodPost, "/projects", token, map[string]interface{}{
			"title": "Missing everything else",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doRequest(t, router, http.MethodPost, "/projects", token, map[string]interface{}{
			"title":          "Bad status",
			"description":    "desc",
			"status":         "archived",
			"requiredSkills": []map[string]interface{}{},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		// Omitting requiredSkills entirely is rejected.
		w = doRequest(t, router, http.MethodPost, "/projects", token, map[string]interface{}{
			"title":       "No skills key",
			"description": "desc",
			"status":      "open",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		// An explicit empty list is accepted.
		w = doRequest(t, router, http.MethodPost, "/projects", token, map[string]interface{}{
			"title":          "Empty skills list",
			"description":    "desc",
			"status":         "open",
			"requiredSkills": []map[string]interface{}{},
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		w = doRequest(t, router, http.MethodPost, "/projects", "", map[string]interface{}{})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, allTables...)

		w := doRequest(t, router, http.MethodGet, "/projects/99999", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doRequest(t, router, http.MethodGet, "/projects/abc", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ListingSelfFilters", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, allTables...)

		owner := createStudent(t, pg.DB, "Alice", "alice@example.com", student.RoleStudent)
		browser := createStudent(t, pg.DB, "Bob", "bob@example.com", student.RoleStudent)

		first := createProject(t, router, tokenFor(t, owner), "First")
		second := createProject(t, router, tokenFor(t, owner), "Second")

		// Guests see everything.
		w := doRequest(t, router, http.MethodGet, "/projects", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var summaries []project.Summary
		require.NoError(t, json.NewDecoder(w.Body).Decode(&summaries))
		assert.Len(t, summaries, 2)

		// After applying to one project, it drops out of Bob's listing.
		w = doRequest(t, router, http.MethodPost, fmt.Sprintf("/projects/%d/apply", first), tokenFor(t, browser), nil)
		require.Equal(t, http.StatusCreated, w.Code)

		w = doRequest(t, router, http.MethodGet, "/projects", tokenFor(t, browser), nil)
		require.Equal(t, http.StatusOK, w.Code)
		summaries = nil
		require.NoError(t, json.NewDecoder(w.Body).Decode(&summaries))
		require.Len(t, summaries, 1)
		assert.Equal(t, second, summaries[0].ProjectID)

		// The applied project stays fetchable by id.
		w = doRequest(t, router, http.MethodGet, fmt.Sprintf("/projects/%d", first), tokenFor(t, browser), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("UpdateOwnership", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, allTables...)

		owner := createStudent(t, pg.DB, "Alice", "alice@example.com", student.RoleStudent)
		other := createStudent(t, pg.DB, "Bob", "bob@example.com", student.RoleStudent)

		projectID := createProject(t, router, tokenFor(t, owner), "Original Title")

		update := map[string]interface{}{
			"title":       "New Title",
			"description": "Updated description",
			"status":      "in_progress",
		}

		w := doRequest(t, router, http.MethodPut, fmt.Sprintf("/projects/%d", projectID), tokenFor(t, other), update)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = doRequest(t, router, http.MethodPut, fmt.Sprintf("/projects/%d", projectID), "", update)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = doRequest(t, router, http.MethodPut, fmt.Sprintf("/projects/%d", projectID), tokenFor(t, owner), update)
		require.Equal(t, http.StatusOK, w.Code)

		w = doRequest(t, router, http.MethodGet, fmt.Sprintf("/projects/%d", projectID), "", nil)
		var detail project.Detail
		require.NoError(t, json.NewDecoder(w.Body).Decode(&detail))
		assert.Equal(t, "New Title", detail.Title)
		assert.Equal(t, project.StatusInProgress, detail.Status)

		w = doRequest(t, router, http.MethodPut, "/projects/99999", tokenFor(t, owner), update)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("DeleteOwnership", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, allTables...)

		owner := createStudent(t, pg.DB, "Alice", "alice@example.com", student.RoleStudent)
		other := createStudent(t, pg.DB, "Bob", "bob@example.com", student.RoleStudent)

		projectID := createProject(t, router, tokenFor(t, owner), "Doomed")

		w := doRequest(t, router, http.MethodDelete, fmt.Sprintf("/projects/%d", projectID), tokenFor(t, other), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = doRequest(t, router, http.MethodDelete, fmt.Sprintf("/projects/%d", projectID), tokenFor(t, owner), nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doRequest(t, router, http.MethodGet, fmt.Sprintf("/projects/%d", projectID), "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("DeleteCascades", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, allTables...)

		owner := createStudent(t, pg.DB, "Alice", "alice@example.com", student.RoleStudent)
		applicant := createStudent(t, pg.DB, "Bob", "bob@example.com", student.RoleStudent)
		goSkill := createSkill(t, pg.DB, "Go")

		projectID := createProject(t, router, tokenFor(t, owner), "Doomed", goSkill.ID)

		w := doRequest(t, router, http.MethodPost, fmt.Sprintf("/projects/%d/apply", projectID), tokenFor(t, applicant), nil)
		require.Equal(t, http.StatusCreated, w.Code)

		w = doRequest(t, router, http.MethodDelete, fmt.Sprintf("/projects/%d", projectID), tokenFor(t, owner), nil)
		require.Equal(t, http.StatusOK, w.Code)

		ctx := context.Background()
		count, err := pg.DB.NewSelect().Model((*project.Application)(nil)).Where("project_id = ?", projectID).Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)

		count, err = pg.DB.NewSelect().Model((*project.RequiredSkill)(nil)).Where("project_id = ?", projectID).Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("AdminDelete", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, allTables...)

		owner := createStudent(t, pg.DB, "Alice", "alice@example.com", student.RoleStudent)
		adm := createStudent(t, pg.DB, "Root", "root@example.com", student.RoleAdmin)

		projectID := createProject(t, router, tokenFor(t, owner), "Flagged")

		// Ownership does not grant access to the admin route.
		w := doRequest(t, router, http.MethodDelete, fmt.Sprintf("/projects/admin/%d", projectID), tokenFor(t, owner), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = doRequest(t, router, http.MethodDelete, fmt.Sprintf("/projects/admin/%d", projectID), tokenFor(t, adm), nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doRequest(t, router, http.MethodDelete, "/projects/admin/99999", tokenFor(t, adm), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("ApplyRules", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, allTables...)

		owner := createStudent(t, pg.DB, "Alice", "alice@example.com", student.RoleStudent)
		applicant := createStudent(t, pg.DB, "Bob", "bob@example.com", student.RoleStudent)

		projectID := createProject(t, router, tokenFor(t, owner), "Hiring")
		applyPath := fmt.Sprintf("/projects/%d/apply", projectID)

		// Owners cannot apply to their own project.
		w := doRequest(t, router, http.MethodPost, applyPath, tokenFor(t, owner), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = doRequest(t, router, http.MethodPost, applyPath, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = doRequest(t, router, http.MethodPost, applyPath, tokenFor(t, applicant), nil)
		assert.Equal(t, http.StatusCreated, w.Code)

		// Second application hits the uniqueness constraint.
		w = doRequest(t, router, http.MethodPost, applyPath, tokenFor(t, applicant), nil)
		assert.Equal(t, http.StatusConflict, w.Code)

		w = doRequest(t, router, http.MethodPost, "/projects/99999/apply", tokenFor(t, applicant), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("ApplicationsVisibleToOwnerOnly", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, allTables...)

		owner := createStudent(t, pg.DB, "Alice", "alice@example.com", student.RoleStudent)
		applicant := createStudent(t, pg.DB, "Bob", "bob@example.com", student.RoleStudent)

		projectID := createProject(t, router, tokenFor(t, owner), "Hiring")
		listPath := fmt.Sprintf("/projects/%d/applications", projectID)

		w := doRequest(t, router, http.MethodPost, fmt.Sprintf("/projects/%d/apply", projectID), tokenFor(t, applicant), nil)
		require.Equal(t, http.StatusCreated, w.Code)

		w = doRequest(t, router, http.MethodGet, listPath, tokenFor(t, applicant), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = doRequest(t, router, http.MethodGet, listPath, tokenFor(t, owner), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var applications []project.ApplicationView
		require.NoError(t, json.NewDecoder(w.Body).Decode(&applications))
		require.Len(t, applications, 1)
		assert.Equal(t, applicant.ID, applications[0].StudentID)
		assert.Equal(t, "Bob", applications[0].FirstName)
		assert.Equal(t, "bob@example.com", applications[0].Email)
	})

	t.Run("AcceptCreatesMembership", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, allTables...)

		owner := createStudent(t, pg.DB, "Alice", "alice@example.com", student.RoleStudent)
		applicant := createStudent(t, pg.DB, "Bob", "bob@example.com", student.RoleStudent)

		projectID := createProject(t, router, tokenFor(t, owner), "Hiring")

		w := doRequest(t, router, http.MethodPost, fmt.Sprintf("/projects/%d/apply", projectID), tokenFor(t, applicant), nil)
		require.Equal(t, http.StatusCreated, w.Code)

		w = doRequest(t, router, http.MethodGet, fmt.Sprintf("/projects/%d/applications", projectID), tokenFor(t, owner), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var applications []project.ApplicationView
		require.NoError(t, json.NewDecoder(w.Body).Decode(&applications))
		require.Len(t, applications, 1)

		accept := map[string]interface{}{
			"application_id": applications[0].ApplicationID,
			"role":           "backend developer",
		}

		// Only the owner can accept.
		w = doRequest(t, router, http.MethodPost, "/projects/applications/accept", tokenFor(t, applicant), accept)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = doRequest(t, router, http.MethodPost, "/projects/applications/accept", tokenFor(t, owner), accept)
		require.Equal(t, http.StatusOK, w.Code)

		// The applicant now shows up on the team.
		w = doRequest(t, router, http.MethodGet, fmt.Sprintf("/projects/%d", projectID), "", nil)
		var detail project.Detail
		require.NoError(t, json.NewDecoder(w.Body).Decode(&detail))
		require.Len(t, detail.TeamMembers, 1)
		assert.Equal(t, applicant.ID, detail.TeamMembers[0].StudentID)
		assert.Equal(t, "backend developer", detail.TeamMembers[0].Role)

		// Members cannot apply again.
		w = doRequest(t, router, http.MethodPost, fmt.Sprintf("/projects/%d/apply", projectID), tokenFor(t, applicant), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		// A second accept of the same application conflicts.
		w = doRequest(t, router, http.MethodPost, "/projects/applications/accept", tokenFor(t, owner), accept)
		assert.Equal(t, http.StatusConflict, w.Code)

		// The project is now in the applicant's participating dashboard.
		w = doRequest(t, router, http.MethodGet, "/profile/projects/participating", tokenFor(t, applicant), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var participating []project.Summary
		require.NoError(t, json.NewDecoder(w.Body).Decode(&participating))
		require.Len(t, participating, 1)
		assert.Equal(t, projectID, participating[0].ProjectID)
	})

	t.Run("Dashboards", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, allTables...)

		owner := createStudent(t, pg.DB, "Alice", "alice@example.com", student.RoleStudent)
		other := createStudent(t, pg.DB, "Bob", "bob@example.com", student.RoleStudent)

		mine := createProject(t, router, tokenFor(t, owner), "Mine")
		createProject(t, router, tokenFor(t, other), "Theirs")

		w := doRequest(t, router, http.MethodGet, "/profile/projects/created", tokenFor(t, owner), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var created []project.Summary
		require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
		require.Len(t, created, 1)
		assert.Equal(t, mine, created[0].ProjectID)

		w = doRequest(t, router, http.MethodGet, "/profile/projects/participating", tokenFor(t, owner), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var participating []project.Summary
		require.NoError(t, json.NewDecoder(w.Body).Decode(&participating))
		assert.Empty(t, participating, "owned projects are not listed as participating")
	})
}
