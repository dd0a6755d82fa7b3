package chat_test

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
	"students",
}

func setupRouter(t *testing.T, db *bun.DB) chi.Router {
	t.Helper()

	log := logger.New()
	m := metrics.NewMock()

	projectRepo := project.NewRepository(db, m)
	projectService := project.NewService(projectRepo, nil, log)
	projectHandler := project.NewHandler(projectService, log, m)

	chatRepo := chat.NewRepository(db, m)
	chatService := chat.NewService(chatRepo, projectRepo, nil, log)
	chatHandler := chat.NewHandler(chatService, log, m)

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(log))
		projectHandler.RegisterProtectedRoutes(r)
		chatHandler.RegisterRoutes(r)
	})
	return router
}

func createStudent(t *testing.T, db *bun.DB, firstName, email string) *student.Student {
	t.Helper()

	s := &student.Student{
		FirstName: firstName,
		LastName:  "Tester",
		Email:     email,
		Password:  "irrelevant",
		Role:      student.RoleStudent,
	}
	_, err := db.NewInsert().Model(s).Exec(context.Background())
	require.NoError(t, err)
	return s
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

func createProject(t *testing.T, db *bun.DB, ownerID int) int {
	t.Helper()

	p := &project.Project{
		Title:       "Team Project",
		Description: "desc",
		Status:      project.StatusOpen,
		OwnerID:     ownerID,
	}
	_, err := db.NewInsert().Model(p).Exec(context.Background())
	require.NoError(t, err)
	return p.ID
}

func addMember(t *testing.T, db *bun.DB, projectID, studentID int) {
	t.Helper()

	member := &project.TeamMember{
		ProjectID: projectID,
		StudentID: studentID,
		Role:      "developer",
	}
	_, err := db.NewInsert().Model(member).Exec(context.Background())
	require.NoError(t, err)
}

func TestTeamCommunication(t *testing.T) {
	t.Setenv("JWT_SECRET", "integration-test-secret")

	pg := testdb.SetupSharedPostgres(t)
	defer pg.Cleanup(t)

	pg.RunMigrations(t,
		(*student.Student)(nil),
		(*project.Project)(nil),
		(*project.RequiredSkill)(nil),
		(*project.TeamMember)(nil),
		(*project.Application)(nil),
		(*chat.Message)(nil),
	)

	router := setupRouter(t, pg.DB)

	t.Run("MembershipGate", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, allTables...)

		owner := createStudent(t, pg.DB, "Alice", "alice@example.com")
		member := createStudent(t, pg.DB, "Bob", "bob@example.com")
		outsider := createStudent(t, pg.DB, "Carol", "carol@example.com")

		projectID := createProject(t, pg.DB, owner.ID)
		addMember(t, pg.DB, projectID, member.ID)
		messagesPath := fmt.Sprintf("/communication/%d/messages", projectID)
		payload := map[string]interface{}{"message_text": "hello team"}

		// Owner and member get through; the owner needs no membership row.
		w := doRequest(t, router, http.MethodPost, messagesPath, tokenFor(t, owner), payload)
		assert.Equal(t, http.StatusCreated, w.Code)
		w = doRequest(t, router, http.MethodGet, messagesPath, tokenFor(t, owner), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = doRequest(t, router, http.MethodPost, messagesPath, tokenFor(t, member), payload)
		assert.Equal(t, http.StatusCreated, w.Code)
		w = doRequest(t, router, http.MethodGet, messagesPath, tokenFor(t, member), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		// An applicant-less outsider is rejected on both directions.
		w = doRequest(t, router, http.MethodPost, messagesPath, tokenFor(t, outsider), payload)
		assert.Equal(t, http.StatusForbidden, w.Code)
		w = doRequest(t, router, http.MethodGet, messagesPath, tokenFor(t, outsider), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		// Guests never reach the gate.
		w = doRequest(t, router, http.MethodGet, messagesPath, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("EmptyMessageRejected", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, allTables...)

		owner := createStudent(t, pg.DB, "Alice", "alice@example.com")
		projectID := createProject(t, pg.DB, owner.ID)
		messagesPath := fmt.Sprintf("/communication/%d/messages", projectID)

		w := doRequest(t, router, http.MethodPost, messagesPath, tokenFor(t, owner), map[string]interface{}{
			"message_text": "",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		// Whitespace-only counts as empty.
		w = doRequest(t, router, http.MethodPost, messagesPath, tokenFor(t, owner), map[string]interface{}{
			"message_text": "   \n\t",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ProjectNotFound", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, allTables...)

		owner := createStudent(t, pg.DB, "Alice", "alice@example.com")

		w := doRequest(t, router, http.MethodGet, "/communication/99999/messages", tokenFor(t, owner), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("TranscriptOrder", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, allTables...)

		owner := createStudent(t, pg.DB, "Alice", "alice@example.com")
		member := createStudent(t, pg.DB, "Bob", "bob@example.com")
		projectID := createProject(t, pg.DB, owner.ID)
		addMember(t, pg.DB, projectID, member.ID)
		messagesPath := fmt.Sprintf("/communication/%d/messages", projectID)

		for i, text := range []string{"first", "second", "third"} {
			var token string
			if i%2 == 0 {
				token = tokenFor(t, owner)
			} else {
				token = tokenFor(t, member)
			}
			w := doRequest(t, router, http.MethodPost, messagesPath, token, map[string]interface{}{
				"message_text": text,
			})
			require.Equal(t, http.StatusCreated, w.Code)
		}

		w := doRequest(t, router, http.MethodGet, messagesPath, tokenFor(t, owner), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var messages []chat.MessageView
		require.NoError(t, json.NewDecoder(w.Body).Decode(&messages))
		require.Len(t, messages, 3)
		assert.Equal(t, "first", messages[0].Text)
		assert.Equal(t, "second", messages[1].Text)
		assert.Equal(t, "third", messages[2].Text)
		assert.Equal(t, "Alice", messages[0].FirstName)
		assert.Equal(t, "Bob", messages[1].FirstName)
	})

	// Full workflow: apply, accept, then the fresh member can chat.
	t.Run("AcceptedApplicantGainsAccess", func(t *testing.T) {
		testdb.CleanupTables(t, pg.DB, allTables...)

		owner := createStudent(t, pg.DB, "Alice", "alice@example.com")
		applicant := createStudent(t, pg.DB, "Bob", "bob@example.com")
		projectID := createProject(t, pg.DB, owner.ID)
		messagesPath := fmt.Sprintf("/communication/%d/messages", projectID)

		w := doRequest(t, router, http.MethodGet, messagesPath, tokenFor(t, applicant), nil)
		require.Equal(t, http.StatusForbidden, w.Code)

		w = doRequest(t, router, http.MethodPost, fmt.Sprintf("/projects/%d/apply", projectID), tokenFor(t, applicant), nil)
		require.Equal(t, http.StatusCreated, w.Code)

		// Applying alone grants nothing.
		w = doRequest(t, router, http.MethodGet, messagesPath, tokenFor(t, applicant), nil)
		require.Equal(t, http.StatusForbidden, w.Code)

		var application project.Application
		err := pg.DB.NewSelect().Model(&application).Where("pa.project_id = ?", projectID).Scan(context.Background())
		require.NoError(t, err)

		w = doRequest(t, router, http.MethodPost, "/projects/applications/accept", tokenFor(t, owner), map[string]interface{}{
			"application_id": application.ID,
			"role":           "frontend developer",
		})
		require.Equal(t, http.StatusOK, w.Code)

		// Membership state is re-read per request, so access is immediate.
		w = doRequest(t, router, http.MethodPost, messagesPath, tokenFor(t, applicant), map[string]interface{}{
			"message_text": "thanks for having me",
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		w = doRequest(t, router, http.MethodGet, messagesPath, tokenFor(t, applicant), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var messages []chat.MessageView
		require.NoError(t, json.NewDecoder(w.Body).Decode(&messages))
		require.Len(t, messages, 1)
		assert.Equal(t, applicant.ID, messages[0].SenderID)
	})
}
