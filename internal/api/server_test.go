package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agb-planner/planner/internal/config"
	"github.com/agb-planner/planner/internal/notify"
	"github.com/agb-planner/planner/internal/planner"
	"github.com/agb-planner/planner/internal/storage"
)

type testEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
	Code    string          `json:"code"`
}

func newTestServer(t *testing.T, auth config.AuthConfig) *Server {
	t.Helper()
	engine, err := notify.NewEngine(filepath.Join(t.TempDir(), "notifications.json"))
	require.NoError(t, err)
	svc := planner.New(storage.NewMemoryBackend(), planner.WithNotifier(engine))
	return New(svc, &Config{
		Auth:   auth,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func do(t *testing.T, srv *Server, method, path, body string, header ...string) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	var env testEnvelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func dataAs[T any](t *testing.T, env testEnvelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, config.AuthConfig{})

	w, env := do(t, srv, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	h := dataAs[map[string]any](t, env)
	assert.Equal(t, "ok", h["status"])
	assert.Equal(t, map[string]any{"backend": "memory", "usingFallback": false}, h["storage"])
}

func TestCORSHeaders(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, config.AuthConfig{})

	w, _ := do(t, srv, http.MethodGet, "/api/health", "")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks/abc", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, config.AuthConfig{})

	w, env := do(t, srv, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "API endpoint not found", env.Message)
}

func TestTeamEndpoints(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, config.AuthConfig{})

	w, env := do(t, srv, http.MethodPost, "/api/teams", `{"name":"Platform","isPublic":false}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Team created successfully", env.Message)
	team := dataAs[map[string]any](t, env)
	assert.Equal(t, "demo_user", team["owner"])
	id := team["id"].(string)

	w, env = do(t, srv, http.MethodPost, "/api/teams", `{"name":"Platform"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", env.Code)

	w, env = do(t, srv, http.MethodGet, "/api/teams/public", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Count)
	assert.Equal(t, 0, *env.Count)

	w, _ = do(t, srv, http.MethodPost, "/api/teams/"+id+"/members", `{"userId":"u1","name":"Asha"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w, env = do(t, srv, http.MethodPost, "/api/teams/"+id+"/members", `{"userId":"u1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = do(t, srv, http.MethodGet, "/api/teams/mine?userId=u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, *env.Count)

	w, env = do(t, srv, http.MethodDelete, "/api/teams/"+id+"/members", `{"userId":"u1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, dataAs[map[string]any](t, env)["members"])

	w, env = do(t, srv, http.MethodPut, "/api/teams/"+id, `{"description":"core services"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "core services", dataAs[map[string]any](t, env)["description"])

	w, _ = do(t, srv, http.MethodDelete, "/api/teams/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	w, env = do(t, srv, http.MethodGet, "/api/teams/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
}

func TestValidationListsEveryField(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, config.AuthConfig{})

	w, env := do(t, srv, http.MethodPost, "/api/tasks", `{"priority":"urgent"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", env.Code)
	assert.Len(t, env.Errors, 3, "title, project and priority")

	w, env = do(t, srv, http.MethodPost, "/api/tasks", `{"title":7,"estimatedHours":"x","tags":"a"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, env.Errors, 3)

	w, env = do(t, srv, http.MethodPost, "/api/tasks", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BAD_REQUEST", env.Code)

	w, _ = do(t, srv, http.MethodPost, "/api/tasks", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskLifecycleWithNotifications(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, config.AuthConfig{})

	_, env := do(t, srv, http.MethodPost, "/api/teams", `{"name":"Core"}`)
	teamID := dataAs[map[string]any](t, env)["id"].(string)
	_, env = do(t, srv, http.MethodPost, "/api/projects", `{"name":"Launch","team":"`+teamID+`"}`)
	projectID := dataAs[map[string]any](t, env)["id"].(string)

	w, env := do(t, srv, http.MethodPost, "/api/tasks", `{
		"title": "Ship release",
		"project": "`+projectID+`",
		"dueDate": "2026-03-01",
		"assignee": "u9",
		"mentionedMembers": [{"userId":"u1","name":"Asha","whatsappNumber":"98765 43210"}]
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := dataAs[map[string]any](t, env)
	taskID := created["id"].(string)
	links := created["notifications"].([]any)
	require.Len(t, links, 1)
	assert.Contains(t, links[0].(map[string]any)["whatsappLink"], "https://wa.me/919876543210?text=")

	w, env = do(t, srv, http.MethodPatch, "/api/tasks/"+taskID+"/status", `{"status":"in_review","note":"PR open"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, dataAs[map[string]any](t, env)["notifications"], 1)

	w, env = do(t, srv, http.MethodPut, "/api/tasks/"+taskID, `{"assignee":null,"dueDate":null}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := dataAs[map[string]any](t, env)
	assert.NotContains(t, updated, "assignee")
	assert.NotContains(t, updated, "dueDate")
	assert.NotContains(t, updated, "notifications", "status unchanged")

	w, env = do(t, srv, http.MethodPatch, "/api/tasks/"+taskID+"/complete", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, dataAs[map[string]any](t, env)["isCompleted"])

	w, env = do(t, srv, http.MethodGet, "/api/tasks/"+taskID+"/notifications", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, *env.Count)

	w, env = do(t, srv, http.MethodGet, "/api/notifications?userId=u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, *env.Count)

	w, env = do(t, srv, http.MethodGet, "/api/projects/"+projectID+"/tasks", "")
	require.Equal(t, http.StatusOK, w.Code)
	board := dataAs[map[string][]any](t, env)
	assert.Len(t, board["done"], 1)
	assert.Empty(t, board["todo"])

	w, env = do(t, srv, http.MethodGet, "/api/projects/"+projectID+"/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(100), dataAs[map[string]any](t, env)["progress"])

	w, env = do(t, srv, http.MethodGet, "/api/projects/"+projectID, "")
	require.Equal(t, http.StatusOK, w.Code)
	detail := dataAs[map[string]any](t, env)
	assert.Equal(t, "Core", detail["teamDetail"].(map[string]any)["name"])
	assert.Len(t, detail["taskList"], 1)

	w, env = do(t, srv, http.MethodPost, "/api/tasks/"+taskID+"/comments", `{"content":"nice"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataAs[map[string]any](t, env)["comments"], 1)

	w, env = do(t, srv, http.MethodPost, "/api/tasks/"+taskID+"/attachments", `{"filename":"notes.txt","url":"/uploads/notes.txt","fileSize":12}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataAs[map[string]any](t, env)["attachments"], 1)

	w, env = do(t, srv, http.MethodGet, "/api/tasks?projectId="+projectID+"&status=done", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, *env.Count)

	w, _ = do(t, srv, http.MethodDelete, "/api/tasks/"+taskID, "")
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, srv, http.MethodGet, "/api/tasks/"+taskID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMilestoneEndpoints(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, config.AuthConfig{})

	w, env := do(t, srv, http.MethodPost, "/api/milestones", `{
		"title":"Beta","project":"p1","team":"t1",
		"startDate":"2026-02-01","dueDate":"2026-02-20"
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := dataAs[map[string]any](t, env)["id"].(string)

	w, env = do(t, srv, http.MethodPost, "/api/milestones", `{"title":"Bad","project":"p1","team":"t1","startDate":"2026-02-10","dueDate":"2026-02-01"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Errors, "dueDate cannot be before startDate")

	do(t, srv, http.MethodPost, "/api/tasks", `{"title":"a","project":"p1","milestone":"`+id+`","status":"done"}`)
	do(t, srv, http.MethodPost, "/api/tasks", `{"title":"b","project":"p1","milestone":"`+id+`"}`)

	w, env = do(t, srv, http.MethodPost, "/api/milestones/"+id+"/progress", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(50), dataAs[map[string]any](t, env)["progress"])

	w, env = do(t, srv, http.MethodGet, "/api/milestones/timeline?teamId=t1", "")
	require.Equal(t, http.StatusOK, w.Code)
	tl := dataAs[map[string][]any](t, env)
	assert.Len(t, tl["2026-02"], 1)

	w, env = do(t, srv, http.MethodGet, "/api/milestones/timeline", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"teamId is required"}, env.Errors)

	w, _ = do(t, srv, http.MethodDelete, "/api/milestones/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	w, env = do(t, srv, http.MethodGet, "/api/tasks?milestoneId="+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, *env.Count)
}

func TestAuthenticatedCaller(t *testing.T) {
	t.Parallel()
	auth := config.AuthConfig{Secret: "test-secret"}
	srv := newTestServer(t, auth)

	token, err := NewAuthenticator(auth).Sign("u1", "Asha", time.Hour)
	require.NoError(t, err)

	w, env := do(t, srv, http.MethodPost, "/api/teams", `{"name":"Mine"}`, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	team := dataAs[map[string]any](t, env)
	assert.Equal(t, "u1", team["owner"])
	members := team["members"].([]any)
	require.Len(t, members, 1)
	assert.Equal(t, "lead", members[0].(map[string]any)["role"])

	w, env = do(t, srv, http.MethodGet, "/api/teams/mine", "", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, *env.Count)

	w, env = do(t, srv, http.MethodGet, "/api/teams", "", "Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", env.Code)

	w, _ = do(t, srv, http.MethodGet, "/api/teams", "")
	assert.Equal(t, http.StatusOK, w.Code, "missing token is anonymous")
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, config.AuthConfig{Secret: "s", Required: true})

	w, env := do(t, srv, http.MethodGet, "/api/teams", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)
}

func TestRemindersEndpoint(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, config.AuthConfig{})

	_, env := do(t, srv, http.MethodPost, "/api/teams", `{"name":"Core"}`)
	teamID := dataAs[map[string]any](t, env)["id"].(string)
	_, env = do(t, srv, http.MethodPost, "/api/projects", `{"name":"Launch","team":"`+teamID+`"}`)
	projectID := dataAs[map[string]any](t, env)["id"].(string)

	today := time.Now().UTC()
	day := func(offset int) string { return today.AddDate(0, 0, offset).Format(time.DateOnly) }

	w, _ := do(t, srv, http.MethodPost, "/api/tasks",
		`{"title":"Late","project":"`+projectID+`","dueDate":"2020-01-01","assignee":"u1"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w, _ = do(t, srv, http.MethodPost, "/api/tasks",
		`{"title":"Tomorrow","project":"`+projectID+`","dueDate":"`+day(1)+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w, _ = do(t, srv, http.MethodPost, "/api/milestones",
		`{"title":"Beta","project":"`+projectID+`","team":"`+teamID+`","startDate":"`+day(0)+`","dueDate":"`+day(10)+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w, _ = do(t, srv, http.MethodPost, "/api/milestones",
		`{"title":"GA","project":"`+projectID+`","team":"`+teamID+`","startDate":"`+day(0)+`","dueDate":"`+day(90)+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env = do(t, srv, http.MethodGet, "/api/reminders", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := dataAs[struct {
		DueTomorrow        []map[string]any `json:"dueTomorrow"`
		Overdue            []map[string]any `json:"overdue"`
		UpcomingMilestones []map[string]any `json:"upcomingMilestones"`
	}](t, env)
	require.Len(t, got.DueTomorrow, 1)
	assert.Equal(t, "Tomorrow", got.DueTomorrow[0]["title"])
	require.Len(t, got.Overdue, 1)
	assert.Equal(t, "Late", got.Overdue[0]["title"])
	require.Len(t, got.UpcomingMilestones, 1)
	assert.Equal(t, "Beta", got.UpcomingMilestones[0]["title"])
}
