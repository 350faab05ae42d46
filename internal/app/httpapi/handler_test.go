package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	app "github.com/taskflow-app/taskflow/internal/app"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	application := app.New(app.Stores{}, app.Config{JWTSecret: "test-secret"}, nil)
	srv := httptest.NewServer(NewHandler(application, nil))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	fields := map[string]json.RawMessage{}
	_ = json.NewDecoder(resp.Body).Decode(&fields)
	return resp, fields
}

func registerUser(t *testing.T, srv *httptest.Server, email string) string {
	t.Helper()
	resp, fields := doJSON(t, http.MethodPost, srv.URL+"/auth/register", "", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "s3cret-pass",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register returned %d", resp.StatusCode)
	}
	var token string
	if err := json.Unmarshal(fields["token"], &token); err != nil || token == "" {
		t.Fatalf("register returned no token: %v", err)
	}
	return token
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, fields := doJSON(t, http.MethodGet, srv.URL+"/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz returned %d", resp.StatusCode)
	}
	var status string
	if err := json.Unmarshal(fields["status"], &status); err != nil || status != "ok" {
		t.Fatalf("unexpected health payload: %v", fields)
	}
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)

	token := registerUser(t, srv, "alice@example.com")
	if token == "" {
		t.Fatal("empty token")
	}

	// Duplicate registration is rejected.
	resp, fields := doJSON(t, http.MethodPost, srv.URL+"/auth/register", "", map[string]string{
		"name": "Again", "email": "Alice@Example.com", "password": "whatever1",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate register returned %d", resp.StatusCode)
	}
	var msg string
	if err := json.Unmarshal(fields["message"], &msg); err != nil || msg != "user already exists" {
		t.Fatalf("unexpected duplicate message: %v", fields)
	}

	// Login with the right password succeeds, with the wrong one fails 400.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "s3cret-pass",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad login returned %d", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/habits", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token returned %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/habits", "not-a-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token returned %d", resp.StatusCode)
	}
}

func TestHabitLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "bob@example.com")

	resp, fields := doJSON(t, http.MethodPost, srv.URL+"/habits", token, map[string]string{"name": "Read"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create habit returned %d", resp.StatusCode)
	}
	var habitID string
	if err := json.Unmarshal(fields["id"], &habitID); err != nil || habitID == "" {
		t.Fatalf("habit id missing: %v", fields)
	}

	// Blank name is rejected.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/habits", token, map[string]string{"name": "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank habit name returned %d", resp.StatusCode)
	}

	// Toggle on, verify the date set, toggle off.
	resp, fields = doJSON(t, http.MethodPatch, srv.URL+"/habits/"+habitID+"/toggle", token, map[string]string{"date": "2026-01-15"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle returned %d", resp.StatusCode)
	}
	var dates []string
	if err := json.Unmarshal(fields["doneDates"], &dates); err != nil || len(dates) != 1 || dates[0] != "2026-01-15" {
		t.Fatalf("unexpected doneDates: %v", fields)
	}

	resp, _ = doJSON(t, http.MethodPatch, srv.URL+"/habits/"+habitID+"/toggle", token, map[string]string{"date": "2026-02-30"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid date toggle returned %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodPatch, srv.URL+"/habits/"+habitID+"/toggle", token, map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing date toggle returned %d", resp.StatusCode)
	}

	resp, fields = doJSON(t, http.MethodPatch, srv.URL+"/habits/"+habitID+"/toggle", token, map[string]string{"date": "2026-01-15"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("untoggle returned %d", resp.StatusCode)
	}
	if err := json.Unmarshal(fields["doneDates"], &dates); err != nil || len(dates) != 0 {
		t.Fatalf("expected empty doneDates after untoggle: %v", fields)
	}

	// Another user never sees, toggles, or deletes this habit.
	stranger := registerUser(t, srv, "mallory@example.com")
	resp, _ = doJSON(t, http.MethodPatch, srv.URL+"/habits/"+habitID+"/toggle", stranger, map[string]string{"date": "2026-01-15"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-user toggle returned %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/habits/"+habitID, stranger, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-user delete returned %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/habits/"+habitID, token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete returned %d", resp.StatusCode)
	}
}

func TestHabitMonthGrid(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "carol@example.com")

	_, fields := doJSON(t, http.MethodPost, srv.URL+"/habits", token, map[string]string{"name": "Run"})
	var habitID string
	if err := json.Unmarshal(fields["id"], &habitID); err != nil {
		t.Fatalf("habit id missing: %v", fields)
	}

	for _, d := range []string{"2026-01-12", "2026-01-13", "2026-01-14"} {
		resp, _ := doJSON(t, http.MethodPatch, srv.URL+"/habits/"+habitID+"/toggle", token, map[string]string{"date": d})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("toggle %s returned %d", d, resp.StatusCode)
		}
	}

	resp, fields := doJSON(t, http.MethodGet, srv.URL+"/habits/"+habitID+"/grid?year=2026&month=1", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("grid returned %d", resp.StatusCode)
	}
	var count, percent int
	if err := json.Unmarshal(fields["count"], &count); err != nil || count != 3 {
		t.Fatalf("unexpected count: %v", fields)
	}
	if err := json.Unmarshal(fields["percent"], &percent); err != nil || percent != 10 {
		t.Fatalf("unexpected percent: %v", fields)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/habits/"+habitID+"/grid?year=2026&month=13", token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad month returned %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/habits/"+habitID+"/grid", token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing query params returned %d", resp.StatusCode)
	}
}

func TestProjectAndTaskFlow(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "dave@example.com")

	resp, fields := doJSON(t, http.MethodPost, srv.URL+"/projects", token, map[string]string{
		"title": "Website", "description": "redesign", "startDate": "2026-03-01",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create project returned %d", resp.StatusCode)
	}
	var projectID string
	if err := json.Unmarshal(fields["id"], &projectID); err != nil || projectID == "" {
		t.Fatalf("project id missing: %v", fields)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/projects", token, map[string]string{
		"title": "Bad dates", "startDate": "03/01/2026",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad start date returned %d", resp.StatusCode)
	}

	resp, fields = doJSON(t, http.MethodPost, srv.URL+"/tasks", token, map[string]string{
		"projectId": projectID, "title": "wireframes",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create task returned %d", resp.StatusCode)
	}
	var taskID string
	if err := json.Unmarshal(fields["id"], &taskID); err != nil || taskID == "" {
		t.Fatalf("task id missing: %v", fields)
	}

	resp, fields = doJSON(t, http.MethodPatch, srv.URL+"/tasks/"+taskID, token, map[string]string{"status": "done"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update task returned %d", resp.StatusCode)
	}
	var status string
	if err := json.Unmarshal(fields["status"], &status); err != nil || status != "done" {
		t.Fatalf("unexpected status: %v", fields)
	}

	resp, fields = doJSON(t, http.MethodGet, srv.URL+"/tasks/summary/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary returned %d", resp.StatusCode)
	}
	var total, done int
	if err := json.Unmarshal(fields["total"], &total); err != nil || total != 1 {
		t.Fatalf("unexpected total: %v", fields)
	}
	if err := json.Unmarshal(fields["done"], &done); err != nil || done != 1 {
		t.Fatalf("unexpected done count: %v", fields)
	}

	// Deleting the project cascades to its tasks.
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/projects/"+projectID, token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete project returned %d", resp.StatusCode)
	}
	resp, fields = doJSON(t, http.MethodGet, srv.URL+"/tasks/summary/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary after cascade returned %d", resp.StatusCode)
	}
	if err := json.Unmarshal(fields["total"], &total); err != nil || total != 0 {
		t.Fatalf("expected empty summary after cascade: %v", fields)
	}
}
