package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"deployer/deployerd/baseserver"
	"deployer/internals/conf"
	"deployer/internals/env"
	"deployer/internals/logbuf"
	"deployer/internals/notify"
	"deployer/internals/pages"
	"deployer/internals/schemas"
	"deployer/internals/testutil"
	"deployer/internals/worktree"
)

// fakeHost stands in for the git/gh publishing backend so the pipeline can run
// end to end without shelling out.
type fakeHost struct {
	pagesURL     string
	publishCount atomic.Int64
	pagesCount   atomic.Int64
}

func (h *fakeHost) Publish(dir string, name string) (string, error) {
	h.publishCount.Add(1)
	return "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef", nil
}

func (h *fakeHost) EnablePages(name string) error {
	h.pagesCount.Add(1)
	return nil
}

func (h *fakeHost) RepoURL(name string) string {
	return "https://github.com/octocat/" + name
}

func (h *fakeHost) PagesURL(name string) string {
	return h.pagesURL
}

func newTestServer(t *testing.T, host *fakeHost) (*Server, string) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	store, err := newRunStore(testutil.TempDBPath(t))
	if err != nil {
		t.Fatalf("newRunStore: %v", err)
	}

	workRoot := testutil.TempWorkRoot(t)

	notifier := notify.NewNotifier(2, logger)
	notifier.BackoffBase = 5 * time.Millisecond

	server := &Server{
		Base: &baseserver.BaseServer{
			Config: &conf.Config{Version: "test-version"},
			Env: &env.EnvStruct{
				PROJECT_SECRET:   "hush",
				GITHUB_USER:      "octocat",
				GIT_AUTHOR_NAME:  "octocat",
				GIT_AUTHOR_EMAIL: "octocat@users.noreply.github.com",
				BASE_URL:         "http://localhost",
				LISTEN_ADDR:      "localhost:0",
			},
			Logger: logger,
		},
		Logbuf:    logbuf.New(),
		runs:      newRunManager(store, logger),
		Worktree:  worktree.NewBuilder(workRoot, "octocat", logger),
		Publisher: host,
		Pages:     pages.NewPoller(200*time.Millisecond, 10*time.Millisecond, logger),
		Notifier:  notifier,
	}
	return server, workRoot
}

func submissionBody(t *testing.T, submission schemas.TaskSubmission) *bytes.Buffer {
	data, err := json.Marshal(submission)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewBuffer(data)
}

func TestHTTPSubmitPipelineSuccess(t *testing.T) {
	notified := make(chan schemas.NotificationPayload, 1)
	evalServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload schemas.NotificationPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		notified <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer evalServer.Close()

	pagesServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer pagesServer.Close()

	host := &fakeHost{pagesURL: pagesServer.URL}
	server, workRoot := newTestServer(t, host)

	client := httptest.NewServer(server.Router())
	defer client.Close()

	submission := schemas.TaskSubmission{
		Email:         "student@example.com",
		Secret:        "hush",
		Task:          "landing-page",
		Round:         1,
		Nonce:         "nonce-1",
		Brief:         "Build a landing page",
		EvaluationURL: evalServer.URL,
		Attachments: []schemas.Attachment{
			{Name: "a.txt", URL: "data:text/plain;base64,YQ=="},
		},
	}

	resp, err := http.Post(client.URL+"/api", "application/json", submissionBody(t, submission))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	var ack schemas.SubmissionAck
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ack.Status != "ok" || ack.Task != "landing-page" || ack.Round != 1 {
		t.Fatalf("unexpected ack: %+v", ack)
	}

	select {
	case payload := <-notified:
		if payload.Task != "landing-page" || payload.Nonce != "nonce-1" {
			t.Fatalf("unexpected notification: %+v", payload)
		}
		if payload.CommitSHA != "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef" {
			t.Fatalf("unexpected commit sha: %s", payload.CommitSHA)
		}
		if payload.RepoURL == "" || payload.PagesURL != pagesServer.URL {
			t.Fatalf("unexpected urls: %+v", payload)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout waiting for notification")
	}

	if host.publishCount.Load() != 1 || host.pagesCount.Load() != 1 {
		t.Fatalf("expected one publish and one pages call, got %d/%d", host.publishCount.Load(), host.pagesCount.Load())
	}

	name := worktree.DeriveName(submission.Task, submission.Brief, submission.Attachments)
	staged := filepath.Join(workRoot, name)
	data, err := os.ReadFile(filepath.Join(staged, "a.txt"))
	if err != nil {
		t.Fatalf("read attachment: %v", err)
	}
	if string(data) != "a" {
		t.Fatalf("unexpected attachment content: %q", string(data))
	}
	if _, err := os.Stat(filepath.Join(staged, "index.html")); err != nil {
		t.Fatalf("expected index.html: %v", err)
	}
}

func TestHTTPSubmitWrongSecret(t *testing.T) {
	host := &fakeHost{}
	server, _ := newTestServer(t, host)

	client := httptest.NewServer(server.Router())
	defer client.Close()

	submission := schemas.TaskSubmission{
		Email:         "student@example.com",
		Secret:        "wrong",
		Task:          "landing-page",
		Round:         1,
		Nonce:         "nonce-1",
		Brief:         "Build a landing page",
		EvaluationURL: "http://localhost/notify",
	}

	resp, err := http.Post(client.URL+"/api", "application/json", submissionBody(t, submission))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.StatusCode)
	}
	var payload ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Code != JsonResponseErrorCodeAuthRequired {
		t.Fatalf("expected auth_required, got %s", payload.Code)
	}
	if host.publishCount.Load() != 0 {
		t.Fatalf("expected no publish calls")
	}
}

func TestHTTPSubmitValidation(t *testing.T) {
	server, _ := newTestServer(t, &fakeHost{})

	client := httptest.NewServer(server.Router())
	defer client.Close()

	// Missing brief and evaluation_url, round out of range.
	body := `{"email":"a@b.c","secret":"hush","task":"landing-page","round":3,"nonce":"n"}`
	resp, err := http.Post(client.URL+"/api", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
	var payload ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Code != JsonResponseErrorCodeValidationFailed {
		t.Fatalf("expected validation_failed, got %s", payload.Code)
	}
	if len(payload.Errors) == 0 {
		t.Fatalf("expected field errors")
	}
}

func TestHTTPSubmitInvalidJSON(t *testing.T) {
	server, _ := newTestServer(t, &fakeHost{})

	client := httptest.NewServer(server.Router())
	defer client.Close()

	resp, err := http.Post(client.URL+"/api", "application/json", bytes.NewBufferString("{"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
}

func TestHTTPHealth(t *testing.T) {
	server, _ := newTestServer(t, &fakeHost{})

	client := httptest.NewServer(server.Router())
	defer client.Close()

	resp, err := http.Get(client.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	var payload schemas.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Status != "ok" || payload.Mode != "local" || payload.GithubUser != "octocat" {
		t.Fatalf("unexpected health payload: %+v", payload)
	}
}

func TestHTTPRunStatus(t *testing.T) {
	server, _ := newTestServer(t, &fakeHost{})

	client := httptest.NewServer(server.Router())
	defer client.Close()

	created, err := server.runs.Spawn(schemas.TaskSubmission{Task: "landing-page", Round: 2}, nil)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	resp, err := http.Get(client.URL + "/runs/" + created.RunID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	var payload schemas.RunResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.RunID != created.RunID || payload.Status != schemas.RunStatusPending {
		t.Fatalf("unexpected run payload: %+v", payload)
	}

	missing, err := http.Get(client.URL + "/runs/does-not-exist")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", missing.StatusCode)
	}
}
