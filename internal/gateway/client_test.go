package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"taskhub/internal/model"
	"taskhub/pkg/circuitbreaker"
	"taskhub/pkg/trace"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c.WithToken("tok-123")
}

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := New(Config{BaseURL: "not a url"}, zap.NewNop()); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

func TestBearerHeaderOnEveryCall(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	})

	ctx := context.Background()
	if _, err := c.ListOwnedProjects(ctx); err != nil {
		t.Fatalf("ListOwnedProjects: %v", err)
	}
	if _, err := c.ListMyTasks(ctx); err != nil {
		t.Fatalf("ListMyTasks: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(seen))
	}
	for _, h := range seen {
		if h != "Bearer tok-123" {
			t.Errorf("unexpected Authorization header %q", h)
		}
	}
}

func TestAuthenticatedCallWithoutToken(t *testing.T) {
	c, err := New(Config{BaseURL: "http://127.0.0.1:1"}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetProfile(context.Background()); !errors.Is(err, ErrNoToken) {
		t.Errorf("expected ErrNoToken, got %v", err)
	}
}

func TestRoutes(t *testing.T) {
	var method, path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.Write([]byte(`{}`))
	})
	ctx := context.Background()

	tests := []struct {
		name       string
		call       func() error
		wantMethod string
		wantPath   string
	}{
		{"profile", func() error { _, err := c.GetProfile(ctx); return err }, "GET", "/api/user/profile"},
		{"user", func() error { _, err := c.GetUser(ctx, "9"); return err }, "GET", "/api/user/9"},
		{"memberships", func() error { _, err := c.ListMemberships(ctx); return err }, "GET", "/api/members/user"},
		{"members", func() error { _, err := c.ListProjectMembers(ctx, "4"); return err }, "GET", "/api/members/project/4"},
		{"project tasks", func() error { _, err := c.ListProjectTasks(ctx, "4"); return err }, "GET", "/api/tasks/project/4"},
		{"delete project", func() error { return c.DeleteProject(ctx, "4") }, "DELETE", "/api/projects/4"},
		{"comments", func() error { _, err := c.ListTaskComments(ctx, "8"); return err }, "GET", "/api/comments/task/8"},
		{"update comment", func() error { _, err := c.UpdateComment(ctx, "2", "x"); return err }, "PUT", "/api/comments/2"},
		{"send invite", func() error { _, err := c.SendInvite(ctx, InviteInput{}); return err }, "POST", "/api/invites/send"},
		{"accept", func() error { return c.AcceptInvite(ctx, "5") }, "POST", "/api/invites/5/accept"},
		{"decline", func() error { return c.DeclineInvite(ctx, "5") }, "POST", "/api/invites/5/decline"},
		{"update profile", func() error { _, err := c.UpdateProfile(ctx, ProfileUpdate{Bio: "hi"}); return err }, "PUT", "/api/user/profile/update"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err != nil {
				t.Fatalf("call failed: %v", err)
			}
			if method != tt.wantMethod || path != tt.wantPath {
				t.Errorf("got %s %s, want %s %s", method, path, tt.wantMethod, tt.wantPath)
			}
		})
	}
}

func TestNonArrayListBodyIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"no projects"}`))
	})
	projects, err := c.ListOwnedProjects(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if projects == nil || len(projects) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", projects)
	}
}

func TestListKeepsItemsWithFreeTextFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/projects/owner":
			w.Write([]byte(`[{"id":"1","name":"A","budget":"5000"},{"id":"2","name":"B","budget":"$10k"}]`))
		default:
			w.Write([]byte(`[{"id":"t1","title":"a","dueDate":"2026-10-21"},{"id":"t2","title":"b","dueDate":"10/21/2026"}]`))
		}
	})
	ctx := context.Background()

	projects, err := c.ListOwnedProjects(ctx)
	if err != nil {
		t.Fatalf("ListOwnedProjects: %v", err)
	}
	if len(projects) != 2 || projects[1].Budget == nil || projects[1].Budget.Raw != "$10k" {
		t.Errorf("expected both projects with raw budget kept, got %+v", projects)
	}

	tasks, err := c.ListProjectTasks(ctx, "1")
	if err != nil {
		t.Fatalf("ListProjectTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[1].DueDate.IsSet() || tasks[1].DueDate.Raw != "10/21/2026" {
		t.Errorf("expected unset due date with raw text, got %+v", tasks[1].DueDate)
	}
}

func TestListSkipsUndecodableItem(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"1","name":"A"},{"id":{"nested":true},"name":"B"},{"id":"3","name":"C"}]`))
	})
	projects, err := c.ListOwnedProjects(context.Background())
	if err != nil {
		t.Fatalf("one bad item must not fail the list: %v", err)
	}
	if len(projects) != 2 || projects[0].ID != "1" || projects[1].ID != "3" {
		t.Errorf("expected projects 1 and 3, got %+v", projects)
	}
}

func TestErrorMessageTruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("a", maxErrorMessage-1) + "é" + "tail"
	msg := errorMessage([]byte(body))
	if !utf8.ValidString(msg) {
		t.Fatalf("truncated message is not valid UTF-8: %q", msg)
	}
	if len(msg) != maxErrorMessage-1 {
		t.Errorf("expected cut before the split rune, got length %d", len(msg))
	}
}

func TestAPIErrorCarriesStatusAndMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"not a member"}`))
	})
	_, err := c.GetProject(context.Background(), "1")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.Message != "not a member" {
		t.Errorf("unexpected error %+v", apiErr)
	}
	if apiErr.HTTPStatus() != http.StatusForbidden {
		t.Errorf("HTTPStatus = %d", apiErr.HTTPStatus())
	}
}

func TestTaskDecodingNormalizes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"title":"a","status":"IN_REVIEW","projectId":2,"dueDate":"2024-06-01"}]`))
	})
	tasks, err := c.ListProjectTasks(context.Background(), "2")
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].ID != "1" || tasks[0].ProjectID != "2" || tasks[0].Status != model.TaskInReview {
		t.Errorf("task not normalized: %+v", tasks[0])
	}
}

func TestTaskWritesUseDoneLabel(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Write([]byte(`{"id":"3","status":"Completed"}`))
	})

	task, err := c.UpdateTask(context.Background(), "3", TaskInput{Title: "t", Status: model.TaskDone, ProjectID: "1"})
	if err != nil {
		t.Fatal(err)
	}
	if body["status"] != "Completed" {
		t.Errorf("expected Completed on the wire, got %v", body["status"])
	}
	if task.Status != model.TaskDone {
		t.Errorf("expected Done back, got %q", task.Status)
	}
}

func TestTaskUpdateKeepsRawStatusAndOmitsEmptyPriority(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Write([]byte(`{"id":"3","status":"Blocked"}`))
	})

	in := TaskInput{Title: "t", Status: model.TaskToDo, RawStatus: "Blocked", ProjectID: "1"}
	if _, err := c.UpdateTask(context.Background(), "3", in); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "Blocked" {
		t.Errorf("expected raw status on the wire, got %v", body["status"])
	}
	if _, ok := body["priority"]; ok {
		t.Errorf("empty priority must be omitted, got %v", body["priority"])
	}
}

func TestTraceHeaderForwarded(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(trace.HeaderName)
		w.Write([]byte(`{}`))
	})
	ctx := trace.WithContext(context.Background(), "trace-1")
	if _, err := c.GetProfile(ctx); err != nil {
		t.Fatal(err)
	}
	if got != "trace-1" {
		t.Errorf("expected trace-1, got %q", got)
	}
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(Config{
		BaseURL: srv.URL,
		Breaker: circuitbreaker.Config{FailureThreshold: 2, SuccessThreshold: 1, OpenTimeout: time.Minute, HalfOpenMaxRequests: 1},
	}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	c = c.WithToken("t")

	for i := 0; i < 3; i++ {
		_, err = c.ListMyTasks(context.Background())
	}
	if !errors.Is(err, circuitbreaker.ErrOpen) {
		t.Errorf("expected open breaker on third call, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("expected 2 upstream calls, got %d", n)
	}
	if c.BreakerState() != circuitbreaker.StateOpen {
		t.Errorf("expected open state, got %s", c.BreakerState())
	}
}

func TestLoginReturnsJWT(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"jwt":"abc"}`))
	})
	resp, err := c.Login(context.Background(), LoginRequest{Email: "a@b.c", Password: "pw"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.JWT != "abc" {
		t.Errorf("expected jwt abc, got %q", resp.JWT)
	}
}
