package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"studydesk/internal/httpapi"
	"studydesk/internal/infer"
	"studydesk/internal/storage"
	"studydesk/internal/store"
	"studydesk/internal/task"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newAPI(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	st, err := storage.Open(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	const secret = "s3cret"
	srv := httptest.NewServer(httpapi.NewServer(st, httpapi.Options{JWTSecret: secret, Logger: quietLogger()}))
	t.Cleanup(srv.Close)

	tok, err := httpapi.IssueToken(secret, "alice", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return srv, tok
}

// Compile-time check that the HTTP client can back the store.
var _ store.Backend = (*Client)(nil)

func TestClientRoundTrip(t *testing.T) {
	srv, tok := newAPI(t)
	c := New(srv.URL, tok, time.Second)
	ctx := context.Background()

	due := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	created, err := c.Create(ctx, task.Draft{Title: "Essay", Due: &due, Priority: task.PriorityHigh, Tags: task.Tags{"english"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" || created.Due == nil || !created.Due.Equal(due) {
		t.Fatalf("unexpected created task %+v", created)
	}

	done := true
	updated, err := c.Update(ctx, created.ID, task.Patch{Completed: &done, Due: task.ClearTime()})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.Completed || updated.Due != nil {
		t.Errorf("unexpected updated task %+v", updated)
	}

	high := task.PriorityHigh
	tasks, err := c.Query(ctx, task.Query{Priority: &high, Completed: &done})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Tags.String() != "english" {
		t.Errorf("unexpected query result %+v", tasks)
	}

	if err := c.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	err = c.Delete(ctx, created.ID)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound || apiErr.Message != "task not found" {
		t.Errorf("expected 404 APIError, got %v", err)
	}
}

func TestClientReportsAuthFailure(t *testing.T) {
	srv, _ := newAPI(t)
	_, err := New(srv.URL, "garbage", time.Second).List(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Errorf("expected 401 APIError, got %v", err)
	}
}

func TestStoreOverClient(t *testing.T) {
	srv, tok := newAPI(t)
	s := store.New(New(srv.URL, tok, time.Second), quietLogger())
	ctx := context.Background()

	created, err := s.Create(ctx, task.Draft{Title: "Reading"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Toggle(ctx, created.ID); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	snap := s.Snapshot()
	if len(snap) != 1 || !snap[0].Completed {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestDescriberUsesService(t *testing.T) {
	srv, tok := newAPI(t)
	d := NewDescriber(srv.URL+"/api/ai/generate-description", tok, time.Second, quietLogger())
	got := d.Describe(context.Background(), "Team meeting")
	if got != infer.Describe("Team meeting") {
		t.Errorf("unexpected description %q", got)
	}
}

func TestDescriberFallsBack(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"error payload": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":"quota exceeded"}`))
		},
		"empty description": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"description":"   "}`))
		},
		"not json": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		},
	}
	for name, h := range cases {
		srv := httptest.NewServer(h)
		d := NewDescriber(srv.URL, "", time.Second, quietLogger())
		got := d.Describe(context.Background(), "Fix the bike")
		if !strings.HasPrefix(got, `Address the issues with "Fix the bike"`) {
			t.Errorf("%s: expected local fix template, got %q", name, got)
		}
		srv.Close()
	}
}

func TestDescriberBreakerOpens(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewDescriber(srv.URL, "", time.Second, quietLogger())
	for i := 0; i < 10; i++ {
		if got := d.Describe(context.Background(), "Essay"); got != infer.Describe("Essay") {
			t.Fatalf("expected fallback, got %q", got)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 4 {
		t.Errorf("expected breaker to stop calls after 4 failures, got %d calls", n)
	}
}

func TestDescriberWithoutEndpoint(t *testing.T) {
	d := NewDescriber("", "", time.Second, quietLogger())
	if got := d.Describe(context.Background(), "Plan trip"); got != infer.Describe("Plan trip") {
		t.Errorf("unexpected description %q", got)
	}
}
