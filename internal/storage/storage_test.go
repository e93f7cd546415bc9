package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"studydesk/internal/task"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "tasks.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	due := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	first, err := s.Create(ctx, "alice", task.Draft{Title: " Essay ", Due: &due, Tags: task.Tags{"english", "draft"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Fatalf("expected id and createdAt to be assigned, got %+v", first)
	}
	if _, err := s.Create(ctx, "alice", task.Draft{Title: "Problem set", Priority: task.PriorityHigh}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, "bob", task.Draft{Title: "Not yours"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	tasks, err := s.List(ctx, "alice", task.Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks for alice, got %d", len(tasks))
	}
	if tasks[0].Title != "Essay" || tasks[1].Title != "Problem set" {
		t.Errorf("expected creation order, got %q, %q", tasks[0].Title, tasks[1].Title)
	}
	if tasks[0].Due == nil || !tasks[0].Due.Equal(due) {
		t.Errorf("due date did not round-trip: %v", tasks[0].Due)
	}
	if tasks[0].Tags.String() != "english,draft" || tasks[0].Category != task.DefaultCategory {
		t.Errorf("unexpected tags/category %q/%q", tasks[0].Tags.String(), tasks[0].Category)
	}

	high := task.PriorityHigh
	filtered, err := s.List(ctx, "alice", task.Query{Priority: &high})
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Title != "Problem set" {
		t.Errorf("expected only the HIGH task, got %+v", filtered)
	}
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Create(context.Background(), "alice", task.Draft{Title: "  "}); !errors.Is(err, task.ErrEmptyTitle) {
		t.Errorf("expected ErrEmptyTitle, got %v", err)
	}
}

func TestUpdateClearsAndKeepsFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	due := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	created, err := s.Create(ctx, "alice", task.Draft{Title: "Essay", Due: &due, Priority: task.PriorityLow})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	s.Now = func() time.Time { return created.CreatedAt.Add(time.Hour) }
	done := true
	updated, err := s.Update(ctx, "alice", created.ID, task.Patch{Completed: &done, Due: task.ClearTime()})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.Completed || updated.Due != nil || updated.Priority != task.PriorityLow {
		t.Errorf("unexpected update result %+v", updated)
	}

	got, err := s.Get(ctx, "alice", created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Completed || got.Due != nil || got.Title != "Essay" {
		t.Errorf("unexpected stored task %+v", got)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("expected updatedAt after createdAt, got %v / %v", got.UpdatedAt, got.CreatedAt)
	}
}

func TestOwnershipIsEnforced(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	created, err := s.Create(ctx, "alice", task.Draft{Title: "Essay"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.Get(ctx, "bob", created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get: expected ErrNotFound, got %v", err)
	}
	title := "Hijacked"
	if _, err := s.Update(ctx, "bob", created.ID, task.Patch{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update: expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "bob", created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "alice", created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "alice", created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: expected ErrNotFound, got %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.For("alice").Create(context.Background(), task.Draft{Title: "Essay"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	tasks, err := s.For("alice").List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("expected 1 task after reopen, got %d", len(tasks))
	}
}
