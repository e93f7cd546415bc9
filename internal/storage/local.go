package storage

import (
	"context"

	"studydesk/internal/task"
)

// Local serves one owner's tasks straight from the database, for running
// the terminal UI without the HTTP API.
type Local struct {
	store *Store
	owner string
}

func (s *Store) For(owner string) *Local {
	return &Local{store: s, owner: owner}
}

func (l *Local) List(ctx context.Context) ([]task.Task, error) {
	return l.store.List(ctx, l.owner, task.Query{})
}

func (l *Local) Create(ctx context.Context, d task.Draft) (task.Task, error) {
	return l.store.Create(ctx, l.owner, d)
}

func (l *Local) Update(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	return l.store.Update(ctx, l.owner, id, p)
}

func (l *Local) Delete(ctx context.Context, id string) error {
	return l.store.Delete(ctx, l.owner, id)
}
