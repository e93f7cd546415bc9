// Package store keeps the one task snapshot every view derives from and
// tells subscribers whenever it changes.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"studydesk/internal/task"
)

var ErrUnknownTask = errors.New("task is not in the current list")

// Backend is the remote task collection.
type Backend interface {
	List(ctx context.Context) ([]task.Task, error)
	Create(ctx context.Context, d task.Draft) (task.Task, error)
	Update(ctx context.Context, id string, p task.Patch) (task.Task, error)
	Delete(ctx context.Context, id string) error
}

type Listener func(tasks []task.Task)

type subscription struct {
	id int
	fn Listener
}

type Store struct {
	backend Backend
	log     logrus.FieldLogger

	mu        sync.Mutex
	tasks     []task.Task
	subs      []subscription
	nextSubID int
}

func New(backend Backend, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{backend: backend, log: log}
}

// Subscribe registers fn to receive a copy of the snapshot after every
// change. Listeners run synchronously in subscription order.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) Snapshot() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTasks(s.tasks)
}

// Refresh replaces the snapshot with the backend's full list.
func (s *Store) Refresh(ctx context.Context) error {
	tasks, err := s.backend.List(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	s.replace(tasks)
	s.log.WithField("count", len(tasks)).Debug("task list refreshed")
	return nil
}

func (s *Store) Create(ctx context.Context, d task.Draft) (task.Task, error) {
	d, err := d.Normalize()
	if err != nil {
		return task.Task{}, err
	}
	created, err := s.backend.Create(ctx, d)
	if err != nil {
		return task.Task{}, fmt.Errorf("create task: %w", err)
	}
	s.log.WithField("task_id", created.ID).Info("task created")
	return created, s.Refresh(ctx)
}

func (s *Store) Update(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	p, err := p.Normalize()
	if err != nil {
		return task.Task{}, err
	}
	updated, err := s.backend.Update(ctx, id, p)
	if err != nil {
		return task.Task{}, fmt.Errorf("update task: %w", err)
	}
	s.log.WithField("task_id", id).Info("task updated")
	return updated, s.Refresh(ctx)
}

// Toggle flips completion locally before the backend confirms it. On failure
// the previous record is put back and the error returned.
func (s *Store) Toggle(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrUnknownTask
	}
	previous := s.tasks[i].Clone()
	s.tasks[i].Completed = !previous.Completed
	completed := s.tasks[i].Completed
	s.mu.Unlock()
	s.notify()

	updated, err := s.backend.Update(ctx, id, task.Patch{Completed: &completed})
	if err != nil {
		s.mu.Lock()
		if j := s.indexOf(id); j >= 0 {
			s.tasks[j] = previous
		}
		s.mu.Unlock()
		s.notify()
		s.log.WithError(err).WithField("task_id", id).Warn("toggle reverted")
		return fmt.Errorf("update task: %w", err)
	}

	s.mu.Lock()
	if j := s.indexOf(id); j >= 0 {
		s.tasks[j] = updated.Clone()
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// Delete removes the task locally before the backend confirms it. On failure
// the task is appended back; its old position is not kept.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrUnknownTask
	}
	removed := s.tasks[i]
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.mu.Unlock()
	s.notify()

	if err := s.backend.Delete(ctx, id); err != nil {
		s.mu.Lock()
		if s.indexOf(id) < 0 {
			s.tasks = append(s.tasks, removed)
		}
		s.mu.Unlock()
		s.notify()
		s.log.WithError(err).WithField("task_id", id).Warn("delete reverted")
		return fmt.Errorf("delete task: %w", err)
	}
	s.log.WithField("task_id", id).Info("task deleted")
	return nil
}

func (s *Store) replace(tasks []task.Task) {
	s.mu.Lock()
	s.tasks = copyTasks(tasks)
	s.mu.Unlock()
	s.notify()
}

// notify must be called without s.mu held so listeners may read the store.
func (s *Store) notify() {
	s.mu.Lock()
	snapshot := copyTasks(s.tasks)
	subs := append([]subscription(nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(copyTasks(snapshot))
	}
}

func (s *Store) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func copyTasks(tasks []task.Task) []task.Task {
	out := make([]task.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
