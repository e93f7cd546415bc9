package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"studydesk/internal/task"
	"studydesk/internal/view"
)

var ErrNotFound = errors.New("task not found")

type Store struct {
	db  *sql.DB
	Now func() time.Time
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, Now: time.Now}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping reports whether the database still answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	owner TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	completed INTEGER NOT NULL DEFAULT 0,
	priority TEXT NOT NULL DEFAULT 'NORMAL',
	due TEXT DEFAULT NULL,
	recurrence TEXT NOT NULL DEFAULT 'NONE',
	tags TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT 'Default',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS tasks_owner ON tasks(owner);`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	return s.ensureTaskColumns()
}

// ensureTaskColumns adds columns introduced after the first schema so older
// databases keep working.
func (s *Store) ensureTaskColumns() error {
	required := map[string]string{
		"recurrence_end":    "ALTER TABLE tasks ADD COLUMN recurrence_end TEXT DEFAULT NULL;",
		"estimated_minutes": "ALTER TABLE tasks ADD COLUMN estimated_minutes INTEGER NOT NULL DEFAULT 0;",
		"reminder_at":       "ALTER TABLE tasks ADD COLUMN reminder_at TEXT DEFAULT NULL;",
		"updated_at":        "ALTER TABLE tasks ADD COLUMN updated_at TEXT NOT NULL DEFAULT '';",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.Query(`PRAGMA table_info(tasks);`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			rows.Close()
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	// The single connection is held until rows is closed.
	rows.Close()

	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.Exec(alter); err != nil {
			return err
		}
	}
	return nil
}

const taskColumns = `id, owner, title, description, completed, priority, due, recurrence, recurrence_end,
	estimated_minutes, reminder_at, tags, category, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (task.Task, error) {
	var t task.Task
	var completed int
	var priority, recurrence, tags, created, updated string
	var due, recurrenceEnd, reminder sql.NullString

	if err := row.Scan(&t.ID, &t.Owner, &t.Title, &t.Description, &completed, &priority, &due, &recurrence,
		&recurrenceEnd, &t.EstimatedMinutes, &reminder, &tags, &t.Category, &created, &updated); err != nil {
		return task.Task{}, err
	}
	t.Completed = completed == 1
	t.Priority = task.Priority(priority)
	if !t.Priority.Valid() {
		t.Priority = task.PriorityNormal
	}
	t.Recurrence = task.Recurrence(recurrence)
	t.Due = parseNullTime(due)
	t.RecurrenceEnd = parseNullTime(recurrenceEnd)
	t.ReminderAt = parseNullTime(reminder)
	t.Tags = task.ParseTags(tags)
	if parsed, err := task.ParseTime(created); err == nil {
		t.CreatedAt = parsed
	}
	if parsed, err := task.ParseTime(updated); err == nil {
		t.UpdatedAt = parsed
	} else {
		t.UpdatedAt = t.CreatedAt
	}
	return t, nil
}

// List returns owner's tasks matching q, oldest first.
func (s *Store) List(ctx context.Context, owner string, q task.Query) ([]task.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE owner = ? ORDER BY rowid;`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if q.IsZero() {
		return tasks, nil
	}
	return view.FilteredTasks(tasks, q), nil
}

func (s *Store) Get(ctx context.Context, owner, id string) (task.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ? AND owner = ?;`, id, owner)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, ErrNotFound
	}
	return t, err
}

func (s *Store) Create(ctx context.Context, owner string, d task.Draft) (task.Task, error) {
	d, err := d.Normalize()
	if err != nil {
		return task.Task{}, err
	}
	now := s.Now().UTC()
	t := task.Task{
		ID:               uuid.NewString(),
		Owner:            owner,
		Title:            d.Title,
		Description:      d.Description,
		Priority:         d.Priority,
		Due:              d.Due,
		Recurrence:       d.Recurrence,
		RecurrenceEnd:    d.RecurrenceEnd,
		EstimatedMinutes: d.EstimatedMinutes,
		ReminderAt:       d.ReminderAt,
		Tags:             d.Tags,
		Category:         d.Category,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		t.ID, t.Owner, t.Title, t.Description, boolInt(t.Completed), string(t.Priority), nullTime(t.Due),
		string(t.Recurrence), nullTime(t.RecurrenceEnd), t.EstimatedMinutes, nullTime(t.ReminderAt),
		t.Tags.String(), t.Category, task.FormatTime(t.CreatedAt), task.FormatTime(t.UpdatedAt))
	if err != nil {
		return task.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// Update applies p to the owner's task and returns the stored result.
func (s *Store) Update(ctx context.Context, owner, id string, p task.Patch) (task.Task, error) {
	p, err := p.Normalize()
	if err != nil {
		return task.Task{}, err
	}
	current, err := s.Get(ctx, owner, id)
	if err != nil {
		return task.Task{}, err
	}
	t := p.Apply(current)
	t.UpdatedAt = s.Now().UTC()

	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET title = ?, description = ?, completed = ?, priority = ?, due = ?,
	recurrence = ?, recurrence_end = ?, estimated_minutes = ?, reminder_at = ?, tags = ?, category = ?, updated_at = ?
	WHERE id = ? AND owner = ?;`,
		t.Title, t.Description, boolInt(t.Completed), string(t.Priority), nullTime(t.Due), string(t.Recurrence),
		nullTime(t.RecurrenceEnd), t.EstimatedMinutes, nullTime(t.ReminderAt), t.Tags.String(), t.Category,
		task.FormatTime(t.UpdatedAt), id, owner)
	if err != nil {
		return task.Task{}, fmt.Errorf("update task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return task.Task{}, ErrNotFound
	}
	return t, nil
}

func (s *Store) Delete(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND owner = ?;`, id, owner)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: task.FormatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	parsed, err := task.ParseTime(s.String)
	if err != nil {
		return nil
	}
	return &parsed
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
