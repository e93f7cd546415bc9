package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultCategory marks a task as uncategorized.
const DefaultCategory = "Default"

var (
	ErrEmptyTitle        = errors.New("title is required")
	ErrInvalidPriority   = errors.New("priority must be one of LOW, NORMAL, HIGH, URGENT")
	ErrInvalidRecurrence = errors.New("unknown recurrence")
	ErrInvalidEstimate   = errors.New("estimated minutes must not be negative")
	ErrInvalidDate       = errors.New("invalid date")
	ErrNoFieldsToPatch   = errors.New("provide at least one field to update")
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Priorities lists the levels from least to most pressing.
var Priorities = []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent}

// ParsePriority accepts any letter case. An empty value is NORMAL.
func ParsePriority(v string) (Priority, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	if v == "" {
		return PriorityNormal, nil
	}
	for _, p := range Priorities {
		if string(p) == v {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriority, v)
}

func (p Priority) Valid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

// Rank orders priorities, LOW being 0.
func (p Priority) Rank() int {
	for i, known := range Priorities {
		if p == known {
			return i
		}
	}
	return 1
}

// Recurrence is a stored label only; nothing expands it into occurrences.
type Recurrence string

const (
	RecurrenceNone     Recurrence = "NONE"
	RecurrenceDaily    Recurrence = "DAILY"
	RecurrenceWeekdays Recurrence = "WEEKDAYS"
	RecurrenceWeekly   Recurrence = "WEEKLY"
	RecurrenceBiweekly Recurrence = "BIWEEKLY"
	RecurrenceMonthly  Recurrence = "MONTHLY"
	RecurrenceYearly   Recurrence = "YEARLY"
)

var Recurrences = []Recurrence{
	RecurrenceNone,
	RecurrenceDaily,
	RecurrenceWeekdays,
	RecurrenceWeekly,
	RecurrenceBiweekly,
	RecurrenceMonthly,
	RecurrenceYearly,
}

func ParseRecurrence(v string) (Recurrence, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	if v == "" {
		return RecurrenceNone, nil
	}
	for _, r := range Recurrences {
		if string(r) == v {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRecurrence, v)
}

type Task struct {
	ID               string
	Owner            string
	Title            string
	Description      string
	Completed        bool
	Priority         Priority
	Due              *time.Time
	Recurrence       Recurrence
	RecurrenceEnd    *time.Time
	EstimatedMinutes int
	ReminderAt       *time.Time
	Tags             Tags
	Category         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	t.Due = cloneTime(t.Due)
	t.RecurrenceEnd = cloneTime(t.RecurrenceEnd)
	t.ReminderAt = cloneTime(t.ReminderAt)
	if t.Tags != nil {
		t.Tags = append(Tags(nil), t.Tags...)
	}
	return t
}

// Draft is a task before storage assigns its identity and timestamps.
type Draft struct {
	Title            string
	Description      string
	Priority         Priority
	Due              *time.Time
	Recurrence       Recurrence
	RecurrenceEnd    *time.Time
	EstimatedMinutes int
	ReminderAt       *time.Time
	Tags             Tags
	Category         string
}

// Normalize trims the draft and fills the defaults, rejecting what cannot be stored.
func (d Draft) Normalize() (Draft, error) {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return Draft{}, ErrEmptyTitle
	}
	d.Description = strings.TrimSpace(d.Description)

	p, err := ParsePriority(string(d.Priority))
	if err != nil {
		return Draft{}, err
	}
	d.Priority = p

	r, err := ParseRecurrence(string(d.Recurrence))
	if err != nil {
		return Draft{}, err
	}
	d.Recurrence = r

	if d.EstimatedMinutes < 0 {
		return Draft{}, ErrInvalidEstimate
	}
	d.Tags = NewTags(d.Tags...)
	d.Category = strings.TrimSpace(d.Category)
	if d.Category == "" {
		d.Category = DefaultCategory
	}
	return d, nil
}

// OptionalTime distinguishes "leave unchanged" (Set=false) from "clear" (Set=true, Value=nil).
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

func SetTime(t time.Time) OptionalTime {
	return OptionalTime{Set: true, Value: &t}
}

func ClearTime() OptionalTime {
	return OptionalTime{Set: true}
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Title            *string
	Description      *string
	Completed        *bool
	Priority         *Priority
	Due              OptionalTime
	Recurrence       *Recurrence
	RecurrenceEnd    OptionalTime
	EstimatedMinutes *int
	ReminderAt       OptionalTime
	Tags             *Tags
	Category         *string
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil && p.Priority == nil &&
		!p.Due.Set && p.Recurrence == nil && !p.RecurrenceEnd.Set && p.EstimatedMinutes == nil &&
		!p.ReminderAt.Set && p.Tags == nil && p.Category == nil
}

func (p Patch) Normalize() (Patch, error) {
	if p.IsEmpty() {
		return Patch{}, ErrNoFieldsToPatch
	}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return Patch{}, ErrEmptyTitle
		}
		p.Title = &title
	}
	if p.Priority != nil {
		pr, err := ParsePriority(string(*p.Priority))
		if err != nil {
			return Patch{}, err
		}
		p.Priority = &pr
	}
	if p.Recurrence != nil {
		r, err := ParseRecurrence(string(*p.Recurrence))
		if err != nil {
			return Patch{}, err
		}
		p.Recurrence = &r
	}
	if p.EstimatedMinutes != nil && *p.EstimatedMinutes < 0 {
		return Patch{}, ErrInvalidEstimate
	}
	if p.Tags != nil {
		tags := NewTags(*p.Tags...)
		p.Tags = &tags
	}
	if p.Category != nil {
		c := strings.TrimSpace(*p.Category)
		if c == "" {
			c = DefaultCategory
		}
		p.Category = &c
	}
	return p, nil
}

// Apply returns t with the patch applied. It does not touch UpdatedAt.
func (p Patch) Apply(t Task) Task {
	t = t.Clone()
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Due.Set {
		t.Due = cloneTime(p.Due.Value)
	}
	if p.Recurrence != nil {
		t.Recurrence = *p.Recurrence
	}
	if p.RecurrenceEnd.Set {
		t.RecurrenceEnd = cloneTime(p.RecurrenceEnd.Value)
	}
	if p.EstimatedMinutes != nil {
		t.EstimatedMinutes = *p.EstimatedMinutes
	}
	if p.ReminderAt.Set {
		t.ReminderAt = cloneTime(p.ReminderAt.Value)
	}
	if p.Tags != nil {
		t.Tags = append(Tags(nil), (*p.Tags)...)
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	return t
}

// Query narrows a task list. Nil fields mean "no constraint".
type Query struct {
	Priority  *Priority
	DueAfter  *time.Time
	DueBefore *time.Time
	Completed *bool
}

func (q Query) IsZero() bool {
	return q.Priority == nil && q.DueAfter == nil && q.DueBefore == nil && q.Completed == nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
