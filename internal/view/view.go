// Package view derives the task lists shown on each page from one snapshot.
// Every function is pure and leaves its input untouched.
package view

import (
	"fmt"
	"strings"
	"time"

	"studydesk/internal/task"
)

type Kind int

const (
	Inbox Kind = iota
	Today
	Upcoming
	Completed
	Filtered
)

var Kinds = []Kind{Inbox, Today, Upcoming, Completed, Filtered}

func (k Kind) String() string {
	switch k {
	case Inbox:
		return "inbox"
	case Today:
		return "today"
	case Upcoming:
		return "upcoming"
	case Completed:
		return "completed"
	case Filtered:
		return "filtered"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return Inbox, fmt.Errorf("unknown view %q", s)
}

// Filter is the custom-filter predicate set. It is the same shape the task
// API accepts as list query parameters.
type Filter = task.Query

// DayGroup holds the upcoming tasks due on one calendar day.
type DayGroup struct {
	Day   time.Time
	Tasks []task.Task
}

type Result struct {
	Kind   Kind
	Tasks  []task.Task
	Groups []DayGroup
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	return StartOfDay(a, loc).Equal(StartOfDay(b, loc))
}

func InboxTasks(tasks []task.Task) []task.Task {
	return keep(tasks, func(t task.Task) bool { return !t.Completed })
}

// TodayTasks returns incomplete tasks due on now's calendar day, in now's location.
func TodayTasks(tasks []task.Task, now time.Time) []task.Task {
	loc := now.Location()
	return keep(tasks, func(t task.Task) bool {
		return !t.Completed && t.Due != nil && sameDay(*t.Due, now, loc)
	})
}

// UpcomingGroups returns incomplete tasks due after now on a later calendar
// day, grouped per day in ascending order. Within a day the input order is kept.
func UpcomingGroups(tasks []task.Task, now time.Time) []DayGroup {
	loc := now.Location()
	today := StartOfDay(now, loc)

	var groups []DayGroup
	index := map[string]int{}
	for _, t := range tasks {
		if t.Completed || t.Due == nil || !t.Due.After(now) {
			continue
		}
		day := StartOfDay(*t.Due, loc)
		if !day.After(today) {
			continue
		}
		key := day.Format("2006-01-02")
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DayGroup{Day: day})
		}
		groups[i].Tasks = append(groups[i].Tasks, t.Clone())
	}

	// Insertion sort keeps this stable and the group count is small.
	for i := 1; i < len(groups); i++ {
		for j := i; j > 0 && groups[j].Day.Before(groups[j-1].Day); j-- {
			groups[j], groups[j-1] = groups[j-1], groups[j]
		}
	}
	return groups
}

// Flatten yields the display sequence of grouped tasks.
func Flatten(groups []DayGroup) []task.Task {
	var out []task.Task
	for _, g := range groups {
		out = append(out, g.Tasks...)
	}
	return out
}

func CompletedTasks(tasks []task.Task) []task.Task {
	return keep(tasks, func(t task.Task) bool { return t.Completed })
}

// FilteredTasks ANDs the set predicates of f. Date bounds are inclusive and
// exclude tasks without a due date.
func FilteredTasks(tasks []task.Task, f Filter) []task.Task {
	return keep(tasks, func(t task.Task) bool { return Matches(t, f) })
}

func Matches(t task.Task, f Filter) bool {
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.DueAfter != nil && (t.Due == nil || t.Due.Before(*f.DueAfter)) {
		return false
	}
	if f.DueBefore != nil && (t.Due == nil || t.Due.After(*f.DueBefore)) {
		return false
	}
	return true
}

// Derive computes the view of the given kind. The filter is only consulted
// for Filtered.
func Derive(kind Kind, tasks []task.Task, now time.Time, f Filter) Result {
	res := Result{Kind: kind}
	switch kind {
	case Today:
		res.Tasks = TodayTasks(tasks, now)
	case Upcoming:
		res.Groups = UpcomingGroups(tasks, now)
		res.Tasks = Flatten(res.Groups)
	case Completed:
		res.Tasks = CompletedTasks(tasks)
	case Filtered:
		res.Tasks = FilteredTasks(tasks, f)
	default:
		res.Kind = Inbox
		res.Tasks = InboxTasks(tasks)
	}
	return res
}

func keep(tasks []task.Task, pred func(task.Task) bool) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if pred(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}
