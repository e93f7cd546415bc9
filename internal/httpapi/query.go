package httpapi

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"studydesk/internal/task"
)

// ParseListQuery reads the optional priority, dueAfter, dueBefore and
// completed parameters. A date-only dueBefore covers that whole day.
func ParseListQuery(q url.Values) (task.Query, error) {
	var out task.Query

	if v := q.Get("priority"); v != "" {
		p, err := task.ParsePriority(v)
		if err != nil {
			return task.Query{}, err
		}
		out.Priority = &p
	}
	if v := q.Get("dueAfter"); v != "" {
		t, err := task.ParseTime(v)
		if err != nil {
			return task.Query{}, errors.New("dueAfter must be an ISO-8601 date")
		}
		out.DueAfter = &t
	}
	if v := q.Get("dueBefore"); v != "" {
		t, err := task.ParseTime(v)
		if err != nil {
			return task.Query{}, errors.New("dueBefore must be an ISO-8601 date")
		}
		if len(strings.TrimSpace(v)) == len(task.DateLayout) {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		out.DueBefore = &t
	}
	if v := q.Get("completed"); v != "" {
		b, err := parseBoolStrict(v)
		if err != nil {
			return task.Query{}, errors.New("completed must be true or false")
		}
		out.Completed = &b
	}
	return out, nil
}

func parseBoolStrict(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, errors.New("not a bool")
	}
}
