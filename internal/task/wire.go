package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is accepted on input wherever a full timestamp is expected.
const DateLayout = "2006-01-02"

// ParseTime reads an ISO-8601 timestamp or a bare YYYY-MM-DD date (midnight UTC).
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

type wireTask struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Description      string  `json:"description,omitempty"`
	DueDate          *string `json:"dueDate,omitempty"`
	Completed        bool    `json:"completed"`
	Priority         string  `json:"priority"`
	CreatedAt        string  `json:"createdAt,omitempty"`
	UpdatedAt        string  `json:"updatedAt,omitempty"`
	Recurrence       string  `json:"recurrence,omitempty"`
	RecurrenceEnd    *string `json:"recurrenceEnd,omitempty"`
	EstimatedMinutes *int    `json:"estimatedMinutes,omitempty"`
	ReminderTime     *string `json:"reminderTime,omitempty"`
	Tags             string  `json:"tags,omitempty"`
	Category         string  `json:"category,omitempty"`
}

func (t Task) MarshalJSON() ([]byte, error) {
	w := wireTask{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		DueDate:       formatOptional(t.Due),
		Completed:     t.Completed,
		Priority:      string(t.Priority),
		Recurrence:    string(t.Recurrence),
		RecurrenceEnd: formatOptional(t.RecurrenceEnd),
		ReminderTime:  formatOptional(t.ReminderAt),
		Tags:          t.Tags.String(),
		Category:      t.Category,
	}
	if !t.CreatedAt.IsZero() {
		w.CreatedAt = FormatTime(t.CreatedAt)
	}
	if !t.UpdatedAt.IsZero() {
		w.UpdatedAt = FormatTime(t.UpdatedAt)
	}
	if t.EstimatedMinutes > 0 {
		m := t.EstimatedMinutes
		w.EstimatedMinutes = &m
	}
	return json.Marshal(w)
}

// UnmarshalJSON is lenient: a malformed date decodes as absent and an
// unknown priority as NORMAL, so one bad record never fails a whole list.
func (t *Task) UnmarshalJSON(data []byte) error {
	var w wireTask
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Task{
		ID:            w.ID,
		Title:         w.Title,
		Description:   w.Description,
		Completed:     w.Completed,
		Due:           parseLenient(w.DueDate),
		RecurrenceEnd: parseLenient(w.RecurrenceEnd),
		ReminderAt:    parseLenient(w.ReminderTime),
		Tags:          ParseTags(w.Tags),
		Category:      w.Category,
	}
	if p, err := ParsePriority(w.Priority); err == nil {
		out.Priority = p
	} else {
		out.Priority = PriorityNormal
	}
	if r, err := ParseRecurrence(w.Recurrence); err == nil {
		out.Recurrence = r
	} else {
		out.Recurrence = RecurrenceNone
	}
	if w.EstimatedMinutes != nil {
		out.EstimatedMinutes = *w.EstimatedMinutes
	}
	if v := parseLenient(&w.CreatedAt); v != nil {
		out.CreatedAt = *v
	}
	if v := parseLenient(&w.UpdatedAt); v != nil {
		out.UpdatedAt = *v
	}
	*t = out
	return nil
}

type wireDraft struct {
	Title            string  `json:"title"`
	Description      string  `json:"description,omitempty"`
	DueDate          *string `json:"dueDate,omitempty"`
	Priority         string  `json:"priority,omitempty"`
	Recurrence       string  `json:"recurrence,omitempty"`
	RecurrenceEnd    *string `json:"recurrenceEnd,omitempty"`
	EstimatedMinutes *int    `json:"estimatedMinutes,omitempty"`
	ReminderTime     *string `json:"reminderTime,omitempty"`
	Tags             string  `json:"tags,omitempty"`
	Category         string  `json:"category,omitempty"`
}

func (d Draft) MarshalJSON() ([]byte, error) {
	w := wireDraft{
		Title:         d.Title,
		Description:   d.Description,
		DueDate:       formatOptional(d.Due),
		Priority:      string(d.Priority),
		Recurrence:    string(d.Recurrence),
		RecurrenceEnd: formatOptional(d.RecurrenceEnd),
		ReminderTime:  formatOptional(d.ReminderAt),
		Tags:          d.Tags.String(),
		Category:      d.Category,
	}
	if d.EstimatedMinutes > 0 {
		m := d.EstimatedMinutes
		w.EstimatedMinutes = &m
	}
	return json.Marshal(w)
}

// UnmarshalJSON is strict: unknown fields and malformed dates are errors.
// Priority and recurrence are checked later by Normalize.
func (d *Draft) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var w wireDraft
	if err := dec.Decode(&w); err != nil {
		return err
	}
	out := Draft{
		Title:       w.Title,
		Description: w.Description,
		Priority:    Priority(w.Priority),
		Recurrence:  Recurrence(w.Recurrence),
		Tags:        ParseTags(w.Tags),
		Category:    w.Category,
	}
	var err error
	if out.Due, err = parseStrict(w.DueDate); err != nil {
		return fmt.Errorf("dueDate: %w", err)
	}
	if out.RecurrenceEnd, err = parseStrict(w.RecurrenceEnd); err != nil {
		return fmt.Errorf("recurrenceEnd: %w", err)
	}
	if out.ReminderAt, err = parseStrict(w.ReminderTime); err != nil {
		return fmt.Errorf("reminderTime: %w", err)
	}
	if w.EstimatedMinutes != nil {
		out.EstimatedMinutes = *w.EstimatedMinutes
	}
	*d = out
	return nil
}

func (p Patch) MarshalJSON() ([]byte, error) {
	m := make(map[string]any)
	if p.Title != nil {
		m["title"] = *p.Title
	}
	if p.Description != nil {
		m["description"] = *p.Description
	}
	if p.Completed != nil {
		m["completed"] = *p.Completed
	}
	if p.Priority != nil {
		m["priority"] = string(*p.Priority)
	}
	if p.Due.Set {
		m["dueDate"] = formatOptional(p.Due.Value)
	}
	if p.Recurrence != nil {
		m["recurrence"] = string(*p.Recurrence)
	}
	if p.RecurrenceEnd.Set {
		m["recurrenceEnd"] = formatOptional(p.RecurrenceEnd.Value)
	}
	if p.EstimatedMinutes != nil {
		m["estimatedMinutes"] = *p.EstimatedMinutes
	}
	if p.ReminderAt.Set {
		m["reminderTime"] = formatOptional(p.ReminderAt.Value)
	}
	if p.Tags != nil {
		m["tags"] = p.Tags.String()
	}
	if p.Category != nil {
		m["category"] = *p.Category
	}
	return json.Marshal(m)
}

// UnmarshalJSON records which keys were present. A null date clears the
// field; a null string or number resets it to its zero value.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out Patch
	for key, val := range raw {
		var err error
		switch key {
		case "title":
			out.Title, err = decodeString(val)
		case "description":
			out.Description, err = decodeString(val)
		case "category":
			out.Category, err = decodeString(val)
		case "completed":
			if !isNull(val) {
				var b bool
				err = json.Unmarshal(val, &b)
				out.Completed = &b
			}
		case "priority":
			var s *string
			if s, err = decodeString(val); err == nil {
				pr := Priority(*s)
				out.Priority = &pr
			}
		case "recurrence":
			var s *string
			if s, err = decodeString(val); err == nil {
				r := Recurrence(*s)
				out.Recurrence = &r
			}
		case "estimatedMinutes":
			n := 0
			if !isNull(val) {
				err = json.Unmarshal(val, &n)
			}
			out.EstimatedMinutes = &n
		case "tags":
			var s *string
			if s, err = decodeString(val); err == nil {
				tags := ParseTags(*s)
				out.Tags = &tags
			}
		case "dueDate":
			out.Due, err = decodeOptionalTime(val)
		case "recurrenceEnd":
			out.RecurrenceEnd, err = decodeOptionalTime(val)
		case "reminderTime":
			out.ReminderAt, err = decodeOptionalTime(val)
		default:
			err = fmt.Errorf("unknown field")
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	*p = out
	return nil
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTime(*t)
	return &s
}

func parseLenient(s *string) *time.Time {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	t, err := ParseTime(*s)
	if err != nil {
		return nil
	}
	return &t
}

func parseStrict(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := ParseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func isNull(val json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(val), []byte("null"))
}

func decodeString(val json.RawMessage) (*string, error) {
	s := ""
	if isNull(val) {
		return &s, nil
	}
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func decodeOptionalTime(val json.RawMessage) (OptionalTime, error) {
	if isNull(val) {
		return ClearTime(), nil
	}
	var s string
	if err := json.Unmarshal(val, &s); err != nil {
		return OptionalTime{}, err
	}
	if strings.TrimSpace(s) == "" {
		return ClearTime(), nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return OptionalTime{}, err
	}
	return SetTime(t), nil
}
