package task

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParsePriority(t *testing.T) {
	cases := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"", PriorityNormal, false},
		{"low", PriorityLow, false},
		{" High ", PriorityHigh, false},
		{"URGENT", PriorityUrgent, false},
		{"critical", "", true},
	}
	for _, tc := range cases {
		got, err := ParsePriority(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidPriority) {
				t.Errorf("ParsePriority(%q): expected ErrInvalidPriority, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePriority(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParsePriority(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestTagsOrderedSet(t *testing.T) {
	tags := ParseTags(" exam, math ,,exam,physics ")
	if got := tags.String(); got != "exam,math,physics" {
		t.Fatalf("expected exam,math,physics, got %q", got)
	}
	if !tags.Contains("math") || tags.Contains("bio") {
		t.Errorf("unexpected Contains result for %v", tags)
	}
	if got := ParseTags(""); len(got) != 0 {
		t.Errorf("expected no tags from empty string, got %v", got)
	}
}

func TestDraftNormalize(t *testing.T) {
	d, err := Draft{Title: "  Read chapter 4  ", Tags: Tags{"a", "a", " b"}}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if d.Title != "Read chapter 4" {
		t.Errorf("expected trimmed title, got %q", d.Title)
	}
	if d.Priority != PriorityNormal || d.Recurrence != RecurrenceNone {
		t.Errorf("expected NORMAL/NONE defaults, got %s/%s", d.Priority, d.Recurrence)
	}
	if d.Category != DefaultCategory {
		t.Errorf("expected category %q, got %q", DefaultCategory, d.Category)
	}
	if d.Tags.String() != "a,b" {
		t.Errorf("expected tags a,b, got %q", d.Tags.String())
	}

	if _, err := (Draft{Title: "   "}).Normalize(); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("expected ErrEmptyTitle, got %v", err)
	}
	if _, err := (Draft{Title: "x", Priority: "SOMEDAY"}).Normalize(); !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("expected ErrInvalidPriority, got %v", err)
	}
	if _, err := (Draft{Title: "x", EstimatedMinutes: -5}).Normalize(); !errors.Is(err, ErrInvalidEstimate) {
		t.Errorf("expected ErrInvalidEstimate, got %v", err)
	}
}

func TestPatchApplyLeavesUnsetFields(t *testing.T) {
	due := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	orig := Task{ID: "1", Title: "Essay", Priority: PriorityHigh, Due: &due, Tags: Tags{"english"}}

	done := true
	got := Patch{Completed: &done}.Apply(orig)
	if !got.Completed || got.Title != "Essay" || got.Priority != PriorityHigh {
		t.Fatalf("unexpected result %+v", got)
	}
	if got.Due == nil || !got.Due.Equal(due) {
		t.Errorf("expected due date untouched, got %v", got.Due)
	}

	cleared := Patch{Due: ClearTime()}.Apply(orig)
	if cleared.Due != nil {
		t.Errorf("expected due date cleared, got %v", cleared.Due)
	}
	if orig.Due == nil {
		t.Errorf("Apply mutated the original task")
	}
}

func TestPatchNormalize(t *testing.T) {
	if _, err := (Patch{}).Normalize(); !errors.Is(err, ErrNoFieldsToPatch) {
		t.Errorf("expected ErrNoFieldsToPatch, got %v", err)
	}
	blank := "  "
	if _, err := (Patch{Title: &blank}).Normalize(); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("expected ErrEmptyTitle, got %v", err)
	}
	p, err := Patch{Category: &blank}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if *p.Category != DefaultCategory {
		t.Errorf("expected blank category to become %q, got %q", DefaultCategory, *p.Category)
	}
}

func TestTaskJSONRoundTrip(t *testing.T) {
	due := time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC)
	in := Task{
		ID:               "abc",
		Owner:            "alice",
		Title:            "Lab report",
		Priority:         PriorityUrgent,
		Due:              &due,
		Recurrence:       RecurrenceWeekly,
		EstimatedMinutes: 45,
		Tags:             Tags{"lab", "chem"},
		Category:         "Documentation",
		CreatedAt:        due.Add(-48 * time.Hour),
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "alice") {
		t.Errorf("owner leaked into wire form: %s", data)
	}
	if !strings.Contains(string(data), `"dueDate":"2025-03-15T09:30:00Z"`) {
		t.Errorf("expected ISO-8601 dueDate, got %s", data)
	}
	if !strings.Contains(string(data), `"tags":"lab,chem"`) {
		t.Errorf("expected comma-joined tags, got %s", data)
	}

	var out Task
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Due == nil || !out.Due.Equal(due) {
		t.Errorf("due mismatch: %v", out.Due)
	}
	if out.Priority != PriorityUrgent || out.EstimatedMinutes != 45 || out.Tags.String() != "lab,chem" {
		t.Errorf("unexpected decoded task %+v", out)
	}
}

func TestTaskUnmarshalIsLenient(t *testing.T) {
	var got Task
	body := `{"id":"1","title":"x","priority":"someday","dueDate":"not a date","completed":false}`
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Due != nil {
		t.Errorf("expected malformed due date to decode as absent, got %v", got.Due)
	}
	if got.Priority != PriorityNormal {
		t.Errorf("expected unknown priority to decode as NORMAL, got %s", got.Priority)
	}
}

func TestDraftUnmarshalIsStrict(t *testing.T) {
	var d Draft
	if err := json.Unmarshal([]byte(`{"title":"x","owner":"mallory"}`), &d); err == nil {
		t.Errorf("expected unknown field to be rejected")
	}
	if err := json.Unmarshal([]byte(`{"title":"x","dueDate":"15/03/2025"}`), &d); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
	if err := json.Unmarshal([]byte(`{"title":"x","dueDate":"2025-03-15"}`), &d); err != nil {
		t.Fatalf("unmarshal date-only: %v", err)
	}
	want := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	if d.Due == nil || !d.Due.Equal(want) {
		t.Errorf("expected midnight UTC, got %v", d.Due)
	}
}

func TestPatchUnmarshalDistinguishesNullFromAbsent(t *testing.T) {
	var p Patch
	if err := json.Unmarshal([]byte(`{"dueDate":null,"completed":true}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !p.Due.Set || p.Due.Value != nil {
		t.Errorf("expected dueDate cleared, got %+v", p.Due)
	}
	if p.ReminderAt.Set {
		t.Errorf("expected reminderTime untouched")
	}
	if p.Completed == nil || !*p.Completed {
		t.Errorf("expected completed=true")
	}

	if err := json.Unmarshal([]byte(`{"owner":"x"}`), &p); err == nil {
		t.Errorf("expected unknown field to be rejected")
	}

	data, err := json.Marshal(Patch{Due: ClearTime()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"dueDate":null}` {
		t.Errorf("expected only a null dueDate, got %s", data)
	}
}
