package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"studydesk/internal/infer"
	"studydesk/internal/task"
	"studydesk/internal/view"
)

func init() {
	color.NoColor = true
}

func TestPrintViewGroupsUpcoming(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tue := now.AddDate(0, 0, 1)
	wed := now.AddDate(0, 0, 2)
	tasks := []task.Task{
		{ID: "b", Title: "Quiz", Priority: task.PriorityUrgent, Due: &wed, Tags: task.Tags{"math"}},
		{ID: "a", Title: "Lab", Priority: task.PriorityNormal, Due: &tue},
	}

	var buf bytes.Buffer
	printView(&buf, view.Derive(view.Upcoming, tasks, now, view.Filter{}), time.UTC)
	out := buf.String()

	for _, want := range []string{"UPCOMING (2)", "Tue Mar 11", "[ ] Lab normal due 2025-03-11 09:00", "Quiz urgent", "#math"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Index(out, "Lab") > strings.Index(out, "Quiz") {
		t.Errorf("expected Lab before Quiz:\n%s", out)
	}
}

func TestPrintViewEmpty(t *testing.T) {
	var buf bytes.Buffer
	printView(&buf, view.Derive(view.Completed, nil, time.Now(), view.Filter{}), time.UTC)
	if !strings.Contains(buf.String(), "nothing here") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestPrintDraftMarksDefaultDue(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	gen := &infer.Inferrer{
		Now:         func() time.Time { return now },
		FallbackDue: infer.FixedDays(2),
		Estimate:    infer.FixedEstimate(60),
	}
	res, err := gen.Infer("Read chapter four")
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}

	var buf bytes.Buffer
	printDraft(&buf, res, time.UTC)
	out := buf.String()
	for _, want := range []string{"Read chapter four", "Wed 2025-03-12 09:00 (default)", "60 min"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}
