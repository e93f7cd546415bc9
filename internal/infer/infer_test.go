package infer

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"studydesk/internal/task"
)

// Monday.
var monday = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func fixedInferrer(now time.Time) *Inferrer {
	return &Inferrer{
		Now:         func() time.Time { return now },
		FallbackDue: FixedDays(3),
		Estimate:    FixedEstimate(45),
	}
}

func TestInferUrgentMeetingTomorrow(t *testing.T) {
	res, err := fixedInferrer(monday).Infer("Urgent meeting tomorrow")
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	d := res.Draft
	if d.Priority != task.PriorityUrgent {
		t.Errorf("expected URGENT, got %s", d.Priority)
	}
	if d.Category != "Meetings" {
		t.Errorf("expected Meetings, got %s", d.Category)
	}
	if want := monday.AddDate(0, 0, 1); d.Due == nil || !d.Due.Equal(want) {
		t.Errorf("expected due %v, got %v", want, d.Due)
	}
	if !strings.HasPrefix(d.Description, `Prepare for the "Urgent meeting"`) {
		t.Errorf("expected meeting template, got %q", d.Description)
	}
	allowed := map[string]bool{"urgent": true, "meeting": true, "tomorrow": true}
	if len(d.Tags) == 0 || len(d.Tags) > 3 {
		t.Errorf("expected 1-3 tags, got %v", d.Tags)
	}
	for _, tag := range d.Tags {
		if !allowed[tag] {
			t.Errorf("unexpected tag %q", tag)
		}
	}
	if d.Title != "Urgent meeting tomorrow" {
		t.Errorf("expected original title on draft, got %q", d.Title)
	}
	if d.Recurrence != task.RecurrenceNone || d.EstimatedMinutes != 45 {
		t.Errorf("unexpected recurrence/estimate %s/%d", d.Recurrence, d.EstimatedMinutes)
	}
}

func TestInferReportWithNumericDate(t *testing.T) {
	res, err := fixedInferrer(monday).Infer("Report due 3/15/2025")
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if res.CleanedTitle != "Report" {
		t.Errorf("expected cleaned title Report, got %q", res.CleanedTitle)
	}
	if !res.DateFound {
		t.Errorf("expected a date to be found")
	}
	want := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	if res.Draft.Due == nil || !res.Draft.Due.Equal(want) {
		t.Errorf("expected %v, got %v", want, res.Draft.Due)
	}
	if res.Draft.Category != "Documentation" {
		t.Errorf("expected Documentation, got %s", res.Draft.Category)
	}
	if !strings.HasPrefix(res.Draft.Description, `Create a comprehensive report on "Report"`) {
		t.Errorf("expected report template, got %q", res.Draft.Description)
	}
}

func TestExtractDate(t *testing.T) {
	cases := []struct {
		title   string
		want    time.Time
		cleaned string
	}{
		{"Essay 15/3/2025", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), "Essay"},
		{"Submit essay 2025-03-15", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), "Submit essay"},
		{"Lab report due 2025-4-2 afternoon", time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), "Lab report afternoon"},
		{"Quiz 4-2-25", time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), "Quiz"},
		{"Old notes 1.2.99", time.Date(1999, 1, 2, 0, 0, 0, 0, time.UTC), "Old notes"},
		{"Submit essay by Jan 15", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), "Submit essay"},
		{"Lab on March 10th", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), "Lab"},
		{"Exam 15th April", time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC), "Exam"},
		{"Tutorial next friday", monday.AddDate(0, 0, 4), "Tutorial"},
		{"Seminar next monday", monday.AddDate(0, 0, 7), "Seminar"},
		{"Read ahead next week", monday.AddDate(0, 0, 7), "Read ahead"},
		{"Pay rent next month", monday.AddDate(0, 1, 0), "Pay rent"},
	}
	for _, tc := range cases {
		got, cleaned, ok := ExtractDate(tc.title, monday)
		if !ok {
			t.Errorf("%q: expected a date", tc.title)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("%q: expected %v, got %v", tc.title, tc.want, got)
		}
		if cleaned != tc.cleaned {
			t.Errorf("%q: expected cleaned %q, got %q", tc.title, tc.cleaned, cleaned)
		}
	}
}

func TestExtractDateRejectsImpossibleDates(t *testing.T) {
	for _, title := range []string{"Party 13/14/2025", "Essay Feb 30", "Essay 2025-02-30", "Plain title"} {
		if _, cleaned, ok := ExtractDate(title, monday); ok {
			t.Errorf("%q: expected no date", title)
		} else if cleaned != title {
			t.Errorf("%q: expected title unchanged, got %q", title, cleaned)
		}
	}
}

func TestInferISODateStaysOutOfTags(t *testing.T) {
	res, err := fixedInferrer(monday).Infer("Submit essay 2025-03-15")
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if !res.DateFound || !res.Draft.Due.Equal(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected 2025-03-15, got %v (found=%v)", res.Draft.Due, res.DateFound)
	}
	if res.Draft.Tags.String() != "submit,essay" {
		t.Errorf("unexpected tags %q", res.Draft.Tags.String())
	}
}

func TestInferFallsBackToDuePolicy(t *testing.T) {
	res, err := fixedInferrer(monday).Infer("Tidy desk")
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if res.DateFound {
		t.Errorf("did not expect a date")
	}
	if want := monday.AddDate(0, 0, 3); !res.Draft.Due.Equal(want) {
		t.Errorf("expected fallback %v, got %v", want, res.Draft.Due)
	}
	if !strings.HasPrefix(res.Draft.Description, `Complete "Tidy desk"`) {
		t.Errorf("expected generic template, got %q", res.Draft.Description)
	}
	if res.Draft.Category != DefaultInferredCategory {
		t.Errorf("expected %s, got %s", DefaultInferredCategory, res.Draft.Category)
	}
}

func TestRandomPoliciesStayInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	due := RandomDays(1, 7, rng)
	est := RandomEstimate(30, 149, rng)
	for i := 0; i < 200; i++ {
		days := int(due(monday).Sub(monday).Hours() / 24)
		if days < 1 || days > 7 {
			t.Fatalf("due %d days out", days)
		}
		if m := est(); m < 30 || m > 149 {
			t.Fatalf("estimate %d out of range", m)
		}
	}
}

func TestInferIsStableForSameTitle(t *testing.T) {
	a, _ := fixedInferrer(monday).Infer("Review chapter notes")
	b, _ := New(0, rand.New(rand.NewSource(7))).Infer("Review chapter notes")
	if a.Draft.Description != b.Draft.Description || a.Draft.Priority != b.Draft.Priority || a.Draft.Category != b.Draft.Category {
		t.Errorf("expected identical description/priority/category, got %+v vs %+v", a.Draft, b.Draft)
	}
}

func TestInferRejectsBlankTitle(t *testing.T) {
	if _, err := fixedInferrer(monday).Infer("   "); !errors.Is(err, task.ErrEmptyTitle) {
		t.Errorf("expected ErrEmptyTitle, got %v", err)
	}
}

func TestKeywordsMatchAtWordStart(t *testing.T) {
	if got := InferPriority("Follow up with tutor"); got != task.PriorityNormal {
		t.Errorf("expected NORMAL, got %s", got)
	}
	if got := InferPriority("Read this if time allows"); got != task.PriorityLow {
		t.Errorf("expected LOW, got %s", got)
	}
	if got := InferPriority("Critical bug"); got != task.PriorityHigh {
		t.Errorf("expected HIGH, got %s", got)
	}
	if got := Describe("Reassess budget"); !strings.HasPrefix(got, `Conduct a thorough review of "Reassess budget"`) {
		t.Errorf("expected review template, got %q", got)
	}
	if got := InferCategory("Explain the recursion"); got != DefaultInferredCategory {
		t.Errorf("expected %s, got %s", DefaultInferredCategory, got)
	}
	if got := InferCategory("Study for finals"); got != "Research" {
		t.Errorf("expected Research, got %s", got)
	}
}

func TestSuggestTags(t *testing.T) {
	got := SuggestTags("The essay on Shakespeare, and the sonnets and essay")
	if got.String() != "essay,shakespeare,sonnets" {
		t.Errorf("unexpected tags %q", got.String())
	}
	if got := SuggestTags("Essay 2025-02-30 draft 3000"); got.String() != "essay,draft" {
		t.Errorf("expected letterless tokens skipped, got %q", got.String())
	}
	if got := SuggestTags("go to it"); len(got) != 0 {
		t.Errorf("expected no tags, got %v", got)
	}
}
