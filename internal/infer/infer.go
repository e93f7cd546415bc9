// Package infer turns a free-form task title into a draft task: a due date
// parsed from the title, a templated description, a priority, a category
// and a few tags.
package infer

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"studydesk/internal/task"
)

// DuePolicy supplies a due date when the title names none.
type DuePolicy func(now time.Time) time.Time

// FixedDays puts the due date n days after now.
func FixedDays(n int) DuePolicy {
	return func(now time.Time) time.Time {
		return now.AddDate(0, 0, n)
	}
}

// RandomDays picks between min and max days after now, inclusive.
func RandomDays(min, max int, rng *rand.Rand) DuePolicy {
	pick := randomInt(min, max, rng)
	return func(now time.Time) time.Time {
		return now.AddDate(0, 0, pick())
	}
}

// EstimatePolicy supplies the estimated minutes of a generated draft.
type EstimatePolicy func() int

func FixedEstimate(minutes int) EstimatePolicy {
	return func() int { return minutes }
}

// RandomEstimate picks between min and max minutes, inclusive.
func RandomEstimate(min, max int, rng *rand.Rand) EstimatePolicy {
	return EstimatePolicy(randomInt(min, max, rng))
}

func randomInt(min, max int, rng *rand.Rand) func() int {
	if max < min {
		min, max = max, min
	}
	var mu sync.Mutex
	return func() int {
		mu.Lock()
		defer mu.Unlock()
		return min + rng.Intn(max-min+1)
	}
}

type Inferrer struct {
	Now         func() time.Time
	FallbackDue DuePolicy
	Estimate    EstimatePolicy
}

// New builds an Inferrer on the wall clock. fallbackDays > 0 fixes the
// fallback due date; otherwise it is 1 to 7 days out at random.
func New(fallbackDays int, rng *rand.Rand) *Inferrer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	due := RandomDays(1, 7, rng)
	if fallbackDays > 0 {
		due = FixedDays(fallbackDays)
	}
	return &Inferrer{
		Now:         time.Now,
		FallbackDue: due,
		Estimate:    RandomEstimate(30, 149, rng),
	}
}

type Result struct {
	Draft        task.Draft
	CleanedTitle string
	DateFound    bool
}

// Infer builds a draft from title. The draft keeps the title as typed; the
// other rules run on the title with its date expression removed.
func (i *Inferrer) Infer(title string) (Result, error) {
	if strings.TrimSpace(title) == "" {
		return Result{}, task.ErrEmptyTitle
	}
	now := time.Now()
	if i.Now != nil {
		now = i.Now()
	}

	due, cleaned, found := ExtractDate(title, now)
	if !found {
		due = i.fallback(now)
	}

	d := task.Draft{
		Title:       strings.TrimSpace(title),
		Description: Describe(cleaned),
		Priority:    InferPriority(cleaned),
		Due:         &due,
		Recurrence:  task.RecurrenceNone,
		Tags:        SuggestTags(cleaned),
		Category:    InferCategory(cleaned),
	}
	if i.Estimate != nil {
		d.EstimatedMinutes = i.Estimate()
	}
	return Result{Draft: d, CleanedTitle: cleaned, DateFound: found}, nil
}

func (i *Inferrer) fallback(now time.Time) time.Time {
	if i.FallbackDue == nil {
		return now.AddDate(0, 0, 1)
	}
	return i.FallbackDue(now)
}
