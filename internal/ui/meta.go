package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"studydesk/internal/infer"
	"studydesk/internal/task"
)

type metaField int

const (
	fieldTitle metaField = iota
	fieldDescription
	fieldPriority
	fieldDue
	fieldReminder
	fieldRecurrence
	fieldRecurrenceEnd
	fieldEstimate
	fieldTags
	fieldCategory
	fieldCount
)

func metaFields() []string {
	return []string{
		"title",
		"description",
		"priority (low/normal/high/urgent)",
		"due (YYYY-MM-DD [HH:MM])",
		"reminder (YYYY-MM-DD [HH:MM])",
		"recurrence (none/daily/weekdays/weekly/biweekly/monthly/yearly)",
		"recurrence end (YYYY-MM-DD [HH:MM])",
		"estimate (minutes)",
		"tags (comma separated)",
		"category",
	}
}

// metaState holds the editor values as typed. orig keeps what the task had
// so only changed fields end up in the patch.
type metaState struct {
	taskID string
	values [fieldCount]string
	orig   [fieldCount]string
	index  int
}

func newMetaState(t task.Task, loc *time.Location) *metaState {
	ms := &metaState{taskID: t.ID}
	ms.values[fieldTitle] = t.Title
	ms.values[fieldDescription] = t.Description
	ms.values[fieldPriority] = strings.ToLower(string(t.Priority))
	ms.values[fieldDue] = formatDateIn(t.Due, loc)
	ms.values[fieldReminder] = formatDateIn(t.ReminderAt, loc)
	ms.values[fieldRecurrence] = strings.ToLower(string(t.Recurrence))
	ms.values[fieldRecurrenceEnd] = formatDateIn(t.RecurrenceEnd, loc)
	if t.EstimatedMinutes > 0 {
		ms.values[fieldEstimate] = strconv.Itoa(t.EstimatedMinutes)
	}
	ms.values[fieldTags] = t.Tags.String()
	ms.values[fieldCategory] = t.Category
	ms.orig = ms.values
	return ms
}

func (ms metaState) currentLabel() string {
	return metaFields()[ms.index]
}

func (ms metaState) currentValue() string {
	return ms.values[ms.index]
}

func (ms *metaState) setCurrentValue(v string) {
	ms.values[ms.index] = v
}

func (ms metaState) changed(f metaField) bool {
	return strings.TrimSpace(ms.values[f]) != strings.TrimSpace(ms.orig[f])
}

// patch turns the edited fields into a partial update.
func (ms metaState) patch(loc *time.Location) (task.Patch, error) {
	var p task.Patch
	if ms.changed(fieldTitle) {
		v := ms.values[fieldTitle]
		p.Title = &v
	}
	if ms.changed(fieldDescription) {
		v := ms.values[fieldDescription]
		p.Description = &v
	}
	if ms.changed(fieldPriority) {
		pr, err := task.ParsePriority(ms.values[fieldPriority])
		if err != nil {
			return task.Patch{}, fmt.Errorf("priority invalid: %w", err)
		}
		p.Priority = &pr
	}
	for _, f := range []struct {
		field metaField
		name  string
		dst   *task.OptionalTime
	}{
		{fieldDue, "due date", &p.Due},
		{fieldReminder, "reminder", &p.ReminderAt},
		{fieldRecurrenceEnd, "recurrence end", &p.RecurrenceEnd},
	} {
		if !ms.changed(f.field) {
			continue
		}
		when, err := parseDate(ms.values[f.field], loc)
		if err != nil {
			return task.Patch{}, fmt.Errorf("%s invalid: %w", f.name, err)
		}
		if when == nil {
			*f.dst = task.ClearTime()
		} else {
			*f.dst = task.SetTime(*when)
		}
	}
	if ms.changed(fieldRecurrence) {
		r, err := task.ParseRecurrence(ms.values[fieldRecurrence])
		if err != nil {
			return task.Patch{}, fmt.Errorf("recurrence invalid: %w", err)
		}
		p.Recurrence = &r
	}
	if ms.changed(fieldEstimate) {
		n := 0
		if v := strings.TrimSpace(ms.values[fieldEstimate]); v != "" {
			var err error
			if n, err = strconv.Atoi(v); err != nil || n < 0 {
				return task.Patch{}, fmt.Errorf("estimate invalid: %q", v)
			}
		}
		p.EstimatedMinutes = &n
	}
	if ms.changed(fieldTags) {
		tags := task.ParseTags(ms.values[fieldTags])
		p.Tags = &tags
	}
	if ms.changed(fieldCategory) {
		v := ms.values[fieldCategory]
		p.Category = &v
	}
	return p, nil
}

func (m Model) startMetadataEdit(t task.Task) (tea.Model, tea.Cmd) {
	m.meta = newMetaState(t, m.now().Location())
	m.input.SetValue(m.meta.currentValue())
	m.input.Placeholder = m.meta.currentLabel()
	m.mode = modeMetadata
	m.status = fmt.Sprintf("Edit task: tab/up/down to move, enter to save/next, %s to suggest a description, esc to cancel", m.cfg.Keys.Suggest)
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) updateMetadataMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.meta = nil
		m.mode = modeList
		m.input.Blur()
		m.status = "Edit cancelled"
		return m, nil
	case "tab", "down":
		m.moveMeta(1)
		return m, nil
	case "shift+tab", "up":
		m.moveMeta(-1)
		return m, nil
	case m.cfg.Keys.Suggest:
		return m.suggestDescription()
	case m.cfg.Keys.Confirm, "enter":
		m.meta.setCurrentValue(m.input.Value())
		if m.meta.index >= len(metaFields())-1 {
			return m.saveMetadata()
		}
		m.moveMeta(1)
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) moveMeta(delta int) {
	m.meta.setCurrentValue(m.input.Value())
	m.meta.index = wrapIndex(m.meta.index+delta, len(metaFields()))
	m.input.SetValue(m.meta.currentValue())
	m.input.Placeholder = m.meta.currentLabel()
	m.status = m.metaPrompt()
}

// suggestDescription asks the describer for a description of the title as
// currently typed. The answer arrives as a suggestionMsg.
func (m Model) suggestDescription() (tea.Model, tea.Cmd) {
	m.meta.setCurrentValue(m.input.Value())
	id := m.meta.taskID
	title := strings.TrimSpace(m.meta.values[fieldTitle])
	if title == "" {
		m.status = "Title is empty"
		return m, nil
	}
	m.status = "Suggesting description..."
	describer := m.describer
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if describer == nil {
			return suggestionMsg{taskID: id, description: infer.Describe(title)}
		}
		return suggestionMsg{taskID: id, description: describer.Describe(ctx, title)}
	}
}

func (m Model) applySuggestion(msg suggestionMsg) Model {
	if m.meta == nil || m.meta.taskID != msg.taskID {
		return m
	}
	m.meta.setCurrentValue(m.input.Value())
	m.meta.values[fieldDescription] = msg.description
	if metaField(m.meta.index) == fieldDescription {
		m.input.SetValue(msg.description)
	}
	m.status = "Description suggested; enter through the fields to save"
	return m
}

func (m Model) saveMetadata() (tea.Model, tea.Cmd) {
	p, err := m.meta.patch(m.now().Location())
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	id := m.meta.taskID
	m.meta = nil
	m.mode = modeList
	m.input.Blur()
	if p.IsEmpty() {
		m.status = "Nothing changed"
		return m, nil
	}
	m.status = "Saving..."
	return m, m.run("save", func(ctx context.Context) resultMsg {
		updated, err := m.store.Update(ctx, id, p)
		if err != nil && updated.ID == "" {
			return resultMsg{err: err}
		}
		return resultMsg{status: "Task saved", err: err, selectID: id}
	})
}

func (m Model) metaPrompt() string {
	if m.meta == nil {
		return ""
	}
	return fmt.Sprintf("Editing %s (field %d of %d). Enter to advance, Esc to cancel.",
		m.meta.currentLabel(), m.meta.index+1, len(metaFields()))
}

func parseDate(v string, loc *time.Location) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", task.DateLayout} {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%q is not YYYY-MM-DD", v)
}

// parseRange reads "from..to" where either side may be blank. The upper
// bound covers its whole day.
func parseRange(v string, loc *time.Location) (after, before *time.Time, err error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil, nil
	}
	from, to, found := strings.Cut(v, "..")
	if !found {
		to = from
	}
	if after, err = parseDate(from, loc); err != nil {
		return nil, nil, err
	}
	if before, err = parseDate(to, loc); err != nil {
		return nil, nil, err
	}
	if before != nil && !strings.Contains(strings.TrimSpace(to), " ") {
		end := before.AddDate(0, 0, 1).Add(-time.Nanosecond)
		before = &end
	}
	if after != nil && before != nil && before.Before(*after) {
		return nil, nil, fmt.Errorf("range %q ends before it starts", v)
	}
	return after, before, nil
}

func formatDateIn(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	local := t.In(loc)
	if local.Hour() == 0 && local.Minute() == 0 {
		return local.Format(task.DateLayout)
	}
	return local.Format("2006-01-02 15:04")
}
