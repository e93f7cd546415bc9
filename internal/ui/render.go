package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"studydesk/internal/config"
	"studydesk/internal/task"
	"studydesk/internal/view"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	activeTabStyle = tabStyle.Foreground(lipgloss.Color("212")).Bold(true).Underline(true)
	dayStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	doneStyle      = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("241"))
	cursorStyle    = lipgloss.NewStyle().Bold(true)
	faintStyle     = lipgloss.NewStyle().Faint(true)
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	priorityStyles = map[task.Priority]lipgloss.Style{
		task.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("246")),
		task.PriorityNormal: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		task.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		task.PriorityUrgent: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("studydesk"))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	switch m.mode {
	case modeAdd, modeGenerate, modeDueFilter:
		b.WriteString(m.inputLabel())
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderTaskList())
	b.WriteString("\n")

	if m.mode == modeMetadata && m.meta != nil {
		b.WriteString(boxStyle.Render(m.renderMetaBox()))
		b.WriteString("\n")
		b.WriteString(m.input.View())
	} else {
		b.WriteString(m.renderDetail())
	}

	if m.status != "" {
		b.WriteString("\n")
		if strings.HasPrefix(m.status, "Error:") {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(m.status)
		}
	}
	b.WriteString("\n")
	b.WriteString(faintStyle.Render(renderHelp(m.cfg.Keys)))
	return b.String()
}

func (m Model) inputLabel() string {
	switch m.mode {
	case modeGenerate:
		return "Generate: "
	case modeDueFilter:
		return "Due range: "
	}
	return "New task: "
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(view.Kinds))
	for _, k := range view.Kinds {
		label := viewTitle(k)
		if k == view.Filtered && !m.filter.IsZero() {
			label += " (" + describeFilter(m.filter) + ")"
		}
		if k == m.kind {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderTaskList() string {
	if len(m.derived.Tasks) == 0 {
		return faintStyle.Render(emptyMessage(m.kind)) + "\n"
	}
	var b strings.Builder
	if m.kind == view.Upcoming {
		i := 0
		for _, g := range m.derived.Groups {
			b.WriteString(dayStyle.Render(g.Day.Format("Mon, Jan 2")))
			b.WriteString("\n")
			for _, t := range g.Tasks {
				b.WriteString(m.renderRow(i, t))
				i++
			}
		}
		return b.String()
	}
	for i, t := range m.derived.Tasks {
		b.WriteString(m.renderRow(i, t))
	}
	return b.String()
}

func (m Model) renderRow(i int, t task.Task) string {
	cursor := " "
	if i == m.cursor {
		cursor = cursorStyle.Render(">")
	}
	check := "[ ]"
	title := t.Title
	if t.Completed {
		check = "[x]"
		title = doneStyle.Render(title)
	}
	line := fmt.Sprintf("%s %s %s %s", cursor, check, title, priorityBadge(t.Priority))
	if due := formatDateIn(t.Due, m.now().Location()); due != "" && m.kind != view.Upcoming {
		line += faintStyle.Render(" due " + due)
	}
	return line + "\n"
}

func priorityBadge(p task.Priority) string {
	style, ok := priorityStyles[p]
	if !ok {
		style = priorityStyles[task.PriorityNormal]
	}
	return style.Render(strings.ToLower(string(p)))
}

func (m Model) renderMetaBox() string {
	var b strings.Builder
	for i, name := range metaFields() {
		prefix := " "
		if i == m.meta.index {
			prefix = ">"
		}
		b.WriteString(fmt.Sprintf("%s %-20s : %s\n", prefix, shortLabel(name), emptyPlaceholder(m.meta.values[i])))
	}
	return strings.TrimRight(b.String(), "\n")
}

func shortLabel(label string) string {
	name, _, _ := strings.Cut(label, " (")
	return name
}

func (m Model) renderDetail() string {
	t, ok := m.selected()
	if !ok {
		return "No task selected\n"
	}
	loc := m.now().Location()
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Title      : %s\n", t.Title))
	b.WriteString(fmt.Sprintf("Status     : %s\n", humanDone(t.Completed)))
	b.WriteString(fmt.Sprintf("Priority   : %s\n", priorityBadge(t.Priority)))
	b.WriteString(fmt.Sprintf("Due        : %s\n", emptyPlaceholder(formatDateIn(t.Due, loc))))
	b.WriteString(fmt.Sprintf("Category   : %s\n", emptyPlaceholder(t.Category)))
	b.WriteString(fmt.Sprintf("Tags       : %s\n", emptyPlaceholder(t.Tags.String())))
	if t.Recurrence != "" && t.Recurrence != task.RecurrenceNone {
		b.WriteString(fmt.Sprintf("Repeats    : %s\n", strings.ToLower(string(t.Recurrence))))
		if t.RecurrenceEnd != nil {
			b.WriteString(fmt.Sprintf("Until      : %s\n", formatDateIn(t.RecurrenceEnd, loc)))
		}
	}
	if t.ReminderAt != nil {
		b.WriteString(fmt.Sprintf("Reminder   : %s\n", formatDateIn(t.ReminderAt, loc)))
	}
	if t.EstimatedMinutes > 0 {
		b.WriteString(fmt.Sprintf("Estimate   : %d min\n", t.EstimatedMinutes))
	}
	if t.Description != "" {
		b.WriteString(fmt.Sprintf("Notes      : %s\n", t.Description))
	}
	return b.String()
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("Keys: %s/%s move, %s/%s views, %s add, %s generate, %s toggle, %s edit, %s delete, %s priority, %s done, %s due, %s clear, %s refresh, %s quit",
		k.Up, k.Down, k.NextView, k.PrevView, k.Add, k.Generate, keyName(k.Toggle), k.Edit, k.Delete,
		k.FilterPriority, k.FilterCompleted, k.FilterDue, k.ClearFilter, k.Refresh, k.Quit)
}

func keyName(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

func viewTitle(k view.Kind) string {
	s := k.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

func emptyMessage(k view.Kind) string {
	switch k {
	case view.Today:
		return "Nothing due today."
	case view.Upcoming:
		return "Nothing scheduled after today."
	case view.Completed:
		return "No completed tasks yet."
	case view.Filtered:
		return "No tasks match the filter."
	}
	return "No open tasks. Add one to get started."
}

func describeFilter(f view.Filter) string {
	if f.IsZero() {
		return "none"
	}
	var parts []string
	if f.Priority != nil {
		parts = append(parts, "priority="+strings.ToLower(string(*f.Priority)))
	}
	if f.Completed != nil {
		if *f.Completed {
			parts = append(parts, "done")
		} else {
			parts = append(parts, "pending")
		}
	}
	if f.DueAfter != nil {
		parts = append(parts, "from "+f.DueAfter.Format(task.DateLayout))
	}
	if f.DueBefore != nil {
		parts = append(parts, "to "+f.DueBefore.Format(task.DateLayout))
	}
	return strings.Join(parts, ", ")
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(empty)"
	}
	return v
}

func humanDone(done bool) string {
	if done {
		return "done"
	}
	return "pending"
}
