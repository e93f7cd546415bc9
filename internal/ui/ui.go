package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"studydesk/internal/config"
	"studydesk/internal/infer"
	"studydesk/internal/store"
	"studydesk/internal/task"
	"studydesk/internal/view"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeGenerate
	modeMetadata
	modeDueFilter
)

const opTimeout = 15 * time.Second

// Generator drafts a task from a free-form title.
type Generator interface {
	Infer(title string) (infer.Result, error)
}

// Describer suggests a description for a title.
type Describer interface {
	Describe(ctx context.Context, title string) string
}

// snapshotMsg carries a store notification into the event loop.
type snapshotMsg []task.Task

type resultMsg struct {
	status   string
	err      error
	selectID string
	tasks    []task.Task
}

type suggestionMsg struct {
	taskID      string
	description string
}

type Options struct {
	Store     *store.Store
	Generator Generator
	Describer Describer
	Config    config.Config
	Logger    logrus.FieldLogger
	Now       func() time.Time
}

type Model struct {
	store     *store.Store
	gen       Generator
	describer Describer
	cfg       config.Config
	log       logrus.FieldLogger
	now       func() time.Time

	tasks      []task.Task
	kind       view.Kind
	filter     view.Filter
	derived    view.Result
	cursor     int
	mode       mode
	input      textinput.Model
	status     string
	confirmDel bool
	pendingDel *task.Task
	meta       *metaState
}

func New(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Task title"
	ti.CharLimit = 256
	ti.Width = 40

	kind, err := view.ParseKind(opts.Config.DefaultView)
	if err != nil {
		kind = view.Inbox
	}
	m := Model{
		store:     opts.Store,
		gen:       opts.Generator,
		describer: opts.Describer,
		cfg:       opts.Config,
		log:       opts.Logger,
		now:       opts.Now,
		kind:      kind,
		input:     ti,
		mode:      modeList,
		status:    "Loading tasks...",
	}
	if m.log == nil {
		m.log = logrus.StandardLogger()
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.derive()
	return m
}

// Run starts the terminal UI. Every store change is pushed into the program,
// so optimistic updates show before the backend answers.
func Run(opts Options) error {
	program := tea.NewProgram(New(opts), tea.WithAltScreen())
	unsubscribe := opts.Store.Subscribe(func(tasks []task.Task) {
		program.Send(snapshotMsg(tasks))
	})
	defer unsubscribe()

	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.run("refresh", func(ctx context.Context) resultMsg {
		if err := m.store.Refresh(ctx); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{status: fmt.Sprintf("Press '%s' to add, '%s' to generate, '%s' to switch views.",
			m.cfg.Keys.Add, m.cfg.Keys.Generate, m.cfg.Keys.NextView)}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.apply(msg, "")
	case resultMsg:
		if msg.err != nil {
			m.status = errorStatus(msg.err)
		} else if msg.status != "" {
			m.status = msg.status
		}
		if msg.tasks != nil {
			m.apply(msg.tasks, msg.selectID)
		}
	case suggestionMsg:
		m = m.applySuggestion(msg)
	case tea.KeyMsg:
		if m.meta != nil {
			return m.updateMetadataMode(msg.String(), msg)
		}
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch m.mode {
	case modeAdd, modeGenerate, modeDueFilter:
		return m.updateInputMode(key, msg)
	}
	return m.updateListMode(key)
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.derived.Tasks))
	case m.cfg.Keys.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.derived.Tasks))
	case m.cfg.Keys.NextView, "right":
		m.switchView(int(m.kind) + 1)
	case m.cfg.Keys.PrevView, "left":
		m.switchView(int(m.kind) - 1)
	case m.cfg.Keys.Add:
		return m.startInput(modeAdd, "Task title", "Add mode: type a title and press Enter")
	case m.cfg.Keys.Generate:
		return m.startInput(modeGenerate, "e.g. Report due 3/15/2025",
			"Generate mode: describe the task, dates like 'tomorrow' or 'Jan 15' are picked up")
	case m.cfg.Keys.Refresh:
		m.status = "Refreshing..."
		return m, m.run("refresh", func(ctx context.Context) resultMsg {
			if err := m.store.Refresh(ctx); err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{status: "Refreshed"}
		})
	case m.cfg.Keys.Toggle:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.run("toggle", func(ctx context.Context) resultMsg {
			if err := m.store.Toggle(ctx, t.ID); err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{status: "Toggled task"}
		})
	case m.cfg.Keys.Delete:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.confirmDel = true
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Title)
	case m.cfg.Keys.Edit, m.cfg.Keys.Confirm:
		t, ok := m.selected()
		if !ok {
			m.status = "No task selected"
			return m, nil
		}
		return m.startMetadataEdit(t)
	case m.cfg.Keys.FilterPriority:
		m.filter.Priority = nextPriority(m.filter.Priority)
		m.showFilter()
	case m.cfg.Keys.FilterCompleted:
		m.filter.Completed = nextCompleted(m.filter.Completed)
		m.showFilter()
	case m.cfg.Keys.FilterDue:
		return m.startInput(modeDueFilter, "YYYY-MM-DD..YYYY-MM-DD",
			"Due range: either side may be empty, Enter to apply")
	case m.cfg.Keys.ClearFilter:
		m.filter = view.Filter{}
		m.showFilter()
	}
	return m, nil
}

func (m Model) startInput(md mode, placeholder, status string) (tea.Model, tea.Cmd) {
	m.mode = md
	m.input.SetValue("")
	m.input.Placeholder = placeholder
	m.status = status
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) updateInputMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		value := strings.TrimSpace(m.input.Value())
		md := m.mode
		if md == modeDueFilter {
			after, before, err := parseRange(value, m.now().Location())
			if err != nil {
				m.status = err.Error()
				return m, nil
			}
			m.filter.DueAfter, m.filter.DueBefore = after, before
			m.closeInput()
			m.showFilter()
			return m, nil
		}
		if value == "" {
			m.status = "Title cannot be empty"
			return m, nil
		}
		m.closeInput()
		if md == modeGenerate {
			m.status = "Generating..."
			return m, m.generate(value)
		}
		m.status = "Saving..."
		return m, m.run("save", func(ctx context.Context) resultMsg {
			created, err := m.store.Create(ctx, task.Draft{Title: value})
			if err != nil && created.ID == "" {
				return resultMsg{err: err}
			}
			return resultMsg{status: "Added task", err: err, selectID: created.ID}
		})
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) closeInput() {
	m.input.SetValue("")
	m.input.Blur()
	m.mode = modeList
}

func (m Model) generate(title string) tea.Cmd {
	return m.run("generate", func(ctx context.Context) resultMsg {
		if m.gen == nil {
			return resultMsg{err: errors.New("generation is not configured")}
		}
		res, err := m.gen.Infer(title)
		if err != nil {
			return resultMsg{err: err}
		}
		if m.describer != nil {
			res.Draft.Description = m.describer.Describe(ctx, res.CleanedTitle)
		}
		created, err := m.store.Create(ctx, res.Draft)
		if err != nil && created.ID == "" {
			return resultMsg{err: err}
		}
		status := fmt.Sprintf("Generated %q (%s, %s)", created.Title, created.Priority, created.Category)
		if created.Due != nil {
			status += " due " + formatDateIn(created.Due, m.now().Location())
		}
		return resultMsg{status: status, err: err, selectID: created.ID}
	})
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", "esc":
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		m.confirmDel = false
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			return m, nil
		}
		id := m.pendingDel.ID
		m.pendingDel = nil
		return m, m.run("delete", func(ctx context.Context) resultMsg {
			if err := m.store.Delete(ctx, id); err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{status: "Deleted task"}
		})
	default:
		return m, nil
	}
}

// run executes op off the event loop. The resulting message always carries
// the latest snapshot, so a reverted optimistic change is shown too.
func (m Model) run(action string, op func(ctx context.Context) resultMsg) tea.Cmd {
	st := m.store
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		res := op(ctx)
		if res.err != nil {
			log.WithError(res.err).WithField("action", action).Warn("task operation failed")
			res.err = fmt.Errorf("%s failed: %w", action, res.err)
		}
		res.tasks = st.Snapshot()
		if res.tasks == nil {
			res.tasks = []task.Task{}
		}
		return res
	}
}

func errorStatus(err error) string {
	return "Error: " + err.Error()
}

// apply replaces the snapshot, keeping the cursor on the same task when it
// is still visible.
func (m *Model) apply(tasks []task.Task, selectID string) {
	if selectID == "" {
		if t, ok := m.selected(); ok {
			selectID = t.ID
		}
	}
	m.tasks = tasks
	m.derive()
	for i, t := range m.derived.Tasks {
		if t.ID == selectID {
			m.cursor = i
			return
		}
	}
	m.cursor = clampCursor(m.cursor, len(m.derived.Tasks))
}

func (m *Model) derive() {
	m.derived = view.Derive(m.kind, m.tasks, m.now(), m.filter)
}

func (m *Model) switchView(k int) {
	n := len(view.Kinds)
	m.kind = view.Kinds[wrapIndex(k, n)]
	m.cursor = 0
	m.derive()
	m.status = fmt.Sprintf("%s: %d tasks", viewTitle(m.kind), len(m.derived.Tasks))
}

func (m *Model) showFilter() {
	m.kind = view.Filtered
	m.cursor = 0
	m.derive()
	m.status = fmt.Sprintf("Filter %s: %d tasks", describeFilter(m.filter), len(m.derived.Tasks))
}

func (m Model) selected() (task.Task, bool) {
	if len(m.derived.Tasks) == 0 {
		return task.Task{}, false
	}
	return m.derived.Tasks[clampCursor(m.cursor, len(m.derived.Tasks))], true
}

func nextPriority(p *task.Priority) *task.Priority {
	if p == nil {
		first := task.Priorities[0]
		return &first
	}
	for i, known := range task.Priorities {
		if known == *p && i+1 < len(task.Priorities) {
			next := task.Priorities[i+1]
			return &next
		}
	}
	return nil
}

// nextCompleted cycles any -> pending -> done -> any.
func nextCompleted(c *bool) *bool {
	if c == nil {
		v := false
		return &v
	}
	if !*c {
		v := true
		return &v
	}
	return nil
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}
