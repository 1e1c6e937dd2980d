package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-pkgz/lgr"

	"github.com/Shiraishi0303/todo-claude-code/internal/export"
	"github.com/Shiraishi0303/todo-claude-code/internal/model"
	"github.com/Shiraishi0303/todo-claude-code/internal/store"
)

type viewMode int

const (
	listView viewMode = iota
	formView
	confirmView
	exportView
)

const (
	titleField = iota
	priorityField
	deadlineField
)

var (
	baseStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			PaddingRight(1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#89B4FA")).
			Underline(true).
			Bold(true).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EE6FF8")).
			Bold(true)

	completedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6E3A1")).
			Strikethrough(true)

	overdueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DC3545")).
			Bold(true)

	priorityStyles = map[model.Priority]lipgloss.Style{
		model.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
		model.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("#FAB387")),
		model.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
	}

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8")).
			Bold(true)

	formStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1).
			Margin(1)
)

// Model is the bubbletea program state. Every store call happens inside
// Update, so the store is only touched from the program loop.
type Model struct {
	ctx      context.Context
	store    *store.Store
	exporter *export.Exporter
	log      lgr.L

	keys keyMap
	help help.Model

	mode     viewMode
	cursor   int
	isEdit   bool
	inputs   []textinput.Model
	focus    int
	target   model.Task
	pathIn   textinput.Model
	status   string
	errorMsg string
}

func New(ctx context.Context, st *store.Store, exporter *export.Exporter, logger lgr.L) Model {
	inputs := make([]textinput.Model, 3)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].CharLimit = 200
	}
	inputs[titleField].Prompt = "Title:    "
	inputs[titleField].Placeholder = "what needs doing"
	inputs[priorityField].Prompt = "Priority: "
	inputs[priorityField].Placeholder = "high | medium | low"
	inputs[deadlineField].Prompt = "Deadline: "
	inputs[deadlineField].Placeholder = "YYYY-MM-DD (optional)"

	pathIn := textinput.New()
	pathIn.Prompt = "Export to: "
	pathIn.CharLimit = 512
	pathIn.Placeholder = "tasks.json | tasks.csv | tasks.pdf"

	return Model{
		ctx:      ctx,
		store:    st,
		exporter: exporter,
		log:      logger,
		keys:     defaultKeyMap(),
		help:     help.New(),
		inputs:   inputs,
		pathIn:   pathIn,
	}
}

// Run starts the full-screen program and blocks until it quits.
func Run(ctx context.Context, st *store.Store, exporter *export.Exporter, logger lgr.L) error {
	p := tea.NewProgram(New(ctx, st, exporter, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("could not run tui: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		m.errorMsg = ""
		switch m.mode {
		case formView:
			return m.updateForm(msg)
		case confirmView:
			return m.updateConfirm(msg)
		case exportView:
			return m.updateExport(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m *Model) clampCursor() {
	n := len(m.store.Filtered())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) current() (model.Task, bool) {
	tasks := m.store.Filtered()
	if m.cursor < 0 || m.cursor >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[m.cursor], true
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.store.Filtered())-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Toggle):
		if t, ok := m.current(); ok {
			m.store.Toggle(m.ctx, t.ID)
			m.clampCursor()
		}

	case key.Matches(msg, m.keys.Filter):
		m.store.SetFilter(string(m.store.Filter().Next()))
		m.cursor = 0

	case key.Matches(msg, m.keys.Add):
		m.isEdit = false
		cmd := m.openForm("", model.PriorityMedium, model.Date{})
		return m, cmd

	case key.Matches(msg, m.keys.Edit):
		t, ok := m.current()
		if !ok {
			return m, nil
		}
		task, ok := m.store.BeginEdit(t.ID)
		if !ok {
			return m, nil
		}
		m.isEdit = true
		cmd := m.openForm(task.Title, task.Priority, task.Deadline)
		return m, cmd

	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.current(); ok {
			m.target = t
			m.mode = confirmView
		}

	case key.Matches(msg, m.keys.Export):
		m.mode = exportView
		m.pathIn.SetValue("")
		cmd := m.pathIn.Focus()
		return m, cmd
	}
	return m, nil
}

func (m *Model) openForm(title string, priority model.Priority, deadline model.Date) tea.Cmd {
	m.mode = formView
	m.inputs[titleField].SetValue(title)
	m.inputs[priorityField].SetValue(string(priority))
	m.inputs[deadlineField].SetValue(deadline.String())
	return m.focusField(titleField)
}

func (m *Model) focusField(i int) tea.Cmd {
	m.focus = (i + len(m.inputs)) % len(m.inputs)
	for j := range m.inputs {
		m.inputs[j].Blur()
	}
	return m.inputs[m.focus].Focus()
}

func (m *Model) closeForm() {
	for j := range m.inputs {
		m.inputs[j].Blur()
	}
	m.mode = listView
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		if m.isEdit {
			m.store.CancelEdit()
		}
		m.closeForm()
		return m, nil

	case key.Matches(msg, m.keys.Next):
		cmd := m.focusField(m.focus + 1)
		return m, cmd

	case key.Matches(msg, m.keys.Prev):
		cmd := m.focusField(m.focus - 1)
		return m, cmd

	case key.Matches(msg, m.keys.Enter):
		if err := m.submitForm(); err != nil {
			m.errorMsg = err.Error()
			return m, nil
		}
		m.closeForm()
		m.clampCursor()
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) submitForm() error {
	priority := model.PriorityMedium
	if v := strings.TrimSpace(m.inputs[priorityField].Value()); v != "" {
		p, ok := model.ParsePriority(v)
		if !ok {
			return fmt.Errorf("unknown priority %q", v)
		}
		priority = p
	}

	deadline, err := model.ParseDate(m.inputs[deadlineField].Value())
	if err != nil {
		return err
	}

	title := m.inputs[titleField].Value()
	if m.isEdit {
		m.store.CommitEdit(m.ctx, title, priority, deadline)
		m.status = "saved"
		return nil
	}

	if _, ok := m.store.Add(m.ctx, title, priority, deadline); !ok {
		return errors.New("title must not be empty")
	}
	m.cursor = 0
	m.status = "added"
	return nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Confirm) {
		m.store.Remove(m.ctx, m.target.ID)
		m.status = "deleted"
		m.clampCursor()
	}
	m.mode = listView
	return m, nil
}

func (m Model) updateExport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.pathIn.Blur()
		m.mode = listView
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		path := strings.TrimSpace(m.pathIn.Value())
		tasks := m.store.Filtered()
		if err := m.exporter.WriteFile(path, tasks); err != nil {
			m.errorMsg = err.Error()
			return m, nil
		}
		m.log.Logf("[INFO] exported %d tasks to %s", len(tasks), path)
		m.status = fmt.Sprintf("exported %d tasks to %s", len(tasks), path)
		m.pathIn.Blur()
		m.mode = listView
		return m, nil
	}

	var cmd tea.Cmd
	m.pathIn, cmd = m.pathIn.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	switch m.mode {
	case formView:
		return m.renderForm()
	case confirmView:
		return m.renderConfirm()
	case exportView:
		return m.renderExport()
	default:
		return m.renderList()
	}
}

func (m Model) renderTabs() string {
	labels := m.store.Labels()
	var tabs []string
	for _, f := range model.Filters {
		style := tabStyle
		if f == m.store.Filter() {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(labels.Filter(f)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderList() string {
	var b strings.Builder
	counts := m.store.Counts()

	b.WriteString(headerStyle.Render("TODO") + " " + m.renderTabs() + "\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d total, %d active, %d completed", counts.Total, counts.Active, counts.Completed)) + "\n\n")

	tasks := m.store.Filtered()
	if len(tasks) == 0 {
		b.WriteString(mutedStyle.Render(m.store.Labels().Empty(m.store.Filter())) + "\n")
	}
	for i, t := range tasks {
		b.WriteString(m.renderTask(t, i == m.cursor) + "\n")
	}

	if m.status != "" {
		b.WriteString("\n" + mutedStyle.Render(m.status) + "\n")
	}
	if m.errorMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.errorMsg) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return baseStyle.Render(b.String())
}

func (m Model) renderTask(t model.Task, selected bool) string {
	pointer := "  "
	if selected {
		pointer = selectedStyle.Render("> ")
	}

	box := "[ ]"
	title := t.Title
	if t.Completed {
		box = "[✓]"
		title = completedStyle.Render(title)
	} else if selected {
		title = selectedStyle.Render(title)
	}

	label := m.store.PriorityLabel(t.Priority)
	if style, ok := priorityStyles[t.Priority]; ok {
		label = style.Render(label)
	}

	line := fmt.Sprintf("%s%s %s  %s", pointer, box, title, label)
	if !t.Deadline.IsZero() {
		due := "due " + t.Deadline.Display()
		if m.store.ShowOverdue(t) {
			due = overdueStyle.Render(fmt.Sprintf("%s (%s)", due, m.store.Labels().Overdue()))
		}
		line += "  " + due
	}
	return line
}

func (m Model) renderForm() string {
	heading := "New task"
	if m.isEdit {
		heading = "Edit task"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(heading) + "\n\n")
	for _, in := range m.inputs {
		b.WriteString(in.View() + "\n")
	}
	if m.errorMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.errorMsg) + "\n")
	}
	b.WriteString("\n" + m.help.View(formKeys{m.keys}))
	return formStyle.Render(b.String())
}

func (m Model) renderConfirm() string {
	text := fmt.Sprintf("%s\n\n%q\n\n[y] yes   [any other key] no", m.store.Labels().ConfirmDelete(), m.target.Title)
	return formStyle.Render(text)
}

func (m Model) renderExport() string {
	var b strings.Builder
	b.WriteString(m.pathIn.View() + "\n")
	if m.errorMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.errorMsg) + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render("enter: export, esc: cancel"))
	return formStyle.Render(b.String())
}
