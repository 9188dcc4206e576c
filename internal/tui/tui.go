// Package tui is the interactive list over a todolist.Controller.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/todolist"
)

// Controller is what the TUI needs from todolist.Controller.
type Controller interface {
	Refresh(ctx context.Context) error
	Create(ctx context.Context, fields map[string]any) error
	Update(ctx context.Context, todo model.Todo) error
	Delete(ctx context.Context, id string) error
	Subscribe(fn func(todolist.State)) (cancel func())
	Snapshot() todolist.State
}

// listItem adapts a Todo to bubbles/list.Item
type listItem struct {
	todo model.Todo
}

func (i listItem) Title() string       { return i.todo.Name }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.todo.Name }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+mutedStyle.Render(bullet)+" "+it.todo.Name)
}

// stateMsg carries a controller snapshot into the update loop.
type stateMsg todolist.State

// opDoneMsg reports the end of a mutation started from the UI.
type opDoneMsg struct {
	op  string
	err error
}

type formMode int

const (
	formNone formMode = iota
	formAdd
	formEdit
)

type modelTUI struct {
	ctx     context.Context
	ctrl    Controller
	updates <-chan todolist.State

	list  list.Model
	spin  spinner.Model
	ti    textinput.Model
	state todolist.State

	form   formMode
	editID string // id of the item being edited
	status string // last failed UI operation

	width, height int
}

var (
	addBind     = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind    = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	deleteBind  = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	refreshBind = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh"))
)

func newModel(ctx context.Context, ctrl Controller, updates <-chan todolist.State) modelTUI {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = titleStyle.Render("Todos")
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")

	// Extend help with Add / Edit / Delete / Refresh bindings
	extra := func() []key.Binding { return []key.Binding{addBind, editBind, deleteBind, refreshBind} }
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "New todo..."
	ti.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	m := modelTUI{
		ctx:     ctx,
		ctrl:    ctrl,
		updates: updates,
		list:    l,
		spin:    sp,
		ti:      ti,
		width:   80,
		height:  24,
	}
	m.applyState(ctrl.Snapshot())
	m.resize()
	return m
}

// Run starts the Bubble Tea program. Every mutation runs as its own command;
// state arrives through a controller subscription.
func Run(ctx context.Context, ctrl Controller) error {
	updates := make(chan todolist.State, 1)
	cancel := ctrl.Subscribe(latest(updates))
	defer cancel()

	p := tea.NewProgram(newModel(ctx, ctrl, updates), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// latest keeps only the newest snapshot in ch; it never blocks.
func latest(ch chan todolist.State) func(todolist.State) {
	return func(s todolist.State) {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

func waitForState(ch <-chan todolist.State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg(s)
	}
}

func (m modelTUI) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m modelTUI) refreshCmd() tea.Cmd {
	return m.run("refresh", m.ctrl.Refresh)
}

func (m modelTUI) Init() tea.Cmd {
	return tea.Batch(waitForState(m.updates), m.spin.Tick, m.refreshCmd())
}

func (m *modelTUI) applyState(s todolist.State) tea.Cmd {
	m.state = s
	items := make([]list.Item, 0, len(s.Items))
	for _, t := range s.Items {
		items = append(items, listItem{todo: t})
	}
	m.list.Title = fmt.Sprintf("%s   %s %d",
		titleStyle.Render("Todos"),
		accentStyle.Render("Total"), len(s.Items),
	)
	return m.list.SetItems(items)
}

func (m *modelTUI) resize() {
	h := m.height - 4
	if m.form != formNone {
		h -= 4
	}
	if m.state.IsLoading || m.state.LastError != "" || m.status != "" {
		h -= 2
	}
	if h < 3 {
		h = 3
	}
	m.list.SetSize(m.width-4, h)
}

func (m modelTUI) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Todo{}, false
	}
	return it.todo, true
}

func (m *modelTUI) openForm(mode formMode, value, placeholder string) tea.Cmd {
	m.form = mode
	m.ti.SetValue(value)
	m.ti.CursorEnd()
	m.ti.Placeholder = placeholder
	m.resize()
	return m.ti.Focus()
}

func (m *modelTUI) closeForm() {
	m.form = formNone
	m.editID = ""
	m.ti.SetValue("")
	m.ti.Blur()
	m.resize()
}

// Update and View implement Bubble Tea's Model on modelTUI
func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case stateMsg:
		cmd := m.applyState(todolist.State(msg))
		m.resize()
		return m, tea.Batch(cmd, waitForState(m.updates))

	case opDoneMsg:
		if msg.err != nil {
			m.status = msg.op + ": " + msg.err.Error()
		} else {
			m.status = ""
		}
		m.resize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	if m.form != formNone {
		return m.updateForm(msg)
	}

	if km, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch km.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.list.FilterState() == list.Unfiltered {
				return m, tea.Quit
			}
		case "a":
			return m, m.openForm(formAdd, "", "New todo...")
		case "e":
			if t, ok := m.selected(); ok {
				m.editID = t.ID
				return m, m.openForm(formEdit, t.Name, "Edit todo...")
			}
			return m, nil
		case "d":
			if t, ok := m.selected(); ok {
				id := t.ID
				return m, m.run("delete", func(ctx context.Context) error { return m.ctrl.Delete(ctx, id) })
			}
			return m, nil
		case "r":
			return m, m.refreshCmd()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m modelTUI) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "enter":
			name := strings.TrimSpace(m.ti.Value())
			if name == "" {
				return m, nil
			}
			var cmd tea.Cmd
			if m.form == formEdit {
				if t, ok := m.byID(m.editID); ok {
					todo := t.WithName(name)
					cmd = m.run("update", func(ctx context.Context) error { return m.ctrl.Update(ctx, todo) })
				}
			} else {
				cmd = m.run("create", func(ctx context.Context) error {
					return m.ctrl.Create(ctx, map[string]any{"name": name})
				})
			}
			m.closeForm()
			return m, cmd
		case "esc":
			m.closeForm()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m modelTUI) byID(id string) (model.Todo, bool) {
	for _, t := range m.state.Items {
		if t.ID == id {
			return t, true
		}
	}
	return model.Todo{}, false
}

func (m modelTUI) View() string {
	content := m.list.View()

	var lines []string
	if m.state.IsLoading {
		lines = append(lines, m.spin.View()+mutedStyle.Render(" syncing..."))
	}
	if m.state.LastError != "" {
		lines = append(lines, errorStyle.Render("✖ "+m.state.LastError))
	}
	if m.status != "" {
		lines = append(lines, errorStyle.Render("✖ "+m.status))
	}
	if len(lines) > 0 {
		content += "\n" + strings.Join(lines, "\n")
	}

	if m.form != formNone {
		title := "Add new todo"
		if m.form == formEdit {
			title = "Edit todo"
		}
		content += "\n" + panelStyle.Render(title+"\n"+m.ti.View())
	}
	return panelStyle.Render(content)
}
