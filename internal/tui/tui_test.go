package tui

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/todolist"
)

type fakeController struct {
	mu      sync.Mutex
	state   todolist.State
	created []map[string]any
	updated []model.Todo
	deleted []string
	refresh int
	err     error
}

func (f *fakeController) Refresh(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh++
	return f.err
}

func (f *fakeController) Create(_ context.Context, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, fields)
	return f.err
}

func (f *fakeController) Update(_ context.Context, t model.Todo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, t)
	return f.err
}

func (f *fakeController) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeController) Subscribe(func(todolist.State)) func() { return func() {} }
func (f *fakeController) Snapshot() todolist.State             { return f.state }

func keys(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func send(t *testing.T, m modelTUI, msgs ...tea.Msg) (modelTUI, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	var next tea.Model = m
	for _, msg := range msgs {
		next, cmd = next.(modelTUI).Update(msg)
	}
	return next.(modelTUI), cmd
}

func seeded() *fakeController {
	return &fakeController{state: todolist.State{Items: []model.Todo{
		{ID: "a", Name: "Buy milk", Extra: map[string]any{"tag": "home"}},
		{ID: "b", Name: "Walk dog"},
	}}}
}

func TestModel_ShowsSnapshotItems(t *testing.T) {
	m := newModel(context.Background(), seeded(), nil)
	require.Len(t, m.list.Items(), 2)
	assert.Contains(t, m.View(), "Buy milk")
}

func TestModel_AddRunsCreate(t *testing.T) {
	ctrl := seeded()
	m := newModel(context.Background(), ctrl, nil)

	m, _ = send(t, m, keys("a"), keys("Call mom"))
	assert.Equal(t, formAdd, m.form)
	m, cmd := send(t, m, enter)
	require.NotNil(t, cmd)
	assert.Equal(t, formNone, m.form)

	msg := cmd()
	assert.Equal(t, opDoneMsg{op: "create"}, msg)
	assert.Equal(t, []map[string]any{{"name": "Call mom"}}, ctrl.created)
}

func TestModel_BlankNameKeepsFormOpen(t *testing.T) {
	ctrl := seeded()
	m := newModel(context.Background(), ctrl, nil)

	m, _ = send(t, m, keys("a"), keys("   "))
	m, cmd := send(t, m, enter)
	assert.Nil(t, cmd)
	assert.Equal(t, formAdd, m.form)
	assert.Empty(t, ctrl.created)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, formNone, m.form)
}

func TestModel_EditKeepsExtraFields(t *testing.T) {
	ctrl := seeded()
	m := newModel(context.Background(), ctrl, nil)

	m, _ = send(t, m, keys("e"))
	require.Equal(t, formEdit, m.form)
	assert.Equal(t, "Buy milk", m.ti.Value())

	m.ti.SetValue("Buy oat milk")
	_, cmd := send(t, m, enter)
	require.NotNil(t, cmd)
	cmd()

	require.Len(t, ctrl.updated, 1)
	assert.Equal(t, "a", ctrl.updated[0].ID)
	assert.Equal(t, "Buy oat milk", ctrl.updated[0].Name)
	assert.Equal(t, "home", ctrl.updated[0].Extra["tag"])
}

func TestModel_DeleteSelected(t *testing.T) {
	ctrl := seeded()
	m := newModel(context.Background(), ctrl, nil)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := send(t, m, keys("d"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, []string{"b"}, ctrl.deleted)
}

func TestModel_FailedOpShowsStatus(t *testing.T) {
	ctrl := seeded()
	ctrl.err = errors.New("todo.id is required")
	m := newModel(context.Background(), ctrl, nil)

	_, cmd := send(t, m, keys("d"))
	m, _ = send(t, m, cmd())
	assert.Contains(t, m.View(), "delete: todo.id is required")
}

func TestModel_StateMsgReplacesItems(t *testing.T) {
	updates := make(chan todolist.State, 1)
	m := newModel(context.Background(), seeded(), updates)

	m, cmd := send(t, m, stateMsg(todolist.State{
		Items:     []model.Todo{{ID: "c", Name: "Only one"}},
		IsLoading: true,
		LastError: "Failed to fetch todos: boom",
	}))
	require.NotNil(t, cmd)
	require.Len(t, m.list.Items(), 1)
	v := m.View()
	assert.Contains(t, v, "Only one")
	assert.Contains(t, v, "syncing")
	assert.Contains(t, v, "Failed to fetch todos: boom")
}

func TestLatest_KeepsNewestSnapshot(t *testing.T) {
	ch := make(chan todolist.State, 1)
	push := latest(ch)
	push(todolist.State{LastError: "first"})
	push(todolist.State{LastError: "second"})

	msg := waitForState(ch)()
	assert.Equal(t, "second", todolist.State(msg.(stateMsg)).LastError)
}

func TestModel_RefreshKey(t *testing.T) {
	ctrl := seeded()
	m := newModel(context.Background(), ctrl, nil)
	_, cmd := send(t, m, keys("r"))
	require.NotNil(t, cmd)
	assert.Equal(t, opDoneMsg{op: "refresh"}, cmd())
	assert.Equal(t, 1, ctrl.refresh)
}
