package todolist

import "github.com/idilsaglam/tada/internal/model"

// State is what the UI renders. Items is always the result of the last
// successful list, minus records deleted since. A successful list clears
// LastError.
type State struct {
	Items     []model.Todo
	IsLoading bool
	LastError string
}

// Action is a state transition applied by Controller.Dispatch.
type Action interface {
	apply(State) State
}

type loadingStarted struct{}

func (loadingStarted) apply(s State) State { s.IsLoading = true; return s }

type loadingFinished struct{}

func (loadingFinished) apply(s State) State { s.IsLoading = false; return s }

type itemsLoaded struct{ items []model.Todo }

func (a itemsLoaded) apply(s State) State {
	s.Items = a.items
	s.LastError = ""
	return s
}

type loadFailed struct{ msg string }

func (a loadFailed) apply(s State) State {
	s.LastError = a.msg
	return s
}

type itemRemoved struct{ id string }

func (a itemRemoved) apply(s State) State {
	out := make([]model.Todo, 0, len(s.Items))
	for _, t := range s.Items {
		if t.ID != a.id {
			out = append(out, t)
		}
	}
	s.Items = out
	return s
}

// ErrorCleared resets LastError, e.g. once the UI has shown it.
type ErrorCleared struct{}

func (ErrorCleared) apply(s State) State { s.LastError = ""; return s }

func (s State) clone() State {
	c := s
	c.Items = append([]model.Todo(nil), s.Items...)
	return c
}
