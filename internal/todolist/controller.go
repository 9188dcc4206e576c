// Package todolist holds the in-memory todo list and sequences mutations
// against the remote table. Writes are followed by a full re-list; deletes
// are applied locally once the store confirms them.
package todolist

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/golang/glog"

	"github.com/idilsaglam/tada/internal/model"
)

// Remote is the table store the controller syncs with.
type Remote interface {
	List(ctx context.Context) ([]model.Todo, error)
	Create(ctx context.Context, fields map[string]any) bool
	Update(ctx context.Context, todo model.Todo) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Controller owns the list state. Mutations are not serialized against
// each other: concurrent calls each resync and the last list to finish wins.
type Controller struct {
	remote Remote

	mu    sync.Mutex
	state State
	subs  map[int]func(State)
	next  int
}

func New(remote Remote) *Controller {
	return &Controller{remote: remote, subs: map[int]func(State){}}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers fn to receive every new state. fn runs with the
// controller locked, so it must not block or call back into the controller.
func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Dispatch applies a to the state and notifies subscribers.
func (c *Controller) Dispatch(a Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = a.apply(c.state)
	for _, fn := range c.subs {
		fn(c.state.clone())
	}
}

// Refresh replaces the items with a fresh list. On failure the items are
// kept and LastError is set.
func (c *Controller) Refresh(ctx context.Context) error {
	c.Dispatch(loadingStarted{})
	defer c.Dispatch(loadingFinished{})

	items, err := c.remote.List(ctx)
	if err != nil {
		glog.Errorf("todolist: fetch todos failed: %v", err)
		c.Dispatch(loadFailed{msg: fmt.Sprintf("Failed to fetch todos: %v", err)})
		return err
	}
	c.Dispatch(itemsLoaded{items: items})
	return nil
}

// Create stores a new todo and resyncs. A name that is empty after
// trimming is ignored.
func (c *Controller) Create(ctx context.Context, fields map[string]any) error {
	name, ok := trimmedName(fields)
	if !ok {
		return nil
	}
	payload := make(map[string]any, len(fields))
	for k, v := range fields {
		payload[k] = v
	}
	payload["name"] = name

	c.Dispatch(loadingStarted{})
	defer c.Dispatch(loadingFinished{})

	if !c.remote.Create(ctx, payload) {
		glog.Warningf("todolist: create %q was not confirmed", name)
	}
	_ = c.Refresh(ctx)
	return nil
}

// Update overwrites a todo and resyncs. A name that is empty after
// trimming is ignored.
func (c *Controller) Update(ctx context.Context, todo model.Todo) error {
	name := strings.TrimSpace(todo.Name)
	if name == "" {
		return nil
	}
	todo = todo.WithName(name)

	c.Dispatch(loadingStarted{})
	defer c.Dispatch(loadingFinished{})

	ok, err := c.remote.Update(ctx, todo)
	if err != nil {
		glog.Errorf("todolist: update todo failed: %v", err)
		return err
	}
	if !ok {
		glog.Warningf("todolist: update %s was not confirmed", todo.ID)
	}
	_ = c.Refresh(ctx)
	return nil
}

// Delete removes a todo remotely and, once confirmed, from the items.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.Dispatch(loadingStarted{})
	defer c.Dispatch(loadingFinished{})

	ok, err := c.remote.Delete(ctx, id)
	if err != nil {
		glog.Errorf("todolist: delete todo failed: %v", err)
		return err
	}
	if !ok {
		glog.Warningf("todolist: delete %s was not confirmed", id)
		return nil
	}
	c.Dispatch(itemRemoved{id: id})
	return nil
}

func trimmedName(fields map[string]any) (string, bool) {
	s, _ := fields["name"].(string)
	s = strings.TrimSpace(s)
	return s, s != ""
}
