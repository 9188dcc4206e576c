package unidb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/golang/glog"

	"github.com/idilsaglam/tada/internal/model"
)

// Client talks to one table of a hosted unidb contract.
// It holds no state besides its configuration and is safe for concurrent use.
type Client struct {
	base  *url.URL
	key   string
	table string
	http  *http.Client
}

// Options configure a Client. HTTPClient defaults to http.DefaultClient.
type Options struct {
	BaseURL     string
	ContractKey string
	Table       string
	HTTPClient  *http.Client
}

const contentType = "application/json; charset=UTF-8"

func New(opt Options) (*Client, error) {
	if strings.TrimSpace(opt.BaseURL) == "" {
		return nil, &ValidationError{Op: "unidb", Field: "base url"}
	}
	if strings.TrimSpace(opt.ContractKey) == "" {
		return nil, &ValidationError{Op: "unidb", Field: "contract key"}
	}
	if strings.TrimSpace(opt.Table) == "" {
		return nil, &ValidationError{Op: "unidb", Field: "table"}
	}
	base, err := url.Parse(strings.TrimRight(opt.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	hc := opt.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: base, key: opt.ContractKey, table: opt.Table, http: hc}, nil
}

// Table returns the table name the client writes to.
func (c *Client) Table() string { return c.table }

// entryID accepts both string and numeric ids from the store.
type entryID string

func (e *entryID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = entryID(s)
		return nil
	}
	if string(b) == "null" {
		*e = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("entry_id: %w", err)
	}
	*e = entryID(n.String())
	return nil
}

type row struct {
	EntryID entryID        `json:"entry_id"`
	Data    map[string]any `json:"data"`
}

type listEnvelope struct {
	Data []row `json:"data"`
}

type storeRequest struct {
	TableName string         `json:"table_name"`
	Data      map[string]any `json:"data"`
}

type updateRequest struct {
	Data map[string]any `json:"data"`
}

// List reads every row of the table and flattens each one into a Todo,
// keeping the store's order.
func (c *Client) List(ctx context.Context) ([]model.Todo, error) {
	u := c.endpoint(url.PathEscape(c.table), "all")
	u.RawQuery = url.Values{"format": {"json"}}.Encode()

	status, body, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		glog.Errorf("unidb: list error: %v", err)
		return nil, fmt.Errorf("list: %w", err)
	}
	if status != http.StatusOK {
		rerr := &RemoteError{Op: "list", StatusCode: status, Body: string(body)}
		glog.Errorf("unidb: %v", rerr)
		return nil, rerr
	}

	var env listEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		glog.Errorf("unidb: list decode: %v", err)
		return nil, fmt.Errorf("list: json unmarshal: %w", err)
	}
	todos := make([]model.Todo, 0, len(env.Data))
	for i, r := range env.Data {
		if r.EntryID == "" {
			glog.Warningf("unidb: list: row %d has no entry_id, skipped", i)
			continue
		}
		todos = append(todos, model.FromFields(string(r.EntryID), r.Data))
	}
	glog.V(1).Infof("unidb: list ok (%d rows)", len(todos))
	return todos, nil
}

// Create stores a new row. The assigned id is not returned; List again to
// discover it.
func (c *Client) Create(ctx context.Context, fields map[string]any) bool {
	data := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "id" {
			continue
		}
		data[k] = v
	}
	return c.write(ctx, "create", http.MethodPost, c.endpoint("store"),
		storeRequest{TableName: c.table, Data: data})
}

// Update overwrites every field of the row identified by todo.ID.
func (c *Client) Update(ctx context.Context, todo model.Todo) (bool, error) {
	if todo.ID == "" {
		return false, &ValidationError{Op: "update", Field: "todo.id"}
	}
	u := c.endpoint(url.PathEscape(c.table), "update", url.PathEscape(todo.ID))
	return c.write(ctx, "update", http.MethodPut, u, updateRequest{Data: todo.Fields()}), nil
}

// Delete removes the row with the given id.
func (c *Client) Delete(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, &ValidationError{Op: "delete", Field: "todo.id"}
	}
	u := c.endpoint(url.PathEscape(c.table), "delete", url.PathEscape(id))
	return c.write(ctx, "delete", http.MethodDelete, u, nil), nil
}

// DeleteTodo removes the row a record points to.
func (c *Client) DeleteTodo(ctx context.Context, todo model.Todo) (bool, error) {
	return c.Delete(ctx, todo.ID)
}

// DeleteAll lists the table and deletes rows one by one. It is not atomic:
// the first error stops the loop and rows already deleted stay deleted.
// A delete the store answers with a failure status is logged and skipped.
func (c *Client) DeleteAll(ctx context.Context) bool {
	all, err := c.List(ctx)
	if err != nil {
		glog.Errorf("unidb: delete all: %v", err)
		return false
	}
	okAll := true
	for i, t := range all {
		if err := ctx.Err(); err != nil {
			glog.Errorf("unidb: delete all stopped after %d of %d: %v", i, len(all), err)
			return false
		}
		ok, err := c.Delete(ctx, t.ID)
		if err != nil {
			glog.Errorf("unidb: delete all stopped after %d of %d: %v", i, len(all), err)
			return false
		}
		if !ok {
			okAll = false
		}
	}
	return okAll
}

func (c *Client) endpoint(elem ...string) *url.URL {
	return c.base.JoinPath(append([]string{url.PathEscape(c.key), "data"}, elem...)...)
}

// write issues a mutation and reports success as a bool; failures are logged.
func (c *Client) write(ctx context.Context, op, method string, u *url.URL, payload any) bool {
	status, body, err := c.do(ctx, method, u, payload)
	if err != nil {
		glog.Errorf("unidb: %s error: %v", op, err)
		return false
	}
	if status != http.StatusOK {
		glog.Errorf("unidb: %s failed %d: %s", op, status, body)
		return false
	}
	glog.V(1).Infof("unidb: %s ok", op)
	return true
}

func (c *Client) do(ctx context.Context, method string, u *url.URL, payload any) (int, []byte, error) {
	var rd io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("json marshal: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return 0, nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, u.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// StatusCode extracts the HTTP status from a *RemoteError, or 0.
func StatusCode(err error) int {
	var r *RemoteError
	if errors.As(err, &r) {
		return r.StatusCode
	}
	return 0
}
