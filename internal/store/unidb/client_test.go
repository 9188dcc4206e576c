package unidb

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/unidbmock"
)

const (
	testKey   = "contract-key"
	testTable = "cambiale"
)

func newMockClient(t *testing.T) (*Client, *unidbmock.Server) {
	t.Helper()
	mock := unidbmock.NewServer(testKey, unidbmock.NewMemory())
	srv := httptest.NewServer(mock)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL, ContractKey: testKey, Table: testTable, HTTPClient: srv.Client()})
	require.NoError(t, err)
	return c, mock
}

func TestNew_RequiresConfiguration(t *testing.T) {
	_, err := New(Options{ContractKey: "k", Table: "t"})
	assert.True(t, IsValidation(err))
	_, err = New(Options{BaseURL: "http://x", Table: "t"})
	assert.True(t, IsValidation(err))
	_, err = New(Options{BaseURL: "http://x", ContractKey: "k"})
	assert.True(t, IsValidation(err))
}

func TestClient_CreateListUpdateDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := newMockClient(t)

	assert.True(t, c.Create(ctx, map[string]any{"name": "first", "priority": 1}))
	assert.True(t, c.Create(ctx, map[string]any{"name": "second", "id": "client-side"}))

	todos, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, "first", todos[0].Name)
	assert.Equal(t, float64(1), todos[0].Extra["priority"])
	assert.Equal(t, "second", todos[1].Name)
	assert.NotEqual(t, "client-side", todos[1].ID)
	assert.NotEqual(t, todos[0].ID, todos[1].ID)

	ok, err := c.Update(ctx, todos[0].WithName("first, renamed"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.DeleteTodo(ctx, todos[1])
	require.NoError(t, err)
	assert.True(t, ok)

	todos2, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, todos2, 1)
	assert.Equal(t, todos[0].ID, todos2[0].ID)
	assert.Equal(t, "first, renamed", todos2[0].Name)
	assert.Equal(t, float64(1), todos2[0].Extra["priority"])
}

func TestClient_MissingIDFailsBeforeRequest(t *testing.T) {
	ctx := context.Background()
	c, mock := newMockClient(t)

	ok, err := c.Update(ctx, model.Todo{Name: "x"})
	assert.False(t, ok)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "update", verr.Op)

	ok, err = c.Delete(ctx, "")
	assert.False(t, ok)
	assert.True(t, IsValidation(err))

	ok, err = c.DeleteTodo(ctx, model.Todo{})
	assert.False(t, ok)
	assert.True(t, IsValidation(err))

	assert.EqualValues(t, 0, mock.Requests())
}

func TestClient_ListNon200IsRemoteError(t *testing.T) {
	c, mock := newMockClient(t)
	mock.FailWith(http.StatusInternalServerError)

	_, err := c.List(context.Background())
	var rerr *RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusInternalServerError, rerr.StatusCode)
	assert.Contains(t, rerr.Body, "injected failure")
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
}

func TestClient_WritesReportFailureAsFalse(t *testing.T) {
	ctx := context.Background()
	c, mock := newMockClient(t)

	ok, err := c.Delete(ctx, "no-such-entry")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.FailWith(http.StatusBadGateway)
	assert.False(t, c.Create(ctx, map[string]any{"name": "x"}))
	ok, err = c.Update(ctx, model.Todo{ID: "e1", Name: "x"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_TransportFailureIsFalse(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: url, ContractKey: testKey, Table: testTable})
	require.NoError(t, err)
	assert.False(t, c.Create(context.Background(), map[string]any{"name": "x"}))
	_, err = c.List(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
}

func TestClient_WireFormat(t *testing.T) {
	type seen struct {
		method, path, query, contentType string
		body                             map[string]any
	}
	var got []seen
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := seen{method: r.Method, path: r.URL.EscapedPath(), query: r.URL.RawQuery, contentType: r.Header.Get("Content-Type")}
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			_ = json.Unmarshal(b, &s.body)
		}
		got = append(got, s)
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, `{"data":[{"entry_id":"a1","data":{"name":"x"}},{"entry_id":7,"data":{"name":"y"}},{"data":{"name":"orphan"}}]}`)
		}
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL + "/api/", ContractKey: "k", Table: "t", HTTPClient: srv.Client()})
	require.NoError(t, err)
	ctx := context.Background()

	todos, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, "a1", todos[0].ID)
	assert.Equal(t, "7", todos[1].ID)

	assert.True(t, c.Create(ctx, map[string]any{"name": "new"}))
	_, _ = c.Update(ctx, model.Todo{ID: "a 1", Name: "upd", Extra: map[string]any{"done": true}})
	_, _ = c.Delete(ctx, "a1")

	require.Len(t, got, 4)
	assert.Equal(t, seen{method: "GET", path: "/api/k/data/t/all", query: "format=json", contentType: contentType}, got[0])

	assert.Equal(t, "POST", got[1].method)
	assert.Equal(t, "/api/k/data/store", got[1].path)
	assert.Equal(t, map[string]any{"table_name": "t", "data": map[string]any{"name": "new"}}, got[1].body)

	assert.Equal(t, "PUT", got[2].method)
	assert.Equal(t, "/api/k/data/t/update/a%201", got[2].path)
	assert.Equal(t, map[string]any{"data": map[string]any{"name": "upd", "done": true}}, got[2].body)

	assert.Equal(t, "DELETE", got[3].method)
	assert.Equal(t, "/api/k/data/t/delete/a1", got[3].path)
	assert.Nil(t, got[3].body)
}

func TestClient_ListWithoutDataIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()
	c, err := New(Options{BaseURL: srv.URL, ContractKey: "k", Table: "t"})
	require.NoError(t, err)

	todos, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, todos)
	assert.NotNil(t, todos)
}

func TestClient_DeleteAll(t *testing.T) {
	ctx := context.Background()
	c, _ := newMockClient(t)
	for _, n := range []string{"a", "b", "c"} {
		require.True(t, c.Create(ctx, map[string]any{"name": n}))
	}

	assert.True(t, c.DeleteAll(ctx))
	todos, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestClient_DeleteAllContinuesPastFailedDelete(t *testing.T) {
	deletes := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"data":[{"entry_id":"a","data":{}},{"entry_id":"b","data":{}},{"entry_id":"c","data":{}}]}`)
		case http.MethodDelete:
			deletes++
			if deletes == 2 {
				http.Error(w, "boom", http.StatusInternalServerError)
			}
		}
	}))
	defer srv.Close()
	c, err := New(Options{BaseURL: srv.URL, ContractKey: "k", Table: "t"})
	require.NoError(t, err)

	assert.False(t, c.DeleteAll(context.Background()))
	assert.Equal(t, 3, deletes)
}

func TestClient_DeleteAllStopsOnListError(t *testing.T) {
	c, mock := newMockClient(t)
	mock.FailWith(http.StatusServiceUnavailable)
	assert.False(t, c.DeleteAll(context.Background()))
	assert.EqualValues(t, 1, mock.Requests())
}

func TestClient_DeleteAllStopsOnCancel(t *testing.T) {
	deletes := 0
	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"data":[{"entry_id":"a","data":{}},{"entry_id":"b","data":{}}]}`)
		case http.MethodDelete:
			deletes++
			cancel()
		}
	}))
	defer srv.Close()
	c, err := New(Options{BaseURL: srv.URL, ContractKey: "k", Table: "t"})
	require.NoError(t, err)

	assert.False(t, c.DeleteAll(ctx))
	assert.Equal(t, 1, deletes)
}
