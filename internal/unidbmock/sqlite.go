package unidbmock

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/golang/glog"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite keeps rows in a single sqlite table so a mock store survives
// restarts.
type SQLite struct {
	db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS entries (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	table_name TEXT NOT NULL,
	entry_id   TEXT NOT NULL UNIQUE,
	data       TEXT NOT NULL
)`

func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	glog.Infof("unidbmock: sqlite backend at %s", path)
	return &SQLite{db: db}, nil
}

func (s *SQLite) All(ctx context.Context, table string) ([]Row, error) {
	rs, err := s.db.QueryContext(ctx,
		`SELECT entry_id, data FROM entries WHERE table_name = ? ORDER BY seq`, table)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rs.Close()
	var out []Row
	for rs.Next() {
		var id, raw string
		if err := rs.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var data map[string]any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return nil, fmt.Errorf("json unmarshal %s: %w", id, err)
		}
		out = append(out, Row{EntryID: id, Data: data})
	}
	return out, rs.Err()
}

func (s *SQLite) Insert(ctx context.Context, table string, data map[string]any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("json marshal: %w", err)
	}
	id := newEntryID()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (table_name, entry_id, data) VALUES (?, ?, ?)`, table, id, string(raw)); err != nil {
		return "", fmt.Errorf("insert: %w", err)
	}
	return id, nil
}

func (s *SQLite) Update(ctx context.Context, table, id string, data map[string]any) (bool, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return false, fmt.Errorf("json marshal: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE entries SET data = ? WHERE table_name = ? AND entry_id = ?`, string(raw), table, id)
	if err != nil {
		return false, fmt.Errorf("update: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *SQLite) Delete(ctx context.Context, table, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM entries WHERE table_name = ? AND entry_id = ?`, table, id)
	if err != nil {
		return false, fmt.Errorf("delete: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *SQLite) Close() error { return s.db.Close() }
