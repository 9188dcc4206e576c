package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang/glog"
)

// JSON-backed device preferences. Single file, human-readable, portable.
// Strings are stored as-is, every other kind as JSON text.

const fileName = "preferences.json"

// Kind is the type a caller expects back from Get.
type Kind int

const (
	Bool Kind = iota
	Int
	Double
	String
	StringArray
)

var ErrUnsupportedType = errors.New("unsupported type")

// ParseKind maps a kind name (bool, int, double, number, string,
// stringArray) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "bool":
		return Bool, nil
	case "int":
		return Int, nil
	case "double", "number":
		return Double, nil
	case "string":
		return String, nil
	case "stringArray":
		return StringArray, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, s)
}

// Store is a key/value file under a directory.
type Store struct {
	path string
	mu   sync.Mutex
}

func Open(dir string) *Store {
	return &Store{path: filepath.Join(dir, fileName)}
}

func (s *Store) load() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	vals := map[string]string{}
	if err := json.Unmarshal(b, &vals); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return vals, nil
}

func (s *Store) save(vals map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(vals, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Get returns the value for key decoded as kind: bool, int64, float64,
// string or []string. Missing keys and undecodable values report false;
// the latter are logged.
func (s *Store) Get(key string, kind Kind) (any, bool) {
	s.mu.Lock()
	vals, err := s.load()
	s.mu.Unlock()
	if err != nil {
		glog.Errorf("prefs: retrieving %q: %v", key, err)
		return nil, false
	}
	raw, ok := vals[key]
	if !ok {
		return nil, false
	}

	v, err := decode(raw, kind)
	if err != nil {
		glog.Errorf("prefs: retrieving %q: %v", key, err)
		return nil, false
	}
	return v, true
}

func decode(raw string, kind Kind) (any, error) {
	switch kind {
	case String:
		return raw, nil
	case Bool:
		var v bool
		err := json.Unmarshal([]byte(raw), &v)
		return v, err
	case Int:
		var v int64
		err := json.Unmarshal([]byte(raw), &v)
		return v, err
	case Double:
		var v float64
		err := json.Unmarshal([]byte(raw), &v)
		return v, err
	case StringArray:
		var v []string
		err := json.Unmarshal([]byte(raw), &v)
		return v, err
	}
	return nil, ErrUnsupportedType
}

// GetString is Get(key, String) with a fallback.
func (s *Store) GetString(key, fallback string) string {
	if v, ok := s.Get(key, String); ok {
		return v.(string)
	}
	return fallback
}

// GetBool is Get(key, Bool) with a fallback.
func (s *Store) GetBool(key string, fallback bool) bool {
	if v, ok := s.Get(key, Bool); ok {
		return v.(bool)
	}
	return fallback
}

// Set stores value under key. Supported: bool, int kinds, float kinds,
// string and []string.
func (s *Store) Set(key string, value any) error {
	var enc string
	switch v := value.(type) {
	case string:
		enc = v
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, []string:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("json marshal: %w", err)
		}
		enc = string(b)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	vals, err := s.load()
	if err != nil {
		return err
	}
	vals[key] = enc
	if err := s.save(vals); err != nil {
		return err
	}
	glog.V(1).Infof("prefs: stored %q", key)
	return nil
}

// ParseValue converts command-line text into a value Set accepts.
// String arrays are comma-separated.
func ParseValue(raw string, kind Kind) (any, error) {
	switch kind {
	case String:
		return raw, nil
	case StringArray:
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	}
	v, err := decode(raw, kind)
	if err != nil {
		return nil, fmt.Errorf("not a valid %s: %q", kind, raw)
	}
	return v, nil
}

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Double:
		return "double"
	case String:
		return "string"
	case StringArray:
		return "stringArray"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}
