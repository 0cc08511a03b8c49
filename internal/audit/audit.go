// Package audit keeps an append-only record of keychain item access.
//
// Reads of payloads, writes, deletes, scope clears and rotations are written
// to ~/.typedkeychain/audit.log as one JSON object per line. Payloads are
// never recorded, only the key, the scope it lives in and who asked.
package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Action describes what happened to an item.
type Action string

const (
	ActionItemRead   Action = "item_read"
	ActionItemWrite  Action = "item_write"
	ActionItemDelete Action = "item_delete"
	ActionItemClear  Action = "item_clear"
	ActionItemRotate Action = "item_rotate"
)

// Entry is a single audit log record.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Action    Action    `json:"action"`
	Key       string    `json:"key,omitempty"`
	Scope     string    `json:"scope,omitempty"`   // service or server the item belongs to
	Actor     string    `json:"actor,omitempty"`   // "cli", "library"
	Trigger   string    `json:"trigger,omitempty"` // "manual", "hook"
	Command   string    `json:"command,omitempty"` // rotation command if applicable
	Error     string    `json:"error,omitempty"`
}

// Failed reports whether the recorded operation failed.
func (e Entry) Failed() bool { return e.Error != "" }

// Logger appends entries to an audit file. It is safe for concurrent use.
type Logger struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	path string
	now  func() time.Time
}

// NewLogger opens path for appending, creating it (and its directory) with
// owner-only permissions.
func NewLogger(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating audit log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &Logger{file: f, enc: json.NewEncoder(f), path: path, now: time.Now}, nil
}

// Log appends entry, stamping it with the current UTC time if it has none.
func (l *Logger) Log(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now().UTC()
	}
	if err := l.enc.Encode(entry); err != nil {
		return fmt.Errorf("writing audit entry: %w", err)
	}
	return nil
}

// Path returns the file the logger appends to.
func (l *Logger) Path() string {
	return l.path
}

// Close closes the audit log file.
func (l *Logger) Close() error {
	return l.file.Close()
}

// Filter selects entries in Read. Zero fields match everything.
type Filter struct {
	Key    string
	Scope  string
	Action Action
	Since  time.Time
	// Limit keeps only the most recent Limit entries.
	Limit  int
}

func (f Filter) match(e Entry) bool {
	switch {
	case f.Key != "" && e.Key != f.Key:
		return false
	case f.Scope != "" && e.Scope != f.Scope:
		return false
	case f.Action != "" && e.Action != f.Action:
		return false
	case !f.Since.IsZero() && e.Timestamp.Before(f.Since):
		return false
	}
	return true
}

// Read returns the entries in the log at path selected by f, oldest first.
// A missing log reads as empty. Lines that are not valid entries are
// skipped, so a torn final write does not hide the rest of the log.
func Read(path string, f Filter) ([]Entry, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer file.Close()

	var out []Entry
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil || e.Action == "" {
			continue
		}
		if f.match(e) {
			out = append(out, e)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}
