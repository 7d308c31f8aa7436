// Package history is the append-only query-history collaborator. The engine
// records every operation invocation, success or failure; entries are never
// re-parsed, the query text is synthesized purely for reading.
package history

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded invocation.
type Entry struct {
	ID              uuid.UUID `json:"id"`
	Query           string    `json:"query"`
	OperationType   string    `json:"operationType"` // DDL, DML, DQL or DCL
	Status          string    `json:"status"`        // success or error
	ExecutionTimeMs int64     `json:"executionTimeMs"`
	AffectedRows    *int64    `json:"affectedRows,omitempty"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
	Tables          []string  `json:"tables"`
	CreatedAt       time.Time `json:"createdAt"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Recorder appends entries to the log. Record assigns the id and timestamp
// and returns the completed entry.
type Recorder interface {
	Record(entry Entry) (Entry, error)
}

// Memory keeps entries in a slice. Used by tests and as a fallback when no
// history file is configured.
type Memory struct {
	entries []Entry
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Record(entry Entry) (Entry, error) {
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now().UTC()
	m.entries = append(m.entries, entry)
	return entry, nil
}

// Entries returns the recorded log, oldest first.
func (m *Memory) Entries() []Entry {
	return m.entries
}
