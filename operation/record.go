package operation

import (
	"github.com/google/uuid"

	"f0oster/schemadesk/schema"
)

// Status of one executed operation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// ResultSet is the read payload of a select. RowCount reports the total
// matched count, not the page size, so pagination never misreports
// truncation.
type ResultSet struct {
	Title    string       `json:"title"`
	Columns  []string     `json:"columns"`
	Rows     []schema.Row `json:"rows"`
	RowCount int64        `json:"rowCount"`
	Limit    int          `json:"limit"`
}

// ExecutionRecord is the structured outcome of one operation.
type ExecutionRecord struct {
	ID       uuid.UUID  `json:"id"`
	Kind     Kind       `json:"kind"`
	Category Category   `json:"category"`
	Status   Status     `json:"status"`
	Detail   string     `json:"detail"`
	Affected int64      `json:"affected,omitempty"`
	Result   *ResultSet `json:"result,omitempty"`
}

// NewRecord builds a record for op with a fresh id.
func NewRecord(op Operation, status Status, detail string) *ExecutionRecord {
	return &ExecutionRecord{
		ID:       uuid.New(),
		Kind:     op.Kind(),
		Category: op.Kind().Category(),
		Status:   status,
		Detail:   detail,
	}
}
