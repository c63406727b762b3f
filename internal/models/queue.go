package models

import (
	"encoding/json"
	"time"
)

// OperationType is the kind of remote write buffered in the offline queue
type OperationType string

const (
	OperationInsert OperationType = "insert"
	OperationUpdate OperationType = "update"
	OperationDelete OperationType = "delete"
)

// Table names a remote resource
type Table string

const (
	TableHabits     Table = "habits"
	TableCheckIns   Table = "check_ins"
	TableCategories Table = "categories"
)

// QueueEntry is one buffered remote write. Data holds the remote row
// (snake_case) for inserts/updates, or {"id": ...} for deletes.
type QueueEntry struct {
	Type      OperationType   `json:"type"`
	Table     Table           `json:"table"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}
