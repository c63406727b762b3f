package cloudsync

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/weighbit/internal/constants"
	"github.com/julianstephens/weighbit/internal/logger"
	"github.com/julianstephens/weighbit/internal/models"
	"github.com/julianstephens/weighbit/internal/storage"
)

// Store is the key-value persistence the engine keeps its bookkeeping in
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

// Queue is the offline write log, persisted as a single blob
type Queue struct {
	mu    sync.Mutex
	store Store
}

func NewQueue(store Store) *Queue {
	return &Queue{store: store}
}

// Entries returns every queued operation in append order. An unreadable queue
// blob is treated as empty.
func (q *Queue) Entries() ([]models.QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load()
}

func (q *Queue) load() ([]models.QueueEntry, error) {
	data, err := q.store.Get(constants.OfflineQueueKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read offline queue: %w", err)
	}
	var entries []models.QueueEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("Discarding unreadable offline queue", "error", err)
		return nil, nil
	}
	return entries, nil
}

func (q *Queue) save(entries []models.QueueEntry) error {
	if len(entries) == 0 {
		return q.store.Delete(constants.OfflineQueueKey)
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to serialize offline queue: %w", err)
	}
	return q.store.Put(constants.OfflineQueueKey, data)
}

// Append adds one operation to the end of the queue
func (q *Queue) Append(op models.OperationType, table models.Table, payload any, at time.Time) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize queued %s on %s: %w", op, table, err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load()
	if err != nil {
		return err
	}
	entries = append(entries, models.QueueEntry{Type: op, Table: table, Data: data, Timestamp: at})
	if err := q.save(entries); err != nil {
		return err
	}
	logger.Debug("Queued offline operation", "type", op, "table", table, "pending", len(entries))
	return nil
}

// Drop removes the first n entries. Entries appended after a replay started survive.
func (q *Queue) Drop(n int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load()
	if err != nil {
		return err
	}
	if n > len(entries) {
		n = len(entries)
	}
	return q.save(entries[n:])
}

// Clear removes every entry
func (q *Queue) Clear() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.Delete(constants.OfflineQueueKey)
}

// Len returns the number of pending entries
func (q *Queue) Len() int {
	entries, err := q.Entries()
	if err != nil {
		return 0
	}
	return len(entries)
}
