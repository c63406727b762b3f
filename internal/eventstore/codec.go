package eventstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/weighbit/internal/constants"
	apperrors "github.com/julianstephens/weighbit/internal/errors"
	"github.com/julianstephens/weighbit/internal/logger"
	"github.com/julianstephens/weighbit/internal/models"
	"github.com/julianstephens/weighbit/internal/storage"
)

// BlobStore is the slice of a persistence adapter the snapshot codec needs
type BlobStore interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}

// Encode serializes a snapshot to its persisted form
func Encode(s models.Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// Decode parses a persisted snapshot and migrates it to the current schema
func Decode(data []byte, now time.Time) (models.Snapshot, error) {
	var s models.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %v", apperrors.ErrCorruptData, err)
	}
	return Migrate(s, now), nil
}

// Migrate brings a snapshot written by any earlier schema up to date: missing collections
// are filled in, weights and targets are normalized, and duplicate (habit, date) check-ins
// are collapsed to the most recent write.
func Migrate(s models.Snapshot, now time.Time) models.Snapshot {
	out := s.Clone()
	if out.Habits == nil {
		out.Habits = []models.Habit{}
	}
	if out.CheckIns == nil {
		out.CheckIns = []models.CheckIn{}
	}
	if out.Categories == nil {
		out.Categories = models.DefaultCategories()
	}
	if out.Version > constants.SchemaVersion {
		logger.Warn("Snapshot written by a newer schema", "version", out.Version, "supported", constants.SchemaVersion)
	} else {
		out.Version = constants.SchemaVersion
	}
	if out.LastUpdated.IsZero() {
		out.LastUpdated = now.UTC()
	}

	for i := range out.Habits {
		h := &out.Habits[i]
		if !h.Type.Valid() {
			h.Type = models.HabitTypeBoolean
		}
		h.Weight = models.ClampWeight(h.Weight)
		if h.Target < 1 || h.Type == models.HabitTypeBoolean {
			h.Target = constants.DefaultHabitTarget
		}
		if h.Timeframe == "" {
			h.Timeframe = constants.DefaultTimeframe
		}
	}

	latest := make(map[models.CheckInKey]int, len(out.CheckIns))
	deduped := make([]models.CheckIn, 0, len(out.CheckIns))
	for _, c := range out.CheckIns {
		if idx, ok := latest[c.Key()]; ok {
			if !c.Timestamp.Before(deduped[idx].Timestamp) {
				deduped[idx] = c
			}
			continue
		}
		latest[c.Key()] = len(deduped)
		deduped = append(deduped, c)
	}
	out.CheckIns = deduped
	return out
}

// Load reads the snapshot from store. It always returns a usable snapshot: a missing
// store yields an in-memory default with ErrStorageUnavailable, an unreadable blob
// yields a default with ErrCorruptData, and a missing key yields a fresh default.
func Load(store BlobStore, now time.Time) (models.Snapshot, error) {
	if store == nil {
		return models.NewSnapshot(now), apperrors.ErrStorageUnavailable
	}

	data, err := store.Get(constants.SnapshotKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.NewSnapshot(now), nil
		}
		logger.Warn("Failed to read snapshot", "error", err)
		return models.NewSnapshot(now), fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}

	s, err := Decode(data, now)
	if err != nil {
		logger.Warn("Discarding unreadable snapshot", "error", err, "bytes", len(data))
		return models.NewSnapshot(now), err
	}
	return s, nil
}

// Save writes the snapshot to store. Quota failures keep ErrQuotaExceeded in the chain;
// every other failure is wrapped in ErrLocalSave.
func Save(store BlobStore, s models.Snapshot) error {
	if store == nil {
		return apperrors.ErrStorageUnavailable
	}
	data, err := Encode(s)
	if err != nil {
		return fmt.Errorf("%w: failed to serialize snapshot: %v", apperrors.ErrLocalSave, err)
	}
	if err := store.Put(constants.SnapshotKey, data); err != nil {
		if errors.Is(err, apperrors.ErrQuotaExceeded) {
			return err
		}
		return fmt.Errorf("%w: %v", apperrors.ErrLocalSave, err)
	}
	return nil
}
