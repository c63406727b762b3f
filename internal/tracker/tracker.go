package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/weighbit/internal/backup"
	"github.com/julianstephens/weighbit/internal/cloudsync"
	"github.com/julianstephens/weighbit/internal/constants"
	apperrors "github.com/julianstephens/weighbit/internal/errors"
	"github.com/julianstephens/weighbit/internal/eventstore"
	"github.com/julianstephens/weighbit/internal/logger"
	"github.com/julianstephens/weighbit/internal/models"
	"github.com/julianstephens/weighbit/internal/utils"
)

// ErrNothingToUndo is returned by Undo when the stack is empty
var ErrNothingToUndo = errors.New("nothing to undo")

// Store is the persistence adapter the tracker writes through
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

// Options configures a Tracker. Every field is optional: without a Store the
// tracker keeps its snapshot in memory only, without an Engine nothing is
// mirrored remotely, and without Backups merges are written without a backup.
type Options struct {
	Store     Store
	Engine    *cloudsync.Engine
	Backups   *backup.Manager
	UndoDepth int
	Location  *time.Location
	Now       func() time.Time
}

// UndoEntry is a snapshot taken before a destructive action
type UndoEntry struct {
	Label    string          `json:"label"`
	At       time.Time       `json:"at"`
	Snapshot models.Snapshot `json:"snapshot"`
}

// Tracker owns the current snapshot and serializes every mutation against it.
// Each mutation is saved locally before it becomes visible and is then
// mirrored to the sync engine.
type Tracker struct {
	mu       sync.Mutex
	store    Store
	engine   *cloudsync.Engine
	backups  *backup.Manager
	depth    int
	loc      *time.Location
	now      func() time.Time
	snapshot models.Snapshot
	undo     []UndoEntry
	loadErr  error
}

// Open loads the snapshot and undo stack. A missing store or corrupt blob is
// not an error here: the tracker starts from a default snapshot and the cause
// is available from LoadErr.
func Open(opts Options) *Tracker {
	t := &Tracker{
		store:   opts.Store,
		engine:  opts.Engine,
		backups: opts.Backups,
		depth:   opts.UndoDepth,
		loc:     opts.Location,
		now:     opts.Now,
	}
	if t.depth <= 0 {
		t.depth = constants.DefaultUndoDepth
	}
	if t.loc == nil {
		t.loc = time.Local
	}
	if t.now == nil {
		t.now = time.Now
	}

	var store eventstore.BlobStore
	if t.store != nil {
		store = t.store
	}
	t.snapshot, t.loadErr = eventstore.Load(store, t.now())
	if t.loadErr != nil {
		logger.Warn("Starting from a default snapshot", "error", t.loadErr)
	}
	t.undo = t.loadUndo()
	return t
}

// LoadErr reports why Open fell back to a default snapshot, if it did
func (t *Tracker) LoadErr() error {
	return t.loadErr
}

// Engine returns the sync engine, or nil when sync is not configured
func (t *Tracker) Engine() *cloudsync.Engine {
	return t.engine
}

// Today returns the current calendar day in the tracker's location
func (t *Tracker) Today() string {
	return utils.FormatDay(t.now().In(t.loc))
}

// Snapshot returns a deep copy of the current snapshot
func (t *Tracker) Snapshot() models.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot.Clone()
}

// RestoreFromSnapshot replaces the current snapshot and saves it locally.
// Nothing is pushed to the remote.
func (t *Tracker) RestoreFromSnapshot(s models.Snapshot) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.commit(s.Clone())
}

// persist saves with retries. Quota errors are not retried.
func (t *Tracker) persist(s models.Snapshot) error {
	if t.store == nil {
		return nil
	}
	var err error
	for attempt := 0; attempt <= constants.SaveMaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(constants.SaveRetryDelay)
		}
		if err = eventstore.Save(t.store, s); err == nil {
			return nil
		}
		if errors.Is(err, apperrors.ErrQuotaExceeded) {
			break
		}
		logger.Warn("Local save failed", "attempt", attempt+1, "error", err)
	}
	return err
}

// commit makes s current once it is saved; on failure the current snapshot is kept
func (t *Tracker) commit(s models.Snapshot) error {
	if err := t.persist(s); err != nil {
		logger.Error("Mutation lost, local save failed", "error", err)
		return err
	}
	t.snapshot = s
	return nil
}

// pushUndo records prev, the snapshot that was current before a committed change
func (t *Tracker) pushUndo(prev models.Snapshot, label string) {
	t.undo = append(t.undo, UndoEntry{Label: label, At: t.now().UTC(), Snapshot: prev.Clone()})
	if len(t.undo) > t.depth {
		t.undo = t.undo[len(t.undo)-t.depth:]
	}
	t.saveUndo()
}

func (t *Tracker) loadUndo() []UndoEntry {
	if t.store == nil {
		return nil
	}
	data, err := t.store.Get(constants.UndoStackKey)
	if err != nil {
		return nil
	}
	var entries []UndoEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("Discarding unreadable undo stack", "error", err)
		return nil
	}
	if len(entries) > t.depth {
		entries = entries[len(entries)-t.depth:]
	}
	return entries
}

func (t *Tracker) saveUndo() {
	if t.store == nil {
		return
	}
	if len(t.undo) == 0 {
		if err := t.store.Delete(constants.UndoStackKey); err != nil {
			logger.Debug("Failed to clear undo stack", "error", err)
		}
		return
	}
	data, err := json.Marshal(t.undo)
	if err == nil {
		err = t.store.Put(constants.UndoStackKey, data)
	}
	if err != nil {
		logger.Warn("Failed to save undo stack", "error", err)
	}
}

// UndoHistory lists the undo stack, most recent first
func (t *Tracker) UndoHistory() []UndoEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]UndoEntry, 0, len(t.undo))
	for i := len(t.undo) - 1; i >= 0; i-- {
		e := t.undo[i]
		e.Snapshot = e.Snapshot.Clone()
		out = append(out, e)
	}
	return out
}

// Undo restores the snapshot taken before the most recent destructive action
// and returns its label. Like RestoreFromSnapshot it does not touch the remote.
func (t *Tracker) Undo() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.undo) == 0 {
		return "", ErrNothingToUndo
	}
	top := t.undo[len(t.undo)-1]
	if err := t.commit(top.Snapshot.Clone()); err != nil {
		return "", err
	}
	t.undo = t.undo[:len(t.undo)-1]
	t.saveUndo()
	return top.Label, nil
}

// mirror runs a remote push and logs a failure to queue it
func mirror(what string, err error) {
	if err != nil {
		logger.Warn("Failed to queue remote write", "entity", what, "error", err)
	}
}

func (t *Tracker) AddHabit(ctx context.Context, in eventstore.HabitInput) (models.Habit, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next, h, err := eventstore.AddHabit(t.snapshot, in, t.now())
	if err != nil {
		return models.Habit{}, err
	}
	if err := t.commit(next); err != nil {
		return models.Habit{}, err
	}
	if t.engine != nil {
		mirror("habit", t.engine.PushHabit(ctx, h))
	}
	return h, nil
}

func (t *Tracker) UpdateHabit(ctx context.Context, id string, patch eventstore.HabitPatch) (models.Habit, error) {
	return t.habitChange(ctx, "edit habit", id, func(s models.Snapshot, now time.Time) (models.Snapshot, models.Habit, error) {
		return eventstore.UpdateHabit(s, id, patch, now)
	})
}

// ArchiveHabit soft-deletes a habit; its history stays visible for earlier days
func (t *Tracker) ArchiveHabit(ctx context.Context, id string) (models.Habit, error) {
	return t.habitChange(ctx, "archive habit", id, eventstore.SoftDeleteHabit)
}

func (t *Tracker) RestoreHabit(ctx context.Context, id string) (models.Habit, error) {
	return t.habitChange(ctx, "", id, eventstore.RestoreHabit)
}

func (t *Tracker) habitChange(ctx context.Context, undoLabel, id string, fn func(models.Snapshot, string, time.Time) (models.Snapshot, models.Habit, error)) (models.Habit, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next, h, err := fn(t.snapshot, id, t.now())
	if err != nil {
		return models.Habit{}, err
	}
	prev := t.snapshot
	if err := t.commit(next); err != nil {
		return models.Habit{}, err
	}
	if undoLabel != "" {
		t.pushUndo(prev, fmt.Sprintf("%s %q", undoLabel, h.Name))
	}
	if t.engine != nil {
		mirror("habit", t.engine.PushHabit(ctx, h))
	}
	return h, nil
}

// DeleteHabit removes a habit and all of its check-ins
func (t *Tracker) DeleteHabit(ctx context.Context, id string) (models.Habit, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next, h, err := eventstore.DeleteHabit(t.snapshot, id, t.now())
	if err != nil {
		return models.Habit{}, err
	}
	prev := t.snapshot
	if err := t.commit(next); err != nil {
		return models.Habit{}, err
	}
	t.pushUndo(prev, fmt.Sprintf("delete habit %q", h.Name))
	if t.engine != nil {
		mirror("habit", t.engine.DeleteHabit(ctx, h.ID))
	}
	return h, nil
}

func (t *Tracker) AddCategory(ctx context.Context, in eventstore.CategoryInput) (models.Category, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next, c, err := eventstore.AddCategory(t.snapshot, in, t.now())
	if err != nil {
		return models.Category{}, err
	}
	if err := t.commit(next); err != nil {
		return models.Category{}, err
	}
	if t.engine != nil {
		mirror("category", t.engine.PushCategory(ctx, c))
	}
	return c, nil
}

func (t *Tracker) UpdateCategory(ctx context.Context, id string, patch eventstore.CategoryPatch) (models.Category, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next, c, err := eventstore.UpdateCategory(t.snapshot, id, patch, t.now())
	if err != nil {
		return models.Category{}, err
	}
	prev := t.snapshot
	if err := t.commit(next); err != nil {
		return models.Category{}, err
	}
	t.pushUndo(prev, fmt.Sprintf("edit category %q", c.Name))
	if t.engine != nil {
		mirror("category", t.engine.PushCategory(ctx, c))
	}
	return c, nil
}

// DeleteCategory removes a category and returns the habits that lost their reference
func (t *Tracker) DeleteCategory(ctx context.Context, id string) ([]models.Habit, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cat, ok := t.snapshot.FindCategory(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrCategoryNotFound, id)
	}
	next, orphaned, err := eventstore.DeleteCategory(t.snapshot, id, t.now())
	if err != nil {
		return nil, err
	}
	prev := t.snapshot
	if err := t.commit(next); err != nil {
		return nil, err
	}
	t.pushUndo(prev, fmt.Sprintf("delete category %q", cat.Name))
	if t.engine != nil {
		mirror("category", t.engine.DeleteCategory(ctx, id))
	}
	return orphaned, nil
}

// RecordCheckIn upserts the check-in for (habitID, date); an empty date means today
func (t *Tracker) RecordCheckIn(ctx context.Context, habitID string, value float64, date string) (models.CheckIn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if date == "" {
		date = t.Today()
	}
	next, c, err := eventstore.RecordCheckIn(t.snapshot, habitID, value, date, t.now())
	if err != nil {
		return models.CheckIn{}, err
	}
	if err := t.commit(next); err != nil {
		return models.CheckIn{}, err
	}
	if t.engine != nil {
		mirror("check-in", t.engine.PushCheckIn(ctx, c))
	}
	return c, nil
}

func (t *Tracker) DeleteCheckIn(ctx context.Context, habitID, date string) (models.CheckIn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if date == "" {
		date = t.Today()
	}
	next, c, err := eventstore.DeleteCheckIn(t.snapshot, habitID, date, t.now())
	if err != nil {
		return models.CheckIn{}, err
	}
	prev := t.snapshot
	if err := t.commit(next); err != nil {
		return models.CheckIn{}, err
	}
	t.pushUndo(prev, fmt.Sprintf("delete check-in %s", date))
	if t.engine != nil {
		mirror("check-in", t.engine.DeleteCheckIn(ctx, c.HabitID, c.Date))
	}
	return c, nil
}

// SyncNow runs a full sync and makes the merged snapshot current. The lock is
// held for the whole sync so no local mutation can slip in between the read
// and the write of the snapshot. When a backup manager is configured the local
// store is backed up before the merge is written.
func (t *Tracker) SyncNow(ctx context.Context) (cloudsync.Report, error) {
	if t.engine == nil {
		return cloudsync.Report{}, fmt.Errorf("%w: sync is not configured", apperrors.ErrRemoteUnavailable)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	report, err := t.engine.FullSync(ctx, t.snapshot)
	if err != nil {
		report.Snapshot = t.snapshot.Clone()
		return report, err
	}
	if report.SyncedAt.IsZero() {
		// sync disabled, nothing merged
		return report, nil
	}

	if t.backups != nil {
		if path, err := t.backups.CreateBackup(); err != nil {
			logger.Warn("Pre-merge backup failed", "error", err)
		} else {
			logger.Debug("Pre-merge backup written", "path", path)
		}
	}
	if err := t.commit(report.Snapshot); err != nil {
		return report, err
	}
	report.Snapshot = t.snapshot.Clone()
	return report, nil
}
