package cloudsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/weighbit/internal/constants"
	apperrors "github.com/julianstephens/weighbit/internal/errors"
	"github.com/julianstephens/weighbit/internal/logger"
	"github.com/julianstephens/weighbit/internal/models"
	"github.com/julianstephens/weighbit/internal/storage"
)

// Options configures an Engine
type Options struct {
	UserID       string
	Remote       Remote
	Store        Store
	Connectivity Connectivity
	SyncInterval time.Duration
	Now          func() time.Time
}

// Engine mirrors local writes to a Remote, buffers them while offline, and
// reconciles the local snapshot with the remote copy.
type Engine struct {
	remote       Remote
	store        Store
	queue        *Queue
	conn         Connectivity
	syncInterval time.Duration
	now          func() time.Time

	mu       sync.RWMutex
	userID   string
	migrated map[string]bool
}

// ReplayResult summarizes one pass over the offline queue
type ReplayResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// Report is the outcome of a full sync
type Report struct {
	Snapshot     models.Snapshot
	Replay       ReplayResult
	ReplayErr    error
	Migrated     int
	MigrationErr error
	Merge        MergeStats
	SyncedAt     time.Time
}

func NewEngine(opts Options) *Engine {
	e := &Engine{
		remote:       opts.Remote,
		store:        opts.Store,
		conn:         opts.Connectivity,
		syncInterval: opts.SyncInterval,
		now:          opts.Now,
		userID:       opts.UserID,
		migrated:     make(map[string]bool),
	}
	if e.store == nil {
		e.store = storage.NewMemoryStore(0)
	}
	if e.conn == nil {
		e.conn = NewStaticConnectivity(true)
	}
	if e.syncInterval <= 0 {
		e.syncInterval = constants.DefaultSyncInterval
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.queue = NewQueue(e.store)
	return e
}

// SetUserID switches the signed-in user; an empty id disables sync
func (e *Engine) SetUserID(id string) {
	e.mu.Lock()
	e.userID = id
	e.mu.Unlock()
}

func (e *Engine) UserID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.userID
}

// Enabled reports whether there is both a signed-in user and a remote
func (e *Engine) Enabled() bool {
	return e.UserID() != "" && e.remote != nil
}

// Online reports the current connectivity state
func (e *Engine) Online() bool {
	return e.conn.Online()
}

// Queue exposes the offline queue
func (e *Engine) Queue() *Queue {
	return e.queue
}

// PushHabit mirrors a habit write. Network failures never fail the call: the row is
// queued instead. Only a failure to persist the queue is returned.
func (e *Engine) PushHabit(ctx context.Context, h models.Habit) error {
	userID := e.UserID()
	if userID == "" || e.remote == nil {
		return nil
	}
	row := HabitToRow(h, userID)
	return e.push(ctx, models.OperationUpdate, models.TableHabits, row, func(ctx context.Context) error {
		return e.remote.UpsertHabit(ctx, row)
	})
}

// PushCategory mirrors a category write. Preset categories stay local.
func (e *Engine) PushCategory(ctx context.Context, c models.Category) error {
	userID := e.UserID()
	if userID == "" || e.remote == nil || c.IsPreset() {
		return nil
	}
	row := CategoryToRow(c, userID)
	return e.push(ctx, models.OperationUpdate, models.TableCategories, row, func(ctx context.Context) error {
		return e.remote.UpsertCategory(ctx, row)
	})
}

// PushCheckIn mirrors a check-in write
func (e *Engine) PushCheckIn(ctx context.Context, c models.CheckIn) error {
	userID := e.UserID()
	if userID == "" || e.remote == nil {
		return nil
	}
	row := CheckInToRow(c, userID)
	return e.push(ctx, models.OperationUpdate, models.TableCheckIns, row, func(ctx context.Context) error {
		return e.remote.UpsertCheckIn(ctx, row)
	})
}

// DeleteHabit mirrors a hard delete; the remote cascades the habit's check-ins
func (e *Engine) DeleteHabit(ctx context.Context, id string) error {
	return e.pushDelete(ctx, models.TableHabits, deleteRef{ID: id})
}

// DeleteCategory mirrors a category delete; the remote clears habit references
func (e *Engine) DeleteCategory(ctx context.Context, id string) error {
	if (models.Category{ID: id}).IsPreset() {
		return nil
	}
	return e.pushDelete(ctx, models.TableCategories, deleteRef{ID: id})
}

// DeleteCheckIn mirrors a check-in delete for (habitID, date)
func (e *Engine) DeleteCheckIn(ctx context.Context, habitID, date string) error {
	return e.pushDelete(ctx, models.TableCheckIns, deleteRef{HabitID: habitID, Date: date})
}

func (e *Engine) pushDelete(ctx context.Context, table models.Table, ref deleteRef) error {
	userID := e.UserID()
	if userID == "" || e.remote == nil {
		return nil
	}
	ref.UserID = userID
	return e.push(ctx, models.OperationDelete, table, ref, func(ctx context.Context) error {
		return e.applyDelete(ctx, table, ref)
	})
}

func (e *Engine) push(ctx context.Context, op models.OperationType, table models.Table, payload any, send func(context.Context) error) error {
	if !e.conn.Online() {
		logger.Info("Offline, queueing remote write", "type", op, "table", table)
		return e.queue.Append(op, table, payload, e.now())
	}
	if err := send(ctx); err != nil {
		logger.Warn("Remote write failed, queueing for retry", "type", op, "table", table, "error", err)
		return e.queue.Append(op, table, payload, e.now())
	}
	return nil
}

func (e *Engine) applyDelete(ctx context.Context, table models.Table, ref deleteRef) error {
	switch table {
	case models.TableHabits:
		return e.remote.DeleteHabit(ctx, ref.UserID, ref.ID)
	case models.TableCategories:
		return e.remote.DeleteCategory(ctx, ref.UserID, ref.ID)
	case models.TableCheckIns:
		if ref.HabitID == "" || ref.Date == "" {
			return fmt.Errorf("check-in delete without habit and date")
		}
		return e.remote.DeleteCheckIn(ctx, ref.UserID, ref.HabitID, ref.Date)
	}
	return fmt.Errorf("unknown table %q", table)
}

func (e *Engine) apply(ctx context.Context, entry models.QueueEntry) error {
	if entry.Type == models.OperationDelete {
		var ref deleteRef
		if err := json.Unmarshal(entry.Data, &ref); err != nil {
			return fmt.Errorf("malformed queued delete: %w", err)
		}
		if ref.UserID == "" {
			ref.UserID = e.UserID()
		}
		return e.applyDelete(ctx, entry.Table, ref)
	}

	switch entry.Table {
	case models.TableHabits:
		var row HabitRow
		if err := json.Unmarshal(entry.Data, &row); err != nil {
			return fmt.Errorf("malformed queued habit: %w", err)
		}
		return e.remote.UpsertHabit(ctx, row)
	case models.TableCategories:
		var row CategoryRow
		if err := json.Unmarshal(entry.Data, &row); err != nil {
			return fmt.Errorf("malformed queued category: %w", err)
		}
		return e.remote.UpsertCategory(ctx, row)
	case models.TableCheckIns:
		var row CheckInRow
		if err := json.Unmarshal(entry.Data, &row); err != nil {
			return fmt.Errorf("malformed queued check-in: %w", err)
		}
		return e.remote.UpsertCheckIn(ctx, row)
	}
	return fmt.Errorf("unknown table %q", entry.Table)
}

// ReplayQueue sends every queued operation in order. The replayed entries are
// dropped only when all of them succeeded; otherwise the queue is kept intact and
// a *PartialSyncError is returned.
func (e *Engine) ReplayQueue(ctx context.Context) (ReplayResult, error) {
	var res ReplayResult
	if !e.Enabled() {
		return res, nil
	}
	if !e.conn.Online() {
		return res, apperrors.ErrOffline
	}

	entries, err := e.queue.Entries()
	if err != nil {
		return res, err
	}
	if len(entries) == 0 {
		return res, nil
	}

	log := logger.With("user", e.UserID())
	var failures []error
	for i, entry := range entries {
		res.Processed++
		if err := e.apply(ctx, entry); err != nil {
			res.Failed++
			failures = append(failures, fmt.Errorf("entry %d (%s %s): %w", i, entry.Type, entry.Table, err))
		}
	}

	if len(failures) > 0 {
		log.Warn("Offline queue replay incomplete, keeping queue", "processed", res.Processed, "failed", res.Failed)
		return res, &apperrors.PartialSyncError{Processed: res.Processed, Failures: failures}
	}
	if err := e.queue.Drop(len(entries)); err != nil {
		return res, fmt.Errorf("failed to clear offline queue: %w", err)
	}
	log.Info("Offline queue replayed", "processed", res.Processed)
	return res, nil
}

func (e *Engine) migratedKey(userID string) string {
	return constants.MigratedKeyPrefix + userID
}

func (e *Engine) hasMigrated(userID string) bool {
	e.mu.RLock()
	done := e.migrated[userID]
	e.mu.RUnlock()
	if done {
		return true
	}
	_, err := e.store.Get(e.migratedKey(userID))
	return err == nil
}

func (e *Engine) markMigrated(userID string) {
	e.mu.Lock()
	e.migrated[userID] = true
	e.mu.Unlock()
	if err := e.store.Put(e.migratedKey(userID), []byte(e.now().UTC().Format(time.RFC3339))); err != nil {
		logger.Warn("Failed to persist migration marker", "user", userID, "error", err)
	}
}

// uploadLocal sends every user-created entity so existing local history survives
// the first merge. Categories go first so habit references resolve, then habits,
// then check-ins.
func (e *Engine) uploadLocal(ctx context.Context, userID string, s models.Snapshot) (int, error) {
	uploaded := 0
	var errs []error
	for _, c := range s.Categories {
		if c.IsPreset() {
			continue
		}
		if err := e.remote.UpsertCategory(ctx, CategoryToRow(c, userID)); err != nil {
			errs = append(errs, fmt.Errorf("category %s: %w", c.ID, err))
			continue
		}
		uploaded++
	}
	for _, h := range s.Habits {
		if err := e.remote.UpsertHabit(ctx, HabitToRow(h, userID)); err != nil {
			errs = append(errs, fmt.Errorf("habit %s: %w", h.ID, err))
			continue
		}
		uploaded++
	}
	for _, c := range s.CheckIns {
		if err := e.remote.UpsertCheckIn(ctx, CheckInToRow(c, userID)); err != nil {
			errs = append(errs, fmt.Errorf("check-in %s: %w", c.ID, err))
			continue
		}
		uploaded++
	}
	return uploaded, errors.Join(errs...)
}

// Fetch reads the user's remote copy, fanning out one request per table
func (e *Engine) Fetch(ctx context.Context, userID string) (RemoteData, error) {
	var (
		habits     []HabitRow
		checkIns   []CheckInRow
		categories []CategoryRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		habits, err = e.remote.FetchHabits(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		checkIns, err = e.remote.FetchCheckIns(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = e.remote.FetchCategories(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return RemoteData{}, fmt.Errorf("%w: %v", apperrors.ErrRemoteUnavailable, err)
	}

	data := RemoteData{
		Habits:     make([]models.Habit, 0, len(habits)),
		CheckIns:   make([]models.CheckIn, 0, len(checkIns)),
		Categories: make([]models.Category, 0, len(categories)),
	}
	for _, r := range habits {
		data.Habits = append(data.Habits, HabitFromRow(r))
	}
	for _, r := range checkIns {
		data.CheckIns = append(data.CheckIns, CheckInFromRow(r))
	}
	for _, r := range categories {
		data.Categories = append(data.Categories, CategoryFromRow(r))
	}
	return data, nil
}

// FullSync replays the offline queue, uploads local data on a user's first sync,
// fetches the remote copy, and merges it into local. The returned report always
// carries a usable snapshot: local unchanged when sync is disabled, offline, or the
// fetch failed.
func (e *Engine) FullSync(ctx context.Context, local models.Snapshot) (Report, error) {
	report := Report{Snapshot: local}
	userID := e.UserID()
	if userID == "" || e.remote == nil {
		return report, nil
	}
	log := logger.With("user", userID)
	if !e.conn.Online() {
		log.Info("Offline, skipping sync")
		return report, apperrors.ErrOffline
	}

	report.Replay, report.ReplayErr = e.ReplayQueue(ctx)
	if report.ReplayErr != nil {
		log.Warn("Queue replay failed during sync", "error", report.ReplayErr)
	}

	if !local.IsEmpty() && !e.hasMigrated(userID) {
		n, err := e.uploadLocal(ctx, userID, local)
		report.Migrated = n
		if err != nil {
			report.MigrationErr = err
			log.Warn("First sync upload incomplete", "uploaded", n, "error", err)
		} else {
			e.markMigrated(userID)
			log.Info("Uploaded local data on first sync", "entities", n)
		}
	}

	remote, err := e.Fetch(ctx, userID)
	if err != nil {
		log.Warn("Remote fetch failed, keeping local data", "error", err)
		return report, err
	}

	if local.IsEmpty() {
		e.markMigrated(userID)
	}

	now := e.now()
	report.Snapshot, report.Merge = Merge(local, remote, now)
	report.SyncedAt = now
	if err := e.recordSync(now); err != nil {
		log.Warn("Failed to record sync time", "error", err)
	}
	log.Info("Sync complete",
		"habits", report.Merge.Habits,
		"categories", report.Merge.Categories,
		"checkIns", report.Merge.CheckIns,
		"localOnlyHabits", report.Merge.LocalOnlyHabits)
	return report, nil
}

func (e *Engine) recordSync(at time.Time) error {
	return e.store.Put(constants.LastSyncKey, []byte(at.UTC().Format(time.RFC3339Nano)))
}

// LastSync returns when the last successful full sync finished
func (e *Engine) LastSync() (time.Time, bool) {
	data, err := e.store.Get(constants.LastSyncKey)
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, string(data))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NeedsSync reports whether the last sync is missing or older than the sync interval
func (e *Engine) NeedsSync(now time.Time) bool {
	last, ok := e.LastSync()
	if !ok {
		return true
	}
	return now.Sub(last) > e.syncInterval
}

// Watch runs sync each time connectivity goes from offline to online, until ctx is
// done. A trigger that arrives while a sync is still running is dropped.
func (e *Engine) Watch(ctx context.Context, sync func(ctx context.Context)) error {
	triggers := make(chan struct{}, 1)
	unsubscribe := e.conn.Subscribe(func(online bool) {
		if !online {
			logger.Info("Connectivity lost")
			return
		}
		select {
		case triggers <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-triggers:
			logger.Info("Back online, syncing")
			sync(ctx)
			select {
			case <-triggers:
				logger.Debug("Dropping trigger that arrived during sync")
			default:
			}
		}
	}
}
