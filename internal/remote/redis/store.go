package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/julianstephens/weighbit/internal/cloudsync"
	"github.com/julianstephens/weighbit/internal/constants"
	"github.com/julianstephens/weighbit/internal/logger"
)

const (
	habitsSuffix     = "habits"
	categoriesSuffix = "categories"
	checkInsSuffix   = "check_ins"

	maxTxRetries = 5
)

// Store is a cloudsync.Remote keeping each user's rows in Redis hashes
// keyed "<prefix>:user:<id>:<table>". Check-ins are stored under a
// "<habit_id>:<date>" field so the (habit, date) pair stays unique.
type Store struct {
	client *goredis.Client
	prefix string
}

var _ cloudsync.Remote = (*Store)(nil)

// New builds a store from a redis:// or rediss:// URL. The connection is not
// opened until Init.
func New(rawURL, prefix string) (*Store, error) {
	opts, err := goredis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	return NewWithOptions(opts, prefix), nil
}

func NewWithOptions(opts *goredis.Options, prefix string) *Store {
	if prefix == "" {
		prefix = constants.AppName
	}
	return &Store{
		client: goredis.NewClient(opts),
		prefix: prefix,
	}
}

// IsRedisURL reports whether the remote URL selects this adapter
func IsRedisURL(rawURL string) bool {
	return strings.HasPrefix(rawURL, "redis://") || strings.HasPrefix(rawURL, "rediss://")
}

func (s *Store) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Key joins non-empty parts onto the store prefix with ':'
func (s *Store) Key(parts ...string) string {
	var sb strings.Builder
	sb.WriteString(s.prefix)
	for _, part := range parts {
		if part != "" {
			sb.WriteString(":")
			sb.WriteString(part)
		}
	}
	return sb.String()
}

func (s *Store) userKey(userID, table string) string {
	return s.Key("user", userID, table)
}

func checkInField(habitID, date string) string {
	return habitID + ":" + date
}

type hashReader interface {
	HGetAll(ctx context.Context, key string) *goredis.MapStringStringCmd
}

func fetchAll[T any](ctx context.Context, c hashReader, key string) ([]T, error) {
	values, err := c.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	fields := make([]string, 0, len(values))
	for f := range values {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	out := make([]T, 0, len(values))
	for _, f := range fields {
		var row T
		if err := json.Unmarshal([]byte(values[f]), &row); err != nil {
			logger.Warn("Skipping unreadable redis row", "key", key, "field", f, "error", err)
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Store) FetchHabits(ctx context.Context, userID string) ([]cloudsync.HabitRow, error) {
	rows, err := fetchAll[cloudsync.HabitRow](ctx, s.client, s.userKey(userID, habitsSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch habits: %w", err)
	}
	return rows, nil
}

func (s *Store) FetchCategories(ctx context.Context, userID string) ([]cloudsync.CategoryRow, error) {
	rows, err := fetchAll[cloudsync.CategoryRow](ctx, s.client, s.userKey(userID, categoriesSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return rows, nil
}

func (s *Store) FetchCheckIns(ctx context.Context, userID string) ([]cloudsync.CheckInRow, error) {
	rows, err := fetchAll[cloudsync.CheckInRow](ctx, s.client, s.userKey(userID, checkInsSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch check-ins: %w", err)
	}
	return rows, nil
}

func (s *Store) UpsertHabit(ctx context.Context, r cloudsync.HabitRow) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.userKey(r.UserID, habitsSuffix), r.ID, data).Err(); err != nil {
		return fmt.Errorf("failed to upsert habit %s: %w", r.ID, err)
	}
	return nil
}

func (s *Store) UpsertCategory(ctx context.Context, r cloudsync.CategoryRow) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.userKey(r.UserID, categoriesSuffix), r.ID, data).Err(); err != nil {
		return fmt.Errorf("failed to upsert category %s: %w", r.ID, err)
	}
	return nil
}

// UpsertCheckIn overwrites the row for (habit_id, date), keeping the id of an
// existing row the same way the SQL unique constraint does.
func (s *Store) UpsertCheckIn(ctx context.Context, r cloudsync.CheckInRow) error {
	key := s.userKey(r.UserID, checkInsSuffix)
	field := checkInField(r.HabitID, r.Date)

	err := s.watch(ctx, func(tx *goredis.Tx) error {
		existing, err := tx.HGet(ctx, key, field).Result()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		if err == nil {
			var prev cloudsync.CheckInRow
			if json.Unmarshal([]byte(existing), &prev) == nil && prev.ID != "" {
				r.ID = prev.ID
				r.CreatedAt = prev.CreatedAt
			}
		}
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.HSet(ctx, key, field, data)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("failed to upsert check-in %s/%s: %w", r.HabitID, r.Date, err)
	}
	return nil
}

// DeleteHabit removes the habit and its check-ins
func (s *Store) DeleteHabit(ctx context.Context, userID, id string) error {
	habitsKey := s.userKey(userID, habitsSuffix)
	key := s.userKey(userID, checkInsSuffix)

	err := s.watch(ctx, func(tx *goredis.Tx) error {
		rows, err := fetchAll[cloudsync.CheckInRow](ctx, tx, key)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.HDel(ctx, habitsKey, id)
			for _, r := range rows {
				if r.HabitID != id {
					continue
				}
				p.HDel(ctx, key, checkInField(r.HabitID, r.Date))
			}
			return nil
		})
		return err
	}, key, habitsKey)
	if err != nil {
		return fmt.Errorf("failed to delete habit %s: %w", id, err)
	}
	return nil
}

// DeleteCategory removes the category and clears category_id on its habits
func (s *Store) DeleteCategory(ctx context.Context, userID, id string) error {
	habitsKey := s.userKey(userID, habitsSuffix)
	categoriesKey := s.userKey(userID, categoriesSuffix)

	err := s.watch(ctx, func(tx *goredis.Tx) error {
		habits, err := fetchAll[cloudsync.HabitRow](ctx, tx, habitsKey)
		if err != nil {
			return err
		}
		updates := map[string]any{}
		for _, h := range habits {
			if h.CategoryID == nil || *h.CategoryID != id {
				continue
			}
			h.CategoryID = nil
			data, err := json.Marshal(h)
			if err != nil {
				return err
			}
			updates[h.ID] = data
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.HDel(ctx, categoriesKey, id)
			if len(updates) > 0 {
				p.HSet(ctx, habitsKey, updates)
			}
			return nil
		})
		return err
	}, habitsKey, categoriesKey)
	if err != nil {
		return fmt.Errorf("failed to delete category %s: %w", id, err)
	}
	return nil
}

// DeleteCheckIn removes the (habit_id, date) field whatever id the row carries
func (s *Store) DeleteCheckIn(ctx context.Context, userID, habitID, date string) error {
	n, err := s.client.HDel(ctx, s.userKey(userID, checkInsSuffix), checkInField(habitID, date)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete check-in %s/%s: %w", habitID, date, err)
	}
	if n == 0 {
		logger.Debug("Delete matched no rows", "table", checkInsSuffix, "habit", habitID, "date", date)
	}
	return nil
}

// watch runs fn in an optimistic transaction over keys, retrying when another
// client modifies them first
func (s *Store) watch(ctx context.Context, fn func(tx *goredis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, fn, keys...)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("transaction retries exhausted")
}
