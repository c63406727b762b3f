package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/weighbit/internal/cloudsync"
	"github.com/julianstephens/weighbit/internal/constants"
	"github.com/julianstephens/weighbit/internal/logger"
	"github.com/julianstephens/weighbit/internal/migration"
	"github.com/julianstephens/weighbit/migrations"
)

// Store is a cloudsync.Remote backed by PostgreSQL
type Store struct {
	connStr string
	db      *sql.DB
}

var _ cloudsync.Remote = (*Store)(nil)

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

func New(connStr string) *Store {
	s := &Store{
		connStr: connStr,
	}
	s.ensureSearchPath()
	return s
}

func (s *Store) ensureSearchPath() {
	if strings.HasPrefix(s.connStr, "postgres://") || strings.HasPrefix(s.connStr, "postgresql://") {
		u, err := url.Parse(s.connStr)
		if err != nil {
			logger.Warn("Failed to parse Postgres connection string", "error", err)
			return
		}
		q := u.Query()
		if q.Get("search_path") == "" {
			q.Set("search_path", constants.AppName)
			u.RawQuery = q.Encode()
			s.connStr = u.String()
		}
	} else if !hasParam(s.connStr, "search_path") {
		s.connStr = strings.TrimSpace(s.connStr) + " search_path=" + constants.AppName
	}
}

// hasParam reports whether a DSN-style connection string sets key (case-insensitive)
func hasParam(connStr, key string) bool {
	for _, part := range strings.Fields(connStr) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 && strings.EqualFold(kv[0], key) {
			return true
		}
	}
	return false
}

// hasSSLMode checks both URL-style and DSN-style connection strings for sslmode
func hasSSLMode(connStr string) bool {
	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" {
		for key := range u.Query() {
			if strings.EqualFold(key, "sslmode") {
				return true
			}
		}
	}
	return hasParam(connStr, "sslmode")
}

// ValidateConnString checks that connStr is a PostgreSQL URI or DSN without an
// embedded password. Passwords belong in ~/.pgpass or PGPASSWORD.
func ValidateConnString(connStr string) error {
	if strings.TrimSpace(connStr) == "" {
		return fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}

	if _, err := pq.NewConnector(connStr); err != nil {
		return fmt.Errorf("%w: invalid connection string format: %v", ErrInvalidConnectionString, err)
	}

	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		parsedURL, err := url.Parse(connStr)
		if err != nil {
			return fmt.Errorf("%w: failed to parse connection URL: %v", ErrInvalidConnectionString, err)
		}
		if _, isSet := parsedURL.User.Password(); isSet {
			return ErrEmbeddedCredentials
		}
		if parsedURL.Host == "" && parsedURL.User == nil && (parsedURL.Path == "" || parsedURL.Path == "/") {
			return fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
		}
		return nil
	}

	if hasParam(connStr, "password") {
		return ErrEmbeddedCredentials
	}
	return nil
}

// Init connects, creates the schema, and applies migrations
func (s *Store) Init() error {
	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec("CREATE SCHEMA IF NOT EXISTS " + constants.AppName); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasSSLMode(s.connStr) {
			return fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
		}
		return fmt.Errorf("failed to create schema: %w", err)
	}
	s.db = db

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) runMigrations() error {
	subFS, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		return fmt.Errorf("failed to access postgres migrations: %w", err)
	}
	runner, err := migration.NewRunner(s.db, subFS, migration.DriverPostgres)
	if err != nil {
		return err
	}
	_, err = runner.ApplyMigrations(func(msg string) {
		logger.Debug(msg, "store", "postgresql")
	})
	return err
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("postgres store not initialized")
	}
	return s.db.PingContext(ctx)
}

func (s *Store) FetchHabits(ctx context.Context, userID string) ([]cloudsync.HabitRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, type, target, weight, timeframe, unit, category_id, color, created_at, deleted_at
		FROM habits WHERE user_id = $1 ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch habits: %w", err)
	}
	defer rows.Close()

	var out []cloudsync.HabitRow
	for rows.Next() {
		var (
			r          cloudsync.HabitRow
			categoryID sql.NullString
			color      sql.NullString
			deletedAt  sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.Type, &r.Target, &r.Weight, &r.Timeframe, &r.Unit,
			&categoryID, &color, &r.CreatedAt, &deletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		if categoryID.Valid {
			r.CategoryID = &categoryID.String
		}
		if color.Valid {
			r.Color = &color.String
		}
		if deletedAt.Valid {
			r.DeletedAt = &deletedAt.Time
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) FetchCategories(ctx context.Context, userID string) ([]cloudsync.CategoryRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, icon, color FROM categories WHERE user_id = $1 ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	defer rows.Close()

	var out []cloudsync.CategoryRow
	for rows.Next() {
		var r cloudsync.CategoryRow
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.Icon, &r.Color); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) FetchCheckIns(ctx context.Context, userID string) ([]cloudsync.CheckInRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, habit_id, to_char(date, 'YYYY-MM-DD'), value, completed, timestamp, created_at
		FROM check_ins WHERE user_id = $1 ORDER BY date, habit_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch check-ins: %w", err)
	}
	defer rows.Close()

	var out []cloudsync.CheckInRow
	for rows.Next() {
		var (
			r  cloudsync.CheckInRow
			ts sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.HabitID, &r.Date, &r.Value, &r.Completed, &ts, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		if ts.Valid {
			r.Timestamp = &ts.Time
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpsertHabit(ctx context.Context, r cloudsync.HabitRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO habits (id, user_id, name, type, target, weight, timeframe, unit, category_id, color, created_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			target = EXCLUDED.target,
			weight = EXCLUDED.weight,
			timeframe = EXCLUDED.timeframe,
			unit = EXCLUDED.unit,
			category_id = EXCLUDED.category_id,
			color = EXCLUDED.color,
			deleted_at = EXCLUDED.deleted_at
		WHERE habits.user_id = EXCLUDED.user_id
	`, r.ID, r.UserID, r.Name, r.Type, r.Target, r.Weight, r.Timeframe, r.Unit,
		nullString(r.CategoryID), nullString(r.Color), r.CreatedAt, nullTime(r.DeletedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert habit %s: %w", r.ID, err)
	}
	return nil
}

func (s *Store) UpsertCategory(ctx context.Context, r cloudsync.CategoryRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, icon, color)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			icon = EXCLUDED.icon,
			color = EXCLUDED.color
		WHERE categories.user_id = EXCLUDED.user_id
	`, r.ID, r.UserID, r.Name, r.Icon, r.Color)
	if err != nil {
		return fmt.Errorf("failed to upsert category %s: %w", r.ID, err)
	}
	return nil
}

func (s *Store) UpsertCheckIn(ctx context.Context, r cloudsync.CheckInRow) error {
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO check_ins (id, user_id, habit_id, date, value, completed, timestamp, created_at)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8)
		ON CONFLICT (user_id, habit_id, date) DO UPDATE SET
			value = EXCLUDED.value,
			completed = EXCLUDED.completed,
			timestamp = EXCLUDED.timestamp
	`, r.ID, r.UserID, r.HabitID, r.Date, r.Value, r.Completed, nullTime(r.Timestamp), createdAt)
	if err != nil {
		return fmt.Errorf("failed to upsert check-in %s/%s: %w", r.HabitID, r.Date, err)
	}
	return nil
}

// DeleteHabit removes the habit; its check-ins go with it through ON DELETE CASCADE.
// Deleting a missing row is not an error.
func (s *Store) DeleteHabit(ctx context.Context, userID, id string) error {
	return s.deleteRow(ctx, "habits", userID, id)
}

// DeleteCategory removes the category; habits keep existing with category_id set to NULL
func (s *Store) DeleteCategory(ctx context.Context, userID, id string) error {
	return s.deleteRow(ctx, "categories", userID, id)
}

// DeleteCheckIn removes the row for (habit_id, date) whatever id it was first stored under
func (s *Store) DeleteCheckIn(ctx context.Context, userID, habitID, date string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM check_ins WHERE user_id = $1 AND habit_id = $2 AND date = $3::date", userID, habitID, date)
	if err != nil {
		return fmt.Errorf("failed to delete check-in %s/%s: %w", habitID, date, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		logger.Debug("Delete matched no rows", "table", "check_ins", "habit", habitID, "date", date)
	}
	return nil
}

func (s *Store) deleteRow(ctx context.Context, table, userID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+pq.QuoteIdentifier(table)+" WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		logger.Debug("Delete matched no rows", "table", table, "id", id)
	}
	return nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}
