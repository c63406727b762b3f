package cloudsync

import "context"

// Remote is a per-user cloud copy of the dataset. Upserts are keyed by id for habits
// and categories and by (user, habit, date) for check-ins. Deletes of rows that no
// longer exist must succeed so queued operations can be replayed safely. Check-ins
// are deleted by the same (user, habit, date) key their upserts conflict on.
type Remote interface {
	Ping(ctx context.Context) error

	FetchHabits(ctx context.Context, userID string) ([]HabitRow, error)
	FetchCheckIns(ctx context.Context, userID string) ([]CheckInRow, error)
	FetchCategories(ctx context.Context, userID string) ([]CategoryRow, error)

	UpsertHabit(ctx context.Context, row HabitRow) error
	UpsertCheckIn(ctx context.Context, row CheckInRow) error
	UpsertCategory(ctx context.Context, row CategoryRow) error

	DeleteHabit(ctx context.Context, userID, id string) error
	DeleteCheckIn(ctx context.Context, userID, habitID, date string) error
	DeleteCategory(ctx context.Context, userID, id string) error

	Close() error
}
