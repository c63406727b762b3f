package cloudsync

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var errUnreachable = errors.New("connection refused")

type fakeRemote struct {
	mu         sync.Mutex
	habits     map[string]HabitRow
	categories map[string]CategoryRow
	checkIns   map[string]CheckInRow

	failWrites  bool
	failFetch   bool
	failHabitID string
	fetches     int
	upserts     int
	deletes     int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		habits:     map[string]HabitRow{},
		categories: map[string]CategoryRow{},
		checkIns:   map[string]CheckInRow{},
	}
}

func (f *fakeRemote) Ping(ctx context.Context) error { return nil }
func (f *fakeRemote) Close() error                   { return nil }

func (f *fakeRemote) FetchHabits(ctx context.Context, userID string) ([]HabitRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.failFetch {
		return nil, errUnreachable
	}
	var out []HabitRow
	for _, r := range f.habits {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRemote) FetchCheckIns(ctx context.Context, userID string) ([]CheckInRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFetch {
		return nil, errUnreachable
	}
	var out []CheckInRow
	for _, r := range f.checkIns {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRemote) FetchCategories(ctx context.Context, userID string) ([]CategoryRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFetch {
		return nil, errUnreachable
	}
	var out []CategoryRow
	for _, r := range f.categories {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRemote) UpsertHabit(ctx context.Context, row HabitRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites || row.ID == f.failHabitID {
		return errUnreachable
	}
	f.upserts++
	f.habits[row.ID] = row
	return nil
}

func (f *fakeRemote) UpsertCategory(ctx context.Context, row CategoryRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errUnreachable
	}
	f.upserts++
	f.categories[row.ID] = row
	return nil
}

// UpsertCheckIn keeps the first id seen for a (user, habit, date) key
func (f *fakeRemote) UpsertCheckIn(ctx context.Context, row CheckInRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errUnreachable
	}
	f.upserts++
	for id, existing := range f.checkIns {
		if existing.UserID == row.UserID && existing.HabitID == row.HabitID && existing.Date == row.Date {
			row.ID = id
		}
	}
	f.checkIns[row.ID] = row
	return nil
}

func (f *fakeRemote) DeleteHabit(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errUnreachable
	}
	f.deletes++
	delete(f.habits, id)
	for cid, c := range f.checkIns {
		if c.HabitID == id {
			delete(f.checkIns, cid)
		}
	}
	return nil
}

func (f *fakeRemote) DeleteCategory(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errUnreachable
	}
	f.deletes++
	delete(f.categories, id)
	for hid, h := range f.habits {
		if h.CategoryID != nil && *h.CategoryID == id {
			h.CategoryID = nil
			f.habits[hid] = h
		}
	}
	return nil
}

func (f *fakeRemote) DeleteCheckIn(ctx context.Context, userID, habitID, date string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errUnreachable
	}
	f.deletes++
	for id, c := range f.checkIns {
		if c.UserID == userID && c.HabitID == habitID && c.Date == date {
			delete(f.checkIns, id)
		}
	}
	return nil
}

func (f *fakeRemote) setFailWrites(v bool) {
	f.mu.Lock()
	f.failWrites = v
	f.mu.Unlock()
}

func (f *fakeRemote) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}
