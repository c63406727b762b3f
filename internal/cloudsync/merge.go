package cloudsync

import (
	"time"

	"github.com/julianstephens/weighbit/internal/models"
)

// RemoteData is the remote copy after field mapping
type RemoteData struct {
	Habits     []models.Habit
	CheckIns   []models.CheckIn
	Categories []models.Category
}

// MergeStats counts what a merge kept from each side
type MergeStats struct {
	Habits              int `json:"habits"`
	Categories          int `json:"categories"`
	CheckIns            int `json:"checkIns"`
	LocalOnlyHabits     int `json:"localOnlyHabits"`
	LocalOnlyCategories int `json:"localOnlyCategories"`
	LocalOnlyCheckIns   int `json:"localOnlyCheckIns"`
}

// Merge reconciles local with remote. Remote entities always win: habits and
// categories are taken from remote, with local entities whose id is absent remotely
// kept as-is. Check-ins are keyed by (habit, date) and a remote entry replaces the
// local one for the same key regardless of timestamps.
func Merge(local models.Snapshot, remote RemoteData, now time.Time) (models.Snapshot, MergeStats) {
	var stats MergeStats
	out := models.Snapshot{
		Version:     local.Version,
		Habits:      make([]models.Habit, 0, len(remote.Habits)+len(local.Habits)),
		Categories:  make([]models.Category, 0, len(remote.Categories)+len(local.Categories)),
		CheckIns:    make([]models.CheckIn, 0, len(remote.CheckIns)+len(local.CheckIns)),
		LastUpdated: now.UTC(),
	}

	remoteHabits := make(map[string]struct{}, len(remote.Habits))
	for _, h := range remote.Habits {
		remoteHabits[h.ID] = struct{}{}
		out.Habits = append(out.Habits, h)
	}
	for _, h := range local.Habits {
		if _, ok := remoteHabits[h.ID]; !ok {
			out.Habits = append(out.Habits, h)
			stats.LocalOnlyHabits++
		}
	}

	remoteCategories := make(map[string]struct{}, len(remote.Categories))
	for _, c := range remote.Categories {
		remoteCategories[c.ID] = struct{}{}
		out.Categories = append(out.Categories, c)
	}
	for _, c := range local.Categories {
		if _, ok := remoteCategories[c.ID]; !ok {
			out.Categories = append(out.Categories, c)
			stats.LocalOnlyCategories++
		}
	}

	pos := make(map[models.CheckInKey]int, len(local.CheckIns)+len(remote.CheckIns))
	for _, c := range local.CheckIns {
		if i, ok := pos[c.Key()]; ok {
			out.CheckIns[i] = c
			continue
		}
		pos[c.Key()] = len(out.CheckIns)
		out.CheckIns = append(out.CheckIns, c)
	}
	fromRemote := make(map[models.CheckInKey]struct{}, len(remote.CheckIns))
	for _, c := range remote.CheckIns {
		fromRemote[c.Key()] = struct{}{}
		if i, ok := pos[c.Key()]; ok {
			out.CheckIns[i] = c
			continue
		}
		pos[c.Key()] = len(out.CheckIns)
		out.CheckIns = append(out.CheckIns, c)
	}

	stats.Habits = len(out.Habits)
	stats.Categories = len(out.Categories)
	stats.CheckIns = len(out.CheckIns)
	stats.LocalOnlyCheckIns = len(out.CheckIns) - len(fromRemote)
	return out.Clone(), stats
}
