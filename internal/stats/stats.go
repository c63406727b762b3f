// Package stats computes per-habit streaks, completion rates, and history.
package stats

import (
	"math"
	"sort"

	"github.com/julianstephens/weighbit/internal/constants"
	"github.com/julianstephens/weighbit/internal/models"
	"github.com/julianstephens/weighbit/internal/utils"
)

// History maps a calendar day to the habit's check-in on that day
type History map[string]models.CheckIn

// Summary bundles the headline statistics for one habit
type Summary struct {
	HabitID        string  `json:"habitId"`
	CurrentStreak  int     `json:"currentStreak"`
	LongestStreak  int     `json:"longestStreak"`
	CompletionRate int     `json:"completionRate"`
	History        History `json:"-"`
}

// HabitHistory indexes every check-in of the habit by date
func HabitHistory(s models.Snapshot, habitID string) History {
	h := make(History)
	for _, c := range s.CheckIns {
		if c.HabitID == habitID {
			h[c.Date] = c
		}
	}
	return h
}

// CurrentStreak counts consecutive days meeting the target, walking back from today.
// A today without any check-in is skipped rather than breaking the streak.
func CurrentStreak(s models.Snapshot, habitID, today string) int {
	h, ok := s.FindHabit(habitID)
	if !ok {
		return 0
	}
	days, err := utils.LastNDays(today, constants.StreakLookbackDays)
	if err != nil {
		return 0
	}
	return currentStreak(h, HabitHistory(s, habitID), days)
}

func currentStreak(h models.Habit, history History, days []string) int {
	streak := 0
	for i, date := range days {
		c, ok := history[date]
		if i == 0 && !ok {
			continue
		}
		if !ok || !h.Meets(c.Value) {
			break
		}
		streak++
	}
	return streak
}

// LongestStreak returns the longest run of calendar-consecutive days meeting the target
func LongestStreak(s models.Snapshot, habitID string) int {
	h, ok := s.FindHabit(habitID)
	if !ok {
		return 0
	}

	var dates []string
	for _, c := range s.CheckIns {
		if c.HabitID == habitID && h.Meets(c.Value) {
			dates = append(dates, c.Date)
		}
	}
	if len(dates) == 0 {
		return 0
	}
	sort.Strings(dates)

	longest, current := 1, 1
	for i := 1; i < len(dates); i++ {
		gap, err := utils.DaysBetween(dates[i-1], dates[i])
		if err == nil && gap == 1 {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 1
		}
	}
	return longest
}

// CompletionRate is the integer percentage of days in the trailing window that met the
// target. Days before the habit was created are not counted.
func CompletionRate(s models.Snapshot, habitID string, windowDays int, today string) int {
	h, ok := s.FindHabit(habitID)
	if !ok || windowDays < 1 {
		return 0
	}
	days, err := utils.LastNDays(today, windowDays)
	if err != nil {
		return 0
	}
	return completionRate(h, HabitHistory(s, habitID), days)
}

func completionRate(h models.Habit, history History, days []string) int {
	created := h.CreatedDay()
	completed, countable := 0, 0
	for _, date := range days {
		if date < created {
			continue
		}
		countable++
		if c, ok := history[date]; ok && h.Meets(c.Value) {
			completed++
		}
	}
	if countable == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(countable) * 100))
}

// Summarize computes every statistic for the habit in one pass over its history
func Summarize(s models.Snapshot, habitID, today string) Summary {
	out := Summary{HabitID: habitID, History: HabitHistory(s, habitID)}
	h, ok := s.FindHabit(habitID)
	if !ok {
		return out
	}
	if days, err := utils.LastNDays(today, constants.StreakLookbackDays); err == nil {
		out.CurrentStreak = currentStreak(h, out.History, days)
		if len(days) > constants.DefaultCompletionDays {
			days = days[:constants.DefaultCompletionDays]
		}
		out.CompletionRate = completionRate(h, out.History, days)
	}
	out.LongestStreak = LongestStreak(s, habitID)
	return out
}
