// Package progress computes weighted completion over days and date windows.
// Every function is pure: it reads the snapshot and never modifies it.
package progress

import (
	"fmt"
	"math"
	"time"

	"github.com/julianstephens/weighbit/internal/constants"
	"github.com/julianstephens/weighbit/internal/models"
	"github.com/julianstephens/weighbit/internal/utils"
)

// Day is the weighted progress for a single calendar day
type Day struct {
	Date      string  `json:"date"`
	Percent   float64 `json:"percent"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	HasData   bool    `json:"hasData"`
}

// Entry is one day of a window breakdown. Percent is nil for future days.
type Entry struct {
	Date     string   `json:"date"`
	Percent  *float64 `json:"percent"`
	HasData  bool     `json:"hasData"`
	IsFuture bool     `json:"isFuture,omitempty"`
}

// Window is the aggregate progress over a run of days
type Window struct {
	Percent      float64 `json:"percent"`
	DaysWithData int     `json:"daysWithData"`
	TotalDays    int     `json:"totalDays"`
	Daily        []Entry `json:"dailyBreakdown"`
}

// Round1 rounds to one decimal place, halves away from zero
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

type checkInIndex map[models.CheckInKey]models.CheckIn

func indexCheckIns(s models.Snapshot) checkInIndex {
	idx := make(checkInIndex, len(s.CheckIns))
	for _, c := range s.CheckIns {
		idx[c.Key()] = c
	}
	return idx
}

func ratio(h models.Habit, c models.CheckIn, ok bool) float64 {
	if !ok {
		return 0
	}
	return math.Min(1, c.Value/h.EffectiveTarget())
}

// CompletionRatio returns min(1, value/target) for the habit's check-in on date, or 0
func CompletionRatio(s models.Snapshot, habitID, date string) float64 {
	h, ok := s.FindHabit(habitID)
	if !ok {
		return 0
	}
	for _, c := range s.CheckIns {
		if c.HabitID == habitID && c.Date == date {
			return ratio(h, c, true)
		}
	}
	return 0
}

// Weighted returns the weighted completion for date across every habit valid on that day
func Weighted(s models.Snapshot, date string) Day {
	return weighted(s, indexCheckIns(s), date)
}

func weighted(s models.Snapshot, idx checkInIndex, date string) Day {
	d := Day{Date: date}
	var weightedSum, totalWeight float64
	for _, h := range s.Habits {
		if !h.ValidOn(date) {
			continue
		}
		c, ok := idx[models.CheckInKey{HabitID: h.ID, Date: date}]
		if ok {
			d.HasData = true
		}
		r := ratio(h, c, ok)
		w := h.EffectiveWeight()
		weightedSum += w * r
		totalWeight += w
		d.Total++
		if r >= 1 {
			d.Completed++
		}
	}
	if totalWeight > 0 {
		d.Percent = Round1(100 * weightedSum / totalWeight)
	}
	return d
}

// counted reports whether a day takes part in a window average
func (d Day) counted() bool {
	return d.HasData || d.Total > 0
}

func aggregate(s models.Snapshot, dates []string, today string) Window {
	idx := indexCheckIns(s)
	w := Window{Daily: make([]Entry, 0, len(dates))}
	var sum float64
	for _, date := range dates {
		if today != "" && date > today {
			w.Daily = append(w.Daily, Entry{Date: date, IsFuture: true})
			continue
		}
		w.TotalDays++
		d := weighted(s, idx, date)
		p := d.Percent
		w.Daily = append(w.Daily, Entry{Date: date, Percent: &p, HasData: d.HasData})
		if d.counted() {
			sum += d.Percent
			w.DaysWithData++
		}
	}
	if w.DaysWithData > 0 {
		w.Percent = Round1(sum / float64(w.DaysWithData))
	}
	return w
}

// WindowProgress aggregates the numDays consecutive days ending at endDate (inclusive).
// The breakdown is in chronological order.
func WindowProgress(s models.Snapshot, endDate string, numDays int) (Window, error) {
	if numDays < 1 {
		return Window{}, fmt.Errorf("window must cover at least one day, got %d", numDays)
	}
	days, err := utils.LastNDays(endDate, numDays)
	if err != nil {
		return Window{}, err
	}
	for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
		days[i], days[j] = days[j], days[i]
	}
	return aggregate(s, days, ""), nil
}

// Weekly is the trailing 7-day window ending at endDate
func Weekly(s models.Snapshot, endDate string) (Window, error) {
	return WindowProgress(s, endDate, constants.WeekWindowDays)
}

// Monthly is the trailing 30-day window ending at endDate
func Monthly(s models.Snapshot, endDate string) (Window, error) {
	return WindowProgress(s, endDate, constants.MonthWindowDays)
}

// CalendarMonth aggregates every day of the month. Days after today are marked
// future and excluded from both the average and TotalDays.
func CalendarMonth(s models.Snapshot, year int, month time.Month, today string) (Window, error) {
	if month < time.January || month > time.December {
		return Window{}, fmt.Errorf("invalid month %d", month)
	}
	if !utils.ValidateDay(today) {
		return Window{}, fmt.Errorf("invalid today %q", today)
	}
	return aggregate(s, utils.MonthDates(year, month), today), nil
}

// CalendarWeek aggregates the seven days starting at monday, with future days
// handled as in CalendarMonth
func CalendarWeek(s models.Snapshot, monday string, today string) (Window, error) {
	if !utils.ValidateDay(today) {
		return Window{}, fmt.Errorf("invalid today %q", today)
	}
	days, err := utils.WeekDates(monday)
	if err != nil {
		return Window{}, err
	}
	return aggregate(s, days, today), nil
}
