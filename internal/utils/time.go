package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/weighbit/internal/constants"
)

var shortMonths = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// GetTodayInTimezone returns today's date string (YYYY-MM-DD) in the specified timezone.
func GetTodayInTimezone(timezone string) (string, error) {
	now, err := NowInTimezone(timezone)
	if err != nil {
		return "", err
	}
	return now.Format(constants.DateFormat), nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// FormatDay formats t as a calendar day in t's own location.
func FormatDay(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// ParseDay parses a YYYY-MM-DD string into UTC midnight of that day.
// Day arithmetic is done in UTC so DST transitions never skip or repeat a day.
func ParseDay(day string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, day)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", day, err)
	}
	return t, nil
}

// ValidateDay reports whether day is a well-formed calendar date
func ValidateDay(day string) bool {
	_, err := ParseDay(day)
	return err == nil
}

// AddDays returns the day n calendar days after day (n may be negative).
func AddDays(day string, n int) (string, error) {
	t, err := ParseDay(day)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(constants.DateFormat), nil
}

// DaysBetween returns the number of calendar days from a to b (b - a).
func DaysBetween(a, b string) (int, error) {
	ta, err := ParseDay(a)
	if err != nil {
		return 0, err
	}
	tb, err := ParseDay(b)
	if err != nil {
		return 0, err
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}

// LastNDays returns n consecutive days ending at end, most recent first.
func LastNDays(end string, n int) ([]string, error) {
	t, err := ParseDay(end)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	days := make([]string, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, t.AddDate(0, 0, -i).Format(constants.DateFormat))
	}
	return days, nil
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthDates returns every day of the month in chronological order.
func MonthDates(year int, month time.Month) []string {
	n := DaysInMonth(year, month)
	days := make([]string, 0, n)
	for d := 1; d <= n; d++ {
		days = append(days, time.Date(year, month, d, 0, 0, 0, 0, time.UTC).Format(constants.DateFormat))
	}
	return days
}

// WeekDates returns the seven days starting at start, in chronological order.
func WeekDates(start string) ([]string, error) {
	t, err := ParseDay(start)
	if err != nil {
		return nil, err
	}
	days := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		days = append(days, t.AddDate(0, 0, i).Format(constants.DateFormat))
	}
	return days, nil
}

// ISOWeek returns the ISO 8601 year and week number of day.
func ISOWeek(day string) (year, week int, err error) {
	t, err := ParseDay(day)
	if err != nil {
		return 0, 0, err
	}
	year, week = t.ISOWeek()
	return year, week, nil
}

// MondayOfISOWeek returns the Monday starting the given ISO week.
func MondayOfISOWeek(year, week int) string {
	// January 4th is always in week 1
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	week1Monday := jan4.AddDate(0, 0, -offset)
	return week1Monday.AddDate(0, 0, (week-1)*7).Format(constants.DateFormat)
}

// MondayOf returns the Monday of the week containing day.
func MondayOf(day string) (string, error) {
	t, err := ParseDay(day)
	if err != nil {
		return "", err
	}
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset).Format(constants.DateFormat), nil
}

// WeekInfo describes one selectable Monday..Sunday week.
type WeekInfo struct {
	Week   int
	Monday string
	Sunday string
	Label  string
}

// WeeksOfYear lists the ISO weeks of year whose Monday is not after today,
// in chronological order.
func WeeksOfYear(year int, today string) []WeekInfo {
	var weeks []WeekInfo
	for week := 1; week <= 53; week++ {
		monday := MondayOfISOWeek(year, week)
		if y, w, _ := ISOWeek(monday); y != year || w != week {
			break
		}
		if monday > today {
			break
		}
		mon, _ := ParseDay(monday)
		sun := mon.AddDate(0, 0, 6)
		weeks = append(weeks, WeekInfo{
			Week:   week,
			Monday: monday,
			Sunday: sun.Format(constants.DateFormat),
			Label:  weekLabel(mon, sun),
		})
	}
	return weeks
}

func weekLabel(mon, sun time.Time) string {
	if mon.Month() == sun.Month() {
		return fmt.Sprintf("%d-%d %s", mon.Day(), sun.Day(), shortMonths[mon.Month()-1])
	}
	return fmt.Sprintf("%d %s - %d %s", mon.Day(), shortMonths[mon.Month()-1], sun.Day(), shortMonths[sun.Month()-1])
}
