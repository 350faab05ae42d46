package habit

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrInvalidDate is returned when a date string is not a real calendar date
// in YYYY-MM-DD form.
var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

const dayLayout = "2006-01-02"

// Day is a calendar date with no time-of-day and no timezone. Arithmetic is
// exact across month, year and leap boundaries.
type Day struct {
	t time.Time // midnight UTC, used purely for calendar math
}

// ParseDay parses a strict YYYY-MM-DD string. Inputs that parse but do not
// round-trip (e.g. "2026-1-2") are rejected along with impossible dates.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	if t.Format(dayLayout) != s {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Day{t: t}, nil
}

// DayOf truncates a wall-clock time to its calendar date. The caller chooses
// the clock (and therefore the timezone); the engine never reads one.
func DayOf(t time.Time) Day {
	return Day{t: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// NewDay builds a Day from components without validation beyond time.Date
// normalization; use ParseDay for untrusted input.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Day) String() string { return d.t.Format(dayLayout) }

// AddDays steps the date by n calendar days (n may be negative).
func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }

// Sub returns the exact number of calendar days between d and other
// (positive when d is later).
func (d Day) Sub(other Day) int {
	return int(d.t.Sub(other.t) / (24 * time.Hour))
}

// Toggle flips the presence of date in dates: remove it if present, insert
// it otherwise. The result is a fresh slice, deduplicated and sorted
// ascending, ready to be persisted as the full replacement set. The input
// slice is never modified; a malformed date leaves the set unchanged.
func Toggle(dates []string, date string) ([]string, error) {
	day, err := ParseDay(date)
	if err != nil {
		return nil, err
	}
	canonical := day.String()

	set := make(map[string]struct{}, len(dates)+1)
	for _, d := range dates {
		set[d] = struct{}{}
	}
	if _, ok := set[canonical]; ok {
		delete(set, canonical)
	} else {
		set[canonical] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

// CurrentStreak counts consecutive done days walking backward from today.
// If today itself is not done the streak is zero; there is no grace period.
func CurrentStreak(dates []string, today Day) int {
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}

	streak := 0
	cursor := today
	for {
		if _, ok := set[cursor.String()]; !ok {
			break
		}
		streak++
		cursor = cursor.AddDays(-1)
	}
	return streak
}

// BestStreak returns the length of the longest run of consecutive calendar
// days anywhere in dates: zero for an empty set, otherwise at least one.
// The input is sorted and deduplicated defensively; entries that fail to
// parse are skipped rather than breaking the scan.
func BestStreak(dates []string) int {
	days := make([]Day, 0, len(dates))
	for _, s := range dates {
		if day, err := ParseDay(s); err == nil {
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		return 0
	}
	sort.Slice(days, func(i, j int) bool { return days[i].t.Before(days[j].t) })

	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		switch days[i].Sub(days[i-1]) {
		case 0:
			// duplicate, ignore
		case 1:
			run++
			if run > best {
				best = run
			}
		default:
			run = 1
		}
	}
	return best
}

// GridEntry is one day of a month grid.
type GridEntry struct {
	Date string `json:"date"`
	Done bool   `json:"done"`
}

// MonthGrid materializes one entry per calendar day of the given month in
// ascending order, flagging days present in dates. Pure data for rendering;
// the engine knows nothing about display.
func MonthGrid(dates []string, year int, month time.Month) ([]GridEntry, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month %d", ErrInvalidDate, month)
	}

	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}

	// Day zero of the next month is the last day of this one.
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	grid := make([]GridEntry, 0, last)
	for dom := 1; dom <= last; dom++ {
		date := NewDay(year, month, dom).String()
		_, done := set[date]
		grid = append(grid, GridEntry{Date: date, Done: done})
	}
	return grid, nil
}

// MonthCompletion reports how many grid entries are done and the rounded
// completion percentage for the month.
func MonthCompletion(grid []GridEntry) (count, percent int) {
	for _, e := range grid {
		if e.Done {
			count++
		}
	}
	if len(grid) == 0 {
		return 0, 0
	}
	percent = int(math.Round(100 * float64(count) / float64(len(grid))))
	return count, percent
}
