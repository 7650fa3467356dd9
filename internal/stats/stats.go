// Package stats derives streaks, completion rates and weekly averages from a
// habit's completion entries. The functions take "today" explicitly; they
// never read the clock.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/utils"
)

// Entries maps a YYYY-MM-DD day to its completion flag.
type Entries = map[string]bool

// CurrentStreak counts consecutive completed days walking back from today.
// An unmarked today ends the streak immediately.
func CurrentStreak(entries Entries, today time.Time) int {
	streak := 0
	day := utils.StartOfDay(today)
	for streak < constants.MaxStreakLookback && entries[utils.DayKey(day)] {
		streak++
		day = utils.AddDays(day, -1)
	}
	return streak
}

// LongestStreak is the longest run of consecutive completed calendar days
// anywhere in the history.
func LongestStreak(entries Entries) int {
	days := make([]time.Time, 0, len(entries))
	for key, done := range entries {
		if !done {
			continue
		}
		d, err := utils.ParseDay(key, time.UTC)
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	if len(days) == 0 {
		return 0
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if utils.DaysBetween(days[i-1], days[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// CompletionRate is the rounded percentage of completed days in the
// trailing window of n days ending today. Missing days count as misses.
func CompletionRate(entries Entries, today time.Time, n int) int {
	if n <= 0 {
		return 0
	}
	completed := countInWindow(entries, today, n)
	return int(math.Round(float64(completed) / float64(n) * 100))
}

// AveragePerWeek is completions in the trailing weeks*7 days divided by
// weeks.
func AveragePerWeek(entries Entries, today time.Time, weeks int) float64 {
	if weeks <= 0 {
		return 0
	}
	return float64(countInWindow(entries, today, weeks*7)) / float64(weeks)
}

// TotalCompletions counts every completed entry.
func TotalCompletions(entries Entries) int {
	n := 0
	for _, done := range entries {
		if done {
			n++
		}
	}
	return n
}

func countInWindow(entries Entries, today time.Time, n int) int {
	day := utils.StartOfDay(today)
	completed := 0
	for i := 0; i < n; i++ {
		if entries[utils.DayKey(day)] {
			completed++
		}
		day = utils.AddDays(day, -1)
	}
	return completed
}
