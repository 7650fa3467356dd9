package stats

import (
	"math"
	"sort"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

// Source supplies a habit's entries. *store.Store satisfies it.
type Source interface {
	GetEntries(habitID string) map[string]bool
}

type Engine struct {
	source Source
	cache  Cache
}

type Option func(*Engine)

func WithCache(c Cache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// NewEngine builds an engine with a 5 minute TTL cache unless WithCache
// overrides it. If the cache cannot be created the engine runs uncached.
func NewEngine(source Source, opts ...Option) *Engine {
	e := &Engine{source: source}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		c, err := NewTTLCache(constants.StatsCacheTTL)
		if err != nil {
			logger.Warn("stats cache disabled", "error", err)
			e.cache = NoCache{}
		} else {
			e.cache = c
		}
	}
	return e
}

func cacheKey(habitID string, today time.Time) string {
	return constants.StatsCacheKeyPrefix + habitID + "_" + utils.DayKey(today)
}

// Stats returns the full bundle for one habit.
func (e *Engine) Stats(habitID string, today time.Time) models.HabitStats {
	key := cacheKey(habitID, today)
	if s, ok := e.cache.Get(key); ok {
		return s
	}

	entries := e.source.GetEntries(habitID)
	s := models.HabitStats{
		HabitID:              habitID,
		CurrentStreak:        CurrentStreak(entries, today),
		LongestStreak:        LongestStreak(entries),
		CompletionRate30Days: CompletionRate(entries, today, constants.DefaultRateWindow),
		CompletionRate7Days:  CompletionRate(entries, today, constants.ShortRateWindow),
		TotalCompletions:     TotalCompletions(entries),
		AveragePerWeek:       AveragePerWeek(entries, today, constants.DefaultAverageWeeks),
	}
	e.cache.Set(key, s)
	return s
}

// Invalidate drops every memoized bundle.
func (e *Engine) Invalidate() {
	e.cache.Clear()
}

func (e *Engine) Close() {
	e.cache.Close()
}

// DayCount is the number of habits completed on one day.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DailyCompletions returns, oldest first, how many of habitIDs were
// completed on each of the trailing days ending today.
func (e *Engine) DailyCompletions(habitIDs []string, today time.Time, days int) []DayCount {
	if days <= 0 {
		return nil
	}
	entries := make([]map[string]bool, len(habitIDs))
	for i, id := range habitIDs {
		entries[i] = e.source.GetEntries(id)
	}

	out := make([]DayCount, 0, days)
	start := utils.AddDays(utils.StartOfDay(today), -(days - 1))
	for i := 0; i < days; i++ {
		key := utils.DayKey(utils.AddDays(start, i))
		n := 0
		for _, m := range entries {
			if m[key] {
				n++
			}
		}
		out = append(out, DayCount{Date: key, Count: n})
	}
	return out
}

// HabitStreak pairs a habit with its current streak.
type HabitStreak struct {
	HabitID string `json:"habitId"`
	Streak  int    `json:"streak"`
}

// Overview summarises all habits.
type Overview struct {
	TotalHabits       int           `json:"totalHabits"`
	TotalCompletions  int           `json:"totalCompletions"`
	AverageCompletion float64       `json:"averageCompletion"` // mean 7-day rate, percent
	Streaks           []HabitStreak `json:"streaks"`           // by current streak, longest first
}

func (e *Engine) Overview(habitIDs []string, today time.Time) Overview {
	ov := Overview{TotalHabits: len(habitIDs), Streaks: make([]HabitStreak, 0, len(habitIDs))}
	rateSum := 0
	for _, id := range habitIDs {
		s := e.Stats(id, today)
		ov.TotalCompletions += s.TotalCompletions
		rateSum += s.CompletionRate7Days
		ov.Streaks = append(ov.Streaks, HabitStreak{HabitID: id, Streak: s.CurrentStreak})
	}
	if len(habitIDs) > 0 {
		ov.AverageCompletion = math.Round(float64(rateSum)/float64(len(habitIDs))*100) / 100
	}
	sort.SliceStable(ov.Streaks, func(i, j int) bool { return ov.Streaks[i].Streak > ov.Streaks[j].Streak })
	return ov
}
