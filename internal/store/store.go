// Package store owns the in-memory habits, completion entries, categories
// and settings. Every mutation updates memory first and then rewrites the
// affected collection through the persistence adapter without waiting for
// it; memory stays authoritative for the session even when a write fails.
package store

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/persistence"
)

type Store struct {
	mu sync.RWMutex

	adapter    persistence.Adapter
	invalidate func()
	now        func() time.Time

	habits     []models.Habit
	entries    map[string]map[string]bool // habitID -> day -> completed
	categories []models.Category
	settings   models.Settings
	ready      bool
}

type Option func(*Store)

// WithCacheInvalidator registers fn to run after any entry mutation.
func WithCacheInvalidator(fn func()) Option {
	return func(s *Store) {
		s.invalidate = fn
	}
}

// WithClock overrides time.Now for creation timestamps and exports.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(adapter persistence.Adapter, opts ...Option) *Store {
	s := &Store{
		adapter:    adapter,
		invalidate: func() {},
		now:        time.Now,
		entries:    make(map[string]map[string]bool),
		settings:   models.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetCacheInvalidator replaces the invalidation hook after construction.
func (s *Store) SetCacheInvalidator(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		fn = func() {}
	}
	s.invalidate = fn
}

// Init hydrates the four collections and seeds the default categories when
// none were stored. It is the only call that waits on the adapter.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var habits []models.Habit
	if s.load(ctx, constants.StorageKeyHabits, &habits) {
		s.habits = habits
	}

	var entries []models.CompletionEntry
	if s.load(ctx, constants.StorageKeyEntries, &entries) {
		s.entries = indexEntries(entries)
	}

	var categories []models.Category
	if s.load(ctx, constants.StorageKeyCategories, &categories) {
		s.categories = categories
	}

	settings := models.DefaultSettings()
	if s.load(ctx, constants.StorageKeySettings, &settings) {
		models.ApplyDefaultSettings(&settings)
		s.settings = settings
	}

	if len(s.categories) == 0 {
		s.categories = models.DefaultCategories()
		s.persistCategories()
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	s.ready = true
	logger.Debug("store ready", "habits", len(s.habits), "categories", len(s.categories))
	return nil
}

// load reads key into dst. It reports whether dst was filled; read and
// parse failures are logged and leave the defaults.
func (s *Store) load(ctx context.Context, key string, dst any) bool {
	raw, found, err := s.adapter.Get(key).Wait(ctx)
	if err != nil {
		logger.Warn("failed to load persisted collection", "key", key, "error", err)
		return false
	}
	if !found || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		logger.Warn("failed to parse persisted collection", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Close flushes pending writes and closes the adapter.
func (s *Store) Close() error {
	return s.adapter.Close()
}

// AddHabit assigns an id and order = current habit count.
func (s *Store) AddHabit(in models.NewHabit) models.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := models.Habit{
		ID:              newID(),
		Name:            in.Name,
		Color:           in.Color,
		Icon:            copyString(in.Icon),
		CreatedAt:       in.CreatedAt,
		Category:        copyString(in.Category),
		Frequency:       in.Frequency,
		CustomFrequency: in.CustomFrequency.Clone(),
		Tags:            slices.Clone(in.Tags),
		Order:           len(s.habits),
		ReminderTime:    copyString(in.ReminderTime),
	}
	if in.Goal != nil {
		h.Goal = models.IntPtr(*in.Goal)
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = s.now()
	}
	if h.Frequency == "" {
		h.Frequency = models.FrequencyDaily
	}

	s.habits = append(s.habits, h)
	s.persistHabits()
	return h.Clone()
}

// UpdateHabit merges patch into the habit. Unknown ids are a no-op and
// return false.
func (s *Store) UpdateHabit(id string, patch models.HabitPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.habitIndex(id)
	if i < 0 {
		return false
	}
	patch.Apply(&s.habits[i])
	s.persistHabits()
	return true
}

// DeleteHabit removes the habit and all of its entries.
func (s *Store) DeleteHabit(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.habitIndex(id)
	if i < 0 {
		return false
	}
	s.habits = append(s.habits[:i], s.habits[i+1:]...)
	s.persistHabits()

	if _, ok := s.entries[id]; ok {
		delete(s.entries, id)
		s.persistEntries()
		s.invalidate()
	}
	return true
}

// ReorderHabits sets each listed habit's order to its index in ids.
// Habits not listed keep their previous order, which may collide.
func (s *Store) ReorderHabits(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	changed := false
	for i := range s.habits {
		if p, ok := pos[s.habits[i].ID]; ok {
			s.habits[i].Order = p
			changed = true
		}
	}
	if changed {
		s.persistHabits()
	}
}

// ToggleEntry flips the completion for (habitID, day), creating a completed
// entry when none exists, and returns the new state.
func (s *Store) ToggleEntry(habitID, day string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	days, ok := s.entries[habitID]
	if !ok {
		days = make(map[string]bool)
		s.entries[habitID] = days
	}
	state, exists := days[day]
	if exists {
		state = !state
	} else {
		state = true
	}
	days[day] = state

	s.persistEntries()
	s.invalidate()
	return state
}

// GetHabits returns copies of all habits sorted ascending by order. Ties
// keep insertion order.
func (s *Store) GetHabits() []models.Habit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedHabits()
}

func (s *Store) GetHabit(id string) (models.Habit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.habitIndex(id)
	if i < 0 {
		return models.Habit{}, false
	}
	return s.habits[i].Clone(), true
}

// GetEntries returns day -> completed for one habit.
func (s *Store) GetEntries(habitID string) map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]bool, len(s.entries[habitID]))
	for day, done := range s.entries[habitID] {
		out[day] = done
	}
	return out
}

// AllEntries returns every entry sorted by habit id then day.
func (s *Store) AllEntries() []models.CompletionEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return flattenEntries(s.entries)
}

func (s *Store) GetCategories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Category, len(s.categories))
	for i, c := range s.categories {
		out[i] = c.Clone()
	}
	return out
}

func (s *Store) AddCategory(in models.NewCategory) models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := models.Category{
		ID:    newID(),
		Name:  in.Name,
		Color: in.Color,
		Icon:  copyString(in.Icon),
	}
	s.categories = append(s.categories, c)
	s.persistCategories()
	return c.Clone()
}

func (s *Store) UpdateCategory(id string, patch models.CategoryPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.categories {
		if s.categories[i].ID == id {
			patch.Apply(&s.categories[i])
			s.persistCategories()
			return true
		}
	}
	return false
}

// DeleteCategory removes the category and clears it from any habit that
// referenced it.
func (s *Store) DeleteCategory(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.categories {
		if s.categories[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	s.categories = append(s.categories[:idx], s.categories[idx+1:]...)
	s.persistCategories()

	cleared := false
	for i := range s.habits {
		if c := s.habits[i].Category; c != nil && *c == id {
			s.habits[i].Category = nil
			cleared = true
		}
	}
	if cleared {
		s.persistHabits()
	}
	return true
}

func (s *Store) GetSettings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *Store) UpdateSettings(patch models.SettingsPatch) models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	patch.Apply(&s.settings)
	models.ApplyDefaultSettings(&s.settings)
	s.persistSettings()
	return s.settings
}

// ClearAll drops every habit, entry and custom category, restores default
// settings and reseeds the default categories.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.habits = nil
	s.entries = make(map[string]map[string]bool)
	s.settings = models.DefaultSettings()
	s.categories = models.DefaultCategories()

	for _, key := range []string{constants.StorageKeyHabits, constants.StorageKeyEntries, constants.StorageKeySettings} {
		s.remove(key)
	}
	s.persistCategories()
	s.invalidate()
}

func (s *Store) habitIndex(id string) int {
	for i := range s.habits {
		if s.habits[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) sortedHabits() []models.Habit {
	out := make([]models.Habit, len(s.habits))
	for i, h := range s.habits {
		out[i] = h.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func (s *Store) persistHabits() {
	habits := s.habits
	if habits == nil {
		habits = []models.Habit{}
	}
	s.persist(constants.StorageKeyHabits, habits)
}

func (s *Store) persistEntries() {
	s.persist(constants.StorageKeyEntries, flattenEntries(s.entries))
}

func (s *Store) persistCategories() {
	s.persist(constants.StorageKeyCategories, s.categories)
}

func (s *Store) persistSettings() {
	s.persist(constants.StorageKeySettings, s.settings)
}

// persist serialises v and hands it to the adapter without waiting. It is
// called with s.mu held so writes reach the adapter in mutation order.
func (s *Store) persist(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to encode collection", "key", key, "error", err)
		return
	}
	s.adapter.Set(key, string(data)).Then(func(_ string, _ bool, err error) {
		if err != nil {
			logger.Warn("persist failed", "key", key, "error", err)
		}
	})
}

func (s *Store) remove(key string) {
	s.adapter.Remove(key).Then(func(_ string, _ bool, err error) {
		if err != nil {
			logger.Warn("remove failed", "key", key, "error", err)
		}
	})
}

func indexEntries(entries []models.CompletionEntry) map[string]map[string]bool {
	out := make(map[string]map[string]bool)
	for _, e := range entries {
		days, ok := out[e.HabitID]
		if !ok {
			days = make(map[string]bool)
			out[e.HabitID] = days
		}
		days[e.Date] = e.Completed
	}
	return out
}

func flattenEntries(idx map[string]map[string]bool) []models.CompletionEntry {
	out := make([]models.CompletionEntry, 0)
	for habitID, days := range idx {
		for day, done := range days {
			out = append(out, models.CompletionEntry{HabitID: habitID, Date: day, Completed: done})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].HabitID != out[j].HabitID {
			return out[i].HabitID < out[j].HabitID
		}
		return out[i].Date < out[j].Date
	})
	return out
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
