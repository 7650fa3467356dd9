// Package app ties the entity store, the statistics engine and the reminder
// scheduler together so that every habit mutation keeps reminders in step.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/backup"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/reminder"
	"github.com/julianstephens/habitual/internal/stats"
	"github.com/julianstephens/habitual/internal/store"
	"github.com/julianstephens/habitual/internal/utils"
)

var (
	ErrHabitNotFound    = errors.New("habit not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrNoBackups        = errors.New("backups are not configured")
)

type Engine struct {
	store     *store.Store
	stats     *stats.Engine
	reminders *reminder.Scheduler
	backups   *backup.Manager
	now       func() time.Time
}

type Option func(*Engine)

// WithBackups enables automatic backups before import and restore.
func WithBackups(m *backup.Manager) Option {
	return func(e *Engine) {
		e.backups = m
	}
}

// WithClock sets the source of "today" for statistics.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New wires the store's entry invalidation to the statistics cache.
func New(s *store.Store, st *stats.Engine, r *reminder.Scheduler, opts ...Option) *Engine {
	e := &Engine{
		store:     s,
		stats:     st,
		reminders: r,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	s.SetCacheInvalidator(st.Invalidate)
	return e
}

// Today is the current instant according to the engine clock.
func (e *Engine) Today() time.Time {
	return e.now()
}

func (e *Engine) Habits() []models.Habit {
	return e.store.GetHabits()
}

func (e *Engine) Habit(id string) (models.Habit, error) {
	h, ok := e.store.GetHabit(id)
	if !ok {
		return models.Habit{}, fmt.Errorf("%w: %s", ErrHabitNotFound, id)
	}
	return h, nil
}

// FindHabit resolves a full id, a unique id prefix, a short id (see ShortID)
// or an exact name (case-insensitive).
func (e *Engine) FindHabit(ref string) (models.Habit, error) {
	ref = strings.TrimSpace(ref)
	if h, ok := e.store.GetHabit(ref); ok {
		return h, nil
	}
	if ref == "" {
		return models.Habit{}, fmt.Errorf("%w: empty reference", ErrHabitNotFound)
	}
	var matches []models.Habit
	for _, h := range e.store.GetHabits() {
		if strings.HasPrefix(h.ID, ref) || strings.HasSuffix(h.ID, ref) || strings.EqualFold(h.Name, ref) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return models.Habit{}, fmt.Errorf("%w: %s", ErrHabitNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return models.Habit{}, fmt.Errorf("%q matches %d habits, use a longer id", ref, len(matches))
	}
}

// AddHabit validates and stores the habit, scheduling its reminder when one
// is set and notifications are enabled.
func (e *Engine) AddHabit(ctx context.Context, in models.NewHabit) (models.Habit, error) {
	if err := models.ValidateHabit(in); err != nil {
		return models.Habit{}, err
	}
	if in.Color == "" {
		in.Color = constants.DefaultHabitColor
	}
	if in.ReminderTime != nil {
		t, _ := models.ParseReminderTime(*in.ReminderTime)
		in.ReminderTime = models.StringPtr(t.String())
	}

	h := e.store.AddHabit(in)
	if h.HasReminder() && e.store.GetSettings().Notifications {
		e.scheduleHabit(ctx, h)
		h, _ = e.store.GetHabit(h.ID)
	}
	return h, nil
}

// UpdateHabit applies patch and reschedules the habit's reminders.
func (e *Engine) UpdateHabit(ctx context.Context, id string, patch models.HabitPatch) (models.Habit, error) {
	if err := validatePatch(patch); err != nil {
		return models.Habit{}, err
	}
	if patch.ReminderTime != nil {
		t, _ := models.ParseReminderTime(*patch.ReminderTime)
		patch.ReminderTime = models.StringPtr(t.String())
	}
	if !e.store.UpdateHabit(id, patch) {
		return models.Habit{}, fmt.Errorf("%w: %s", ErrHabitNotFound, id)
	}

	h, _ := e.store.GetHabit(id)
	if e.store.GetSettings().Notifications {
		e.scheduleHabit(ctx, h)
	} else {
		e.reminders.CancelHabit(id)
		e.recordHandles(h, nil)
	}
	h, _ = e.store.GetHabit(id)
	return h, nil
}

func validatePatch(p models.HabitPatch) error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("habit name cannot be empty")
	}
	if p.Color != nil {
		if err := models.ValidateColor(*p.Color); err != nil {
			return err
		}
	}
	if p.ReminderTime != nil {
		if _, err := models.ParseReminderTime(*p.ReminderTime); err != nil {
			return err
		}
	}
	probe := models.NewHabit{Name: "probe", CustomFrequency: p.CustomFrequency, Goal: p.Goal}
	if p.Frequency != nil {
		probe.Frequency = *p.Frequency
	}
	return models.ValidateHabit(probe)
}

// DeleteHabit cancels the habit's reminders, then removes it and its
// entries.
func (e *Engine) DeleteHabit(id string) error {
	e.reminders.CancelHabit(id)
	if !e.store.DeleteHabit(id) {
		return fmt.Errorf("%w: %s", ErrHabitNotFound, id)
	}
	return nil
}

func (e *Engine) ReorderHabits(ids []string) {
	e.store.ReorderHabits(ids)
}

// ToggleEntry flips completion for the habit on day and returns the new
// state.
func (e *Engine) ToggleEntry(habitID, day string) (bool, error) {
	if _, ok := e.store.GetHabit(habitID); !ok {
		return false, fmt.Errorf("%w: %s", ErrHabitNotFound, habitID)
	}
	if err := models.ValidateDay(day); err != nil {
		return false, err
	}
	return e.store.ToggleEntry(habitID, day), nil
}

// Entries returns the habit's recorded days, completed or not.
func (e *Engine) Entries(habitID string) map[string]bool {
	return e.store.GetEntries(habitID)
}

func (e *Engine) Stats(habitID string) (models.HabitStats, error) {
	if _, ok := e.store.GetHabit(habitID); !ok {
		return models.HabitStats{}, fmt.Errorf("%w: %s", ErrHabitNotFound, habitID)
	}
	return e.stats.Stats(habitID, e.now()), nil
}

func (e *Engine) Overview() stats.Overview {
	return e.stats.Overview(e.habitIDs(), e.now())
}

// Trend counts completions across all habits for each of the trailing
// days, oldest first.
func (e *Engine) Trend(days int) []stats.DayCount {
	if days <= 0 {
		days = constants.DefaultTrendDays
	}
	return e.stats.DailyCompletions(e.habitIDs(), e.now(), days)
}

// TodayStatus reports, for each habit in order, whether it is completed
// today.
func (e *Engine) TodayStatus() map[string]bool {
	today := utils.DayKey(e.now())
	out := make(map[string]bool)
	for _, h := range e.store.GetHabits() {
		out[h.ID] = e.store.GetEntries(h.ID)[today]
	}
	return out
}

// ShortID is the random tail of a habit id. Ids are time-ordered UUIDs, so
// their leading characters are shared by habits created close together.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}

func (e *Engine) habitIDs() []string {
	habits := e.store.GetHabits()
	ids := make([]string, len(habits))
	for i, h := range habits {
		ids[i] = h.ID
	}
	return ids
}

func (e *Engine) Categories() []models.Category {
	return e.store.GetCategories()
}

func (e *Engine) AddCategory(in models.NewCategory) (models.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return models.Category{}, fmt.Errorf("category name cannot be empty")
	}
	if err := models.ValidateColor(in.Color); err != nil {
		return models.Category{}, err
	}
	return e.store.AddCategory(in), nil
}

func (e *Engine) UpdateCategory(id string, patch models.CategoryPatch) error {
	if patch.Color != nil {
		if err := models.ValidateColor(*patch.Color); err != nil {
			return err
		}
	}
	if !e.store.UpdateCategory(id, patch) {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}
	return nil
}

func (e *Engine) DeleteCategory(id string) error {
	if !e.store.DeleteCategory(id) {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}
	return nil
}

func (e *Engine) Settings() models.Settings {
	return e.store.GetSettings()
}

// UpdateSettings applies patch; a change to the notifications flag cancels
// or reschedules every reminder.
func (e *Engine) UpdateSettings(ctx context.Context, patch models.SettingsPatch) models.Settings {
	before := e.store.GetSettings()
	after := e.store.UpdateSettings(patch)
	if before.Notifications != after.Notifications {
		e.applyNotifications(ctx, after.Notifications)
	}
	return after
}

// SetNotifications enables or disables reminders. It reports false when
// enabling could not schedule every reminder.
func (e *Engine) SetNotifications(ctx context.Context, enabled bool) bool {
	e.store.UpdateSettings(models.SettingsPatch{Notifications: &enabled})
	return e.applyNotifications(ctx, enabled)
}

func (e *Engine) applyNotifications(ctx context.Context, enabled bool) bool {
	if !enabled {
		e.reminders.CancelAll()
		for _, h := range e.store.GetHabits() {
			e.recordHandles(h, nil)
		}
		return true
	}
	return e.RescheduleAll(ctx)
}

// RescheduleAll rebuilds every reminder from the habit set and records the
// new handles. With notifications disabled it only cancels.
func (e *Engine) RescheduleAll(ctx context.Context) bool {
	habits := e.store.GetHabits()
	if !e.store.GetSettings().Notifications {
		e.reminders.CancelAll()
		for _, h := range habits {
			e.recordHandles(h, nil)
		}
		return false
	}

	handles, ok := e.reminders.RescheduleAll(ctx, habits)
	for _, h := range habits {
		e.recordHandles(h, handles[h.ID])
	}
	if !ok {
		logger.Warn("not every reminder could be scheduled")
	}
	return ok
}

func (e *Engine) scheduleHabit(ctx context.Context, h models.Habit) {
	handles, ok := e.reminders.ScheduleHabit(ctx, h)
	if !ok {
		logger.Warn("reminder not scheduled", "habit", h.ID)
	}
	e.recordHandles(h, handles)
}

// recordHandles stores the comma-joined handles on the habit, skipping the
// write when nothing changed.
func (e *Engine) recordHandles(h models.Habit, handles []reminder.Handle) {
	if len(handles) == 0 {
		if h.NotificationID != nil {
			e.store.UpdateHabit(h.ID, models.HabitPatch{ClearNotificationID: true})
		}
		return
	}
	parts := make([]string, len(handles))
	for i, handle := range handles {
		parts[i] = string(handle)
	}
	joined := strings.Join(parts, ",")
	if h.NotificationID != nil && *h.NotificationID == joined {
		return
	}
	e.store.UpdateHabit(h.ID, models.HabitPatch{NotificationID: &joined})
}

// Scheduled lists armed reminders, soonest first.
func (e *Engine) Scheduled() []reminder.Scheduled {
	return e.reminders.Scheduled()
}

func (e *Engine) SendTest(ctx context.Context) bool {
	return e.reminders.SendTest(ctx)
}

func (e *Engine) SendTestAfter(ctx context.Context, d time.Duration) bool {
	return e.reminders.SendTestAfter(ctx, d)
}

func (e *Engine) Export() ([]byte, error) {
	return e.store.ExportSnapshot()
}

// Import replaces state from an exported snapshot. When backups are
// configured the current state is saved first; a failed backup aborts the
// import.
func (e *Engine) Import(ctx context.Context, data []byte) error {
	if e.backups != nil {
		current, err := e.store.ExportSnapshot()
		if err != nil {
			return fmt.Errorf("exporting current state: %w", err)
		}
		path, err := e.backups.Create(current)
		if err != nil {
			return fmt.Errorf("backing up before import: %w", err)
		}
		logger.Info("created backup before import", "path", path)
	}
	if err := e.store.ImportSnapshotErr(data); err != nil {
		return err
	}
	e.RescheduleAll(ctx)
	return nil
}

// Backup writes a snapshot of the current state to the backup directory.
func (e *Engine) Backup() (string, error) {
	if e.backups == nil {
		return "", ErrNoBackups
	}
	data, err := e.store.ExportSnapshot()
	if err != nil {
		return "", err
	}
	return e.backups.Create(data)
}

// BackupDir is where backups are written, or "" when backups are off.
func (e *Engine) BackupDir() string {
	if e.backups == nil {
		return ""
	}
	return e.backups.Dir()
}

func (e *Engine) Backups() ([]backup.Info, error) {
	if e.backups == nil {
		return nil, ErrNoBackups
	}
	return e.backups.List()
}

// Restore imports a backup by name or path. The current state is saved as
// a pre-restore backup that does not count towards rotation.
func (e *Engine) Restore(ctx context.Context, nameOrPath string) (string, error) {
	if e.backups == nil {
		return "", ErrNoBackups
	}
	path := e.backups.Resolve(nameOrPath)
	data, err := e.backups.Read(path)
	if err != nil {
		return "", err
	}

	current, err := e.store.ExportSnapshot()
	if err != nil {
		return "", fmt.Errorf("exporting current state: %w", err)
	}
	pre, err := e.backups.CreateUnrotated(current)
	if err != nil {
		return "", fmt.Errorf("backing up before restore: %w", err)
	}

	if err := e.store.ImportSnapshotErr(data); err != nil {
		return pre, err
	}
	e.RescheduleAll(ctx)
	return pre, nil
}

// ClearAll cancels every reminder and resets the store.
func (e *Engine) ClearAll() {
	e.reminders.CancelAll()
	e.store.ClearAll()
}

// Close stops reminders, releases the cache and flushes the store.
func (e *Engine) Close() error {
	err := e.reminders.Close()
	e.stats.Close()
	return errors.Join(err, e.store.Close())
}
