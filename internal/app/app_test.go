package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitual/internal/backup"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/persistence"
	"github.com/julianstephens/habitual/internal/persistence/memory"
	"github.com/julianstephens/habitual/internal/reminder"
	"github.com/julianstephens/habitual/internal/stats"
	"github.com/julianstephens/habitual/internal/store"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

// parkedClock never fires timers; tests inspect what is armed.
type parkedClock struct{}

type parkedTimer struct{}

func (parkedClock) Now() time.Time { return fixedNow }

func (parkedClock) AfterFunc(time.Duration, func()) reminder.Timer { return parkedTimer{} }

func (parkedTimer) Stop() bool { return true }

type auth struct{ ok bool }

func (a *auth) Authorized(context.Context) bool { return a.ok }

type nopDeliverer struct{}

func (nopDeliverer) Deliver(context.Context, reminder.Notification) error { return nil }

type fixture struct {
	engine  *Engine
	store   *store.Store
	auth    *auth
	backups *backup.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	s := store.New(persistence.NewSync(memory.New()), store.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, s.Init(ctx))

	a := &auth{ok: true}
	sched := reminder.NewScheduler(reminder.NewTimerBackend(nopDeliverer{}, parkedClock{}), a, nopDeliverer{})
	st := stats.NewEngine(s)
	m := backup.NewManager(t.TempDir())

	e := New(s, st, sched, WithBackups(m), WithClock(func() time.Time { return fixedNow }))
	t.Cleanup(func() { _ = e.Close() })
	return &fixture{engine: e, store: s, auth: a, backups: m}
}

func handles(e *Engine) []reminder.Handle {
	var out []reminder.Handle
	for _, s := range e.Scheduled() {
		out = append(out, s.Handle)
	}
	return out
}

func TestAddHabitSchedulesReminder(t *testing.T) {
	f := newFixture(t)

	h, err := f.engine.AddHabit(context.Background(), models.NewHabit{
		Name:         "Read",
		ReminderTime: models.StringPtr("9:05"),
	})
	require.NoError(t, err)

	assert.Equal(t, "#40c463", h.Color)
	require.NotNil(t, h.ReminderTime)
	assert.Equal(t, "09:05", *h.ReminderTime)
	require.NotNil(t, h.NotificationID)
	assert.Equal(t, "daily-"+h.ID, *h.NotificationID)
	assert.Equal(t, []reminder.Handle{reminder.DailyHandle(h.ID)}, handles(f.engine))
}

func TestAddWeeklyHabitRecordsEveryHandle(t *testing.T) {
	f := newFixture(t)

	h, err := f.engine.AddHabit(context.Background(), models.NewHabit{
		Name:            "Swim",
		Frequency:       models.FrequencyWeekly,
		CustomFrequency: &models.CustomFrequency{SpecificDays: []int{1, 3}},
		ReminderTime:    models.StringPtr("07:00"),
	})
	require.NoError(t, err)

	require.NotNil(t, h.NotificationID)
	assert.Equal(t, "weekly-"+h.ID+"-1,weekly-"+h.ID+"-3", *h.NotificationID)
	assert.Len(t, f.engine.Scheduled(), 2)
}

func TestAddHabitWithoutScheduling(t *testing.T) {
	t.Run("notifications disabled", func(t *testing.T) {
		f := newFixture(t)
		f.engine.SetNotifications(context.Background(), false)

		h, err := f.engine.AddHabit(context.Background(), models.NewHabit{Name: "Read", ReminderTime: models.StringPtr("09:00")})
		require.NoError(t, err)
		assert.Nil(t, h.NotificationID)
		assert.Empty(t, f.engine.Scheduled())
	})

	t.Run("not authorized", func(t *testing.T) {
		f := newFixture(t)
		f.auth.ok = false

		h, err := f.engine.AddHabit(context.Background(), models.NewHabit{Name: "Read", ReminderTime: models.StringPtr("09:00")})
		require.NoError(t, err)
		assert.Nil(t, h.NotificationID)
		assert.Len(t, f.engine.Habits(), 1)
	})
}

func TestAddHabitValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		in   models.NewHabit
	}{
		{"empty name", models.NewHabit{Name: "  "}},
		{"bad color", models.NewHabit{Name: "Read", Color: "red"}},
		{"bad reminder", models.NewHabit{Name: "Read", ReminderTime: models.StringPtr("25:00")}},
		{"bad frequency", models.NewHabit{Name: "Read", Frequency: "hourly"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.AddHabit(context.Background(), tt.in)
			assert.Error(t, err)
		})
	}
	assert.Empty(t, f.engine.Habits())
}

func TestUpdateHabitReschedules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h, err := f.engine.AddHabit(ctx, models.NewHabit{Name: "Read", ReminderTime: models.StringPtr("09:00")})
	require.NoError(t, err)

	weekly := models.FrequencyWeekly
	h, err = f.engine.UpdateHabit(ctx, h.ID, models.HabitPatch{Frequency: &weekly})
	require.NoError(t, err)
	assert.Equal(t, "weekly-"+h.ID+"-1", *h.NotificationID)
	assert.Equal(t, []reminder.Handle{reminder.WeeklyHandle(h.ID, time.Monday)}, handles(f.engine))

	h, err = f.engine.UpdateHabit(ctx, h.ID, models.HabitPatch{ClearReminder: true})
	require.NoError(t, err)
	assert.Nil(t, h.NotificationID)
	assert.Empty(t, f.engine.Scheduled())
}

func TestUpdateHabitErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.UpdateHabit(ctx, "missing", models.HabitPatch{Name: models.StringPtr("x")})
	assert.ErrorIs(t, err, ErrHabitNotFound)

	h, err := f.engine.AddHabit(ctx, models.NewHabit{Name: "Read"})
	require.NoError(t, err)
	_, err = f.engine.UpdateHabit(ctx, h.ID, models.HabitPatch{Color: models.StringPtr("blue")})
	assert.Error(t, err)
	_, err = f.engine.UpdateHabit(ctx, h.ID, models.HabitPatch{Name: models.StringPtr("")})
	assert.Error(t, err)

	got, _ := f.engine.Habit(h.ID)
	assert.Equal(t, "Read", got.Name)
}

func TestDeleteHabitCancelsReminders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h, err := f.engine.AddHabit(ctx, models.NewHabit{Name: "Read", ReminderTime: models.StringPtr("09:00")})
	require.NoError(t, err)
	_, err = f.engine.ToggleEntry(h.ID, "2024-03-15")
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteHabit(h.ID))
	assert.Empty(t, f.engine.Scheduled())
	assert.Empty(t, f.engine.Entries(h.ID))
	assert.ErrorIs(t, f.engine.DeleteHabit(h.ID), ErrHabitNotFound)
}

func TestSetNotificationsTogglesReminders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _ := f.engine.AddHabit(ctx, models.NewHabit{Name: "Read", ReminderTime: models.StringPtr("09:00")})
	b, _ := f.engine.AddHabit(ctx, models.NewHabit{Name: "Walk"})

	assert.True(t, f.engine.SetNotifications(ctx, false))
	assert.False(t, f.engine.Settings().Notifications)
	assert.Empty(t, f.engine.Scheduled())
	got, _ := f.engine.Habit(a.ID)
	assert.Nil(t, got.NotificationID)

	assert.True(t, f.engine.SetNotifications(ctx, true))
	assert.Equal(t, []reminder.Handle{reminder.DailyHandle(a.ID)}, handles(f.engine))
	got, _ = f.engine.Habit(a.ID)
	assert.Equal(t, "daily-"+a.ID, *got.NotificationID)
	got, _ = f.engine.Habit(b.ID)
	assert.Nil(t, got.NotificationID)
}

func TestUpdateSettingsNotificationChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.AddHabit(ctx, models.NewHabit{Name: "Read", ReminderTime: models.StringPtr("09:00")})
	require.NoError(t, err)

	off := false
	view := "list"
	s := f.engine.UpdateSettings(ctx, models.SettingsPatch{Notifications: &off, DefaultView: &view})
	assert.False(t, s.Notifications)
	assert.Equal(t, "list", s.DefaultView)
	assert.Empty(t, f.engine.Scheduled())
}

func TestRescheduleAllDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h, _ := f.engine.AddHabit(ctx, models.NewHabit{Name: "Read", ReminderTime: models.StringPtr("09:00")})

	f.auth.ok = false
	assert.False(t, f.engine.RescheduleAll(ctx))
	assert.Empty(t, f.engine.Scheduled())
	got, _ := f.engine.Habit(h.ID)
	assert.Nil(t, got.NotificationID)
}

func TestToggleEntryAndStats(t *testing.T) {
	f := newFixture(t)
	h, err := f.engine.AddHabit(context.Background(), models.NewHabit{Name: "Read"})
	require.NoError(t, err)

	s, err := f.engine.Stats(h.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, s.CurrentStreak)

	for _, day := range []string{"2024-03-13", "2024-03-14", "2024-03-15"} {
		done, err := f.engine.ToggleEntry(h.ID, day)
		require.NoError(t, err)
		assert.True(t, done)
	}

	s, err = f.engine.Stats(h.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, s.CurrentStreak)
	assert.Equal(t, 3, s.TotalCompletions)

	done, err := f.engine.ToggleEntry(h.ID, "2024-03-15")
	require.NoError(t, err)
	assert.False(t, done)
	s, _ = f.engine.Stats(h.ID)
	assert.Equal(t, 0, s.CurrentStreak)
	assert.Equal(t, 2, s.LongestStreak)
	assert.False(t, f.engine.TodayStatus()[h.ID])
}

func TestToggleEntryErrors(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.ToggleEntry("missing", "2024-03-15")
	assert.ErrorIs(t, err, ErrHabitNotFound)

	h, _ := f.engine.AddHabit(context.Background(), models.NewHabit{Name: "Read"})
	_, err = f.engine.ToggleEntry(h.ID, "15/03/2024")
	assert.Error(t, err)
	assert.Empty(t, f.engine.Entries(h.ID))

	_, err = f.engine.Stats("missing")
	assert.ErrorIs(t, err, ErrHabitNotFound)
}

func TestOverviewAndTrend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _ := f.engine.AddHabit(ctx, models.NewHabit{Name: "Read"})
	b, _ := f.engine.AddHabit(ctx, models.NewHabit{Name: "Walk"})
	for _, day := range []string{"2024-03-14", "2024-03-15"} {
		_, err := f.engine.ToggleEntry(a.ID, day)
		require.NoError(t, err)
	}
	_, err := f.engine.ToggleEntry(b.ID, "2024-03-15")
	require.NoError(t, err)

	ov := f.engine.Overview()
	assert.Equal(t, 2, ov.TotalHabits)
	assert.Equal(t, 3, ov.TotalCompletions)
	require.Len(t, ov.Streaks, 2)
	assert.Equal(t, a.ID, ov.Streaks[0].HabitID)

	trend := f.engine.Trend(0)
	require.Len(t, trend, 14)
	assert.Equal(t, stats.DayCount{Date: "2024-03-15", Count: 2}, trend[13])
	assert.Equal(t, stats.DayCount{Date: "2024-03-14", Count: 1}, trend[12])
	assert.Equal(t, "2024-03-02", trend[0].Date)
}

func TestFindHabit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h, _ := f.engine.AddHabit(ctx, models.NewHabit{Name: "Read"})

	got, err := f.engine.FindHabit(h.ID)
	require.NoError(t, err)
	assert.Equal(t, h.ID, got.ID)

	got, err = f.engine.FindHabit("read")
	require.NoError(t, err)
	assert.Equal(t, h.ID, got.ID)

	_, err = f.engine.FindHabit("nothing")
	assert.ErrorIs(t, err, ErrHabitNotFound)
}

func TestCategories(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.AddCategory(models.NewCategory{Name: "Music", Color: "nope"})
	assert.Error(t, err)

	c, err := f.engine.AddCategory(models.NewCategory{Name: "Music", Color: "#123456"})
	require.NoError(t, err)
	assert.Len(t, f.engine.Categories(), 7)

	require.NoError(t, f.engine.UpdateCategory(c.ID, models.CategoryPatch{Name: models.StringPtr("Band")}))
	assert.ErrorIs(t, f.engine.UpdateCategory("missing", models.CategoryPatch{}), ErrCategoryNotFound)

	require.NoError(t, f.engine.DeleteCategory(c.ID))
	assert.ErrorIs(t, f.engine.DeleteCategory(c.ID), ErrCategoryNotFound)
}

func TestImportBacksUpAndReschedules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.AddHabit(ctx, models.NewHabit{Name: "Old"})
	require.NoError(t, err)

	doc := map[string]any{
		"habits": []map[string]any{{
			"id": "h1", "name": "Imported", "color": "#111111", "frequency": "daily",
			"createdAt": "2024-01-01T00:00:00Z", "order": 0, "reminderTime": "08:30",
			"notificationId": "stale",
		}},
		"entries": []map[string]any{{"habitId": "h1", "date": "2024-03-15", "completed": true}},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	require.NoError(t, f.engine.Import(ctx, data))

	habits := f.engine.Habits()
	require.Len(t, habits, 1)
	assert.Equal(t, "Imported", habits[0].Name)
	assert.Equal(t, "daily-h1", *habits[0].NotificationID)
	assert.Equal(t, []reminder.Handle{"daily-h1"}, handles(f.engine))
	assert.True(t, f.engine.TodayStatus()["h1"])

	list, err := f.engine.Backups()
	require.NoError(t, err)
	require.Len(t, list, 1)
	saved, err := f.backups.Read(list[0].Path)
	require.NoError(t, err)
	assert.Contains(t, string(saved), `"Old"`)
}

func TestImportRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.engine.AddHabit(ctx, models.NewHabit{Name: "Keep"})

	err := f.engine.Import(ctx, []byte(`{"habits": "nope"}`))
	assert.ErrorIs(t, err, store.ErrInvalidSnapshot)
	require.Len(t, f.engine.Habits(), 1)
	assert.Equal(t, "Keep", f.engine.Habits()[0].Name)
}

func TestBackupAndRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.engine.AddHabit(ctx, models.NewHabit{Name: "First"})

	path, err := f.engine.Backup()
	require.NoError(t, err)

	_, _ = f.engine.AddHabit(ctx, models.NewHabit{Name: "Second"})
	require.Len(t, f.engine.Habits(), 2)

	pre, err := f.engine.Restore(ctx, filepath.Base(path))
	require.NoError(t, err)
	require.Len(t, f.engine.Habits(), 1)
	assert.Equal(t, "First", f.engine.Habits()[0].Name)

	raw, err := os.ReadFile(pre)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"Second"`)

	_, err = f.engine.Restore(ctx, "does-not-exist.json")
	assert.Error(t, err)
}

func TestBackupsNotConfigured(t *testing.T) {
	s := store.New(persistence.NewSync(memory.New()))
	require.NoError(t, s.Init(context.Background()))
	sched := reminder.NewScheduler(reminder.NewTimerBackend(nopDeliverer{}, parkedClock{}), &auth{ok: true}, nopDeliverer{})
	e := New(s, stats.NewEngine(s), sched)
	defer e.Close()

	_, err := e.Backup()
	assert.ErrorIs(t, err, ErrNoBackups)
	_, err = e.Backups()
	assert.ErrorIs(t, err, ErrNoBackups)
	_, err = e.Restore(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoBackups)
	require.NoError(t, e.Import(context.Background(), []byte(`{"habits": []}`)))
}

func TestClearAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.engine.AddHabit(ctx, models.NewHabit{Name: "Read", ReminderTime: models.StringPtr("09:00")})

	f.engine.ClearAll()
	assert.Empty(t, f.engine.Habits())
	assert.Empty(t, f.engine.Scheduled())
	assert.Equal(t, models.DefaultCategories(), f.engine.Categories())
}

func TestFindHabitByShortID(t *testing.T) {
	f := newFixture(t)
	h, _ := f.engine.AddHabit(context.Background(), models.NewHabit{Name: "Read"})

	short := ShortID(h.ID)
	assert.Len(t, short, 8)
	got, err := f.engine.FindHabit(short)
	require.NoError(t, err)
	assert.Equal(t, h.ID, got.ID)

	_, err = f.engine.FindHabit("  ")
	assert.ErrorIs(t, err, ErrHabitNotFound)
}
