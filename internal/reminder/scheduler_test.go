package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

func habit(id string, freq models.Frequency, reminder string, days ...int) models.Habit {
	h := models.Habit{ID: id, Name: "habit " + id, Frequency: freq}
	if reminder != "" {
		h.ReminderTime = models.StringPtr(reminder)
	}
	if len(days) > 0 {
		h.CustomFrequency = &models.CustomFrequency{SpecificDays: days}
	}
	return h
}

func newTestScheduler(auth bool) (*Scheduler, *TimerBackend, *fakeClock, *recorder) {
	clock := newFakeClock(at("2024-03-13", 8, 0, time.UTC))
	rec := newRecorder(clock)
	b := NewTimerBackend(rec, clock)
	return NewScheduler(b, staticAuth(auth), rec), b, clock, rec
}

func TestSchedulerDeniedSchedulesNothing(t *testing.T) {
	s, b, clock, rec := newTestScheduler(false)
	defer s.Close()
	ctx := context.Background()

	h, ok := s.Schedule(ctx, habit("a", models.FrequencyDaily, "09:00"), nine)
	assert.False(t, ok)
	assert.Empty(t, h)

	_, ok = s.ScheduleWeekly(ctx, habit("a", models.FrequencyWeekly, "09:00"), nine, time.Friday)
	assert.False(t, ok)

	handles, ok := s.RescheduleAll(ctx, []models.Habit{habit("a", models.FrequencyDaily, "09:00")})
	assert.False(t, ok)
	assert.Empty(t, handles)

	assert.False(t, s.SendTest(ctx))
	assert.False(t, s.SendTestAfter(ctx, time.Millisecond))

	assert.Empty(t, b.Scheduled())
	clock.Advance(48 * time.Hour)
	assert.Equal(t, 0, rec.count())
}

func TestSchedulerRescheduleAll(t *testing.T) {
	s, b, _, _ := newTestScheduler(true)
	defer s.Close()
	ctx := context.Background()

	stale, ok := s.Schedule(ctx, habit("gone", models.FrequencyDaily, "07:00"), nine)
	require.True(t, ok)

	habits := []models.Habit{
		habit("daily", models.FrequencyDaily, "09:00"),
		habit("weekly", models.FrequencyWeekly, "18:30", 1, 3),
		habit("weekly-default", models.FrequencyWeekly, "18:30"),
		habit("custom", models.FrequencyCustom, "12:00", 2),
		habit("none", models.FrequencyDaily, ""),
	}
	handles, ok := s.RescheduleAll(ctx, habits)
	require.True(t, ok)

	assert.Equal(t, map[string][]Handle{
		"daily":          {DailyHandle("daily")},
		"weekly":         {WeeklyHandle("weekly", time.Monday), WeeklyHandle("weekly", time.Wednesday)},
		"weekly-default": {WeeklyHandle("weekly-default", constants.DefaultWeeklyReminderDay)},
		"custom":         {DailyHandle("custom")},
	}, handles)

	var armed []Handle
	for _, sc := range b.Scheduled() {
		armed = append(armed, sc.Handle)
	}
	assert.Len(t, armed, 5)
	assert.NotContains(t, armed, stale)
}

func TestSchedulerScheduleHabitReplacesPrevious(t *testing.T) {
	s, b, clock, rec := newTestScheduler(true)
	defer s.Close()
	ctx := context.Background()

	h := habit("a", models.FrequencyWeekly, "09:00", 3)
	_, ok := s.ScheduleHabit(ctx, h)
	require.True(t, ok)

	h.Frequency = models.FrequencyDaily
	handles, ok := s.ScheduleHabit(ctx, h)
	require.True(t, ok)
	assert.Equal(t, []Handle{DailyHandle("a")}, handles)
	require.Len(t, b.Scheduled(), 1)

	clock.Advance(time.Hour)
	require.Equal(t, 1, rec.count())
	assert.Equal(t, constants.DailyReminderTitle, rec.got[0].Title)
	assert.Equal(t, "Time to work on: habit a", rec.got[0].Body)

	h.ReminderTime = nil
	handles, ok = s.ScheduleHabit(ctx, h)
	assert.True(t, ok)
	assert.Empty(t, handles)
	assert.Empty(t, b.Scheduled())
}

func TestSchedulerInvalidReminderTime(t *testing.T) {
	s, b, _, _ := newTestScheduler(true)
	defer s.Close()

	_, ok := s.ScheduleHabit(context.Background(), habit("a", models.FrequencyDaily, "later"))
	assert.False(t, ok)
	assert.Empty(t, b.Scheduled())
}

func TestSchedulerCancel(t *testing.T) {
	s, b, _, _ := newTestScheduler(true)
	defer s.Close()
	ctx := context.Background()

	_, ok := s.ScheduleHabit(ctx, habit("a", models.FrequencyWeekly, "09:00", 0, 6))
	require.True(t, ok)
	_, ok = s.ScheduleHabit(ctx, habit("b", models.FrequencyDaily, "09:00"))
	require.True(t, ok)

	s.Cancel("nonexistent")
	s.CancelHabit("a")
	require.Len(t, b.Scheduled(), 1)

	s.CancelAll()
	assert.Empty(t, s.Scheduled())
}

func TestSchedulerSendTest(t *testing.T) {
	s, _, _, rec := newTestScheduler(true)
	ctx := context.Background()

	assert.True(t, s.SendTest(ctx))
	assert.True(t, s.SendTestAfter(ctx, 5*time.Millisecond))

	select {
	case <-time.After(2 * time.Second):
		t.Fatal("delayed test notification not delivered")
	case <-rec.ch:
	}
	select {
	case <-time.After(2 * time.Second):
		t.Fatal("delayed test notification not delivered")
	case n := <-rec.ch:
		assert.Equal(t, constants.TestReminderTitle, n.Title)
	}
	require.NoError(t, s.Close())
}

func TestSchedulerCloseCancelsPendingTest(t *testing.T) {
	s, _, _, rec := newTestScheduler(true)
	require.True(t, s.SendTestAfter(context.Background(), time.Hour))
	require.NoError(t, s.Close())
	assert.Equal(t, 0, rec.count())
}
