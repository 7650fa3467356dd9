package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitual/internal/models"
)

func TestCronSpecs(t *testing.T) {
	r := Reminder{HabitID: "h", Time: models.ReminderTime{Hour: 7, Minute: 30}}
	assert.Equal(t, "30 7 * * *", DailySpec(r))
	assert.Equal(t, "30 7 * * 3", WeeklySpec(r, time.Wednesday))
	assert.Equal(t, "30 7 * * 0", WeeklySpec(r, time.Weekday(7)))
}

func TestCronBackendScheduleAndCancel(t *testing.T) {
	b := NewCronBackend(newRecorder(nil), time.UTC)

	r := Reminder{HabitID: "h", Time: models.ReminderTime{Hour: 7, Minute: 30}}
	dh, err := b.ScheduleDaily(r)
	require.NoError(t, err)
	wh, err := b.ScheduleWeekly(r, time.Friday)
	require.NoError(t, err)
	_, err = b.ScheduleDaily(r)
	require.NoError(t, err, "rescheduling replaces the entry")

	sched := b.Scheduled()
	require.Len(t, sched, 2)
	for _, sc := range sched {
		assert.Equal(t, 7, sc.Next.Hour())
		assert.Equal(t, 30, sc.Next.Minute())
		assert.WithinDuration(t, time.Now(), sc.Next, 8*24*time.Hour)
		if sc.Handle == wh {
			assert.Equal(t, time.Friday, sc.Next.Weekday())
		}
	}

	require.NoError(t, b.Cancel(dh))
	assert.ErrorIs(t, b.Cancel(dh), ErrUnknownHandle)
	require.NoError(t, b.CancelAll())
	assert.Empty(t, b.Scheduled())

	require.NoError(t, b.Close())
	_, err = b.ScheduleDaily(r)
	assert.ErrorIs(t, err, ErrClosed)
}
