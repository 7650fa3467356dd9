// Package reminder turns habit reminder times into recurring notifications.
// A Backend owns the recurrence: CronBackend hands the rule to a cron
// scheduler, TimerBackend re-arms a one-shot timer after every fire.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
)

var (
	ErrUnknownHandle = errors.New("unknown reminder handle")
	ErrClosed        = errors.New("reminder backend is closed")
)

// Handle identifies one scheduled reminder.
type Handle string

// DailyHandle and WeeklyHandle are deterministic, so scheduling a habit
// again replaces its previous reminder.
func DailyHandle(habitID string) Handle {
	return Handle("daily-" + habitID)
}

func WeeklyHandle(habitID string, weekday time.Weekday) Handle {
	return Handle(fmt.Sprintf("weekly-%s-%d", habitID, (int(weekday)%7+7)%7))
}

// HabitHandles lists every handle a habit could own.
func HabitHandles(habitID string) []Handle {
	hs := []Handle{DailyHandle(habitID)}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		hs = append(hs, WeeklyHandle(habitID, wd))
	}
	return hs
}

// Notification is what gets delivered when a reminder fires.
type Notification struct {
	Title   string
	Body    string
	HabitID string
}

// Reminder is one habit's recurring notification at a time of day.
type Reminder struct {
	HabitID      string
	Time         models.ReminderTime
	Notification Notification
}

// Deliverer shows a notification now.
type Deliverer interface {
	Deliver(ctx context.Context, n Notification) error
}

// Authorizer reports whether notifications may be scheduled.
type Authorizer interface {
	Authorized(ctx context.Context) bool
}

type Backend interface {
	ScheduleDaily(r Reminder) (Handle, error)
	ScheduleWeekly(r Reminder, weekday time.Weekday) (Handle, error)
	Cancel(h Handle) error
	CancelAll() error
	Close() error
}

// Scheduled describes an armed reminder.
type Scheduled struct {
	Handle  Handle
	HabitID string
	Next    time.Time
}

// Lister is implemented by backends that can report their armed reminders.
type Lister interface {
	Scheduled() []Scheduled
}

func dailyReminder(h models.Habit, t models.ReminderTime) Reminder {
	return Reminder{
		HabitID: h.ID,
		Time:    t,
		Notification: Notification{
			Title:   constants.DailyReminderTitle,
			Body:    fmt.Sprintf(constants.DailyReminderBody, h.Name),
			HabitID: h.ID,
		},
	}
}

func weeklyReminder(h models.Habit, t models.ReminderTime) Reminder {
	return Reminder{
		HabitID: h.ID,
		Time:    t,
		Notification: Notification{
			Title:   constants.WeeklyReminderTitle,
			Body:    fmt.Sprintf(constants.WeeklyReminderBody, h.Name),
			HabitID: h.ID,
		},
	}
}

// deliver runs d with a bounded context and logs failures.
func deliver(d Deliverer, n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.DeliveryTimeout)
	defer cancel()
	if err := d.Deliver(ctx, n); err != nil {
		logger.Warn("failed to deliver reminder", "habit", n.HabitID, "error", err)
	}
}
