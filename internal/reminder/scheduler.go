package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
)

// Scheduler keeps reminders in step with the habit set. Every operation
// that schedules first checks the Authorizer; when it is not granted the
// operation reports false and schedules nothing.
type Scheduler struct {
	backend Backend
	auth    Authorizer
	deliver Deliverer

	mu      sync.Mutex
	pending map[*time.Timer]struct{}
	wg      sync.WaitGroup
}

func NewScheduler(backend Backend, auth Authorizer, d Deliverer) *Scheduler {
	return &Scheduler{
		backend: backend,
		auth:    auth,
		deliver: d,
		pending: make(map[*time.Timer]struct{}),
	}
}

// Schedule arms a daily reminder for habit at t.
func (s *Scheduler) Schedule(ctx context.Context, habit models.Habit, t models.ReminderTime) (Handle, bool) {
	if !s.auth.Authorized(ctx) {
		return "", false
	}
	h, err := s.backend.ScheduleDaily(dailyReminder(habit, t))
	if err != nil {
		logger.Warn("failed to schedule daily reminder", "habit", habit.ID, "error", err)
		return "", false
	}
	return h, true
}

// ScheduleWeekly arms a reminder for habit on weekday at t.
func (s *Scheduler) ScheduleWeekly(ctx context.Context, habit models.Habit, t models.ReminderTime, weekday time.Weekday) (Handle, bool) {
	if !s.auth.Authorized(ctx) {
		return "", false
	}
	h, err := s.backend.ScheduleWeekly(weeklyReminder(habit, t), weekday)
	if err != nil {
		logger.Warn("failed to schedule weekly reminder", "habit", habit.ID, "weekday", weekday, "error", err)
		return "", false
	}
	return h, true
}

// Cancel is a no-op for handles that are not armed.
func (s *Scheduler) Cancel(h Handle) {
	if err := s.backend.Cancel(h); err != nil && !errors.Is(err, ErrUnknownHandle) {
		logger.Warn("failed to cancel reminder", "handle", h, "error", err)
	}
}

func (s *Scheduler) CancelAll() {
	if err := s.backend.CancelAll(); err != nil {
		logger.Warn("failed to cancel reminders", "error", err)
	}
}

// CancelHabit cancels every reminder the habit may own.
func (s *Scheduler) CancelHabit(habitID string) {
	for _, h := range HabitHandles(habitID) {
		s.Cancel(h)
	}
}

// ScheduleHabit replaces the habit's reminders according to its frequency:
// weekly habits get one reminder per configured weekday (Monday when none
// are configured), everything else a daily reminder. It returns no handles
// and true when the habit has no reminder time.
func (s *Scheduler) ScheduleHabit(ctx context.Context, habit models.Habit) ([]Handle, bool) {
	s.CancelHabit(habit.ID)
	if !habit.HasReminder() {
		return nil, true
	}
	if !s.auth.Authorized(ctx) {
		return nil, false
	}
	t, err := models.ParseReminderTime(*habit.ReminderTime)
	if err != nil {
		logger.Warn("skipping reminder with invalid time", "habit", habit.ID, "error", err)
		return nil, false
	}

	if habit.Frequency != models.FrequencyWeekly {
		h, ok := s.Schedule(ctx, habit, t)
		if !ok {
			return nil, false
		}
		return []Handle{h}, true
	}

	weekdays := habit.Weekdays()
	if len(weekdays) == 0 {
		weekdays = []time.Weekday{constants.DefaultWeeklyReminderDay}
	}
	var handles []Handle
	for _, wd := range weekdays {
		h, ok := s.ScheduleWeekly(ctx, habit, t, wd)
		if !ok {
			for _, done := range handles {
				s.Cancel(done)
			}
			return nil, false
		}
		handles = append(handles, h)
	}
	return handles, true
}

// RescheduleAll cancels everything and schedules each habit that has a
// reminder time. The map holds the handles per habit id.
func (s *Scheduler) RescheduleAll(ctx context.Context, habits []models.Habit) (map[string][]Handle, bool) {
	s.CancelAll()
	if !s.auth.Authorized(ctx) {
		return nil, false
	}

	out := make(map[string][]Handle)
	ok := true
	for _, h := range habits {
		if !h.HasReminder() {
			continue
		}
		handles, scheduled := s.ScheduleHabit(ctx, h)
		if !scheduled {
			ok = false
			continue
		}
		out[h.ID] = handles
	}
	return out, ok
}

// Scheduled lists armed reminders when the backend can report them.
func (s *Scheduler) Scheduled() []Scheduled {
	if l, ok := s.backend.(Lister); ok {
		return l.Scheduled()
	}
	return nil
}

// SendTest delivers a test notification immediately.
func (s *Scheduler) SendTest(ctx context.Context) bool {
	if !s.auth.Authorized(ctx) {
		return false
	}
	if err := s.deliver.Deliver(ctx, Notification{Title: constants.TestReminderTitle, Body: constants.TestReminderBody}); err != nil {
		logger.Warn("failed to deliver test notification", "error", err)
		return false
	}
	return true
}

// SendTestAfter delivers a test notification after d.
func (s *Scheduler) SendTestAfter(ctx context.Context, d time.Duration) bool {
	if !s.auth.Authorized(ctx) {
		return false
	}
	if d < 0 {
		d = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		defer s.wg.Done()
		s.mu.Lock()
		delete(s.pending, t)
		s.mu.Unlock()
		deliver(s.deliver, Notification{Title: constants.TestReminderTitle, Body: constants.DelayedTestBody})
	})
	s.pending[t] = struct{}{}
	return true
}

// Close stops pending test notifications and closes the backend.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	for t := range s.pending {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.pending, t)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return s.backend.Close()
}
