package reminder

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/habitual/internal/logger"
)

// CronBackend delegates recurrence to a cron scheduler. It only keeps the
// entry id per handle for cancellation.
type CronBackend struct {
	mu      sync.Mutex
	cron    *cron.Cron
	deliver Deliverer
	entries map[Handle]cronEntry
	closed  bool
}

type cronEntry struct {
	id      cron.EntryID
	habitID string
}

// NewCronBackend starts a cron scheduler in loc (time.Local when nil).
func NewCronBackend(d Deliverer, loc *time.Location) *CronBackend {
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{})),
		cron.WithLogger(cronLogger{}),
	)
	c.Start()
	return &CronBackend{
		cron:    c,
		deliver: d,
		entries: make(map[Handle]cronEntry),
	}
}

// DailySpec and WeeklySpec build standard five-field cron expressions.
func DailySpec(r Reminder) string {
	return fmt.Sprintf("%d %d * * *", r.Time.Minute, r.Time.Hour)
}

func WeeklySpec(r Reminder, weekday time.Weekday) string {
	return fmt.Sprintf("%d %d * * %d", r.Time.Minute, r.Time.Hour, (int(weekday)%7+7)%7)
}

func (b *CronBackend) ScheduleDaily(r Reminder) (Handle, error) {
	h := DailyHandle(r.HabitID)
	return h, b.add(h, DailySpec(r), r)
}

func (b *CronBackend) ScheduleWeekly(r Reminder, weekday time.Weekday) (Handle, error) {
	h := WeeklyHandle(r.HabitID, weekday)
	return h, b.add(h, WeeklySpec(r, weekday), r)
}

func (b *CronBackend) add(h Handle, spec string, r Reminder) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if old, ok := b.entries[h]; ok {
		b.cron.Remove(old.id)
		delete(b.entries, h)
	}

	n := r.Notification
	id, err := b.cron.AddFunc(spec, func() { deliver(b.deliver, n) })
	if err != nil {
		return fmt.Errorf("failed to schedule %s (%q): %w", h, spec, err)
	}
	b.entries[h] = cronEntry{id: id, habitID: r.HabitID}
	return nil
}

func (b *CronBackend) Cancel(h Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[h]
	if !ok {
		return ErrUnknownHandle
	}
	b.cron.Remove(e.id)
	delete(b.entries, h)
	return nil
}

func (b *CronBackend) CancelAll() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for h, e := range b.entries {
		b.cron.Remove(e.id)
		delete(b.entries, h)
	}
	return nil
}

func (b *CronBackend) Scheduled() []Scheduled {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Scheduled, 0, len(b.entries))
	for h, e := range b.entries {
		out = append(out, Scheduled{Handle: h, HabitID: e.habitID, Next: b.cron.Entry(e.id).Next})
	}
	sortScheduled(out)
	return out
}

// Close stops the scheduler and waits for running jobs.
func (b *CronBackend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.entries = make(map[Handle]cronEntry)
	b.mu.Unlock()

	ctx := b.cron.Stop()
	<-ctx.Done()
	return nil
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug(msg, append([]interface{}{"component", "cron"}, keysAndValues...)...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error(msg, append([]interface{}{"component", "cron", "error", err}, keysAndValues...)...)
}
