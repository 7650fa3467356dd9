package reminder

import (
	"sort"
	"sync"
	"time"
)

// TimerBackend arms a one-shot timer per handle and, when it fires, derives
// the next trigger from the clock again before re-arming. Each arm gets a
// new generation; a callback whose generation no longer matches does
// nothing, so a cancelled or replaced handle never fires.
type TimerBackend struct {
	mu       sync.Mutex
	clock    Clock
	deliver  Deliverer
	entries  map[Handle]*timerEntry
	inflight sync.WaitGroup
	closed   bool
	gen      uint64
}

type timerEntry struct {
	reminder Reminder
	weekly   bool
	weekday  time.Weekday
	gen      uint64
	next     time.Time
	timer    Timer
}

func NewTimerBackend(d Deliverer, clock Clock) *TimerBackend {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TimerBackend{
		clock:   clock,
		deliver: d,
		entries: make(map[Handle]*timerEntry),
	}
}

func (b *TimerBackend) ScheduleDaily(r Reminder) (Handle, error) {
	h := DailyHandle(r.HabitID)
	return h, b.schedule(h, &timerEntry{reminder: r})
}

func (b *TimerBackend) ScheduleWeekly(r Reminder, weekday time.Weekday) (Handle, error) {
	h := WeeklyHandle(r.HabitID, weekday)
	return h, b.schedule(h, &timerEntry{reminder: r, weekly: true, weekday: weekday})
}

func (b *TimerBackend) schedule(h Handle, e *timerEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if old, ok := b.entries[h]; ok {
		old.timer.Stop()
	}
	b.entries[h] = e
	b.arm(h, e, b.clock.Now())
	return nil
}

// arm schedules the first occurrence strictly after from. It must be
// called with b.mu held.
func (b *TimerBackend) arm(h Handle, e *timerEntry, from time.Time) {
	now := b.clock.Now()
	if e.weekly {
		e.next = NextWeeklyTrigger(from, e.weekday, e.reminder.Time)
	} else {
		e.next = NextDailyTrigger(from, e.reminder.Time)
	}
	b.gen++
	gen := b.gen
	e.gen = gen
	e.timer = b.clock.AfterFunc(e.next.Sub(now), func() { b.fire(h, gen) })
}

func (b *TimerBackend) fire(h Handle, gen uint64) {
	b.mu.Lock()
	e, ok := b.entries[h]
	if b.closed || !ok || e.gen != gen {
		b.mu.Unlock()
		return
	}
	// A timer that wakes slightly early must not re-arm for the occurrence
	// it is delivering.
	from := b.clock.Now()
	if e.next.After(from) {
		from = e.next
	}
	b.arm(h, e, from)
	n := e.reminder.Notification
	b.inflight.Add(1)
	b.mu.Unlock()

	defer b.inflight.Done()
	deliver(b.deliver, n)
}

// Cancel stops the handle. Unknown handles return ErrUnknownHandle.
func (b *TimerBackend) Cancel(h Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[h]
	if !ok {
		return ErrUnknownHandle
	}
	e.timer.Stop()
	delete(b.entries, h)
	return nil
}

func (b *TimerBackend) CancelAll() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for h, e := range b.entries {
		e.timer.Stop()
		delete(b.entries, h)
	}
	return nil
}

func (b *TimerBackend) Scheduled() []Scheduled {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Scheduled, 0, len(b.entries))
	for h, e := range b.entries {
		out = append(out, Scheduled{Handle: h, HabitID: e.reminder.HabitID, Next: e.next})
	}
	sortScheduled(out)
	return out
}

// Close cancels everything and waits for deliveries already under way.
func (b *TimerBackend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for h, e := range b.entries {
		e.timer.Stop()
		delete(b.entries, h)
	}
	b.mu.Unlock()

	b.inflight.Wait()
	return nil
}

func sortScheduled(s []Scheduled) {
	sort.Slice(s, func(i, j int) bool {
		if !s[i].Next.Equal(s[j].Next) {
			return s[i].Next.Before(s[j].Next)
		}
		return s[i].Handle < s[j].Handle
	})
}
