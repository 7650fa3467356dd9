package reminder

import (
	"time"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

// NextDailyTrigger returns today at t in now's location, or tomorrow at t
// when that instant is not after now.
func NextDailyTrigger(now time.Time, t models.ReminderTime) time.Time {
	next := atTime(now, t)
	if !next.After(now) {
		next = utils.AddDays(next, 1)
	}
	return next
}

// NextWeeklyTrigger returns the next occurrence of weekday at t. A target
// of today whose time has passed moves to the same weekday next week.
// weekday is taken mod 7.
func NextWeeklyTrigger(now time.Time, weekday time.Weekday, t models.ReminderTime) time.Time {
	target := (int(weekday)%7 + 7) % 7
	offset := (target - int(now.Weekday()) + 7) % 7
	next := utils.AddDays(atTime(now, t), offset)
	if offset == 0 && !next.After(now) {
		next = utils.AddDays(next, 7)
	}
	return next
}

func atTime(day time.Time, t models.ReminderTime) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, day.Location())
}
