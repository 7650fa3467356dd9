package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

var hexColorRe = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

// ValidateColor checks a #RGB or #RRGGBB hex color.
func ValidateColor(color string) error {
	if !hexColorRe.MatchString(color) {
		return fmt.Errorf("invalid hex color %q (expected #RRGGBB)", color)
	}
	return nil
}

// ValidateDay checks the canonical YYYY-MM-DD day format.
func ValidateDay(day string) error {
	if _, err := time.Parse(constants.DateFormat, day); err != nil {
		return fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", day)
	}
	return nil
}

// ReminderTime is a time of day for a recurring reminder.
type ReminderTime struct {
	Hour   int
	Minute int
}

func (t ReminderTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseReminderTime accepts HH:MM, or an RFC3339 timestamp as written by
// older exports, in which case the local hour and minute are used.
func ParseReminderTime(s string) (ReminderTime, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(constants.TimeFormat, s); err == nil {
		return ReminderTime{Hour: t.Hour(), Minute: t.Minute()}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.Local()
		return ReminderTime{Hour: t.Hour(), Minute: t.Minute()}, nil
	}
	return ReminderTime{}, fmt.Errorf("invalid reminder time %q (expected HH:MM)", s)
}

// ValidateHabit checks the user-facing fields of a new habit.
func ValidateHabit(h NewHabit) error {
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("habit name cannot be empty")
	}
	if h.Color != "" {
		if err := ValidateColor(h.Color); err != nil {
			return err
		}
	}
	switch h.Frequency {
	case "", FrequencyDaily, FrequencyWeekly, FrequencyCustom:
	default:
		return fmt.Errorf("invalid frequency %q (expected daily, weekly or custom)", h.Frequency)
	}
	if h.CustomFrequency != nil {
		if d := h.CustomFrequency.DaysPerWeek; d != nil && (*d < 1 || *d > 7) {
			return fmt.Errorf("days per week must be between 1 and 7")
		}
		for _, wd := range h.CustomFrequency.SpecificDays {
			if wd < 0 || wd > 6 {
				return fmt.Errorf("invalid weekday %d (expected 0-6)", wd)
			}
		}
	}
	if h.Goal != nil && *h.Goal < 0 {
		return fmt.Errorf("goal cannot be negative")
	}
	if h.ReminderTime != nil {
		if _, err := ParseReminderTime(*h.ReminderTime); err != nil {
			return err
		}
	}
	return nil
}
