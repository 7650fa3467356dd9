package models

import (
	"slices"
	"time"
)

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyCustom Frequency = "custom"
)

// CustomFrequency describes a custom cadence: either a number of days per
// week or a fixed set of weekdays (0=Sunday..6=Saturday).
type CustomFrequency struct {
	DaysPerWeek  *int  `json:"daysPerWeek,omitempty"`
	SpecificDays []int `json:"specificDays,omitempty"`
}

// Habit represents a user-defined recurring activity
type Habit struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Color           string           `json:"color"`
	Icon            *string          `json:"icon,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	Category        *string          `json:"category,omitempty"`
	Frequency       Frequency        `json:"frequency"`
	CustomFrequency *CustomFrequency `json:"customFrequency,omitempty"`
	Goal            *int             `json:"goal,omitempty"`
	Tags            []string         `json:"tags"`
	Order           int              `json:"order"`
	ReminderTime    *string          `json:"reminderTime,omitempty"`   // HH:MM
	NotificationID  *string          `json:"notificationId,omitempty"` // scheduler handle(s), comma separated
}

// NewHabit holds the caller-supplied fields for a habit; the store assigns
// the id and order.
type NewHabit struct {
	Name            string
	Color           string
	Icon            *string
	CreatedAt       time.Time
	Category        *string
	Frequency       Frequency
	CustomFrequency *CustomFrequency
	Goal            *int
	Tags            []string
	ReminderTime    *string
}

// HabitPatch is a partial update. Nil fields are left unchanged.
type HabitPatch struct {
	Name            *string
	Color           *string
	Icon            *string
	Category        *string
	Frequency       *Frequency
	CustomFrequency *CustomFrequency
	Goal            *int
	Tags            []string
	Order           *int
	ReminderTime    *string
	NotificationID  *string

	// Clear* remove optional fields, since a nil pointer means "unchanged".
	ClearReminder       bool
	ClearNotificationID bool
	ClearCategory       bool
}

// Apply merges the patch into h.
func (p HabitPatch) Apply(h *Habit) {
	if p.Name != nil {
		h.Name = *p.Name
	}
	if p.Color != nil {
		h.Color = *p.Color
	}
	if p.Icon != nil {
		h.Icon = cloneString(p.Icon)
	}
	if p.Category != nil {
		h.Category = cloneString(p.Category)
	}
	if p.ClearCategory {
		h.Category = nil
	}
	if p.Frequency != nil {
		h.Frequency = *p.Frequency
	}
	if p.CustomFrequency != nil {
		h.CustomFrequency = p.CustomFrequency.Clone()
	}
	if p.Goal != nil {
		g := *p.Goal
		h.Goal = &g
	}
	if p.Tags != nil {
		h.Tags = slices.Clone(p.Tags)
	}
	if p.Order != nil {
		h.Order = *p.Order
	}
	if p.ReminderTime != nil {
		h.ReminderTime = cloneString(p.ReminderTime)
	}
	if p.ClearReminder {
		h.ReminderTime = nil
	}
	if p.NotificationID != nil {
		h.NotificationID = cloneString(p.NotificationID)
	}
	if p.ClearNotificationID {
		h.NotificationID = nil
	}
}

// Clone returns a deep copy so callers never share mutable state with the store.
func (h Habit) Clone() Habit {
	c := h
	c.Icon = cloneString(h.Icon)
	c.Category = cloneString(h.Category)
	c.CustomFrequency = h.CustomFrequency.Clone()
	if h.Goal != nil {
		g := *h.Goal
		c.Goal = &g
	}
	c.Tags = slices.Clone(h.Tags)
	c.ReminderTime = cloneString(h.ReminderTime)
	c.NotificationID = cloneString(h.NotificationID)
	return c
}

func (cf *CustomFrequency) Clone() *CustomFrequency {
	if cf == nil {
		return nil
	}
	c := &CustomFrequency{}
	if cf.DaysPerWeek != nil {
		d := *cf.DaysPerWeek
		c.DaysPerWeek = &d
	}
	if cf.SpecificDays != nil {
		c.SpecificDays = append([]int(nil), cf.SpecificDays...)
	}
	return c
}

// Weekdays returns the configured specific weekdays, normalized to 0..6.
func (h Habit) Weekdays() []time.Weekday {
	if h.CustomFrequency == nil {
		return nil
	}
	days := make([]time.Weekday, 0, len(h.CustomFrequency.SpecificDays))
	for _, d := range h.CustomFrequency.SpecificDays {
		days = append(days, time.Weekday(((d%7)+7)%7))
	}
	return days
}

// HasReminder reports whether a reminder time is set.
func (h Habit) HasReminder() bool {
	return h.ReminderTime != nil && *h.ReminderTime != ""
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringPtr is a convenience for building patches.
func StringPtr(s string) *string {
	return &s
}

func IntPtr(i int) *int {
	return &i
}
