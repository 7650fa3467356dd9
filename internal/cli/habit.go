package cli

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habitual/internal/app"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

type HabitCmd struct {
	Add     HabitAddCmd     `cmd:"" help:"Add a new habit."`
	List    HabitListCmd    `cmd:"" help:"List habits with today's status."`
	Edit    HabitEditCmd    `cmd:"" help:"Edit a habit."`
	Delete  HabitDeleteCmd  `cmd:"" help:"Delete a habit and its history."`
	Reorder HabitReorderCmd `cmd:"" help:"Set the display order of habits."`
}

type HabitAddCmd struct {
	Name      string   `arg:"" help:"Habit name."`
	Color     string   `help:"Hex color, e.g. #40c463."`
	Icon      string   `help:"Icon (usually an emoji)."`
	Frequency string   `help:"daily, weekly or custom." default:"daily" enum:"daily,weekly,custom"`
	Days      string   `help:"Weekdays for weekly or custom habits, e.g. mon,wed,fri."`
	PerWeek   *int     `help:"Days per week for custom habits." name:"per-week"`
	Goal      *int     `help:"Target completions per period."`
	Reminder  string   `help:"Reminder time of day (HH:MM)."`
	Category  string   `help:"Category id or name."`
	Tags      []string `help:"Comma-separated tags."`
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	freq, err := ParseFrequency(c.Frequency)
	if err != nil {
		return err
	}
	custom, err := buildCustomFrequency(c.Days, c.PerWeek)
	if err != nil {
		return err
	}

	in := models.NewHabit{
		Name:            strings.TrimSpace(c.Name),
		Color:           c.Color,
		Frequency:       freq,
		CustomFrequency: custom,
		Goal:            c.Goal,
		Tags:            c.Tags,
	}
	if c.Icon != "" {
		in.Icon = models.StringPtr(c.Icon)
	}
	if c.Reminder != "" {
		in.ReminderTime = models.StringPtr(c.Reminder)
	}
	if c.Category != "" {
		cat, err := findCategory(ctx.Engine, c.Category)
		if err != nil {
			return err
		}
		in.Category = models.StringPtr(cat.ID)
	}

	h, err := ctx.Engine.AddHabit(ctx.Context(), in)
	if err != nil {
		return err
	}

	ctx.Success("Added habit %q (%s)", h.Name, app.ShortID(h.ID))
	if h.HasReminder() {
		if h.NotificationID != nil {
			ctx.Printf("  Reminder at %s\n", *h.ReminderTime)
		} else {
			ctx.Warn("Reminder at %s saved but not scheduled (notifications are off or unavailable)", *h.ReminderTime)
		}
	}
	return nil
}

func buildCustomFrequency(days string, perWeek *int) (*models.CustomFrequency, error) {
	if days == "" && perWeek == nil {
		return nil, nil
	}
	cf := &models.CustomFrequency{DaysPerWeek: perWeek}
	if days != "" {
		wd, err := utils.ParseWeekdays(days)
		if err != nil {
			return nil, err
		}
		cf.SpecificDays = wd
	}
	return cf, nil
}

type HabitListCmd struct{}

func (c *HabitListCmd) Run(ctx *Context) error {
	habits := ctx.Engine.Habits()
	if len(habits) == 0 {
		ctx.Println("No habits found. Add one with 'habitual habit add <name>'.")
		return nil
	}

	status := ctx.Engine.TodayStatus()
	cats := categoryNames(ctx.Engine)
	done := 0

	ctx.Header(fmt.Sprintf("Habits for %s", utils.DayKey(ctx.Engine.Today())))
	for _, h := range habits {
		if status[h.ID] {
			done++
		}
		st, err := ctx.Engine.Stats(h.ID)
		if err != nil {
			return err
		}

		line := fmt.Sprintf("%s %s  %-24s %s", Check(status[h.ID]), ctx.Faint(app.ShortID(h.ID)), h.Name, FormatFrequency(h))
		if h.HasReminder() {
			line += "  ⏰ " + *h.ReminderTime
		}
		if h.Category != nil {
			if name, ok := cats[*h.Category]; ok {
				line += "  " + ctx.Faint("["+name+"]")
			}
		}
		if st.CurrentStreak > 0 {
			line += fmt.Sprintf("  🔥 %d", st.CurrentStreak)
		}
		ctx.Println(line)
	}
	ctx.Printf("\nCompleted: %d/%d\n", done, len(habits))
	return nil
}

type HabitEditCmd struct {
	Habit      string   `arg:"" help:"Habit id, short id or name."`
	Name       *string  `help:"New name."`
	Color      *string  `help:"New hex color."`
	Icon       *string  `help:"New icon."`
	Frequency  *string  `help:"daily, weekly or custom."`
	Days       *string  `help:"Weekdays for weekly or custom habits, e.g. mon,wed,fri."`
	PerWeek    *int     `help:"Days per week for custom habits." name:"per-week"`
	Goal       *int     `help:"Target completions per period."`
	Reminder   *string  `help:"Reminder time of day (HH:MM)."`
	NoReminder bool     `help:"Remove the reminder." name:"no-reminder"`
	Category   *string  `help:"Category id or name."`
	NoCategory bool     `help:"Remove the category." name:"no-category"`
	Tags       []string `help:"Replace tags."`
}

func (c *HabitEditCmd) Run(ctx *Context) error {
	h, err := ctx.Engine.FindHabit(c.Habit)
	if err != nil {
		return err
	}

	patch := models.HabitPatch{
		Name:         c.Name,
		Color:        c.Color,
		Icon:         c.Icon,
		Goal:         c.Goal,
		Tags:         c.Tags,
		ReminderTime: c.Reminder,
	}
	if c.Frequency != nil {
		freq, err := ParseFrequency(*c.Frequency)
		if err != nil {
			return err
		}
		patch.Frequency = &freq
	}
	if c.Days != nil || c.PerWeek != nil {
		days := ""
		if c.Days != nil {
			days = *c.Days
		}
		cf, err := buildCustomFrequency(days, c.PerWeek)
		if err != nil {
			return err
		}
		patch.CustomFrequency = cf
	}
	if c.NoReminder {
		if c.Reminder != nil {
			return fmt.Errorf("--reminder and --no-reminder are mutually exclusive")
		}
		patch.ClearReminder = true
	}
	if c.Category != nil {
		cat, err := findCategory(ctx.Engine, *c.Category)
		if err != nil {
			return err
		}
		patch.Category = models.StringPtr(cat.ID)
	}
	if c.NoCategory {
		patch.ClearCategory = true
	}

	updated, err := ctx.Engine.UpdateHabit(ctx.Context(), h.ID, patch)
	if err != nil {
		return err
	}
	ctx.Success("Updated habit %q", updated.Name)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit id, short id or name."`
	Yes   bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *HabitDeleteCmd) Run(ctx *Context) error {
	h, err := ctx.Engine.FindHabit(c.Habit)
	if err != nil {
		return err
	}
	if !c.Yes {
		ok, err := ctx.Confirm(fmt.Sprintf("Delete %q and all of its history?", h.Name))
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Delete cancelled.")
			return nil
		}
	}
	if err := ctx.Engine.DeleteHabit(h.ID); err != nil {
		return err
	}
	ctx.Success("Deleted habit %q", h.Name)
	return nil
}

type HabitReorderCmd struct {
	Habits []string `arg:"" help:"Habits in the desired order. Habits not listed keep their relative order after these."`
}

func (c *HabitReorderCmd) Run(ctx *Context) error {
	ids := make([]string, 0, len(c.Habits))
	seen := make(map[string]bool)
	for _, ref := range c.Habits {
		h, err := ctx.Engine.FindHabit(ref)
		if err != nil {
			return err
		}
		if seen[h.ID] {
			return fmt.Errorf("habit %q listed twice", h.Name)
		}
		seen[h.ID] = true
		ids = append(ids, h.ID)
	}
	for _, h := range ctx.Engine.Habits() {
		if !seen[h.ID] {
			ids = append(ids, h.ID)
		}
	}
	ctx.Engine.ReorderHabits(ids)

	ctx.Success("Reordered habits")
	for i, h := range ctx.Engine.Habits() {
		ctx.Printf("  %d. %s\n", i+1, h.Name)
	}
	return nil
}

// ToggleCmd flips completion for a day.
type ToggleCmd struct {
	Habit string `arg:"" help:"Habit id, short id or name."`
	Date  string `arg:"" optional:"" help:"Day as YYYY-MM-DD, today or yesterday (default: today)."`
}

func (c *ToggleCmd) Run(ctx *Context) error {
	h, err := ctx.Engine.FindHabit(c.Habit)
	if err != nil {
		return err
	}
	day, err := utils.ResolveDay(c.Date, ctx.Engine.Today())
	if err != nil {
		return err
	}
	done, err := ctx.Engine.ToggleEntry(h.ID, day)
	if err != nil {
		return err
	}
	if done {
		ctx.Success("Marked %q done for %s", h.Name, day)
	} else {
		ctx.Printf("Unmarked %q for %s\n", h.Name, day)
	}
	return nil
}

func findCategory(e *app.Engine, ref string) (models.Category, error) {
	ref = strings.TrimSpace(ref)
	for _, c := range e.Categories() {
		if c.ID == ref || strings.EqualFold(c.Name, ref) {
			return c, nil
		}
	}
	return models.Category{}, fmt.Errorf("%w: %s", app.ErrCategoryNotFound, ref)
}

func categoryNames(e *app.Engine) map[string]string {
	out := make(map[string]string)
	for _, c := range e.Categories() {
		out[c.ID] = c.Name
	}
	return out
}
