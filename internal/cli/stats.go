package cli

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habitual/internal/app"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

// EntriesCmd prints a completion grid for the trailing days.
type EntriesCmd struct {
	Habit string `arg:"" optional:"" help:"Habit id, short id or name (default: all habits)."`
	Days  int    `help:"Number of days to show." default:"14"`
}

func (c *EntriesCmd) Run(ctx *Context) error {
	if c.Days <= 0 {
		return fmt.Errorf("days must be positive")
	}

	var habits []models.Habit
	if c.Habit != "" {
		h, err := ctx.Engine.FindHabit(c.Habit)
		if err != nil {
			return err
		}
		habits = []models.Habit{h}
	} else {
		habits = ctx.Engine.Habits()
	}
	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	const nameWidth = 20
	today := utils.StartOfDay(ctx.Engine.Today())
	start := utils.AddDays(today, -(c.Days - 1))

	ctx.Header(fmt.Sprintf("Last %d days", c.Days))
	var header strings.Builder
	header.WriteString(strings.Repeat(" ", nameWidth))
	for i := 0; i < c.Days; i++ {
		header.WriteString(" " + utils.AddDays(start, i).Format("01/02"))
	}
	ctx.Println(ctx.Faint(header.String()))

	for _, h := range habits {
		entries := ctx.Engine.Entries(h.ID)
		var row strings.Builder
		row.WriteString(padName(h.Name, nameWidth))
		for i := 0; i < c.Days; i++ {
			row.WriteString("   " + Check(entries[utils.DayKey(utils.AddDays(start, i))]) + "  ")
		}
		ctx.Println(row.String())
	}
	return nil
}

func padName(name string, width int) string {
	r := []rune(name)
	if len(r) > width {
		return string(r[:width-3]) + "..."
	}
	return name + strings.Repeat(" ", width-len(r))
}

type StatsCmd struct {
	Habit string `arg:"" help:"Habit id, short id or name."`
}

func (c *StatsCmd) Run(ctx *Context) error {
	h, err := ctx.Engine.FindHabit(c.Habit)
	if err != nil {
		return err
	}
	st, err := ctx.Engine.Stats(h.ID)
	if err != nil {
		return err
	}

	ctx.Header(h.Name)
	ctx.Field("Frequency", FormatFrequency(h))
	ctx.Field("Current streak", pluralDays(st.CurrentStreak))
	ctx.Field("Longest streak", pluralDays(st.LongestStreak))
	ctx.Field("Total completions", st.TotalCompletions)
	ctx.Field("Last 7 days", fmt.Sprintf("%d%%", st.CompletionRate7Days))
	ctx.Field("Last 30 days", fmt.Sprintf("%d%%", st.CompletionRate30Days))
	ctx.Field("Average per week", fmt.Sprintf("%.1f", st.AveragePerWeek))
	return nil
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

type OverviewCmd struct {
	Days int `help:"Days of completion trend to show." default:"14"`
}

func (c *OverviewCmd) Run(ctx *Context) error {
	ov := ctx.Engine.Overview()
	ctx.Header("Overview")
	ctx.Field("Habits", ov.TotalHabits)
	ctx.Field("Total completions", ov.TotalCompletions)
	ctx.Field("Average (7 days)", fmt.Sprintf("%.1f%%", ov.AverageCompletion))

	if len(ov.Streaks) > 0 {
		ctx.Println()
		ctx.Header("Streaks")
		for _, s := range ov.Streaks {
			h, err := ctx.Engine.Habit(s.HabitID)
			if err != nil {
				continue
			}
			ctx.Printf("  %-24s %s %s\n", h.Name, pluralDays(s.Streak), ctx.Faint(app.ShortID(h.ID)))
		}
	}

	trend := ctx.Engine.Trend(c.Days)
	if len(trend) == 0 || ov.TotalHabits == 0 {
		return nil
	}
	ctx.Println()
	ctx.Header("Trend")
	for _, d := range trend {
		bar := strings.Repeat("█", d.Count)
		ctx.Printf("  %s %s %d\n", d.Date, doneStyle.Render(bar), d.Count)
	}
	return nil
}
