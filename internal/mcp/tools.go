package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/julianstephens/habitual/internal/app"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_habits",
		Description: "List habits in display order with today's completion and current streak",
	}, s.handleListHabits)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_habit",
		Description: "Create a habit, optionally with a daily or weekly reminder",
	}, s.handleAddHabit)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "toggle_entry",
		Description: "Toggle a habit's completion for a day (defaults to today)",
	}, s.handleToggleEntry)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "habit_stats",
		Description: "Get streaks, completion rates and weekly average for a habit",
	}, s.handleHabitStats)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_habit",
		Description: "Delete a habit, its history and its reminders",
	}, s.handleDeleteHabit)
}

type listHabitsInput struct{}

type habitSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Frequency      string `json:"frequency"`
	ReminderTime   string `json:"reminder_time,omitempty"`
	CompletedToday bool   `json:"completed_today"`
	CurrentStreak  int    `json:"current_streak"`
}

type listHabitsOutput struct {
	Habits []habitSummary `json:"habits"`
}

type addHabitInput struct {
	Name         string `json:"name" jsonschema:"Habit name"`
	Color        string `json:"color,omitempty" jsonschema:"Hex color such as #40c463"`
	Frequency    string `json:"frequency,omitempty" jsonschema:"daily, weekly or custom (default daily)"`
	Days         []int  `json:"days,omitempty" jsonschema:"Weekdays for weekly habits, 0=Sunday through 6=Saturday"`
	ReminderTime string `json:"reminder_time,omitempty" jsonschema:"Reminder time of day as HH:MM"`
	Category     string `json:"category,omitempty" jsonschema:"Category id"`
}

type habitOutput struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

type habitRefInput struct {
	Habit string `json:"habit" jsonschema:"Habit id, short id or exact name"`
}

type toggleEntryInput struct {
	Habit string `json:"habit" jsonschema:"Habit id, short id or exact name"`
	Date  string `json:"date,omitempty" jsonschema:"Day as YYYY-MM-DD, today or yesterday (default today)"`
}

type toggleEntryOutput struct {
	HabitID   string `json:"habit_id"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
	Message   string `json:"message"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

func (s *Server) handleListHabits(ctx context.Context, req *mcp.CallToolRequest, input listHabitsInput) (*mcp.CallToolResult, listHabitsOutput, error) {
	today := s.engine.TodayStatus()
	out := listHabitsOutput{Habits: []habitSummary{}}
	for _, h := range s.engine.Habits() {
		st, err := s.engine.Stats(h.ID)
		if err != nil {
			return nil, listHabitsOutput{}, err
		}
		sum := habitSummary{
			ID:             h.ID,
			Name:           h.Name,
			Frequency:      string(h.Frequency),
			CompletedToday: today[h.ID],
			CurrentStreak:  st.CurrentStreak,
		}
		if h.ReminderTime != nil {
			sum.ReminderTime = *h.ReminderTime
		}
		out.Habits = append(out.Habits, sum)
	}
	return nil, out, nil
}

func (s *Server) handleAddHabit(ctx context.Context, req *mcp.CallToolRequest, input addHabitInput) (*mcp.CallToolResult, habitOutput, error) {
	in := models.NewHabit{
		Name:      strings.TrimSpace(input.Name),
		Color:     input.Color,
		Frequency: models.Frequency(strings.ToLower(input.Frequency)),
	}
	if len(input.Days) > 0 {
		in.CustomFrequency = &models.CustomFrequency{SpecificDays: input.Days}
	}
	if input.ReminderTime != "" {
		in.ReminderTime = models.StringPtr(input.ReminderTime)
	}
	if input.Category != "" {
		in.Category = models.StringPtr(input.Category)
	}

	h, err := s.engine.AddHabit(ctx, in)
	if err != nil {
		return nil, habitOutput{}, fmt.Errorf("failed to add habit: %w", err)
	}

	msg := fmt.Sprintf("Added habit %q (ID: %s)", h.Name, app.ShortID(h.ID))
	if h.ReminderTime != nil {
		if h.NotificationID != nil {
			msg += fmt.Sprintf(", reminder at %s", *h.ReminderTime)
		} else {
			msg += ", reminder saved but not scheduled (notifications unavailable)"
		}
	}
	return nil, habitOutput{ID: h.ID, Name: h.Name, Message: msg}, nil
}

func (s *Server) handleToggleEntry(ctx context.Context, req *mcp.CallToolRequest, input toggleEntryInput) (*mcp.CallToolResult, toggleEntryOutput, error) {
	h, err := s.engine.FindHabit(input.Habit)
	if err != nil {
		return nil, toggleEntryOutput{}, err
	}
	day, err := utils.ResolveDay(input.Date, s.engine.Today())
	if err != nil {
		return nil, toggleEntryOutput{}, err
	}

	done, err := s.engine.ToggleEntry(h.ID, day)
	if err != nil {
		return nil, toggleEntryOutput{}, fmt.Errorf("failed to toggle entry: %w", err)
	}

	verb := "Unmarked"
	if done {
		verb = "Marked"
	}
	return nil, toggleEntryOutput{
		HabitID:   h.ID,
		Date:      day,
		Completed: done,
		Message:   fmt.Sprintf("%s %q for %s", verb, h.Name, day),
	}, nil
}

func (s *Server) handleHabitStats(ctx context.Context, req *mcp.CallToolRequest, input habitRefInput) (*mcp.CallToolResult, models.HabitStats, error) {
	h, err := s.engine.FindHabit(input.Habit)
	if err != nil {
		return nil, models.HabitStats{}, err
	}
	st, err := s.engine.Stats(h.ID)
	if err != nil {
		return nil, models.HabitStats{}, err
	}
	return nil, st, nil
}

func (s *Server) handleDeleteHabit(ctx context.Context, req *mcp.CallToolRequest, input habitRefInput) (*mcp.CallToolResult, simpleOutput, error) {
	h, err := s.engine.FindHabit(input.Habit)
	if err != nil {
		return nil, simpleOutput{}, err
	}
	if err := s.engine.DeleteHabit(h.ID); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to delete habit: %w", err)
	}
	return nil, simpleOutput{Message: fmt.Sprintf("Deleted habit %q", h.Name)}, nil
}
