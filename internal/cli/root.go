package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/julianstephens/habitual/internal/app"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

// Context is passed to every command's Run method. Engine is nil for
// commands that do not touch habit data.
type Context struct {
	Ctx    context.Context
	Engine *app.Engine
	Config *config.Config
	Out    io.Writer
	In     io.Reader
}

func (c *Context) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Confirm asks a yes/no question on the context's input. Anything but
// y or yes declines.
func (c *Context) Confirm(prompt string) (bool, error) {
	in := c.In
	if in == nil {
		in = os.Stdin
	}
	fmt.Fprintf(c.out(), "%s [y/N]: ", prompt)
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(22)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#40c463"))

	missStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	faint = color.New(color.Faint)
)

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.out(), args...)
}

// Header prints a styled section title.
func (c *Context) Header(title string) {
	fmt.Fprintln(c.out(), headerStyle.Render(title))
}

// Field prints an aligned label/value row.
func (c *Context) Field(label string, value any) {
	fmt.Fprintf(c.out(), "  %s%v\n", labelStyle.Render(label), value)
}

func (c *Context) Success(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(c.out(), "✓ "+format+"\n", args...)
}

func (c *Context) Warn(format string, args ...any) {
	color.New(color.FgYellow).Fprintf(c.out(), "⚠ "+format+"\n", args...)
}

func (c *Context) Faint(s string) string {
	return faint.Sprint(s)
}

// Check renders a completion mark.
func Check(done bool) string {
	if done {
		return doneStyle.Render("■")
	}
	return missStyle.Render("□")
}

// FormatFrequency describes a habit's cadence for display.
func FormatFrequency(h models.Habit) string {
	switch h.Frequency {
	case models.FrequencyWeekly:
		if days := specificDays(h); len(days) > 0 {
			return "weekly on " + utils.FormatWeekdays(days)
		}
		return "weekly"
	case models.FrequencyCustom:
		if h.CustomFrequency != nil && h.CustomFrequency.DaysPerWeek != nil {
			return fmt.Sprintf("%d days per week", *h.CustomFrequency.DaysPerWeek)
		}
		if days := specificDays(h); len(days) > 0 {
			return "custom: " + utils.FormatWeekdays(days)
		}
		return "custom"
	default:
		return "daily"
	}
}

func specificDays(h models.Habit) []int {
	if h.CustomFrequency == nil {
		return nil
	}
	return h.CustomFrequency.SpecificDays
}

// ParseFrequency accepts daily, weekly or custom, case-insensitively.
func ParseFrequency(s string) (models.Frequency, error) {
	f := models.Frequency(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyCustom:
		return f, nil
	}
	return "", fmt.Errorf("invalid frequency %q (expected daily, weekly or custom)", s)
}

// MaskPassword hides the password in a postgres URL or DSN.
func MaskPassword(connStr string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		idx := strings.Index(connStr, "://")
		rest := connStr[idx+3:]
		if at := strings.LastIndex(rest, "@"); at != -1 {
			userInfo := rest[:at]
			if colon := strings.Index(userInfo, ":"); colon != -1 {
				return connStr[:idx+3] + userInfo[:colon] + ":****" + rest[at:]
			}
		}
		return connStr
	}

	parts := strings.Fields(connStr)
	for i, part := range parts {
		if strings.HasPrefix(part, "password=") {
			parts[i] = "password=****"
		}
	}
	return strings.Join(parts, " ")
}
