package system

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/reminder"
)

type RemindersCmd struct {
	Run  RemindersRunCmd  `cmd:"" help:"Schedule every reminder and deliver them until interrupted."`
	Test RemindersTestCmd `cmd:"" help:"Send a test notification."`
	List RemindersListCmd `cmd:"" help:"List scheduled reminders."`
}

// RemindersRunCmd keeps the process alive so the reminder backend can fire.
type RemindersRunCmd struct{}

func (c *RemindersRunCmd) Run(ctx *cli.Context) error {
	if !ctx.Engine.Settings().Notifications {
		return errors.New("notifications are disabled; enable them with 'habitual settings set notifications true'")
	}
	if !ctx.Engine.RescheduleAll(ctx.Context()) {
		ctx.Warn("Some reminders could not be scheduled. Is the tray app running?")
	}

	scheduled := ctx.Engine.Scheduled()
	ctx.Success("%d reminders scheduled", len(scheduled))
	printScheduled(ctx, scheduled)

	runCtx, stop := signal.NotifyContext(ctx.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info("reminder loop started", "count", len(scheduled))
	<-runCtx.Done()
	logger.Info("reminder loop stopped")
	return nil
}

type RemindersTestCmd struct {
	Delayed bool `help:"Schedule the test notification a few seconds from now instead of sending it immediately."`
}

func (c *RemindersTestCmd) Run(ctx *cli.Context) error {
	if !c.Delayed {
		if !ctx.Engine.SendTest(ctx.Context()) {
			return errors.New("test notification was not delivered (notifications disabled or unavailable)")
		}
		ctx.Success("Test notification sent")
		return nil
	}

	delay := constants.DefaultTestDelay
	if !ctx.Engine.SendTestAfter(ctx.Context(), delay) {
		return errors.New("test notification was not scheduled (notifications disabled or unavailable)")
	}
	ctx.Success("Test notification scheduled in %s", delay)

	select {
	case <-time.After(delay + time.Second):
	case <-ctx.Context().Done():
	}
	return nil
}

// RemindersListCmd arms the reminders in this process to report their next
// trigger times; they are released when the command exits.
type RemindersListCmd struct{}

func (c *RemindersListCmd) Run(ctx *cli.Context) error {
	if !ctx.Engine.Settings().Notifications {
		ctx.Println("Notifications are disabled.")
		return nil
	}
	ctx.Engine.RescheduleAll(ctx.Context())

	scheduled := ctx.Engine.Scheduled()
	if len(scheduled) == 0 {
		ctx.Println("No reminders scheduled.")
		return nil
	}
	ctx.Header("Upcoming reminders")
	printScheduled(ctx, scheduled)
	return nil
}

func printScheduled(ctx *cli.Context, scheduled []reminder.Scheduled) {
	for _, s := range scheduled {
		name := s.HabitID
		if h, err := ctx.Engine.Habit(s.HabitID); err == nil {
			name = h.Name
		}
		ctx.Printf("  %s  %-24s %s\n", s.Next.Format("Mon 2006-01-02 15:04"), name, ctx.Faint(string(s.Handle)))
	}
}
