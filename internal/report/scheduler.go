package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/reflectai/reflectai/internal/models"
	"github.com/reflectai/reflectai/internal/notify"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule reports whether expr is a usable 5-field cron expression.
func ValidateSchedule(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("report: schedule %q: %w", expr, err)
	}
	return nil
}

// SchedulerOpts configures a Scheduler.
type SchedulerOpts struct {
	Generator *Generator
	Notifier  notify.Notifier // nil means no delivery
	OwnerID   string
	Schedule  string
	Logger    *zap.Logger
}

// Scheduler generates and delivers reports on a cron schedule.
type Scheduler struct {
	gen      *Generator
	notifier notify.Notifier
	ownerID  string
	schedule string
	log      *zap.Logger
}

// NewScheduler validates opts and creates a Scheduler.
func NewScheduler(opts SchedulerOpts) (*Scheduler, error) {
	if opts.Generator == nil {
		return nil, fmt.Errorf("report: generator is required")
	}
	if opts.OwnerID == "" {
		return nil, fmt.Errorf("report: owner is required")
	}
	if err := ValidateSchedule(opts.Schedule); err != nil {
		return nil, err
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Scheduler{
		gen:      opts.Generator,
		notifier: opts.Notifier,
		ownerID:  opts.OwnerID,
		schedule: opts.Schedule,
		log:      opts.Logger,
	}, nil
}

// Run fires RunOnce on every schedule tick until ctx is cancelled. Ticks
// that arrive while a previous run is still going are skipped.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Error("scheduled report failed", zap.String("owner", s.ownerID), zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("report: schedule: %w", err)
	}

	s.log.Info("report scheduler started",
		zap.String("owner", s.ownerID),
		zap.String("schedule", s.schedule),
		zap.String("notifier", s.notifier.Name()))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// RunOnce generates a report and delivers it. A delivery failure is
// returned but the report stays stored.
func (s *Scheduler) RunOnce(ctx context.Context) (*models.Report, error) {
	rep, err := s.gen.Generate(ctx, s.ownerID)
	if err != nil {
		return nil, err
	}
	if err := Deliver(ctx, s.notifier, rep); err != nil {
		return rep, err
	}
	return rep, nil
}

// Deliver sends a stored report through n.
func Deliver(ctx context.Context, n notify.Notifier, rep *models.Report) error {
	title, body := splitTitle(rep.Body)
	msg := notify.Message{
		Title: title,
		Body:  body,
		Color: "#36a64f",
		Fields: []notify.Field{
			{Name: "Owner", Value: rep.OwnerID, Short: true},
			{Name: "Summary by", Value: rep.Provider, Short: true},
		},
	}
	if err := n.Notify(ctx, msg); err != nil {
		return fmt.Errorf("report: deliver via %s: %w", n.Name(), err)
	}
	return nil
}

// splitTitle separates the leading "# " heading of a markdown body.
func splitTitle(body string) (string, string) {
	first, rest, _ := strings.Cut(body, "\n")
	if !strings.HasPrefix(first, "# ") {
		return "Weekly report", body
	}
	return strings.TrimPrefix(first, "# "), strings.TrimLeft(rest, "\n")
}
