package scheduler

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yn6733212/Market-Snapshot/internal/logging"
	"github.com/yn6733212/Market-Snapshot/internal/model"
	"github.com/yn6733212/Market-Snapshot/internal/notifier"
	"github.com/yn6733212/Market-Snapshot/internal/recorder"
)

// DefaultReportCron runs every quarter hour from 08:00 to 23:45.
const DefaultReportCron = "0 */15 8-23 * * *"

// Telegram rejects messages over 4096 characters.
const maxPreviewRunes = 3900

// Runner executes and previews the market snapshot.
type Runner interface {
	Run(ctx context.Context, now time.Time) model.RunResult
	Preview(ctx context.Context, now time.Time) (*model.Report, error)
}

// Scheduler manages the report cron and operator commands. At most one run
// is in flight; overlapping triggers are skipped.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   Runner
	Recorder recorder.Recorder
	Log      *logrus.Logger
	Ctx      context.Context
	Now      func() time.Time

	running sync.Mutex
}

// NewScheduler creates a Scheduler whose cron expressions are read in loc.
func NewScheduler(ctx context.Context, runner Runner, rec recorder.Recorder, loc *time.Location, log *logrus.Logger) *Scheduler {
	if log == nil {
		log = logging.Discard()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Runner:   runner,
		Recorder: rec,
		Log:      log,
		Ctx:      ctx,
		Now:      time.Now,
	}
}

// RegisterAll registers the report task.
func (s *Scheduler) RegisterAll(reportCron string) error {
	if reportCron == "" {
		reportCron = DefaultReportCron
	}
	if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("Scheduler started")
}

// Stop stops the cron scheduler and waits for a running report to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info("Scheduler stopped")
}

// RunNow executes the report immediately. ok is false when another run was
// already in progress and nothing was done.
func (s *Scheduler) RunNow() (res model.RunResult, ok bool) {
	if !s.running.TryLock() {
		s.Log.Warn("Report run already in progress, skipping")
		return model.RunResult{}, false
	}
	defer s.running.Unlock()
	return s.Runner.Run(s.Ctx, s.Now()), true
}

func (s *Scheduler) reportTask() {
	s.Log.Debug("Running scheduled report")
	s.RunNow()
}

// HandleCommand processes an operator command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	cmd, _, _ := strings.Cut(strings.TrimSpace(command), "@")
	switch strings.ToLower(cmd) {
	case "/report":
		res, ok := s.RunNow()
		if !ok {
			return "⏳ A report run is already in progress"
		}
		return notifier.FormatRunResult(res)
	case "/preview":
		rep, err := s.Runner.Preview(ctx, s.Now())
		if err != nil {
			return fmt.Sprintf("❌ Preview failed: %s", html.EscapeString(err.Error()))
		}
		return truncate(html.EscapeString(rep.Text()), maxPreviewRunes)
	case "/status":
		runs, err := s.Recorder.RecentRuns(10)
		if err != nil {
			s.Log.WithError(err).Error("Read run journal failed")
			return fmt.Sprintf("❌ Journal unavailable: %s", html.EscapeString(err.Error()))
		}
		return notifier.FormatStatus(runs)
	default:
		return notifier.FormatHelp()
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
