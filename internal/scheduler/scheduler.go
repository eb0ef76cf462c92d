package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/shiftlog/internal/config"
	"github.com/mamadbah2/shiftlog/internal/domain/models"
	"github.com/mamadbah2/shiftlog/internal/metrics"
)

// Job names reported in metrics and logs.
const (
	JobWeeklyReport = "weekly_report"
	JobSheetMirror  = "sheet_mirror"
)

// Reporter produces the periodic digests.
type Reporter interface {
	GenerateWeeklyReport(ctx context.Context, now time.Time) (string, error)
	MirrorToSheet(ctx context.Context, day time.Time) (int, error)
}

// Notifier delivers the weekly digest.
type Notifier interface {
	Enabled() bool
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) (string, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	reporter Reporter
	notifier Notifier
	cfg      config.Config
	loc      *time.Location
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance running in the configured timezone.
func NewScheduler(cfg config.Config, reporter Reporter, notifier Notifier, m *metrics.Metrics, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := cfg.Reporting.Location()
	if err != nil {
		return nil, fmt.Errorf("scheduler timezone: %w", err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		reporter: reporter,
		notifier: notifier,
		cfg:      cfg,
		loc:      loc,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start registers the enabled jobs and starts the cron loop.
// The weekly report needs WhatsApp, the mirror needs Google Sheets.
func (s *Scheduler) Start() error {
	if s.notifier != nil && s.notifier.Enabled() {
		if _, err := s.cron.AddFunc(s.cfg.Reporting.CronSchedule, s.job(JobWeeklyReport, 2*time.Minute, s.RunWeeklyReport)); err != nil {
			return fmt.Errorf("schedule weekly report %q: %w", s.cfg.Reporting.CronSchedule, err)
		}
		s.logger.Info("weekly report scheduled", zap.String("cron", s.cfg.Reporting.CronSchedule))
	} else {
		s.logger.Warn("whatsapp disabled, weekly report not scheduled")
	}

	if s.cfg.Sheets.Enabled() {
		if _, err := s.cron.AddFunc(s.cfg.Sheets.SyncSchedule, s.job(JobSheetMirror, 5*time.Minute, s.RunSheetMirror)); err != nil {
			return fmt.Errorf("schedule sheet mirror %q: %w", s.cfg.Sheets.SyncSchedule, err)
		}
		s.logger.Info("sheet mirror scheduled", zap.String("cron", s.cfg.Sheets.SyncSchedule))
	}

	s.logger.Info("starting scheduler", zap.String("timezone", s.loc.String()), zap.Int("jobs", len(s.cron.Entries())))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// RunWeeklyReport builds the weekly digest and sends it to the report recipient.
func (s *Scheduler) RunWeeklyReport(ctx context.Context) error {
	report, err := s.reporter.GenerateWeeklyReport(ctx, s.now().In(s.loc))
	if err != nil {
		return fmt.Errorf("generate weekly report: %w", err)
	}

	id, err := s.notifier.SendOutbound(ctx, models.OutboundMessageRequest{Message: report})
	if err != nil {
		return fmt.Errorf("send weekly report: %w", err)
	}

	s.logger.Info("weekly report sent", zap.String("message_id", id))
	return nil
}

// RunSheetMirror copies today's records to the spreadsheet.
func (s *Scheduler) RunSheetMirror(ctx context.Context) error {
	n, err := s.reporter.MirrorToSheet(ctx, s.now().In(s.loc))
	if err != nil {
		return err
	}
	s.logger.Info("sheet mirror finished", zap.Int("rows", n))
	return nil
}

func (s *Scheduler) job(name string, timeout time.Duration, run func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := run(ctx)
		s.metrics.JobRun(name, err)
		if err != nil {
			s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
		}
	}
}
