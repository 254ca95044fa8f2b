package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/gestock/internal/config"
	"github.com/mamadbah2/gestock/internal/service/reporting"
	"github.com/mamadbah2/gestock/pkg/clients/notifier"
)

// Scheduler runs the recurring inventory export.
type Scheduler struct {
	cron         *cron.Cron
	reportingSvc *reporting.Service
	notifier     notifier.Client
	cfg          config.Config
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance. The notifier may be nil when
// no webhook is configured.
func NewScheduler(cfg config.Config, reportingSvc *reporting.Service, notifierClient notifier.Client, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:         cron.New(),
		reportingSvc: reportingSvc,
		notifier:     notifierClient,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start registers the export job on the configured cron expression and starts
// the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.Reporting.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.Reporting.CronSchedule, s.exportDailyReport); err != nil {
		s.logger.Error("failed to schedule report export", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

// exportDailyReport writes yesterday's inventory report and, when a webhook
// is configured, publishes a summary of it.
func (s *Scheduler) exportDailyReport() {
	s.logger.Info("generating scheduled inventory export")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	yesterday := time.Now().AddDate(0, 0, -1)
	start := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, yesterday.Location())
	end := start.Add(24*time.Hour - time.Second)

	path, err := s.reportingSvc.Export(start, end, s.cfg.Reporting.ExportDir)
	if err != nil {
		s.logger.Error("failed to export scheduled report", zap.Error(err))
		return
	}

	if s.notifier == nil {
		return
	}

	notification := notifier.ReportNotification{
		Start:   start.Format("2006-01-02"),
		End:     end.Format("2006-01-02"),
		File:    path,
		Summary: s.reportingSvc.Summary(start, end),
	}

	if err := s.notifier.PublishReport(ctx, notification); err != nil {
		s.logger.Error("failed to publish report notification", zap.Error(err))
	} else {
		s.logger.Info("report notification sent", zap.String("file", path))
	}
}
