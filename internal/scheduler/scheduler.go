package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/breadlog/internal/config"
	"github.com/mamadbah2/breadlog/internal/repository/kv"
	"github.com/mamadbah2/breadlog/internal/repository/ledger"
	"github.com/mamadbah2/breadlog/internal/repository/mongodb"
	"github.com/mamadbah2/breadlog/internal/service/export"
	"github.com/mamadbah2/breadlog/internal/service/reporting"
	"github.com/mamadbah2/breadlog/pkg/clients/webhook"
)

const jobTimeout = 2 * time.Minute

// Flusher persists open drafts.
type Flusher interface {
	FlushAll(ctx context.Context) error
}

// ReportSource builds the reports the jobs deliver.
type ReportSource interface {
	History(ctx context.Context, date string) (reporting.DayReport, error)
	Trend(ctx context.Context) (reporting.TrendReport, error)
}

// Publisher pushes a day report to a spreadsheet.
type Publisher interface {
	Publish(ctx context.Context, report reporting.DayReport) error
}

// Locker serializes the daily job across replicas sharing a backend.
type Locker interface {
	Lock(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error)
}

// Sinks are the optional report destinations. Nil members are skipped.
type Sinks struct {
	Archive   mongodb.ReportArchive
	Publisher Publisher
	Notifier  webhook.Client
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	drafts   Flusher
	reports  ReportSource
	sinks    Sinks
	locker   Locker
	cfg      config.ReportingConfig
	location *time.Location
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance running in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, drafts Flusher, reports ReportSource, sinks Sinks, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone: %w", err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		drafts:   drafts,
		reports:  reports,
		sinks:    sinks,
		cfg:      cfg,
		location: loc,
		logger:   logger,
	}, nil
}

// WithLocker makes RunDaily skip a day another replica is already reporting.
func (s *Scheduler) WithLocker(l Locker) *Scheduler {
	s.locker = l
	return s
}

// Start registers the daily and weekly jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("daily", s.cfg.CronSchedule),
		zap.String("weekly", s.cfg.WeeklyCronSchedule),
		zap.String("timezone", s.location.String()))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.job("daily report", s.RunDaily)); err != nil {
		return fmt.Errorf("schedule daily report: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.WeeklyCronSchedule, s.job("weekly trend", s.RunWeekly)); err != nil {
		return fmt.Errorf("schedule weekly trend: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) job(name string, run func(ctx context.Context, now time.Time) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if err := run(ctx, time.Now().In(s.location)); err != nil {
			s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Info("scheduled job finished", zap.String("job", name))
	}
}

// RunDaily saves open drafts, then archives, publishes and sends the report
// of the day containing now. A day without a saved ledger is skipped.
func (s *Scheduler) RunDaily(ctx context.Context, now time.Time) error {
	if err := s.drafts.FlushAll(ctx); err != nil {
		s.logger.Warn("some drafts were not saved before the daily report", zap.Error(err))
	}

	date := now.Format("2006-01-02")
	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, "daily-report:"+date, jobTimeout)
		switch {
		case errors.Is(err, kv.ErrLockHeld):
			s.logger.Info("daily report already running elsewhere", zap.String("date", date))
			return nil
		case err != nil:
			s.logger.Warn("could not obtain daily report lock, proceeding without it", zap.Error(err))
		default:
			defer func() {
				if err := unlock(context.Background()); err != nil {
					s.logger.Warn("failed to release daily report lock", zap.Error(err))
				}
			}()
		}
	}

	report, err := s.reports.History(ctx, date)
	if errors.Is(err, ledger.ErrNotFound) {
		s.logger.Info("no ledger saved today, skipping daily report", zap.String("date", date))
		return nil
	}
	if err != nil {
		return fmt.Errorf("build daily report %s: %w", date, err)
	}

	var errs []error
	if s.sinks.Archive != nil {
		if err := s.sinks.Archive.SaveDailyReport(ctx, reporting.ToDailyReport(report)); err != nil {
			errs = append(errs, fmt.Errorf("archive: %w", err))
		}
	}
	if s.sinks.Publisher != nil {
		if err := s.sinks.Publisher.Publish(ctx, report); err != nil {
			errs = append(errs, fmt.Errorf("sheets: %w", err))
		}
	}
	if s.sinks.Notifier != nil {
		subject := fmt.Sprintf("Produção de Pão Francês %s", date)
		if err := s.sinks.Notifier.SendReport(ctx, subject, export.Text(report)); err != nil {
			errs = append(errs, fmt.Errorf("webhook: %w", err))
		}
	}
	return errors.Join(errs...)
}

// RunWeekly sends the trend advisories of the last seven saved days.
func (s *Scheduler) RunWeekly(ctx context.Context, now time.Time) error {
	if s.sinks.Notifier == nil {
		s.logger.Debug("no notifier configured, skipping weekly trend")
		return nil
	}

	report, err := s.reports.Trend(ctx)
	if err != nil {
		return fmt.Errorf("build weekly trend: %w", err)
	}

	subject := fmt.Sprintf("Tendência semanal %s", now.Format("2006-01-02"))
	if err := s.sinks.Notifier.SendReport(ctx, subject, export.TrendText(report)); err != nil {
		return fmt.Errorf("send weekly trend: %w", err)
	}
	return nil
}
