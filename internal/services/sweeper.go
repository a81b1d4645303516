package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventbooking/internal/clock"
	"eventbooking/internal/domain"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the expiry sweep once a minute.
const DefaultSweepSchedule = "@every 1m"

// ExpirySweeper expires past-dated events on demand and on a cron schedule.
type ExpirySweeper struct {
	eventRepo      domain.EventRepository
	notifier       domain.Notifier
	clock          clock.Clock
	logger         *slog.Logger
	contextTimeout time.Duration
	cron           *cron.Cron
}

func NewExpirySweeper(
	eventRepo domain.EventRepository,
	notifier domain.Notifier,
	clk clock.Clock,
	logger *slog.Logger,
	timeout time.Duration,
) *ExpirySweeper {
	return &ExpirySweeper{
		eventRepo:      eventRepo,
		notifier:       notifier,
		clock:          clk,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// SweepExpired moves every non-deleted Pending/Approved event dated before now
// to Expired and returns how many moved. Running it twice is harmless.
func (s *ExpirySweeper) SweepExpired(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	now := s.clock.Now()
	ids, err := s.eventRepo.MarkExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("mark expired: %w", err)
	}
	if len(ids) > 0 {
		s.logger.InfoContext(ctx, "events expired", "count", len(ids))
	}
	if s.notifier != nil {
		for _, id := range ids {
			msg := domain.EventStatusChanged{EventID: id, To: domain.EventStatusExpired, ChangedAt: now}
			if err := s.notifier.PublishStatusChanged(ctx, msg); err != nil {
				s.logger.WarnContext(ctx, "publish status change failed", "event_id", id, "to", msg.To, "err", err)
			}
		}
	}
	return len(ids), nil
}

// Start schedules SweepExpired. An empty schedule uses DefaultSweepSchedule.
// Overlapping runs are skipped.
func (s *ExpirySweeper) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	logger := cronLogger{logger: s.logger}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger)))
	if _, err := c.AddFunc(schedule, func() {
		if _, err := s.SweepExpired(context.Background()); err != nil {
			s.logger.Error("expiry sweep failed", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule expiry sweep %q: %w", schedule, err)
	}
	s.cron = c
	c.Start()
	s.logger.Info("expiry sweeper started", "schedule", schedule)
	return nil
}

// cronLogger sends cron's scheduler messages, including skipped overlapping
// runs, to slog.
type cronLogger struct {
	logger *slog.Logger
}

// Info logs scheduler chatter (wake, run, schedule) at debug; a skipped run is a warning.
func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	level := slog.LevelDebug
	if msg == "skip" {
		level = slog.LevelWarn
	}
	l.logger.Log(context.Background(), level, "cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *ExpirySweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
