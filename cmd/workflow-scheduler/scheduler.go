// Package main provides the centralized schedule poller that starts workflow
// instances when their cron schedules come due.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Concave-Streak/WorkflowEngine/pkg/eventbus"
	"github.com/Concave-Streak/WorkflowEngine/pkg/events"
	"github.com/Concave-Streak/WorkflowEngine/pkg/metrics"
	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
	"github.com/Concave-Streak/WorkflowEngine/pkg/services"
)

const defaultPollInterval = time.Minute

// Scheduler polls for due schedules and starts one instance per firing. A
// single loop serves every schedule regardless of its cron expression, so
// adding schedules never adds timers.
type Scheduler struct {
	id              string
	instanceService *services.Instance
	scheduleService *services.Schedule
	publisher       eventbus.EventPublisher
	metrics         *metrics.Metrics
	logger          *slog.Logger
	interval        time.Duration
	restartCount    int
}

func NewScheduler(
	id string,
	instanceService *services.Instance,
	scheduleService *services.Schedule,
	publisher eventbus.EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	interval time.Duration,
) *Scheduler {
	if interval <= 0 {
		interval = defaultPollInterval
	}

	return &Scheduler{
		id:              id,
		instanceService: instanceService,
		scheduleService: scheduleService,
		publisher:       publisher,
		metrics:         m,
		logger:          logger.With("module", "scheduler"),
		interval:        interval,
	}
}

// Start begins the scheduler service and blocks until shutdown.
func (s *Scheduler) Start(ctx context.Context) {
	sCtx, cancel := context.WithCancel(ctx)

	s.logger.Info("Starting scheduler", "interval", s.interval)

	s.handleSignals(sCtx, cancel)
	s.run(sCtx)
}

// handleSignals sets up signal handling for graceful shutdown and restart.
func (s *Scheduler) handleSignals(ctx context.Context, cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signals
		s.logger.Info("Received signal", "signal", sig)

		switch sig {
		case syscall.SIGHUP:
			s.restart(ctx, cancel)
		case syscall.SIGINT, syscall.SIGTERM:
			s.logger.Info("Shutting down gracefully...")
			cancel()
			os.Exit(0)
		default:
			s.logger.Warn("Unhandled signal received", "signal", sig)
		}
	}()
}

// restart handles service restart with backoff.
func (s *Scheduler) restart(ctx context.Context, cancel context.CancelFunc) {
	s.restartCount++
	newCtx := context.WithoutCancel(ctx)

	cancel()

	if s.restartCount > 5 {
		s.logger.Error("Restart limit reached, exiting...")
		os.Exit(1)
	}

	backoff := time.Duration(s.restartCount) * time.Second
	s.logger.Info("Restarting scheduler...", "backoff", backoff)
	time.Sleep(backoff)

	s.Start(newCtx)
}

// run is the poll loop.
func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler context cancelled, stopping...")

			return
		case <-ticker.C:
			s.processDueSchedules(ctx)
		}
	}
}

// processDueSchedules fires every due schedule once. A broken schedule is
// logged and skipped so it cannot stall the rest; it stays due and is
// retried on the next tick.
func (s *Scheduler) processDueSchedules(ctx context.Context) {
	now := time.Now().UTC()

	due, err := s.scheduleService.Due(ctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to fetch due schedules", "error", err)

		return
	}

	if len(due) > 0 {
		s.logger.InfoContext(ctx, "Processing due schedules", "count", len(due))
	}

	for _, schedule := range due {
		s.fire(ctx, schedule)
	}
}

// fire starts an instance for one due schedule and advances its next due
// time past now, then announces the firing.
func (s *Scheduler) fire(ctx context.Context, schedule *models.Schedule) {
	instance, err := s.instanceService.Start(ctx, schedule.DefinitionID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to start scheduled instance",
			"schedule_id", schedule.ID,
			"definition_id", schedule.DefinitionID,
			"error", err)

		return
	}

	if err := s.scheduleService.Advance(ctx, schedule); err != nil {
		s.logger.ErrorContext(ctx, "Failed to advance schedule",
			"schedule_id", schedule.ID,
			"error", err)

		return
	}

	s.publishTriggered(ctx, schedule, instance)
	s.metrics.SchedulesTriggered.Inc()

	s.logger.InfoContext(ctx, "Schedule fired",
		"schedule_id", schedule.ID,
		"instance_id", instance.ID,
		"next_due_at", schedule.NextDueAt)
}

func (s *Scheduler) publishTriggered(ctx context.Context, schedule *models.Schedule, instance *models.WorkflowInstance) {
	if s.publisher == nil {
		return
	}

	event := events.ScheduleTriggered{
		BaseEvent:  events.NewBaseEvent(events.ScheduleTriggeredEvent, schedule.DefinitionID),
		ScheduleID: schedule.ID,
		InstanceID: instance.ID,
	}

	if err := s.publisher.Publish(ctx, schedule.DefinitionID, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish schedule triggered event",
			"schedule_id", schedule.ID,
			"error", err)
	}
}
