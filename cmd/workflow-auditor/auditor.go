// Package main provides the audit trail consumer that logs every workflow
// lifecycle event.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Concave-Streak/WorkflowEngine/pkg/eventbus"
	"github.com/Concave-Streak/WorkflowEngine/pkg/events"
)

// Auditor subscribes to the full lifecycle event stream and writes one
// structured log line per event. It keeps no state of its own; the log is
// the product.
type Auditor struct {
	id       string
	eventBus eventbus.EventBus
	logger   *slog.Logger
}

func NewAuditor(id string, eventBus eventbus.EventBus, logger *slog.Logger) *Auditor {
	return &Auditor{
		id:       id,
		eventBus: eventBus,
		logger:   logger.With("module", "auditor"),
	}
}

// Start begins consuming events and blocks until shutdown.
func (a *Auditor) Start(ctx context.Context) error {
	aCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.logger.Info("Starting auditor")

	a.handleSignals(cancel)

	if err := a.registerHandlers(); err != nil {
		return err
	}

	if err := a.eventBus.Subscribe(aCtx); err != nil {
		return err
	}

	a.logger.Info("Auditor subscribed - waiting for events...")

	<-aCtx.Done()
	a.logger.Info("Auditor context cancelled, stopping...")

	return nil
}

// handleSignals sets up signal handling for graceful shutdown.
func (a *Auditor) handleSignals(cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signals
		a.logger.Info("Received signal", "signal", sig)
		cancel()
	}()
}

func (a *Auditor) registerHandlers() error {
	handlers := map[events.EventType]eventbus.EventHandler{
		events.DefinitionCreatedEvent:  a.onDefinitionCreated,
		events.InstanceStartedEvent:    a.onInstanceStarted,
		events.TransitionExecutedEvent: a.onTransitionExecuted,
		events.TransitionFailedEvent:   a.onTransitionFailed,
		events.ScheduleTriggeredEvent:  a.onScheduleTriggered,
	}

	for eventType, handler := range handlers {
		if err := a.eventBus.Handle(eventType, handler); err != nil {
			return fmt.Errorf("failed to register handler for %s: %w", eventType, err)
		}
	}

	return nil
}

func (a *Auditor) onDefinitionCreated(ctx context.Context, event any) error {
	created, ok := event.(*events.DefinitionCreated)
	if !ok {
		return fmt.Errorf("unexpected payload for %s: %T", events.DefinitionCreatedEvent, event)
	}

	a.logger.InfoContext(ctx, "Definition created",
		"event_id", created.ID,
		"definition_id", created.DefinitionID,
		"name", created.Name,
		"states", created.StateCount,
		"actions", created.ActionCount)

	return nil
}

func (a *Auditor) onInstanceStarted(ctx context.Context, event any) error {
	started, ok := event.(*events.InstanceStarted)
	if !ok {
		return fmt.Errorf("unexpected payload for %s: %T", events.InstanceStartedEvent, event)
	}

	a.logger.InfoContext(ctx, "Instance started",
		"event_id", started.ID,
		"definition_id", started.DefinitionID,
		"instance_id", started.InstanceID,
		"current_state_id", started.CurrentStateID)

	return nil
}

func (a *Auditor) onTransitionExecuted(ctx context.Context, event any) error {
	executed, ok := event.(*events.TransitionExecuted)
	if !ok {
		return fmt.Errorf("unexpected payload for %s: %T", events.TransitionExecutedEvent, event)
	}

	a.logger.InfoContext(ctx, "Transition executed",
		"event_id", executed.ID,
		"definition_id", executed.DefinitionID,
		"instance_id", executed.InstanceID,
		"action_id", executed.ActionID,
		"from_state_id", executed.FromStateID,
		"to_state_id", executed.ToStateID,
		"executed_at", executed.ExecutedAt)

	return nil
}

func (a *Auditor) onTransitionFailed(ctx context.Context, event any) error {
	failed, ok := event.(*events.TransitionFailed)
	if !ok {
		return fmt.Errorf("unexpected payload for %s: %T", events.TransitionFailedEvent, event)
	}

	a.logger.WarnContext(ctx, "Transition rejected",
		"event_id", failed.ID,
		"definition_id", failed.DefinitionID,
		"instance_id", failed.InstanceID,
		"action_id", failed.ActionID,
		"error", failed.Error)

	return nil
}

func (a *Auditor) onScheduleTriggered(ctx context.Context, event any) error {
	triggered, ok := event.(*events.ScheduleTriggered)
	if !ok {
		return fmt.Errorf("unexpected payload for %s: %T", events.ScheduleTriggeredEvent, event)
	}

	a.logger.InfoContext(ctx, "Schedule triggered",
		"event_id", triggered.ID,
		"definition_id", triggered.DefinitionID,
		"schedule_id", triggered.ScheduleID,
		"instance_id", triggered.InstanceID)

	return nil
}
