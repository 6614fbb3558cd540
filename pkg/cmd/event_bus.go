// Package cmd provides common initialization functions for the workflow
// binaries: persistence from a database URL, the event bus from a provider
// name and the per-instance lock guard.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/Concave-Streak/WorkflowEngine/pkg/channels/gochannel"
	"github.com/Concave-Streak/WorkflowEngine/pkg/channels/kafka"
	"github.com/Concave-Streak/WorkflowEngine/pkg/eventbus"
)

// NewEventBus creates an event bus for the given provider. The gochannel
// provider stays inside the process; kafka crosses process boundaries and
// uses serviceName for the consumer group.
func NewEventBus(provider, serviceName string, logger *slog.Logger) (eventbus.EventBus, error) {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	case "", "gochannel":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create GoChannel pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}
