package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/Concave-Streak/WorkflowEngine/pkg/cmd"
	"github.com/Concave-Streak/WorkflowEngine/pkg/log"
	"github.com/Concave-Streak/WorkflowEngine/pkg/metrics"
	"github.com/Concave-Streak/WorkflowEngine/pkg/otelhelper"
	"github.com/Concave-Streak/WorkflowEngine/pkg/services"
)

func main() {
	app := &cli.Command{
		Name:                  "workflow-scheduler",
		Usage:                 "Start workflow instances on their cron schedules",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "scheduler-id",
				Aliases: []string{"id"},
				Usage:   "Custom scheduler ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("SCHEDULER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				Usage:   "How often to check for due schedules",
				Value:   time.Minute,
				Sources: cli.EnvVars("POLL_INTERVAL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json, pretty)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
			&cli.BoolFlag{
				Name:    "enable-tracing",
				Usage:   "Export OTLP traces for scheduler operations",
				Sources: cli.EnvVars("ENABLE_TRACING"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			schedulerID := command.String("scheduler-id")
			if schedulerID == "" {
				schedulerID = fmt.Sprintf("scheduler-%s", uuid.New().String()[:8])
			}

			logger := log.WithModule("scheduler").With("scheduler_id", schedulerID)

			logger.InfoContext(ctx, "Initializing workflow scheduler")

			if command.Bool("enable-tracing") {
				if _, err := otelhelper.NewTracer(ctx, "workflow-scheduler"); err != nil {
					return err
				}
			}

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), "workflow-scheduler", logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			guard := cmd.NewGuard(persistence, logger)

			instanceService := services.NewInstance(persistence, eventBus, guard, logger)
			scheduleService := services.NewSchedule(persistence, logger)

			scheduler := NewScheduler(
				schedulerID,
				instanceService,
				scheduleService,
				eventBus,
				metrics.New(),
				logger,
				command.Duration("poll-interval"),
			)

			scheduler.Start(ctx)

			return nil
		},
	}

	err := app.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
