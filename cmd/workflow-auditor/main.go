package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/Concave-Streak/WorkflowEngine/pkg/cmd"
	"github.com/Concave-Streak/WorkflowEngine/pkg/log"
	"github.com/Concave-Streak/WorkflowEngine/pkg/otelhelper"
)

func main() {
	app := &cli.Command{
		Name:                  "workflow-auditor",
		Usage:                 "Log every workflow lifecycle event as an audit trail",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "auditor-id",
				Aliases: []string{"id"},
				Usage:   "Custom auditor ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("AUDITOR_ID"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus provider (gochannel, kafka)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS"),
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
				Usage:   "Export OTLP traces for consumed events",
				Sources: cli.EnvVars("ENABLE_TRACING"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			auditorID := command.String("auditor-id")
			if auditorID == "" {
				auditorID = fmt.Sprintf("auditor-%s", uuid.New().String()[:8])
			}

			logger := log.WithModule("auditor").With("auditor_id", auditorID)

			logger.InfoContext(ctx, "Initializing workflow auditor")

			if command.Bool("enable-tracing") {
				if _, err := otelhelper.NewTracer(ctx, "workflow-auditor"); err != nil {
					return err
				}
			}

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), "workflow-auditor", logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			return NewAuditor(auditorID, eventBus, logger).Start(ctx)
		},
	}

	err := app.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
