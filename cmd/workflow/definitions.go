package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	cli "github.com/urfave/cli/v3"

	"github.com/Concave-Streak/WorkflowEngine/pkg/cmd"
	"github.com/Concave-Streak/WorkflowEngine/pkg/log"
	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
	"github.com/Concave-Streak/WorkflowEngine/pkg/services"
	"github.com/Concave-Streak/WorkflowEngine/pkg/web"
)

// ErrInvalidDefinitions is returned when at least one document failed
// validation.
var ErrInvalidDefinitions = errors.New("invalid definitions found")

func NewDefinitionsCommand() *cli.Command {
	return &cli.Command{
		Name:    "definitions",
		Aliases: []string{"d"},
		Usage:   "Validate and import workflow definition documents",
		Commands: []*cli.Command{
			newValidateCommand(),
			newImportCommand(),
		},
	}
}

func newValidateCommand() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Check definition documents without importing them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to a definition document or an array of documents",
				Required: true,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			documents, err := readDefinitionDocuments(command.String("file"))
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(os.Stdout, "Definition Validation Results:")
			_, _ = fmt.Fprintln(os.Stdout, "==============================")

			invalid := 0

			for i, raw := range documents {
				_, _ = fmt.Fprintf(os.Stdout, "\nDefinition: %s\n", documentLabel(raw, i))

				messages := validateDocument(raw)
				if len(messages) == 0 {
					_, _ = fmt.Fprintln(os.Stdout, "  VALID")

					continue
				}

				invalid++

				for _, message := range messages {
					_, _ = fmt.Fprintf(os.Stdout, "  INVALID: %s\n", message)
				}
			}

			_, _ = fmt.Fprintf(os.Stdout, "\nValidation Summary:\n")
			_, _ = fmt.Fprintf(os.Stdout, "  Total definitions: %d\n", len(documents))
			_, _ = fmt.Fprintf(os.Stdout, "  Valid definitions: %d\n", len(documents)-invalid)
			_, _ = fmt.Fprintf(os.Stdout, "  Invalid definitions: %d\n", invalid)

			if invalid > 0 {
				return fmt.Errorf("%w: %d", ErrInvalidDefinitions, invalid)
			}

			return nil
		},
	}
}

func newImportCommand() *cli.Command {
	return &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Validate definition documents and create them; nothing is imported unless every document is valid",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to a definition document or an array of documents",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), "text")

			logger := log.WithModule("workflow").With("action", "import")

			documents, err := readDefinitionDocuments(command.String("file"))
			if err != nil {
				return err
			}

			invalid := 0

			for i, raw := range documents {
				if messages := validateDocument(raw); len(messages) > 0 {
					invalid++

					for _, message := range messages {
						_, _ = fmt.Fprintf(os.Stdout, "INVALID %s: %s\n", documentLabel(raw, i), message)
					}
				}
			}

			if invalid > 0 {
				return fmt.Errorf("%w: %d", ErrInvalidDefinitions, invalid)
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

			definitionService := services.NewDefinition(persistence, nil, logger)

			for _, raw := range documents {
				var request web.CreateDefinitionRequest
				if err := json.Unmarshal(raw, &request); err != nil {
					return err
				}

				created, err := definitionService.Create(ctx, request.Name, request.Description, request.ToStates(), request.ToActions())
				if err != nil {
					return fmt.Errorf("failed to import definition '%s': %w", request.Name, err)
				}

				_, _ = fmt.Fprintf(os.Stdout, "Imported %s (%s)\n", created.Name, created.ID)
			}

			return nil
		},
	}
}

// validateDocument layers the three checks an imported document must pass:
// JSON Schema shape, struct field rules and state machine semantics.
func validateDocument(raw json.RawMessage) []string {
	messages, err := models.ValidateDefinitionDocument(raw)
	if err != nil {
		return []string{err.Error()}
	}

	if len(messages) > 0 {
		return messages
	}

	var request web.CreateDefinitionRequest
	if err := json.Unmarshal(raw, &request); err != nil {
		return []string{err.Error()}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(request); err != nil {
		return []string{err.Error()}
	}

	return models.ValidateStateMachine(request.ToStates(), request.ToActions())
}

// readDefinitionDocuments reads a file containing either a single definition
// document or an array of them.
func readDefinitionDocuments(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var documents []json.RawMessage
		if err := json.Unmarshal(trimmed, &documents); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		return documents, nil
	}

	return []json.RawMessage{trimmed}, nil
}

func documentLabel(raw json.RawMessage, index int) string {
	var header struct {
		Name string `json:"name"`
	}

	if err := json.Unmarshal(raw, &header); err == nil && header.Name != "" {
		return header.Name
	}

	return fmt.Sprintf("document %d", index+1)
}
