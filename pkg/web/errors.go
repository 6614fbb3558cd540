package web

import (
	"errors"

	"github.com/Concave-Streak/WorkflowEngine/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// ValidationProblem is an RFC 7807 problem carrying the individual
// validation messages alongside the standard members.
type ValidationProblem struct {
	problems.Problem

	Errors []string `json:"errors,omitempty"`
}

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func validationFailed(c fiber.Ctx, detail string, messages []string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(ValidationProblem{
		Problem: *problem,
		Errors:  messages,
	})
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func unprocessable(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(422).
		WithInstance(c.Path()).
		WithType("invalid_transition").
		WithDetail(detail)

	return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors:
// validation failures map to 400, rejected transitions to 422, missing
// resources to 404 and definition integrity faults to 500.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationFailed(err):
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			return validationFailed(c, validationErr.Error(), validationErr.Messages)
		}

		return badRequest(c, err.Error())

	case services.IsInvalidTransition(err):
		return unprocessable(c, err.Error())

	case services.IsNotFound(err):
		return notFound(c, err.Error())

	case services.IsInvalidState(err):
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("invalid_state").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)

	default:
		return internalError(c, err)
	}
}
