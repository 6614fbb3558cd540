// Package web provides HTTP handlers and REST API endpoints for workflow
// definitions, instances and schedules.
package web

import (
	"net/http"
	"time"

	"github.com/Concave-Streak/WorkflowEngine/pkg/metrics"
	"github.com/Concave-Streak/WorkflowEngine/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	definitionService *services.Definition
	instanceService   *services.Instance
	scheduleService   *services.Schedule
	validator         *validator.Validate
	metrics           *metrics.Metrics
}

func NewAPIHandlers(
	definitionService *services.Definition,
	instanceService *services.Instance,
	scheduleService *services.Schedule,
	validator *validator.Validate,
	metrics *metrics.Metrics,
) *APIHandlers {
	return &APIHandlers{
		definitionService: definitionService,
		instanceService:   instanceService,
		scheduleService:   scheduleService,
		validator:         validator,
		metrics:           metrics,
	}
}

func (h *APIHandlers) CreateDefinition(c fiber.Ctx) error {
	var req CreateDefinitionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.definitionService.Create(c.Context(), req.Name, req.Description, req.ToStates(), req.ToActions())
	if err != nil {
		return handleServiceError(c, err)
	}

	h.metrics.DefinitionsCreated.Inc()

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetDefinitions(c fiber.Ctx) error {
	definitions, err := h.definitionService.FetchAll(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(definitions)
}

func (h *APIHandlers) GetDefinition(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Definition ID is required")
	}

	definition, err := h.definitionService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(definition)
}

func (h *APIHandlers) StartInstance(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Definition ID is required")
	}

	instance, err := h.instanceService.Start(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	h.metrics.InstancesStarted.Inc()

	return c.Status(fiber.StatusCreated).JSON(instance)
}

func (h *APIHandlers) GetInstances(c fiber.Ctx) error {
	instances, err := h.instanceService.FetchAll(c.Context(), c.Query("definitionId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(instances)
}

func (h *APIHandlers) GetInstance(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	instance, err := h.instanceService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(instance)
}

func (h *APIHandlers) ExecuteAction(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	var req ExecuteActionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	start := time.Now()

	instance, err := h.instanceService.ExecuteAction(c.Context(), id, req.ActionID)

	h.metrics.TransitionDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if services.IsInvalidTransition(err) {
			h.metrics.Transitions.WithLabelValues(metrics.ResultRejected).Inc()
		}

		return handleServiceError(c, err)
	}

	h.metrics.Transitions.WithLabelValues(metrics.ResultExecuted).Inc()

	return c.JSON(instance)
}

func (h *APIHandlers) CreateSchedule(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Definition ID is required")
	}

	var req CreateScheduleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	schedule, err := h.scheduleService.Create(c.Context(), id, req.CronExpression)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(schedule)
}

func (h *APIHandlers) GetSchedules(c fiber.Ctx) error {
	schedules, err := h.scheduleService.FetchAll(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(schedules)
}

func (h *APIHandlers) GetSchedule(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Schedule ID is required")
	}

	schedule, err := h.scheduleService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(schedule)
}

func (h *APIHandlers) DeleteSchedule(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Schedule ID is required")
	}

	if err := h.scheduleService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.definitionService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Workflow engine API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		message = "Workflow engine API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
