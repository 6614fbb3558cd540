// Package main provides the workflow engine API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/Concave-Streak/WorkflowEngine/pkg/eventbus"
	"github.com/Concave-Streak/WorkflowEngine/pkg/locks"
	"github.com/Concave-Streak/WorkflowEngine/pkg/metrics"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
	"github.com/Concave-Streak/WorkflowEngine/pkg/services"
	"github.com/Concave-Streak/WorkflowEngine/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	guard       *locks.Guard
	metrics     *metrics.Metrics
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	guard *locks.Guard,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		guard:       guard,
		metrics:     metrics.New(),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	definitionService := services.NewDefinition(a.persistence, a.eventBus, a.logger)
	instanceService := services.NewInstance(a.persistence, a.eventBus, a.guard, a.logger)
	scheduleService := services.NewSchedule(a.persistence, a.logger)

	handlers := web.NewAPIHandlers(definitionService, instanceService, scheduleService, a.validate, a.metrics)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Workflow Engine API")
	})

	d := app.Group("/definitions")
	d.Get("/", handlers.GetDefinitions)
	d.Post("/", handlers.CreateDefinition)
	d.Get("/:id", handlers.GetDefinition)
	d.Post("/:id/instances", handlers.StartInstance)
	d.Post("/:id/schedules", handlers.CreateSchedule)

	i := app.Group("/instances")
	i.Get("/", handlers.GetInstances)
	i.Get("/:id", handlers.GetInstance)
	i.Post("/:id/actions", handlers.ExecuteAction)

	s := app.Group("/schedules")
	s.Get("/", handlers.GetSchedules)
	s.Get("/:id", handlers.GetSchedule)
	s.Delete("/:id", handlers.DeleteSchedule)

	app.Get("/health", handlers.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.metrics.Registry, promhttp.HandlerOpts{})))

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
