package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Concave-Streak/WorkflowEngine/pkg/locks"
	"github.com/Concave-Streak/WorkflowEngine/pkg/metrics"
	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence/file"
	"github.com/Concave-Streak/WorkflowEngine/pkg/services"
	"github.com/Concave-Streak/WorkflowEngine/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	persistence := file.NewPersistence(t.TempDir())
	definitionService := services.NewDefinition(persistence, nil, logger)
	instanceService := services.NewInstance(persistence, nil, locks.NewGuard(), logger)
	scheduleService := services.NewSchedule(persistence, logger)
	validator := validator.New(validator.WithRequiredStructEnabled())

	handlers := web.NewAPIHandlers(definitionService, instanceService, scheduleService, validator, metrics.New())

	app := fiber.New()

	app.Get("/", handlers.HealthCheck)

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

	return app
}

// approvalRequest builds a three-state document approval machine:
// pending -> approved -> completed, with completed final.
func approvalRequest() web.CreateDefinitionRequest {
	return web.CreateDefinitionRequest{
		Name:        "Document Approval",
		Description: "Review and sign-off flow",
		States: []*web.StateRequest{
			{ID: "pending", Name: "Pending", IsInitial: true},
			{ID: "approved", Name: "Approved"},
			{ID: "completed", Name: "Completed", IsFinal: true},
		},
		Actions: []*web.ActionRequest{
			{ID: "approve", Name: "Approve", FromStates: []string{"pending"}, ToState: "approved"},
			{ID: "complete", Name: "Complete", FromStates: []string{"approved"}, ToState: "completed"},
		},
	}
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()

	var (
		body []byte
		err  error
	)

	if str, ok := payload.(string); ok {
		body = []byte(str)
	} else {
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func getJSON(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)

	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out T
	require.NoError(t, json.Unmarshal(body, &out))

	return out
}

func createDefinition(t *testing.T, app *fiber.App) models.WorkflowDefinition {
	t.Helper()

	resp := postJSON(t, app, "/definitions", approvalRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	return decodeBody[models.WorkflowDefinition](t, resp)
}

func boolPtr(b bool) *bool {
	return &b
}

func TestAPIHandlers_CreateDefinition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		validateResult func(t *testing.T, body []byte)
	}{
		{
			name:           "successful creation",
			requestBody:    approvalRequest(),
			expectedStatus: http.StatusCreated,
			validateResult: func(t *testing.T, body []byte) {
				t.Helper()

				var definition models.WorkflowDefinition
				require.NoError(t, json.Unmarshal(body, &definition))
				assert.NotEmpty(t, definition.ID)
				assert.Equal(t, "Document Approval", definition.Name)
				assert.Len(t, definition.States, 3)
				assert.Len(t, definition.Actions, 2)
				assert.False(t, definition.CreatedAt.IsZero())
			},
		},
		{
			name: "omitted enabled defaults to true",
			requestBody: web.CreateDefinitionRequest{
				Name: "Defaults",
				States: []*web.StateRequest{
					{ID: "open", Name: "Open", IsInitial: true},
					{ID: "closed", Name: "Closed", Enabled: boolPtr(false)},
				},
				Actions: []*web.ActionRequest{
					{ID: "close", Name: "Close", FromStates: []string{"open"}, ToState: "closed"},
				},
			},
			expectedStatus: http.StatusCreated,
			validateResult: func(t *testing.T, body []byte) {
				t.Helper()

				var definition models.WorkflowDefinition
				require.NoError(t, json.Unmarshal(body, &definition))
				assert.True(t, definition.StateByID("open").Enabled)
				assert.False(t, definition.StateByID("closed").Enabled)
				assert.True(t, definition.ActionByID("close").Enabled)
			},
		},
		{
			name: "validation error - missing name",
			requestBody: web.CreateDefinitionRequest{
				States: []*web.StateRequest{
					{ID: "open", Name: "Open", IsInitial: true},
				},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "validation error - no states",
			requestBody: web.CreateDefinitionRequest{
				Name: "Empty",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "validation error - action without from states",
			requestBody: web.CreateDefinitionRequest{
				Name: "No Sources",
				States: []*web.StateRequest{
					{ID: "open", Name: "Open", IsInitial: true},
				},
				Actions: []*web.ActionRequest{
					{ID: "noop", Name: "Noop", ToState: "open"},
				},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid-json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := setupTestApp(t)

			resp := postJSON(t, app, "/definitions", tt.requestBody)

			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateResult != nil {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				tt.validateResult(t, body)
			}
		})
	}
}

func TestAPIHandlers_CreateDefinition_InvalidMachineStoresNothing(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	request := approvalRequest()
	request.States[1].IsInitial = true

	resp := postJSON(t, app, "/definitions", request)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	problem := decodeBody[web.ValidationProblem](t, resp)
	assert.Equal(t, "validation_error", problem.Type)
	assert.Contains(t, problem.Errors, "definition must have exactly one initial state, found 2")

	listResp := getJSON(t, app, "/definitions")
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	assert.Empty(t, decodeBody[[]*models.WorkflowDefinition](t, listResp))
}

func TestAPIHandlers_GetDefinition(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	resp := getJSON(t, app, "/definitions/missing")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	_ = resp.Body.Close()

	created := createDefinition(t, app)

	resp = getJSON(t, app, "/definitions/"+created.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	fetched := decodeBody[models.WorkflowDefinition](t, resp)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Document Approval", fetched.Name)
}

func TestAPIHandlers_InstanceLifecycle(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	definition := createDefinition(t, app)

	startResp := postJSON(t, app, "/definitions/"+definition.ID+"/instances", nil)
	require.Equal(t, http.StatusCreated, startResp.StatusCode)

	instance := decodeBody[models.WorkflowInstance](t, startResp)
	assert.NotEmpty(t, instance.ID)
	assert.Equal(t, definition.ID, instance.DefinitionID)
	assert.Equal(t, "pending", instance.CurrentStateID)
	assert.Empty(t, instance.History)

	approveResp := postJSON(t, app, "/instances/"+instance.ID+"/actions", web.ExecuteActionRequest{ActionID: "approve"})
	require.Equal(t, http.StatusOK, approveResp.StatusCode)

	approved := decodeBody[models.WorkflowInstance](t, approveResp)
	assert.Equal(t, "approved", approved.CurrentStateID)
	require.Len(t, approved.History, 1)
	assert.Equal(t, "approve", approved.History[0].ActionID)
	assert.Equal(t, "pending", approved.History[0].FromStateID)
	assert.Equal(t, "approved", approved.History[0].ToStateID)

	completeResp := postJSON(t, app, "/instances/"+instance.ID+"/actions", web.ExecuteActionRequest{ActionID: "complete"})
	require.Equal(t, http.StatusOK, completeResp.StatusCode)

	completed := decodeBody[models.WorkflowInstance](t, completeResp)
	assert.Equal(t, "completed", completed.CurrentStateID)
	assert.Len(t, completed.History, 2)

	// completed is final, so no further action may fire.
	finalResp := postJSON(t, app, "/instances/"+instance.ID+"/actions", web.ExecuteActionRequest{ActionID: "approve"})
	require.Equal(t, http.StatusUnprocessableEntity, finalResp.StatusCode)

	bodyBytes, err := io.ReadAll(finalResp.Body)
	require.NoError(t, err)
	require.NoError(t, finalResp.Body.Close())
	assert.Contains(t, string(bodyBytes), "invalid_transition")

	getResp := getJSON(t, app, "/instances/"+instance.ID)
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	unchanged := decodeBody[models.WorkflowInstance](t, getResp)
	assert.Equal(t, "completed", unchanged.CurrentStateID)
	assert.Len(t, unchanged.History, 2)
}

func TestAPIHandlers_ExecuteAction_Errors(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	definition := createDefinition(t, app)

	startResp := postJSON(t, app, "/definitions/"+definition.ID+"/instances", nil)
	require.Equal(t, http.StatusCreated, startResp.StatusCode)
	instance := decodeBody[models.WorkflowInstance](t, startResp)

	tests := []struct {
		name           string
		path           string
		requestBody    any
		expectedStatus int
	}{
		{
			name:           "instance not found",
			path:           "/instances/missing/actions",
			requestBody:    web.ExecuteActionRequest{ActionID: "approve"},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "action not found",
			path:           "/instances/" + instance.ID + "/actions",
			requestBody:    web.ExecuteActionRequest{ActionID: "reject"},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "action not executable from current state",
			path:           "/instances/" + instance.ID + "/actions",
			requestBody:    web.ExecuteActionRequest{ActionID: "complete"},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "missing action id",
			path:           "/instances/" + instance.ID + "/actions",
			requestBody:    web.ExecuteActionRequest{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			path:           "/instances/" + instance.ID + "/actions",
			requestBody:    "not-json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, app, tt.path, tt.requestBody)

			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestAPIHandlers_StartInstance_DefinitionNotFound(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	resp := postJSON(t, app, "/definitions/missing/instances", nil)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_GetInstances_FiltersByDefinition(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	first := createDefinition(t, app)
	second := createDefinition(t, app)

	resp := postJSON(t, app, "/definitions/"+first.ID+"/instances", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = postJSON(t, app, "/definitions/"+second.ID+"/instances", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	listResp := getJSON(t, app, "/instances")
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	assert.Len(t, decodeBody[[]*models.WorkflowInstance](t, listResp), 2)

	filteredResp := getJSON(t, app, "/instances?definitionId="+first.ID)
	require.Equal(t, http.StatusOK, filteredResp.StatusCode)

	filtered := decodeBody[[]*models.WorkflowInstance](t, filteredResp)
	require.Len(t, filtered, 1)
	assert.Equal(t, first.ID, filtered[0].DefinitionID)
}

func TestAPIHandlers_Schedules(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	definition := createDefinition(t, app)

	createResp := postJSON(t, app, "/definitions/"+definition.ID+"/schedules", web.CreateScheduleRequest{CronExpression: "*/5 * * * *"})
	require.Equal(t, http.StatusCreated, createResp.StatusCode)

	schedule := decodeBody[models.Schedule](t, createResp)
	assert.NotEmpty(t, schedule.ID)
	assert.Equal(t, definition.ID, schedule.DefinitionID)
	assert.True(t, schedule.Active)
	assert.False(t, schedule.NextDueAt.IsZero())

	badResp := postJSON(t, app, "/definitions/"+definition.ID+"/schedules", web.CreateScheduleRequest{CronExpression: "not a cron"})
	require.Equal(t, http.StatusBadRequest, badResp.StatusCode)
	_ = badResp.Body.Close()

	orphanResp := postJSON(t, app, "/definitions/missing/schedules", web.CreateScheduleRequest{CronExpression: "*/5 * * * *"})
	require.Equal(t, http.StatusNotFound, orphanResp.StatusCode)
	_ = orphanResp.Body.Close()

	listResp := getJSON(t, app, "/schedules")
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	require.Len(t, decodeBody[[]*models.Schedule](t, listResp), 1)

	getResp := getJSON(t, app, "/schedules/"+schedule.ID)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	assert.Equal(t, schedule.ID, decodeBody[models.Schedule](t, getResp).ID)

	deleteReq := httptest.NewRequest(http.MethodDelete, "/schedules/"+schedule.ID, nil)
	deleteResp, err := app.Test(deleteReq)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, deleteResp.StatusCode)
	_ = deleteResp.Body.Close()

	repeatResp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/schedules/"+schedule.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, repeatResp.StatusCode)
	_ = repeatResp.Body.Close()
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	resp := getJSON(t, app, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	health := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "healthy", health["status"])
}
