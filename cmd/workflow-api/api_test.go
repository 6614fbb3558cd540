package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Concave-Streak/WorkflowEngine/pkg/locks"
	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence/file"
	"github.com/Concave-Streak/WorkflowEngine/pkg/web"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())
	api := NewAPI(slog.Default(), persistence, nil, locks.NewGuard())

	return api.App()
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Workflow Engine API", string(body))
}

func TestAPI_Liveness(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_CORS_Headers(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/definitions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestAPI_DefinitionRoundTrip(t *testing.T) {
	app := setupTestApp(t)

	payload, err := json.Marshal(web.CreateDefinitionRequest{
		Name: "Ticket Flow",
		States: []*web.StateRequest{
			{ID: "open", Name: "Open", IsInitial: true},
			{ID: "closed", Name: "Closed", IsFinal: true},
		},
		Actions: []*web.ActionRequest{
			{ID: "close", Name: "Close", FromStates: []string{"open"}, ToState: "closed"},
		},
	})
	require.NoError(t, err)

	createReq := httptest.NewRequest(http.MethodPost, "/definitions", bytes.NewBuffer(payload))
	createReq.Header.Set("Content-Type", "application/json")

	createResp, err := app.Test(createReq)
	require.NoError(t, err)

	defer func() { _ = createResp.Body.Close() }()

	require.Equal(t, http.StatusCreated, createResp.StatusCode)

	var created models.WorkflowDefinition

	require.NoError(t, json.NewDecoder(createResp.Body).Decode(&created))
	require.NotEmpty(t, created.ID)

	listReq := httptest.NewRequest(http.MethodGet, "/definitions", nil)
	listReq.Header.Set("Accept", "application/json")

	listResp, err := app.Test(listReq)
	require.NoError(t, err)

	defer func() { _ = listResp.Body.Close() }()

	assert.Equal(t, http.StatusOK, listResp.StatusCode)

	var definitions []models.WorkflowDefinition

	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&definitions))
	require.Len(t, definitions, 1)
	assert.Equal(t, created.ID, definitions[0].ID)
}

func TestAPI_MetricsEndpoint(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "workflow_definitions_created_total")
}
