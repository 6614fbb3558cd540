package services

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Concave-Streak/WorkflowEngine/pkg/mocks"
	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence/memory"
	"github.com/Concave-Streak/WorkflowEngine/pkg/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func approvalMachine() ([]*models.State, []*models.Action) {
	definition := testutil.ApprovalDefinition()

	return definition.States, definition.Actions
}

func TestNewDefinition(t *testing.T) {
	p := memory.NewPersistence()
	service := NewDefinition(p, nil, testLogger())

	assert.NotNil(t, service)
	assert.Equal(t, p, service.persistence)
}

func TestDefinition_HealthCheck(t *testing.T) {
	service := NewDefinition(memory.NewPersistence(), nil, testLogger())

	message, healthy := service.HealthCheck(t.Context())
	assert.True(t, healthy)
	assert.Equal(t, "Persistence layer is healthy", message)
}

func TestDefinition_Create(t *testing.T) {
	p := memory.NewPersistence()
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.AnythingOfType("events.DefinitionCreated")).Return(nil)

	service := NewDefinition(p, bus, testLogger())
	states, actions := approvalMachine()

	created, err := service.Create(t.Context(), "Approval Workflow", "Three step approval flow", states, actions)
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	stored, err := p.DefinitionRepository().GetByID(t.Context(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Approval Workflow", stored.Name)

	bus.AssertExpectations(t)
}

func TestDefinition_Create_AccumulatesValidationErrors(t *testing.T) {
	p := memory.NewPersistence()
	bus := &mocks.MockEventBus{}
	service := NewDefinition(p, bus, testLogger())

	states := []*models.State{
		{ID: "pending", Name: "Pending", IsInitial: true, Enabled: true},
		{ID: "pending", Name: "Pending Again", Enabled: true},
	}
	actions := []*models.Action{
		{ID: "approve", Name: "Approve", Enabled: true, FromStates: []string{"pending"}, ToState: "nowhere"},
	}

	_, err := service.Create(t.Context(), "Broken", "", states, actions)
	require.Error(t, err)
	assert.True(t, IsValidationFailed(err))

	var validationErr *ValidationError

	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{
		"duplicate state id 'pending'",
		"action 'approve' references unknown target state 'nowhere'",
	}, validationErr.Messages)

	// A rejected definition must leave no trace.
	all, err := p.DefinitionRepository().GetAll(t.Context())
	require.NoError(t, err)
	assert.Empty(t, all)

	bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestDefinition_Create_PublishFailureDoesNotFailCreate(t *testing.T) {
	p := memory.NewPersistence()
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	service := NewDefinition(p, bus, testLogger())
	states, actions := approvalMachine()

	created, err := service.Create(t.Context(), "Approval Workflow", "", states, actions)
	require.NoError(t, err)
	assert.NotNil(t, created)
}

func TestDefinition_FetchByID(t *testing.T) {
	p := memory.NewPersistence()
	service := NewDefinition(p, nil, testLogger())

	definition := testutil.ApprovalDefinition()
	require.NoError(t, p.DefinitionRepository().Save(t.Context(), definition))

	found, err := service.FetchByID(t.Context(), definition.ID)
	require.NoError(t, err)
	assert.Equal(t, definition.ID, found.ID)

	_, err = service.FetchByID(t.Context(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestDefinition_FetchAll(t *testing.T) {
	p := memory.NewPersistence()
	service := NewDefinition(p, nil, testLogger())

	require.NoError(t, p.DefinitionRepository().Save(t.Context(), testutil.ApprovalDefinition()))
	require.NoError(t, p.DefinitionRepository().Save(t.Context(), testutil.ApprovalDefinition()))

	all, err := service.FetchAll(t.Context())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
