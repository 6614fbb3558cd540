package persistence_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		definitionErr := persistence.NewDefinitionError("GetByID", "def-123", persistence.ErrDefinitionNotFound)
		instanceErr := persistence.NewInstanceError("Update", "inst-456", persistence.ErrInstanceNotFound)
		scheduleErr := persistence.NewScheduleError("Delete", "sched-789", persistence.ErrScheduleNotFound)

		assert.True(t, persistence.IsDefinitionNotFound(definitionErr))
		assert.True(t, persistence.IsInstanceNotFound(instanceErr))
		assert.True(t, persistence.IsScheduleNotFound(scheduleErr))

		assert.True(t, errors.Is(definitionErr, persistence.ErrDefinitionNotFound))
		assert.True(t, errors.Is(instanceErr, persistence.ErrInstanceNotFound))
		assert.True(t, errors.Is(scheduleErr, persistence.ErrScheduleNotFound))
	})

	t.Run("predicates reject unrelated errors", func(t *testing.T) {
		err := persistence.NewDefinitionError("Save", "def-123", persistence.ErrDefinitionAlreadyExists)

		assert.True(t, persistence.IsDefinitionAlreadyExists(err))
		assert.False(t, persistence.IsDefinitionNotFound(err))
		assert.False(t, persistence.IsInstanceNotFound(err))
	})

	t.Run("definition error contains context", func(t *testing.T) {
		err := persistence.NewDefinitionError("Save", "def-123", persistence.ErrDefinitionAlreadyExists)

		assert.Contains(t, err.Error(), "Save")
		assert.Contains(t, err.Error(), "def-123")
		assert.Contains(t, err.Error(), "workflow definition already exists")
	})

	t.Run("instance error contains context", func(t *testing.T) {
		err := persistence.NewInstanceError("Update", "inst-456", persistence.ErrInstanceNotFound)

		assert.Contains(t, err.Error(), "Update")
		assert.Contains(t, err.Error(), "inst-456")
		assert.Contains(t, err.Error(), "workflow instance not found")
	})
}
