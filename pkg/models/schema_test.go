package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Concave-Streak/WorkflowEngine/pkg/models"
)

func TestValidateDefinitionDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		document     string
		wantMessages bool
	}{
		{
			name: "valid document",
			document: `{
				"name": "Document Approval",
				"states": [
					{"id": "pending", "name": "Pending", "isInitial": true},
					{"id": "approved", "name": "Approved", "isFinal": true}
				],
				"actions": [
					{"id": "approve", "name": "Approve", "fromStates": ["pending"], "toState": "approved"}
				]
			}`,
			wantMessages: false,
		},
		{
			name:         "missing name",
			document:     `{"states": [{"id": "a", "name": "A"}]}`,
			wantMessages: true,
		},
		{
			name:         "empty states",
			document:     `{"name": "Empty", "states": []}`,
			wantMessages: true,
		},
		{
			name: "action without from states",
			document: `{
				"name": "Broken",
				"states": [{"id": "a", "name": "A"}],
				"actions": [{"id": "x", "name": "X", "fromStates": [], "toState": "a"}]
			}`,
			wantMessages: true,
		},
		{
			name:         "wrong type for states",
			document:     `{"name": "Broken", "states": "not-an-array"}`,
			wantMessages: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			messages, err := models.ValidateDefinitionDocument([]byte(tt.document))
			require.NoError(t, err)

			if tt.wantMessages {
				assert.NotEmpty(t, messages)
			} else {
				assert.Empty(t, messages)
			}
		})
	}
}

func TestValidateDefinitionDocument_MalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := models.ValidateDefinitionDocument([]byte("{not json"))
	require.Error(t, err)
}
