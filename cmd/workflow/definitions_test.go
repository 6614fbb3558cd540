package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "github.com/urfave/cli/v3"

	"github.com/Concave-Streak/WorkflowEngine/pkg/persistence/file"
)

const approvalDocument = `{
	"name": "Document Approval",
	"description": "Review and sign-off flow",
	"states": [
		{"id": "pending", "name": "Pending", "isInitial": true},
		{"id": "approved", "name": "Approved"},
		{"id": "completed", "name": "Completed", "isFinal": true}
	],
	"actions": [
		{"id": "approve", "name": "Approve", "fromStates": ["pending"], "toState": "approved"},
		{"id": "complete", "name": "Complete", "fromStates": ["approved"], "toState": "completed"}
	]
}`

func writeDocument(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "definitions.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func newTestCLI() *cli.Command {
	return &cli.Command{
		Name:     "workflow",
		Commands: []*cli.Command{NewDefinitionsCommand()},
	}
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name         string
		document     string
		wantValid    bool
		wantContains string
	}{
		{
			name:      "valid document",
			document:  approvalDocument,
			wantValid: true,
		},
		{
			name:         "schema violation",
			document:     `{"states": [{"id": "a", "name": "A", "isInitial": true}]}`,
			wantContains: "name",
		},
		{
			name: "two initial states",
			document: `{
				"name": "Broken",
				"states": [
					{"id": "a", "name": "A", "isInitial": true},
					{"id": "b", "name": "B", "isInitial": true}
				]
			}`,
			wantContains: "exactly one initial state",
		},
		{
			name: "action references unknown state",
			document: `{
				"name": "Broken",
				"states": [{"id": "a", "name": "A", "isInitial": true}],
				"actions": [{"id": "x", "name": "X", "fromStates": ["a"], "toState": "nowhere"}]
			}`,
			wantContains: "unknown target state 'nowhere'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := validateDocument(json.RawMessage(tt.document))

			if tt.wantValid {
				assert.Empty(t, messages)

				return
			}

			require.NotEmpty(t, messages)
			assert.Contains(t, strings.Join(messages, "\n"), tt.wantContains)
		})
	}
}

func TestReadDefinitionDocuments(t *testing.T) {
	single := writeDocument(t, approvalDocument)

	documents, err := readDefinitionDocuments(single)
	require.NoError(t, err)
	assert.Len(t, documents, 1)

	array := writeDocument(t, "["+approvalDocument+","+approvalDocument+"]")

	documents, err = readDefinitionDocuments(array)
	require.NoError(t, err)
	assert.Len(t, documents, 2)

	_, err = readDefinitionDocuments(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	path := writeDocument(t, approvalDocument)

	err := newTestCLI().Run(t.Context(), []string{"workflow", "definitions", "validate", "--file", path})
	require.NoError(t, err)

	broken := writeDocument(t, `{"name": "Broken", "states": [{"id": "a", "name": "A"}]}`)

	err = newTestCLI().Run(t.Context(), []string{"workflow", "definitions", "validate", "--file", broken})
	require.ErrorIs(t, err, ErrInvalidDefinitions)
}

func TestImportCommand(t *testing.T) {
	path := writeDocument(t, approvalDocument)
	dataDir := t.TempDir()

	err := newTestCLI().Run(t.Context(), []string{
		"workflow", "definitions", "import",
		"--file", path,
		"--database-url", "file://" + dataDir,
	})
	require.NoError(t, err)

	definitions, err := file.NewPersistence(dataDir).DefinitionRepository().GetAll(t.Context())
	require.NoError(t, err)
	require.Len(t, definitions, 1)
	assert.Equal(t, "Document Approval", definitions[0].Name)
	assert.Len(t, definitions[0].States, 3)
}

func TestImportCommand_RejectsInvalidBatch(t *testing.T) {
	path := writeDocument(t, "["+approvalDocument+`,{"name": "Broken", "states": [{"id": "a", "name": "A"}]}]`)
	dataDir := t.TempDir()

	err := newTestCLI().Run(t.Context(), []string{
		"workflow", "definitions", "import",
		"--file", path,
		"--database-url", "file://" + dataDir,
	})
	require.ErrorIs(t, err, ErrInvalidDefinitions)

	definitions, err := file.NewPersistence(dataDir).DefinitionRepository().GetAll(t.Context())
	require.NoError(t, err)
	assert.Empty(t, definitions)
}
