package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Workflow definitions are write-once: states and actions are
			-- stored denormalized as JSONB because they are only ever read
			-- back as a whole machine.
			CREATE TABLE workflow_definitions (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				states JSONB NOT NULL,
				actions JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflow_definitions_created_at ON workflow_definitions(created_at);

			CREATE TABLE workflow_instances (
				id VARCHAR(255) PRIMARY KEY,
				definition_id VARCHAR(255) NOT NULL REFERENCES workflow_definitions(id),
				current_state_id VARCHAR(255) NOT NULL,
				history JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflow_instances_definition_id ON workflow_instances(definition_id);
			CREATE INDEX idx_workflow_instances_created_at ON workflow_instances(created_at);
		`,
		2: `
			-- Migration 2: scheduled instance starts
			CREATE TABLE workflow_schedules (
				id VARCHAR(255) PRIMARY KEY,
				definition_id VARCHAR(255) NOT NULL REFERENCES workflow_definitions(id),
				cron_expression VARCHAR(255) NOT NULL,
				next_due_at TIMESTAMP WITH TIME ZONE NOT NULL,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflow_schedules_definition_id ON workflow_schedules(definition_id);
			CREATE INDEX idx_workflow_schedules_next_due_at ON workflow_schedules(next_due_at);
		`,
	}
}
