package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Workflow type names. Schedules and external callers refer to workflows by
// these names, so they are part of the wire contract and must not change.
const (
	RunSimulationWorkflowName        = "run_simulation"
	CancelSimulationWorkflowName     = "cancel_simulation"
	CheckSimulationWorkflowName      = "check_simulation"
	AssignPersonasWorkflowName       = "assign_personas"
	AssignConversationsWorkflowName  = "assign_conversations"
	EvaluateConversationWorkflowName = "evaluate_conversation"
)

// AssignPersonasScheduleID returns the deterministic schedule id for the
// persona assignment job. One schedule per (job, simulation) pair; the id
// doubles as the creation key that enforces it.
func AssignPersonasScheduleID(simulationID string) string {
	return fmt.Sprintf("%s:%s", AssignPersonasWorkflowName, simulationID)
}

// AssignConversationsScheduleID returns the deterministic schedule id for
// the conversation assignment job.
func AssignConversationsScheduleID(simulationID string) string {
	return fmt.Sprintf("%s:%s", AssignConversationsWorkflowName, simulationID)
}

// CheckSimulationScheduleID returns the deterministic schedule id for the
// completion check job.
func CheckSimulationScheduleID(simulationID string) string {
	return fmt.Sprintf("%s:%s", CheckSimulationWorkflowName, simulationID)
}

// EvaluateConversationWorkflowID returns the deterministic workflow id for
// an evaluation run, so a retried trigger dedupes against a prior success.
func EvaluateConversationWorkflowID(simulationID, conversationID string) string {
	return fmt.Sprintf("%s:%s:%s", EvaluateConversationWorkflowName, simulationID, conversationID)
}

// withStorageActivityOptions applies the retry profile for short storage and
// schedule operations.
func withStorageActivityOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 15 * time.Second,
			MaximumAttempts: 3,
		},
	})
}

// withGenerationActivityOptions applies the retry profile for long-running
// generation-backed operations: generous timeout, more attempts, slower
// backoff, because they depend on external LLM calls that may be slow or
// flaky.
func withGenerationActivityOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 30 * time.Second,
			MaximumAttempts: 5,
		},
	})
}

// withScheduleArmOptions applies the retry profile used when arming
// schedules from RunSimulationWorkflow. Arming must eventually succeed once
// the status write has landed, so it gets extra attempts.
func withScheduleArmOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 15 * time.Second,
			MaximumAttempts: 5,
		},
	})
}
