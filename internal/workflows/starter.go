package workflows

import (
	"context"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
)

// Starter starts the externally-triggered workflows. It wraps an explicitly
// constructed Temporal client whose lifecycle belongs to the process that
// built it; nothing in this package holds ambient client state.
type Starter struct {
	client    client.Client
	taskQueue string
}

// NewStarter creates a Starter over an existing client.
func NewStarter(c client.Client, taskQueue string) *Starter {
	return &Starter{client: c, taskQueue: taskQueue}
}

// StartRunSimulation kicks off a simulation run.
func (s *Starter) StartRunSimulation(ctx context.Context, projectID, simulationID string) error {
	_, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        fmt.Sprintf("%s:%s", RunSimulationWorkflowName, simulationID),
		TaskQueue: s.taskQueue,
	}, RunSimulationWorkflowName, RunSimulationInput{
		ProjectID:    projectID,
		SimulationID: simulationID,
	})
	if err != nil {
		return fmt.Errorf("starting run workflow for %s: %w", simulationID, err)
	}
	return nil
}

// StartCancelSimulation kicks off a cancellation.
func (s *Starter) StartCancelSimulation(ctx context.Context, projectID, simulationID string) error {
	_, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        fmt.Sprintf("%s:%s", CancelSimulationWorkflowName, simulationID),
		TaskQueue: s.taskQueue,
	}, CancelSimulationWorkflowName, CancelSimulationInput{
		ProjectID:    projectID,
		SimulationID: simulationID,
	})
	if err != nil {
		return fmt.Errorf("starting cancel workflow for %s: %w", simulationID, err)
	}
	return nil
}

// StartEvaluateConversation kicks off evaluation of an ended conversation.
// The deterministic workflow id plus the failed-only reuse policy lets a
// failed evaluation be retried by re-triggering, while a successful run can
// never be duplicated.
func (s *Starter) StartEvaluateConversation(ctx context.Context, projectID, simulationID, conversationID string) error {
	_, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                    EvaluateConversationWorkflowID(simulationID, conversationID),
		TaskQueue:             s.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY,
	}, EvaluateConversationWorkflowName, EvaluateConversationInput{
		ProjectID:      projectID,
		SimulationID:   simulationID,
		ConversationID: conversationID,
	})
	if err != nil {
		return fmt.Errorf("starting evaluate workflow for %s: %w", conversationID, err)
	}
	return nil
}
