package workflows

import (
	"go.temporal.io/sdk/workflow"

	"github.com/fyrsmithlabs/simbench/internal/simulation"
)

// EvaluateConversationWorkflow scores one ended conversation against the
// simulation's pinned objective set. It runs at most once per conversation:
// the caller starts it under the deterministic id from
// EvaluateConversationWorkflowID with a reuse policy that only permits
// retrying failed attempts.
func EvaluateConversationWorkflow(ctx workflow.Context, input EvaluateConversationInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("evaluating conversation",
		"simulation_id", input.SimulationID,
		"conversation_id", input.ConversationID)

	ctx = withStorageActivityOptions(ctx)

	sim, err := fetchSimulation(ctx, input.ProjectID, input.SimulationID)
	if err != nil {
		return err
	}
	if sim == nil {
		return NewSimulationNotFoundError(input.SimulationID)
	}
	if sim.Status != simulation.StatusInProgress {
		return NewInvalidStateError("simulation", input.SimulationID, string(sim.Status))
	}

	var conv GetConversationOutput
	err = workflow.ExecuteActivity(ctx, a.GetConversation, GetConversationInput{
		ProjectID:      input.ProjectID,
		SimulationID:   input.SimulationID,
		ConversationID: input.ConversationID,
	}).Get(ctx, &conv)
	if err != nil {
		return err
	}
	if conv.Conversation == nil {
		return NewConversationNotFoundError(input.ConversationID)
	}
	if conv.Conversation.EvaluationStatus != simulation.EvaluationQueued {
		return NewInvalidStateError("conversation", input.ConversationID, string(conv.Conversation.EvaluationStatus))
	}

	genCtx := withGenerationActivityOptions(ctx)
	err = workflow.ExecuteActivity(genCtx, a.EvaluateConversation, EvaluateConversationActivityInput{
		ProjectID:      input.ProjectID,
		SimulationID:   input.SimulationID,
		ConversationID: input.ConversationID,
	}).Get(genCtx, nil)
	if err != nil {
		return err
	}

	err = workflow.ExecuteActivity(ctx, a.UpdateConversationStatus, UpdateConversationStatusInput{
		ProjectID:        input.ProjectID,
		SimulationID:     input.SimulationID,
		ConversationID:   input.ConversationID,
		EvaluationStatus: simulation.EvaluationCompleted,
	}).Get(ctx, nil)
	if err != nil {
		return err
	}

	logger.Info("conversation evaluated", "conversation_id", input.ConversationID)
	return nil
}
