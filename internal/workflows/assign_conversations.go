package workflows

import (
	"go.temporal.io/sdk/workflow"
)

// defaultBatchLimit bounds candidates per tick when the schedule input
// carries no explicit cap.
const defaultBatchLimit = 10

// AssignConversationsWorkflow is the recurring conversation assignment job.
// Each tick selects up to a bounded batch of approved personas, preferring
// the least loaded, and creates one conversation per candidate. Per-candidate
// failures are logged and skipped, never retried within the tick: the next
// tick recomputes counts and picks up the slack.
func AssignConversationsWorkflow(ctx workflow.Context, input AssignConversationsInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Debug("conversation assignment tick", "simulation_id", input.SimulationID)

	ctx = withStorageActivityOptions(ctx)

	sim, err := fetchSimulation(ctx, input.ProjectID, input.SimulationID)
	if err != nil {
		return err
	}

	switch decision, guardErr := guardTick(sim, input.SimulationID); decision {
	case tickStop:
		return disarmAssignConversations(ctx, input.ProjectID, input.SimulationID)
	case tickStopAndFail:
		if err := disarmAssignConversations(ctx, input.ProjectID, input.SimulationID); err != nil {
			return err
		}
		return guardErr
	}

	if sim.TargetConversations < 1 || sim.TargetPersonas < 1 {
		logger.Error("invalid targets", "simulation_id", input.SimulationID,
			"target_conversations", sim.TargetConversations, "target_personas", sim.TargetPersonas)
		return disarmAssignConversations(ctx, input.ProjectID, input.SimulationID)
	}

	var current CountConversationsOutput
	err = workflow.ExecuteActivity(ctx, a.CountConversations, CountConversationsInput{
		ProjectID:    input.ProjectID,
		SimulationID: input.SimulationID,
	}).Get(ctx, &current)
	if err != nil {
		return err
	}

	remaining := sim.TargetConversations - current.Count
	if remaining <= 0 {
		logger.Debug("conversation target reached", "simulation_id", input.SimulationID)
		return disarmAssignConversations(ctx, input.ProjectID, input.SimulationID)
	}

	batchLimit := input.BatchLimit
	if batchLimit <= 0 {
		batchLimit = defaultBatchLimit
	}

	var candidates GetConversationCandidatesOutput
	err = workflow.ExecuteActivity(ctx, a.GetConversationCandidates,
		candidateQuery(input, sim.TargetPersonas, sim.TargetConversations, remaining, batchLimit),
	).Get(ctx, &candidates)
	if err != nil {
		return err
	}

	for _, candidate := range candidates.Candidates {
		err := workflow.ExecuteActivity(ctx, a.CreateConversation, CreateConversationInput{
			ProjectID:    input.ProjectID,
			SimulationID: input.SimulationID,
			PersonaID:    candidate.PersonaID,
		}).Get(ctx, nil)
		if err != nil {
			// Skip; the next tick re-evaluates candidates since a failed
			// creation changes no counts.
			logger.Error("conversation creation failed",
				"simulation_id", input.SimulationID,
				"persona_id", candidate.PersonaID,
				"error", err)
		}
	}

	return nil
}

// candidateQuery computes the per-tick selection policy.
//
// With more personas than conversations, only personas with nothing yet are
// eligible: breadth of coverage wins over depth. Otherwise candidates are
// capped at ceil(target_conversations / target_personas) conversations each.
// The cap bounds this batch only; exact fairness emerges over ticks because
// the least-loaded personas are always selected first.
func candidateQuery(input AssignConversationsInput, targetPersonas, targetConversations, remaining, batchLimit int) GetConversationCandidatesInput {
	limit := remaining
	if limit > batchLimit {
		limit = batchLimit
	}

	out := GetConversationCandidatesInput{
		ProjectID:    input.ProjectID,
		SimulationID: input.SimulationID,
		Limit:        limit,
	}

	if targetPersonas > targetConversations {
		out.Prioritize = true
		return out
	}

	maxPerPersona := targetConversations / targetPersonas
	if targetConversations%targetPersonas > 0 {
		maxPerPersona++
	}
	out.MaxPerPersona = maxPerPersona
	return out
}

func disarmAssignConversations(ctx workflow.Context, projectID, simulationID string) error {
	return workflow.ExecuteActivity(ctx, sched.UnscheduleAssignConversations, UnscheduleInput{
		ProjectID:    projectID,
		SimulationID: simulationID,
	}).Get(ctx, nil)
}
