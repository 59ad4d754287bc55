package workflows

import (
	"go.temporal.io/sdk/workflow"

	"github.com/fyrsmithlabs/simbench/internal/simulation"
)

// CheckSimulationWorkflow is the recurring completion check. Each tick is
// independent: it detects expiration against the durable clock, detects
// completion by counting evaluated conversations, and otherwise waits for
// the next tick. Recovery from a missed tick is simply the next one.
func CheckSimulationWorkflow(ctx workflow.Context, input CheckSimulationInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Debug("check tick", "simulation_id", input.SimulationID)

	ctx = withStorageActivityOptions(ctx)

	sim, err := fetchSimulation(ctx, input.ProjectID, input.SimulationID)
	if err != nil {
		return err
	}

	// The run workflow commits the status before arming this schedule, but a
	// tick can still race that commit; pending is benign, not a bug.
	if sim != nil && sim.Status == simulation.StatusPending {
		return nil
	}

	switch decision, guardErr := guardTick(sim, input.SimulationID); decision {
	case tickStop:
		return disarmCheckSimulation(ctx, input.ProjectID, input.SimulationID)
	case tickStopAndFail:
		if err := disarmCheckSimulation(ctx, input.ProjectID, input.SimulationID); err != nil {
			return err
		}
		return guardErr
	}

	if sim.ExpiredAt(workflow.Now(ctx).UTC()) {
		if err := updateSimulationStatus(ctx, input.ProjectID, input.SimulationID, simulation.StatusExpired, "simulation expired"); err != nil {
			return err
		}
		if err := disarmCheckSimulation(ctx, input.ProjectID, input.SimulationID); err != nil {
			return err
		}
		// Surfaced as a workflow failure so operators see expired runs.
		return NewSimulationExpiredError(input.SimulationID)
	}

	var evaluated CountConversationsOutput
	err = workflow.ExecuteActivity(ctx, a.CountConversations, CountConversationsInput{
		ProjectID:        input.ProjectID,
		SimulationID:     input.SimulationID,
		EvaluationStatus: simulation.EvaluationCompleted,
	}).Get(ctx, &evaluated)
	if err != nil {
		return err
	}

	if evaluated.Count < sim.TargetConversations {
		// Not done yet; wait for the next tick.
		return nil
	}

	if err := updateSimulationStatus(ctx, input.ProjectID, input.SimulationID, simulation.StatusCompleted, ""); err != nil {
		return err
	}
	if err := disarmCheckSimulation(ctx, input.ProjectID, input.SimulationID); err != nil {
		return err
	}

	logger.Info("simulation completed", "simulation_id", input.SimulationID, "evaluated", evaluated.Count)
	return nil
}

func disarmCheckSimulation(ctx workflow.Context, projectID, simulationID string) error {
	return workflow.ExecuteActivity(ctx, sched.UnscheduleCheckSimulation, UnscheduleInput{
		ProjectID:    projectID,
		SimulationID: simulationID,
	}).Get(ctx, nil)
}
