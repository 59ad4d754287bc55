package workflows

import (
	"go.temporal.io/sdk/workflow"

	"github.com/fyrsmithlabs/simbench/internal/simulation"
)

// CancelSimulationWorkflow cancels a running simulation. Schedules are torn
// down before the status write, the exact inverse of RunSimulationWorkflow's
// ordering, so an in-flight tick cannot re-observe in_progress after the
// cancellation is externally visible. From a terminal or pre-start state it
// degrades to idempotent schedule cleanup.
func CancelSimulationWorkflow(ctx workflow.Context, input CancelSimulationInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("canceling simulation", "simulation_id", input.SimulationID)

	ctx = withStorageActivityOptions(ctx)

	sim, err := fetchSimulation(ctx, input.ProjectID, input.SimulationID)
	if err != nil {
		return err
	}
	if sim == nil {
		return NewSimulationNotFoundError(input.SimulationID)
	}

	if sim.Status.Terminal() || sim.Status == simulation.StatusPending {
		return disarmAllSchedules(ctx, input.ProjectID, input.SimulationID)
	}

	if err := disarmAllSchedules(ctx, input.ProjectID, input.SimulationID); err != nil {
		return err
	}

	if err := updateSimulationStatus(ctx, input.ProjectID, input.SimulationID, simulation.StatusCanceled, ""); err != nil {
		return err
	}

	logger.Info("simulation canceled", "simulation_id", input.SimulationID)
	return nil
}

// disarmAllSchedules deletes all three recurring schedules, tolerating ones
// that are already gone.
func disarmAllSchedules(ctx workflow.Context, projectID, simulationID string) error {
	input := UnscheduleInput{ProjectID: projectID, SimulationID: simulationID}

	if err := workflow.ExecuteActivity(ctx, sched.UnscheduleCheckSimulation, input).Get(ctx, nil); err != nil {
		return err
	}
	if err := workflow.ExecuteActivity(ctx, sched.UnscheduleAssignPersonas, input).Get(ctx, nil); err != nil {
		return err
	}
	return workflow.ExecuteActivity(ctx, sched.UnscheduleAssignConversations, input).Get(ctx, nil)
}
