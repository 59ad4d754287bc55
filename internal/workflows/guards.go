package workflows

import (
	"go.temporal.io/sdk/workflow"

	"github.com/fyrsmithlabs/simbench/internal/simulation"
)

// fetchSimulation runs the GetSimulation activity. The caller must have
// applied activity options; a nil result means the simulation is gone.
func fetchSimulation(ctx workflow.Context, projectID, simulationID string) (*simulation.Simulation, error) {
	var out GetSimulationOutput
	err := workflow.ExecuteActivity(ctx, a.GetSimulation, GetSimulationInput{
		ProjectID:    projectID,
		SimulationID: simulationID,
	}).Get(ctx, &out)
	if err != nil {
		return nil, err
	}
	return out.Simulation, nil
}

// updateSimulationStatus runs the status mutation activity.
func updateSimulationStatus(ctx workflow.Context, projectID, simulationID string, status simulation.Status, reason string) error {
	return workflow.ExecuteActivity(ctx, a.UpdateSimulationStatus, UpdateSimulationStatusInput{
		ProjectID:     projectID,
		SimulationID:  simulationID,
		Status:        status,
		FailureReason: reason,
	}).Get(ctx, nil)
}

// tickDecision is the outcome of the shared guard clauses of the recurring
// workflows.
type tickDecision int

const (
	// tickProceed means the simulation is in progress and the tick should
	// do its work.
	tickProceed tickDecision = iota
	// tickStop means the tick must clean up its schedule and return.
	tickStop
	// tickStopAndFail means the tick must clean up and fail the workflow.
	tickStopAndFail
)

// guardTick applies the guard clauses every recurring scheduler shares:
// missing simulation and unknown statuses fail loudly after cleanup,
// terminal and pre-start statuses just stop the schedule.
func guardTick(sim *simulation.Simulation, simulationID string) (tickDecision, error) {
	if sim == nil {
		return tickStopAndFail, NewSimulationNotFoundError(simulationID)
	}
	if sim.Status.Terminal() || sim.Status == simulation.StatusPending {
		return tickStop, nil
	}
	if sim.Status != simulation.StatusInProgress {
		// Unknown status: a bug in transition ordering, not a normal path.
		return tickStopAndFail, NewInvalidStateError("simulation", simulationID, string(sim.Status))
	}
	return tickProceed, nil
}
