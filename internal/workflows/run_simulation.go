// Package workflows implements the simulation orchestration engine: the
// durable workflows and activities that drive a simulation from pending
// through in_progress to a terminal state.
//
// There is no long-lived loop anywhere in this package. Progress is made by
// three recurring per-simulation schedules (persona assignment, conversation
// assignment, completion check) whose ticks each query current state, do one
// increment of work and exit. Crash recovery is therefore free: a missed or
// half-finished tick is simply redone by the next one.
package workflows

import (
	"go.temporal.io/sdk/workflow"

	"github.com/fyrsmithlabs/simbench/internal/simulation"
)

// RunSimulationWorkflow starts a simulation: it transitions the simulation
// to in_progress and arms the three recurring schedules that do the actual
// work. Valid only from queued, pending or canceled.
func RunSimulationWorkflow(ctx workflow.Context, input RunSimulationInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("starting simulation", "simulation_id", input.SimulationID)

	ctx = withStorageActivityOptions(ctx)

	sim, err := fetchSimulation(ctx, input.ProjectID, input.SimulationID)
	if err != nil {
		return err
	}
	if sim == nil {
		return NewSimulationNotFoundError(input.SimulationID)
	}

	switch sim.Status {
	case simulation.StatusQueued, simulation.StatusPending, simulation.StatusCanceled:
	default:
		return NewInvalidStateError("simulation", input.SimulationID, string(sim.Status))
	}

	// The status write must land before any schedule exists, so a racing
	// check tick never observes "scheduled but still pending".
	if err := updateSimulationStatus(ctx, input.ProjectID, input.SimulationID, simulation.StatusInProgress, ""); err != nil {
		return err
	}

	armCtx := withScheduleArmOptions(ctx)
	scheduleInput := ScheduleInput{ProjectID: input.ProjectID, SimulationID: input.SimulationID}

	if err := workflow.ExecuteActivity(armCtx, sched.ScheduleAssignPersonas, scheduleInput).Get(armCtx, nil); err != nil {
		return err
	}
	if err := workflow.ExecuteActivity(armCtx, sched.ScheduleAssignConversations, scheduleInput).Get(armCtx, nil); err != nil {
		return err
	}
	if err := workflow.ExecuteActivity(armCtx, sched.ScheduleCheckSimulation, scheduleInput).Get(armCtx, nil); err != nil {
		return err
	}

	logger.Info("simulation schedules armed", "simulation_id", input.SimulationID)
	return nil
}
