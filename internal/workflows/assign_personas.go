package workflows

import (
	"go.temporal.io/sdk/workflow"

	"github.com/fyrsmithlabs/simbench/internal/simulation"
)

// AssignPersonasWorkflow is the recurring persona top-up job. Each tick
// computes how many personas the simulation still needs, counting rejected
// personas as missing so they get replaced, and creates exactly that many.
// A persona created this tick may not be visible to the next tick's count;
// a small overshoot across ticks is tolerated in exchange for convergence.
func AssignPersonasWorkflow(ctx workflow.Context, input AssignPersonasInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Debug("persona assignment tick", "simulation_id", input.SimulationID)

	ctx = withStorageActivityOptions(ctx)

	sim, err := fetchSimulation(ctx, input.ProjectID, input.SimulationID)
	if err != nil {
		return err
	}

	switch decision, guardErr := guardTick(sim, input.SimulationID); decision {
	case tickStop:
		return disarmAssignPersonas(ctx, input.ProjectID, input.SimulationID)
	case tickStopAndFail:
		if err := disarmAssignPersonas(ctx, input.ProjectID, input.SimulationID); err != nil {
			return err
		}
		return guardErr
	}

	if sim.TargetPersonas < 1 {
		// Misconfigured data, not a system fault: stop quietly.
		logger.Error("invalid persona target", "simulation_id", input.SimulationID, "target_personas", sim.TargetPersonas)
		return disarmAssignPersonas(ctx, input.ProjectID, input.SimulationID)
	}

	remaining, err := remainingPersonas(ctx, input, sim.TargetPersonas)
	if err != nil {
		return err
	}

	if remaining == 0 {
		logger.Debug("persona target reached", "simulation_id", input.SimulationID)
		return disarmAssignPersonas(ctx, input.ProjectID, input.SimulationID)
	}

	genCtx := withGenerationActivityOptions(ctx)
	for i := 0; i < remaining; i++ {
		err := workflow.ExecuteActivity(genCtx, a.CreatePersona, CreatePersonaInput{
			ProjectID:        sim.ProjectID,
			SimulationID:     input.SimulationID,
			Scenario:         sim.Scenario,
			AgentDescription: sim.AgentDescription,
			AutoApprove:      sim.AutoApprove,
		}).Get(genCtx, nil)
		if err != nil {
			return err
		}
	}

	logger.Debug("personas created", "simulation_id", input.SimulationID, "count", remaining)
	return nil
}

// remainingPersonas counts how many personas are still needed. Rejected
// personas do not count toward the target.
func remainingPersonas(ctx workflow.Context, input AssignPersonasInput, target int) (int, error) {
	var total CountPersonasOutput
	err := workflow.ExecuteActivity(ctx, a.CountPersonas, CountPersonasInput{
		ProjectID:    input.ProjectID,
		SimulationID: input.SimulationID,
	}).Get(ctx, &total)
	if err != nil {
		return 0, err
	}

	var rejected CountPersonasOutput
	err = workflow.ExecuteActivity(ctx, a.CountPersonas, CountPersonasInput{
		ProjectID:      input.ProjectID,
		SimulationID:   input.SimulationID,
		ApprovalStatus: simulation.ApprovalRejected,
	}).Get(ctx, &rejected)
	if err != nil {
		return 0, err
	}

	remaining := target - (total.Count - rejected.Count)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

func disarmAssignPersonas(ctx workflow.Context, projectID, simulationID string) error {
	return workflow.ExecuteActivity(ctx, sched.UnscheduleAssignPersonas, UnscheduleInput{
		ProjectID:    projectID,
		SimulationID: simulationID,
	}).Get(ctx, nil)
}
