package workflows

import (
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/fyrsmithlabs/simbench/internal/simulation"
)

func TestCheckSimulationWorkflow(t *testing.T) {
	input := CheckSimulationInput{ProjectID: "proj-1", SimulationID: "sim-1"}
	unscheduleInput := UnscheduleInput{ProjectID: "proj-1", SimulationID: "sim-1"}
	startTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("completes simulation at target", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()
		env.RegisterWorkflow(CheckSimulationWorkflow)
		env.SetStartTime(startTime)

		sim := testSim(simulation.StatusInProgress)
		sim.CreatedAt = startTime.Add(-time.Hour)
		env.OnActivity(a.GetSimulation, mock.Anything, mock.Anything).
			Return(&GetSimulationOutput{Simulation: sim}, nil)

		env.OnActivity(a.CountConversations, mock.Anything, CountConversationsInput{
			ProjectID:        "proj-1",
			SimulationID:     "sim-1",
			EvaluationStatus: simulation.EvaluationCompleted,
		}).Return(&CountConversationsOutput{Count: sim.TargetConversations}, nil)

		env.OnActivity(a.UpdateSimulationStatus, mock.Anything, UpdateSimulationStatusInput{
			ProjectID:    "proj-1",
			SimulationID: "sim-1",
			Status:       simulation.StatusCompleted,
		}).Return(nil).Once()
		env.OnActivity(sched.UnscheduleCheckSimulation, mock.Anything, unscheduleInput).Return(nil).Once()

		env.ExecuteWorkflow(CheckSimulationWorkflow, input)

		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())
		env.AssertExpectations(t)
	})

	t.Run("waits below target", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()
		env.RegisterWorkflow(CheckSimulationWorkflow)
		env.SetStartTime(startTime)

		sim := testSim(simulation.StatusInProgress)
		sim.CreatedAt = startTime.Add(-time.Hour)
		env.OnActivity(a.GetSimulation, mock.Anything, mock.Anything).
			Return(&GetSimulationOutput{Simulation: sim}, nil)
		env.OnActivity(a.CountConversations, mock.Anything, mock.Anything).
			Return(&CountConversationsOutput{Count: sim.TargetConversations - 1}, nil)

		env.ExecuteWorkflow(CheckSimulationWorkflow, input)

		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())
	})

	t.Run("expires past deadline", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()
		env.RegisterWorkflow(CheckSimulationWorkflow)
		env.SetStartTime(startTime)

		expiresAt := startTime.Add(-time.Minute)
		sim := testSim(simulation.StatusInProgress)
		sim.ExpiresAt = &expiresAt
		env.OnActivity(a.GetSimulation, mock.Anything, mock.Anything).
			Return(&GetSimulationOutput{Simulation: sim}, nil)

		env.OnActivity(a.UpdateSimulationStatus, mock.Anything, UpdateSimulationStatusInput{
			ProjectID:     "proj-1",
			SimulationID:  "sim-1",
			Status:        simulation.StatusExpired,
			FailureReason: "simulation expired",
		}).Return(nil).Once()
		env.OnActivity(sched.UnscheduleCheckSimulation, mock.Anything, unscheduleInput).Return(nil).Once()

		env.ExecuteWorkflow(CheckSimulationWorkflow, input)

		require.True(t, env.IsWorkflowCompleted())
		requireAppErrorType(t, env.GetWorkflowError(), errTypeExpired)
		env.AssertExpectations(t)
	})

	t.Run("expires via created_at fallback", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()
		env.RegisterWorkflow(CheckSimulationWorkflow)
		env.SetStartTime(startTime)

		sim := testSim(simulation.StatusInProgress)
		sim.CreatedAt = startTime.Add(-simulation.DefaultExpiry - time.Minute)
		env.OnActivity(a.GetSimulation, mock.Anything, mock.Anything).
			Return(&GetSimulationOutput{Simulation: sim}, nil)
		env.OnActivity(a.UpdateSimulationStatus, mock.Anything, mock.Anything).Return(nil)
		env.OnActivity(sched.UnscheduleCheckSimulation, mock.Anything, mock.Anything).Return(nil)

		env.ExecuteWorkflow(CheckSimulationWorkflow, input)

		require.True(t, env.IsWorkflowCompleted())
		requireAppErrorType(t, env.GetWorkflowError(), errTypeExpired)
	})

	t.Run("no-op while pending", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()
		env.RegisterWorkflow(CheckSimulationWorkflow)

		env.OnActivity(a.GetSimulation, mock.Anything, mock.Anything).
			Return(&GetSimulationOutput{Simulation: testSim(simulation.StatusPending)}, nil)

		env.ExecuteWorkflow(CheckSimulationWorkflow, input)

		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())
	})

	t.Run("disarms on terminal simulation", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()
		env.RegisterWorkflow(CheckSimulationWorkflow)

		env.OnActivity(a.GetSimulation, mock.Anything, mock.Anything).
			Return(&GetSimulationOutput{Simulation: testSim(simulation.StatusCanceled)}, nil)
		env.OnActivity(sched.UnscheduleCheckSimulation, mock.Anything, unscheduleInput).Return(nil).Once()

		env.ExecuteWorkflow(CheckSimulationWorkflow, input)

		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())
		env.AssertExpectations(t)
	})

	t.Run("fails on missing simulation", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()
		env.RegisterWorkflow(CheckSimulationWorkflow)

		env.OnActivity(a.GetSimulation, mock.Anything, mock.Anything).
			Return(&GetSimulationOutput{Simulation: nil}, nil)
		env.OnActivity(sched.UnscheduleCheckSimulation, mock.Anything, unscheduleInput).Return(nil).Once()

		env.ExecuteWorkflow(CheckSimulationWorkflow, input)

		require.True(t, env.IsWorkflowCompleted())
		requireAppErrorType(t, env.GetWorkflowError(), errTypeNotFound)
		env.AssertExpectations(t)
	})
}
