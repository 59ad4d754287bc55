package workflows

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/fyrsmithlabs/simbench/internal/simulation"
)

func TestEvaluateConversationWorkflow(t *testing.T) {
	input := EvaluateConversationInput{
		ProjectID:      "proj-1",
		SimulationID:   "sim-1",
		ConversationID: "conv-1",
	}

	queuedConv := &simulation.Conversation{
		ID:               "conv-1",
		SimulationID:     "sim-1",
		PersonaID:        "p-1",
		Status:           simulation.ConversationEnded,
		EvaluationStatus: simulation.EvaluationQueued,
	}

	t.Run("evaluates queued conversation", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()
		env.RegisterWorkflow(EvaluateConversationWorkflow)

		env.OnActivity(a.GetSimulation, mock.Anything, mock.Anything).
			Return(&GetSimulationOutput{Simulation: testSim(simulation.StatusInProgress)}, nil)
		env.OnActivity(a.GetConversation, mock.Anything, GetConversationInput{
			ProjectID:      "proj-1",
			SimulationID:   "sim-1",
			ConversationID: "conv-1",
		}).Return(&GetConversationOutput{Conversation: queuedConv}, nil)

		env.OnActivity(a.EvaluateConversation, mock.Anything, EvaluateConversationActivityInput{
			ProjectID:      "proj-1",
			SimulationID:   "sim-1",
			ConversationID: "conv-1",
		}).Return(nil).Once()

		env.OnActivity(a.UpdateConversationStatus, mock.Anything, UpdateConversationStatusInput{
			ProjectID:        "proj-1",
			SimulationID:     "sim-1",
			ConversationID:   "conv-1",
			EvaluationStatus: simulation.EvaluationCompleted,
		}).Return(nil).Once()

		env.ExecuteWorkflow(EvaluateConversationWorkflow, input)

		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())
		env.AssertExpectations(t)
	})

	t.Run("fails when simulation is not running", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()
		env.RegisterWorkflow(EvaluateConversationWorkflow)

		env.OnActivity(a.GetSimulation, mock.Anything, mock.Anything).
			Return(&GetSimulationOutput{Simulation: testSim(simulation.StatusCompleted)}, nil)

		env.ExecuteWorkflow(EvaluateConversationWorkflow, input)

		require.True(t, env.IsWorkflowCompleted())
		requireAppErrorType(t, env.GetWorkflowError(), errTypeInvalidState)
	})

	t.Run("fails on missing simulation", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()
		env.RegisterWorkflow(EvaluateConversationWorkflow)

		env.OnActivity(a.GetSimulation, mock.Anything, mock.Anything).
			Return(&GetSimulationOutput{Simulation: nil}, nil)

		env.ExecuteWorkflow(EvaluateConversationWorkflow, input)

		require.True(t, env.IsWorkflowCompleted())
		requireAppErrorType(t, env.GetWorkflowError(), errTypeNotFound)
	})

	t.Run("fails on missing conversation", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()
		env.RegisterWorkflow(EvaluateConversationWorkflow)

		env.OnActivity(a.GetSimulation, mock.Anything, mock.Anything).
			Return(&GetSimulationOutput{Simulation: testSim(simulation.StatusInProgress)}, nil)
		env.OnActivity(a.GetConversation, mock.Anything, mock.Anything).
			Return(&GetConversationOutput{Conversation: nil}, nil)

		env.ExecuteWorkflow(EvaluateConversationWorkflow, input)

		require.True(t, env.IsWorkflowCompleted())
		requireAppErrorType(t, env.GetWorkflowError(), errTypeNotFound)
	})

	t.Run("fails when conversation is not queued for evaluation", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()
		env.RegisterWorkflow(EvaluateConversationWorkflow)

		doneConv := *queuedConv
		doneConv.EvaluationStatus = simulation.EvaluationCompleted
		env.OnActivity(a.GetSimulation, mock.Anything, mock.Anything).
			Return(&GetSimulationOutput{Simulation: testSim(simulation.StatusInProgress)}, nil)
		env.OnActivity(a.GetConversation, mock.Anything, mock.Anything).
			Return(&GetConversationOutput{Conversation: &doneConv}, nil)

		env.ExecuteWorkflow(EvaluateConversationWorkflow, input)

		require.True(t, env.IsWorkflowCompleted())
		requireAppErrorType(t, env.GetWorkflowError(), errTypeInvalidState)
	})
}
