package workflows

import (
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

// Register attaches every workflow and the activity implementations to a
// worker. Workflows register under their wire names so that schedules and
// external starters resolve them regardless of the Go function names.
func Register(w worker.Worker, acts *Activities, schedActs *ScheduleActivities) {
	w.RegisterWorkflowWithOptions(RunSimulationWorkflow, workflow.RegisterOptions{Name: RunSimulationWorkflowName})
	w.RegisterWorkflowWithOptions(CancelSimulationWorkflow, workflow.RegisterOptions{Name: CancelSimulationWorkflowName})
	w.RegisterWorkflowWithOptions(CheckSimulationWorkflow, workflow.RegisterOptions{Name: CheckSimulationWorkflowName})
	w.RegisterWorkflowWithOptions(AssignPersonasWorkflow, workflow.RegisterOptions{Name: AssignPersonasWorkflowName})
	w.RegisterWorkflowWithOptions(AssignConversationsWorkflow, workflow.RegisterOptions{Name: AssignConversationsWorkflowName})
	w.RegisterWorkflowWithOptions(EvaluateConversationWorkflow, workflow.RegisterOptions{Name: EvaluateConversationWorkflowName})

	w.RegisterActivity(acts)
	w.RegisterActivity(schedActs)
}
