package workflows

import (
	"github.com/fyrsmithlabs/simbench/internal/simulation"
	"github.com/fyrsmithlabs/simbench/internal/store"
)

// Workflow inputs. Every workflow in this package is keyed by (project,
// simulation); the evaluation workflow additionally carries a conversation.

type RunSimulationInput struct {
	ProjectID    string
	SimulationID string
}

type CancelSimulationInput struct {
	ProjectID    string
	SimulationID string
}

type CheckSimulationInput struct {
	ProjectID    string
	SimulationID string
}

type AssignPersonasInput struct {
	ProjectID    string
	SimulationID string
}

type AssignConversationsInput struct {
	ProjectID    string
	SimulationID string
	// BatchLimit caps candidates per tick to bound burst size. Zero means
	// the default cap.
	BatchLimit int
}

type EvaluateConversationInput struct {
	ProjectID      string
	SimulationID   string
	ConversationID string
}

// Activity inputs and outputs.

type GetSimulationInput struct {
	ProjectID    string
	SimulationID string
}

type GetSimulationOutput struct {
	// Simulation is nil when the simulation does not exist.
	Simulation *simulation.Simulation
}

type UpdateSimulationStatusInput struct {
	ProjectID     string
	SimulationID  string
	Status        simulation.Status
	FailureReason string
}

type CountPersonasInput struct {
	ProjectID    string
	SimulationID string
	// ApprovalStatus filters the count when non-empty.
	ApprovalStatus simulation.ApprovalStatus
}

type CountPersonasOutput struct {
	Count int
}

type CountConversationsInput struct {
	ProjectID    string
	SimulationID string
	// EvaluationStatus filters the count when non-empty.
	EvaluationStatus simulation.EvaluationStatus
}

type CountConversationsOutput struct {
	Count int
}

type CreatePersonaInput struct {
	ProjectID        string
	SimulationID     string
	Scenario         string
	AgentDescription string
	AutoApprove      bool
}

type CreatePersonaOutput struct {
	Persona *simulation.Persona
}

type GetConversationCandidatesInput struct {
	ProjectID    string
	SimulationID string
	Limit        int
	// Prioritize restricts candidates to personas with zero conversations.
	// It takes precedence over MaxPerPersona.
	Prioritize bool
	// MaxPerPersona caps the per-persona conversation count for this batch
	// when positive. This bounds a ceiling per candidate batch, not a global
	// per-persona quota; fairness emerges across ticks because least-loaded
	// personas are always preferred.
	MaxPerPersona int
}

type GetConversationCandidatesOutput struct {
	Candidates []store.Candidate
}

type CreateConversationInput struct {
	ProjectID    string
	SimulationID string
	PersonaID    string
}

type CreateConversationOutput struct {
	Conversation *simulation.Conversation
}

type GetConversationInput struct {
	ProjectID      string
	SimulationID   string
	ConversationID string
}

type GetConversationOutput struct {
	// Conversation is nil when the conversation does not exist.
	Conversation *simulation.Conversation
}

type UpdateConversationStatusInput struct {
	ProjectID        string
	SimulationID     string
	ConversationID   string
	EvaluationStatus simulation.EvaluationStatus
}

type EvaluateConversationActivityInput struct {
	ProjectID      string
	SimulationID   string
	ConversationID string
}

// Schedule activity inputs.

type ScheduleInput struct {
	ProjectID    string
	SimulationID string
}

type UnscheduleInput struct {
	ProjectID    string
	SimulationID string
	// RaiseOnMissing makes a missing schedule an error instead of a no-op.
	// Used only where double-cleanup must be detectable.
	RaiseOnMissing bool
}
