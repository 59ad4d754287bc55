// Package store provides the persistence layer for simulations, personas,
// conversations and evaluations. Workflows never touch it directly; the
// activity layer is its only caller.
package store

import (
	"context"

	"github.com/fyrsmithlabs/simbench/internal/simulation"
)

// PersonaFilter narrows persona counts by approval status. A nil filter
// counts everything.
type PersonaFilter struct {
	ApprovalStatus simulation.ApprovalStatus
}

// ConversationFilter narrows conversation counts and listings.
type ConversationFilter struct {
	Status           simulation.ConversationStatus
	EvaluationStatus simulation.EvaluationStatus
}

// Candidate is a persona eligible to receive a new conversation, with its
// current conversation count in the simulation.
type Candidate struct {
	PersonaID         string
	ConversationCount int
}

// CandidateQuery selects approved personas for conversation assignment.
// Personas are ordered by ascending conversation count with random
// tie-break. Prioritize restricts to personas with zero conversations and
// takes precedence over MaxPerPersona.
type CandidateQuery struct {
	SimulationID  string
	Limit         int
	Prioritize    bool
	MaxPerPersona int
}

// Store is the storage collaborator consumed by the activity layer. All
// reads return (nil, nil) or zero counts when the entity is absent; only
// infrastructure failures surface as errors.
type Store interface {
	GetSimulation(ctx context.Context, projectID, simulationID string) (*simulation.Simulation, error)
	UpdateSimulationStatus(ctx context.Context, simulationID string, status simulation.Status, failureReason string) error

	CountPersonas(ctx context.Context, simulationID string, filter *PersonaFilter) (int, error)
	CreatePersona(ctx context.Context, p *simulation.Persona) error
	UpdatePersonaApproval(ctx context.Context, personaID string, status simulation.ApprovalStatus) error

	GetConversation(ctx context.Context, simulationID, conversationID string) (*simulation.Conversation, error)
	CountConversations(ctx context.Context, simulationID string, filter *ConversationFilter) (int, error)
	ListConversations(ctx context.Context, simulationID string, filter *ConversationFilter) ([]simulation.Conversation, error)
	CreateConversation(ctx context.Context, c *simulation.Conversation) error
	UpdateConversationEvaluationStatus(ctx context.Context, conversationID string, status simulation.EvaluationStatus) error
	EndConversation(ctx context.Context, conversationID, endReason string) error

	ConversationCandidates(ctx context.Context, q CandidateQuery) ([]Candidate, error)

	SimulationObjectives(ctx context.Context, simulationID string) ([]simulation.Objective, error)
	ConversationTranscript(ctx context.Context, conversationID string) ([]simulation.Item, error)
	ReplaceEvaluations(ctx context.Context, conversationID string, evals []simulation.Evaluation) error
}
