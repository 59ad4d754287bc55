// Package simulation defines the domain model for simulations: scripted
// conversations between generated personas and an agent under test, scored
// against a pinned set of objectives.
package simulation

import "time"

// Status is the lifecycle state of a simulation.
type Status string

const (
	StatusPending    Status = "pending"
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusExpired    Status = "expired"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

// Terminal reports whether the status is one a simulation never leaves.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusExpired, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// ApprovalStatus is the human-in-the-loop review state of a persona.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ConversationStatus tracks the conversation itself; transitions past queued
// are driven by the conversation endpoint, not the orchestration engine.
type ConversationStatus string

const (
	ConversationQueued     ConversationStatus = "queued"
	ConversationInProgress ConversationStatus = "in_progress"
	ConversationEnded      ConversationStatus = "ended"
	ConversationFailed     ConversationStatus = "failed"
)

// EvaluationStatus tracks the single evaluation pass over a conversation.
type EvaluationStatus string

const (
	EvaluationNotApplicable EvaluationStatus = "not_applicable"
	EvaluationPending       EvaluationStatus = "pending"
	EvaluationQueued        EvaluationStatus = "queued"
	EvaluationInProgress    EvaluationStatus = "in_progress"
	EvaluationCompleted     EvaluationStatus = "completed"
	EvaluationFailed        EvaluationStatus = "failed"
)

// DefaultExpiry is applied when a simulation has no explicit expires_at.
const DefaultExpiry = 24 * time.Hour

// Simulation is a bounded campaign of synthetic-persona conversations
// against one agent.
type Simulation struct {
	ID                  string
	ProjectID           string
	AgentID             string
	AgentDescription    string
	Scenario            string
	Status              Status
	TargetPersonas      int
	TargetConversations int
	MaxTurns            int
	AutoApprove         bool
	ExpiresAt           *time.Time
	LastFailureReason   string
	CreatedAt           time.Time
}

// ExpiredAt reports whether the simulation is past its deadline at the given
// instant. A nil ExpiresAt falls back to CreatedAt + DefaultExpiry.
func (s *Simulation) ExpiredAt(now time.Time) bool {
	if s.ExpiresAt != nil {
		return now.After(*s.ExpiresAt)
	}
	if s.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(s.CreatedAt) > DefaultExpiry
}

// Persona is a generated synthetic character used to converse with the agent.
type Persona struct {
	ID             string
	SimulationID   string
	ApprovalStatus ApprovalStatus
	Attributes     map[string]string
	Story          string
	Purpose        string
	Summary        string
	CreatedAt      time.Time
}

// Conversation binds one persona to one scripted exchange with the agent.
// SeqID is assigned by a storage-side trigger and never written here.
type Conversation struct {
	ID               string
	SimulationID     string
	PersonaID        string
	SeqID            int
	Status           ConversationStatus
	EndReason        string
	EvaluationStatus EvaluationStatus
	CreatedAt        time.Time
}

// ContentBlock is one block of a conversation item. Only text blocks are
// considered during evaluation.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Item is one entry in a conversation transcript. Only message items are
// considered during evaluation.
type Item struct {
	ID             string
	ConversationID string
	Type           string
	Role           string
	Content        []ContentBlock
	CreatedAt      time.Time
}

// Objective is a simulation's pinned scoring rubric: an objective id plus the
// specific version fixed at simulation creation time.
type Objective struct {
	ObjectiveID        string
	ObjectiveVersionID string
	Name               string
	Criteria           string
}

// Evaluation is one scored objective for a conversation. The full set is
// replaced, never merged, each time evaluation runs.
type Evaluation struct {
	ID                 string
	ConversationID     string
	ObjectiveID        string
	ObjectiveVersionID string
	Score              float64
	Reason             string
	CreatedAt          time.Time
}
