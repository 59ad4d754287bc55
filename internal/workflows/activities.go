package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/simbench/internal/genai"
	"github.com/fyrsmithlabs/simbench/internal/logging"
	"github.com/fyrsmithlabs/simbench/internal/simulation"
	"github.com/fyrsmithlabs/simbench/internal/store"
)

// Activities hosts the storage- and generation-backed activity
// implementations. Dependencies are injected at construction; workflows
// refer to the methods through the package-level nil receiver below, which
// Temporal resolves by method name at execution time.
type Activities struct {
	store       store.Store
	personaGen  genai.PersonaGenerator
	scenarioGen genai.ScenarioGenerator
	evaluator   genai.Evaluator
	logger      *logging.Logger
}

// a is used by workflow code for type-safe activity references only; the
// registered instance carries the real dependencies.
var a *Activities

// NewActivities wires the activity layer.
func NewActivities(
	st store.Store,
	personaGen genai.PersonaGenerator,
	scenarioGen genai.ScenarioGenerator,
	evaluator genai.Evaluator,
	logger *logging.Logger,
) *Activities {
	return &Activities{
		store:       st,
		personaGen:  personaGen,
		scenarioGen: scenarioGen,
		evaluator:   evaluator,
		logger:      logger,
	}
}

// GetSimulation fetches a simulation. A missing simulation is not an
// activity error; the output carries nil and the workflow decides.
func (act *Activities) GetSimulation(ctx context.Context, input GetSimulationInput) (*GetSimulationOutput, error) {
	sim, err := act.store.GetSimulation(ctx, input.ProjectID, input.SimulationID)
	if err != nil {
		return nil, err
	}
	return &GetSimulationOutput{Simulation: sim}, nil
}

// UpdateSimulationStatus writes a new lifecycle status.
func (act *Activities) UpdateSimulationStatus(ctx context.Context, input UpdateSimulationStatusInput) error {
	if err := act.store.UpdateSimulationStatus(ctx, input.SimulationID, input.Status, input.FailureReason); err != nil {
		return err
	}
	statusTransitionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", string(input.Status)),
	))
	return nil
}

// CountPersonas counts personas, optionally filtered by approval status.
func (act *Activities) CountPersonas(ctx context.Context, input CountPersonasInput) (*CountPersonasOutput, error) {
	var filter *store.PersonaFilter
	if input.ApprovalStatus != "" {
		filter = &store.PersonaFilter{ApprovalStatus: input.ApprovalStatus}
	}
	count, err := act.store.CountPersonas(ctx, input.SimulationID, filter)
	if err != nil {
		return nil, err
	}
	return &CountPersonasOutput{Count: count}, nil
}

// CountConversations counts conversations, optionally filtered by
// evaluation status.
func (act *Activities) CountConversations(ctx context.Context, input CountConversationsInput) (*CountConversationsOutput, error) {
	var filter *store.ConversationFilter
	if input.EvaluationStatus != "" {
		filter = &store.ConversationFilter{EvaluationStatus: input.EvaluationStatus}
	}
	count, err := act.store.CountConversations(ctx, input.SimulationID, filter)
	if err != nil {
		return nil, err
	}
	return &CountConversationsOutput{Count: count}, nil
}

// CreatePersona generates a persona profile and its scenario context, then
// commits one row. Generation runs before the single write so a retry after
// a crash only repeats the re-runnable expensive part.
func (act *Activities) CreatePersona(ctx context.Context, input CreatePersonaInput) (*CreatePersonaOutput, error) {
	ctx = logging.WithSimulation(ctx, logging.SimulationScope{
		ProjectID:    input.ProjectID,
		SimulationID: input.SimulationID,
	})

	profile, err := act.personaGen.GeneratePersona(ctx)
	if err != nil {
		return nil, fmt.Errorf("generating persona: %w", err)
	}

	scenarioCtx, err := act.scenarioGen.GenerateContext(ctx, input.Scenario, input.AgentDescription, profile.Attributes)
	if err != nil {
		return nil, fmt.Errorf("generating scenario context: %w", err)
	}

	approval := simulation.ApprovalPending
	if input.AutoApprove {
		approval = simulation.ApprovalApproved
	}

	persona := &simulation.Persona{
		ID:             uuid.NewString(),
		SimulationID:   input.SimulationID,
		ApprovalStatus: approval,
		Attributes:     profile.Attributes,
		Story:          scenarioCtx.Story,
		Purpose:        scenarioCtx.Purpose,
		Summary:        profile.Summary,
	}

	if err := act.store.CreatePersona(ctx, persona); err != nil {
		return nil, err
	}

	personaCreatedCounter.Add(ctx, 1)
	act.logger.Debug(ctx, "persona created", zap.String("persona.id", persona.ID))

	return &CreatePersonaOutput{Persona: persona}, nil
}

// GetConversationCandidates selects approved personas eligible for a new
// conversation this tick.
func (act *Activities) GetConversationCandidates(ctx context.Context, input GetConversationCandidatesInput) (*GetConversationCandidatesOutput, error) {
	candidates, err := act.store.ConversationCandidates(ctx, store.CandidateQuery{
		SimulationID:  input.SimulationID,
		Limit:         input.Limit,
		Prioritize:    input.Prioritize,
		MaxPerPersona: input.MaxPerPersona,
	})
	if err != nil {
		return nil, err
	}
	return &GetConversationCandidatesOutput{Candidates: candidates}, nil
}

// CreateConversation creates one queued conversation bound to a persona.
func (act *Activities) CreateConversation(ctx context.Context, input CreateConversationInput) (*CreateConversationOutput, error) {
	ctx = logging.WithSimulation(ctx, logging.SimulationScope{
		ProjectID:    input.ProjectID,
		SimulationID: input.SimulationID,
	})

	conv := &simulation.Conversation{
		ID:               uuid.NewString(),
		SimulationID:     input.SimulationID,
		PersonaID:        input.PersonaID,
		Status:           simulation.ConversationQueued,
		EvaluationStatus: simulation.EvaluationPending,
	}

	if err := act.store.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}

	conversationCounter.Add(ctx, 1)
	act.logger.Debug(ctx, "conversation created",
		zap.String("conversation.id", conv.ID),
		zap.String("persona.id", input.PersonaID),
	)

	return &CreateConversationOutput{Conversation: conv}, nil
}

// GetConversation fetches a conversation; nil output when absent.
func (act *Activities) GetConversation(ctx context.Context, input GetConversationInput) (*GetConversationOutput, error) {
	conv, err := act.store.GetConversation(ctx, input.SimulationID, input.ConversationID)
	if err != nil {
		return nil, err
	}
	return &GetConversationOutput{Conversation: conv}, nil
}

// UpdateConversationStatus writes a new evaluation status.
func (act *Activities) UpdateConversationStatus(ctx context.Context, input UpdateConversationStatusInput) error {
	return act.store.UpdateConversationEvaluationStatus(ctx, input.ConversationID, input.EvaluationStatus)
}

// EvaluateConversation scores the transcript against the simulation's
// pinned objective set and replaces the stored evaluation rows. With zero
// objectives it short-circuits the conversation straight to completed.
func (act *Activities) EvaluateConversation(ctx context.Context, input EvaluateConversationActivityInput) error {
	ctx = logging.WithSimulation(ctx, logging.SimulationScope{
		ProjectID:    input.ProjectID,
		SimulationID: input.SimulationID,
	})

	conv, err := act.store.GetConversation(ctx, input.SimulationID, input.ConversationID)
	if err != nil {
		return err
	}
	if conv == nil {
		return fmt.Errorf("conversation %s not found", input.ConversationID)
	}

	objectives, err := act.store.SimulationObjectives(ctx, input.SimulationID)
	if err != nil {
		return err
	}

	if len(objectives) == 0 {
		return act.store.UpdateConversationEvaluationStatus(ctx, input.ConversationID, simulation.EvaluationCompleted)
	}

	items, err := act.store.ConversationTranscript(ctx, input.ConversationID)
	if err != nil {
		return err
	}

	specs := make([]genai.ObjectiveSpec, 0, len(objectives))
	for _, obj := range objectives {
		specs = append(specs, genai.ObjectiveSpec{
			ID:       obj.ObjectiveID,
			Name:     obj.Name,
			Criteria: obj.Criteria,
		})
	}

	start := time.Now()
	scores, err := act.evaluator.Evaluate(ctx, specs, transcriptMessages(items))
	if err != nil {
		return fmt.Errorf("evaluating conversation %s: %w", input.ConversationID, err)
	}
	evaluationDuration.Record(ctx, time.Since(start).Seconds())

	byObjective := make(map[string]simulation.Objective, len(objectives))
	for _, obj := range objectives {
		byObjective[obj.ObjectiveID] = obj
	}

	evals := make([]simulation.Evaluation, 0, len(scores))
	for _, score := range scores {
		// Scores for objectives the simulation never pinned are dropped.
		obj, ok := byObjective[score.ObjectiveID]
		if !ok {
			act.logger.Warn(ctx, "evaluator returned unknown objective",
				zap.String("objective.id", score.ObjectiveID),
				zap.String("conversation.id", input.ConversationID),
			)
			continue
		}
		evaluationScoreHist.Record(ctx, score.Score, metric.WithAttributes(
			attribute.String("objective.id", obj.ObjectiveID),
		))
		evals = append(evals, simulation.Evaluation{
			ID:                 uuid.NewString(),
			ConversationID:     input.ConversationID,
			ObjectiveID:        obj.ObjectiveID,
			ObjectiveVersionID: obj.ObjectiveVersionID,
			Score:              score.Score,
			Reason:             score.Reason,
		})
	}

	return act.store.ReplaceEvaluations(ctx, input.ConversationID, evals)
}

// transcriptMessages extracts the scoreable transcript: message items only,
// text blocks only.
func transcriptMessages(items []simulation.Item) []genai.Message {
	messages := make([]genai.Message, 0, len(items))
	for _, item := range items {
		if item.Type != "message" {
			continue
		}
		var content []string
		for _, block := range item.Content {
			if block.Type != "text" {
				continue
			}
			content = append(content, block.Text)
		}
		messages = append(messages, genai.Message{
			Role:    item.Role,
			Content: content,
		})
	}
	return messages
}
