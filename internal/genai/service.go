// Package genai provides the LLM-backed content generators used by the
// orchestration activities: persona generation, scenario/story generation
// and conversation evaluation.
//
// The generators are exposed as small interfaces so the activity layer can
// be tested with stubs; the production implementation speaks to any
// OpenAI-compatible endpoint via langchaingo.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyResponse indicates the model returned no usable content
	ErrEmptyResponse = errors.New("empty model response")
)

// PersonaProfile is a generated synthetic character.
type PersonaProfile struct {
	Attributes map[string]string `json:"attributes"`
	Summary    string            `json:"summary"`
}

// ScenarioContext gives a persona its purpose and backstory for a scenario.
type ScenarioContext struct {
	Purpose string `json:"purpose"`
	Story   string `json:"story"`
}

// ObjectiveSpec is one scoring rubric handed to the evaluator.
type ObjectiveSpec struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Criteria string `json:"criteria"`
}

// Message is one transcript entry handed to the evaluator. Content holds
// text blocks only; everything else is filtered out upstream.
type Message struct {
	Role    string   `json:"role"`
	Content []string `json:"content"`
}

// ObjectiveScore is the evaluator's verdict for one objective.
type ObjectiveScore struct {
	ObjectiveID string  `json:"objective_id"`
	Score       float64 `json:"score"`
	Reason      string  `json:"reason"`
}

// PersonaGenerator produces synthetic persona profiles.
type PersonaGenerator interface {
	GeneratePersona(ctx context.Context) (*PersonaProfile, error)
}

// ScenarioGenerator produces per-persona scenario context.
type ScenarioGenerator interface {
	GenerateContext(ctx context.Context, scenario, agentDescription string, attributes map[string]string) (*ScenarioContext, error)
}

// Evaluator scores a transcript against an objective set in one call.
type Evaluator interface {
	Evaluate(ctx context.Context, objectives []ObjectiveSpec, transcript []Message) ([]ObjectiveScore, error)
}

// Config holds configuration for the generation service.
type Config struct {
	// BaseURL is the base URL of the OpenAI-compatible API
	BaseURL string

	// Model is the chat model to use
	Model string

	// APIKey is the API key for the endpoint
	APIKey string
}

// Service implements all three generator interfaces over one chat model.
type Service struct {
	llm llms.Model
}

// NewService creates a generation service from config.
func NewService(cfg Config) (*Service, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model is required", ErrInvalidConfig)
	}

	opts := []openai.Option{openai.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating llm client: %w", err)
	}

	return &Service{llm: llm}, nil
}

// NewServiceWithModel creates a service over an existing model. Used in tests.
func NewServiceWithModel(llm llms.Model) *Service {
	return &Service{llm: llm}
}

func (s *Service) GeneratePersona(ctx context.Context) (*PersonaProfile, error) {
	var profile PersonaProfile
	if err := s.completeJSON(ctx, personaPrompt, &profile); err != nil {
		return nil, fmt.Errorf("generating persona: %w", err)
	}
	return &profile, nil
}

func (s *Service) GenerateContext(ctx context.Context, scenario, agentDescription string, attributes map[string]string) (*ScenarioContext, error) {
	attrs, err := json.Marshal(attributes)
	if err != nil {
		return nil, fmt.Errorf("marshal attributes: %w", err)
	}

	prompt := fmt.Sprintf(scenarioPromptTemplate, scenario, agentDescription, attrs)

	var sc ScenarioContext
	if err := s.completeJSON(ctx, prompt, &sc); err != nil {
		return nil, fmt.Errorf("generating scenario context: %w", err)
	}
	return &sc, nil
}

func (s *Service) Evaluate(ctx context.Context, objectives []ObjectiveSpec, transcript []Message) ([]ObjectiveScore, error) {
	objectivesJSON, err := json.Marshal(objectives)
	if err != nil {
		return nil, fmt.Errorf("marshal objectives: %w", err)
	}
	transcriptJSON, err := json.Marshal(transcript)
	if err != nil {
		return nil, fmt.Errorf("marshal transcript: %w", err)
	}

	prompt := fmt.Sprintf(evalPromptTemplate, objectivesJSON, transcriptJSON)

	var result struct {
		Evaluations []ObjectiveScore `json:"evaluations"`
	}
	if err := s.completeJSON(ctx, prompt, &result); err != nil {
		return nil, fmt.Errorf("evaluating conversation: %w", err)
	}
	return result.Evaluations, nil
}

// completeJSON runs a single completion and unmarshals the JSON reply.
func (s *Service) completeJSON(ctx context.Context, prompt string, out any) error {
	reply, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt, llms.WithJSONMode())
	if err != nil {
		return err
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return ErrEmptyResponse
	}

	// Some models wrap JSON replies in markdown fences regardless of mode.
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")

	if err := json.Unmarshal([]byte(reply), out); err != nil {
		return fmt.Errorf("decoding model reply: %w", err)
	}
	return nil
}
