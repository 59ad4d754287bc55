package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fyrsmithlabs/simbench/internal/simulation"
)

// Postgres is the pgx-backed Store implementation.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres creates a Postgres store over an existing pool.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) GetSimulation(ctx context.Context, projectID, simulationID string) (*simulation.Simulation, error) {
	var sim simulation.Simulation
	err := s.db.QueryRow(ctx, `
		SELECT s.id, s.project_id, s.agent_id, a.description, s.scenario, s.status,
		       s.target_personas, s.target_conversations, s.max_turns, s.auto_approve,
		       s.expires_at, COALESCE(s.last_failure_reason, ''), s.created_at
		FROM simulations s
		JOIN agents a ON a.id = s.agent_id
		WHERE s.id = $1 AND s.project_id = $2`,
		simulationID, projectID,
	).Scan(
		&sim.ID, &sim.ProjectID, &sim.AgentID, &sim.AgentDescription, &sim.Scenario, &sim.Status,
		&sim.TargetPersonas, &sim.TargetConversations, &sim.MaxTurns, &sim.AutoApprove,
		&sim.ExpiresAt, &sim.LastFailureReason, &sim.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get simulation %s: %w", simulationID, err)
	}
	return &sim, nil
}

func (s *Postgres) UpdateSimulationStatus(ctx context.Context, simulationID string, status simulation.Status, failureReason string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE simulations
		SET status = $2, last_failure_reason = NULLIF($3, ''), updated_at = now()
		WHERE id = $1`,
		simulationID, status, failureReason,
	)
	if err != nil {
		return fmt.Errorf("update simulation %s status: %w", simulationID, err)
	}
	return nil
}

func (s *Postgres) CountPersonas(ctx context.Context, simulationID string, filter *PersonaFilter) (int, error) {
	query := `SELECT count(*) FROM personas WHERE simulation_id = $1`
	args := []any{simulationID}
	if filter != nil {
		query += ` AND approval_status = $2`
		args = append(args, filter.ApprovalStatus)
	}

	var count int
	if err := s.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count personas for %s: %w", simulationID, err)
	}
	return count, nil
}

func (s *Postgres) CreatePersona(ctx context.Context, p *simulation.Persona) error {
	attrs, err := json.Marshal(p.Attributes)
	if err != nil {
		return fmt.Errorf("marshal persona attributes: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO personas (id, simulation_id, approval_status, attributes, story, purpose, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.SimulationID, p.ApprovalStatus, attrs, p.Story, p.Purpose, p.Summary,
	)
	if err != nil {
		return fmt.Errorf("create persona %s: %w", p.ID, err)
	}
	return nil
}

func (s *Postgres) UpdatePersonaApproval(ctx context.Context, personaID string, status simulation.ApprovalStatus) error {
	_, err := s.db.Exec(ctx, `
		UPDATE personas SET approval_status = $2, updated_at = now() WHERE id = $1`,
		personaID, status,
	)
	if err != nil {
		return fmt.Errorf("update persona %s approval: %w", personaID, err)
	}
	return nil
}

func (s *Postgres) GetConversation(ctx context.Context, simulationID, conversationID string) (*simulation.Conversation, error) {
	var c simulation.Conversation
	err := s.db.QueryRow(ctx, `
		SELECT id, simulation_id, persona_id, seq_id, status, COALESCE(end_reason, ''), evaluation_status, created_at
		FROM conversations
		WHERE id = $1 AND simulation_id = $2`,
		conversationID, simulationID,
	).Scan(&c.ID, &c.SimulationID, &c.PersonaID, &c.SeqID, &c.Status, &c.EndReason, &c.EvaluationStatus, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation %s: %w", conversationID, err)
	}
	return &c, nil
}

func (s *Postgres) CountConversations(ctx context.Context, simulationID string, filter *ConversationFilter) (int, error) {
	query := `SELECT count(*) FROM conversations WHERE simulation_id = $1`
	args := []any{simulationID}
	if filter != nil {
		if filter.Status != "" {
			args = append(args, filter.Status)
			query += fmt.Sprintf(` AND status = $%d`, len(args))
		}
		if filter.EvaluationStatus != "" {
			args = append(args, filter.EvaluationStatus)
			query += fmt.Sprintf(` AND evaluation_status = $%d`, len(args))
		}
	}

	var count int
	if err := s.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count conversations for %s: %w", simulationID, err)
	}
	return count, nil
}

func (s *Postgres) ListConversations(ctx context.Context, simulationID string, filter *ConversationFilter) ([]simulation.Conversation, error) {
	query := `
		SELECT id, simulation_id, persona_id, seq_id, status, COALESCE(end_reason, ''), evaluation_status, created_at
		FROM conversations WHERE simulation_id = $1`
	args := []any{simulationID}
	if filter != nil {
		if filter.Status != "" {
			args = append(args, filter.Status)
			query += fmt.Sprintf(` AND status = $%d`, len(args))
		}
		if filter.EvaluationStatus != "" {
			args = append(args, filter.EvaluationStatus)
			query += fmt.Sprintf(` AND evaluation_status = $%d`, len(args))
		}
	}
	query += ` ORDER BY seq_id`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversations for %s: %w", simulationID, err)
	}
	defer rows.Close()

	var out []simulation.Conversation
	for rows.Next() {
		var c simulation.Conversation
		if err := rows.Scan(&c.ID, &c.SimulationID, &c.PersonaID, &c.SeqID, &c.Status, &c.EndReason, &c.EvaluationStatus, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateConversation(ctx context.Context, c *simulation.Conversation) error {
	// seq_id is filled in by a trigger on insert.
	_, err := s.db.Exec(ctx, `
		INSERT INTO conversations (id, simulation_id, persona_id, status, evaluation_status)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.SimulationID, c.PersonaID, c.Status, c.EvaluationStatus,
	)
	if err != nil {
		return fmt.Errorf("create conversation %s: %w", c.ID, err)
	}
	return nil
}

func (s *Postgres) UpdateConversationEvaluationStatus(ctx context.Context, conversationID string, status simulation.EvaluationStatus) error {
	_, err := s.db.Exec(ctx, `
		UPDATE conversations SET evaluation_status = $2, updated_at = now() WHERE id = $1`,
		conversationID, status,
	)
	if err != nil {
		return fmt.Errorf("update conversation %s evaluation status: %w", conversationID, err)
	}
	return nil
}

// EndConversation marks a conversation ended and queues it for evaluation in
// a single write, so a crash cannot leave it ended but never queued.
func (s *Postgres) EndConversation(ctx context.Context, conversationID, endReason string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE conversations
		SET status = 'ended', end_reason = $2, evaluation_status = 'queued', updated_at = now()
		WHERE id = $1`,
		conversationID, endReason,
	)
	if err != nil {
		return fmt.Errorf("end conversation %s: %w", conversationID, err)
	}
	return nil
}

func (s *Postgres) ConversationCandidates(ctx context.Context, q CandidateQuery) ([]Candidate, error) {
	query := `
		SELECT p.id, count(c.id) AS conversation_count
		FROM personas p
		LEFT JOIN conversations c ON c.persona_id = p.id AND c.simulation_id = $1
		WHERE p.simulation_id = $1 AND p.approval_status = 'approved'
		GROUP BY p.id`

	switch {
	case q.Prioritize:
		query += ` HAVING count(c.id) = 0`
	case q.MaxPerPersona > 0:
		query += fmt.Sprintf(` HAVING count(c.id) < %d`, q.MaxPerPersona)
	}

	// Fewest conversations first, random among ties.
	query += ` ORDER BY count(c.id), random() LIMIT $2`

	rows, err := s.db.Query(ctx, query, q.SimulationID, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("conversation candidates for %s: %w", q.SimulationID, err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.PersonaID, &c.ConversationCount); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Postgres) SimulationObjectives(ctx context.Context, simulationID string) ([]simulation.Objective, error) {
	rows, err := s.db.Query(ctx, `
		SELECT so.objective_id, so.objective_version_id, ov.name, ov.criteria
		FROM simulation_objectives so
		JOIN objective_versions ov
		  ON ov.objective_id = so.objective_id AND ov.id = so.objective_version_id
		WHERE so.simulation_id = $1`,
		simulationID,
	)
	if err != nil {
		return nil, fmt.Errorf("simulation objectives for %s: %w", simulationID, err)
	}
	defer rows.Close()

	var out []simulation.Objective
	for rows.Next() {
		var o simulation.Objective
		if err := rows.Scan(&o.ObjectiveID, &o.ObjectiveVersionID, &o.Name, &o.Criteria); err != nil {
			return nil, fmt.Errorf("scan objective: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Postgres) ConversationTranscript(ctx context.Context, conversationID string) ([]simulation.Item, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, conversation_id, type, role, content, created_at
		FROM conversation_items
		WHERE conversation_id = $1
		ORDER BY created_at`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("transcript for %s: %w", conversationID, err)
	}
	defer rows.Close()

	var out []simulation.Item
	for rows.Next() {
		var (
			item    simulation.Item
			content []byte
		)
		if err := rows.Scan(&item.ID, &item.ConversationID, &item.Type, &item.Role, &content, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation item: %w", err)
		}
		if len(content) > 0 {
			if err := json.Unmarshal(content, &item.Content); err != nil {
				return nil, fmt.Errorf("decode item %s content: %w", item.ID, err)
			}
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ReplaceEvaluations wipes and rewrites the evaluation rows for a
// conversation in one transaction. Retrying the whole activity after a crash
// reconstructs the full set, so the replace is idempotent in its final state.
func (s *Postgres) ReplaceEvaluations(ctx context.Context, conversationID string, evals []simulation.Evaluation) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace evaluations: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM conversation_evaluations WHERE conversation_id = $1`, conversationID); err != nil {
		return fmt.Errorf("delete evaluations for %s: %w", conversationID, err)
	}

	for _, e := range evals {
		_, err := tx.Exec(ctx, `
			INSERT INTO conversation_evaluations
				(id, conversation_id, objective_id, objective_version_id, score, reason)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			e.ID, e.ConversationID, e.ObjectiveID, e.ObjectiveVersionID, e.Score, e.Reason,
		)
		if err != nil {
			return fmt.Errorf("insert evaluation for objective %s: %w", e.ObjectiveID, err)
		}
	}

	return tx.Commit(ctx)
}
