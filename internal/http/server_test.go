package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/simbench/internal/logging"
	"github.com/fyrsmithlabs/simbench/internal/simulation"
	"github.com/fyrsmithlabs/simbench/internal/store"
)

// fakeStarter records workflow trigger calls.
type fakeStarter struct {
	runs    []string
	cancels []string
	evals   []string
	err     error
}

func (f *fakeStarter) StartRunSimulation(ctx context.Context, projectID, simulationID string) error {
	f.runs = append(f.runs, simulationID)
	return f.err
}

func (f *fakeStarter) StartCancelSimulation(ctx context.Context, projectID, simulationID string) error {
	f.cancels = append(f.cancels, simulationID)
	return f.err
}

func (f *fakeStarter) StartEvaluateConversation(ctx context.Context, projectID, simulationID, conversationID string) error {
	f.evals = append(f.evals, conversationID)
	return f.err
}

// fakeStore implements store.Store; only the conversation and persona
// methods matter to the API handlers.
type fakeStore struct {
	conversation  *simulation.Conversation
	conversations []simulation.Conversation
	listFilter    *store.ConversationFilter
	ended         []string
	endReasons    []string
	approvals     map[string]simulation.ApprovalStatus
}

func (f *fakeStore) GetSimulation(ctx context.Context, projectID, simulationID string) (*simulation.Simulation, error) {
	return nil, nil
}

func (f *fakeStore) UpdateSimulationStatus(ctx context.Context, simulationID string, status simulation.Status, failureReason string) error {
	return nil
}

func (f *fakeStore) CountPersonas(ctx context.Context, simulationID string, filter *store.PersonaFilter) (int, error) {
	return 0, nil
}

func (f *fakeStore) CreatePersona(ctx context.Context, p *simulation.Persona) error { return nil }

func (f *fakeStore) UpdatePersonaApproval(ctx context.Context, personaID string, status simulation.ApprovalStatus) error {
	if f.approvals == nil {
		f.approvals = make(map[string]simulation.ApprovalStatus)
	}
	f.approvals[personaID] = status
	return nil
}

func (f *fakeStore) GetConversation(ctx context.Context, simulationID, conversationID string) (*simulation.Conversation, error) {
	return f.conversation, nil
}

func (f *fakeStore) CountConversations(ctx context.Context, simulationID string, filter *store.ConversationFilter) (int, error) {
	return 0, nil
}

func (f *fakeStore) ListConversations(ctx context.Context, simulationID string, filter *store.ConversationFilter) ([]simulation.Conversation, error) {
	f.listFilter = filter
	return f.conversations, nil
}

func (f *fakeStore) CreateConversation(ctx context.Context, c *simulation.Conversation) error {
	return nil
}

func (f *fakeStore) UpdateConversationEvaluationStatus(ctx context.Context, conversationID string, status simulation.EvaluationStatus) error {
	return nil
}

func (f *fakeStore) EndConversation(ctx context.Context, conversationID, endReason string) error {
	f.ended = append(f.ended, conversationID)
	f.endReasons = append(f.endReasons, endReason)
	return nil
}

func (f *fakeStore) ConversationCandidates(ctx context.Context, q store.CandidateQuery) ([]store.Candidate, error) {
	return nil, nil
}

func (f *fakeStore) SimulationObjectives(ctx context.Context, simulationID string) ([]simulation.Objective, error) {
	return nil, nil
}

func (f *fakeStore) ConversationTranscript(ctx context.Context, conversationID string) ([]simulation.Item, error) {
	return nil, nil
}

func (f *fakeStore) ReplaceEvaluations(ctx context.Context, conversationID string, evals []simulation.Evaluation) error {
	return nil
}

func newTestServer(t *testing.T, starter *fakeStarter, st *fakeStore) *Server {
	t.Helper()
	server, err := NewServer(starter, st, logging.NewNop(), nil)
	require.NoError(t, err)
	return server
}

func TestNewServer(t *testing.T) {
	t.Run("creates server with valid deps", func(t *testing.T) {
		server := newTestServer(t, &fakeStarter{}, &fakeStore{})
		assert.NotNil(t, server.echo)
		assert.Equal(t, 8080, server.config.Port)
	})

	t.Run("returns error when starter is nil", func(t *testing.T) {
		_, err := NewServer(nil, &fakeStore{}, logging.NewNop(), nil)
		assert.Error(t, err)
	})

	t.Run("returns error when store is nil", func(t *testing.T) {
		_, err := NewServer(&fakeStarter{}, nil, logging.NewNop(), nil)
		assert.Error(t, err)
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		_, err := NewServer(&fakeStarter{}, &fakeStore{}, nil, nil)
		assert.Error(t, err)
	})
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer(t, &fakeStarter{}, &fakeStore{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestHandleRun(t *testing.T) {
	t.Run("accepts and starts the workflow", func(t *testing.T) {
		starter := &fakeStarter{}
		server := newTestServer(t, starter, &fakeStore{})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/proj-1/simulations/sim-1/run", nil)
		server.echo.ServeHTTP(rec, req)

		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, []string{"sim-1"}, starter.runs)
	})

	t.Run("maps starter failure to bad gateway", func(t *testing.T) {
		starter := &fakeStarter{err: errors.New("temporal unavailable")}
		server := newTestServer(t, starter, &fakeStore{})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/proj-1/simulations/sim-1/run", nil)
		server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestHandleCancel(t *testing.T) {
	starter := &fakeStarter{}
	server := newTestServer(t, starter, &fakeStore{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/proj-1/simulations/sim-1/cancel", nil)
	server.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"sim-1"}, starter.cancels)
}

func TestHandleConversationEnd(t *testing.T) {
	endPath := "/api/v1/projects/proj-1/simulations/sim-1/conversations/conv-1/end"

	inProgress := func() *simulation.Conversation {
		return &simulation.Conversation{
			ID:               "conv-1",
			SimulationID:     "sim-1",
			Status:           simulation.ConversationInProgress,
			EvaluationStatus: simulation.EvaluationPending,
		}
	}

	t.Run("ends the conversation then starts the workflow", func(t *testing.T) {
		starter := &fakeStarter{}
		st := &fakeStore{conversation: inProgress()}
		server := newTestServer(t, starter, st)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, endPath, nil)
		server.echo.ServeHTTP(rec, req)

		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, []string{"conv-1"}, st.ended)
		assert.Equal(t, []string{"agent_decided"}, st.endReasons)
		assert.Equal(t, []string{"conv-1"}, starter.evals)
	})

	t.Run("rejects a conversation that already ended", func(t *testing.T) {
		conv := inProgress()
		conv.Status = simulation.ConversationEnded
		conv.EvaluationStatus = simulation.EvaluationCompleted
		starter := &fakeStarter{}
		st := &fakeStore{conversation: conv}
		server := newTestServer(t, starter, st)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, endPath, nil)
		server.echo.ServeHTTP(rec, req)

		// A re-POST must not touch the finished evaluation or start anything.
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, st.ended)
		assert.Empty(t, starter.evals)
	})

	t.Run("rejects a conversation that never started", func(t *testing.T) {
		conv := inProgress()
		conv.Status = simulation.ConversationQueued
		starter := &fakeStarter{}
		st := &fakeStore{conversation: conv}
		server := newTestServer(t, starter, st)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, endPath, nil)
		server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, st.ended)
		assert.Empty(t, starter.evals)
	})

	t.Run("404 on unknown conversation", func(t *testing.T) {
		starter := &fakeStarter{}
		server := newTestServer(t, starter, &fakeStore{})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, endPath, nil)
		server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, starter.evals)
	})
}

func TestRequestIDReachesHandlerContext(t *testing.T) {
	server := newTestServer(t, &fakeStarter{}, &fakeStore{})

	var fields []zap.Field
	server.echo.GET("/ctx", func(c echo.Context) error {
		fields = logging.ContextFields(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ctx", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-123")
	server.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, fields, zap.String("request.id", "req-123"))
}

func TestHandleListConversations(t *testing.T) {
	listPath := "/api/v1/projects/proj-1/simulations/sim-1/conversations"

	t.Run("lists with filters from query params", func(t *testing.T) {
		st := &fakeStore{conversations: []simulation.Conversation{
			{ID: "conv-1", PersonaID: "p-1", SeqID: 1, Status: simulation.ConversationEnded, EvaluationStatus: simulation.EvaluationCompleted},
			{ID: "conv-2", PersonaID: "p-2", SeqID: 2, Status: simulation.ConversationEnded, EvaluationStatus: simulation.EvaluationCompleted},
		}}
		server := newTestServer(t, &fakeStarter{}, st)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, listPath+"?status=ended&evaluation_status=completed", nil)
		server.echo.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var out []ConversationSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out, 2)
		assert.Equal(t, "conv-1", out[0].ID)
		assert.Equal(t, 1, out[0].SeqID)

		require.NotNil(t, st.listFilter)
		assert.Equal(t, simulation.ConversationEnded, st.listFilter.Status)
		assert.Equal(t, simulation.EvaluationCompleted, st.listFilter.EvaluationStatus)
	})

	t.Run("no filters means nil filter", func(t *testing.T) {
		st := &fakeStore{}
		server := newTestServer(t, &fakeStarter{}, st)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, listPath, nil)
		server.echo.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, st.listFilter)
		assert.JSONEq(t, "[]", rec.Body.String())
	})
}

func TestHandlePersonaApproval(t *testing.T) {
	approvalPath := "/api/v1/projects/proj-1/simulations/sim-1/personas/p-1/approval"

	t.Run("records a verdict", func(t *testing.T) {
		st := &fakeStore{}
		server := newTestServer(t, &fakeStarter{}, st)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, approvalPath, strings.NewReader(`{"status":"rejected"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		server.echo.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, simulation.ApprovalRejected, st.approvals["p-1"])
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		st := &fakeStore{}
		server := newTestServer(t, &fakeStarter{}, st)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, approvalPath, strings.NewReader(`{"status":"maybe"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, st.approvals)
	})
}
