// Package http provides the HTTP API for simbench: run/cancel triggers for
// simulations and the conversation-end hook that queues evaluation.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/simbench/internal/logging"
	"github.com/fyrsmithlabs/simbench/internal/simulation"
	"github.com/fyrsmithlabs/simbench/internal/store"
)

// WorkflowStarter starts the externally-triggered workflows. Implemented by
// workflows.Starter.
type WorkflowStarter interface {
	StartRunSimulation(ctx context.Context, projectID, simulationID string) error
	StartCancelSimulation(ctx context.Context, projectID, simulationID string) error
	StartEvaluateConversation(ctx context.Context, projectID, simulationID, conversationID string) error
}

// Server exposes the simulation control endpoints.
type Server struct {
	echo    *echo.Echo
	starter WorkflowStarter
	store   store.Store
	logger  *logging.Logger
	config  *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates the API server.
func NewServer(starter WorkflowStarter, st store.Store, logger *logging.Logger, cfg *Config) (*Server, error) {
	if starter == nil {
		return nil, fmt.Errorf("starter cannot be nil")
	}
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8080,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewHTTPMetrics(logger.Zap()).MetricsMiddleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Propagate the request id so every log line downstream of
			// this request carries it.
			ctx := logging.WithRequestID(c.Request().Context(),
				c.Response().Header().Get(echo.HeaderXRequestID))
			c.SetRequest(c.Request().WithContext(ctx))

			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info(ctx, "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
			)

			return err
		}
	})

	s := &Server{
		echo:    e,
		starter: starter,
		store:   st,
		logger:  logger,
		config:  cfg,
	}

	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	v1 := s.echo.Group("/api/v1")
	sims := v1.Group("/projects/:project_id/simulations/:simulation_id")
	sims.POST("/run", s.handleRun)
	sims.POST("/cancel", s.handleCancel)
	sims.GET("/conversations", s.handleListConversations)
	sims.POST("/conversations/:conversation_id/end", s.handleConversationEnd)
	sims.PUT("/personas/:persona_id/approval", s.handlePersonaApproval)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// AcceptedResponse acknowledges an asynchronous trigger.
type AcceptedResponse struct {
	SimulationID   string `json:"simulation_id"`
	ConversationID string `json:"conversation_id,omitempty"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleRun triggers the run workflow. The workflow itself validates the
// simulation's state; the handler only hands off.
func (s *Server) handleRun(c echo.Context) error {
	ctx := c.Request().Context()
	projectID := c.Param("project_id")
	simulationID := c.Param("simulation_id")

	if err := s.starter.StartRunSimulation(ctx, projectID, simulationID); err != nil {
		s.logger.Error(ctx, "failed to start run workflow",
			zap.String("simulation_id", simulationID), zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "could not start simulation")
	}

	return c.JSON(http.StatusAccepted, AcceptedResponse{SimulationID: simulationID})
}

// handleCancel triggers the cancel workflow.
func (s *Server) handleCancel(c echo.Context) error {
	ctx := c.Request().Context()
	projectID := c.Param("project_id")
	simulationID := c.Param("simulation_id")

	if err := s.starter.StartCancelSimulation(ctx, projectID, simulationID); err != nil {
		s.logger.Error(ctx, "failed to start cancel workflow",
			zap.String("simulation_id", simulationID), zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "could not cancel simulation")
	}

	return c.JSON(http.StatusAccepted, AcceptedResponse{SimulationID: simulationID})
}

// handleConversationEnd ends an in-progress conversation, queues it for
// evaluation and starts the evaluation workflow. The ended+queued write must
// land before the workflow starts, since the workflow refuses conversations
// in any other evaluation state. An already-ended conversation is rejected so
// a re-POST cannot reset a finished evaluation back to queued.
func (s *Server) handleConversationEnd(c echo.Context) error {
	ctx := c.Request().Context()
	projectID := c.Param("project_id")
	simulationID := c.Param("simulation_id")
	conversationID := c.Param("conversation_id")

	conv, err := s.store.GetConversation(ctx, simulationID, conversationID)
	if err != nil {
		s.logger.Error(ctx, "conversation lookup failed",
			zap.String("conversation_id", conversationID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "conversation lookup failed")
	}
	if conv == nil {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}
	if conv.Status == simulation.ConversationEnded {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation has already been ended")
	}
	if conv.Status != simulation.ConversationInProgress {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation is not in a valid state to end")
	}

	if err := s.store.EndConversation(ctx, conversationID, "agent_decided"); err != nil {
		s.logger.Error(ctx, "failed to end conversation",
			zap.String("conversation_id", conversationID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "could not end conversation")
	}

	if err := s.starter.StartEvaluateConversation(ctx, projectID, simulationID, conversationID); err != nil {
		s.logger.Error(ctx, "failed to start evaluation workflow",
			zap.String("conversation_id", conversationID), zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "could not start evaluation")
	}

	return c.JSON(http.StatusAccepted, AcceptedResponse{
		SimulationID:   simulationID,
		ConversationID: conversationID,
	})
}

// ConversationSummary is one entry in the conversation listing.
type ConversationSummary struct {
	ID               string `json:"id"`
	PersonaID        string `json:"persona_id"`
	SeqID            int    `json:"seq_id"`
	Status           string `json:"status"`
	EvaluationStatus string `json:"evaluation_status"`
}

// handleListConversations lists a simulation's conversations, optionally
// filtered by status and evaluation status query parameters.
func (s *Server) handleListConversations(c echo.Context) error {
	simulationID := c.Param("simulation_id")

	var filter *store.ConversationFilter
	status := c.QueryParam("status")
	evalStatus := c.QueryParam("evaluation_status")
	if status != "" || evalStatus != "" {
		filter = &store.ConversationFilter{
			Status:           simulation.ConversationStatus(status),
			EvaluationStatus: simulation.EvaluationStatus(evalStatus),
		}
	}

	conversations, err := s.store.ListConversations(c.Request().Context(), simulationID, filter)
	if err != nil {
		s.logger.Error(c.Request().Context(), "conversation listing failed",
			zap.String("simulation_id", simulationID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "could not list conversations")
	}

	out := make([]ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		out = append(out, ConversationSummary{
			ID:               conv.ID,
			PersonaID:        conv.PersonaID,
			SeqID:            conv.SeqID,
			Status:           string(conv.Status),
			EvaluationStatus: string(conv.EvaluationStatus),
		})
	}
	return c.JSON(http.StatusOK, out)
}

// ApprovalRequest is the request body for PUT .../personas/:persona_id/approval.
type ApprovalRequest struct {
	Status string `json:"status"`
}

// handlePersonaApproval records a reviewer's verdict on a generated persona.
// Rejected personas are replaced by the persona assignment job on its next
// tick.
func (s *Server) handlePersonaApproval(c echo.Context) error {
	personaID := c.Param("persona_id")

	var req ApprovalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	status := simulation.ApprovalStatus(req.Status)
	switch status {
	case simulation.ApprovalApproved, simulation.ApprovalRejected:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "status must be approved or rejected")
	}

	if err := s.store.UpdatePersonaApproval(c.Request().Context(), personaID, status); err != nil {
		s.logger.Error(c.Request().Context(), "persona approval update failed",
			zap.String("persona_id", personaID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "could not update approval")
	}

	return c.NoContent(http.StatusNoContent)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
