package logging

import (
	"context"

	"go.uber.org/zap"
)

type simulationCtxKey struct{}
type requestCtxKey struct{}

// SimulationScope carries the ids a log line should be correlated with.
type SimulationScope struct {
	ProjectID    string
	SimulationID string
}

// WithSimulation attaches simulation correlation ids to the context.
func WithSimulation(ctx context.Context, scope SimulationScope) context.Context {
	return context.WithValue(ctx, simulationCtxKey{}, scope)
}

// WithRequestID attaches an HTTP request id to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestCtxKey{}, requestID)
}

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 3)

	if scope, ok := ctx.Value(simulationCtxKey{}).(SimulationScope); ok {
		fields = append(fields,
			zap.String("project.id", scope.ProjectID),
			zap.String("simulation.id", scope.SimulationID),
		)
	}

	if requestID, ok := ctx.Value(requestCtxKey{}).(string); ok && requestID != "" {
		fields = append(fields, zap.String("request.id", requestID))
	}

	return fields
}
