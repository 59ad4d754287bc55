package workflows

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/fyrsmithlabs/simbench/internal/workflows"

var (
	statusTransitionCounter metric.Int64Counter
	personaCreatedCounter   metric.Int64Counter
	conversationCounter     metric.Int64Counter
	evaluationDuration      metric.Float64Histogram
	evaluationScoreHist     metric.Float64Histogram
)

// initMetrics initializes OpenTelemetry instruments for the activity layer.
// Called once during package initialization.
func initMetrics() {
	meter := otel.Meter(instrumentationName)

	var err error

	statusTransitionCounter, err = meter.Int64Counter(
		"simbench.simulation.status_transitions",
		metric.WithDescription("Simulation lifecycle status writes, by target status"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create status transition counter: %v", err))
	}

	personaCreatedCounter, err = meter.Int64Counter(
		"simbench.personas.created",
		metric.WithDescription("Personas generated and committed"),
		metric.WithUnit("{persona}"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create persona counter: %v", err))
	}

	conversationCounter, err = meter.Int64Counter(
		"simbench.conversations.created",
		metric.WithDescription("Conversations assigned to personas"),
		metric.WithUnit("{conversation}"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create conversation counter: %v", err))
	}

	evaluationDuration, err = meter.Float64Histogram(
		"simbench.evaluation.duration",
		metric.WithDescription("Wall time of conversation evaluation activities"),
		metric.WithUnit("s"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create evaluation duration histogram: %v", err))
	}

	evaluationScoreHist, err = meter.Float64Histogram(
		"simbench.evaluation.score",
		metric.WithDescription("Objective scores produced by evaluations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create evaluation score histogram: %v", err))
	}
}

func init() {
	initMetrics()
}
