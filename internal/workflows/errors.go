package workflows

import (
	"fmt"

	"go.temporal.io/sdk/temporal"
)

// Application error types recorded on workflow failures. Invalid-state and
// not-found failures are non-retryable: retrying the same workflow run
// cannot change the observed state, only a fresh start request can.
const (
	errTypeNotFound     = "NotFound"
	errTypeInvalidState = "InvalidState"
	errTypeExpired      = "SimulationExpired"
)

// NewSimulationNotFoundError reports a simulation that vanished out from
// under a workflow.
func NewSimulationNotFoundError(simulationID string) error {
	return temporal.NewNonRetryableApplicationError(
		fmt.Sprintf("simulation %s does not exist", simulationID),
		errTypeNotFound, nil)
}

// NewConversationNotFoundError reports a conversation that vanished out
// from under a workflow.
func NewConversationNotFoundError(conversationID string) error {
	return temporal.NewNonRetryableApplicationError(
		fmt.Sprintf("conversation %s does not exist", conversationID),
		errTypeNotFound, nil)
}

// NewInvalidStateError reports a status a workflow should never observe.
// These indicate a bug in transition ordering and are never swallowed.
func NewInvalidStateError(entity, id, status string) error {
	return temporal.NewNonRetryableApplicationError(
		fmt.Sprintf("%s %s is in an invalid state (%s)", entity, id, status),
		errTypeInvalidState, nil)
}

// NewSimulationExpiredError surfaces an expired simulation to operators as
// a workflow failure.
func NewSimulationExpiredError(simulationID string) error {
	return temporal.NewNonRetryableApplicationError(
		fmt.Sprintf("simulation %s expired", simulationID),
		errTypeExpired, nil)
}
