package workflows

import (
	"context"
	"errors"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/simbench/internal/logging"
)

// ScheduleActivities manages the recurring per-simulation schedules on the
// Temporal schedule client. Creation is idempotent on the deterministic
// schedule id; the overlap policy SKIP guarantees at most one running tick
// per (job, simulation) pair.
type ScheduleActivities struct {
	client client.Client
	cfg    ScheduleConfig
	logger *logging.Logger
}

// ScheduleConfig holds the schedule parameters shared by the three
// recurring jobs.
type ScheduleConfig struct {
	// TaskQueue the scheduled workflows run on.
	TaskQueue string
	// Interval is the tick cadence.
	Interval time.Duration
	// CandidateBatchSize caps conversation candidates per tick.
	CandidateBatchSize int
}

// sched mirrors the nil receiver pattern of Activities for type-safe
// workflow references.
var sched *ScheduleActivities

// NewScheduleActivities wires the schedule activity layer.
func NewScheduleActivities(c client.Client, cfg ScheduleConfig, logger *logging.Logger) *ScheduleActivities {
	return &ScheduleActivities{
		client: c,
		cfg:    cfg,
		logger: logger,
	}
}

// ScheduleAssignPersonas arms the persona assignment schedule and triggers
// the first tick immediately.
func (s *ScheduleActivities) ScheduleAssignPersonas(ctx context.Context, input ScheduleInput) error {
	return s.create(ctx,
		AssignPersonasScheduleID(input.SimulationID),
		AssignPersonasWorkflowName,
		AssignPersonasInput{ProjectID: input.ProjectID, SimulationID: input.SimulationID},
		true,
	)
}

// ScheduleAssignConversations arms the conversation assignment schedule and
// triggers the first tick immediately.
func (s *ScheduleActivities) ScheduleAssignConversations(ctx context.Context, input ScheduleInput) error {
	return s.create(ctx,
		AssignConversationsScheduleID(input.SimulationID),
		AssignConversationsWorkflowName,
		AssignConversationsInput{
			ProjectID:    input.ProjectID,
			SimulationID: input.SimulationID,
			BatchLimit:   s.cfg.CandidateBatchSize,
		},
		true,
	)
}

// ScheduleCheckSimulation arms the completion check schedule. The first
// check runs on the next tick; there is nothing to check right after start.
func (s *ScheduleActivities) ScheduleCheckSimulation(ctx context.Context, input ScheduleInput) error {
	return s.create(ctx,
		CheckSimulationScheduleID(input.SimulationID),
		CheckSimulationWorkflowName,
		CheckSimulationInput{ProjectID: input.ProjectID, SimulationID: input.SimulationID},
		false,
	)
}

// UnscheduleAssignPersonas disarms the persona assignment schedule.
func (s *ScheduleActivities) UnscheduleAssignPersonas(ctx context.Context, input UnscheduleInput) error {
	return s.delete(ctx, AssignPersonasScheduleID(input.SimulationID), input.RaiseOnMissing)
}

// UnscheduleAssignConversations disarms the conversation assignment schedule.
func (s *ScheduleActivities) UnscheduleAssignConversations(ctx context.Context, input UnscheduleInput) error {
	return s.delete(ctx, AssignConversationsScheduleID(input.SimulationID), input.RaiseOnMissing)
}

// UnscheduleCheckSimulation disarms the completion check schedule.
func (s *ScheduleActivities) UnscheduleCheckSimulation(ctx context.Context, input UnscheduleInput) error {
	return s.delete(ctx, CheckSimulationScheduleID(input.SimulationID), input.RaiseOnMissing)
}

func (s *ScheduleActivities) create(ctx context.Context, scheduleID, workflowName string, arg any, triggerNow bool) error {
	handle, err := s.client.ScheduleClient().Create(ctx, client.ScheduleOptions{
		ID: scheduleID,
		Spec: client.ScheduleSpec{
			Intervals: []client.ScheduleIntervalSpec{{Every: s.cfg.Interval}},
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        scheduleID,
			Workflow:  workflowName,
			Args:      []any{arg},
			TaskQueue: s.cfg.TaskQueue,
		},
		Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
	})
	if err != nil {
		// The schedule id is the idempotency key: an existing schedule for
		// this (job, simulation) pair is the desired end state.
		var alreadyExists *serviceerror.AlreadyExists
		if !errors.Is(err, temporal.ErrScheduleAlreadyRunning) && !errors.As(err, &alreadyExists) {
			return err
		}
		handle = s.client.ScheduleClient().GetHandle(ctx, scheduleID)
	}

	if triggerNow {
		if err := handle.Trigger(ctx, client.ScheduleTriggerOptions{
			Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
		}); err != nil {
			return err
		}
	}

	s.logger.Debug(ctx, "schedule armed", zap.String("schedule.id", scheduleID))
	return nil
}

func (s *ScheduleActivities) delete(ctx context.Context, scheduleID string, raiseOnMissing bool) error {
	handle := s.client.ScheduleClient().GetHandle(ctx, scheduleID)

	if err := handle.Delete(ctx); err != nil {
		var (
			notFound     *serviceerror.NotFound
			precondition *serviceerror.FailedPrecondition
		)
		if !errors.As(err, &notFound) && !errors.As(err, &precondition) {
			return err
		}
		if raiseOnMissing {
			return err
		}
		s.logger.Debug(ctx, "schedule already gone", zap.String("schedule.id", scheduleID))
		return nil
	}

	s.logger.Debug(ctx, "schedule disarmed", zap.String("schedule.id", scheduleID))
	return nil
}
