package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Rescheduler propagates a planned-end change through the dependency graph,
// pushing dependent tasks forward. It never pulls a task earlier: moving a
// predecessor's end date back leaves successors where they are.
type Rescheduler struct {
	store  Store
	logger *zap.Logger

	tracer       trace.Tracer
	meter        metric.Meter
	shiftCounter metric.Int64Counter
}

// NewRescheduler creates a cascade rescheduler over the given store.
func NewRescheduler(store Store, logger *zap.Logger) (*Rescheduler, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Rescheduler{
		store:  store,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}

	var err error
	r.shiftCounter, err = r.meter.Int64Counter(
		"pland.schedule.tasks_shifted_total",
		metric.WithDescription("Tasks shifted by the cascade rescheduler"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		r.logger.Warn("failed to create shift counter", zap.Error(err))
	}

	return r, nil
}

// ShiftDependents walks the successors of taskID after its planned end moved
// to newEnd, and recursively pushes each dependent later when the new finish
// plus lag lands past the dependent's current start. The shifted task keeps
// its inclusive-day span; its own successors are then visited with its new
// end date.
//
// Successors that are unscheduled or outside the project are skipped
// silently: nothing to propagate. Each shift is written immediately; there
// is no rollback if a later branch fails. Diamond shapes may visit a task
// twice; the second visit either no-ops or shifts it further, so the final
// start is the maximum candidate regardless of traversal order.
func (r *Rescheduler) ShiftDependents(ctx context.Context, projectID, taskID string, newEnd time.Time) error {
	ctx, span := r.tracer.Start(ctx, "schedule.shift_dependents")
	defer span.End()
	span.SetAttributes(
		attribute.String("project_id", projectID),
		attribute.String("task_id", taskID),
	)

	return r.shift(ctx, projectID, taskID, newEnd)
}

func (r *Rescheduler) shift(ctx context.Context, projectID, taskID string, newEnd time.Time) error {
	deps, err := r.store.ListDependenciesFrom(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to list dependents of %s: %w", taskID, err)
	}

	for _, dep := range deps {
		succ, err := r.store.GetTask(ctx, projectID, dep.SuccessorID)
		if err != nil {
			// Missing or out-of-project successor: nothing to propagate.
			r.logger.Debug("skipping cascade branch",
				zap.String("successor_id", dep.SuccessorID),
				zap.Error(err),
			)
			continue
		}
		if succ.PlannedStart == nil {
			// Unscheduled tasks are never auto-shifted.
			continue
		}

		candidate := newEnd.AddDate(0, 0, dep.LagDays)
		if !candidate.After(*succ.PlannedStart) {
			// Forward only. No change, no recursion down this branch.
			continue
		}

		newStart := candidate
		newSuccEnd := succ.PlannedEnd
		if dur, ok := succ.DurationDays(); ok {
			// Keep the successor's span: an inclusive n-day task still
			// covers n days after the shift.
			shifted := newStart.AddDate(0, 0, dur-1)
			newSuccEnd = &shifted
		}

		if err := r.store.UpdateTaskDates(ctx, succ.ID, &newStart, newSuccEnd); err != nil {
			return fmt.Errorf("failed to shift task %s: %w", succ.ID, err)
		}

		if r.shiftCounter != nil {
			r.shiftCounter.Add(ctx, 1)
		}
		r.logger.Debug("auto-shifted dependent task",
			zap.String("task_id", succ.ID),
			zap.Time("new_start", newStart),
			zap.Int("lag_days", dep.LagDays),
		)

		if newSuccEnd != nil {
			if err := r.shift(ctx, projectID, succ.ID, *newSuccEnd); err != nil {
				return err
			}
		}
	}

	return nil
}
