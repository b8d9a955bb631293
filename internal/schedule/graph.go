package schedule

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pland/internal/audit"
)

const instrumentationName = "github.com/fyrsmithlabs/pland/internal/schedule"

// Graph maintains the directed dependency edges between tasks and guarantees
// the per-project graph stays acyclic. The graph is never held in memory
// between requests; every operation rebuilds what it needs from the store.
type Graph struct {
	store  Store
	audit  audit.Recorder
	logger *zap.Logger

	tracer        trace.Tracer
	meter         metric.Meter
	addCounter    metric.Int64Counter
	rejectCounter metric.Int64Counter
}

// AddDependencyRequest carries the parameters for a new edge.
type AddDependencyRequest struct {
	PredecessorID string
	SuccessorID   string
	Type          DependencyType
	LagDays       int
}

// NewGraph creates a dependency graph service over the given store.
func NewGraph(store Store, recorder audit.Recorder, logger *zap.Logger) (*Graph, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if recorder == nil {
		return nil, errors.New("audit recorder is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Graph{
		store:  store,
		audit:  recorder,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}
	g.initMetrics()

	return g, nil
}

func (g *Graph) initMetrics() {
	var err error

	g.addCounter, err = g.meter.Int64Counter(
		"pland.schedule.dependencies_added_total",
		metric.WithDescription("Total dependency edges created"),
		metric.WithUnit("{edge}"),
	)
	if err != nil {
		g.logger.Warn("failed to create add counter", zap.Error(err))
	}

	g.rejectCounter, err = g.meter.Int64Counter(
		"pland.schedule.dependencies_rejected_total",
		metric.WithDescription("Dependency edges rejected by validation, labeled by reason"),
		metric.WithUnit("{edge}"),
	)
	if err != nil {
		g.logger.Warn("failed to create reject counter", zap.Error(err))
	}
}

// AddDependency validates and inserts a new edge.
//
// Rejections are user-facing validation errors, not system failures:
// self-loops (ErrSelfDependency), endpoints missing from the project
// (ErrTaskNotFound), and edges that would close a loop (ErrCycle).
func (g *Graph) AddDependency(ctx context.Context, projectID string, req *AddDependencyRequest) (*Dependency, error) {
	ctx, span := g.tracer.Start(ctx, "schedule.add_dependency")
	defer span.End()

	span.SetAttributes(
		attribute.String("project_id", projectID),
		attribute.String("predecessor_id", req.PredecessorID),
		attribute.String("successor_id", req.SuccessorID),
	)

	depType := req.Type
	if depType == "" {
		depType = FinishToStart
	}
	if !depType.Valid() {
		g.countReject(ctx, "invalid_type")
		return nil, fmt.Errorf("%w: %q", ErrInvalidDependencyType, req.Type)
	}

	if req.PredecessorID == req.SuccessorID {
		g.countReject(ctx, "self_loop")
		return nil, ErrSelfDependency
	}

	// Both endpoints must exist in this project.
	pred, err := g.store.GetTask(ctx, projectID, req.PredecessorID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			g.countReject(ctx, "predecessor_missing")
			return nil, fmt.Errorf("%w: predecessor %s not in this project", ErrTaskNotFound, req.PredecessorID)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load predecessor: %w", err)
	}
	succ, err := g.store.GetTask(ctx, projectID, req.SuccessorID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			g.countReject(ctx, "successor_missing")
			return nil, fmt.Errorf("%w: successor %s not in this project", ErrTaskNotFound, req.SuccessorID)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load successor: %w", err)
	}

	// The new edge would close a loop if the predecessor is already
	// reachable from the successor through existing edges.
	cyclic, err := g.reachable(ctx, req.SuccessorID, req.PredecessorID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("cycle check failed: %w", err)
	}
	if cyclic {
		g.countReject(ctx, "cycle")
		g.logger.Info("rejected cyclic dependency",
			zap.String("project_id", projectID),
			zap.String("predecessor_id", req.PredecessorID),
			zap.String("successor_id", req.SuccessorID),
		)
		return nil, ErrCycle
	}

	dep, err := g.store.CreateDependency(ctx, &Dependency{
		PredecessorID: req.PredecessorID,
		SuccessorID:   req.SuccessorID,
		Type:          depType,
		LagDays:       req.LagDays,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to create dependency: %w", err)
	}

	if g.addCounter != nil {
		g.addCounter.Add(ctx, 1)
	}

	g.audit.Record(ctx, audit.Entry{
		Entity:    "TaskDependency",
		Action:    audit.ActionCreate,
		EntityID:  dep.ID,
		Summary:   fmt.Sprintf("Dependency: %q -> %q (%s, lag %dd)", pred.Name, succ.Name, dep.Type, dep.LagDays),
		ProjectID: projectID,
	})

	return dep, nil
}

// RemoveDependency deletes an edge by id, scoped to the project through its
// predecessor. No recalculation is triggered; callers that want consistent
// critical-path flags must invoke the Calculator afterwards.
func (g *Graph) RemoveDependency(ctx context.Context, projectID, depID string) error {
	ctx, span := g.tracer.Start(ctx, "schedule.remove_dependency")
	defer span.End()

	span.SetAttributes(
		attribute.String("project_id", projectID),
		attribute.String("dependency_id", depID),
	)

	dep, err := g.store.GetDependency(ctx, depID)
	if err != nil {
		return err
	}

	// Out-of-project edges look like missing ones to the caller.
	pred, err := g.store.GetTask(ctx, projectID, dep.PredecessorID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return fmt.Errorf("%w: %s", ErrDependencyNotFound, depID)
		}
		return fmt.Errorf("failed to scope dependency: %w", err)
	}

	if err := g.store.DeleteDependency(ctx, depID); err != nil {
		span.RecordError(err)
		return err
	}

	succName := dep.SuccessorID
	if succ, err := g.store.GetTask(ctx, projectID, dep.SuccessorID); err == nil {
		succName = succ.Name
	}
	g.audit.Record(ctx, audit.Entry{
		Entity:    "TaskDependency",
		Action:    audit.ActionDelete,
		EntityID:  depID,
		Summary:   fmt.Sprintf("Removed dependency: %q -> %q", pred.Name, succName),
		ProjectID: projectID,
	})

	return nil
}

// reachable walks outgoing edges depth-first from fromID and reports whether
// targetID can be reached. The visited set guards against revisits and keeps
// the walk terminating even if a cycle already slipped into storage.
func (g *Graph) reachable(ctx context.Context, fromID, targetID string) (bool, error) {
	visited := make(map[string]bool)
	stack := []string{fromID}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current == targetID {
			return true, nil
		}
		if visited[current] {
			continue
		}
		visited[current] = true

		deps, err := g.store.ListDependenciesFrom(ctx, current)
		if err != nil {
			return false, err
		}
		for _, dep := range deps {
			stack = append(stack, dep.SuccessorID)
		}
	}

	return false, nil
}

func (g *Graph) countReject(ctx context.Context, reason string) {
	if g.rejectCounter != nil {
		g.rejectCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}
