package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Result is the outcome of a critical-path calculation.
type Result struct {
	// CriticalPath lists the ids of zero-float tasks in topological order.
	// Parallel critical paths all appear; no tie-break is needed.
	CriticalPath []string `json:"critical_path"`

	// TotalDuration is the project span in days (max earliest finish).
	TotalDuration int `json:"total_duration"`
}

// taskNode is the Calculator's ephemeral working state for one task. It
// lives only for the duration of a single calculation pass.
type taskNode struct {
	id       string
	duration int

	earliestStart  int
	earliestFinish int
	latestStart    int
	latestFinish   int
	float          int
	isCritical     bool

	predecessors []edgeRef
	successors   []edgeRef
}

// edgeRef is a resolved dependency link as seen from one endpoint.
type edgeRef struct {
	taskID  string
	lagDays int
}

// Calculator computes earliest/latest start and finish, float, and the
// critical flag for every scheduled task in a project, then persists the
// derived fields back to storage.
type Calculator struct {
	store  Store
	logger *zap.Logger

	tracer      trace.Tracer
	meter       metric.Meter
	calcCounter metric.Int64Counter
	calcSeconds metric.Float64Histogram
}

// NewCalculator creates a critical-path calculator over the given store.
func NewCalculator(store Store, logger *zap.Logger) (*Calculator, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Calculator{
		store:  store,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}
	c.initMetrics()

	return c, nil
}

func (c *Calculator) initMetrics() {
	var err error

	c.calcCounter, err = c.meter.Int64Counter(
		"pland.schedule.calculations_total",
		metric.WithDescription("Total critical-path recalculations"),
		metric.WithUnit("{calculation}"),
	)
	if err != nil {
		c.logger.Warn("failed to create calculation counter", zap.Error(err))
	}

	c.calcSeconds, err = c.meter.Float64Histogram(
		"pland.schedule.calculation_duration_seconds",
		metric.WithDescription("Critical-path calculation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0),
	)
	if err != nil {
		c.logger.Warn("failed to create calculation histogram", zap.Error(err))
	}
}

// Calculate runs the Critical Path Method across a whole project.
//
// Input is every non-archived task with both planned dates set, and every
// edge whose endpoints are both in that set. The derived flag and float are
// written back for every node so stale flags never survive a recompute.
// Storage errors propagate; a project with no scheduled tasks is a no-op.
func (c *Calculator) Calculate(ctx context.Context, projectID string) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "schedule.calculate")
	defer span.End()
	span.SetAttributes(attribute.String("project_id", projectID))

	start := time.Now()
	defer func() {
		if c.calcSeconds != nil {
			c.calcSeconds.Record(ctx, time.Since(start).Seconds())
		}
	}()
	if c.calcCounter != nil {
		c.calcCounter.Add(ctx, 1)
	}

	tasks, err := c.store.ListScheduledTasks(ctx, projectID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if len(tasks) == 0 {
		return &Result{CriticalPath: []string{}, TotalDuration: 0}, nil
	}

	nodes := make(map[string]*taskNode, len(tasks))
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		// Exclusive day count: the CPM math works on day offsets, not the
		// inclusive display duration.
		dur := spanDays(*t.PlannedStart, *t.PlannedEnd)
		if dur < 0 {
			dur = 0
		}
		nodes[t.ID] = &taskNode{id: t.ID, duration: dur}
		ids = append(ids, t.ID)
	}

	deps, err := c.store.ListDependenciesAmong(ctx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list dependencies: %w", err)
	}
	for _, d := range deps {
		pred, succ := nodes[d.PredecessorID], nodes[d.SuccessorID]
		if pred == nil || succ == nil {
			continue
		}
		pred.successors = append(pred.successors, edgeRef{taskID: d.SuccessorID, lagDays: d.LagDays})
		succ.predecessors = append(succ.predecessors, edgeRef{taskID: d.PredecessorID, lagDays: d.LagDays})
	}

	sorted := topoSort(nodes)
	if len(sorted) != len(nodes) {
		// Cycles should be impossible (rejected at insertion); nodes caught
		// in one never reach zero in-degree and are excluded from the order.
		c.logger.Warn("dependency graph contains a cycle, excluding affected tasks",
			zap.String("project_id", projectID),
			zap.Int("sorted", len(sorted)),
			zap.Int("total", len(nodes)),
		)
	}

	// Forward pass: earliest dates, in topological order. Only
	// Finish-to-Start semantics are applied regardless of the stored type.
	for _, id := range sorted {
		node := nodes[id]
		es := 0
		for _, p := range node.predecessors {
			if pred, ok := nodes[p.taskID]; ok {
				if v := pred.earliestFinish + p.lagDays; v > es {
					es = v
				}
			}
		}
		node.earliestStart = es
		node.earliestFinish = es + node.duration
	}

	projectEnd := 0
	for _, node := range nodes {
		if node.earliestFinish > projectEnd {
			projectEnd = node.earliestFinish
		}
	}

	// Backward pass: latest dates, in reverse topological order.
	for i := len(sorted) - 1; i >= 0; i-- {
		node := nodes[sorted[i]]
		if len(node.successors) == 0 {
			node.latestFinish = projectEnd
		} else {
			lf := projectEnd
			for _, s := range node.successors {
				if succ, ok := nodes[s.taskID]; ok {
					if v := succ.latestStart - s.lagDays; v < lf {
						lf = v
					}
				}
			}
			node.latestFinish = lf
		}
		node.latestStart = node.latestFinish - node.duration
		node.float = node.latestStart - node.earliestStart
		node.isCritical = node.float == 0
	}

	// Persist derived fields for every node, not just changed ones.
	sort.Strings(ids)
	for _, id := range ids {
		node := nodes[id]
		if err := c.store.UpdateTaskSchedule(ctx, id, node.isCritical, node.float); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to persist schedule for task %s: %w", id, err)
		}
	}

	result := &Result{CriticalPath: []string{}, TotalDuration: projectEnd}
	for _, id := range sorted {
		if nodes[id].isCritical {
			result.CriticalPath = append(result.CriticalPath, id)
		}
	}

	c.logger.Debug("critical path calculated",
		zap.String("project_id", projectID),
		zap.Int("tasks", len(nodes)),
		zap.Int("critical", len(result.CriticalPath)),
		zap.Int("total_duration", result.TotalDuration),
	)

	return result, nil
}

// topoSort orders nodes with Kahn's algorithm. Zero in-degree nodes seed the
// queue sorted by id so the order is deterministic. For every edge the
// predecessor appears strictly before the successor.
func topoSort(nodes map[string]*taskNode) []string {
	inDegree := make(map[string]int, len(nodes))
	for id, node := range nodes {
		inDegree[id] = len(node.predecessors)
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		var ready []string
		for _, s := range nodes[id].successors {
			if _, ok := nodes[s.taskID]; !ok {
				continue
			}
			inDegree[s.taskID]--
			if inDegree[s.taskID] == 0 {
				ready = append(ready, s.taskID)
			}
		}
		sort.Strings(ready)
		queue = append(queue, ready...)
	}

	return order
}
