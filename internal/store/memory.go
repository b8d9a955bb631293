// Package store provides the persistence collaborators for pland. The
// scheduling core and the task service consume it through the narrow
// interfaces they declare; this in-memory implementation is the default
// backing and keeps the stores swappable for a relational one.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/pland/internal/schedule"
)

// Memory is a mutex-guarded in-memory task and dependency store. Values are
// copied on the way in and out so callers never alias stored state.
type Memory struct {
	mu    sync.RWMutex
	tasks map[string]*schedule.Task       // id -> task
	deps  map[string]*schedule.Dependency // id -> edge
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		tasks: make(map[string]*schedule.Task),
		deps:  make(map[string]*schedule.Dependency),
	}
}

// CreateTask inserts a task, assigning identity and timestamps.
func (m *Memory) CreateTask(ctx context.Context, t *schedule.Task) (*schedule.Task, error) {
	if t.ProjectID == "" {
		return nil, fmt.Errorf("task project id cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := cloneTask(t)
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	m.tasks[stored.ID] = stored
	return cloneTask(stored), nil
}

// GetTask retrieves a task by id within a project, archived or not.
func (m *Memory) GetTask(ctx context.Context, projectID, taskID string) (*schedule.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tasks[taskID]
	if !ok || t.ProjectID != projectID {
		return nil, fmt.Errorf("%w: %s", schedule.ErrTaskNotFound, taskID)
	}
	return cloneTask(t), nil
}

// ListTasks returns a project's tasks ordered by sort order, then id.
func (m *Memory) ListTasks(ctx context.Context, projectID string, includeArchived bool) ([]*schedule.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*schedule.Task
	for _, t := range m.tasks {
		if t.ProjectID != projectID {
			continue
		}
		if t.Archived && !includeArchived {
			continue
		}
		out = append(out, cloneTask(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListScheduledTasks returns non-archived tasks with both planned dates set.
func (m *Memory) ListScheduledTasks(ctx context.Context, projectID string) ([]*schedule.Task, error) {
	tasks, err := m.ListTasks(ctx, projectID, false)
	if err != nil {
		return nil, err
	}
	out := tasks[:0]
	for _, t := range tasks {
		if t.Scheduled() {
			out = append(out, t)
		}
	}
	return out, nil
}

// ListChildren returns a task's direct, non-archived children.
func (m *Memory) ListChildren(ctx context.Context, projectID, parentID string) ([]*schedule.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*schedule.Task
	for _, t := range m.tasks {
		if t.ProjectID != projectID || t.Archived {
			continue
		}
		if t.ParentID != nil && *t.ParentID == parentID {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MaxSortOrder returns the highest sort order among a parent's children
// (parentID nil means top level). Zero when there are none.
func (m *Memory) MaxSortOrder(ctx context.Context, projectID string, parentID *string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	max := 0
	for _, t := range m.tasks {
		if t.ProjectID != projectID {
			continue
		}
		if !sameParent(t.ParentID, parentID) {
			continue
		}
		if t.SortOrder > max {
			max = t.SortOrder
		}
	}
	return max, nil
}

// UpdateTask replaces a stored task wholesale and bumps UpdatedAt.
func (m *Memory) UpdateTask(ctx context.Context, t *schedule.Task) (*schedule.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.tasks[t.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", schedule.ErrTaskNotFound, t.ID)
	}

	stored := cloneTask(t)
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = time.Now()
	m.tasks[t.ID] = stored
	return cloneTask(stored), nil
}

// UpdateTaskDates rewrites only the planned dates.
func (m *Memory) UpdateTaskDates(ctx context.Context, taskID string, start, end *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", schedule.ErrTaskNotFound, taskID)
	}
	t.PlannedStart = cloneTime(start)
	t.PlannedEnd = cloneTime(end)
	t.UpdatedAt = time.Now()
	return nil
}

// UpdateTaskSchedule rewrites only the derived critical-path fields.
func (m *Memory) UpdateTaskSchedule(ctx context.Context, taskID string, isCritical bool, floatDays int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", schedule.ErrTaskNotFound, taskID)
	}
	t.IsCriticalPath = isCritical
	t.FloatDays = floatDays
	t.UpdatedAt = time.Now()
	return nil
}

// DeleteTask removes a task permanently. Edges referencing it are left in
// place; cleaning them up is the caller's concern.
func (m *Memory) DeleteTask(ctx context.Context, projectID, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok || t.ProjectID != projectID {
		return fmt.Errorf("%w: %s", schedule.ErrTaskNotFound, taskID)
	}
	delete(m.tasks, taskID)
	return nil
}

// CreateDependency inserts an edge, assigning identity and timestamp.
func (m *Memory) CreateDependency(ctx context.Context, dep *schedule.Dependency) (*schedule.Dependency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *dep
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	stored.CreatedAt = time.Now()
	m.deps[stored.ID] = &stored

	out := stored
	return &out, nil
}

// GetDependency retrieves an edge by id.
func (m *Memory) GetDependency(ctx context.Context, depID string) (*schedule.Dependency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dep, ok := m.deps[depID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", schedule.ErrDependencyNotFound, depID)
	}
	out := *dep
	return &out, nil
}

// DeleteDependency removes an edge by id.
func (m *Memory) DeleteDependency(ctx context.Context, depID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.deps[depID]; !ok {
		return fmt.Errorf("%w: %s", schedule.ErrDependencyNotFound, depID)
	}
	delete(m.deps, depID)
	return nil
}

// ListDependenciesFrom returns all edges whose predecessor is taskID.
func (m *Memory) ListDependenciesFrom(ctx context.Context, taskID string) ([]*schedule.Dependency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*schedule.Dependency
	for _, dep := range m.deps {
		if dep.PredecessorID == taskID {
			d := *dep
			out = append(out, &d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListDependenciesAmong returns edges with both endpoints in the id set.
func (m *Memory) ListDependenciesAmong(ctx context.Context, taskIDs []string) ([]*schedule.Dependency, error) {
	set := make(map[string]bool, len(taskIDs))
	for _, id := range taskIDs {
		set[id] = true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*schedule.Dependency
	for _, dep := range m.deps {
		if set[dep.PredecessorID] && set[dep.SuccessorID] {
			d := *dep
			out = append(out, &d)
		}
	}
	return out, nil
}

func cloneTask(t *schedule.Task) *schedule.Task {
	c := *t
	c.ParentID = cloneString(t.ParentID)
	c.OwnerID = cloneString(t.OwnerID)
	c.ArchivedByID = cloneString(t.ArchivedByID)
	c.PlannedStart = cloneTime(t.PlannedStart)
	c.PlannedEnd = cloneTime(t.PlannedEnd)
	c.BaselineStart = cloneTime(t.BaselineStart)
	c.BaselineEnd = cloneTime(t.BaselineEnd)
	c.ArchivedAt = cloneTime(t.ArchivedAt)
	if t.EstimatedCost != nil {
		v := *t.EstimatedCost
		c.EstimatedCost = &v
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
