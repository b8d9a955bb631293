package schedule

import (
	"context"
	"errors"
	"math"
	"time"
)

// Common errors.
var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrDependencyNotFound = errors.New("dependency not found")
	ErrSelfDependency     = errors.New("task cannot depend on itself")
	ErrCycle              = errors.New("circular dependency detected")

	ErrInvalidDependencyType = errors.New("invalid dependency type")
)

// DependencyType is the relationship between predecessor and successor.
type DependencyType string

const (
	// FinishToStart: successor starts after predecessor finishes. The default.
	FinishToStart DependencyType = "FS"
	// FinishToFinish: successor finishes after predecessor finishes.
	FinishToFinish DependencyType = "FF"
	// StartToStart: successor starts after predecessor starts.
	StartToStart DependencyType = "SS"
	// StartToFinish: successor finishes after predecessor starts.
	StartToFinish DependencyType = "SF"
)

// Valid reports whether t is one of the four known relationship types.
func (t DependencyType) Valid() bool {
	switch t {
	case FinishToStart, FinishToFinish, StartToStart, StartToFinish:
		return true
	}
	return false
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusNotStarted  TaskStatus = "not_started"
	StatusInProgress  TaskStatus = "in_progress"
	StatusDone        TaskStatus = "done"
	StatusBlocked     TaskStatus = "blocked"
	StatusUnscheduled TaskStatus = "unscheduled"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusDone, StatusBlocked, StatusUnscheduled:
		return true
	}
	return false
}

// TaskType is the hierarchy level of a task.
type TaskType string

const (
	TypePhase      TaskType = "phase"
	TypeWorkstream TaskType = "workstream"
	TypeTask       TaskType = "task"
)

// Valid reports whether t is a known task type.
func (t TaskType) Valid() bool {
	switch t {
	case TypePhase, TypeWorkstream, TypeTask:
		return true
	}
	return false
}

// Task is a schedulable unit of work belonging to exactly one project.
type Task struct {
	// ID is the unique task identifier (UUID).
	ID string `json:"id"`

	// ProjectID scopes the task to a project.
	ProjectID string `json:"project_id"`

	// Name is the human-readable task name.
	Name string `json:"name"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// Type is the hierarchy level (phase, workstream, task).
	Type TaskType `json:"type"`

	// ParentID points to the owning phase/workstream, if any.
	ParentID *string `json:"parent_id,omitempty"`

	// OwnerID is the responsible person, if assigned.
	OwnerID *string `json:"owner_id,omitempty"`

	// Status is the lifecycle state.
	Status TaskStatus `json:"status"`

	// Progress is completion percent, 0-100.
	Progress int `json:"progress"`

	// IsMilestone marks zero-length milestone tasks.
	IsMilestone bool `json:"is_milestone"`

	// SortOrder controls display ordering among siblings.
	SortOrder int `json:"sort_order"`

	// PlannedStart and PlannedEnd are the scheduled dates. Either may be nil
	// for unscheduled tasks. End >= start is the caller's responsibility.
	PlannedStart *time.Time `json:"planned_start,omitempty"`
	PlannedEnd   *time.Time `json:"planned_end,omitempty"`

	// BaselineStart and BaselineEnd are snapshot copies of the planned dates,
	// saved explicitly for variance comparison. Never touched by scheduling.
	BaselineStart *time.Time `json:"baseline_start,omitempty"`
	BaselineEnd   *time.Time `json:"baseline_end,omitempty"`

	// EstimatedCost is the planned cost, if known.
	EstimatedCost *float64 `json:"estimated_cost,omitempty"`

	// IsCriticalPath and FloatDays are derived values written by the
	// Calculator. FloatDays is latest start minus earliest start.
	IsCriticalPath bool `json:"is_critical_path"`
	FloatDays      int  `json:"float_days"`

	// Archived is the soft-delete flag. Archival cascades to children.
	Archived     bool       `json:"archived"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty"`
	ArchivedByID *string    `json:"archived_by_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Scheduled reports whether both planned dates are set.
func (t *Task) Scheduled() bool {
	return t.PlannedStart != nil && t.PlannedEnd != nil
}

// DurationDays returns the inclusive calendar-day duration (a same-day task
// has duration 1). The second return is false when either date is unset.
//
// This is the display-layer duration. The Calculator uses the exclusive
// day count internally; the two formulas are intentionally distinct.
func (t *Task) DurationDays() (int, bool) {
	if t.PlannedStart == nil || t.PlannedEnd == nil {
		return 0, false
	}
	return spanDays(*t.PlannedStart, *t.PlannedEnd) + 1, true
}

// WorkDays returns the inclusive working-day duration, skipping Saturdays
// and Sundays. The second return is false when either date is unset.
func (t *Task) WorkDays() (int, bool) {
	if t.PlannedStart == nil || t.PlannedEnd == nil {
		return 0, false
	}
	count := 0
	for d := *t.PlannedStart; !d.After(*t.PlannedEnd); d = d.AddDate(0, 0, 1) {
		if dow := d.Weekday(); dow != time.Saturday && dow != time.Sunday {
			count++
		}
	}
	return count, true
}

// spanDays is the exclusive day count between two dates, rounded to whole
// days. Same day = 0.
func spanDays(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Hours() / 24))
}

// Dependency is a directed edge between two tasks in the same project:
// predecessor must complete (per Type semantics) before successor.
type Dependency struct {
	// ID is the unique edge identifier (UUID).
	ID string `json:"id"`

	// PredecessorID and SuccessorID are the edge endpoints.
	PredecessorID string `json:"predecessor_id"`
	SuccessorID   string `json:"successor_id"`

	// Type is the relationship type. Stored for all four kinds; the date
	// math applies Finish-to-Start semantics regardless.
	Type DependencyType `json:"type"`

	// LagDays is the signed offset applied between the predecessor's
	// reference date and the successor's. Negative values are lead time.
	LagDays int `json:"lag_days"`

	CreatedAt time.Time `json:"created_at"`
}

// Store is the persistence collaborator the scheduling core consumes.
// Implementations must scope task reads to the given project.
type Store interface {
	// GetTask retrieves a task by id within a project, archived or not.
	// Returns ErrTaskNotFound when missing or out of project scope.
	GetTask(ctx context.Context, projectID, taskID string) (*Task, error)

	// ListScheduledTasks returns every non-archived task in the project
	// that has both planned dates set.
	ListScheduledTasks(ctx context.Context, projectID string) ([]*Task, error)

	// UpdateTaskDates rewrites a task's planned dates.
	UpdateTaskDates(ctx context.Context, taskID string, start, end *time.Time) error

	// UpdateTaskSchedule rewrites the derived critical-path flag and float.
	UpdateTaskSchedule(ctx context.Context, taskID string, isCritical bool, floatDays int) error

	// CreateDependency inserts a new edge and assigns its identity.
	CreateDependency(ctx context.Context, dep *Dependency) (*Dependency, error)

	// GetDependency retrieves an edge by id.
	GetDependency(ctx context.Context, depID string) (*Dependency, error)

	// DeleteDependency removes an edge by id.
	DeleteDependency(ctx context.Context, depID string) error

	// ListDependenciesFrom returns all edges whose predecessor is taskID.
	ListDependenciesFrom(ctx context.Context, taskID string) ([]*Dependency, error)

	// ListDependenciesAmong returns all edges whose both endpoints are in
	// the given task id set.
	ListDependenciesAmong(ctx context.Context, taskIDs []string) ([]*Dependency, error)
}

// NotFound reports whether err is one of the not-found sentinels.
func NotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrDependencyNotFound)
}
