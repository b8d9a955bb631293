package tasks

import (
	"errors"
	"time"

	"github.com/fyrsmithlabs/pland/internal/schedule"
)

// ErrInvalid marks a request rejected by validation.
var ErrInvalid = errors.New("invalid task request")

// CreateRequest carries the parameters for a new task.
type CreateRequest struct {
	Name          string
	Description   string
	Type          schedule.TaskType
	ParentID      *string
	OwnerID       *string
	Status        schedule.TaskStatus
	Progress      int
	IsMilestone   bool
	SortOrder     *int
	PlannedStart  *time.Time
	PlannedEnd    *time.Time
	EstimatedCost *float64
}

// UpdateRequest is a partial update: nil fields are left untouched. The
// Clear* flags null out their nullable counterparts, which a nil pointer
// cannot express.
type UpdateRequest struct {
	Name              *string
	Description       *string
	Type              *schedule.TaskType
	ParentID          *string
	ClearParent       bool
	OwnerID           *string
	ClearOwner        bool
	Status            *schedule.TaskStatus
	Progress          *int
	IsMilestone       *bool
	SortOrder         *int
	PlannedStart      *time.Time
	ClearPlannedStart bool
	PlannedEnd        *time.Time
	ClearPlannedEnd   bool
	EstimatedCost     *float64
}

// ReorderItem is one entry of a bulk reorder.
type ReorderItem struct {
	ID        string `json:"id"`
	SortOrder int    `json:"sort_order"`
}

// View is a task enriched with the display-layer durations. Durations use
// the inclusive day count (same day = 1) and are nil for unscheduled tasks.
type View struct {
	schedule.Task

	DurationDays     *int `json:"duration_days"`
	DurationWorkDays *int `json:"duration_work_days"`
}

// Export is the JSON export payload for a project's plan.
type Export struct {
	ProjectID  string    `json:"project_id"`
	ExportedAt time.Time `json:"exported_at"`
	Tasks      []*View   `json:"tasks"`
}

// NewView wraps a task with its computed durations.
func NewView(t *schedule.Task) *View {
	v := &View{Task: *t}
	if d, ok := t.DurationDays(); ok {
		v.DurationDays = &d
	}
	if w, ok := t.WorkDays(); ok {
		v.DurationWorkDays = &w
	}
	return v
}
