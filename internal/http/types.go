package http

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/pland/internal/schedule"
	"github.com/fyrsmithlabs/pland/internal/tasks"
)

// dateLayout is the calendar-date wire format. Full RFC 3339 timestamps
// are accepted as well.
const dateLayout = "2006-01-02"

// parseDate parses a wire date. An empty string returns nil.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return &t, nil
}

// CreateProjectRequest is the body for POST /api/v1/projects.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateTaskRequest is the body for POST /api/v1/tasks.
type CreateTaskRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Type          string   `json:"type"`
	ParentID      *string  `json:"parent_id"`
	OwnerID       *string  `json:"owner_id"`
	Status        string   `json:"status"`
	Progress      int      `json:"progress"`
	IsMilestone   bool     `json:"is_milestone"`
	SortOrder     *int     `json:"sort_order"`
	PlannedStart  string   `json:"planned_start"`
	PlannedEnd    string   `json:"planned_end"`
	EstimatedCost *float64 `json:"estimated_cost"`
}

// toCreate converts the wire request into a service request.
func (r *CreateTaskRequest) toCreate() (*tasks.CreateRequest, error) {
	start, err := parseDate(r.PlannedStart)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(r.PlannedEnd)
	if err != nil {
		return nil, err
	}
	return &tasks.CreateRequest{
		Name:          r.Name,
		Description:   r.Description,
		Type:          schedule.TaskType(r.Type),
		ParentID:      r.ParentID,
		OwnerID:       r.OwnerID,
		Status:        schedule.TaskStatus(r.Status),
		Progress:      r.Progress,
		IsMilestone:   r.IsMilestone,
		SortOrder:     r.SortOrder,
		PlannedStart:  start,
		PlannedEnd:    end,
		EstimatedCost: r.EstimatedCost,
	}, nil
}

// UpdateTaskRequest is the body for PUT /api/v1/tasks/:id. Absent fields
// are left untouched. For the nullable fields an explicit empty string
// (or empty-string pointer) clears the value.
type UpdateTaskRequest struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Type          *string  `json:"type"`
	ParentID      *string  `json:"parent_id"`
	OwnerID       *string  `json:"owner_id"`
	Status        *string  `json:"status"`
	Progress      *int     `json:"progress"`
	IsMilestone   *bool    `json:"is_milestone"`
	SortOrder     *int     `json:"sort_order"`
	PlannedStart  *string  `json:"planned_start"`
	PlannedEnd    *string  `json:"planned_end"`
	EstimatedCost *float64 `json:"estimated_cost"`
}

// toUpdate converts the wire request into a service request.
func (r *UpdateTaskRequest) toUpdate() (*tasks.UpdateRequest, error) {
	req := &tasks.UpdateRequest{
		Name:          r.Name,
		Description:   r.Description,
		Progress:      r.Progress,
		IsMilestone:   r.IsMilestone,
		SortOrder:     r.SortOrder,
		EstimatedCost: r.EstimatedCost,
	}
	if r.Type != nil {
		t := schedule.TaskType(*r.Type)
		req.Type = &t
	}
	if r.Status != nil {
		s := schedule.TaskStatus(*r.Status)
		req.Status = &s
	}
	if r.ParentID != nil {
		if *r.ParentID == "" {
			req.ClearParent = true
		} else {
			req.ParentID = r.ParentID
		}
	}
	if r.OwnerID != nil {
		if *r.OwnerID == "" {
			req.ClearOwner = true
		} else {
			req.OwnerID = r.OwnerID
		}
	}
	if r.PlannedStart != nil {
		if *r.PlannedStart == "" {
			req.ClearPlannedStart = true
		} else {
			t, err := parseDate(*r.PlannedStart)
			if err != nil {
				return nil, err
			}
			req.PlannedStart = t
		}
	}
	if r.PlannedEnd != nil {
		if *r.PlannedEnd == "" {
			req.ClearPlannedEnd = true
		} else {
			t, err := parseDate(*r.PlannedEnd)
			if err != nil {
				return nil, err
			}
			req.PlannedEnd = t
		}
	}
	return req, nil
}

// ReorderRequest is the body for POST /api/v1/tasks/reorder.
type ReorderRequest struct {
	Items []tasks.ReorderItem `json:"items"`
}

// CreateDependencyRequest is the body for POST /api/v1/task-dependencies.
type CreateDependencyRequest struct {
	PredecessorID string `json:"predecessor_id"`
	SuccessorID   string `json:"successor_id"`
	Type          string `json:"type"`
	LagDays       int    `json:"lag_days"`
}

// CountResponse reports how many records an operation touched.
type CountResponse struct {
	Count int `json:"count"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
