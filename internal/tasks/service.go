// Package tasks implements the task CRUD layer of the project plan. It owns
// the update path that fires the cascade rescheduler and writes the audit
// trail for direct edits; cascaded shifts stay silent.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pland/internal/audit"
	"github.com/fyrsmithlabs/pland/internal/schedule"
)

const instrumentationName = "github.com/fyrsmithlabs/pland/internal/tasks"

const auditCategory = "Project Plan"

// Store is the persistence surface the task service consumes. It is a
// superset of schedule.Store's task side; store.Memory satisfies both.
type Store interface {
	CreateTask(ctx context.Context, t *schedule.Task) (*schedule.Task, error)
	GetTask(ctx context.Context, projectID, taskID string) (*schedule.Task, error)
	ListTasks(ctx context.Context, projectID string, includeArchived bool) ([]*schedule.Task, error)
	ListScheduledTasks(ctx context.Context, projectID string) ([]*schedule.Task, error)
	ListChildren(ctx context.Context, projectID, parentID string) ([]*schedule.Task, error)
	MaxSortOrder(ctx context.Context, projectID string, parentID *string) (int, error)
	UpdateTask(ctx context.Context, t *schedule.Task) (*schedule.Task, error)
	DeleteTask(ctx context.Context, projectID, taskID string) error
}

// Service provides task management operations.
type Service interface {
	// Create adds a task to a project.
	Create(ctx context.Context, projectID string, req *CreateRequest) (*View, error)

	// Get retrieves a task by id.
	Get(ctx context.Context, projectID, taskID string) (*View, error)

	// List returns a project's tasks in sort order.
	List(ctx context.Context, projectID string, includeArchived bool) ([]*View, error)

	// Update applies a partial update. A planned-end change triggers the
	// cascade rescheduler synchronously before the call returns.
	Update(ctx context.Context, projectID, taskID string, req *UpdateRequest) (*View, error)

	// Archive soft-deletes a task and all of its descendants.
	Archive(ctx context.Context, projectID, taskID string, archivedByID *string) error

	// Restore brings an archived task back.
	Restore(ctx context.Context, projectID, taskID string) (*View, error)

	// Delete removes a task permanently.
	Delete(ctx context.Context, projectID, taskID string) error

	// Reorder applies a bulk sort-order change.
	Reorder(ctx context.Context, projectID string, items []ReorderItem) error

	// SaveBaseline copies a task's planned dates into its baseline.
	SaveBaseline(ctx context.Context, projectID, taskID string) error

	// SaveAllBaselines snapshots every scheduled task. Returns the count.
	SaveAllBaselines(ctx context.Context, projectID string) (int, error)

	// Export returns the project's plan for JSON export.
	Export(ctx context.Context, projectID string) (*Export, error)
}

// service implements the Service interface.
type service struct {
	store       Store
	rescheduler *schedule.Rescheduler
	audit       audit.Recorder
	logger      *zap.Logger

	tracer        trace.Tracer
	meter         metric.Meter
	updateCounter metric.Int64Counter
}

// NewService creates a task service.
func NewService(store Store, rescheduler *schedule.Rescheduler, recorder audit.Recorder, logger *zap.Logger) (Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if rescheduler == nil {
		return nil, errors.New("rescheduler is required")
	}
	if recorder == nil {
		return nil, errors.New("audit recorder is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &service{
		store:       store,
		rescheduler: rescheduler,
		audit:       recorder,
		logger:      logger,
		tracer:      otel.Tracer(instrumentationName),
		meter:       otel.Meter(instrumentationName),
	}

	var err error
	s.updateCounter, err = s.meter.Int64Counter(
		"pland.tasks.updates_total",
		metric.WithDescription("Task mutations, labeled by operation"),
		metric.WithUnit("{update}"),
	)
	if err != nil {
		s.logger.Warn("failed to create update counter", zap.Error(err))
	}

	return s, nil
}

func (s *service) Create(ctx context.Context, projectID string, req *CreateRequest) (*View, error) {
	ctx, span := s.tracer.Start(ctx, "tasks.create")
	defer span.End()
	span.SetAttributes(attribute.String("project_id", projectID))

	if req.Name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalid)
	}
	taskType := req.Type
	if taskType == "" {
		taskType = schedule.TypeTask
	}
	if !taskType.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalid, req.Type)
	}
	status := req.Status
	if status == "" {
		status = schedule.StatusNotStarted
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalid, req.Status)
	}
	if req.Progress < 0 || req.Progress > 100 {
		return nil, fmt.Errorf("%w: progress must be between 0 and 100, got %d", ErrInvalid, req.Progress)
	}

	if req.ParentID != nil {
		if _, err := s.store.GetTask(ctx, projectID, *req.ParentID); err != nil {
			if errors.Is(err, schedule.ErrTaskNotFound) {
				return nil, fmt.Errorf("%w: parent %s not in this project", schedule.ErrTaskNotFound, *req.ParentID)
			}
			return nil, fmt.Errorf("failed to load parent: %w", err)
		}
	}

	sortOrder := 0
	if req.SortOrder != nil {
		sortOrder = *req.SortOrder
	} else {
		max, err := s.store.MaxSortOrder(ctx, projectID, req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to determine sort order: %w", err)
		}
		sortOrder = max + 1
	}

	task, err := s.store.CreateTask(ctx, &schedule.Task{
		ProjectID:     projectID,
		Name:          req.Name,
		Description:   req.Description,
		Type:          taskType,
		ParentID:      req.ParentID,
		OwnerID:       req.OwnerID,
		Status:        status,
		Progress:      req.Progress,
		IsMilestone:   req.IsMilestone,
		SortOrder:     sortOrder,
		PlannedStart:  req.PlannedStart,
		PlannedEnd:    req.PlannedEnd,
		EstimatedCost: req.EstimatedCost,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.countOp(ctx, "create")
	s.audit.Record(ctx, audit.Entry{
		Category:  auditCategory,
		Entity:    "Task",
		Action:    audit.ActionCreate,
		EntityID:  task.ID,
		Summary:   fmt.Sprintf("Created task %q (%s)", task.Name, task.Type),
		ProjectID: projectID,
	})

	return NewView(task), nil
}

func (s *service) Get(ctx context.Context, projectID, taskID string) (*View, error) {
	task, err := s.store.GetTask(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}
	return NewView(task), nil
}

func (s *service) List(ctx context.Context, projectID string, includeArchived bool) ([]*View, error) {
	tasks, err := s.store.ListTasks(ctx, projectID, includeArchived)
	if err != nil {
		return nil, err
	}
	views := make([]*View, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, NewView(t))
	}
	return views, nil
}

func (s *service) Update(ctx context.Context, projectID, taskID string, req *UpdateRequest) (*View, error) {
	ctx, span := s.tracer.Start(ctx, "tasks.update")
	defer span.End()
	span.SetAttributes(
		attribute.String("project_id", projectID),
		attribute.String("task_id", taskID),
	)

	existing, err := s.store.GetTask(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}
	prevEnd := existing.PlannedEnd

	if err := s.applyUpdate(ctx, projectID, existing, req); err != nil {
		return nil, err
	}

	task, err := s.store.UpdateTask(ctx, existing)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	// A changed end date shifts dependents before the response goes out.
	if task.PlannedEnd != nil && !sameTime(prevEnd, task.PlannedEnd) {
		if err := s.rescheduler.ShiftDependents(ctx, projectID, task.ID, *task.PlannedEnd); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to shift dependents: %w", err)
		}
	}

	s.countOp(ctx, "update")
	// Only the directly edited task is audited; cascaded shifts are silent.
	s.audit.Record(ctx, audit.Entry{
		Category:  auditCategory,
		Entity:    "Task",
		Action:    audit.ActionUpdate,
		EntityID:  task.ID,
		Summary:   fmt.Sprintf("Updated task %q", task.Name),
		ProjectID: projectID,
	})

	return NewView(task), nil
}

func (s *service) applyUpdate(ctx context.Context, projectID string, t *schedule.Task, req *UpdateRequest) error {
	if req.Name != nil {
		if *req.Name == "" {
			return fmt.Errorf("%w: name cannot be empty", ErrInvalid)
		}
		t.Name = *req.Name
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			return fmt.Errorf("%w: unknown type %q", ErrInvalid, *req.Type)
		}
		t.Type = *req.Type
	}
	switch {
	case req.ClearParent:
		t.ParentID = nil
	case req.ParentID != nil:
		if _, err := s.store.GetTask(ctx, projectID, *req.ParentID); err != nil {
			if errors.Is(err, schedule.ErrTaskNotFound) {
				return fmt.Errorf("%w: parent %s not in this project", schedule.ErrTaskNotFound, *req.ParentID)
			}
			return fmt.Errorf("failed to load parent: %w", err)
		}
		t.ParentID = req.ParentID
	}
	switch {
	case req.ClearOwner:
		t.OwnerID = nil
	case req.OwnerID != nil:
		t.OwnerID = req.OwnerID
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return fmt.Errorf("%w: unknown status %q", ErrInvalid, *req.Status)
		}
		t.Status = *req.Status
	}
	if req.Progress != nil {
		if *req.Progress < 0 || *req.Progress > 100 {
			return fmt.Errorf("%w: progress must be between 0 and 100, got %d", ErrInvalid, *req.Progress)
		}
		t.Progress = *req.Progress
	}
	if req.IsMilestone != nil {
		t.IsMilestone = *req.IsMilestone
	}
	if req.SortOrder != nil {
		t.SortOrder = *req.SortOrder
	}
	switch {
	case req.ClearPlannedStart:
		t.PlannedStart = nil
	case req.PlannedStart != nil:
		t.PlannedStart = req.PlannedStart
	}
	switch {
	case req.ClearPlannedEnd:
		t.PlannedEnd = nil
	case req.PlannedEnd != nil:
		t.PlannedEnd = req.PlannedEnd
	}
	if req.EstimatedCost != nil {
		t.EstimatedCost = req.EstimatedCost
	}
	return nil
}

func (s *service) Archive(ctx context.Context, projectID, taskID string, archivedByID *string) error {
	ctx, span := s.tracer.Start(ctx, "tasks.archive")
	defer span.End()
	span.SetAttributes(
		attribute.String("project_id", projectID),
		attribute.String("task_id", taskID),
	)

	existing, err := s.store.GetTask(ctx, projectID, taskID)
	if err != nil {
		return err
	}

	if err := s.archiveTree(ctx, projectID, taskID, archivedByID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.countOp(ctx, "archive")
	s.audit.Record(ctx, audit.Entry{
		Category:  auditCategory,
		Entity:    "Task",
		Action:    audit.ActionArchive,
		EntityID:  taskID,
		Summary:   fmt.Sprintf("Archived task %q", existing.Name),
		ProjectID: projectID,
	})

	return nil
}

// archiveTree soft-deletes a task and recurses into its children.
func (s *service) archiveTree(ctx context.Context, projectID, taskID string, archivedByID *string) error {
	task, err := s.store.GetTask(ctx, projectID, taskID)
	if err != nil {
		return err
	}

	now := time.Now()
	task.Archived = true
	task.ArchivedAt = &now
	task.ArchivedByID = archivedByID
	if _, err := s.store.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("failed to archive task %s: %w", taskID, err)
	}

	children, err := s.store.ListChildren(ctx, projectID, taskID)
	if err != nil {
		return fmt.Errorf("failed to list children of %s: %w", taskID, err)
	}
	for _, child := range children {
		if err := s.archiveTree(ctx, projectID, child.ID, archivedByID); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) Restore(ctx context.Context, projectID, taskID string) (*View, error) {
	task, err := s.store.GetTask(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}

	task.Archived = false
	task.ArchivedAt = nil
	task.ArchivedByID = nil
	task, err = s.store.UpdateTask(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to restore task: %w", err)
	}

	s.countOp(ctx, "restore")
	s.audit.Record(ctx, audit.Entry{
		Category:  auditCategory,
		Entity:    "Task",
		Action:    audit.ActionUpdate,
		EntityID:  taskID,
		Summary:   fmt.Sprintf("Restored task %q", task.Name),
		ProjectID: projectID,
	})

	return NewView(task), nil
}

func (s *service) Delete(ctx context.Context, projectID, taskID string) error {
	existing, err := s.store.GetTask(ctx, projectID, taskID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTask(ctx, projectID, taskID); err != nil {
		return err
	}

	s.countOp(ctx, "delete")
	s.audit.Record(ctx, audit.Entry{
		Category:  auditCategory,
		Entity:    "Task",
		Action:    audit.ActionDelete,
		EntityID:  taskID,
		Summary:   fmt.Sprintf("Permanently deleted task %q", existing.Name),
		ProjectID: projectID,
	})

	return nil
}

func (s *service) Reorder(ctx context.Context, projectID string, items []ReorderItem) error {
	for _, item := range items {
		task, err := s.store.GetTask(ctx, projectID, item.ID)
		if err != nil {
			if errors.Is(err, schedule.ErrTaskNotFound) {
				continue
			}
			return err
		}
		task.SortOrder = item.SortOrder
		if _, err := s.store.UpdateTask(ctx, task); err != nil {
			return fmt.Errorf("failed to reorder task %s: %w", item.ID, err)
		}
	}
	return nil
}

func (s *service) SaveBaseline(ctx context.Context, projectID, taskID string) error {
	task, err := s.store.GetTask(ctx, projectID, taskID)
	if err != nil {
		return err
	}

	task.BaselineStart = task.PlannedStart
	task.BaselineEnd = task.PlannedEnd
	if _, err := s.store.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save baseline: %w", err)
	}

	s.audit.Record(ctx, audit.Entry{
		Category:  auditCategory,
		Entity:    "Task",
		Action:    audit.ActionBaseline,
		EntityID:  taskID,
		Summary:   fmt.Sprintf("Saved baseline for task %q", task.Name),
		ProjectID: projectID,
	})

	return nil
}

func (s *service) SaveAllBaselines(ctx context.Context, projectID string) (int, error) {
	tasks, err := s.store.ListScheduledTasks(ctx, projectID)
	if err != nil {
		return 0, err
	}

	for _, task := range tasks {
		task.BaselineStart = task.PlannedStart
		task.BaselineEnd = task.PlannedEnd
		if _, err := s.store.UpdateTask(ctx, task); err != nil {
			return 0, fmt.Errorf("failed to save baseline for %s: %w", task.ID, err)
		}
	}

	s.audit.Record(ctx, audit.Entry{
		Category:  auditCategory,
		Entity:    "Task",
		Action:    audit.ActionBaseline,
		Summary:   fmt.Sprintf("Saved baseline for %d tasks", len(tasks)),
		ProjectID: projectID,
	})

	return len(tasks), nil
}

func (s *service) Export(ctx context.Context, projectID string) (*Export, error) {
	views, err := s.List(ctx, projectID, false)
	if err != nil {
		return nil, err
	}
	return &Export{
		ProjectID:  projectID,
		ExportedAt: time.Now(),
		Tasks:      views,
	}, nil
}

func (s *service) countOp(ctx context.Context, op string) {
	if s.updateCounter != nil {
		s.updateCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
	}
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
