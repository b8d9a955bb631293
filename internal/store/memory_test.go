package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/pland/internal/schedule"
)

func ts(d int) *time.Time {
	t := time.Date(2025, time.January, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func mustCreate(t *testing.T, m *Memory, task *schedule.Task) *schedule.Task {
	t.Helper()
	created, err := m.CreateTask(context.Background(), task)
	require.NoError(t, err)
	return created
}

func TestCreateTask(t *testing.T) {
	m := NewMemory()

	created := mustCreate(t, m, &schedule.Task{ProjectID: "p1", Name: "design"})
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	_, err := m.CreateTask(context.Background(), &schedule.Task{Name: "orphan"})
	assert.Error(t, err, "project id is mandatory")
}

func TestGetTaskScopedToProject(t *testing.T) {
	m := NewMemory()
	created := mustCreate(t, m, &schedule.Task{ProjectID: "p1", Name: "design"})

	got, err := m.GetTask(context.Background(), "p1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "design", got.Name)

	_, err = m.GetTask(context.Background(), "p2", created.ID)
	assert.ErrorIs(t, err, schedule.ErrTaskNotFound)

	_, err = m.GetTask(context.Background(), "p1", "missing")
	assert.ErrorIs(t, err, schedule.ErrTaskNotFound)
}

func TestGetTaskReturnsCopy(t *testing.T) {
	m := NewMemory()
	created := mustCreate(t, m, &schedule.Task{ProjectID: "p1", Name: "design", PlannedStart: ts(1), PlannedEnd: ts(3)})

	got, err := m.GetTask(context.Background(), "p1", created.ID)
	require.NoError(t, err)
	got.Name = "mutated"
	*got.PlannedStart = *ts(20)

	again, err := m.GetTask(context.Background(), "p1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "design", again.Name)
	assert.Equal(t, *ts(1), *again.PlannedStart)
}

func TestListTasksOrdering(t *testing.T) {
	m := NewMemory()
	second := mustCreate(t, m, &schedule.Task{ProjectID: "p1", Name: "b", SortOrder: 2})
	first := mustCreate(t, m, &schedule.Task{ProjectID: "p1", Name: "a", SortOrder: 1})
	mustCreate(t, m, &schedule.Task{ProjectID: "p2", Name: "other", SortOrder: 0})

	tasks, err := m.ListTasks(context.Background(), "p1", false)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, first.ID, tasks[0].ID)
	assert.Equal(t, second.ID, tasks[1].ID)
}

func TestListTasksArchivedFilter(t *testing.T) {
	m := NewMemory()
	live := mustCreate(t, m, &schedule.Task{ProjectID: "p1", Name: "live"})
	archived := mustCreate(t, m, &schedule.Task{ProjectID: "p1", Name: "gone", Archived: true})

	tasks, err := m.ListTasks(context.Background(), "p1", false)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, live.ID, tasks[0].ID)

	tasks, err = m.ListTasks(context.Background(), "p1", true)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	// Archived tasks stay reachable by id.
	_, err = m.GetTask(context.Background(), "p1", archived.ID)
	assert.NoError(t, err)
}

func TestListScheduledTasks(t *testing.T) {
	m := NewMemory()
	full := mustCreate(t, m, &schedule.Task{ProjectID: "p1", Name: "full", PlannedStart: ts(1), PlannedEnd: ts(3)})
	mustCreate(t, m, &schedule.Task{ProjectID: "p1", Name: "start only", PlannedStart: ts(1)})
	mustCreate(t, m, &schedule.Task{ProjectID: "p1", Name: "none"})
	mustCreate(t, m, &schedule.Task{ProjectID: "p1", Name: "archived", PlannedStart: ts(1), PlannedEnd: ts(2), Archived: true})

	tasks, err := m.ListScheduledTasks(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, full.ID, tasks[0].ID)
}

func TestMaxSortOrder(t *testing.T) {
	m := NewMemory()
	parent := mustCreate(t, m, &schedule.Task{ProjectID: "p1", Name: "phase", SortOrder: 1})
	mustCreate(t, m, &schedule.Task{ProjectID: "p1", Name: "child a", ParentID: &parent.ID, SortOrder: 4})
	mustCreate(t, m, &schedule.Task{ProjectID: "p1", Name: "child b", ParentID: &parent.ID, SortOrder: 7})
	mustCreate(t, m, &schedule.Task{ProjectID: "p1", Name: "top", SortOrder: 9})

	max, err := m.MaxSortOrder(context.Background(), "p1", &parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, max)

	max, err = m.MaxSortOrder(context.Background(), "p1", nil)
	require.NoError(t, err)
	assert.Equal(t, 9, max, "nil parent means top level only")

	max, err = m.MaxSortOrder(context.Background(), "empty", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, max)
}

func TestUpdateTaskPreservesCreatedAt(t *testing.T) {
	m := NewMemory()
	created := mustCreate(t, m, &schedule.Task{ProjectID: "p1", Name: "design"})

	created.Name = "design v2"
	created.CreatedAt = time.Time{} // callers cannot overwrite it
	updated, err := m.UpdateTask(context.Background(), created)
	require.NoError(t, err)

	assert.Equal(t, "design v2", updated.Name)
	assert.False(t, updated.CreatedAt.IsZero())
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))

	_, err = m.UpdateTask(context.Background(), &schedule.Task{ID: "missing"})
	assert.ErrorIs(t, err, schedule.ErrTaskNotFound)
}

func TestUpdateTaskDates(t *testing.T) {
	m := NewMemory()
	created := mustCreate(t, m, &schedule.Task{ProjectID: "p1", Name: "design", PlannedStart: ts(1), PlannedEnd: ts(3)})

	require.NoError(t, m.UpdateTaskDates(context.Background(), created.ID, ts(5), ts(8)))

	got, err := m.GetTask(context.Background(), "p1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, *ts(5), *got.PlannedStart)
	assert.Equal(t, *ts(8), *got.PlannedEnd)
	assert.Equal(t, "design", got.Name, "other fields stay put")

	assert.ErrorIs(t, m.UpdateTaskDates(context.Background(), "missing", ts(1), ts(2)), schedule.ErrTaskNotFound)
}

func TestUpdateTaskSchedule(t *testing.T) {
	m := NewMemory()
	created := mustCreate(t, m, &schedule.Task{ProjectID: "p1", Name: "design"})

	require.NoError(t, m.UpdateTaskSchedule(context.Background(), created.ID, true, 3))

	got, err := m.GetTask(context.Background(), "p1", created.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCriticalPath)
	assert.Equal(t, 3, got.FloatDays)
}

func TestDeleteTask(t *testing.T) {
	m := NewMemory()
	created := mustCreate(t, m, &schedule.Task{ProjectID: "p1", Name: "design"})

	assert.ErrorIs(t, m.DeleteTask(context.Background(), "p2", created.ID), schedule.ErrTaskNotFound)

	require.NoError(t, m.DeleteTask(context.Background(), "p1", created.ID))
	_, err := m.GetTask(context.Background(), "p1", created.ID)
	assert.ErrorIs(t, err, schedule.ErrTaskNotFound)
}

func TestDependencyLifecycle(t *testing.T) {
	m := NewMemory()

	dep, err := m.CreateDependency(context.Background(), &schedule.Dependency{
		PredecessorID: "a",
		SuccessorID:   "b",
		Type:          schedule.FinishToStart,
		LagDays:       1,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, dep.ID)
	assert.False(t, dep.CreatedAt.IsZero())

	got, err := m.GetDependency(context.Background(), dep.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.PredecessorID)

	require.NoError(t, m.DeleteDependency(context.Background(), dep.ID))
	assert.ErrorIs(t, m.DeleteDependency(context.Background(), dep.ID), schedule.ErrDependencyNotFound)
}

func TestListDependenciesFrom(t *testing.T) {
	m := NewMemory()
	mustDep := func(pred, succ string) {
		_, err := m.CreateDependency(context.Background(), &schedule.Dependency{PredecessorID: pred, SuccessorID: succ})
		require.NoError(t, err)
	}
	mustDep("a", "b")
	mustDep("a", "c")
	mustDep("b", "c")

	deps, err := m.ListDependenciesFrom(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, deps, 2)

	deps, err = m.ListDependenciesFrom(context.Background(), "c")
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestListDependenciesAmong(t *testing.T) {
	m := NewMemory()
	mustDep := func(pred, succ string) {
		_, err := m.CreateDependency(context.Background(), &schedule.Dependency{PredecessorID: pred, SuccessorID: succ})
		require.NoError(t, err)
	}
	mustDep("a", "b")
	mustDep("b", "c")
	mustDep("c", "x") // one endpoint outside the set

	deps, err := m.ListDependenciesAmong(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, deps, 2)

	deps, err = m.ListDependenciesAmong(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, deps)
}
