package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pland/internal/audit"
	"github.com/fyrsmithlabs/pland/internal/schedule"
	"github.com/fyrsmithlabs/pland/internal/store"
)

// day returns midnight UTC on the given day of January 2025.
func day(d int) time.Time {
	return time.Date(2025, time.January, d, 0, 0, 0, 0, time.UTC)
}

// seedTask inserts a task, scheduled when start and end are both nonzero.
func seedTask(t *testing.T, mem *store.Memory, projectID, name string, start, end int) *schedule.Task {
	t.Helper()

	var ps, pe *time.Time
	if start > 0 {
		v := day(start)
		ps = &v
	}
	if end > 0 {
		v := day(end)
		pe = &v
	}
	task, err := mem.CreateTask(context.Background(), &schedule.Task{
		ProjectID:    projectID,
		Name:         name,
		Type:         schedule.TypeTask,
		Status:       schedule.StatusNotStarted,
		PlannedStart: ps,
		PlannedEnd:   pe,
	})
	require.NoError(t, err)
	return task
}

// link creates an edge and fails the test on error.
func link(t *testing.T, g *schedule.Graph, projectID, predID, succID string, lag int) *schedule.Dependency {
	t.Helper()

	dep, err := g.AddDependency(context.Background(), projectID, &schedule.AddDependencyRequest{
		PredecessorID: predID,
		SuccessorID:   succID,
		LagDays:       lag,
	})
	require.NoError(t, err)
	return dep
}

func TestAddDependency(t *testing.T) {
	mem := store.NewMemory()
	g, err := schedule.NewGraph(mem, audit.NewRecorder(nil), zap.NewNop())
	require.NoError(t, err)

	a := seedTask(t, mem, "p1", "design", 1, 4)
	b := seedTask(t, mem, "p1", "build", 4, 6)

	dep, err := g.AddDependency(context.Background(), "p1", &schedule.AddDependencyRequest{
		PredecessorID: a.ID,
		SuccessorID:   b.ID,
		LagDays:       2,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, dep.ID)
	assert.Equal(t, schedule.FinishToStart, dep.Type, "type defaults to FS")
	assert.Equal(t, 2, dep.LagDays)
	assert.False(t, dep.CreatedAt.IsZero())

	stored, err := mem.GetDependency(context.Background(), dep.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, stored.PredecessorID)
	assert.Equal(t, b.ID, stored.SuccessorID)
}

func TestAddDependencyInvalidType(t *testing.T) {
	mem := store.NewMemory()
	g, err := schedule.NewGraph(mem, audit.NewRecorder(nil), zap.NewNop())
	require.NoError(t, err)

	a := seedTask(t, mem, "p1", "a", 1, 2)
	b := seedTask(t, mem, "p1", "b", 2, 3)

	_, err = g.AddDependency(context.Background(), "p1", &schedule.AddDependencyRequest{
		PredecessorID: a.ID,
		SuccessorID:   b.ID,
		Type:          "BOGUS",
	})
	assert.ErrorIs(t, err, schedule.ErrInvalidDependencyType)
}

func TestAddDependencySelfLoop(t *testing.T) {
	mem := store.NewMemory()
	g, err := schedule.NewGraph(mem, audit.NewRecorder(nil), zap.NewNop())
	require.NoError(t, err)

	a := seedTask(t, mem, "p1", "a", 1, 2)

	_, err = g.AddDependency(context.Background(), "p1", &schedule.AddDependencyRequest{
		PredecessorID: a.ID,
		SuccessorID:   a.ID,
	})
	assert.ErrorIs(t, err, schedule.ErrSelfDependency)
}

func TestAddDependencyMissingEndpoints(t *testing.T) {
	mem := store.NewMemory()
	g, err := schedule.NewGraph(mem, audit.NewRecorder(nil), zap.NewNop())
	require.NoError(t, err)

	a := seedTask(t, mem, "p1", "a", 1, 2)
	other := seedTask(t, mem, "p2", "other", 1, 2)

	tests := []struct {
		name string
		pred string
		succ string
	}{
		{"missing predecessor", "nope", a.ID},
		{"missing successor", a.ID, "nope"},
		{"cross-project successor", a.ID, other.ID},
		{"cross-project predecessor", other.ID, a.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.AddDependency(context.Background(), "p1", &schedule.AddDependencyRequest{
				PredecessorID: tt.pred,
				SuccessorID:   tt.succ,
			})
			assert.ErrorIs(t, err, schedule.ErrTaskNotFound)
		})
	}
}

func TestAddDependencyRejectsDirectCycle(t *testing.T) {
	mem := store.NewMemory()
	g, err := schedule.NewGraph(mem, audit.NewRecorder(nil), zap.NewNop())
	require.NoError(t, err)

	a := seedTask(t, mem, "p1", "a", 1, 2)
	b := seedTask(t, mem, "p1", "b", 2, 3)
	link(t, g, "p1", a.ID, b.ID, 0)

	_, err = g.AddDependency(context.Background(), "p1", &schedule.AddDependencyRequest{
		PredecessorID: b.ID,
		SuccessorID:   a.ID,
	})
	assert.ErrorIs(t, err, schedule.ErrCycle)
}

func TestAddDependencyRejectsTransitiveCycle(t *testing.T) {
	mem := store.NewMemory()
	g, err := schedule.NewGraph(mem, audit.NewRecorder(nil), zap.NewNop())
	require.NoError(t, err)

	a := seedTask(t, mem, "p1", "a", 1, 2)
	b := seedTask(t, mem, "p1", "b", 2, 3)
	c := seedTask(t, mem, "p1", "c", 3, 4)
	link(t, g, "p1", a.ID, b.ID, 0)
	link(t, g, "p1", b.ID, c.ID, 0)

	_, err = g.AddDependency(context.Background(), "p1", &schedule.AddDependencyRequest{
		PredecessorID: c.ID,
		SuccessorID:   a.ID,
	})
	assert.ErrorIs(t, err, schedule.ErrCycle)
}

func TestAddDependencyAllowsDiamond(t *testing.T) {
	mem := store.NewMemory()
	g, err := schedule.NewGraph(mem, audit.NewRecorder(nil), zap.NewNop())
	require.NoError(t, err)

	a := seedTask(t, mem, "p1", "a", 1, 2)
	b := seedTask(t, mem, "p1", "b", 2, 3)
	c := seedTask(t, mem, "p1", "c", 2, 3)
	d := seedTask(t, mem, "p1", "d", 3, 4)

	// Two paths to the same node is fine; only closed loops are rejected.
	link(t, g, "p1", a.ID, b.ID, 0)
	link(t, g, "p1", a.ID, c.ID, 0)
	link(t, g, "p1", b.ID, d.ID, 0)
	link(t, g, "p1", c.ID, d.ID, 0)
}

func TestRemoveDependency(t *testing.T) {
	mem := store.NewMemory()
	g, err := schedule.NewGraph(mem, audit.NewRecorder(nil), zap.NewNop())
	require.NoError(t, err)

	a := seedTask(t, mem, "p1", "a", 1, 2)
	b := seedTask(t, mem, "p1", "b", 2, 3)
	dep := link(t, g, "p1", a.ID, b.ID, 0)

	require.NoError(t, g.RemoveDependency(context.Background(), "p1", dep.ID))

	_, err = mem.GetDependency(context.Background(), dep.ID)
	assert.ErrorIs(t, err, schedule.ErrDependencyNotFound)
}

func TestRemoveDependencyNotFound(t *testing.T) {
	mem := store.NewMemory()
	g, err := schedule.NewGraph(mem, audit.NewRecorder(nil), zap.NewNop())
	require.NoError(t, err)

	err = g.RemoveDependency(context.Background(), "p1", "missing")
	assert.ErrorIs(t, err, schedule.ErrDependencyNotFound)
}

func TestDependencyAuditTrail(t *testing.T) {
	mem := store.NewMemory()
	recorder := audit.NewRecorder(nil)
	g, err := schedule.NewGraph(mem, recorder, zap.NewNop())
	require.NoError(t, err)

	a := seedTask(t, mem, "p1", "design", 1, 4)
	b := seedTask(t, mem, "p1", "build", 4, 6)

	dep, err := g.AddDependency(context.Background(), "p1", &schedule.AddDependencyRequest{
		PredecessorID: a.ID,
		SuccessorID:   b.ID,
		LagDays:       2,
	})
	require.NoError(t, err)
	require.NoError(t, g.RemoveDependency(context.Background(), "p1", dep.ID))

	entries, err := recorder.List(context.Background(), audit.Filter{Entity: "TaskDependency"})
	require.NoError(t, err)
	require.Len(t, entries, 2, "create and delete each leave a record")

	// Newest first: the delete, then the create.
	assert.Equal(t, audit.ActionDelete, entries[0].Action)
	assert.Equal(t, dep.ID, entries[0].EntityID)
	assert.Contains(t, entries[0].Summary, `"design" -> "build"`)

	assert.Equal(t, audit.ActionCreate, entries[1].Action)
	assert.Equal(t, dep.ID, entries[1].EntityID)
	assert.Contains(t, entries[1].Summary, `"design" -> "build"`)
	assert.Contains(t, entries[1].Summary, "FS, lag 2d")
	assert.Equal(t, "p1", entries[1].ProjectID)
}

func TestRemoveDependencyOtherProject(t *testing.T) {
	mem := store.NewMemory()
	g, err := schedule.NewGraph(mem, audit.NewRecorder(nil), zap.NewNop())
	require.NoError(t, err)

	a := seedTask(t, mem, "p1", "a", 1, 2)
	b := seedTask(t, mem, "p1", "b", 2, 3)
	dep := link(t, g, "p1", a.ID, b.ID, 0)

	// Another project's scope must not see, let alone delete, the edge.
	err = g.RemoveDependency(context.Background(), "p2", dep.ID)
	assert.ErrorIs(t, err, schedule.ErrDependencyNotFound)

	_, err = mem.GetDependency(context.Background(), dep.ID)
	assert.NoError(t, err, "edge must survive the rejected delete")
}
