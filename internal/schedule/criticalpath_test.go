package schedule_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pland/internal/audit"
	"github.com/fyrsmithlabs/pland/internal/schedule"
	"github.com/fyrsmithlabs/pland/internal/store"
)

func newCalcFixture(t *testing.T) (*store.Memory, *schedule.Graph, *schedule.Calculator) {
	t.Helper()

	mem := store.NewMemory()
	g, err := schedule.NewGraph(mem, audit.NewRecorder(nil), zap.NewNop())
	require.NoError(t, err)
	c, err := schedule.NewCalculator(mem, zap.NewNop())
	require.NoError(t, err)
	return mem, g, c
}

func TestCalculateChain(t *testing.T) {
	mem, g, calc := newCalcFixture(t)

	// Three tasks back to back: 3, 2, and 4 exclusive days.
	a := seedTask(t, mem, "p1", "design", 1, 4)
	b := seedTask(t, mem, "p1", "build", 4, 6)
	c := seedTask(t, mem, "p1", "ship", 6, 10)
	link(t, g, "p1", a.ID, b.ID, 0)
	link(t, g, "p1", b.ID, c.ID, 0)

	result, err := calc.Calculate(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 9, result.TotalDuration)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, result.CriticalPath)

	for _, id := range []string{a.ID, b.ID, c.ID} {
		stored, err := mem.GetTask(context.Background(), "p1", id)
		require.NoError(t, err)
		assert.True(t, stored.IsCriticalPath, "every chain member is critical")
		assert.Equal(t, 0, stored.FloatDays)
	}
}

func TestCalculateParallelBranches(t *testing.T) {
	mem, g, calc := newCalcFixture(t)

	short := seedTask(t, mem, "p1", "short branch", 1, 3) // 2 days
	long := seedTask(t, mem, "p1", "long branch", 1, 6)   // 5 days
	join := seedTask(t, mem, "p1", "join", 6, 7)          // 1 day
	link(t, g, "p1", short.ID, join.ID, 0)
	link(t, g, "p1", long.ID, join.ID, 0)

	result, err := calc.Calculate(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 6, result.TotalDuration)
	assert.ElementsMatch(t, []string{long.ID, join.ID}, result.CriticalPath)

	stored, err := mem.GetTask(context.Background(), "p1", short.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsCriticalPath)
	assert.Equal(t, 3, stored.FloatDays, "short branch can slip until the long one finishes")
}

func TestCalculateLag(t *testing.T) {
	mem, g, calc := newCalcFixture(t)

	a := seedTask(t, mem, "p1", "pour", 1, 3)  // 2 days
	b := seedTask(t, mem, "p1", "frame", 6, 7) // 1 day
	link(t, g, "p1", a.ID, b.ID, 3)

	result, err := calc.Calculate(context.Background(), "p1")
	require.NoError(t, err)

	// Lag pushes the successor's earliest start but keeps both critical.
	assert.Equal(t, 6, result.TotalDuration)
	assert.Equal(t, []string{a.ID, b.ID}, result.CriticalPath)
}

func TestCalculateNegativeLag(t *testing.T) {
	mem, g, calc := newCalcFixture(t)

	a := seedTask(t, mem, "p1", "excavate", 1, 4) // 3 days
	b := seedTask(t, mem, "p1", "pour", 4, 8)     // 4 days
	link(t, g, "p1", a.ID, b.ID, -2)

	result, err := calc.Calculate(context.Background(), "p1")
	require.NoError(t, err)

	// Lead time lets the successor start two days before the predecessor
	// finishes: earliest start 1 instead of 3, so the chain spans 5, not 7.
	assert.Equal(t, 5, result.TotalDuration)
	assert.Equal(t, []string{a.ID, b.ID}, result.CriticalPath)

	for _, id := range []string{a.ID, b.ID} {
		stored, err := mem.GetTask(context.Background(), "p1", id)
		require.NoError(t, err)
		assert.True(t, stored.IsCriticalPath)
		assert.Equal(t, 0, stored.FloatDays)
	}
}

func TestCalculateDisconnectedTask(t *testing.T) {
	mem, _, calc := newCalcFixture(t)

	long := seedTask(t, mem, "p1", "long", 1, 6)  // 5 days
	lone := seedTask(t, mem, "p1", "lone", 1, 2)  // 1 day, no edges

	result, err := calc.Calculate(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalDuration)
	assert.Equal(t, []string{long.ID}, result.CriticalPath)

	stored, err := mem.GetTask(context.Background(), "p1", lone.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsCriticalPath)
	assert.Equal(t, 4, stored.FloatDays, "float is measured against the project end")
}

func TestCalculateMilestone(t *testing.T) {
	mem, g, calc := newCalcFixture(t)

	a := seedTask(t, mem, "p1", "work", 1, 4) // 3 days
	m := seedTask(t, mem, "p1", "gate", 4, 4) // same day, zero length
	link(t, g, "p1", a.ID, m.ID, 0)

	result, err := calc.Calculate(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalDuration, "zero-length milestone adds nothing")
	assert.Equal(t, []string{a.ID, m.ID}, result.CriticalPath)
}

func TestCalculateEmptyProject(t *testing.T) {
	_, _, calc := newCalcFixture(t)

	result, err := calc.Calculate(context.Background(), "empty")
	require.NoError(t, err)

	assert.Equal(t, 0, result.TotalDuration)
	assert.Empty(t, result.CriticalPath)
	assert.NotNil(t, result.CriticalPath, "serializes as [], not null")
}

func TestCalculateIgnoresUnscheduled(t *testing.T) {
	mem, _, calc := newCalcFixture(t)

	a := seedTask(t, mem, "p1", "scheduled", 1, 3)
	seedTask(t, mem, "p1", "no dates", 0, 0)

	result, err := calc.Calculate(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalDuration)
	assert.Equal(t, []string{a.ID}, result.CriticalPath)
}

func TestCalculateClearsStaleFlags(t *testing.T) {
	mem, g, calc := newCalcFixture(t)

	short := seedTask(t, mem, "p1", "short", 1, 3)
	long := seedTask(t, mem, "p1", "long", 1, 6)
	join := seedTask(t, mem, "p1", "join", 6, 7)
	link(t, g, "p1", short.ID, join.ID, 0)
	link(t, g, "p1", long.ID, join.ID, 0)

	_, err := calc.Calculate(context.Background(), "p1")
	require.NoError(t, err)

	// Stretch the short branch past the long one and recompute: the critical
	// flag must move, not accumulate.
	end := day(8)
	require.NoError(t, mem.UpdateTaskDates(context.Background(), short.ID, short.PlannedStart, &end))

	result, err := calc.Calculate(context.Background(), "p1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{short.ID, join.ID}, result.CriticalPath)

	stored, err := mem.GetTask(context.Background(), "p1", long.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsCriticalPath, "previous critical flag must be overwritten")
	assert.Equal(t, 2, stored.FloatDays)
}
