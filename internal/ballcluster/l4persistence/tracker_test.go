package l4persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ballcluster/internal/ballcluster/l1snapshot"
	"github.com/banshee-data/ballcluster/internal/ballcluster/l2spatial"
	"github.com/banshee-data/ballcluster/internal/ballcluster/l3components"
	"github.com/banshee-data/ballcluster/internal/testutil"
)

// step runs the L1-L3 layers for entities and reconciles the result,
// returning the cluster ID per entity ID.
func step(t *testing.T, tr *Tracker, now float64, entities ...l1snapshot.Entity) map[l1snapshot.EntityID]ClusterID {
	t.Helper()
	snap := l1snapshot.NewSnapshot(entities)
	si := l2spatial.NewSpatialIndex(1)
	si.Build(snap, l2spatial.CellSizeFor(snap.MaxRadius, 1))
	comps := l3components.NewResolver().Resolve(snap, si)

	assign := tr.Reconcile(snap, comps, now)
	require.Len(t, assign, snap.Len())

	out := make(map[l1snapshot.EntityID]ClusterID, len(assign))
	for i, e := range snap.Entities {
		out[e.ID] = assign[i]
	}
	return out
}

func TestTracker_NewComponentsGetFreshIDs(t *testing.T) {
	t.Parallel()
	tr := NewTracker(DefaultConfig())

	ids := step(t, tr, 0,
		testutil.Ball(1, 0, 0, 10, 0),
		testutil.Ball(2, 20, 0, 10, 0),
		testutil.Ball(3, 500, 0, 10, 0),
	)

	assert.Equal(t, ids[1], ids[2])
	assert.NotEqual(t, ids[1], ids[3])
	assert.NotEqual(t, NoCluster, ids[1])
	assert.NotEqual(t, NoCluster, ids[3])

	stats := tr.LastStats()
	assert.Equal(t, 3, stats.Created)
	assert.Equal(t, 2, stats.Allocated)
	assert.Equal(t, 2, stats.Renewed)
	assert.Equal(t, 3, tr.Len())
}

func TestTracker_IDsStableWhileTouching(t *testing.T) {
	t.Parallel()
	tr := NewTracker(DefaultConfig())
	pair := testutil.Row(1, 0, 10, 0, 0, 20)

	first := step(t, tr, 0, pair...)
	for i := 1; i <= 10; i++ {
		again := step(t, tr, float64(i), pair...)
		assert.Equal(t, first, again, "tick %d", i)
	}
}

func TestTracker_MergeKeepsLowestID(t *testing.T) {
	t.Parallel()
	tr := NewTracker(DefaultConfig())

	before := step(t, tr, 0,
		testutil.Ball(1, 0, 0, 10, 0),
		testutil.Ball(2, 20, 0, 10, 0),
		testutil.Ball(3, 100, 0, 10, 0),
		testutil.Ball(4, 120, 0, 10, 0),
	)
	require.NotEqual(t, before[1], before[3])
	low := min(before[1], before[3])

	// Bridge the two pairs.
	after := step(t, tr, 0.1,
		testutil.Ball(1, 0, 0, 10, 0),
		testutil.Ball(2, 20, 0, 10, 0),
		testutil.Ball(3, 40, 0, 10, 0),
		testutil.Ball(4, 60, 0, 10, 0),
	)
	for id := l1snapshot.EntityID(1); id <= 4; id++ {
		assert.Equal(t, low, after[id], "entity %d", id)
	}
	assert.Equal(t, 1, tr.LastStats().Merged)
}

func TestTracker_MergeRewritesAbsentMembers(t *testing.T) {
	t.Parallel()
	tr := NewTracker(DefaultConfig())

	// A(1,2) and B(3,4) are two clusters.
	step(t, tr, 0,
		testutil.Ball(1, 0, 0, 10, 0),
		testutil.Ball(2, 20, 0, 10, 0),
		testutil.Ball(3, 100, 0, 10, 0),
		testutil.Ball(4, 120, 0, 10, 0),
	)
	// Entity 4 drifts away (keeps B by hysteresis) while 3 bridges into A.
	ids := step(t, tr, 0.1,
		testutil.Ball(1, 0, 0, 10, 0),
		testutil.Ball(2, 20, 0, 10, 0),
		testutil.Ball(3, 40, 0, 10, 0),
		testutil.Ball(4, 400, 0, 10, 0),
	)

	assert.Equal(t, ids[1], ids[3])
	assert.Equal(t, ids[1], ids[4], "a record holding a merged ID must follow the merge")
}

func TestTracker_HysteresisAndDetach(t *testing.T) {
	t.Parallel()
	tr := NewTracker(Config{DetachThreshold: 0.5})

	joined := step(t, tr, 0, testutil.Row(1, 0, 10, 0, 0, 20)...)
	require.Equal(t, joined[1], joined[2])

	apart := testutil.Row(1, 0, 10, 0, 0, 100)

	ids := step(t, tr, 0.3, apart...)
	assert.Equal(t, ids[1], ids[2], "still joined before the threshold")
	assert.Equal(t, joined[1], ids[1])

	ids = step(t, tr, 0.5, apart...)
	assert.Equal(t, ids[1], ids[2], "exactly at the threshold is not past it")

	ids = step(t, tr, 0.51, apart...)
	assert.NotEqual(t, ids[1], ids[2], "detached after the threshold")
	assert.Equal(t, joined[1], ids[2], "the later entity keeps the original ID once it holds it alone")
	assert.Equal(t, 1, tr.LastStats().Detached)

	// No further churn for sole holders.
	again := step(t, tr, 5, apart...)
	assert.Equal(t, ids, again)
	assert.Equal(t, 0, tr.LastStats().Detached)
}

func TestTracker_TimerIsPerEntity(t *testing.T) {
	t.Parallel()
	tr := NewTracker(Config{DetachThreshold: 0.5})

	step(t, tr, 0, testutil.Row(1, 0, 10, 0, 0, 20, 40)...)

	// Entity 3 leaves; 1 and 2 stay in contact.
	moved := testutil.Row(1, 0, 10, 0, 0, 20, 200)
	ids := step(t, tr, 0.4, moved...)
	assert.Equal(t, ids[1], ids[3])

	ids = step(t, tr, 0.6, moved...)
	assert.Equal(t, ids[1], ids[2])
	assert.NotEqual(t, ids[1], ids[3])

	rec, ok := tr.Record(3)
	require.True(t, ok)
	assert.Equal(t, 0.0, rec.LastTouch)
	rec, ok = tr.Record(1)
	require.True(t, ok)
	assert.Equal(t, 0.6, rec.LastTouch)
}

func TestTracker_RenewedContactCancelsDetach(t *testing.T) {
	t.Parallel()
	tr := NewTracker(Config{DetachThreshold: 0.5})
	joined := testutil.Row(1, 0, 10, 0, 0, 20)
	apart := testutil.Row(1, 0, 10, 0, 0, 100)

	first := step(t, tr, 0, joined...)
	step(t, tr, 0.4, apart...)
	step(t, tr, 0.45, joined...)
	ids := step(t, tr, 0.8, apart...)

	assert.Equal(t, first[1], ids[1])
	assert.Equal(t, ids[1], ids[2], "contact at 0.45 restarted both timers")
}

func TestTracker_DespawnDeletesRecords(t *testing.T) {
	t.Parallel()
	tr := NewTracker(DefaultConfig())

	step(t, tr, 0, testutil.Row(1, 0, 10, 0, 0, 20, 40)...)
	require.Equal(t, 3, tr.Len())

	step(t, tr, 0.1, testutil.Ball(1, 0, 0, 10, 0))
	assert.Equal(t, 1, tr.Len())
	assert.Equal(t, 2, tr.LastStats().Despawned)
	_, ok := tr.Record(2)
	assert.False(t, ok)
}

func TestTracker_RecategorisedEntityLeavesCluster(t *testing.T) {
	t.Parallel()
	tr := NewTracker(DefaultConfig())

	before := step(t, tr, 0, testutil.Row(1, 0, 10, 0, 0, 20)...)
	after := step(t, tr, 0.1,
		testutil.Ball(1, 0, 0, 10, 0),
		testutil.Ball(2, 20, 0, 10, 1),
	)

	assert.Equal(t, before[1], after[1])
	assert.NotEqual(t, after[1], after[2])
	assert.Equal(t, 1, tr.LastStats().Recategorized)
	rec, _ := tr.Record(2)
	assert.Equal(t, 1, rec.Category)
}

func TestTracker_ResetKeepsIDsUnique(t *testing.T) {
	t.Parallel()
	tr := NewTracker(DefaultConfig())

	first := step(t, tr, 0, testutil.Ball(1, 0, 0, 1, 0))
	tr.Reset()
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, 1, tr.LastStats().Despawned)

	second := step(t, tr, 1, testutil.Ball(1, 0, 0, 1, 0))
	assert.Greater(t, second[1], first[1], "IDs are never reused")
}

func TestTracker_TimeGoingBackwardsIsClamped(t *testing.T) {
	t.Parallel()
	tr := NewTracker(Config{DetachThreshold: 0.5})

	step(t, tr, 10, testutil.Row(1, 0, 10, 0, 0, 20)...)
	step(t, tr, 1, testutil.Row(1, 0, 10, 0, 0, 20)...)

	rec, ok := tr.Record(1)
	require.True(t, ok)
	assert.Equal(t, 10.0, rec.LastTouch)
}

func TestTracker_NegativeThresholdClamped(t *testing.T) {
	t.Parallel()
	tr := NewTracker(Config{DetachThreshold: -1})
	assert.Equal(t, 0.0, tr.Config().DetachThreshold)
}

func TestTracker_RecordsBoundedByLiveEntities(t *testing.T) {
	t.Parallel()
	tr := NewTracker(DefaultConfig())

	// Continuous spawn/despawn: a sliding window of 5 live entities.
	for tick := 0; tick < 200; tick++ {
		var live []l1snapshot.Entity
		for k := 0; k < 5; k++ {
			id := uint64(tick + k + 1)
			live = append(live, testutil.Ball(id, float64(k)*15, 0, 8, 0))
		}
		step(t, tr, float64(tick)*0.05, live...)
		require.LessOrEqual(t, tr.Len(), 5, "tick %d", tick)
	}
}
