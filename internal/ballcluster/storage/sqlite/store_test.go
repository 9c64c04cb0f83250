package sqlite

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ballcluster/internal/ballcluster"
	"github.com/banshee-data/ballcluster/internal/db"
	"github.com/banshee-data/ballcluster/internal/testutil"
)

func setupStore(t *testing.T) (*ClusterStore, *sql.DB) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewClusterStore(database.DB), database.DB
}

func TestClusterStore_CreateAndGetRun(t *testing.T) {
	store, _ := setupStore(t)

	run, err := store.CreateRun("chain", "v1.0.0", ballcluster.DefaultConfig())
	require.NoError(t, err)
	assert.Len(t, run.RunID, 36)

	got, err := store.GetRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run, got)

	other, err := store.CreateRun("chain", "v1.0.0", ballcluster.DefaultConfig())
	require.NoError(t, err)
	assert.NotEqual(t, run.RunID, other.RunID)

	_, err = store.GetRun("missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestClusterStore_RecordTick(t *testing.T) {
	store, _ := setupStore(t)
	run, err := store.CreateRun("pair", "dev", ballcluster.DefaultConfig())
	require.NoError(t, err)

	e := ballcluster.NewEngine(ballcluster.DefaultConfig())
	first := e.Tick(testutil.Row(1, 0, 10, 0, 0, 20, 500), 0)
	second := e.Tick(testutil.Row(1, 0, 10, 0, 0, 20, 40, 500), 0.1)
	require.NoError(t, store.RecordTick(run.RunID, first))
	require.NoError(t, store.RecordTick(run.RunID, second))

	ticks, err := store.ListTicks(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, []TickSummary{
		{Tick: 1, SimTime: 0, EntityCount: 3, ClusterCount: 2, LargestSize: 2},
		{Tick: 2, SimTime: 0.1, EntityCount: 4, ClusterCount: 2, LargestSize: 3},
	}, ticks)

	clusters, err := store.GetTickClusters(run.RunID, 2)
	require.NoError(t, err)
	if diff := cmp.Diff(second.Clusters(), clusters); diff != "" {
		t.Errorf("stored clusters differ (-published +stored):\n%s", diff)
	}
}

func TestClusterStore_RecordTickReplaces(t *testing.T) {
	store, database := setupStore(t)
	run, err := store.CreateRun("replace", "dev", ballcluster.DefaultConfig())
	require.NoError(t, err)

	e := ballcluster.NewEngine(ballcluster.DefaultConfig())
	res := e.Tick(testutil.Row(1, 0, 1, 0, 0, 10, 20), 0)
	require.NoError(t, store.RecordTick(run.RunID, res))
	require.NoError(t, store.RecordTick(run.RunID, res))

	var n int
	require.NoError(t, database.QueryRow(
		`SELECT COUNT(*) FROM cluster_tick_clusters WHERE run_id = ?`, run.RunID).Scan(&n))
	assert.Equal(t, 3, n)
}

func TestClusterStore_EmptyTick(t *testing.T) {
	store, _ := setupStore(t)
	run, err := store.CreateRun("empty", "dev", ballcluster.DefaultConfig())
	require.NoError(t, err)

	res := ballcluster.NewEngine(ballcluster.DefaultConfig()).Tick(nil, 0)
	require.NoError(t, store.RecordTick(run.RunID, res))

	ticks, err := store.ListTicks(run.RunID)
	require.NoError(t, err)
	require.Len(t, ticks, 1)
	assert.Equal(t, 0, ticks[0].ClusterCount)
	assert.Equal(t, 0, ticks[0].LargestSize)

	clusters, err := store.GetTickClusters(run.RunID, 1)
	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestClusterStore_UnknownRunRejected(t *testing.T) {
	store, _ := setupStore(t)
	res := ballcluster.NewEngine(ballcluster.DefaultConfig()).Tick(testutil.Row(1, 0, 1, 0, 0), 0)
	assert.Error(t, store.RecordTick("no-such-run", res), "foreign keys are enforced")
}

func TestClusterStore_DeleteRunCascades(t *testing.T) {
	store, database := setupStore(t)
	run, err := store.CreateRun("gone", "dev", ballcluster.DefaultConfig())
	require.NoError(t, err)
	res := ballcluster.NewEngine(ballcluster.DefaultConfig()).Tick(testutil.Row(1, 0, 1, 0, 0, 1.5), 0)
	require.NoError(t, store.RecordTick(run.RunID, res))

	require.NoError(t, store.DeleteRun(run.RunID))
	assert.ErrorIs(t, store.DeleteRun(run.RunID), ErrRunNotFound)

	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM cluster_tick_clusters`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestMembersEncoding(t *testing.T) {
	tests := []struct {
		ids  []ballcluster.EntityID
		text string
	}{
		{nil, ""},
		{[]ballcluster.EntityID{7}, "7"},
		{[]ballcluster.EntityID{1, 2, 18446744073709551615}, "1,2,18446744073709551615"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.text, encodeMembers(tt.ids))
		got, err := decodeMembers(tt.text)
		require.NoError(t, err)
		assert.Equal(t, tt.ids, got)
	}
	_, err := decodeMembers("1,x")
	assert.Error(t, err)
}

func TestRetryOnBusy(t *testing.T) {
	calls := 0
	err := retryOnBusy(func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked (SQLITE_BUSY)")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	boom := errors.New("constraint failed")
	err = retryOnBusy(func() error { calls++; return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
