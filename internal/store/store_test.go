package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/clusterd/internal/cluster"
)

func testCentroid(dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(i+1) / float32(dim*dim)
	}
	return v
}

func newTestCluster(t *testing.T) *cluster.Cluster {
	t.Helper()
	c, err := cluster.New(testCentroid(64), 64, cluster.WithName("test"))
	require.NoError(t, err)
	return c
}

func TestMemoryStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := newTestCluster(t)

	require.NoError(t, s.Put(ctx, c.Snapshot()))

	got, err := s.Get(ctx, c.ID())
	require.NoError(t, err)
	assert.Equal(t, c.ID(), got.ID)
	assert.Equal(t, c.Centroid(), got.Centroid)
}

func TestMemoryStoreGetNotFound(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClusterNotFound)
}

func TestMemoryStorePutRejectsEmptyID(t *testing.T) {
	s := NewMemoryStore()

	err := s.Put(context.Background(), cluster.Snapshot{})
	require.Error(t, err)
	assert.ErrorIs(t, err, cluster.ErrValidation)
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	a := newTestCluster(t)
	b := newTestCluster(t)
	require.NoError(t, s.Put(ctx, a.Snapshot()))
	require.NoError(t, s.Put(ctx, b.Snapshot()))

	snaps, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Less(t, snaps[0].ID, snaps[1].ID, "list must be ordered by ID")
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := newTestCluster(t)

	require.NoError(t, s.Put(ctx, c.Snapshot()))
	require.NoError(t, s.Delete(ctx, c.ID()))

	err := s.Delete(ctx, c.ID())
	assert.ErrorIs(t, err, ErrClusterNotFound)
}

func TestMemoryStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := newTestCluster(t)
	require.NoError(t, s.Put(ctx, c.Snapshot()))

	t.Run("applies mutation", func(t *testing.T) {
		err := s.Update(ctx, c.ID(), func(c *cluster.Cluster) error {
			c.AddMember()
			return nil
		})
		require.NoError(t, err)

		got, err := s.Get(ctx, c.ID())
		require.NoError(t, err)
		assert.Equal(t, 1, got.Size)
	})

	t.Run("error from fn leaves state unchanged", func(t *testing.T) {
		before, err := s.Get(ctx, c.ID())
		require.NoError(t, err)

		updateErr := s.Update(ctx, c.ID(), func(c *cluster.Cluster) error {
			c.AddMember()
			return c.UpdateCentroid(testCentroid(10)) // dimension mismatch
		})
		require.Error(t, updateErr)
		assert.ErrorIs(t, updateErr, cluster.ErrDimensionMismatch)

		after, err := s.Get(ctx, c.ID())
		require.NoError(t, err)
		assert.Equal(t, before.Size, after.Size)
	})

	t.Run("unknown ID", func(t *testing.T) {
		err := s.Update(ctx, "missing", func(*cluster.Cluster) error { return nil })
		assert.ErrorIs(t, err, ErrClusterNotFound)
	})
}

func TestMemoryStoreUpdateSerializesWriters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := newTestCluster(t)
	require.NoError(t, s.Put(ctx, c.Snapshot()))

	const writers = 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, c.ID(), func(c *cluster.Cluster) error {
				c.AddMember()
				return nil
			})
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, c.ID())
	require.NoError(t, err)
	assert.Equal(t, writers, got.Size, "no increment may be lost")
}

func TestMemoryStoreSnapshotsDoNotShareMemory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := newTestCluster(t)
	require.NoError(t, s.Put(ctx, c.Snapshot()))

	got, err := s.Get(ctx, c.ID())
	require.NoError(t, err)
	got.Centroid[0] = 999

	fresh, err := s.Get(ctx, c.ID())
	require.NoError(t, err)
	assert.NotEqual(t, float32(999), fresh.Centroid[0])
}
