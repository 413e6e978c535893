package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recoserve/core"
)

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewMemBleveIndex()
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestBleveIndex_CountAndSearch(t *testing.T) {
	idx := newTestIndex(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, idx.IndexItem(fmt.Sprintf("us-%d", i), ItemDoc{
			Country:      "US",
			Status:       core.StatusAccepted,
			CreationDate: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, idx.IndexItem("us-pending", ItemDoc{Country: "US", Status: "PENDING", CreationDate: base}))
	require.NoError(t, idx.IndexItem("sg-0", ItemDoc{Country: "SG", Status: core.StatusAccepted, CreationDate: base}))

	ctx := context.Background()
	q := core.CandidateQuery{Country: "US", Status: core.StatusAccepted}

	n, err := idx.Count(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	q.Size = 3
	ids, err := idx.SearchIDs(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"us-4", "us-3", "us-2"}, ids)

	n, err = idx.Count(ctx, core.CandidateQuery{Country: "FR"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBleveIndex_UserExclusions(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.IndexUser("u1", []string{"a", "b"}))
	require.NoError(t, idx.IndexUser("u2", []string{"c"}))

	ctx := context.Background()

	ids, err := idx.UserExclusions(ctx, "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	ids, err = idx.UserExclusions(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids)

	ids, err = idx.UserExclusions(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBleveIndex_Sample(t *testing.T) {
	idx := newTestIndex(t)
	for i := 0; i < 4; i++ {
		require.NoError(t, idx.IndexItem(fmt.Sprintf("i%d", i), ItemDoc{Country: "US", Status: core.StatusAccepted}))
	}
	ids, err := idx.Sample(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	require.NoError(t, idx.Ping(context.Background()))
}
