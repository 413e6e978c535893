package recall

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recoserve/core"
)

// fakeIndex 按创建时间倒序保存物品 ID
type fakeIndex struct {
	ids        []string
	blacklist  map[string][]string
	countErr   error
	searchErr  error
	lastSize   int
	countDelta int64
}

func newFakeIndex(n int) *fakeIndex {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("item-%04d", i)
	}
	return &fakeIndex{ids: ids}
}

func (f *fakeIndex) Name() string { return "fake" }

func (f *fakeIndex) Count(_ context.Context, _ core.CandidateQuery) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return int64(len(f.ids)) + f.countDelta, nil
}

func (f *fakeIndex) SearchIDs(_ context.Context, q core.CandidateQuery) ([]string, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	f.lastSize = q.Size
	n := min(q.Size, len(f.ids))
	return append([]string(nil), f.ids[:n]...), nil
}

func (f *fakeIndex) UserExclusions(_ context.Context, userID string) ([]string, error) {
	return f.blacklist[userID], nil
}

func (f *fakeIndex) Sample(_ context.Context, n int) ([]string, error) {
	return f.ids[:min(n, len(f.ids))], nil
}

func (f *fakeIndex) Ping(context.Context) error { return nil }
func (f *fakeIndex) Close() error               { return nil }

func seeded() Option {
	return WithSampler(NewSampler(rand.NewPCG(1, 2)))
}

func assertUniqueSubset(t *testing.T, got CandidateSet, pool []string) {
	t.Helper()
	inPool := make(map[string]struct{}, len(pool))
	for _, id := range pool {
		inPool[id] = struct{}{}
	}
	seen := make(map[string]struct{}, len(got))
	for _, id := range got {
		_, ok := inPool[id]
		assert.True(t, ok, "id %s not in pool", id)
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestRetriever_LargePool(t *testing.T) {
	for _, n := range []int{500, 600, 999, 1500} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			idx := newFakeIndex(n)
			r := NewRetriever(idx, DefaultPolicy(), seeded())

			got, err := r.Retrieve(context.Background(), "US", "")
			require.NoError(t, err)
			assert.Len(t, got, 100)
			assert.Equal(t, 1000, idx.lastSize)
			assertUniqueSubset(t, got, idx.ids[:min(n, 1000)])
		})
	}
}

func TestRetriever_SmallPool(t *testing.T) {
	for _, n := range []int{1, 3, 10, 37, 499} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			idx := newFakeIndex(n)
			r := NewRetriever(idx, DefaultPolicy(), seeded())

			got, err := r.Retrieve(context.Background(), "US", "")
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Len(t, got, int(0.3*float64(n)))
			assert.Equal(t, n, idx.lastSize)
			assertUniqueSubset(t, got, idx.ids)
		})
	}
}

func TestRetriever_NoInventory(t *testing.T) {
	r := NewRetriever(newFakeIndex(0), DefaultPolicy())
	_, err := r.Retrieve(context.Background(), "FR", "")
	assert.ErrorIs(t, err, core.ErrNoInventory)
}

func TestRetriever_BackendError(t *testing.T) {
	idx := newFakeIndex(10)
	idx.countErr = errors.New("connection refused")
	r := NewRetriever(idx, DefaultPolicy())

	_, err := r.Retrieve(context.Background(), "US", "")
	assert.ErrorIs(t, err, core.ErrBackendUnavailable)
	assert.True(t, core.IsUnavailable(err))

	idx.countErr = nil
	idx.searchErr = errors.New("timeout")
	_, err = r.Retrieve(context.Background(), "US", "")
	assert.ErrorIs(t, err, core.ErrBackendUnavailable)
}

func TestRetriever_UnhandledPoolSize(t *testing.T) {
	policy := DefaultPolicy()
	policy.LargeThreshold = 2000
	r := NewRetriever(newFakeIndex(1500), policy)

	_, err := r.Retrieve(context.Background(), "US", "")
	assert.ErrorIs(t, err, core.ErrUnhandledPoolSize)
}

func TestRetriever_PoolShrankAfterCount(t *testing.T) {
	idx := newFakeIndex(50)
	idx.countDelta = 500 // count 报告 550，实际只有 50 条
	r := NewRetriever(idx, DefaultPolicy(), seeded())

	got, err := r.Retrieve(context.Background(), "US", "")
	require.NoError(t, err)
	assert.Len(t, got, 50)
}

func TestRetriever_Exclusions(t *testing.T) {
	idx := newFakeIndex(10)
	idx.blacklist = map[string][]string{"u1": {"item-0001", "item-0002"}}

	r := NewRetriever(idx, DefaultPolicy())
	ids, err := r.Exclusions(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"item-0001", "item-0002"}, ids)

	ids, err = r.Exclusions(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NotNil(t, ids)
}

func TestRetriever_ApplyExclusions(t *testing.T) {
	idx := newFakeIndex(10)
	idx.blacklist = map[string][]string{"u1": idx.ids[:9]}

	policy := DefaultPolicy()
	policy.SmallRatio = 1
	policy.ApplyExclusions = true
	r := NewRetriever(idx, policy, seeded())

	got, err := r.Retrieve(context.Background(), "US", "u1")
	require.NoError(t, err)
	assert.Equal(t, CandidateSet{"item-0009"}, got)
}

func TestRetriever_Labels(t *testing.T) {
	r := NewRetriever(newFakeIndex(600), DefaultPolicy(), seeded())
	rctx := &core.RecommendContext{Country: "US"}

	_, err := r.Recall(context.Background(), rctx)
	require.NoError(t, err)

	lbl, ok := rctx.GetLabel("recall_branch")
	require.True(t, ok)
	assert.Equal(t, BranchLarge, lbl.Value)
}
