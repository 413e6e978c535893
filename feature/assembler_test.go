package feature

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recoserve/core"
	"github.com/rushteam/recoserve/pkg/dsl"
	"github.com/rushteam/recoserve/store"
)

func newTestService(t *testing.T) (*StoreFeatureService, *store.MemoryStore, *store.MemoryStore) {
	t.Helper()
	items := store.NewMemoryStore()
	users := store.NewMemoryStore()
	svc := NewStoreFeatureService(items, users, "")
	t.Cleanup(func() { _ = svc.Close() })
	return svc, items, users
}

func seedItem(t *testing.T, svc *StoreFeatureService, s *store.MemoryStore, id string, fields map[string]string) {
	t.Helper()
	require.NoError(t, s.HSet(context.Background(), svc.ItemKey(id), fields))
}

func seedUser(t *testing.T, svc *StoreFeatureService, s *store.MemoryStore, id string, fields map[string]string) {
	t.Helper()
	require.NoError(t, s.HSet(context.Background(), svc.UserKey(id), fields))
}

func TestStoreFeatureService_Keys(t *testing.T) {
	svc := NewStoreFeatureService(store.NewMemoryStore(), nil, "")
	assert.Equal(t, "recommendations_preprocessing_asset:42", svc.ItemKey("42"))
	assert.Equal(t, "recommendations_preprocessing_user:u1", svc.UserKey("u1"))
}

func TestAssembler_DropsMisses(t *testing.T) {
	svc, items, _ := newTestService(t)
	for _, id := range []string{"a", "c", "e"} {
		seedItem(t, svc, items, id, map[string]string{"likes": "3", "duration": "12.5"})
	}

	a, err := NewAssembler(svc, nil)
	require.NoError(t, err)

	frame, err := a.Assemble(context.Background(), &core.RecommendContext{}, []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	require.Equal(t, 3, frame.Len())
	assert.Equal(t, ColdStart, frame.Eligibility)

	ids := make([]string, 0, frame.Len())
	for _, r := range frame.Rows {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"a", "c", "e"}, ids)
	assert.Equal(t, "3", frame.Rows[0].Features["likes"])
}

func TestAssembler_BroadcastsUser(t *testing.T) {
	svc, items, users := newTestService(t)
	for _, id := range []string{"a", "b", "c"} {
		seedItem(t, svc, items, id, map[string]string{"likes": "1", "shared": "item"})
	}
	seedUser(t, svc, users, "u1", map[string]string{"user_vv": "40", "user_age": "21", "shared": "user"})

	a, err := NewAssembler(svc, nil)
	require.NoError(t, err)

	rctx := &core.RecommendContext{UserID: "u1", Country: "US"}
	frame, err := a.Assemble(context.Background(), rctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Equal(t, 3, frame.Len())
	assert.Equal(t, FullModelEligible, frame.Eligibility)
	assert.Equal(t, []string{"shared", "user_age", "user_vv"}, frame.UserColumns)

	for _, r := range frame.Rows {
		for _, col := range frame.UserColumns {
			assert.Equal(t, frame.Rows[0].Features[col], r.Features[col])
		}
		assert.Equal(t, "user", r.Features["shared"])
	}

	lbl, ok := rctx.GetLabel("model_eligibility")
	require.True(t, ok)
	assert.Equal(t, "full", lbl.Value)
}

func TestAssembler_ColdStart(t *testing.T) {
	svc, items, users := newTestService(t)
	seedItem(t, svc, items, "a", map[string]string{"likes": "1"})
	seedUser(t, svc, users, "u2", map[string]string{"user_age": "30"})

	a, err := NewAssembler(svc, nil)
	require.NoError(t, err)

	// 用户存在但没有观看量字段
	frame, err := a.Assemble(context.Background(), &core.RecommendContext{UserID: "u2"}, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, ColdStart, frame.Eligibility)
	assert.Equal(t, "30", frame.Rows[0].Features["user_age"])

	// 用户不存在
	frame, err = a.Assemble(context.Background(), &core.RecommendContext{UserID: "ghost"}, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, ColdStart, frame.Eligibility)
	assert.Empty(t, frame.UserColumns)
}

func TestAssembler_CustomEligibility(t *testing.T) {
	svc, items, users := newTestService(t)
	seedItem(t, svc, items, "a", map[string]string{"likes": "1"})
	seedUser(t, svc, users, "u1", map[string]string{"user_vv": "3"})

	elig, err := dsl.NewEligibility(`'user_vv' in user && double(user.user_vv) >= 10.0`)
	require.NoError(t, err)
	a, err := NewAssembler(svc, elig)
	require.NoError(t, err)

	frame, err := a.Assemble(context.Background(), &core.RecommendContext{UserID: "u1"}, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, ColdStart, frame.Eligibility)
}

type failingService struct{ core.FeatureService }

func (failingService) BatchGetItemFeatures(context.Context, []string) ([]map[string]any, error) {
	return nil, errors.New("redis: connection refused")
}

func TestAssembler_BackendError(t *testing.T) {
	a, err := NewAssembler(failingService{}, nil)
	require.NoError(t, err)

	_, err = a.Assemble(context.Background(), &core.RecommendContext{}, []string{"a"})
	assert.ErrorIs(t, err, core.ErrBackendUnavailable)
}

// countingStore 记录对底层存储的调用次数
type countingStore struct {
	*store.MemoryStore
	hgetall, batch int
	batchKeys      int
}

func (c *countingStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	c.hgetall++
	return c.MemoryStore.HGetAll(ctx, key)
}

func (c *countingStore) BatchHGetAll(ctx context.Context, keys []string) ([]map[string]string, error) {
	c.batch++
	c.batchKeys += len(keys)
	return c.MemoryStore.BatchHGetAll(ctx, keys)
}

func TestAssembler_ItemFeaturesInOneRoundTrip(t *testing.T) {
	items := &countingStore{MemoryStore: store.NewMemoryStore()}
	users := &countingStore{MemoryStore: store.NewMemoryStore()}
	svc := NewStoreFeatureService(items, users, "")

	candidates := make([]string, 100)
	for i := range candidates {
		candidates[i] = fmt.Sprintf("item-%d", i)
		if i%2 == 0 {
			require.NoError(t, items.HSet(context.Background(), svc.ItemKey(candidates[i]), map[string]string{"likes": "1"}))
		}
	}
	require.NoError(t, users.HSet(context.Background(), svc.UserKey("u1"), map[string]string{"user_vv": "4"}))

	a, err := NewAssembler(svc, nil)
	require.NoError(t, err)

	frame, err := a.Assemble(context.Background(), &core.RecommendContext{UserID: "u1"}, candidates)
	require.NoError(t, err)
	assert.Equal(t, 50, frame.Len())

	assert.Equal(t, 1, items.batch)
	assert.Equal(t, 100, items.batchKeys)
	assert.Zero(t, items.hgetall)
	assert.Zero(t, users.batch)
	assert.Equal(t, 1, users.hgetall)
}
