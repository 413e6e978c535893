package feature

import (
	"context"
	"errors"

	"github.com/rushteam/recoserve/core"
	"github.com/rushteam/recoserve/pkg/conv"
)

// DefaultKeyPrefix 默认特征 key 前缀
const DefaultKeyPrefix = "recommendations_preprocessing"

// StoreFeatureService 是基于 core.HashStore 的特征服务。
// 物品与用户特征可以在不同的库（例如 Redis 不同 DB）。
//
// key 格式：
//   - 物品：<prefix>_asset:<item_id>
//   - 用户：<prefix>_user:<user_id>
type StoreFeatureService struct {
	items  core.HashStore
	users  core.HashStore
	prefix string
}

// NewStoreFeatureService 创建特征服务，users 为 nil 时与 items 共用同一个存储。
func NewStoreFeatureService(items, users core.HashStore, prefix string) *StoreFeatureService {
	if users == nil {
		users = items
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &StoreFeatureService{items: items, users: users, prefix: prefix}
}

func (s *StoreFeatureService) Name() string { return "store:" + s.items.Name() }

// ItemKey 物品特征 key
func (s *StoreFeatureService) ItemKey(itemID string) string {
	return s.prefix + "_asset:" + itemID
}

// UserKey 用户特征 key
func (s *StoreFeatureService) UserKey(userID string) string {
	return s.prefix + "_user:" + userID
}

func (s *StoreFeatureService) GetUserFeatures(ctx context.Context, userID string) (map[string]any, error) {
	m, err := s.users.HGetAll(ctx, s.UserKey(userID))
	if err != nil {
		return nil, err
	}
	return toBundle(m), nil
}

func (s *StoreFeatureService) BatchGetItemFeatures(ctx context.Context, itemIDs []string) ([]map[string]any, error) {
	keys := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		keys[i] = s.ItemKey(id)
	}
	hashes, err := s.items.BatchHGetAll(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(hashes))
	for i, h := range hashes {
		out[i] = toBundle(h)
	}
	return out, nil
}

func (s *StoreFeatureService) Ping(ctx context.Context) error {
	if err := s.items.Ping(ctx); err != nil {
		return err
	}
	if s.users != s.items {
		return s.users.Ping(ctx)
	}
	return nil
}

func (s *StoreFeatureService) Close() error {
	err := s.items.Close()
	if s.users != s.items {
		err = errors.Join(err, s.users.Close())
	}
	return err
}

func toBundle(m map[string]string) map[string]any {
	if len(m) == 0 {
		return map[string]any{}
	}
	return conv.StringMapToAny(m)
}

var _ core.FeatureService = (*StoreFeatureService)(nil)
