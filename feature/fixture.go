package feature

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/recoserve/pkg/conv"
	"github.com/rushteam/recoserve/store"
)

// Fixture 是内存特征后端的灌数文件（YAML 或 JSON）：
//
//	items:
//	  "1001": {likes: 12, views: 340}
//	users:
//	  u1: {user_vv: 7}
//
// 值只允许字符串或数值，与 Redis Hash 中存放的形式一致。
type Fixture struct {
	Items map[string]map[string]any `yaml:"items"`
	Users map[string]map[string]any `yaml:"users"`
}

// ReadFixture 读取灌数文件
func ReadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("feature: read fixture: %w", err)
	}
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("feature: parse fixture %s: %w", path, err)
	}
	return &fx, nil
}

// NewMemoryFeatureService 创建内存特征服务，fx 为 nil 时两个存储都是空的。
func NewMemoryFeatureService(ctx context.Context, fx *Fixture, prefix string) (*StoreFeatureService, error) {
	items, users := store.NewMemoryStore(), store.NewMemoryStore()
	svc := NewStoreFeatureService(items, users, prefix)
	if fx == nil {
		return svc, nil
	}
	if err := seed(ctx, items, fx.Items, svc.ItemKey); err != nil {
		return nil, err
	}
	if err := seed(ctx, users, fx.Users, svc.UserKey); err != nil {
		return nil, err
	}
	return svc, nil
}

func seed(ctx context.Context, s *store.MemoryStore, rows map[string]map[string]any, key func(string) string) error {
	for id, values := range rows {
		fields := make(map[string]string, len(values))
		for name, v := range values {
			str, ok := conv.ToString(v)
			if !ok {
				return fmt.Errorf("feature: fixture %s.%s: unsupported value %v", id, name, v)
			}
			fields[name] = str
		}
		if err := s.HSet(ctx, key(id), fields); err != nil {
			return err
		}
	}
	return nil
}
