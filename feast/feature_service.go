package feast

import (
	"context"
	"strings"

	"github.com/rushteam/recoserve/core"
	"github.com/rushteam/recoserve/pkg/breaker"
)

// ServiceConfig Feast 特征服务配置
type ServiceConfig struct {
	// ItemEntity 物品实体键，默认 lomotif_id
	ItemEntity string `koanf:"item_entity"`
	// UserEntity 用户实体键，默认 user_id
	UserEntity string `koanf:"user_entity"`

	// ItemFeatures / UserFeatures 特征引用（feature_table:feature）
	ItemFeatures []string `koanf:"item_features"`
	UserFeatures []string `koanf:"user_features"`
}

// FeatureService 是基于 Feast 的 core.FeatureService 实现。
// 返回的特征名去掉 feature table 前缀，与 Redis 特征存储的字段名一致。
type FeatureService struct {
	client  Client
	cfg     ServiceConfig
	breaker *breaker.Breaker
}

// NewFeatureService 创建 Feast 特征服务
func NewFeatureService(client Client, cfg ServiceConfig, b *breaker.Breaker) *FeatureService {
	if cfg.ItemEntity == "" {
		cfg.ItemEntity = "lomotif_id"
	}
	if cfg.UserEntity == "" {
		cfg.UserEntity = "user_id"
	}
	return &FeatureService{client: client, cfg: cfg, breaker: b}
}

func (s *FeatureService) Name() string { return "feast" }

func (s *FeatureService) GetUserFeatures(ctx context.Context, userID string) (map[string]any, error) {
	if len(s.cfg.UserFeatures) == 0 {
		return map[string]any{}, nil
	}
	vectors, err := s.fetch(ctx, s.cfg.UserFeatures, s.cfg.UserEntity, []string{userID})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// BatchGetItemFeatures 一次 GetOnlineFeatures 调用取回全部物品
func (s *FeatureService) BatchGetItemFeatures(ctx context.Context, itemIDs []string) ([]map[string]any, error) {
	if len(itemIDs) == 0 {
		return []map[string]any{}, nil
	}
	if len(s.cfg.ItemFeatures) == 0 {
		out := make([]map[string]any, len(itemIDs))
		for i := range out {
			out[i] = map[string]any{}
		}
		return out, nil
	}
	return s.fetch(ctx, s.cfg.ItemFeatures, s.cfg.ItemEntity, itemIDs)
}

func (s *FeatureService) fetch(ctx context.Context, refs []string, entity string, ids []string) ([]map[string]any, error) {
	rows := make([]map[string]any, len(ids))
	for i, id := range ids {
		rows[i] = map[string]any{entity: id}
	}

	resp, err := breaker.Do(s.breaker, func() (*GetOnlineFeaturesResponse, error) {
		return s.client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
			Features:   refs,
			EntityRows: rows,
		})
	})
	if err != nil {
		return nil, err
	}
	if len(resp.FeatureVectors) != len(ids) {
		return nil, core.Unavailable(core.ModuleFeature, "feast: response row count mismatch", nil)
	}

	out := make([]map[string]any, len(ids))
	for i, fv := range resp.FeatureVectors {
		bundle := make(map[string]any, len(fv.Values))
		for ref, v := range fv.Values {
			bundle[featureName(ref)] = v
		}
		out[i] = bundle
	}
	return out, nil
}

func (s *FeatureService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *FeatureService) Close() error {
	return s.client.Close()
}

// featureName "asset_stats:likes" → "likes"
func featureName(ref string) string {
	if i := strings.LastIndexByte(ref, ':'); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

var _ core.FeatureService = (*FeatureService)(nil)
