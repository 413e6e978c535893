package filter

import (
	"context"

	"github.com/rushteam/recoserve/core"
)

// ExclusionSource 提供用户主动屏蔽的物品列表，core.SearchIndex 满足此接口。
type ExclusionSource interface {
	UserExclusions(ctx context.Context, userID string) ([]string, error)
}

// ExclusionFilter 是用户屏蔽过滤器：每次请求读取一次用户的屏蔽列表，再按黑名单过滤。
type ExclusionFilter struct {
	Source ExclusionSource
}

// NewExclusionFilter 创建用户屏蔽过滤器
func NewExclusionFilter(source ExclusionSource) *ExclusionFilter {
	return &ExclusionFilter{Source: source}
}

func (f *ExclusionFilter) Name() string {
	return "filter.exclusion"
}

// Load 读取用户的屏蔽列表。匿名用户返回空黑名单。
func (f *ExclusionFilter) Load(ctx context.Context, userID string) (*BlacklistFilter, error) {
	if f.Source == nil || userID == "" {
		return NewBlacklistFilter(nil), nil
	}
	ids, err := f.Source.UserExclusions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewBlacklistFilter(ids), nil
}

// Apply 从 ids 中移除 rctx.UserID 屏蔽的物品
func (f *ExclusionFilter) Apply(ctx context.Context, rctx *core.RecommendContext, ids []string) ([]string, error) {
	if rctx == nil {
		return ids, nil
	}
	bl, err := f.Load(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	if bl.Len() == 0 {
		return ids, nil
	}
	return Apply(ctx, rctx, ids, bl)
}
