// Package filter 提供候选 ID 的过滤能力（用户屏蔽列表等）。
package filter

import (
	"context"

	"github.com/rushteam/recoserve/core"
)

// Filter 是过滤器的抽象接口，用于判断一个候选是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断 itemID 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, itemID string) (bool, error)
}

// Apply 依次用 filters 过滤 ids，保持原有顺序。
// 任何一个过滤器返回 true，该 ID 就会被移除；过滤器出错时中断并返回错误。
func Apply(ctx context.Context, rctx *core.RecommendContext, ids []string, filters ...Filter) ([]string, error) {
	if len(filters) == 0 || len(ids) == 0 {
		return ids, nil
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		drop := false
		for _, f := range filters {
			ok, err := f.ShouldFilter(ctx, rctx, id)
			if err != nil {
				return nil, err
			}
			if ok {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, id)
		}
	}
	return out, nil
}
