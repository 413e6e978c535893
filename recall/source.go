// Package recall 实现候选召回：按候选池大小分支采样。
package recall

import (
	"context"

	"github.com/rushteam/recoserve/core"
)

// CandidateSet 是一次请求的候选物品 ID 集合，大小受采样策略约束。
// 空集合与 core.ErrNoInventory 含义不同：前者表示采样结果为空，后者表示国家下没有库存。
type CandidateSet []string

// Source 表示一个召回源。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) (CandidateSet, error)
}
