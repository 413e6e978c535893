// Package model 提供排序模型：本地 XGBoost 树模型、LR，以及远程 RPC 打分。
package model

import "context"

// RankModel 是排序阶段的最小抽象：输入按 Features() 顺序排列的特征向量，输出一个可比较的分数。
// 模型在启动时加载，之后只读，可并发调用。
type RankModel interface {
	Name() string

	// Features 模型要求的特征名，顺序即输入向量的顺序
	Features() []string

	Predict(ctx context.Context, x []float64) (float64, error)
}

// BatchRankModel 支持批量打分的模型（远程模型一次请求打分全部行）。
type BatchRankModel interface {
	RankModel
	PredictBatch(ctx context.Context, xs [][]float64) ([]float64, error)
}

// PredictAll 对 xs 逐行打分；模型支持批量时走批量接口。
func PredictAll(ctx context.Context, m RankModel, xs [][]float64) ([]float64, error) {
	if bm, ok := m.(BatchRankModel); ok {
		return bm.PredictBatch(ctx, xs)
	}
	out := make([]float64, len(xs))
	for i, x := range xs {
		s, err := m.Predict(ctx, x)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
