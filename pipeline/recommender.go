// Package pipeline 串联召回 → 特征组装 → 排序三个阶段。
package pipeline

import (
	"context"
	"time"

	"github.com/rushteam/recoserve/core"
	"github.com/rushteam/recoserve/feature"
	"github.com/rushteam/recoserve/pkg/logging"
	"github.com/rushteam/recoserve/pkg/metrics"
	"github.com/rushteam/recoserve/rank"
	"github.com/rushteam/recoserve/recall"
)

// 阶段名（用于日志与监控）
const (
	StageRecall   = "recall"
	StageAssemble = "assemble"
	StageRank     = "rank"
	StageTotal    = "total"
)

// Request 推荐请求
type Request struct {
	UserID  string
	Country string
}

// Recommender 依次执行召回、特征组装、排序。依赖在构造时注入，自身无状态，可并发使用。
type Recommender struct {
	source    recall.Source
	assembler *feature.Assembler
	ranker    *rank.Ranker
}

// NewRecommender 创建推荐器
func NewRecommender(source recall.Source, assembler *feature.Assembler, ranker *rank.Ranker) *Recommender {
	return &Recommender{source: source, assembler: assembler, ranker: ranker}
}

// Recommend 返回 Top-K 物品 ID 或者归类后的失败原因
func (r *Recommender) Recommend(ctx context.Context, req Request) Outcome {
	start := time.Now()
	rctx := &core.RecommendContext{UserID: req.UserID, Country: req.Country}

	out := r.run(ctx, rctx)

	elapsed := time.Since(start)
	metrics.StageDuration.WithLabelValues(StageTotal).Observe(elapsed.Seconds())
	metrics.RequestsTotal.WithLabelValues(out.Kind.String()).Inc()

	ev := logging.Ctx(ctx).Info()
	if out.Kind == KindBackendError || out.Kind == KindModelError {
		ev = logging.Ctx(ctx).Error().Err(out.Err)
	}
	for k, lbl := range rctx.Labels {
		ev = ev.Str(k, lbl.Value)
	}
	ev.Str("country", req.Country).
		Str("user_id", req.UserID).
		Str("outcome", out.Kind.String()).
		Int("items", len(out.Items)).
		Dur("latency", elapsed).
		Msg("recommendation served")
	return out
}

func (r *Recommender) run(ctx context.Context, rctx *core.RecommendContext) Outcome {
	var candidates recall.CandidateSet
	err := stage(ctx, StageRecall, func() (err error) {
		candidates, err = r.source.Recall(ctx, rctx)
		return err
	})
	if err != nil {
		return Failure(err)
	}
	if len(candidates) == 0 {
		return Success(nil)
	}

	var frame *feature.Frame
	err = stage(ctx, StageAssemble, func() (err error) {
		frame, err = r.assembler.Assemble(ctx, rctx, candidates)
		return err
	})
	if err != nil {
		return Failure(err)
	}
	if frame.Len() == 0 {
		return Failure(core.ErrDataIncomplete)
	}

	var result rank.Result
	err = stage(ctx, StageRank, func() (err error) {
		result, err = r.ranker.Rank(ctx, rctx, frame)
		return err
	})
	if err != nil {
		return Failure(err)
	}
	if len(result) == 0 {
		return Failure(core.ErrDataIncomplete)
	}
	return Success(result.IDs())
}

// stage 执行一个阶段并记录耗时
func stage(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	logging.Ctx(ctx).Debug().Str("stage", name).Dur("elapsed", elapsed).Bool("ok", err == nil).Msg("stage finished")
	return err
}
