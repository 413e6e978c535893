// Package rank 按模型资格选择模型、打分并截取 Top-K。
package rank

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rushteam/recoserve/core"
	"github.com/rushteam/recoserve/feature"
	"github.com/rushteam/recoserve/model"
	"github.com/rushteam/recoserve/pkg/conv"
	"github.com/rushteam/recoserve/pkg/logging"
	"github.com/rushteam/recoserve/pkg/metrics"
	"github.com/rushteam/recoserve/pkg/utils"
)

// DefaultTopK 默认返回条数
const DefaultTopK = 10

// Result 按分数降序排列的结果（同分保持输入顺序）
type Result []*core.Item

// IDs 返回物品 ID 列表
func (r Result) IDs() []string {
	ids := make([]string, len(r))
	for i, it := range r {
		ids[i] = it.ID
	}
	return ids
}

// Ranker 用打分帧的资格标签选择模型：FullModelEligible 用完整模型，ColdStart 用冷启动模型。
// 写入 labels：rank_model。
type Ranker struct {
	Full      model.RankModel
	ColdStart model.RankModel
	TopK      int
}

// NewRanker 创建排序器，topK <= 0 时使用 DefaultTopK
func NewRanker(full, coldStart model.RankModel, topK int) *Ranker {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Ranker{Full: full, ColdStart: coldStart, TopK: topK}
}

func (r *Ranker) Name() string { return "rank.model" }

// Select 返回资格对应的模型
func (r *Ranker) Select(e feature.Eligibility) model.RankModel {
	if e == feature.FullModelEligible {
		return r.Full
	}
	return r.ColdStart
}

// Rank 打分并返回 Top-K。任何特征转换或打分失败都返回 core.ErrModelFailure，不返回部分结果。
func (r *Ranker) Rank(ctx context.Context, rctx *core.RecommendContext, frame *feature.Frame) (Result, error) {
	log := logging.Ctx(ctx)
	m := r.Select(frame.Eligibility)
	if m == nil {
		return nil, modelError(fmt.Errorf("no model for %s", frame.Eligibility))
	}

	metrics.ModelSelected.WithLabelValues(frame.Eligibility.String()).Inc()
	rctx.PutLabel("rank_model", utils.Label{Value: m.Name(), Source: utils.SourceRank})

	if frame.Len() == 0 {
		return Result{}, nil
	}

	required := m.Features()
	rows := make([]*core.Item, 0, frame.Len())
	xs := make([][]float64, 0, frame.Len())
	for _, it := range frame.Rows {
		x, err := project(it, required)
		if errors.Is(err, errMissingFeature) {
			continue
		}
		if err != nil {
			log.Error().Err(err).Str("item_id", it.ID).Str("model", m.Name()).Msg("feature cast failed")
			return nil, modelError(err)
		}
		rows = append(rows, it)
		xs = append(xs, x)
	}
	if missing := frame.Len() - len(rows); missing > 0 {
		metrics.RowsDropped.WithLabelValues("missing_required").Add(float64(missing))
		log.Debug().Int("dropped", missing).Str("model", m.Name()).Msg("rows missing required features dropped")
	}

	scores, err := model.PredictAll(ctx, m, xs)
	if err != nil {
		log.Error().Err(err).Str("model", m.Name()).Int("rows", len(xs)).Msg("model prediction failed")
		return nil, modelError(err)
	}
	if len(scores) != len(rows) {
		return nil, modelError(fmt.Errorf("got %d scores for %d rows", len(scores), len(rows)))
	}

	out := make(Result, 0, len(rows))
	for i, it := range rows {
		s := scores[i]
		if math.IsNaN(s) || math.IsInf(s, 0) {
			metrics.RowsDropped.WithLabelValues("bad_score").Inc()
			continue
		}
		it.Score = s
		out = append(out, it)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return topN(out, r.TopK), nil
}

var errMissingFeature = errors.New("rank: missing required feature")

// project 按模型要求的特征顺序取值并转成 float64
func project(it *core.Item, required []string) ([]float64, error) {
	x := make([]float64, len(required))
	for i, name := range required {
		v, ok := it.Features[name]
		if !ok {
			return nil, errMissingFeature
		}
		f, err := conv.ParseFloat(v)
		if errors.Is(err, conv.ErrMissing) {
			return nil, errMissingFeature
		}
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", name, err)
		}
		x[i] = f
	}
	return x, nil
}

// topN 截取前 n 个，n <= 0 时不截断
func topN(items Result, n int) Result {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}

func modelError(err error) error {
	return core.WrapDomainError(core.ErrModelFailure, err)
}
