package feature

import (
	"context"
	"fmt"
	"sort"

	"github.com/rushteam/recoserve/core"
	"github.com/rushteam/recoserve/pkg/dsl"
	"github.com/rushteam/recoserve/pkg/logging"
	"github.com/rushteam/recoserve/pkg/metrics"
	"github.com/rushteam/recoserve/pkg/utils"
)

// Assembler 把候选集合组装成打分帧。
//
//   - 物品特征一次批量读取，未命中的候选直接丢弃
//   - 有用户特征时广播到每一行（同名列以用户值为准），并按资格表达式决定模型
//   - 匿名用户或用户特征为空时只用物品特征，走冷启动模型
type Assembler struct {
	features    core.FeatureService
	eligibility *dsl.Eligibility
}

// NewAssembler 创建组装器，eligibility 为 nil 时使用默认资格表达式。
func NewAssembler(features core.FeatureService, eligibility *dsl.Eligibility) (*Assembler, error) {
	if eligibility == nil {
		var err error
		eligibility, err = dsl.NewEligibility("")
		if err != nil {
			return nil, err
		}
	}
	return &Assembler{features: features, eligibility: eligibility}, nil
}

// Assemble 组装打分帧，返回的行数不超过候选数。
func (a *Assembler) Assemble(ctx context.Context, rctx *core.RecommendContext, candidates []string) (*Frame, error) {
	log := logging.Ctx(ctx)
	frame := &Frame{Eligibility: ColdStart}

	if len(candidates) > 0 {
		bundles, err := a.features.BatchGetItemFeatures(ctx, candidates)
		if err != nil {
			log.Error().Err(err).Int("candidates", len(candidates)).Msg("item feature lookup failed")
			return nil, backendError("item features", err)
		}
		if len(bundles) != len(candidates) {
			err := fmt.Errorf("got %d bundles for %d candidates", len(bundles), len(candidates))
			log.Error().Err(err).Msg("item feature lookup returned misaligned result")
			return nil, backendError("item features", err)
		}

		frame.Rows = make([]*core.Item, 0, len(candidates))
		for i, id := range candidates {
			if len(bundles[i]) == 0 {
				continue
			}
			it := core.NewItem(id)
			for k, v := range bundles[i] {
				it.Features[k] = v
			}
			frame.Rows = append(frame.Rows, it)
		}
		if missed := len(candidates) - len(frame.Rows); missed > 0 {
			metrics.RowsDropped.WithLabelValues("feature_miss").Add(float64(missed))
			log.Debug().Int("missed", missed).Int("candidates", len(candidates)).Msg("candidates without item features dropped")
		}
	}

	if rctx.UserID != "" {
		user, err := a.features.GetUserFeatures(ctx, rctx.UserID)
		if err != nil {
			log.Error().Err(err).Str("user_id", rctx.UserID).Msg("user feature lookup failed")
			return nil, backendError("user features", err)
		}
		if len(user) > 0 {
			broadcast(frame, user)
			full, err := a.eligibility.FullModel(user, rctx)
			if err != nil {
				log.Warn().Err(err).Str("expr", a.eligibility.String()).Msg("eligibility evaluation failed, using cold start")
			}
			if full {
				frame.Eligibility = FullModelEligible
			}
		}
	}

	rctx.PutLabel("model_eligibility", utils.Label{Value: frame.Eligibility.String(), Source: utils.SourceFeature})
	return frame, nil
}

// broadcast 把用户特征写入每一行，同名列以用户值为准
func broadcast(frame *Frame, user Bundle) {
	cols := make([]string, 0, len(user))
	for k := range user {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	frame.UserColumns = cols

	for _, it := range frame.Rows {
		for k, v := range user {
			it.Features[k] = v
		}
	}
}

func backendError(op string, err error) error {
	return core.WrapDomainError(core.ErrBackendUnavailable, fmt.Errorf("feature: %s: %w", op, err))
}
