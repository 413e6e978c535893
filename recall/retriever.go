package recall

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rushteam/recoserve/core"
	"github.com/rushteam/recoserve/filter"
	"github.com/rushteam/recoserve/pkg/logging"
	"github.com/rushteam/recoserve/pkg/metrics"
	"github.com/rushteam/recoserve/pkg/utils"
)

// Retriever 是候选召回源：统计国家下的可推荐物品数，按 SamplingPolicy 取数并采样。
// 只读共享，可并发使用。
type Retriever struct {
	index     core.SearchIndex
	policy    SamplingPolicy
	sampler   *Sampler
	exclusion *filter.ExclusionFilter
}

// Option Retriever 可选项
type Option func(*Retriever)

// WithSampler 指定采样器（测试时注入固定种子）
func WithSampler(s *Sampler) Option {
	return func(r *Retriever) { r.sampler = s }
}

// NewRetriever 创建召回器
func NewRetriever(index core.SearchIndex, policy SamplingPolicy, opts ...Option) *Retriever {
	r := &Retriever{
		index:   index,
		policy:  policy,
		sampler: NewSampler(nil),
	}
	if policy.ApplyExclusions {
		r.exclusion = filter.NewExclusionFilter(index)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retriever) Name() string { return "recall.retriever" }

// Retrieve 召回 country 下的候选集合
func (r *Retriever) Retrieve(ctx context.Context, country, userID string) (CandidateSet, error) {
	return r.Recall(ctx, &core.RecommendContext{UserID: userID, Country: country})
}

// Recall 实现 Source 接口
func (r *Retriever) Recall(ctx context.Context, rctx *core.RecommendContext) (CandidateSet, error) {
	log := logging.Ctx(ctx)
	q := core.CandidateQuery{Country: rctx.Country, Status: core.StatusAccepted}

	count, err := r.index.Count(ctx, q)
	if err != nil {
		log.Error().Err(err).Str("country", rctx.Country).Msg("candidate count failed")
		return nil, backendError("count", err)
	}

	p, err := r.policy.plan(count)
	if err != nil {
		if errors.Is(err, core.ErrNoInventory) {
			log.Info().Str("country", rctx.Country).Msg("no inventory for country")
		} else {
			log.Error().Err(err).Int64("count", count).Msg("pool size not covered by sampling policy")
		}
		return nil, err
	}

	q.Size = p.fetch
	pool, err := r.index.SearchIDs(ctx, q)
	if err != nil {
		log.Error().Err(err).Str("country", rctx.Country).Int("size", p.fetch).Msg("candidate search failed")
		return nil, backendError("search", err)
	}

	if r.exclusion != nil {
		pool, err = r.exclusion.Apply(ctx, rctx, pool)
		if err != nil {
			log.Error().Err(err).Str("user_id", rctx.UserID).Msg("user exclusion lookup failed")
			return nil, backendError("exclusions", err)
		}
	}

	if len(pool) < p.sample {
		log.Warn().
			Int64("count", count).
			Int("pool", len(pool)).
			Int("sample", p.sample).
			Msg("candidate pool smaller than sample size, capping")
	}

	out := CandidateSet(r.sampler.Sample(pool, p.sample))

	rctx.PutLabel("recall_branch", utils.Label{Value: p.branch, Source: utils.SourceRecall})
	rctx.PutLabel("recall_pool", utils.Label{Value: strconv.FormatInt(count, 10), Source: utils.SourceRecall})
	metrics.Candidates.WithLabelValues(p.branch).Observe(float64(len(out)))

	log.Debug().
		Str("branch", p.branch).
		Int64("count", count).
		Int("pool", len(pool)).
		Int("candidates", len(out)).
		Msg("candidates sampled")
	return out, nil
}

// Exclusions 返回用户主动屏蔽的物品 ID。用户不存在或没有屏蔽时返回空列表。
func (r *Retriever) Exclusions(ctx context.Context, userID string) ([]string, error) {
	ids, err := r.index.UserExclusions(ctx, userID)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("user exclusion lookup failed")
		return nil, backendError("exclusions", err)
	}
	if ids == nil {
		return []string{}, nil
	}
	return ids, nil
}

func backendError(op string, err error) error {
	return core.WrapDomainError(core.ErrBackendUnavailable, fmt.Errorf("recall: %s: %w", op, err))
}

var _ Source = (*Retriever)(nil)
