package recall

import (
	"fmt"
	"math"

	"github.com/rushteam/recoserve/core"
)

// 采样分支名（用于 Label 与监控）
const (
	BranchLarge = "large"
	BranchSmall = "small"
)

// SamplingPolicy 候选池采样策略。
//
// 分支按顺序判断：
//  1. count >= LargeThreshold：取最新 LargeFetch 条，采样 LargeSample 条
//  2. 0 < count < SmallUpper：取最新 count 条，采样 floor(SmallRatio * count) 条
//  3. 其余情况返回 core.ErrUnhandledPoolSize（默认阈值下不可达）
type SamplingPolicy struct {
	LargeThreshold int64   `koanf:"large_threshold" validate:"gt=0"`
	LargeFetch     int     `koanf:"large_fetch" validate:"gt=0"`
	LargeSample    int     `koanf:"large_sample" validate:"gt=0"`
	SmallUpper     int64   `koanf:"small_upper" validate:"gt=0"`
	SmallRatio     float64 `koanf:"small_ratio" validate:"gt=0,lte=1"`

	// ApplyExclusions 采样前移除用户屏蔽的物品
	ApplyExclusions bool `koanf:"apply_exclusions"`
}

// DefaultPolicy 默认采样策略
func DefaultPolicy() SamplingPolicy {
	return SamplingPolicy{
		LargeThreshold: 500,
		LargeFetch:     1000,
		LargeSample:    100,
		SmallUpper:     1000,
		SmallRatio:     0.3,
	}
}

// plan 是一次召回的取数与采样计划
type plan struct {
	branch string
	fetch  int
	sample int
}

func (p SamplingPolicy) plan(count int64) (plan, error) {
	switch {
	case count <= 0:
		return plan{}, core.ErrNoInventory
	case count >= p.LargeThreshold:
		return plan{branch: BranchLarge, fetch: p.LargeFetch, sample: p.LargeSample}, nil
	case count < p.SmallUpper:
		return plan{
			branch: BranchSmall,
			fetch:  int(count),
			sample: int(math.Floor(p.SmallRatio * float64(count))),
		}, nil
	default:
		return plan{}, core.WrapDomainError(core.ErrUnhandledPoolSize, fmt.Errorf("count=%d", count))
	}
}
