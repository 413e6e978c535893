package core

import "github.com/rushteam/recoserve/pkg/utils"

// RecommendContext 承载一次请求的用户/场景信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID  string // 可为空（匿名用户）
	Country string // ISO-2 国家码

	// Labels 是请求级标签，记录链路决策（采样分支、模型选择等），用于 explain / 观测
	Labels map[string]utils.Label
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
