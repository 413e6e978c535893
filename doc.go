// Package recoserve 是一个按国家召回、按用户特征排序的推荐服务。
//
// 设计要点：
// - 一次请求依次经过 Retrieve → Assemble → Rank，每个阶段的失败都归类为一种 Outcome
// - Labels-first: 召回分支、模型选择等决策写入 RecommendContext.Labels，便于 explain 与观测
// - 后端可替换：检索索引（OpenSearch / Bleve）与特征存储（Redis / Feast / 内存）按配置注册构建
package recoserve

import "github.com/rushteam/recoserve/pipeline"

// 轻量 facade：便于直接 import "recoserve" 使用核心抽象。
type Recommender = pipeline.Recommender
type Request = pipeline.Request
type Outcome = pipeline.Outcome
type Kind = pipeline.Kind

const (
	KindSuccess      = pipeline.KindSuccess
	KindNoInventory  = pipeline.KindNoInventory
	KindBackendError = pipeline.KindBackendError
	KindDataError    = pipeline.KindDataError
	KindModelError   = pipeline.KindModelError
)
