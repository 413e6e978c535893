// Package metrics 定义推荐服务的 Prometheus 指标，统一通过 /metrics 暴露。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal 按结果统计请求数（success / no_inventory / backend_error / data_error / model_error）
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_requests_total",
			Help: "Recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	// StageDuration 各阶段耗时
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reco_stage_duration_seconds",
			Help:    "Duration of each pipeline stage",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"stage"},
	)

	// ModelSelected 模型选择次数（full / cold_start）
	ModelSelected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_model_selected_total",
			Help: "Ranking model selected per request",
		},
		[]string{"model"},
	)

	// Candidates 采样后的候选集大小
	Candidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reco_candidates",
			Help:    "Sampled candidate set size by sampling branch",
			Buckets: []float64{0, 10, 25, 50, 100, 200, 300},
		},
		[]string{"branch"},
	)

	// RowsDropped 被丢弃的行（feature_miss / missing_required / bad_score）
	RowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_rows_dropped_total",
			Help: "Candidate rows dropped before or after scoring",
		},
		[]string{"reason"},
	)

	// CircuitBreakerState 熔断器状态：0=closed, 1=half-open, 2=open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reco_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)
