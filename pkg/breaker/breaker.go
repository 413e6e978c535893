// Package breaker 用 gobreaker 包装后端调用：后端持续失败时快速失败，不做自动重试。
package breaker

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/recoserve/pkg/logging"
	"github.com/rushteam/recoserve/pkg/metrics"
)

// Config 熔断配置
type Config struct {
	// MaxRequests 半开状态允许通过的请求数
	MaxRequests uint32 `koanf:"max_requests"`

	// Interval 关闭状态下计数清零的周期
	Interval time.Duration `koanf:"interval"`

	// Timeout 打开状态持续多久后进入半开
	Timeout time.Duration `koanf:"timeout"`

	// MinRequests 触发熔断判断的最少请求数
	MinRequests uint32 `koanf:"min_requests"`

	// FailureRatio 失败率阈值
	FailureRatio float64 `koanf:"failure_ratio" validate:"gte=0,lte=1"`
}

// DefaultConfig 默认熔断配置
func DefaultConfig() Config {
	return Config{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// Breaker 是一个具名熔断器。nil *Breaker 表示不熔断，直接调用。
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[any]
}

// New 创建熔断器
func New(name string, cfg Config) *Breaker {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
		// 调用方取消不算后端故障
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &Breaker{name: name, cb: cb}
}

// Name 返回熔断器名称
func (b *Breaker) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}

// State 返回当前状态
func (b *Breaker) State() gobreaker.State {
	if b == nil {
		return gobreaker.StateClosed
	}
	return b.cb.State()
}

// Do 在熔断保护下执行 fn。熔断打开时返回 ErrOpen。
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	if b == nil {
		return fn()
	}
	res, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, ErrOpen
		}
		if res == nil {
			return zero, err
		}
		v, _ := res.(T)
		return v, err
	}
	v, _ := res.(T)
	return v, nil
}

// ErrOpen 熔断打开，请求被拒绝
var ErrOpen = errors.New("breaker: circuit open")

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
