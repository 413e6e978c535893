// Package server 提供推荐服务的 HTTP 接口。
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rushteam/recoserve/pipeline"
)

// Recommender 是推荐链路
type Recommender interface {
	Recommend(ctx context.Context, req pipeline.Request) pipeline.Outcome
}

// Backend 是就绪检查的依赖（检索索引、特征服务）
type Backend interface {
	Name() string
	Ping(ctx context.Context) error
}

// Sampler 返回任意 n 个物品 ID，用于 /debug/sample
type Sampler interface {
	Sample(ctx context.Context, n int) ([]string, error)
}

// Options 服务选项
type Options struct {
	// RequestTimeout 单个推荐请求的超时，0 表示不限制
	RequestTimeout time.Duration

	// PingTimeout 就绪检查中每个后端的超时
	PingTimeout time.Duration

	// Debug 为 nil 时不注册 /debug/sample
	Debug Sampler
}

// Server 组合路由与依赖
type Server struct {
	rec      Recommender
	backends []Backend
	opts     Options
}

// New 创建 Server
func New(rec Recommender, backends []Backend, opts Options) *Server {
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 2 * time.Second
	}
	return &Server{rec: rec, backends: backends, opts: opts}
}

// Handler 返回完整路由
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(AccessLog())

	r.Get("/", s.Welcome)
	r.Get("/healthz", s.Healthz)
	r.Get("/readyz", s.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if s.opts.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(s.opts.RequestTimeout))
		}
		r.Post("/get_recommendations", s.GetRecommendations)
		r.Post("/get_recommendations/", s.GetRecommendations)
	})

	if s.opts.Debug != nil {
		r.Get("/debug/sample", s.DebugSample)
	}
	return r
}
