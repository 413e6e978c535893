package config

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/recoserve/core"
	"github.com/rushteam/recoserve/feast"
	"github.com/rushteam/recoserve/feature"
	"github.com/rushteam/recoserve/model"
	"github.com/rushteam/recoserve/pipeline"
	"github.com/rushteam/recoserve/pkg/breaker"
	"github.com/rushteam/recoserve/pkg/dsl"
	"github.com/rushteam/recoserve/pkg/logging"
	"github.com/rushteam/recoserve/rank"
	"github.com/rushteam/recoserve/recall"
	"github.com/rushteam/recoserve/search"
	"github.com/rushteam/recoserve/store"
)

func init() {
	RegisterSearch("opensearch", buildOpenSearch)
	RegisterSearch("bleve", buildBleve)
	RegisterFeatures("redis", buildRedisFeatures)
	RegisterFeatures("feast", buildFeastFeatures)
	RegisterFeatures("memory", buildMemoryFeatures)
}

func buildOpenSearch(_ context.Context, cfg *Config, b *breaker.Breaker) (core.SearchIndex, error) {
	return search.NewOpenSearchIndex(cfg.Search.OpenSearch, b)
}

func buildBleve(_ context.Context, cfg *Config, _ *breaker.Breaker) (core.SearchIndex, error) {
	if cfg.Search.BlevePath == "" {
		return search.NewMemBleveIndex()
	}
	return search.OpenBleveIndex(cfg.Search.BlevePath)
}

func buildRedisFeatures(ctx context.Context, cfg *Config, b *breaker.Breaker) (core.FeatureService, error) {
	items, err := store.NewRedisStore(ctx, cfg.Features.Redis.Item, b)
	if err != nil {
		return nil, err
	}
	users, err := store.NewRedisStore(ctx, cfg.Features.Redis.User, b)
	if err != nil {
		_ = items.Close()
		return nil, err
	}
	return feature.NewStoreFeatureService(items, users, cfg.Features.Prefix), nil
}

func buildFeastFeatures(_ context.Context, cfg *Config, b *breaker.Breaker) (core.FeatureService, error) {
	fc := cfg.Features.Feast
	client, err := feast.NewClient(fc.Endpoint, fc.Project, feastOptions(fc)...)
	if err != nil {
		return nil, err
	}
	return feast.NewFeatureService(client, fc.Service, b), nil
}

func feastOptions(fc FeastConfig) []feast.ClientOption {
	var opts []feast.ClientOption
	if fc.Token != "" {
		opts = append(opts, feast.WithAuth(&feast.AuthConfig{Token: fc.Token}))
	}
	if fc.TLS {
		opts = append(opts, feast.WithTLS())
	}
	if fc.Timeout > 0 {
		opts = append(opts, feast.WithTimeout(fc.Timeout))
	}
	return opts
}

func buildMemoryFeatures(ctx context.Context, cfg *Config, _ *breaker.Breaker) (core.FeatureService, error) {
	path := cfg.Features.Memory.Fixture
	if path == "" {
		logging.Warn().Msg("memory feature backend has no fixture, every request will end as data_error")
		return feature.NewMemoryFeatureService(ctx, nil, cfg.Features.Prefix)
	}
	fx, err := feature.ReadFixture(path)
	if err != nil {
		return nil, err
	}
	logging.Info().Str("fixture", path).Int("items", len(fx.Items)).Int("users", len(fx.Users)).Msg("memory features loaded")
	return feature.NewMemoryFeatureService(ctx, fx, cfg.Features.Prefix)
}

// App 是按配置装配好的组件，由调用方负责 Close。
type App struct {
	Index       core.SearchIndex
	Features    core.FeatureService
	Models      *model.Pair
	Retriever   *recall.Retriever
	Recommender *pipeline.Recommender
}

// Build 构建检索索引、特征服务与模型（模型并发加载），并装配 Recommender。
func Build(ctx context.Context, cfg *Config) (*App, error) {
	if err := validateBackends(cfg); err != nil {
		return nil, err
	}
	searchBuild, _ := searchBuilder(cfg.Search.Backend)
	featureBuild, _ := featureBuilder(cfg.Features.Backend)

	app := &App{}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		idx, err := searchBuild(egCtx, cfg, breaker.New("search", cfg.Breaker))
		if err != nil {
			return fmt.Errorf("search backend %s: %w", cfg.Search.Backend, err)
		}
		app.Index = idx
		return nil
	})
	eg.Go(func() error {
		fs, err := featureBuild(egCtx, cfg, breaker.New("features", cfg.Breaker))
		if err != nil {
			return fmt.Errorf("feature backend %s: %w", cfg.Features.Backend, err)
		}
		app.Features = fs
		return nil
	})
	eg.Go(func() error {
		pair, err := model.LoadPair(egCtx, cfg.Models.Full, cfg.Models.ColdStart)
		if err != nil {
			return err
		}
		app.Models = pair
		return nil
	})
	if err := eg.Wait(); err != nil {
		_ = app.Close()
		return nil, err
	}

	eligibility, err := dsl.NewEligibility(cfg.Ranking.Eligibility)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	assembler, err := feature.NewAssembler(app.Features, eligibility)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.Retriever = recall.NewRetriever(app.Index, cfg.Retrieval)
	app.Recommender = pipeline.NewRecommender(
		app.Retriever,
		assembler,
		rank.NewRanker(app.Models.Full, app.Models.ColdStart, cfg.Ranking.TopK),
	)

	logging.Info().
		Str("search", app.Index.Name()).
		Str("features", app.Features.Name()).
		Str("full_model", app.Models.Full.Name()).
		Str("cold_start_model", app.Models.ColdStart.Name()).
		Str("eligibility", eligibility.String()).
		Msg("recommender assembled")
	return app, nil
}

// Close 释放检索索引与特征服务
func (a *App) Close() error {
	var errs []error
	if a.Index != nil {
		errs = append(errs, a.Index.Close())
	}
	if a.Features != nil {
		errs = append(errs, a.Features.Close())
	}
	return errors.Join(errs...)
}
