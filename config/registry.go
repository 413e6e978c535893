package config

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/recoserve/core"
	"github.com/rushteam/recoserve/pkg/breaker"
)

// SearchBuilder 根据配置构建检索索引
type SearchBuilder func(ctx context.Context, cfg *Config, b *breaker.Breaker) (core.SearchIndex, error)

// FeatureBuilder 根据配置构建特征服务
type FeatureBuilder func(ctx context.Context, cfg *Config, b *breaker.Breaker) (core.FeatureService, error)

var (
	registryMu      sync.RWMutex
	searchBuilders  = make(map[string]SearchBuilder)
	featureBuilders = make(map[string]FeatureBuilder)
)

// RegisterSearch 注册一种检索后端，内置 opensearch / bleve 在 factory.go 的 init 中注册。
func RegisterSearch(name string, builder SearchBuilder) {
	if name == "" || builder == nil {
		return
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	searchBuilders[name] = builder
}

// RegisterFeatures 注册一种特征后端，内置 redis / feast / memory。
func RegisterFeatures(name string, builder FeatureBuilder) {
	if name == "" || builder == nil {
		return
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	featureBuilders[name] = builder
}

// SupportedSearchBackends 已注册的检索后端（排序）
func SupportedSearchBackends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return sortedKeys(searchBuilders)
}

// SupportedFeatureBackends 已注册的特征后端（排序）
func SupportedFeatureBackends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return sortedKeys(featureBuilders)
}

func searchBuilder(name string) (SearchBuilder, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := searchBuilders[name]
	return b, ok
}

func featureBuilder(name string) (FeatureBuilder, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := featureBuilders[name]
	return b, ok
}

// validateBackends 校验所选后端均已注册；未注册时返回包含已支持列表的错误。
func validateBackends(cfg *Config) error {
	if _, ok := searchBuilder(cfg.Search.Backend); !ok {
		return fmt.Errorf("config: unsupported search backend %q (supported: %v)", cfg.Search.Backend, SupportedSearchBackends())
	}
	if _, ok := featureBuilder(cfg.Features.Backend); !ok {
		return fmt.Errorf("config: unsupported feature backend %q (supported: %v)", cfg.Features.Backend, SupportedFeatureBackends())
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
