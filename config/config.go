// Package config 加载服务配置，并按配置构建各个组件。
//
// 加载顺序（后者覆盖前者）：
//  1. 默认值
//  2. YAML 配置文件
//  3. 环境变量：前缀 RECO_，层级用双下划线分隔，例如 RECO_SEARCH__OPENSEARCH__INDEX
//
// 加载前会先读取工作目录下的 .env（不存在时忽略）。
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/recoserve/feast"
	"github.com/rushteam/recoserve/model"
	"github.com/rushteam/recoserve/pkg/breaker"
	"github.com/rushteam/recoserve/pkg/logging"
	"github.com/rushteam/recoserve/recall"
	"github.com/rushteam/recoserve/search"
	"github.com/rushteam/recoserve/store"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "RECO_"

// ConfigPathEnvVar 指定配置文件路径的环境变量
const ConfigPathEnvVar = "RECO_CONFIG"

// DefaultConfigPaths 按顺序查找的配置文件
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/recoserve/config.yaml",
}

// Config 服务配置
type Config struct {
	Server    ServerConfig          `koanf:"server"`
	Logging   logging.Config        `koanf:"logging"`
	Search    SearchConfig          `koanf:"search"`
	Features  FeaturesConfig        `koanf:"features"`
	Retrieval recall.SamplingPolicy `koanf:"retrieval"`
	Ranking   RankingConfig         `koanf:"ranking"`
	Models    ModelsConfig          `koanf:"models"`
	Breaker   breaker.Config        `koanf:"breaker"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Debug 开启 /debug/sample
	Debug bool `koanf:"debug"`
}

// SearchConfig 检索索引配置
type SearchConfig struct {
	// Backend opensearch | bleve
	Backend    string                  `koanf:"backend" validate:"required"`
	OpenSearch search.OpenSearchConfig `koanf:"opensearch"`

	// BlevePath 为空时使用内存索引
	BlevePath string `koanf:"bleve_path"`
}

// FeaturesConfig 特征存储配置
type FeaturesConfig struct {
	// Backend redis | feast | memory
	Backend string `koanf:"backend" validate:"required"`

	// Prefix 特征 key 前缀
	Prefix string `koanf:"prefix"`

	Redis  RedisPair    `koanf:"redis"`
	Feast  FeastConfig  `koanf:"feast"`
	Memory MemoryConfig `koanf:"memory"`
}

// MemoryConfig 内存特征后端，用于本地调试与测试
type MemoryConfig struct {
	// Fixture 启动时灌入的特征文件（YAML/JSON），为空时存储是空的，所有请求都会落到 DataError
	Fixture string `koanf:"fixture"`
}

// RedisPair 物品与用户特征分库存放
type RedisPair struct {
	Item store.RedisConfig `koanf:"item"`
	User store.RedisConfig `koanf:"user"`
}

// FeastConfig Feast Serving 配置
type FeastConfig struct {
	Endpoint string `koanf:"endpoint" validate:"required"`
	Project  string `koanf:"project" validate:"required"`
	Token    string `koanf:"token"`
	TLS      bool   `koanf:"tls"`

	// Timeout 单次 GetOnlineFeatures 超时，0 时使用客户端默认值
	Timeout time.Duration `koanf:"timeout"`

	Service feast.ServiceConfig `koanf:"service"`
}

// RankingConfig 排序配置
type RankingConfig struct {
	TopK int `koanf:"top_k" validate:"gte=0"`

	// Eligibility 完整模型资格的 CEL 表达式，变量 user 为用户特征
	Eligibility string `koanf:"eligibility"`
}

// ModelsConfig 两个排序模型
type ModelsConfig struct {
	Full      model.Spec `koanf:"full"`
	ColdStart model.Spec `koanf:"cold_start"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Logging: logging.Config{Level: "info", Format: "json"},
		Search: SearchConfig{
			Backend: "opensearch",
			OpenSearch: search.OpenSearchConfig{
				Index:   "lomotif_index",
				Service: "es",
				Timeout: 3 * time.Second,
			},
		},
		Features: FeaturesConfig{
			Backend: "redis",
			Prefix:  "recommendations_preprocessing",
			Redis: RedisPair{
				Item: store.RedisConfig{Addr: "localhost:6379", DB: 0, Timeout: time.Second},
				User: store.RedisConfig{Addr: "localhost:6379", DB: 1, Timeout: time.Second},
			},
		},
		Retrieval: recall.DefaultPolicy(),
		Ranking:   RankingConfig{TopK: 10},
		Models: ModelsConfig{
			Full:      model.Spec{Name: "full", Type: model.TypeXGBoost, Objective: model.ObjectiveLogistic},
			ColdStart: model.Spec{Name: "cold_start", Type: model.TypeXGBoost, Objective: model.ObjectiveLogistic},
		},
		Breaker: breaker.DefaultConfig(),
	}
}

// Load 加载配置。path 为空时依次查找 RECO_CONFIG 与 DefaultConfigPaths，都不存在则只用默认值与环境变量。
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey RECO_SEARCH__OPENSEARCH__INDEX → search.opensearch.index
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验配置，只校验所选后端的配置段
func (c *Config) Validate() error {
	if err := validateBackends(c); err != nil {
		return err
	}

	var except []string
	if c.Search.Backend != "opensearch" {
		except = append(except, "Search.OpenSearch")
	}
	if c.Features.Backend != "redis" {
		except = append(except, "Features.Redis")
	}
	if c.Features.Backend != "feast" {
		except = append(except, "Features.Feast")
	}

	if err := validate.StructExcept(c, except...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
