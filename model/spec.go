package model

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/recoserve/core"
)

// 模型类型
const (
	TypeXGBoost = "xgboost"
	TypeLR      = "lr"
	TypeRPC     = "rpc"
)

// Spec 描述一个模型：类型、模型文件、输入特征顺序。
// 可以直接写在服务配置里，也可以放在单独的 YAML manifest 中（Manifest 字段）。
type Spec struct {
	Name      string        `koanf:"name" yaml:"name"`
	Type      string        `koanf:"type" yaml:"type" validate:"omitempty,oneof=xgboost lr rpc"`
	Path      string        `koanf:"path" yaml:"path"`
	Features  []string      `koanf:"features" yaml:"features"`
	Objective string        `koanf:"objective" yaml:"objective"`
	BaseScore *float64      `koanf:"base_score" yaml:"base_score"`
	Endpoint  string        `koanf:"endpoint" yaml:"endpoint"`
	Timeout   time.Duration `koanf:"timeout" yaml:"timeout"`

	// Manifest YAML 文件路径，设置后以文件内容为准，Path 相对 manifest 所在目录
	Manifest string `koanf:"manifest" yaml:"-"`
}

// ReadManifest 读取 YAML manifest
//
//	name: full
//	type: xgboost
//	path: full_model.json
//	objective: binary:logistic
//	features: [user_vv, likes, duration]
func ReadManifest(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, err
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return Spec{}, fmt.Errorf("model: decode manifest %s: %w", path, err)
	}
	if spec.Path != "" && !filepath.IsAbs(spec.Path) {
		spec.Path = filepath.Join(filepath.Dir(path), spec.Path)
	}
	return spec, nil
}

// Load 按 Spec 加载模型
func Load(spec Spec) (RankModel, error) {
	if spec.Manifest != "" {
		m, err := ReadManifest(spec.Manifest)
		if err != nil {
			return nil, wrapLoad(spec.Name, err)
		}
		if m.Name == "" {
			m.Name = spec.Name
		}
		spec = m
	}

	var (
		m   RankModel
		err error
	)
	switch spec.Type {
	case TypeXGBoost, "":
		m, err = LoadXGBoostModel(spec.Name, spec.Path, spec.Features, XGBoostOptions{
			Objective: spec.Objective,
			BaseScore: spec.BaseScore,
		})
	case TypeLR:
		m, err = LoadLRModel(spec.Name, spec.Path, spec.Features)
	case TypeRPC:
		if spec.Endpoint == "" || len(spec.Features) == 0 {
			err = fmt.Errorf("rpc model requires endpoint and features")
		} else {
			m = NewRPCModel(spec.Name, spec.Endpoint, spec.Features, spec.Timeout)
		}
	default:
		err = fmt.Errorf("unknown model type %q", spec.Type)
	}
	if err != nil {
		return nil, wrapLoad(spec.Name, err)
	}
	return m, nil
}

// Pair 完整模型与冷启动模型
type Pair struct {
	Full      RankModel
	ColdStart RankModel
}

// LoadPair 并发加载两个模型，任一失败即返回错误
func LoadPair(ctx context.Context, full, coldStart Spec) (*Pair, error) {
	if full.Name == "" {
		full.Name = "full"
	}
	if coldStart.Name == "" {
		coldStart.Name = "cold_start"
	}

	var pair Pair
	eg, _ := errgroup.WithContext(ctx)
	eg.Go(func() error {
		m, err := Load(full)
		pair.Full = m
		return err
	})
	eg.Go(func() error {
		m, err := Load(coldStart)
		pair.ColdStart = m
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &pair, nil
}

func wrapLoad(name string, err error) error {
	return core.WrapDomainError(core.ErrModelFailure, fmt.Errorf("model: load %s: %w", name, err))
}
