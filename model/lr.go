package model

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/goccy/go-json"
)

// LRModel 实现了逻辑回归 (Logistic Regression) 模型。
//
// 预测原理：
// 1. 线性加权求和: z = Bias + sum(Weight_i * Feature_i)
// 2. Sigmoid 变换: P = 1 / (1 + exp(-z))
type LRModel struct {
	name     string
	Bias     float64
	weights  []float64
	features []string
}

// NewLRModel 按 features 顺序排列权重；features 为空时使用权重名的字典序。
func NewLRModel(name string, bias float64, weights map[string]float64, features []string) (*LRModel, error) {
	if len(features) == 0 {
		for k := range weights {
			features = append(features, k)
		}
		sort.Strings(features)
	}
	w := make([]float64, len(features))
	for i, f := range features {
		v, ok := weights[f]
		if !ok {
			return nil, fmt.Errorf("model: lr %s: no weight for feature %q", name, f)
		}
		w[i] = v
	}
	return &LRModel{name: name, Bias: bias, weights: w, features: features}, nil
}

// LoadLRModel 读取 {"bias": 0.1, "weights": {"ctr": 1.2}} 格式的模型文件
func LoadLRModel(name, path string, features []string) (*LRModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Bias    float64            `json:"bias"`
		Weights map[string]float64 `json:"weights"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("model: decode lr %s: %w", path, err)
	}
	return NewLRModel(name, raw.Bias, raw.Weights, features)
}

func (m *LRModel) Name() string { return m.name }

func (m *LRModel) Features() []string { return m.features }

func (m *LRModel) Predict(_ context.Context, x []float64) (float64, error) {
	if len(x) != len(m.weights) {
		return 0, fmt.Errorf("model: lr %s: expected %d features, got %d", m.name, len(m.weights), len(x))
	}
	score := m.Bias
	for i, v := range x {
		score += m.weights[i] * v
	}
	return sigmoid(score), nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
