package model

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// RPCModel 是通过 HTTP 调用外部模型服务的 RankModel 实现。
// 支持 GBDT、XGBoost、TensorFlow Serving、TorchServe 等。
type RPCModel struct {
	name     string
	features []string
	Endpoint string // 例如 "http://localhost:8080/predict"
	Client   *http.Client
}

func NewRPCModel(name, endpoint string, features []string, timeout time.Duration) *RPCModel {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &RPCModel{
		name:     name,
		features: features,
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (m *RPCModel) Name() string { return m.name }

func (m *RPCModel) Features() []string { return m.features }

// Predict 单行打分，内部调用批量接口
func (m *RPCModel) Predict(ctx context.Context, x []float64) (float64, error) {
	scores, err := m.PredictBatch(ctx, [][]float64{x})
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

// PredictBatch 调用远程模型服务进行批量预测。
// 请求格式（JSON）：
//
//	{"features_list": [{"ctr": 0.15, "cvr": 0.08, ...}, ...]}
//
// 响应格式（JSON）：
//
//	{"scores": [0.85, 0.72, ...]}
func (m *RPCModel) PredictBatch(ctx context.Context, xs [][]float64) ([]float64, error) {
	if len(xs) == 0 {
		return []float64{}, nil
	}

	featuresList := make([]map[string]float64, len(xs))
	for i, x := range xs {
		if len(x) != len(m.features) {
			return nil, fmt.Errorf("model: rpc %s: expected %d features, got %d", m.name, len(m.features), len(x))
		}
		row := make(map[string]float64, len(x))
		for j, v := range x {
			row[m.features[j]] = v
		}
		featuresList[i] = row
	}

	jsonData, err := json.Marshal(map[string]any{"features_list": featuresList})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("rpc error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var result struct {
		Scores []float64 `json:"scores"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(result.Scores) != len(xs) {
		return nil, fmt.Errorf("response scores count mismatch: expected %d, got %d", len(xs), len(result.Scores))
	}
	return result.Scores, nil
}

var _ BatchRankModel = (*RPCModel)(nil)
