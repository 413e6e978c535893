// Package feast 提供基于 Feast Online Serving 的特征服务，作为 Redis 特征存储的替代后端。
package feast

import (
	"context"
	"time"
)

// Client 是 Feast 在线特征的客户端接口。
//
// 推荐服务只读在线特征；离线特征与物化属于特征生产链路，不在此接口内。
type Client interface {
	// GetOnlineFeatures 获取在线特征，返回的 FeatureVectors 与 EntityRows 顺序一一对应。
	//
	//   - Features: 特征引用，例如 ["asset_stats:likes", "asset_stats:duration"]
	//   - EntityRows: 实体行，例如 [{"lomotif_id": "1001"}]
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Ping 检查 Feast Serving 是否可用
	Ping(ctx context.Context) error

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求
type GetOnlineFeaturesRequest struct {
	Features   []string
	EntityRows []map[string]any

	// Project 为空时使用客户端默认项目
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应
type GetOnlineFeaturesResponse struct {
	FeatureVectors []FeatureVector
}

// FeatureVector 一个实体行的特征值，缺失的特征不出现在 Values 中
type FeatureVector struct {
	Values    map[string]any
	EntityRow map[string]any
}

// ClientOption Feast 客户端配置选项
type ClientOption func(*ClientConfig)

// ClientConfig Feast 客户端配置
type ClientConfig struct {
	Endpoint string
	Project  string
	Timeout  time.Duration
	Auth     *AuthConfig
	TLS      bool
}

// AuthConfig 认证配置（static token）
type AuthConfig struct {
	Token string
}

// WithTimeout 设置单次请求超时
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithAuth 设置认证信息
func WithAuth(auth *AuthConfig) ClientOption {
	return func(c *ClientConfig) {
		c.Auth = auth
	}
}

// WithTLS 启用 TLS（仅在设置了认证时生效）
func WithTLS() ClientOption {
	return func(c *ClientConfig) {
		c.TLS = true
	}
}
