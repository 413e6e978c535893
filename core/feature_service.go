package core

import "context"

// FeatureService 是特征服务的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（feature / feast）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//
// 特征值是标量：数值或字符串（Redis Hash 读回来都是字符串），
// 转成数值是排序阶段的事。
//
// 实现：
//   - feature.StoreFeatureService（基于 core.HashStore，Redis / Memory）
//   - feast.FeatureService（基于 Feast Online Serving）
type FeatureService interface {
	// Name 返回特征服务名称（用于日志/监控）
	Name() string

	// GetUserFeatures 获取用户特征；用户不存在时返回空 map
	GetUserFeatures(ctx context.Context, userID string) (map[string]any, error)

	// BatchGetItemFeatures 在一次往返内获取物品特征，结果与 itemIDs 顺序一一对应；
	// 未命中的物品对应空 map。
	BatchGetItemFeatures(ctx context.Context, itemIDs []string) ([]map[string]any, error)

	// Ping 检查后端是否可用
	Ping(ctx context.Context) error

	// Close 关闭特征服务，释放资源
	Close() error
}
