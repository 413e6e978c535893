package core

import "context"

// HashStore 是特征存储的领域接口，特征以扁平 Hash 形式存放。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 领域层只依赖读取契约，写入由离线任务完成
//
// 特征存储约定：
//   - 物品特征：<prefix>_asset:<item_id>
//   - 用户特征：<prefix>_user:<user_id>
//
// key 不存在时 HGetAll 返回空 map 而不是错误（与 Redis 语义一致）。
//
// 实现：store.RedisStore（生产）、store.MemoryStore（测试/本地）
type HashStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// HGetAll 读取整个 Hash
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// BatchHGetAll 在一次往返内读取多个 Hash，结果与 keys 顺序一一对应；
	// 不存在的 key 对应空 map。
	BatchHGetAll(ctx context.Context, keys []string) ([]map[string]string, error)

	// Ping 检查后端是否可用
	Ping(ctx context.Context) error

	// Close 关闭连接/释放资源
	Close() error
}
