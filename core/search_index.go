package core

import "context"

// SearchIndex 是候选检索索引的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（search）实现
//   - 只暴露召回需要的只读查询：计数、按条件取 ID、用户排除列表
//
// 查询约定：
//   - 国家字段精确匹配，审核状态字段 keyword 等值过滤
//   - 按创建时间倒序
//   - 候选 ID 取文档 _id，而不是 _source 中的字段
//
// 实现：
//   - search.OpenSearchIndex（生产）
//   - search.BleveIndex（本地开发/测试，内嵌索引）
type SearchIndex interface {
	// Name 返回索引后端名称（用于日志/监控）
	Name() string

	// Count 统计满足过滤条件的物品数
	Count(ctx context.Context, q CandidateQuery) (int64, error)

	// SearchIDs 按创建时间倒序返回最多 q.Size 个物品 ID
	SearchIDs(ctx context.Context, q CandidateQuery) ([]string, error)

	// UserExclusions 返回用户主动屏蔽的物品 ID；用户不存在时返回空列表
	UserExclusions(ctx context.Context, userID string) ([]string, error)

	// Sample 返回任意 n 个物品 ID（调试用）
	Sample(ctx context.Context, n int) ([]string, error)

	// Ping 检查后端是否可用
	Ping(ctx context.Context) error

	// Close 关闭连接
	Close() error
}

// CandidateQuery 候选查询条件
type CandidateQuery struct {
	// Country ISO-2 国家码
	Country string

	// Status 审核状态，默认 ACCEPT
	Status string

	// Size 返回条数上限（Count 忽略）
	Size int
}

// 索引字段名
const (
	FieldCountry       = "production_country"
	FieldStatus        = "moderation_status"
	FieldCreationDate  = "creation_date"
	FieldUserID        = "user_id"
	FieldUserBlacklist = "user_blacklist"

	// StatusAccepted 审核通过状态
	StatusAccepted = "ACCEPT"
)
