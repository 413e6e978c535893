package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持 errors.Is / errors.As：按 Module + Code 匹配，Cause 可继续 Unwrap
//
// 使用场景：
//   - Recall 错误：NO_INVENTORY, UNHANDLED_POOL_SIZE
//   - Store / Search 错误：NOT_FOUND, UNAVAILABLE
//   - Feature 错误：DATA_INCOMPLETE
//   - Rank 错误：MODEL_FAILURE
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "NO_INVENTORY"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "recall", "rank"）
	Cause   error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is 让 errors.Is(err, core.ErrNoInventory) 这类判断对带 Cause 的副本同样生效。
// target 的 Module 为空时只比较 Code。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if t.Module != "" && t.Module != e.Module {
		return false
	}
	return t.Code == e.Code
}

// GetDomainError 获取错误链中的第一个 DomainError，如果没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 基于哨兵错误创建带底层原因的副本。
func WrapDomainError(sentinel *DomainError, cause error) *DomainError {
	return &DomainError{
		Module:  sentinel.Module,
		Code:    sentinel.Code,
		Message: sentinel.Message,
		Cause:   cause,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeUnavailable = "UNAVAILABLE" // 服务不可用

	// 推荐链路错误代码
	ErrorCodeNoInventory       = "NO_INVENTORY"        // 国家下没有可推荐的物品
	ErrorCodeUnhandledPoolSize = "UNHANDLED_POOL_SIZE" // 候选池大小没有命中任何采样分支
	ErrorCodeDataIncomplete    = "DATA_INCOMPLETE"     // 特征缺失导致没有可打分的行
	ErrorCodeModelFailure      = "MODEL_FAILURE"       // 模型转换/打分失败
)

// 模块名称常量
const (
	ModuleStore   = "store"   // 存储模块
	ModuleSearch  = "search"  // 检索索引模块
	ModuleFeature = "feature" // 特征模块
	ModuleRecall  = "recall"  // 召回模块
	ModuleRank    = "rank"    // 排序模块
)

// 推荐链路的哨兵错误，配合 errors.Is 使用。
var (
	// ErrNoInventory 国家下没有 ACCEPT 状态的物品，属于终态，不是瞬时错误
	ErrNoInventory = NewDomainError(ModuleRecall, ErrorCodeNoInventory, "recall: no inventory for country")

	// ErrUnhandledPoolSize 候选池大小没有落入任何采样分支（仅在非默认阈值下可达）
	ErrUnhandledPoolSize = NewDomainError(ModuleRecall, ErrorCodeUnhandledPoolSize, "recall: pool size not covered by sampling policy")

	// ErrBackendUnavailable 检索索引或特征存储不可用
	ErrBackendUnavailable = NewDomainError("", ErrorCodeUnavailable, "backend unavailable")

	// ErrDataIncomplete 所有候选都因特征缺失被丢弃
	ErrDataIncomplete = NewDomainError(ModuleFeature, ErrorCodeDataIncomplete, "feature: no complete rows")

	// ErrModelFailure 特征转换或模型打分失败
	ErrModelFailure = NewDomainError(ModuleRank, ErrorCodeModelFailure, "rank: model failure")
)

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	return hasCode(err, ErrorCodeUnavailable)
}

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// Unavailable 把底层后端错误包装成 UNAVAILABLE 领域错误。
func Unavailable(module, message string, cause error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    ErrorCodeUnavailable,
		Message: message,
		Cause:   cause,
	}
}
