package pipeline

import (
	"errors"

	"github.com/rushteam/recoserve/core"
)

// Kind 是一次推荐的结果类型
type Kind int

const (
	// KindSuccess 返回排好序的物品 ID（可能为空）
	KindSuccess Kind = iota
	// KindNoInventory 国家下没有可推荐的物品
	KindNoInventory
	// KindBackendError 检索索引或特征存储不可用
	KindBackendError
	// KindDataError 所有候选都因特征缺失被丢弃，属于降级而不是故障
	KindDataError
	// KindModelError 特征转换或模型打分失败
	KindModelError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindNoInventory:
		return "no_inventory"
	case KindBackendError:
		return "backend_error"
	case KindDataError:
		return "data_error"
	case KindModelError:
		return "model_error"
	default:
		return "unknown"
	}
}

// Outcome 是 Recommend 的返回值：成功时 Items 为 Top-K 物品 ID，失败时 Err 为原始错误。
type Outcome struct {
	Kind  Kind
	Items []string
	Err   error
}

// Success 成功结果
func Success(items []string) Outcome {
	if items == nil {
		items = []string{}
	}
	return Outcome{Kind: KindSuccess, Items: items}
}

// Failure 按错误类型归类；无法识别的错误视为后端错误。
func Failure(err error) Outcome {
	o := Outcome{Items: []string{}, Err: err}
	switch {
	case errors.Is(err, core.ErrNoInventory):
		o.Kind = KindNoInventory
	case errors.Is(err, core.ErrDataIncomplete):
		o.Kind = KindDataError
	case errors.Is(err, core.ErrModelFailure):
		o.Kind = KindModelError
	default:
		o.Kind = KindBackendError
	}
	return o
}

// OK 是否成功
func (o Outcome) OK() bool { return o.Kind == KindSuccess }
