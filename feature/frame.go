// Package feature 负责特征组装：批量读取物品特征、广播用户特征、判定模型资格。
package feature

import "github.com/rushteam/recoserve/core"

// Bundle 是某个物品或用户的特征集合：特征名 → 标量（数值或字符串）。
// 读取后不再修改，每次请求重新读取。
type Bundle = map[string]any

// Eligibility 决定排序阶段使用哪个模型。
type Eligibility int

const (
	// ColdStart 使用冷启动模型
	ColdStart Eligibility = iota
	// FullModelEligible 使用完整模型
	FullModelEligible
)

func (e Eligibility) String() string {
	if e == FullModelEligible {
		return "full"
	}
	return "cold_start"
}

// Frame 是打分帧：每个候选一行（core.Item.Features 为物品特征 + 广播的用户特征）。
type Frame struct {
	Rows        []*core.Item
	Eligibility Eligibility

	// UserColumns 广播进每一行的用户特征名
	UserColumns []string
}

// Len 行数
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}
