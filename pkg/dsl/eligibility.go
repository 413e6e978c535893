package dsl

import "github.com/rushteam/recoserve/core"

// DefaultEligibilityExpr 用户特征中存在观看量字段即可使用完整模型
const DefaultEligibilityExpr = `'user_vv' in user`

// Eligibility 判断用户是否可以使用完整模型（否则走冷启动模型）。
type Eligibility struct {
	expr *Expr
}

// NewEligibility 编译资格表达式，expr 为空时使用 DefaultEligibilityExpr。
func NewEligibility(expr string) (*Eligibility, error) {
	if expr == "" {
		expr = DefaultEligibilityExpr
	}
	e, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	return &Eligibility{expr: e}, nil
}

// FullModel 用户特征为空时直接返回 false。
func (e *Eligibility) FullModel(user map[string]any, rctx *core.RecommendContext) (bool, error) {
	if len(user) == 0 {
		return false, nil
	}
	return e.expr.Eval(user, nil, rctx)
}

// String 返回表达式源码
func (e *Eligibility) String() string { return e.expr.String() }
