// Package dsl 提供基于 CEL 的规则表达式，用于推荐链路中的决策（如模型选择）。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/recoserve/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("user", cel.MapType(cel.StringType, cel.DynType)),
			cel.Variable("item", cel.MapType(cel.StringType, cel.DynType)),
			cel.Variable("rctx", cel.MapType(cel.StringType, cel.DynType)),
		)
	})
	return celEnv, celEnvErr
}

// Expr 是编译后的布尔表达式，编译一次、并发求值。
//
// 可用变量：
//   - user：用户特征，例如 `'user_vv' in user` / `double(user.user_vv) > 10.0`
//   - item：物品特征
//   - rctx：请求上下文，字段 user_id / country
type Expr struct {
	src string
	prg cel.Program
}

// Compile 编译表达式，返回类型必须是 bool。
func Compile(expr string) (*Expr, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile %q: %w", expr, issues.Err())
	}
	switch ot := ast.OutputType().String(); ot {
	case "bool", "dyn":
	default:
		return nil, fmt.Errorf("dsl: expression %q must return bool, got %s", expr, ot)
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program %q: %w", expr, err)
	}
	return &Expr{src: expr, prg: prg}, nil
}

// String 返回表达式源码
func (e *Expr) String() string { return e.src }

// Eval 在给定输入上求值。nil 的 map 视为空 map。
func (e *Expr) Eval(user, item map[string]any, rctx *core.RecommendContext) (bool, error) {
	out, _, err := e.prg.Eval(map[string]any{
		"user": orEmpty(user),
		"item": orEmpty(item),
		"rctx": rctxInput(rctx),
	})
	if err != nil {
		return false, fmt.Errorf("dsl: eval %q: %w", e.src, err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression %q must return bool, got %T", e.src, out.Value())
	}
	return result, nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func rctxInput(rctx *core.RecommendContext) map[string]any {
	if rctx == nil {
		return map[string]any{}
	}
	return map[string]any{
		"user_id": rctx.UserID,
		"country": rctx.Country,
	}
}
