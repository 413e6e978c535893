// Package conv 提供特征值类型转换工具：特征存储读回的值可能是数值也可能是字符串。
package conv

import (
	"fmt"
	"strconv"
	"strings"
)

// ToFloat64 将 any 转为 float64。
// 支持 float64、float32、int、int64、int32、数值字符串；bool 视为 1.0/0.0。
func ToFloat64(v any) (float64, bool) {
	f, err := ParseFloat(v)
	return f, err == nil
}

// ParseFloat 与 ToFloat64 相同，但返回具体的转换错误，用于区分"缺失"与"非数值"。
// nil 与空字符串返回 ErrMissing。
func ParseFloat(v any) (float64, error) {
	if v == nil {
		return 0, ErrMissing
	}
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case bool:
		if val {
			return 1.0, nil
		}
		return 0.0, nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, ErrMissing
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("conv: %q is not numeric", val)
		}
		return f, nil
	case []byte:
		return ParseFloat(string(val))
	default:
		return 0, fmt.Errorf("conv: unsupported type %T", v)
	}
}

// ErrMissing 表示特征值缺失。
var ErrMissing = fmt.Errorf("conv: missing value")

// ToString 将 any 转为 string。
// string 原样返回，数值按最短格式输出，其他类型返回 ("", false)。
func ToString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case []byte:
		return string(val), true
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	default:
		return "", false
	}
}

// StringMapToAny 将 map[string]string（Redis Hash）转为 map[string]any。
func StringMapToAny(m map[string]string) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SliceAnyToString 将 []any（即 []interface{}）转为 []string。
// 元素为 string 直接保留，为数字时格式化为 "%.0f"。
func SliceAnyToString(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
			continue
		}
		if f, ok := ToFloat64(e); ok {
			out = append(out, fmt.Sprintf("%.0f", f))
		}
	}
	return out
}
