package model

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// 目标函数
const (
	ObjectiveLogistic = "binary:logistic"
	ObjectiveSquared  = "reg:squarederror"
)

// XGBoostModel 是 XGBoost 树模型的本地实现，读取 Booster.dump_model(..., dump_format="json") 的输出。
//
//	[{"nodeid": 0, "split": "likes", "split_condition": 3.5, "yes": 1, "no": 2, "missing": 1,
//	  "children": [{"nodeid": 1, "leaf": 0.12}, {"nodeid": 2, "leaf": -0.08}]}]
//
// 打分：margin = base_margin + sum(leaf)；binary:logistic 输出 sigmoid(margin)。
// 分裂规则：x < split_condition 走 yes；NaN 走 missing。
type XGBoostModel struct {
	name       string
	features   []string
	trees      []tree
	objective  string
	baseMargin float64
}

type tree []treeNode

type treeNode struct {
	leaf    bool
	value   float64 // 叶子值
	feature int
	cond    float64
	yes     int
	no      int
	missing int
}

type dumpNode struct {
	NodeID         int         `json:"nodeid"`
	Split          string      `json:"split"`
	SplitCondition float64     `json:"split_condition"`
	Yes            int         `json:"yes"`
	No             int         `json:"no"`
	Missing        int         `json:"missing"`
	Leaf           *float64    `json:"leaf"`
	Children       []*dumpNode `json:"children"`
}

// XGBoostOptions 模型参数
type XGBoostOptions struct {
	Objective string
	// BaseScore 概率空间的初始分，binary:logistic 默认 0.5
	BaseScore *float64
}

// LoadXGBoostModel 读取 JSON dump。features 为模型的输入特征顺序，
// 分裂特征既可以是特征名，也可以是 f<下标>。
func LoadXGBoostModel(name, path string, features []string, opts XGBoostOptions) (*XGBoostModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseXGBoostModel(name, data, features, opts)
}

// ParseXGBoostModel 从 JSON dump 内容构建模型
func ParseXGBoostModel(name string, data []byte, features []string, opts XGBoostOptions) (*XGBoostModel, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("model: xgboost %s: feature list is required", name)
	}

	var dump []*dumpNode
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("model: xgboost %s: decode dump: %w", name, err)
	}
	if len(dump) == 0 {
		return nil, fmt.Errorf("model: xgboost %s: empty dump", name)
	}

	index := make(map[string]int, len(features))
	for i, f := range features {
		index[f] = i
	}

	trees := make([]tree, 0, len(dump))
	for i, root := range dump {
		t, err := compileTree(root, index, len(features))
		if err != nil {
			return nil, fmt.Errorf("model: xgboost %s: tree %d: %w", name, i, err)
		}
		trees = append(trees, t)
	}

	objective := opts.Objective
	if objective == "" {
		objective = ObjectiveLogistic
	}
	base := 0.5
	if opts.BaseScore != nil {
		base = *opts.BaseScore
	}

	var baseMargin float64
	switch objective {
	case ObjectiveLogistic:
		if base <= 0 || base >= 1 {
			return nil, fmt.Errorf("model: xgboost %s: base_score %v out of (0,1)", name, base)
		}
		baseMargin = math.Log(base / (1 - base))
	default:
		baseMargin = base
	}

	return &XGBoostModel{
		name:       name,
		features:   features,
		trees:      trees,
		objective:  objective,
		baseMargin: baseMargin,
	}, nil
}

func compileTree(root *dumpNode, index map[string]int, nFeatures int) (tree, error) {
	var nodes []*dumpNode
	maxID := 0
	var walk func(n *dumpNode)
	walk = func(n *dumpNode) {
		if n == nil {
			return
		}
		nodes = append(nodes, n)
		if n.NodeID > maxID {
			maxID = n.NodeID
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)

	t := make(tree, maxID+1)
	seen := make([]bool, maxID+1)
	for _, n := range nodes {
		if n.NodeID < 0 {
			return nil, fmt.Errorf("negative node id %d", n.NodeID)
		}
		seen[n.NodeID] = true
		if n.Leaf != nil {
			t[n.NodeID] = treeNode{leaf: true, value: *n.Leaf}
			continue
		}
		f, err := featureIndex(n.Split, index, nFeatures)
		if err != nil {
			return nil, err
		}
		t[n.NodeID] = treeNode{
			feature: f,
			cond:    n.SplitCondition,
			yes:     n.Yes,
			no:      n.No,
			missing: n.Missing,
		}
	}

	for i, n := range t {
		if !seen[i] || n.leaf {
			continue
		}
		for _, c := range []int{n.yes, n.no, n.missing} {
			if c < 0 || c > maxID || !seen[c] {
				return nil, fmt.Errorf("node %d references unknown child %d", i, c)
			}
		}
	}
	if !seen[0] {
		return nil, fmt.Errorf("missing root node")
	}
	return t, nil
}

func featureIndex(split string, index map[string]int, nFeatures int) (int, error) {
	if i, ok := index[split]; ok {
		return i, nil
	}
	if strings.HasPrefix(split, "f") {
		if i, err := strconv.Atoi(split[1:]); err == nil && i >= 0 && i < nFeatures {
			return i, nil
		}
	}
	return 0, fmt.Errorf("split feature %q not in feature list", split)
}

func (m *XGBoostModel) Name() string { return m.name }

func (m *XGBoostModel) Features() []string { return m.features }

// NumTrees 树的数量
func (m *XGBoostModel) NumTrees() int { return len(m.trees) }

func (m *XGBoostModel) Predict(_ context.Context, x []float64) (float64, error) {
	if len(x) != len(m.features) {
		return 0, fmt.Errorf("model: xgboost %s: expected %d features, got %d", m.name, len(m.features), len(x))
	}
	margin := m.baseMargin
	for _, t := range m.trees {
		margin += t.eval(x)
	}
	if m.objective == ObjectiveLogistic {
		return sigmoid(margin), nil
	}
	return margin, nil
}

func (t tree) eval(x []float64) float64 {
	i := 0
	// 节点数是步数上界，防止环
	for steps := 0; steps <= len(t); steps++ {
		n := t[i]
		if n.leaf {
			return n.value
		}
		v := x[n.feature]
		switch {
		case math.IsNaN(v):
			i = n.missing
		case v < n.cond:
			i = n.yes
		default:
			i = n.no
		}
	}
	return math.NaN()
}
