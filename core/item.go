package core

// Item 是打分帧中的一行：特征与分数。
// 请求级的决策（采样分支、模型选择）记录在 RecommendContext.Labels 上，不逐行复制。
type Item struct {
	ID       string
	Score    float64
	Features map[string]any
}

func NewItem(id string) *Item {
	return &Item{
		ID:       id,
		Features: make(map[string]any),
	}
}
