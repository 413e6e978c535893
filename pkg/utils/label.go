package utils

// Label 是推荐链路中的一等公民：可解释、可追踪、可透传。
// 例如 recall_branch=large / rank_model=full，用于 explain 与观测。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / feature / rank
}

// Label 来源
const (
	SourceRecall  = "recall"
	SourceFeature = "feature"
	SourceRank    = "rank"
)

// MergeLabel 用于合并同名 Label，遵循"保留历史、可追踪"的默认策略。
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	case existing.Source == incoming.Source:
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
