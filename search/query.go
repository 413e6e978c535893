// Package search 实现 core.SearchIndex：OpenSearch（生产）与 bleve（内嵌，本地开发/测试）。
package search

import (
	"github.com/rushteam/recoserve/core"
)

// candidateFilter 构建国家匹配 + 审核状态过滤的 bool 查询：
//
//	{"bool": {"must": [{"match": {"production_country": "US"}}],
//	          "filter": [{"term": {"moderation_status.keyword": "ACCEPT"}}]}}
func candidateFilter(q core.CandidateQuery) map[string]any {
	return map[string]any{
		"bool": map[string]any{
			"must": []any{
				map[string]any{"match": map[string]any{core.FieldCountry: q.Country}},
			},
			"filter": []any{
				map[string]any{"term": map[string]any{core.FieldStatus + ".keyword": statusOf(q)}},
			},
		},
	}
}

// countBody 计数请求体
func countBody(q core.CandidateQuery) map[string]any {
	return map[string]any{"query": candidateFilter(q)}
}

// searchBody 检索请求体：按创建时间倒序取 q.Size 条，不需要 _source（ID 取 _id）
func searchBody(q core.CandidateQuery) map[string]any {
	return map[string]any{
		"size":    q.Size,
		"_source": false,
		"query":   candidateFilter(q),
		"sort": map[string]any{
			core.FieldCreationDate: map[string]any{"order": "desc"},
		},
	}
}

// exclusionBody 用户屏蔽列表请求体
func exclusionBody(userID string) map[string]any {
	return map[string]any{
		"_source": map[string]any{"includes": []string{core.FieldUserBlacklist}},
		"query": map[string]any{
			"match_phrase": map[string]any{
				core.FieldUserID: map[string]any{"query": userID},
			},
		},
	}
}

// sampleBody 任意取 n 条
func sampleBody(n int) map[string]any {
	return map[string]any{
		"size":    n,
		"from":    0,
		"_source": false,
		"query":   map[string]any{"query_string": map[string]any{"query": "*"}},
	}
}

func statusOf(q core.CandidateQuery) string {
	if q.Status == "" {
		return core.StatusAccepted
	}
	return q.Status
}
