package search

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recoserve/core"
)

func TestSearchBody(t *testing.T) {
	body := searchBody(core.CandidateQuery{Country: "US", Size: 1000})
	data, err := json.Marshal(body)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"size": 1000,
		"_source": false,
		"query": {"bool": {
			"must": [{"match": {"production_country": "US"}}],
			"filter": [{"term": {"moderation_status.keyword": "ACCEPT"}}]
		}},
		"sort": {"creation_date": {"order": "desc"}}
	}`, string(data))
}

func TestExclusionBody(t *testing.T) {
	data, err := json.Marshal(exclusionBody("u-1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"_source": {"includes": ["user_blacklist"]},
		"query": {"match_phrase": {"user_id": {"query": "u-1"}}}
	}`, string(data))
}
