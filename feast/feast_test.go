package feast

import (
	"context"
	"testing"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient 按实体 ID 返回预置特征
type stubClient struct {
	data  map[string]map[string]any
	calls int
}

func (c *stubClient) GetOnlineFeatures(_ context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error) {
	c.calls++
	out := make([]FeatureVector, len(req.EntityRows))
	for i, row := range req.EntityRows {
		values := map[string]any{}
		for _, v := range row {
			for ref, val := range c.data[v.(string)] {
				values[ref] = val
			}
		}
		out[i] = FeatureVector{Values: values, EntityRow: row}
	}
	return &GetOnlineFeaturesResponse{FeatureVectors: out}, nil
}

func (c *stubClient) Ping(context.Context) error { return nil }
func (c *stubClient) Close() error               { return nil }

func TestFeatureService_BatchGetItemFeatures(t *testing.T) {
	client := &stubClient{data: map[string]map[string]any{
		"1": {"asset_stats:likes": 3.0},
		"3": {"asset_stats:likes": 7.0, "asset_stats:duration": 12.0},
	}}
	svc := NewFeatureService(client, ServiceConfig{
		ItemFeatures: []string{"asset_stats:likes", "asset_stats:duration"},
	}, nil)

	got, err := svc.BatchGetItemFeatures(context.Background(), []string{"1", "2", "3"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, map[string]any{"likes": 3.0}, got[0])
	assert.Empty(t, got[1])
	assert.Equal(t, map[string]any{"likes": 7.0, "duration": 12.0}, got[2])
	assert.Equal(t, 1, client.calls)
}

func TestFeatureService_GetUserFeatures(t *testing.T) {
	client := &stubClient{data: map[string]map[string]any{
		"u1": {"user_stats:user_vv": 10.0},
	}}
	svc := NewFeatureService(client, ServiceConfig{UserFeatures: []string{"user_stats:user_vv"}}, nil)

	got, err := svc.GetUserFeatures(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"user_vv": 10.0}, got)
}

func TestSDKValueConversion(t *testing.T) {
	assert.Equal(t, "x", fromSDKValue(feastsdk.StrVal("x")))
	assert.Equal(t, 5.0, fromSDKValue(feastsdk.Int64Val(5)))
	assert.Equal(t, 1.0, fromSDKValue(feastsdk.BoolVal(true)))
	assert.Equal(t, 2.5, fromSDKValue(feastsdk.DoubleVal(2.5)))
	assert.Nil(t, fromSDKValue(nil))

	assert.Equal(t, 7.0, fromSDKValue(toSDKValue(7)))
}

func TestParseEndpoint(t *testing.T) {
	host, port := parseEndpoint("grpc://feast.internal:6566")
	assert.Equal(t, "feast.internal", host)
	assert.Equal(t, 6566, port)

	host, port = parseEndpoint("localhost")
	assert.Equal(t, "localhost", host)
	assert.Zero(t, port)
}
