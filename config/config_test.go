package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recoserve/feast"
)

const treeDump = `[{"nodeid": 0, "split": "likes", "split_condition": 3, "yes": 1, "no": 2, "missing": 1,
  "children": [{"nodeid": 1, "leaf": -0.2}, {"nodeid": 2, "leaf": 0.4}]}]`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "full.json"), []byte(treeDump), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cold.json"), []byte(treeDump), 0o644))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
search:
  backend: bleve
features:
  backend: memory
retrieval:
  large_sample: 80
models:
  full:
    path: `+filepath.Join(dir, "full.json")+`
    features: [likes, user_vv]
  cold_start:
    path: `+filepath.Join(dir, "cold.json")+`
    features: [likes]
`), 0o644))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "bleve", cfg.Search.Backend)
	assert.Equal(t, 80, cfg.Retrieval.LargeSample)
	assert.Equal(t, int64(500), cfg.Retrieval.LargeThreshold)
	assert.InDelta(t, 0.3, cfg.Retrieval.SmallRatio, 1e-9)
	assert.Equal(t, "recommendations_preprocessing", cfg.Features.Prefix)
	assert.Equal(t, []string{"likes", "user_vv"}, cfg.Models.Full.Features)
	assert.Equal(t, "full", cfg.Models.Full.Name)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RECO_SERVER__ADDR", ":7000")
	t.Setenv("RECO_RETRIEVAL__APPLY_EXCLUSIONS", "true")
	t.Setenv("RECO_RANKING__TOP_K", "5")

	cfg, err := Load(writeConfig(t))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.True(t, cfg.Retrieval.ApplyExclusions)
	assert.Equal(t, 5, cfg.Ranking.TopK)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Search.Backend = "solr"
	assert.ErrorContains(t, cfg.Validate(), "unsupported search backend")

	// opensearch 需要地址
	cfg = Default()
	cfg.Features.Backend = "memory"
	assert.Error(t, cfg.Validate())

	cfg.Search.OpenSearch.Addresses = []string{"https://search.example.com:443"}
	assert.NoError(t, cfg.Validate())

	cfg.Retrieval.SmallRatio = 1.5
	assert.Error(t, cfg.Validate())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "search.opensearch.index", envKey("RECO_SEARCH__OPENSEARCH__INDEX"))
	assert.Equal(t, "features.prefix", envKey("RECO_FEATURES__PREFIX"))
}

func TestBuild(t *testing.T) {
	cfg, err := Load(writeConfig(t))
	require.NoError(t, err)

	app, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, "bleve", app.Index.Name())
	assert.NotNil(t, app.Recommender)
	assert.Equal(t, []string{"likes"}, app.Models.ColdStart.Features())
	assert.Contains(t, SupportedFeatureBackends(), "feast")
}

func TestFeastOptions(t *testing.T) {
	apply := func(fc FeastConfig) *feast.ClientConfig {
		c := &feast.ClientConfig{}
		for _, opt := range feastOptions(fc) {
			opt(c)
		}
		return c
	}

	assert.Empty(t, feastOptions(FeastConfig{}))

	c := apply(FeastConfig{Token: "t", TLS: true, Timeout: 300 * time.Millisecond})
	assert.Equal(t, 300*time.Millisecond, c.Timeout)
	assert.True(t, c.TLS)
	require.NotNil(t, c.Auth)
	assert.Equal(t, "t", c.Auth.Token)
}

func TestLoad_FeastTimeoutFromEnv(t *testing.T) {
	t.Setenv("RECO_FEATURES__FEAST__TIMEOUT", "750ms")

	cfg, err := Load(writeConfig(t))
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.Features.Feast.Timeout)
}

func TestBuild_MemoryFixture(t *testing.T) {
	cfg, err := Load(writeConfig(t))
	require.NoError(t, err)

	fixture := filepath.Join(t.TempDir(), "features.yaml")
	require.NoError(t, os.WriteFile(fixture, []byte(`
items:
  "1001": {likes: 5}
users:
  u1: {user_vv: 2}
`), 0o644))
	cfg.Features.Memory.Fixture = fixture

	app, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	bundles, err := app.Features.BatchGetItemFeatures(context.Background(), []string{"1001"})
	require.NoError(t, err)
	assert.Equal(t, "5", bundles[0]["likes"])

	cfg.Features.Memory.Fixture = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = Build(context.Background(), cfg)
	assert.Error(t, err)
}
