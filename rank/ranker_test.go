package rank

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recoserve/core"
	"github.com/rushteam/recoserve/feature"
)

// recordingModel 返回 score 特征的值，并记录被调用的次数
type recordingModel struct {
	name     string
	features []string
	calls    int
	err      error
}

func (m *recordingModel) Name() string       { return m.name }
func (m *recordingModel) Features() []string { return m.features }

func (m *recordingModel) Predict(_ context.Context, x []float64) (float64, error) {
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	return x[0], nil
}

func row(id string, features map[string]any) *core.Item {
	it := core.NewItem(id)
	for k, v := range features {
		it.Features[k] = v
	}
	return it
}

func newRanker() (*Ranker, *recordingModel, *recordingModel) {
	full := &recordingModel{name: "full", features: []string{"score", "user_vv"}}
	cold := &recordingModel{name: "cold_start", features: []string{"score"}}
	return NewRanker(full, cold, 0), full, cold
}

func TestRanker_OrdersByScore(t *testing.T) {
	r, _, _ := newRanker()
	frame := &feature.Frame{Rows: []*core.Item{
		row("A", map[string]any{"score": "0.9"}),
		row("B", map[string]any{"score": 0.5}),
		row("C", map[string]any{"score": "0.7"}),
	}}

	got, err := r.Rank(context.Background(), &core.RecommendContext{}, frame)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C", "B"}, got.IDs())

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestRanker_StableTies(t *testing.T) {
	r, _, _ := newRanker()
	frame := &feature.Frame{Rows: []*core.Item{
		row("x", map[string]any{"score": "0.5"}),
		row("y", map[string]any{"score": "0.8"}),
		row("z", map[string]any{"score": "0.5"}),
		row("w", map[string]any{"score": "0.5"}),
	}}

	got, err := r.Rank(context.Background(), &core.RecommendContext{}, frame)
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x", "z", "w"}, got.IDs())
}

func TestRanker_SelectsModelByEligibility(t *testing.T) {
	r, full, cold := newRanker()
	rows := func() []*core.Item {
		return []*core.Item{row("a", map[string]any{"score": "1", "user_vv": "3"})}
	}

	rctx := &core.RecommendContext{}
	_, err := r.Rank(context.Background(), rctx, &feature.Frame{Rows: rows(), Eligibility: feature.FullModelEligible})
	require.NoError(t, err)
	assert.Equal(t, 1, full.calls)
	assert.Equal(t, 0, cold.calls)
	lbl, _ := rctx.GetLabel("rank_model")
	assert.Equal(t, "full", lbl.Value)

	_, err = r.Rank(context.Background(), &core.RecommendContext{}, &feature.Frame{Rows: rows(), Eligibility: feature.ColdStart})
	require.NoError(t, err)
	assert.Equal(t, 1, full.calls)
	assert.Equal(t, 1, cold.calls)
}

func TestRanker_TopK(t *testing.T) {
	for _, n := range []int{0, 3, 10, 25} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			r, _, _ := newRanker()
			frame := &feature.Frame{}
			for i := 0; i < n; i++ {
				frame.Rows = append(frame.Rows, row(fmt.Sprint(i), map[string]any{"score": float64(i)}))
			}
			got, err := r.Rank(context.Background(), &core.RecommendContext{}, frame)
			require.NoError(t, err)
			assert.Len(t, got, min(10, n))
		})
	}
}

func TestRanker_DropsIncompleteRows(t *testing.T) {
	r, full, _ := newRanker()
	frame := &feature.Frame{
		Eligibility: feature.FullModelEligible,
		Rows: []*core.Item{
			row("a", map[string]any{"score": "0.1", "user_vv": "1"}),
			row("b", map[string]any{"score": "0.2"}),
			row("c", map[string]any{"score": "", "user_vv": "1"}),
		},
	}
	got, err := r.Rank(context.Background(), &core.RecommendContext{}, frame)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.IDs())
	assert.Equal(t, 1, full.calls)
}

func TestRanker_NonNumericIsModelFailure(t *testing.T) {
	r, _, _ := newRanker()
	frame := &feature.Frame{Rows: []*core.Item{
		row("a", map[string]any{"score": "0.3"}),
		row("b", map[string]any{"score": "high"}),
	}}
	got, err := r.Rank(context.Background(), &core.RecommendContext{}, frame)
	assert.ErrorIs(t, err, core.ErrModelFailure)
	assert.Nil(t, got)
}

func TestRanker_PredictError(t *testing.T) {
	r, _, cold := newRanker()
	cold.err = errors.New("boom")
	frame := &feature.Frame{Rows: []*core.Item{row("a", map[string]any{"score": "0.3"})}}

	_, err := r.Rank(context.Background(), &core.RecommendContext{}, frame)
	assert.ErrorIs(t, err, core.ErrModelFailure)
}

func TestRanker_DropsNaNScores(t *testing.T) {
	r, _, _ := newRanker()
	frame := &feature.Frame{Rows: []*core.Item{
		row("a", map[string]any{"score": math.NaN()}),
		row("b", map[string]any{"score": math.Inf(1)}),
		row("c", map[string]any{"score": 0.4}),
	}}
	got, err := r.Rank(context.Background(), &core.RecommendContext{}, frame)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, got.IDs())
}
