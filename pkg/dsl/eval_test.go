package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recoserve/core"
)

func TestEligibility_Default(t *testing.T) {
	e, err := NewEligibility("")
	require.NoError(t, err)
	assert.Equal(t, DefaultEligibilityExpr, e.String())

	ok, err := e.FullModel(map[string]any{"user_vv": "12", "age": "3"}, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.FullModel(map[string]any{"age": "3"}, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.FullModel(nil, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpr_Eval(t *testing.T) {
	e, err := Compile(`rctx.country == "US" && 'user_vv' in user`)
	require.NoError(t, err)

	ok, err := e.Eval(map[string]any{"user_vv": 1.0}, nil, &core.RecommendContext{Country: "US"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Eval(map[string]any{"user_vv": 1.0}, nil, &core.RecommendContext{Country: "SG"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile(`user.`)
	assert.Error(t, err)

	_, err = Compile(`1 + 2`)
	assert.Error(t, err)
}
