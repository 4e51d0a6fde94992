package buildctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundlerig/bundlerig/pkg/bundler"
)

func TestNewContext(t *testing.T) {
	bc := New("/work", &Environment{Production: true})

	require.NotEmpty(t, bc.RunID)
	assert.Equal(t, "/work", bc.Workspace)
	assert.False(t, bc.StartedAt.IsZero())
	assert.Equal(t, bundler.ModeProduction, bc.Mode())
	assert.True(t, bc.MainBuild())

	other := New("/work", nil)
	require.NotNil(t, other.Env)
	assert.NotEqual(t, bc.RunID, other.RunID)
	assert.Equal(t, bundler.ModeDevelopment, other.Mode())
}

func TestContextSetters(t *testing.T) {
	bc := New("/work", nil)

	assert.False(t, bc.Progress())
	assert.False(t, bc.CleanOutputs())

	bc.SetProgress(true)
	bc.SetCleanOutputs(true)

	assert.True(t, bc.Progress())
	assert.True(t, bc.CleanOutputs())
}

func TestMainBuild(t *testing.T) {
	assert.True(t, New("/w", &Environment{Production: true}).MainBuild())
	assert.False(t, New("/w", &Environment{DllPass: true}).MainBuild())
	assert.False(t, New("/w", &Environment{TestPass: true}).MainBuild())
}
