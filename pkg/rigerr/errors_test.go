package rigerr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionError(t *testing.T) {
	err := NewOption("configPath", "file %q does not exist", "/tmp/nope.yaml")

	assert.True(t, IsOption(err))
	assert.False(t, IsConfig(err))
	assert.Contains(t, err.Error(), `invalid option "configPath"`)
	assert.Contains(t, err.Error(), "/tmp/nope.yaml")
}

func TestOptionErrorWrapped(t *testing.T) {
	inner := NewOption("configPath", "unreadable")
	err := fmt.Errorf("loading configuration: %w", inner)

	assert.True(t, IsOption(err))

	var opt *OptionError
	require.True(t, errors.As(err, &opt))
	assert.Equal(t, "configPath", opt.Option)
}

func TestConfigErrorWithViolations(t *testing.T) {
	err := NewSchema([]Violation{
		{Path: "apps[0].name", Message: "is required"},
		{Path: "libs[1].target", Message: `unknown target "dom"`},
	})

	assert.True(t, IsConfig(err))
	assert.Len(t, err.Violations, 2)
	assert.Contains(t, err.Error(), "2 violation(s)")
	assert.Contains(t, err.Error(), "apps[0].name: is required")
	assert.Contains(t, err.Error(), "libs[1].target")
}

func TestAsConfig(t *testing.T) {
	wrapped := fmt.Errorf("resolving projects: %w", NewConfig("no projects selected"))

	cfg, ok := AsConfig(wrapped)
	require.True(t, ok)
	assert.Equal(t, "no projects selected", cfg.Message)
	assert.Empty(t, cfg.Violations)

	_, ok = AsConfig(errors.New("plain"))
	assert.False(t, ok)
}

func TestInternalError(t *testing.T) {
	err := NewInternal("resolved config for %q missing output path", "admin")

	assert.True(t, IsInternal(err))
	assert.False(t, IsOption(err))
	assert.Contains(t, err.Error(), "internal: ")
}

func TestIOErrorsPassThrough(t *testing.T) {
	// Filesystem failures stay matchable through our wrapping.
	io := fmt.Errorf("reading config: %w", fs.ErrNotExist)

	assert.True(t, errors.Is(io, fs.ErrNotExist))
	assert.False(t, IsOption(io))
	assert.False(t, IsConfig(io))
	assert.False(t, IsInternal(io))
}

func TestViolationString(t *testing.T) {
	tests := []struct {
		name string
		v    Violation
		want string
	}{
		{"with path", Violation{Path: "apps[2].outDir", Message: "must be a string"}, "apps[2].outDir: must be a string"},
		{"without path", Violation{Message: "document is empty"}, "document is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.String())
		})
	}
}
