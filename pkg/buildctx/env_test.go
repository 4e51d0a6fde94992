package buildctx

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundlerig/bundlerig/pkg/rigerr"
)

func TestParseEnvironment(t *testing.T) {
	env, err := ParseEnvironment([]byte(`{
		"production": true,
		"dll": false,
		"test": 0,
		"legacy": "yes",
		"region": "eu-west-1",
		"options": {"clean": true, "filter": "admin,site"}
	}`))
	require.NoError(t, err)

	assert.True(t, env.Production)
	assert.False(t, env.DllPass)
	assert.False(t, env.TestPass)
	assert.Equal(t, "yes", env.Extra["legacy"])
	assert.Equal(t, "eu-west-1", env.Extra["region"])

	require.NotNil(t, env.Options)
	require.NotNil(t, env.Options.Clean)
	assert.True(t, *env.Options.Clean)
	assert.Equal(t, FilterList{"admin", "site"}, env.Options.Filter)
}

func TestParseEnvironmentMalformed(t *testing.T) {
	_, err := ParseEnvironment([]byte(`{production:`))
	require.Error(t, err)
	assert.True(t, rigerr.IsOption(err))
}

func TestFilterListForms(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want FilterList
	}{
		{"single string", `"admin"`, FilterList{"admin"}},
		{"comma string", `"admin, site"`, FilterList{"admin", "site"}},
		{"list", `["a","b"]`, FilterList{"a", "b"}},
		{"empty string", `""`, FilterList{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FilterList
			require.NoError(t, json.Unmarshal([]byte(tt.in), &f))
			assert.Equal(t, tt.want, f)
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvVar, `{"production": true, "ci": 1}`)

	env, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, env.Production)
	assert.True(t, env.Flag("ci"))
}

func TestFromEnvUnset(t *testing.T) {
	t.Setenv(EnvVar, "")

	env, err := FromEnv()
	require.NoError(t, err)
	assert.False(t, env.Production)
	assert.Nil(t, env.Options)
}

func TestFlag(t *testing.T) {
	env := &Environment{
		Production: true,
		Extra: map[string]any{
			"ci":      true,
			"workers": float64(4),
			"off":     "false",
			"name":    "staging",
		},
	}

	tests := []struct {
		flag string
		want bool
	}{
		{"production", true},
		{"dll", false},
		{"test", false},
		{"ci", true},
		{"workers", true},
		{"off", false},
		{"name", true},
		{"missing", false},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			assert.Equal(t, tt.want, env.Flag(tt.flag))
		})
	}
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(false))
	assert.False(t, Truthy(float64(0)))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy("0"))
	assert.False(t, Truthy("false"))
	assert.True(t, Truthy(true))
	assert.True(t, Truthy(float64(2)))
	assert.True(t, Truthy("anything"))
	assert.True(t, Truthy([]any{}))
	assert.True(t, Truthy(map[string]any{}))
}

func TestEnvironmentRoundTrip(t *testing.T) {
	in := &Environment{
		Production: true,
		Extra:      map[string]any{"region": "us-east-1"},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	out, err := ParseEnvironment(data)
	require.NoError(t, err)
	assert.Equal(t, in.Production, out.Production)
	assert.Equal(t, in.Extra["region"], out.Extra["region"])
}
