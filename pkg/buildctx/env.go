// Package buildctx carries the per-invocation state of a pipeline run:
// the active environment flags and the build run context handed to every
// downstream component. Nothing in the pipeline reads ambient process
// state; whatever a component needs arrives through these values.
package buildctx

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bundlerig/bundlerig/pkg/rigerr"
)

// EnvVar is the process environment variable consulted when no
// Environment is supplied programmatically. Its value is a single
// JSON-encoded object.
const EnvVar = "BUNDLERIG_ENV"

// Predefined environment flag names. Any other key lands in Extra.
const (
	FlagProduction = "production"
	FlagDll        = "dll"
	FlagTest       = "test"
)

// FilterList decodes from either a single string (optionally
// comma-separated) or a list of strings.
type FilterList []string

func (f *FilterList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "\"") {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = splitNames(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*f = list
	return nil
}

func splitNames(s string) []string {
	parts := strings.Split(s, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}

// Options is the optional invocation hints sub-object of an environment.
// It is consulted only when the run is not driven by a wrapping CLI.
type Options struct {
	Clean  *bool      `json:"clean,omitempty"`
	Filter FilterList `json:"filter,omitempty"`
}

// Environment is the set of flags active for one invocation. Recognized
// keys decode into the named fields; everything else is kept verbatim in
// Extra so override sets can key on arbitrary user flags.
type Environment struct {
	Production bool
	DllPass    bool
	TestPass   bool
	Options    *Options
	Extra      map[string]any
}

// UnmarshalJSON accepts the JSON object carried by EnvVar. Unknown keys
// are collected rather than rejected.
func (e *Environment) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, val := range raw {
		switch key {
		case FlagProduction, FlagDll, FlagTest, "options":
		default:
			var v any
			if err := json.Unmarshal(val, &v); err != nil {
				return fmt.Errorf("decoding environment key %q: %w", key, err)
			}
			if e.Extra == nil {
				e.Extra = make(map[string]any)
			}
			e.Extra[key] = v
			continue
		}
		switch key {
		case FlagProduction:
			e.Production = truthyRaw(val)
		case FlagDll:
			e.DllPass = truthyRaw(val)
		case FlagTest:
			e.TestPass = truthyRaw(val)
		case "options":
			var o Options
			if err := json.Unmarshal(val, &o); err != nil {
				return fmt.Errorf("decoding environment options: %w", err)
			}
			e.Options = &o
		}
	}
	return nil
}

// MarshalJSON flattens Extra back alongside the named flags, so an
// Environment round-trips through its wire form.
func (e *Environment) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Extra)+4)
	for k, v := range e.Extra {
		out[k] = v
	}
	out[FlagProduction] = e.Production
	out[FlagDll] = e.DllPass
	out[FlagTest] = e.TestPass
	if e.Options != nil {
		out["options"] = e.Options
	}
	return json.Marshal(out)
}

// Flag reports whether the named environment flag is truthy. Predefined
// names read the typed fields; any other name is looked up in Extra.
func (e *Environment) Flag(name string) bool {
	switch name {
	case FlagProduction:
		return e.Production
	case FlagDll:
		return e.DllPass
	case FlagTest:
		return e.TestPass
	default:
		return Truthy(e.Extra[name])
	}
}

// Truthy evaluates an arbitrary decoded JSON value as a flag. Booleans
// and numbers behave as expected. Strings parse as booleans where
// possible ("false" and "0" are false) and otherwise count as set when
// non-empty. Present arrays and objects count as set.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return b
		}
		return t != ""
	default:
		return true
	}
}

// ParseEnvironment decodes a JSON environment object.
func ParseEnvironment(data []byte) (*Environment, error) {
	var env Environment
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &rigerr.OptionError{Option: EnvVar, Message: "malformed JSON environment", Err: err}
	}
	return &env, nil
}

// FromEnv reads the environment object from EnvVar. An unset or empty
// variable yields a default environment, not an error.
func FromEnv() (*Environment, error) {
	raw := strings.TrimSpace(os.Getenv(EnvVar))
	if raw == "" {
		return &Environment{}, nil
	}
	return ParseEnvironment([]byte(raw))
}

func truthyRaw(data json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return false
	}
	return Truthy(v)
}
