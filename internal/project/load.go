package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bundlerig/bundlerig/pkg/rigerr"
)

// Load reads and decodes the configuration document at path. The format
// follows the file extension: .yaml and .yml decode as YAML, .json as
// JSON, and .jsonc as JSON with comments and trailing commas stripped.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, rigerr.NewOption("configPath", "no configuration file given")
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml", ".json", ".jsonc":
	default:
		return nil, rigerr.NewOption("configPath",
			"unsupported config extension %q, want .yaml, .yml, .json or .jsonc", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &rigerr.OptionError{
				Option:  "configPath",
				Message: fmt.Sprintf("config file %q does not exist", path),
				Err:     err,
			}
		}
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	var cfg Config
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".jsonc":
		// jsonc.ToJSON blanks comments in place, so error offsets still
		// line up with the source file.
		err = json.Unmarshal(jsonc.ToJSON(data), &cfg)
	}
	if err != nil {
		return nil, &rigerr.ConfigError{
			Message: fmt.Sprintf("parsing %s", filepath.Base(path)),
			Err:     err,
		}
	}

	return &cfg, nil
}
