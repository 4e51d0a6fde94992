// Package digest computes stable identities for final configurations,
// used to detect configuration changes between watch rebuilds and to key
// build history records.
package digest

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/bundlerig/bundlerig/pkg/bundler"
)

// Config returns the hex-encoded BLAKE3 digest of the configuration's
// canonical JSON form. The encoding sorts object keys, so two configs
// with equal content digest identically regardless of how their maps
// were populated.
func Config(cfg *bundler.Config) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encoding config for digest: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Short truncates a digest to 12 characters for logs and labels.
func Short(digest string) string {
	if len(digest) <= 12 {
		return digest
	}
	return digest[:12]
}
