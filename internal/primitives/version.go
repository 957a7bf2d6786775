package primitives

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// ConfigVersion returns a deterministic short version for cfg: the first
// eight bytes of SHA256 over its JSON form. Equal configs share a version.
func ConfigVersion(cfg Config) string {
	data, err := json.Marshal(cfg)
	if err != nil {
		// Config is plain data; Marshal does not fail on it.
		return "invalid"
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash[:8])
}
