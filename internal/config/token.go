package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// APIToken returns the bearer token protecting the management API.
// An explicit token from config or PIE_API_TOKEN wins; otherwise a
// random token is generated on first use and persisted in the data dir.
func APIToken(cfg Config) (string, error) {
	if cfg.Server.APIToken != "" {
		return cfg.Server.APIToken, nil
	}

	path := filepath.Join(cfg.Storage.DataDir, "api_token")
	if data, err := os.ReadFile(path); err == nil {
		if tok := strings.TrimSpace(string(data)); tok != "" {
			return tok, nil
		}
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating API token: %w", err)
	}
	tok := hex.EncodeToString(buf)

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o700); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(tok+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("writing API token: %w", err)
	}
	return tok, nil
}
