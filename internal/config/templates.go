package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Oracle feed configuration

[oracle]
# Model used by the oracle responders
model = "gpt-4o-mini"
# Number of independent responders queried per lookup
responders = 3
# Agreeing answers required to accept a price; 0 means strict majority
quorum = 0
# Relative tolerance (percent) for two answers to count as agreeing
tolerance_percent = 0.5
# Per-lookup timeout in seconds
timeout_sec = 60
# Retry attempts per responder
retry_attempts = 2

[feed]
# Default quote currency
default_currency = "usd"

[store]
# Alert database path; empty uses <config dir>/alerts.db
path = ""

[logging]
# Log level: debug, info, warn, error
level = "info"
console = true
file = true

# Additional registry entries; built-in coins cannot be removed.
# [[symbols]]
# ticker = "PEPE"
# source_id = "pepe"
`

const credentialsTemplate = `# Oracle feed credentials
# Keep this file private (chmod 600).

[openai]
api_key = ""
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	return nil
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	path := filepath.Join(configDir, "credentials.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return fmt.Errorf("writing credentials template: %w", err)
	}
	return nil
}
