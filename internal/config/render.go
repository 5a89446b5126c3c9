package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// RedactedValue replaces secrets in rendered output.
const RedactedValue = "REDACTED"

// Redacted returns a copy of c with secrets replaced.
func (c Config) Redacted() Config {
	if c.Remote.Password != "" {
		c.Remote.Password = RedactedValue
	}
	return c
}

// YAML renders c. Secrets are replaced unless reveal is set.
func (c Config) YAML(reveal bool) ([]byte, error) {
	if !reveal {
		c = c.Redacted()
	}
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	return out, nil
}
