package config

import "fmt"

// Validate checks structural config invariants. Filesystem checks live with
// the commands that need them, so help and completion work anywhere.
func (c *Config) Validate() error {
	if c.Home == "" {
		return fmt.Errorf("home is required")
	}
	if len(c.Tools) == 0 {
		return fmt.Errorf("at least one tool must be configured")
	}
	seen := map[string]bool{}
	for _, tool := range c.Tools {
		if tool == "" {
			return fmt.Errorf("tool names must not be empty")
		}
		if seen[tool] {
			return fmt.Errorf("duplicate tool %q", tool)
		}
		seen[tool] = true
	}
	switch c.OutputFormat {
	case "", "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("invalid output format %q (auto|text|markdown|json)", c.OutputFormat)
	}
	return nil
}
