package config

import (
	"fmt"
)

// knownTargetTypes lists the database backends partnerlens ships adapters for.
var knownTargetTypes = map[string]bool{
	"postgres": true,
	"duckdb":   true,
}

// ValidateTarget checks that a target configuration is usable.
func ValidateTarget(t *TargetConfig) error {
	if t == nil {
		return fmt.Errorf("target is not configured")
	}

	if !knownTargetTypes[t.Type] {
		return fmt.Errorf("unsupported target type %q (supported: duckdb, postgres)", t.Type)
	}

	switch t.Type {
	case "postgres":
		if t.Database == "" {
			return fmt.Errorf("postgres target requires a database name")
		}
		if t.Port < 0 || t.Port > 65535 {
			return fmt.Errorf("postgres target port %d out of range", t.Port)
		}
	case "duckdb":
		// Empty path means in-memory, which is valid.
	}

	return nil
}
