// file: internal/schema/name_rules.go

package schema

import (
	"regexp"

	"github.com/cockroachdb/errors"
)

// EntityType represents a type of MCP entity that needs name validation.
type EntityType string

const (
	// EntityTypeTool represents a tool entity in MCP.
	EntityTypeTool EntityType = "tool"

	// EntityTypeResource represents a resource entity in MCP, identified by URI.
	EntityTypeResource EntityType = "resource"
)

// NameRule defines validation rules for an entity name.
type NameRule struct {
	// Pattern is the regex pattern the name must match.
	Pattern *regexp.Regexp

	// Description is a human-readable description of the pattern.
	Description string

	// MaxLength is the maximum allowed length of the name.
	MaxLength int
}

var nameRules = map[EntityType]NameRule{
	EntityTypeTool: {
		Pattern:     regexp.MustCompile(`^[a-z][a-z0-9_]*$`),
		Description: "Must start with a lowercase letter, followed by lowercase letters, digits or underscores",
		MaxLength:   64,
	},
	EntityTypeResource: {
		Pattern:     regexp.MustCompile(`^[a-z][a-z0-9+.-]*://\S+$`),
		Description: "Must be an absolute URI with a lowercase scheme and no whitespace",
		MaxLength:   256,
	},
}

// ValidateName validates a name against the rules for a specific entity type.
func ValidateName(entityType EntityType, name string) error {
	rule, ok := nameRules[entityType]
	if !ok {
		return errors.Newf("unknown entity type: %s", entityType)
	}

	if len(name) == 0 {
		return errors.Newf("empty %s name is not allowed", entityType)
	}

	if len(name) > rule.MaxLength {
		return errors.Newf("%s name exceeds maximum length of %d characters", entityType, rule.MaxLength)
	}

	if !rule.Pattern.MatchString(name) {
		return errors.Newf("invalid %s name '%s': %s", entityType, name, rule.Description)
	}

	return nil
}
