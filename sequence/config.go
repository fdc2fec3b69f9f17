package sequence

import (
	"fmt"
	"strings"
)

// DefaultOrderField is the ordering column used when a config names none.
const DefaultOrderField = "order"

// Config describes how one collection's ordering column is maintained. It is
// supplied once at setup and never mutated afterwards.
type Config struct {
	// OrderField is the integer column holding the sequence position.
	OrderField string `json:"orderField" yaml:"orderField"`

	// GroupFields partition the collection; contiguity is maintained
	// independently per distinct combination of their values. Empty means
	// the whole collection is one group.
	GroupFields []string `json:"groupFields" yaml:"groupFields"`

	// StartAt is the order value assigned to the first record of an empty
	// group.
	StartAt int64 `json:"startAt" yaml:"startAt"`
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.OrderField) == "" {
		c.OrderField = DefaultOrderField
	}
	return c
}

// Validate rejects configs that could not be applied safely: field names
// that are not plain identifiers (SQL stores interpolate them as quoted
// identifiers), duplicate group fields, and an order field that is also a
// group field.
func (c Config) Validate() error {
	if !validIdentifier(c.OrderField) {
		return fmt.Errorf("%w: order field %q is not a valid identifier", ErrInvalidConfig, c.OrderField)
	}
	seen := make(map[string]struct{}, len(c.GroupFields))
	for _, field := range c.GroupFields {
		if !validIdentifier(field) {
			return fmt.Errorf("%w: group field %q is not a valid identifier", ErrInvalidConfig, field)
		}
		if field == c.OrderField {
			return fmt.Errorf("%w: order field %q cannot also be a group field", ErrInvalidConfig, field)
		}
		if _, dup := seen[field]; dup {
			return fmt.Errorf("%w: duplicate group field %q", ErrInvalidConfig, field)
		}
		seen[field] = struct{}{}
	}
	return nil
}

func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
