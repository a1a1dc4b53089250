package queryir

import (
	"fmt"
	"strings"
	"unicode"
)

// Validate checks that a Document can be compiled by a backend.
//
// Rules:
//  1. Every clause names a non-empty field
//  2. Field names contain no quotes, backslashes, dots or control runes
//  3. A field appears at most once in the selector
//
// Dots are rejected because nested paths are not supported.
func Validate(doc Document) error {
	seen := make(map[string]bool, len(doc.Selector))
	for i, c := range doc.Selector {
		if c == nil {
			return fmt.Errorf("queryir: selector clause %d is nil", i)
		}
		name := c.field()
		if name == "" {
			return fmt.Errorf("queryir: selector clause %d has empty field", i)
		}
		if strings.ContainsAny(name, "\"\\.$") || strings.IndexFunc(name, unicode.IsControl) >= 0 {
			return fmt.Errorf("queryir: invalid field name %q", name)
		}
		if seen[name] {
			return fmt.Errorf("queryir: duplicate selector field %q", name)
		}
		seen[name] = true
	}
	return nil
}
