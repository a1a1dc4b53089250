// Package compositekey encodes multi-attribute ledger keys.
//
// The encoding is the ledger-wide composite key format: a U+0000 delimiter,
// the object type, then each attribute followed by U+0000. Keys built here
// sort before every simple key and a prefix of attributes selects a
// contiguous range, which is what partial composite key scans rely on.
package compositekey

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// Delimiter separates the object type and attributes.
	Delimiter = "\x00"

	// maxRune terminates partial-key ranges; no valid attribute contains it.
	maxRune = string(utf8.MaxRune)
)

// MalformedKeyError reports a key or attribute that cannot be encoded or
// decoded as a composite key.
type MalformedKeyError struct {
	Key    string
	Reason string
}

func (e *MalformedKeyError) Error() string {
	return fmt.Sprintf("malformed composite key %q: %s", e.Key, e.Reason)
}

// Build encodes objectType and attrs into a composite key.
func Build(objectType string, attrs []string) (string, error) {
	if objectType == "" {
		return "", &MalformedKeyError{Key: objectType, Reason: "object type is empty"}
	}
	if err := checkComponent(objectType); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(Delimiter)
	b.WriteString(objectType)
	b.WriteString(Delimiter)
	for _, a := range attrs {
		if err := checkComponent(a); err != nil {
			return "", err
		}
		b.WriteString(a)
		b.WriteString(Delimiter)
	}
	return b.String(), nil
}

// Split decodes a key produced by Build. The returned attrs slice is never nil.
func Split(key string) (string, []string, error) {
	if !IsComposite(key) {
		return "", nil, &MalformedKeyError{Key: key, Reason: "missing leading delimiter"}
	}
	if len(key) < 3 || !strings.HasSuffix(key, Delimiter) {
		return "", nil, &MalformedKeyError{Key: key, Reason: "missing trailing delimiter"}
	}
	parts := strings.Split(key[1:len(key)-1], Delimiter)
	if parts[0] == "" {
		return "", nil, &MalformedKeyError{Key: key, Reason: "object type is empty"}
	}
	attrs := make([]string, 0, len(parts)-1)
	attrs = append(attrs, parts[1:]...)
	return parts[0], attrs, nil
}

// PartialRange returns the half-open [start, end) key range covering every
// composite key whose object type and leading attributes match.
func PartialRange(objectType string, attrs []string) (string, string, error) {
	start, err := Build(objectType, attrs)
	if err != nil {
		return "", "", err
	}
	return start, start + maxRune, nil
}

// IsComposite reports whether key uses the composite encoding.
func IsComposite(key string) bool {
	return strings.HasPrefix(key, Delimiter)
}

func checkComponent(s string) error {
	if !utf8.ValidString(s) {
		return &MalformedKeyError{Key: s, Reason: "not valid UTF-8"}
	}
	for _, r := range s {
		if r == utf8.MaxRune || unicode.IsControl(r) {
			return &MalformedKeyError{Key: s, Reason: fmt.Sprintf("contains disallowed rune %U", r)}
		}
	}
	return nil
}
