package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Predicate reports whether a single argument is acceptable.
type Predicate func(string) bool

// Schema is one predicate per expected positional argument.
type Schema []Predicate

// ValidationError describes a rejected argument list.
//
// Index is -1 for an argument count mismatch, otherwise the position of the
// first argument that failed its predicate.
type ValidationError struct {
	Index    int
	Expected int
	Actual   int
	Value    string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("Incorrect number of arguments. Expecting %d, Actual %d", e.Expected, e.Actual)
	}
	return fmt.Sprintf("Invalid literal argument on index %d", e.Index)
}

// Check validates args against schema. Arity is checked first and never
// reports a per-index failure; otherwise the lowest failing index wins.
func Check(args []string, schema Schema) error {
	if len(args) != len(schema) {
		return &ValidationError{Index: -1, Expected: len(schema), Actual: len(args)}
	}
	for i, pred := range schema {
		if !pred(args[i]) {
			return &ValidationError{Index: i, Expected: len(schema), Actual: len(args), Value: args[i]}
		}
	}
	return nil
}

// Optional accepts the empty string or anything p accepts.
func Optional(p Predicate) Predicate {
	return func(s string) bool {
		return s == "" || p(s)
	}
}

var (
	uuidPattern     = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	labelPattern    = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)
	tldPattern      = regexp.MustCompile(`^[a-zA-Z]{2,63}$`)
	isbn13Pattern   = regexp.MustCompile(`^[0-9]{13}$`)
	uintPattern     = regexp.MustCompile(`^[0-9]{1,16}$`)
	localIDPattern  = regexp.MustCompile(`^[a-zA-Z_]{4,15}$`)
	dateTimeLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
		time.RFC1123Z,
		time.RFC1123,
	}
)

// IsUUID accepts lowercase 8-4-4-4-12 hex UUIDs.
func IsUUID(s string) bool {
	return uuidPattern.MatchString(s)
}

// IsFQDN accepts a dotted hostname with at least two labels and an
// alphabetic top-level label, or the literal "localhost".
func IsFQDN(s string) bool {
	if s == "localhost" {
		return true
	}
	if len(s) > 253 {
		return false
	}
	labels := strings.Split(s, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels[:len(labels)-1] {
		if !labelPattern.MatchString(l) {
			return false
		}
	}
	return tldPattern.MatchString(labels[len(labels)-1])
}

// IsISBN13 accepts exactly thirteen ASCII digits. No checksum is verified.
func IsISBN13(s string) bool {
	return isbn13Pattern.MatchString(s)
}

// IsDateTime accepts RFC 3339 timestamps and the common ISO 8601 date and
// date-time layouts, plus RFC 1123.
func IsDateTime(s string) bool {
	for _, layout := range dateTimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// IsUnsignedInt accepts one to sixteen ASCII digits.
func IsUnsignedInt(s string) bool {
	return uintPattern.MatchString(s)
}

// IsBoolean accepts exactly "true" or "false".
func IsBoolean(s string) bool {
	return s == "true" || s == "false"
}

// IsUserLocalID accepts 4 to 15 ASCII letters or underscores.
func IsUserLocalID(s string) bool {
	return localIDPattern.MatchString(s)
}

// IsUserDisplayName accepts 1 to 50 characters on a single line.
func IsUserDisplayName(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	n := utf8.RuneCountInString(s)
	if n < 1 || n > 50 {
		return false
	}
	return !strings.ContainsAny(s, "\r\n\u2028\u2029")
}

// IsUserLocator accepts "localId@host" with exactly one '@'.
func IsUserLocator(s string) bool {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return false
	}
	return IsUserLocalID(parts[0]) && IsFQDN(parts[1])
}

// IsRoomPurpose accepts "rental" or "return".
func IsRoomPurpose(s string) bool {
	return s == "rental" || s == "return"
}

// IsRoomRole accepts "inviter" or "guest".
func IsRoomRole(s string) bool {
	return s == "inviter" || s == "guest"
}

var named = map[string]Predicate{
	"uuid":            IsUUID,
	"fqdn":            IsFQDN,
	"isbn13":          IsISBN13,
	"datetime":        IsDateTime,
	"uint":            IsUnsignedInt,
	"boolean":         IsBoolean,
	"userLocalId":     IsUserLocalID,
	"userDisplayName": IsUserDisplayName,
	"userLocator":     IsUserLocator,
	"roomPurpose":     IsRoomPurpose,
	"roomRole":        IsRoomRole,
}

// Lookup returns the built-in predicate registered under name.
func Lookup(name string) (Predicate, bool) {
	p, ok := named[name]
	return p, ok
}

// Names returns every built-in predicate name, sorted.
func Names() []string {
	out := make([]string, 0, len(named))
	for n := range named {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
