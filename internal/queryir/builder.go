package queryir

import "strconv"

// Filter is one optional handler-level filter. Empty values are skipped by
// Build; an existence filter carries its flag as "true" or "false".
type Filter struct {
	Field  string
	Value  string
	Exists bool
}

// Match filters on field equal to value. An empty value means no filter.
func Match(field, value string) Filter {
	return Filter{Field: field, Value: value}
}

// Presence filters on whether field is present. flag is "true", "false",
// or empty for no filter.
func Presence(field, flag string) Filter {
	return Filter{Field: field, Value: flag, Exists: true}
}

// Build turns handler filters and optional paging arguments into a Document.
//
// Filters with an empty value are omitted. Presence filters whose flag is
// neither "true" nor "false" are omitted. limit and offset are included only
// when they parse as non-negative integers.
func Build(filters []Filter, limit, offset string) Document {
	var doc Document
	for _, f := range filters {
		if f.Value == "" {
			continue
		}
		if f.Exists {
			if f.Value != "true" && f.Value != "false" {
				continue
			}
			doc.Selector = append(doc.Selector, Exists{Field: f.Field, Present: f.Value == "true"})
			continue
		}
		doc.Selector = append(doc.Selector, Equals{Field: f.Field, Value: f.Value})
	}
	doc.Limit = parsePaging(limit)
	doc.Skip = parsePaging(offset)
	return doc
}

func parsePaging(s string) *uint64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
