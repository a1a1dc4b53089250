package queryir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrUnsupported is returned for selector constructs outside the supported
// equality and existence clauses.
var ErrUnsupported = errors.New("queryir: unsupported query construct")

// Parse decodes a JSON rich query, keeping selector order.
func Parse(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc Document
	if err := expectDelim(dec, '{'); err != nil {
		return Document{}, err
	}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return Document{}, err
		}
		switch key {
		case "selector":
			sel, err := parseSelector(dec)
			if err != nil {
				return Document{}, err
			}
			doc.Selector = sel
		case "limit", "skip":
			n, err := readUint(dec, key)
			if err != nil {
				return Document{}, err
			}
			if key == "limit" {
				doc.Limit = &n
			} else {
				doc.Skip = &n
			}
		default:
			return Document{}, fmt.Errorf("%w: top-level key %q", ErrUnsupported, key)
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return Document{}, err
	}
	if err := Validate(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func parseSelector(dec *json.Decoder) ([]Clause, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var out []Clause
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("queryir: selector field %q: %w", name, err)
		}
		clause, err := parseClause(name, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, clause)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return out, nil
}

func parseClause(name string, raw json.RawMessage) (Clause, error) {
	switch {
	case len(raw) > 0 && raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("queryir: selector field %q: %w", name, err)
		}
		return Equals{Field: name, Value: s}, nil
	case len(raw) > 0 && raw[0] == '{':
		var ops map[string]json.RawMessage
		if err := json.Unmarshal(raw, &ops); err != nil {
			return nil, fmt.Errorf("queryir: selector field %q: %w", name, err)
		}
		present, ok := ops["$exists"]
		if !ok || len(ops) != 1 {
			return nil, fmt.Errorf("%w: operator on field %q", ErrUnsupported, name)
		}
		var b bool
		if err := json.Unmarshal(present, &b); err != nil {
			return nil, fmt.Errorf("queryir: $exists on %q must be boolean", name)
		}
		return Exists{Field: name, Present: b}, nil
	default:
		return nil, fmt.Errorf("%w: value of field %q", ErrUnsupported, name)
	}
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("queryir: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("queryir: expected object key, got %v", tok)
	}
	return key, nil
}

func readUint(dec *json.Decoder, key string) (uint64, error) {
	var num json.Number
	if err := dec.Decode(&num); err != nil {
		return 0, fmt.Errorf("queryir: %s: %w", key, err)
	}
	n, err := strconv.ParseUint(num.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("queryir: %s must be a non-negative integer", key)
	}
	return n, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("queryir: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("queryir: expected %q, got %v", want, tok)
	}
	return nil
}
