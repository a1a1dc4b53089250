package queryir

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Clause is one selector entry.
//
// This is a sealed interface - only types in this package implement it.
type Clause interface {
	clauseNode()
	field() string
}

// Equals matches records whose string field equals Value.
//
// Serialized as "field": "value".
type Equals struct {
	Field string
	Value string
}

func (Equals) clauseNode() {}
func (e Equals) field() string { return e.Field }

// Exists matches records where Field is present (Present=true) or absent
// (Present=false).
//
// Serialized as "field": {"$exists": true|false}.
type Exists struct {
	Field   string
	Present bool
}

func (Exists) clauseNode() {}
func (e Exists) field() string { return e.Field }

// Document is a rich query: an ordered selector plus optional paging.
//
// Limit and Skip are nil when absent. A Document with an empty selector
// matches every record in the namespace.
type Document struct {
	Selector []Clause
	Limit    *uint64
	Skip     *uint64
}

// FieldOf returns the field a clause constrains.
func FieldOf(c Clause) string {
	return c.field()
}

// MarshalJSON writes the selector in insertion order.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"selector":{`)
	for i, c := range d.Selector {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(c.field())
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		switch clause := c.(type) {
		case Equals:
			val, err := json.Marshal(clause.Value)
			if err != nil {
				return nil, err
			}
			buf.Write(val)
		case Exists:
			buf.WriteString(`{"$exists":`)
			buf.WriteString(strconv.FormatBool(clause.Present))
			buf.WriteByte('}')
		}
	}
	buf.WriteByte('}')
	if d.Limit != nil {
		buf.WriteString(`,"limit":`)
		buf.WriteString(strconv.FormatUint(*d.Limit, 10))
	}
	if d.Skip != nil {
		buf.WriteString(`,"skip":`)
		buf.WriteString(strconv.FormatUint(*d.Skip, 10))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String returns the JSON form, for logs.
func (d Document) String() string {
	b, err := d.MarshalJSON()
	if err != nil {
		return "<invalid query>"
	}
	return string(b)
}
