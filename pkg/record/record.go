// Package record provides an ordered, schema-less JSON object.
//
// Bulk API job records have no fixed shape: different jobs carry different
// fields, and nested objects may appear. A Record keeps the key order it was
// decoded with so that exports derived from it are deterministic.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Record is an ordered mapping of string keys to JSON values.
//
// Values are one of: string, json.Number, bool, nil, Record, []any.
type Record struct {
	keys   []string
	values map[string]any
}

// New creates an empty record.
func New() Record {
	return Record{values: make(map[string]any)}
}

// Keys returns the record keys in insertion order.
func (r Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of keys.
func (r Record) Len() int {
	return len(r.keys)
}

// Get returns the value stored under key.
func (r Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Set stores value under key. A new key is appended to the key order;
// an existing key keeps its position.
func (r *Record) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// MarshalJSON encodes the record as a JSON object in key order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')

		v, err := json.Marshal(r.values[key])
		if err != nil {
			return nil, fmt.Errorf("marshal field %q: %w", key, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the source key order.
// Numbers are kept as json.Number so their literal form survives export.
// A JSON null leaves the record unchanged.
func (r *Record) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record: expected JSON object, got %v", tok)
	}

	rec, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// decodeObject reads key/value pairs after an opening '{' up to and
// including the closing '}'.
func decodeObject(dec *json.Decoder) (Record, error) {
	rec := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Record{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Record{}, fmt.Errorf("record: expected string key, got %v", tok)
		}

		value, err := decodeValue(dec)
		if err != nil {
			return Record{}, fmt.Errorf("record: field %q: %w", key, err)
		}
		rec.Set(key, value)
	}
	if _, err := dec.Token(); err != nil { // '}'
		return Record{}, err
	}
	return rec, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err == io.EOF {
		return nil, io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		return decodeObject(dec)
	case '[':
		items := []any{}
		for dec.More() {
			item, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		if _, err := dec.Token(); err != nil { // ']'
			return nil, err
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", delim)
	}
}
