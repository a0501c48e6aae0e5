package model

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Dict is a mapping keyed by entity id that remembers insertion order.
// The zero value is ready to use.
type Dict[V any] struct {
	keys  []string
	items map[string]V
}

// NewDict returns an empty Dict with room for n entries.
func NewDict[V any](n int) *Dict[V] {
	return &Dict[V]{keys: make([]string, 0, n), items: make(map[string]V, n)}
}

// Set stores v under key. A new key is appended to the order; an existing
// key keeps its position.
func (d *Dict[V]) Set(key string, v V) {
	if d.items == nil {
		d.items = make(map[string]V)
	}
	if _, ok := d.items[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.items[key] = v
}

// Get returns the value stored under key.
func (d *Dict[V]) Get(key string) (V, bool) {
	if d == nil {
		var zero V
		return zero, false
	}
	v, ok := d.items[key]
	return v, ok
}

// Has reports whether key is present.
func (d *Dict[V]) Has(key string) bool {
	if d == nil {
		return false
	}
	_, ok := d.items[key]
	return ok
}

// Len returns the number of entries.
func (d *Dict[V]) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the keys in insertion order.
func (d *Dict[V]) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Values returns the values in key order.
func (d *Dict[V]) Values() []V {
	if d == nil {
		return nil
	}
	out := make([]V, 0, len(d.keys))
	for _, k := range d.keys {
		out = append(out, d.items[k])
	}
	return out
}

// Range calls fn for each entry in order until fn returns false.
func (d *Dict[V]) Range(fn func(key string, v V) bool) {
	if d == nil {
		return
	}
	for _, k := range d.keys {
		if !fn(k, d.items[k]) {
			return
		}
	}
}

// MarshalJSON encodes the Dict as a JSON object in insertion order.
func (d *Dict[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if d != nil {
		for i, k := range d.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			val, err := json.Marshal(d.items[k])
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the document's key order.
func (d *Dict[V]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("dict: expected JSON object")
	}
	d.keys = nil
	d.items = make(map[string]V)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var v V
		if err := dec.Decode(&v); err != nil {
			return err
		}
		d.Set(key, v)
	}
	_, err = dec.Token()
	return err
}
