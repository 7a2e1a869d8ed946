package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"
)

// AttributeMap holds variant attributes ("Color" -> "Black", "Size" ->
// "XL") as an ordered key/value list. Insertion order is preserved
// through JSON round trips so two variants with the same attributes in
// the same order compare equal and hash identically.
type AttributeMap struct {
	pairs []attrPair
}

type attrPair struct {
	Key   string
	Value string
}

func NewAttributeMap(kv ...string) AttributeMap {
	var m AttributeMap
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}

// Set inserts or updates a key. Updating keeps the original position.
func (m *AttributeMap) Set(key, value string) {
	for i := range m.pairs {
		if m.pairs[i].Key == key {
			m.pairs[i].Value = value
			return
		}
	}
	m.pairs = append(m.pairs, attrPair{Key: key, Value: value})
}

func (m *AttributeMap) Get(key string) (string, bool) {
	for _, p := range m.pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

func (m *AttributeMap) Len() int { return len(m.pairs) }

// Keys returns the keys in insertion order.
func (m *AttributeMap) Keys() []string {
	out := make([]string, len(m.pairs))
	for i, p := range m.pairs {
		out[i] = p.Key
	}
	return out
}

// Equal reports whether both maps hold the same pairs in the same order.
func (m AttributeMap) Equal(other AttributeMap) bool {
	if len(m.pairs) != len(other.pairs) {
		return false
	}
	for i, p := range m.pairs {
		if other.pairs[i] != p {
			return false
		}
	}
	return true
}

// Hash returns an order-sensitive FNV-1a hash of the pairs.
func (m AttributeMap) Hash() uint64 {
	h := fnv.New64a()
	for _, p := range m.pairs {
		h.Write([]byte(p.Key))
		h.Write([]byte{0})
		h.Write([]byte(p.Value))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// MarshalJSON renders a JSON object with keys in insertion order.
func (m AttributeMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range m.pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping the document's key order.
func (m *AttributeMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("attribute map: expected object, got %v", tok)
	}
	m.pairs = nil
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("attribute map: non-string key %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("attribute map: value for %q: %w", key, err)
		}
		m.pairs = append(m.pairs, attrPair{Key: key, Value: value})
	}
	_, err = dec.Token() // closing brace
	return err
}
