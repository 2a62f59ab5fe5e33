package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AccountMap maps uid to a stored account record and keeps the order in
// which uids were first added. The zero value is an empty map.
type AccountMap struct {
	uids []string
	data map[string]Attributes
}

// NewAccountMap returns an empty AccountMap.
func NewAccountMap() *AccountMap {
	return &AccountMap{data: make(map[string]Attributes)}
}

func (m *AccountMap) Len() int {
	return len(m.uids)
}

// UIDs returns the stored uids, oldest first.
func (m *AccountMap) UIDs() []string {
	return append([]string(nil), m.uids...)
}

func (m *AccountMap) Get(uid string) (Attributes, bool) {
	a, ok := m.data[uid]
	return a, ok
}

func (m *AccountMap) Has(uid string) bool {
	_, ok := m.data[uid]
	return ok
}

// Set stores a under uid. An existing uid keeps its position.
func (m *AccountMap) Set(uid string, a Attributes) {
	if m.data == nil {
		m.data = make(map[string]Attributes)
	}
	if _, ok := m.data[uid]; !ok {
		m.uids = append(m.uids, uid)
	}
	m.data[uid] = a
}

func (m *AccountMap) Delete(uid string) {
	if _, ok := m.data[uid]; !ok {
		return
	}
	delete(m.data, uid)
	for i, u := range m.uids {
		if u == uid {
			m.uids = append(m.uids[:i], m.uids[i+1:]...)
			break
		}
	}
}

// MarshalJSON encodes the map as a JSON object with keys in insertion order.
func (m *AccountMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, uid := range m.uids {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(uid)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.data[uid])
		if err != nil {
			return nil, fmt.Errorf("encode account %s: %w", uid, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the order of its keys. Entries
// that are not objects are dropped.
func (m *AccountMap) UnmarshalJSON(b []byte) error {
	m.uids = nil
	m.data = make(map[string]Attributes)

	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("accounts: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		uid, ok := tok.(string)
		if !ok {
			return fmt.Errorf("accounts: expected key, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var a Attributes
		if err := json.Unmarshal(raw, &a); err != nil || a == nil {
			continue
		}
		m.Set(uid, a)
	}

	_, err = dec.Token()
	return err
}
