package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// flexID accepts a numeric or string JSON ID and keeps it as a decimal string
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id %s is neither number nor string", b)
	}
	if i, err := n.Int64(); err == nil {
		*f = flexID(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) int() (int, error) {
	return strconv.Atoi(string(f))
}

type objectEntry struct {
	Key   string
	Value json.RawMessage
}

// objectEntries returns the members of a JSON object in document order.
// ok is false when raw is not an object.
func objectEntries(raw json.RawMessage) (entries []objectEntry, ok bool, err error) {
	if !isJSONObject(raw) {
		return nil, false, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, true, err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, true, err
		}
		key, isString := tok.(string)
		if !isString {
			return nil, true, fmt.Errorf("unexpected object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, true, err
		}
		entries = append(entries, objectEntry{Key: key, Value: value})
	}
	return entries, true, nil
}

// objectKeys returns the keys of a JSON object in document order
func objectKeys(raw json.RawMessage) ([]string, error) {
	entries, _, err := objectEntries(raw)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys, nil
}

func firstByte(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func isJSONObject(raw json.RawMessage) bool {
	return firstByte(raw) == '{'
}

func isJSONArray(raw json.RawMessage) bool {
	return firstByte(raw) == '['
}

// truthy mirrors the loose "is there a response" check used for validation
func truthy(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

// hasMember reports whether raw is an object containing key
func hasMember(raw json.RawMessage, key string) bool {
	if !isJSONObject(raw) {
		return false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	_, ok := m[key]
	return ok
}
