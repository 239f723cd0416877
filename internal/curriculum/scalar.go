package curriculum

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// scalar decodes a JSON string, number or boolean into its string form.
// Numbers keep their literal text, so 3 and "3" compare equal. Null,
// objects and arrays decode to the empty string.
type scalar string

func (s *scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*s = ""
		return nil
	}
	switch b[0] {
	case '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = scalar(v)
	case '{', '[', 'n':
		*s = ""
	default:
		*s = scalar(b)
	}
	return nil
}

func (s scalar) String() string { return string(s) }

func scalars(in []scalar) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, string(v))
	}
	return out
}

// member is one key/value pair of a JSON object, kept in document order.
type member struct {
	Key   string
	Value json.RawMessage
}

// decodeObject reads a JSON object and returns its members in document order.
// A repeated key keeps its first position and its last value.
func decodeObject(data []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var members []member
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decoding %q: %w", key, err)
		}
		if i, seen := index[key]; seen {
			members[i].Value = value
			continue
		}
		index[key] = len(members)
		members = append(members, member{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after top-level object")
	}
	return members, nil
}

// setMember returns the object obj with key set to value. An existing member
// is replaced in place; a new one is appended.
func setMember(obj json.RawMessage, key string, value json.RawMessage) ([]byte, error) {
	members, err := decodeObject(obj)
	if err != nil {
		return nil, err
	}
	replaced := false
	for i := range members {
		if members[i].Key == key {
			members[i].Value = value
			replaced = true
		}
	}
	if !replaced {
		members = append(members, member{Key: key, Value: value})
	}

	var b bytes.Buffer
	b.WriteByte('{')
	for i, m := range members {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(m.Key)
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(m.Value)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
