package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

type Product struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	FullName    string   `json:"fullName" yaml:"fullName"`
	Tagline     string   `json:"tagline" yaml:"tagline"`
	Description string   `json:"description" yaml:"description"`
	Price       string   `json:"price" yaml:"price"`
	Tags        []string `json:"tags" yaml:"tags"`
	AccentColor string   `json:"accentColor" yaml:"accentColor"`
	Badge       string   `json:"badge,omitempty" yaml:"badge,omitempty"`
	Num         string   `json:"num" yaml:"num"`
	Stats       Stats    `json:"stats" yaml:"stats"`
}

// clone returns a copy that shares no slices with p.
func (p Product) clone() Product {
	out := p
	out.Tags = append([]string{}, p.Tags...)
	out.Stats = append(Stats{}, p.Stats...)
	return out
}

type Stat struct {
	Key   string
	Value string
}

// Stats is an ordered key/value mapping. It encodes as a JSON object whose
// keys keep their configured order.
type Stats []Stat

func (s Stats) Get(key string) (string, bool) {
	for _, st := range s {
		if st.Key == key {
			return st.Value, true
		}
	}
	return "", false
}

func (s Stats) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, st := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(st.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(st.Value)
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

func (s *Stats) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("stats: expected object, got %v", tok)
	}

	out := Stats{}
	seen := map[string]bool{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)
		if seen[key] {
			return fmt.Errorf("stats: duplicate key %q", key)
		}
		seen[key] = true

		var val string
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("stats %q: %w", key, err)
		}
		out = append(out, Stat{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out
	return nil
}

func (s *Stats) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("stats: line %d: expected mapping", n.Line)
	}

	out := make(Stats, 0, len(n.Content)/2)
	seen := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if seen[k.Value] {
			return fmt.Errorf("stats: line %d: duplicate key %q", k.Line, k.Value)
		}
		seen[k.Value] = true
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("stats %q: line %d: expected scalar value", k.Value, v.Line)
		}
		out = append(out, Stat{Key: k.Value, Value: v.Value})
	}

	*s = out
	return nil
}
