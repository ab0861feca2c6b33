package location

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed cities.yaml
var citiesYAML []byte

type tableEntry struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

// Table is the static city-name to code fallback. Order matters for ties.
type Table struct {
	entries []tableEntry
	exact   map[string]string
}

// DefaultTable is loaded from the embedded cities.yaml.
var DefaultTable = mustLoadTable(citiesYAML)

func mustLoadTable(raw []byte) *Table {
	t, err := LoadTable(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// LoadTable parses a YAML list of {name, code} entries. Every code must be
// a valid location code.
func LoadTable(raw []byte) (*Table, error) {
	var entries []tableEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("location: parse table: %w", err)
	}
	t := &Table{exact: make(map[string]string, len(entries))}
	for _, e := range entries {
		e.Name = strings.ToLower(strings.TrimSpace(e.Name))
		if e.Name == "" || !ValidCode(e.Code) {
			return nil, fmt.Errorf("location: bad table entry %q -> %q", e.Name, e.Code)
		}
		t.entries = append(t.entries, e)
		if _, dup := t.exact[e.Name]; !dup {
			t.exact[e.Name] = e.Code
		}
	}
	return t, nil
}

// Lookup tries an exact match, then a substring match in either direction.
// The longest matching key wins. A name shorter than three letters is only
// matched exactly.
func (t *Table) Lookup(place string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(place))
	if name == "" {
		return "", false
	}
	if code, ok := t.exact[name]; ok {
		return code, true
	}
	best := -1
	for i, e := range t.entries {
		hit := strings.Contains(name, e.Name) || (len(name) >= 3 && strings.Contains(e.Name, name))
		if hit && (best < 0 || len(e.Name) > len(t.entries[best].Name)) {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return t.entries[best].Code, true
}
