package extract

import (
	"fmt"
)

// Field binds one display label to the output keys that receive its value.
// One label may fan out to several keys; each receives the identical value.
type Field struct {
	Label string   `json:"label"`
	Keys  []string `json:"keys"`
}

// Mapping is the ordered field-mapping table. Order is the configuration
// document's order and is preserved for stable, reproducible extraction runs.
type Mapping struct {
	Fields []Field
}

// Add appends a field to the table after validating it: the label must be
// non-empty and unique within the table, and every output key non-empty.
// Callers loading configuration skip invalid entries with a warning rather
// than failing the load.
func (m *Mapping) Add(label string, keys []string) error {
	if label == "" {
		return fmt.Errorf("mapping: empty label")
	}
	if len(keys) == 0 {
		return fmt.Errorf("mapping %q: no output keys", label)
	}
	for _, k := range keys {
		if k == "" {
			return fmt.Errorf("mapping %q: empty output key", label)
		}
	}
	for _, f := range m.Fields {
		if f.Label == label {
			return fmt.Errorf("mapping %q: duplicate label", label)
		}
	}
	m.Fields = append(m.Fields, Field{Label: label, Keys: keys})
	return nil
}

// OutputKeys returns every configured output key in table order.
func (m Mapping) OutputKeys() []string {
	var keys []string
	for _, f := range m.Fields {
		keys = append(keys, f.Keys...)
	}
	return keys
}

// KeysFromValue coerces a raw mapping value into output keys. Configuration
// allows a single string or a list of strings; anything else is a malformed
// entry the caller should skip with a warning.
func KeysFromValue(v any) ([]string, error) {
	switch val := v.(type) {
	case string:
		return []string{val}, nil
	case []string:
		return val, nil
	case []any:
		keys := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("mapping value list contains non-string %T", item)
			}
			keys = append(keys, s)
		}
		return keys, nil
	default:
		return nil, fmt.Errorf("mapping value must be string or string list, got %T", v)
	}
}
