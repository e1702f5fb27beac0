package rules

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	errEmptyDocument = errors.New("rule file is empty")
	errNotMapping    = errors.New("rule file is not a mapping")
)

// readRaw reads a YAML rule file into a generic value.
func readRaw(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, errEmptyDocument
	}
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if raw == nil {
		return nil, errEmptyDocument
	}
	return raw, nil
}

// readSection reads a mapping rule file. When the document has a top-level
// key equal to env holding a mapping, that section is returned instead, which
// lets one file carry per-environment variants sharing an anchor.
func readSection(path, env string) (map[string]interface{}, error) {
	raw, err := readRaw(path)
	if err != nil {
		return nil, err
	}
	doc, ok := asMap(raw)
	if !ok {
		return nil, errNotMapping
	}
	if env != "" {
		if section, ok := asMap(doc[env]); ok {
			return section, nil
		}
	}
	return doc, nil
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// stringList coerces a scalar or sequence into trimmed strings. A scalar
// becomes a one-element list; nil becomes an empty list.
func stringList(v interface{}) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := strings.TrimSpace(fmt.Sprint(t)); s != "" {
			return []string{s}
		}
		return nil
	}
}

// intValue coerces YAML ints, floats and numeric strings.
func intValue(v interface{}) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case uint64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
