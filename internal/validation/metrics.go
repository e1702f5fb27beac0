package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Metric keys.
const (
	MetricTotalIn        = "total_in"
	MetricAfterNormalize = "after_normalize"
	MetricTotalOut       = "total_out"
)

// RemovedKey returns the metric key for a stage's removed count.
func RemovedKey(stage string) string { return "removed_" + stage }

// Metrics is an insertion-ordered map of counters. It marshals to a JSON
// object whose keys keep that order.
type Metrics struct {
	keys   []string
	values map[string]int64
}

// NewMetrics returns an empty set.
func NewMetrics() *Metrics {
	return &Metrics{values: make(map[string]int64)}
}

// Set records v under key, appending key if it is new.
func (m *Metrics) Set(key string, v int64) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the counter for key.
func (m *Metrics) Get(key string) (int64, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Metrics) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Map returns an unordered copy.
func (m *Metrics) Map() map[string]int64 {
	out := make(map[string]int64, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

func (m *Metrics) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", m.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *Metrics) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("metrics: expected object")
	}
	m.keys = nil
	m.values = make(map[string]int64)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("metrics: expected key")
		}
		var v int64
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("metrics %s: %w", key, err)
		}
		m.Set(key, v)
	}
	_, err = dec.Token()
	return err
}
