package config

import (
	"fmt"
	"strconv"
	"time"
)

// Get walks the raw mapping: section, then each path key in turn.
// With no path it returns the whole section. Hitting a non-mapping value
// before the last key reports not found.
func (c *Config) Get(section string, path ...string) (any, bool) {
	cur, ok := c.raw[section]
	if !ok {
		return nil, false
	}
	for _, key := range path {
		m, isMap := cur.(map[string]any)
		if !isMap {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Section returns a top-level mapping, or an empty one.
func (c *Config) Section(name string) map[string]any {
	if m, ok := c.raw[name].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// String returns the value at section/path as a string, or def.
func (c *Config) String(def string, section string, path ...string) string {
	v, ok := c.Get(section, path...)
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case int, int64, float64, bool:
		return fmt.Sprint(t)
	}
	return def
}

// Bool returns the value at section/path as a bool, or def.
func (c *Config) Bool(def bool, section string, path ...string) bool {
	v, ok := c.Get(section, path...)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return b
		}
	}
	return def
}

// Int returns the value at section/path as an int, or def.
func (c *Config) Int(def int, section string, path ...string) int {
	v, ok := c.Get(section, path...)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n
		}
	}
	return def
}

// Float returns the value at section/path as a float64, or def.
func (c *Config) Float(def float64, section string, path ...string) float64 {
	v, ok := c.Get(section, path...)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f
		}
	}
	return def
}

// Duration reads a number of seconds or a Go duration string ("1m30s").
func (c *Config) Duration(def time.Duration, section string, path ...string) time.Duration {
	v, ok := c.Get(section, path...)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case int:
		return time.Duration(t) * time.Second
	case float64:
		return time.Duration(t * float64(time.Second))
	case string:
		if d, err := time.ParseDuration(t); err == nil {
			return d
		}
	}
	return def
}

// Strings returns a list of strings at section/path, or def.
// Non-string items are skipped.
func (c *Config) Strings(def []string, section string, path ...string) []string {
	v, ok := c.Get(section, path...)
	if !ok {
		return def
	}
	list, ok := v.([]any)
	if !ok {
		return def
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// set writes value at section/path in the raw mapping, creating
// intermediate maps as needed.
func (c *Config) set(value any, section string, path ...string) {
	if c.raw == nil {
		c.raw = map[string]any{}
	}
	if len(path) == 0 {
		c.raw[section] = value
		return
	}
	m, ok := c.raw[section].(map[string]any)
	if !ok {
		m = map[string]any{}
		c.raw[section] = m
	}
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}
