package reconcile

import (
	"math"
	"sort"
	"strings"
)

// ManagedOptions maps an EditorConfig property to the buffer options it
// governs.
type ManagedOptions map[string][]string

// defaultManaged mirrors the properties Neovim's EditorConfig integration
// applies. indent_size also covers tabstop because tab_width defaults to
// indent_size when a file does not set it.
var defaultManaged = ManagedOptions{
	"charset":              {"bomb", "fileencoding"},
	"end_of_line":          {"fileformat"},
	"indent_style":         {"expandtab"},
	"indent_size":          {"shiftwidth", "softtabstop", "tabstop"},
	"insert_final_newline": {"fixendofline", "endofline"},
	"max_line_length":      {"textwidth"},
	"tab_width":            {"tabstop"},
}

// DefaultManagedOptions returns a copy of the built-in property table.
func DefaultManagedOptions() ManagedOptions {
	return defaultManaged.Clone()
}

// Clone returns a deep copy of m.
func (m ManagedOptions) Clone() ManagedOptions {
	out := make(ManagedOptions, len(m))
	for prop, opts := range m {
		out[prop] = append([]string(nil), opts...)
	}
	return out
}

// Properties returns the EditorConfig property names in sorted order.
func (m ManagedOptions) Properties() []string {
	props := make([]string, 0, len(m))
	for prop := range m {
		props = append(props, prop)
	}
	sort.Strings(props)
	return props
}

// Suppressed computes the options governed by the given EditorConfig state.
// A nil state yields an empty set.
func (m ManagedOptions) Suppressed(state map[string]any) OptionSet {
	set := make(OptionSet)
	if state == nil {
		return set
	}
	for prop, opts := range m {
		if !Truthy(state[prop]) {
			continue
		}
		for _, opt := range opts {
			set[opt] = struct{}{}
		}
	}
	return set
}

// OptionSet is a set of buffer option names.
type OptionSet map[string]struct{}

// Has reports whether name is in the set.
func (s OptionSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the members in sorted order.
func (s OptionSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Truthy reports whether an EditorConfig property value is in effect.
// Missing, false, zero, empty and "unset" values are not.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != "" && !strings.EqualFold(val, "unset")
	case int:
		return val != 0
	case int8:
		return val != 0
	case int16:
		return val != 0
	case int32:
		return val != 0
	case int64:
		return val != 0
	case uint:
		return val != 0
	case uint8:
		return val != 0
	case uint16:
		return val != 0
	case uint32:
		return val != 0
	case uint64:
		return val != 0
	case float32:
		return val != 0 && !math.IsNaN(float64(val))
	case float64:
		return val != 0 && !math.IsNaN(val)
	default:
		return true
	}
}

// StateFromVar converts the raw buffer variable into a property map.
// Hosts decode dictionaries either with string keys or with interface keys.
// Anything that is not a dictionary is treated as no state.
func StateFromVar(v any) map[string]any {
	switch val := v.(type) {
	case map[string]any:
		return val
	case map[any]any:
		state := make(map[string]any, len(val))
		for k, item := range val {
			if key, ok := k.(string); ok {
				state[key] = item
			}
		}
		return state
	default:
		return nil
	}
}
