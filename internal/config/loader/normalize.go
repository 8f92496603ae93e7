package loader

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dshills/vimoptions/internal/config/layer"
)

// LanguageKey returns the settings key holding overrides for a language.
func LanguageKey(lang string) string {
	return "[" + lang + "]"
}

// IsLanguageKey reports whether key is a "[<lang>]" override key and
// returns the language.
func IsLanguageKey(key string) (string, bool) {
	if len(key) < 3 || key[0] != '[' || key[len(key)-1] != ']' {
		return "", false
	}
	return key[1 : len(key)-1], true
}

// Normalize rewrites decoded settings into the canonical shape.
//
// Dotted keys such as "vim-options.tabstop" expand into nested tables and
// win over a nested value for the same path. Language keys are never split.
// Null values are dropped, whole floats and all integer types become int64,
// and maps with non-string keys are converted with fmt.Sprint.
func Normalize(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	if data == nil {
		return out
	}

	var dotted []string
	for key, val := range data {
		if val == nil {
			continue
		}
		if _, lang := IsLanguageKey(key); !lang && strings.Contains(key, ".") {
			dotted = append(dotted, key)
			continue
		}
		out[key] = normalizeValue(val)
	}

	sort.Strings(dotted)
	for _, key := range dotted {
		nested := make(map[string]any)
		layer.SetByPath(nested, key, normalizeValue(data[key]))
		out = layer.DeepMerge(out, nested)
	}

	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return Normalize(val)
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[fmt.Sprint(k)] = item
		}
		return Normalize(m)
	case []any:
		list := make([]any, 0, len(val))
		for _, item := range val {
			if item != nil {
				list = append(list, normalizeValue(item))
			}
		}
		return list
	case float64:
		return wholeFloat(val)
	case float32:
		return wholeFloat(float64(val))
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint:
		if uint64(val) <= math.MaxInt64 {
			return int64(val)
		}
		return val
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		if val <= math.MaxInt64 {
			return int64(val)
		}
		return val
	default:
		return v
	}
}

func wholeFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return f
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return f
	}
	return int64(f)
}
