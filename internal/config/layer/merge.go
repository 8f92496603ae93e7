package layer

import (
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// DeepMerge copies src into dst and returns dst. Nested maps merge key by
// key; any other value in src replaces the one in dst.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for key, val := range src {
		srcMap, srcIsMap := val.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = DeepMerge(dstMap, srcMap)
			continue
		}
		dst[key] = cloneValue(val)
	}
	return dst
}

// GetByPath looks up a dot-separated path such as "vim-options.tabstop".
func GetByPath(data map[string]any, path string) (any, bool) {
	return GetByKeys(data, strings.Split(path, "."))
}

// GetByKeys walks nested maps one key at a time.
func GetByKeys(data map[string]any, keys []string) (any, bool) {
	var cur any = data
	for _, key := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, data != nil
}

// SetByPath stores value at a dot-separated path, creating or replacing
// intermediate maps on the way.
func SetByPath(data map[string]any, path string, value any) {
	if data == nil {
		return
	}
	keys := strings.Split(path, ".")
	last := len(keys) - 1
	for _, key := range keys[:last] {
		next, ok := data[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			data[key] = next
		}
		data = next
	}
	data[keys[last]] = value
}

// DiffMaps compares two settings trees leaf by leaf and returns the sorted
// dot paths that were added, modified or removed going from old to new.
func DiffMaps(old, new map[string]any) (added, modified, removed []string) {
	before := leaves(old)
	after := leaves(new)

	for path, val := range after {
		prev, ok := before[path]
		switch {
		case !ok:
			added = append(added, path)
		case !cmp.Equal(prev, val):
			modified = append(modified, path)
		}
	}
	for path := range before {
		if _, ok := after[path]; !ok {
			removed = append(removed, path)
		}
	}

	sort.Strings(added)
	sort.Strings(modified)
	sort.Strings(removed)
	return added, modified, removed
}

// leaves maps every non-map value in data to its dot path.
func leaves(data map[string]any) map[string]any {
	out := make(map[string]any)
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for key, val := range m {
			if prefix != "" {
				key = prefix + "." + key
			}
			if nested, ok := val.(map[string]any); ok {
				walk(key, nested)
				continue
			}
			out[key] = val
		}
	}
	walk("", data)
	return out
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, val := range src {
		dst[key] = cloneValue(val)
	}
	return dst
}

func cloneValue(val any) any {
	switch v := val.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = cloneValue(elem)
		}
		return out
	default:
		return val
	}
}
