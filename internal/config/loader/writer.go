package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
	"github.com/tidwall/sjson"
)

// SetJSONValue writes value at keys in the JSON settings file at path and
// replaces the file atomically. A nil value deletes the key. The file and
// its directory are created when missing.
//
// When the file already spells the option as a single dotted key
// ("vim-options.tabstop"), that key is updated in place; otherwise the
// value is written nested. Comments are not preserved.
func SetJSONValue(path string, keys []string, value any) error {
	if len(keys) == 0 {
		return errors.New("set settings value: empty key")
	}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read settings file: %w", err)
	}
	data = jsonc.ToJSON(data)
	if len(strings.TrimSpace(string(data))) == 0 {
		data = []byte("{}")
	}
	if !gjson.ValidBytes(data) {
		return &ParseError{Path: path, Message: "invalid JSON"}
	}

	target := jsonPath(keys)
	if len(keys) >= 2 {
		// Prefer an existing dotted spelling of the last two segments.
		dotted := append(append([]string(nil), keys[:len(keys)-2]...), keys[len(keys)-2]+"."+keys[len(keys)-1])
		if gjson.GetBytes(data, jsonPath(dotted)).Exists() {
			target = jsonPath(dotted)
		}
	}

	if value == nil {
		data, err = sjson.DeleteBytes(data, target)
	} else {
		data, err = sjson.SetBytes(data, target, value)
	}
	if err != nil {
		return fmt.Errorf("update %s: %w", strings.Join(keys, "."), err)
	}
	data = []byte(gjson.GetBytes(data, "@pretty").Raw)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("atomically replace settings file: %w", err)
	}
	return nil
}

// jsonPath joins keys into a gjson/sjson path, escaping path syntax.
// Brackets are escaped too: gjson reads a leading '[' as a multipath.
func jsonPath(keys []string) string {
	escaped := make([]string, len(keys))
	for i, k := range keys {
		escaped[i] = escapeKey(k)
	}
	return strings.Join(escaped, ".")
}

func escapeKey(k string) string {
	var b strings.Builder
	for _, r := range k {
		switch r {
		case '.', '*', '?', '\\', '|', '#', '@', '!', '=', '<', '>', '%', '[', ']', '{', '}':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
