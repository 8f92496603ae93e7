package vimopt

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// anyType accepts every JSON type. Values are passed to the editor as-is
// and the editor decides whether they are valid.
var anyType = []string{"string", "number", "boolean", "array", "object", "null"}

// Schema builds the configuration contribution describing every cataloged
// option under scope, e.g. "vim-options.tabstop". Each property defaults to
// null, which means "leave the buffer's value alone".
func Schema(scope string) ([]byte, error) {
	const base = "contributes.configuration"

	doc := []byte(`{}`)
	var err error
	if doc, err = sjson.SetBytes(doc, base+".type", "object"); err != nil {
		return nil, err
	}
	if doc, err = sjson.SetBytes(doc, base+".title", scope); err != nil {
		return nil, err
	}

	for _, opt := range All() {
		key := base + ".properties." + EscapePath(scope+"."+opt.Name)
		if doc, err = sjson.SetBytes(doc, key+".type", anyType); err != nil {
			return nil, fmt.Errorf("schema for %s: %w", opt.Name, err)
		}
		if doc, err = sjson.SetRawBytes(doc, key+".default", []byte("null")); err != nil {
			return nil, fmt.Errorf("schema for %s: %w", opt.Name, err)
		}
		if doc, err = sjson.SetBytes(doc, key+".description", describe(opt)); err != nil {
			return nil, fmt.Errorf("schema for %s: %w", opt.Name, err)
		}
	}

	return []byte(gjson.GetBytes(doc, "@pretty").Raw), nil
}

func describe(opt Option) string {
	short := opt.Short
	if short == "" {
		short = opt.Name
	}
	return fmt.Sprintf("%s. (Vim option: '%s', short: '%s', type: %s)", opt.Description, opt.Name, short, opt.Kind)
}

// EscapePath escapes a literal object key for use in a gjson/sjson path.
func EscapePath(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '\\', '|', '#', '@', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
