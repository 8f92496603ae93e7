// Package schema checks configured option values against the buffer
// option catalog.
//
// Validation is advisory. The reconciler passes values to the editor
// unchanged and lets it reject what it cannot store; the validator only
// points out entries that will fail, or that EditorConfig cannot
// suppress, before a pass runs.
package schema

import (
	"sort"

	"github.com/dshills/vimoptions/internal/vimopt"
)

// Validator checks option sections.
type Validator struct {
	strict bool
}

// NewValidator creates a validator in strict mode.
func NewValidator() *Validator {
	return &Validator{strict: true}
}

// WithStrictMode enables or disables reporting of names missing from the
// catalog. Disable it when the editor is newer than the catalog.
func (v *Validator) WithStrictMode(strict bool) *Validator {
	v.strict = strict
	return v
}

// Validate checks every option in section. Paths in the result are
// prefix + "." + option, in option name order.
func (v *Validator) Validate(prefix string, section map[string]any) *ValidationErrors {
	errs := &ValidationErrors{}

	names := make([]string, 0, len(section))
	for name := range section {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := section[name]
		path := joinPath(prefix, name)

		opt, ok := vimopt.Lookup(name)
		if !ok {
			if v.strict {
				errs.AddError(NewUnknownOptionError(path, value))
			}
			continue
		}
		if opt.Name != name {
			errs.AddError(NewShortNameError(path, name, opt.Name, value))
		}
		if !matchesKind(value, opt.Kind) {
			errs.AddError(NewTypeError(path, opt.Kind.String(), value))
		}
	}
	return errs
}

// matchesKind reports whether Neovim would accept value for an option of
// kind k without conversion.
func matchesKind(value any, k vimopt.Kind) bool {
	switch k {
	case vimopt.KindBool:
		_, ok := value.(bool)
		return ok
	case vimopt.KindNumber:
		_, ok := vimopt.Int64(value)
		return ok
	case vimopt.KindString:
		_, ok := value.(string)
		return ok
	default:
		return false
	}
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}
