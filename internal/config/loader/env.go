package loader

import (
	"os"
	"strconv"
	"strings"
)

// DefaultEnvPrefix is the prefix of option environment variables.
const DefaultEnvPrefix = "VIM_OPTIONS_"

// EnvLoader loads option values from environment variables.
//
// VIM_OPTIONS_TABSTOP=4 sets tabstop in the scope section. A language can be
// targeted with a double underscore: VIM_OPTIONS_PYTHON__SHIFTWIDTH=4 sets
// shiftwidth in the "[python]" section.
type EnvLoader struct {
	prefix  string              // Environment variable prefix (e.g., "VIM_OPTIONS_")
	scope   string              // Section the values are placed in
	mapping map[string][]string // Env var -> settings path
	environ func() []string
}

// NewEnvLoader creates an environment loader placing values under scope.
// The prefix should include the trailing underscore.
func NewEnvLoader(prefix, scope string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		scope:   scope,
		mapping: make(map[string][]string),
		environ: os.Environ,
	}
}

// NewEnvLoaderWithEnviron creates a loader reading variables from environ
// instead of the process environment.
func NewEnvLoaderWithEnviron(prefix, scope string, environ []string) *EnvLoader {
	l := NewEnvLoader(prefix, scope)
	l.environ = func() []string { return environ }
	return l
}

// AddMapping maps an environment variable to an explicit dot-separated
// settings path.
func (l *EnvLoader) AddMapping(envVar, path string) {
	l.mapping[envVar] = strings.Split(path, ".")
}

// Load reads environment variables and returns a settings map.
// Empty values are skipped.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for _, env := range l.environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || value == "" {
			continue
		}

		path, mapped := l.mapping[name]
		if !mapped {
			if !strings.HasPrefix(name, l.prefix) || name == l.prefix {
				continue
			}
			path = l.envToPath(name)
		}
		setPath(config, path, ParseValue(value))
	}

	return Normalize(config), nil
}

// envToPath converts VIM_OPTIONS_PYTHON__TABSTOP to "[python]".<scope>.tabstop.
func (l *EnvLoader) envToPath(env string) []string {
	name := strings.ToLower(strings.TrimPrefix(env, l.prefix))
	if lang, opt, ok := strings.Cut(name, "__"); ok {
		return []string{LanguageKey(lang), l.scope, opt}
	}
	return []string{l.scope, name}
}

// ParseValue converts an environment string into a bool, an int64 or a
// string. Only true and false are booleans, so "1" stays a number.
func ParseValue(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	return s
}

// setPath sets a value in a nested map. The scope may contain dots, so
// paths are passed pre-split.
func setPath(data map[string]any, parts []string, value any) {
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
