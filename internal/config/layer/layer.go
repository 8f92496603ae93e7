// Package layer stacks vim-options settings sources by priority.
//
// Each settings file, the environment and the session dictionary pushed by
// the editor become one Layer. Merging walks the layers from lowest to
// highest priority, so a workspace file overrides the user file and the
// session overrides everything.
package layer

// Layer is one settings source.
type Layer struct {
	// Name identifies the layer, such as "user:settings.toml" or "session".
	Name string

	// Priority determines merge order (higher overrides lower).
	Priority int

	Source Source

	// Path is the settings file, empty for non-file layers.
	Path string

	// Data holds the settings in file shape: scope sections and
	// "[lang]" tables.
	Data map[string]any
}

// NewLayer creates an empty layer.
func NewLayer(name string, source Source, priority int) *Layer {
	return NewLayerWithData(name, source, priority, nil)
}

// NewLayerWithData creates a layer holding data. The layer takes ownership
// of data.
func NewLayerWithData(name string, source Source, priority int, data map[string]any) *Layer {
	if data == nil {
		data = make(map[string]any)
	}
	return &Layer{Name: name, Source: source, Priority: priority, Data: data}
}

// Source indicates where a layer came from.
type Source uint8

const (
	// SourceBuiltin holds built-in defaults.
	SourceBuiltin Source = iota
	// SourceUser is the user settings directory ($XDG_CONFIG_HOME/vim-options).
	SourceUser
	// SourceWorkspace is a settings file in the project root.
	SourceWorkspace
	// SourceEnv holds VIM_OPTIONS_* environment variables.
	SourceEnv
	// SourceSession holds values pushed by the running editor.
	SourceSession
)

// String returns a human-readable name for the source.
func (s Source) String() string {
	switch s {
	case SourceBuiltin:
		return "builtin"
	case SourceUser:
		return "user"
	case SourceWorkspace:
		return "workspace"
	case SourceEnv:
		return "environment"
	case SourceSession:
		return "session"
	default:
		return "unknown"
	}
}
