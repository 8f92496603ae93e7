package layer

// Priority levels. Higher values override lower values during merging.
// File layers add their position in the search order, so two user files
// never share a priority.
const (
	PriorityBuiltin   = 0
	PriorityUser      = 100
	PriorityWorkspace = 200
	PriorityEnv       = 500
	PrioritySession   = 1000
)

// StandardLayerName returns the name a non-file source is registered under.
func StandardLayerName(source Source) string {
	switch source {
	case SourceBuiltin:
		return "defaults"
	case SourceEnv:
		return "environment"
	case SourceSession:
		return "session"
	default:
		return source.String()
	}
}
