package layer

import (
	"slices"
	"sync"
)

// Manager holds the layer stack and caches the merged result.
type Manager struct {
	mu     sync.RWMutex
	layers []*Layer // ascending priority
	merged map[string]any
}

// NewManager creates an empty layer manager.
func NewManager() *Manager {
	return &Manager{}
}

// PutLayer replaces the layer with the same name, or adds it.
// Reloading a settings file goes through here.
func (m *Manager) PutLayer(l *Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.index(l.Name); i >= 0 {
		m.layers[i] = l
	} else {
		m.layers = append(m.layers, l)
	}
	m.invalidate()
}

// RemoveLayer drops the named layer and reports whether it was present.
func (m *Manager) RemoveLayer(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(name)
	if i < 0 {
		return false
	}
	m.layers = slices.Delete(m.layers, i, i+1)
	m.invalidate()
	return true
}

// ReplaceSession swaps the session layer's data for a copy of data,
// creating the layer on first use. A nil map empties the session.
func (m *Manager) ReplaceSession(data map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := StandardLayerName(SourceSession)
	session := NewLayerWithData(name, SourceSession, PrioritySession, cloneMap(data))
	if i := m.index(name); i >= 0 {
		m.layers[i] = session
	} else {
		m.layers = append(m.layers, session)
	}
	m.invalidate()
}

// Layers returns the layers in priority order.
func (m *Manager) Layers() []*Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.layers)
}

// Merge folds every layer into one map, lowest priority first. The result
// is a copy the caller may modify.
func (m *Manager) Merge() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.merged == nil {
		merged := make(map[string]any)
		for _, l := range m.layers {
			merged = DeepMerge(merged, l.Data)
		}
		m.merged = merged
	}
	return cloneMap(m.merged)
}

// Provider returns the highest-priority layer that sets the value at keys,
// or nil. Keys are taken literally, so "[go]" and option names containing
// dots need no escaping.
func (m *Manager) Provider(keys ...string) *Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.layers) - 1; i >= 0; i-- {
		if _, ok := GetByKeys(m.layers[i].Data, keys); ok {
			return m.layers[i]
		}
	}
	return nil
}

// invalidate re-sorts the stack and drops the merge cache. Must hold m.mu.
func (m *Manager) invalidate() {
	slices.SortStableFunc(m.layers, func(a, b *Layer) int {
		return a.Priority - b.Priority
	})
	m.merged = nil
}

func (m *Manager) index(name string) int {
	return slices.IndexFunc(m.layers, func(l *Layer) bool { return l.Name == name })
}
