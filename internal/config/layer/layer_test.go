package layer

import (
	"testing"
)

func TestNewLayerWithData_NilData(t *testing.T) {
	l := NewLayerWithData("environment", SourceEnv, PriorityEnv, nil)
	if l.Data == nil {
		t.Error("Data should be initialized for nil input")
	}
	if l.Name != "environment" || l.Priority != PriorityEnv || l.Source != SourceEnv {
		t.Errorf("NewLayerWithData() = %+v", l)
	}
}

func TestSource_String(t *testing.T) {
	tests := []struct {
		source Source
		want   string
	}{
		{SourceBuiltin, "builtin"},
		{SourceUser, "user"},
		{SourceWorkspace, "workspace"},
		{SourceEnv, "environment"},
		{SourceSession, "session"},
		{Source(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.source.String(); got != tt.want {
			t.Errorf("Source(%d).String() = %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestStandardLayerName(t *testing.T) {
	tests := map[Source]string{
		SourceBuiltin: "defaults",
		SourceEnv:     "environment",
		SourceSession: "session",
		SourceUser:    "user",
	}
	for source, want := range tests {
		if got := StandardLayerName(source); got != want {
			t.Errorf("StandardLayerName(%v) = %q, want %q", source, got, want)
		}
	}
}

func TestManager_LayersSortedByPriority(t *testing.T) {
	m := NewManager()
	m.PutLayer(NewLayer("workspace:.vim-options.toml", SourceWorkspace, PriorityWorkspace))
	m.PutLayer(NewLayer("defaults", SourceBuiltin, PriorityBuiltin))
	m.PutLayer(NewLayer("user:settings.json", SourceUser, PriorityUser+1))
	m.PutLayer(NewLayer("user:settings.toml", SourceUser, PriorityUser))

	want := []string{"defaults", "user:settings.toml", "user:settings.json", "workspace:.vim-options.toml"}
	got := m.Layers()
	if len(got) != len(want) {
		t.Fatalf("Layers() returned %d layers, want %d", len(got), len(want))
	}
	for i, l := range got {
		if l.Name != want[i] {
			t.Errorf("layer %d = %q, want %q", i, l.Name, want[i])
		}
	}
}

func TestManager_MergePriority(t *testing.T) {
	m := NewManager()
	m.PutLayer(NewLayerWithData("user", SourceUser, PriorityUser, map[string]any{
		"vim-options": map[string]any{"tabstop": int64(8), "textwidth": int64(80)},
	}))
	m.PutLayer(NewLayerWithData("workspace", SourceWorkspace, PriorityWorkspace, map[string]any{
		"vim-options": map[string]any{"tabstop": int64(4)},
	}))

	merged := m.Merge()
	if v, _ := GetByPath(merged, "vim-options.tabstop"); v != int64(4) {
		t.Errorf("tabstop = %v, want 4", v)
	}
	if v, _ := GetByPath(merged, "vim-options.textwidth"); v != int64(80) {
		t.Errorf("textwidth = %v, want 80", v)
	}

	// Mutating the result must not leak into the cache.
	SetByPath(merged, "vim-options.tabstop", int64(1))
	if v, _ := GetByPath(m.Merge(), "vim-options.tabstop"); v != int64(4) {
		t.Errorf("cached tabstop = %v, want 4", v)
	}
}

func TestManager_Provider(t *testing.T) {
	m := NewManager()
	m.PutLayer(NewLayerWithData("user", SourceUser, PriorityUser, map[string]any{
		"vim-options": map[string]any{"tabstop": int64(8), "expandtab": true},
		"[go]":        map[string]any{"vim-options": map[string]any{"expandtab": false}},
	}))
	m.PutLayer(NewLayerWithData("environment", SourceEnv, PriorityEnv, map[string]any{
		"vim-options": map[string]any{"tabstop": int64(2)},
	}))

	tests := []struct {
		keys []string
		want string
	}{
		{[]string{"vim-options", "tabstop"}, "environment"},
		{[]string{"vim-options", "expandtab"}, "user"},
		{[]string{"[go]", "vim-options", "expandtab"}, "user"},
		{[]string{"[go]", "vim-options", "tabstop"}, ""},
		{[]string{"vim-options", "bomb"}, ""},
	}
	for _, tt := range tests {
		var got string
		if l := m.Provider(tt.keys...); l != nil {
			got = l.Name
		}
		if got != tt.want {
			t.Errorf("Provider(%v) = %q, want %q", tt.keys, got, tt.want)
		}
	}
}

func TestManager_PutLayerReplaces(t *testing.T) {
	m := NewManager()
	m.PutLayer(NewLayerWithData("user", SourceUser, PriorityUser, map[string]any{
		"vim-options": map[string]any{"tabstop": int64(8)},
	}))
	m.Merge()

	m.PutLayer(NewLayerWithData("user", SourceUser, PriorityUser, map[string]any{
		"vim-options": map[string]any{"shiftwidth": int64(2)},
	}))

	if n := len(m.Layers()); n != 1 {
		t.Fatalf("len(Layers()) = %d, want 1", n)
	}
	merged := m.Merge()
	if _, ok := GetByPath(merged, "vim-options.tabstop"); ok {
		t.Error("tabstop should be gone after replace")
	}
	if v, _ := GetByPath(merged, "vim-options.shiftwidth"); v != int64(2) {
		t.Errorf("shiftwidth = %v, want 2", v)
	}
}

func TestManager_ReplaceSession(t *testing.T) {
	m := NewManager()
	m.PutLayer(NewLayerWithData("user", SourceUser, PriorityUser, map[string]any{
		"vim-options": map[string]any{"tabstop": int64(8)},
	}))

	pushed := map[string]any{"vim-options": map[string]any{"tabstop": int64(3)}}
	m.ReplaceSession(pushed)
	if v, _ := GetByPath(m.Merge(), "vim-options.tabstop"); v != int64(3) {
		t.Errorf("tabstop = %v, want 3", v)
	}
	if l := m.Provider("vim-options", "tabstop"); l == nil || l.Name != "session" {
		t.Errorf("Provider(tabstop) = %v, want session", l)
	}

	// The session layer keeps its own copy.
	SetByPath(pushed, "vim-options.tabstop", int64(5))
	if v, _ := GetByPath(m.Merge(), "vim-options.tabstop"); v != int64(3) {
		t.Errorf("tabstop = %v after caller mutation, want 3", v)
	}

	m.ReplaceSession(nil)
	if v, _ := GetByPath(m.Merge(), "vim-options.tabstop"); v != int64(8) {
		t.Errorf("tabstop = %v, want 8 after clearing session", v)
	}
	if n := len(m.Layers()); n != 2 {
		t.Errorf("len(Layers()) = %d, want 2", n)
	}
}

func TestManager_RemoveLayer(t *testing.T) {
	m := NewManager()
	m.PutLayer(NewLayerWithData("user", SourceUser, PriorityUser, map[string]any{
		"vim-options": map[string]any{"tabstop": int64(8)},
	}))
	m.PutLayer(NewLayer("workspace", SourceWorkspace, PriorityWorkspace))
	m.Merge()

	if !m.RemoveLayer("user") {
		t.Error("RemoveLayer should return true for existing layer")
	}
	if m.RemoveLayer("user") {
		t.Error("RemoveLayer should return false the second time")
	}
	if _, ok := GetByPath(m.Merge(), "vim-options.tabstop"); ok {
		t.Error("merge cache should drop the removed layer")
	}
	if layers := m.Layers(); len(layers) != 1 || layers[0].Name != "workspace" {
		t.Errorf("Layers() = %v, want only workspace", layers)
	}
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"vim-options": map[string]any{"tabstop": int64(8), "expandtab": false},
	}
	src := map[string]any{
		"vim-options": map[string]any{"expandtab": true},
		"[go]":        map[string]any{"vim-options": map[string]any{"expandtab": false}},
	}

	got := DeepMerge(dst, src)

	if v, _ := GetByPath(got, "vim-options.tabstop"); v != int64(8) {
		t.Errorf("tabstop = %v, want 8", v)
	}
	if v, _ := GetByPath(got, "vim-options.expandtab"); v != true {
		t.Errorf("expandtab = %v, want true", v)
	}
	if v, _ := GetByPath(got, "[go].vim-options.expandtab"); v != false {
		t.Errorf("[go] expandtab = %v, want false", v)
	}

	// Merged maps must not alias src.
	SetByPath(got, "[go].vim-options.expandtab", true)
	if v, _ := GetByPath(src, "[go].vim-options.expandtab"); v != false {
		t.Errorf("src [go] expandtab = %v, want false", v)
	}
}

func TestGetByKeys(t *testing.T) {
	data := map[string]any{
		"vim-options": map[string]any{"tabstop": int64(4)},
	}
	if _, ok := GetByKeys(nil, []string{"vim-options"}); ok {
		t.Error("GetByKeys(nil) should not find anything")
	}
	if _, ok := GetByKeys(data, []string{"vim-options", "tabstop", "x"}); ok {
		t.Error("GetByKeys should not descend into a scalar")
	}
	if v, ok := GetByKeys(data, []string{"vim-options", "tabstop"}); !ok || v != int64(4) {
		t.Errorf("GetByKeys(tabstop) = %v, %v", v, ok)
	}
}

func TestSetByPath_ReplacesScalar(t *testing.T) {
	data := map[string]any{"vim-options": "oops"}
	SetByPath(data, "vim-options.tabstop", int64(4))
	if v, _ := GetByPath(data, "vim-options.tabstop"); v != int64(4) {
		t.Errorf("tabstop = %v, want 4", v)
	}
}

func TestDiffMaps(t *testing.T) {
	old := map[string]any{
		"vim-options": map[string]any{"tabstop": int64(8), "textwidth": int64(80)},
		"[go]":        map[string]any{"vim-options": map[string]any{"expandtab": false}},
	}
	updated := map[string]any{
		"vim-options": map[string]any{"tabstop": int64(4), "expandtab": true, "shiftwidth": int64(4)},
		"[go]":        map[string]any{"vim-options": map[string]any{"expandtab": false}},
	}

	added, modified, removed := DiffMaps(old, updated)

	if len(added) != 2 || added[0] != "vim-options.expandtab" || added[1] != "vim-options.shiftwidth" {
		t.Errorf("added = %v", added)
	}
	if len(modified) != 1 || modified[0] != "vim-options.tabstop" {
		t.Errorf("modified = %v", modified)
	}
	if len(removed) != 1 || removed[0] != "vim-options.textwidth" {
		t.Errorf("removed = %v", removed)
	}
}
