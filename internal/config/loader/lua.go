package loader

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultLuaTimeout bounds how long a settings chunk may run.
const DefaultLuaTimeout = 2 * time.Second

// LuaLoader evaluates a Lua chunk that returns a settings table:
//
//	return {
//	  ["vim-options"] = { tabstop = 4, expandtab = true },
//	  ["[go]"] = { ["vim-options"] = { expandtab = false } },
//	}
//
// The chunk runs in a fresh state with only the base, table, string and
// math libraries.
type LuaLoader struct {
	fs      FileSystem
	path    string
	timeout time.Duration
}

// NewLuaLoader creates a Lua loader for path.
func NewLuaLoader(path string) *LuaLoader {
	return NewLuaLoaderWithFS(DefaultFS(), path)
}

// NewLuaLoaderWithFS creates a Lua loader with a custom file system.
func NewLuaLoaderWithFS(fs FileSystem, path string) *LuaLoader {
	return &LuaLoader{fs: fs, path: path, timeout: DefaultLuaTimeout}
}

// Load reads settings from the configured path.
func (l *LuaLoader) Load() (map[string]any, error) {
	return l.LoadFrom(l.path)
}

// LoadFrom reads settings from a specific path.
func (l *LuaLoader) LoadFrom(path string) (map[string]any, error) {
	data, err := readFile(l.fs, path)
	if err != nil || data == nil {
		return nil, err
	}
	return l.eval(path, string(data))
}

// LoadFromReader reads settings from an io.Reader.
func (l *LuaLoader) LoadFromReader(r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	return l.eval("<reader>", string(data))
}

func (l *LuaLoader) eval(source, code string) (map[string]any, error) {
	L := newSandbox()
	defer L.Close()

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	L.SetContext(ctx)

	fn, err := L.Load(strings.NewReader(code), source)
	if err != nil {
		return nil, &ParseError{Path: source, Message: err.Error(), Err: err}
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return nil, &ParseError{Path: source, Message: err.Error(), Err: err}
	}

	ret := L.Get(-1)
	L.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Path:    source,
			Message: fmt.Sprintf("chunk must return a table, got %s", ret.Type()),
		}
	}

	config, ok := fromLua(tbl).(map[string]any)
	if !ok {
		return nil, &ParseError{Path: source, Message: "chunk must return a table with string keys"}
	}
	return Normalize(config), nil
}

// newSandbox opens only libraries without file or process access.
func newSandbox() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// fromLua converts a Lua value to Go. Tables with only the keys 1..n become
// slices; other tables become maps keyed by their string keys.
func fromLua(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		return float64(val)
	case lua.LString:
		return string(val)
	case *lua.LTable:
		n := val.MaxN()
		count := 0
		val.ForEach(func(lua.LValue, lua.LValue) { count++ })
		if n > 0 && n == count {
			list := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				list = append(list, fromLua(val.RawGetInt(i)))
			}
			return list
		}

		m := make(map[string]any, count)
		val.ForEach(func(k, item lua.LValue) {
			if key, ok := k.(lua.LString); ok {
				m[string(key)] = fromLua(item)
			}
		})
		return m
	default:
		return nil
	}
}
