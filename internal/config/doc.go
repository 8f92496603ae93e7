// Package config resolves the buffer option values a user configured.
//
// Settings come from layers, higher layers overriding lower:
//
//	┌───────────────────────────────┐
//	│  5. Session (g:vim_options)   │  ← Highest priority
//	├───────────────────────────────┤
//	│  4. Environment               │  ← VIM_OPTIONS_<OPTION>
//	├───────────────────────────────┤
//	│  3. Workspace                 │  ← .vim-options.{toml,json}
//	├───────────────────────────────┤
//	│  2. User settings             │  ← settings.{toml,yaml,yml,json,lua}
//	├───────────────────────────────┤
//	│  1. Built-in defaults (empty) │  ← Lowest priority
//	└───────────────────────────────┘
//
// Every file uses the same shape. Option values live under the scope
// section ("vim-options" by default), written nested or as dotted keys.
// Language overrides live under "[<lang>]" keys with the same shape:
//
//	[vim-options]
//	tabstop = 4
//	expandtab = true
//
//	[filetype.go.vim-options]   # TOML spelling of "[go]"
//	expandtab = false
//
// Store.Section merges the scope section across all layers and then
// applies the merged language section on top.
//
// # Sub-packages
//
//   - layer: the priority-ordered layer stack and deep merge
//   - loader: TOML, YAML, JSON with comments, Lua and environment loaders
//   - notify: change fan-out to observers
//   - watcher: debounced fsnotify watcher for live reload
package config
