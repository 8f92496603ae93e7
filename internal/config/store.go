package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dshills/vimoptions/internal/config/layer"
	"github.com/dshills/vimoptions/internal/config/loader"
	"github.com/dshills/vimoptions/internal/config/notify"
	"github.com/dshills/vimoptions/internal/config/watcher"
)

// DefaultScope is the settings section holding option values.
const DefaultScope = "vim-options"

// fileSource describes the layer a settings file feeds.
type fileSource struct {
	layer    string
	source   layer.Source
	priority int
}

// Store resolves vim-options settings from every layer and keeps them
// current while files change.
type Store struct {
	mu sync.RWMutex

	layers   *layer.Manager
	notifier *notify.Notifier
	watcher  *watcher.Watcher
	fs       loader.FileSystem

	userDir      string
	workspaceDir string
	scope        string
	environ      []string
	envSet       bool
	debounce     time.Duration
	onError      func(error)

	files  map[string]fileSource
	loaded bool
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithUserConfigDir sets the user settings directory.
func WithUserConfigDir(dir string) Option {
	return func(s *Store) {
		if dir != "" {
			s.userDir = dir
		}
	}
}

// WithWorkspaceDir sets the project root searched for .vim-options files.
func WithWorkspaceDir(dir string) Option {
	return func(s *Store) {
		s.workspaceDir = dir
	}
}

// WithScope sets the section option values are read from.
func WithScope(scope string) Option {
	return func(s *Store) {
		if scope != "" {
			s.scope = scope
		}
	}
}

// WithFS reads settings files through fsys.
func WithFS(fsys loader.FileSystem) Option {
	return func(s *Store) {
		s.fs = fsys
	}
}

// WithEnviron reads option variables from environ instead of the process
// environment.
func WithEnviron(environ []string) Option {
	return func(s *Store) {
		s.environ = environ
		s.envSet = true
	}
}

// WithDebounce sets the quiet period before a changed file is re-read.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		s.debounce = d
	}
}

// WithErrorHandler receives errors hit while reloading in the background.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Store) {
		s.onError = fn
	}
}

// New creates a Store. Nothing is read until Load.
func New(opts ...Option) *Store {
	s := &Store{
		layers:   layer.NewManager(),
		notifier: notify.New(),
		fs:       loader.DefaultFS(),
		userDir:  DefaultUserConfigDir(),
		scope:    DefaultScope,
		debounce: watcher.DefaultDebounce,
		files:    make(map[string]fileSource),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scope returns the section option values are read from.
func (s *Store) Scope() string {
	return s.scope
}

// UserDir returns the user settings directory.
func (s *Store) UserDir() string {
	return s.userDir
}

// Load reads every layer. A file that fails to parse is reported in the
// returned error and skipped; the other layers still load.
func (s *Store) Load(_ context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}

	s.layers.PutLayer(layer.NewLayer(layer.StandardLayerName(layer.SourceBuiltin), layer.SourceBuiltin, layer.PriorityBuiltin))

	for i, path := range UserSettingsFiles(s.userDir) {
		s.files[absPath(path)] = fileSource{
			layer:    "user:" + filepath.Base(path),
			source:   layer.SourceUser,
			priority: layer.PriorityUser + i,
		}
	}
	if s.workspaceDir != "" {
		for i, path := range WorkspaceSettingsFiles(s.workspaceDir) {
			s.files[absPath(path)] = fileSource{
				layer:    "workspace:" + filepath.Base(path),
				source:   layer.SourceWorkspace,
				priority: layer.PriorityWorkspace + i,
			}
		}
	}

	var errs []error
	for _, path := range s.sortedFiles() {
		if err := s.loadFile(path); err != nil {
			errs = append(errs, err)
		}
	}

	env := loader.NewEnvLoader(loader.DefaultEnvPrefix, s.scope)
	if s.envSet {
		env = loader.NewEnvLoaderWithEnviron(loader.DefaultEnvPrefix, s.scope, s.environ)
	}
	data, err := env.Load()
	if err != nil {
		errs = append(errs, err)
	} else {
		s.layers.PutLayer(layer.NewLayerWithData(layer.StandardLayerName(layer.SourceEnv), layer.SourceEnv, layer.PriorityEnv, data))
	}

	s.loaded = true
	s.mu.Unlock()

	return errors.Join(errs...)
}

// loadFile reads one settings file into its layer. Must hold s.mu.
func (s *Store) loadFile(path string) error {
	src := s.files[path]
	l, err := loader.ForPath(s.fs, path)
	if err != nil {
		return &FileError{Path: path, Layer: src.layer, Err: err}
	}
	data, err := l.Load()
	if err != nil {
		return &FileError{Path: path, Layer: src.layer, Err: err}
	}
	if data == nil {
		s.layers.RemoveLayer(src.layer)
		return nil
	}

	nl := layer.NewLayerWithData(src.layer, src.source, src.priority, data)
	nl.Path = path
	s.layers.PutLayer(nl)
	return nil
}

// Section returns the option values for a language: the scope section
// overridden by the "[<lang>]" section. The result is a fresh map.
func (s *Store) Section(scope, languageID string) map[string]any {
	if scope == "" {
		scope = s.scope
	}
	merged := s.layers.Merge()

	out := make(map[string]any)
	if base, ok := layer.GetByPath(merged, scope); ok {
		if m, ok := base.(map[string]any); ok {
			out = layer.DeepMerge(out, m)
		}
	}
	if languageID != "" {
		if lang, ok := merged[loader.LanguageKey(languageID)].(map[string]any); ok {
			if sect, ok := layer.GetByPath(lang, scope); ok {
				if m, ok := sect.(map[string]any); ok {
					out = layer.DeepMerge(out, m)
				}
			}
		}
	}
	return out
}

// Origin returns the name of the layer that supplies option for a
// language, or "" when no layer sets it.
func (s *Store) Origin(languageID, option string) string {
	if languageID != "" {
		if l := s.layers.Provider(loader.LanguageKey(languageID), s.scope, option); l != nil {
			return l.Name
		}
	}
	if l := s.layers.Provider(s.scope, option); l != nil {
		return l.Name
	}
	return ""
}

// Layers returns the layers in priority order.
func (s *Store) Layers() []*layer.Layer {
	return s.layers.Layers()
}

// SetSession replaces the session layer with values pushed by the editor.
// data uses the settings file shape and is normalized first.
func (s *Store) SetSession(data map[string]any) {
	before := s.layers.Merge()
	s.layers.ReplaceSession(loader.Normalize(data))
	s.publish(layer.StandardLayerName(layer.SourceSession), before)
}

// Set writes option for languageID (empty for all languages) into the user
// settings.json and reloads it. A nil value removes the option.
func (s *Store) Set(languageID, option string, value any) error {
	keys := []string{s.scope, option}
	if languageID != "" {
		keys = append([]string{loader.LanguageKey(languageID)}, keys...)
	}

	path := UserJSONSettings(s.userDir)
	if err := loader.SetJSONValue(path, keys, value); err != nil {
		return err
	}
	return s.Reload(path)
}

// Reload re-reads one settings file and publishes what changed. On a parse
// error the previous layer is kept.
func (s *Store) Reload(path string) error {
	path = absPath(path)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	src, ok := s.files[path]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("not a settings file: %s", path)
	}
	before := s.layers.Merge()
	err := s.loadFile(path)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.publish(src.layer, before)
	return nil
}

// publish diffs the merged settings against before and notifies observers.
func (s *Store) publish(layerName string, before map[string]any) {
	after := s.layers.Merge()
	added, modified, removed := layer.DiffMaps(before, after)
	if len(added)+len(modified)+len(removed) == 0 {
		return
	}

	batch := s.notifier.NewBatch()
	changed := append(added, modified...)
	sort.Strings(changed)
	for _, path := range changed {
		oldVal, _ := layer.GetByPath(before, path)
		newVal, _ := layer.GetByPath(after, path)
		batch.Add(notify.Change{Path: path, Type: notify.ChangeSet, OldValue: oldVal, NewValue: newVal, Layer: layerName})
	}
	for _, path := range removed {
		oldVal, _ := layer.GetByPath(before, path)
		batch.Add(notify.Change{Path: path, Type: notify.ChangeDelete, OldValue: oldVal, Layer: layerName})
	}
	batch.Add(notify.Change{Type: notify.ChangeReload, Layer: layerName})
	batch.Commit()
}

// Subscribe registers an observer for settings changes.
func (s *Store) Subscribe(observer notify.Observer) *notify.Subscription {
	return s.notifier.Subscribe(observer)
}

// Watch starts re-reading settings files when they change on disk. Files
// whose directory does not exist are not watched.
func (s *Store) Watch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if !s.loaded {
		return ErrNotLoaded
	}
	if s.watcher != nil {
		return nil
	}

	w, err := watcher.New(watcher.WithDebounce(s.debounce), watcher.WithErrorHandler(s.reportError))
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}
	for _, path := range s.sortedFiles() {
		if _, err := w.WatchIfDirExists(path); err != nil {
			_ = w.Close()
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
	w.OnChange(s.handleFileChange)
	w.Start()
	s.watcher = w
	return nil
}

// WatchedFiles returns the files being watched.
func (s *Store) WatchedFiles() []string {
	s.mu.RLock()
	w := s.watcher
	s.mu.RUnlock()
	if w == nil {
		return nil
	}
	return w.WatchedFiles()
}

func (s *Store) handleFileChange(event watcher.Event) {
	if err := s.Reload(event.Path); err != nil && !errors.Is(err, ErrClosed) {
		s.reportError(err)
	}
}

func (s *Store) reportError(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}

// Close stops watching and releases observers. It is safe to call Close
// multiple times.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	var err error
	if w != nil {
		err = w.Close()
	}
	s.notifier.Close()
	return err
}

func (s *Store) sortedFiles() []string {
	paths := make([]string, 0, len(s.files))
	for path := range s.files {
		paths = append(paths, path)
	}
	sort.Slice(paths, func(i, j int) bool {
		return s.files[paths[i]].priority < s.files[paths[j]].priority
	})
	return paths
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
