// Package app wires the configuration store, the output channel and the
// reconciler to a host and manages the extension lifecycle.
//
// Activate runs one pass against the active buffer, then keeps buffers in
// step with the configuration: every FileType event and every settings
// reload triggers another pass. Shutdown undoes all registrations.
package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/vimoptions/internal/config"
	"github.com/dshills/vimoptions/internal/config/layer"
	"github.com/dshills/vimoptions/internal/config/notify"
	"github.com/dshills/vimoptions/internal/host"
	"github.com/dshills/vimoptions/internal/logging"
	"github.com/dshills/vimoptions/internal/reconcile"
)

// Application is the running extension.
type Application struct {
	mu sync.Mutex

	store      *config.Store
	output     *logging.Output
	reconciler *reconcile.Reconciler
	subs       *subscriptionManager

	host   host.Host
	active atomic.Bool
	closed bool
	done   chan struct{}

	opts Options
}

// Options configures the application.
type Options struct {
	// ConfigDir is the user settings directory. Defaults to
	// $XDG_CONFIG_HOME/vim-options.
	ConfigDir string

	// WorkspacePath is the project directory searched for .vim-options files.
	WorkspacePath string

	// Scope is the settings section holding option values.
	Scope string

	// EditorConfigVar is the buffer variable holding EditorConfig state.
	EditorConfigVar string

	// Environ replaces the process environment for VIM_OPTIONS_ variables.
	// Nil means os.Environ.
	Environ []string

	// Watch enables live reload of settings files after activation.
	Watch bool

	// Debounce is the quiet period before a changed file is re-read.
	Debounce time.Duration

	// LogLevel sets the logging verbosity.
	LogLevel string

	// LogOutput receives log entries. Defaults to os.Stderr.
	LogOutput io.Writer

	// LogJSON writes raw JSON entries instead of console lines.
	LogJSON bool

	// PassIDs overrides pass ID generation.
	PassIDs func() string
}

// New creates an Application and loads the settings. Settings files that
// fail to parse are logged and skipped.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts: opts,
		subs: newSubscriptionManager(),
		done: make(chan struct{}),
	}

	if err := app.bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap initializes components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Output channel
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(app.opts.LogLevel)
	logCfg.Pretty = !app.opts.LogJSON
	if app.opts.LogOutput != nil {
		logCfg.Output = app.opts.LogOutput
	}
	app.output = logging.New(logCfg)
	log := app.output.Logger()

	// 2. Settings
	storeOpts := []config.Option{
		config.WithUserConfigDir(app.opts.ConfigDir),
		config.WithScope(app.opts.Scope),
		config.WithErrorHandler(func(err error) {
			log.Warn().Err(err).Msg("settings reload failed")
		}),
	}
	if app.opts.WorkspacePath != "" {
		storeOpts = append(storeOpts, config.WithWorkspaceDir(app.opts.WorkspacePath))
	}
	if app.opts.Environ != nil {
		storeOpts = append(storeOpts, config.WithEnviron(app.opts.Environ))
	}
	if app.opts.Debounce > 0 {
		storeOpts = append(storeOpts, config.WithDebounce(app.opts.Debounce))
	}
	app.store = config.New(storeOpts...)

	if err := app.store.Load(context.Background()); err != nil {
		// Parse errors are non-fatal; the file is skipped.
		log.Warn().Err(err).Msg("settings skipped")
	}

	// 3. Reconciler
	recOpts := []reconcile.Option{
		reconcile.WithScope(app.store.Scope()),
		reconcile.WithEditorConfigVar(app.opts.EditorConfigVar),
	}
	if app.opts.PassIDs != nil {
		recOpts = append(recOpts, reconcile.WithPassIDs(app.opts.PassIDs))
	}
	app.reconciler = reconcile.New(app.output, recOpts...)

	return nil
}

// Activate attaches the application to h: it runs one pass against the
// active buffer, subscribes to FileType, defines the Ex commands when h
// supports them and starts watching settings files.
//
// A failed initial pass is logged, not returned. A failed registration
// rolls back the ones made so far.
func (app *Application) Activate(ctx context.Context, h host.Host) error {
	app.mu.Lock()
	if app.closed {
		app.mu.Unlock()
		return ErrShutdown
	}
	if !app.active.CompareAndSwap(false, true) {
		app.mu.Unlock()
		return ErrAlreadyActive
	}
	app.host = h
	app.mu.Unlock()

	log := app.output.Logger()
	log.Info().Str("scope", app.store.Scope()).Msg("activating")

	app.runPass(ctx, "activate")

	if err := app.subscribe(ctx, h); err != nil {
		_ = app.subs.disposeAll()
		app.mu.Lock()
		app.host = nil
		app.mu.Unlock()
		app.active.Store(false)
		return &InitError{Component: "subscriptions", Err: err}
	}

	if app.opts.Watch {
		if err := app.store.Watch(); err != nil {
			// Live reload is optional.
			log.Warn().Err(err).Msg("settings watcher not started")
		} else {
			log.Debug().Strs("files", app.store.WatchedFiles()).Msg("watching settings")
		}
	}
	return nil
}

// FileTypeChangedLine is written to the output channel before each pass a
// FileType event starts.
const FileTypeChangedLine = "filetype changed: updating options"

func (app *Application) subscribe(ctx context.Context, h host.Host) error {
	sub, err := h.Subscribe(ctx, host.EventFileType, func() {
		app.output.AppendLine(FileTypeChangedLine)
		app.runPass(context.Background(), host.EventFileType)
	})
	if err != nil {
		return err
	}
	app.subs.add(sub)

	app.subs.addConfig(app.store.Subscribe(app.onSettingsChange))

	if ch, ok := h.(CommandHost); ok {
		if err := app.registerCommands(ch); err != nil {
			return err
		}
	}
	return nil
}

// onSettingsChange re-runs the reconciler after a layer was re-read. The
// session layer is refreshed from inside a pass, so it does not trigger
// another one.
func (app *Application) onSettingsChange(c notify.Change) {
	if c.Type != notify.ChangeReload || c.Layer == layer.StandardLayerName(layer.SourceSession) {
		return
	}
	app.output.Logger().Info().Str("layer", c.Layer).Msg("settings reloaded")
	go app.runPass(context.Background(), "reload")
}

// Reconcile runs one pass against the active buffer of the attached host.
func (app *Application) Reconcile(ctx context.Context) (*reconcile.Report, error) {
	app.mu.Lock()
	h := app.host
	app.mu.Unlock()
	if h == nil {
		return nil, ErrNotActive
	}
	return app.reconciler.Reconcile(ctx, h)
}

// runPass runs a pass for trigger and logs a resolution failure. Per-option
// failures are already in the channel.
func (app *Application) runPass(ctx context.Context, trigger string) {
	report, err := app.Reconcile(ctx)
	log := app.output.Logger()
	if err != nil {
		if errors.Is(err, ErrNotActive) {
			return
		}
		log.Warn().Err(err).Str("trigger", trigger).Msg("pass aborted")
		return
	}
	log.Debug().
		Str("trigger", trigger).
		Str("pass", report.PassID).
		Strs("applied", report.Options(reconcile.StatusApplied)).
		Strs("failed", report.Options(reconcile.StatusFailed)).
		Strs("suppressed", report.Options(reconcile.StatusSuppressed)).
		Msg("pass complete")
}

// Shutdown disposes every registration, stops the settings watcher and
// closes the output channel. Errors are joined. Calling Shutdown more than
// once is safe.
func (app *Application) Shutdown() error {
	app.mu.Lock()
	if app.closed {
		app.mu.Unlock()
		return nil
	}
	app.closed = true
	app.host = nil
	app.mu.Unlock()

	app.active.Store(false)
	app.output.Logger().Info().Msg("shutting down")

	var errs []error
	if err := app.subs.disposeAll(); err != nil {
		errs = append(errs, &ComponentError{Component: "host", Action: "dispose", Err: err})
	}
	if err := app.store.Close(); err != nil {
		errs = append(errs, &ComponentError{Component: "config", Action: "close", Err: err})
	}
	if err := app.output.Close(); err != nil {
		errs = append(errs, &ComponentError{Component: "log", Action: "close", Err: err})
	}
	close(app.done)
	return errors.Join(errs...)
}

// Done is closed by Shutdown.
func (app *Application) Done() <-chan struct{} {
	return app.done
}

// IsActive reports whether a host is attached.
func (app *Application) IsActive() bool {
	return app.active.Load()
}

// Store returns the settings store.
func (app *Application) Store() *config.Store {
	return app.store
}

// Output returns the output channel.
func (app *Application) Output() *logging.Output {
	return app.output
}

// Reconciler returns the reconciler.
func (app *Application) Reconciler() *reconcile.Reconciler {
	return app.reconciler
}
