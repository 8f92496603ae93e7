// Package logging provides the output channel used to report what each
// reconciliation pass did.
//
// The channel is an append-only sequence of human-readable lines. Output
// writes every line through zerolog and keeps the most recent lines in
// memory so the editor can show them on request.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Channel is an append-only diagnostic channel.
type Channel interface {
	AppendLine(line string)
}

// PassScoped is implemented by channels that can tag lines with the
// reconciliation pass that produced them.
type PassScoped interface {
	ForPass(id string) Channel
}

// Level represents log levels.
type Level = zerolog.Level

// Log levels exposed for convenience.
const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
)

// DefaultHistorySize is the number of lines kept in memory.
const DefaultHistorySize = 500

// Config holds output channel configuration.
type Config struct {
	// Name is attached to every entry as the "channel" field.
	Name string
	// Level is the minimum level written. Channel lines are Info.
	Level Level
	// Output is where entries are written. Defaults to os.Stderr.
	Output io.Writer
	// Pretty enables human-readable console output.
	Pretty bool
	// HistorySize bounds the in-memory line history.
	HistorySize int
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Name:        "vim-options",
		Level:       InfoLevel,
		Output:      os.Stderr,
		Pretty:      true,
		HistorySize: DefaultHistorySize,
	}
}

// Output is the production Channel.
type Output struct {
	mu     sync.Mutex
	logger zerolog.Logger
	ring   *Ring
	closer io.Closer
	closed bool
}

// New creates an Output from cfg. If cfg.Output is also an io.Closer it is
// closed by Close.
func New(cfg Config) *Output {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}

	// Passes run concurrently; serialize writes for writers that are not
	// safe for concurrent use.
	w := zerolog.SyncWriter(cfg.Output)
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    true,
			TimeFormat: time.RFC3339,
		}
	}

	ctx := zerolog.New(w).Level(cfg.Level).With().Timestamp()
	if cfg.Name != "" {
		ctx = ctx.Str("channel", cfg.Name)
	}

	o := &Output{
		logger: ctx.Logger(),
		ring:   NewRing(cfg.HistorySize),
	}
	if c, ok := cfg.Output.(io.Closer); ok && cfg.Output != os.Stderr && cfg.Output != os.Stdout {
		o.closer = c
	}
	return o
}

// AppendLine writes line to the log and the history.
func (o *Output) AppendLine(line string) {
	o.write(o.logger, line)
}

// ForPass returns a Channel whose entries carry the pass ID.
func (o *Output) ForPass(id string) Channel {
	return &passChannel{out: o, logger: o.logger.With().Str("pass", id).Logger()}
}

// Logger exposes the underlying logger for diagnostics that are not
// channel lines (startup, reload and shutdown messages).
func (o *Output) Logger() *zerolog.Logger {
	return &o.logger
}

// Lines returns the retained history, oldest first.
func (o *Output) Lines() []string {
	return o.ring.Lines()
}

// Close releases the underlying writer. It is safe to call Close multiple times.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	if o.closer != nil {
		return o.closer.Close()
	}
	return nil
}

func (o *Output) write(logger zerolog.Logger, line string) {
	o.mu.Lock()
	closed := o.closed
	o.mu.Unlock()

	o.ring.Add(line)
	if closed {
		return
	}
	logger.Info().Msg(line)
}

type passChannel struct {
	out    *Output
	logger zerolog.Logger
}

func (p *passChannel) AppendLine(line string) {
	p.out.write(p.logger, line)
}

// OpenFile opens path for appending, creating parent directories.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// DefaultLogPath returns $XDG_STATE_HOME/vim-options/vim-options.log.
func DefaultLogPath() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "vim-options.log")
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "vim-options", "vim-options.log")
}

// ParseLevel parses a log level string (case-insensitive).
// Returns InfoLevel if the string is not recognized.
func ParseLevel(level string) Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DebugLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Discard is a Channel that drops every line.
var Discard Channel = discard{}

type discard struct{}

func (discard) AppendLine(string) {}
