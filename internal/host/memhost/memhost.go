// Package memhost implements host.Host in memory.
//
// Buffers carry an option table seeded from the vimopt catalog. Setting an
// option behaves like Neovim: unknown names and values of the wrong type are
// rejected, short names resolve to long names, and a few options normalize
// what they store so read-back can differ from the requested value.
package memhost

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/vimoptions/internal/host"
	"github.com/dshills/vimoptions/internal/vimopt"
)

// Buffer is an in-memory buffer.
type Buffer struct {
	ID       host.Buffer
	FileType string
	Vars     map[string]any
	options  map[string]any
}

// Host is an in-memory editor.
type Host struct {
	mu      sync.RWMutex
	buffers map[host.Buffer]*Buffer
	active  host.Buffer
	nextID  host.Buffer
	config  ConfigFunc
	rejects map[string]error
	subs    map[string]map[string]func()
	calls   []Call
}

// ConfigFunc answers Configuration calls.
type ConfigFunc func(scope string, doc host.Document) (map[string]any, error)

// Call records a SetBufferOption call.
type Call struct {
	Buffer host.Buffer
	Option string
	Value  any
}

// New creates an empty host with no buffers.
func New() *Host {
	return &Host{
		buffers: make(map[host.Buffer]*Buffer),
		nextID:  1,
		rejects: make(map[string]error),
		subs:    make(map[string]map[string]func()),
	}
}

// Open creates a buffer with the given filetype and makes it active.
func (h *Host) Open(filetype string) host.Buffer {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.buffers[id] = &Buffer{
		ID:       id,
		FileType: filetype,
		Vars:     make(map[string]any),
		options:  vimopt.Defaults(),
	}
	h.buffers[id].options["filetype"] = filetype
	h.active = id
	return id
}

// Focus makes buf the active buffer.
func (h *Host) Focus(buf host.Buffer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.buffers[buf]; !ok {
		return fmt.Errorf("%w: %s", host.ErrUnknownBuffer, buf)
	}
	h.active = buf
	return nil
}

// SetFileType changes the filetype of buf. Subscribers of
// host.EventFileType are not notified; call Fire for that.
func (h *Host) SetFileType(buf host.Buffer, filetype string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.buffers[buf]
	if !ok {
		return fmt.Errorf("%w: %s", host.ErrUnknownBuffer, buf)
	}
	b.FileType = filetype
	b.options["filetype"] = filetype
	return nil
}

// SetVar sets a buffer variable. A nil value unsets it.
func (h *Host) SetVar(buf host.Buffer, name string, value any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.buffers[buf]
	if !ok {
		return fmt.Errorf("%w: %s", host.ErrUnknownBuffer, buf)
	}
	if value == nil {
		delete(b.Vars, name)
		return nil
	}
	b.Vars[name] = value
	return nil
}

// SetConfig installs the configuration source.
func (h *Host) SetConfig(fn ConfigFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.config = fn
}

// StaticConfig returns a ConfigFunc that always answers with a copy of m.
func StaticConfig(m map[string]any) ConfigFunc {
	return func(string, host.Document) (map[string]any, error) {
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, nil
	}
}

// Reject makes every SetBufferOption call for name fail with err.
func (h *Host) Reject(name string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rejects[name] = err
}

// Option returns the stored value of an option without going through the
// Host interface.
func (h *Host) Option(buf host.Buffer, name string) (any, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	b, ok := h.buffers[buf]
	if !ok {
		return nil, false
	}
	v, ok := b.options[name]
	return v, ok
}

// Calls returns every SetBufferOption call that reached a buffer, in order.
func (h *Host) Calls() []Call {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Call, len(h.calls))
	copy(out, h.calls)
	return out
}

// Fire runs every subscriber of event.
func (h *Host) Fire(event string) {
	h.mu.RLock()
	fns := make([]func(), 0, len(h.subs[event]))
	for _, fn := range h.subs[event] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// Subscribers returns the number of live subscriptions for event.
func (h *Host) Subscribers(event string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[event])
}

// ActiveBuffer implements host.Host.
func (h *Host) ActiveBuffer(ctx context.Context) (host.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.buffers[h.active]; !ok {
		return 0, host.ErrNoActiveBuffer
	}
	return h.active, nil
}

// Document implements host.Host.
func (h *Host) Document(ctx context.Context, buf host.Buffer) (host.Document, error) {
	if err := ctx.Err(); err != nil {
		return host.Document{}, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	b, ok := h.buffers[buf]
	if !ok {
		return host.Document{}, fmt.Errorf("%w: %s", host.ErrUnknownBuffer, buf)
	}
	return host.Document{Buffer: buf, LanguageID: b.FileType}, nil
}

// BufferVar implements host.Host.
func (h *Host) BufferVar(ctx context.Context, buf host.Buffer, name string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	b, ok := h.buffers[buf]
	if !ok {
		return nil, fmt.Errorf("%w: %s", host.ErrUnknownBuffer, buf)
	}
	return b.Vars[name], nil
}

// Configuration implements host.Host.
func (h *Host) Configuration(ctx context.Context, scope string, doc host.Document) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.RLock()
	fn := h.config
	h.mu.RUnlock()

	if fn == nil {
		return map[string]any{}, nil
	}
	m, err := fn(scope, doc)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// SetBufferOption implements host.Host.
func (h *Host) SetBufferOption(ctx context.Context, buf host.Buffer, name string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.buffers[buf]
	if !ok {
		return fmt.Errorf("%w: %s", host.ErrUnknownBuffer, buf)
	}
	if err, ok := h.rejects[name]; ok {
		return &host.OptionError{Option: name, Value: value, Err: err}
	}

	opt, ok := vimopt.Lookup(name)
	if !ok {
		return &host.OptionError{Option: name, Value: value, Err: host.ErrUnknownOption}
	}
	stored, err := normalize(opt, value)
	if err != nil {
		return &host.OptionError{Option: name, Value: value, Err: err}
	}

	b.options[opt.Name] = stored
	h.calls = append(h.calls, Call{Buffer: buf, Option: opt.Name, Value: stored})
	return nil
}

// BufferOption implements host.Host.
func (h *Host) BufferOption(ctx context.Context, buf host.Buffer, name string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	b, ok := h.buffers[buf]
	if !ok {
		return nil, fmt.Errorf("%w: %s", host.ErrUnknownBuffer, buf)
	}
	opt, ok := vimopt.Lookup(name)
	if !ok {
		return nil, &host.OptionError{Option: name, Err: host.ErrUnknownOption}
	}
	return b.options[opt.Name], nil
}

// Subscribe implements host.Host.
func (h *Host) Subscribe(ctx context.Context, event string, fn func()) (host.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.NewString()
	if h.subs[event] == nil {
		h.subs[event] = make(map[string]func())
	}
	h.subs[event][id] = fn

	return host.SubscriptionFunc(func() error {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[event], id)
		return nil
	}), nil
}

// normalize converts value to the stored representation of opt.
func normalize(opt vimopt.Option, value any) (any, error) {
	switch opt.Kind {
	case vimopt.KindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: expected boolean, got %T", host.ErrInvalidValue, value)
		}
		return b, nil

	case vimopt.KindNumber:
		n, ok := vimopt.Int64(value)
		if !ok {
			return nil, fmt.Errorf("%w: expected number, got %T", host.ErrInvalidValue, value)
		}
		switch opt.Name {
		case "tabstop":
			if n <= 0 {
				return nil, fmt.Errorf("%w: argument must be positive", host.ErrInvalidValue)
			}
		case "shiftwidth", "textwidth", "wrapmargin", "synmaxcol":
			if n < 0 {
				return nil, fmt.Errorf("%w: argument must be positive", host.ErrInvalidValue)
			}
		}
		if n > math.MaxInt32 || n < math.MinInt32 {
			return nil, fmt.Errorf("%w: number too large", host.ErrInvalidValue)
		}
		return n, nil

	case vimopt.KindString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected string, got %T", host.ErrInvalidValue, value)
		}
		switch opt.Name {
		case "fileencoding":
			s = strings.ToLower(s)
		case "fileformat":
			if s != "unix" && s != "dos" && s != "mac" {
				return nil, fmt.Errorf("%w: invalid fileformat %q", host.ErrInvalidValue, s)
			}
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: unsupported kind %v", host.ErrInvalidValue, opt.Kind)
}
