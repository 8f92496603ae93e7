// Package nvimhost implements host.Host on top of a Neovim RPC connection.
//
// Buffer options are read and written with nvim_get_option_value and
// nvim_set_option_value. Events are delivered by autocommands whose
// callbacks rpcnotify this process on a method name unique to the
// subscription.
package nvimhost

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/neovim/go-client/nvim"

	"github.com/dshills/vimoptions/internal/host"
)

// DefaultSessionVar is the global variable holding session settings.
const DefaultSessionVar = "vim_options"

// augroup collects every autocommand created by the host so a restart of
// the remote plugin can clear them.
const augroup = "VimOptions"

// ConfigSource resolves configured option values.
type ConfigSource interface {
	// Section returns the merged settings under scope for languageID.
	Section(scope, languageID string) map[string]any

	// SetSession replaces the session layer.
	SetSession(data map[string]any)
}

// Host is a Neovim-backed host.Host.
type Host struct {
	v          *nvim.Nvim
	config     ConfigSource
	sessionVar string

	mu       sync.Mutex
	session  map[string]any
	handlers map[string]func()
}

// Option configures a Host.
type Option func(*Host)

// WithSessionVar sets the global variable read into the session layer.
// An empty name disables the session layer.
func WithSessionVar(name string) Option {
	return func(h *Host) {
		h.sessionVar = name
	}
}

// New wraps an established connection. The caller owns v and must run
// v.Serve (NewChildProcess and plugin.Main do this already).
func New(v *nvim.Nvim, config ConfigSource, opts ...Option) *Host {
	h := &Host{
		v:          v,
		config:     config,
		sessionVar: DefaultSessionVar,
		handlers:   make(map[string]func()),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Nvim returns the underlying connection.
func (h *Host) Nvim() *nvim.Nvim {
	return h.v
}

// ActiveBuffer implements host.Host.
func (h *Host) ActiveBuffer(ctx context.Context) (host.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	buf, err := h.v.CurrentBuffer()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", host.ErrNoActiveBuffer, err)
	}
	return host.Buffer(buf), nil
}

// Document implements host.Host. The language ID is the buffer's filetype.
func (h *Host) Document(ctx context.Context, buf host.Buffer) (host.Document, error) {
	v, err := h.BufferOption(ctx, buf, "filetype")
	if err != nil {
		return host.Document{}, err
	}
	ft, _ := v.(string)
	return host.Document{Buffer: buf, LanguageID: ft}, nil
}

const bufferVarLua = `
local buf, name = ...
if not vim.api.nvim_buf_is_valid(buf) then
  error('invalid buffer: ' .. buf)
end
return vim.b[buf][name]
`

// BufferVar implements host.Host. An unset variable yields nil.
func (h *Host) BufferVar(ctx context.Context, buf host.Buffer, name string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var result any
	if err := h.v.ExecLua(bufferVarLua, &result, int(buf), name); err != nil {
		return nil, fmt.Errorf("read b:%s: %w", name, err)
	}
	return result, nil
}

// Configuration implements host.Host. The session variable is pushed into
// the config source before the section is resolved.
func (h *Host) Configuration(ctx context.Context, scope string, doc host.Document) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := h.syncSession(); err != nil {
		return nil, err
	}
	section := h.config.Section(scope, doc.LanguageID)
	if section == nil {
		section = map[string]any{}
	}
	return section, nil
}

// syncSession reads g:<sessionVar> and replaces the session layer when it
// changed since the last read.
func (h *Host) syncSession() error {
	if h.sessionVar == "" {
		return nil
	}
	var raw any
	if err := h.v.ExecLua(`return vim.g[...]`, &raw, h.sessionVar); err != nil {
		return fmt.Errorf("read g:%s: %w", h.sessionVar, err)
	}

	var data map[string]any
	switch v := raw.(type) {
	case nil:
	case map[string]any:
		data = v
	case []any:
		// An empty Lua table arrives as an array.
		if len(v) != 0 {
			return fmt.Errorf("g:%s must be a dictionary", h.sessionVar)
		}
	default:
		return fmt.Errorf("g:%s must be a dictionary, got %T", h.sessionVar, raw)
	}

	h.mu.Lock()
	changed := !cmp.Equal(h.session, data)
	h.session = data
	h.mu.Unlock()

	if changed {
		h.config.SetSession(data)
	}
	return nil
}

const setOptionLua = `
local buf, name, value = ...
vim.api.nvim_set_option_value(name, value, { buf = buf })
`

// SetBufferOption implements host.Host. Neovim's error text is kept in the
// returned *host.OptionError.
func (h *Host) SetBufferOption(ctx context.Context, buf host.Buffer, name string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := h.v.ExecLua(setOptionLua, nil, int(buf), name, value); err != nil {
		return &host.OptionError{Option: name, Value: value, Err: err}
	}
	return nil
}

const getOptionLua = `
local buf, name = ...
return vim.api.nvim_get_option_value(name, { buf = buf })
`

// BufferOption implements host.Host.
func (h *Host) BufferOption(ctx context.Context, buf host.Buffer, name string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var result any
	if err := h.v.ExecLua(getOptionLua, &result, int(buf), name); err != nil {
		return nil, &host.OptionError{Option: name, Err: err}
	}
	return result, nil
}

const autocmdLua = `
local event, chan, method = ...
return vim.api.nvim_create_autocmd(event, {
  group = vim.api.nvim_create_augroup('` + augroup + `', { clear = false }),
  callback = function()
    vim.rpcnotify(chan, method)
  end,
})
`

// Subscribe implements host.Host with an autocommand on event.
func (h *Host) Subscribe(ctx context.Context, event string, fn func()) (host.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	method, err := h.handle(fn)
	if err != nil {
		return nil, err
	}

	var id int
	if err := h.v.ExecLua(autocmdLua, &id, event, h.v.ChannelID(), method); err != nil {
		h.drop(method)
		return nil, fmt.Errorf("%w: %s: %v", host.ErrUnsupportedEvent, event, err)
	}

	var once sync.Once
	return host.SubscriptionFunc(func() error {
		var err error
		once.Do(func() {
			h.drop(method)
			err = h.v.ExecLua(`pcall(vim.api.nvim_del_autocmd, ...)`, nil, id)
		})
		return err
	}), nil
}

const userCommandLua = `
local name, chan, method, desc = ...
vim.api.nvim_create_user_command(name, function()
  vim.rpcnotify(chan, method)
end, { desc = desc, force = true })
`

// UserCommand defines the Ex command :name running fn.
func (h *Host) UserCommand(name, desc string, fn func()) error {
	method, err := h.handle(fn)
	if err != nil {
		return err
	}
	if err := h.v.ExecLua(userCommandLua, nil, name, h.v.ChannelID(), method, desc); err != nil {
		h.drop(method)
		return fmt.Errorf("define :%s: %w", name, err)
	}
	return nil
}

// DeleteUserCommand removes :name. A missing command is not an error.
func (h *Host) DeleteUserCommand(name string) error {
	return h.v.ExecLua(`pcall(vim.api.nvim_del_user_command, ...)`, nil, name)
}

const showLinesLua = `
local title, lines = ...
vim.cmd('botright new')
local buf = vim.api.nvim_get_current_buf()
vim.bo[buf].buftype = 'nofile'
vim.bo[buf].bufhidden = 'wipe'
vim.bo[buf].swapfile = false
pcall(vim.api.nvim_buf_set_name, buf, title)
vim.api.nvim_buf_set_lines(buf, 0, -1, false, lines)
vim.bo[buf].modifiable = false
`

// ShowLines opens a scratch split named title holding lines.
func (h *Host) ShowLines(title string, lines []string) error {
	if lines == nil {
		lines = []string{}
	}
	return h.v.ExecLua(showLinesLua, nil, title, lines)
}

// Notify shows msg through vim.notify at the given vim.log.levels name.
func (h *Host) Notify(level, msg string) error {
	return h.v.ExecLua(`local level, msg = ...; vim.notify(msg, vim.log.levels[level])`, nil, level, msg)
}

// handle registers fn under a fresh notification method. go-client cannot
// unregister handlers, so disposed methods are only emptied.
func (h *Host) handle(fn func()) (string, error) {
	method := "vim_options_" + uuid.NewString()

	h.mu.Lock()
	h.handlers[method] = fn
	h.mu.Unlock()

	err := h.v.RegisterHandler(method, func() {
		h.mu.Lock()
		fn := h.handlers[method]
		h.mu.Unlock()
		if fn != nil {
			go fn()
		}
	})
	if err != nil {
		h.drop(method)
		return "", fmt.Errorf("register %s: %w", method, err)
	}
	return method, nil
}

func (h *Host) drop(method string) {
	h.mu.Lock()
	delete(h.handlers, method)
	h.mu.Unlock()
}
