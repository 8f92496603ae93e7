// Package host defines the contract between the option reconciler and the
// editor that owns the buffers.
//
// The reconciler never talks to an editor directly. Everything it needs
// (the active buffer, its filetype, the EditorConfig buffer variable, the
// user's configuration and the per-buffer option table) is reached through
// the Host interface. Two implementations live in sub-packages:
//
//   - nvimhost: a Neovim RPC client (production)
//   - memhost: an in-memory editor used by tests and dry runs
package host

import (
	"context"
	"errors"
	"fmt"
)

// EventFileType is the event fired after a buffer's filetype is set.
const EventFileType = "FileType"

// Buffer identifies a buffer inside the host. The value is opaque to callers;
// hosts are free to use their native buffer numbers.
type Buffer int

// String returns the buffer number as text.
func (b Buffer) String() string {
	return fmt.Sprintf("%d", int(b))
}

// Document describes the text document shown in a buffer.
type Document struct {
	// Buffer is the buffer holding the document.
	Buffer Buffer

	// LanguageID is the filetype of the buffer (e.g. "go", "python").
	// Empty when the host has not detected one.
	LanguageID string
}

// Subscription is a handle to an event registration.
type Subscription interface {
	// Dispose removes the registration. Calling Dispose more than once
	// is not an error.
	Dispose() error
}

// Host is the editor surface consumed by the reconciler.
type Host interface {
	// ActiveBuffer returns the buffer that currently has focus.
	ActiveBuffer(ctx context.Context) (Buffer, error)

	// Document resolves the document displayed in buf.
	Document(ctx context.Context, buf Buffer) (Document, error)

	// BufferVar returns the buffer-scoped variable name, or nil when unset.
	BufferVar(ctx context.Context, buf Buffer, name string) (any, error)

	// Configuration returns the user's settings under scope for doc.
	// Keys are option names; the map may be empty but is never nil.
	Configuration(ctx context.Context, scope string, doc Document) (map[string]any, error)

	// SetBufferOption sets a buffer-local option. Hosts return an error
	// for unknown names or values they cannot store.
	SetBufferOption(ctx context.Context, buf Buffer, name string, value any) error

	// BufferOption reads a buffer-local option back.
	BufferOption(ctx context.Context, buf Buffer, name string) (any, error)

	// Subscribe calls fn every time event fires until the subscription
	// is disposed.
	Subscribe(ctx context.Context, event string, fn func()) (Subscription, error)
}

// Common host errors.
var (
	// ErrNoActiveBuffer is returned when the host has no buffer with focus.
	ErrNoActiveBuffer = errors.New("no active buffer")

	// ErrUnknownBuffer is returned for a buffer the host does not know.
	ErrUnknownBuffer = errors.New("unknown buffer")

	// ErrUnknownOption is returned by SetBufferOption for names that are
	// not buffer-local options.
	ErrUnknownOption = errors.New("unknown option")

	// ErrInvalidValue is returned when a value has the wrong type for
	// the option.
	ErrInvalidValue = errors.New("invalid value")

	// ErrUnsupportedEvent is returned by Subscribe for events the host
	// cannot deliver.
	ErrUnsupportedEvent = errors.New("unsupported event")
)

// OptionError describes a rejected SetBufferOption call.
type OptionError struct {
	Option string
	Value  any
	Err    error
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("option %q (value %v): %v", e.Option, e.Value, e.Err)
}

func (e *OptionError) Unwrap() error {
	return e.Err
}

// SubscriptionFunc adapts a function to the Subscription interface.
type SubscriptionFunc func() error

// Dispose calls f.
func (f SubscriptionFunc) Dispose() error {
	return f()
}
