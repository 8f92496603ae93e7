package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/dshills/vimoptions/internal/host"
	"github.com/dshills/vimoptions/internal/logging"
)

const (
	// DefaultScope is the configuration namespace holding option values.
	DefaultScope = "vim-options"

	// DefaultEditorConfigVar is the buffer variable Neovim's EditorConfig
	// integration stores the resolved properties in.
	DefaultEditorConfigVar = "editorconfig"
)

// Status classifies what happened to a configured option during a pass.
type Status uint8

const (
	// StatusSuppressed means EditorConfig governs the option; it was skipped.
	StatusSuppressed Status = iota
	// StatusApplied means the host accepted the value.
	StatusApplied
	// StatusFailed means the host rejected the value.
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuppressed:
		return "suppressed"
	case StatusApplied:
		return "applied"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result for one configured option.
type Outcome struct {
	Option    string
	Requested any
	Status    Status

	// Applied is the value read back from the buffer after a successful set.
	Applied any

	// Err is the host error for StatusFailed, or the read-back error for
	// an applied option whose value could not be read.
	Err error
}

// Report describes one reconciliation pass.
type Report struct {
	PassID     string
	Buffer     host.Buffer
	LanguageID string
	Suppressed []string
	Outcomes   []Outcome
}

// Options returns the names of options with the given status, in pass order.
func (r *Report) Options(status Status) []string {
	var names []string
	for _, o := range r.Outcomes {
		if o.Status == status {
			names = append(names, o.Option)
		}
	}
	return names
}

// Reconciler applies configured buffer options that EditorConfig does not
// already govern. A Reconciler holds no per-pass state and may run passes
// concurrently.
type Reconciler struct {
	channel   logging.Channel
	scope     string
	ecVar     string
	managed   ManagedOptions
	newPassID func() string
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithScope sets the configuration namespace.
func WithScope(scope string) Option {
	return func(r *Reconciler) {
		if scope != "" {
			r.scope = scope
		}
	}
}

// WithEditorConfigVar sets the buffer variable holding EditorConfig state.
func WithEditorConfigVar(name string) Option {
	return func(r *Reconciler) {
		if name != "" {
			r.ecVar = name
		}
	}
}

// WithManagedOptions replaces the property table.
func WithManagedOptions(m ManagedOptions) Option {
	return func(r *Reconciler) {
		if m != nil {
			r.managed = m.Clone()
		}
	}
}

// WithPassIDs sets the pass ID generator.
func WithPassIDs(fn func() string) Option {
	return func(r *Reconciler) {
		if fn != nil {
			r.newPassID = fn
		}
	}
}

// New creates a Reconciler writing to channel.
func New(channel logging.Channel, opts ...Option) *Reconciler {
	if channel == nil {
		channel = logging.Discard
	}
	r := &Reconciler{
		channel:   channel,
		scope:     DefaultScope,
		ecVar:     DefaultEditorConfigVar,
		managed:   DefaultManagedOptions(),
		newPassID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Scope returns the configuration namespace the reconciler reads.
func (r *Reconciler) Scope() string {
	return r.scope
}

// Reconcile runs one pass against the active buffer of h.
//
// Per-option failures are logged and recorded in the report; they never
// produce an error. An error is returned only when the pass cannot start
// because the buffer, document, EditorConfig state or configuration could
// not be resolved. Nothing is applied in that case.
func (r *Reconciler) Reconcile(ctx context.Context, h host.Host) (*Report, error) {
	report := &Report{PassID: r.newPassID()}
	ch := r.channel
	if scoped, ok := ch.(logging.PassScoped); ok {
		ch = scoped.ForPass(report.PassID)
	}

	buf, err := h.ActiveBuffer(ctx)
	if err != nil {
		return report, r.abort(ch, "resolve buffer", err)
	}
	report.Buffer = buf

	doc, err := h.Document(ctx, buf)
	if err != nil {
		return report, r.abort(ch, "resolve document", err)
	}
	report.LanguageID = doc.LanguageID
	ch.AppendLine(fmt.Sprintf("buffer id: %s; language: %s", buf, doc.LanguageID))

	config, err := h.Configuration(ctx, r.scope, doc)
	if err != nil {
		return report, r.abort(ch, "read configuration", err)
	}

	raw, err := h.BufferVar(ctx, buf, r.ecVar)
	if err != nil {
		return report, r.abort(ch, "read EditorConfig state", err)
	}
	suppressed := r.managed.Suppressed(StateFromVar(raw))
	report.Suppressed = suppressed.Sorted()

	ch.AppendLine("Config: " + formatJSON(config))
	ch.AppendLine("EditorConfig: " + formatJSON(report.Suppressed))

	for _, name := range sortedKeys(config) {
		value := config[name]
		if suppressed.Has(name) {
			ch.AppendLine(fmt.Sprintf("ignore: %s; keep EditorConfig value as is", name))
			report.Outcomes = append(report.Outcomes, Outcome{
				Option:    name,
				Requested: value,
				Status:    StatusSuppressed,
			})
			continue
		}
		report.Outcomes = append(report.Outcomes, r.apply(ctx, ch, h, buf, name, value))
	}

	return report, nil
}

// apply sets a single option and reads it back.
func (r *Reconciler) apply(ctx context.Context, ch logging.Channel, h host.Host, buf host.Buffer, name string, value any) Outcome {
	out := Outcome{Option: name, Requested: value}

	if err := h.SetBufferOption(ctx, buf, name, value); err != nil {
		out.Status = StatusFailed
		out.Err = err
		ch.AppendLine(fmt.Sprintf("FAILED: set %s; reason: %v", name, err))
		return out
	}

	out.Status = StatusApplied
	got, err := h.BufferOption(ctx, buf, name)
	if err != nil {
		out.Err = err
		ch.AppendLine(fmt.Sprintf("set: %s => <unavailable: %v>", name, err))
		return out
	}
	out.Applied = got
	ch.AppendLine(fmt.Sprintf("set: %s => %v", name, got))
	return out
}

func (r *Reconciler) abort(ch logging.Channel, step string, err error) error {
	ch.AppendLine(fmt.Sprintf("FAILED: %s; reason: %v", step, err))
	return fmt.Errorf("%s: %w", step, err)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatJSON renders v as compact JSON with sorted keys. Values JSON
// cannot represent fall back to Go syntax.
func formatJSON(v any) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
