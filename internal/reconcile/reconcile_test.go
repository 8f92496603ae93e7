package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/vimoptions/internal/host"
	"github.com/dshills/vimoptions/internal/host/memhost"
	"github.com/dshills/vimoptions/internal/logging"
)

func newTestHost(t *testing.T, filetype string, config map[string]any, editorconfig any) (*memhost.Host, host.Buffer) {
	t.Helper()
	h := memhost.New()
	buf := h.Open(filetype)
	h.SetConfig(memhost.StaticConfig(config))
	if editorconfig != nil {
		require.NoError(t, h.SetVar(buf, DefaultEditorConfigVar, editorconfig))
	}
	return h, buf
}

func fixedIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("pass-%d", n)
	}
}

func TestReconcile_IndentSizeSuppressesShiftwidthAndTabstop(t *testing.T) {
	h, buf := newTestHost(t, "python",
		map[string]any{"shiftwidth": 4, "tabstop": 4},
		map[string]any{"indent_size": 2},
	)
	var rec logging.Recorder

	report, err := New(&rec).Reconcile(context.Background(), h)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"shiftwidth", "tabstop"}, report.Options(StatusSuppressed))
	assert.Empty(t, report.Options(StatusApplied))
	assert.Empty(t, h.Calls())

	sw, _ := h.Option(buf, "shiftwidth")
	ts, _ := h.Option(buf, "tabstop")
	assert.Equal(t, int64(8), sw)
	assert.Equal(t, int64(8), ts)

	assert.Contains(t, rec.Lines(), "ignore: shiftwidth; keep EditorConfig value as is")
	assert.Contains(t, rec.Lines(), "ignore: tabstop; keep EditorConfig value as is")
}

func TestReconcile_NoEditorConfigAppliesEverything(t *testing.T) {
	h, buf := newTestHost(t, "markdown", map[string]any{"textwidth": 80}, nil)
	var rec logging.Recorder

	report, err := New(&rec).Reconcile(context.Background(), h)
	require.NoError(t, err)

	assert.Empty(t, report.Suppressed)
	assert.Equal(t, []string{"textwidth"}, report.Options(StatusApplied))
	tw, _ := h.Option(buf, "textwidth")
	assert.Equal(t, int64(80), tw)
	assert.Contains(t, rec.Lines(), "set: textwidth => 80")
}

func TestReconcile_ReadBackShowsHostValue(t *testing.T) {
	h, _ := newTestHost(t, "text", map[string]any{"fileencoding": "UTF-8"}, nil)
	var rec logging.Recorder

	report, err := New(&rec).Reconcile(context.Background(), h)
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, "UTF-8", report.Outcomes[0].Requested)
	assert.Equal(t, "utf-8", report.Outcomes[0].Applied)
	assert.Contains(t, rec.Lines(), "set: fileencoding => utf-8")
}

func TestReconcile_SingleRejectedOptionIsLogged(t *testing.T) {
	h, _ := newTestHost(t, "go", map[string]any{"badoption": "x"}, nil)
	var rec logging.Recorder

	report, err := New(&rec).Reconcile(context.Background(), h)
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	out := report.Outcomes[0]
	assert.Equal(t, StatusFailed, out.Status)
	assert.ErrorIs(t, out.Err, host.ErrUnknownOption)

	var failed string
	for _, line := range rec.Lines() {
		if strings.HasPrefix(line, "FAILED: set badoption") {
			failed = line
		}
	}
	require.NotEmpty(t, failed)
	assert.Contains(t, failed, "unknown option")
}

func TestReconcile_FailureDoesNotStopLaterOptions(t *testing.T) {
	h, buf := newTestHost(t, "go", map[string]any{
		"autoindent": true,
		"expandtab":  "yes",
		"tabstop":    4,
		"textwidth":  100,
	}, nil)

	report, err := New(nil).Reconcile(context.Background(), h)
	require.NoError(t, err)

	assert.Equal(t, []string{"expandtab"}, report.Options(StatusFailed))
	assert.Equal(t, []string{"autoindent", "tabstop", "textwidth"}, report.Options(StatusApplied))

	ts, _ := h.Option(buf, "tabstop")
	tw, _ := h.Option(buf, "textwidth")
	assert.Equal(t, int64(4), ts)
	assert.Equal(t, int64(100), tw)
}

func TestReconcile_IndentStyleAlwaysSuppressesExpandtab(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
	}{
		{"configured", map[string]any{"expandtab": true}},
		{"not configured", map[string]any{"textwidth": 72}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, buf := newTestHost(t, "c", tt.config, map[string]any{"indent_style": "tab"})

			report, err := New(nil).Reconcile(context.Background(), h)
			require.NoError(t, err)

			assert.Contains(t, report.Suppressed, "expandtab")
			assert.NotContains(t, report.Options(StatusApplied), "expandtab")
			et, _ := h.Option(buf, "expandtab")
			assert.Equal(t, false, et)
		})
	}
}

func TestReconcile_AppliedEqualsConfigMinusSuppressed(t *testing.T) {
	config := map[string]any{
		"bomb":         false,
		"endofline":    true,
		"expandtab":    true,
		"fileformat":   "unix",
		"fixendofline": true,
		"shiftwidth":   2,
		"softtabstop":  2,
		"tabstop":      2,
		"textwidth":    120,
		"wrapmargin":   0,
	}
	states := []map[string]any{
		nil,
		{},
		{"charset": "utf-8"},
		{"end_of_line": "lf", "max_line_length": 100},
		{"insert_final_newline": true, "tab_width": 4},
		{"indent_style": "space", "indent_size": 2, "charset": "utf-8"},
		{"indent_style": "", "indent_size": 0, "tab_width": false},
	}

	managed := DefaultManagedOptions()
	for i, state := range states {
		t.Run(fmt.Sprintf("state-%d", i), func(t *testing.T) {
			var ec any
			if state != nil {
				ec = state
			}
			h, _ := newTestHost(t, "go", config, ec)

			report, err := New(nil).Reconcile(context.Background(), h)
			require.NoError(t, err)

			suppressed := managed.Suppressed(state)
			var want []string
			for _, name := range sortedKeys(config) {
				if !suppressed.Has(name) {
					want = append(want, name)
				}
			}

			var applied []string
			for _, call := range h.Calls() {
				applied = append(applied, call.Option)
			}
			assert.Equal(t, want, applied)
			assert.Len(t, report.Outcomes, len(config))
		})
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	h, buf := newTestHost(t, "go",
		map[string]any{"tabstop": 4, "expandtab": true, "textwidth": 99},
		map[string]any{"indent_style": "space"},
	)
	r := New(nil)

	_, err := r.Reconcile(context.Background(), h)
	require.NoError(t, err)
	first := snapshot(h, buf, "tabstop", "expandtab", "textwidth")

	_, err = r.Reconcile(context.Background(), h)
	require.NoError(t, err)
	second := snapshot(h, buf, "tabstop", "expandtab", "textwidth")

	assert.Equal(t, first, second)
}

func TestReconcile_EmptyConfigurationIsNoop(t *testing.T) {
	h, _ := newTestHost(t, "go", map[string]any{}, map[string]any{"indent_size": 4})

	report, err := New(nil).Reconcile(context.Background(), h)
	require.NoError(t, err)
	assert.Empty(t, report.Outcomes)
	assert.Empty(t, h.Calls())
}

func TestReconcile_StateIsReadEveryPass(t *testing.T) {
	h, buf := newTestHost(t, "go", map[string]any{"tabstop": 4}, map[string]any{"tab_width": 2})
	r := New(nil)

	report, err := r.Reconcile(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, []string{"tabstop"}, report.Options(StatusSuppressed))

	require.NoError(t, h.SetVar(buf, DefaultEditorConfigVar, nil))
	report, err = r.Reconcile(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, []string{"tabstop"}, report.Options(StatusApplied))
}

func TestReconcile_LogSequence(t *testing.T) {
	h, _ := newTestHost(t, "lua",
		map[string]any{"expandtab": true, "textwidth": 80},
		map[string]any{"indent_style": "space"},
	)
	var rec logging.Recorder

	report, err := New(&rec, WithPassIDs(fixedIDs())).Reconcile(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, "pass-1", report.PassID)

	assert.Equal(t, []string{
		"buffer id: 1; language: lua",
		`Config: {"expandtab":true,"textwidth":80}`,
		`EditorConfig: ["expandtab"]`,
		"ignore: expandtab; keep EditorConfig value as is",
		"set: textwidth => 80",
	}, rec.Lines())
}

type failingHost struct {
	*memhost.Host
	failVar      error
	failConfig   error
	failReadBack error
}

func (f *failingHost) BufferVar(ctx context.Context, buf host.Buffer, name string) (any, error) {
	if f.failVar != nil {
		return nil, f.failVar
	}
	return f.Host.BufferVar(ctx, buf, name)
}

func (f *failingHost) Configuration(ctx context.Context, scope string, doc host.Document) (map[string]any, error) {
	if f.failConfig != nil {
		return nil, f.failConfig
	}
	return f.Host.Configuration(ctx, scope, doc)
}

func (f *failingHost) BufferOption(ctx context.Context, buf host.Buffer, name string) (any, error) {
	if f.failReadBack != nil {
		return nil, f.failReadBack
	}
	return f.Host.BufferOption(ctx, buf, name)
}

func TestReconcile_ResolutionFailuresAbort(t *testing.T) {
	boom := errors.New("rpc closed")

	t.Run("no buffer", func(t *testing.T) {
		var rec logging.Recorder
		_, err := New(&rec).Reconcile(context.Background(), memhost.New())
		assert.ErrorIs(t, err, host.ErrNoActiveBuffer)
		assert.Equal(t, []string{"FAILED: resolve buffer; reason: no active buffer"}, rec.Lines())
	})

	t.Run("editorconfig var", func(t *testing.T) {
		mh, _ := newTestHost(t, "go", map[string]any{"tabstop": 4}, nil)
		_, err := New(nil).Reconcile(context.Background(), &failingHost{Host: mh, failVar: boom})
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, mh.Calls())
	})

	t.Run("configuration", func(t *testing.T) {
		mh, _ := newTestHost(t, "go", map[string]any{"tabstop": 4}, nil)
		_, err := New(nil).Reconcile(context.Background(), &failingHost{Host: mh, failConfig: boom})
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, mh.Calls())
	})
}

func TestReconcile_ReadBackFailureStillApplied(t *testing.T) {
	mh, _ := newTestHost(t, "go", map[string]any{"tabstop": 4}, nil)
	var rec logging.Recorder
	boom := errors.New("timeout")

	report, err := New(&rec).Reconcile(context.Background(), &failingHost{Host: mh, failReadBack: boom})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, StatusApplied, report.Outcomes[0].Status)
	assert.ErrorIs(t, report.Outcomes[0].Err, boom)
	assert.Contains(t, rec.Lines(), "set: tabstop => <unavailable: timeout>")
}

func TestReconcile_CustomScopeAndVar(t *testing.T) {
	h := memhost.New()
	buf := h.Open("go")
	require.NoError(t, h.SetVar(buf, "ec", map[string]any{"max_line_length": 100}))

	var gotScope string
	h.SetConfig(func(scope string, _ host.Document) (map[string]any, error) {
		gotScope = scope
		return map[string]any{"textwidth": 80}, nil
	})

	r := New(nil, WithScope("bufopts"), WithEditorConfigVar("ec"))
	report, err := r.Reconcile(context.Background(), h)
	require.NoError(t, err)

	assert.Equal(t, "bufopts", gotScope)
	assert.Equal(t, "bufopts", r.Scope())
	assert.Equal(t, []string{"textwidth"}, report.Options(StatusSuppressed))
}

func snapshot(h *memhost.Host, buf host.Buffer, names ...string) map[string]any {
	out := make(map[string]any, len(names))
	for _, name := range names {
		out[name], _ = h.Option(buf, name)
	}
	return out
}

func TestFormatJSON(t *testing.T) {
	assert.Equal(t, `{"fileformat":"unix","shiftwidth":4,"tabstop":8}`,
		formatJSON(map[string]any{"tabstop": 8, "shiftwidth": int64(4), "fileformat": "unix"}))
	assert.Equal(t, `{"path":"a<b>&c"}`, formatJSON(map[string]any{"path": "a<b>&c"}))
	assert.Equal(t, `[]`, formatJSON(OptionSet{}.Sorted()))
	assert.Equal(t, `["bomb","fileencoding"]`, formatJSON([]string{"bomb", "fileencoding"}))
	assert.Equal(t, "map[textwidth:NaN]", formatJSON(map[string]any{"textwidth": math.NaN()}))
}
