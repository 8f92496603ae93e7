package memhost

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/vimoptions/internal/host"
)

var _ host.Host = (*Host)(nil)

func TestHost_NoActiveBuffer(t *testing.T) {
	h := New()
	_, err := h.ActiveBuffer(context.Background())
	assert.ErrorIs(t, err, host.ErrNoActiveBuffer)
}

func TestHost_OpenAndFocus(t *testing.T) {
	ctx := context.Background()
	h := New()
	a := h.Open("go")
	b := h.Open("python")

	got, err := h.ActiveBuffer(ctx)
	require.NoError(t, err)
	assert.Equal(t, b, got)

	require.NoError(t, h.Focus(a))
	doc, err := h.Document(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, host.Document{Buffer: a, LanguageID: "go"}, doc)

	assert.ErrorIs(t, h.Focus(99), host.ErrUnknownBuffer)
}

func TestHost_SetBufferOption(t *testing.T) {
	ctx := context.Background()
	h := New()
	buf := h.Open("go")

	tests := []struct {
		name    string
		option  string
		value   any
		want    any
		wantErr error
	}{
		{"number", "tabstop", 4, int64(4), nil},
		{"integral float", "shiftwidth", float64(2), int64(2), nil},
		{"short name", "tw", int64(80), int64(80), nil},
		{"bool", "expandtab", true, true, nil},
		{"lowercased encoding", "fileencoding", "UTF-8", "utf-8", nil},
		{"unknown", "badoption", "x", nil, host.ErrUnknownOption},
		{"wrong kind", "expandtab", 1, nil, host.ErrInvalidValue},
		{"fractional", "tabstop", 2.5, nil, host.ErrInvalidValue},
		{"non-positive tabstop", "tabstop", 0, nil, host.ErrInvalidValue},
		{"bad fileformat", "fileformat", "amiga", nil, host.ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.SetBufferOption(ctx, buf, tt.option, tt.value)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				var optErr *host.OptionError
				require.True(t, errors.As(err, &optErr))
				assert.Equal(t, tt.option, optErr.Option)
				return
			}
			require.NoError(t, err)
			got, err := h.BufferOption(ctx, buf, tt.option)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHost_Reject(t *testing.T) {
	ctx := context.Background()
	h := New()
	buf := h.Open("go")
	boom := errors.New("boom")
	h.Reject("tabstop", boom)

	err := h.SetBufferOption(ctx, buf, "tabstop", 4)
	assert.ErrorIs(t, err, boom)

	got, _ := h.Option(buf, "tabstop")
	assert.Equal(t, int64(8), got)
	assert.Empty(t, h.Calls())
}

func TestHost_BufferVar(t *testing.T) {
	ctx := context.Background()
	h := New()
	buf := h.Open("go")

	v, err := h.BufferVar(ctx, buf, "editorconfig")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, h.SetVar(buf, "editorconfig", map[string]any{"indent_size": 2}))
	v, err = h.BufferVar(ctx, buf, "editorconfig")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"indent_size": 2}, v)

	require.NoError(t, h.SetVar(buf, "editorconfig", nil))
	v, err = h.BufferVar(ctx, buf, "editorconfig")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestHost_Configuration(t *testing.T) {
	ctx := context.Background()
	h := New()
	buf := h.Open("go")
	doc, err := h.Document(ctx, buf)
	require.NoError(t, err)

	cfg, err := h.Configuration(ctx, "vim-options", doc)
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Empty(t, cfg)

	h.SetConfig(func(scope string, d host.Document) (map[string]any, error) {
		return map[string]any{"scope": scope, "lang": d.LanguageID}, nil
	})
	cfg, err = h.Configuration(ctx, "vim-options", doc)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"scope": "vim-options", "lang": "go"}, cfg)
}

func TestHost_Subscribe(t *testing.T) {
	ctx := context.Background()
	h := New()

	fired := 0
	sub, err := h.Subscribe(ctx, host.EventFileType, func() { fired++ })
	require.NoError(t, err)
	assert.Equal(t, 1, h.Subscribers(host.EventFileType))

	h.Fire(host.EventFileType)
	h.Fire("BufEnter")
	assert.Equal(t, 1, fired)

	require.NoError(t, sub.Dispose())
	require.NoError(t, sub.Dispose())
	h.Fire(host.EventFileType)
	assert.Equal(t, 1, fired)
	assert.Zero(t, h.Subscribers(host.EventFileType))
}

func TestHost_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := New()
	buf := h.Open("go")
	assert.ErrorIs(t, h.SetBufferOption(ctx, buf, "tabstop", 4), context.Canceled)
}
