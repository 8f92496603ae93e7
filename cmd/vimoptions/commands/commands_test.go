package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// settingsDirs writes settings.toml into a fresh user directory and returns
// the global flags pointing at it and an empty workspace.
func settingsDirs(t *testing.T, settings string) []string {
	t.Helper()
	dir := t.TempDir()
	if settings != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.toml"), []byte(settings), 0o644))
	}
	return []string{"--config-dir", dir, "--workspace", t.TempDir()}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "vimoptions dev")
}

func TestManaged(t *testing.T) {
	out, err := execute(t, "managed")
	require.NoError(t, err)
	assert.Contains(t, out, "PROPERTY")
	assert.Regexp(t, `indent_size\s+shiftwidth, softtabstop, tabstop`, out)
	assert.Regexp(t, `max_line_length\s+textwidth`, out)
}

func TestSchema(t *testing.T) {
	out, err := execute(t, "schema", "--scope", "bufopts")
	require.NoError(t, err)
	require.True(t, gjson.Valid(out))

	prop := gjson.Get(out, `contributes.configuration.properties.bufopts\.tabstop`)
	require.True(t, prop.Exists())
	assert.Equal(t, gjson.Null, prop.Get("default").Type)
}

func TestCheck(t *testing.T) {
	flags := settingsDirs(t, `
[vim-options]
tabstop = 4
shiftwidth = 4
textwidth = 80
`)

	out, err := execute(t, append(flags, "check", "--filetype", "go")...)
	require.NoError(t, err)
	assert.Regexp(t, `tabstop\s+applied\s+4\s+4\s+user:settings.toml`, out)
	assert.Regexp(t, `textwidth\s+applied`, out)

	out, err = execute(t, append(flags, "check", "--filetype", "go", "--editorconfig", `{"indent_size": "2"}`)...)
	require.NoError(t, err)
	assert.Regexp(t, `shiftwidth\s+suppressed`, out)
	assert.Regexp(t, `tabstop\s+suppressed`, out)
	assert.Regexp(t, `textwidth\s+applied`, out)

	out, err = execute(t, append(flags, "check", "--set", "badoption=1", "--set", "textwidth=100", "--log")...)
	require.NoError(t, err)
	assert.Regexp(t, `badoption\s+failed`, out)
	assert.Regexp(t, `textwidth\s+applied\s+100\s+100\s+session`, out)
	assert.Contains(t, out, "EditorConfig: []")
}

func TestCheck_NothingConfigured(t *testing.T) {
	out, err := execute(t, append(settingsDirs(t, ""), "check")...)
	require.NoError(t, err)
	assert.Contains(t, out, "No options configured.")
}

func TestCheck_BadFlags(t *testing.T) {
	flags := settingsDirs(t, "")

	_, err := execute(t, append(flags, "check", "--editorconfig", `{"indent_size":`)...)
	assert.ErrorContains(t, err, "invalid JSON")

	_, err = execute(t, append(flags, "check", "--editorconfig", `[1]`)...)
	assert.ErrorContains(t, err, "expected a JSON object")

	_, err = execute(t, append(flags, "check", "--set", "=1")...)
	assert.ErrorContains(t, err, "expected option=value")

	_, err = execute(t, append(flags, "--log-level", "loud", "check")...)
	assert.ErrorContains(t, err, "invalid log level")
}

func TestConfigSetShowUnset(t *testing.T) {
	flags := settingsDirs(t, "[vim-options]\ntabstop = 8\n")

	out, err := execute(t, append(flags, "config", "set", "textwidth", "80")...)
	require.NoError(t, err)
	assert.Equal(t, "textwidth = 80\n", out)

	_, err = execute(t, append(flags, "config", "set", "--filetype", "go", "expandtab", "false")...)
	require.NoError(t, err)

	out, err = execute(t, append(flags, "config", "show", "--filetype", "go")...)
	require.NoError(t, err)
	assert.Regexp(t, `expandtab\s+false\s+user:settings.json`, out)
	assert.Regexp(t, `tabstop\s+8\s+user:settings.toml`, out)
	assert.Regexp(t, `textwidth\s+80\s+user:settings.json`, out)

	out, err = execute(t, append(flags, "config", "unset", "textwidth")...)
	require.NoError(t, err)
	assert.Equal(t, "unset textwidth\n", out)

	out, err = execute(t, append(flags, "config", "show")...)
	require.NoError(t, err)
	assert.NotContains(t, out, "textwidth")
	assert.NotContains(t, out, "expandtab")
}

func TestConfigFiles(t *testing.T) {
	out, err := execute(t, append(settingsDirs(t, "[vim-options]\ntabstop = 8\n"), "config", "files")...)
	require.NoError(t, err)
	assert.Contains(t, out, "user:settings.toml")
	assert.Contains(t, out, "environment")
}

func TestConfigValidate(t *testing.T) {
	out, err := execute(t, append(settingsDirs(t, "[vim-options]\ntabstop = 4\n"), "config", "validate")...)
	require.NoError(t, err)
	assert.Equal(t, "OK\n", out)

	flags := settingsDirs(t, `
[vim-options]
ts = 4
expandtab = "yes"
madeup = 1
`)
	_, err = execute(t, append(flags, "config", "validate")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 validation errors")
	assert.Contains(t, err.Error(), "vim-options.ts")

	_, err = execute(t, append(flags, "config", "validate", "--lenient")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 validation errors")
}
