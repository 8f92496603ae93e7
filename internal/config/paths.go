package config

import (
	"os"
	"path/filepath"
)

// AppName names the settings and state directories.
const AppName = "vim-options"

// UserSettingsBase is the file name, without extension, of user settings.
const UserSettingsBase = "settings"

// WorkspaceSettingsBase is the file name, without extension, of settings
// in a project root.
const WorkspaceSettingsBase = ".vim-options"

// DefaultUserConfigDir returns $XDG_CONFIG_HOME/vim-options, falling back
// to ~/.config/vim-options.
func DefaultUserConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", AppName)
}

// UserSettingsFiles lists the candidate user settings files in dir, lowest
// priority first.
func UserSettingsFiles(dir string) []string {
	return []string{
		filepath.Join(dir, UserSettingsBase+".toml"),
		filepath.Join(dir, UserSettingsBase+".yaml"),
		filepath.Join(dir, UserSettingsBase+".yml"),
		filepath.Join(dir, UserSettingsBase+".json"),
		filepath.Join(dir, UserSettingsBase+".lua"),
	}
}

// UserJSONSettings is the file written by Store.Set.
func UserJSONSettings(dir string) string {
	return filepath.Join(dir, UserSettingsBase+".json")
}

// WorkspaceSettingsFiles lists the candidate settings files in a project
// root, lowest priority first.
func WorkspaceSettingsFiles(dir string) []string {
	return []string{
		filepath.Join(dir, WorkspaceSettingsBase+".toml"),
		filepath.Join(dir, WorkspaceSettingsBase+".json"),
	}
}

// projectMarkers identify a project root when no settings file is found.
var projectMarkers = []string{
	".git",
	"go.mod",
	"package.json",
	"Cargo.toml",
	"pyproject.toml",
}

// FindWorkspace walks up from dir to the nearest directory holding a
// .vim-options settings file. Failing that it returns the nearest directory
// with a project marker such as .git, and failing that dir itself.
func FindWorkspace(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}

	marked := ""
	for cur := abs; ; {
		for _, path := range WorkspaceSettingsFiles(cur) {
			if fileExists(path) {
				return cur
			}
		}
		if marked == "" {
			for _, m := range projectMarkers {
				if fileExists(filepath.Join(cur, m)) {
					marked = cur
					break
				}
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	if marked != "" {
		return marked
	}
	return abs
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
