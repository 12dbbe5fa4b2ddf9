// Package paths resolves the per-user application-data layout:
//
//	<data root>/<app>/profiles/<slug>/{database.sqlite, config.json, cache/}
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

// DefaultSlug replaces user ids that slug down to nothing.
const DefaultSlug = "default"

var disallowed = regexp.MustCompile(`[^a-z0-9_-]`)

// Slug turns a free-form user id into a directory name.
func Slug(userID string) string {
	// Runs of Unicode whitespace, NBSP included, become one "-".
	s := strings.Join(strings.Fields(strings.ToLower(userID)), "-")
	s = disallowed.ReplaceAllString(s, "")
	if s == "" {
		return DefaultSlug
	}
	return s
}

// DataRoot returns the OS application-data root for appName.
func DataRoot(appName string) (string, error) {
	return dataRoot(runtime.GOOS, os.Getenv, os.UserHomeDir, appName)
}

func dataRoot(goos string, getenv func(string) string, home func() (string, error), appName string) (string, error) {
	switch goos {
	case "windows":
		if appData := getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName), nil
		}
		h, err := home()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(h, "AppData", "Roaming", appName), nil
	case "darwin":
		h, err := home()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(h, "Library", "Application Support", appName), nil
	default:
		if xdg := getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		h, err := home()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(h, ".local", "share", appName), nil
	}
}

// Profile is the set of locations owned by one user profile.
type Profile struct {
	Base     string
	Profiles string
	User     string
	DB       string
	Config   string
	Cache    string
}

// Layout controls file names inside a profile directory.
type Layout struct {
	AppName        string
	DataDir        string // overrides DataRoot when set; the app name is still appended
	DatabaseFile   string
	ConfigFileName string
}

// ForUser computes the profile locations for userID and creates the
// directories. Files are left to their owners.
func ForUser(layout Layout, userID string) (*Profile, error) {
	var base string
	if layout.DataDir != "" {
		base = filepath.Join(layout.DataDir, layout.AppName)
	} else {
		root, err := DataRoot(layout.AppName)
		if err != nil {
			return nil, err
		}
		base = root
	}

	profiles := filepath.Join(base, "profiles")
	user := filepath.Join(profiles, Slug(userID))
	p := &Profile{
		Base:     base,
		Profiles: profiles,
		User:     user,
		DB:       filepath.Join(user, layout.DatabaseFile),
		Config:   filepath.Join(user, layout.ConfigFileName),
		Cache:    filepath.Join(user, "cache"),
	}

	for _, dir := range []string{p.User, p.Cache} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create profile directory %s: %w", dir, err)
		}
	}
	return p, nil
}
