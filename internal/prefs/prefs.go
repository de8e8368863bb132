// Package prefs handles pixgrab user preferences persistence.
// Preferences are stored in ~/.config/pixgrab/prefs.toml.
package prefs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences for pixgrab.
type Prefs struct {
	Theme  string   `toml:"theme"`
	Recent []string `toml:"recent"`
}

const (
	defaultPrefsPath = "~/.config/pixgrab/prefs.toml"
	defaultTheme     = "Nightfox"

	// MaxRecent bounds the recent URL history.
	MaxRecent = 10
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// DefaultTheme returns the theme used when none is saved.
func DefaultTheme() string {
	return defaultTheme
}

// Remember returns p with pageURL moved to the front of the recent history.
// Duplicates are removed and the history is capped at MaxRecent.
func (p Prefs) Remember(pageURL string) Prefs {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return p
	}
	recent := make([]string, 0, MaxRecent)
	recent = append(recent, pageURL)
	for _, u := range p.Recent {
		if u == pageURL || strings.TrimSpace(u) == "" {
			continue
		}
		if len(recent) == MaxRecent {
			break
		}
		recent = append(recent, u)
	}
	p.Recent = recent
	return p
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	prefs := Prefs{Theme: defaultTheme}

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs, nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Prefs{Theme: defaultTheme}, nil // Graceful degradation
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	if len(prefs.Recent) > MaxRecent {
		prefs.Recent = prefs.Recent[:MaxRecent]
	}

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
