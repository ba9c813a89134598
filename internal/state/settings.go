package state

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const settingsFileName = "settings.toml"

// Settings are the user preferences that survive restarts.
type Settings struct {
	WPM      int     `toml:"wpm"`
	FontSize float64 `toml:"font_size"`
}

// DefaultSettings returns the settings used when nothing is saved.
func DefaultSettings() Settings {
	return Settings{WPM: 300, FontSize: 72}
}

// configDir returns XDG_CONFIG_HOME/rsvp or ~/.config/rsvp
func configDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// SettingsPath returns the location of the settings file.
func SettingsPath() string {
	return filepath.Join(configDir(), settingsFileName)
}

// LoadSettings reads the settings file. Missing keys keep their defaults and
// a missing file is not an error.
func LoadSettings() (Settings, error) {
	s := DefaultSettings()
	if _, err := toml.DecodeFile(SettingsPath(), &s); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return DefaultSettings(), err
	}
	if s.WPM <= 0 {
		s.WPM = DefaultSettings().WPM
	}
	if s.FontSize <= 0 {
		s.FontSize = DefaultSettings().FontSize
	}
	return s, nil
}

// SaveSettings writes s to the settings file.
func SaveSettings(s Settings) error {
	dir := configDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, settingsFileName))
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
