package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettingsMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if s != DefaultSettings() {
		t.Errorf("Expected defaults, got %+v", s)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	want := Settings{WPM: 450, FontSize: 96}
	if err := SaveSettings(want); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}
	if SettingsPath() != filepath.Join(tmpDir, "rsvp", "settings.toml") {
		t.Errorf("SettingsPath() = %q", SettingsPath())
	}

	got, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if got != want {
		t.Errorf("LoadSettings() = %+v, want %+v", got, want)
	}
}

func TestLoadSettingsPartialFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	dir := filepath.Join(tmpDir, "rsvp")
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "settings.toml"), []byte("wpm = 500\n"), 0644)

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if s.WPM != 500 {
		t.Errorf("WPM = %d, want 500", s.WPM)
	}
	if s.FontSize != DefaultSettings().FontSize {
		t.Errorf("FontSize = %v, want default", s.FontSize)
	}
}

func TestLoadSettingsInvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	dir := filepath.Join(tmpDir, "rsvp")
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "settings.toml"), []byte("wpm = = ="), 0644)

	s, err := LoadSettings()
	if err == nil {
		t.Error("Expected a parse error")
	}
	if s != DefaultSettings() {
		t.Errorf("Expected defaults on error, got %+v", s)
	}
}
