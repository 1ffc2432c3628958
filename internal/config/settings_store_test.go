package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestSettingsPath(t *testing.T) {
	root := t.TempDir()
	if runtime.GOOS == "windows" {
		t.Setenv("AppData", root)
	} else {
		t.Setenv("XDG_CONFIG_HOME", root)
	}
	path, err := SettingsPath()
	if err != nil {
		t.Fatalf("SettingsPath() error = %v", err)
	}
	if want := filepath.Join(root, "spaceeye", "settings.json"); path != want {
		t.Fatalf("SettingsPath() = %q, want %q", path, want)
	}
}

func TestSettingsStoreCurrentViewID(t *testing.T) {
	store := NewSettingsStore(filepath.Join(t.TempDir(), "nested", "settings.json"))
	if id, ok := store.CurrentViewID(); ok {
		t.Fatalf("CurrentViewID() = %d, true, want none before first save", id)
	}
	if err := store.SetCurrentViewID(12); err != nil {
		t.Fatalf("SetCurrentViewID() error = %v", err)
	}
	if id, ok := store.CurrentViewID(); !ok || id != 12 {
		t.Fatalf("CurrentViewID() = %d, %v, want 12, true", id, ok)
	}

	other := NewSettingsStore(store.Path())
	if id, ok := other.CurrentViewID(); !ok || id != 12 {
		t.Fatalf("CurrentViewID() from second store = %d, %v, want 12, true", id, ok)
	}
}

func TestSettingsStoreSetViewKeepsOtherFields(t *testing.T) {
	store := NewSettingsStore(filepath.Join(t.TempDir(), "settings.json"))
	if err := store.Save(Settings{Debug: true}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.SetCurrentViewID(0); err != nil {
		t.Fatalf("SetCurrentViewID() error = %v", err)
	}
	settings, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !settings.Debug || settings.ViewID == nil || *settings.ViewID != 0 {
		t.Fatalf("Load() = %#v, want debug kept and view 0", settings)
	}
	entries, _ := os.ReadDir(filepath.Dir(store.Path()))
	if len(entries) != 1 {
		t.Fatalf("settings dir has %d entries, want only settings.json", len(entries))
	}
}

func TestSettingsStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	store := NewSettingsStore(path)
	if _, err := store.Load(); err == nil {
		t.Fatalf("Load() error = nil, want decode error")
	}
	if _, ok := store.CurrentViewID(); ok {
		t.Fatalf("CurrentViewID() ok = true for corrupt file")
	}
}
