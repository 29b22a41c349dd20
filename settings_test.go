package main

import (
	"path/filepath"
	"testing"
)

func TestLoadSettingsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if settings.TelemetryEnabled {
		t.Error("telemetry should default to off")
	}
	if settings.FirstRunComplete {
		t.Error("first run should default to incomplete")
	}
	if settings.MaxHistoryCount != defaultMaxHistoryCount {
		t.Errorf("MaxHistoryCount = %d, want %d", settings.MaxHistoryCount, defaultMaxHistoryCount)
	}
}

func TestSaveAndLoadSettings(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	settings := &Settings{
		TelemetryEnabled: true,
		FirstRunComplete: true,
		MaxHistoryCount:  500,
	}
	if err := SaveSettings(settings); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	loaded, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if *loaded != *settings {
		t.Errorf("loaded = %+v, want %+v", loaded, settings)
	}
}

func TestSaveSettingsValidatesHistoryCount(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	for _, count := range []int{0, -1, 100001} {
		if err := SaveSettings(&Settings{MaxHistoryCount: count}); err == nil {
			t.Errorf("SaveSettings should reject max history count %d", count)
		}
	}
	for _, count := range []int{1, 1000, 100000} {
		if err := SaveSettings(&Settings{MaxHistoryCount: count}); err != nil {
			t.Errorf("SaveSettings should accept max history count %d: %v", count, err)
		}
	}
}

func TestGetConfigDirHonorsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := getConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(dir, "rowed") {
		t.Errorf("getConfigDir() = %q, want under XDG_CONFIG_HOME", got)
	}
}
