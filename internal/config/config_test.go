package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8750 {
		t.Errorf("expected default port 8750, got %d", cfg.Port)
	}
	if cfg.PopupWindowSeconds != 600 {
		t.Errorf("expected default popup window 600, got %d", cfg.PopupWindowSeconds)
	}
	if cfg.PopupReminderSeconds != 600 {
		t.Errorf("expected default reminder 600, got %d", cfg.PopupReminderSeconds)
	}
	if !cfg.CatalogAutoSync {
		t.Error("expected catalog auto-sync enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("POPUP_WINDOW_SECONDS", "120")
	t.Setenv("CATALOG_AUTO_SYNC", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.PopupWindowSeconds != 120 {
		t.Errorf("expected popup window 120, got %d", cfg.PopupWindowSeconds)
	}
	if cfg.CatalogAutoSync {
		t.Error("expected catalog auto-sync disabled")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("PORT", "70000")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestLoadRejectsNonPositiveWindow(t *testing.T) {
	t.Setenv("POPUP_WINDOW_SECONDS", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero popup window")
	}
}
