package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "SUPABASE_URL", "TABLE_PREFIX", "AI_FALLBACK_MODELS", "AI_MIN_INTERVAL", "AI_MAX_RETRIES", "DEBUG"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Environment != "dev" {
		t.Errorf("Environment = %q, want dev", cfg.Environment)
	}
	if cfg.TablePrefix != "dev_" {
		t.Errorf("TablePrefix = %q, want dev_", cfg.TablePrefix)
	}
	if cfg.SupabaseJWKSURL != "" {
		t.Errorf("JWKS URL should be empty without SUPABASE_URL, got %q", cfg.SupabaseJWKSURL)
	}
	if cfg.AIMinInterval != 2*time.Second {
		t.Errorf("AIMinInterval = %v, want 2s", cfg.AIMinInterval)
	}
	if cfg.AIMaxRetries != 1 {
		t.Errorf("AIMaxRetries = %d, want 1", cfg.AIMaxRetries)
	}
	if !cfg.Debug {
		t.Error("Debug should default to true outside prod")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co/")
	t.Setenv("TABLE_PREFIX", "")
	t.Setenv("AI_FALLBACK_MODELS", "lorem-fast, ,claude-sonnet-4-5")
	t.Setenv("AI_MIN_INTERVAL", "500ms")
	t.Setenv("AI_MAX_RETRIES", "3")
	t.Setenv("DEBUG", "")

	cfg := Load()

	if cfg.TablePrefix != "prod_" {
		t.Errorf("TablePrefix = %q, want prod_", cfg.TablePrefix)
	}
	if cfg.SupabaseJWKSURL != "https://example.supabase.co/auth/v1/.well-known/jwks.json" {
		t.Errorf("SupabaseJWKSURL = %q", cfg.SupabaseJWKSURL)
	}
	if !reflect.DeepEqual(cfg.FallbackModels, []string{"lorem-fast", "claude-sonnet-4-5"}) {
		t.Errorf("FallbackModels = %v", cfg.FallbackModels)
	}
	if cfg.AIMinInterval != 500*time.Millisecond {
		t.Errorf("AIMinInterval = %v", cfg.AIMinInterval)
	}
	if cfg.AIMaxRetries != 3 {
		t.Errorf("AIMaxRetries = %d", cfg.AIMaxRetries)
	}
	if cfg.Debug {
		t.Error("Debug should default to false in prod")
	}
}

func TestSetupLogFile_RemovesOldFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"essaycoach-2020-01-01T00-00-00.log", "essaycoach-2020-01-02T00-00-00.log", "essaycoach-2020-01-03T00-00-00.log"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	f, err := SetupLogFile(dir, 2)
	if err != nil {
		t.Fatalf("SetupLogFile failed: %v", err)
	}
	defer f.Close()

	files, _ := filepath.Glob(filepath.Join(dir, "essaycoach-*.log"))
	if len(files) != 2 {
		t.Fatalf("expected 2 log files after cleanup, got %d: %v", len(files), files)
	}
	if _, err := os.Stat(filepath.Join(dir, "essaycoach-2020-01-01T00-00-00.log")); !os.IsNotExist(err) {
		t.Error("oldest log file should have been removed")
	}
}
