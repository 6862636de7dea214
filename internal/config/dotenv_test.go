package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "EVALKIT_WORKERS=7\nEVALKIT_LOG_LEVEL=warn\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("EVALKIT_LOG_LEVEL", "error")
	os.Unsetenv("EVALKIT_WORKERS")
	t.Cleanup(func() { os.Unsetenv("EVALKIT_WORKERS") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Eval.Workers != 7 {
		t.Errorf("Eval.Workers = %d, want 7 from env file", cfg.Eval.Workers)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %s, want the real environment to win", cfg.Log.Level)
	}
}

func TestLoadDotEnv_Errors(t *testing.T) {
	if err := LoadDotEnv(""); err != nil {
		t.Errorf("LoadDotEnv(\"\") error = %v, want nil", err)
	}
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("LoadDotEnv(missing) should fail")
	}
}
