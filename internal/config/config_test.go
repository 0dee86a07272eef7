package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Link.MRU != 1500 {
		t.Fatalf("got MRU %d", cfg.Link.MRU)
	}
	if cfg.Link.InterimAccounting != 10*time.Second {
		t.Fatalf("got interim accounting %v", cfg.Link.InterimAccounting)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("got log level %q", cfg.Log.Level)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ppplinkd.yaml")
	yaml := []byte("link:\n  mru: 1492\n  auth_required: true\nlog:\n  level: debug\n")
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Link.MRU != 1492 {
		t.Fatalf("got MRU %d", cfg.Link.MRU)
	}
	if !cfg.Link.AuthRequired {
		t.Fatal("expected auth_required to be true")
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("got log level %q", cfg.Log.Level)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ppplinkd.yaml")
	if err := os.WriteFile(path, []byte("link:\n  mru: 1492\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	t.Setenv("PPPLINKD_LINK_MRU", "1400")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Link.MRU != 1400 {
		t.Fatalf("got MRU %d, want env override 1400", cfg.Link.MRU)
	}
}

func TestValidateRejectsZeroMRU(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Link.MRU = 0
	if err := Validate(cfg); err != ErrInvalidMRU {
		t.Fatalf("got %v, want ErrInvalidMRU", err)
	}
}

func TestValidateRejectsNonPositiveInterim(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Link.InterimAccounting = 0
	if err := Validate(cfg); err != ErrInvalidInterimAccounting {
		t.Fatalf("got %v, want ErrInvalidInterimAccounting", err)
	}
}

func TestValidateRejectsUnknownAllowedAuth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Link.AllowedAuth = []string{"pap", "eap"}
	if err := Validate(cfg); err != ErrUnknownAllowedAuth {
		t.Fatalf("got %v, want ErrUnknownAllowedAuth", err)
	}
}

func TestParseLogLevelDefaultsToInfo(t *testing.T) {
	if ParseLogLevel("not-a-level") != zerolog.InfoLevel {
		t.Fatal("expected fallback to InfoLevel")
	}
	if ParseLogLevel("warn") != zerolog.WarnLevel {
		t.Fatal("expected WarnLevel")
	}
}
