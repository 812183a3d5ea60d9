package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("ORPHAN_GRACE", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Fatalf("Port = %q, want 9090", cfg.Port)
	}
	if !cfg.UsesS3() {
		t.Fatal("expected s3 driver")
	}
	if cfg.OrphanGrace != time.Hour {
		t.Fatalf("OrphanGrace = %v, want fallback 1h", cfg.OrphanGrace)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.UploadURLPrefix != "/uploads" {
		t.Fatalf("UploadURLPrefix = %q", cfg.UploadURLPrefix)
	}
}

func TestParseStringSliceSkipsEmpty(t *testing.T) {
	got := parseStringSlice("a,,b,")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("parseStringSlice = %v", got)
	}
}
