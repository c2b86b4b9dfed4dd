package objectstore

import (
	"errors"
	"testing"
)

func TestResolveConfigDefaultGCS(t *testing.T) {
	cfg, err := ResolveConfig("", "")
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if cfg.Mode != ModeGCS {
		t.Fatalf("mode: want=%q got=%q", ModeGCS, cfg.Mode)
	}
	if cfg.CompatibilityFallback {
		t.Fatalf("compatibility fallback: want=false got=true")
	}
}

func TestResolveConfigCompatibilityFallback(t *testing.T) {
	cfg, err := ResolveConfig("", "http://fake-gcs:4443")
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if cfg.Mode != ModeGCSEmulator || !cfg.CompatibilityFallback {
		t.Fatalf("want gcs_emulator fallback got mode=%q fallback=%v", cfg.Mode, cfg.CompatibilityFallback)
	}
	if got := cfg.ModeSource(); got != "compatibility_fallback" {
		t.Fatalf("ModeSource: want=%q got=%q", "compatibility_fallback", got)
	}
}

func TestResolveConfigExplicitModes(t *testing.T) {
	for _, raw := range []string{"gcs", "S3", "memory"} {
		cfg, err := ResolveConfig(raw, "")
		if err != nil {
			t.Fatalf("ResolveConfig(%q): %v", raw, err)
		}
		if !IsSupportedMode(cfg.Mode) {
			t.Fatalf("ResolveConfig(%q): unsupported mode %q", raw, cfg.Mode)
		}
	}
}

func TestResolveConfigErrors(t *testing.T) {
	cases := []struct {
		mode string
		host string
		code ConfigErrorCode
	}{
		{mode: "local", code: ConfigErrorInvalidMode},
		{mode: "gcs_emulator", code: ConfigErrorMissingEmulatorHost},
		{mode: "gcs_emulator", host: "fake-gcs:4443", code: ConfigErrorInvalidEmulatorHost},
	}
	for _, tc := range cases {
		_, err := ResolveConfig(tc.mode, tc.host)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("ResolveConfig(%q,%q): expected ConfigError got=%v", tc.mode, tc.host, err)
		}
		if cfgErr.Code != tc.code {
			t.Fatalf("ResolveConfig(%q,%q): want=%q got=%q", tc.mode, tc.host, tc.code, cfgErr.Code)
		}
	}
}

func TestPublicBaseURLEnvOverride(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "http://localhost:4443/")
	base, source, err := PublicBaseURL(Config{Mode: ModeGCSEmulator, EmulatorHost: "http://fake-gcs:4443"})
	if err != nil {
		t.Fatalf("PublicBaseURL: %v", err)
	}
	if base != "http://localhost:4443" || source != "object_storage_public_base_url" {
		t.Fatalf("PublicBaseURL: got base=%q source=%q", base, source)
	}
}

func TestPublicBaseURLInvalid(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "localhost:4443")
	if _, _, err := PublicBaseURL(Config{Mode: ModeGCS}); err == nil {
		t.Fatalf("PublicBaseURL: expected error")
	}
}
