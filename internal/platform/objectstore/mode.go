package objectstore

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

type Mode string

const (
	ModeGCS         Mode = "gcs"
	ModeGCSEmulator Mode = "gcs_emulator"
	ModeS3          Mode = "s3"
	ModeMemory      Mode = "memory"
)

type Config struct {
	Mode                  Mode
	EmulatorHost          string
	CompatibilityFallback bool
}

func IsSupportedMode(mode Mode) bool {
	switch mode {
	case ModeGCS, ModeGCSEmulator, ModeS3, ModeMemory:
		return true
	default:
		return false
	}
}

func (cfg Config) IsEmulatorMode() bool {
	return cfg.Mode == ModeGCSEmulator
}

func (cfg Config) ModeSource() string {
	if cfg.CompatibilityFallback {
		return "compatibility_fallback"
	}
	return "explicit_or_default"
}

type ConfigErrorCode string

const (
	ConfigErrorInvalidMode         ConfigErrorCode = "invalid_mode"
	ConfigErrorMissingEmulatorHost ConfigErrorCode = "missing_emulator_host"
	ConfigErrorInvalidEmulatorHost ConfigErrorCode = "invalid_emulator_host"
)

type ConfigError struct {
	Code         ConfigErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid object storage config"
	}
	switch e.Code {
	case ConfigErrorInvalidMode:
		return fmt.Sprintf(
			"invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q, %q, %q)",
			e.Mode, ModeGCS, ModeGCSEmulator, ModeS3, ModeMemory,
		)
	case ConfigErrorMissingEmulatorHost:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST to be set", ModeGCSEmulator)
	case ConfigErrorInvalidEmulatorHost:
		return fmt.Sprintf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", e.EmulatorHost)
	default:
		return "invalid object storage config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ResolveConfigFromEnv reads OBJECT_STORAGE_MODE and STORAGE_EMULATOR_HOST. An unset
// mode with an emulator host present falls back to gcs_emulator.
func ResolveConfigFromEnv() (Config, error) {
	return ResolveConfig(os.Getenv("OBJECT_STORAGE_MODE"), os.Getenv("STORAGE_EMULATOR_HOST"))
}

func ResolveConfig(rawMode, emulatorHost string) (Config, error) {
	cfg := Config{EmulatorHost: strings.TrimSpace(emulatorHost)}
	rawMode = strings.TrimSpace(rawMode)
	mode := Mode(strings.ToLower(rawMode))
	switch {
	case mode == "" && cfg.EmulatorHost != "":
		cfg.Mode = ModeGCSEmulator
		cfg.CompatibilityFallback = true
	case mode == "":
		cfg.Mode = ModeGCS
	case IsSupportedMode(mode):
		cfg.Mode = mode
	default:
		return cfg, &ConfigError{Code: ConfigErrorInvalidMode, Mode: rawMode}
	}
	if err := ValidateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func ValidateConfig(cfg Config) error {
	if !IsSupportedMode(cfg.Mode) {
		return &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
	if !cfg.IsEmulatorMode() {
		return nil
	}
	if cfg.EmulatorHost == "" {
		return &ConfigError{Code: ConfigErrorMissingEmulatorHost, Mode: string(cfg.Mode)}
	}
	u, err := url.Parse(cfg.EmulatorHost)
	if err != nil || strings.TrimSpace(u.Scheme) == "" || strings.TrimSpace(u.Host) == "" {
		return &ConfigError{
			Code:         ConfigErrorInvalidEmulatorHost,
			Mode:         string(cfg.Mode),
			EmulatorHost: cfg.EmulatorHost,
			Cause:        err,
		}
	}
	return nil
}

// PublicBaseURL resolves OBJECT_STORAGE_PUBLIC_BASE_URL, falling back to the emulator host.
func PublicBaseURL(cfg Config) (baseURL string, source string, err error) {
	raw := strings.TrimSpace(os.Getenv("OBJECT_STORAGE_PUBLIC_BASE_URL"))
	if raw != "" {
		parsed, parseErr := url.Parse(raw)
		if parseErr != nil || strings.TrimSpace(parsed.Scheme) == "" || strings.TrimSpace(parsed.Host) == "" {
			return "", "", fmt.Errorf("invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q; expected absolute URL like http://localhost:4443", raw)
		}
		return strings.TrimRight(raw, "/"), "object_storage_public_base_url", nil
	}
	if cfg.IsEmulatorMode() {
		return strings.TrimRight(cfg.EmulatorHost, "/"), "storage_emulator_host", nil
	}
	return "", "default", nil
}
