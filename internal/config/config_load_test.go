package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Helper function to reset pflag.CommandLine for testing
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	viper.Reset()
}

// prepare sets os.Args, clears flag state and points the env file at a
// path that does not exist so a developer's .env cannot leak into tests.
func prepare(t *testing.T, args ...string) {
	t.Helper()
	originalArgs := os.Args
	t.Cleanup(func() {
		os.Args = originalArgs
		resetFlags()
	})

	os.Args = append([]string{"mcp-idcard-reader"}, args...)
	resetFlags()
	t.Setenv("IDCARD_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadFromFlags_DefaultConfig(t *testing.T) {
	prepare(t)

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "stdio" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, "stdio")
	}
	if cfg.Port != 8080 {
		t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, 8080)
	}
	if cfg.OCR.Engine != "tesseract" {
		t.Errorf("LoadFromFlags() OCR.Engine = %v, want tesseract", cfg.OCR.Engine)
	}
	if strings.Join(cfg.OCR.Languages, ",") != "vie,eng" {
		t.Errorf("LoadFromFlags() OCR.Languages = %v, want [vie eng]", cfg.OCR.Languages)
	}
	if cfg.OCR.Timeout != time.Minute {
		t.Errorf("LoadFromFlags() OCR.Timeout = %v, want 1m", cfg.OCR.Timeout)
	}
	if cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("LoadFromFlags() Cache.TTL = %v, want 24h", cfg.Cache.TTL)
	}
	if cfg.VerifyThreshold != 0.85 {
		t.Errorf("LoadFromFlags() VerifyThreshold = %v, want 0.85", cfg.VerifyThreshold)
	}
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "server mode with custom host and port",
			args: []string{"--mode=server", "--host=0.0.0.0", "--port=9090"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Mode != "server" || cfg.Host != "0.0.0.0" || cfg.Port != 9090 {
					t.Errorf("unexpected server settings: %s", cfg)
				}
			},
		},
		{
			name: "debug logging",
			args: []string{"--loglevel=debug"},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.IsDebug() {
					t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
				}
			},
		},
		{
			name: "ocr settings",
			args: []string{"--ocr-engine=vision", "--ocr-languages=vie", "--ocr-dpi=600", "--ocr-timeout=15s"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.OCR.Engine != "vision" || cfg.OCR.DPI != 600 || cfg.OCR.Timeout != 15*time.Second {
					t.Errorf("unexpected OCR settings: %+v", cfg.OCR)
				}
				if strings.Join(cfg.OCR.Languages, ",") != "vie" {
					t.Errorf("OCR.Languages = %v, want [vie]", cfg.OCR.Languages)
				}
			},
		},
		{
			name: "cache and threshold",
			args: []string{"--redis-url=redis://localhost:6379/1", "--cache-ttl=1h", "--verify-threshold=0.9"},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.CacheEnabled() || cfg.Cache.TTL != time.Hour {
					t.Errorf("unexpected cache settings: %+v", cfg.Cache)
				}
				if cfg.VerifyThreshold != 0.9 {
					t.Errorf("VerifyThreshold = %v, want 0.9", cfg.VerifyThreshold)
				}
			},
		},
		{
			name: "relative card directory is made absolute",
			args: []string{"--dir=."},
			check: func(t *testing.T, cfg *Config) {
				if !filepath.IsAbs(cfg.CardDirectory) {
					t.Errorf("CardDirectory = %v, want absolute path", cfg.CardDirectory)
				}
			},
		},
		{
			name: "custom max file size",
			args: []string{"--maxfilesize=5000000"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.MaxFileSize != 5000000 {
					t.Errorf("MaxFileSize = %v, want 5000000", cfg.MaxFileSize)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prepare(t, tt.args...)

			cfg, err := LoadFromFlags()
			if err != nil {
				t.Fatalf("LoadFromFlags() unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	prepare(t)
	t.Setenv("IDCARD_MODE", "server")
	t.Setenv("IDCARD_PORT", "3000")
	t.Setenv("IDCARD_LOGLEVEL", "warn")
	t.Setenv("IDCARD_OCR_ENGINE", "vision")
	t.Setenv("IDCARD_OCR_LANGUAGES", "vie+eng")
	t.Setenv("IDCARD_CACHE_REDISURL", "redis://cache:6379/0")
	t.Setenv("IDCARD_VERIFY_THRESHOLD", "0.7")

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "server" || cfg.Port != 3000 || cfg.LogLevel != "warn" {
		t.Errorf("unexpected server settings: %s", cfg)
	}
	if cfg.OCR.Engine != "vision" {
		t.Errorf("OCR.Engine = %v, want vision", cfg.OCR.Engine)
	}
	if strings.Join(cfg.OCR.Languages, ",") != "vie,eng" {
		t.Errorf("OCR.Languages = %v, want [vie eng]", cfg.OCR.Languages)
	}
	if cfg.Cache.RedisURL != "redis://cache:6379/0" {
		t.Errorf("Cache.RedisURL = %v", cfg.Cache.RedisURL)
	}
	if cfg.VerifyThreshold != 0.7 {
		t.Errorf("VerifyThreshold = %v, want 0.7", cfg.VerifyThreshold)
	}
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	prepare(t, "--mode=stdio", "--ocr-engine=tesseract")
	t.Setenv("IDCARD_MODE", "server")
	t.Setenv("IDCARD_OCR_ENGINE", "vision")

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	// Flags should override environment variables
	if cfg.Mode != "stdio" {
		t.Errorf("LoadFromFlags() Mode = %v, want stdio (should override env)", cfg.Mode)
	}
	if cfg.OCR.Engine != "tesseract" {
		t.Errorf("LoadFromFlags() OCR.Engine = %v, want tesseract (should override env)", cfg.OCR.Engine)
	}
}

func TestLoadFromFlags_EnvFile(t *testing.T) {
	prepare(t)
	envFile := filepath.Join(t.TempDir(), "card.env")
	content := "IDCARD_PORT=7070\nIDCARD_OCR_DPI=400\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("IDCARD_ENV_FILE", envFile)
	t.Cleanup(func() {
		os.Unsetenv("IDCARD_PORT")
		os.Unsetenv("IDCARD_OCR_DPI")
	})

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("Port = %v, want 7070 from env file", cfg.Port)
	}
	if cfg.OCR.DPI != 400 {
		t.Errorf("OCR.DPI = %v, want 400 from env file", cfg.OCR.DPI)
	}
}

func TestLoadFromFlags_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"invalid mode", []string{"--mode=invalid"}, "mode must be either 'stdio' or 'server'"},
		{"invalid port", []string{"--mode=server", "--port=99999"}, "port must be between 1 and 65535"},
		{"invalid log level", []string{"--loglevel=verbose"}, "invalid log level"},
		{"invalid engine", []string{"--ocr-engine=paddle"}, "invalid OCR engine"},
		{"empty languages", []string{"--ocr-languages="}, "OCR language"},
		{"invalid threshold", []string{"--verify-threshold=0"}, "verify threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prepare(t, tt.args...)

			_, err := LoadFromFlags()
			if err == nil {
				t.Fatalf("LoadFromFlags() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFromFlags() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFlags_VersionFlag(t *testing.T) {
	prepare(t, "--version")

	_, err := LoadFromFlags()
	if err == nil || err.Error() != "version requested" {
		t.Errorf("LoadFromFlags() error = %v, want 'version requested'", err)
	}
}
