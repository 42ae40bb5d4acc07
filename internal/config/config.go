package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// OCR engines
	EngineTesseract = "tesseract"
	EngineVision    = "vision"

	// Default values
	DefaultPort            = 8080
	DefaultHost            = "127.0.0.1"
	DefaultLogLevel        = "info"
	DefaultMaxFileSize     = 20 * 1024 * 1024 // 20MB
	DefaultOCREngine       = EngineTesseract
	DefaultOCRDPI          = 300
	DefaultOCRTimeout      = 60 * time.Second
	DefaultCacheTTL        = 24 * time.Hour
	DefaultVerifyThreshold = 0.85

	// Directory permissions
	DefaultDirPerm = 0o750

	// EnvPrefix prefixes every environment variable, e.g. IDCARD_OCR_ENGINE.
	EnvPrefix = "IDCARD"
	// DefaultEnvFile is loaded into the environment when present.
	DefaultEnvFile = ".env"
)

// DefaultOCRLanguages are the Tesseract models used for card text.
var DefaultOCRLanguages = []string{"vie", "eng"}

// OCRConfig selects and tunes the OCR engine.
type OCRConfig struct {
	Engine      string
	Languages   []string
	DPI         int
	Timeout     time.Duration
	Credentials string // Vision service-account file, optional
}

// CacheConfig configures the OCR result cache.
type CacheConfig struct {
	RedisURL string // empty disables the cache
	TTL      time.Duration
}

// Config holds all configuration for the ID card MCP server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// CardDirectory confines the card files MCP tools may read
	CardDirectory string

	OCR   OCRConfig
	Cache CacheConfig

	// VerifyThreshold is the minimum name similarity for idcard_verify.
	VerifyThreshold float64

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum card file or upload size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:          ModeStdio, // Default to stdio mode for MCP compatibility
		Host:          DefaultHost,
		Port:          DefaultPort,
		CardDirectory: currentDir,
		OCR: OCRConfig{
			Engine:    DefaultOCREngine,
			Languages: append([]string(nil), DefaultOCRLanguages...),
			DPI:       DefaultOCRDPI,
			Timeout:   DefaultOCRTimeout,
		},
		Cache: CacheConfig{
			TTL: DefaultCacheTTL,
		},
		VerifyThreshold: DefaultVerifyThreshold,
		Version:         "1.0.0",
		ServerName:      "mcp-idcard-reader",
		LogLevel:        DefaultLogLevel,
		MaxFileSize:     DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	if err := loadEnvFile(envFilePath()); err != nil {
		return nil, err
	}

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.CardDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.CardDirectory); err == nil {
			cfg.CardDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// envFilePath returns the dotenv file to load, overridable with
// IDCARD_ENV_FILE.
func envFilePath() string {
	if p := os.Getenv(EnvPrefix + "_ENV_FILE"); p != "" {
		return p
	}
	return DefaultEnvFile
}

// loadEnvFile loads path into the process environment. A missing file is
// not an error; variables already set are not overridden.
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot load env file %s: %w", path, err)
	}
	return nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix; "ocr.engine" reads IDCARD_OCR_ENGINE
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.CardDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("ocr.engine", cfg.OCR.Engine)
	viper.SetDefault("ocr.languages", strings.Join(cfg.OCR.Languages, ","))
	viper.SetDefault("ocr.dpi", cfg.OCR.DPI)
	viper.SetDefault("ocr.timeout", cfg.OCR.Timeout)
	viper.SetDefault("ocr.credentials", cfg.OCR.Credentials)
	viper.SetDefault("cache.redisurl", cfg.Cache.RedisURL)
	viper.SetDefault("cache.ttl", cfg.Cache.TTL)
	viper.SetDefault("verify.threshold", cfg.VerifyThreshold)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.CardDirectory, "Directory containing card images and PDFs")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum card image, PDF or upload size in bytes")
	pflag.String("ocr-engine", cfg.OCR.Engine, "OCR engine: 'tesseract' or 'vision'")
	pflag.String("ocr-languages", strings.Join(cfg.OCR.Languages, ","), "Comma-separated Tesseract languages")
	pflag.Int("ocr-dpi", cfg.OCR.DPI, "Scan resolution hint passed to the OCR engine")
	pflag.Duration("ocr-timeout", cfg.OCR.Timeout, "Timeout for recognizing one card side")
	pflag.String("ocr-credentials", cfg.OCR.Credentials, "Google Cloud service-account file (vision engine)")
	pflag.String("redis-url", cfg.Cache.RedisURL, "Redis URL for the OCR cache (empty disables caching)")
	pflag.Duration("cache-ttl", cfg.Cache.TTL, "How long cached OCR text is kept")
	pflag.Float64("verify-threshold", cfg.VerifyThreshold, "Minimum name similarity (0-1] for verification")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("dir", pflag.Lookup("dir"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
	_ = viper.BindPFlag("ocr.engine", pflag.Lookup("ocr-engine"))
	_ = viper.BindPFlag("ocr.languages", pflag.Lookup("ocr-languages"))
	_ = viper.BindPFlag("ocr.dpi", pflag.Lookup("ocr-dpi"))
	_ = viper.BindPFlag("ocr.timeout", pflag.Lookup("ocr-timeout"))
	_ = viper.BindPFlag("ocr.credentials", pflag.Lookup("ocr-credentials"))
	_ = viper.BindPFlag("cache.redisurl", pflag.Lookup("redis-url"))
	_ = viper.BindPFlag("cache.ttl", pflag.Lookup("cache-ttl"))
	_ = viper.BindPFlag("verify.threshold", pflag.Lookup("verify-threshold"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP ID Card Reader - extracts identity fields from Vietnamese ID cards\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                          # stdio mode (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --port=8081                # HTTP API and MCP endpoint\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --ocr-engine=vision --ocr-credentials=sa.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --redis-url=redis://localhost:6379/0     # cache OCR results\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables (also read from .env):\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_MODE              Server mode\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_HOST              Server host\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_PORT              Server port\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_DIR               Card directory\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_LOGLEVEL          Log level\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_MAXFILESIZE       Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_OCR_ENGINE        OCR engine\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_OCR_LANGUAGES     OCR languages\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_OCR_DPI           OCR DPI hint\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_OCR_TIMEOUT       OCR timeout per side\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_OCR_CREDENTIALS   Vision credentials file\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_CACHE_REDISURL    Redis URL\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_CACHE_TTL         Cache TTL\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_VERIFY_THRESHOLD  Name similarity threshold\n")
		fmt.Fprintf(os.Stderr, "  IDCARD_ENV_FILE          Path of the env file (default .env)\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.CardDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.OCR.Engine = viper.GetString("ocr.engine")
	cfg.OCR.Languages = ParseLanguages(viper.GetString("ocr.languages"))
	cfg.OCR.DPI = viper.GetInt("ocr.dpi")
	cfg.OCR.Timeout = viper.GetDuration("ocr.timeout")
	cfg.OCR.Credentials = viper.GetString("ocr.credentials")
	cfg.Cache.RedisURL = viper.GetString("cache.redisurl")
	cfg.Cache.TTL = viper.GetDuration("cache.ttl")
	cfg.VerifyThreshold = viper.GetFloat64("verify.threshold")
}

// ParseLanguages splits a comma or plus separated language list.
func ParseLanguages(s string) []string {
	var langs []string
	for _, l := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '+' || r == ' ' }) {
		langs = append(langs, strings.ToLower(l))
	}
	return langs
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// Validate card directory
	if c.CardDirectory == "" {
		return errors.New("card directory cannot be empty")
	}

	// Check if card directory exists, create if it doesn't
	if _, err := os.Stat(c.CardDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.CardDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create card directory %s: %w", c.CardDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access card directory %s: %w", c.CardDirectory, err)
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if err := c.validateOCR(); err != nil {
		return err
	}

	if c.Cache.RedisURL != "" && c.Cache.TTL <= 0 {
		return errors.New("cache TTL must be positive")
	}

	if c.VerifyThreshold <= 0 || c.VerifyThreshold > 1 {
		return fmt.Errorf("verify threshold must be in (0, 1], got %v", c.VerifyThreshold)
	}

	return nil
}

func (c *Config) validateOCR() error {
	switch c.OCR.Engine {
	case EngineTesseract, EngineVision:
	default:
		return fmt.Errorf("invalid OCR engine: %s (must be one of: tesseract, vision)", c.OCR.Engine)
	}

	if len(c.OCR.Languages) == 0 {
		return errors.New("at least one OCR language is required")
	}
	if c.OCR.DPI < 0 {
		return errors.New("OCR DPI cannot be negative")
	}
	if c.OCR.Timeout <= 0 {
		return errors.New("OCR timeout must be positive")
	}

	if c.OCR.Credentials != "" {
		if _, err := os.Stat(c.OCR.Credentials); err != nil {
			return fmt.Errorf("cannot access OCR credentials %s: %w", c.OCR.Credentials, err)
		}
	}
	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// CacheEnabled reports whether OCR results are cached in Redis.
func (c *Config) CacheEnabled() bool {
	return c.Cache.RedisURL != ""
}

// String returns a string representation of the configuration.
// The Redis URL is omitted since it may carry a password.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, CardDirectory: %s, LogLevel: %s, MaxFileSize: %d, "+
		"OCR: %s/%s, Cache: %t, VerifyThreshold: %.2f}",
		c.Mode, c.Host, c.Port, c.CardDirectory, c.LogLevel, c.MaxFileSize,
		c.OCR.Engine, strings.Join(c.OCR.Languages, "+"), c.CacheEnabled(), c.VerifyThreshold)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
