package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"stasis/internal/protocol"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvAddr        = "STASIS_ADDR"
	EnvHTTPAddr    = "STASIS_HTTP_ADDR"
	EnvLogLevel    = "STASIS_LOG_LEVEL"
	EnvLogBuffer   = "STASIS_LOG_BUFFER"
	EnvLogFile     = "STASIS_LOG_FILE"
	EnvFraming     = "STASIS_FRAMING"
	EnvMaxFrame    = "STASIS_MAX_FRAME"
	EnvDialRetries = "STASIS_DIAL_RETRIES"
	EnvDialBackoff = "STASIS_DIAL_BACKOFF"
)

// Framing modes for the TCP protocol.
const (
	FramingLine  = protocol.FramingLine
	FramingFrame = protocol.FramingFrame
)

// Config holds process settings for the server and client binaries.
type Config struct {
	Addr     string `validate:"required,hostname_port"`
	HTTPAddr string `validate:"required,hostname_port"`

	LogLevel  string `validate:"oneof=DEBUG INFO WARN ERROR"`
	LogBuffer int    `validate:"gt=0"`
	// LogFile is optional; empty disables the JSON file log.
	LogFile string

	Framing  string `validate:"oneof=line frame"`
	MaxFrame int    `validate:"gt=0,lte=16777216"`

	DialRetries int           `validate:"gte=0"`
	DialBackoff time.Duration `validate:"gt=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:        "0.0.0.0:15550",
		HTTPAddr:    ":8080",
		LogLevel:    "INFO",
		LogBuffer:   1000,
		LogFile:     "logs/stasis.json",
		Framing:     FramingLine,
		MaxFrame:    protocol.MaxPayloadLength,
		DialRetries: 3,
		DialBackoff: 100 * time.Millisecond,
	}
}

var validate = validator.New()

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load starts from Default, applies the given .env files (missing files are
// skipped, variables already in the environment win) and then STASIS_*
// environment variables, and validates the result.
func Load(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Default()

	setString(&cfg.Addr, EnvAddr)
	setString(&cfg.HTTPAddr, EnvHTTPAddr)
	setString(&cfg.LogLevel, EnvLogLevel)
	setString(&cfg.Framing, EnvFraming)
	cfg.LogLevel = strings.ToUpper(cfg.LogLevel)

	if v, ok := os.LookupEnv(EnvLogFile); ok {
		cfg.LogFile = v
	}

	if err := setInt(&cfg.LogBuffer, EnvLogBuffer); err != nil {
		return Config{}, err
	}
	if err := setInt(&cfg.MaxFrame, EnvMaxFrame); err != nil {
		return Config{}, err
	}
	if err := setInt(&cfg.DialRetries, EnvDialRetries); err != nil {
		return Config{}, err
	}
	if v := os.Getenv(EnvDialBackoff); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvDialBackoff, err)
		}
		cfg.DialBackoff = d
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
