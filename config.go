package mcresp

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// DefaultReadSize is the size of the read buffer wrapped around the source.
	DefaultReadSize = 4096

	// DefaultMaxResponseSize fits the largest item memcached stores by
	// default (1 MB) plus its header and END line.
	DefaultMaxResponseSize = 1024*1024 + 1024
)

// Environment variables read by LoadConfigFromEnv.
const (
	EnvReadSize        = "MCRESP_READ_SIZE"
	EnvMaxResponseSize = "MCRESP_MAX_RESPONSE_SIZE"
	EnvLogLevel        = "MCRESP_LOG_LEVEL"
	EnvLogComponents   = "MCRESP_LOG_COMPONENTS"
)

// Config holds configuration for decoders.
type Config struct {
	// ReadSize is the size of the buffered reader wrapped around the source.
	// Zero means DefaultReadSize.
	ReadSize int

	// MaxResponseSize bounds the bytes accumulated for a single response.
	// Zero means DefaultMaxResponseSize.
	MaxResponseSize int

	// Logger receives diagnostics about error replies and protocol
	// violations. If nil, diagnostics are discarded.
	Logger *slog.Logger

	// Stats records every classified response. If nil, nothing is recorded.
	Stats *Stats
}

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.ReadSize <= 0 {
		c.ReadSize = DefaultReadSize
	}
	if c.MaxResponseSize <= 0 {
		c.MaxResponseSize = DefaultMaxResponseSize
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// LoadConfigFromEnv builds a Config from the environment.
//
// The given dotenv files are loaded first (".env" when none are given);
// missing files are ignored and variables already set in the environment
// win. When MCRESP_LOG_LEVEL is set, Logger writes diagnostics to stderr for
// the components listed in MCRESP_LOG_COMPONENTS (comma separated, default
// DefaultComponent).
func LoadConfigFromEnv(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("mcresp: loading env files: %w", err)
	}

	var cfg Config
	var err error

	if cfg.ReadSize, err = envInt(EnvReadSize); err != nil {
		return Config{}, err
	}
	if cfg.MaxResponseSize, err = envInt(EnvMaxResponseSize); err != nil {
		return Config{}, err
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("mcresp: invalid %s: %w", EnvLogLevel, err)
		}
		cfg.Logger = NewDiagnosticLogger(os.Stderr, level, SplitComponents(os.Getenv(EnvLogComponents))...)
	}

	return cfg, nil
}

func envInt(name string) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("mcresp: invalid %s %q: must be a non-negative integer", name, v)
	}
	return n, nil
}

// SplitComponents parses a comma separated component list, dropping blanks.
func SplitComponents(s string) []string {
	var components []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			components = append(components, c)
		}
	}
	return components
}
