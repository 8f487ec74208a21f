package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

type Format string

const (
	FormatPlain  Format = "plain"
	FormatHTML   Format = "html"
	FormatJSON   Format = "json"
	FormatSQLite Format = "sqlite"
)

var formatAliases = map[string]Format{
	"default": FormatPlain,
	"d":       FormatPlain,
	"plain":   FormatPlain,
	"text":    FormatPlain,
	"html":    FormatHTML,
	"h":       FormatHTML,
	"json":    FormatJSON,
	"j":       FormatJSON,
	"sqlite":  FormatSQLite,
	"db":      FormatSQLite,
}

// ParseFormat accepts a format name or its one-letter alias, in any case.
func ParseFormat(s string) (Format, error) {
	f, ok := formatAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown format %q", s)
	}
	return f, nil
}

// DefaultSavePath is the output file used when none is given.
func (f Format) DefaultSavePath() string {
	switch f {
	case FormatHTML:
		return "output.html"
	case FormatJSON:
		return "output.json"
	case FormatSQLite:
		return "output.db"
	default:
		return "output.txt"
	}
}

// MinNodes is the smallest useful budget: the post and one reply.
const MinNodes = 2

type Config struct {
	LogPath string

	RequestTimeout    time.Duration
	Retries           int
	RequestsPerMinute float64
	Burst             int
	UserAgent         string

	Workers  int
	MaxNodes int // 0 means unlimited

	Format   Format
	SavePath string
	ToStdout bool
	Sort     string
	Filter   string
	Progress bool
	Verbose  bool
}

func Default() Config {
	return Config{
		LogPath:        filepath.Join(userConfigDir(), "threadgrab", "debug.log"),
		RequestTimeout: 10 * time.Second,
		Retries:        3,
		Burst:          1,
		UserAgent:      "threadgrab/1.0",
		Workers:        runtime.NumCPU(),
		Format:         FormatPlain,
		SavePath:       FormatPlain.DefaultSavePath(),
		Progress:       true,
	}
}

// FromEnv overlays THREADGRAB_* environment variables on cfg. Unset
// variables leave the field alone.
func FromEnv(cfg Config) (Config, error) {
	return fromLookup(cfg, os.LookupEnv)
}

func fromLookup(cfg Config, lookup func(string) (string, bool)) (Config, error) {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}

	str("THREADGRAB_LOG_PATH", &cfg.LogPath)
	str("THREADGRAB_USER_AGENT", &cfg.UserAgent)
	str("THREADGRAB_SORT", &cfg.Sort)
	str("THREADGRAB_FILTER", &cfg.Filter)
	integer("THREADGRAB_RETRIES", &cfg.Retries)
	integer("THREADGRAB_WORKERS", &cfg.Workers)
	integer("THREADGRAB_MAX", &cfg.MaxNodes)
	integer("THREADGRAB_BURST", &cfg.Burst)

	if v, ok := lookup("THREADGRAB_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("THREADGRAB_TIMEOUT: %w", err))
		} else {
			cfg.RequestTimeout = d
		}
	}
	if v, ok := lookup("THREADGRAB_RPM"); ok && v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("THREADGRAB_RPM: %w", err))
		} else {
			cfg.RequestsPerMinute = f
		}
	}
	if v, ok := lookup("THREADGRAB_FORMAT"); ok && v != "" {
		f, err := ParseFormat(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("THREADGRAB_FORMAT: %w", err))
		} else {
			cfg.SetFormat(f)
		}
	}
	return cfg, errors.Join(errs...)
}

// SetFormat switches the output format and, when the save path is still
// a format default, the save path with it.
func (c *Config) SetFormat(f Format) {
	if c.SavePath == "" || c.SavePath == c.Format.DefaultSavePath() {
		c.SavePath = f.DefaultSavePath()
	}
	c.Format = f
}

func (c Config) Validate() error {
	var errs []error
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.MaxNodes < 0 || c.MaxNodes > 0 && c.MaxNodes < MinNodes {
		errs = append(errs, fmt.Errorf("max must be at least %d, got %d", MinNodes, c.MaxNodes))
	}
	if c.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries must not be negative, got %d", c.Retries))
	}
	if c.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("rpm must not be negative, got %v", c.RequestsPerMinute))
	}
	if _, ok := formatAliases[string(c.Format)]; !ok {
		errs = append(errs, fmt.Errorf("unknown format %q", c.Format))
	}
	if !c.ToStdout && c.SavePath == "" {
		errs = append(errs, errors.New("save path is empty"))
	}
	return errors.Join(errs...)
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}
