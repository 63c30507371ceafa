// Package config collects the settings of the postcode tools from an optional
// .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Environment variables read by Load.
const (
	EnvPort        = "POSTCODE_PORT"
	EnvTraceCSV    = "POSTCODE_TRACE_CSV"
	EnvTraceDB     = "POSTCODE_TRACE_DB"
	EnvLogLevel    = "POSTCODE_LOG_LEVEL"
	EnvOpenBrowser = "POSTCODE_OPEN_BROWSER"

	EnvSessionTimeout = "POSTCODE_SESSION_TIMEOUT"
)

// DefaultEnvFile is the file Load reads when no other file is given.
const DefaultEnvFile = ".env"

// Config holds the settings shared by all commands.
type Config struct {
	// Port is the web server port. 0 picks a free port.
	Port int

	// TraceCSV and TraceDB name the edit trace files, without extension.
	// Empty disables the corresponding trace.
	TraceCSV string
	TraceDB  string

	LogLevel    log.Level
	OpenBrowser bool

	// SessionTimeout is how long an unused web session is kept. 0 keeps
	// sessions until the page closes them.
	SessionTimeout time.Duration
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Port:           8080,
		LogLevel:       log.InfoLevel,
		SessionTimeout: 30 * time.Minute,
	}
}

// Load reads envFile into the process environment, without overriding
// variables that are already set, and builds a Config from the environment.
// A missing envFile is not an error.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = DefaultEnvFile
	}

	err := godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("reading %s: %w", envFile, err)
	}

	return FromEnv()
}

// FromEnv builds a Config from the environment only.
func FromEnv() (Config, error) {
	c := Default()

	if v, ok := lookup(EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil || port < 0 || port > 65535 {
			return Config{}, fmt.Errorf("%s: invalid port %q", EnvPort, v)
		}
		c.Port = port
	}

	if v, ok := lookup(EnvTraceCSV); ok {
		c.TraceCSV = v
	}

	if v, ok := lookup(EnvTraceDB); ok {
		c.TraceDB = v
	}

	if v, ok := lookup(EnvLogLevel); ok {
		level, err := log.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		c.LogLevel = level
	}

	if v, ok := lookup(EnvOpenBrowser); ok {
		open, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: invalid flag %q", EnvOpenBrowser, v)
		}
		c.OpenBrowser = open
	}

	if v, ok := lookup(EnvSessionTimeout); ok {
		timeout, err := time.ParseDuration(v)
		if err != nil || timeout < 0 {
			return Config{}, fmt.Errorf("%s: invalid duration %q",
				EnvSessionTimeout, v)
		}
		c.SessionTimeout = timeout
	}

	return c, nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return "", false
	}

	v = strings.TrimSpace(v)

	return v, v != ""
}
