// Package config resolves runtime settings from flags, the environment, and
// an optional .env file, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/csheth/datachat/internal/backend"
	"github.com/csheth/datachat/internal/session"
)

const (
	envBaseURL = "DATACHAT_BASE_URL"
	envTimeout = "DATACHAT_TIMEOUT"
	envLogPath = "DATACHAT_LOG"
)

// Config holds everything main needs to start the program.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	LogPath     string
	FilePath    string
	NoAltScreen bool
	EnvFile     string
}

// Load parses args (without the program name). Values missing from the
// command line fall back to the environment, which is seeded from envFile
// when it exists.
func Load(args []string, output io.Writer) (Config, error) {
	fs := flag.NewFlagSet("datachat", flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}
	baseURL := fs.String("base-url", "", "analysis service base URL (default "+backend.DefaultBaseURL+")")
	timeout := fs.String("timeout", "", "per-request timeout, eg. 90s; 0 disables (default 2m)")
	logPath := fs.String("log", "", "write diagnostics to this file")
	filePath := fs.String("file", "", "preselect a file to ask about")
	noAltScreen := fs.Bool("no-alt-screen", false, "disable the alternate screen buffer")
	envFile := fs.String("env-file", ".env", "dotenv file to load before reading the environment")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", *envFile, err)
		}
	}

	cfg := Config{
		BaseURL:     firstNonEmpty(*baseURL, os.Getenv(envBaseURL), backend.DefaultBaseURL),
		LogPath:     firstNonEmpty(*logPath, os.Getenv(envLogPath)),
		FilePath:    strings.TrimSpace(*filePath),
		NoAltScreen: *noAltScreen,
		EnvFile:     *envFile,
		Timeout:     session.DefaultTimeout,
	}

	rawTimeout := firstNonEmpty(*timeout, os.Getenv(envTimeout))
	if rawTimeout != "" {
		d, err := parseTimeout(rawTimeout)
		if err != nil {
			return Config{}, err
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid timeout %q: must not be negative", raw)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if v := strings.TrimSpace(value); v != "" {
			return v
		}
	}
	return ""
}
