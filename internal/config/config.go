// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package config loads Gatewarden configuration from defaults, an
// optional YAML file, and command-line flags, in that order of
// precedence (later layers win).
package config

import (
	"math"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Defaults.
const (
	DefaultObservabilityAddr = "127.0.0.1:9400"
	DefaultLogFormat         = "json"

	defaultArgon2Memory  = 64 * 1024
	defaultArgon2Time    = 1
	defaultArgon2Threads = 4
)

// Config holds the service configuration.
type Config struct {
	// DatabaseURL is the PostgreSQL connection string.
	DatabaseURL string

	// LogFormat is "json" or "text".
	LogFormat string

	// ObservabilityAddr is the listen address for metrics and health
	// endpoints.
	ObservabilityAddr string

	// Argon2 work-factor parameters for password hashing.
	Argon2Memory  uint32
	Argon2Time    uint32
	Argon2Threads uint8

	// SessionTTL bounds session lifetime when positive. Zero keeps
	// sessions valid until explicit logout.
	SessionTTL time.Duration
}

// Load builds a Config from defaults, the YAML file at path (if any),
// the DATABASE_URL environment variable, and changed flags.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"database.url":        "",
		"log.format":          DefaultLogFormat,
		"observability.addr":  DefaultObservabilityAddr,
		"auth.argon2_memory":  defaultArgon2Memory,
		"auth.argon2_time":    defaultArgon2Time,
		"auth.argon2_threads": defaultArgon2Threads,
		"auth.session_ttl":    time.Duration(0),
	}
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, oops.Code("CONFIG_DEFAULTS_FAILED").With("key", key).Wrap(err)
		}
	}

	if env := os.Getenv("DATABASE_URL"); env != "" {
		if err := k.Set("database.url", env); err != nil {
			return nil, oops.Code("CONFIG_ENV_FAILED").Wrap(err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	memory := k.Int("auth.argon2_memory")
	timeCost := k.Int("auth.argon2_time")
	threads := k.Int("auth.argon2_threads")
	if memory < 1 || int64(memory) > math.MaxUint32 {
		return nil, oops.Code("CONFIG_INVALID").
			With("auth.argon2_memory", memory).
			Errorf("argon2 memory must be between 1 and %d KiB", uint32(math.MaxUint32))
	}
	if timeCost < 1 || int64(timeCost) > math.MaxUint32 {
		return nil, oops.Code("CONFIG_INVALID").
			With("auth.argon2_time", timeCost).
			Errorf("argon2 time must be between 1 and %d", uint32(math.MaxUint32))
	}
	if threads < 1 || threads > math.MaxUint8 {
		return nil, oops.Code("CONFIG_INVALID").
			With("auth.argon2_threads", threads).
			Errorf("argon2 threads must be between 1 and %d", math.MaxUint8)
	}

	cfg := &Config{
		DatabaseURL:       k.String("database.url"),
		LogFormat:         k.String("log.format"),
		ObservabilityAddr: k.String("observability.addr"),
		Argon2Memory:      uint32(memory),
		Argon2Time:        uint32(timeCost),
		Argon2Threads:     uint8(threads),
		SessionTTL:        k.Duration("auth.session_ttl"),
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, oops.Code("CONFIG_INVALID").
			With("log.format", cfg.LogFormat).
			Errorf("log format must be json or text")
	}
	if cfg.SessionTTL < 0 {
		return nil, oops.Code("CONFIG_INVALID").
			With("auth.session_ttl", cfg.SessionTTL.String()).
			Errorf("session TTL cannot be negative")
	}

	return cfg, nil
}

// RegisterFlags declares the config-overriding flags on the given set.
// Flag names mirror config keys so the posflag provider can map them.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("database.url", "", "PostgreSQL connection URL")
	flags.String("log.format", DefaultLogFormat, "log output format (json or text)")
	flags.String("observability.addr", DefaultObservabilityAddr, "metrics/health listen address")
	flags.Int("auth.argon2_memory", defaultArgon2Memory, "argon2id memory cost in KiB")
	flags.Int("auth.argon2_time", defaultArgon2Time, "argon2id iteration count")
	flags.Int("auth.argon2_threads", defaultArgon2Threads, "argon2id parallelism")
	flags.Duration("auth.session_ttl", 0, "session lifetime, 0 for no expiry")
}
