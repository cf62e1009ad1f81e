// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/victor-cyril/Agenda-AI/internal/infrastructure/sqlstore"
	"github.com/victor-cyril/Agenda-AI/internal/jobs"
	"github.com/victor-cyril/Agenda-AI/internal/logging"
)

// flags are the command line flags for the meeting events service.
type flags struct {
	Debug bool
	Port  string
	Bind  string
}

// environment are the environment variables for the meeting events service.
type environment struct {
	Port                  string
	NatsURL               string
	NatsTimeout           time.Duration
	NatsMaxReconnect      int
	NatsReconnectWait     time.Duration
	DatabaseDriver        string
	DatabaseURL           string
	Stream                streamConfig
	OpenAI                openAIConfig
	HTTPClientTimeout     time.Duration
	Jobs                  jobsConfig
	SkipWebhookValidation bool
}

// streamConfig holds the video and chat platform configuration.
type streamConfig struct {
	APIKey         string
	APISecret      string
	VideoBaseURL   string
	ChatBaseURL    string
	AgentBridgeURL string
}

// openAIConfig holds the completions API configuration.
type openAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// jobsConfig holds the background job runner configuration.
type jobsConfig struct {
	Workers int
	Policy  jobs.RetryPolicy
}

// parseFlags parses command line flags for the meeting events service
func parseFlags(defaultPort string) flags {
	var debug = flag.Bool("d", false, "enable debug logging")
	var port = flag.String("p", defaultPort, "listen port")
	var bind = flag.String("bind", "*", "interface to bind on")

	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	// Based on the debug flag, set the log level environment variable used by [logging.InitStructureLogConfig]
	if *debug {
		err := os.Setenv("LOG_LEVEL", "debug")
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error setting log level")
			os.Exit(1)
		}
	}

	return flags{
		Debug: *debug,
		Port:  *port,
		Bind:  *bind,
	}
}

// parseEnv parses environment variables for the meeting events service
func parseEnv() environment {
	return environment{
		Port:              envOr("PORT", "8080"),
		NatsURL:           envOr("NATS_URL", "nats://localhost:4222"),
		NatsTimeout:       envDuration("NATS_TIMEOUT", 10*time.Second),
		NatsMaxReconnect:  envInt("NATS_MAX_RECONNECT", 3),
		NatsReconnectWait: envDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		DatabaseDriver:    envOr("DATABASE_DRIVER", sqlstore.DriverPostgres),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		Stream: streamConfig{
			APIKey:         os.Getenv("STREAM_API_KEY"),
			APISecret:      os.Getenv("STREAM_API_SECRET"),
			VideoBaseURL:   os.Getenv("STREAM_VIDEO_BASE_URL"),
			ChatBaseURL:    os.Getenv("STREAM_CHAT_BASE_URL"),
			AgentBridgeURL: os.Getenv("AGENT_BRIDGE_URL"),
		},
		OpenAI: openAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   os.Getenv("OPENAI_MODEL"),
		},
		HTTPClientTimeout: envDuration("HTTP_CLIENT_TIMEOUT", 30*time.Second),
		Jobs: jobsConfig{
			Workers: envInt("JOB_WORKERS", 4),
			Policy: jobs.RetryPolicy{
				MaxDeliver:  envInt("JOB_MAX_DELIVER", jobs.DefaultMaxDeliver),
				BackoffBase: envDuration("JOB_BACKOFF_BASE", jobs.DefaultBackoffBase),
				BackoffMax:  envDuration("JOB_BACKOFF_MAX", jobs.DefaultBackoffMax),
			},
		},
		SkipWebhookValidation: os.Getenv("SKIP_WEBHOOK_VALIDATION") == "true",
	}
}

// validate reports the required settings that are missing.
func (e environment) validate() error {
	var errs []error
	if e.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if e.Stream.APIKey == "" {
		errs = append(errs, errors.New("STREAM_API_KEY is required"))
	}
	if e.Stream.APISecret == "" && !e.SkipWebhookValidation {
		errs = append(errs, errors.New("STREAM_API_SECRET is required"))
	}
	if e.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		slog.Warn("invalid integer environment variable, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		slog.Warn("invalid duration environment variable, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return v
}
