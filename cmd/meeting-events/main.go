// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package main is the meeting events service. It receives video and chat platform
// webhooks over HTTP and runs the background meeting jobs pulled from NATS JetStream.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/victor-cyril/Agenda-AI/internal/logging"
	"github.com/victor-cyril/Agenda-AI/pkg/utils"
)

func main() {
	env := parseEnv()
	flags := parseFlags(env.Port)

	logging.InitStructureLogConfig()

	if err := env.validate(); err != nil {
		slog.With(logging.ErrKey, err).Error("invalid configuration")
		os.Exit(1)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	gracefulCloseWG := sync.WaitGroup{}

	otelShutdown, err := utils.SetupOTelSDK(ctx)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up OpenTelemetry")
		os.Exit(1)
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.With(logging.ErrKey, err).Error("error shutting down OpenTelemetry")
		}
	}()

	db, err := setupDatabase(ctx, env)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up database")
		return
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.With(logging.ErrKey, err).Error("error closing database")
		}
	}()

	// Setup NATS connection
	natsConn, err := setupNATS(ctx, env, &gracefulCloseWG, done)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up NATS")
		return
	}

	js, err := jetstream.New(natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error creating JetStream context")
		return
	}

	// Get the key-value stores for the job runner.
	kv, err := getKeyValueStores(ctx, js)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error getting key-value stores")
		return
	}

	a := buildApp(env, db, natsConn, js, kv)

	httpServer := setupHTTPServer(flags, a, &gracefulCloseWG)

	go func() {
		if err := a.Consumer.Run(ctx); err != nil {
			slog.With(logging.ErrKey, err).Error("job consumer stopped", logging.PriorityCritical())
			select {
			case done <- os.Interrupt:
			default:
			}
		}
	}()

	// This next line blocks until SIGINT or SIGTERM is received.
	<-done

	gracefulShutdown(httpServer, natsConn, &gracefulCloseWG, cancel)
}
