// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/handlers"
	"github.com/victor-cyril/Agenda-AI/internal/infrastructure/messaging"
	"github.com/victor-cyril/Agenda-AI/internal/infrastructure/openai"
	"github.com/victor-cyril/Agenda-AI/internal/infrastructure/sqlstore"
	"github.com/victor-cyril/Agenda-AI/internal/infrastructure/store"
	"github.com/victor-cyril/Agenda-AI/internal/infrastructure/stream"
	"github.com/victor-cyril/Agenda-AI/internal/infrastructure/transcript"
	"github.com/victor-cyril/Agenda-AI/internal/jobs"
	"github.com/victor-cyril/Agenda-AI/internal/logging"
	"github.com/victor-cyril/Agenda-AI/internal/observability/metrics"
	"github.com/victor-cyril/Agenda-AI/internal/service"
)

const (
	gracefulShutdownSeconds = 25
	// stepResultTTL bounds how long memoized step results and job claims are kept.
	stepResultTTL = 7 * 24 * time.Hour
)

// kvStores are the NATS key-value buckets used by the job runner and dispatcher.
type kvStores struct {
	Steps  jetstream.KeyValue
	Claims jetstream.KeyValue
}

// app holds the wired components served by the process.
type app struct {
	Webhook   *handlers.WebhookHandler
	Jobs      *handlers.JobHandlers
	Runner    *jobs.Runner
	Consumer  *messaging.JobConsumer
	Registry  *prometheus.Registry
	DB        *sqlstore.DB
	Messaging domain.MessagingHealth
}

// ready reports whether the process can take traffic.
func (a *app) ready(ctx context.Context) error {
	if !a.Webhook.HandlerReady() || !a.Jobs.HandlerReady() {
		return errors.New("handlers not ready")
	}
	if err := a.Messaging.IsReady(); err != nil {
		return fmt.Errorf("messaging: %w", err)
	}
	if err := a.DB.IsReady(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}

// setupNATS connects to NATS. The connection marks gracefulCloseWG done once it is closed.
func setupNATS(ctx context.Context, env environment, gracefulCloseWG *sync.WaitGroup, done chan os.Signal) (*nats.Conn, error) {
	slog.InfoContext(ctx, "connecting to NATS", "nats_url", env.NatsURL)

	gracefulCloseWG.Add(1)
	natsConn, err := nats.Connect(
		env.NatsURL,
		nats.Name("meeting-events"),
		nats.Timeout(env.NatsTimeout),
		nats.MaxReconnects(env.NatsMaxReconnect),
		nats.ReconnectWait(env.NatsReconnectWait),
		nats.DrainTimeout(gracefulShutdownSeconds*time.Second),
		nats.ConnectHandler(func(_ *nats.Conn) {
			slog.InfoContext(ctx, "NATS connection established", "nats_url", env.NatsURL)
		}),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				slog.With(logging.ErrKey, err, "subject", s.Subject).Error("async NATS error")
			} else {
				slog.With(logging.ErrKey, err).Error("async NATS error outside subscription")
			}
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if ctx.Err() != nil {
				// Expected shutdown.
				slog.Info("NATS connection closed gracefully")
			} else {
				slog.Error("NATS connection closed unexpectedly", logging.PriorityCritical())
				// Unexpected close. Trigger a shutdown of the process.
				select {
				case done <- os.Interrupt:
				default:
				}
			}
			gracefulCloseWG.Done()
		}),
	)
	if err != nil {
		gracefulCloseWG.Done()
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return natsConn, nil
}

// getKeyValueStores creates or opens the job buckets.
func getKeyValueStores(ctx context.Context, js jetstream.JetStream) (*kvStores, error) {
	steps, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:       store.KVStoreNameJobSteps,
		Description:  "Memoized results of completed job steps",
		TTL:          stepResultTTL,
		MaxValueSize: store.MaxStepChunkBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("opening bucket %s: %w", store.KVStoreNameJobSteps, err)
	}

	claims, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      store.KVStoreNameJobClaims,
		Description: "Idempotency keys of enqueued jobs",
		TTL:         stepResultTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("opening bucket %s: %w", store.KVStoreNameJobClaims, err)
	}

	return &kvStores{Steps: steps, Claims: claims}, nil
}

// setupDatabase opens the database. SQLite databases are migrated on start.
func setupDatabase(ctx context.Context, env environment) (*sqlstore.DB, error) {
	db, err := sqlstore.Open(ctx, env.DatabaseDriver, env.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if db.Driver() == sqlstore.DriverSQLite {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}
	}
	return db, nil
}

// newRegistry returns the Prometheus registry served on the metrics endpoint.
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// newWebhookValidator returns the signature validator, or a permissive one when validation
// is disabled for local development.
func newWebhookValidator(env environment) domain.WebhookValidator {
	if env.SkipWebhookValidation {
		slog.Warn("webhook signature validation is disabled")
		return stream.NewMockWebhookValidator()
	}
	return stream.NewWebhookValidator(env.Stream.APIKey, env.Stream.APISecret)
}

// buildApp wires the services, handlers and job runner.
func buildApp(
	env environment,
	db *sqlstore.DB,
	natsConn messaging.INatsConn,
	js jetstream.JetStream,
	kv *kvStores,
) *app {
	registry := newRegistry()
	m := metrics.NewMetrics(registry)

	meetings := sqlstore.NewMeetingRepository(db)
	agents := sqlstore.NewAgentRepository(db)
	speakers := sqlstore.NewSpeakerDirectory(db)

	streamConfig := stream.Config{
		APIKey:         env.Stream.APIKey,
		APISecret:      env.Stream.APISecret,
		VideoBaseURL:   env.Stream.VideoBaseURL,
		ChatBaseURL:    env.Stream.ChatBaseURL,
		AgentBridgeURL: env.Stream.AgentBridgeURL,
		Timeout:        env.HTTPClientTimeout,
	}
	video := stream.NewVideoClient(streamConfig, m)
	chat := stream.NewChatClient(streamConfig, m)
	completions := openai.NewClient(openai.Config{
		APIKey:  env.OpenAI.APIKey,
		BaseURL: env.OpenAI.BaseURL,
		Model:   env.OpenAI.Model,
	}, m)
	transcripts := transcript.NewFetcher(env.HTTPClientTimeout, m)

	messageBuilder := messaging.NewMessageBuilder(natsConn, js, m)
	ledger := store.NewNatsIdempotencyLedger(kv.Claims)
	steps := store.NewNatsStepStore(kv.Steps)

	verifier := service.NewWebhookVerifier(newWebhookValidator(env))
	dispatcher := service.NewWebhookDispatcher(meetings, agents, video, messageBuilder, ledger, m)

	jobHandlers := handlers.NewJobHandlers(
		service.NewTranscriptPipeline(meetings, speakers, transcripts, completions),
		service.NewChatPipeline(meetings, chat, completions),
		service.NewAgentConnection(meetings, agents, video),
	)
	runner := jobs.NewRunner(steps, messageBuilder, jobs.WithMetrics(m), jobs.WithRetryPolicy(env.Jobs.Policy))
	jobHandlers.Register(runner)

	return &app{
		Webhook:   handlers.NewWebhookHandler(verifier, dispatcher),
		Jobs:      jobHandlers,
		Runner:    runner,
		Consumer:  messaging.NewJobConsumer(js, runner, messaging.WithWorkers(env.Jobs.Workers)),
		Registry:  registry,
		DB:        db,
		Messaging: messageBuilder,
	}
}
