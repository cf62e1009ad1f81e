// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/victor-cyril/Agenda-AI/internal/logging"
	"github.com/victor-cyril/Agenda-AI/internal/middleware"
	"github.com/victor-cyril/Agenda-AI/pkg/constants"
)

// newHandler builds the HTTP handler with its middleware chain.
func newHandler(a *app) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(constants.WebhookPath, a.Webhook)
	mux.HandleFunc("GET "+constants.LivezPath, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("OK\n"))
	})
	mux.HandleFunc("GET "+constants.ReadyzPath, func(w http.ResponseWriter, r *http.Request) {
		if err := a.ready(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "service not ready", logging.ErrKey, err)
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("OK\n"))
	})
	mux.Handle("GET "+constants.MetricsPath, promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))

	var handler http.Handler = mux

	// Add HTTP middleware
	// Note: Order matters - RequestIDMiddleware should come first in the chain,
	// so it should be the last middleware added to the handler since it is executed in reverse order.
	handler = middleware.WebhookBodyCaptureMiddleware(constants.WebhookPath)(handler)
	handler = middleware.RequestLoggerMiddleware()(handler)
	handler = middleware.RequestIDMiddleware()(handler)
	handler = otelhttp.NewHandler(handler, "meeting-events")

	return handler
}

// setupHTTPServer configures and starts the HTTP server
func setupHTTPServer(flags flags, a *app, gracefulCloseWG *sync.WaitGroup) *http.Server {
	var addr string
	if flags.Bind == "*" {
		addr = ":" + flags.Port
	} else {
		addr = flags.Bind + ":" + flags.Port
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           newHandler(a),
		ReadHeaderTimeout: 3 * time.Second,
	}
	gracefulCloseWG.Add(1)
	go func() {
		slog.With("addr", addr).Debug("starting http server, listening on port " + flags.Port)
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.With(logging.ErrKey, err).Error("http listener error")
			os.Exit(1)
		}
		// Because ErrServerClosed is *immediately* returned when Shutdown is
		// called, not when when Shutdown completes, this must not yet decrement
		// the wait group.
	}()

	return httpServer
}

// gracefulShutdown stops the HTTP server, cancels the job consumer and drains NATS,
// waiting at most gracefulShutdownSeconds for all of them.
func gracefulShutdown(httpServer *http.Server, natsConn *nats.Conn, gracefulCloseWG *sync.WaitGroup, cancel context.CancelFunc) {
	slog.With("addr", httpServer.Addr).Info("shutting down http server")

	ctx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownSeconds*time.Second)
	defer shutdownCancel()

	go func() {
		if err := httpServer.Shutdown(ctx); err != nil {
			slog.With(logging.ErrKey, err).Error("http shutdown error")
		}
		gracefulCloseWG.Done()
	}()

	// Stop pulling jobs before the connection drains.
	cancel()

	if !natsConn.IsClosed() && !natsConn.IsDraining() {
		slog.Info("draining NATS connections")
		if err := natsConn.Drain(); err != nil {
			slog.With(logging.ErrKey, err).Error("error draining NATS connection")
		}
	}

	waitCh := make(chan struct{})
	go func() {
		gracefulCloseWG.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		slog.Info("graceful shutdown complete")
	case <-ctx.Done():
		slog.Error("graceful shutdown timed out")
		os.Exit(1)
	}
}
