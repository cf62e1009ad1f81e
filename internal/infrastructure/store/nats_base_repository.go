// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/logging"
)

// NATS Key-Value store bucket names
const (
	KVStoreNameJobSteps  = "job-steps"
	KVStoreNameJobClaims = "job-claims"
)

// tracerName is the instrumentation name for the store package.
const tracerName = "github.com/victor-cyril/Agenda-AI/internal/infrastructure/store"

// INatsKeyValue is the subset of jetstream.KeyValue used by the job stores.
type INatsKeyValue interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Create(ctx context.Context, key string, value []byte, opts ...jetstream.KVCreateOpt) (uint64, error)
	Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
}

// NatsBaseRepository provides the traced NATS KV operations shared by the stores.
type NatsBaseRepository struct {
	kvStore    INatsKeyValue
	entityName string // Used in error messages (e.g., "job step", "job claim")
}

// NewNatsBaseRepository creates a new base repository for NATS KV operations
func NewNatsBaseRepository(kvStore INatsKeyValue, entityName string) *NatsBaseRepository {
	return &NatsBaseRepository{
		kvStore:    kvStore,
		entityName: entityName,
	}
}

// IsReady checks if the repository is ready for use
func (r *NatsBaseRepository) IsReady() bool {
	return r.kvStore != nil
}

func (r *NatsBaseRepository) startSpan(ctx context.Context, operation, key string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "nats.kv."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "nats"),
			attribute.String("db.operation", operation),
			attribute.String("db.nats.key", key),
			attribute.String("db.nats.entity", r.entityName),
		),
	)
}

func (r *NatsBaseRepository) notReady(span trace.Span) error {
	err := domain.NewUnavailableError(fmt.Sprintf("%s store is not available", r.entityName))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// GetRaw retrieves the value stored under key. A missing key is a NotFound domain error.
func (r *NatsBaseRepository) GetRaw(ctx context.Context, key string) ([]byte, error) {
	ctx, span := r.startSpan(ctx, "get", key)
	defer span.End()

	if !r.IsReady() {
		return nil, r.notReady(span)
	}

	entry, err := r.kvStore.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			err = domain.NewNotFoundError(
				fmt.Sprintf("%s with key '%s' not found", r.entityName, key), domain.ErrKeyNotFound)
			span.SetStatus(codes.Ok, "not found")
			return nil, err
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error getting %s from NATS KV", r.entityName),
			logging.ErrKey, err, "key", key)
		err = domain.NewInternalError(
			fmt.Sprintf("failed to retrieve %s from store", r.entityName), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return entry.Value(), nil
}

// Put stores value under key, overwriting any previous value.
func (r *NatsBaseRepository) Put(ctx context.Context, key string, value []byte) error {
	ctx, span := r.startSpan(ctx, "put", key)
	defer span.End()

	if !r.IsReady() {
		return r.notReady(span)
	}

	revision, err := r.kvStore.Put(ctx, key, value)
	if err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("error storing %s in NATS KV", r.entityName),
			logging.ErrKey, err, "key", key)
		err = domain.NewInternalError(fmt.Sprintf("failed to store %s", r.entityName), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.Int64("db.nats.revision", int64(revision)))
	span.SetStatus(codes.Ok, "")
	return nil
}

// Create stores value under key only when the key holds no value. An existing key is a
// Conflict domain error wrapping domain.ErrKeyExists.
func (r *NatsBaseRepository) Create(ctx context.Context, key string, value []byte) error {
	ctx, span := r.startSpan(ctx, "create", key)
	defer span.End()

	if !r.IsReady() {
		return r.notReady(span)
	}

	_, err := r.kvStore.Create(ctx, key, value)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			span.SetStatus(codes.Ok, "exists")
			return domain.NewConflictError(
				fmt.Sprintf("%s with key '%s' already exists", r.entityName, key), domain.ErrKeyExists)
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error creating %s in NATS KV", r.entityName),
			logging.ErrKey, err, "key", key)
		err = domain.NewInternalError(fmt.Sprintf("failed to create %s in store", r.entityName), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *NatsBaseRepository) Delete(ctx context.Context, key string) error {
	ctx, span := r.startSpan(ctx, "delete", key)
	defer span.End()

	if !r.IsReady() {
		return r.notReady(span)
	}

	err := r.kvStore.Delete(ctx, key)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		slog.ErrorContext(ctx, fmt.Sprintf("error deleting %s from NATS KV", r.entityName),
			logging.ErrKey, err, "key", key)
		err = domain.NewInternalError(fmt.Sprintf("failed to delete %s from store", r.entityName), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
