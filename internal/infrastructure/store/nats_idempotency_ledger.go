// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
)

// NatsIdempotencyLedger records claims in the job-claims bucket. A claim is a key created
// with create-if-absent semantics, so concurrent claimers of one key see exactly one winner.
type NatsIdempotencyLedger struct {
	*NatsBaseRepository
	keys *KeyBuilder
	now  func() time.Time
}

// NewNatsIdempotencyLedger creates a ledger over kvStore.
func NewNatsIdempotencyLedger(kvStore INatsKeyValue) *NatsIdempotencyLedger {
	return &NatsIdempotencyLedger{
		NatsBaseRepository: NewNatsBaseRepository(kvStore, "job claim"),
		keys:               NewKeyBuilder(KeyPrefixClaim),
		now:                time.Now,
	}
}

// Claim reports true when the key was not claimed before.
func (l *NatsIdempotencyLedger) Claim(ctx context.Context, key string) (bool, error) {
	claimedAt := l.now().UTC().Format(time.RFC3339Nano)
	err := l.Create(ctx, l.keys.Key(key), []byte(claimedAt))
	if err != nil {
		if errors.Is(err, domain.ErrKeyExists) {
			slog.DebugContext(ctx, "key already claimed", "claim_key", key)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Release drops the claim on key.
func (l *NatsIdempotencyLedger) Release(ctx context.Context, key string) error {
	return l.Delete(ctx, l.keys.Key(key))
}
