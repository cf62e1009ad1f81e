// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
)

// MaxStepChunkBytes is the largest value written to the job-steps bucket. It stays well
// under the default NATS max_payload of 1 MB.
const MaxStepChunkBytes = 512 << 10

// stepManifest is stored under the step key once every chunk of the result is written.
type stepManifest struct {
	Chunks int `msgpack:"chunks"`
	Size   int `msgpack:"size"`
}

// NatsStepStore keeps memoized job step results in the job-steps bucket.
// The bucket's TTL bounds how long a job id can be resumed.
//
// A result is split into chunks of at most MaxStepChunkBytes. The manifest is written
// last, so a reader never sees a partially stored result.
type NatsStepStore struct {
	*NatsBaseRepository
	keys      *KeyBuilder
	chunkSize int
}

// NewNatsStepStore creates a step store over kvStore.
func NewNatsStepStore(kvStore INatsKeyValue) *NatsStepStore {
	return &NatsStepStore{
		NatsBaseRepository: NewNatsBaseRepository(kvStore, "job step"),
		keys:               NewKeyBuilder(KeyPrefixStep),
		chunkSize:          MaxStepChunkBytes,
	}
}

func (s *NatsStepStore) chunkKey(jobID, step string, n int) string {
	return s.keys.Key(jobID, step, strconv.Itoa(n))
}

// GetStep returns the stored result of a step. A result with a missing chunk counts as
// not stored.
func (s *NatsStepStore) GetStep(ctx context.Context, jobID, step string) ([]byte, bool, error) {
	raw, err := s.GetRaw(ctx, s.keys.Key(jobID, step))
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var manifest stepManifest
	if err := msgpack.Unmarshal(raw, &manifest); err != nil || manifest.Chunks < 0 || manifest.Size < 0 {
		slog.WarnContext(ctx, "ignoring unreadable step manifest", "job_id", jobID, "step", step)
		return nil, false, nil
	}

	result := make([]byte, 0, manifest.Size)
	for n := range manifest.Chunks {
		chunk, err := s.GetRaw(ctx, s.chunkKey(jobID, step, n))
		if err != nil {
			if errors.Is(err, domain.ErrKeyNotFound) {
				slog.WarnContext(ctx, "step result is missing a chunk", "job_id", jobID, "step", step, "chunk", n)
				return nil, false, nil
			}
			return nil, false, err
		}
		result = append(result, chunk...)
	}
	if len(result) != manifest.Size {
		slog.WarnContext(ctx, "step result size mismatch", "job_id", jobID, "step", step,
			"expected", manifest.Size, "actual", len(result))
		return nil, false, nil
	}
	return result, true, nil
}

// PutStep stores the result of a step.
func (s *NatsStepStore) PutStep(ctx context.Context, jobID, step string, result []byte) error {
	chunks := 0
	for start := 0; start < len(result); start += s.chunkSize {
		end := min(start+s.chunkSize, len(result))
		if err := s.Put(ctx, s.chunkKey(jobID, step, chunks), result[start:end]); err != nil {
			return err
		}
		chunks++
	}

	manifest, err := msgpack.Marshal(stepManifest{Chunks: chunks, Size: len(result)})
	if err != nil {
		return domain.NewInternalError(fmt.Sprintf("failed to encode manifest of step %q", step), err)
	}
	return s.Put(ctx, s.keys.Key(jobID, step), manifest)
}
