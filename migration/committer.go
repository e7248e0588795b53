// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/raywall/dynamodb-migrator/pkg/metrics"
	"github.com/rs/zerolog"
)

// CommitStats resume o que foi gravado.
type CommitStats struct {
	Batches    int
	Operations int
	Retries    int
}

// Committer grava operações em lotes atômicos, em ordem e um de cada vez.
type Committer struct {
	backend   Backend
	batchSize int
	policy    RetryPolicy
	logger    zerolog.Logger
	metrics   *metrics.Processor

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewCommitter cria um Committer. batchSize fora de 1..MaxBatchSize vira
// MaxBatchSize.
func NewCommitter(backend Backend, batchSize int, policy RetryPolicy, logger zerolog.Logger, m *metrics.Processor) *Committer {
	if batchSize <= 0 || batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}
	return &Committer{
		backend:   backend,
		batchSize: batchSize,
		policy:    policy,
		logger:    logger.With().Str("component", "committer").Logger(),
		metrics:   m,
		sleep:     sleepContext,
		now:       time.Now,
	}
}

// BatchSize retorna o tamanho efetivo dos lotes.
func (c *Committer) BatchSize() int {
	return c.batchSize
}

// Partition divide ops em fatias contíguas de até size elementos.
func Partition(ops []UpdateOperation, size int) [][]UpdateOperation {
	if size <= 0 {
		size = MaxBatchSize
	}
	batches := make([][]UpdateOperation, 0, (len(ops)+size-1)/size)
	for start := 0; start < len(ops); start += size {
		end := min(start+size, len(ops))
		batches = append(batches, ops[start:end])
	}
	return batches
}

// Commit grava todos os lotes em ordem. O lote k+1 só começa depois que o
// lote k foi gravado. Em caso de erro, os lotes anteriores permanecem gravados.
func (c *Committer) Commit(ctx context.Context, ops []UpdateOperation) (CommitStats, error) {
	var stats CommitStats
	for index, batch := range Partition(ops, c.batchSize) {
		retries, err := c.commitBatch(ctx, index, batch)
		stats.Retries += retries
		if err != nil {
			return stats, err
		}
		stats.Batches++
		stats.Operations += len(batch)
	}
	return stats, nil
}

func (c *Committer) commitBatch(ctx context.Context, index int, batch []UpdateOperation) (int, error) {
	start := c.now()
	retries := 0

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return retries, fmt.Errorf("migration: batch %d interrupted: %w", index, err)
		}

		err := c.backend.AtomicWrite(ctx, batch)
		if err == nil {
			c.metrics.Record(metrics.BatchLatencyMs, float64(c.now().Sub(start).Milliseconds()))
			c.metrics.Record(metrics.BatchesCommitted, 1)
			c.logger.Debug().
				Int("batch", index).
				Int("size", len(batch)).
				Int("attempts", attempt).
				Msg("batch committed")
			return retries, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return retries, fmt.Errorf("migration: batch %d interrupted: %w", index, ctxErr)
		}

		if c.policy.exhausted(attempt, c.now().Sub(start)) {
			c.metrics.Record(metrics.BatchFailed, 1)
			c.logger.Error().
				Err(err).
				Int("batch", index).
				Int("size", len(batch)).
				Int("attempts", attempt).
				Msg("batch failed, giving up")
			return retries, &BatchFailedError{
				BatchIndex: index,
				Size:       len(batch),
				Attempts:   attempt,
				Err:        err,
			}
		}

		delay := c.policy.Delay(index, retries)
		c.logger.Warn().
			Err(err).
			Int("batch", index).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("batch write failed, retrying")
		c.metrics.Record(metrics.BatchRetries, 1)
		retries++

		if err := c.sleep(ctx, delay); err != nil {
			return retries, fmt.Errorf("migration: batch %d interrupted: %w", index, err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
