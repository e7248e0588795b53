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

	"github.com/google/uuid"
	"github.com/raywall/dynamodb-migrator/pkg/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Mode define como os estágios são encadeados.
type Mode string

const (
	// ModeBuffered lê a tabela inteira antes de gravar. Uma falha de Scan
	// garante que nada foi gravado.
	ModeBuffered Mode = "buffered"
	// ModeStreaming grava os lotes enquanto o Scan avança, com memória
	// limitada a BufferPages páginas.
	ModeStreaming Mode = "streaming"
)

// ParseMode converte o valor de configuração. Vazio vira ModeBuffered.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeBuffered:
		return ModeBuffered, nil
	case ModeStreaming:
		return ModeStreaming, nil
	}
	return "", fmt.Errorf("migration: unknown mode %q", s)
}

// Options configura um Job.
type Options struct {
	Table       string
	BatchSize   int
	PageSize    int32
	Mode        Mode
	BufferPages int
	DryRun      bool
	Actor       string
	Retry       RetryPolicy
	Logger      *zerolog.Logger
	Metrics     *metrics.Processor
}

// Summary é o resultado de uma execução. É sempre retornado, mesmo com erro.
type Summary struct {
	RunID      string     `json:"runId"`
	Table      string     `json:"table"`
	Mode       Mode       `json:"mode"`
	DryRun     bool       `json:"dryRun"`
	Stamp      AuditStamp `json:"stamp"`
	Records    int        `json:"records"`
	Experts    int        `json:"experts"`
	Batches    int        `json:"batches"`
	Retries    int        `json:"retries"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt time.Time  `json:"finishedAt"`
}

// Duration retorna o tempo total da execução.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Job executa a migração uma vez.
type Job struct {
	opts      Options
	runID     string
	logger    zerolog.Logger
	metrics   *metrics.Processor
	reader    *Reader
	builder   *Builder
	committer *Committer
	now       func() time.Time
}

// NewJob monta os estágios sobre o mesmo Backend.
func NewJob(backend Backend, opts Options) *Job {
	if opts.Mode == "" {
		opts.Mode = ModeBuffered
	}
	if opts.BufferPages <= 0 {
		opts.BufferPages = 1
	}
	if opts.Retry == (RetryPolicy{}) {
		opts.Retry = DefaultRetryPolicy()
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	runID := uuid.NewString()
	logger = logger.With().
		Str("run_id", runID).
		Str("table", opts.Table).
		Logger()

	m := opts.Metrics.With("table:"+opts.Table, "mode:"+string(opts.Mode))

	return &Job{
		opts:      opts,
		runID:     runID,
		logger:    logger,
		metrics:   m,
		reader:    NewReader(backend, opts.PageSize, logger, m),
		builder:   NewBuilder(opts.Actor),
		committer: NewCommitter(backend, opts.BatchSize, opts.Retry, logger, m),
		now:       time.Now,
	}
}

// RunID identifica a execução nos logs e no relatório.
func (j *Job) RunID() string {
	return j.runID
}

// Run executa a migração. O Summary reflete o que foi feito até o ponto
// da falha, quando houver.
func (j *Job) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		RunID:     j.runID,
		Table:     j.opts.Table,
		Mode:      j.opts.Mode,
		DryRun:    j.opts.DryRun,
		StartedAt: j.now(),
	}

	j.logger.Info().
		Str("mode", string(j.opts.Mode)).
		Bool("dry_run", j.opts.DryRun).
		Int("batch_size", j.committer.BatchSize()).
		Msg("migration started")

	var err error
	switch j.opts.Mode {
	case ModeBuffered:
		err = j.runBuffered(ctx, summary)
	case ModeStreaming:
		err = j.runStreaming(ctx, summary)
	default:
		err = fmt.Errorf("migration: unknown mode %q", j.opts.Mode)
	}

	summary.FinishedAt = j.now()
	j.metrics.Record(metrics.RunDurationMs, float64(summary.Duration().Milliseconds()))
	j.metrics.Record(metrics.RecordsExperts, float64(summary.Experts))

	event := j.logger.Info()
	if err != nil {
		event = j.logger.Error().Err(err)
	}
	event.
		Int("records", summary.Records).
		Int("experts", summary.Experts).
		Int("batches", summary.Batches).
		Int("retries", summary.Retries).
		Dur("duration", summary.Duration()).
		Msg("migration finished")

	return summary, err
}

func (j *Job) runBuffered(ctx context.Context, summary *Summary) error {
	records, err := j.reader.Scan(ctx)
	if err != nil {
		return err
	}

	summary.Stamp = j.builder.Stamp()
	ops := j.builder.Apply(records, summary.Stamp)
	summary.Records = len(ops)
	summary.Experts = countExperts(ops)

	if j.opts.DryRun {
		summary.Batches = len(Partition(ops, j.committer.BatchSize()))
		return nil
	}

	stats, err := j.committer.Commit(ctx, ops)
	summary.Batches = stats.Batches
	summary.Retries = stats.Retries
	return err
}

func (j *Job) runStreaming(ctx context.Context, summary *Summary) error {
	g, gctx := errgroup.WithContext(ctx)
	pages := make(chan []Record, j.opts.BufferPages)

	// escrito antes do close, lido depois do range
	var scanErr error

	g.Go(func() error {
		scanErr = j.reader.Stream(gctx, pages)
		close(pages)
		return scanErr
	})

	g.Go(func() error {
		size := j.committer.BatchSize()
		pending := make([]UpdateOperation, 0, size)
		index := 0

		flush := func(batch []UpdateOperation) error {
			if !j.opts.DryRun {
				retries, err := j.committer.commitBatch(gctx, index, batch)
				summary.Retries += retries
				if err != nil {
					return err
				}
			}
			summary.Batches++
			index++
			return nil
		}

		for records := range pages {
			// um único carimbo por execução, tirado no primeiro build
			if summary.Stamp == (AuditStamp{}) {
				summary.Stamp = j.builder.Stamp()
			}
			ops := j.builder.Apply(records, summary.Stamp)
			summary.Records += len(ops)
			summary.Experts += countExperts(ops)
			pending = append(pending, ops...)

			for len(pending) >= size {
				batch := make([]UpdateOperation, size)
				copy(batch, pending)
				if err := flush(batch); err != nil {
					return err
				}
				pending = append(pending[:0], pending[size:]...)
			}
		}

		// o produtor falhou: a sobra não é gravada
		if scanErr != nil {
			return nil
		}
		if len(pending) > 0 {
			return flush(pending)
		}
		return nil
	})

	return g.Wait()
}

func countExperts(ops []UpdateOperation) int {
	n := 0
	for _, op := range ops {
		if op.IsExpert {
			n++
		}
	}
	return n
}
