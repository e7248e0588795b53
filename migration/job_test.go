package migration

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// thirtyRecords: 18 sem formação (i%5 < 3) e 12 com formação.
func thirtyRecords() []Record {
	return makeRecords(30, func(i int) bool { return i%5 < 3 })
}

func newTestJob(backend Backend, opts Options) (*Job, *sleepRecorder) {
	job := NewJob(backend, opts)
	job.builder.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	rec := &sleepRecorder{}
	job.committer.sleep = rec.sleep
	return job, rec
}

// tickingBackend avança um minuto no relógio a cada página lida.
type tickingBackend struct {
	*fakeBackend
	minutes *atomic.Int64
}

func (b tickingBackend) ScanPage(ctx context.Context, req ScanRequest) (Page, error) {
	b.minutes.Add(1)
	return b.fakeBackend.ScanPage(ctx, req)
}

func TestJob_StampTakenAtBuild(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for _, mode := range []Mode{ModeBuffered, ModeStreaming} {
		t.Run(string(mode), func(t *testing.T) {
			minutes := &atomic.Int64{}
			backend := tickingBackend{fakeBackend: newFakeBackend(thirtyRecords(), 7), minutes: minutes}
			job, _ := newTestJob(backend, Options{Mode: mode, BufferPages: 1})
			job.builder.now = func() time.Time {
				return start.Add(time.Duration(minutes.Load()) * time.Minute)
			}

			summary, err := job.Run(context.Background())
			require.NoError(t, err)

			stamp, err := time.Parse(TimestampLayout, summary.Stamp.UpdatedTime)
			require.NoError(t, err)
			assert.True(t, stamp.After(start), "carimbo %s tirado antes do scan", stamp)
			if mode == ModeBuffered {
				assert.True(t, start.Add(5*time.Minute).Equal(stamp), "carimbo %s", stamp)
			}

			for _, op := range backend.writtenOps() {
				assert.Equal(t, summary.Stamp, op.Audit)
			}
		})
	}
}

func TestJob_Run(t *testing.T) {
	t.Run("cenário de 30 registros", func(t *testing.T) {
		backend := newFakeBackend(thirtyRecords(), 7)
		job, _ := newTestJob(backend, Options{Table: "students"})

		summary, err := job.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 30, summary.Records)
		assert.Equal(t, 18, summary.Experts)
		assert.Equal(t, 2, summary.Batches)
		assert.Equal(t, []int{25, 5}, backend.writtenSizes())

		ops := backend.writtenOps()
		require.Len(t, ops, 30)
		experts := 0
		for i, op := range ops {
			assert.Equal(t, i%5 < 3, op.IsExpert, "registro %d", i)
			assert.Equal(t, "2024-05-01T12:00:00.000Z", op.Audit.UpdatedTime)
			assert.Equal(t, DefaultActor, op.Audit.UpdatedBy)
			if op.IsExpert {
				experts++
			}
		}
		assert.Equal(t, 18, experts)

		assert.Equal(t, job.RunID(), summary.RunID)
		assert.Equal(t, "students", summary.Table)
		assert.Equal(t, ModeBuffered, summary.Mode)
		assert.False(t, summary.FinishedAt.Before(summary.StartedAt))
	})

	t.Run("falha na primeira página não grava nada", func(t *testing.T) {
		backend := newFakeBackend(thirtyRecords(), 10)
		backend.scanErr[0] = errors.New("AccessDenied")
		job, _ := newTestJob(backend, Options{Table: "students"})

		summary, err := job.Run(context.Background())

		var scanErr *ScanError
		require.ErrorAs(t, err, &scanErr)
		require.NotNil(t, summary)
		assert.Zero(t, backend.calls)
		assert.Zero(t, summary.Batches)
	})

	t.Run("falha em página intermediária não grava nada no modo buffered", func(t *testing.T) {
		backend := newFakeBackend(thirtyRecords(), 10)
		backend.scanErr[2] = errors.New("timeout")
		job, _ := newTestJob(backend, Options{Table: "students"})

		_, err := job.Run(context.Background())
		require.Error(t, err)
		assert.Zero(t, backend.calls)
	})

	t.Run("dry run não grava e conta os lotes planejados", func(t *testing.T) {
		backend := newFakeBackend(thirtyRecords(), 7)
		job, _ := newTestJob(backend, Options{Table: "students", DryRun: true})

		summary, err := job.Run(context.Background())
		require.NoError(t, err)
		assert.Zero(t, backend.calls)
		assert.Equal(t, 2, summary.Batches)
		assert.Equal(t, 18, summary.Experts)
		assert.True(t, summary.DryRun)
	})

	t.Run("tamanho de lote configurado", func(t *testing.T) {
		backend := newFakeBackend(thirtyRecords(), 7)
		job, _ := newTestJob(backend, Options{BatchSize: 10})

		summary, err := job.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, summary.Batches)
		assert.Equal(t, []int{10, 10, 10}, backend.writtenSizes())
	})

	t.Run("retorna o resumo parcial quando um lote falha", func(t *testing.T) {
		backend := newFakeBackend(thirtyRecords(), 7)
		backend.writeFn = func(call int, _ []UpdateOperation) error {
			if call >= 1 {
				return errors.New("boom")
			}
			return nil
		}
		job, sleeps := newTestJob(backend, Options{
			Retry: RetryPolicy{BaseDelay: time.Millisecond, MaxAttempts: 2},
		})

		summary, err := job.Run(context.Background())

		var failed *BatchFailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, 1, failed.BatchIndex)
		assert.Equal(t, 1, summary.Batches)
		assert.Equal(t, 1, summary.Retries)
		assert.Len(t, sleeps.recorded(), 1)
	})

	t.Run("modo desconhecido", func(t *testing.T) {
		job, _ := newTestJob(newFakeBackend(nil, 1), Options{Mode: "parallel"})

		summary, err := job.Run(context.Background())
		assert.Error(t, err)
		assert.NotNil(t, summary)
	})

	t.Run("retry vazio usa a política padrão", func(t *testing.T) {
		job := NewJob(newFakeBackend(nil, 1), Options{})
		assert.Equal(t, DefaultRetryPolicy(), job.opts.Retry)
	})

	t.Run("cada job tem seu próprio run id", func(t *testing.T) {
		a := NewJob(newFakeBackend(nil, 1), Options{})
		b := NewJob(newFakeBackend(nil, 1), Options{})
		assert.NotEmpty(t, a.RunID())
		assert.NotEqual(t, a.RunID(), b.RunID())
	})
}

func TestJob_Streaming(t *testing.T) {
	t.Run("deve produzir as mesmas gravações do modo buffered", func(t *testing.T) {
		records := makeRecords(83, func(i int) bool { return i%3 == 0 })

		buffered := newFakeBackend(records, 9)
		bjob, _ := newTestJob(buffered, Options{Mode: ModeBuffered})
		bsum, err := bjob.Run(context.Background())
		require.NoError(t, err)

		streaming := newFakeBackend(records, 9)
		sjob, _ := newTestJob(streaming, Options{Mode: ModeStreaming, BufferPages: 2})
		ssum, err := sjob.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, buffered.written, streaming.written)
		assert.Equal(t, bsum.Records, ssum.Records)
		assert.Equal(t, bsum.Experts, ssum.Experts)
		assert.Equal(t, bsum.Batches, ssum.Batches)
		assert.Equal(t, []int{25, 25, 25, 8}, streaming.writtenSizes())
	})

	t.Run("falha de scan interrompe e não grava a sobra", func(t *testing.T) {
		backend := newFakeBackend(thirtyRecords(), 10)
		backend.scanErr[2] = errors.New("timeout")
		job, _ := newTestJob(backend, Options{Mode: ModeStreaming, BufferPages: 1})

		_, err := job.Run(context.Background())

		var scanErr *ScanError
		require.ErrorAs(t, err, &scanErr)
		assert.Equal(t, 2, scanErr.Page)
		assert.Empty(t, backend.written)
	})

	t.Run("falha de lote interrompe o scan", func(t *testing.T) {
		backend := newFakeBackend(makeRecords(200, func(int) bool { return true }), 10)
		backend.writeFn = func(int, []UpdateOperation) error { return errors.New("boom") }
		job, _ := newTestJob(backend, Options{
			Mode:        ModeStreaming,
			BufferPages: 1,
			Retry:       RetryPolicy{MaxAttempts: 1},
		})

		_, err := job.Run(context.Background())

		var failed *BatchFailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, 0, failed.BatchIndex)
		assert.Less(t, len(backend.requests), 20)
	})

	t.Run("dry run", func(t *testing.T) {
		backend := newFakeBackend(thirtyRecords(), 4)
		job, _ := newTestJob(backend, Options{Mode: ModeStreaming, DryRun: true})

		summary, err := job.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Batches)
		assert.Zero(t, backend.calls)
	})
}

func TestJob_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, mode := range []Mode{ModeBuffered, ModeStreaming} {
		t.Run(string(mode), func(t *testing.T) {
			backend := newFakeBackend(thirtyRecords(), 10)
			job, _ := newTestJob(backend, Options{Mode: mode})

			_, err := job.Run(ctx)
			assert.ErrorIs(t, err, context.Canceled)
			assert.Zero(t, backend.calls)
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeBuffered, m)

	m, err = ParseMode("streaming")
	require.NoError(t, err)
	assert.Equal(t, ModeStreaming, m)

	_, err = ParseMode("parallel")
	assert.Error(t, err)
}
