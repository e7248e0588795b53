package migration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommitter(backend Backend, policy RetryPolicy) (*Committer, *sleepRecorder) {
	c := NewCommitter(backend, MaxBatchSize, policy, zerolog.Nop(), nil)
	rec := &sleepRecorder{}
	c.sleep = rec.sleep
	return c, rec
}

func TestPartition(t *testing.T) {
	cases := []struct {
		n     int
		sizes []int
	}{
		{0, []int{}},
		{1, []int{1}},
		{25, []int{25}},
		{26, []int{25, 1}},
		{30, []int{25, 5}},
		{75, []int{25, 25, 25}},
	}

	for _, tc := range cases {
		ops := makeOps(tc.n)
		batches := Partition(ops, MaxBatchSize)

		sizes := make([]int, len(batches))
		var flat []UpdateOperation
		for i, b := range batches {
			sizes[i] = len(b)
			flat = append(flat, b...)
		}
		assert.Equal(t, tc.sizes, sizes, "n=%d", tc.n)
		assert.Len(t, batches, (tc.n+MaxBatchSize-1)/MaxBatchSize)
		if tc.n > 0 {
			assert.Equal(t, ops, flat, "a concatenação deve reproduzir a entrada")
		}
	}

	assert.Len(t, Partition(makeOps(10), 0), 1, "tamanho inválido usa o máximo")
}

func TestNewCommitter_BatchSize(t *testing.T) {
	assert.Equal(t, MaxBatchSize, NewCommitter(nil, 0, RetryPolicy{}, zerolog.Nop(), nil).BatchSize())
	assert.Equal(t, MaxBatchSize, NewCommitter(nil, 100, RetryPolicy{}, zerolog.Nop(), nil).BatchSize())
	assert.Equal(t, 10, NewCommitter(nil, 10, RetryPolicy{}, zerolog.Nop(), nil).BatchSize())
}

func TestCommitter_Commit(t *testing.T) {
	base := 10 * time.Millisecond

	t.Run("deve gravar os lotes em ordem", func(t *testing.T) {
		backend := newFakeBackend(nil, 1)
		c, sleeps := newTestCommitter(backend, DefaultRetryPolicy())
		ops := makeOps(60)

		stats, err := c.Commit(context.Background(), ops)
		require.NoError(t, err)
		assert.Equal(t, CommitStats{Batches: 3, Operations: 60}, stats)
		assert.Equal(t, []int{25, 25, 10}, backend.writtenSizes())
		assert.Equal(t, ops, backend.writtenOps())
		assert.Empty(t, sleeps.recorded())
	})

	t.Run("nada a gravar", func(t *testing.T) {
		backend := newFakeBackend(nil, 1)
		c, _ := newTestCommitter(backend, DefaultRetryPolicy())

		stats, err := c.Commit(context.Background(), nil)
		require.NoError(t, err)
		assert.Zero(t, stats)
		assert.Zero(t, backend.calls)
	})

	t.Run("modo batch_index espera base*2^k em todo retry do lote k", func(t *testing.T) {
		backend := newFakeBackend(nil, 1)
		// chamadas 0 e 1 são os lotes 0 e 1; 2..4 são as falhas do lote 2
		backend.writeFn = func(call int, _ []UpdateOperation) error {
			if call >= 2 && call <= 4 {
				return errors.New("TransactionConflict")
			}
			return nil
		}
		c, sleeps := newTestCommitter(backend, RetryPolicy{BaseDelay: base, Mode: BackoffBatchIndex})

		stats, err := c.Commit(context.Background(), makeOps(100))
		require.NoError(t, err)
		assert.Equal(t, []time.Duration{4 * base, 4 * base, 4 * base}, sleeps.recorded())
		assert.Equal(t, 3, stats.Retries)
		assert.Equal(t, 4, stats.Batches)
		assert.Equal(t, 7, backend.calls)
		assert.Equal(t, []int{25, 25, 25, 25}, backend.writtenSizes())
	})

	t.Run("modo attempt dobra a espera a cada falha", func(t *testing.T) {
		backend := newFakeBackend(nil, 1)
		backend.writeFn = func(call int, _ []UpdateOperation) error {
			if call >= 2 && call <= 4 {
				return errors.New("TransactionConflict")
			}
			return nil
		}
		c, sleeps := newTestCommitter(backend, RetryPolicy{BaseDelay: base, Mode: BackoffAttempt})

		_, err := c.Commit(context.Background(), makeOps(100))
		require.NoError(t, err)
		assert.Equal(t, []time.Duration{base, 2 * base, 4 * base}, sleeps.recorded())
	})

	t.Run("deve retornar BatchFailedError ao esgotar as tentativas", func(t *testing.T) {
		backend := newFakeBackend(nil, 1)
		cause := errors.New("ValidationException")
		backend.writeFn = func(call int, _ []UpdateOperation) error {
			if call >= 1 {
				return cause
			}
			return nil
		}
		c, sleeps := newTestCommitter(backend, RetryPolicy{BaseDelay: base, MaxAttempts: 3})

		stats, err := c.Commit(context.Background(), makeOps(60))

		var failed *BatchFailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, 1, failed.BatchIndex)
		assert.Equal(t, 3, failed.Attempts)
		assert.Equal(t, 25, failed.Size)
		assert.ErrorIs(t, err, cause)

		assert.Equal(t, 1, stats.Batches, "o lote anterior continua gravado")
		assert.Equal(t, 2, stats.Retries)
		assert.Len(t, sleeps.recorded(), 2)
		assert.Equal(t, []int{25}, backend.writtenSizes())
	})

	t.Run("deve desistir ao exceder o tempo máximo", func(t *testing.T) {
		backend := newFakeBackend(nil, 1)
		backend.writeFn = func(int, []UpdateOperation) error { return errors.New("boom") }
		c, _ := newTestCommitter(backend, RetryPolicy{BaseDelay: base, MaxElapsed: time.Minute})

		clock := time.Unix(0, 0)
		c.now = func() time.Time {
			clock = clock.Add(20 * time.Second)
			return clock
		}

		_, err := c.Commit(context.Background(), makeOps(1))

		var failed *BatchFailedError
		require.ErrorAs(t, err, &failed)
		assert.Less(t, failed.Attempts, 5)
	})

	t.Run("deve parar quando o contexto é cancelado durante a espera", func(t *testing.T) {
		backend := newFakeBackend(nil, 1)
		backend.writeFn = func(int, []UpdateOperation) error { return errors.New("boom") }
		c, _ := newTestCommitter(backend, LegacyRetryPolicy())

		ctx, cancel := context.WithCancel(context.Background())
		c.sleep = func(context.Context, time.Duration) error {
			cancel()
			return ctx.Err()
		}

		_, err := c.Commit(ctx, makeOps(1))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, backend.calls)
	})

	t.Run("reenvio do mesmo lote é seguro", func(t *testing.T) {
		backend := newFakeBackend(nil, 1)
		c, _ := newTestCommitter(backend, DefaultRetryPolicy())
		ops := makeOps(30)

		_, err := c.Commit(context.Background(), ops)
		require.NoError(t, err)
		_, err = c.Commit(context.Background(), ops)
		require.NoError(t, err)

		assert.Equal(t, backend.written[0], backend.written[2])
		assert.Equal(t, backend.written[1], backend.written[3])
	})
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), 0))
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
