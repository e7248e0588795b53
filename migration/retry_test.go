package migration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicy_Delay(t *testing.T) {
	base := 100 * time.Millisecond

	t.Run("modo attempt deve dobrar a cada retry", func(t *testing.T) {
		p := RetryPolicy{BaseDelay: base, Mode: BackoffAttempt}

		assert.Equal(t, base, p.Delay(7, 0))
		assert.Equal(t, 2*base, p.Delay(7, 1))
		assert.Equal(t, 4*base, p.Delay(7, 2))
	})

	t.Run("modo batch_index deve depender apenas do lote", func(t *testing.T) {
		p := RetryPolicy{BaseDelay: base, Mode: BackoffBatchIndex}

		assert.Equal(t, base, p.Delay(0, 5))
		assert.Equal(t, 4*base, p.Delay(2, 0))
		assert.Equal(t, 4*base, p.Delay(2, 9))
	})

	t.Run("deve respeitar o teto", func(t *testing.T) {
		p := RetryPolicy{BaseDelay: time.Second, MaxDelay: 5 * time.Second}

		assert.Equal(t, 4*time.Second, p.Delay(0, 2))
		assert.Equal(t, 5*time.Second, p.Delay(0, 3))
		assert.Equal(t, 5*time.Second, p.Delay(0, 1000))
	})

	t.Run("não deve estourar sem teto", func(t *testing.T) {
		p := RetryPolicy{BaseDelay: time.Second, Mode: BackoffBatchIndex}

		assert.Positive(t, p.Delay(10_000, 0))
	})

	t.Run("base zero não espera", func(t *testing.T) {
		assert.Zero(t, RetryPolicy{}.Delay(3, 3))
	})
}

func TestRetryPolicy_Exhausted(t *testing.T) {
	t.Run("ilimitado", func(t *testing.T) {
		p := RetryPolicy{}
		assert.False(t, p.exhausted(1_000_000, time.Hour))
	})

	t.Run("por tentativas", func(t *testing.T) {
		p := RetryPolicy{MaxAttempts: 3}
		assert.False(t, p.exhausted(2, 0))
		assert.True(t, p.exhausted(3, 0))
	})

	t.Run("por tempo", func(t *testing.T) {
		p := RetryPolicy{MaxElapsed: time.Minute}
		assert.False(t, p.exhausted(50, 59*time.Second))
		assert.True(t, p.exhausted(1, time.Minute))
	})
}

func TestDefaultPolicies(t *testing.T) {
	d := DefaultRetryPolicy()
	assert.Equal(t, time.Second, d.BaseDelay)
	assert.Equal(t, 5*time.Minute, d.MaxDelay)
	assert.Equal(t, 10, d.MaxAttempts)
	assert.Equal(t, BackoffAttempt, d.Mode)

	l := LegacyRetryPolicy()
	assert.Equal(t, BackoffBatchIndex, l.Mode)
	assert.Zero(t, l.MaxAttempts)
}

func TestParseBackoffMode(t *testing.T) {
	m, err := ParseBackoffMode("")
	require.NoError(t, err)
	assert.Equal(t, BackoffAttempt, m)

	m, err = ParseBackoffMode("batch_index")
	require.NoError(t, err)
	assert.Equal(t, BackoffBatchIndex, m)

	_, err = ParseBackoffMode("linear")
	assert.Error(t, err)
}
