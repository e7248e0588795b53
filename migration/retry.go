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
	"fmt"
	"math"
	"time"
)

// BackoffMode define o expoente do backoff.
type BackoffMode string

const (
	// BackoffAttempt usa o número de tentativas falhas do próprio lote.
	BackoffAttempt BackoffMode = "attempt"
	// BackoffBatchIndex usa a posição do lote, como no script legado:
	// todas as esperas do lote k são base * 2^k.
	BackoffBatchIndex BackoffMode = "batch_index"
)

// ParseBackoffMode converte o valor de configuração. Vazio vira BackoffAttempt.
func ParseBackoffMode(s string) (BackoffMode, error) {
	switch BackoffMode(s) {
	case "", BackoffAttempt:
		return BackoffAttempt, nil
	case BackoffBatchIndex:
		return BackoffBatchIndex, nil
	}
	return "", fmt.Errorf("migration: unknown backoff mode %q", s)
}

// RetryPolicy controla o retry de um lote.
type RetryPolicy struct {
	BaseDelay time.Duration
	// MaxDelay limita cada espera. Zero = sem limite.
	MaxDelay time.Duration
	// MaxAttempts conta a primeira tentativa. Zero = ilimitado.
	MaxAttempts int
	// MaxElapsed limita o tempo total gasto em um lote. Zero = ilimitado.
	MaxElapsed time.Duration
	Mode       BackoffMode
}

// DefaultRetryPolicy retorna 1s de base, teto de 5m e 10 tentativas.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseDelay:   time.Second,
		MaxDelay:    5 * time.Minute,
		MaxAttempts: 10,
		Mode:        BackoffAttempt,
	}
}

// LegacyRetryPolicy reproduz o comportamento original: retry infinito com
// espera de base * 2^batchIndex.
func LegacyRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseDelay: time.Second,
		Mode:      BackoffBatchIndex,
	}
}

// Delay retorna a espera antes do retry de número retry (0 = primeiro retry)
// do lote batchIndex.
func (p RetryPolicy) Delay(batchIndex, retry int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}

	exp := retry
	if p.Mode == BackoffBatchIndex {
		exp = batchIndex
	}

	d := p.BaseDelay
	for i := 0; i < exp; i++ {
		if d > math.MaxInt64/2 {
			d = math.MaxInt64
			break
		}
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			break
		}
	}

	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// exhausted informa se, após attempts tentativas e elapsed de tempo gasto,
// não há mais retry.
func (p RetryPolicy) exhausted(attempts int, elapsed time.Duration) bool {
	if p.MaxAttempts > 0 && attempts >= p.MaxAttempts {
		return true
	}
	if p.MaxElapsed > 0 && elapsed >= p.MaxElapsed {
		return true
	}
	return false
}
