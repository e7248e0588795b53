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
	"errors"
	"fmt"
)

// ErrCursorLoop é retornado quando o Backend devolve um cursor já visto
// nesta varredura, o que faria o Scan nunca terminar.
var ErrCursorLoop = errors.New("migration: scan cursor repeated")

// ScanError indica a falha de uma página. É fatal: o Reader não faz retry.
type ScanError struct {
	Page int
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("migration: scan page %d failed: %v", e.Page, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// BatchFailedError é retornado quando a política de retry se esgota para um lote.
// Lotes anteriores a BatchIndex continuam gravados.
type BatchFailedError struct {
	BatchIndex int
	Size       int
	Attempts   int
	Err        error
}

func (e *BatchFailedError) Error() string {
	return fmt.Sprintf("migration: batch %d (%d operations) failed after %d attempts: %v",
		e.BatchIndex, e.Size, e.Attempts, e.Err)
}

func (e *BatchFailedError) Unwrap() error {
	return e.Err
}
