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

	"github.com/raywall/dynamodb-migrator/pkg/metrics"
	"github.com/rs/zerolog"
)

// Reader percorre a tabela inteira, página a página, até o cursor terminal.
type Reader struct {
	backend  Backend
	pageSize int32
	logger   zerolog.Logger
	metrics  *metrics.Processor
}

// NewReader cria um Reader. pageSize <= 0 deixa o tamanho da página a cargo
// do Backend.
func NewReader(backend Backend, pageSize int32, logger zerolog.Logger, m *metrics.Processor) *Reader {
	return &Reader{
		backend:  backend,
		pageSize: pageSize,
		logger:   logger.With().Str("component", "reader").Logger(),
		metrics:  m,
	}
}

// Scan retorna todos os registros, na ordem em que o Backend os entregou.
// Qualquer falha de página aborta o Scan sem retry.
func (r *Reader) Scan(ctx context.Context) ([]Record, error) {
	var all []Record
	err := r.paginate(ctx, func(records []Record) error {
		all = append(all, records...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// Stream envia cada página não vazia em out. Não fecha o canal.
func (r *Reader) Stream(ctx context.Context, out chan<- []Record) error {
	return r.paginate(ctx, func(records []Record) error {
		if len(records) == 0 {
			return nil
		}
		select {
		case out <- records:
			return nil
		case <-ctx.Done():
			return fmt.Errorf("migration: scan interrupted: %w", ctx.Err())
		}
	})
}

func (r *Reader) paginate(ctx context.Context, fn func([]Record) error) error {
	cursor := ""
	seen := map[string]struct{}{}
	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("migration: scan interrupted: %w", err)
		}

		p, err := r.backend.ScanPage(ctx, ScanRequest{
			Fields: Projection,
			Cursor: cursor,
			Limit:  r.pageSize,
		})
		if err != nil {
			return &ScanError{Page: page, Err: err}
		}

		r.metrics.Record(metrics.PagesScanned, 1)
		r.metrics.Record(metrics.RecordsScanned, float64(len(p.Records)))
		r.logger.Debug().
			Int("page", page).
			Int("records", len(p.Records)).
			Bool("last", p.Next == "").
			Msg("scan page read")

		if err := fn(p.Records); err != nil {
			return err
		}

		if p.Next == "" {
			return nil
		}
		if _, ok := seen[p.Next]; ok {
			return &ScanError{Page: page, Err: ErrCursorLoop}
		}
		seen[p.Next] = struct{}{}
		cursor = p.Next
	}
}
