package report

import (
	"context"
	"errors"

	"github.com/raywall/dynamodb-migrator/migration"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Report é o documento publicado ao fim de cada execução.
type Report struct {
	migration.Summary
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	// FailedBatch é o índice do lote que esgotou o retry, quando for o caso.
	FailedBatch *int `json:"failedBatch,omitempty"`
}

// New monta o Report a partir do resultado de migration.Job.Run.
func New(summary *migration.Summary, err error) Report {
	r := Report{Status: StatusCompleted}
	if summary != nil {
		r.Summary = *summary
	}
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()

		var failed *migration.BatchFailedError
		if errors.As(err, &failed) {
			idx := failed.BatchIndex
			r.FailedBatch = &idx
		}
	}
	return r
}

// Publisher entrega o Report a um destino externo.
type Publisher interface {
	Publish(ctx context.Context, r Report) error
}

// Multi publica em todos os destinos e junta os erros.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, r Report) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
