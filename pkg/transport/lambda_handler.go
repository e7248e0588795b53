package transport

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/raywall/dynamodb-migrator/pkg/engine"
	"github.com/raywall/dynamodb-migrator/pkg/report"
	"github.com/rs/zerolog"
)

// Event é o payload aceito pela função. Todos os campos são opcionais.
type Event struct {
	DryRun        *bool  `json:"dryRun,omitempty"`
	Mode          string `json:"mode,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Response é o relatório da execução devolvido ao invocador.
type Response struct {
	report.Report
	CorrelationID string `json:"correlationId"`
}

// LambdaHandler adapta invocações Lambda para o engine.Executor
type LambdaHandler struct {
	exec   engine.Executor
	logger zerolog.Logger
}

// NewLambdaHandler cria uma nova instância do adaptador
func NewLambdaHandler(exec engine.Executor, logger zerolog.Logger) *LambdaHandler {
	return &LambdaHandler{exec: exec, logger: logger}
}

// Handle processa a invocação. Um erro da migração é devolvido ao runtime
// para que a invocação conste como falha.
func (h *LambdaHandler) Handle(ctx context.Context, ev Event) (Response, error) {
	start := time.Now()

	corrID := ev.CorrelationID
	if corrID == "" {
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			corrID = lc.AwsRequestID
		}
	}
	if corrID == "" {
		corrID = uuid.NewString()
	}

	logger := h.logger.With().Str("correlation_id", corrID).Logger()
	ctx = logger.WithContext(ctx)

	summary, err := h.exec.Execute(ctx, engine.Overrides{DryRun: ev.DryRun, Mode: ev.Mode})

	resp := Response{
		Report:        report.New(summary, err),
		CorrelationID: corrID,
	}

	event := logger.Info()
	if err != nil {
		event = logger.Error().Err(err)
	}
	event.
		Str("status", resp.Status).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("lambda invocation completed")

	return resp, err
}
