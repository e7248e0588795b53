package metrics

// Provider define o contrato para envio de métricas.
// Isso permite trocar Datadog por Prometheus ou Logging sem alterar a lógica de migração.
type Provider interface {
	Count(name string, value float64, tags []string) error
	Gauge(name string, value float64, tags []string) error
	Histogram(name string, value float64, tags []string) error
}

// Flusher é implementado por providers que acumulam métricas em buffer.
type Flusher interface {
	Flush() error
}

// MetricType define os tipos suportados.
type MetricType string

const (
	TypeCount     MetricType = "count"
	TypeGauge     MetricType = "gauge"
	TypeHistogram MetricType = "histogram"
)

// Nomes das métricas emitidas pela migração. O namespace (ex: "migration.")
// é aplicado pelo provider.
const (
	PagesScanned     = "pages.scanned"
	RecordsScanned   = "records.scanned"
	RecordsExperts   = "records.experts"
	BatchesCommitted = "batches.committed"
	BatchRetries     = "batch.retries"
	BatchFailed      = "batch.failed"
	BatchLatencyMs   = "batch.latency_ms"
	RunDurationMs    = "run.duration_ms"
)

// MetricDefinition armazena os metadados da métrica (nome real, tipo).
type MetricDefinition struct {
	Name string
	Type MetricType
}

// Definitions lista todas as métricas conhecidas da migração.
var Definitions = []MetricDefinition{
	{Name: PagesScanned, Type: TypeCount},
	{Name: RecordsScanned, Type: TypeCount},
	{Name: RecordsExperts, Type: TypeCount},
	{Name: BatchesCommitted, Type: TypeCount},
	{Name: BatchRetries, Type: TypeCount},
	{Name: BatchFailed, Type: TypeCount},
	{Name: BatchLatencyMs, Type: TypeHistogram},
	{Name: RunDurationMs, Type: TypeGauge},
}
