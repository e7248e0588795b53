package metrics

import (
	"github.com/rs/zerolog"
)

// Processor registra métricas com um conjunto fixo de tags (ex: tabela, run_id).
//
// Falhas do provider nunca interrompem a migração: são apenas logadas em debug.
type Processor struct {
	definitions map[string]MetricDefinition
	provider    Provider
	tags        []string
	logger      zerolog.Logger
}

// NewProcessor cria um processador. Um provider nil descarta todas as métricas.
func NewProcessor(provider Provider, tags []string, logger zerolog.Logger) *Processor {
	defs := make(map[string]MetricDefinition, len(Definitions))
	for _, d := range Definitions {
		defs[d.Name] = d
	}

	return &Processor{
		definitions: defs,
		provider:    provider,
		tags:        tags,
		logger:      logger,
	}
}

// With retorna um novo Processor com tags adicionais.
func (p *Processor) With(tags ...string) *Processor {
	if p == nil {
		return nil
	}
	merged := make([]string, 0, len(p.tags)+len(tags))
	merged = append(merged, p.tags...)
	merged = append(merged, tags...)

	return &Processor{
		definitions: p.definitions,
		provider:    p.provider,
		tags:        merged,
		logger:      p.logger,
	}
}

// Record envia o valor usando o tipo registrado para a métrica.
func (p *Processor) Record(name string, value float64) {
	if p == nil || p.provider == nil {
		return
	}

	def, ok := p.definitions[name]
	if !ok {
		p.logger.Debug().Str("metric", name).Msg("métrica não definida")
		return
	}

	var err error
	switch def.Type {
	case TypeCount:
		err = p.provider.Count(def.Name, value, p.tags)
	case TypeGauge:
		err = p.provider.Gauge(def.Name, value, p.tags)
	case TypeHistogram:
		err = p.provider.Histogram(def.Name, value, p.tags)
	}
	if err != nil {
		p.logger.Debug().Err(err).Str("metric", name).Msg("falha ao enviar métrica")
	}
}
