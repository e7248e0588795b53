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
	"reflect"
	"time"
)

// DefaultActor é o valor gravado em updateBy.
const DefaultActor = "Batch update migration"

// TimestampLayout é o formato ISO-8601 em UTC, com milissegundos.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Builder converte registros em operações de atualização.
type Builder struct {
	actor string
	now   func() time.Time
}

// NewBuilder cria um Builder. actor vazio usa DefaultActor.
func NewBuilder(actor string) *Builder {
	if actor == "" {
		actor = DefaultActor
	}
	return &Builder{actor: actor, now: time.Now}
}

// Stamp captura o instante atual. Deve ser chamado uma vez por execução.
func (b *Builder) Stamp() AuditStamp {
	return AuditStamp{
		UpdatedTime: b.now().UTC().Format(TimestampLayout),
		UpdatedBy:   b.actor,
	}
}

// Build gera uma operação por registro, todas com o mesmo carimbo.
func (b *Builder) Build(records []Record) []UpdateOperation {
	return b.Apply(records, b.Stamp())
}

// Apply gera as operações com um carimbo já capturado, preservando a ordem.
func (b *Builder) Apply(records []Record, stamp AuditStamp) []UpdateOperation {
	ops := make([]UpdateOperation, len(records))
	for i, rec := range records {
		ops[i] = UpdateOperation{
			Key:      rec.Key,
			IsExpert: IsExpert(rec),
			Audit:    stamp,
		}
	}
	return ops
}

// IsExpert é true quando o registro não tem formações anteriores.
func IsExpert(rec Record) bool {
	return IsEmpty(rec.PreviousDegrees)
}

// IsEmpty trata como vazio: nil, string vazia e coleções sem elementos.
// false e 0 são valores presentes.
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return IsEmpty(rv.Elem().Interface())
	}
	return false
}
