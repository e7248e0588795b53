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
package dyndb

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/raywall/dynamodb-migrator/migration"
)

// MaxTransactItems é o limite de operações por TransactWriteItems.
const MaxTransactItems = migration.MaxBatchSize

var (
	// ErrTooManyItems é retornado quando um lote excede MaxTransactItems.
	ErrTooManyItems = errors.New("dyndb: transaction exceeds item limit")
	// ErrUnsupportedKey indica um atributo de chave que não é S, N ou B
	// (cursor) ou que não é string (registro).
	ErrUnsupportedKey = errors.New("dyndb: unsupported key attribute type")
	// ErrMissingKey indica um item retornado sem um dos atributos de chave.
	ErrMissingKey = errors.New("dyndb: item without key attribute")
	// ErrInvalidCursor indica um cursor que não foi gerado por EncodeCursor.
	ErrInvalidCursor = errors.New("dyndb: invalid cursor")
)

// Client interface para abstrair o cliente DynamoDB do SDK da AWS.
//
// Apenas as duas chamadas usadas pela migração fazem parte do contrato, o que
// permite substituir o cliente real por mocks.
type Client interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// TableConfig descreve a configuração da tabela e dos atributos migrados.
//
// As tags `env` permitem carregar a configuração de variáveis de ambiente.
type TableConfig struct {
	TableName string `yaml:"name" env:"DYNAMODB_TABLE_NAME" validate:"required"`
	HashKey   string `yaml:"hash_key" env:"DYNAMODB_HASH_KEY" envDefault:"partitionKey" validate:"required"`
	SortKey   string `yaml:"sort_key" env:"DYNAMODB_SORT_KEY,allowempty" envDefault:"sortKey"` // vazio = tabela sem sort key

	// PredicateAttribute é o campo cuja ausência classifica o registro como expert.
	PredicateAttribute string `yaml:"predicate_attribute" env:"MIGRATION_PREDICATE_ATTRIBUTE" envDefault:"previousDegrees" validate:"required"`
	FlagAttribute      string `yaml:"flag_attribute" env:"MIGRATION_FLAG_ATTRIBUTE" envDefault:"isExpert" validate:"required"`
	AuditAttribute     string `yaml:"audit_attribute" env:"MIGRATION_AUDIT_ATTRIBUTE" envDefault:"updatedAt" validate:"required"`
}

// attribute traduz um campo lógico da migração para o nome físico.
func (c TableConfig) attribute(f migration.Field) (string, bool) {
	switch f {
	case migration.FieldPartitionKey:
		return c.HashKey, c.HashKey != ""
	case migration.FieldSortKey:
		return c.SortKey, c.SortKey != ""
	case migration.FieldPreviousDegrees:
		return c.PredicateAttribute, c.PredicateAttribute != ""
	}
	return "", false
}
