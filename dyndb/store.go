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
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/raywall/dynamodb-migrator/envloader"
	"github.com/raywall/dynamodb-migrator/migration"
)

// Table é o colaborador de armazenamento da migração. Implementa
// migration.Backend.
type Table struct {
	client Client
	cfg    TableConfig
}

var _ migration.Backend = (*Table)(nil)

// New cria a Table com a configuração informada.
func New(client Client, cfg TableConfig) *Table {
	return &Table{
		client: client,
		cfg:    cfg,
	}
}

// NewFromEnv cria a Table com a TableConfig lida do ambiente
// (DYNAMODB_TABLE_NAME, DYNAMODB_HASH_KEY, ...).
func NewFromEnv(client Client) (*Table, error) {
	var cfg TableConfig
	if err := envloader.Load(&cfg); err != nil {
		return nil, fmt.Errorf("dyndb: table config: %w", err)
	}
	if cfg.TableName == "" {
		return nil, fmt.Errorf("dyndb: table config: DYNAMODB_TABLE_NAME is not set")
	}
	return New(client, cfg), nil
}

// Name retorna o nome da tabela.
func (t *Table) Name() string {
	return t.cfg.TableName
}

// AtomicWrite aplica o lote como uma única transação (tudo ou nada).
//
// O ClientRequestToken é derivado do conteúdo do lote, então reenvios do
// mesmo lote são idempotentes no DynamoDB por até 10 minutos.
func (t *Table) AtomicWrite(ctx context.Context, batch []migration.UpdateOperation) error {
	if len(batch) == 0 {
		return nil
	}
	// DynamoDB limita a 25 operações por TransactWriteItems
	if len(batch) > MaxTransactItems {
		return fmt.Errorf("%w: %d > %d", ErrTooManyItems, len(batch), MaxTransactItems)
	}

	items := make([]types.TransactWriteItem, 0, len(batch))
	for _, op := range batch {
		update, err := t.updateItem(op)
		if err != nil {
			return err
		}
		items = append(items, types.TransactWriteItem{Update: update})
	}

	_, err := t.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems:      items,
		ClientRequestToken: aws.String(t.requestToken(batch)),
	})
	if err != nil {
		return fmt.Errorf("dyndb: transact write failed: %w", err)
	}
	return nil
}

// updateItem monta `SET #flag = :flag, #audit = :audit` para uma operação.
func (t *Table) updateItem(op migration.UpdateOperation) (*types.Update, error) {
	upd := expression.
		Set(expression.Name(t.cfg.FlagAttribute), expression.Value(op.IsExpert)).
		Set(expression.Name(t.cfg.AuditAttribute), expression.Value(op.Audit))

	expr, err := expression.NewBuilder().WithUpdate(upd).Build()
	if err != nil {
		return nil, fmt.Errorf("dyndb: update expression failed: %w", err)
	}

	return &types.Update{
		TableName:                 aws.String(t.cfg.TableName),
		Key:                       t.key(op.Key),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, nil
}

func (t *Table) key(k migration.Key) map[string]types.AttributeValue {
	key := map[string]types.AttributeValue{
		t.cfg.HashKey: &types.AttributeValueMemberS{Value: k.Partition},
	}
	if t.cfg.SortKey != "" {
		key[t.cfg.SortKey] = &types.AttributeValueMemberS{Value: k.Sort}
	}
	return key
}

// requestToken gera um UUIDv5 (36 caracteres, limite do DynamoDB) a partir
// da tabela e de cada operação do lote.
func (t *Table) requestToken(batch []migration.UpdateOperation) string {
	var sb strings.Builder
	sb.WriteString(t.cfg.TableName)
	for _, op := range batch {
		sb.WriteByte('\n')
		sb.WriteString(op.Key.Partition)
		sb.WriteByte(0)
		sb.WriteString(op.Key.Sort)
		sb.WriteByte(0)
		sb.WriteString(strconv.FormatBool(op.IsExpert))
		sb.WriteByte(0)
		sb.WriteString(op.Audit.UpdatedTime)
		sb.WriteByte(0)
		sb.WriteString(op.Audit.UpdatedBy)
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(sb.String())).String()
}
