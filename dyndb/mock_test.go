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
package dyndb_test

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/raywall/dynamodb-migrator/dyndb"
	"github.com/stretchr/testify/mock"
)

// MockDynamoClient é um mock para a interface dyndb.Client
type MockDynamoClient struct {
	mock.Mock
}

func (m *MockDynamoClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.ScanOutput), args.Error(1)
}

func (m *MockDynamoClient) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.TransactWriteItemsOutput), args.Error(1)
}

// testConfig é a configuração padrão usada nos testes
func testConfig() dyndb.TableConfig {
	return dyndb.TableConfig{
		TableName:          "test-table",
		HashKey:            "partitionKey",
		SortKey:            "sortKey",
		PredicateAttribute: "previousDegrees",
		FlagAttribute:      "isExpert",
		AuditAttribute:     "updatedAt",
	}
}

// helper function para criar a tabela de teste
func createTestTable(client *MockDynamoClient) *dyndb.Table {
	return dyndb.New(client, testConfig())
}

// helper function para criar tabela sem sort key
func createTestTableWithoutSortKey(client *MockDynamoClient) *dyndb.Table {
	cfg := testConfig()
	cfg.SortKey = ""
	return dyndb.New(client, cfg)
}

// nameValues retorna os nomes físicos referenciados por uma expressão
func nameValues(names map[string]string) []string {
	out := make([]string, 0, len(names))
	for _, v := range names {
		out = append(out, v)
	}
	return out
}

func sorted(in []string) []string {
	sort.Strings(in)
	return in
}
