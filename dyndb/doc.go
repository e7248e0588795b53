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
//
// Package dyndb implementa o colaborador de armazenamento da migração sobre o
// AWS DynamoDB Go SDK (v2).
//
// Visão Geral:
// O pacote expõe `Table`, que satisfaz `migration.Backend` com apenas duas
// operações:
//   - ScanPage: uma página de Scan projetada apenas nos atributos pedidos,
//     retornando um cursor opaco (Base64) derivado do `LastEvaluatedKey`.
//   - AtomicWrite: um `TransactWriteItems` com um `Update` por operação
//     (máx. 25 por chamada, limite do próprio DynamoDB).
//
// Os nomes físicos dos atributos (chaves, predicado, flag e carimbo de
// auditoria) vêm de `TableConfig`, que pode ser carregada de variáveis de
// ambiente via tags `env`.
//
// Exemplo de Uso:
//
//	cfg := dyndb.TableConfig{TableName: "Students", HashKey: "partitionKey", SortKey: "sortKey",
//		PredicateAttribute: "previousDegrees", FlagAttribute: "isExpert", AuditAttribute: "updatedAt"}
//
//	table := dyndb.New(dynamodb.NewFromConfig(awsCfg), cfg)
//	page, err := table.ScanPage(ctx, migration.ScanRequest{Fields: migration.Projection})
//
// Mocks:
// `MockClient` permite testar consumidores sem tocar no SDK.
package dyndb
