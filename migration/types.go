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
)

// MaxBatchSize é o máximo de operações aceito por uma transação atômica.
const MaxBatchSize = 25

// Field identifica um atributo lógico do registro. O nome físico é decidido
// pelo Backend.
type Field int

const (
	FieldPartitionKey Field = iota
	FieldSortKey
	FieldPreviousDegrees
)

func (f Field) String() string {
	switch f {
	case FieldPartitionKey:
		return "partition_key"
	case FieldSortKey:
		return "sort_key"
	case FieldPreviousDegrees:
		return "previous_degrees"
	}
	return "unknown"
}

// Projection são os únicos campos que o Reader pede ao Backend.
var Projection = []Field{FieldPartitionKey, FieldSortKey, FieldPreviousDegrees}

// Key é a chave composta de um registro. Sort fica vazio em tabelas sem sort key.
type Key struct {
	Partition string
	Sort      string
}

// Record é um item lido da tabela. PreviousDegrees é nil quando o atributo
// não existe (ou é NULL).
type Record struct {
	Key             Key
	PreviousDegrees any
}

// AuditStamp é gravado junto com a flag para identificar a migração.
type AuditStamp struct {
	UpdatedTime string `dynamodbav:"updatedTime" json:"updatedTime"`
	UpdatedBy   string `dynamodbav:"updateBy" json:"updateBy"`
}

// UpdateOperation descreve a atualização pendente de um único registro.
type UpdateOperation struct {
	Key      Key
	IsExpert bool
	Audit    AuditStamp
}

// ScanRequest é o pedido de uma página. Cursor vazio começa do início.
type ScanRequest struct {
	Fields []Field
	Cursor string
	Limit  int32
}

// Page é uma página do Scan. Next vazio indica a última página.
type Page struct {
	Records []Record
	Next    string
}

// Backend é o colaborador de armazenamento.
type Backend interface {
	// ScanPage lê uma página projetada em req.Fields.
	ScanPage(ctx context.Context, req ScanRequest) (Page, error)
	// AtomicWrite aplica todas as operações do lote ou nenhuma (máx. MaxBatchSize).
	AtomicWrite(ctx context.Context, batch []UpdateOperation) error
}
