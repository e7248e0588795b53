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

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/raywall/dynamodb-migrator/migration"
)

// ScanPage executa um Scan de uma página, projetado nos campos pedidos.
func (t *Table) ScanPage(ctx context.Context, req migration.ScanRequest) (migration.Page, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(t.cfg.TableName),
	}

	if len(req.Fields) > 0 {
		proj, err := t.projection(req.Fields)
		if err != nil {
			return migration.Page{}, err
		}
		expr, err := expression.NewBuilder().WithProjection(proj).Build()
		if err != nil {
			return migration.Page{}, fmt.Errorf("dyndb: projection failed: %w", err)
		}
		input.ProjectionExpression = expr.Projection()
		input.ExpressionAttributeNames = expr.Names()
	}

	if req.Limit > 0 {
		input.Limit = aws.Int32(req.Limit)
	}

	start, err := DecodeCursor(req.Cursor)
	if err != nil {
		return migration.Page{}, err
	}
	input.ExclusiveStartKey = start

	out, err := t.client.Scan(ctx, input)
	if err != nil {
		return migration.Page{}, fmt.Errorf("dyndb: scan failed: %w", err)
	}

	records := make([]migration.Record, 0, len(out.Items))
	for _, item := range out.Items {
		rec, err := t.decode(item)
		if err != nil {
			return migration.Page{}, err
		}
		records = append(records, rec)
	}

	next, err := EncodeCursor(out.LastEvaluatedKey)
	if err != nil {
		return migration.Page{}, err
	}

	return migration.Page{Records: records, Next: next}, nil
}

func (t *Table) projection(fields []migration.Field) (expression.ProjectionBuilder, error) {
	names := make([]expression.NameBuilder, 0, len(fields))
	for _, f := range fields {
		name, ok := t.cfg.attribute(f)
		if !ok {
			// tabela sem sort key: o campo simplesmente não existe
			if f == migration.FieldSortKey {
				continue
			}
			return expression.ProjectionBuilder{}, fmt.Errorf("dyndb: no attribute configured for field %d", f)
		}
		names = append(names, expression.Name(name))
	}
	if len(names) == 0 {
		return expression.ProjectionBuilder{}, fmt.Errorf("dyndb: empty projection")
	}
	return expression.NamesList(names[0], names[1:]...), nil
}

// decode converte um item projetado em migration.Record.
func (t *Table) decode(item map[string]types.AttributeValue) (migration.Record, error) {
	var rec migration.Record

	pk, err := keyString(item, t.cfg.HashKey)
	if err != nil {
		return rec, err
	}
	rec.Key.Partition = pk

	if t.cfg.SortKey != "" {
		sk, err := keyString(item, t.cfg.SortKey)
		if err != nil {
			return rec, err
		}
		rec.Key.Sort = sk
	}

	if av, ok := item[t.cfg.PredicateAttribute]; ok {
		if err := attributevalue.Unmarshal(av, &rec.PreviousDegrees); err != nil {
			return rec, fmt.Errorf("dyndb: unmarshal %s failed: %w", t.cfg.PredicateAttribute, err)
		}
	}

	return rec, nil
}

func keyString(item map[string]types.AttributeValue, name string) (string, error) {
	av, ok := item[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingKey, name)
	}
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T", ErrUnsupportedKey, name, av)
	}
	return s.Value, nil
}
