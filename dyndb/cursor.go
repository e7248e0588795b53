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
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// cursorValue preserva o tipo do atributo de chave (S, N ou B) no cursor.
type cursorValue struct {
	T string `json:"t"`
	V string `json:"v,omitempty"`
	B []byte `json:"b,omitempty"`
}

// EncodeCursor converte o LastEvaluatedKey em um token Base64. Um mapa vazio
// (última página) vira "".
func EncodeCursor(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}

	raw := make(map[string]cursorValue, len(key))
	for name, av := range key {
		switch v := av.(type) {
		case *types.AttributeValueMemberS:
			raw[name] = cursorValue{T: "S", V: v.Value}
		case *types.AttributeValueMemberN:
			raw[name] = cursorValue{T: "N", V: v.Value}
		case *types.AttributeValueMemberB:
			raw[name] = cursorValue{T: "B", B: v.Value}
		default:
			return "", fmt.Errorf("%w: %s is %T", ErrUnsupportedKey, name, av)
		}
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("dyndb: encode cursor: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodeCursor é o inverso de EncodeCursor. Token vazio retorna nil (início).
func DecodeCursor(token string) (map[string]types.AttributeValue, error) {
	if token == "" {
		return nil, nil
	}

	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	var raw map[string]cursorValue
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidCursor)
	}

	key := make(map[string]types.AttributeValue, len(raw))
	for name, v := range raw {
		switch v.T {
		case "S":
			key[name] = &types.AttributeValueMemberS{Value: v.V}
		case "N":
			key[name] = &types.AttributeValueMemberN{Value: v.V}
		case "B":
			key[name] = &types.AttributeValueMemberB{Value: v.B}
		default:
			return nil, fmt.Errorf("%w: attribute %s has type %q", ErrInvalidCursor, name, v.T)
		}
	}
	return key, nil
}
