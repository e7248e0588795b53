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
package envloader

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrInvalidConfig permite testar InvalidConfigError com errors.Is.
var ErrInvalidConfig = errors.New("envloader: config must be a pointer to struct")

// InvalidConfigError é retornado quando o argumento não é um ponteiro para struct.
type InvalidConfigError struct {
	Value reflect.Type
}

func (e *InvalidConfigError) Error() string {
	if e.Value == nil {
		return ErrInvalidConfig.Error() + ", got nil"
	}
	if e.Value.Kind() != reflect.Ptr {
		return fmt.Sprintf("%s, got %s", ErrInvalidConfig, e.Value.Kind())
	}
	return fmt.Sprintf("%s, got pointer to %s", ErrInvalidConfig, e.Value.Elem().Kind())
}

func (e *InvalidConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// FieldError indica que o valor de uma variável não pôde ser convertido para
// o tipo do campo. Err é o erro original (ex: *strconv.NumError).
type FieldError struct {
	FieldName string
	EnvVar    string
	Value     string
	Err       error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("envloader: error setting field %s from env %s=%q: %v",
		e.FieldName, e.EnvVar, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// UnsupportedTypeError indica um tipo de campo sem conversão (map, slice, ...).
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("envloader: unsupported type %s", e.Type)
}
