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
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// mode controla quais fontes são aplicadas em cada campo.
type mode int

const (
	modeLoad mode = iota
	modeDefaults
	modeOverride
)

// Load preenche uma struct com valores de variáveis de ambiente baseado nas
// tags "env" e "envDefault". O default só é aplicado a campos zerados.
func Load(config interface{}) error {
	return apply(config, modeLoad)
}

// Defaults aplica apenas as tags "envDefault", ignorando o ambiente.
func Defaults(config interface{}) error {
	return apply(config, modeDefaults)
}

// Override aplica apenas variáveis de ambiente definidas (não vazias).
func Override(config interface{}) error {
	return apply(config, modeOverride)
}

func apply(config interface{}, m mode) error {
	val := reflect.ValueOf(config)
	if !val.IsValid() {
		return &InvalidConfigError{}
	}
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return &InvalidConfigError{Value: val.Type()}
	}

	return loadStruct(val.Elem(), m)
}

// loadStruct processa recursivamente uma struct
func loadStruct(val reflect.Value, m mode) error {
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := loadStruct(field, m); err != nil {
				return err
			}
			continue
		}

		if field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct {
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			if err := loadStruct(field.Elem(), m); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}
		name, opts, _ := strings.Cut(envTag, ",")
		allowEmpty := opts == "allowempty"

		value, ok := resolve(field, name, fieldType.Tag.Get("envDefault"), allowEmpty, m)
		if !ok {
			continue
		}

		if err := setFieldValue(field, value); err != nil {
			return &FieldError{
				FieldName: fieldType.Name,
				EnvVar:    name,
				Value:     value,
				Err:       err,
			}
		}
	}

	return nil
}

// resolve escolhe o valor bruto do campo conforme o modo. ok=false deixa o
// campo como está.
func resolve(field reflect.Value, name, defaultTag string, allowEmpty bool, m mode) (string, bool) {
	switch m {
	case modeDefaults:
		return defaultTag, defaultTag != ""
	case modeOverride:
		return lookup(name, allowEmpty)
	}

	if envValue, ok := lookup(name, allowEmpty); ok {
		return envValue, true
	}
	if field.IsZero() {
		return defaultTag, defaultTag != ""
	}
	return "", false
}

// lookup lê a variável. Definida mas vazia só conta com a opção
// "allowempty" na tag (ex: `env:"DYNAMODB_SORT_KEY,allowempty"`).
func lookup(name string, allowEmpty bool) (string, bool) {
	v, ok := os.LookupEnv(name)
	if !ok || (v == "" && !allowEmpty) {
		return "", false
	}
	return v, true
}

// setFieldValue define o valor de um campo baseado no seu tipo
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	// time.Duration é int64, então precisa vir antes do switch por Kind
	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(intValue)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		uintValue, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(uintValue)

	case reflect.Bool:
		boolValue, err := strconv.ParseBool(strings.ToLower(value))
		if err != nil {
			return err
		}
		field.SetBool(boolValue)

	case reflect.Float32, reflect.Float64:
		floatValue, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)

	default:
		return &UnsupportedTypeError{Type: field.Type()}
	}

	return nil
}

// MustLoad é similar ao Load, mas panic em caso de erro
func MustLoad(config interface{}) {
	if err := Load(config); err != nil {
		panic(err)
	}
}
