package injector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"
)

// Regex para capturar padrões ${tipo.chave}
// Ex: ${env.API_KEY}, ${ssm./app/redis/password}, ${secret.prod/migrator#redis_password}
var pattern = regexp.MustCompile(`\$\{(env|ssm|secret)\.([^}]+)\}`)

var (
	// ErrNoParameterStore indica um ${ssm.*} sem ParameterStore configurado.
	ErrNoParameterStore = errors.New("injector: no parameter store configured")
	// ErrNoSecretStore indica um ${secret.*} sem SecretStore configurado.
	ErrNoSecretStore = errors.New("injector: no secret store configured")
)

// ParameterStore resolve ${ssm.nome}.
type ParameterStore interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// SecretStore resolve ${secret.id} e ${secret.id#campo}.
type SecretStore interface {
	GetSecret(ctx context.Context, ref string) (string, error)
}

type Injector struct {
	params  ParameterStore
	secrets SecretStore
}

type Option func(*Injector)

// WithParameterStore habilita a fonte ${ssm.*}.
func WithParameterStore(p ParameterStore) Option {
	return func(i *Injector) { i.params = p }
}

// WithSecretStore habilita a fonte ${secret.*}.
func WithSecretStore(s SecretStore) Option {
	return func(i *Injector) { i.secrets = s }
}

func New(opts ...Option) *Injector {
	i := &Injector{}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Inject substitui os placeholders de todas as strings alcançáveis a partir
// de target (campos, ponteiros, slices e mapas com chave string).
func (i *Injector) Inject(ctx context.Context, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("injector: target deve ser um ponteiro para struct não nulo")
	}
	return i.injectRecursive(ctx, v.Elem())
}

func (i *Injector) injectRecursive(ctx context.Context, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Struct:
		for k := 0; k < v.NumField(); k++ {
			value := v.Field(k)
			if !value.CanSet() {
				continue
			}
			if err := i.injectRecursive(ctx, value); err != nil {
				return err
			}
		}

	case reflect.String:
		if !v.CanSet() {
			return nil
		}
		newValue, err := i.interpolateString(ctx, v.String())
		if err != nil {
			return err
		}
		v.SetString(newValue)

	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String && !v.IsNil() {
			return i.injectMap(ctx, v)
		}

	case reflect.Ptr:
		if !v.IsNil() {
			return i.injectRecursive(ctx, v.Elem())
		}

	case reflect.Slice:
		for j := 0; j < v.Len(); j++ {
			if err := i.injectRecursive(ctx, v.Index(j)); err != nil {
				return err
			}
		}
	}
	return nil
}

// interpolateString realiza a substituição baseada em Regex
func (i *Injector) interpolateString(ctx context.Context, input string) (string, error) {
	if !strings.Contains(input, "${") {
		return input, nil
	}

	var err error
	result := pattern.ReplaceAllStringFunc(input, func(match string) string {
		if err != nil {
			return match
		}
		sub := pattern.FindStringSubmatch(match)

		val, resolveErr := i.fetchValue(ctx, sub[1], sub[2])
		if resolveErr != nil {
			err = fmt.Errorf("injector: %s: %w", match, resolveErr)
			return match
		}
		return val
	})

	return result, err
}

// injectMap lida com mapas dinâmicos
func (i *Injector) injectMap(ctx context.Context, v reflect.Value) error {
	iter := v.MapRange()
	updates := make(map[string]reflect.Value)

	for iter.Next() {
		key := iter.Key()
		elem := iter.Value()
		if elem.Kind() == reflect.Interface {
			elem = elem.Elem()
		}
		if !elem.IsValid() {
			continue
		}

		switch elem.Kind() {
		case reflect.String:
			newVal, err := i.interpolateString(ctx, elem.String())
			if err != nil {
				return err
			}
			updates[key.String()] = reflect.ValueOf(newVal).Convert(v.Type().Elem())
		case reflect.Map:
			if elem.Type().Key().Kind() == reflect.String {
				if err := i.injectMap(ctx, elem); err != nil {
					return err
				}
			}
		}
	}

	for k, val := range updates {
		v.SetMapIndex(reflect.ValueOf(k).Convert(v.Type().Key()), val)
	}
	return nil
}

// fetchValue centraliza a busca de dados
func (i *Injector) fetchValue(ctx context.Context, sourceType, key string) (string, error) {
	switch sourceType {
	case "env":
		// variável não encontrada resolve para vazio
		return os.Getenv(key), nil

	case "ssm":
		if i.params == nil {
			return "", ErrNoParameterStore
		}
		return i.params.GetParameter(ctx, key)

	case "secret":
		if i.secrets == nil {
			return "", ErrNoSecretStore
		}
		return i.secrets.GetSecret(ctx, key)
	}

	return "", fmt.Errorf("fonte desconhecida %q", sourceType)
}
