package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ConfigValidator struct {
	validate *validator.Validate
}

// NewValidator cria uma nova instância do validador
func NewValidator() *ConfigValidator {
	return &ConfigValidator{
		validate: validator.New(),
	}
}

// Validate realiza validações estruturais (tags) e semânticas (lógica)
func (cv *ConfigValidator) Validate(cfg *MigrationConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuração nula")
	}

	// 1. Validação Estrutural (Tags do struct: required, oneof, etc)
	if err := cv.validate.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errMsgs []string
			for _, e := range validationErrors {
				errMsgs = append(errMsgs, fmt.Sprintf("Campo '%s' falhou na regra '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("erros de validação estrutural:\n- %s", strings.Join(errMsgs, "\n- "))
		}
		return fmt.Errorf("erro de validação estrutural: %w", err)
	}

	// 2. Validação Semântica (Regras de negócio da configuração)
	if err := cv.validateSemantics(cfg); err != nil {
		return fmt.Errorf("erro de validação semântica: %w", err)
	}

	return nil
}

func (cv *ConfigValidator) validateSemantics(cfg *MigrationConfig) error {
	// 1. Atributos distintos: a flag e o carimbo não podem sobrescrever chaves
	// nem o campo lido
	seen := make(map[string]string)
	attrs := []struct{ role, name string }{
		{"hash_key", cfg.Table.HashKey},
		{"sort_key", cfg.Table.SortKey},
		{"predicate_attribute", cfg.Table.PredicateAttribute},
		{"flag_attribute", cfg.Table.FlagAttribute},
		{"audit_attribute", cfg.Table.AuditAttribute},
	}
	for _, a := range attrs {
		if a.name == "" {
			continue
		}
		if prev, ok := seen[a.name]; ok {
			return fmt.Errorf("atributo '%s' usado em '%s' e '%s'", a.name, prev, a.role)
		}
		seen[a.name] = a.role
	}

	// 2. Backoff coerente
	if cfg.Retry.MaxDelay > 0 && cfg.Retry.MaxDelay < cfg.Retry.BaseDelay {
		return fmt.Errorf("retry.max_delay (%s) menor que retry.base_delay (%s)", cfg.Retry.MaxDelay, cfg.Retry.BaseDelay)
	}

	// 3. Credencial estática exige o par completo
	if cfg.AWS.SessionToken != "" && cfg.AWS.AccessKeyID == "" {
		return fmt.Errorf("aws.session_token informado sem aws.access_key_id")
	}

	// 4. Lock sem TTL ficaria preso se o processo morrer
	if cfg.Lock.RedisAddr != "" && cfg.Lock.TTL == 0 {
		return fmt.Errorf("lock.ttl é obrigatório quando lock.redis_addr é informado")
	}

	return nil
}
