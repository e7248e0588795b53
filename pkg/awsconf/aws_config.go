package awsconf

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/raywall/dynamodb-migrator/pkg/config"
)

// Interfaces para abstrair o SDK da AWS (Permite Mocking)
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Resolver busca parâmetros do SSM e segredos do Secrets Manager. Os clientes
// só são criados no primeiro uso, então uma configuração sem ${ssm.*} ou
// ${secret.*} nunca toca a AWS.
type Resolver struct {
	conf config.AWSConf

	once    sync.Once
	initErr error
	ssm     SSMClient
	secrets SecretsClient
}

// NewResolver cria um Resolver com clientes reais, criados sob demanda.
func NewResolver(conf config.AWSConf) *Resolver {
	return &Resolver{conf: conf}
}

// NewResolverWithClients cria um Resolver com clientes já prontos.
func NewResolverWithClients(ssmClient SSMClient, secretsClient SecretsClient) *Resolver {
	r := &Resolver{ssm: ssmClient, secrets: secretsClient}
	r.once.Do(func() {})
	return r
}

func (r *Resolver) init(ctx context.Context) error {
	r.once.Do(func() {
		cfg, err := Shared(ctx, r.conf)
		if err != nil {
			r.initErr = err
			return
		}
		r.ssm = ssm.NewFromConfig(cfg)
		r.secrets = secretsmanager.NewFromConfig(cfg)
	})
	return r.initErr
}

// GetParameter retorna o valor descriptografado de um parâmetro.
func (r *Resolver) GetParameter(ctx context.Context, name string) (string, error) {
	if err := r.init(ctx); err != nil {
		return "", err
	}
	if r.ssm == nil {
		return "", fmt.Errorf("awsconf: ssm client not configured")
	}

	out, err := r.ssm.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("erro no SSM GetParameter: %w", err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parâmetro %s sem valor", name)
	}
	return *out.Parameter.Value, nil
}

// GetSecret retorna um segredo. Com ref no formato "id#campo", o segredo é
// lido como JSON e apenas o campo é retornado.
func (r *Resolver) GetSecret(ctx context.Context, ref string) (string, error) {
	if err := r.init(ctx); err != nil {
		return "", err
	}
	if r.secrets == nil {
		return "", fmt.Errorf("awsconf: secrets client not configured")
	}

	secretID, field, hasField := strings.Cut(ref, "#")

	out, err := r.secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", fmt.Errorf("erro no SecretsManager: %w", err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("segredo %s sem SecretString", secretID)
	}

	val := *out.SecretString
	if !hasField {
		return val, nil
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return "", fmt.Errorf("segredo %s não é JSON: %w", secretID, err)
	}
	v, ok := data[field]
	if !ok {
		return "", fmt.Errorf("segredo %s não tem o campo %s", secretID, field)
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprintf("%v", v), nil
}
