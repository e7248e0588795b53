package awsconf

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/raywall/dynamodb-migrator/pkg/config"
)

var (
	awsCfg  aws.Config
	awsOnce sync.Once
	awsErr  error
)

// Load carrega a configuração da AWS. Região e credenciais estáticas de conf
// têm precedência sobre a cadeia padrão do SDK (env vars, profile, IAM role).
func Load(ctx context.Context, conf config.AWSConf) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if conf.Region != "" {
		opts = append(opts, awsconfig.WithRegion(conf.Region))
	}
	if conf.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.AccessKeyID, conf.SecretAccessKey, conf.SessionToken),
		))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

// Shared é o Load em modo lazy-singleton: a primeira chamada define a
// configuração usada por todo o processo.
func Shared(ctx context.Context, conf config.AWSConf) (aws.Config, error) {
	awsOnce.Do(func() {
		awsCfg, awsErr = Load(ctx, conf)
	})
	return awsCfg, awsErr
}

// NewDynamoDB cria o cliente DynamoDB. O endpoint alternativo (ex.: DynamoDB
// Local) vale apenas para este cliente.
func NewDynamoDB(cfg aws.Config, conf config.AWSConf) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
		}
	})
}
