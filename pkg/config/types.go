package config

import (
	"time"

	"github.com/raywall/dynamodb-migrator/dyndb"
)

// MigrationConfig representa a estrutura raiz do arquivo YAML da migração.
//
// Cada campo pode vir do YAML (tag yaml) ou do ambiente (tag env), nessa ordem
// de precedência crescente. envDefault é aplicado antes de ambos.
type MigrationConfig struct {
	Version   string            `yaml:"version"`
	Service   ServiceDetails    `yaml:"service"`
	Table     dyndb.TableConfig `yaml:"table"`
	AWS       AWSConf           `yaml:"aws"`
	Migration MigrationConf     `yaml:"migration"`
	Retry     RetryConf         `yaml:"retry"`
	Logging   LoggingConf       `yaml:"logging"`
	Metrics   MetricsConf       `yaml:"metrics"`
	Report    ReportConf        `yaml:"report"`
	Lock      LockConf          `yaml:"lock"`
}

// ServiceDetails contém os metadados e o runtime da execução.
type ServiceDetails struct {
	Name    string `yaml:"name" env:"SERVICE_NAME" envDefault:"dynamodb-migrator" validate:"required,hostname_rfc1123"`
	Runtime string `yaml:"runtime" env:"MIGRATION_RUNTIME" envDefault:"local" validate:"required,oneof=local lambda"`
}

// AWSConf define região, credenciais estáticas e endpoint alternativo.
// Sem credenciais, vale a cadeia padrão do SDK (env, profile, IAM role).
type AWSConf struct {
	Region          string `yaml:"region" env:"AWS_REGION"`
	Endpoint        string `yaml:"endpoint" env:"DYNAMODB_ENDPOINT" validate:"omitempty,url"`
	AccessKeyID     string `yaml:"access_key_id" env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY" validate:"required_with=AccessKeyID"`
	SessionToken    string `yaml:"session_token" env:"AWS_SESSION_TOKEN"`
}

type MigrationConf struct {
	BatchSize   int    `yaml:"batch_size" env:"MIGRATION_BATCH_SIZE" envDefault:"25" validate:"min=1,max=25"`
	PageSize    int32  `yaml:"page_size" env:"MIGRATION_PAGE_SIZE" validate:"min=0"`
	Mode        string `yaml:"mode" env:"MIGRATION_MODE" envDefault:"buffered" validate:"oneof=buffered streaming"`
	BufferPages int    `yaml:"buffer_pages" env:"MIGRATION_BUFFER_PAGES" envDefault:"4" validate:"min=1"`
	DryRun      bool   `yaml:"dry_run" env:"MIGRATION_DRY_RUN"`
	Actor       string `yaml:"actor" env:"MIGRATION_ACTOR" envDefault:"Batch update migration" validate:"required"`
}

type RetryConf struct {
	BaseDelay   time.Duration `yaml:"base_delay" env:"RETRY_BASE_DELAY" envDefault:"1s" validate:"min=0"`
	MaxDelay    time.Duration `yaml:"max_delay" env:"RETRY_MAX_DELAY" envDefault:"5m" validate:"min=0"`
	MaxAttempts int           `yaml:"max_attempts" env:"RETRY_MAX_ATTEMPTS" envDefault:"10" validate:"min=0"` // 0 = ilimitado
	MaxElapsed  time.Duration `yaml:"max_elapsed" env:"RETRY_MAX_ELAPSED" validate:"min=0"`
	BackoffMode string        `yaml:"backoff_mode" env:"RETRY_BACKOFF_MODE" envDefault:"attempt" validate:"oneof=attempt batch_index"`
}

type LoggingConf struct {
	Enabled bool   `yaml:"enabled" env:"LOG_ENABLED" envDefault:"true"`
	Level   string `yaml:"level" env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Format  string `yaml:"format" env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`
}

type MetricsConf struct {
	Datadog DatadogConf `yaml:"datadog"`
}

type DatadogConf struct {
	Enabled   bool     `yaml:"enabled" env:"DD_ENABLED"`
	Addr      string   `yaml:"addr" env:"DD_AGENT_HOST" validate:"required_if=Enabled true"`
	Namespace string   `yaml:"namespace" env:"DD_NAMESPACE" envDefault:"migration."`
	Tags      []string `yaml:"tags"`
}

// ReportConf define para onde o resumo da execução é publicado. Ambos opcionais.
type ReportConf struct {
	S3URI       string `yaml:"s3_uri" env:"REPORT_S3_URI" validate:"omitempty,startswith=s3://"`
	SQSQueueURL string `yaml:"sqs_queue_url" env:"REPORT_SQS_QUEUE_URL" validate:"omitempty,url"`
}

// LockConf habilita o lock distribuído em Redis quando RedisAddr é informado.
type LockConf struct {
	RedisAddr     string        `yaml:"redis_addr" env:"LOCK_REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisPassword string        `yaml:"redis_password" env:"LOCK_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"LOCK_REDIS_DB" validate:"min=0"`
	Key           string        `yaml:"key" env:"LOCK_KEY"`
	TTL           time.Duration `yaml:"ttl" env:"LOCK_TTL" envDefault:"1h" validate:"min=0"`
}
